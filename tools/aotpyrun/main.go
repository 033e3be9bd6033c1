// Copyright 2026 The aotpy Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command aotpyrun runs demonstration programs against the suspendable
// computation runtime and prints a transcript of what they produce.
//
// Usage:
//
//	aotpyrun [-config aotpyrun.toml] [-color auto|always|never] [-list] [scenario...]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samber/do"
)

func main() {
	configPath := flag.String("config", "aotpyrun.toml", "runtime configuration `file`; defaults apply when it does not exist")
	colorMode := flag.String("color", "auto", "colorize the transcript: auto, always or never")
	list := flag.Bool("list", false, "list the scenarios and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: aotpyrun [flags] [scenario...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	injector := newInjector(options{
		configPath: *configPath,
		colorMode:  *colorMode,
		out:        os.Stdout,
		traceOut:   os.Stderr,
	})
	runner, err := do.Invoke[*Runner](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aotpyrun: %v\n", err)
		os.Exit(2)
	}
	if *list {
		runner.List()
	} else {
		err = runner.Run(flag.Args())
	}
	if serr := injector.Shutdown(); serr != nil {
		fmt.Fprintf(os.Stderr, "aotpyrun: shutdown: %v\n", serr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "aotpyrun: %v\n", err)
		os.Exit(1)
	}
}
