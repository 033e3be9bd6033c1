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

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Transcript records what the scenarios print. Lines are numbered per
// section so runs can be compared.
type Transcript struct {
	w     io.Writer
	color bool
	line  int
}

// NewTranscript returns a transcript writing to w. ANSI colours are used
// when color is set.
func NewTranscript(w io.Writer, color bool) *Transcript {
	return &Transcript{w: w, color: color}
}

// useColor resolves a -color flag value for output going to w.
func useColor(mode string, w io.Writer) (bool, error) {
	switch strings.ToLower(mode) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	}
	return false, fmt.Errorf("unknown color mode %q", mode)
}

// Section starts a new numbered section.
func (t *Transcript) Section(name, desc string) {
	t.line = 0
	if t.color {
		fmt.Fprintf(t.w, "%s== %s ==%s %s\n", ansiBold, name, ansiReset, desc)
	} else {
		fmt.Fprintf(t.w, "== %s == %s\n", name, desc)
	}
}

// Printf writes one line to the current section.
func (t *Transcript) Printf(format string, args ...interface{}) {
	t.line++
	fmt.Fprintf(t.w, "%3d  %s\n", t.line, fmt.Sprintf(format, args...))
}

// Errorf writes an error report, which may span several lines.
func (t *Transcript) Errorf(format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if t.color {
		msg = ansiRed + msg + ansiReset
	}
	fmt.Fprintf(t.w, "!!!  %s\n", strings.ReplaceAll(msg, "\n", "\n     "))
}
