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
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/samber/do"

	aotpy "github.com/aotpy/aotpy/runtime"
)

// options are the command line settings the services are built from.
type options struct {
	configPath string
	colorMode  string
	out        io.Writer
	traceOut   io.Writer
}

func newInjector(opts options) *do.Injector {
	i := do.New()
	do.ProvideValue(i, opts)
	do.Provide(i, newConfig)
	do.Provide(i, newTracer)
	do.Provide(i, newAllocator)
	do.Provide(i, newTranscript)
	do.Provide(i, newRunner)
	return i
}

func newConfig(i *do.Injector) (aotpy.Config, error) {
	opts := do.MustInvoke[options](i)
	cfg, err := aotpy.LoadConfig(opts.configPath)
	if err != nil {
		return aotpy.Config{}, err
	}
	if err := aotpy.Configure(cfg); err != nil {
		return aotpy.Config{}, err
	}
	return cfg, nil
}

func newTracer(i *do.Injector) (tracing.Trace, error) {
	opts := do.MustInvoke[options](i)
	cfg, err := do.Invoke[aotpy.Config](i)
	if err != nil {
		return nil, err
	}
	t := gologadapter.New()
	t.SetOutput(opts.traceOut)
	t.SetTraceLevel(tracing.TraceLevelFromString(cfg.TraceLevel))
	aotpy.SetTracer(t)
	return t, nil
}

func newAllocator(i *do.Injector) (*aotpy.DefaultAllocator, error) {
	cfg, err := do.Invoke[aotpy.Config](i)
	if err != nil {
		return nil, err
	}
	a := aotpy.NewDefaultAllocator(cfg.MaxHeapSlots, cfg.HeapPoolSize)
	aotpy.SetAllocator(a)
	return a, nil
}

func newTranscript(i *do.Injector) (*Transcript, error) {
	opts := do.MustInvoke[options](i)
	color, err := useColor(opts.colorMode, opts.out)
	if err != nil {
		return nil, err
	}
	return NewTranscript(opts.out, color), nil
}

// Runner executes scenarios against the configured runtime.
type Runner struct {
	transcript *Transcript
	allocator  *aotpy.DefaultAllocator
	tracer     tracing.Trace
}

func newRunner(i *do.Injector) (*Runner, error) {
	tracer, err := do.Invoke[tracing.Trace](i)
	if err != nil {
		return nil, err
	}
	allocator, err := do.Invoke[*aotpy.DefaultAllocator](i)
	if err != nil {
		return nil, err
	}
	transcript, err := do.Invoke[*Transcript](i)
	if err != nil {
		return nil, err
	}
	return &Runner{transcript: transcript, allocator: allocator, tracer: tracer}, nil
}

// List writes the available scenarios.
func (r *Runner) List() {
	for _, s := range scenarios {
		r.transcript.Printf("%-14s %s", s.name, s.desc)
	}
}

// Run executes the named scenarios in order, or all of them when names is
// empty. It fails if a name is unknown or a scenario raised.
func (r *Runner) Run(names []string) error {
	selected, err := selectScenarios(names)
	if err != nil {
		return err
	}
	var failed []string
	for _, s := range selected {
		r.transcript.Section(s.name, s.desc)
		f := aotpy.NewRootFrame()
		if raised := s.run(f, r.transcript); raised != nil {
			r.transcript.Errorf("%s", aotpy.FormatExc(f))
			r.tracer.P("scenario", s.name).Errorf("raised %s", raised.Type().Name())
			failed = append(failed, s.name)
		}
	}
	stats := r.allocator.Stats()
	r.tracer.Infof("heaps: %d live, %d slots live, %d pooled", stats.LiveHeaps, stats.LiveSlots, stats.PooledHeaps)
	if stats.LiveHeaps != 0 {
		r.transcript.Errorf("%d execution context heaps leaked", stats.LiveHeaps)
	}
	if len(failed) > 0 {
		return fmt.Errorf("scenarios failed: %v", failed)
	}
	return nil
}

func selectScenarios(names []string) ([]scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	var selected []scenario
	var unknown []error
	for _, name := range names {
		found := false
		for _, s := range scenarios {
			if s.name == name {
				selected = append(selected, s)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, fmt.Errorf("unknown scenario %q", name))
		}
	}
	if err := errors.Join(unknown...); err != nil {
		return nil, err
	}
	return selected, nil
}

// Shutdown finalizes the computations the collector found dropped and
// detaches the tracer from the runtime.
func (r *Runner) Shutdown() error {
	aotpy.FinalizeDropped()
	aotpy.SetTracer(nil)
	return nil
}
