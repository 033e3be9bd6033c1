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

package aotpy

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

var (
	tracerMutex sync.RWMutex
	tracer      tracing.Trace
	// logFatal reports a violated runtime invariant. Such violations are
	// bugs in the compiler or the runtime, never in the Python program.
	logFatal = func(msg string) {
		traceErrorf("fatal: %s", msg)
		log.Fatal(msg)
	}
	// warningHandler receives the warnings issued by the runtime, e.g. for
	// coroutines that were never awaited.
	warningHandler = func(category *Type, msg string) {
		traceErrorf("%s: %s", category.Name(), msg)
	}
)

// T returns the tracer used by the runtime. Unless SetTracer was called it
// is the global syntax tracer, which may be nil when tracing was never
// configured.
func T() tracing.Trace {
	tracerMutex.RLock()
	t := tracer
	tracerMutex.RUnlock()
	if t != nil {
		return t
	}
	return gtrace.SyntaxTracer
}

// SetTracer installs t as the runtime tracer. A nil t restores the global
// syntax tracer.
func SetTracer(t tracing.Trace) {
	tracerMutex.Lock()
	tracer = t
	tracerMutex.Unlock()
}

func traceDebugf(format string, args ...interface{}) {
	if t := T(); t != nil {
		t.Debugf(format, args...)
	}
}

func traceInfof(format string, args ...interface{}) {
	if t := T(); t != nil {
		t.Infof(format, args...)
	}
}

func traceErrorf(format string, args ...interface{}) {
	if t := T(); t != nil {
		t.Errorf(format, args...)
	}
}

func parseTraceLevel(s string) (tracing.TraceLevel, error) {
	switch strings.ToLower(s) {
	case "", "error":
		return tracing.LevelError, nil
	case "info":
		return tracing.LevelInfo, nil
	case "debug":
		return tracing.LevelDebug, nil
	}
	return tracing.LevelError, fmt.Errorf("unknown trace_level %q", s)
}

func setTraceLevel(level tracing.TraceLevel) {
	if t := T(); t != nil {
		t.SetTraceLevel(level)
	}
}

// warn issues a warning of the given category, e.g. RuntimeWarningType.
func warn(category *Type, msg string) {
	warningHandler(category, msg)
}

// writeUnraisable reports an exception that cannot propagate because it was
// raised while finalizing obj.
func writeUnraisable(f *Frame, e *BaseException, obj *Object) {
	msg := e.typ.Name()
	if s, raised := ToStr(f, e.ToObject()); raised == nil && s.Value() != "" {
		msg += ": " + s.Value()
	}
	where := "<collected object>"
	if obj != nil {
		where = obj.String()
	}
	traceErrorf("Exception ignored in: %s\n%s", where, msg)
}
