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
	"testing"
)

// newTicker returns an iterable coroutine that logs name and its step on
// each resumption, yields n times and then returns name.
func newTicker(log *[]string, name string, n int) *Generator {
	c := NewSuspendableCode("ticker", "foo.py", nil, CodeFlagGenerator|CodeFlagIterableCoroutine, 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		i := int(f.State())
		*log = append(*log, name+string(rune('0'+i)))
		if i < n {
			return f.Yield(RunState(i+1), None)
		}
		return NewStr(name).ToObject(), nil
	})
	return toGeneratorUnsafe(mustNotRaise(c.Eval(NewRootFrame(), nil, nil)))
}

func TestLoopRoundRobin(t *testing.T) {
	var log []string
	l := NewLoop(NewRootFrame())
	a, raised := l.Spawn(newAwaitingCoroutine(newTicker(&log, "a", 2).ToObject()).ToObject())
	if raised != nil {
		t.Fatalf("Spawn(a) raised %v", raised)
	}
	b, raised := l.Spawn(newTicker(&log, "b", 1).ToObject())
	if raised != nil {
		t.Fatalf("Spawn(b) raised %v", raised)
	}
	if a.Done() || b.Done() {
		t.Errorf("tasks done before Run")
	}
	if got, raised := a.Result(); got != nil || raised != nil {
		t.Errorf("Result() before Run = (%v, %v), want (nil, nil)", got, raised)
	}
	l.Run()
	want := []string{"a0", "b0", "a1", "b1", "a2"}
	if len(log) != len(want) {
		t.Fatalf("steps = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("steps = %v, want %v", log, want)
			break
		}
	}
	for _, cas := range []struct {
		task *Task
		want string
	}{{a, "a"}, {b, "b"}} {
		got, raised := cas.task.Result()
		if !cas.task.Done() || raised != nil || toStrUnsafe(got).Value() != cas.want {
			t.Errorf("task result = (%v, %v), want %q", got, raised, cas.want)
		}
	}
}

func TestLoopTaskRaises(t *testing.T) {
	f := NewRootFrame()
	l := NewLoop(f)
	failing := newTestCoroutine("failing", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		return nil, f.RaiseType(ValueErrorType, "boom")
	})
	var log []string
	bad, raised := l.Spawn(failing.ToObject())
	if raised != nil {
		t.Fatalf("Spawn raised %v", raised)
	}
	good, raised := l.Spawn(newTicker(&log, "ok", 1).ToObject())
	if raised != nil {
		t.Fatalf("Spawn raised %v", raised)
	}
	l.Run()
	want := mustCreateException(ValueErrorType, "boom")
	if _, raised := bad.Result(); !bad.Done() || !exceptionsAreEquivalent(raised, want) {
		t.Errorf("failing task raised %v, want %v", raised, want)
	}
	if got, raised := good.Result(); raised != nil || toStrUnsafe(got).Value() != "ok" {
		t.Errorf("good task = (%v, %v), want 'ok'", got, raised)
	}
	if e, _ := f.ExcInfo(); e != nil {
		t.Errorf("ExcInfo() after Run = %v, want nil", e)
	}
}

func TestLoopSpawnError(t *testing.T) {
	l := NewLoop(NewRootFrame())
	want := mustCreateException(TypeErrorType, "object int can't be used in 'await' expression")
	if _, raised := l.Spawn(NewInt(1).ToObject()); !exceptionsAreEquivalent(raised, want) {
		t.Errorf("Spawn(1) raised %v, want %v", raised, want)
	}
}

func TestRunUntilComplete(t *testing.T) {
	f := NewRootFrame()
	var log []string
	got, raised := RunUntilComplete(f, newAwaitingCoroutine(newTicker(&log, "x", 3).ToObject()).ToObject())
	if raised != nil {
		t.Fatalf("RunUntilComplete raised %v", raised)
	}
	if toStrUnsafe(got).Value() != "x" || len(log) != 4 {
		t.Errorf("RunUntilComplete = %v after steps %v, want 'x' after 4 steps", got, log)
	}
	failing := newAwaitingCoroutine(NewInt(1).ToObject())
	want := mustCreateException(TypeErrorType, "object int can't be used in 'await' expression")
	_, raised = RunUntilComplete(f, failing.ToObject())
	if !exceptionsAreEquivalent(raised, want) {
		t.Fatalf("RunUntilComplete raised %v, want %v", raised, want)
	}
	if e, _ := f.ExcInfo(); e != raised {
		t.Errorf("ExcInfo() = %v, want %v", e, raised)
	}
}
