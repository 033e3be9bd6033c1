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

// newDelegatingGenerator returns a generator that yields from o and then
// yields the value the delegation produced.
func newDelegatingGenerator(o *Object) *Generator {
	return newTestGenerator("delegating", 0, func(f *Frame, sent *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			return f.YieldFrom(1, o)
		case 1:
			return f.Yield(2, sent)
		}
		return None, nil
	})
}

func TestYieldFrom(t *testing.T) {
	f := NewRootFrame()
	result := NewStr("result").ToObject()
	inner := newTestGenerator("inner", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			return f.Yield(1, NewStr("a").ToObject())
		case 1:
			return f.Yield(2, NewStr("b").ToObject())
		}
		return result, nil
	})
	cases := []struct {
		o    *Object
		want *Tuple
	}{
		{inner.ToObject(), newTestTuple("a", "b", "result")},
		{newTestTuple(1, 2).ToObject(), newTestTuple(1, 2, None)},
		{newYieldingGenerator().ToObject(), newTestTuple(None)},
	}
	for _, cas := range cases {
		got, raised := collect(f, newDelegatingGenerator(cas.o).ToObject())
		if raised != nil {
			t.Errorf("yield from %v raised %v", cas.o, raised)
			continue
		}
		if !mustEq(NewTuple(got...).ToObject(), cas.want.ToObject()) {
			t.Errorf("yield from %v produced %v, want %v", cas.o, got, cas.want)
		}
	}
}

func TestYieldFromErrors(t *testing.T) {
	cases := []struct {
		o       *Object
		wantExc *BaseException
	}{
		{NewInt(1).ToObject(), mustCreateException(TypeErrorType, "'int' object is not iterable")},
		{newAwaitingCoroutine(None).ToObject(), mustCreateException(TypeErrorType, "cannot 'yield from' a coroutine object in a non-coroutine generator")},
	}
	for _, cas := range cases {
		g := newDelegatingGenerator(cas.o)
		if _, raised := g.Send(NewRootFrame(), None); !exceptionsAreEquivalent(raised, cas.wantExc) {
			t.Errorf("yield from %v raised %v, want %v", cas.o, raised, cas.wantExc)
		}
	}
}

func TestYieldFromCoroutineInIterableCoroutine(t *testing.T) {
	seven := NewInt(7).ToObject()
	coro := newAwaitingCoroutine(newSleep(1, seven).ToObject())
	c := NewSuspendableCode("legacy", "foo.py", nil, CodeFlagGenerator|CodeFlagIterableCoroutine, 0, func(f *Frame, sent *Object) (*Object, *BaseException) {
		if f.State() == 0 {
			return f.YieldFrom(1, coro.ToObject())
		}
		return sent, nil
	})
	legacy := mustNotRaise(c.Eval(NewRootFrame(), nil, nil))
	got, raised := RunUntilComplete(NewRootFrame(), legacy)
	if raised != nil {
		t.Fatalf("RunUntilComplete raised %v", raised)
	}
	if got != seven {
		t.Errorf("RunUntilComplete = %v, want %v", got, seven)
	}
}

func TestYieldFromSend(t *testing.T) {
	f := NewRootFrame()
	g := newDelegatingGenerator(newEchoGenerator().ToObject())
	if got := mustNotRaise(g.Send(f, None)); got.String() != "'ready'" {
		t.Errorf("Send(None) = %v, want 'ready'", got)
	}
	for _, s := range []string{"x", "y"} {
		if got := mustNotRaise(g.Send(f, NewStr(s).ToObject())); toStrUnsafe(got).Value() != s {
			t.Errorf("Send(%q) = %v, want %q", s, got, s)
		}
	}
	if d := g.Delegate(); d == nil || d.typ != GeneratorType {
		t.Errorf("Delegate() = %v, want the echo generator", d)
	}
	if d := mustNotRaise(GetAttr(f, g.ToObject(), NewStr("gi_yieldfrom"), nil)); d != g.Delegate() {
		t.Errorf("gi_yieldfrom = %v, want %v", d, g.Delegate())
	}
}

func TestYieldFromThrow(t *testing.T) {
	f := NewRootFrame()
	inner := newCatchingGenerator()
	g := newDelegatingGenerator(inner.ToObject())
	mustNotRaise(g.Send(f, None))
	got, raised := g.Throw(f, ValueErrorType.ToObject(), nil, nil)
	if raised != nil {
		t.Fatalf("Throw(ValueError) raised %v", raised)
	}
	if toStrUnsafe(got).Value() != "caught ValueError" {
		t.Errorf("Throw(ValueError) = %v, want 'caught ValueError'", got)
	}
}

func TestYieldFromThrowUncaught(t *testing.T) {
	f := NewRootFrame()
	inner := newYieldingGenerator(None, None)
	g := newTestGenerator("guarded", 0, func(f *Frame, sent *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			f.PushCheckpoint(2)
			return f.YieldFrom(1, inner.ToObject())
		case 1:
			f.PopCheckpoint()
			return None, nil
		case 2:
			e, _ := f.ExcInfo()
			f.RestoreExc(nil, nil)
			return f.Yield(3, NewStr("outer caught "+e.typ.Name()).ToObject())
		}
		return None, nil
	})
	mustNotRaise(g.Send(f, None))
	got, raised := g.Throw(f, RuntimeErrorType.ToObject(), nil, nil)
	if raised != nil {
		t.Fatalf("Throw(RuntimeError) raised %v", raised)
	}
	if toStrUnsafe(got).Value() != "outer caught RuntimeError" {
		t.Errorf("Throw(RuntimeError) = %v, want 'outer caught RuntimeError'", got)
	}
	if inner.Status() != StatusFinished {
		t.Errorf("inner status = %v, want %v", inner.Status(), StatusFinished)
	}
	if g.Delegate() != nil {
		t.Errorf("Delegate() = %v, want nil", g.Delegate())
	}
}

func TestYieldFromClose(t *testing.T) {
	f := NewRootFrame()
	inner := newCatchingGenerator()
	g := newDelegatingGenerator(inner.ToObject())
	mustNotRaise(g.Send(f, None))
	if raised := g.Close(f); raised != nil {
		t.Fatalf("Close() raised %v", raised)
	}
	if g.Status() != StatusFinished || inner.Status() != StatusFinished {
		t.Errorf("after Close outer %v, inner %v, want both finished", g.Status(), inner.Status())
	}
}

func TestYieldFromCloseIterator(t *testing.T) {
	f := NewRootFrame()
	closed := false
	iterType := newTestClass("Closeable", []*Type{ObjectType}, map[string]*Object{
		"__iter__": newBuiltinFunction("__iter__", func(_ *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
			return args[0], nil
		}).ToObject(),
		"__next__": newBuiltinFunction("__next__", func(*Frame, Args, KWArgs) (*Object, *BaseException) {
			return None, nil
		}).ToObject(),
		"close": newBuiltinFunction("close", func(*Frame, Args, KWArgs) (*Object, *BaseException) {
			closed = true
			return None, nil
		}).ToObject(),
	})
	g := newDelegatingGenerator(newObject(iterType))
	mustNotRaise(g.Send(f, None))
	if raised := g.Close(f); raised != nil {
		t.Fatalf("Close() raised %v", raised)
	}
	if !closed {
		t.Errorf("closing the generator did not close the iterator it delegates to")
	}
}

func TestYieldFromOutsideSuspendable(t *testing.T) {
	want := "yield from outside of a generator, coroutine or async generator body"
	if got := captureFatal(func() { NewRootFrame().YieldFrom(1, None) }); got != want {
		t.Errorf("YieldFrom on a root frame fatal = %q, want %q", got, want)
	}
}

func TestYieldFromHoldsDelegate(t *testing.T) {
	f := NewRootFrame()
	one, two, three := NewInt(1).ToObject(), NewInt(2).ToObject(), NewInt(3).ToObject()
	child := newYieldingGenerator(one, two, three)
	parent := newDelegatingGenerator(child.ToObject())
	if got := mustNotRaise(parent.Send(f, None)); got != one {
		t.Fatalf("first value = %v, want %v", got, one)
	}
	if n := child.refs.Load(); n != 2 {
		t.Errorf("child references while delegated to = %d, want 2", n)
	}
	// The creator's reference goes away while the parent still delegates.
	child.Release()
	if child.Status() != StatusRunning || child.Heap() == nil {
		t.Fatalf("child finalized while delegated to: status %v", child.Status())
	}
	for _, want := range []*Object{two, three, None} {
		if got := mustNotRaise(parent.Send(f, None)); got != want {
			t.Errorf("parent yielded %v, want %v", got, want)
		}
	}
	if child.Status() != StatusFinished {
		t.Errorf("child status after delegation = %v, want %v", child.Status(), StatusFinished)
	}
	if got := captureFatal(child.Release); got != "generator values released too many times" {
		t.Errorf("Release after the parent dropped the child: fatal = %q", got)
	}
}

func TestYieldFromCloseReleasesDelegate(t *testing.T) {
	f := NewRootFrame()
	child := newYieldingGenerator(None, None)
	parent := newDelegatingGenerator(child.ToObject())
	mustNotRaise(parent.Send(f, None))
	if raised := parent.close(f); raised != nil {
		t.Fatalf("close() raised %v", raised)
	}
	if child.Status() != StatusFinished {
		t.Errorf("child status after closing the parent = %v, want %v", child.Status(), StatusFinished)
	}
	if parent.Delegate() != nil {
		t.Errorf("Delegate() after close = %v, want nil", parent.Delegate())
	}
	if n := child.refs.Load(); n != 1 {
		t.Errorf("child references after closing the parent = %d, want 1", n)
	}
}
