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

// newAwaitableClass returns a class whose __await__ calls fn.
func newAwaitableClass(fn Func) *Type {
	return newTestClass("Awaitable", []*Type{ObjectType}, map[string]*Object{
		"__await__": newBuiltinFunction("__await__", fn).ToObject(),
	})
}

func TestAwaitErrors(t *testing.T) {
	returnsCoroutine := newAwaitableClass(func(*Frame, Args, KWArgs) (*Object, *BaseException) {
		return newAwaitingCoroutine(None).ToObject(), nil
	})
	returnsInt := newAwaitableClass(func(*Frame, Args, KWArgs) (*Object, *BaseException) {
		return NewInt(1).ToObject(), nil
	})
	raises := newAwaitableClass(func(f *Frame, _ Args, _ KWArgs) (*Object, *BaseException) {
		return nil, f.RaiseType(ValueErrorType, "no")
	})
	cases := []struct {
		o       *Object
		wantExc *BaseException
	}{
		{NewInt(1).ToObject(), mustCreateException(TypeErrorType, "object int can't be used in 'await' expression")},
		{newYieldingGenerator().ToObject(), mustCreateException(TypeErrorType, "object generator can't be used in 'await' expression")},
		{newObject(returnsCoroutine), mustCreateException(TypeErrorType, "__await__() returned a coroutine")},
		{newObject(returnsInt), mustCreateException(TypeErrorType, "__await__() returned non-iterator of type 'int'")},
		{newObject(raises), mustCreateException(ValueErrorType, "no")},
	}
	for _, cas := range cases {
		coro := newAwaitingCoroutine(cas.o)
		if _, raised := coro.Send(NewRootFrame(), None); !exceptionsAreEquivalent(raised, cas.wantExc) {
			t.Errorf("await %v raised %v, want %v", cas.o, raised, cas.wantExc)
		}
	}
}

func TestAwaitIterator(t *testing.T) {
	f := NewRootFrame()
	awaitable := newAwaitableClass(func(f *Frame, _ Args, _ KWArgs) (*Object, *BaseException) {
		return Iter(f, newTestTuple("a", "b").ToObject())
	})
	coro := newAwaitingCoroutine(newObject(awaitable))
	w := newCoroutineWrapper(coro).ToObject()
	got, raised := collect(f, w)
	if raised != nil {
		t.Fatalf("collect(coroutine) raised %v", raised)
	}
	if want := newTestTuple("a", "b"); !mustEq(NewTuple(got...).ToObject(), want.ToObject()) {
		t.Errorf("coroutine yielded %v, want %v", got, want)
	}
}

func TestAwaitGeneratorIterator(t *testing.T) {
	f := NewRootFrame()
	gen := newEchoGenerator()
	awaitable := newAwaitableClass(func(*Frame, Args, KWArgs) (*Object, *BaseException) {
		return gen.ToObject(), nil
	})
	coro := newAwaitingCoroutine(newObject(awaitable))
	if got := mustNotRaise(coro.Send(f, None)); got.String() != "'ready'" {
		t.Errorf("Send(None) = %v, want 'ready'", got)
	}
	if got := mustNotRaise(coro.Send(f, NewStr("ping").ToObject())); got.String() != "'ping'" {
		t.Errorf("Send('ping') = %v, want 'ping'", got)
	}
	if raised := coro.Close(f); raised != nil {
		t.Errorf("Close() raised %v", raised)
	}
	if gen.Status() != StatusFinished {
		t.Errorf("awaited generator status = %v, want %v", gen.Status(), StatusFinished)
	}
}

func TestAwaitIteratorWithoutSendThrow(t *testing.T) {
	f := NewRootFrame()
	awaitable := newAwaitableClass(func(f *Frame, _ Args, _ KWArgs) (*Object, *BaseException) {
		return Iter(f, newTestTuple(1, 2).ToObject())
	})
	coro := newAwaitingCoroutine(newObject(awaitable))
	mustNotRaise(coro.Send(f, None))
	want := mustCreateException(AttributeErrorType, "'tuple_iterator' object has no attribute 'send'")
	if _, raised := coro.Send(f, NewInt(5).ToObject()); !exceptionsAreEquivalent(raised, want) {
		t.Errorf("Send(5) raised %v, want %v", raised, want)
	}
	coro = newAwaitingCoroutine(newObject(awaitable))
	mustNotRaise(coro.Send(f, None))
	exc := mustCreateException(ValueErrorType, "thrown")
	if _, raised := coro.Throw(f, exc.ToObject(), nil, nil); raised != exc {
		t.Errorf("Throw() raised %v, want %v", raised, exc)
	}
}

func TestAwaitBeingAwaited(t *testing.T) {
	f := NewRootFrame()
	inner := newAwaitingCoroutine(newSleep(2, None).ToObject())
	first := newAwaitingCoroutine(inner.ToObject())
	mustNotRaise(first.Send(f, None))
	second := newAwaitingCoroutine(inner.ToObject())
	want := mustCreateException(RuntimeErrorType, "coroutine is being awaited already")
	if _, raised := second.Send(f, None); !exceptionsAreEquivalent(raised, want) {
		t.Errorf("awaiting a coroutine twice raised %v, want %v", raised, want)
	}
	f.RestoreExc(nil, nil)
	if raised := first.Close(f); raised != nil {
		t.Errorf("Close() raised %v", raised)
	}
}

func TestAwaitFinishedCoroutine(t *testing.T) {
	f := NewRootFrame()
	inner := newAwaitingCoroutine(newSleep(0, None).ToObject())
	if _, raised := RunUntilComplete(f, inner.ToObject()); raised != nil {
		t.Fatalf("RunUntilComplete raised %v", raised)
	}
	outer := newAwaitingCoroutine(inner.ToObject())
	want := mustCreateException(RuntimeErrorType, "cannot reuse already awaited coroutine")
	if _, raised := outer.Send(f, None); !exceptionsAreEquivalent(raised, want) {
		t.Errorf("awaiting a finished coroutine raised %v, want %v", raised, want)
	}
}

func TestAwaitOutsideSuspendable(t *testing.T) {
	want := "await outside of a generator, coroutine or async generator body"
	if got := captureFatal(func() { NewRootFrame().Await(1, None) }); got != want {
		t.Errorf("Await on a root frame fatal = %q, want %q", got, want)
	}
}
