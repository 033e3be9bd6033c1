// Copyright 2016 Google Inc. All Rights Reserved.
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
	"regexp"
	"testing"
)

func TestGeneratorNext(t *testing.T) {
	var recursive *Object
	recursive = newTestGenerator("recursive", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		return Next(f, recursive)
	}).ToObject()
	exhausted := newYieldingGenerator()
	mustNotRaise(TupleType.Call(NewRootFrame(), Args{exhausted.ToObject()}, nil))
	cases := []invokeTestCase{
		{args: wrapArgs(recursive), wantExc: mustCreateException(ValueErrorType, "generator already executing")},
		{args: wrapArgs(exhausted), wantExc: toBaseExceptionUnsafe(mustNotRaise(StopIterationType.Call(NewRootFrame(), nil, nil)))},
		{args: wrapArgs(newYieldingGenerator(NewStr("foo").ToObject())), want: NewStr("foo").ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(GeneratorType, "__next__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestGeneratorSend(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs(newYieldingGenerator(), 123), wantExc: mustCreateException(TypeErrorType, "can't send non-None value to a just-started generator")},
		{args: wrapArgs(newYieldingGenerator(), "foo", "bar"), wantExc: mustCreateException(TypeErrorType, "'send' of 'generator' requires 2 arguments")},
		{args: wrapArgs(newYieldingGenerator(NewInt(1).ToObject()), None), want: NewInt(1).ToObject()},
		{args: wrapArgs(newEchoGenerator(), None), want: NewStr("ready").ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(GeneratorType, "send", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestGeneratorSendDeliversValue(t *testing.T) {
	f := NewRootFrame()
	g := newEchoGenerator()
	if got := mustNotRaise(g.Send(f, None)); !mustEq(got, NewStr("ready").ToObject()) {
		t.Fatalf("g.send(None) = %v, want 'ready'", got)
	}
	for _, v := range []*Object{NewInt(42).ToObject(), NewStr("abc").ToObject(), None} {
		if got := mustNotRaise(g.Send(f, v)); got != v {
			t.Errorf("g.send(%v) = %v, want %v", v, got, v)
		}
	}
}

func TestGeneratorReturnValue(t *testing.T) {
	pair := NewTuple(NewInt(1).ToObject(), NewInt(2).ToObject()).ToObject()
	cases := []struct {
		ret  *Object
		want *Object
	}{
		{None, None},
		{NewInt(42).ToObject(), NewInt(42).ToObject()},
		{pair, pair},
	}
	for _, cas := range cases {
		ret := cas.ret
		g := newTestGenerator("ret", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
			return ret, nil
		})
		f := NewRootFrame()
		_, raised := g.Send(f, None)
		if raised == nil || raised.typ != StopIterationType {
			t.Errorf("next(ret()) raised %v, want StopIteration", raised)
			continue
		}
		if got := StopIterationValue(raised); !mustEq(got, cas.want) {
			t.Errorf("StopIteration.value = %v, want %v", got, cas.want)
		}
		if g.Status() != StatusFinished {
			t.Errorf("ret().Status() = %v, want %v", g.Status(), StatusFinished)
		}
	}
}

func TestGeneratorStopIterationConverted(t *testing.T) {
	g := newTestGenerator("leaky", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		return nil, f.Raise(StopIterationType.ToObject(), NewInt(3).ToObject(), nil)
	})
	_, raised := g.Send(NewRootFrame(), None)
	want := mustCreateException(RuntimeErrorType, "generator raised StopIteration")
	if !exceptionsAreEquivalent(raised, want) {
		t.Fatalf("next(leaky()) raised %v, want %v", raised, want)
	}
	if cause := raised.Cause(); cause == nil || cause.typ != StopIterationType {
		t.Errorf("__cause__ = %v, want StopIteration", cause)
	}
	if tb := raised.Traceback(); tb == nil || tb.Frame().Code() != g.code {
		t.Errorf("traceback does not start at the generator frame")
	}
}

func TestGeneratorThrow(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs(newYieldingGenerator()), wantExc: mustCreateException(TypeErrorType, "'throw' of 'generator' requires 2 to 4 arguments")},
		{args: wrapArgs(newYieldingGenerator(), 123), wantExc: mustCreateException(TypeErrorType, "exceptions must be classes or instances deriving from BaseException, not int")},
		{args: wrapArgs(newYieldingGenerator(), mustCreateException(ValueErrorType, "foo"), "bar"), wantExc: mustCreateException(TypeErrorType, "instance exception may not have a separate value")},
		{args: wrapArgs(newYieldingGenerator(), ValueErrorType, "foo", 3), wantExc: mustCreateException(TypeErrorType, "throw() third argument must be a traceback object")},
		{args: wrapArgs(newYieldingGenerator(), ValueErrorType, "foo"), wantExc: mustCreateException(ValueErrorType, "foo")},
		{args: wrapArgs(newYieldingGenerator(), mustCreateException(ValueErrorType, "bar")), wantExc: mustCreateException(ValueErrorType, "bar")},
		{args: wrapArgs(newStartedGenerator(newCatchingGenerator()), KeyboardInterruptType), want: NewStr("caught KeyboardInterrupt").ToObject()},
		{args: wrapArgs(newStartedGenerator(newYieldingGenerator(None, None)), ValueErrorType), wantExc: toBaseExceptionUnsafe(mustNotRaise(ValueErrorType.Call(NewRootFrame(), nil, nil)))},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(GeneratorType, "throw", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestGeneratorThrowFinishes(t *testing.T) {
	f := NewRootFrame()
	unused := newYieldingGenerator(None)
	if _, raised := unused.Throw(f, ValueErrorType.ToObject(), None, None); raised == nil || raised.typ != ValueErrorType {
		t.Errorf("unused.throw(ValueError) raised %v, want ValueError", raised)
	}
	f.RestoreExc(nil, nil)
	suspended := newStartedGenerator(newYieldingGenerator(None, None))
	if _, raised := suspended.Throw(f, ValueErrorType.ToObject(), None, None); raised == nil || raised.typ != ValueErrorType {
		t.Errorf("suspended.throw(ValueError) raised %v, want ValueError", raised)
	}
	f.RestoreExc(nil, nil)
	for _, g := range []*Generator{unused, suspended} {
		if g.Status() != StatusFinished {
			t.Errorf("%v.Status() = %v, want %v", g.ToObject(), g.Status(), StatusFinished)
		}
		if _, raised := g.Send(f, None); raised == nil || raised.typ != StopIterationType {
			t.Errorf("next(%v) raised %v, want StopIteration", g.ToObject(), raised)
		}
		f.RestoreExc(nil, nil)
		// Throwing into a finished generator raises the exception as is.
		if _, raised := g.Throw(f, KeyboardInterruptType.ToObject(), None, None); raised == nil || raised.typ != KeyboardInterruptType {
			t.Errorf("%v.throw(KeyboardInterrupt) raised %v, want KeyboardInterrupt", g.ToObject(), raised)
		}
		f.RestoreExc(nil, nil)
	}
}

func TestGeneratorClose(t *testing.T) {
	ignoring := newStartedGenerator(newTestGenerator("ignoring", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			f.PushCheckpoint(2)
			return f.Yield(1, None)
		case 2:
			f.RestoreExc(nil, nil)
			return f.Yield(3, NewStr("still here").ToObject())
		}
		return None, nil
	}))
	raising := newStartedGenerator(newTestGenerator("raising", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			f.PushCheckpoint(2)
			return f.Yield(1, None)
		case 2:
			return nil, f.RaiseType(ValueErrorType, "cleanup failed")
		}
		return None, nil
	}))
	cases := []invokeTestCase{
		{args: wrapArgs(newYieldingGenerator(None)), want: None},
		{args: wrapArgs(newStartedGenerator(newYieldingGenerator(None, None))), want: None},
		{args: wrapArgs(newStartedGenerator(newCatchingGenerator())), want: None},
		{args: wrapArgs(ignoring), wantExc: mustCreateException(RuntimeErrorType, "generator ignored GeneratorExit")},
		{args: wrapArgs(raising), wantExc: mustCreateException(ValueErrorType, "cleanup failed")},
		{args: wrapArgs(newYieldingGenerator(), None), wantExc: mustCreateException(TypeErrorType, "'close' of 'generator' requires 1 arguments")},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(GeneratorType, "close", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestGeneratorCloseFinishes(t *testing.T) {
	f := NewRootFrame()
	var sawExit bool
	g := newStartedGenerator(newTestGenerator("gen", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			f.PushCheckpoint(2)
			return f.Yield(1, None)
		case 2:
			e, _ := f.ExcInfo()
			sawExit = e != nil && e.typ == GeneratorExitType
			return nil, f.Raise(nil, nil, nil)
		}
		return None, nil
	}))
	if raised := g.Close(f); raised != nil {
		t.Fatalf("g.close() raised %v", raised)
	}
	if !sawExit {
		t.Error("g.close() did not raise GeneratorExit inside the body")
	}
	if e, _ := f.ExcInfo(); e != nil {
		t.Errorf("exc_info after g.close() = %v, want None", e)
	}
	if g.Status() != StatusFinished {
		t.Errorf("g.Status() = %v, want %v", g.Status(), StatusFinished)
	}
	// Closing again does nothing.
	if raised := g.Close(f); raised != nil {
		t.Errorf("second g.close() raised %v", raised)
	}
}

func TestGeneratorExcStateSwapped(t *testing.T) {
	f := NewRootFrame()
	outer := f.RaiseType(RuntimeErrorType, "outer")
	g := newTestGenerator("gen", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			e, _ := f.ExcInfo()
			if e != nil {
				return nil, f.RaiseType(SystemErrorType, "caller exception leaked into the body")
			}
			inner := f.RaiseType(TypeErrorType, "inner")
			return f.Yield(1, inner.ToObject())
		}
		if e, _ := f.ExcInfo(); e != nil {
			return e.ToObject(), nil
		}
		return None, nil
	})
	inner := mustNotRaise(g.Send(f, None))
	if inner.typ != TypeErrorType {
		t.Fatalf("next(g) = %v, want TypeError", inner)
	}
	if e, _ := f.ExcInfo(); e != outer {
		t.Errorf("exc_info after suspension = %v, want %v", e, outer)
	}
	_, raised := g.Send(f, None)
	if raised == nil || raised.typ != StopIterationType {
		t.Fatalf("second next(g) raised %v, want StopIteration", raised)
	}
	if got := StopIterationValue(raised); got != inner {
		t.Errorf("exc_info inside the resumed body = %v, want %v", got, inner)
	}
}

func TestGeneratorReleasesHeap(t *testing.T) {
	old := CurrentAllocator()
	defer SetAllocator(old)
	a := NewDefaultAllocator(0, 4)
	SetAllocator(a)
	g := newTestGenerator("count", 2, countBody)
	if got := a.Stats(); got.LiveHeaps != 1 || got.LiveSlots != 2 {
		t.Fatalf("stats after creation = %+v, want 1 heap of 2 slots", got)
	}
	f := NewRootFrame()
	got, raised := collect(f, g.ToObject())
	if raised != nil {
		t.Fatalf("list(count()) raised %v", raised)
	}
	want := []*Object{NewInt(0).ToObject(), NewInt(1).ToObject(), NewInt(2).ToObject()}
	if !mustEq(NewTuple(got...).ToObject(), NewTuple(want...).ToObject()) {
		t.Errorf("list(count()) = %v, want %v", got, want)
	}
	if g.Heap() != nil {
		t.Error("finished generator still holds its heap")
	}
	if got := a.Stats(); got.LiveHeaps != 0 || got.LiveSlots != 0 || got.PooledHeaps != 1 {
		t.Errorf("stats after exhaustion = %+v, want no live heaps and 1 pooled", got)
	}
}

func TestGeneratorAttrs(t *testing.T) {
	f := NewRootFrame()
	var self *Object
	var running *Object
	g := newTestGenerator("gen", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		if f.State() == 0 {
			var raised *BaseException
			if running, raised = GetAttr(f, self, NewStr("gi_running"), nil); raised != nil {
				return nil, raised
			}
			return f.Yield(1, None)
		}
		return None, nil
	})
	self = g.ToObject()
	attr := func(name string) *Object {
		return mustNotRaise(GetAttr(f, self, NewStr(name), nil))
	}
	if got := attr("gi_frame"); got != None {
		t.Errorf("gi_frame before start = %v, want None", got)
	}
	if got := attr("gi_code"); got != g.code.ToObject() {
		t.Errorf("gi_code = %v, want %v", got, g.code.ToObject())
	}
	if got := attr("__name__"); !mustEq(got, NewStr("gen").ToObject()) {
		t.Errorf("__name__ = %v, want 'gen'", got)
	}
	if got := attr("__qualname__"); !mustEq(got, NewStr("gen").ToObject()) {
		t.Errorf("__qualname__ = %v, want 'gen'", got)
	}
	mustNotRaise(g.Send(f, None))
	if running != True.ToObject() {
		t.Errorf("gi_running inside the body = %v, want True", running)
	}
	if got := attr("gi_running"); got != False.ToObject() {
		t.Errorf("gi_running while suspended = %v, want False", got)
	}
	if got := attr("gi_frame"); got.typ != FrameType || toFrameUnsafe(got).Executing() {
		t.Errorf("gi_frame while suspended = %v, want an idle frame", got)
	}
	if got := attr("gi_yieldfrom"); got != None {
		t.Errorf("gi_yieldfrom = %v, want None", got)
	}
	if raised := g.Close(f); raised != nil {
		t.Fatal(raised)
	}
	if got := attr("gi_frame"); got != None {
		t.Errorf("gi_frame after close = %v, want None", got)
	}
}

func TestGeneratorStrRepr(t *testing.T) {
	c := NewSuspendableCode("gen", "foo.py", nil, CodeFlagGenerator, 1, countBody)
	fun := NewFunction(c, "Foo.gen", "__main__", nil)
	o := mustNotRaise(fun.ToObject().Call(NewRootFrame(), nil, nil))
	re := regexp.MustCompile(`^<generator object Foo\.gen at \w+>$`)
	if s := o.String(); !re.MatchString(s) {
		t.Errorf("repr(%v) = %q, want %q", o, s, re)
	}
}

func TestGeneratorNotInstantiable(t *testing.T) {
	if _, raised := GeneratorType.Call(NewRootFrame(), nil, nil); raised == nil || raised.typ != TypeErrorType {
		t.Errorf("generator() raised %v, want TypeError", raised)
	}
}

// newTestGenerator returns a generator running body that takes no
// arguments.
func newTestGenerator(name string, heapSize int, body Body) *Generator {
	c := NewSuspendableCode(name, "foo.py", nil, CodeFlagGenerator, heapSize, body)
	return toGeneratorUnsafe(mustNotRaise(c.Eval(NewRootFrame(), nil, nil)))
}

// newYieldingGenerator returns a generator yielding values in order.
func newYieldingGenerator(values ...*Object) *Generator {
	return newTestGenerator("values", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		if i := int(f.State()); i < len(values) {
			return f.Yield(RunState(i+1), values[i])
		}
		return None, nil
	})
}

// newEchoGenerator returns a generator yielding 'ready' and then every
// value sent to it.
func newEchoGenerator() *Generator {
	return newTestGenerator("echo", 0, func(f *Frame, sent *Object) (*Object, *BaseException) {
		if f.State() == 0 {
			return f.Yield(1, NewStr("ready").ToObject())
		}
		return f.Yield(1, sent)
	})
}

// newCatchingGenerator returns a generator that suspends inside a try
// block and yields the name of the exception it catches there.
func newCatchingGenerator() *Generator {
	return newTestGenerator("catching", 0, func(f *Frame, _ *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			f.PushCheckpoint(2)
			return f.Yield(1, None)
		case 1:
			f.PopCheckpoint()
			return None, nil
		case 2:
			e, _ := f.ExcInfo()
			if e.isInstance(GeneratorExitType) {
				return nil, f.Raise(nil, nil, nil)
			}
			f.RestoreExc(nil, nil)
			return f.Yield(3, NewStr("caught "+e.typ.Name()).ToObject())
		}
		return None, nil
	})
}

// newStartedGenerator advances g to its first suspension point.
func newStartedGenerator(g *Generator) *Generator {
	mustNotRaise(g.Send(NewRootFrame(), None))
	return g
}

// countBody yields 0, 1 and 2 keeping its counter in heap slot 0.
func countBody(f *Frame, _ *Object) (*Object, *BaseException) {
	var i *Object
	heap := f.Heap()
	switch f.State() {
	case 0:
		i = NewInt(0).ToObject()
	case 1:
		heap.Restore(&i)
		i = NewInt(toIntUnsafe(i).Value() + 1).ToObject()
	}
	if toIntUnsafe(i).Value() == 3 {
		return None, nil
	}
	heap.Preserve(i)
	return f.Yield(1, i)
}
