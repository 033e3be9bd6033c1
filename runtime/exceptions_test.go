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

func TestStopIterationValue(t *testing.T) {
	one := NewInt(1).ToObject()
	cases := []struct {
		args Args
		want *Object
	}{
		{nil, None},
		{Args{one}, one},
		{Args{one, NewInt(2).ToObject()}, one},
	}
	for _, cas := range cases {
		e := toBaseExceptionUnsafe(mustNotRaise(StopIterationType.Call(NewRootFrame(), cas.args, nil)))
		if got := StopIterationValue(e); got != cas.want {
			t.Errorf("StopIterationValue(StopIteration%v) = %v, want %v", cas.args, got, cas.want)
		}
		tc := invokeTestCase{args: wrapArgs(e, "value"), want: cas.want}
		if err := runInvokeTestCase(Builtins["getattr"], &tc); err != "" {
			t.Error(err)
		}
	}
}

func TestNewStopIteration(t *testing.T) {
	f := NewRootFrame()
	tuple := newTestTuple(1, 2).ToObject()
	cases := []struct {
		value    *Object
		wantArgs *Tuple
	}{
		{nil, NewTuple()},
		{None, NewTuple()},
		{NewStr("x").ToObject(), newTestTuple("x")},
		{tuple, NewTuple(tuple)},
	}
	for _, cas := range cases {
		e := newStopIteration(f, cas.value)
		if !mustEq(e.Args().ToObject(), cas.wantArgs.ToObject()) {
			t.Errorf("newStopIteration(%v).args = %v, want %v", cas.value, e.Args(), cas.wantArgs)
		}
		if got, _ := f.ExcInfo(); got != e {
			t.Errorf("ExcInfo() after newStopIteration(%v) = %v, want %v", cas.value, got, e)
		}
		f.RestoreExc(nil, nil)
	}
}

func TestBaseExceptionStrRepr(t *testing.T) {
	cases := []struct {
		e        *BaseException
		wantStr  string
		wantRepr string
	}{
		{mustCreateException(ValueErrorType, ""), "", "ValueError()"},
		{mustCreateException(ValueErrorType, "bad"), "bad", "ValueError('bad')"},
		{toBaseExceptionUnsafe(mustNotRaise(RuntimeErrorType.Call(NewRootFrame(), wrapArgs(1, "a"), nil))), "(1, 'a')", "RuntimeError(1, 'a')"},
	}
	for _, cas := range cases {
		s, raised := ToStr(NewRootFrame(), cas.e.ToObject())
		if raised != nil {
			t.Fatalf("str(%v) raised %v", cas.e, raised)
		}
		if s.Value() != cas.wantStr {
			t.Errorf("str(%v) = %q, want %q", cas.e, s.Value(), cas.wantStr)
		}
		if r := cas.e.ToObject().String(); r != cas.wantRepr {
			t.Errorf("repr(%v) = %q, want %q", cas.e, r, cas.wantRepr)
		}
	}
}

func TestBaseExceptionAttrs(t *testing.T) {
	f := NewRootFrame()
	e := mustCreateException(ValueErrorType, "x")
	cases := []invokeTestCase{
		{args: wrapArgs(e, "args"), want: newTestTuple("x").ToObject()},
		{args: wrapArgs(e, "__cause__"), want: None},
		{args: wrapArgs(e, "__traceback__"), want: None},
	}
	for _, cas := range cases {
		if err := runInvokeTestCase(Builtins["getattr"], &cas); err != "" {
			t.Error(err)
		}
	}
	raised := f.Raise(e.ToObject(), nil, nil)
	tb := mustNotRaise(GetAttr(f, raised.ToObject(), NewStr("__traceback__"), nil))
	if tb != raised.Traceback().ToObject() {
		t.Errorf("__traceback__ = %v, want %v", tb, raised.Traceback())
	}
	frame := mustNotRaise(GetAttr(f, tb, NewStr("tb_frame"), nil))
	if frame != f.ToObject() {
		t.Errorf("tb_frame = %v, want %v", frame, f)
	}
	if next := mustNotRaise(GetAttr(f, tb, NewStr("tb_next"), nil)); next != None {
		t.Errorf("tb_next = %v, want None", next)
	}
}

func TestExceptionHierarchy(t *testing.T) {
	cases := []struct {
		sub, super *Type
		want       bool
	}{
		{StopIterationType, ExceptionType, true},
		{StopAsyncIterationType, ExceptionType, true},
		{GeneratorExitType, ExceptionType, false},
		{GeneratorExitType, BaseExceptionType, true},
		{KeyboardInterruptType, ExceptionType, false},
		{UnboundLocalErrorType, NameErrorType, true},
		{RuntimeWarningType, WarningType, true},
		{RecursionErrorType, RuntimeErrorType, true},
	}
	for _, cas := range cases {
		if got := cas.sub.isSubclass(cas.super); got != cas.want {
			t.Errorf("issubclass(%s, %s) = %v, want %v", cas.sub.Name(), cas.super.Name(), got, cas.want)
		}
	}
}
