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
	"testing"
)

func TestIntEq(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs(1, 1), want: True.ToObject()},
		{args: wrapArgs(-5, 5), want: False.ToObject()},
		{args: wrapArgs(1, true), want: True.ToObject()},
		{args: wrapArgs(0, false), want: True.ToObject()},
		{args: wrapArgs(1, "1"), want: False.ToObject()},
		{args: wrapArgs(1, None), want: False.ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(IntType, "__eq__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestIntNew(t *testing.T) {
	subType := newTestClass("SubType", []*Type{IntType}, nil)
	cases := []invokeTestCase{
		{args: wrapArgs(IntType), want: NewInt(0).ToObject()},
		{args: wrapArgs(IntType, "123"), want: NewInt(123).ToObject()},
		{args: wrapArgs(IntType, "-42"), want: NewInt(-42).ToObject()},
		{args: wrapArgs(IntType, 42), want: NewInt(42).ToObject()},
		{args: wrapArgs(IntType, true), want: NewInt(1).ToObject()},
		{args: wrapArgs(subType, 3), want: NewInt(3).ToObject()},
		{args: wrapArgs(IntType, "0xff"), wantExc: mustCreateException(ValueErrorType, `invalid literal for int() with base 10: "0xff"`)},
		{args: wrapArgs(IntType, ""), wantExc: mustCreateException(ValueErrorType, `invalid literal for int() with base 10: ""`)},
		{args: wrapArgs(IntType, " 1"), wantExc: mustCreateException(ValueErrorType, `invalid literal for int() with base 10: " 1"`)},
		{args: wrapArgs(StrType), wantExc: mustCreateException(TypeErrorType, "int.__new__(str): str is not a subtype of int")},
		{args: wrapArgs(IntType, newObject(ObjectType)), wantExc: mustCreateException(TypeErrorType, "int() argument must be a string or a number, not 'object'")},
		{args: wrapArgs(IntType, 1, 2), wantExc: mustCreateException(TypeErrorType, "int() takes at most 1 argument (2 given)")},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(IntType, "__new__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestIntNewSubType(t *testing.T) {
	subType := newTestClass("SubType", []*Type{IntType}, nil)
	o := mustNotRaise(subType.ToObject().Call(NewRootFrame(), wrapArgs("7"), nil))
	if o.typ != subType {
		t.Fatalf("SubType('7') has type %s, want SubType", o.typ.Name())
	}
	if got := toIntUnsafe(o).Value(); got != 7 {
		t.Errorf("SubType('7') = %d, want 7", got)
	}
}

func TestIntStrRepr(t *testing.T) {
	cases := []struct {
		o    *Object
		want string
	}{
		{NewInt(0).ToObject(), "0"},
		{NewInt(-303).ToObject(), "-303"},
		{NewInt(231095835).ToObject(), "231095835"},
		{True.ToObject(), "True"},
		{False.ToObject(), "False"},
	}
	f := NewRootFrame()
	for _, cas := range cases {
		s, raised := ToStr(f, cas.o)
		if raised != nil {
			t.Fatalf("str(%v) raised %v", cas.o, raised)
		}
		if s.Value() != cas.want {
			t.Errorf("str(%v) = %q, want %q", cas.o, s.Value(), cas.want)
		}
		r, raised := Repr(f, cas.o)
		if raised != nil {
			t.Fatal(raised)
		}
		if r.Value() != cas.want {
			t.Errorf("repr(%v) = %q, want %q", cas.o, r.Value(), cas.want)
		}
	}
}

func TestBoolNew(t *testing.T) {
	cases := []invokeTestCase{
		{want: False.ToObject()},
		{args: wrapArgs(0), want: False.ToObject()},
		{args: wrapArgs(12), want: True.ToObject()},
		{args: wrapArgs(""), want: False.ToObject()},
		{args: wrapArgs("x"), want: True.ToObject()},
		{args: wrapArgs(NewTuple()), want: False.ToObject()},
		{args: wrapArgs(None), want: False.ToObject()},
		{args: wrapArgs(newObject(ObjectType)), want: True.ToObject()},
		{args: wrapArgs(1, 2), wantExc: mustCreateException(TypeErrorType, "bool() takes at most 1 argument (2 given)")},
	}
	for _, cas := range cases {
		if err := runInvokeTestCase(BoolType.ToObject(), &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestGetBool(t *testing.T) {
	if GetBool(true) != True || GetBool(false) != False {
		t.Error("GetBool did not return the bool singletons")
	}
	if !True.ToObject().isInstance(IntType) {
		t.Error("True is not an int")
	}
}
