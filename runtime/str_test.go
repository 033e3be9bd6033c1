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
	"fmt"
	"reflect"
	"testing"
)

func TestNewStr(t *testing.T) {
	expected := &Str{Object: Object{typ: StrType}, value: "foo"}
	s := NewStr("foo")
	if !reflect.DeepEqual(s, expected) {
		t.Errorf(`NewStr("foo") = %+v, expected %+v`, *s, *expected)
	}
}

func TestStrEq(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs("foo", "foo"), want: True.ToObject()},
		{args: wrapArgs("foo", "bar"), want: False.ToObject()},
		{args: wrapArgs("", ""), want: True.ToObject()},
		{args: wrapArgs("1", 1), want: False.ToObject()},
		{args: wrapArgs(123, "foo"), wantExc: mustCreateException(TypeErrorType, "'__eq__' requires a 'str' object but received a 'int'")},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(StrType, "__eq__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestStrNew(t *testing.T) {
	dummy := newObject(ObjectType)
	dummyStr := NewStr(fmt.Sprintf("<object object at %p>", dummy))
	goodSlotType := newTestClass("GoodSlot", []*Type{ObjectType}, map[string]*Object{
		"__str__": newBuiltinFunction("__str__", func(_ *Frame, _ Args, _ KWArgs) (*Object, *BaseException) {
			return NewStr("abc").ToObject(), nil
		}).ToObject(),
	})
	cases := []invokeTestCase{
		{wantExc: mustCreateException(TypeErrorType, "'__new__' requires 1 arguments")},
		{args: wrapArgs(IntType.ToObject()), wantExc: mustCreateException(TypeErrorType, "str.__new__(int): int is not a subtype of str")},
		{args: wrapArgs(StrType.ToObject(), NewInt(1).ToObject(), NewInt(2).ToObject()), wantExc: mustCreateException(TypeErrorType, "str() takes at most 1 argument (2 given)")},
		{args: wrapArgs(StrType.ToObject()), want: NewStr("").ToObject()},
		{args: wrapArgs(StrType.ToObject(), NewTuple().ToObject()), want: NewStr("()").ToObject()},
		{args: wrapArgs(StrType.ToObject(), 42), want: NewStr("42").ToObject()},
		{args: wrapArgs(StrType.ToObject(), dummy), want: dummyStr.ToObject()},
		{args: wrapArgs(StrType, newObject(goodSlotType)), want: NewStr("abc").ToObject()},
		{args: wrapArgs(StrType, mustCreateException(ValueErrorType, "boom")), want: NewStr("boom").ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(StrType, "__new__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestStrNotSubclassable(t *testing.T) {
	if _, raised := newClass(NewRootFrame(), TypeType, "Foo", []*Type{StrType}, nil); raised == nil {
		t.Error("class Foo(str) succeeded, want TypeError")
	}
}

func TestToStr(t *testing.T) {
	badSlotType := newTestClass("BadSlot", []*Type{ObjectType}, map[string]*Object{
		"__str__": newBuiltinFunction("__str__", func(_ *Frame, _ Args, _ KWArgs) (*Object, *BaseException) {
			return NewInt(123).ToObject(), nil
		}).ToObject(),
	})
	cases := []struct {
		o       *Object
		want    string
		wantExc *BaseException
	}{
		{NewStr("foo").ToObject(), "foo", nil},
		{True.ToObject(), "True", nil},
		{None, "None", nil},
		{newTestTuple("a", 1).ToObject(), "('a', 1)", nil},
		{newObject(badSlotType), "", mustCreateException(TypeErrorType, "__str__ returned non-string (type int)")},
	}
	for _, cas := range cases {
		f := NewRootFrame()
		s, raised := ToStr(f, cas.o)
		if !exceptionsAreEquivalent(raised, cas.wantExc) {
			t.Errorf("str(%v) raised %v, want %v", cas.o, raised, cas.wantExc)
		} else if raised == nil && s.Value() != cas.want {
			t.Errorf("str(%v) = %q, want %q", cas.o, s.Value(), cas.want)
		}
	}
}

func TestStrRepr(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs("foo"), want: NewStr(`'foo'`).ToObject()},
		{args: wrapArgs("on\nmultiple\nlines"), want: NewStr(`'on\nmultiple\nlines'`).ToObject()},
		{args: wrapArgs("\x00\x00"), want: NewStr(`'\x00\x00'`).ToObject()},
		{args: wrapArgs("tab\there"), want: NewStr(`'tab\there'`).ToObject()},
		{args: wrapArgs(`back\slash`), want: NewStr(`'back\\slash'`).ToObject()},
		{args: wrapArgs("héllo"), want: NewStr(`'héllo'`).ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(StrType, "__repr__", &cas); err != "" {
			t.Error(err)
		}
	}
}

func TestStrStr(t *testing.T) {
	cases := []invokeTestCase{
		{args: wrapArgs("foo"), want: NewStr("foo").ToObject()},
		{args: wrapArgs("on\nmultiple\nlines"), want: NewStr("on\nmultiple\nlines").ToObject()},
		{args: wrapArgs("\x00\x00"), want: NewStr("\x00\x00").ToObject()},
	}
	for _, cas := range cases {
		if err := runInvokeMethodTestCase(StrType, "__str__", &cas); err != "" {
			t.Error(err)
		}
	}
}
