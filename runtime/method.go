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
)

// Method represents Python 'method' objects: a callable bound to the
// instance it was looked up on.
type Method struct {
	Object
	function *Object `attr:"__func__"`
	self     *Object `attr:"__self__"`
}

func newMethod(function, self *Object) *Method {
	return &Method{Object{typ: MethodType}, function, self}
}

func toMethodUnsafe(o *Object) *Method {
	return (*Method)(o.toPointer())
}

// ToObject upcasts m to an Object.
func (m *Method) ToObject() *Object {
	return &m.Object
}

// MethodType is the object representing the Python 'method' type.
var MethodType = newBasisType("method", reflect.TypeOf(Method{}), toMethodUnsafe, ObjectType)

func methodCall(f *Frame, callable *Object, args Args, kwargs KWArgs) (*Object, *BaseException) {
	m := toMethodUnsafe(callable)
	methodArgs := f.MakeArgs(len(args) + 1)
	methodArgs[0] = m.self
	copy(methodArgs[1:], args)
	result, raised := m.function.Call(f, methodArgs, kwargs)
	f.FreeArgs(methodArgs)
	return result, raised
}

func methodNew(f *Frame, t *Type, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionArgs(f, "__new__", args, ObjectType, ObjectType); raised != nil {
		return nil, raised
	}
	function, self := args[0], args[1]
	if function.Type().slots.Call == nil {
		return nil, f.RaiseType(TypeErrorType, "first argument must be callable")
	}
	if self == None {
		return nil, f.RaiseType(TypeErrorType, "self must not be None")
	}
	return newMethod(function, self).ToObject(), nil
}

func methodRepr(f *Frame, o *Object) (*Object, *BaseException) {
	m := toMethodUnsafe(o)
	name, raised := methodGetMemberName(f, m.function)
	if raised != nil {
		return nil, raised
	}
	repr, raised := Repr(f, m.self)
	if raised != nil {
		return nil, raised
	}
	return NewStr(fmt.Sprintf("<bound method %s of %s>", name, repr.Value())).ToObject(), nil
}

func initMethodType(dict map[string]*Object) {
	MethodType.flags &= ^typeFlagBasetype
	MethodType.slots.Call = &callSlot{methodCall}
	MethodType.slots.Repr = &unaryOpSlot{methodRepr}
	MethodType.slots.New = &newSlot{methodNew}
	dict["__func__"] = newGetter("__func__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return toMethodUnsafe(o).function, nil
	})
	dict["__self__"] = newGetter("__self__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return toMethodUnsafe(o).self, nil
	})
	dict["__name__"] = newGetter("__name__", func(f *Frame, o *Object) (*Object, *BaseException) {
		return GetAttr(f, toMethodUnsafe(o).function, NewStr("__name__"), nil)
	})
}

// methodGetMemberName returns the qualified name of o, falling back to its
// plain name.
func methodGetMemberName(f *Frame, o *Object) (string, *BaseException) {
	name, raised := GetAttr(f, o, NewStr("__qualname__"), None)
	if raised != nil {
		return "", raised
	}
	if name == None {
		if name, raised = GetAttr(f, o, NewStr("__name__"), None); raised != nil {
			return "", raised
		}
	}
	if !name.isInstance(StrType) {
		return "?", nil
	}
	return toStrUnsafe(name).Value(), nil
}
