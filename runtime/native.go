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
	"math"
	"reflect"
)

var (
	nativeType    = newBasisType("native", reflect.TypeOf(native{}), toNativeUnsafe, ObjectType)
	objectPtrType = reflect.TypeOf((*Object)(nil))
)

// native carries a Go value that has no Python counterpart, e.g. the
// suspended continuation of a body built by package cps.
type native struct {
	Object
	value reflect.Value
}

func toNativeUnsafe(o *Object) *native {
	return (*native)(o.toPointer())
}

// ToObject upcasts n to an Object.
func (n *native) ToObject() *Object {
	return &n.Object
}

func nativeRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	n := toNativeUnsafe(o)
	return NewStr(fmt.Sprintf("<native %s object at %p>", n.value.Type(), n)).ToObject(), nil
}

func initNativeType(map[string]*Object) {
	nativeType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	nativeType.slots.Repr = &unaryOpSlot{nativeRepr}
}

// WrapNative takes a reflect.Value object and converts the underlying Go
// object to a Python object. Booleans, integers and strings become bool, int
// and str, a nil value becomes None and *Object values are returned as is.
// Everything else is wrapped in an opaque native object that ToNative
// unwraps.
func WrapNative(f *Frame, v reflect.Value) (*Object, *BaseException) {
	switch v.Kind() {
	case reflect.Invalid:
		return None, nil
	case reflect.Bool:
		return GetBool(v.Bool()).ToObject(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i < math.MinInt || i > math.MaxInt {
			return nil, f.RaiseType(ValueErrorType, fmt.Sprintf("Go value %d does not fit in int", i))
		}
		return NewInt(int(i)).ToObject(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt {
			return nil, f.RaiseType(ValueErrorType, fmt.Sprintf("Go value %d does not fit in int", u))
		}
		return NewInt(int(u)).ToObject(), nil
	case reflect.String:
		return NewStr(v.String()).ToObject(), nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return None, nil
		}
		if v.Type() == objectPtrType {
			return v.Interface().(*Object), nil
		}
	}
	return (&native{Object{typ: nativeType}, v}).ToObject(), nil
}

// ToNative converts o to a Go value. It reverses WrapNative: bool, int and
// str produce the corresponding Go values, None produces the zero
// reflect.Value and native objects produce the value they carry. Other
// objects are returned as *Object values.
func ToNative(f *Frame, o *Object) (reflect.Value, *BaseException) {
	switch {
	case o == None:
		return reflect.Value{}, nil
	case o.typ == nativeType:
		return toNativeUnsafe(o).value, nil
	case o.typ == BoolType:
		return reflect.ValueOf(toIntUnsafe(o).IsTrue()), nil
	case o.typ == IntType:
		return reflect.ValueOf(toIntUnsafe(o).Value()), nil
	case o.typ == StrType:
		return reflect.ValueOf(toStrUnsafe(o).Value()), nil
	}
	return reflect.ValueOf(o), nil
}
