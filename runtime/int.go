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
	"strconv"
)

// IntType is the object representing the Python 'int' type.
var IntType = newBasisType("int", reflect.TypeOf(Int{}), toIntUnsafe, ObjectType)

// Int represents Python 'int' objects.
type Int struct {
	Object
	value int
}

// NewInt returns a new Int holding the given integer value.
func NewInt(value int) *Int {
	return &Int{Object{typ: IntType}, value}
}

func toIntUnsafe(o *Object) *Int {
	return (*Int)(o.toPointer())
}

// ToObject upcasts i to an Object.
func (i *Int) ToObject() *Object {
	return &i.Object
}

// Value returns the underlying integer value held by i.
func (i *Int) Value() int {
	return i.value
}

// IsTrue returns false if i is zero, true otherwise.
func (i *Int) IsTrue() bool {
	return i.Value() != 0
}

func intEq(f *Frame, v, w *Object) (*Object, *BaseException) {
	if !w.isInstance(IntType) {
		return False.ToObject(), nil
	}
	return GetBool(toIntUnsafe(v).Value() == toIntUnsafe(w).Value()).ToObject(), nil
}

func intNew(f *Frame, t *Type, args Args, _ KWArgs) (*Object, *BaseException) {
	argc := len(args)
	if argc == 0 {
		return newIntOfType(t, 0), nil
	}
	if argc != 1 {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("int() takes at most 1 argument (%d given)", argc))
	}
	o := args[0]
	switch {
	case o.isInstance(IntType):
		return newIntOfType(t, toIntUnsafe(o).Value()), nil
	case o.isInstance(StrType):
		s := toStrUnsafe(o).Value()
		i, err := strconv.Atoi(s)
		if err != nil {
			format := "invalid literal for int() with base 10: %s"
			return nil, f.RaiseType(ValueErrorType, fmt.Sprintf(format, strconv.Quote(s)))
		}
		return newIntOfType(t, i), nil
	}
	format := "int() argument must be a string or a number, not '%s'"
	return nil, f.RaiseType(TypeErrorType, fmt.Sprintf(format, o.typ.Name()))
}

func newIntOfType(t *Type, value int) *Object {
	if t == IntType {
		return NewInt(value).ToObject()
	}
	i := toIntUnsafe(newObject(t))
	i.value = value
	return i.ToObject()
}

func intRepr(f *Frame, o *Object) (*Object, *BaseException) {
	return NewStr(strconv.Itoa(toIntUnsafe(o).Value())).ToObject(), nil
}

func initIntType(map[string]*Object) {
	IntType.slots.Eq = &binaryOpSlot{intEq}
	IntType.slots.New = &newSlot{intNew}
	IntType.slots.Repr = &unaryOpSlot{intRepr}
}
