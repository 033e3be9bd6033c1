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
	"reflect"
)

// Property represents Python 'property' objects. Only read access is
// supported since runtime objects expose their state read only.
type Property struct {
	Object
	get *Object
}

func newProperty(get *Object) *Property {
	return &Property{Object{typ: PropertyType}, get}
}

func toPropertyUnsafe(o *Object) *Property {
	return (*Property)(o.toPointer())
}

// ToObject upcasts p to an Object.
func (p *Property) ToObject() *Object {
	return &p.Object
}

// PropertyType is the object representing the Python 'property' type.
var PropertyType = newBasisType("property", reflect.TypeOf(Property{}), toPropertyUnsafe, ObjectType)

func initPropertyType(map[string]*Object) {
	PropertyType.slots.Get = &getSlot{propertyGet}
	PropertyType.slots.Init = &initSlot{propertyInit}
}

func propertyGet(f *Frame, desc, instance *Object, _ *Type) (*Object, *BaseException) {
	p := toPropertyUnsafe(desc)
	if instance == None {
		// Accessed through the owning type.
		return desc, nil
	}
	if p.get == nil || p.get == None {
		return nil, f.RaiseType(AttributeErrorType, "unreadable attribute")
	}
	return p.get.Call(f, Args{instance}, nil)
}

func propertyInit(f *Frame, o *Object, args Args, _ KWArgs) (*Object, *BaseException) {
	expectedTypes := []*Type{ObjectType}
	if len(args) == 0 {
		expectedTypes = nil
	}
	if raised := checkFunctionArgs(f, "__init__", args, expectedTypes...); raised != nil {
		return nil, raised
	}
	if len(args) > 0 {
		toPropertyUnsafe(o).get = args[0]
	}
	return None, nil
}

// newGetter returns a property whose getter calls fn with the instance the
// attribute was looked up on.
func newGetter(name string, fn func(*Frame, *Object) (*Object, *BaseException)) *Object {
	get := newBuiltinFunction(name, func(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
		if raised := checkFunctionArgs(f, name, args, ObjectType); raised != nil {
			return nil, raised
		}
		return fn(f, args[0])
	})
	return newProperty(get.ToObject()).ToObject()
}

// objectOrNone upcasts o or returns None when o is nil.
func objectOrNone(o *Object) *Object {
	if o == nil {
		return None
	}
	return o
}
