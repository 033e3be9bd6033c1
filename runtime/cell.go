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
	"fmt"
	"reflect"
)

// CellType is the object representing the Python 'cell' type.
var CellType = newBasisType("cell", reflect.TypeOf(Cell{}), toCellUnsafe, ObjectType)

// Cell represents Python 'cell' objects: the storage of a variable shared
// between a function and the closures defined in it. A cell is empty until
// the variable is first bound.
type Cell struct {
	Object
	// name is the variable name, used in error messages.
	name  string
	value *Object `attr:"cell_contents"`
}

// NewCell returns a cell for the variable name holding value. A nil value
// creates an empty cell.
func NewCell(name string, value *Object) *Cell {
	return &Cell{Object: Object{typ: CellType}, name: name, value: value}
}

func toCellUnsafe(o *Object) *Cell {
	return (*Cell)(o.toPointer())
}

// ToObject upcasts c to an Object.
func (c *Cell) ToObject() *Object {
	return &c.Object
}

// Get returns the value held by c or raises NameError when c is empty.
func (c *Cell) Get(f *Frame) (*Object, *BaseException) {
	if c.value == nil {
		return nil, c.raiseUnbound(f)
	}
	return c.value, nil
}

// Set binds c to v.
func (c *Cell) Set(v *Object) {
	c.value = v
}

// Delete empties c. Deleting an empty cell raises NameError.
func (c *Cell) Delete(f *Frame) *BaseException {
	if c.value == nil {
		return c.raiseUnbound(f)
	}
	c.value = nil
	return nil
}

// IsEmpty reports whether c holds no value.
func (c *Cell) IsEmpty() bool {
	return c.value == nil
}

func (c *Cell) raiseUnbound(f *Frame) *BaseException {
	format := "free variable '%s' referenced before assignment in enclosing scope"
	return f.RaiseType(NameErrorType, fmt.Sprintf(format, c.name))
}

func cellEq(f *Frame, v, w *Object) (*Object, *BaseException) {
	if !w.isInstance(CellType) {
		return False.ToObject(), nil
	}
	c1, c2 := toCellUnsafe(v), toCellUnsafe(w)
	if c1.value == nil || c2.value == nil {
		return GetBool(c1.value == c2.value).ToObject(), nil
	}
	eq, raised := Eq(f, c1.value, c2.value)
	if raised != nil {
		return nil, raised
	}
	return GetBool(eq).ToObject(), nil
}

func cellRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	c := toCellUnsafe(o)
	if c.value == nil {
		return NewStr(fmt.Sprintf("<cell at %p: empty>", c)).ToObject(), nil
	}
	return NewStr(fmt.Sprintf("<cell at %p: %s object at %p>", c, c.value.typ.Name(), c.value)).ToObject(), nil
}

func initCellType(dict map[string]*Object) {
	CellType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	CellType.slots.Eq = &binaryOpSlot{cellEq}
	CellType.slots.Repr = &unaryOpSlot{cellRepr}
	dict["cell_contents"] = newGetter("cell_contents", func(f *Frame, o *Object) (*Object, *BaseException) {
		c := toCellUnsafe(o)
		if c.value == nil {
			return nil, f.RaiseType(ValueErrorType, "Cell is empty")
		}
		return c.value, nil
	})
}
