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

var (
	// FunctionType is the object representing the Python 'function' type.
	FunctionType = newBasisType("function", reflect.TypeOf(Function{}), toFunctionUnsafe, ObjectType)
	// StaticMethodType is the object representing the Python
	// 'staticmethod' type.
	StaticMethodType = newBasisType("staticmethod", reflect.TypeOf(staticMethod{}), toStaticMethodUnsafe, ObjectType)
)

// Args represent positional parameters in a call to a Python function.
type Args []*Object

func (a Args) makeCopy() Args {
	result := make(Args, len(a))
	copy(result, a)
	return result
}

// KWArg represents a keyword argument in a call to a Python function.
type KWArg struct {
	Name  string
	Value *Object
}

// KWArgs represents a list of keyword parameters in a call to a Python
// function.
type KWArgs []KWArg

func (k KWArgs) get(name string, def *Object) *Object {
	for _, kwarg := range k {
		if kwarg.Name == name {
			return kwarg.Value
		}
	}
	return def
}

// Func is a Go function underlying a Python Function object.
type Func func(f *Frame, args Args, kwargs KWArgs) (*Object, *BaseException)

// Function represents Python 'function' objects: compiled functions holding
// a code object and the closure cells captured where they were defined, or
// builtin functions backed by a Func.
type Function struct {
	Object
	fn       Func
	name     string  `attr:"__name__"`
	qualname string  `attr:"__qualname__"`
	module   string  `attr:"__module__"`
	code     *Code   `attr:"__code__"`
	closure  []*Cell `attr:"__closure__"`
}

// NewFunction creates a function object for the compiled code c. closure
// holds the cells of the free variables c refers to, in the order the
// compiler numbered them. qualname and module are used for reprs and for
// the identity of generators, coroutines and async generators created by
// calling the function.
func NewFunction(c *Code, qualname, module string, closure []*Cell) *Function {
	if qualname == "" {
		qualname = c.name
	}
	return &Function{
		Object:   Object{typ: FunctionType},
		name:     c.name,
		qualname: qualname,
		module:   module,
		code:     c,
		closure:  closure,
	}
}

// newBuiltinFunction returns a function object with the given name that
// invokes fn when called.
func newBuiltinFunction(name string, fn Func) *Function {
	return &Function{Object: Object{typ: FunctionType}, fn: fn, name: name, qualname: name, module: "builtins"}
}

func toFunctionUnsafe(o *Object) *Function {
	return (*Function)(o.toPointer())
}

// ToObject upcasts f to an Object.
func (f *Function) ToObject() *Object {
	return &f.Object
}

// Name returns f's name field.
func (f *Function) Name() string {
	return f.name
}

// QualName returns f's qualified name.
func (f *Function) QualName() string {
	return f.qualname
}

// Code returns the code object of f or nil for builtin functions.
func (f *Function) Code() *Code {
	return f.code
}

func functionCall(f *Frame, callable *Object, args Args, kwargs KWArgs) (*Object, *BaseException) {
	fun := toFunctionUnsafe(callable)
	code := fun.code
	if code == nil {
		return fun.fn(f, args, kwargs)
	}
	return code.eval(f, fun, args, kwargs)
}

func functionGet(f *Frame, desc, instance *Object, owner *Type) (*Object, *BaseException) {
	if instance == None {
		return desc, nil
	}
	return newMethod(desc, instance).ToObject(), nil
}

func functionRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	fun := toFunctionUnsafe(o)
	if fun.code == nil {
		return NewStr(fmt.Sprintf("<built-in function %s>", fun.Name())).ToObject(), nil
	}
	return NewStr(fmt.Sprintf("<function %s at %p>", fun.QualName(), fun)).ToObject(), nil
}

func initFunctionType(dict map[string]*Object) {
	FunctionType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	FunctionType.slots.Call = &callSlot{functionCall}
	FunctionType.slots.Get = &getSlot{functionGet}
	FunctionType.slots.Repr = &unaryOpSlot{functionRepr}
	dict["__name__"] = newGetter("__name__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(toFunctionUnsafe(o).name).ToObject(), nil
	})
	dict["__qualname__"] = newGetter("__qualname__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(toFunctionUnsafe(o).qualname).ToObject(), nil
	})
	dict["__module__"] = newGetter("__module__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(toFunctionUnsafe(o).module).ToObject(), nil
	})
	dict["__code__"] = newGetter("__code__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		if code := toFunctionUnsafe(o).code; code != nil {
			return code.ToObject(), nil
		}
		return None, nil
	})
	dict["__closure__"] = newGetter("__closure__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		closure := toFunctionUnsafe(o).closure
		if len(closure) == 0 {
			return None, nil
		}
		elems := make([]*Object, len(closure))
		for i, c := range closure {
			elems[i] = c.ToObject()
		}
		return NewTuple(elems...).ToObject(), nil
	})
}

// staticMethod represents Python 'staticmethod' objects.
type staticMethod struct {
	Object
	callable *Object
}

func newStaticMethod(callable *Object) *staticMethod {
	return &staticMethod{Object{typ: StaticMethodType}, callable}
}

func toStaticMethodUnsafe(o *Object) *staticMethod {
	return (*staticMethod)(o.toPointer())
}

// ToObject upcasts f to an Object.
func (m *staticMethod) ToObject() *Object {
	return &m.Object
}

func staticMethodGet(f *Frame, desc, _ *Object, _ *Type) (*Object, *BaseException) {
	m := toStaticMethodUnsafe(desc)
	if m.callable == nil {
		return nil, f.RaiseType(RuntimeErrorType, "uninitialized staticmethod object")
	}
	return m.callable, nil
}

func staticMethodInit(f *Frame, o *Object, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionArgs(f, "__init__", args, ObjectType); raised != nil {
		return nil, raised
	}
	toStaticMethodUnsafe(o).callable = args[0]
	return None, nil
}

func initStaticMethodType(map[string]*Object) {
	StaticMethodType.slots.Get = &getSlot{staticMethodGet}
	StaticMethodType.slots.Init = &initSlot{staticMethodInit}
}
