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
	// GeneratorType is the object representing the Python 'generator' type.
	GeneratorType = newBasisType("generator", reflect.TypeOf(Generator{}), toGeneratorUnsafe, ObjectType)
)

// Generator represents Python 'generator' objects.
type Generator struct {
	Object
	suspendable
}

func newGenerator(c *Code, qualname, module string, closure []*Cell, heap *Heap, alloc Allocator) *Generator {
	g := &Generator{Object: Object{typ: GeneratorType}}
	g.init(g.ToObject(), flavourGenerator, c, qualname, module, closure, heap, alloc)
	return g
}

func toGeneratorUnsafe(o *Object) *Generator {
	return (*Generator)(o.toPointer())
}

// ToObject upcasts g to an Object.
func (g *Generator) ToObject() *Object {
	return &g.Object
}

// Send resumes g delivering v to the suspended yield expression. It returns
// the next yielded value or raises StopIteration carrying the return value
// of g's body.
func (g *Generator) Send(f *Frame, v *Object) (*Object, *BaseException) {
	return g.unwrap(f, g.resume(f, v, nil))
}

// Throw raises the exception described by typ, value and tb at the
// suspension point of g.
func (g *Generator) Throw(f *Frame, typ, value, tb *Object) (*Object, *BaseException) {
	exc, raised := newPendingException(f, typ, value, tb)
	if raised != nil {
		return nil, raised
	}
	return g.unwrap(f, g.resume(f, nil, exc))
}

// Close raises GeneratorExit at the suspension point of g.
func (g *Generator) Close(f *Frame) *BaseException {
	return g.close(f)
}

func (g *Generator) unwrap(f *Frame, out Outcome) (*Object, *BaseException) {
	switch out.Kind {
	case OutcomeYielded:
		return out.Value, nil
	case OutcomeReturned:
		return nil, newStopIteration(f, out.Value)
	}
	return nil, out.Raised
}

func generatorIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func generatorNext(f *Frame, o *Object) (*Object, *BaseException) {
	return toGeneratorUnsafe(o).Send(f, None)
}

func generatorSend(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "send", args, GeneratorType, ObjectType); raised != nil {
		return nil, raised
	}
	return toGeneratorUnsafe(args[0]).Send(f, args[1])
}

func generatorThrow(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "throw", args, GeneratorType)
	if raised != nil {
		return nil, raised
	}
	return toGeneratorUnsafe(args[0]).Throw(f, typ, value, tb)
}

func generatorClose(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "close", args, GeneratorType); raised != nil {
		return nil, raised
	}
	if raised := toGeneratorUnsafe(args[0]).Close(f); raised != nil {
		return nil, raised
	}
	return None, nil
}

func generatorRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	g := toGeneratorUnsafe(o)
	return NewStr(fmt.Sprintf("<generator object %s at %p>", g.qualname, g)).ToObject(), nil
}

func initGeneratorType(dict map[string]*Object) {
	dict["send"] = newBuiltinFunction("send", generatorSend).ToObject()
	dict["throw"] = newBuiltinFunction("throw", generatorThrow).ToObject()
	dict["close"] = newBuiltinFunction("close", generatorClose).ToObject()
	addSuspendableAttrs(dict, "gi", "gi_yieldfrom", func(o *Object) *suspendable {
		return &toGeneratorUnsafe(o).suspendable
	})
	GeneratorType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	GeneratorType.slots.Iter = &unaryOpSlot{generatorIter}
	GeneratorType.slots.Next = &unaryOpSlot{generatorNext}
	GeneratorType.slots.Repr = &unaryOpSlot{generatorRepr}
}

// throwArgs validates the arguments of a throw()-like method taking the
// receiver followed by typ[, value[, tb]].
func throwArgs(f *Frame, method string, args Args, t *Type) (typ, value, tb *Object, raised *BaseException) {
	argc := len(args)
	if argc < 2 || argc > 4 {
		format := "'%s' of '%s' requires 2 to 4 arguments"
		return nil, nil, nil, f.RaiseType(TypeErrorType, fmt.Sprintf(format, method, t.Name()))
	}
	if raised := checkMethodVarArgs(f, method, args, t, ObjectType); raised != nil {
		return nil, nil, nil, raised
	}
	typ, value, tb = args[1], None, None
	if argc > 2 {
		value = args[2]
	}
	if argc > 3 {
		tb = args[3]
	}
	return typ, value, tb, nil
}

// addSuspendableAttrs adds the introspection attributes shared by
// generators, coroutines and async generators, e.g. gi_frame and
// gi_running for the "gi" prefix. delegateAttr names the attribute exposing
// the object being delegated to.
func addSuspendableAttrs(dict map[string]*Object, prefix, delegateAttr string, get func(*Object) *suspendable) {
	dict[prefix+"_frame"] = newGetter(prefix+"_frame", func(_ *Frame, o *Object) (*Object, *BaseException) {
		if frame := get(o).Frame(); frame != nil {
			return frame.ToObject(), nil
		}
		return None, nil
	})
	dict[prefix+"_code"] = newGetter(prefix+"_code", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return get(o).code.ToObject(), nil
	})
	dict[delegateAttr] = newGetter(delegateAttr, func(_ *Frame, o *Object) (*Object, *BaseException) {
		return objectOrNone(get(o).Delegate()), nil
	})
	dict["__name__"] = newGetter("__name__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(get(o).name).ToObject(), nil
	})
	dict["__qualname__"] = newGetter("__qualname__", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(get(o).qualname).ToObject(), nil
	})
	if prefix == "ag" {
		// ag_running reports an asend() or athrow() in flight.
		return
	}
	dict[prefix+"_running"] = newGetter(prefix+"_running", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return GetBool(get(o).Running()).ToObject(), nil
	})
}
