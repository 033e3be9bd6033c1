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

var (
	// CoroutineType is the object representing the Python 'coroutine'
	// type.
	CoroutineType        = newBasisType("coroutine", reflect.TypeOf(Coroutine{}), toCoroutineUnsafe, ObjectType)
	coroutineWrapperType = newBasisType("coroutine_wrapper", reflect.TypeOf(CoroutineWrapper{}), toCoroutineWrapperUnsafe, ObjectType)
)

// Coroutine represents Python 'coroutine' objects created by calling an
// async def function.
type Coroutine struct {
	Object
	suspendable
}

func newCoroutine(c *Code, qualname, module string, closure []*Cell, heap *Heap, alloc Allocator) *Coroutine {
	coro := &Coroutine{Object: Object{typ: CoroutineType}}
	coro.init(coro.ToObject(), flavourCoroutine, c, qualname, module, closure, heap, alloc)
	return coro
}

func toCoroutineUnsafe(o *Object) *Coroutine {
	return (*Coroutine)(o.toPointer())
}

// ToObject upcasts c to an Object.
func (c *Coroutine) ToObject() *Object {
	return &c.Object
}

// Send resumes c delivering v. It returns the value c's innermost awaitable
// yielded to the event loop, or raises StopIteration carrying the result of
// c's body.
func (c *Coroutine) Send(f *Frame, v *Object) (*Object, *BaseException) {
	return c.unwrap(f, c.resume(f, v, nil))
}

// Throw raises the exception described by typ, value and tb at the
// suspension point of c.
func (c *Coroutine) Throw(f *Frame, typ, value, tb *Object) (*Object, *BaseException) {
	exc, raised := newPendingException(f, typ, value, tb)
	if raised != nil {
		return nil, raised
	}
	return c.unwrap(f, c.resume(f, nil, exc))
}

// Close raises GeneratorExit at the suspension point of c.
func (c *Coroutine) Close(f *Frame) *BaseException {
	return c.close(f)
}

func (c *Coroutine) unwrap(f *Frame, out Outcome) (*Object, *BaseException) {
	switch out.Kind {
	case OutcomeYielded:
		return out.Value, nil
	case OutcomeReturned:
		return nil, newStopIteration(f, out.Value)
	}
	return nil, out.Raised
}

func coroutineAwait(f *Frame, o *Object) (*Object, *BaseException) {
	return newCoroutineWrapper(toCoroutineUnsafe(o)).ToObject(), nil
}

func coroutineSend(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "send", args, CoroutineType, ObjectType); raised != nil {
		return nil, raised
	}
	return toCoroutineUnsafe(args[0]).Send(f, args[1])
}

func coroutineThrow(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "throw", args, CoroutineType)
	if raised != nil {
		return nil, raised
	}
	return toCoroutineUnsafe(args[0]).Throw(f, typ, value, tb)
}

func coroutineClose(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "close", args, CoroutineType); raised != nil {
		return nil, raised
	}
	if raised := toCoroutineUnsafe(args[0]).Close(f); raised != nil {
		return nil, raised
	}
	return None, nil
}

func coroutineRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	c := toCoroutineUnsafe(o)
	return NewStr(fmt.Sprintf("<coroutine object %s at %p>", c.qualname, c)).ToObject(), nil
}

func initCoroutineType(dict map[string]*Object) {
	dict["send"] = newBuiltinFunction("send", coroutineSend).ToObject()
	dict["throw"] = newBuiltinFunction("throw", coroutineThrow).ToObject()
	dict["close"] = newBuiltinFunction("close", coroutineClose).ToObject()
	addSuspendableAttrs(dict, "cr", "cr_await", func(o *Object) *suspendable {
		return &toCoroutineUnsafe(o).suspendable
	})
	CoroutineType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	CoroutineType.slots.Await = &unaryOpSlot{coroutineAwait}
	CoroutineType.slots.Repr = &unaryOpSlot{coroutineRepr}
}

// CoroutineWrapper is the iterator returned by a coroutine's __await__. It
// forwards the iterator protocol to the coroutine.
type CoroutineWrapper struct {
	Object
	coro *Coroutine
}

func newCoroutineWrapper(c *Coroutine) *CoroutineWrapper {
	return &CoroutineWrapper{Object{typ: coroutineWrapperType}, c}
}

func toCoroutineWrapperUnsafe(o *Object) *CoroutineWrapper {
	return (*CoroutineWrapper)(o.toPointer())
}

// ToObject upcasts w to an Object.
func (w *CoroutineWrapper) ToObject() *Object {
	return &w.Object
}

func coroutineWrapperIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func coroutineWrapperNext(f *Frame, o *Object) (*Object, *BaseException) {
	return toCoroutineWrapperUnsafe(o).coro.Send(f, None)
}

func coroutineWrapperSend(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "send", args, coroutineWrapperType, ObjectType); raised != nil {
		return nil, raised
	}
	return toCoroutineWrapperUnsafe(args[0]).coro.Send(f, args[1])
}

func coroutineWrapperThrow(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "throw", args, coroutineWrapperType)
	if raised != nil {
		return nil, raised
	}
	return toCoroutineWrapperUnsafe(args[0]).coro.Throw(f, typ, value, tb)
}

func coroutineWrapperClose(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "close", args, coroutineWrapperType); raised != nil {
		return nil, raised
	}
	if raised := toCoroutineWrapperUnsafe(args[0]).coro.Close(f); raised != nil {
		return nil, raised
	}
	return None, nil
}

func coroutineWrapperRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	return NewStr(fmt.Sprintf("<coroutine_wrapper object at %p>", toCoroutineWrapperUnsafe(o))).ToObject(), nil
}

func initCoroutineWrapperType(dict map[string]*Object) {
	dict["send"] = newBuiltinFunction("send", coroutineWrapperSend).ToObject()
	dict["throw"] = newBuiltinFunction("throw", coroutineWrapperThrow).ToObject()
	dict["close"] = newBuiltinFunction("close", coroutineWrapperClose).ToObject()
	coroutineWrapperType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	coroutineWrapperType.slots.Iter = &unaryOpSlot{coroutineWrapperIter}
	coroutineWrapperType.slots.Next = &unaryOpSlot{coroutineWrapperNext}
	coroutineWrapperType.slots.Repr = &unaryOpSlot{coroutineWrapperRepr}
}
