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
	"sync"
)

var (
	// AsyncGeneratorType is the object representing the Python
	// 'async_generator' type.
	AsyncGeneratorType = newBasisType("async_generator", reflect.TypeOf(AsyncGenerator{}), toAsyncGeneratorUnsafe, ObjectType)
	asyncGenASendType  = newBasisType("async_generator_asend", reflect.TypeOf(asyncGenASend{}), toAsyncGenASendUnsafe, ObjectType)
	asyncGenAThrowType = newBasisType("async_generator_athrow", reflect.TypeOf(asyncGenAThrow{}), toAsyncGenAThrowUnsafe, ObjectType)
)

var (
	asyncGenHooksMutex sync.Mutex
	asyncGenFirstIter  *Object
	asyncGenFinalizer  *Object
)

// SetAsyncGenHooks installs the callables invoked when an async generator is
// first iterated and when one is released while suspended. Either may be
// nil. It mirrors sys.set_asyncgen_hooks.
func SetAsyncGenHooks(firstIter, finalizer *Object) {
	asyncGenHooksMutex.Lock()
	asyncGenFirstIter, asyncGenFinalizer = firstIter, finalizer
	asyncGenHooksMutex.Unlock()
}

// AsyncGenHooks returns the hooks installed by SetAsyncGenHooks.
func AsyncGenHooks() (firstIter, finalizer *Object) {
	asyncGenHooksMutex.Lock()
	defer asyncGenHooksMutex.Unlock()
	return asyncGenFirstIter, asyncGenFinalizer
}

// AsyncGenerator represents Python 'async_generator' objects created by
// calling an async def function containing yield.
type AsyncGenerator struct {
	Object
	suspendable
	// runningAsync is set while an asend() or athrow() awaitable is being
	// driven.
	runningAsync bool
	// closed is set once aclose() started or the body finished with
	// StopAsyncIteration or GeneratorExit.
	closed    bool
	hooksInit bool
	finalizer *Object
}

func newAsyncGenerator(c *Code, qualname, module string, closure []*Cell, heap *Heap, alloc Allocator) *AsyncGenerator {
	g := &AsyncGenerator{Object: Object{typ: AsyncGeneratorType}}
	g.init(g.ToObject(), flavourAsyncGenerator, c, qualname, module, closure, heap, alloc)
	return g
}

func toAsyncGeneratorUnsafe(o *Object) *AsyncGenerator {
	return (*AsyncGenerator)(o.toPointer())
}

// ToObject upcasts g to an Object.
func (g *AsyncGenerator) ToObject() *Object {
	return &g.Object
}

// RunningAsync reports whether an asend() or athrow() awaitable of g is in
// flight.
func (g *AsyncGenerator) RunningAsync() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.runningAsync
}

func (g *AsyncGenerator) setRunningAsync(v bool) {
	g.mutex.Lock()
	g.runningAsync = v
	g.mutex.Unlock()
}

func (g *AsyncGenerator) isClosed() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.closed
}

func (g *AsyncGenerator) setClosed() {
	g.mutex.Lock()
	g.closed = true
	g.mutex.Unlock()
}

// initHooks runs the firstiter hook the first time g is iterated and
// remembers the finalizer in effect at that moment.
func (g *AsyncGenerator) initHooks(f *Frame) *BaseException {
	g.mutex.Lock()
	if g.hooksInit {
		g.mutex.Unlock()
		return nil
	}
	g.hooksInit = true
	firstIter, finalizer := AsyncGenHooks()
	g.finalizer = finalizer
	g.mutex.Unlock()
	if firstIter == nil {
		return nil
	}
	_, raised := firstIter.Call(f, Args{g.ToObject()}, nil)
	return raised
}

// ASend returns the awaitable that resumes g delivering v, as g.asend(v)
// does. ANext is ASend with None.
func (g *AsyncGenerator) ASend(f *Frame, v *Object) (*Object, *BaseException) {
	if raised := g.initHooks(f); raised != nil {
		return nil, raised
	}
	return newAsyncGenASend(g, v).ToObject(), nil
}

// AThrow returns the awaitable that raises the exception described by typ,
// value and tb inside g, as g.athrow() does.
func (g *AsyncGenerator) AThrow(f *Frame, typ, value, tb *Object) (*Object, *BaseException) {
	if raised := g.initHooks(f); raised != nil {
		return nil, raised
	}
	return newAsyncGenAThrow(g, NewTuple(typ, value, tb)).ToObject(), nil
}

// AClose returns the awaitable that closes g, as g.aclose() does.
func (g *AsyncGenerator) AClose(f *Frame) (*Object, *BaseException) {
	if raised := g.initHooks(f); raised != nil {
		return nil, raised
	}
	return newAsyncGenAThrow(g, nil).ToObject(), nil
}

// unwrap translates the outcome of resuming g on behalf of an asend() or
// athrow() awaitable. A direct yield completes the awaitable with
// StopIteration carrying the yielded value; a yield passed through from an
// await expression goes to the event loop as is. done reports whether the
// awaitable completed.
func (g *AsyncGenerator) unwrap(f *Frame, out Outcome) (ret *Object, raised *BaseException, done bool) {
	switch out.Kind {
	case OutcomeYielded:
		if out.Delegated {
			return out.Value, nil, false
		}
		g.setRunningAsync(false)
		return nil, newStopIteration(f, out.Value), true
	case OutcomeReturned:
		raised = f.Raise(StopAsyncIterationType.ToObject(), nil, nil)
	default:
		raised = out.Raised
	}
	if raised.isInstance(StopAsyncIterationType) || raised.isInstance(GeneratorExitType) {
		g.setClosed()
	}
	g.setRunningAsync(false)
	return nil, raised, true
}

func asyncGenAIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func asyncGenANext(f *Frame, o *Object) (*Object, *BaseException) {
	return toAsyncGeneratorUnsafe(o).ASend(f, None)
}

func asyncGenASendMethod(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "asend", args, AsyncGeneratorType, ObjectType); raised != nil {
		return nil, raised
	}
	return toAsyncGeneratorUnsafe(args[0]).ASend(f, args[1])
}

func asyncGenAThrowMethod(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "athrow", args, AsyncGeneratorType)
	if raised != nil {
		return nil, raised
	}
	return toAsyncGeneratorUnsafe(args[0]).AThrow(f, typ, value, tb)
}

func asyncGenACloseMethod(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "aclose", args, AsyncGeneratorType); raised != nil {
		return nil, raised
	}
	return toAsyncGeneratorUnsafe(args[0]).AClose(f)
}

func asyncGenRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	g := toAsyncGeneratorUnsafe(o)
	return NewStr(fmt.Sprintf("<async_generator object %s at %p>", g.qualname, g)).ToObject(), nil
}

func initAsyncGeneratorType(dict map[string]*Object) {
	dict["asend"] = newBuiltinFunction("asend", asyncGenASendMethod).ToObject()
	dict["athrow"] = newBuiltinFunction("athrow", asyncGenAThrowMethod).ToObject()
	dict["aclose"] = newBuiltinFunction("aclose", asyncGenACloseMethod).ToObject()
	addSuspendableAttrs(dict, "ag", "ag_await", func(o *Object) *suspendable {
		return &toAsyncGeneratorUnsafe(o).suspendable
	})
	dict["ag_running"] = newGetter("ag_running", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return GetBool(toAsyncGeneratorUnsafe(o).RunningAsync()).ToObject(), nil
	})
	AsyncGeneratorType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	AsyncGeneratorType.slots.AIter = &unaryOpSlot{asyncGenAIter}
	AsyncGeneratorType.slots.ANext = &unaryOpSlot{asyncGenANext}
	AsyncGeneratorType.slots.Repr = &unaryOpSlot{asyncGenRepr}
}

type awaitableState int

const (
	awaitableInit awaitableState = iota
	awaitableIter
	awaitableClosed
)

// asyncGenASend is the awaitable returned by __anext__() and asend(). Like
// the other awaitables it is driven by one event loop at a time; the
// generator itself rejects concurrent resumption.
type asyncGenASend struct {
	Object
	gen   *AsyncGenerator
	value *Object
	state awaitableState
}

func newAsyncGenASend(g *AsyncGenerator, v *Object) *asyncGenASend {
	return &asyncGenASend{Object: Object{typ: asyncGenASendType}, gen: g, value: v}
}

func toAsyncGenASendUnsafe(o *Object) *asyncGenASend {
	return (*asyncGenASend)(o.toPointer())
}

// ToObject upcasts a to an Object.
func (a *asyncGenASend) ToObject() *Object {
	return &a.Object
}

func (a *asyncGenASend) send(f *Frame, v *Object) (*Object, *BaseException) {
	switch a.state {
	case awaitableClosed:
		return nil, f.RaiseType(RuntimeErrorType, "cannot reuse already awaited __anext__()/asend()")
	case awaitableInit:
		if a.gen.RunningAsync() {
			a.state = awaitableClosed
			return nil, f.RaiseType(RuntimeErrorType, "anext(): asynchronous generator is already running")
		}
		if v == nil || v == None {
			v = a.value
		}
		a.state = awaitableIter
	}
	a.gen.setRunningAsync(true)
	return a.finish(a.gen.unwrap(f, a.gen.resume(f, v, nil)))
}

func (a *asyncGenASend) throw(f *Frame, typ, value, tb *Object) (*Object, *BaseException) {
	switch a.state {
	case awaitableClosed:
		return nil, f.RaiseType(RuntimeErrorType, "cannot reuse already awaited __anext__()/asend()")
	case awaitableInit:
		if a.gen.RunningAsync() {
			a.state = awaitableClosed
			return nil, f.RaiseType(RuntimeErrorType, "anext(): asynchronous generator is already running")
		}
		a.state = awaitableIter
	}
	exc, raised := newPendingException(f, typ, value, tb)
	if raised != nil {
		return nil, raised
	}
	a.gen.setRunningAsync(true)
	return a.finish(a.gen.unwrap(f, a.gen.resume(f, nil, exc)))
}

// close abandons the awaitable. If it is in flight GeneratorExit is thrown
// into the generator through it so that the generator stops running on its
// behalf.
func (a *asyncGenASend) close(f *Frame) *BaseException {
	if a.state != awaitableIter {
		a.state = awaitableClosed
		return nil
	}
	ret, raised := a.throw(f, GeneratorExitType.ToObject(), None, None)
	a.state = awaitableClosed
	a.gen.setRunningAsync(false)
	return closeResult(f, ret, raised)
}

// closeResult turns the result of throwing GeneratorExit into an awaitable
// into the result of its close() method.
func closeResult(f *Frame, ret *Object, raised *BaseException) *BaseException {
	if raised == nil {
		return f.RaiseType(RuntimeErrorType, "coroutine ignored GeneratorExit")
	}
	if raised.isInstance(StopIterationType) || raised.isInstance(StopAsyncIterationType) || raised.isInstance(GeneratorExitType) {
		f.RestoreExc(nil, nil)
		return nil
	}
	return raised
}

func (a *asyncGenASend) finish(ret *Object, raised *BaseException, done bool) (*Object, *BaseException) {
	if done {
		a.state = awaitableClosed
	}
	return ret, raised
}

func asyncGenASendIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func asyncGenASendNext(f *Frame, o *Object) (*Object, *BaseException) {
	return toAsyncGenASendUnsafe(o).send(f, None)
}

func asyncGenASendSend(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "send", args, asyncGenASendType, ObjectType); raised != nil {
		return nil, raised
	}
	return toAsyncGenASendUnsafe(args[0]).send(f, args[1])
}

func asyncGenASendThrow(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "throw", args, asyncGenASendType)
	if raised != nil {
		return nil, raised
	}
	return toAsyncGenASendUnsafe(args[0]).throw(f, typ, value, tb)
}

func asyncGenASendClose(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "close", args, asyncGenASendType); raised != nil {
		return nil, raised
	}
	if raised := toAsyncGenASendUnsafe(args[0]).close(f); raised != nil {
		return nil, raised
	}
	return None, nil
}

func initAsyncGenASendType(dict map[string]*Object) {
	dict["send"] = newBuiltinFunction("send", asyncGenASendSend).ToObject()
	dict["throw"] = newBuiltinFunction("throw", asyncGenASendThrow).ToObject()
	dict["close"] = newBuiltinFunction("close", asyncGenASendClose).ToObject()
	asyncGenASendType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	asyncGenASendType.slots.Await = &unaryOpSlot{asyncGenASendIter}
	asyncGenASendType.slots.Iter = &unaryOpSlot{asyncGenASendIter}
	asyncGenASendType.slots.Next = &unaryOpSlot{asyncGenASendNext}
}

// asyncGenAThrow is the awaitable returned by athrow() and aclose(). args
// holds the (type, value, traceback) to throw and is nil for aclose().
type asyncGenAThrow struct {
	Object
	gen   *AsyncGenerator
	args  *Tuple
	state awaitableState
}

func newAsyncGenAThrow(g *AsyncGenerator, args *Tuple) *asyncGenAThrow {
	return &asyncGenAThrow{Object: Object{typ: asyncGenAThrowType}, gen: g, args: args}
}

func toAsyncGenAThrowUnsafe(o *Object) *asyncGenAThrow {
	return (*asyncGenAThrow)(o.toPointer())
}

// ToObject upcasts a to an Object.
func (a *asyncGenAThrow) ToObject() *Object {
	return &a.Object
}

func (a *asyncGenAThrow) isClose() bool {
	return a.args == nil
}

func (a *asyncGenAThrow) method() string {
	if a.isClose() {
		return "aclose"
	}
	return "athrow"
}

func (a *asyncGenAThrow) send(f *Frame, v *Object) (*Object, *BaseException) {
	if a.state == awaitableClosed {
		return nil, f.RaiseType(RuntimeErrorType, "cannot reuse already awaited aclose()/athrow()")
	}
	if a.gen.Status() == StatusFinished {
		a.state = awaitableClosed
		return nil, f.Raise(StopIterationType.ToObject(), nil, nil)
	}
	if a.state == awaitableIter {
		return a.translate(f, a.gen.resume(f, v, nil))
	}
	if a.gen.RunningAsync() {
		a.state = awaitableClosed
		return nil, f.RaiseType(RuntimeErrorType, fmt.Sprintf("%s(): asynchronous generator is already running", a.method()))
	}
	if a.gen.isClosed() {
		a.state = awaitableClosed
		return nil, f.Raise(StopAsyncIterationType.ToObject(), nil, nil)
	}
	if v != nil && v != None {
		return nil, f.RaiseType(RuntimeErrorType, "can't send non-None value to a just-started coroutine")
	}
	a.state = awaitableIter
	a.gen.setRunningAsync(true)
	var exc *BaseException
	var raised *BaseException
	if a.isClose() {
		a.gen.setClosed()
		exc, raised = newPendingException(f, GeneratorExitType.ToObject(), nil, nil)
	} else {
		exc, raised = newPendingException(f, a.args.elems[0], a.args.elems[1], a.args.elems[2])
	}
	if raised != nil {
		a.gen.setRunningAsync(false)
		a.state = awaitableClosed
		return nil, raised
	}
	return a.translate(f, a.gen.resume(f, nil, exc))
}

func (a *asyncGenAThrow) throw(f *Frame, typ, value, tb *Object) (*Object, *BaseException) {
	if a.state == awaitableClosed {
		return nil, f.RaiseType(RuntimeErrorType, "cannot reuse already awaited aclose()/athrow()")
	}
	exc, raised := newPendingException(f, typ, value, tb)
	if raised != nil {
		return nil, raised
	}
	if a.state == awaitableInit {
		if a.gen.RunningAsync() {
			a.state = awaitableClosed
			return nil, f.RaiseType(RuntimeErrorType, fmt.Sprintf("%s(): asynchronous generator is already running", a.method()))
		}
		a.state = awaitableIter
		a.gen.setRunningAsync(true)
	}
	return a.translate(f, a.gen.resume(f, nil, exc))
}

// close abandons the awaitable, throwing GeneratorExit into the generator
// when the awaitable is in flight.
func (a *asyncGenAThrow) close(f *Frame) *BaseException {
	if a.state != awaitableIter {
		a.state = awaitableClosed
		return nil
	}
	ret, raised := a.throw(f, GeneratorExitType.ToObject(), None, None)
	a.state = awaitableClosed
	a.gen.setRunningAsync(false)
	return closeResult(f, ret, raised)
}

// translate completes the awaitable according to the outcome of resuming
// the generator. In aclose() mode a direct yield means the body ignored
// GeneratorExit, and the body finishing with GeneratorExit or
// StopAsyncIteration completes the awaitable with None.
func (a *asyncGenAThrow) translate(f *Frame, out Outcome) (*Object, *BaseException) {
	if !a.isClose() {
		ret, raised, done := a.gen.unwrap(f, out)
		if done {
			a.state = awaitableClosed
		}
		return ret, raised
	}
	switch out.Kind {
	case OutcomeYielded:
		if out.Delegated {
			return out.Value, nil
		}
		a.gen.setRunningAsync(false)
		a.state = awaitableClosed
		return nil, f.RaiseType(RuntimeErrorType, "async generator ignored GeneratorExit")
	case OutcomeReturned:
		a.gen.setClosed()
		a.gen.setRunningAsync(false)
		a.state = awaitableClosed
		return nil, f.Raise(StopIterationType.ToObject(), nil, nil)
	}
	a.gen.setRunningAsync(false)
	a.state = awaitableClosed
	if out.Raised.isInstance(StopAsyncIterationType) || out.Raised.isInstance(GeneratorExitType) {
		return nil, f.Raise(StopIterationType.ToObject(), nil, nil)
	}
	return nil, out.Raised
}

func asyncGenAThrowIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func asyncGenAThrowNext(f *Frame, o *Object) (*Object, *BaseException) {
	return toAsyncGenAThrowUnsafe(o).send(f, None)
}

func asyncGenAThrowSend(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "send", args, asyncGenAThrowType, ObjectType); raised != nil {
		return nil, raised
	}
	return toAsyncGenAThrowUnsafe(args[0]).send(f, args[1])
}

func asyncGenAThrowThrow(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	typ, value, tb, raised := throwArgs(f, "throw", args, asyncGenAThrowType)
	if raised != nil {
		return nil, raised
	}
	return toAsyncGenAThrowUnsafe(args[0]).throw(f, typ, value, tb)
}

func asyncGenAThrowClose(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkMethodArgs(f, "close", args, asyncGenAThrowType); raised != nil {
		return nil, raised
	}
	if raised := toAsyncGenAThrowUnsafe(args[0]).close(f); raised != nil {
		return nil, raised
	}
	return None, nil
}

func initAsyncGenAThrowType(dict map[string]*Object) {
	dict["send"] = newBuiltinFunction("send", asyncGenAThrowSend).ToObject()
	dict["throw"] = newBuiltinFunction("throw", asyncGenAThrowThrow).ToObject()
	dict["close"] = newBuiltinFunction("close", asyncGenAThrowClose).ToObject()
	asyncGenAThrowType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	asyncGenAThrowType.slots.Await = &unaryOpSlot{asyncGenAThrowIter}
	asyncGenAThrowType.slots.Iter = &unaryOpSlot{asyncGenAThrowIter}
	asyncGenAThrowType.slots.Next = &unaryOpSlot{asyncGenAThrowNext}
}
