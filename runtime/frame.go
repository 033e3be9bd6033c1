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

// RunState represents the current point of execution within a Python function.
type RunState int

const (
	notBaseExceptionMsg = "exceptions must derive from BaseException, not %q"
)

// suspendKind records how a body left its frame the last time it returned
// without raising.
type suspendKind int

const (
	suspendNone suspendKind = iota
	suspendYield
	suspendDelegate
)

// Frame represents Python 'frame' objects.
type Frame struct {
	Object
	*threadState
	// back is the calling frame. It does not own the caller and for frames
	// of suspendable computations it is only set while the computation is
	// executing.
	back *Frame `attr:"f_back"`
	// checkpoints holds RunState values that should be executed when
	// unwinding the stack due to an exception. Examples of checkpoints
	// include exception handlers and finally blocks. The resume labels of
	// suspension points are pushed here as well.
	checkpoints []RunState
	state       RunState
	lineno      int   `attr:"f_lineno"`
	code        *Code `attr:"f_code"`
	taken       bool
	executing   bool `attr:"f_executing"`
	heap        *Heap
	closure     []*Cell
	// suspend and suspendValue are set by Yield, YieldFrom and Await and
	// consumed by the engine once the body returns.
	suspend      suspendKind
	suspendValue *Object
}

// NewRootFrame creates a Frame that is the bottom of a new stack.
func NewRootFrame() *Frame {
	f := &Frame{Object: Object{typ: FrameType}}
	f.pushFrame(nil)
	return f
}

// newChildFrame creates a new Frame whose parent frame is back.
func newChildFrame(back *Frame) *Frame {
	f := back.frameCache
	if f == nil {
		f = &Frame{Object: Object{typ: FrameType}}
	} else {
		back.frameCache, f.back = f.back, nil
		back.frameCacheSize--
		// Reset local state late.
		f.checkpoints = f.checkpoints[:0]
		f.state = 0
		f.lineno = 0
	}
	f.pushFrame(back)
	return f
}

// newSuspendableFrame returns a frame owned by a suspendable computation.
// Such frames outlive the call that created them so they are never returned
// to a frame cache.
func newSuspendableFrame(code *Code, heap *Heap, closure []*Cell) *Frame {
	return &Frame{Object: Object{typ: FrameType}, code: code, heap: heap, closure: closure, taken: true}
}

func (f *Frame) release() {
	if !f.taken {
		if f.frameCacheSize >= currentSettings().frameCacheSize {
			return
		}
		f.frameCache, f.back = f, f.frameCache
		f.frameCacheSize++
		// Clear pointers early.
		f.code = nil
		f.heap = nil
		f.closure = nil
		f.suspendValue = nil
	} else if f.back != nil {
		f.back.taken = true
	}
}

// pushFrame adds f to the top of the stack, above back.
func (f *Frame) pushFrame(back *Frame) {
	f.back = back
	if back == nil {
		f.threadState = newThreadState()
	} else {
		f.threadState = back.threadState
	}
}

func toFrameUnsafe(o *Object) *Frame {
	return (*Frame)(o.toPointer())
}

// ToObject upcasts f to an Object.
func (f *Frame) ToObject() *Object {
	return &f.Object
}

// Back returns the calling frame or nil. A suspended computation's frame has
// no caller.
func (f *Frame) Back() *Frame {
	return f.back
}

// Code returns the code object executing in f. It is nil for root frames.
func (f *Frame) Code() *Code {
	return f.code
}

// Executing reports whether the body owning f is currently running.
func (f *Frame) Executing() bool {
	return f.executing
}

// Lineno returns the current line number for the frame.
func (f *Frame) Lineno() int {
	return f.lineno
}

// SetLineno sets the current line number for the frame.
func (f *Frame) SetLineno(lineno int) {
	f.lineno = lineno
}

// Heap returns the execution context storage of the suspendable computation
// running in f, or nil for ordinary function frames.
func (f *Frame) Heap() *Heap {
	return f.heap
}

// Cell returns the i'th closure cell of the function running in f.
func (f *Frame) Cell(i int) *Cell {
	if i < 0 || i >= len(f.closure) {
		logFatal(fmt.Sprintf("closure cell %d out of range for %d cells", i, len(f.closure)))
	}
	return f.closure[i]
}

// State returns the current run state for f.
func (f *Frame) State() RunState {
	return f.state
}

// PushCheckpoint appends state to the end of f's checkpoint stack.
func (f *Frame) PushCheckpoint(state RunState) {
	f.checkpoints = append(f.checkpoints, state)
}

// PopCheckpoint removes the last element of f's checkpoint stack and makes it
// the current run state. The run state becomes -1 when the stack is empty.
func (f *Frame) PopCheckpoint() {
	numCheckpoints := len(f.checkpoints)
	if numCheckpoints == 0 {
		f.state = -1
	} else {
		f.state = f.checkpoints[numCheckpoints-1]
		f.checkpoints = f.checkpoints[:numCheckpoints-1]
	}
}

// Raise creates an exception and sets the exc info indicator in a way that is
// compatible with the Python raise statement. If typ, inst and tb are all nil
// then the currently active exception and traceback according to ExcInfo will
// be re-raised. Raise returns the exception to propagate.
func (f *Frame) Raise(typ *Object, inst *Object, tb *Object) *BaseException {
	if typ == nil && inst == nil && tb == nil {
		exc, excTraceback := f.ExcInfo()
		if exc == nil {
			return f.RaiseType(RuntimeErrorType, "No active exception to reraise")
		}
		typ = exc.ToObject()
		if excTraceback != nil {
			tb = excTraceback.ToObject()
		}
	}
	if typ == nil {
		typ = None
	}
	if inst == nil {
		inst = None
	}
	if tb == nil {
		tb = None
	}
	// Build the exception if necessary.
	if typ.isInstance(TypeType) {
		t := toTypeUnsafe(typ)
		if !t.isSubclass(BaseExceptionType) {
			return f.RaiseType(TypeErrorType, fmt.Sprintf(notBaseExceptionMsg, t.Name()))
		}
		if !inst.isInstance(t) {
			var args Args
			if inst.isInstance(TupleType) {
				args = toTupleUnsafe(inst).elems
			} else if inst != None {
				args = []*Object{inst}
			}
			var raised *BaseException
			if inst, raised = typ.Call(f, args, nil); raised != nil {
				return raised
			}
		}
	} else if inst == None {
		inst = typ
	} else {
		return f.RaiseType(TypeErrorType, "instance exception may not have a separate value")
	}
	// Validate the exception and traceback object and raise them.
	if !inst.isInstance(BaseExceptionType) {
		return f.RaiseType(TypeErrorType, fmt.Sprintf(notBaseExceptionMsg, inst.typ.Name()))
	}
	e := toBaseExceptionUnsafe(inst)
	var traceback *Traceback
	if tb == None {
		traceback = newTraceback(f, nil)
	} else if tb.isInstance(TracebackType) {
		traceback = toTracebackUnsafe(tb)
	} else {
		return f.RaiseType(TypeErrorType, "raise: arg 3 must be a traceback or None")
	}
	e.traceback = traceback
	f.RestoreExc(e, traceback)
	return e
}

// RaiseType constructs a new object of type t, passing a single str argument
// built from msg and throws the constructed object.
func (f *Frame) RaiseType(t *Type, msg string) *BaseException {
	return f.Raise(t.ToObject(), NewStr(msg).ToObject(), nil)
}

// ExcInfo returns the exception currently being handled by f's thread and the
// associated traceback.
func (f *Frame) ExcInfo() (*BaseException, *Traceback) {
	return f.threadState.excValue, f.threadState.excTraceback
}

// RestoreExc assigns the exception currently being handled by f's thread and
// the associated traceback. The previously set values are returned.
func (f *Frame) RestoreExc(e *BaseException, tb *Traceback) (*BaseException, *Traceback) {
	f.threadState.excValue, e = e, f.threadState.excValue
	f.threadState.excTraceback, tb = tb, f.threadState.excTraceback
	return e, tb
}

// MakeArgs returns an Args slice with the given length. The slice may have
// been previously used, but all elements will be set to nil.
func (f *Frame) MakeArgs(n int) Args {
	if n == 0 {
		return nil
	}
	argc := currentSettings().argsCacheArgc
	if n > argc {
		return make(Args, n)
	}
	numEntries := len(f.threadState.argsCache)
	if numEntries == 0 {
		return make(Args, n, argc)
	}
	args := f.threadState.argsCache[numEntries-1]
	f.threadState.argsCache = f.threadState.argsCache[:numEntries-1]
	return args[:n]
}

// FreeArgs clears the elements of args and returns it to the system. It may
// later be returned by calls to MakeArgs and therefore references to slices of
// args should not be held.
func (f *Frame) FreeArgs(args Args) {
	settings := currentSettings()
	if cap(args) < settings.argsCacheArgc {
		return
	}
	numEntries := len(f.threadState.argsCache)
	if numEntries >= settings.argsCacheSize {
		return
	}
	// Clear args so we don't unnecessarily hold references.
	args = args[:cap(args)]
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = nil
	}
	f.threadState.argsCache = append(f.threadState.argsCache, args)
}

// FrameType is the object representing the Python 'frame' type.
var FrameType = newBasisType("frame", reflect.TypeOf(Frame{}), toFrameUnsafe, ObjectType)

func frameRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	f := toFrameUnsafe(o)
	name := "?"
	if f.code != nil {
		name = f.code.name
	}
	return NewStr(fmt.Sprintf("<frame at %p, code %s>", f, name)).ToObject(), nil
}

func initFrameType(dict map[string]*Object) {
	FrameType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	FrameType.slots.Repr = &unaryOpSlot{frameRepr}
	dict["f_back"] = newGetter("f_back", func(_ *Frame, o *Object) (*Object, *BaseException) {
		if back := toFrameUnsafe(o).back; back != nil {
			return back.ToObject(), nil
		}
		return None, nil
	})
	dict["f_code"] = newGetter("f_code", func(_ *Frame, o *Object) (*Object, *BaseException) {
		if code := toFrameUnsafe(o).code; code != nil {
			return code.ToObject(), nil
		}
		return None, nil
	})
	dict["f_executing"] = newGetter("f_executing", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return GetBool(toFrameUnsafe(o).executing).ToObject(), nil
	})
	dict["f_lineno"] = newGetter("f_lineno", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewInt(toFrameUnsafe(o).lineno).ToObject(), nil
	})
}
