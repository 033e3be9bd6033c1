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

// CodeType is the object representing the Python 'code' type.
var CodeType = newBasisType("code", reflect.TypeOf(Code{}), toCodeUnsafe, ObjectType)

// CodeFlag is a switch controlling the behavior of a Code object.
type CodeFlag int

const (
	// CodeFlagVarArg means a Code object accepts *arg parameters.
	CodeFlagVarArg CodeFlag = 0x04
	// CodeFlagGenerator means calling the code creates a generator.
	CodeFlagGenerator CodeFlag = 0x20
	// CodeFlagCoroutine means calling the code creates a coroutine.
	CodeFlagCoroutine CodeFlag = 0x80
	// CodeFlagIterableCoroutine marks generator code that may be awaited
	// and may delegate to coroutines, as produced by types.coroutine.
	CodeFlagIterableCoroutine CodeFlag = 0x100
	// CodeFlagAsyncGenerator means calling the code creates an
	// asynchronous generator.
	CodeFlagAsyncGenerator CodeFlag = 0x200

	codeFlagSuspendable = CodeFlagGenerator | CodeFlagCoroutine | CodeFlagAsyncGenerator
)

// Code represents Python 'code' objects.
type Code struct {
	Object
	name     string `attr:"co_name"`
	filename string `attr:"co_filename"`
	// argc is the number of positional arguments.
	argc      int      `attr:"co_argcount"`
	flags     CodeFlag `attr:"co_flags"`
	paramSpec *ParamSpec
	// heapSize is the number of execution context storage slots a
	// suspendable computation created from the code needs. The validated
	// arguments occupy the leading slots.
	heapSize int
	fn       func(*Frame, []*Object) (*Object, *BaseException)
	block    *Block
}

// NewCode creates a new Code object for an ordinary function that executes
// the given fn.
func NewCode(name, filename string, params []Param, flags CodeFlag, fn func(*Frame, []*Object) (*Object, *BaseException)) *Code {
	if flags&codeFlagSuspendable != 0 {
		logFatal(fmt.Sprintf("%s(): suspendable code requires a body, use NewSuspendableCode", name))
	}
	s := NewParamSpec(name, params, flags&CodeFlagVarArg != 0)
	return &Code{Object: Object{typ: CodeType}, name: name, filename: filename, argc: len(params), flags: flags, paramSpec: s, fn: fn}
}

// NewSuspendableCode creates a Code object whose calls create a generator,
// coroutine or async generator running body, depending on flags. heapSize
// is the number of execution context storage slots body uses, including one
// per validated argument.
func NewSuspendableCode(name, filename string, params []Param, flags CodeFlag, heapSize int, body Body) *Code {
	switch flags & codeFlagSuspendable {
	case CodeFlagGenerator, CodeFlagCoroutine, CodeFlagAsyncGenerator:
	default:
		logFatal(fmt.Sprintf("%s(): code must be exactly one of generator, coroutine or async generator", name))
	}
	if flags&CodeFlagIterableCoroutine != 0 && flags&CodeFlagGenerator == 0 {
		logFatal(fmt.Sprintf("%s(): only generator code can be an iterable coroutine", name))
	}
	s := NewParamSpec(name, params, flags&CodeFlagVarArg != 0)
	if heapSize < s.Count {
		logFatal(fmt.Sprintf("%s(): heap of %d slots cannot hold %d arguments", name, heapSize, s.Count))
	}
	return &Code{
		Object:    Object{typ: CodeType},
		name:      name,
		filename:  filename,
		argc:      len(params),
		flags:     flags,
		paramSpec: s,
		heapSize:  heapSize,
		block:     NewBlock(name, filename, body),
	}
}

func toCodeUnsafe(o *Object) *Code {
	return (*Code)(o.toPointer())
}

// ToObject upcasts c to an Object.
func (c *Code) ToObject() *Object {
	return &c.Object
}

// Name returns c's name.
func (c *Code) Name() string {
	return c.name
}

// Flags returns c's flags.
func (c *Code) Flags() CodeFlag {
	return c.flags
}

// HeapSize returns the number of execution context storage slots
// computations created from c use.
func (c *Code) HeapSize() int {
	return c.heapSize
}

// Eval runs the code object c with the given arguments. For generator,
// coroutine and async generator code the computation is created but not
// started.
func (c *Code) Eval(f *Frame, args Args, kwargs KWArgs) (*Object, *BaseException) {
	return c.eval(f, nil, args, kwargs)
}

func (c *Code) eval(f *Frame, fun *Function, args Args, kwargs KWArgs) (*Object, *BaseException) {
	validated := f.MakeArgs(c.paramSpec.Count)
	if raised := c.paramSpec.Validate(f, validated, args, kwargs); raised != nil {
		f.FreeArgs(validated)
		return nil, raised
	}
	qualname, module := c.name, ""
	var closure []*Cell
	if fun != nil {
		qualname, module, closure = fun.qualname, fun.module, fun.closure
	}
	if c.flags&codeFlagSuspendable != 0 {
		o, raised := c.newSuspendable(f, qualname, module, closure, validated)
		f.FreeArgs(validated)
		return o, raised
	}
	if !f.threadState.enter() {
		f.FreeArgs(validated)
		return nil, f.RaiseType(RecursionErrorType, "maximum recursion depth exceeded")
	}
	oldExc, oldTraceback := f.ExcInfo()
	next := newChildFrame(f)
	next.code = c
	next.closure = closure
	next.executing = true
	ret, raised := c.fn(next, validated)
	next.executing = false
	next.release()
	f.FreeArgs(validated)
	f.threadState.leave()
	if raised == nil {
		// Restore exc_info to what it was when we left the previous
		// frame.
		f.RestoreExc(oldExc, oldTraceback)
		if ret == nil {
			ret = None
		}
	} else {
		_, tb := f.ExcInfo()
		tb = newTraceback(f, tb)
		raised.traceback = tb
		f.RestoreExc(raised, tb)
	}
	return ret, raised
}

// newSuspendable allocates the execution context storage for a computation
// running c, stores the validated arguments in it and wraps it in the
// generator, coroutine or async generator object c's flags call for.
func (c *Code) newSuspendable(f *Frame, qualname, module string, closure []*Cell, validated []*Object) (*Object, *BaseException) {
	alloc := CurrentAllocator()
	heap, err := allocHeap(alloc, c.heapSize)
	if err != nil {
		traceErrorf("%s: %v", qualname, err)
		return nil, f.RaiseType(MemoryErrorType, err.Error())
	}
	heap.Preserve(validated...)
	switch {
	case c.flags&CodeFlagGenerator != 0:
		return newGenerator(c, qualname, module, closure, heap, alloc).ToObject(), nil
	case c.flags&CodeFlagCoroutine != 0:
		return newCoroutine(c, qualname, module, closure, heap, alloc).ToObject(), nil
	}
	return newAsyncGenerator(c, qualname, module, closure, heap, alloc).ToObject(), nil
}

func codeRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	c := toCodeUnsafe(o)
	return NewStr(fmt.Sprintf("<code object %s at %p, file %q>", c.name, c, c.filename)).ToObject(), nil
}

func initCodeType(dict map[string]*Object) {
	CodeType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	CodeType.slots.Repr = &unaryOpSlot{codeRepr}
	dict["co_name"] = newGetter("co_name", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(toCodeUnsafe(o).name).ToObject(), nil
	})
	dict["co_filename"] = newGetter("co_filename", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewStr(toCodeUnsafe(o).filename).ToObject(), nil
	})
	dict["co_argcount"] = newGetter("co_argcount", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewInt(toCodeUnsafe(o).argc).ToObject(), nil
	})
	dict["co_flags"] = newGetter("co_flags", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewInt(int(toCodeUnsafe(o).flags)).ToObject(), nil
	})
}
