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

// Package cps builds the bodies of generators, coroutines and async
// generators from effect computations written with kont instead of a
// hand-written label dispatch. A Program performs Yield, YieldFrom, Await
// and Do effects; the body returned by NewCode interprets them by stepping
// the computation one effect at a time and parking the one-shot
// continuation in the computation's execution context storage across
// suspensions.
//
// A generator yielding 0 through n-1, for a Go int n:
//
//	var loop func(i int) kont.Eff[*aotpy.Object]
//	loop = func(i int) kont.Eff[*aotpy.Object] {
//		if i == n {
//			return kont.Pure(aotpy.None)
//		}
//		return kont.Bind(cps.Yield(aotpy.NewInt(i).ToObject()), func(*aotpy.Object) kont.Eff[*aotpy.Object] {
//			return loop(i + 1)
//		})
//	}
//	code := cps.NewCode("count", "demo.py", nil, aotpy.CodeFlagGenerator,
//		func(aotpy.Args) kont.Eff[*aotpy.Object] { return loop(0) })
package cps

import (
	"fmt"
	"reflect"

	"code.hybscloud.com/kont"

	aotpy "github.com/aotpy/aotpy/runtime"
)

const (
	stateStart aotpy.RunState = iota
	// stateSent is the resume label of every suspension.
	stateSent
	// stateThrown is the handler checkpoint pushed below stateSent. The
	// body is re-entered there when an exception is thrown in or a
	// delegate raised.
	stateThrown
)

// Program is the body of a suspendable computation expressed as an effect
// computation. args holds the validated arguments of the call, one per
// parameter plus the vararg tuple if the code takes one.
type Program func(args aotpy.Args) kont.Eff[*aotpy.Object]

// YieldOp suspends the computation producing Value. The computation
// continues with the value sent by the next resumption. An exception thrown
// in ends it.
type YieldOp struct {
	kont.Phantom[*aotpy.Object]
	Value *aotpy.Object
}

// Received is what a computation suspended by YieldCatchOp continues with:
// the sent value, or the exception thrown in.
type Received struct {
	Value *aotpy.Object
	Exc   *aotpy.BaseException
}

// YieldCatchOp suspends the computation producing Value like YieldOp but
// also continues it when an exception is thrown in, GeneratorExit
// included.
type YieldCatchOp struct {
	kont.Phantom[Received]
	Value *aotpy.Object
}

// YieldFromOp delegates to the iterator of Iterable and continues with its
// return value.
type YieldFromOp struct {
	kont.Phantom[*aotpy.Object]
	Iterable *aotpy.Object
}

// AwaitOp awaits Awaitable and continues with its result.
type AwaitOp struct {
	kont.Phantom[*aotpy.Object]
	Awaitable *aotpy.Object
}

// DoOp runs Fn on the frame of the computation and continues with its
// result. An exception raised by Fn ends the computation.
type DoOp struct {
	kont.Phantom[*aotpy.Object]
	Fn func(f *aotpy.Frame) (*aotpy.Object, *aotpy.BaseException)
}

// Yield performs YieldOp.
func Yield(v *aotpy.Object) kont.Eff[*aotpy.Object] {
	return kont.Perform(YieldOp{Value: v})
}

// YieldCatch performs YieldCatchOp.
func YieldCatch(v *aotpy.Object) kont.Eff[Received] {
	return kont.Perform(YieldCatchOp{Value: v})
}

// YieldFrom performs YieldFromOp.
func YieldFrom(iterable *aotpy.Object) kont.Eff[*aotpy.Object] {
	return kont.Perform(YieldFromOp{Iterable: iterable})
}

// Await performs AwaitOp.
func Await(awaitable *aotpy.Object) kont.Eff[*aotpy.Object] {
	return kont.Perform(AwaitOp{Awaitable: awaitable})
}

// Do performs DoOp.
func Do(fn func(f *aotpy.Frame) (*aotpy.Object, *aotpy.BaseException)) kont.Eff[*aotpy.Object] {
	return kont.Perform(DoOp{Fn: fn})
}

// Raise performs a DoOp raising an exception of type t with message msg.
func Raise(t *aotpy.Type, msg string) kont.Eff[*aotpy.Object] {
	return Do(func(f *aotpy.Frame) (*aotpy.Object, *aotpy.BaseException) {
		return nil, f.RaiseType(t, msg)
	})
}

// NewCode returns a code object for prog. flags must select exactly one of
// generator, coroutine or async generator.
func NewCode(name, filename string, params []aotpy.Param, flags aotpy.CodeFlag, prog Program) *aotpy.Code {
	argc := len(params)
	if flags&aotpy.CodeFlagVarArg != 0 {
		argc++
	}
	b := &body{prog: prog, argc: argc}
	// One slot past the arguments holds the pending suspension.
	return aotpy.NewSuspendableCode(name, filename, params, flags, argc+1, b.run)
}

type body struct {
	prog Program
	argc int
}

type suspension = kont.Suspension[*aotpy.Object]

func (b *body) run(f *aotpy.Frame, sent *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
	switch f.State() {
	case stateStart:
		heap := f.Heap()
		args := make(aotpy.Args, b.argc)
		for i := range args {
			args[i] = heap.Slot(i)
		}
		result, susp := kont.Step(b.prog(args))
		return b.advance(f, result, susp)
	case stateSent:
		// Drop the handler checkpoint that sat below the resume label.
		f.PopCheckpoint()
		susp, raised := b.take(f)
		if raised != nil {
			return nil, raised
		}
		var v kont.Resumed = sent
		if _, ok := susp.Op().(YieldCatchOp); ok {
			v = Received{Value: sent}
		}
		result, next := susp.Resume(v)
		return b.advance(f, result, next)
	case stateThrown:
		exc, tb := f.ExcInfo()
		susp, raised := b.take(f)
		if raised != nil {
			return nil, raised
		}
		if _, ok := susp.Op().(YieldCatchOp); ok {
			f.RestoreExc(nil, nil)
			result, next := susp.Resume(Received{Exc: exc})
			return b.advance(f, result, next)
		}
		susp.Discard()
		f.RestoreExc(exc, tb)
		return nil, exc
	}
	return nil, f.RaiseType(aotpy.SystemErrorType, fmt.Sprintf("invalid resume label %d", f.State()))
}

// advance interprets effects until the computation suspends or completes.
func (b *body) advance(f *aotpy.Frame, result *aotpy.Object, susp *suspension) (*aotpy.Object, *aotpy.BaseException) {
	for susp != nil {
		switch op := susp.Op().(type) {
		case YieldOp:
			if raised := b.park(f, susp); raised != nil {
				return nil, raised
			}
			return f.Yield(stateSent, orNone(op.Value))
		case YieldCatchOp:
			if raised := b.park(f, susp); raised != nil {
				return nil, raised
			}
			return f.Yield(stateSent, orNone(op.Value))
		case YieldFromOp:
			if raised := b.park(f, susp); raised != nil {
				return nil, raised
			}
			return f.YieldFrom(stateSent, op.Iterable)
		case AwaitOp:
			if raised := b.park(f, susp); raised != nil {
				return nil, raised
			}
			return f.Await(stateSent, op.Awaitable)
		case DoOp:
			v, raised := op.Fn(f)
			if raised != nil {
				susp.Discard()
				return nil, raised
			}
			result, susp = susp.Resume(v)
		default:
			susp.Discard()
			return nil, f.RaiseType(aotpy.SystemErrorType, fmt.Sprintf("unhandled effect %T", op))
		}
	}
	return orNone(result), nil
}

// park stores susp in the execution context storage and pushes the handler
// checkpoint the suspension primitive's resume label goes on top of.
func (b *body) park(f *aotpy.Frame, susp *suspension) *aotpy.BaseException {
	o, raised := aotpy.WrapNative(f, reflect.ValueOf(susp))
	if raised != nil {
		susp.Discard()
		return raised
	}
	f.Heap().SetSlot(b.argc, o)
	f.PushCheckpoint(stateThrown)
	return nil
}

// take removes the parked suspension from the execution context storage.
func (b *body) take(f *aotpy.Frame) (*suspension, *aotpy.BaseException) {
	heap := f.Heap()
	v, raised := aotpy.ToNative(f, heap.Slot(b.argc))
	if raised != nil {
		return nil, raised
	}
	heap.SetSlot(b.argc, nil)
	if v.IsValid() {
		if susp, ok := v.Interface().(*suspension); ok {
			return susp, nil
		}
	}
	return nil, f.RaiseType(aotpy.SystemErrorType, "no suspended continuation to resume")
}

func orNone(o *aotpy.Object) *aotpy.Object {
	if o == nil {
		return aotpy.None
	}
	return o
}
