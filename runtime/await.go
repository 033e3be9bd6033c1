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
)

// Await suspends the running coroutine or async generator body while the
// awaitable o is driven to completion. The body is re-entered at label with
// the result of the await expression, or with the exception it raised.
func (f *Frame) Await(label RunState, o *Object) (*Object, *BaseException) {
	f.checkSuspendable("await")
	iter, raised := getAwaitableIter(f, o)
	if raised != nil {
		return nil, raised
	}
	if iter.typ == CoroutineType && toCoroutineUnsafe(iter).Delegate() != nil {
		return nil, f.RaiseType(RuntimeErrorType, "coroutine is being awaited already")
	}
	return f.delegateTo(label, iter)
}

// isCoroutineLike reports whether o may be driven directly by an await
// expression: a coroutine or a generator created from iterable coroutine
// code.
func isCoroutineLike(o *Object) bool {
	switch o.typ {
	case CoroutineType:
		return true
	case GeneratorType:
		return toGeneratorUnsafe(o).code.flags&CodeFlagIterableCoroutine != 0
	}
	return false
}

// getAwaitableIter returns the iterator an await expression drives for o.
func getAwaitableIter(f *Frame, o *Object) (*Object, *BaseException) {
	if isCoroutineLike(o) {
		return o, nil
	}
	await := o.typ.slots.Await
	if await == nil {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("object %s can't be used in 'await' expression", o.typ.Name()))
	}
	res, raised := await.Fn(f, o)
	if raised != nil {
		return nil, raised
	}
	if isCoroutineLike(res) {
		return nil, f.RaiseType(TypeErrorType, "__await__() returned a coroutine")
	}
	if res.typ.slots.Next == nil {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("__await__() returned non-iterator of type '%s'", res.typ.Name()))
	}
	return res, nil
}
