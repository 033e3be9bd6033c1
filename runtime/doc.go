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

/*
Package aotpy is the runtime support library for Python code compiled ahead of
time to Go. It supplies the objects compiled code manipulates directly:
functions, bound methods, cells, frames, tracebacks and the suspendable
computations behind generators, coroutines and async generators.

Data model

All Python objects are represented by structs that are binary compatible with
aotpy.Object. More complex types like str and tuple are represented by structs
that augment Object by embedding it as their first field and holding other data
in subsequent fields. A type's "basis" is the reflect.Type of that Go struct,
and an instance of a Python type is always stored in its type's basis, which
makes the unsafe downcasts performed by the toXUnsafe functions valid.

The object model is deliberately small: it covers what is needed to drive
suspendable computations through the iterator, await and async iterator
protocols and to report errors the way Python does.

Execution model

Compiled bodies are Go functions with a state machine that allows the body to
be re-entered for exception handling and resumption:

	func(f *Frame, sent *Object) (*Object, *BaseException) {
		switch f.State() {
		case 0:
			goto Start
		case 1:
			goto Resume1
		}
	Start:
		f.Heap().Preserve(x)
		return f.Yield(1, x)
	Resume1:
		f.Heap().Restore(&x)
		...
	}

The frame's checkpoint stack holds the labels of exception handlers and of
the suspension point the body last left. A raised exception pops the next
checkpoint and re-enters the body there; resumption pops the suspension
label. Python exceptions propagate as the last return value, a
*BaseException.

Suspendable computations

Calling a function whose code is flagged CodeFlagGenerator,
CodeFlagCoroutine or CodeFlagAsyncGenerator allocates the computation's
execution context storage (a Heap) from the configured Allocator and returns
a Generator, Coroutine or AsyncGenerator without running the body. Each
resumption links the computation's frame under the caller's, swaps the
caller's exception state with the computation's saved one, runs the body
until Frame.Yield, Frame.YieldFrom, Frame.Await, a return or an uncaught
exception, and undoes the linkage again. Delegation to sub-iterators and
awaitables is driven by the engine so that values sent and exceptions thrown
reach the innermost computation.

Computations are reference counted with Acquire and Release. Releasing the
last reference closes a suspended computation and gives its storage back to
the allocator.
*/
package aotpy
