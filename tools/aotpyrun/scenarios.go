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

package main

import (
	"fmt"
	"reflect"

	"code.hybscloud.com/kont"

	aotpy "github.com/aotpy/aotpy/runtime"
	"github.com/aotpy/aotpy/runtime/cps"
)

const filename = "<aotpyrun>"

type scenario struct {
	name string
	desc string
	run  func(f *aotpy.Frame, t *Transcript) *aotpy.BaseException
}

var scenarios = []scenario{
	{"counter", "generator with state preserved across yields", runCounter},
	{"chain", "yield from a sub-generator and use its return value", runChain},
	{"pipeline", "coroutines interleaved on an event loop", runPipeline},
	{"asyncgen", "async generator iterated and closed from a coroutine", runAsyncGen},
	{"stopiteration", "StopIteration escaping a generator body", runStopIteration},
	{"abandon", "suspended generator released before exhaustion", runAbandon},
	{"kont", "generator written as a kont effect computation", runKont},
}

func newInt(i int) *aotpy.Object {
	return aotpy.NewInt(i).ToObject()
}

func intValue(f *aotpy.Frame, o *aotpy.Object) (int, *aotpy.BaseException) {
	v, raised := aotpy.ToNative(f, o)
	if raised != nil {
		return 0, raised
	}
	if !v.IsValid() || v.Kind() != reflect.Int {
		return 0, f.RaiseType(aotpy.TypeErrorType, fmt.Sprintf("expected int, got %s", o.Type().Name()))
	}
	return int(v.Int()), nil
}

func repr(f *aotpy.Frame, o *aotpy.Object) string {
	s, raised := aotpy.Repr(f, o)
	if raised != nil {
		f.RestoreExc(nil, nil)
		return fmt.Sprintf("<%s>", o.Type().Name())
	}
	return s.Value()
}

func call(f *aotpy.Frame, c *aotpy.Code, args ...*aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
	return aotpy.NewFunction(c, "", "__main__", nil).ToObject().Call(f, args, nil)
}

func callMethod(f *aotpy.Frame, o *aotpy.Object, name string, args ...*aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
	m, raised := aotpy.GetAttr(f, o, aotpy.NewStr(name), nil)
	if raised != nil {
		return nil, raised
	}
	return m.Call(f, args, nil)
}

// drain iterates it to exhaustion writing every value to t.
func drain(f *aotpy.Frame, t *Transcript, it *aotpy.Object) *aotpy.BaseException {
	for {
		v, raised := aotpy.Next(f, it)
		if raised != nil {
			if raised.Type() != aotpy.StopIterationType {
				return raised
			}
			f.RestoreExc(nil, nil)
			t.Printf("StopIteration(%s)", repr(f, aotpy.StopIterationValue(raised)))
			return nil
		}
		t.Printf("next -> %s", repr(f, v))
	}
}

// countCode is count(n): yields 0 through n-1 and returns n.
var countCode = aotpy.NewSuspendableCode("count", filename, []aotpy.Param{{Name: "n"}}, aotpy.CodeFlagGenerator, 2,
	func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
		var n, i *aotpy.Object
		heap := f.Heap()
		switch f.State() {
		case 0:
			heap.Restore(&n)
			i = newInt(0)
		case 1:
			heap.Restore(&n, &i)
			k, raised := intValue(f, i)
			if raised != nil {
				return nil, raised
			}
			i = newInt(k + 1)
		}
		limit, raised := intValue(f, n)
		if raised != nil {
			return nil, raised
		}
		k, raised := intValue(f, i)
		if raised != nil {
			return nil, raised
		}
		if k >= limit {
			return n, nil
		}
		heap.Preserve(n, i)
		return f.Yield(1, i)
	})

// chainCode is chain(n): yields from count(n), then yields what count
// returned.
var chainCode = aotpy.NewSuspendableCode("chain", filename, []aotpy.Param{{Name: "n"}}, aotpy.CodeFlagGenerator, 1,
	func(f *aotpy.Frame, sent *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
		switch f.State() {
		case 0:
			inner, raised := call(f, countCode, f.Heap().Slot(0))
			if raised != nil {
				return nil, raised
			}
			return f.YieldFrom(1, inner)
		case 1:
			return f.Yield(2, sent)
		}
		return aotpy.None, nil
	})

// sleep0Code suspends once, like asyncio.sleep(0).
var sleep0Code = aotpy.NewSuspendableCode("sleep0", filename, nil, aotpy.CodeFlagGenerator|aotpy.CodeFlagIterableCoroutine, 0,
	func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
		if f.State() == 0 {
			return f.Yield(1, aotpy.None)
		}
		return aotpy.None, nil
	})

func runCounter(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	gen, raised := call(f, countCode, newInt(3))
	if raised != nil {
		return raised
	}
	defer aotpy.Release(gen)
	t.Printf("created %s", repr(f, gen))
	return drain(f, t, gen)
}

func runChain(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	gen, raised := call(f, chainCode, newInt(3))
	if raised != nil {
		return raised
	}
	defer aotpy.Release(gen)
	return drain(f, t, gen)
}

// newWorkerCode returns worker(name, steps): a coroutine logging each step
// to t and sleeping between steps. It returns steps*10.
func newWorkerCode(t *Transcript) *aotpy.Code {
	params := []aotpy.Param{{Name: "name"}, {Name: "steps"}}
	return aotpy.NewSuspendableCode("worker", filename, params, aotpy.CodeFlagCoroutine, 3,
		func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
			var name, steps, i *aotpy.Object
			heap := f.Heap()
			switch f.State() {
			case 0:
				heap.Restore(&name, &steps)
				i = newInt(0)
			case 1:
				heap.Restore(&name, &steps, &i)
			}
			n, raised := intValue(f, steps)
			if raised != nil {
				return nil, raised
			}
			k, raised := intValue(f, i)
			if raised != nil {
				return nil, raised
			}
			if k == n {
				return newInt(n * 10), nil
			}
			s, raised := aotpy.ToStr(f, name)
			if raised != nil {
				return nil, raised
			}
			t.Printf("%s: step %d", s.Value(), k)
			heap.Preserve(name, steps, newInt(k+1))
			sleep, raised := call(f, sleep0Code)
			if raised != nil {
				return nil, raised
			}
			return f.Await(1, sleep)
		})
}

func runPipeline(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	worker := newWorkerCode(t)
	loop := aotpy.NewLoop(f)
	var tasks []*aotpy.Task
	for _, w := range []struct {
		name  string
		steps int
	}{{"a", 2}, {"b", 3}} {
		coro, raised := call(f, worker, aotpy.NewStr(w.name).ToObject(), newInt(w.steps))
		if raised != nil {
			return raised
		}
		task, raised := loop.Spawn(coro)
		if raised != nil {
			return raised
		}
		tasks = append(tasks, task)
	}
	loop.Run()
	for i, task := range tasks {
		result, raised := task.Result()
		if raised != nil {
			return raised
		}
		t.Printf("task %d -> %s", i+1, repr(f, result))
	}
	coro, raised := call(f, worker, aotpy.NewStr("c").ToObject(), newInt(1))
	if raised != nil {
		return raised
	}
	result, raised := aotpy.RunUntilComplete(f, coro)
	if raised != nil {
		return raised
	}
	t.Printf("run until complete -> %s", repr(f, result))
	return nil
}

// newTicksCode returns ticks(n): an async generator yielding 0 through n-1
// whose finally block logs to t.
func newTicksCode(t *Transcript) *aotpy.Code {
	return aotpy.NewSuspendableCode("ticks", filename, []aotpy.Param{{Name: "n"}}, aotpy.CodeFlagAsyncGenerator, 2,
		func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
			var n, i *aotpy.Object
			heap := f.Heap()
			switch f.State() {
			case 0:
				heap.Restore(&n)
				i = newInt(0)
				// try:
				f.PushCheckpoint(2)
			case 1:
				heap.Restore(&n, &i)
				k, raised := intValue(f, i)
				if raised != nil {
					return nil, raised
				}
				i = newInt(k + 1)
			case 2:
				// finally:
				exc, _ := f.ExcInfo()
				t.Printf("ticks: finally after %s", exc.Type().Name())
				return nil, exc
			}
			limit, raised := intValue(f, n)
			if raised != nil {
				return nil, raised
			}
			k, raised := intValue(f, i)
			if raised != nil {
				return nil, raised
			}
			if k >= limit {
				f.PopCheckpoint()
				t.Printf("ticks: finally after exhaustion")
				return aotpy.None, nil
			}
			heap.Preserve(n, i)
			return f.Yield(1, i)
		})
}

func runAsyncGen(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	ticks := newTicksCode(t)
	consume := aotpy.NewSuspendableCode("consume", filename, nil, aotpy.CodeFlagCoroutine, 1,
		func(f *aotpy.Frame, sent *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
			heap := f.Heap()
			switch f.State() {
			case 0:
				agen, raised := call(f, ticks, newInt(5))
				if raised != nil {
					return nil, raised
				}
				heap.SetSlot(0, agen)
				aw, raised := callMethod(f, agen, "__anext__")
				if raised != nil {
					return nil, raised
				}
				return f.Await(1, aw)
			case 1, 2:
				t.Printf("consume: got %s", repr(f, sent))
				method, next := "__anext__", aotpy.RunState(2)
				if f.State() == 2 {
					method, next = "aclose", 3
				}
				aw, raised := callMethod(f, heap.Slot(0), method)
				if raised != nil {
					return nil, raised
				}
				return f.Await(next, aw)
			case 3:
				t.Printf("consume: closed")
			}
			return aotpy.None, nil
		})
	coro, raised := call(f, consume)
	if raised != nil {
		return raised
	}
	_, raised = aotpy.RunUntilComplete(f, coro)
	return raised
}

func runStopIteration(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	leaky := aotpy.NewSuspendableCode("leaky", filename, nil, aotpy.CodeFlagGenerator, 0,
		func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
			if f.State() == 0 {
				return f.Yield(1, newInt(1))
			}
			// next() on an exhausted iterator inside the body.
			return nil, f.Raise(aotpy.StopIterationType.ToObject(), nil, nil)
		})
	gen, raised := call(f, leaky)
	if raised != nil {
		return raised
	}
	defer aotpy.Release(gen)
	if raised := drain(f, t, gen); raised != nil {
		f.RestoreExc(nil, nil)
		t.Printf("raised %s", repr(f, raised.ToObject()))
		if cause := raised.Cause(); cause != nil {
			t.Printf("caused by %s", cause.Type().Name())
		}
	}
	return nil
}

// newLinesCode returns lines(): a generator yielding three lines whose
// finally block reports to t how it was left.
func newLinesCode(t *Transcript) *aotpy.Code {
	return aotpy.NewSuspendableCode("lines", filename, nil, aotpy.CodeFlagGenerator, 0,
		func(f *aotpy.Frame, _ *aotpy.Object) (*aotpy.Object, *aotpy.BaseException) {
			switch f.State() {
			case 0:
				// try:
				f.PushCheckpoint(4)
				return f.Yield(1, aotpy.NewStr("first").ToObject())
			case 1:
				return f.Yield(2, aotpy.NewStr("second").ToObject())
			case 2:
				return f.Yield(3, aotpy.NewStr("third").ToObject())
			case 4:
				// finally:
				exc, _ := f.ExcInfo()
				t.Printf("lines: finally after %s", exc.Type().Name())
				return nil, exc
			}
			f.PopCheckpoint()
			t.Printf("lines: finally after exhaustion")
			return aotpy.None, nil
		})
}

func runAbandon(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	gen, raised := call(f, newLinesCode(t))
	if raised != nil {
		return raised
	}
	v, raised := aotpy.Next(f, gen)
	if raised != nil {
		return raised
	}
	t.Printf("next -> %s", repr(f, v))
	t.Printf("releasing %s", repr(f, gen))
	aotpy.Release(gen)
	return nil
}

// fib yields the first n Fibonacci numbers.
func fib(args aotpy.Args) kont.Eff[*aotpy.Object] {
	n := args[0]
	var loop func(i, a, b int) kont.Eff[*aotpy.Object]
	loop = func(i, a, b int) kont.Eff[*aotpy.Object] {
		return kont.Bind(cps.Do(func(f *aotpy.Frame) (*aotpy.Object, *aotpy.BaseException) {
			limit, raised := intValue(f, n)
			if raised != nil {
				return nil, raised
			}
			return aotpy.GetBool(i < limit).ToObject(), nil
		}), func(more *aotpy.Object) kont.Eff[*aotpy.Object] {
			if more != aotpy.True.ToObject() {
				return kont.Pure(aotpy.None)
			}
			return kont.Bind(cps.Yield(newInt(a)), func(*aotpy.Object) kont.Eff[*aotpy.Object] {
				return loop(i+1, b, a+b)
			})
		})
	}
	return loop(0, 0, 1)
}

var fibCode = cps.NewCode("fib", filename, []aotpy.Param{{Name: "n"}}, aotpy.CodeFlagGenerator, fib)

func runKont(f *aotpy.Frame, t *Transcript) *aotpy.BaseException {
	gen, raised := call(f, fibCode, newInt(7))
	if raised != nil {
		return raised
	}
	defer aotpy.Release(gen)
	return drain(f, t, gen)
}
