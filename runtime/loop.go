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

import "sync"

// Task is a coroutine scheduled on a Loop.
type Task struct {
	id     int
	iter   *Object
	done   bool
	result *Object
	raised *BaseException
}

// Done reports whether the task finished.
func (t *Task) Done() bool {
	return t.done
}

// Result returns the value the task's awaitable produced or the exception
// it raised. Both are nil until the task is done.
func (t *Task) Result() (*Object, *BaseException) {
	return t.result, t.raised
}

// Loop is a cooperative single threaded scheduler for awaitables. Every
// value an awaitable yields is a scheduling point: the task is moved to the
// back of the run queue and the next task runs. Tasks run on the goroutine
// calling Run; Spawn may be called from any goroutine, which is how the
// async generator finalizer reaches the loop.
type Loop struct {
	f      *Frame
	mutex  sync.Mutex
	queue  []*Task
	nextID int
}

// NewLoop returns a loop running tasks on f's stack.
func NewLoop(f *Frame) *Loop {
	return &Loop{f: f}
}

// Spawn schedules awaitable to run on l. The task holds a reference to the
// computation it drives until it is done.
func (l *Loop) Spawn(awaitable *Object) (*Task, *BaseException) {
	iter, raised := getAwaitableIter(l.f, awaitable)
	if raised != nil {
		return nil, raised
	}
	if sub := asSuspendable(iter); sub != nil {
		sub.Acquire()
	}
	l.mutex.Lock()
	l.nextID++
	t := &Task{id: l.nextID, iter: iter}
	l.queue = append(l.queue, t)
	l.mutex.Unlock()
	return t, nil
}

func (l *Loop) pop() *Task {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	t := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return t
}

func (l *Loop) push(t *Task) {
	l.mutex.Lock()
	l.queue = append(l.queue, t)
	l.mutex.Unlock()
}

// InstallAsyncGenHooks makes l the owner of async generators first iterated
// from now on: an async generator released while suspended is closed by an
// aclose() task spawned on l.
func (l *Loop) InstallAsyncGenHooks() {
	finalizer := newBuiltinFunction("finalizer", func(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
		if raised := checkFunctionArgs(f, "finalizer", args, AsyncGeneratorType); raised != nil {
			return nil, raised
		}
		aclose, raised := toAsyncGeneratorUnsafe(args[0]).AClose(f)
		if raised != nil {
			return nil, raised
		}
		if _, raised := l.Spawn(aclose); raised != nil {
			return nil, raised
		}
		return None, nil
	})
	SetAsyncGenHooks(nil, finalizer.ToObject())
}

// Run steps the queued tasks round robin until none is left.
func (l *Loop) Run() {
	for t := l.pop(); t != nil; t = l.pop() {
		FinalizeDropped()
		if l.step(t) {
			l.push(t)
			continue
		}
		if sub := asSuspendable(t.iter); sub != nil {
			sub.Release()
		}
	}
}

// step resumes t once. It reports whether t is still pending.
func (l *Loop) step(t *Task) bool {
	var v *Object
	var raised *BaseException
	if t.iter.typ == CoroutineType {
		v, raised = toCoroutineUnsafe(t.iter).Send(l.f, None)
	} else {
		v, raised = Next(l.f, t.iter)
	}
	if raised == nil {
		traceDebugf("loop: task %d yielded %s", t.id, v)
		return true
	}
	t.done = true
	if raised.isInstance(StopIterationType) {
		t.result = StopIterationValue(raised)
	} else {
		t.raised = raised
		traceInfof("loop: task %d raised %s", t.id, raised.typ.Name())
	}
	l.f.RestoreExc(nil, nil)
	return false
}

// RunUntilComplete drives awaitable to completion on a private loop and
// returns its result.
func RunUntilComplete(f *Frame, awaitable *Object) (*Object, *BaseException) {
	l := NewLoop(f)
	t, raised := l.Spawn(awaitable)
	if raised != nil {
		return nil, raised
	}
	l.Run()
	result, raised := t.Result()
	if raised != nil {
		f.RestoreExc(raised, raised.traceback)
	}
	return result, raised
}
