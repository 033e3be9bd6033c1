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
	"runtime"
	"sync"
	"sync/atomic"
	"weak"
)

// Status is the lifecycle state of a suspendable computation. It only moves
// forward: StatusUnused, StatusRunning, StatusFinished.
type Status int

const (
	// StatusUnused means the body has not been entered yet.
	StatusUnused Status = iota
	// StatusRunning means the body has been entered and has not finished.
	// The computation is either executing or suspended.
	StatusRunning
	// StatusFinished means the body returned or raised, or the computation
	// was closed.
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusUnused:
		return "unused"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// OutcomeKind says how a resumption ended.
type OutcomeKind int

const (
	// OutcomeYielded means the computation suspended producing Value.
	OutcomeYielded OutcomeKind = iota
	// OutcomeReturned means the computation finished with Value.
	OutcomeReturned
	// OutcomeRaised means the computation finished raising Raised.
	OutcomeRaised
)

// Outcome is the result of resuming a suspendable computation.
type Outcome struct {
	Kind   OutcomeKind
	Value  *Object
	Raised *BaseException
	// Delegated is set on a yield that passed through from the sub-iterator
	// or awaitable the computation delegates to.
	Delegated bool
}

type flavour int

const (
	flavourGenerator flavour = iota
	flavourCoroutine
	flavourAsyncGenerator
)

func (fl flavour) String() string {
	switch fl {
	case flavourCoroutine:
		return "coroutine"
	case flavourAsyncGenerator:
		return "async generator"
	}
	return "generator"
}

// suspendableCounter numbers computations in creation order.
var suspendableCounter atomic.Uint64

// suspendable is the execution state shared by generators, coroutines and
// async generators. A compiled body runs in the suspendable's own frame and
// leaves it by returning, raising or by one of the suspension primitives
// Frame.Yield, Frame.YieldFrom and Frame.Await.
type suspendable struct {
	// self is the generator, coroutine or async generator object
	// embedding the suspendable. It is weak so that the object can be
	// collected while the computation is suspended.
	self     weak.Pointer[Object]
	flavour  flavour
	name     string
	qualname string
	module   string
	code     *Code
	counter  uint64

	mutex   sync.Mutex
	status  Status
	running bool
	// exc holds the exception state of the body while it is suspended.
	exc ExcState
	// delegate is the sub-iterator or awaitable driven by a yield from or
	// await expression, nil otherwise. A delegate that is itself a
	// suspendable computation holds a reference owned by s.
	delegate *Object

	frame     *Frame
	closure   []*Cell
	heap      *Heap
	allocator Allocator
	refs      atomic.Int32
}

func (s *suspendable) init(self *Object, fl flavour, c *Code, qualname, module string, closure []*Cell, heap *Heap, alloc Allocator) {
	s.self = weak.Make(self)
	s.flavour = fl
	s.name = c.name
	s.qualname = qualname
	s.module = module
	s.code = c
	s.counter = suspendableCounter.Add(1)
	s.closure = closure
	s.heap = heap
	s.allocator = alloc
	s.refs.Store(1)
	runtime.SetFinalizer(self, collectSuspendable)
	traceDebugf("%s %s #%d created", fl, qualname, s.counter)
}

// suspendableOf returns the computation embedded in the generator,
// coroutine or async generator o.
func suspendableOf(o *Object) *suspendable {
	switch o.typ {
	case GeneratorType:
		return &toGeneratorUnsafe(o).suspendable
	case CoroutineType:
		return &toCoroutineUnsafe(o).suspendable
	case AsyncGeneratorType:
		return &toAsyncGeneratorUnsafe(o).suspendable
	}
	return nil
}

// collected holds the objects of computations the collector found
// unreachable while references to them were still held. They are finalized
// by FinalizeDropped on a goroutine running compiled code, never on the
// collector's own goroutine.
var collected struct {
	sync.Mutex
	objects []*Object
}

func collectSuspendable(o *Object) {
	s := suspendableOf(o)
	if s == nil || s.refs.Swap(0) <= 0 {
		return
	}
	collected.Lock()
	collected.objects = append(collected.objects, o)
	collected.Unlock()
	notifyReclaimed()
}

// FinalizeDropped finalizes the computations that became unreachable
// without their last reference being released, as Release would have, and
// returns how many there were. It is called whenever a computation is
// created and between the steps of a Loop.
func FinalizeDropped() int {
	collected.Lock()
	objects := collected.objects
	collected.objects = nil
	collected.Unlock()
	for _, o := range objects {
		s := suspendableOf(o)
		traceDebugf("%s %s #%d collected", s.flavour, s.qualname, s.counter)
		s.finalize(o)
	}
	return len(objects)
}

// Status returns the lifecycle state of the computation.
func (s *suspendable) Status() Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status
}

// Running reports whether the body is executing right now.
func (s *suspendable) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// Heap returns the execution context storage of the computation. It is nil
// once the computation finished.
func (s *suspendable) Heap() *Heap {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.heap
}

// Frame returns the computation's frame, or nil when the body never ran or
// the computation finished.
func (s *suspendable) Frame() *Frame {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.status == StatusFinished {
		return nil
	}
	return s.frame
}

// Delegate returns the object the computation is delegating to, or nil.
func (s *suspendable) Delegate() *Object {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.delegate
}

// attachFrame returns the computation's frame, creating it on first use.
func (s *suspendable) attachFrame() *Frame {
	if s.frame == nil {
		s.frame = newSuspendableFrame(s.code, s.heap, s.closure)
	}
	return s.frame
}

// link makes frame part of the stack running f while the body executes.
func link(frame, caller *Frame) {
	frame.threadState = caller.threadState
	frame.back = caller
	frame.executing = true
}

// unlink detaches frame from the stack it executed on.
func unlink(frame *Frame) {
	frame.back = nil
	frame.executing = false
}

// resume runs the computation until it suspends, returns or raises. When exc
// is non-nil it is raised at the suspension point instead of delivering
// send. f is the caller's frame.
func (s *suspendable) resume(f *Frame, send *Object, exc *BaseException) Outcome {
	if send == nil {
		send = None
	}
	s.mutex.Lock()
	if s.running {
		s.mutex.Unlock()
		return Outcome{Kind: OutcomeRaised, Raised: f.RaiseType(ValueErrorType, fmt.Sprintf("%s already executing", s.flavour))}
	}
	switch s.status {
	case StatusFinished:
		s.mutex.Unlock()
		if s.flavour == flavourCoroutine {
			return Outcome{Kind: OutcomeRaised, Raised: f.RaiseType(RuntimeErrorType, "cannot reuse already awaited coroutine")}
		}
		if exc != nil {
			f.RestoreExc(exc, exc.traceback)
			return Outcome{Kind: OutcomeRaised, Raised: exc}
		}
		return Outcome{Kind: OutcomeReturned, Value: None}
	case StatusUnused:
		if exc != nil {
			// The body never runs: the exception propagates from the
			// start and the computation is over.
			s.status = StatusFinished
			s.mutex.Unlock()
			s.releaseStorage()
			f.RestoreExc(exc, exc.traceback)
			traceDebugf("%s %s #%d finished before starting", s.flavour, s.qualname, s.counter)
			return Outcome{Kind: OutcomeRaised, Raised: exc}
		}
		if send != None {
			s.mutex.Unlock()
			msg := fmt.Sprintf("can't send non-None value to a just-started %s", s.flavour)
			return Outcome{Kind: OutcomeRaised, Raised: f.RaiseType(TypeErrorType, msg)}
		}
	}
	if !f.threadState.enter() {
		s.mutex.Unlock()
		return Outcome{Kind: OutcomeRaised, Raised: f.RaiseType(RecursionErrorType, "maximum recursion depth exceeded")}
	}
	first := s.status == StatusUnused
	s.status = StatusRunning
	s.running = true
	frame := s.attachFrame()
	s.mutex.Unlock()

	link(frame, f)
	callerExc := saveExcState(f)
	restoreExcState(f, &s.exc)
	traceDebugf("%s %s #%d resumed on %s", s.flavour, s.qualname, s.counter, f.threadState.id)
	out := s.run(frame, first, send, exc)
	f.threadState.leave()

	s.mutex.Lock()
	s.running = false
	unlink(frame)
	if out.Kind == OutcomeYielded {
		s.exc = saveExcState(f)
		restoreExcState(f, &callerExc)
		s.mutex.Unlock()
		traceDebugf("%s %s #%d suspended", s.flavour, s.qualname, s.counter)
		return out
	}
	dropped := s.finishLocked(f, frame, &out, &callerExc)
	s.mutex.Unlock()
	releaseDelegate(dropped)
	return out
}

// run executes the body in frame, driving the delegate first if there is
// one.
func (s *suspendable) run(frame *Frame, first bool, send *Object, exc *BaseException) Outcome {
	if first {
		frame.state = 0
	} else if s.delegate != nil {
		out, done := s.driveDelegate(frame, send, exc)
		if !done {
			return out
		}
		send, exc = s.delegateResult(frame, out)
		frame.PopCheckpoint()
	} else {
		frame.PopCheckpoint()
	}
	for {
		ret, raised := s.code.block.execInternal(frame, send, exc)
		if raised != nil {
			frame.suspend, frame.suspendValue = suspendNone, nil
			return Outcome{Kind: OutcomeRaised, Raised: raised}
		}
		kind, value := frame.suspend, frame.suspendValue
		frame.suspend, frame.suspendValue = suspendNone, nil
		switch kind {
		case suspendYield:
			return Outcome{Kind: OutcomeYielded, Value: objectOrNone(value)}
		case suspendDelegate:
			s.setDelegate(value)
			out, done := s.driveDelegate(frame, None, nil)
			if !done {
				return out
			}
			send, exc = s.delegateResult(frame, out)
			frame.PopCheckpoint()
		default:
			return Outcome{Kind: OutcomeReturned, Value: objectOrNone(ret)}
		}
	}
}

// setDelegate makes d the delegate of s, taking a reference to it when it
// is a computation the engine drives directly. The previous delegate is
// released.
func (s *suspendable) setDelegate(d *Object) {
	if d != nil {
		if sub := asSuspendable(d); sub != nil {
			sub.Acquire()
		}
	}
	s.mutex.Lock()
	old := s.delegate
	s.delegate = d
	s.mutex.Unlock()
	releaseDelegate(old)
}

func releaseDelegate(d *Object) {
	if d == nil {
		return
	}
	if sub := asSuspendable(d); sub != nil {
		sub.Release()
	}
}

// delegateResult clears the delegate and turns its final outcome into what
// the body receives at the delegation label: the delegate's return value or
// the exception it raised.
func (s *suspendable) delegateResult(frame *Frame, out Outcome) (*Object, *BaseException) {
	s.setDelegate(nil)
	if out.Kind == OutcomeRaised {
		return None, out.Raised
	}
	return out.Value, nil
}

// finishLocked moves the computation to StatusFinished after its body
// returned or raised. It translates exceptions that must not escape the
// body, records the traceback entry for the computation's frame and
// restores the caller's exception state. It returns the delegate that was
// still set, which the caller must release once s is unlocked.
func (s *suspendable) finishLocked(f *Frame, frame *Frame, out *Outcome, callerExc *ExcState) (dropped *Object) {
	s.status = StatusFinished
	dropped, s.delegate = s.delegate, nil
	s.exc.Clear()
	frame.checkpoints = frame.checkpoints[:0]
	restoreExcState(f, callerExc)
	if out.Kind == OutcomeRaised {
		raised := out.Raised
		var msg string
		switch {
		case raised.isInstance(StopIterationType):
			msg = fmt.Sprintf("%s raised StopIteration", s.flavour)
		case s.flavour == flavourAsyncGenerator && raised.isInstance(StopAsyncIterationType):
			msg = "async generator raised StopAsyncIteration"
		}
		if msg != "" {
			converted := f.RaiseType(RuntimeErrorType, msg)
			converted.cause = raised
			converted.traceback = raised.traceback
			raised = converted
		}
		tb := raised.traceback
		if tb == nil || tb.frame != frame {
			tb = newTraceback(frame, tb)
		}
		raised.traceback = tb
		f.RestoreExc(raised, tb)
		out.Raised = raised
		traceDebugf("%s %s #%d finished raising %s", s.flavour, s.qualname, s.counter, raised.typ.Name())
	} else {
		traceDebugf("%s %s #%d finished", s.flavour, s.qualname, s.counter)
	}
	s.releaseStorageLocked()
	return dropped
}

func (s *suspendable) releaseStorage() {
	s.mutex.Lock()
	s.releaseStorageLocked()
	s.mutex.Unlock()
}

func (s *suspendable) releaseStorageLocked() {
	if s.heap == nil {
		return
	}
	s.allocator.FreeHeap(s.heap)
	s.heap = nil
	if s.frame != nil {
		s.frame.heap = nil
	}
}

// close finishes the computation by raising GeneratorExit at its suspension
// point. Closing an unused or finished computation does nothing beyond
// marking it finished.
func (s *suspendable) close(f *Frame) *BaseException {
	s.mutex.Lock()
	if !s.running {
		switch s.status {
		case StatusFinished:
			s.mutex.Unlock()
			return nil
		case StatusUnused:
			s.status = StatusFinished
			s.releaseStorageLocked()
			s.mutex.Unlock()
			return nil
		}
	}
	s.mutex.Unlock()
	exc, raised := newPendingException(f, GeneratorExitType.ToObject(), nil, nil)
	if raised != nil {
		return raised
	}
	out := s.resume(f, nil, exc)
	switch out.Kind {
	case OutcomeYielded:
		return f.RaiseType(RuntimeErrorType, fmt.Sprintf("%s ignored GeneratorExit", s.flavour))
	case OutcomeRaised:
		if out.Raised.isInstance(GeneratorExitType) {
			f.RestoreExc(nil, nil)
			return nil
		}
		return out.Raised
	}
	return nil
}

// newPendingException builds the exception described by the arguments of a
// throw() call without disturbing the caller's exception state.
func newPendingException(f *Frame, typ, value, tb *Object) (*BaseException, *BaseException) {
	if value == nil {
		value = None
	}
	if tb == nil {
		tb = None
	}
	if tb != None && !tb.isInstance(TracebackType) {
		return nil, f.RaiseType(TypeErrorType, "throw() third argument must be a traceback object")
	}
	var want *Type
	switch {
	case typ.isInstance(TypeType) && toTypeUnsafe(typ).isSubclass(BaseExceptionType):
		want = toTypeUnsafe(typ)
	case typ.isInstance(BaseExceptionType):
		if value != None {
			return nil, f.RaiseType(TypeErrorType, "instance exception may not have a separate value")
		}
		want = typ.typ
	default:
		format := "exceptions must be classes or instances deriving from BaseException, not %s"
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf(format, typ.typ.Name()))
	}
	saved := saveExcState(f)
	exc := f.Raise(typ, value, tb)
	if !exc.isInstance(want) {
		// Constructing the exception failed.
		return nil, exc
	}
	if tb == None {
		exc.traceback = nil
	}
	restoreExcState(f, &saved)
	return exc, nil
}

// Acquire adds a reference to the computation.
func (s *suspendable) Acquire() {
	if s.refs.Add(1) <= 1 {
		logFatal(fmt.Sprintf("%s %s acquired after release", s.flavour, s.qualname))
	}
}

// Release drops a reference to the computation. Releasing the last
// reference finalizes it: a suspended computation is closed, an unused
// coroutine is reported as never awaited, and the execution context storage
// goes back to its allocator.
func (s *suspendable) Release() {
	switch n := s.refs.Add(-1); {
	case n < 0:
		logFatal(fmt.Sprintf("%s %s released too many times", s.flavour, s.qualname))
	case n == 0:
		self := s.self.Value()
		if self != nil {
			runtime.SetFinalizer(self, nil)
		}
		s.finalize(self)
	}
}

// Release drops a reference to o when it is a generator, coroutine or async
// generator, finalizing it if that was the last one. Other objects are left
// alone.
func Release(o *Object) {
	if s := suspendableOf(o); s != nil {
		s.Release()
	}
}

// finalize runs once the last reference to the computation is gone. self is
// the object embedding s, or nil when it is no longer available.
func (s *suspendable) finalize(self *Object) {
	f := NewRootFrame()
	switch s.Status() {
	case StatusUnused:
		if s.flavour == flavourCoroutine && currentSettings().warnUnawaited {
			warn(RuntimeWarningType, fmt.Sprintf("coroutine '%s' was never awaited", s.qualname))
		}
	case StatusRunning:
		if s.flavour == flavourAsyncGenerator {
			if finalizer := s.asyncGenFinalizer(self); finalizer != nil {
				// The finalizer takes over: it is expected to schedule
				// aclose() which releases the storage when it completes.
				if _, raised := finalizer.Call(f, Args{self}, nil); raised != nil {
					writeUnraisable(f, raised, finalizer)
				}
				return
			}
		}
		if raised := s.close(f); raised != nil {
			writeUnraisable(f, raised, self)
		}
	}
	s.mutex.Lock()
	s.status = StatusFinished
	s.releaseStorageLocked()
	s.frame = nil
	s.closure = nil
	dropped := s.delegate
	s.delegate = nil
	s.mutex.Unlock()
	releaseDelegate(dropped)
	traceDebugf("%s %s #%d released", s.flavour, s.qualname, s.counter)
}

// asyncGenFinalizer returns the finalizer hook recorded by the async
// generator self when it was first iterated, or nil.
func (s *suspendable) asyncGenFinalizer(self *Object) *Object {
	if self == nil || s.flavour != flavourAsyncGenerator {
		return nil
	}
	g := toAsyncGeneratorUnsafe(self)
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.finalizer
}

// Yield suspends the running body producing v. When the computation is
// resumed the body is re-entered at label with the sent value.
func (f *Frame) Yield(label RunState, v *Object) (*Object, *BaseException) {
	f.checkSuspendable("yield")
	f.PushCheckpoint(label)
	f.suspend, f.suspendValue = suspendYield, v
	return v, nil
}

// delegateTo suspends the running body while iter is driven by the engine.
// The body is re-entered at label with iter's return value, or with the
// exception iter raised.
func (f *Frame) delegateTo(label RunState, iter *Object) (*Object, *BaseException) {
	f.PushCheckpoint(label)
	f.suspend, f.suspendValue = suspendDelegate, iter
	return None, nil
}

func (f *Frame) checkSuspendable(what string) {
	if f.code == nil || f.code.flags&codeFlagSuspendable == 0 {
		logFatal(fmt.Sprintf("%s outside of a generator, coroutine or async generator body", what))
	}
}
