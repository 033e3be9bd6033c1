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

// YieldFrom suspends the running body while the iterator of o is driven:
// values it yields are passed to the computation's caller and values sent
// or exceptions thrown into the computation are forwarded to it. The body is
// re-entered at label with the iterator's return value as sent value, or
// with the exception the iterator raised.
func (f *Frame) YieldFrom(label RunState, o *Object) (*Object, *BaseException) {
	f.checkSuspendable("yield from")
	var iter *Object
	if o.typ == CoroutineType {
		if f.code.flags&(CodeFlagCoroutine|CodeFlagIterableCoroutine) == 0 {
			return nil, f.RaiseType(TypeErrorType, "cannot 'yield from' a coroutine object in a non-coroutine generator")
		}
		iter = o
	} else {
		var raised *BaseException
		if iter, raised = Iter(f, o); raised != nil {
			return nil, raised
		}
	}
	return f.delegateTo(label, iter)
}

// asSuspendable returns the computation behind o when the engine can drive
// o directly.
func asSuspendable(o *Object) *suspendable {
	switch o.typ {
	case GeneratorType:
		return &toGeneratorUnsafe(o).suspendable
	case CoroutineType:
		return &toCoroutineUnsafe(o).suspendable
	case coroutineWrapperType:
		return &toCoroutineWrapperUnsafe(o).coro.suspendable
	}
	return nil
}

// driveDelegate resumes s's delegate with send, or throws exc into it. The
// bool result is false when the delegate suspended, in which case the
// outcome carries the value it yielded. Otherwise the outcome is the
// delegate's return value or the exception it raised.
func (s *suspendable) driveDelegate(f *Frame, send *Object, exc *BaseException) (Outcome, bool) {
	d := s.delegate
	if exc != nil && exc.isInstance(GeneratorExitType) {
		if raised := closeDelegate(f, d); raised != nil {
			return Outcome{Kind: OutcomeRaised, Raised: raised}, true
		}
		return Outcome{Kind: OutcomeRaised, Raised: exc}, true
	}
	if sub := asSuspendable(d); sub != nil {
		out := sub.resume(f, send, exc)
		if out.Kind == OutcomeYielded {
			out.Delegated = true
			return out, false
		}
		return out, true
	}
	var ret *Object
	var raised *BaseException
	switch {
	case exc != nil:
		var throw *Object
		if throw, raised = GetAttr(f, d, NewStr("throw"), None); raised != nil {
			break
		}
		if throw == None {
			return Outcome{Kind: OutcomeRaised, Raised: exc}, true
		}
		ret, raised = throw.Call(f, Args{exc.ToObject()}, nil)
	case send == None && d.typ.slots.Next != nil:
		ret, raised = Next(f, d)
	default:
		ret, raised = callMethod(f, d, "send", Args{send})
	}
	if raised == nil {
		return Outcome{Kind: OutcomeYielded, Value: ret, Delegated: true}, false
	}
	if raised.isInstance(StopIterationType) {
		f.RestoreExc(nil, nil)
		return Outcome{Kind: OutcomeReturned, Value: StopIterationValue(raised)}, true
	}
	return Outcome{Kind: OutcomeRaised, Raised: raised}, true
}

// closeDelegate closes d when GeneratorExit is thrown into the computation
// delegating to it.
func closeDelegate(f *Frame, d *Object) *BaseException {
	if sub := asSuspendable(d); sub != nil {
		return sub.close(f)
	}
	closeMethod, raised := GetAttr(f, d, NewStr("close"), None)
	if raised != nil {
		return raised
	}
	if closeMethod == None {
		return nil
	}
	_, raised = closeMethod.Call(f, nil, nil)
	return raised
}
