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

var (
	// AttributeErrorType corresponds to the Python type 'AttributeError'.
	AttributeErrorType = newSimpleType("AttributeError", ExceptionType)
	// ExceptionType corresponds to the Python type 'Exception'.
	ExceptionType = newSimpleType("Exception", BaseExceptionType)
	// GeneratorExitType corresponds to the Python type 'GeneratorExit'.
	GeneratorExitType = newSimpleType("GeneratorExit", BaseExceptionType)
	// KeyboardInterruptType corresponds to the Python type 'KeyboardInterrupt'.
	KeyboardInterruptType = newSimpleType("KeyboardInterrupt", BaseExceptionType)
	// MemoryErrorType corresponds to the Python type 'MemoryError'.
	MemoryErrorType = newSimpleType("MemoryError", ExceptionType)
	// NameErrorType corresponds to the Python type 'NameError'.
	NameErrorType = newSimpleType("NameError", ExceptionType)
	// RecursionErrorType corresponds to the Python type 'RecursionError'.
	RecursionErrorType = newSimpleType("RecursionError", RuntimeErrorType)
	// RuntimeErrorType corresponds to the Python type 'RuntimeError'.
	RuntimeErrorType = newSimpleType("RuntimeError", ExceptionType)
	// RuntimeWarningType corresponds to the Python type 'RuntimeWarning'.
	RuntimeWarningType = newSimpleType("RuntimeWarning", WarningType)
	// StopAsyncIterationType corresponds to the Python type
	// 'StopAsyncIteration'.
	StopAsyncIterationType = newSimpleType("StopAsyncIteration", ExceptionType)
	// StopIterationType corresponds to the Python type 'StopIteration'.
	StopIterationType = newSimpleType("StopIteration", ExceptionType)
	// SystemErrorType corresponds to the Python type 'SystemError'.
	SystemErrorType = newSimpleType("SystemError", ExceptionType)
	// TypeErrorType corresponds to the Python type 'TypeError'.
	TypeErrorType = newSimpleType("TypeError", ExceptionType)
	// UnboundLocalErrorType corresponds to the Python type
	// 'UnboundLocalError'.
	UnboundLocalErrorType = newSimpleType("UnboundLocalError", NameErrorType)
	// ValueErrorType corresponds to the Python type 'ValueError'.
	ValueErrorType = newSimpleType("ValueError", ExceptionType)
	// WarningType corresponds to the Python type 'Warning'.
	WarningType = newSimpleType("Warning", ExceptionType)
)

// StopIterationValue returns the value carried by a StopIteration, i.e. its
// first argument or None.
func StopIterationValue(e *BaseException) *Object {
	if e.args == nil || len(e.args.elems) == 0 {
		return None
	}
	return e.args.elems[0]
}

// newStopIteration returns a StopIteration carrying value. A None value
// produces an exception with no args, as a bare return does.
func newStopIteration(f *Frame, value *Object) *BaseException {
	if value == nil || value == None {
		return f.Raise(StopIterationType.ToObject(), nil, nil)
	}
	// Wrap in a tuple so tuple values are not unpacked into args.
	return f.Raise(StopIterationType.ToObject(), NewTuple(value).ToObject(), nil)
}

func initStopIterationType(dict map[string]*Object) {
	dict["value"] = newGetter("value", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return StopIterationValue(toBaseExceptionUnsafe(o)), nil
	})
}
