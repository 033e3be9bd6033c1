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

// ExcState is an exception-state triple. The zero value means "no
// exception".
type ExcState struct {
	Type      *Type
	Value     *BaseException
	Traceback *Traceback
}

func newExcState(e *BaseException, tb *Traceback) ExcState {
	if e == nil {
		return ExcState{}
	}
	return ExcState{Type: e.typ, Value: e, Traceback: tb}
}

// IsEmpty reports whether s holds no exception.
func (s *ExcState) IsEmpty() bool {
	return s.Value == nil
}

// Clear drops the references held by s.
func (s *ExcState) Clear() {
	*s = ExcState{}
}

// saveExcState moves the ambient exception state of f's thread into the
// returned triple and leaves the ambient state empty.
func saveExcState(f *Frame) ExcState {
	e, tb := f.RestoreExc(nil, nil)
	return newExcState(e, tb)
}

// restoreExcState moves slot into the ambient exception state of f's thread
// and clears slot. An empty slot sets the ambient state to "no exception".
func restoreExcState(f *Frame, slot *ExcState) {
	f.RestoreExc(slot.Value, slot.Traceback)
	slot.Clear()
}
