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
	"reflect"
)

// Traceback represents Python 'traceback' objects.
type Traceback struct {
	Object
	frame  *Frame     `attr:"tb_frame"`
	next   *Traceback `attr:"tb_next"`
	lineno int        `attr:"tb_lineno"`
}

// newTraceback returns an entry for f in front of next. f is marked taken so
// that it is not recycled while the traceback refers to it.
func newTraceback(f *Frame, next *Traceback) *Traceback {
	f.taken = true
	return &Traceback{Object{typ: TracebackType}, f, next, f.lineno}
}

func toTracebackUnsafe(o *Object) *Traceback {
	return (*Traceback)(o.toPointer())
}

// ToObject upcasts t to an Object.
func (t *Traceback) ToObject() *Object {
	return &t.Object
}

// Frame returns the frame the entry was recorded for.
func (t *Traceback) Frame() *Frame {
	return t.frame
}

// Next returns the next entry towards the point the exception was raised.
func (t *Traceback) Next() *Traceback {
	return t.next
}

// Lineno returns the line number that was current when the entry was made.
func (t *Traceback) Lineno() int {
	return t.lineno
}

// TracebackType is the object representing the Python 'traceback' type.
var TracebackType = newBasisType("traceback", reflect.TypeOf(Traceback{}), toTracebackUnsafe, ObjectType)

func initTracebackType(dict map[string]*Object) {
	TracebackType.flags &^= typeFlagInstantiable | typeFlagBasetype
	dict["tb_frame"] = newGetter("tb_frame", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return toTracebackUnsafe(o).frame.ToObject(), nil
	})
	dict["tb_lineno"] = newGetter("tb_lineno", func(_ *Frame, o *Object) (*Object, *BaseException) {
		return NewInt(toTracebackUnsafe(o).lineno).ToObject(), nil
	})
	dict["tb_next"] = newGetter("tb_next", func(_ *Frame, o *Object) (*Object, *BaseException) {
		if next := toTracebackUnsafe(o).next; next != nil {
			return next.ToObject(), nil
		}
		return None, nil
	})
}
