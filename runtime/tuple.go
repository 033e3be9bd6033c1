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

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	// TupleType is the object representing the Python 'tuple' type.
	TupleType         = newBasisType("tuple", reflect.TypeOf(Tuple{}), toTupleUnsafe, ObjectType)
	tupleIteratorType = newBasisType("tuple_iterator", reflect.TypeOf(tupleIterator{}), toTupleIteratorUnsafe, ObjectType)
	emptyTuple        = &Tuple{Object: Object{typ: TupleType}}
)

// Tuple represents Python 'tuple' objects.
//
// Tuples are thread safe by virtue of being immutable.
type Tuple struct {
	Object
	elems []*Object
}

// NewTuple returns a tuple containing the given elements.
func NewTuple(elems ...*Object) *Tuple {
	if len(elems) == 0 {
		return emptyTuple
	}
	return &Tuple{Object: Object{typ: TupleType}, elems: elems}
}

// NewTuple2 returns a tuple containing the given elements.
func NewTuple2(elem0, elem1 *Object) *Tuple {
	return NewTuple(elem0, elem1)
}

func toTupleUnsafe(o *Object) *Tuple {
	return (*Tuple)(o.toPointer())
}

// GetItem returns the i'th element of t. Bounds are unchecked and therefore
// this method will panic unless 0 <= i < t.Len().
func (t *Tuple) GetItem(i int) *Object {
	return t.elems[i]
}

// Len returns the number of elements in t.
func (t *Tuple) Len() int {
	return len(t.elems)
}

// ToObject upcasts t to an Object.
func (t *Tuple) ToObject() *Object {
	return &t.Object
}

func tupleEq(f *Frame, v, w *Object) (*Object, *BaseException) {
	if !w.isInstance(TupleType) {
		return False.ToObject(), nil
	}
	e1, e2 := toTupleUnsafe(v).elems, toTupleUnsafe(w).elems
	if len(e1) != len(e2) {
		return False.ToObject(), nil
	}
	for i := range e1 {
		eq, raised := Eq(f, e1[i], e2[i])
		if raised != nil {
			return nil, raised
		}
		if !eq {
			return False.ToObject(), nil
		}
	}
	return True.ToObject(), nil
}

func tupleIter(f *Frame, o *Object) (*Object, *BaseException) {
	return newTupleIterator(toTupleUnsafe(o)), nil
}

func tupleNew(f *Frame, t *Type, args Args, _ KWArgs) (*Object, *BaseException) {
	if len(args) == 0 {
		return emptyTuple.ToObject(), nil
	}
	if len(args) != 1 {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("tuple() takes at most 1 argument (%d given)", len(args)))
	}
	if args[0].isInstance(TupleType) {
		return args[0], nil
	}
	var elems []*Object
	raised := seqForEach(f, args[0], func(o *Object) *BaseException {
		elems = append(elems, o)
		return nil
	})
	if raised != nil {
		return nil, raised
	}
	return NewTuple(elems...).ToObject(), nil
}

func tupleRepr(f *Frame, o *Object) (*Object, *BaseException) {
	t := toTupleUnsafe(o)
	parts := make([]string, len(t.elems))
	for i, elem := range t.elems {
		s, raised := Repr(f, elem)
		if raised != nil {
			return nil, raised
		}
		parts[i] = s.Value()
	}
	s := strings.Join(parts, ", ")
	if len(t.elems) == 1 {
		s = fmt.Sprintf("(%s,)", s)
	} else {
		s = fmt.Sprintf("(%s)", s)
	}
	return NewStr(s).ToObject(), nil
}

func initTupleType(map[string]*Object) {
	TupleType.slots.Eq = &binaryOpSlot{tupleEq}
	TupleType.slots.Iter = &unaryOpSlot{tupleIter}
	TupleType.slots.New = &newSlot{tupleNew}
	TupleType.slots.Repr = &unaryOpSlot{tupleRepr}
}

type tupleIterator struct {
	Object
	mutex sync.Mutex
	tuple *Tuple
	i     int
}

func newTupleIterator(t *Tuple) *Object {
	iter := &tupleIterator{Object: Object{typ: tupleIteratorType}, tuple: t}
	return &iter.Object
}

func toTupleIteratorUnsafe(o *Object) *tupleIterator {
	return (*tupleIterator)(o.toPointer())
}

func tupleIteratorIter(f *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func tupleIteratorNext(f *Frame, o *Object) (ret *Object, raised *BaseException) {
	i := toTupleIteratorUnsafe(o)
	i.mutex.Lock()
	if i.tuple == nil || i.i >= len(i.tuple.elems) {
		i.tuple = nil
		raised = f.Raise(StopIterationType.ToObject(), nil, nil)
	} else {
		ret = i.tuple.elems[i.i]
		i.i++
	}
	i.mutex.Unlock()
	return ret, raised
}

func initTupleIteratorType(map[string]*Object) {
	tupleIteratorType.flags &= ^(typeFlagBasetype | typeFlagInstantiable)
	tupleIteratorType.slots.Iter = &unaryOpSlot{tupleIteratorIter}
	tupleIteratorType.slots.Next = &unaryOpSlot{tupleIteratorNext}
}
