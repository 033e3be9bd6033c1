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
	"strings"
)

// Eq reports whether v == w. Types without an __eq__ slot compare by
// identity.
func Eq(f *Frame, v, w *Object) (bool, *BaseException) {
	if v == w {
		return true, nil
	}
	eq := v.typ.slots.Eq
	if eq == nil {
		return false, nil
	}
	r, raised := eq.Fn(f, v, w)
	if raised != nil {
		return false, raised
	}
	return IsTrue(f, r)
}

// FormatExc returns a string containing the traceback and message of the
// exception currently being handled by f's thread, in the style of
// traceback.format_exc().
func FormatExc(f *Frame) string {
	exc, tb := f.ExcInfo()
	if exc == nil {
		return "NoneType: None\n"
	}
	var buf strings.Builder
	if tb != nil {
		buf.WriteString("Traceback (most recent call last):\n")
		for ; tb != nil; tb = tb.next {
			name := "<unknown>"
			filename := "<unknown>"
			if code := tb.frame.code; code != nil {
				name, filename = code.name, code.filename
			}
			fmt.Fprintf(&buf, "  File %q, line %d, in %s\n", filename, tb.lineno, name)
		}
	}
	s, raised := ToStr(f, exc.ToObject())
	if raised == nil && s.Value() != "" {
		fmt.Fprintf(&buf, "%s: %s\n", exc.typ.Name(), s.Value())
	} else {
		buf.WriteString(exc.typ.Name() + "\n")
	}
	f.RestoreExc(exc, tb)
	return buf.String()
}

// GetAttr returns the named attribute of o. Equivalent to the Python expression
// getattr(o, name, def).
func GetAttr(f *Frame, o *Object, name *Str, def *Object) (*Object, *BaseException) {
	getAttribute := o.typ.slots.GetAttribute
	if getAttribute == nil {
		msg := fmt.Sprintf("'%s' has no attribute '%s'", o.typ.Name(), name.Value())
		return nil, f.RaiseType(AttributeErrorType, msg)
	}
	result, raised := getAttribute.Fn(f, o, name)
	if raised != nil && raised.isInstance(AttributeErrorType) && def != nil {
		f.RestoreExc(nil, nil)
		result, raised = def, nil
	}
	return result, raised
}

// IsTrue returns the truthiness of o.
func IsTrue(f *Frame, o *Object) (bool, *BaseException) {
	switch {
	case o == None:
		return false, nil
	case o.isInstance(IntType):
		return toIntUnsafe(o).IsTrue(), nil
	case o.isInstance(StrType):
		return toStrUnsafe(o).Value() != "", nil
	case o.isInstance(TupleType):
		return toTupleUnsafe(o).Len() != 0, nil
	}
	return true, nil
}

// Iter implements the Python iter() builtin. It returns an iterator for o if
// o is iterable. Otherwise it raises TypeError.
func Iter(f *Frame, o *Object) (*Object, *BaseException) {
	iter := o.typ.slots.Iter
	if iter == nil {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("'%s' object is not iterable", o.typ.Name()))
	}
	return iter.Fn(f, o)
}

// Next implements the Python next() builtin. It calls next on the provided
// iterator. It raises TypeError if iter is not an iterator object.
func Next(f *Frame, iter *Object) (*Object, *BaseException) {
	next := iter.typ.slots.Next
	if next == nil {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("'%s' object is not an iterator", iter.typ.Name()))
	}
	return next.Fn(f, iter)
}

// Repr returns a string containing a printable representation of o. This is
// equivalent to the Python expression "repr(o)".
func Repr(f *Frame, o *Object) (*Str, *BaseException) {
	repr := o.typ.slots.Repr
	if repr == nil {
		return NewStr(fmt.Sprintf("<%s object at %p>", o.typ.Name(), o)), nil
	}
	r, raised := repr.Fn(f, o)
	if raised != nil {
		return nil, raised
	}
	if !r.isInstance(StrType) {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("__repr__ returned non-string (type %s)", r.typ.Name()))
	}
	return toStrUnsafe(r), nil
}

// ToStr is a convenience function for calling "str(o)".
func ToStr(f *Frame, o *Object) (*Str, *BaseException) {
	result, raised := StrType.Call(f, []*Object{o}, nil)
	if raised != nil {
		return nil, raised
	}
	if !result.isInstance(StrType) {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("__str__ returned non-string (type %s)", result.typ.Name()))
	}
	return toStrUnsafe(result), nil
}

// seqForEach calls fn for each element produced by iterating o.
func seqForEach(f *Frame, o *Object, fn func(*Object) *BaseException) *BaseException {
	iter, raised := Iter(f, o)
	if raised != nil {
		return raised
	}
	for {
		item, raised := Next(f, iter)
		if raised != nil {
			if raised.isInstance(StopIterationType) {
				f.RestoreExc(nil, nil)
				return nil
			}
			return raised
		}
		if raised := fn(item); raised != nil {
			return raised
		}
	}
}

// callMethod looks up the named method on o and calls it with args.
func callMethod(f *Frame, o *Object, name string, args Args) (*Object, *BaseException) {
	method, raised := GetAttr(f, o, NewStr(name), nil)
	if raised != nil {
		return nil, raised
	}
	return method.Call(f, args, nil)
}

func checkFunctionArgs(f *Frame, function string, args Args, types ...*Type) *BaseException {
	if len(args) != len(types) {
		msg := fmt.Sprintf("'%s' requires %d arguments", function, len(types))
		return f.RaiseType(TypeErrorType, msg)
	}
	for i, t := range types {
		if !args[i].isInstance(t) {
			format := "'%s' requires a '%s' object but received a %q"
			return f.RaiseType(TypeErrorType, fmt.Sprintf(format, function, t.Name(), args[i].typ.Name()))
		}
	}
	return nil
}

func checkFunctionVarArgs(f *Frame, function string, args Args, types ...*Type) *BaseException {
	if len(args) <= len(types) {
		return checkFunctionArgs(f, function, args, types...)
	}
	return checkFunctionArgs(f, function, args[:len(types)], types...)
}

func checkMethodArgs(f *Frame, method string, args Args, types ...*Type) *BaseException {
	if len(args) != len(types) {
		msg := fmt.Sprintf("'%s' of '%s' requires %d arguments", method, types[0].Name(), len(types))
		return f.RaiseType(TypeErrorType, msg)
	}
	for i, t := range types {
		if !args[i].isInstance(t) {
			format := "'%s' requires a '%s' object but received a '%s'"
			return f.RaiseType(TypeErrorType, fmt.Sprintf(format, method, t.Name(), args[i].typ.Name()))
		}
	}
	return nil
}

func checkMethodVarArgs(f *Frame, method string, args Args, types ...*Type) *BaseException {
	if len(args) <= len(types) {
		return checkMethodArgs(f, method, args, types...)
	}
	return checkMethodArgs(f, method, args[:len(types)], types...)
}
