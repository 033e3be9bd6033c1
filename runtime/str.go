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
	"unicode"
)

var (
	// StrType is the object representing the Python 'str' type.
	StrType   = newBasisType("str", reflect.TypeOf(Str{}), toStrUnsafe, ObjectType)
	escapeMap = map[rune]string{
		'\t': `\t`,
		'\n': `\n`,
		'\r': `\r`,
		'\'': `\'`,
		'\\': `\\`,
	}
)

// Str represents Python 'str' objects.
type Str struct {
	Object
	value string
}

// NewStr returns a new Str holding the given string value.
func NewStr(value string) *Str {
	return &Str{Object: Object{typ: StrType}, value: value}
}

func toStrUnsafe(o *Object) *Str {
	return (*Str)(o.toPointer())
}

// ToObject upcasts s to an Object.
func (s *Str) ToObject() *Object {
	return &s.Object
}

// Value returns the underlying string value held by s.
func (s *Str) Value() string {
	return s.value
}

func strEq(f *Frame, v, w *Object) (*Object, *BaseException) {
	if !w.isInstance(StrType) {
		return False.ToObject(), nil
	}
	return GetBool(toStrUnsafe(v).Value() == toStrUnsafe(w).Value()).ToObject(), nil
}

func strNew(f *Frame, t *Type, args Args, _ KWArgs) (*Object, *BaseException) {
	if t != StrType {
		return nil, f.RaiseType(TypeErrorType, "str is not subclassable")
	}
	argc := len(args)
	if argc == 0 {
		return NewStr("").ToObject(), nil
	}
	if argc != 1 {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("str() takes at most 1 argument (%d given)", argc))
	}
	o := args[0]
	if str := o.typ.slots.Str; str != nil {
		return str.Fn(f, o)
	}
	s, raised := Repr(f, o)
	if raised != nil {
		return nil, raised
	}
	return s.ToObject(), nil
}

func strRepr(_ *Frame, o *Object) (*Object, *BaseException) {
	s := toStrUnsafe(o).Value()
	var buf strings.Builder
	buf.WriteRune('\'')
	for _, r := range s {
		if escape, ok := escapeMap[r]; ok {
			buf.WriteString(escape)
		} else if !unicode.IsPrint(r) {
			buf.WriteString(fmt.Sprintf(`\x%02x`, r))
		} else {
			buf.WriteRune(r)
		}
	}
	buf.WriteRune('\'')
	return NewStr(buf.String()).ToObject(), nil
}

func strStr(_ *Frame, o *Object) (*Object, *BaseException) {
	return o, nil
}

func initStrType(map[string]*Object) {
	StrType.flags &^= typeFlagBasetype
	StrType.slots.Eq = &binaryOpSlot{strEq}
	StrType.slots.New = &newSlot{strNew}
	StrType.slots.Repr = &unaryOpSlot{strRepr}
	StrType.slots.Str = &unaryOpSlot{strStr}
}
