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
)

var (
	// Builtins contains the Python built-in identifiers available to
	// compiled code.
	Builtins map[string]*Object
	// ExceptionTypes contains all builtin exception types.
	ExceptionTypes []*Type
	// NoneType is the object representing the Python 'NoneType' type.
	NoneType = newSimpleType("NoneType", ObjectType)
	// None is the singleton NoneType object representing the Python 'None'
	// object.
	None = &Object{typ: NoneType}
)

func noneRepr(*Frame, *Object) (*Object, *BaseException) {
	return NewStr("None").ToObject(), nil
}

func initNoneType(map[string]*Object) {
	NoneType.flags &= ^(typeFlagInstantiable | typeFlagBasetype)
	NoneType.slots.Repr = &unaryOpSlot{noneRepr}
}

type typeState int

const (
	typeStateNotReady typeState = iota
	typeStateInitializing
	typeStateReady
)

type builtinTypeInit func(map[string]*Object)

type builtinTypeInfo struct {
	state  typeState
	init   builtinTypeInit
	global bool
}

var builtinTypes = map[*Type]*builtinTypeInfo{
	AsyncGeneratorType:     {init: initAsyncGeneratorType},
	asyncGenASendType:      {init: initAsyncGenASendType},
	asyncGenAThrowType:     {init: initAsyncGenAThrowType},
	AttributeErrorType:     {global: true},
	BaseExceptionType:      {init: initBaseExceptionType, global: true},
	BoolType:               {init: initBoolType, global: true},
	CellType:               {init: initCellType},
	CodeType:               {init: initCodeType},
	CoroutineType:          {init: initCoroutineType},
	coroutineWrapperType:   {init: initCoroutineWrapperType},
	ExceptionType:          {global: true},
	FrameType:              {init: initFrameType},
	FunctionType:           {init: initFunctionType},
	GeneratorExitType:      {global: true},
	GeneratorType:          {init: initGeneratorType},
	IntType:                {init: initIntType, global: true},
	KeyboardInterruptType:  {global: true},
	MemoryErrorType:        {global: true},
	MethodType:             {init: initMethodType},
	NameErrorType:          {global: true},
	nativeType:             {init: initNativeType},
	NoneType:               {init: initNoneType},
	ObjectType:             {init: initObjectType, global: true},
	PropertyType:           {init: initPropertyType, global: true},
	RecursionErrorType:     {global: true},
	RuntimeErrorType:       {global: true},
	RuntimeWarningType:     {global: true},
	StaticMethodType:       {init: initStaticMethodType, global: true},
	StopAsyncIterationType: {global: true},
	StopIterationType:      {init: initStopIterationType, global: true},
	StrType:                {init: initStrType, global: true},
	SystemErrorType:        {global: true},
	TracebackType:          {init: initTracebackType},
	tupleIteratorType:      {init: initTupleIteratorType},
	TupleType:              {init: initTupleType, global: true},
	TypeErrorType:          {global: true},
	TypeType:               {init: initTypeType, global: true},
	UnboundLocalErrorType:  {global: true},
	ValueErrorType:         {global: true},
	WarningType:            {global: true},
}

func initBuiltinType(typ *Type, info *builtinTypeInfo) {
	if info.state == typeStateReady {
		return
	}
	if info.state == typeStateInitializing {
		logFatal(fmt.Sprintf("cycle in type initialization for: %s", typ.name))
	}
	info.state = typeStateInitializing
	for _, base := range typ.bases {
		baseInfo, ok := builtinTypes[base]
		if !ok {
			logFatal(fmt.Sprintf("base type not registered for: %s", typ.name))
		}
		initBuiltinType(base, baseInfo)
	}
	prepareBuiltinType(typ, info.init)
	info.state = typeStateReady
	if typ.isSubclass(BaseExceptionType) {
		ExceptionTypes = append(ExceptionTypes, typ)
	}
}

func builtinGetAttr(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	expectedTypes := []*Type{ObjectType, StrType, ObjectType}
	argc := len(args)
	if argc == 2 {
		expectedTypes = expectedTypes[:2]
	}
	if raised := checkFunctionArgs(f, "getattr", args, expectedTypes...); raised != nil {
		return nil, raised
	}
	var def *Object
	if argc == 3 {
		def = args[2]
	}
	return GetAttr(f, args[0], toStrUnsafe(args[1]), def)
}

func builtinIsInstance(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionArgs(f, "isinstance", args, ObjectType, TypeType); raised != nil {
		return nil, raised
	}
	return GetBool(args[0].isInstance(toTypeUnsafe(args[1]))).ToObject(), nil
}

func builtinIter(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionArgs(f, "iter", args, ObjectType); raised != nil {
		return nil, raised
	}
	return Iter(f, args[0])
}

func builtinNext(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionVarArgs(f, "next", args, ObjectType); raised != nil {
		return nil, raised
	}
	if len(args) > 2 {
		return nil, f.RaiseType(TypeErrorType, fmt.Sprintf("next expected at most 2 arguments, got %d", len(args)))
	}
	ret, raised := Next(f, args[0])
	if raised != nil && len(args) == 2 && raised.isInstance(StopIterationType) {
		f.RestoreExc(nil, nil)
		return args[1], nil
	}
	return ret, raised
}

func builtinRepr(f *Frame, args Args, _ KWArgs) (*Object, *BaseException) {
	if raised := checkFunctionArgs(f, "repr", args, ObjectType); raised != nil {
		return nil, raised
	}
	s, raised := Repr(f, args[0])
	if raised != nil {
		return nil, raised
	}
	return s.ToObject(), nil
}

func init() {
	builtinMap := map[string]*Object{
		"False":      False.ToObject(),
		"getattr":    newBuiltinFunction("getattr", builtinGetAttr).ToObject(),
		"isinstance": newBuiltinFunction("isinstance", builtinIsInstance).ToObject(),
		"iter":       newBuiltinFunction("iter", builtinIter).ToObject(),
		"next":       newBuiltinFunction("next", builtinNext).ToObject(),
		"None":       None,
		"repr":       newBuiltinFunction("repr", builtinRepr).ToObject(),
		"True":       True.ToObject(),
	}
	// Do type initialization in two phases so that we don't have to think
	// about hard-to-understand cycles.
	for typ, info := range builtinTypes {
		initBuiltinType(typ, info)
		if info.global {
			builtinMap[typ.name] = typ.ToObject()
		}
	}
	Builtins = builtinMap
}
