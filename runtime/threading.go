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
	"github.com/google/uuid"
)

// threadState is the state shared by every frame of one Python stack. It
// holds the ambient exception state that the exception-state slot of a
// suspended computation is swapped with.
type threadState struct {
	// id identifies the stack in trace output.
	id           string
	excValue     *BaseException
	excTraceback *Traceback
	// depth is the number of nested Code.Eval calls and resumptions
	// currently active on this stack.
	depth int
	// argsCache is a small, per-thread LIFO cache for arg lists. Entries
	// have a fixed capacity so calls to functions with larger parameter
	// lists will be allocated afresh each time. Args freed when the cache
	// is full are dropped. If the cache is empty then a new args slice
	// will be allocated.
	argsCache []Args

	// frameCache is a local cache of allocated frames almost ready for
	// reuse. The cache is maintained through the Frame `back` pointer as a
	// singly linked list.
	frameCache     *Frame
	frameCacheSize int
}

func newThreadState() *threadState {
	settings := currentSettings()
	return &threadState{
		id:        uuid.New().String(),
		argsCache: make([]Args, 0, settings.argsCacheSize),
	}
}

// enter records one more level of Python calls on ts. It reports false when
// the recursion limit would be exceeded.
func (ts *threadState) enter() bool {
	if ts.depth >= currentSettings().recursionLimit {
		return false
	}
	ts.depth++
	return true
}

func (ts *threadState) leave() {
	if ts.depth <= 0 {
		logFatal("threadState.leave: unbalanced call depth")
	}
	ts.depth--
}
