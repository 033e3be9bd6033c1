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

// Body is the compiled form of a function body. It dispatches on f.State()
// to the point where execution should continue: 0 on first entry, the label
// of a suspension point when a suspendable computation resumes, or an
// exception handler when an exception is being unwound. sent is the value
// delivered to the suspension point being resumed, None otherwise.
type Body func(f *Frame, sent *Object) (*Object, *BaseException)

// Block is a handle to code that runs in a new scope such as a function,
// generator or coroutine body.
type Block struct {
	// name is the name of the compiled function or "<module>".
	name string
	// filename is the path of the file where the Python code originated.
	filename string
	// fn executes the body of the code block. It may be re-entered
	// multiple times, e.g. for exception handling or resumption.
	fn Body
}

// NewBlock creates a Block object.
func NewBlock(name, filename string, fn Body) *Block {
	return &Block{name, filename, fn}
}

// Exec runs b to completion in f. The exception state of f's thread is
// restored when b returns normally.
func (b *Block) Exec(f *Frame) (*Object, *BaseException) {
	oldExc, oldTraceback := f.ExcInfo()
	ret, raised := b.execInternal(f, None, nil)
	if raised == nil {
		// Restore exc_info to what it was when we entered the block.
		f.RestoreExc(oldExc, oldTraceback)
	}
	return ret, raised
}

// execInternal runs b's body in f starting from f's current state. When
// raised is non-nil the body is entered at the innermost checkpoint as if
// raised had just been raised at the current state. The body is re-entered
// while checkpoint handlers are left.
func (b *Block) execInternal(f *Frame, sent *Object, raised *BaseException) (*Object, *BaseException) {
	if raised != nil {
		f.RestoreExc(raised, raised.traceback)
	}
	for {
		if raised != nil {
			if len(f.checkpoints) == 0 {
				return nil, raised
			}
			f.PopCheckpoint()
			sent = None
		}
		var ret *Object
		ret, raised = b.fn(f, sent)
		if raised == nil {
			return ret, nil
		}
	}
}
