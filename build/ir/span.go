// Copyright 2025 Google LLC
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

package ir

import (
	"fmt"
	"runtime"
)

// Span locates a node in its source code.
// The zero value is the unknown span.
type Span struct {
	Filename            string
	BeginLine, BeginCol int
	EndLine, EndCol     int
}

// UnknownSpan returns the sentinel span for nodes with no known
// source location.
func UnknownSpan() Span {
	return Span{}
}

// NewSpan returns a span given a file name and a position range.
func NewSpan(filename string, beginLine, beginCol, endLine, endCol int) Span {
	return Span{
		Filename:  filename,
		BeginLine: beginLine,
		BeginCol:  beginCol,
		EndLine:   endLine,
		EndCol:    endCol,
	}
}

// Valid returns true if the span points at a source location.
func (s Span) Valid() bool {
	return s.Filename != "" || s.BeginLine > 0
}

// String returns a file:line:column representation of the span.
func (s Span) String() string {
	if !s.Valid() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", s.Filename, s.BeginLine, s.BeginCol)
}

// CaptureSpan returns a best-effort span from the caller's position.
// skip is the number of stack frames to ascend, with 0 identifying
// the caller of CaptureSpan.
func CaptureSpan(skip int) Span {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return UnknownSpan()
	}
	return Span{Filename: file, BeginLine: line, BeginCol: 1, EndLine: line, EndCol: 1}
}

// SpanOrCapture returns span if it is valid, or a span captured from
// the caller's caller otherwise.
func SpanOrCapture(span Span) Span {
	if span.Valid() {
		return span
	}
	return CaptureSpan(2)
}
