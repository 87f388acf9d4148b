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

// Package fmterr formats compiler errors given a source span and
// classifies them by kind.
package fmterr

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pto-org/pto/build/ir"
)

// Kind classifies a compiler error.
type Kind int

const (
	// Unknown is the kind of errors not raised by this package.
	Unknown Kind = iota
	// InvalidArgument reports a malformed operand or attribute passed
	// to an operation builder.
	InvalidArgument
	// UnsupportedOperation reports an operation for which no handling
	// is registered.
	UnsupportedOperation
	// TypeMismatch reports operands whose types cannot be combined.
	TypeMismatch
	// PreconditionViolation reports a program that does not satisfy
	// the properties a pass requires.
	PreconditionViolation
)

// String returns the name of the error kind.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedOperation:
		return "unsupported operation"
	case TypeMismatch:
		return "type mismatch"
	case PreconditionViolation:
		return "precondition violation"
	}
	return "unknown"
}

type (
	// ErrorWithSpan is an error attached to a span in source code.
	ErrorWithSpan interface {
		error
		Kind() Kind
		Span() ir.Span
		Err() error
	}

	errorWithSpan struct {
		kind Kind
		span ir.Span
		err  error
	}
)

// Position attaches a kind and a source span to an error.
func Position(kind Kind, span ir.Span, err error) ErrorWithSpan {
	return errorWithSpan{kind: kind, span: span, err: err}
}

// Errorf returns a formatted compiler error of the given kind,
// attached to a source span.
func Errorf(kind Kind, span ir.Span, format string, a ...any) error {
	return Position(kind, span, errors.Errorf(format, a...))
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("PTO internal error. This is a bug in PTO. Please report it. Error:\n%+v", err)
}

// Error returns a string description of the error.
func (err errorWithSpan) Error() string {
	if !err.span.Valid() {
		return fmt.Sprintf("%s: %s", err.kind, err.err)
	}
	return fmt.Sprintf("%s: %s: %s", err.span, err.kind, err.err)
}

// Unwrap the error.
func (err errorWithSpan) Unwrap() error {
	return err.err
}

// Kind of the error.
func (err errorWithSpan) Kind() Kind {
	return err.kind
}

// Span of the source code the error points to.
func (err errorWithSpan) Span() ir.Span {
	return err.span
}

// Err returns the underlying error.
func (err errorWithSpan) Err() error {
	return err.err
}

// KindOf returns the kind of an error, unwrapping as needed, or
// Unknown for errors not raised by this package.
func KindOf(err error) Kind {
	var spanned errorWithSpan
	if stderrors.As(err, &spanned) {
		return spanned.kind
	}
	return Unknown
}
