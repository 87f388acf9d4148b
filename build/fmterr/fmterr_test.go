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

package fmterr_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/pto-org/pto/build/fmterr"
	"github.com/pto-org/pto/build/ir"
)

func TestErrorfWithSpan(t *testing.T) {
	span := ir.NewSpan("kernel.pto", 3, 7, 3, 12)
	err := fmterr.Errorf(fmterr.TypeMismatch, span, "cannot add %s to %s", "tile", "tensor")
	want := "kernel.pto:3:7: type mismatch: cannot add tile to tensor"
	if got := err.Error(); got != want {
		t.Errorf("error formats as %q, want %q", got, want)
	}
}

func TestErrorfWithoutSpan(t *testing.T) {
	err := fmterr.Errorf(fmterr.InvalidArgument, ir.UnknownSpan(), "missing attribute %s", "dtype")
	want := "invalid argument: missing attribute dtype"
	if got := err.Error(); got != want {
		t.Errorf("error formats as %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	err := fmterr.Errorf(fmterr.UnsupportedOperation, ir.UnknownSpan(), "no such op")
	if got := fmterr.KindOf(err); got != fmterr.UnsupportedOperation {
		t.Errorf("KindOf = %s, want %s", got, fmterr.UnsupportedOperation)
	}
	// The kind survives wrapping.
	wrapped := errors.WithMessage(err, "pass ConvertTensorToBlockOps")
	if got := fmterr.KindOf(wrapped); got != fmterr.UnsupportedOperation {
		t.Errorf("KindOf of a wrapped error = %s, want %s", got, fmterr.UnsupportedOperation)
	}
	if got := fmterr.KindOf(errors.New("plain")); got != fmterr.Unknown {
		t.Errorf("KindOf of a foreign error = %s, want %s", got, fmterr.Unknown)
	}
}

func TestPosition(t *testing.T) {
	span := ir.NewSpan("main.pto", 10, 1, 10, 4)
	cause := errors.New("boom")
	err := fmterr.Position(fmterr.PreconditionViolation, span, cause)
	if err.Kind() != fmterr.PreconditionViolation {
		t.Errorf("Kind = %s, want %s", err.Kind(), fmterr.PreconditionViolation)
	}
	if err.Span() != span {
		t.Errorf("Span = %v, want %v", err.Span(), span)
	}
	if err.Err() != cause {
		t.Errorf("Err does not return the underlying error")
	}
}

func TestInternal(t *testing.T) {
	err := fmterr.Internal(errors.New("corrupt state"))
	if !strings.Contains(err.Error(), "internal error") {
		t.Errorf("internal error message %q does not mention an internal error", err)
	}
}
