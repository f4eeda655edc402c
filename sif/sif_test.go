// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

package sif

import (
	"errors"
	"strings"
	"testing"

	"github.com/kittoku/go-phi/link"
)

const fig1Network = "A OR B C\nB AND A C\nC XOR A B\n"

func TestParseFig1Network(t *testing.T) {
	net, err := Parse(strings.NewReader(fig1Network))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if net.N() != 3 {
		t.Fatalf("N() = %d, want 3", net.N())
	}
	want := []string{"A", "B", "C"}
	for i, name := range want {
		if net.Elements[i] != name {
			t.Errorf("Elements[%d] = %q, want %q", i, net.Elements[i], name)
		}
	}
	// A = OR(B, C) -> mask should cover elements 1 and 2.
	if net.Masks[0] != 0b110 {
		t.Errorf("Masks[0] = %b, want %b", net.Masks[0], 0b110)
	}
}

func TestParseUndefinedReference(t *testing.T) {
	_, err := Parse(strings.NewReader("A OR B C\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
}

func TestParseDuplicateElement(t *testing.T) {
	_, err := Parse(strings.NewReader("A COPY B\nB COPY A\nA COPY B\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
	if perr.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", perr.Line)
	}
}

func TestParseDuplicateElementLineSkipsBlankLines(t *testing.T) {
	// A blank line precedes the duplicate definition; the reported line
	// number must be the true source line (4), not an index into the
	// blank-line-filtered infos slice (which would read 3).
	_, err := Parse(strings.NewReader("A COPY B\n\nB COPY A\nA COPY B\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
	if perr.Line != 4 {
		t.Errorf("ParseError.Line = %d, want 4", perr.Line)
	}
}

func TestParseUndefinedReferenceLineSkipsBlankLines(t *testing.T) {
	_, err := Parse(strings.NewReader("\n\nA OR B C\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
	if perr.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", perr.Line)
	}
}

func TestParseArityMismatch(t *testing.T) {
	_, err := Parse(strings.NewReader("A COPY B C\nB COPY A\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
}

func TestParseUnknownLinkType(t *testing.T) {
	_, err := Parse(strings.NewReader("A BOGUS B\nB COPY A\n"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}
}

func TestResolvedFnsAreCallable(t *testing.T) {
	net, err := Parse(strings.NewReader(fig1Network))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// B = AND(A, C); with A and C both on, B's fn must report ON.
	got := net.Fns[1](0b101, net.Masks[1])
	if got != 1.0 {
		t.Errorf("B's link fn with A,C on = %v, want 1.0", got)
	}
	_ = link.AND // sanity: link package is the fn source
}
