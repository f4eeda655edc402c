// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Package sif parses the whitespace-separated textual network-definition
// format: one line per element, `element link_type cond1 cond2 ...`.
// Deliberately simple, but still a required part of the CLI surface, and
// the sole source of parse errors, which it reports with a line number
// the way a compiler diagnostic would.
package sif

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kittoku/go-phi/bitutil"
	"github.com/kittoku/go-phi/link"
)

// ParseError reports a malformed line, unknown link type, arity
// mismatch, duplicate element, or undefined reference, with the 1-based
// line number it occurred on.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sif: line %d: %s", e.Line, e.Msg)
}

// LinkInfo is one parsed definition line: element's link type and the
// (as-yet-unresolved) names of its conditioning elements.
type LinkInfo struct {
	Element   string
	LinkType  link.Type
	Condition []string
	// Line is the 1-based source line this definition came from, kept
	// so errors discovered after parseLines (duplicate elements,
	// undefined references) still report the true line rather than an
	// index into the blank-line-filtered infos slice.
	Line int
}

// Network is a fully resolved network definition: element order fixes
// element indices (0-based), and every condition has been turned into a
// link.Fn plus the bitmask of the elements it reads.
type Network struct {
	// Elements lists element names in file order; index i is element i.
	Elements []string
	// Fns[i] is element i's link function; Masks[i] is its condition
	// mask over the other elements' bit positions — together these are
	// the (link_fn, condition_mask) pairs a TPM is built from.
	Fns   []link.Fn
	Masks []uint64
}

// N is the number of elements in the network.
func (net *Network) N() int { return len(net.Elements) }

// Parse reads a .sif document from r and resolves it into a Network.
// Every referenced condition name must resolve to a previously-or-later
// defined element; duplicate element definitions are a ParseError.
func Parse(r io.Reader) (*Network, error) {
	infos, err := parseLines(r)
	if err != nil {
		return nil, err
	}
	return resolve(infos)
}

func parseLines(r io.Reader) ([]LinkInfo, error) {
	var infos []LinkInfo
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ParseError{Line: lineNo, Msg: "expected at least 'element link_type'"}
		}
		element := fields[0]
		typ, err := link.ParseType(fields[1])
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: err.Error()}
		}
		condition := fields[2:]
		if len(condition) == 0 {
			return nil, &ParseError{Line: lineNo, Msg: "no condition is defined"}
		}
		if !typ.Arity(len(condition)) {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("%s does not accept %d condition(s)", typ, len(condition))}
		}
		infos = append(infos, LinkInfo{Element: element, LinkType: typ, Condition: condition, Line: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sif: reading input: %w", err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("sif: no elements defined")
	}
	if len(infos) > bitutil.MaxElements {
		return nil, fmt.Errorf("sif: network has %d elements, exceeds the %d-bit word limit", len(infos), bitutil.MaxElements)
	}
	return infos, nil
}

func resolve(infos []LinkInfo) (*Network, error) {
	toIndex := make(map[string]int, len(infos))
	for i, info := range infos {
		if _, dup := toIndex[info.Element]; dup {
			return nil, &ParseError{Line: info.Line, Msg: fmt.Sprintf("element %q is defined twice or more", info.Element)}
		}
		toIndex[info.Element] = i
	}

	net := &Network{
		Elements: make([]string, len(infos)),
		Fns:      make([]link.Fn, len(infos)),
		Masks:    make([]uint64, len(infos)),
	}
	for i, info := range infos {
		net.Elements[i] = info.Element
		var indices []int
		for _, c := range info.Condition {
			idx, ok := toIndex[c]
			if !ok {
				return nil, &ParseError{Line: info.Line, Msg: fmt.Sprintf("element %q has condition %q whose element is not defined", info.Element, c)}
			}
			indices = append(indices, idx)
		}
		mask := bitutil.IndicesToMask(indices)
		net.Masks[i] = mask
		net.Fns[i] = link.ForType(info.LinkType, mask)
	}
	return net, nil
}
