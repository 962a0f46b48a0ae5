// Copyright © 2026 The go-hdlsim Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.

// Package fixture reads the tiny S-expression netlist format used by
// cmd/simrun and its tests to build a runnable design without a real
// HDL parser/elaborator/compiler, all of which are out of scope for the
// kernel (spec §1). The tokenizer and tree shape are adapted from the
// netlist reader in sim/tsp/parse.go; the set of process "kinds" below
// stands in for compiled process bodies a real code generator would
// produce.
package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-hdlsim/hdlsim/internal/abi"
	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/signal"
	"github.com/go-hdlsim/hdlsim/internal/simtime"
)

type tokenKind int

const (
	tokSymbol tokenKind = iota
	tokOpen
	tokClose
)

type token struct {
	kind  tokenKind
	line  int
	value string
}

// tokenize splits a netlist into symbols and parens, tracking source
// line numbers for diagnostics, the way sim/tsp's Tokenize does for
// KiCad-style netlists.
func tokenize(input string) []token {
	var tokens []token
	var cur strings.Builder
	line := 1

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, token{tokSymbol, line, cur.String()})
			cur.Reset()
		}
	}

	for _, r := range input {
		switch r {
		case '(':
			flush()
			tokens = append(tokens, token{tokOpen, line, "("})
		case ')':
			flush()
			tokens = append(tokens, token{tokClose, line, ")"})
		case ' ', '\t', '\r':
			flush()
		case '\n':
			flush()
			line++
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// node is one parsed S-expression: (name atom... child...).
type node struct {
	Name     string
	Atoms    []string
	Children []*node
	Line     int
}

func (n *node) atom(i int) string {
	if i < 0 || i >= len(n.Atoms) {
		return ""
	}
	return n.Atoms[i]
}

func (n *node) child(name string) *node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// parseTree parses a complete netlist into its root node.
func parseTree(input string) (*node, error) {
	tokens := tokenize(input)

	var root *node
	var stack []*node
	var cur *node
	wantName := false

	for _, tok := range tokens {
		switch tok.kind {
		case tokOpen:
			wantName = true
		case tokClose:
			if cur == nil {
				return nil, fmt.Errorf("netlist: unbalanced close near line %d", tok.line)
			}
			if len(stack) == 0 {
				root = cur
				cur = nil
			} else {
				cur = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case tokSymbol:
			if wantName {
				n := &node{Name: tok.value, Line: tok.line}
				if cur != nil {
					cur.Children = append(cur.Children, n)
					stack = append(stack, cur)
				}
				cur = n
				wantName = false
			} else {
				if cur == nil {
					return nil, fmt.Errorf("netlist: symbol %q outside any form near line %d", tok.value, tok.line)
				}
				cur.Atoms = append(cur.Atoms, tok.value)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("netlist: missing or unbalanced top-level form")
	}
	return root, nil
}

func parseFS(s string) (simtime.T, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return simtime.T(v), err
}

// Load reads a fixture netlist and returns the Design plus a MapCodeGen
// ready for elab.Setup. rt is the runtime ABI the built-in process kinds
// below dispatch through; callers build rt from an as-yet-unbound
// kernel.Kernel (see kernel.NewEmpty/Bind) because the process closures
// must exist before Setup can resolve them.
//
// Supported forms:
//
//	(design <name>
//	  (signal <name> (drivers <n>) (init <value>))
//	  (process <name> (kind const)  (target <sig>) (value <v>) (after <fs>))
//	  (process <name> (kind toggle) (read <sig>) (write <sig>) (delay-fs <fs>))
//	  (process <name> (kind pulse)  (target <sig>) (edge <value> <at-fs>)...)
//	  (process <name> (kind assert) (severity note|warning|error|failure) (message <text>))
//	)
func Load(src string, rt *abi.Runtime) (*elab.Design, *elab.MapCodeGen, error) {
	root, err := parseTree(src)
	if err != nil {
		return nil, nil, err
	}
	if root.Name != "design" {
		return nil, nil, fmt.Errorf("netlist: expected top-level (design ...), got (%s ...)", root.Name)
	}

	design := &elab.Design{Name: root.atom(0)}
	gen := elab.NewMapCodeGen()
	nextID := 1

	for _, n := range root.Children {
		switch n.Name {
		case "signal":
			name := n.atom(0)
			drivers := 1
			var init uint64
			if d := n.child("drivers"); d != nil {
				drivers, _ = strconv.Atoi(d.atom(0))
			}
			if iv := n.child("init"); iv != nil {
				init, _ = strconv.ParseUint(iv.atom(0), 0, 64)
			}
			sig := signal.New(nextID, name, drivers)
			for i := 0; i < drivers; i++ {
				sig.InitDriver(i, signal.Word(init))
			}
			design.SignalDecls = append(design.SignalDecls, elab.SignalDecl{ID: nextID, Name: name, Drivers: drivers})
			gen.DefineSignal(name, sig)
			nextID++

		case "process":
			name := n.atom(0)
			kind := ""
			if k := n.child("kind"); k != nil {
				kind = k.atom(0)
			}
			fn, err := buildProcess(kind, n, gen, rt)
			if err != nil {
				return nil, nil, fmt.Errorf("netlist: process %q near line %d: %w", name, n.Line, err)
			}
			design.ProcessDecls = append(design.ProcessDecls, elab.ProcessDecl{ID: nextID, Name: name})
			gen.DefineProcess(name, fn)
			nextID++

		default:
			return nil, nil, fmt.Errorf("netlist: unknown top-level form %q near line %d", n.Name, n.Line)
		}
	}

	return design, gen, nil
}

func lookupSignal(gen *elab.MapCodeGen, name string) (*signal.Signal, error) {
	sig, ok := gen.VarPtr(name)
	if !ok {
		return nil, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// buildProcess constructs one of the fixed built-in process kinds
// (SPEC_FULL §11.1). Each covers one of the literal scenarios in
// spec §8.
func buildProcess(kind string, n *node, gen *elab.MapCodeGen, rt *abi.Runtime) (elab.ProcFn, error) {
	switch kind {
	case "const":
		sig, err := lookupSignal(gen, n.child("target").atom(0))
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseUint(n.child("value").atom(0), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value: %w", err)
		}
		after := simtime.T(0)
		if a := n.child("after"); a != nil {
			after, err = parseFS(a.atom(0))
			if err != nil {
				return nil, fmt.Errorf("bad after: %w", err)
			}
		}
		return func(reset bool) {
			if reset {
				rt.SchedWaveform(sig, 0, signal.Word(value), after)
			}
		}, nil

	case "toggle":
		read, err := lookupSignal(gen, n.child("read").atom(0))
		if err != nil {
			return nil, err
		}
		write, err := lookupSignal(gen, n.child("write").atom(0))
		if err != nil {
			return nil, err
		}
		delay := simtime.T(0)
		if d := n.child("delay-fs"); d != nil {
			delay, err = parseFS(d.atom(0))
			if err != nil {
				return nil, fmt.Errorf("bad delay-fs: %w", err)
			}
		}
		return func(reset bool) {
			if reset {
				rt.SchedProcess(delay)
				return
			}
			next := signal.Word(1)
			if read.Resolved != 0 {
				next = 0
			}
			rt.SchedWaveform(write, 0, next, 0)
			rt.SchedProcess(delay)
		}, nil

	case "pulse":
		sig, err := lookupSignal(gen, n.child("target").atom(0))
		if err != nil {
			return nil, err
		}
		type edge struct {
			value signal.Word
			at    simtime.T
		}
		var edges []edge
		for _, e := range n.childrenNamed("edge") {
			v, err := strconv.ParseUint(e.atom(0), 0, 64)
			if err != nil {
				return nil, fmt.Errorf("bad edge value: %w", err)
			}
			at, err := parseFS(e.atom(1))
			if err != nil {
				return nil, fmt.Errorf("bad edge time: %w", err)
			}
			edges = append(edges, edge{signal.Word(v), at})
		}
		return func(reset bool) {
			if reset {
				for _, e := range edges {
					rt.SchedWaveform(sig, 0, e.value, e.at)
				}
			}
		}, nil

	case "assert":
		sevNode := n.child("severity")
		sev := abi.Note
		if sevNode != nil {
			switch sevNode.atom(0) {
			case "note":
				sev = abi.Note
			case "warning":
				sev = abi.Warning
			case "error":
				sev = abi.Error
			case "failure":
				sev = abi.Failure
			default:
				return nil, fmt.Errorf("unknown severity %q", sevNode.atom(0))
			}
		}
		msg := ""
		if m := n.child("message"); m != nil {
			msg = m.atom(0)
		}
		return func(reset bool) {
			if reset {
				rt.AssertFail(false, msg, sev)
			}
		}, nil

	default:
		return nil, fmt.Errorf("unknown process kind %q", kind)
	}
}
