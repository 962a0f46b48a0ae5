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

// Package elab models the external interfaces the kernel consumes
// (spec §6): the elaborated top-level tree produced by elaboration, and
// the code generator / JIT that supplies compiled process bodies and
// signal storage addresses. Elaboration and code generation themselves
// are out of scope (spec §1) — this package only describes their shape
// and performs the Setup binding (component E) that turns a Design into
// kernel-ready records.
package elab

import (
	"fmt"

	"github.com/go-hdlsim/hdlsim/internal/signal"
)

// SignalDecl is one signal declaration in the elaborated tree: a unique
// identifier and the driver count determined at elaboration.
type SignalDecl struct {
	ID      int
	Name    string
	Drivers int
}

// ProcessDecl is one process statement in the elaborated tree: a unique
// identifier used to locate its compiled entry point.
type ProcessDecl struct {
	ID   int
	Name string
}

// Design is the flattened, post-elaboration top-level tree the kernel
// consumes: signal declarations plus process statements. It is read-only
// to the kernel.
type Design struct {
	Name         string
	SignalDecls  []SignalDecl
	ProcessDecls []ProcessDecl
}

// ProcFn is a compiled process entry point. reset is true exactly once,
// during the initialization phase (spec §4.F).
type ProcFn func(reset bool)

// CodeGen is the code generator / JIT interface (spec §6): it resolves
// process entry points and signal storage addresses by identifier, and
// accepts exported kernel built-ins such as std_standard_now.
type CodeGen interface {
	// FunPtr resolves a process declaration's compiled entry point.
	FunPtr(name string) (ProcFn, bool)
	// VarPtr resolves a signal declaration's runtime storage address.
	VarPtr(name string) (*signal.Signal, bool)
	// BindFn exports a kernel built-in to compiled code under name.
	BindFn(name string, fn any)
}

// Process is the kernel's process record (spec §3): a declaration
// back-reference, for tracing, and the callable itself. Processes are
// stateless from the kernel's viewpoint — state lives inside fn.
type Process struct {
	Decl ProcessDecl
	Fn   ProcFn
}

// Bound is the result of Setup (spec §4.E): arena-allocated signal and
// process records bound to an elaborated Design, plus the declaration
// side-table described in spec §9 ("back-pointer from declaration to
// signal record... best modeled as a side-table").
type Bound struct {
	Design    *Design
	Signals   []*signal.Signal
	Processes []*Process

	// bySignalID maps a SignalDecl.ID to its index in Signals; a
	// non-owning side-table, not a field on the declaration itself.
	bySignalID map[int]int
}

// SignalByDeclID looks up a bound signal by its declaration id.
func (b *Bound) SignalByDeclID(id int) (*signal.Signal, bool) {
	idx, ok := b.bySignalID[id]
	if !ok {
		return nil, false
	}
	return b.Signals[idx], true
}

// Setup binds an elaborated Design to runtime signal and process
// records (component E): it counts declarations vs. statements,
// allocates the signal and process tables, and resolves every process's
// entry point and every signal's storage address through gen.
//
// stdStandardNow is bound as the std_standard_now built-in (spec §4.E
// step 2) before any per-declaration binding happens, so compiled code
// can resolve it regardless of binding order.
func Setup(design *Design, gen CodeGen, stdStandardNow func() uint64) (*Bound, error) {
	if design == nil {
		return nil, fmt.Errorf("setup: no top-level design")
	}

	gen.BindFn("std_standard_now", stdStandardNow)

	b := &Bound{
		Design:     design,
		Signals:    make([]*signal.Signal, 0, len(design.SignalDecls)),
		Processes:  make([]*Process, 0, len(design.ProcessDecls)),
		bySignalID: make(map[int]int, len(design.SignalDecls)),
	}

	for _, decl := range design.SignalDecls {
		sig, ok := gen.VarPtr(decl.Name)
		if !ok {
			return nil, fmt.Errorf("setup: no storage address for signal %q", decl.Name)
		}
		if sig.Drivers() != decl.Drivers {
			return nil, fmt.Errorf("setup: signal %q declared with %d drivers, storage has %d",
				decl.Name, decl.Drivers, sig.Drivers())
		}
		b.bySignalID[decl.ID] = len(b.Signals)
		b.Signals = append(b.Signals, sig)
	}

	for _, decl := range design.ProcessDecls {
		fn, ok := gen.FunPtr(decl.Name)
		if !ok {
			return nil, fmt.Errorf("setup: no entry point for process %q", decl.Name)
		}
		b.Processes = append(b.Processes, &Process{Decl: decl, Fn: fn})
	}

	return b, nil
}
