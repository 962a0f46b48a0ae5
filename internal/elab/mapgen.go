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

package elab

import "github.com/go-hdlsim/hdlsim/internal/signal"

// MapCodeGen is a minimal, in-memory CodeGen: a stand-in for the real
// HDL compiler/JIT (out of scope per spec §1), used by tests and by the
// netlist fixture loader to bind process entry points and signal
// storage by name without a real compilation pipeline.
type MapCodeGen struct {
	funcs map[string]ProcFn
	vars  map[string]*signal.Signal
	bound map[string]any
}

// NewMapCodeGen returns an empty MapCodeGen.
func NewMapCodeGen() *MapCodeGen {
	return &MapCodeGen{
		funcs: make(map[string]ProcFn),
		vars:  make(map[string]*signal.Signal),
		bound: make(map[string]any),
	}
}

// DefineProcess registers name's compiled entry point.
func (g *MapCodeGen) DefineProcess(name string, fn ProcFn) { g.funcs[name] = fn }

// DefineSignal registers name's runtime storage address.
func (g *MapCodeGen) DefineSignal(name string, sig *signal.Signal) { g.vars[name] = sig }

// FunPtr implements CodeGen.
func (g *MapCodeGen) FunPtr(name string) (ProcFn, bool) {
	fn, ok := g.funcs[name]
	return fn, ok
}

// VarPtr implements CodeGen.
func (g *MapCodeGen) VarPtr(name string) (*signal.Signal, bool) {
	s, ok := g.vars[name]
	return s, ok
}

// BindFn implements CodeGen.
func (g *MapCodeGen) BindFn(name string, fn any) { g.bound[name] = fn }

// Builtin returns a previously bound built-in (e.g. std_standard_now),
// for callers that want to invoke it through the CodeGen boundary
// instead of holding their own reference to the runtime.
func (g *MapCodeGen) Builtin(name string) (any, bool) {
	v, ok := g.bound[name]
	return v, ok
}
