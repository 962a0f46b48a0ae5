// Copyright © 2026 The go-hdlsim Authors
//
// Unit tests for Setup (component E)

package elab

import (
	"testing"

	"github.com/go-hdlsim/hdlsim/internal/signal"
)

func TestSetupBindsSignalsAndProcesses(t *testing.T) {
	x := signal.New(1, "x", 2)
	gen := NewMapCodeGen()
	gen.DefineSignal("x", x)
	ran := false
	gen.DefineProcess("p1", func(reset bool) { ran = true })

	design := &Design{
		Name:         "demo",
		SignalDecls:  []SignalDecl{{ID: 1, Name: "x", Drivers: 2}},
		ProcessDecls: []ProcessDecl{{ID: 1, Name: "p1"}},
	}

	var boundNow uint64 = 42
	bound, err := Setup(design, gen, func() uint64 { return boundNow })
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if len(bound.Signals) != 1 || bound.Signals[0] != x {
		t.Fatalf("expected signal x to be bound, got %v", bound.Signals)
	}
	if len(bound.Processes) != 1 {
		t.Fatalf("expected one bound process, got %d", len(bound.Processes))
	}
	bound.Processes[0].Fn(false)
	if !ran {
		t.Error("expected the bound process's Fn to be the registered closure")
	}

	sig, ok := bound.SignalByDeclID(1)
	if !ok || sig != x {
		t.Error("SignalByDeclID(1) should resolve to x via the declaration side-table")
	}
	if _, ok := bound.SignalByDeclID(99); ok {
		t.Error("SignalByDeclID(99) should not resolve")
	}

	fn, ok := gen.Builtin("std_standard_now")
	if !ok {
		t.Fatal("expected std_standard_now to be bound during Setup")
	}
	if got := fn.(func() uint64)(); got != 42 {
		t.Errorf("std_standard_now() = %d, want 42", got)
	}
}

func TestSetupMissingSignalStorage(t *testing.T) {
	gen := NewMapCodeGen()
	design := &Design{SignalDecls: []SignalDecl{{ID: 1, Name: "missing", Drivers: 1}}}
	if _, err := Setup(design, gen, func() uint64 { return 0 }); err == nil {
		t.Fatal("expected Setup to fail when a signal's storage is unresolved")
	}
}

func TestSetupMissingProcessEntry(t *testing.T) {
	gen := NewMapCodeGen()
	design := &Design{ProcessDecls: []ProcessDecl{{ID: 1, Name: "missing"}}}
	if _, err := Setup(design, gen, func() uint64 { return 0 }); err == nil {
		t.Fatal("expected Setup to fail when a process's entry point is unresolved")
	}
}

func TestSetupDriverCountMismatch(t *testing.T) {
	x := signal.New(1, "x", 1)
	gen := NewMapCodeGen()
	gen.DefineSignal("x", x)
	design := &Design{SignalDecls: []SignalDecl{{ID: 1, Name: "x", Drivers: 2}}}
	if _, err := Setup(design, gen, func() uint64 { return 0 }); err == nil {
		t.Fatal("expected Setup to reject a driver-count mismatch")
	}
}

func TestSetupNilDesign(t *testing.T) {
	if _, err := Setup(nil, NewMapCodeGen(), func() uint64 { return 0 }); err == nil {
		t.Fatal("expected Setup to reject a nil design")
	}
}
