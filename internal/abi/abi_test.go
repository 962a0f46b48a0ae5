// Copyright © 2026 The go-hdlsim Authors
//
// Unit tests for the runtime ABI (component D)

package abi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/equeue"
	"github.com/go-hdlsim/hdlsim/internal/signal"
	"github.com/go-hdlsim/hdlsim/internal/simtime"
)

func TestSchedProcessPanicsWithNoActiveProcess(t *testing.T) {
	var q equeue.Queue
	var clock simtime.Clock
	rt := New(&q, &clock)

	defer func() {
		if recover() == nil {
			t.Fatal("expected SchedProcess to panic with no active process")
		}
	}()
	rt.SchedProcess(0)
}

func TestSchedProcessEnqueuesActiveProcess(t *testing.T) {
	var q equeue.Queue
	var clock simtime.Clock
	rt := New(&q, &clock)

	p := &elab.Process{Decl: elab.ProcessDecl{ID: 1, Name: "p1"}}
	rt.SetActiveProcess(p)
	rt.SchedProcess(5)

	payload, ok := q.Pop()
	if !ok {
		t.Fatal("expected a queued wakeup")
	}
	wake, ok := payload.(equeue.WakeProcess)
	if !ok || wake.Proc != p {
		t.Fatalf("expected WakeProcess{%v}, got %#v", p, payload)
	}
}

func TestSchedWaveformSchedulesTransactionAndEvent(t *testing.T) {
	var q equeue.Queue
	var clock simtime.Clock
	rt := New(&q, &clock)

	sig := signal.New(1, "s", 1)
	sig.InitDriver(0, 0)
	rt.SchedWaveform(sig, 0, 9, 100)

	if sig.Head(0).Value != 0 {
		t.Fatalf("committed head should still be 0 until the kernel commits, got %d", sig.Head(0).Value)
	}
	payload, ok := q.Pop()
	if !ok {
		t.Fatal("expected a queued CommitSignal")
	}
	commit, ok := payload.(equeue.CommitSignal)
	if !ok || commit.Sig != sig {
		t.Fatalf("expected CommitSignal{%v}, got %#v", sig, payload)
	}
}

func TestAssertFailBelowErrorDoesNotAbort(t *testing.T) {
	var q equeue.Queue
	var clock simtime.Clock
	rt := New(&q, &clock)
	var buf bytes.Buffer
	rt.Stderr = &buf

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Note/Warning severities must not panic, got %v", r)
			}
		}()
		rt.AssertFail(false, "just a note", Note)
		rt.AssertFail(false, "a warning", Warning)
	}()

	out := buf.String()
	if !strings.Contains(out, "Note: just a note") {
		t.Errorf("missing Note diagnostic, got %q", out)
	}
	if !strings.Contains(out, "Warning: a warning") {
		t.Errorf("missing Warning diagnostic, got %q", out)
	}
}

func TestAssertFailAtOrAboveErrorAborts(t *testing.T) {
	for _, sev := range []Severity{Error, Failure} {
		var q equeue.Queue
		var clock simtime.Clock
		rt := New(&q, &clock)
		var buf bytes.Buffer
		rt.Stderr = &buf

		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("severity %v should panic", sev)
				}
				if _, ok := r.(*FailureAbort); !ok {
					t.Fatalf("expected *FailureAbort, got %T", r)
				}
			}()
			rt.AssertFail(false, "boom", sev)
		}()
	}
}

func TestAssertFailReportVsAssertionLabel(t *testing.T) {
	var q equeue.Queue
	var clock simtime.Clock
	rt := New(&q, &clock)
	var buf bytes.Buffer
	rt.Stderr = &buf

	rt.AssertFail(true, "informational", Note)
	if !strings.Contains(buf.String(), "Report Note: informational") {
		t.Errorf("expected a Report-labeled diagnostic, got %q", buf.String())
	}
}

func TestStdStandardNowReflectsClock(t *testing.T) {
	var q equeue.Queue
	clock := simtime.Clock{Now: 1234}
	rt := New(&q, &clock)
	if got := rt.StdStandardNow(); got != 1234 {
		t.Errorf("StdStandardNow() = %d, want 1234", got)
	}
}
