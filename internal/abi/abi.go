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

// Package abi implements the runtime ABI (component D): the operations
// exposed to compiled process code (sched_process, sched_waveform,
// assert_fail, std_standard_now), plus the ambient "active process" slot
// sched_process relies on.
package abi

import (
	"fmt"
	"io"
	"os"

	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/equeue"
	"github.com/go-hdlsim/hdlsim/internal/signal"
	"github.com/go-hdlsim/hdlsim/internal/simtime"
)

// Severity is an assert_fail severity level.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
	Failure
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "Note"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Failure:
		return "Failure"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// FailureAbort is panicked by AssertFail when severity >= Error, so that
// a process-level assertion unwinds to the cycle driver as a normal
// error return (spec §7: "no error is propagated out of process
// callables... there is no retry mechanism") rather than as an os.Exit
// call buried inside the ABI, which would make the kernel untestable.
type FailureAbort struct {
	Code int
}

func (e *FailureAbort) Error() string {
	return fmt.Sprintf("assertion failure: exit %d", e.Code)
}

// Runtime is the live binding of the ABI to one simulation: the queue
// and clock it schedules against, and the ambient active-process slot.
type Runtime struct {
	Queue  *equeue.Queue
	Clock  *simtime.Clock
	Stderr io.Writer

	activeProc *elab.Process
}

// New returns a Runtime writing diagnostics to os.Stderr.
func New(q *equeue.Queue, clock *simtime.Clock) *Runtime {
	return &Runtime{Queue: q, Clock: clock, Stderr: os.Stderr}
}

// SetActiveProcess sets the ambient "current task" slot the cycle driver
// maintains around each process dispatch (spec §4.D, §9).
func (r *Runtime) SetActiveProcess(p *elab.Process) { r.activeProc = p }

// ActiveProcess returns the process currently being dispatched, or nil.
func (r *Runtime) ActiveProcess() *elab.Process { return r.activeProc }

// SchedProcess implements sched_process: the active process wakes at
// now+delay. Per §4.D this lands in the next delta iteration when
// delay == 0, or at delta 0 of a strictly later time otherwise — exactly
// the iteration rule equeue.Insert already applies for delta_abs == 0
// versus > 0.
func (r *Runtime) SchedProcess(delay simtime.T) {
	if r.activeProc == nil {
		panic("abi: sched_process called with no active process")
	}
	r.Queue.Insert(delay, r.Clock.Iteration, equeue.WakeProcess{Proc: r.activeProc})
}

// SchedWaveform implements sched_waveform: schedules a transaction on
// driver sourceIndex of sig for now+after, and enqueues the
// corresponding driver-update event.
func (r *Runtime) SchedWaveform(sig *signal.Signal, sourceIndex int, value signal.Word, after simtime.T) {
	sig.Schedule(sourceIndex, value, r.Clock.Now+after)
	r.Queue.Insert(after, r.Clock.Iteration, equeue.CommitSignal{Sig: sig})
}

// AssertFail implements assert_fail: it writes
// "<time>+<iteration>: <kind> <severity>: <message>" to Stderr and, for
// severity >= Error, aborts the simulation via FailureAbort.
func (r *Runtime) AssertFail(isReport bool, msg string, severity Severity) {
	kind := "Assertion"
	if isReport {
		kind = "Report"
	}
	fmt.Fprintf(r.Stderr, "%s: %s %s: %s\n", r.Clock.String(), kind, severity, msg)
	if severity >= Error {
		panic(&FailureAbort{Code: 1})
	}
}

// StdStandardNow implements std_standard_now.
func (r *Runtime) StdStandardNow() uint64 { return uint64(r.Clock.Now) }
