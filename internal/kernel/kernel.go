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

// Package kernel implements the cycle driver (component F): the
// initialization phase and the repeated simulation cycle that drains the
// delta queue, dispatches process wakeups and driver commits, and
// maintains the active-signal set.
package kernel

import (
	"fmt"

	"github.com/go-hdlsim/hdlsim/internal/abi"
	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/equeue"
	"github.com/go-hdlsim/hdlsim/internal/signal"
	"github.com/go-hdlsim/hdlsim/internal/simtime"
)

// Tracer receives kernel trace lines when tracing is enabled. The
// default Kernel has a nil Tracer, matching the teacher's pattern of a
// nil-checked *Tracer field rather than a log-level framework.
type Tracer interface {
	Tracef(format string, args ...any)
}

// Kernel ties together the time model, signal store, delta queue, and
// runtime ABI around one bound design.
type Kernel struct {
	Clock simtime.Clock
	Queue equeue.Queue
	Store *signal.Store
	RT    *abi.Runtime
	Bound *elab.Bound

	Tracer Tracer

	// MaxCohorts optionally bounds the number of (now, iteration)
	// cohorts drained before Run gives up and returns an error. Zero
	// means unlimited. This is the "external max-time cap" spec §5
	// allows as a cycle-loop predicate outside the core contract; it
	// exists so tests of non-terminating designs (spec §8 scenario 2,
	// the delta oscillator) can bound themselves.
	MaxCohorts uint64

	cohorts uint64
}

// New builds a Kernel around an already-bound design (component E's
// output). The signal store starts empty; it is populated as driver
// commits happen.
func New(bound *elab.Bound) *Kernel {
	k := NewEmpty()
	k.Bound = bound
	return k
}

// NewEmpty builds a Kernel with a ready runtime ABI but no bound design
// yet. It exists for callers — like fixture.Load — whose process
// closures must capture the Runtime before Setup can resolve them into
// a Bound; call Bind once Setup returns.
func NewEmpty() *Kernel {
	k := &Kernel{Store: signal.NewStore()}
	k.RT = abi.New(&k.Queue, &k.Clock)
	return k
}

// Bind attaches a Bound design produced by elab.Setup.
func (k *Kernel) Bind(bound *elab.Bound) { k.Bound = bound }

func (k *Kernel) tracef(format string, args ...any) {
	if k.Tracer != nil {
		k.Tracer.Tracef(format, args...)
	}
}

// Run executes the initialization phase followed by the cycle loop
// until the queue drains (spec §4.F), or MaxCohorts is reached, or a
// process assertion aborts the simulation. It returns nil on clean
// termination, the *abi.FailureAbort on an Error/Failure severity
// assertion, and re-panics on any other panic (a kernel invariant
// violation — a bug, not a user-level failure per spec §7).
func (k *Kernel) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fa, ok := r.(*abi.FailureAbort); ok {
				err = fa
				return
			}
			panic(r)
		}
	}()

	k.init()
	for !k.Queue.Empty() {
		if k.MaxCohorts != 0 && k.cohorts >= k.MaxCohorts {
			return fmt.Errorf("kernel: exceeded MaxCohorts (%d) without draining the queue", k.MaxCohorts)
		}
		k.runCohort()
		k.cohorts++
	}
	return nil
}

// init runs the initialization phase (spec §4.F): now=0, iteration=-1,
// every process invoked once with reset=true.
func (k *Kernel) init() {
	k.Clock.Reset()
	for _, p := range k.Bound.Processes {
		k.tracef("TRACE (init): dispatching %s", p.Decl.Name)
		k.RT.SetActiveProcess(p)
		p.Fn(true)
		k.RT.SetActiveProcess(nil)
	}
}

// runCohort advances time to the queue head, drains every event sharing
// that (now, iteration), and clears the active-signal set.
func (k *Kernel) runCohort() {
	if d := k.Queue.HeadDelta(); d > 0 {
		k.Clock.Advance(d)
		k.Queue.ConsumeHeadDelta()
	} else {
		k.Clock.Iteration = k.Queue.HeadIteration()
	}

	for {
		payload, ok := k.Queue.Pop()
		if !ok {
			break
		}
		k.dispatch(payload)
		if k.Queue.Empty() {
			break
		}
		if k.Queue.HeadDelta() != 0 || k.Queue.HeadIteration() != k.Clock.Iteration {
			break
		}
	}

	k.Store.ClearActive()
}

// Step drives the kernel one cohort at a time, calling before for each
// cohort that remains. before returns whether to proceed (false stops
// the run cleanly) and an error; a non-nil error other than the
// free-running sentinel aborts the run, while returning the sentinel
// switches Step into running every remaining cohort without calling
// before again, which is how cmd/simrun implements its interactive
// "run to completion" key.
func (k *Kernel) Step(before func() (bool, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if fa, ok := r.(*abi.FailureAbort); ok {
				err = fa
				return
			}
			panic(r)
		}
	}()

	k.init()
	freeRunning := false
	for !k.Queue.Empty() {
		if k.MaxCohorts != 0 && k.cohorts >= k.MaxCohorts {
			return fmt.Errorf("kernel: exceeded MaxCohorts (%d) without draining the queue", k.MaxCohorts)
		}
		if !freeRunning {
			cont, stepErr := before()
			if stepErr != nil {
				if stepErr == ErrFreeRun {
					freeRunning = true
				} else {
					return stepErr
				}
			}
			if !cont {
				return nil
			}
		}
		k.runCohort()
		k.cohorts++
	}
	return nil
}

// ErrFreeRun is the sentinel a Step callback can return to switch the
// remainder of the run into free-running mode.
var ErrFreeRun = fmt.Errorf("kernel: switch to free-running mode")

func (k *Kernel) dispatch(payload equeue.Payload) {
	switch p := payload.(type) {
	case equeue.WakeProcess:
		k.tracef("TRACE %s: dispatching %s", k.Clock, p.Proc.Decl.Name)
		k.RT.SetActiveProcess(p.Proc)
		p.Proc.Fn(false)
		k.RT.SetActiveProcess(nil)
	case equeue.CommitSignal:
		changed := k.Store.Commit(p.Sig, k.Clock.Now, k.Clock.Iteration)
		if changed {
			k.tracef("TRACE %s: committed %s = %#x", k.Clock, p.Sig.Name, p.Sig.Resolved)
		}
	default:
		panic(fmt.Sprintf("kernel: unknown queue payload %T", payload))
	}
}
