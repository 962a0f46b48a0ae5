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

// Package signal implements the per-signal, per-driver waveform store
// (component B): the current resolved value, the ACTIVE/EVENT flags, and
// one ordered transaction list per driver.
package signal

import "github.com/go-hdlsim/hdlsim/internal/simtime"

// Word is the kernel's opaque 64-bit signal value. The kernel never
// interprets its bits; equality for EVENT detection is bitwise.
type Word uint64

// Flags bits set on a Signal during the cycle it was last touched.
type Flags uint8

const (
	// Active marks a signal as committed (driven) this cycle, whether or
	// not its value changed.
	Active Flags = 1 << iota
	// Event marks a signal whose committed value differs from the value
	// it held going into this cycle.
	Event
)

// Waveform is one scheduled transaction on a driver's list, ordered by
// non-decreasing When. The head of a driver's list is always the
// already-committed transaction (invariant W1).
type Waveform struct {
	Value Word
	When  simtime.T
	next  *Waveform
}

// Signal is one elaborated signal with D drivers.
type Signal struct {
	DeclID   int    // back-reference into the elaborated tree
	Name     string // for diagnostics only
	Resolved Word
	Flags    Flags
	sources  []*Waveform // one committed-head pointer per driver
}

// New allocates a signal with drivers driver lists, all nil until
// InitDriver is called for each one during setup.
func New(declID int, name string, drivers int) *Signal {
	return &Signal{
		DeclID:  declID,
		Name:    name,
		sources: make([]*Waveform, drivers),
	}
}

// Drivers returns the number of drivers this signal has.
func (s *Signal) Drivers() int { return len(s.sources) }

// InitDriver installs the dummy head required by invariant W2: a driver
// initialized at (now=0, after=0, value=v) gets a committed head carrying
// (v, 0) and a successor also carrying (v, 0), so the real transaction is
// processed uniformly as "the successor of the head" on the first cycle.
func (s *Signal) InitDriver(i int, v Word) {
	dummy := &Waveform{Value: v, When: 0}
	real := &Waveform{Value: v, When: 0}
	dummy.next = real
	s.sources[i] = dummy
	s.Resolved = v
}

// Schedule inserts a new transaction (value, when) at the tail of driver
// i's list. Transport delay only: existing pending transactions are
// never pre-empted, so insertion is an append, not a sorted insert — the
// caller (the runtime ABI) only ever schedules with non-decreasing When
// per driver because `after >= 0` and now is monotone. Schedule still
// checks the ordering and panics (kernel invariant violation) if it is
// ever asked to go backwards, per the transport-only contract in
// SPEC_FULL §12.
func (s *Signal) Schedule(i int, v Word, when simtime.T) {
	head := s.sources[i]
	if head == nil {
		panic("signal: Schedule on uninitialized driver")
	}
	tail := head
	for tail.next != nil {
		tail = tail.next
	}
	if when < tail.When {
		panic("signal: transport delay violated, transaction scheduled before tail")
	}
	tail.next = &Waveform{Value: v, When: when}
}

// Head returns driver i's committed (current) transaction.
func (s *Signal) Head(i int) *Waveform { return s.sources[i] }

// pending returns the Waveform that would supersede the committed head,
// if any.
func (s *Signal) pending(i int) *Waveform {
	head := s.sources[i]
	if head == nil {
		return nil
	}
	return head.next
}
