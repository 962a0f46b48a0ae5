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

package signal

import "github.com/go-hdlsim/hdlsim/internal/simtime"

// pathologicalActiveSetSize is a sanity bound on the active-signal set,
// per SPEC_FULL §9: a rewrite uses a growable container and asserts only
// on sizes that indicate a bug (e.g. a signal pushed every cycle without
// ever being cleared), not a fixed capacity.
const pathologicalActiveSetSize = 1 << 24

// Store owns the active-signal set used to clear ACTIVE/EVENT flags at
// the end of every cycle (invariant AS1). It does not own the signals
// themselves — those are arena-allocated once at setup and referenced by
// pointer from the event queue and from elab.Bound.
type Store struct {
	active []*Signal
}

// NewStore returns an empty active-signal set.
func NewStore() *Store {
	return &Store{active: make([]*Signal, 0, 128)}
}

// Commit implements rt_update_driver (spec §4.B) for every driver of
// sig: it promotes every pending transaction on each driver's list that
// has come due (When <= now), updates Resolved to the last one
// promoted, and — subject to the first-cycle rule — sets flags and
// records sig in the active-signal set. It reports whether anything was
// committed, purely for diagnostics/tracing.
//
// A single driver can have more than one promotion due in one call: the
// W2 dummy/successor pair installed at elaboration time only gets its
// own queue event when a process happens to schedule that driver's
// first real transaction at now=0; a driver whose first real transaction
// lands at some later time (spec §8 scenario 3's timed pulse) leaves
// that pair unpromoted until the first CommitSignal for the driver
// actually fires, at which point both the stale pair and the due
// transaction(s) must be consumed together so that Resolved reflects
// the correct value and no stale waveform lingers past its own time.
func (st *Store) Commit(sig *Signal, now simtime.T, iteration int32) bool {
	prev := sig.Resolved
	committed := false

	for i := range sig.sources {
		for {
			next := sig.pending(i)
			if next == nil || next.When > now {
				break
			}
			sig.sources[i] = next
			sig.Resolved = next.Value
			committed = true
		}
	}
	if !committed {
		return false
	}

	// First-cycle rule: the initial value is not an event.
	if iteration == 0 && now == 0 {
		return true
	}

	alreadyActive := sig.Flags&Active != 0
	sig.Flags |= Active
	if sig.Resolved != prev {
		sig.Flags |= Event
	}
	if !alreadyActive {
		st.active = append(st.active, sig)
		if len(st.active) > pathologicalActiveSetSize {
			panic("signal: active-signal set grew past sanity bound")
		}
	}
	return true
}

// ClearActive clears ACTIVE/EVENT on every signal touched this cycle and
// empties the set, restoring invariant AS1.
func (st *Store) ClearActive() {
	for _, sig := range st.active {
		sig.Flags = 0
	}
	st.active = st.active[:0]
}

// ActiveCount reports the current size of the active-signal set, for
// tests and tracing.
func (st *Store) ActiveCount() int { return len(st.active) }
