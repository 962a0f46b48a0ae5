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

// Package equeue implements the delta queue (component C): a singly
// linked list of scheduled events, sorted by absolute time but storing
// that time as cumulative relative offsets, so that advancing time is
// "subtract from head" in O(1).
package equeue

import "github.com/go-hdlsim/hdlsim/internal/simtime"

// Payload is the tagged event payload: exactly one of WakeProcess or
// CommitSignal ever occupies a node (spec §9 "tagged queue payload").
type Payload interface {
	isPayload()
}

type node struct {
	deltaToPrev simtime.T
	iteration   int32
	payload     Payload
	next        *node
}

// Queue is the delta queue. The zero value is an empty queue.
type Queue struct {
	head *node
}

// Empty reports whether the queue has no pending events.
func (q *Queue) Empty() bool { return q.head == nil }

// HeadDelta returns the current head's absolute offset from now. It is
// zero for every node sharing the current (now, iteration) cohort.
func (q *Queue) HeadDelta() simtime.T {
	if q.head == nil {
		return 0
	}
	return q.head.deltaToPrev
}

// HeadIteration returns the current head's iteration field.
func (q *Queue) HeadIteration() int32 {
	if q.head == nil {
		return 0
	}
	return q.head.iteration
}

// ConsumeHeadDelta zeroes the head's delta_to_prev and returns the
// amount consumed, implementing the time-advance step of the cycle
// driver (spec §4.F step 1): "now += head.delta_to_prev; head.delta_to_prev
// = 0".
func (q *Queue) ConsumeHeadDelta() simtime.T {
	if q.head == nil {
		return 0
	}
	d := q.head.deltaToPrev
	q.head.deltaToPrev = 0
	return d
}

// Pop removes and returns the head's payload.
func (q *Queue) Pop() (Payload, bool) {
	if q.head == nil {
		return nil, false
	}
	n := q.head
	q.head = n.next
	return n.payload, true
}

// Insert schedules payload at delta_abs femtoseconds from now, per spec
// §4.C. currentIteration is the kernel's iteration counter at the time
// of the call (used only when delta_abs == 0, to land the new node in
// the next delta iteration rather than the current one). Ties at equal
// absolute time are appended after any existing nodes at that time,
// giving stable queue-insertion-order dispatch within a cohort.
func (q *Queue) Insert(deltaAbs simtime.T, currentIteration int32, payload Payload) {
	iter := int32(0)
	if deltaAbs == 0 {
		iter = currentIteration + 1
	}
	n := &node{iteration: iter, payload: payload}

	var prev *node
	cur := q.head
	var prefix simtime.T
	for cur != nil && prefix+cur.deltaToPrev <= deltaAbs {
		prefix += cur.deltaToPrev
		prev = cur
		cur = cur.next
	}

	residual := deltaAbs - prefix
	n.deltaToPrev = residual
	if cur != nil {
		cur.deltaToPrev -= residual
	}
	n.next = cur

	if prev != nil {
		prev.next = n
	} else {
		q.head = n
	}
}
