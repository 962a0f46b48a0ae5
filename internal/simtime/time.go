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

// Package simtime implements the kernel's two-level time model: a 64-bit
// femtosecond clock paired with a delta-iteration counter that resets
// whenever the clock advances.
package simtime

import "fmt"

// T is simulated time in femtoseconds.
type T uint64

// Unit divisors, largest first. Format picks the first that divides t
// exactly; fs never fails to divide so the fallback always terminates.
var units = []struct {
	div    T
	suffix string
}{
	{1_000_000_000_000, "ms"},
	{1_000_000_000, "us"},
	{1_000_000, "ns"},
	{1_000, "ps"},
	{1, "fs"},
}

// Format renders t using the largest unit that divides it exactly, e.g.
// 500000 -> "500ps", 3 -> "3fs". Zero renders as "0fs".
func Format(t T) string {
	if t == 0 {
		return "0fs"
	}
	for _, u := range units {
		if t%u.div == 0 {
			return fmt.Sprintf("%d%s", uint64(t/u.div), u.suffix)
		}
	}
	// unreachable: the fs entry always divides
	return fmt.Sprintf("%dfs", uint64(t))
}

// Clock tracks the kernel's current (now, iteration) pair. Iteration is
// -1 from Reset through the initialization phase, 0 on the first delta of
// each new now, and increments for each further delta within the same now.
type Clock struct {
	Now       T
	Iteration int32
}

// Reset puts the clock in its pre-initialization state.
func (c *Clock) Reset() {
	c.Now = 0
	c.Iteration = -1
}

// Advance moves the clock forward by delta (> 0) femtoseconds, resetting
// the iteration counter to 0 per the delta-reset invariant (I2).
func (c *Clock) Advance(delta T) {
	if delta == 0 {
		return
	}
	c.Now += delta
	c.Iteration = 0
}

// String renders the clock as "<fmt-time>+<iteration>", the form used in
// diagnostics (spec §6).
func (c Clock) String() string {
	return fmt.Sprintf("%s+%d", Format(c.Now), c.Iteration)
}

// Less reports whether (a, i) strictly precedes (b, j) in the
// lexicographic (time, iteration) ordering used throughout the kernel.
func Less(aNow T, aIter int32, bNow T, bIter int32) bool {
	if aNow != bNow {
		return aNow < bNow
	}
	return aIter < bIter
}
