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

package equeue

import (
	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/signal"
)

// WakeProcess is a process-wakeup payload: the cycle driver invokes
// Proc.Fn(false) when this node is dispatched.
type WakeProcess struct {
	Proc *elab.Process
}

func (WakeProcess) isPayload() {}

// CommitSignal is a driver-update payload: the cycle driver runs
// rt_update_driver (signal.Store.Commit) on Sig when this node is
// dispatched. Exactly one of WakeProcess or CommitSignal ever occupies a
// node — isPayload is unexported so no other package can construct a
// third kind.
type CommitSignal struct {
	Sig *signal.Signal
}

func (CommitSignal) isPayload() {}
