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

// Command simrun loads a fixture netlist and drives it through the
// simulation kernel, either to completion or one cohort at a time under
// an interactive terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/go-hdlsim/hdlsim/internal/elab"
	"github.com/go-hdlsim/hdlsim/internal/fixture"
	"github.com/go-hdlsim/hdlsim/internal/kernel"
)

var (
	netlistFile = flag.String("netlist", "", "Fixture netlist to load")
	traceFile   = flag.String("trace", "", "Write cycle trace to file")
	maxCohorts  = flag.Uint64("max-cycles", 0, "Stop after N cohorts (0 = unlimited)")
	step        = flag.Bool("step", false, "Single-step cohorts interactively from the terminal")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

const version = "1.0.0"

var savedTermState *term.State

// setupTerminal puts the terminal in raw mode for single-cohort stepping.
func setupTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	state, err := term.GetState(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to get terminal state: %v", err)
	}
	savedTermState = state

	_, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %v", err)
	}
	return nil
}

func restoreTerminal() {
	if savedTermState != nil && term.IsTerminal(int(os.Stdin.Fd())) {
		term.Restore(int(os.Stdin.Fd()), savedTermState)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("simrun v%s\n", version)
		os.Exit(0)
	}

	if *netlistFile == "" {
		usage()
		os.Exit(1)
	}

	src, err := os.ReadFile(*netlistFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading netlist file: %v\n", err)
		os.Exit(1)
	}

	k := kernel.NewEmpty()
	design, gen, err := fixture.Load(string(src), k.RT)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading netlist: %v\n", err)
		os.Exit(1)
	}

	bound, err := elab.Setup(design, gen, k.RT.StdStandardNow)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error elaborating design: %v\n", err)
		os.Exit(1)
	}
	k.Bind(bound)
	k.MaxCohorts = *maxCohorts

	var traceOut *os.File
	if *traceFile != "" {
		traceOut, err = os.Create(*traceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			os.Exit(1)
		}
		defer traceOut.Close()
		k.Tracer = &fileTracer{out: traceOut}
		fmt.Fprintf(traceOut, "simrun trace\n")
		fmt.Fprintf(traceOut, "Netlist: %s\n", *netlistFile)
		fmt.Fprintf(traceOut, "========================================\n\n")
	}

	startTime := time.Now()
	if *step {
		err = runInteractive(k)
	} else {
		err = k.Run()
	}
	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\n========================================\n")
	fmt.Fprintf(os.Stderr, "Simulation finished\n")
	fmt.Fprintf(os.Stderr, "Final time: %s\n", k.Clock.String())
	fmt.Fprintf(os.Stderr, "Wall time: %v\n", elapsed.Round(time.Millisecond))

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Exit: normal\n")
}

// runInteractive single-steps the kernel one cohort at a time, reading
// a single keypress per cohort from a raw-mode terminal: n advances one
// cohort, r runs to completion, q quits early.
func runInteractive(k *kernel.Kernel) error {
	if err := setupTerminal(); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up terminal: %v\n", err)
		return runFallback(k)
	}
	defer restoreTerminal()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		restoreTerminal()
		os.Exit(130)
	}()

	return k.Step(func() (bool, error) {
		fmt.Fprintf(os.Stderr, "\r[%s] (n)ext (r)un (q)uit > ", k.Clock.String())
		buf := make([]byte, 1)
		if _, err := os.Stdin.Read(buf); err != nil {
			return false, err
		}
		switch buf[0] {
		case 'q', 'Q':
			return false, nil
		case 'r', 'R':
			restoreTerminal()
			return true, kernel.ErrFreeRun
		default:
			return true, nil
		}
	})
}

func runFallback(k *kernel.Kernel) error {
	return k.Run()
}

type fileTracer struct {
	out *os.File
}

func (t *fileTracer) Tracef(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -netlist <file> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "simrun runs a fixture netlist through the simulation kernel.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nUse -step for interactive single-cohort stepping from the terminal.\n")
}
