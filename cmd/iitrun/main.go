// Copyright 2025 The go-phi Authors. SPDX-License-Identifier: Apache-2.0

// Command iitrun is the CLI driver for the IIT 3.0 engine: it parses a
// .sif network definition, builds its TPM, searches for the complex that
// maximises big-phi at an observed state, and reports the result.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittoku/go-phi/bitutil"
	"github.com/kittoku/go-phi/sif"
	"github.com/kittoku/go-phi/system"
	"github.com/kittoku/go-phi/tpm"
	"github.com/kittoku/go-phi/workerpool"
)

// Exit codes per SPEC_FULL.md §6: 0 success, 2 parse error, 3 runtime
// failure.
const (
	exitOK         = 0
	exitParseError = 2
	exitRuntime    = 3
)

func main() {
	root := newRunCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitRuntime)
	}
}

func newRunCmd() *cobra.Command {
	var threads int
	var enableLog bool

	cmd := &cobra.Command{
		Use:          "run <sif-path> <state-bits>",
		Short:        "Find the complex (maximal big-phi subsystem) of a network",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplex(cmd, args[0], args[1], threads, enableLog)
		},
	}
	cmd.Flags().IntVar(&threads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&enableLog, "log", false, "emit per-subset progress lines")
	return cmd
}

func runComplex(cmd *cobra.Command, sifPath, stateArg string, threads int, enableLog bool) error {
	f, err := os.Open(sifPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iitrun: %v\n", err)
		os.Exit(exitParseError)
	}
	defer f.Close()

	net, err := sif.Parse(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "iitrun: %v\n", err)
		os.Exit(exitParseError)
	}

	state, err := parseState(stateArg, net.N())
	if err != nil {
		fmt.Fprintf(os.Stderr, "iitrun: %v\n", err)
		os.Exit(exitParseError)
	}

	pool := workerpool.New(threads)
	defer pool.Close()

	full, err := tpm.Build(pool, net.Fns, net.Masks)
	if err != nil {
		return fmt.Errorf("iitrun: building TPM: %w", err)
	}

	var onProgress func(system.Progress)
	if enableLog {
		logger := log.New(os.Stderr, "", 0)
		start := time.Now()
		onProgress = func(p system.Progress) {
			logger.Printf("PROGRESS=%d/%d, CANDIDATE=%v, BIG_PHI=%v, TIME=%s",
				p.Done, p.Total, p.Elements, p.BigPhi, time.Since(start))
		}
	}

	best := system.SearchComplex(pool, state, full, net.N(), onProgress)

	names := make([]string, len(best.Elements))
	for i, idx := range best.Elements {
		names[i] = net.Elements[idx]
	}
	fmt.Fprintf(cmd.OutOrStdout(), "complex=%v big_phi=%v\n", names, best.Constellation.MIP.Phi)
	return nil
}

// parseState reads a state-bits argument: a 0b-prefixed base-2 literal
// whose bit i is 1 iff element i is ON, or otherwise a decimal integer
// (an unprefixed "101" is read as decimal 101).
func parseState(arg string, n int) (uint64, error) {
	if n > bitutil.MaxElements {
		return 0, fmt.Errorf("network has %d elements, exceeds the %d-bit word limit", n, bitutil.MaxElements)
	}
	var state uint64
	_, err := fmt.Sscanf(arg, "0b%b", &state)
	if err != nil {
		if _, err2 := fmt.Sscanf(arg, "%d", &state); err2 != nil {
			return 0, fmt.Errorf("invalid state %q: %w", arg, err2)
		}
	}
	limit := uint64(1) << uint(n)
	if state >= limit {
		return 0, fmt.Errorf("state %d does not fit in %d elements", state, n)
	}
	return state, nil
}
