// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package main

import (
	"fmt"
	"io"
	"os"

	m "github.com/mkhts/gorssi"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var dbg int
	root := &cobra.Command{
		Use:           "gorssi",
		Short:         "Estimate position, transmitted power and path loss exponent of a radio source from RSSI readings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			m.SetDebugLevel(dbg)
		},
	}
	root.PersistentFlags().IntVarP(&dbg, "debug", "d", 0, "Debug output level. 0(none), 1(steps), 2(iterations and matrices)")
	root.AddCommand(newEstimateCmd(), newSimulateCmd())
	return root
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Prepare output file. Use stdout if no output file is specified
func prepareOutput(fn string) (io.WriteCloser, error) {
	if len(fn) == 0 || fn == "-" {
		return &nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Open input file. Use stdin for "-"
func openInput(fn string) (io.ReadCloser, error) {
	if fn == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return f, nil
}
