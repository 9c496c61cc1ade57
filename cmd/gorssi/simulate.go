// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package main

import (
	"fmt"

	m "github.com/mkhts/gorssi"
	"github.com/spf13/cobra"
)

// Structure to hold command line argument information
type simulateOpt struct {
	outFn    string
	srcType  string
	srcID    string
	freq     float64
	emitter  string
	powerDbm float64
	pathLoss float64
	grid     int
	spacing  float64
	origin   string
	random   int
	boxMin   float64
	boxMax   float64
	noise    float64
	withStd  bool
	seed     uint64
}

func newSimulateCmd() *cobra.Command {
	a := simulateOpt{}
	sOpt := m.NewSimOpt()
	cmd := &cobra.Command{
		Use:   "simulate [flags]",
		Short: "Generate synthetic readings of a radio source in the CSV format of estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(a)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&a.outFn, "out", "o", "", "Output file path. If not specified, output to stdout.")
	f.StringVar(&a.srcType, "type", "ap", "Source type. ap(Wi-Fi access point), beacon(BLE beacon)")
	f.StringVar(&a.srcID, "id", "00:00:00:00:00:01", "Source identifier. BSSID, or uuid/major/minor for beacons")
	f.Float64Var(&a.freq, "freq", m.WIFI_2G4, "Carrier frequency [Hz]")
	f.StringVar(&a.emitter, "emitter", "", "True emitter position \"x,y[,z]\" (required). Its dimensions set those of the readers")
	f.Float64Var(&a.powerDbm, "power", sOpt.PowerDbm, "True transmitted power [dBm]")
	f.Float64Var(&a.pathLoss, "n", sOpt.PathLossExponent, "True path loss exponent")
	f.IntVar(&a.grid, "grid", 4, "Number of readers per axis on a regular grid. Ignored with --random")
	f.Float64Var(&a.spacing, "spacing", 2, "Grid spacing [m]")
	f.StringVar(&a.origin, "grid-origin", "", "Grid origin \"x,y[,z]\". Default: grid centered on the emitter")
	f.IntVar(&a.random, "random", 0, "Number of readers placed uniformly at random in [box-min, box-max]")
	f.Float64Var(&a.boxMin, "box-min", -10, "Lower bound of random reader coordinates [m]")
	f.Float64Var(&a.boxMax, "box-max", 10, "Upper bound of random reader coordinates [m]")
	f.Float64Var(&a.noise, "noise", sOpt.NoiseStdDev, "RSSI noise standard deviation [dB]")
	f.BoolVar(&a.withStd, "with-std", sOpt.WithStdDev, "Write the noise standard deviation to the readings")
	f.Uint64Var(&a.seed, "seed", sOpt.Seed, "Seed of the random generators")
	_ = cmd.MarkFlagRequired("emitter")
	return cmd
}

// Main simulation processing
func runSimulate(a simulateOpt) error {

	emitter, err := m.ParsePoint(a.emitter)
	if err != nil {
		return fmt.Errorf("invalid emitter: %w", err)
	}
	typ, err := m.ParseSourceType(a.srcType)
	if err != nil {
		return err
	}
	src, err := m.NewSource(typ, a.srcID, a.freq)
	if err != nil {
		return err
	}

	// Reader positions
	readers, err := simulateReaders(a, emitter)
	if err != nil {
		return err
	}

	sOpt := m.NewSimOpt()
	sOpt.Source = src
	sOpt.Emitter = emitter
	sOpt.PowerDbm = a.powerDbm
	sOpt.PathLossExponent = a.pathLoss
	sOpt.Readers = readers
	sOpt.NoiseStdDev = a.noise
	sOpt.WithStdDev = a.withStd
	sOpt.Seed = a.seed
	readings, err := m.Simulate(sOpt)
	if err != nil {
		return err
	}
	m.PrintD(1, "%d readings simulated", len(readings))

	out, err := prepareOutput(a.outFn)
	if err != nil {
		return err
	}
	defer out.Close()
	return m.WriteReadingsCSV(out, readings)
}

// Reader positions on a grid or at random
func simulateReaders(a simulateOpt, emitter m.Point) ([]m.Point, error) {
	if a.random > 0 {
		return m.RandomReaders(emitter.Dims(), a.random, a.boxMin, a.boxMax, a.seed)
	}
	if a.grid < 2 {
		return nil, fmt.Errorf("grid needs at least 2 readers per axis, got %d", a.grid)
	}

	var origin m.Point
	if a.origin != "" {
		o, err := m.ParsePoint(a.origin)
		if err != nil {
			return nil, fmt.Errorf("invalid grid origin: %w", err)
		}
		if o.Dims() != emitter.Dims() {
			return nil, fmt.Errorf("grid origin has %d dimensions, emitter %d", o.Dims(), emitter.Dims())
		}
		origin = o
	} else {
		// Center the grid on the emitter, shifted by a quarter spacing so that no reader sits on it
		half := float64(a.grid-1) * a.spacing / 2
		c := emitter.Coords()
		for j := range c {
			c[j] -= half - a.spacing/4
		}
		o, err := m.NewPoint(c...)
		if err != nil {
			return nil, err
		}
		origin = o
	}
	return m.GridReaders(origin, a.grid, a.spacing)
}
