// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

// Generation of synthetic readings from the log-distance model, for tests and
// for trying the estimator without measurement data.

package gorssi

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimOpt contains the parameters of a simulated radio source and its readers
type SimOpt struct {
	Source           RadioSource // Emitter identity and frequency
	Emitter          Point       // True emitter position
	PowerDbm         float64     // True transmitted power [dBm]
	PathLossExponent float64     // True path loss exponent
	Readers          []Point     // Reader positions
	NoiseStdDev      float64     // RSSI noise standard deviation [dB]. 0 means noiseless
	WithStdDev       bool        // Attach NoiseStdDev to the readings as their standard deviation
	Seed             uint64      // Seed of the noise generator
}

// NewSimOpt creates SimOpt with default values. Emitter and Readers must be set.
func NewSimOpt() *SimOpt {
	src, _ := NewAccessPoint("00:00:00:00:00:01", WIFI_2G4)
	return &SimOpt{
		Source:           src,                        // 2.4GHz access point
		PowerDbm:         20,                         // Typical Wi-Fi transmitted power [dBm]
		PathLossExponent: DEFAULT_PATH_LOSS_EXPONENT, // Free space
		NoiseStdDev:      0,                          // Noiseless
		WithStdDev:       false,                      // No standard deviation
		Seed:             1,                          // Fixed seed
	}
}

// Simulate generates one reading per reader
func Simulate(opt *SimOpt) ([]Reading, error) {
	if opt.Source == nil || opt.Emitter == nil {
		return nil, fmt.Errorf("%w: simulation needs a source and an emitter position", ErrInvalidConfig)
	}
	if opt.NoiseStdDev < 0 {
		return nil, fmt.Errorf("%w: noise standard deviation must be >= 0, got %v", ErrInvalidConfig, opt.NoiseStdDev)
	}

	noise := distuv.Normal{Mu: 0, Sigma: opt.NoiseStdDev, Src: rand.NewSource(opt.Seed)}
	readings := make([]Reading, 0, len(opt.Readers))
	for i, p := range opt.Readers {
		if p.Dims() != opt.Emitter.Dims() {
			return nil, fmt.Errorf("%w: reader %d has %d dimensions, emitter %d", ErrInvalidConfig, i, p.Dims(), opt.Emitter.Dims())
		}
		rssi, err := PredictRssiDbm(opt.Emitter.Coords(), p.Coords(), opt.PowerDbm, opt.PathLossExponent, opt.Source.Frequency())
		if err != nil {
			return nil, fmt.Errorf("reader %d: %w", i, err)
		}
		if opt.NoiseStdDev > 0 {
			rssi += noise.Rand()
		}

		var r *RssiReading
		if opt.WithStdDev {
			r, err = NewRssiReadingWithStdDev(opt.Source, rssi, p, opt.NoiseStdDev)
		} else {
			r, err = NewRssiReading(opt.Source, rssi, p)
		}
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// GridReaders places n readers per axis on a regular grid of the given spacing [m],
// starting at origin
func GridReaders(origin Point, n int, spacing float64) ([]Point, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: readers per axis must be positive, got %d", ErrInvalidConfig, n)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("%w: invalid grid spacing %v", ErrInvalidConfig, spacing)
	}
	o := origin.Coords()
	total := 1
	for range o {
		total *= n
	}
	pts := make([]Point, 0, total)
	idx := make([]int, len(o))
	for k := 0; k < total; k++ {
		c := make([]float64, len(o))
		for j := range c {
			c[j] = o[j] + float64(idx[j])*spacing
		}
		p, _ := NewPoint(c...)
		pts = append(pts, p)

		// Next grid index
		for j := range idx {
			idx[j]++
			if idx[j] < n {
				break
			}
			idx[j] = 0
		}
	}
	return pts, nil
}

// RandomReaders places n readers uniformly in the box [min, max] on every axis
func RandomReaders(dims, n int, min, max float64, seed uint64) ([]Point, error) {
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("%w: dimensions must be 2 or 3, got %d", ErrInvalidConfig, dims)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of readers must be positive, got %d", ErrInvalidConfig, n)
	}
	if !(max > min) {
		return nil, fmt.Errorf("%w: invalid box [%v, %v]", ErrInvalidConfig, min, max)
	}
	u := distuv.Uniform{Min: min, Max: max, Src: rand.NewSource(seed)}
	pts := make([]Point, n)
	for i := range pts {
		c := make([]float64, dims)
		for j := range c {
			c[j] = u.Rand()
		}
		pts[i], _ = NewPoint(c...)
	}
	return pts, nil
}
