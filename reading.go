// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.26
//

package gorssi

import (
	"fmt"
	"math"
)

// Reading is an RSSI measurement of a radio source taken by a reader at a known position.
type Reading interface {
	Source() RadioSource
	Position() Point             // Reader position
	RssiDbm() float64            // Received signal strength [dBm]
	RssiStdDev() (float64, bool) // Standard deviation of the RSSI [dB], if known
}

// RssiReading is the immutable Reading implementation of the package
type RssiReading struct {
	source    RadioSource
	position  Point
	rssi      float64
	stdDev    float64
	hasStdDev bool
}

// NewRssiReading creates a reading without a known standard deviation
func NewRssiReading(src RadioSource, rssi float64, pos Point) (*RssiReading, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: reading without radio source", ErrInvalidConfig)
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: reading without position", ErrInvalidConfig)
	}
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		return nil, fmt.Errorf("%w: non finite rssi %v", ErrInvalidConfig, rssi)
	}
	return &RssiReading{source: src, position: pos, rssi: rssi}, nil
}

// NewRssiReadingWithStdDev creates a reading whose RSSI standard deviation [dB] is known
func NewRssiReadingWithStdDev(src RadioSource, rssi float64, pos Point, stdDev float64) (*RssiReading, error) {
	if !(stdDev >= 0) || math.IsInf(stdDev, 0) {
		return nil, fmt.Errorf("%w: rssi standard deviation must be >= 0, got %v", ErrInvalidConfig, stdDev)
	}
	r, err := NewRssiReading(src, rssi, pos)
	if err != nil {
		return nil, err
	}
	r.stdDev = stdDev
	r.hasStdDev = true
	return r, nil
}

func (r *RssiReading) Source() RadioSource { return r.source }
func (r *RssiReading) Position() Point     { return r.position }
func (r *RssiReading) RssiDbm() float64    { return r.rssi }

func (r *RssiReading) RssiStdDev() (float64, bool) {
	return r.stdDev, r.hasStdDev
}

func (r *RssiReading) String() string {
	if r.hasStdDev {
		return fmt.Sprintf("%s rssi=%.2f±%.2f pos=%v", r.source.ID(), r.rssi, r.stdDev, r.position)
	}
	return fmt.Sprintf("%s rssi=%.2f pos=%v", r.source.ID(), r.rssi, r.position)
}

// readingWeight returns the least squares weight of a reading
func readingWeight(r Reading) float64 {
	std, ok := r.RssiStdDev()
	if !ok {
		return 1.0
	}
	return 1.0 / SQ(math.Max(std, MIN_RSSI_STD_DEV))
}

// validateReading checks a reading against the estimator dimensions
func validateReading(r Reading, dims int) error {
	if r == nil {
		return fmt.Errorf("%w: nil reading", ErrInvalidConfig)
	}
	src := r.Source()
	if src == nil {
		return fmt.Errorf("%w: reading without radio source", ErrInvalidConfig)
	}
	if !(src.Frequency() > 0) {
		return fmt.Errorf("%w: %s: frequency must be positive, got %v", ErrInvalidConfig, src.ID(), src.Frequency())
	}
	pos := r.Position()
	if pos == nil {
		return fmt.Errorf("%w: %s: reading without position", ErrInvalidConfig, src.ID())
	}
	if pos.Dims() != dims {
		return fmt.Errorf("%w: %s: reading position has %d dimensions, estimator has %d", ErrInvalidConfig, src.ID(), pos.Dims(), dims)
	}
	rssi := r.RssiDbm()
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		return fmt.Errorf("%w: %s: non finite rssi %v", ErrInvalidConfig, src.ID(), rssi)
	}
	return nil
}
