// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package gorssi

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestPowerConversion(t *testing.T) {
	cases := []struct {
		dbm, mw float64
	}{
		{0, 1},
		{10, 10},
		{20, 100},
		{-30, 1e-3},
		{3, 1.9952623149688795},
	}
	for _, c := range cases {
		if got := DbmToMilliwatt(c.dbm); !scalar.EqualWithinRel(got, c.mw, 1e-12) {
			t.Errorf("DbmToMilliwatt(%v) = %v, want %v", c.dbm, got, c.mw)
		}
		if got := MilliwattToDbm(c.mw); !scalar.EqualWithinAbs(got, c.dbm, 1e-12) {
			t.Errorf("MilliwattToDbm(%v) = %v, want %v", c.mw, got, c.dbm)
		}
	}
	if got := DbmToWatt(30); !scalar.EqualWithinRel(got, 1, 1e-12) {
		t.Errorf("DbmToWatt(30) = %v, want 1", got)
	}
	if got := WattToDbm(1e-3); !scalar.EqualWithinAbs(got, 0, 1e-12) {
		t.Errorf("WattToDbm(1e-3) = %v, want 0", got)
	}
}

func TestDbmVarianceToMilliwatt(t *testing.T) {
	// Compare with the finite difference of the conversion
	const dbm, v, h = 7.0, 0.25, 1e-6
	d := (DbmToMilliwatt(dbm+h) - DbmToMilliwatt(dbm-h)) / (2 * h)
	want := d * d * v
	if got := DbmVarianceToMilliwatt(dbm, v); !scalar.EqualWithinRel(got, want, 1e-6) {
		t.Errorf("variance = %v, want %v", got, want)
	}
	if DbmVarianceToMilliwatt(dbm, 0) != 0 {
		t.Errorf("zero variance must stay zero")
	}
	if math.IsNaN(DbmVarianceToMilliwatt(-100, 1)) {
		t.Errorf("unexpected NaN")
	}
}
