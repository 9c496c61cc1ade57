// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package gorssi

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

func TestNewAccuracy_Diagonal(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{4, 0, 0, 1})
	acc, err := NewAccuracy(cov, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !floats.EqualApprox(acc.StdDevs, []float64{1, 2}, 1e-12) {
		t.Errorf("std devs = %v, want [1 2]", acc.StdDevs)
	}
	// 2 dof chi-square quantile: -2 ln(1 - p)
	k := math.Sqrt(-2 * math.Log(0.05))
	if !scalar.EqualWithinAbs(acc.Factor, k, 1e-9) {
		t.Errorf("factor = %v, want %v", acc.Factor, k)
	}
	if !scalar.EqualWithinAbs(acc.SmallestMeters(), k, 1e-9) || !scalar.EqualWithinAbs(acc.LargestMeters(), 2*k, 1e-9) {
		t.Errorf("semi-axes = %v", acc.SemiAxes())
	}
	if !scalar.EqualWithinAbs(acc.AverageMeters(), 1.5*k, 1e-9) {
		t.Errorf("average = %v, want %v", acc.AverageMeters(), 1.5*k)
	}
	// Largest axis along x
	if !scalar.EqualWithinAbs(math.Abs(acc.Axes.At(0, 1)), 1, 1e-12) || !scalar.EqualWithinAbs(acc.Axes.At(1, 1), 0, 1e-12) {
		t.Errorf("axes =\n%v", mat.Formatted(acc.Axes))
	}
}

func TestNewAccuracy_Rotated3D(t *testing.T) {
	// Correlated x and y: eigenvalues 0.5, 1.5 and 2 (z)
	cov := mat.NewSymDense(3, []float64{
		1, 0.5, 0,
		0.5, 1, 0,
		0, 0, 2,
	})
	acc, err := NewAccuracy(cov, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{math.Sqrt(0.5), math.Sqrt(1.5), math.Sqrt(2)}
	if !floats.EqualApprox(acc.StdDevs, want, 1e-12) {
		t.Errorf("std devs = %v, want %v", acc.StdDevs, want)
	}
}

func TestNewAccuracy_Errors(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	for _, c := range []float64{0, 1, -0.5, math.NaN()} {
		if _, err := NewAccuracy(cov, c); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("confidence %v: expected ErrInvalidConfig, got %v", c, err)
		}
	}
	neg := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	if _, err := NewAccuracy(neg, 0.95); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}
