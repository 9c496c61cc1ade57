// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package gorssi

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rosenbrock is the Rosenbrock function as a least squares problem:
// f0 = 10 (x1 - x0^2) observed as 0, f1 = x0 observed as 1
type rosenbrock struct{}

func (rosenbrock) NumObs() int    { return 2 }
func (rosenbrock) NumParams() int { return 2 }

func (rosenbrock) Eval(i int, x []float64, jac []float64) (float64, float64, error) {
	switch i {
	case 0:
		jac[0], jac[1] = -20*x[0], 10
		return -10 * (x[1] - x[0]*x[0]), 1, nil
	default:
		jac[0], jac[1] = 1, 0
		return 1 - x[0], 1, nil
	}
}

func TestSolveLM_Rosenbrock(t *testing.T) {
	sol, err := SolveLM(rosenbrock{}, []float64{-1.2, 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !floats.EqualApprox(sol.X, []float64{1, 1}, 1e-6) {
		t.Fatalf("x = %v, want [1 1]", sol.X)
	}
	if sol.ChiSq > 1e-12 {
		t.Errorf("chi2 = %v, want ~0", sol.ChiSq)
	}
	if sol.Iterations == 0 {
		t.Errorf("no iterations recorded")
	}

	// (J^t J)^-1 at the minimum
	want := mat.NewSymDense(2, []float64{1, 2, 2, 4.01})
	if !mat.EqualApprox(sol.Cov, want, 1e-4) {
		t.Errorf("cov =\n%v\nwant\n%v", mat.Formatted(sol.Cov), mat.Formatted(want))
	}
}

func TestSolveLM_IterationBudget(t *testing.T) {
	opt := NewLMOpt()
	opt.MaxIterations = 1
	if _, err := SolveLM(rosenbrock{}, []float64{-1.2, 1}, opt); !errors.Is(err, ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
}

func TestSolveLM_InvalidOptions(t *testing.T) {
	opt := NewLMOpt()
	opt.LambdaFactor = 1
	if _, err := SolveLM(rosenbrock{}, []float64{0, 0}, opt); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := SolveLM(rosenbrock{}, []float64{0}, nil); err == nil {
		t.Fatalf("expected an error for a wrong initial vector")
	}
}

// badStart reports every point as invalid
type badStart struct{ rosenbrock }

func (badStart) Eval(i int, x []float64, jac []float64) (float64, float64, error) {
	return 0, 0, ErrSingular
}

func TestSolveLM_InvalidInitialPoint(t *testing.T) {
	if _, err := SolveLM(badStart{}, []float64{0, 0}, nil); !errors.Is(err, ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}
