// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

// Levenberg-Marquardt solver for weighted nonlinear least squares problems.

package gorssi

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// LSProblem is a weighted nonlinear least squares problem
//
//	min_x sum_i w_i (y_i - f_i(x))^2
type LSProblem interface {
	NumObs() int    // Number of observations
	NumParams() int // Number of unknowns
	// Eval returns the residual y_i - f_i(x) and weight w_i of observation i, and
	// stores the derivatives of f_i with respect to x in jac.
	// Errors wrapping ErrSingular mark x as an invalid point.
	Eval(i int, x []float64, jac []float64) (res float64, w float64, err error)
}

// LMOpt contains the options of the Levenberg-Marquardt solver
type LMOpt struct {
	MaxIterations int     // Maximum number of accepted steps
	InitLambda    float64 // Initial damping factor
	LambdaFactor  float64 // Factor applied to lambda on rejected (x) and accepted (/) steps
	MaxLambda     float64 // The solution is final once lambda exceeds this value
	ChiSqTol      float64 // Convergence when the relative chi-square improvement falls below this value
	StepTol       float64 // Convergence when every relative parameter change falls below this value
	MaxCond       float64 // Maximum condition number of the normal matrix at the solution. 0 means no check
}

// NewLMOpt creates LMOpt with default values
func NewLMOpt() *LMOpt {
	return &LMOpt{
		MaxIterations: 200,   // Accepted steps
		InitLambda:    1e-3,  // Damping
		LambdaFactor:  10,    // Damping update
		MaxLambda:     1e16,  // Stall limit
		ChiSqTol:      1e-12, // Relative chi-square improvement
		StepTol:       1e-12, // Relative step
		MaxCond:       1e14,  // Condition number
	}
}

// validate checks the option values
func (opt *LMOpt) validate() error {
	if opt.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, opt.MaxIterations)
	}
	if !(opt.InitLambda > 0) || !(opt.LambdaFactor > 1) || !(opt.MaxLambda > opt.InitLambda) {
		return fmt.Errorf("%w: invalid damping settings (init=%v, factor=%v, max=%v)", ErrInvalidConfig, opt.InitLambda, opt.LambdaFactor, opt.MaxLambda)
	}
	if opt.ChiSqTol < 0 || opt.StepTol < 0 || opt.MaxCond < 0 {
		return fmt.Errorf("%w: tolerances must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// LMSol contains the solution of SolveLM
type LMSol struct {
	X          []float64     // Fitted parameters
	Cov        *mat.SymDense // (G^t W G)^-1 at X
	ChiSq      float64       // Weighted sum of squared residuals at X
	Res        []float64     // Residuals at X
	Iterations int           // Number of accepted steps
}

// linearize evaluates every observation at x and returns the normal equations
func linearize(p LSProblem, x []float64) (*NormalEq, []float64, error) {
	n, nx := p.NumObs(), p.NumParams()
	G := mat.NewDense(n, nx, nil)
	dr := mat.NewVecDense(n, nil)
	w := make([]float64, n)
	row := make([]float64, nx)
	for i := 0; i < n; i++ {
		for j := range row {
			row[j] = 0
		}
		res, wi, err := p.Eval(i, x, row)
		if err != nil {
			return nil, nil, err
		}
		G.SetRow(i, row)
		dr.SetVec(i, res)
		w[i] = wi
	}
	ne, err := NewNormalEq(G, dr, w)
	if err != nil {
		return nil, nil, err
	}
	return ne, dr.RawVector().Data, nil
}

// SolveLM minimizes the problem starting from x0
//
// Returns:
//   - LMSol: fitted parameters, covariance and chi-square
//   - error: wraps ErrSingular if x0 is an invalid point or the normal matrix is
//     singular at the solution, ErrNotConverged if the iteration budget runs out
func SolveLM(p LSProblem, x0 []float64, opt *LMOpt) (*LMSol, error) {
	if opt == nil {
		opt = NewLMOpt()
	}
	if err := opt.validate(); err != nil {
		return nil, err
	}
	n, nx := p.NumObs(), p.NumParams()
	if len(x0) != nx {
		return nil, fmt.Errorf("invalid initial vector length. %d != %d", len(x0), nx)
	}
	if nx == 0 {
		return nil, fmt.Errorf("%w: no unknowns", ErrInvalidConfig)
	}
	if n < nx {
		return nil, fmt.Errorf("%w: not enough observations: %d < %d", ErrInvalidConfig, n, nx)
	}

	x := slices.Clone(x0)
	ne, res, err := linearize(p, x)
	if err != nil {
		return nil, fmt.Errorf("invalid initial point: %w", err)
	}
	PrintMat("A", ne.A)

	lambda := opt.InitLambda
	iter := 0
	converged := false
	for !converged {
		if iter == opt.MaxIterations {
			return nil, fmt.Errorf("%w: %d iterations, chi2=%g", ErrNotConverged, iter, ne.ChiSq)
		}
		if ne.ChiSq == 0 {
			break
		}

		// Increase damping until a step lowers the chi-square
		accepted := false
		for !accepted {
			if lambda > opt.MaxLambda {
				// No step improves the fit any more
				PrintD(2, "lm stalled: iter=%d chi2=%g", iter, ne.ChiSq)
				converged = true
				break
			}
			dx, err := ne.Solve(lambda)
			if err != nil {
				lambda *= opt.LambdaFactor
				continue
			}
			xt := make([]float64, nx)
			for j := range xt {
				xt[j] = x[j] + dx.AtVec(j)
			}
			net, rest, err := linearize(p, xt)
			if errors.Is(err, ErrSingular) {
				lambda *= opt.LambdaFactor
				continue
			}
			if err != nil {
				return nil, err
			}
			if !(net.ChiSq < ne.ChiSq) {
				lambda *= opt.LambdaFactor
				continue
			}

			// Accept step
			accepted = true
			iter++
			improvement := ne.ChiSq - net.ChiSq
			small := isStepConverged(x, dx, opt.StepTol)
			x, ne, res = xt, net, rest
			lambda = math.Max(lambda/opt.LambdaFactor, 1e-300)
			PrintD(2, "lm iter=%d chi2=%g lambda=%g", iter, ne.ChiSq, lambda)
			if improvement <= opt.ChiSqTol*ne.ChiSq || small {
				converged = true
			}
		}
	}

	PrintMat("A", ne.A)
	cov, err := ne.Covariance(opt.MaxCond)
	if err != nil {
		return nil, err
	}
	return &LMSol{X: x, Cov: cov, ChiSq: ne.ChiSq, Res: res, Iterations: iter}, nil
}

// isStepConverged checks if every parameter change is small relative to the parameter
func isStepConverged(x []float64, dx mat.Vector, tol float64) bool {
	for j, v := range x {
		if math.Abs(dx.AtVec(j)) > tol*(math.Abs(v)+tol) {
			return false
		}
	}
	return true
}
