// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormalEq holds the normal equations of a weighted linearized observation equation
//   - A = G^t W G
//   - b = G^t W dr
//   - ChiSq = dr^t W dr
type NormalEq struct {
	A     *mat.SymDense
	B     *mat.VecDense
	ChiSq float64
}

// NewNormalEq builds the normal equations from the design matrix G, the residual
// vector dr and the diagonal of the weight matrix w
func NewNormalEq(G mat.Matrix, dr mat.Vector, w []float64) (*NormalEq, error) {
	n, m := G.Dims()
	if dr.Len() != n || len(w) != n {
		return nil, fmt.Errorf("invalid matrix size. G(%d x %d), dr(%d x 1), W(%d x %d)", n, m, dr.Len(), len(w), len(w))
	}

	// Scale each row by sqrt(w) so that G^t W G = Gs^t Gs
	Gs := mat.NewDense(n, m, nil)
	drs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(w[i])
		for j := 0; j < m; j++ {
			Gs.Set(i, j, G.At(i, j)*sw)
		}
		drs.SetVec(i, dr.AtVec(i)*sw)
	}

	var A mat.SymDense
	A.SymOuterK(1, Gs.T())
	var b mat.VecDense
	b.MulVec(Gs.T(), drs)

	return &NormalEq{A: &A, B: &b, ChiSq: mat.Dot(drs, drs)}, nil
}

// Solve returns dx = (A + lambda diag(A))^-1 b.
// lambda = 0 gives the plain (Gauss-Newton) weighted least squares step.
func (ne *NormalEq) Solve(lambda float64) (*mat.VecDense, error) {
	n := ne.A.SymmetricDim()
	Ad := mat.NewSymDense(n, nil)
	Ad.CopySym(ne.A)
	for i := 0; i < n; i++ {
		a := ne.A.At(i, i)
		if a == 0 {
			a = 1
		}
		Ad.SetSym(i, i, ne.A.At(i, i)+lambda*a)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(Ad); !ok {
		return nil, fmt.Errorf("%w: normal matrix is not positive definite", ErrSingular)
	}
	var dx mat.VecDense
	if err := chol.SolveVecTo(&dx, ne.B); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &dx, nil
}

// Covariance returns the error covariance matrix A^-1 = (G^t W G)^-1.
// A singular, non positive definite or ill-conditioned A (condition number
// above maxCond) is reported as ErrSingular.
func (ne *NormalEq) Covariance(maxCond float64) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(ne.A); !ok {
		return nil, fmt.Errorf("%w: normal matrix is not positive definite", ErrSingular)
	}
	if cond := chol.Cond(); maxCond > 0 && (cond > maxCond || math.IsInf(cond, 0) || math.IsNaN(cond)) {
		return nil, fmt.Errorf("%w: normal matrix is ill-conditioned (cond=%g)", ErrSingular, cond)
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &cov, nil
}

// SolveLS solves the observation equation using weighted least squares
// - dx = (G^t W G)^-1 G^t W dr
// - Return the error covariance matrix (G^t W G)^-1 as cov
func SolveLS(G mat.Matrix, dr mat.Vector, w []float64) (dx *mat.VecDense, cov *mat.SymDense, err error) {
	ne, err := NewNormalEq(G, dr, w)
	if err != nil {
		return nil, nil, err
	}
	dx, err = ne.Solve(0)
	if err != nil {
		return nil, nil, err
	}
	cov, err = ne.Covariance(0)
	if err != nil {
		return nil, nil, err
	}
	return dx, cov, nil
}
