// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.19
//

package gorssi

import "math"

// Power unit conversion. Linear power in this package is expressed in mW,
// so that 0 dBm corresponds to a linear value of 1.0.

func DbmToMilliwatt(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}

func MilliwattToDbm(mw float64) float64 {
	return 10 * math.Log10(mw)
}

func DbmToWatt(dbm float64) float64 {
	return DbmToMilliwatt(dbm) * 1e-3
}

func WattToDbm(w float64) float64 {
	return MilliwattToDbm(w * 1e3)
}

// Variance of a linear power [mW^2] from the variance of the same power in dBm [dB^2] (first order)
func DbmVarianceToMilliwatt(dbm, varDbm float64) float64 {
	d := LN10 / 10 * DbmToMilliwatt(dbm)
	return d * d * varDbm
}
