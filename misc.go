// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.2
//

package gorssi

import (
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

// Euclidean distance between two coordinate arrays of the same length
func EucDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += SQ(a[i] - b[i])
	}
	return math.Sqrt(s)
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

// ------------------------------------
// Logging
// ------------------------------------

// Log is the logger of the package. Diagnostics go to stderr so that results
// written to stdout stay clean.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// SetDebugLevel maps the integer debug level of the command line (-d) to a log level.
// 0: info, 1: debug, 2 or more: trace (includes matrix dumps)
func SetDebugLevel(v int) {
	switch {
	case v <= 0:
		Log.SetLevel(logrus.InfoLevel)
	case v == 1:
		Log.SetLevel(logrus.DebugLevel)
	default:
		Log.SetLevel(logrus.TraceLevel)
	}
}

// PrintD logs a formatted message at an integer debug level.
// 1: debug, 2 or more: trace
func PrintD(v int, format string, a ...any) {
	if v <= 1 {
		Log.Debugf(format, a...)
	} else {
		Log.Tracef(format, a...)
	}
}

// PrintMat dumps a matrix at trace level
func PrintMat(name string, X mat.Matrix) {
	if !Log.IsLevelEnabled(logrus.TraceLevel) {
		return
	}
	r, c := X.Dims()
	fa := mat.Formatted(X, mat.Prefix("\t"), mat.Squeeze())
	Log.Tracef("%s (%d x %d)=\n\t%v", name, r, c, fa)
}

// ------------------------------------
// Others
// ------------------------------------

// ChiSqr returns the upper critical value of the chi-square distribution
// with dof degrees of freedom at significance level alpha.
func ChiSqr(dof int, alpha float64) float64 {
	if dof <= 0 {
		return 0
	}
	return distuv.ChiSquared{K: float64(dof)}.Quantile(1 - alpha)
}
