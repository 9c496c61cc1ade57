// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	m "github.com/mkhts/gorssi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Structure to hold command line argument information
type estimateOpt struct {
	outFn       string
	dims        int
	llh         bool
	origin      m.PosLLH
	noPosition  bool
	noPower     bool
	pathLoss    bool
	initPos     string
	initPower   float64
	initN       float64
	maxIter     int
	confidence  float64
	alpha       float64
	dumpMetrics bool
}

func newEstimateCmd() *cobra.Command {
	a := estimateOpt{}
	lmOpt := m.NewLMOpt()
	cmd := &cobra.Command{
		Use:   "estimate [flags] readings.csv",
		Short: "Fit the log-distance model to located RSSI readings (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, args[0], a)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&a.outFn, "out", "o", "", "Output file path. If not specified, output to stdout.")
	f.IntVar(&a.dims, "dims", 2, "Dimensions of positions, 2 or 3")
	f.BoolVar(&a.llh, "llh", false, "Reader coordinates are latitude [deg], longitude [deg], ellipsoidal height [m]")
	f.Var(&a.origin, "origin", "Origin of the local frame in LLH mode like --origin \"35.73101206 139.7396917 80.33\". Default: first reading")
	f.BoolVar(&a.noPosition, "no-position", false, "Do not estimate the position (requires --init-pos)")
	f.BoolVar(&a.noPower, "no-power", false, "Do not estimate the transmitted power")
	f.BoolVar(&a.pathLoss, "pathloss", false, "Estimate the path loss exponent")
	f.StringVar(&a.initPos, "init-pos", "", "Initial emitter position \"x,y[,z]\" in the local frame. Default: centroid of readers")
	f.Float64Var(&a.initPower, "init-power", m.DEFAULT_POWER_DBM, "Initial transmitted power [dBm]")
	f.Float64Var(&a.initN, "init-n", m.DEFAULT_PATH_LOSS_EXPONENT, "Initial (or fixed) path loss exponent")
	f.IntVar(&a.maxIter, "max-iter", lmOpt.MaxIterations, "Maximum number of solver iterations")
	f.Float64Var(&a.confidence, "confidence", 0.95, "Confidence level of the reported position accuracy")
	f.Float64Var(&a.alpha, "alpha", 0.001, "Significance level of the chi-square test")
	f.BoolVar(&a.dumpMetrics, "metrics", false, "Print estimation metrics in Prometheus text format to stderr")
	return cmd
}

// Main estimation processing
func runEstimate(cmd *cobra.Command, fn string, a estimateOpt) error {

	// Load readings
	csvOpt := m.NewCsvOpt()
	csvOpt.Dims = a.dims
	csvOpt.LLH = a.llh
	if cmd.Flags().Changed("origin") {
		csvOpt.Origin = &a.origin
	}
	readings, origin, err := loadReadings(fn, csvOpt)
	if err != nil {
		return err
	}
	m.PrintD(1, "%d readings loaded from %s", len(readings), fn)

	// Configure estimator
	est, err := m.NewEstimator(a.dims)
	if err != nil {
		return err
	}
	if err := configureEstimator(cmd, est, a); err != nil {
		return err
	}
	if err := est.SetReadings(readings); err != nil {
		return fmt.Errorf("failed to set readings: %w", err)
	}

	// Listeners
	reg := prometheus.NewRegistry()
	metrics, err := m.NewMetricsListener(reg)
	if err != nil {
		return err
	}
	if err := est.SetListener(m.Listeners{metrics, logListener()}); err != nil {
		return err
	}
	if a.dumpMetrics {
		defer dumpMetrics(reg, os.Stderr)
	}

	// Estimate
	if err := est.Estimate(); err != nil {
		return err
	}

	// Output results
	out, err := prepareOutput(a.outFn)
	if err != nil {
		return err
	}
	defer out.Close()
	return printResult(out, est.Result(), origin, a.confidence, a.alpha)
}

// Load readings file
func loadReadings(fn string, opt *m.CsvOpt) ([]m.Reading, *m.PosLLH, error) {
	in, err := openInput(fn)
	if err != nil {
		return nil, nil, err
	}
	defer in.Close()
	readings, origin, err := m.ReadReadingsCSV(in, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return readings, origin, nil
}

// Apply command line options to the estimator
func configureEstimator(cmd *cobra.Command, est *m.Estimator, a estimateOpt) error {
	if err := est.SetPositionEstimationEnabled(!a.noPosition); err != nil {
		return err
	}
	if err := est.SetTransmittedPowerEstimationEnabled(!a.noPower); err != nil {
		return err
	}
	if err := est.SetPathLossEstimationEnabled(a.pathLoss); err != nil {
		return err
	}
	if a.initPos != "" {
		p, err := m.ParsePoint(a.initPos)
		if err != nil {
			return err
		}
		if err := est.SetInitialPosition(p); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("init-power") {
		if err := est.SetInitialTransmittedPowerDbm(&a.initPower); err != nil {
			return err
		}
	}
	if err := est.SetInitialPathLossExponent(a.initN); err != nil {
		return err
	}
	lmOpt := m.NewLMOpt()
	lmOpt.MaxIterations = a.maxIter
	return est.SetLMOpt(lmOpt)
}

// Listener logging the estimation steps
func logListener() m.Listener {
	return m.ListenerFuncs{
		Start: func(e *m.Estimator) {
			m.Log.WithFields(logrus.Fields{
				"readings": len(e.Readings()),
				"min":      e.MinReadings(),
			}).Info("estimation started")
		},
		End: func(e *m.Estimator) {
			m.Log.WithField("chisq", e.ChiSq()).Info("estimation finished")
		},
	}
}

// Print the fit result
func printResult(w io.Writer, r *m.FitResult, origin *m.PosLLH, confidence, alpha float64) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%% position      : %v\n", r.Position)
	if origin != nil {
		llh := m.ENUFromPoint(r.Position).ToLLH(*origin)
		fmt.Fprintf(&sb, "%% position(llh) : %s\n", llh.String())
	}
	fmt.Fprintf(&sb, "%% power         : %.4f dBm (%.6g mW)\n", r.TransmittedPowerDbm, r.TransmittedPower())
	fmt.Fprintf(&sb, "%% pathloss exp. : %.4f\n", r.PathLossExponent)

	if acc, err := r.PositionAccuracy(confidence); err == nil {
		fmt.Fprintf(&sb, "%% accuracy      : %.4f / %.4f / %.4f m (smallest/average/largest, %.1f%%)\n",
			acc.SmallestMeters(), acc.AverageMeters(), acc.LargestMeters(), confidence*100)
	}
	if v, ok := r.TransmittedPowerVariance(); ok {
		fmt.Fprintf(&sb, "%% power std     : %.4f dB\n", math.Sqrt(v))
	}
	if v, ok := r.PathLossExponentVariance(); ok {
		fmt.Fprintf(&sb, "%% pathloss std  : %.4f\n", math.Sqrt(v))
	}

	test := "OK"
	if !r.ChiSqTest(alpha) {
		test = "NG"
	}
	fmt.Fprintf(&sb, "%% chi-square    : %.6g (dof=%d, iter=%d, test=%s)\n", r.ChiSq, r.Dof(), r.Iterations, test)

	_, err := io.WriteString(w, sb.String())
	return err
}

// Print gathered metrics in text format
func dumpMetrics(reg *prometheus.Registry, w io.Writer) {
	mfs, err := reg.Gather()
	if err != nil {
		m.Log.WithError(err).Warn("failed to gather metrics")
		return
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			m.Log.WithError(err).Warn("failed to print metrics")
			return
		}
	}
}
