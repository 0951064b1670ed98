// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics exports a batch result in the Prometheus text format,
// suitable for the node_exporter textfile collector.
package metrics

import (
	"errors"

	"github.com/matt-FFFFFF/pkgcanary/internal/batch"
	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "pkgcanary"

// ErrWriteMetrics is returned when the textfile cannot be written.
var ErrWriteMetrics = errors.New("failed to write metrics file")

// Recorder holds the metrics of one batch run.
type Recorder struct {
	registry *prometheus.Registry
	runID    string

	packages     *prometheus.GaugeVec
	stepDuration *prometheus.GaugeVec
	stepPassed   *prometheus.GaugeVec
}

// NewRecorder returns a Recorder that labels every series with runID.
func NewRecorder(runID string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runID:    runID,
		packages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "packages",
			Help:      "Number of packages by status",
		}, []string{"run_id", "status"}),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "step_duration_seconds",
			Help:      "Elapsed time of a pipeline step",
		}, []string{"run_id", "package", "step"}),
		stepPassed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "step_passed",
			Help:      "1 if the pipeline step passed, 0 otherwise",
		}, []string{"run_id", "package", "step"}),
	}

	r.registry.MustRegister(r.packages, r.stepDuration, r.stepPassed)

	return r
}

// Record sets the gauges from res.
func (r *Recorder) Record(res batch.Result) {
	s := res.Summarize()
	r.packages.WithLabelValues(r.runID, pipeline.StatusPassed.String()).Set(float64(s.Passed))
	r.packages.WithLabelValues(r.runID, pipeline.StatusFailed.String()).Set(float64(s.Failed))
	r.packages.WithLabelValues(r.runID, pipeline.StatusSkipped.String()).Set(float64(s.Skipped))

	for _, rec := range res {
		r.step(rec.Name, pipeline.StepClone, rec.CloneOutcome)
		r.step(rec.Name, pipeline.StepInstall, rec.InstallOutcome)
		r.step(rec.Name, pipeline.StepTest, rec.TestOutcome)
	}
}

func (r *Recorder) step(pkg string, step pipeline.Step, o *supervisor.Outcome) {
	if o == nil {
		return
	}

	r.stepDuration.WithLabelValues(r.runID, pkg, string(step)).Set(o.Elapsed().Seconds())

	passed := 0.0
	if o.Passed {
		passed = 1
	}

	r.stepPassed.WithLabelValues(r.runID, pkg, string(step)).Set(passed)
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Join(ErrWriteMetrics, err)
	}

	return nil
}
