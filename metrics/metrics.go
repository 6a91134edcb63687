// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

// Package metrics counts poll rounds and their outcomes for prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bobbytrapz/livecheck/stream"
)

const namespace = "livecheck"

// Recorder is a prometheus.Collector fed by the poll schedulers
// a nil Recorder ignores everything
type Recorder struct {
	rounds          *prometheus.CounterVec
	roundDuration   *prometheus.HistogramVec
	outcomes        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	schedulerFailed *prometheus.CounterVec
	tracked         *prometheus.GaugeVec
}

// NewRecorder with fresh metrics
func NewRecorder() *Recorder {
	return &Recorder{
		rounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_rounds_total",
				Help:      "The number of poll rounds run per provider.",
			}, []string{"kind"},
		),
		roundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_round_seconds",
				Help:      "The time a poll round took.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			}, []string{"kind"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "The number of outcomes by resulting status.",
			}, []string{"kind", "status"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_failures_total",
				Help:      "The number of outcomes whose network step failed.",
			}, []string{"kind"},
		),
		schedulerFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_failures_total",
				Help:      "The number of schedulers that stopped after a panic.",
			}, []string{"kind"},
		),
		tracked: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_streams",
				Help:      "The number of tracked streams per provider.",
			}, []string{"kind"},
		),
	}
}

// Round is called by a scheduler after every round
func (r *Recorder) Round(kind stream.Kind, took time.Duration, outcomes []stream.Outcome) {
	if r == nil {
		return
	}
	k := string(kind)
	r.rounds.WithLabelValues(k).Inc()
	r.roundDuration.WithLabelValues(k).Observe(took.Seconds())
	for _, o := range outcomes {
		r.outcomes.WithLabelValues(k, o.Change.Status.String()).Inc()
		if !o.OK() {
			r.failures.WithLabelValues(k).Inc()
		}
	}
}

// SchedulerFailed is called when a scheduler gives up
func (r *Recorder) SchedulerFailed(kind stream.Kind) {
	if r == nil {
		return
	}
	r.schedulerFailed.WithLabelValues(string(kind)).Inc()
}

// Tracked sets the number of streams per provider
func (r *Recorder) Tracked(by map[stream.Kind][]stream.Stream) {
	if r == nil {
		return
	}
	r.tracked.Reset()
	for kind, streams := range by {
		r.tracked.WithLabelValues(string(kind)).Set(float64(len(streams)))
	}
}

// Describe is part of the prometheus.Collector interface.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.rounds.Describe(ch)
	r.roundDuration.Describe(ch)
	r.outcomes.Describe(ch)
	r.failures.Describe(ch)
	r.schedulerFailed.Describe(ch)
	r.tracked.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.rounds.Collect(ch)
	r.roundDuration.Collect(ch)
	r.outcomes.Collect(ch)
	r.failures.Collect(ch)
	r.schedulerFailed.Collect(ch)
	r.tracked.Collect(ch)
}
