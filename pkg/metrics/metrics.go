// Copyright 2020 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Label values of ParseCounter.
const (
	LblAccepted = "accepted"
	LblFailed   = "failed"
	LblFault    = "fault"
)

// Label values of ActionCounter.
const (
	LblShift    = "shift"
	LblReduce   = "reduce"
	LblErrorPop = "error_pop"
)

// parse metrics vars
var (
	ParseCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "racc",
			Subsystem: "parse",
			Name:      "total",
			Help:      "Counter of finished parses by result.",
		}, []string{"result"})
	SyntaxErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "racc",
			Subsystem: "parse",
			Name:      "syntax_errors",
			Help:      "Counter of syntax errors reported to the error observer.",
		})
	ActionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "racc",
			Subsystem: "engine",
			Name:      "actions",
			Help:      "Counter of automaton actions by type.",
		}, []string{"type"})
	ParseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "racc",
			Subsystem: "parse",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of parse time (s).",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 20),
		}, []string{"result"})
)

// RegisterMetrics registers metrics.
func RegisterMetrics(registry prometheus.Registerer) {
	registry.MustRegister(ParseCounter)
	registry.MustRegister(SyntaxErrorCounter)
	registry.MustRegister(ActionCounter)
	registry.MustRegister(ParseDuration)
}

// ReadCounter reports the current value of the counter.
func ReadCounter(counter prometheus.Counter) float64 {
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		return math.NaN()
	}
	return metric.Counter.GetValue()
}

// ReadHistogramCount reports how many observations the histogram has.
func ReadHistogramCount(observer prometheus.Observer) uint64 {
	h, ok := observer.(prometheus.Histogram)
	if !ok {
		return 0
	}
	var metric dto.Metric
	if err := h.Write(&metric); err != nil {
		return 0
	}
	return metric.Histogram.GetSampleCount()
}
