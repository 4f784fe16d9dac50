// Copyright 2020 Quarry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	LblOK    = "ok"
	LblNull  = "null"
	LblError = "error"
)

// Metrics of the expression layer.
var (
	JSONExtractionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Subsystem: "expression",
			Name:      "json_extraction_total",
			Help:      "Counter of JSON path extractions partitioned by function and result.",
		}, []string{"type", "result"})

	JSONPathCompileCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quarry",
			Subsystem: "expression",
			Name:      "json_path_compile_total",
			Help:      "Counter of JSON path compilations partitioned by result.",
		}, []string{"result"})
)

// RegisterMetrics registers the metrics which are ONLY used in this module.
func RegisterMetrics() {
	prometheus.MustRegister(JSONExtractionCounter)
	prometheus.MustRegister(JSONPathCompileCounter)
}
