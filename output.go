// Copyright 2026 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.yaml.in/yaml/v2"

	"github.com/prometheus/snmp_trapmgr/receiver"
)

const (
	outputTable      = "table"
	outputYAML       = "yaml"
	outputPrometheus = "prometheus"
)

func writeReceivers(w io.Writer, receivers []receiver.Receiver, output string) error {
	switch output {
	case outputYAML:
		return writeYAML(w, receivers)
	case outputPrometheus:
		return writeMetrics(w, receivers)
	}
	writeTable(w, receivers)
	return nil
}

func writeTable(w io.Writer, receivers []receiver.Receiver) {
	fmt.Fprintln(w, "List configured SNMP trap receivers")
	for _, r := range receivers {
		fmt.Fprintf(w, "%5s %15s %d\n", r.Index, r.Address, r.Port)
	}
	if len(receivers) == 0 {
		fmt.Fprintln(w, "     (empty)")
	}
}

func writeYAML(w io.Writer, receivers []receiver.Receiver) error {
	out, err := yaml.Marshal(receivers)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// writeMetrics renders the receivers in the text exposition format, for the
// node_exporter textfile collector.
func writeMetrics(w io.Writer, receivers []receiver.Receiver) error {
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snmp_trap_receiver_info",
			Help: "Configured SNMP trap receiver.",
		},
		[]string{"index", "address", "port"},
	)
	count := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snmp_trap_receivers",
			Help: "Number of configured SNMP trap receivers.",
		},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(info, count)

	for _, r := range receivers {
		info.WithLabelValues(r.Index, r.Address, strconv.Itoa(int(r.Port))).Set(1)
	}
	count.Set(float64(len(receivers)))

	mfs, err := registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
