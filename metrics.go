/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflowgen

import "github.com/prometheus/client_golang/prometheus"

var (
	PacketsBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_packets_total",
		Help: "Total number of built NetFlow packets per version",
	}, []string{"version"})
	BytesBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_packet_bytes_total",
		Help: "Total number of built NetFlow packet bytes per version",
	}, []string{"version"})
	RecordsExported = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_records_total",
		Help: "Total number of sequence-counted flow records per version",
	}, []string{"version"})
	BuildErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generator_build_errors_total",
		Help: "Total number of failed packet builds per version",
	}, []string{"version"})
	TemplateRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generator_template_refreshes_total",
		Help: "Total number of ticks that re-announced templates",
	})
	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generator_ticks_total",
		Help: "Total number of completed ticks",
	})
)

// Collectors returns every metric of the package for registration by the
// embedding program; the package itself does not touch the default registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PacketsBuilt,
		BytesBuilt,
		RecordsExported,
		BuildErrors,
		TemplateRefreshes,
		Ticks,
		UDPPacketsTotal,
		UDPPacketBytes,
		UDPErrorsTotal,
		CaptureRecordsTotal,
		CaptureBytesTotal,
	}
}

func observeBuild(version string, packets [][]byte, records int) {
	PacketsBuilt.WithLabelValues(version).Add(float64(len(packets)))
	for _, b := range packets {
		BytesBuilt.WithLabelValues(version).Add(float64(len(b)))
	}
	if records > 0 {
		RecordsExported.WithLabelValues(version).Add(float64(records))
	}
}
