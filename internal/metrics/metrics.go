// Package metrics exposes Prometheus counters for codec faults, extractor
// throughput, packetizer throughput, and registry upserts. No teacher file
// exercises prometheus/client_golang (it rides along unused in the teacher's
// go.mod); this package is built directly against the library's standard
// NewCounterVec/MustRegister idiom and is meant to be registered once by
// cmd/dvbsi-dump and served over /metrics alongside that command's /healthz
// handle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter this repository's domain stack exports.
// The zero value is not usable; construct with New or MustRegister.
type Metrics struct {
	CodecFaults     *prometheus.CounterVec
	SectionsTotal   prometheus.Counter
	SectionsDropped prometheus.Counter
	PacketsProduced prometheus.Counter
	RegistryUpserts prometheus.Counter
}

// New builds a Metrics bundle without registering it, useful for tests that
// want isolated counters.
func New() *Metrics {
	return &Metrics{
		CodecFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dvbsi",
			Name:      "codec_faults_total",
			Help:      "Codec faults raised, partitioned by ErrorKind.",
		}, []string{"kind"}),
		SectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvbsi",
			Name:      "sections_extracted_total",
			Help:      "PSI sections successfully reassembled by the extractor.",
		}),
		SectionsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvbsi",
			Name:      "sections_dropped_total",
			Help:      "Extractor buffer drops due to continuity loss or malformed input.",
		}),
		PacketsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvbsi",
			Name:      "ts_packets_produced_total",
			Help:      "TS packets emitted by the packetizer.",
		}),
		RegistryUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dvbsi",
			Name:      "registry_upserts_total",
			Help:      "Service registry rows inserted or updated.",
		}),
	}
}

// MustRegister builds a Metrics bundle and registers every collector with
// reg, panicking on a registration error (duplicate registration is a
// programming error, not a runtime condition to recover from).
func MustRegister(reg prometheus.Registerer) *Metrics {
	m := New()
	reg.MustRegister(m.CodecFaults, m.SectionsTotal, m.SectionsDropped, m.PacketsProduced, m.RegistryUpserts)
	return m
}
