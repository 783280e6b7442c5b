// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestMetrics counts row outcomes per institution across import batches.
type IngestMetrics struct {
	RowsImported  *prometheus.CounterVec
	RowsDuplicate *prometheus.CounterVec
	RowsInvalid   *prometheus.CounterVec
	ImportsTotal  *prometheus.CounterVec
	ImportsFailed prometheus.Counter
}

// NewIngestMetrics registers ingestion counters on the given registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	factory := promauto.With(reg)

	return &IngestMetrics{
		RowsImported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlift",
			Subsystem: "ingest",
			Name:      "rows_imported_total",
			Help:      "Canonical transactions newly imported.",
		}, []string{"institution"}),
		RowsDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlift",
			Subsystem: "ingest",
			Name:      "rows_duplicate_total",
			Help:      "Transactions skipped as duplicates.",
		}, []string{"institution"}),
		RowsInvalid: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlift",
			Subsystem: "ingest",
			Name:      "rows_invalid_total",
			Help:      "Statement rows skipped as invalid or non-transaction.",
		}, []string{"institution"}),
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlift",
			Subsystem: "ingest",
			Name:      "imports_total",
			Help:      "Import batches processed.",
		}, []string{"institution"}),
		ImportsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerlift",
			Subsystem: "ingest",
			Name:      "imports_failed_total",
			Help:      "Import batches that aborted with an error.",
		}),
	}
}
