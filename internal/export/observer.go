package export

import (
	"context"

	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/workflow"
)

// ResultLookup resolves a completed result by item id.
type ResultLookup func(id string) (queue.Result, bool)

// AutoExporter exports each result as soon as the workflow reports it complete.
type AutoExporter struct {
	exporter *Exporter
	lookup   ResultLookup
}

// NewAutoExporter returns a workflow observer backed by exporter.
func NewAutoExporter(exporter *Exporter, lookup ResultLookup) *AutoExporter {
	return &AutoExporter{exporter: exporter, lookup: lookup}
}

// Observe implements workflow.Observer.
func (a *AutoExporter) Observe(e workflow.Event) {
	if e.Kind != workflow.EventCompleted || a.lookup == nil {
		return
	}
	// The result may already have been removed by the time the event arrives.
	result, ok := a.lookup(e.ItemID)
	if !ok {
		return
	}
	if _, err := a.exporter.Export(context.Background(), result); err != nil {
		logging.WarnWithContext(a.exporter.logger, "auto export failed", "auto_export_failed",
			logging.String(logging.FieldItemID, e.ItemID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.output_dir exists and is writable"),
			logging.String(logging.FieldImpact, "result stays in memory until exported manually"),
		)
	}
}
