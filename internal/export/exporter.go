package export

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cutout/internal/config"
	"cutout/internal/fileutil"
	"cutout/internal/logging"
	"cutout/internal/queue"
	"cutout/internal/services"
	"cutout/internal/textutil"
)

// Suffix is appended to the display name stem of every exported file.
const Suffix = "_no_bg"

const component = "export"

// Exporter writes result cutouts as PNG files.
type Exporter struct {
	dir    string
	ledger *Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter writes into dir and records exports in ledger when non-nil.
func NewExporter(dir string, ledger *Ledger, logger *slog.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		ledger: ledger,
		logger: logging.NewComponentLogger(logger, component),
		now:    time.Now,
	}
}

// NewFromConfig builds an exporter for cfg.Paths.OutputDir, opening the ledger
// when export.ledger is enabled. Close releases the ledger.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Exporter, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "configuration unavailable", nil)
	}
	var ledger *Ledger
	if cfg.Export.Ledger {
		var err error
		ledger, err = OpenLedger(cfg.LedgerPath())
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, component, "open ledger", "failed to open export ledger", err)
		}
	}
	return NewExporter(cfg.Paths.OutputDir, ledger, logger), nil
}

// Close releases the ledger, if any.
func (e *Exporter) Close() error {
	if e == nil {
		return nil
	}
	return e.ledger.Close()
}

// Ledger returns the attached ledger or nil.
func (e *Exporter) Ledger() *Ledger { return e.ledger }

// FileName returns the base export name for a display name, before any
// collision suffix.
func FileName(displayName string) string {
	return textutil.Stem(displayName, "image") + Suffix + ".png"
}

// Export writes one result and records it in the ledger.
func (e *Exporter) Export(ctx context.Context, result queue.Result) (Record, error) {
	if result.Cutout == nil {
		return Record{}, services.Wrap(services.ErrValidation, component, "export", fmt.Sprintf("result %s has no cutout", result.ID), nil)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return Record{}, services.Wrap(services.ErrConfiguration, component, "export", "create output directory", err)
	}

	stem := strings.TrimSuffix(FileName(result.Name), ".png")
	path, err := fileutil.WriteUnique(e.dir, stem, ".png", func(w io.Writer) error {
		return png.Encode(w, result.Cutout)
	})
	if err != nil {
		return Record{}, services.Wrap(services.ErrTransient, component, "export", "write cutout", err)
	}

	rec := Record{
		ItemID:     result.ID,
		Name:       result.Name,
		Path:       path,
		Width:      result.Width,
		Height:     result.Height,
		ExportedAt: e.now(),
	}
	if e.ledger != nil {
		stored, err := e.ledger.Add(ctx, rec)
		if err != nil {
			logging.WarnWithContext(e.logger, "export ledger write failed", "export_ledger_failed",
				logging.String(logging.FieldItemID, result.ID),
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state directory is writable"),
				logging.String(logging.FieldImpact, "file was written but is missing from export history"),
			)
		} else {
			rec = stored
		}
	}

	e.logger.Info("cutout exported",
		logging.String(logging.FieldItemID, result.ID),
		logging.String("path", path),
		logging.Int("width", result.Width),
		logging.Int("height", result.Height),
	)
	return rec, nil
}

// ExportAll exports every result in order. It keeps going after a failure and
// returns the joined errors alongside the records that succeeded.
func (e *Exporter) ExportAll(ctx context.Context, results []queue.Result) ([]Record, error) {
	records := make([]Record, 0, len(results))
	var errs []error
	for _, result := range results {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, err := e.Export(ctx, result)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.ID, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(errs...)
}

// History lists ledger records, most recent first.
func (e *Exporter) History(ctx context.Context, limit int) ([]Record, error) {
	if e.ledger == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "history", "export ledger is disabled (export.ledger = false)", nil)
	}
	return e.ledger.List(ctx, limit)
}
