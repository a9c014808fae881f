package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/cpidash/internal/cpiservice"
	"github.com/starford/cpidash/internal/export"
	"github.com/starford/cpidash/internal/models"
)

// RunPointQuery loads the dataset once, runs q and prints the result as
// JSON. When xlsxPath is set the matching records are also written there.
func RunPointQuery(ctx context.Context, q cpiservice.PointQuery, xlsxPath string, opts ...Option) error {
	return runQuery(opts, func(svc *cpiservice.Service) (any, []models.Record, error) {
		res, err := svc.Point(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		return res, res.Records, nil
	}, xlsxPath)
}

// RunRangeQuery is RunPointQuery for a multi-region year range.
func RunRangeQuery(ctx context.Context, q cpiservice.RangeQuery, xlsxPath string, opts ...Option) error {
	return runQuery(opts, func(svc *cpiservice.Service) (any, []models.Record, error) {
		res, err := svc.Range(ctx, q)
		if err != nil {
			return nil, nil, err
		}
		return res, res.Records, nil
	}, xlsxPath)
}

func runQuery(opts []Option, query func(*cpiservice.Service) (any, []models.Record, error), xlsxPath string) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, app.stderr)

	rt, err := bootstrap(app.config, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	result, records, err := query(rt.svc)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		if err := writeXLSXFile(xlsxPath, records); err != nil {
			return err
		}
		logger.Info("query: exported", slog.String("path", xlsxPath), slog.Int("rows", len(records)))
	}

	enc := json.NewEncoder(app.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeXLSXFile(path string, records []models.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteXLSX(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
