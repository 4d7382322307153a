package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alanyoungcy/yieldscan/internal/scan"
)

// ScanMode runs one scan cycle, writes the ranked result as JSON to stdout,
// and persists/archives/notifies through whichever backends are configured.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	result, err := deps.Orchestrator.Scan(ctx)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("app: encode result: %w", err)
	}

	a.persist(ctx, deps, result)
	return nil
}

// WatchMode runs scan cycles on the configured interval until the context is
// cancelled. Each cycle is persisted; a failing cycle is logged and the loop
// continues.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Scan.Interval.Duration
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := deps.Orchestrator.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.ErrorContext(ctx, "scan cycle failed",
				slog.String("error", err.Error()))
		} else {
			a.persist(ctx, deps, result)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// persist stores, archives and announces a completed scan through the
// configured optional backends. Failures here are logged, never fatal; the
// scan result already exists.
func (a *App) persist(ctx context.Context, deps *Dependencies, result *scan.Result) {
	if deps.Store != nil {
		if err := deps.Store.SaveBatch(ctx, result.Opportunities); err != nil {
			a.logger.ErrorContext(ctx, "persist scan failed",
				slog.String("scan_id", result.ScanID),
				slog.String("error", err.Error()))
		}
	}
	if deps.Archiver != nil {
		if err := deps.Archiver.ArchiveScan(ctx, result); err != nil {
			a.logger.ErrorContext(ctx, "archive scan failed",
				slog.String("scan_id", result.ScanID),
				slog.String("error", err.Error()))
		}
	}
	if deps.Alerter != nil {
		if err := deps.Alerter.NotifyScan(ctx, result); err != nil {
			a.logger.WarnContext(ctx, "notify scan failed",
				slog.String("scan_id", result.ScanID),
				slog.String("error", err.Error()))
		}
	}
}
