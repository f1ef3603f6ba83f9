package exportworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"tahisis/core-go/internal/export"
	"tahisis/core-go/internal/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultMaxRuntime = 5 * time.Minute
	retryBase         = 5 * time.Second

	SummaryFile = "summary.json"
)

var ErrNoDir = errors.New("export directory not set")

// Exporter is the part of export.Exporter the worker drives.
type Exporter interface {
	ExportAllTables(ctx context.Context) (export.AllTablesResult, error)
}

type Options struct {
	Dir        string
	Interval   time.Duration
	MaxRuntime time.Duration
	Metrics    *metrics.Metrics
}

type Worker struct {
	log        zerolog.Logger
	exp        Exporter
	dir        string
	interval   time.Duration
	maxRuntime time.Duration
	metrics    *metrics.Metrics
}

// TableFile describes one table in summary.json. File is empty when the
// table failed to export.
type TableFile struct {
	File    string `json:"file,omitempty"`
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

type Snapshot struct {
	Summary export.AllTablesSummary `json:"summary"`
	Tables  map[string]TableFile    `json:"tables"`
}

func New(log zerolog.Logger, exp Exporter, opts Options) *Worker {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	mr := opts.MaxRuntime
	if mr <= 0 {
		mr = defaultMaxRuntime
	}
	return &Worker{
		log:        log,
		exp:        exp,
		dir:        opts.Dir,
		interval:   interval,
		maxRuntime: mr,
		metrics:    opts.Metrics,
	}
}

// Run exports once straight away and then every interval until ctx is done.
// Failed runs are retried sooner, never later than the regular interval.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.exp == nil || w.dir == "" {
		return
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			consecutiveFailures++
			w.log.Error().Err(err).Int("failures", consecutiveFailures).Msg("scheduled export failed")
		} else {
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(w.interval, consecutiveFailures))
	}
}

func backoffDuration(interval time.Duration, failures int) time.Duration {
	if failures <= 0 {
		return interval
	}
	if failures > 6 {
		failures = 6
	}
	d := retryBase * time.Duration(1<<failures)
	if d > interval {
		return interval
	}
	return d
}

// RunOnce exports every table into the worker's directory and returns what
// was written.
func (w *Worker) RunOnce(ctx context.Context) (Snapshot, error) {
	if w.dir == "" {
		return Snapshot{}, ErrNoDir
	}
	execCtx, cancel := context.WithTimeout(ctx, w.maxRuntime)
	defer cancel()

	res, err := w.exp.ExportAllTables(execCtx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export tables: %w", err)
	}
	return WriteSnapshot(w.log, w.dir, res, w.metrics)
}

// WriteSnapshot writes each successful table as <table>.geojson and the
// summary as summary.json. A table that fails to write is reported in the
// summary and does not stop the others.
func WriteSnapshot(log zerolog.Logger, dir string, res export.AllTablesResult, m *metrics.Metrics) (Snapshot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("create export dir: %w", err)
	}

	snap := Snapshot{Summary: res.Summary, Tables: make(map[string]TableFile, len(res.Results))}

	names := make([]string, 0, len(res.Results))
	for name := range res.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := res.Results[name]
		tf := TableFile{Success: r.Success, Count: r.Count, Error: r.Error}
		if r.Success && r.Data != nil {
			file := name + ".geojson"
			if err := writeJSONFile(filepath.Join(dir, file), r.Data); err != nil {
				log.Warn().Err(err).Str("table", name).Msg("write table snapshot failed")
				m.IncSnapshotFile(false)
				tf.Success = false
				tf.Error = err.Error()
			} else {
				m.IncSnapshotFile(true)
				tf.File = file
			}
		}
		snap.Tables[name] = tf
	}

	if err := writeJSONFile(filepath.Join(dir, SummaryFile), snap); err != nil {
		m.IncSnapshotFile(false)
		return snap, fmt.Errorf("write summary: %w", err)
	}
	m.IncSnapshotFile(true)

	log.Info().
		Str("dir", dir).
		Int("tables", len(snap.Tables)).
		Int("records", snap.Summary.TotalRecords).
		Msg("export snapshot written")
	return snap, nil
}

// writeJSONFile replaces path atomically so readers never see a partial file.
func writeJSONFile(path string, v any) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
