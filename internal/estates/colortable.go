package estates

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tahisis/core-go/internal/metrics"
)

const loadTimeout = 10 * time.Second

// ColorSource loads estate type colours keyed by type estate id.
type ColorSource interface {
	EstateTypeColors(ctx context.Context) (map[int64]string, error)
}

// ColorSourceFunc adapts a plain function to ColorSource.
type ColorSourceFunc func(ctx context.Context) (map[int64]string, error)

func (f ColorSourceFunc) EstateTypeColors(ctx context.Context) (map[int64]string, error) {
	return f(ctx)
}

// ColorTable is the host-owned colour cache. The first successful Load is
// kept until Reset; concurrent loads share a single fetch.
type ColorTable struct {
	log     zerolog.Logger
	src     ColorSource
	metrics *metrics.Metrics

	group singleflight.Group

	mu     sync.RWMutex
	colors map[int64]string
}

func NewColorTable(log zerolog.Logger, src ColorSource, m *metrics.Metrics) *ColorTable {
	return &ColorTable{log: log, src: src, metrics: m}
}

// Load returns the colour table, fetching it on first use. When the fetch
// fails the error is returned along with an empty table, and the next call
// tries again.
func (t *ColorTable) Load(ctx context.Context) (map[int64]string, error) {
	if all, ok := t.snapshot(); ok {
		return all, nil
	}
	if t.src == nil {
		return map[int64]string{}, nil
	}

	_, err, _ := t.group.Do("colors", func() (any, error) {
		// Shared by every waiter, so one caller going away must not cancel it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		raw, err := t.src.EstateTypeColors(fetchCtx)
		if err != nil {
			t.metrics.IncColorTableLoad("error")
			t.log.Error().Err(err).Msg("load estate type colors failed")
			return nil, err
		}

		loaded := make(map[int64]string, len(raw))
		for id, c := range raw {
			if id > 0 && c != "" {
				loaded[id] = c
			}
		}

		t.mu.Lock()
		t.colors = loaded
		t.mu.Unlock()

		t.metrics.IncColorTableLoad("ok")
		t.log.Info().Int("colors", len(loaded)).Msg("estate type colors loaded")
		return nil, nil
	})
	if err != nil {
		return map[int64]string{}, err
	}

	all, _ := t.snapshot()
	return all, nil
}

func (t *ColorTable) snapshot() (map[int64]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.colors == nil {
		return nil, false
	}
	out := make(map[int64]string, len(t.colors))
	for k, v := range t.colors {
		out[k] = v
	}
	return out, true
}

func (t *ColorTable) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.colors != nil
}

// Color returns the colour for a type id, or nil when unknown or not loaded.
func (t *ColorTable) Color(id int64) *string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.colors[id]
	if !ok {
		return nil
	}
	return &c
}

// All returns a copy of the loaded table; empty before the first Load.
func (t *ColorTable) All() map[int64]string {
	all, ok := t.snapshot()
	if !ok {
		return map[int64]string{}
	}
	return all
}

func (t *ColorTable) Reset() {
	t.mu.Lock()
	t.colors = nil
	t.mu.Unlock()
}

// Apply returns a copy of records with TypeColor filled from the table by
// type id. Colours already present on a record win.
func (t *ColorTable) Apply(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		if out[i].TypeColor != nil || out[i].TypeEstateID == nil {
			continue
		}
		out[i].TypeColor = t.Color(*out[i].TypeEstateID)
	}
	return out
}
