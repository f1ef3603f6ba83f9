package estates

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestColorTable_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	src := ColorSourceFunc(func(ctx context.Context) (map[int64]string, error) {
		calls.Add(1)
		return map[int64]string{1: "hsl(0, 85%, 55%)", 2: "", 0: "hsl(1, 1%, 1%)"}, nil
	})
	tbl := NewColorTable(zerolog.New(io.Discard), src, nil)

	if tbl.Loaded() {
		t.Fatalf("expected table to start unloaded")
	}
	if c := tbl.Color(1); c != nil {
		t.Fatalf("expected no colour before load, got %q", *c)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tbl.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()

	if _, err := tbl.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := calls.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected fetch count %d", n)
	}
	before := calls.Load()
	_, _ = tbl.Load(context.Background())
	if calls.Load() != before {
		t.Fatalf("expected cached table to skip the source")
	}

	all := tbl.All()
	if len(all) != 1 || all[1] != "hsl(0, 85%, 55%)" {
		t.Fatalf("expected only valid entries kept, got %v", all)
	}
	all[1] = "mutated"
	if *tbl.Color(1) == "mutated" {
		t.Fatalf("expected All to return a copy")
	}

	tbl.Reset()
	if tbl.Loaded() {
		t.Fatalf("expected Reset to clear the table")
	}
	_, _ = tbl.Load(context.Background())
	if calls.Load() != before+1 {
		t.Fatalf("expected reload after Reset")
	}
}

func TestColorTable_FailedLoadRetries(t *testing.T) {
	fail := true
	src := ColorSourceFunc(func(ctx context.Context) (map[int64]string, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return map[int64]string{4: "hsl(4, 4%, 4%)"}, nil
	})
	tbl := NewColorTable(zerolog.New(io.Discard), src, nil)

	got, err := tbl.Load(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty table on failure, got %v", got)
	}
	if tbl.Loaded() {
		t.Fatalf("expected failure not to mark table loaded")
	}

	fail = false
	got, err = tbl.Load(context.Background())
	if err != nil || got[4] != "hsl(4, 4%, 4%)" {
		t.Fatalf("expected retry to succeed, got %v %v", got, err)
	}
}

func TestColorTable_LoadSurvivesCallerCancel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	src := ColorSourceFunc(func(ctx context.Context) (map[int64]string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("expected a bounded fetch")
		}
		return map[int64]string{1: "hsl(0, 85%, 55%)"}, nil
	})
	tbl := NewColorTable(zerolog.New(io.Discard), src, nil)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := tbl.Load(first)
		firstErr <- err
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := tbl.Load(context.Background())
		waiterErr <- err
	}()

	cancel()
	close(release)

	if err := <-firstErr; err != nil {
		t.Fatalf("expected first caller to get the shared result, got %v", err)
	}
	if err := <-waiterErr; err != nil {
		t.Fatalf("expected waiter to succeed, got %v", err)
	}
	if !tbl.Loaded() || tbl.Color(1) == nil {
		t.Fatalf("expected table loaded after cancelled caller")
	}
}

func TestColorTable_Apply(t *testing.T) {
	src := ColorSourceFunc(func(ctx context.Context) (map[int64]string, error) {
		return map[int64]string{1: "hsl(1, 1%, 1%)", 2: "hsl(2, 2%, 2%)"}, nil
	})
	tbl := NewColorTable(zerolog.New(io.Discard), src, nil)
	if _, err := tbl.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	own := "hsl(9, 9%, 9%)"
	in := []Record{
		{TypeEstateID: id(1)},
		{TypeEstateID: id(2), TypeColor: &own},
		{TypeEstateName: "без id"},
		{TypeEstateID: id(3)},
	}
	out := tbl.Apply(in)

	if out[0].TypeColor == nil || *out[0].TypeColor != "hsl(1, 1%, 1%)" {
		t.Fatalf("expected colour from table, got %v", out[0].TypeColor)
	}
	if *out[1].TypeColor != own {
		t.Fatalf("expected existing colour to win, got %q", *out[1].TypeColor)
	}
	if out[2].TypeColor != nil || out[3].TypeColor != nil {
		t.Fatalf("expected no colour for unknown ids")
	}
	if in[0].TypeColor != nil {
		t.Fatalf("expected input left untouched")
	}
}
