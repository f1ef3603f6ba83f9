package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tahisis/core-go/internal/config"
	"tahisis/core-go/internal/export"
	"tahisis/core-go/internal/exportworker"
	"tahisis/core-go/internal/marker"
)

func TestParseSlices(t *testing.T) {
	got, err := parseSlices([]string{"hsl(120, 50%, 40%):120", " #ff0000 : 4.5 "})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := []marker.Slice{
		{Color: "hsl(120, 50%, 40%)", Population: 120},
		{Color: "#ff0000", Population: 4.5},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d slices, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slice %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestParseSlices_Invalid(t *testing.T) {
	for _, arg := range []string{"red", ":5", "red:many"} {
		if _, err := parseSlices([]string{arg}); err == nil {
			t.Fatalf("expected error for %q", arg)
		}
	}
}

func TestMarkerCmd_WritesMarkup(t *testing.T) {
	cmd := markerCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hsl(120, 50%, 40%):10"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `stroke="hsl(120, 50%, 40%)"`) {
		t.Fatalf("expected ring marker, got %q", out.String())
	}
}

func TestMarkerCmd_NoArgsRendersPlaceholder(t *testing.T) {
	cmd := markerCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != marker.Placeholder {
		t.Fatalf("expected placeholder, got %q", out.String())
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("EXPORT_DIR", "/from/env")

	cmd := serveCmd()
	if err := cmd.ParseFlags([]string{"--addr", ":7000", "--export-interval", "10m"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("expected flag addr, got %q", cfg.HTTPAddr)
	}
	if cfg.ExportDir != "/from/env" {
		t.Fatalf("expected env export dir, got %q", cfg.ExportDir)
	}
	if !cfg.ExportEnabled() {
		t.Fatalf("expected export enabled")
	}
}

func TestRunExport_RequiresDatabaseAndDir(t *testing.T) {
	cfg := config.Defaults()
	if err := runExport(context.Background(), cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error without database url")
	}
	cfg.DatabaseURL = "postgres://localhost/census"
	if err := runExport(context.Background(), cfg, &bytes.Buffer{}); err != exportworker.ErrNoDir {
		t.Fatalf("expected ErrNoDir, got %v", err)
	}
}

func TestPrintSnapshot(t *testing.T) {
	var out bytes.Buffer
	snap := exportworker.Snapshot{Summary: export.AllTablesSummary{TotalTables: 3, SuccessfulExports: 2, TotalRecords: 40}}
	if err := printSnapshot(&out, "/tmp/x", snap); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := out.String(); got != "exported 40 records from 2 of 3 tables to /tmp/x\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
