package vectorlayers

import (
	"errors"
	"testing"
)

func TestValidateFile(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		mime    string
		size    int64
		wantErr error
	}{
		{name: "mime allowed", file: "layer.bin", mime: "application/geo+json", size: 10},
		{name: "extension fallback", file: "Rivers.GPKG", mime: "application/octet-stream", size: 10},
		{name: "exact limit", file: "a.kml", size: MaxFileSize},
		{name: "too large", file: "a.kml", size: MaxFileSize + 1, wantErr: ErrTooLarge},
		{name: "unsupported", file: "notes.txt", mime: "text/plain", size: 10, wantErr: ErrUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFile(tc.file, tc.mime, tc.size)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestKindFromFileName(t *testing.T) {
	cases := map[string]string{
		"roads.geojson":     KindGeoJSON,
		"ROADS.JSON":        KindGeoJSON,
		"borders.kml":       KindKML,
		"parcels.zip":       KindShapefile,
		"base.gpkg":         KindGeoPackage,
		"roads.geojson.zip": KindGeoJSON,
		"readme":            KindUnknown,
	}
	for name, want := range cases {
		if got := KindFromFileName(name); got != want {
			t.Fatalf("KindFromFileName(%q)=%q, want %q", name, got, want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(0); got != "0 B" {
		t.Fatalf("expected 0 B, got %q", got)
	}
	if got := FormatSize(MaxFileSize); got != "50 MiB" {
		t.Fatalf("expected 50 MiB, got %q", got)
	}
}
