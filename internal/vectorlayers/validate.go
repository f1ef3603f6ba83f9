// Package vectorlayers checks uploaded vector layer files before they are
// stored.
package vectorlayers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const MaxFileSize int64 = 50 * 1024 * 1024

const (
	KindGeoJSON    = "GeoJSON"
	KindKML        = "KML"
	KindShapefile  = "Shapefile (ZIP)"
	KindGeoPackage = "GeoPackage"
	KindUnknown    = "Неизвестный"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrUnsupported = errors.New("unsupported file format")
)

var allowedMIMETypes = map[string]bool{
	"application/geo+json":                 true,
	"application/json":                     true,
	"application/vnd.google-earth.kml+xml": true,
	"application/zip":                      true,
	"application/geopackage":               true,
}

var allowedExtensions = []string{".geojson", ".json", ".kml", ".zip", ".gpkg"}

// ValidateFile accepts files up to MaxFileSize whose MIME type or, failing
// that, file extension is on the allow-list.
func ValidateFile(name, mimeType string, size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s, limit %s", ErrTooLarge, FormatSize(size), FormatSize(MaxFileSize))
	}
	if allowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))] {
		return nil
	}
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return fmt.Errorf("%w: supported %s", ErrUnsupported, strings.Join(allowedExtensions, ", "))
}

// KindFromFileName guesses the layer kind from anywhere in the name, so
// "roads.geojson.zip" counts as GeoJSON.
func KindFromFileName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, ".geojson"), strings.Contains(lower, ".json"):
		return KindGeoJSON
	case strings.Contains(lower, ".kml"):
		return KindKML
	case strings.Contains(lower, ".zip"):
		return KindShapefile
	case strings.Contains(lower, ".gpkg"):
		return KindGeoPackage
	}
	return KindUnknown
}

// FormatSize renders a byte count with binary units.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}
