// Package export converts census tables into GeoJSON feature collections.
package export

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tahisis/core-go/internal/estates"
	"tahisis/core-go/internal/sqlcgen"
	"tahisis/core-go/internal/vectorlayers"
)

const (
	TableSettlement  = "Settlement"
	TableVectorLayer = "Vector_layer"

	crsName = "urn:ogc:def:crs:OGC:1.3:CRS84"
)

// HasGeometry reports whether rows of table carry a location.
func HasGeometry(table string) bool {
	return table == TableSettlement || table == TableVectorLayer
}

// FilterData holds the id sets the map filters run against.
type FilterData struct {
	TypeEstateIDs    []int64 `json:"type_estate_ids"`
	SubtypeEstateIDs []int64 `json:"subtype_estate_ids"`
	ReligionIDs      []int64 `json:"religion_ids"`
	AffiliationIDs   []int64 `json:"affiliation_ids"`
	VolostIDs        []int64 `json:"volost_ids"`
	LandownerIDs     []int64 `json:"landowner_ids"`
	MilitaryUnitIDs  []int64 `json:"military_unit_ids"`
}

type Settlement struct {
	ID             int64
	NameOld        string
	NameModern     string
	DistrictID     *int64
	DistrictName   string
	Lat            *float64
	Lon            *float64
	Male           int64
	Female         int64
	Total          int64
	RevisionCount  int64
	EstatesCount   int64
	ReligionsCount int64
	Filter         FilterData
	Estates        []estates.Record
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
}

// HasCoordinates mirrors the map: a zero coordinate counts as missing.
func (s Settlement) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil && *s.Lat != 0 && *s.Lon != 0
}

type Summary struct {
	TotalPopulation   int64 `json:"totalPopulation"`
	TotalMale         int64 `json:"totalMale"`
	TotalFemale       int64 `json:"totalFemale"`
	UniqueEstateTypes int   `json:"uniqueEstateTypes"`
	UniqueReligions   int   `json:"uniqueReligions"`
}

type Metadata struct {
	TableName     string    `json:"tableName"`
	TotalCount    int       `json:"totalCount"`
	ExportedCount int       `json:"exportedCount"`
	ExportedAt    time.Time `json:"exportedAt"`
	Summary       *Summary  `json:"summary,omitempty"`
}

func newCollection(meta Metadata) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"crs": map[string]any{
			"type":       "name",
			"properties": map[string]any{"name": crsName},
		},
		"metadata": meta,
	}
	return fc
}

// SettlementsToGeoJSON builds one Point feature per settlement with
// coordinates. The aggregated estate types are embedded verbatim.
func SettlementsToGeoJSON(settlements []Settlement, now time.Time) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(settlements))
	for _, s := range settlements {
		if !s.HasCoordinates() {
			continue
		}
		f := geojson.NewFeature(orb.Point{*s.Lon, *s.Lat})
		f.Properties = geojson.Properties{
			"id":            s.ID,
			"name_old":      s.NameOld,
			"name_modern":   s.NameModern,
			"district_name": s.DistrictName,
			"district_id":   s.DistrictID,
			"population": map[string]int64{
				"male":   s.Male,
				"female": s.Female,
				"total":  s.Total,
			},
			"counts": map[string]int64{
				"revision_count":  s.RevisionCount,
				"estates_count":   s.EstatesCount,
				"religions_count": s.ReligionsCount,
			},
			"estate_types":   estates.Aggregate(s.Estates),
			"filter_data":    s.Filter.normalized(),
			"estates_detail": nonNilRecords(s.Estates),
			"created_at":     s.CreatedAt,
			"updated_at":     s.UpdatedAt,
		}
		features = append(features, f)
	}

	fc := newCollection(Metadata{
		TableName:     TableSettlement,
		TotalCount:    len(settlements),
		ExportedCount: len(features),
		ExportedAt:    now.UTC(),
		Summary:       summarize(settlements),
	})
	fc.Features = features
	return fc
}

func summarize(settlements []Settlement) *Summary {
	types := make(map[int64]struct{})
	religions := make(map[int64]struct{})
	sum := &Summary{}
	for _, s := range settlements {
		sum.TotalPopulation += s.Total
		sum.TotalMale += s.Male
		sum.TotalFemale += s.Female
		for _, id := range s.Filter.TypeEstateIDs {
			types[id] = struct{}{}
		}
		for _, id := range s.Filter.ReligionIDs {
			religions[id] = struct{}{}
		}
	}
	sum.UniqueEstateTypes = len(types)
	sum.UniqueReligions = len(religions)
	return sum
}

func (f FilterData) normalized() FilterData {
	return FilterData{
		TypeEstateIDs:    nonNilIDs(f.TypeEstateIDs),
		SubtypeEstateIDs: nonNilIDs(f.SubtypeEstateIDs),
		ReligionIDs:      nonNilIDs(f.ReligionIDs),
		AffiliationIDs:   nonNilIDs(f.AffiliationIDs),
		VolostIDs:        nonNilIDs(f.VolostIDs),
		LandownerIDs:     nonNilIDs(f.LandownerIDs),
		MilitaryUnitIDs:  nonNilIDs(f.MilitaryUnitIDs),
	}
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func nonNilRecords(recs []estates.Record) []estates.Record {
	if recs == nil {
		return []estates.Record{}
	}
	return recs
}

// BBoxToPolygon turns [minLon, minLat, maxLon, maxLat] into a closed ring.
// Shorter input gives an empty polygon.
func BBoxToPolygon(bbox []float64) orb.Polygon {
	if len(bbox) < 4 {
		return orb.Polygon{}
	}
	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]
	return orb.Polygon{orb.Ring{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}}
}

// VectorLayersToGeoJSON exports each layer with a readable bbox as its
// bounding polygon. Layers without a bbox, or with one that does not parse,
// are left out.
func VectorLayersToGeoJSON(layers []sqlcgen.VectorLayer, now time.Time) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(layers))
	for _, l := range layers {
		if l.BBox == nil || *l.BBox == "" {
			continue
		}
		var bbox []float64
		if err := json.Unmarshal([]byte(*l.BBox), &bbox); err != nil {
			continue
		}
		f := geojson.NewFeature(BBoxToPolygon(bbox))
		f.Properties = geojson.Properties{
			"id":            l.ID,
			"name":          l.Name,
			"file_path":     l.FilePath,
			"file_url":      l.FileURL,
			"mime_type":     l.MimeType,
			"size":          l.Size,
			"size_label":    vectorlayers.FormatSize(derefInt64(l.Size)),
			"kind":          vectorlayers.KindFromFileName(deref(l.FilePath)),
			"feature_count": l.FeatureCount,
			"crs":           l.CRS,
			"tags":          l.Tags,
			"type_id":       l.TypeVectorLayerID,
			"type_name":     l.TypeName,
			"created_at":    l.CreatedAt,
			"updated_at":    l.UpdatedAt,
		}
		features = append(features, f)
	}

	fc := newCollection(Metadata{
		TableName:     TableVectorLayer,
		TotalCount:    len(layers),
		ExportedCount: len(features),
		ExportedAt:    now.UTC(),
	})
	fc.Features = features
	return fc
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// TableToGeoJSON wraps plain table rows as geometry-less features.
func TableToGeoJSON(table string, rows []map[string]any, now time.Time) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(rows))
	for i, row := range rows {
		props := make(geojson.Properties, len(row)+2)
		for k, v := range row {
			props[k] = v
		}
		props["id"] = row["id"]
		props["index"] = i
		features = append(features, &geojson.Feature{Type: "Feature", Properties: props})
	}

	fc := newCollection(Metadata{
		TableName:     table,
		TotalCount:    len(rows),
		ExportedCount: len(rows),
		ExportedAt:    now.UTC(),
	})
	fc.Features = features
	return fc
}
