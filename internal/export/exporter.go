package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"tahisis/core-go/internal/estates"
	"tahisis/core-go/internal/metrics"
	"tahisis/core-go/internal/sqlcgen"
)

// DefaultBatchSize is the page size used when dumping a table.
const DefaultBatchSize = 1000

// ErrNoData is returned when a settlement export finds nothing to export.
var ErrNoData = errors.New("no settlements to export")

// Source is the read side of the census database. *sqlcgen.Queries
// satisfies it.
type Source interface {
	ListSettlementSummaries(ctx context.Context) ([]sqlcgen.SettlementSummary, error)
	ListEstatesForSettlements(ctx context.Context, settlementIDs []int64) ([]sqlcgen.SettlementEstate, error)
	ListVectorLayers(ctx context.Context) ([]sqlcgen.VectorLayer, error)
	CountTable(ctx context.Context, table string) (int64, error)
	ListTableRows(ctx context.Context, table string, limit, offset int) ([]map[string]any, error)
}

type TableInfo struct {
	Name        string `json:"name"`
	Count       int64  `json:"count"`
	HasGeometry bool   `json:"hasGeometry"`
}

type TableResult struct {
	Success bool                       `json:"success"`
	Count   int                        `json:"count"`
	Data    *geojson.FeatureCollection `json:"data,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

type AllTablesSummary struct {
	TotalTables       int       `json:"totalTables"`
	SuccessfulExports int       `json:"successfulExports"`
	TotalRecords      int       `json:"totalRecords"`
	ExportedAt        time.Time `json:"exportedAt"`
}

type AllTablesResult struct {
	Results map[string]TableResult `json:"results"`
	Summary AllTablesSummary       `json:"summary"`
}

type Statistics struct {
	TotalTables   int         `json:"totalTables"`
	TotalRecords  int64       `json:"totalRecords"`
	GeoTables     int         `json:"geoTables"`
	RegularTables int         `json:"regularTables"`
	Tables        []TableInfo `json:"tables"`
}

type Options struct {
	BatchSize int
	Colors    *estates.ColorTable
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type Exporter struct {
	log       zerolog.Logger
	src       Source
	colors    *estates.ColorTable
	metrics   *metrics.Metrics
	batchSize int
	now       func() time.Time
}

func New(log zerolog.Logger, src Source, opts Options) *Exporter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Exporter{
		log:       log,
		src:       src,
		colors:    opts.Colors,
		metrics:   opts.Metrics,
		batchSize: opts.BatchSize,
		now:       opts.Now,
	}
}

// NonEmptyTables counts every known table and keeps those with rows,
// largest first. A table that fails to count is logged and skipped.
func (e *Exporter) NonEmptyTables(ctx context.Context) ([]TableInfo, error) {
	out := make([]TableInfo, 0, len(sqlcgen.Tables))
	for _, table := range sqlcgen.Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := e.src.CountTable(ctx, table)
		if err != nil {
			e.log.Warn().Err(err).Str("table", table).Msg("count table failed")
			continue
		}
		if n > 0 {
			out = append(out, TableInfo{Name: table, Count: n, HasGeometry: HasGeometry(table)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// AllRows pages through a table until a short page comes back.
func (e *Exporter) AllRows(ctx context.Context, table string) ([]map[string]any, error) {
	var all []map[string]any
	for offset := 0; ; offset += e.batchSize {
		page, err := e.src.ListTableRows(ctx, table, e.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list %s rows at offset %d: %w", table, offset, err)
		}
		all = append(all, page...)
		if len(page) < e.batchSize {
			break
		}
	}
	if all == nil {
		all = []map[string]any{}
	}
	return all, nil
}

// LoadSettlements joins settlement summaries with their estate records.
func (e *Exporter) LoadSettlements(ctx context.Context) ([]Settlement, error) {
	summaries, err := e.src.ListSettlementSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	if len(summaries) == 0 {
		return []Settlement{}, nil
	}

	ids := make([]int64, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	rows, err := e.src.ListEstatesForSettlements(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list estates: %w", err)
	}
	bySettlement := make(map[int64][]estates.Record, len(summaries))
	for _, r := range rows {
		bySettlement[r.SettlementID] = append(bySettlement[r.SettlementID], RecordFromRow(r))
	}

	if e.colors != nil {
		if _, err := e.colors.Load(ctx); err != nil {
			e.log.Warn().Err(err).Msg("exporting without estate type colors")
		}
	}

	out := make([]Settlement, 0, len(summaries))
	for _, s := range summaries {
		recs := bySettlement[s.ID]
		if e.colors != nil {
			recs = e.colors.Apply(recs)
		}
		out = append(out, SettlementFromSummary(s, recs))
	}
	return out, nil
}

// ExportSettlements exports every settlement with coordinates.
func (e *Exporter) ExportSettlements(ctx context.Context) (*geojson.FeatureCollection, error) {
	start := e.now()
	settlements, err := e.LoadSettlements(ctx)
	if err != nil {
		e.metrics.ObserveExportRun(false, e.now().Sub(start))
		return nil, err
	}
	if len(settlements) == 0 {
		e.metrics.ObserveExportRun(false, e.now().Sub(start))
		return nil, ErrNoData
	}
	fc := SettlementsToGeoJSON(settlements, e.now())
	e.metrics.AddExportedFeatures(TableSettlement, len(fc.Features))
	e.metrics.ObserveExportRun(true, e.now().Sub(start))
	return fc, nil
}

// ExportTable exports a single table, choosing the conversion by table.
func (e *Exporter) ExportTable(ctx context.Context, table string) (*geojson.FeatureCollection, error) {
	var fc *geojson.FeatureCollection
	switch table {
	case TableSettlement:
		settlements, err := e.LoadSettlements(ctx)
		if err != nil {
			return nil, err
		}
		fc = SettlementsToGeoJSON(settlements, e.now())
	case TableVectorLayer:
		layers, err := e.src.ListVectorLayers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list vector layers: %w", err)
		}
		fc = VectorLayersToGeoJSON(layers, e.now())
	default:
		rows, err := e.AllRows(ctx, table)
		if err != nil {
			return nil, err
		}
		fc = TableToGeoJSON(table, rows, e.now())
	}
	e.metrics.AddExportedFeatures(table, len(fc.Features))
	return fc, nil
}

// ExportAllTables exports every non-empty table. Per-table failures are
// recorded in the result and do not stop the run.
func (e *Exporter) ExportAllTables(ctx context.Context) (AllTablesResult, error) {
	start := e.now()
	tables, err := e.NonEmptyTables(ctx)
	if err != nil {
		e.metrics.ObserveExportRun(false, e.now().Sub(start))
		return AllTablesResult{}, err
	}

	res := AllTablesResult{Results: make(map[string]TableResult, len(tables))}
	for _, t := range tables {
		fc, err := e.ExportTable(ctx, t.Name)
		if err != nil {
			e.log.Warn().Err(err).Str("table", t.Name).Msg("table export failed")
			res.Results[t.Name] = TableResult{Success: false, Error: err.Error()}
			continue
		}
		res.Results[t.Name] = TableResult{Success: true, Count: len(fc.Features), Data: fc}
		res.Summary.SuccessfulExports++
		res.Summary.TotalRecords += len(fc.Features)
	}
	res.Summary.TotalTables = len(tables)
	res.Summary.ExportedAt = e.now().UTC()

	e.metrics.ObserveExportRun(true, e.now().Sub(start))
	e.log.Info().
		Int("tables", res.Summary.TotalTables).
		Int("ok", res.Summary.SuccessfulExports).
		Int("records", res.Summary.TotalRecords).
		Msg("export finished")
	return res, nil
}

func (e *Exporter) Statistics(ctx context.Context) (Statistics, error) {
	tables, err := e.NonEmptyTables(ctx)
	if err != nil {
		return Statistics{}, err
	}
	st := Statistics{TotalTables: len(tables), Tables: tables}
	for _, t := range tables {
		st.TotalRecords += t.Count
		if t.HasGeometry {
			st.GeoTables++
		} else {
			st.RegularTables++
		}
	}
	return st, nil
}

func RecordFromRow(r sqlcgen.SettlementEstate) estates.Record {
	rec := estates.Record{
		TypeEstateID:      positive(r.TypeEstateID),
		SubtypeEstateID:   positive(r.SubtypeEstateID),
		ReligionID:        positive(r.ReligionID),
		TypeEstateName:    deref(r.TypeEstateName),
		SubtypeEstateName: deref(r.SubtypeName),
		ReligionName:      deref(r.ReligionName),
		TypeColor:         r.TypeColor,
	}
	if r.TypeColor != nil && *r.TypeColor == "" {
		rec.TypeColor = nil
	}
	if r.Male != nil && *r.Male > 0 {
		rec.Male = int(*r.Male)
	}
	if r.Female != nil && *r.Female > 0 {
		rec.Female = int(*r.Female)
	}
	return rec
}

func SettlementFromSummary(s sqlcgen.SettlementSummary, recs []estates.Record) Settlement {
	return Settlement{
		ID:             s.ID,
		NameOld:        deref(s.NameOld),
		NameModern:     deref(s.NameModern),
		DistrictID:     s.DistrictID,
		DistrictName:   deref(s.DistrictName),
		Lat:            s.Lat,
		Lon:            s.Lon,
		Male:           s.Male,
		Female:         s.Female,
		Total:          s.Total,
		RevisionCount:  s.RevisionCount,
		EstatesCount:   s.EstatesCount,
		ReligionsCount: s.ReligionsCount,
		Filter: FilterData{
			TypeEstateIDs:    s.TypeEstateIDs,
			SubtypeEstateIDs: s.SubtypeIDs,
			ReligionIDs:      s.ReligionIDs,
			AffiliationIDs:   s.AffiliationIDs,
			VolostIDs:        s.VolostIDs,
			LandownerIDs:     s.LandownerIDs,
			MilitaryUnitIDs:  s.MilitaryUnitIDs,
		},
		Estates:   recs,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func positive(id *int64) *int64 {
	if id == nil || *id <= 0 {
		return nil
	}
	return id
}
