package sqlcgen

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const settlementSummaryColumns = `
SELECT s.id,
       s.name_old,
       s.name_modern,
       s.lat,
       s.lon,
       s.id_district,
       d.name,
       COALESCE(SUM(e.male), 0)::bigint,
       COALESCE(SUM(e.female), 0)::bigint,
       COALESCE(SUM(COALESCE(e.male, 0) + COALESCE(e.female, 0)), 0)::bigint,
       COUNT(DISTINCT e.id_revision_report)::bigint,
       COUNT(e.id)::bigint,
       COUNT(DISTINCT se.id_type_religion)::bigint,
       COALESCE(array_remove(array_agg(DISTINCT se.id_type_estate), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT e.id_subtype_estate), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT se.id_type_religion), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT e.id_type_affiliation), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT e.id_volost), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT e.id_landowner), NULL), '{}')::bigint[],
       COALESCE(array_remove(array_agg(DISTINCT e.id_military_unit), NULL), '{}')::bigint[],
       s.created_at,
       s.updated_at
FROM "Settlement" s
LEFT JOIN "District" d ON d.id = s.id_district
LEFT JOIN "Estate" e ON e.id_settlement = s.id
LEFT JOIN "Subtype_estate" se ON se.id = e.id_subtype_estate
`

const listSettlementSummaries = `-- name: ListSettlementSummaries :many` + settlementSummaryColumns + `
WHERE s.name_old IS NOT NULL
GROUP BY s.id, d.name
ORDER BY s.id
`

func scanSettlementSummary(row pgx.Row) (SettlementSummary, error) {
	var i SettlementSummary
	err := row.Scan(
		&i.ID,
		&i.NameOld,
		&i.NameModern,
		&i.Lat,
		&i.Lon,
		&i.DistrictID,
		&i.DistrictName,
		&i.Male,
		&i.Female,
		&i.Total,
		&i.RevisionCount,
		&i.EstatesCount,
		&i.ReligionsCount,
		&i.TypeEstateIDs,
		&i.SubtypeIDs,
		&i.ReligionIDs,
		&i.AffiliationIDs,
		&i.VolostIDs,
		&i.LandownerIDs,
		&i.MilitaryUnitIDs,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) ListSettlementSummaries(ctx context.Context) ([]SettlementSummary, error) {
	rows, err := q.db.Query(ctx, listSettlementSummaries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SettlementSummary
	for rows.Next() {
		i, err := scanSettlementSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSettlementSummary = `-- name: GetSettlementSummary :one` + settlementSummaryColumns + `
WHERE s.id = $1
GROUP BY s.id, d.name
`

func (q *Queries) GetSettlementSummary(ctx context.Context, id int64) (SettlementSummary, error) {
	return scanSettlementSummary(q.db.QueryRow(ctx, getSettlementSummary, id))
}

const listEstatesForSettlements = `-- name: ListEstatesForSettlements :many
SELECT e.id,
       e.id_settlement,
       e.id_subtype_estate,
       se.name,
       se.id_type_estate,
       te.name,
       te.color,
       se.id_type_religion,
       tr.name,
       e.male,
       e.female
FROM "Estate" e
LEFT JOIN "Subtype_estate" se ON se.id = e.id_subtype_estate
LEFT JOIN "Type_estate" te ON te.id = se.id_type_estate
LEFT JOIN "Type_religion" tr ON tr.id = se.id_type_religion
WHERE e.id_settlement = ANY($1::bigint[])
ORDER BY e.id_settlement, e.id
`

func (q *Queries) ListEstatesForSettlements(ctx context.Context, settlementIDs []int64) ([]SettlementEstate, error) {
	rows, err := q.db.Query(ctx, listEstatesForSettlements, settlementIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SettlementEstate
	for rows.Next() {
		var i SettlementEstate
		if err := rows.Scan(
			&i.ID,
			&i.SettlementID,
			&i.SubtypeEstateID,
			&i.SubtypeName,
			&i.TypeEstateID,
			&i.TypeEstateName,
			&i.TypeColor,
			&i.ReligionID,
			&i.ReligionName,
			&i.Male,
			&i.Female,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTypeEstateColors = `-- name: ListTypeEstateColors :many
SELECT id,
       name,
       color
FROM "Type_estate"
WHERE color IS NOT NULL
ORDER BY id
`

func (q *Queries) ListTypeEstateColors(ctx context.Context) ([]TypeEstateColor, error) {
	rows, err := q.db.Query(ctx, listTypeEstateColors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TypeEstateColor
	for rows.Next() {
		var i TypeEstateColor
		if err := rows.Scan(&i.ID, &i.Name, &i.Color); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// EstateTypeColors keys the type colours by id.
func (q *Queries) EstateTypeColors(ctx context.Context) (map[int64]string, error) {
	rows, err := q.ListTypeEstateColors(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(rows))
	for _, r := range rows {
		if r.Color != nil {
			out[r.ID] = *r.Color
		}
	}
	return out, nil
}

const listVectorLayers = `-- name: ListVectorLayers :many
SELECT v.id,
       v.name,
       v.file_path,
       v.file_url,
       v.mime_type,
       v.size,
       v.feature_count,
       v.crs,
       v.tags,
       v.bbox::text,
       v.id_type_vector_layer,
       t.name,
       v.created_at,
       v.updated_at
FROM "Vector_layer" v
LEFT JOIN "Type_vector_layer" t ON t.id = v.id_type_vector_layer
ORDER BY v.id
`

func (q *Queries) ListVectorLayers(ctx context.Context) ([]VectorLayer, error) {
	rows, err := q.db.Query(ctx, listVectorLayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []VectorLayer
	for rows.Next() {
		var i VectorLayer
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.FilePath,
			&i.FileURL,
			&i.MimeType,
			&i.Size,
			&i.FeatureCount,
			&i.CRS,
			&i.Tags,
			&i.BBox,
			&i.TypeVectorLayerID,
			&i.TypeName,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Tables lists the census tables that can be counted and dumped.
var Tables = []string{
	"District",
	"Estate",
	"Landowner",
	"Military_unit",
	"Report_record",
	"Revision_report",
	"Settlement",
	"Subtype_estate",
	"Type_affiliation",
	"Type_estate",
	"Type_religion",
	"Type_vector_layer",
	"Vector_layer",
	"Volost",
}

func quotedTable(table string) (string, error) {
	for _, t := range Tables {
		if t == table {
			return pgx.Identifier{t}.Sanitize(), nil
		}
	}
	return "", fmt.Errorf("unknown table %q", table)
}

func (q *Queries) CountTable(ctx context.Context, table string) (int64, error) {
	name, err := quotedTable(table)
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&n)
	return n, err
}

// ListTableRows returns one page of a census table as column maps, ordered
// by id so pages are stable.
func (q *Queries) ListTableRows(ctx context.Context, table string, limit, offset int) ([]map[string]any, error) {
	name, err := quotedTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, "SELECT * FROM "+name+" ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}
