package settings

import (
	"context"
	"encoding/json"
)

// EstatesFilters is the filter panel of the estates tables.
type EstatesFilters struct {
	Revision              []int64  `json:"revision"`
	Districts             []int64  `json:"districts"`
	SettlementNamesOld    []string `json:"settlementNamesOld"`
	SettlementNamesModern []string `json:"settlementNamesModern"`
	TypeEstates           []int64  `json:"typeEstates"`
	SubtypeEstates        []int64  `json:"subtypeEstates"`
	Religions             []int64  `json:"religions"`
	Affiliations          []int64  `json:"affiliations"`
	Volosts               []int64  `json:"volosts"`
	Landowners            []int64  `json:"landowners"`
	MilitaryUnits         []int64  `json:"militaryUnits"`

	MaleEnabled         bool `json:"maleEnabled"`
	FemaleEnabled       bool `json:"femaleEnabled"`
	PopulationEnabled   bool `json:"populationEnabled"`
	EstatesCountEnabled bool `json:"estatesCountEnabled"`

	MaleMin         *int `json:"maleMin"`
	MaleMax         *int `json:"maleMax"`
	FemaleMin       *int `json:"femaleMin"`
	FemaleMax       *int `json:"femaleMax"`
	PopulationMin   *int `json:"populationMin"`
	PopulationMax   *int `json:"populationMax"`
	EstatesCountMin *int `json:"estatesCountMin"`
	EstatesCountMax *int `json:"estatesCountMax"`
}

func DefaultEstatesFilters() EstatesFilters {
	return EstatesFilters{
		Revision:              []int64{},
		Districts:             []int64{},
		SettlementNamesOld:    []string{},
		SettlementNamesModern: []string{},
		TypeEstates:           []int64{},
		SubtypeEstates:        []int64{},
		Religions:             []int64{},
		Affiliations:          []int64{},
		Volosts:               []int64{},
		Landowners:            []int64{},
		MilitaryUnits:         []int64{},
	}
}

// LoadEstatesFilters decodes the saved filters on top of the defaults, so
// keys missing from the saved value keep their default.
func LoadEstatesFilters(ctx context.Context, st Store) (EstatesFilters, error) {
	out := DefaultEstatesFilters()
	var raw json.RawMessage
	ok, err := st.Load(ctx, KeyEstatesFilters, &raw)
	if err != nil || !ok {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return DefaultEstatesFilters(), err
	}
	return out, nil
}

func SaveEstatesFilters(ctx context.Context, st Store, f EstatesFilters) error {
	return st.Save(ctx, KeyEstatesFilters, f)
}

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type TableSorting struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

func DefaultTableSorting() TableSorting {
	return TableSorting{Column: "name", Order: OrderAsc}
}

// Toggle flips the order when column is already sorted on, otherwise it
// switches to column ascending.
func (s *TableSorting) Toggle(column string) {
	if s.Column == column {
		if s.Order == OrderAsc {
			s.Order = OrderDesc
		} else {
			s.Order = OrderAsc
		}
		return
	}
	s.Column = column
	s.Order = OrderAsc
}

func LoadTableSorting(ctx context.Context, st Store) (TableSorting, error) {
	out := DefaultTableSorting()
	var saved TableSorting
	ok, err := st.Load(ctx, KeyEstatesSorting, &saved)
	if err != nil || !ok {
		return out, err
	}
	if saved.Column != "" {
		out.Column = saved.Column
	}
	if saved.Order == OrderAsc || saved.Order == OrderDesc {
		out.Order = saved.Order
	}
	return out, nil
}

func SaveTableSorting(ctx context.Context, st Store, s TableSorting) error {
	return st.Save(ctx, KeyEstatesSorting, s)
}

type TableSettings struct {
	PageSize    int `json:"pageSize"`
	CurrentPage int `json:"currentPage"`
}

func DefaultTableSettings() TableSettings {
	return TableSettings{PageSize: 50, CurrentPage: 1}
}

func LoadTableSettings(ctx context.Context, st Store) (TableSettings, error) {
	out := DefaultTableSettings()
	var raw json.RawMessage
	ok, err := st.Load(ctx, KeyTableSettings, &raw)
	if err != nil || !ok {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return DefaultTableSettings(), err
	}
	return out, nil
}

func SaveTableSettings(ctx context.Context, st Store, s TableSettings) error {
	return st.Save(ctx, KeyTableSettings, s)
}
