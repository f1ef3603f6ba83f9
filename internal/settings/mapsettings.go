package settings

import (
	"context"

	"tahisis/core-go/internal/colors"
)

type ColorMode string

const (
	ColorByEstateType ColorMode = "by_estate_type"
	ColorByDistrict   ColorMode = "by_district"
)

func (m ColorMode) Valid() bool {
	return m == ColorByEstateType || m == ColorByDistrict
}

// MapFilters are session-only and never written to the store.
type MapFilters struct {
	Revision    *int64  `json:"revision"`
	Districts   []int64 `json:"districts"`
	TypeEstates []int64 `json:"typeEstates"`
}

type Display struct {
	ShowLabels bool    `json:"showLabels"`
	MarkerSize string  `json:"markerSize"`
	Opacity    float64 `json:"opacity"`
}

type MapSettings struct {
	ColorMode            ColorMode              `json:"colorMode"`
	EstateTypeColors     map[string]string      `json:"estateTypeColors"`
	DistrictColors       map[string]string      `json:"districtColors"`
	Filters              MapFilters             `json:"filters"`
	Display              Display                `json:"display"`
	PopulationColorRange colors.PopulationRange `json:"populationColorRange"`
}

// persistedMap is what survives a reload: filters and generated district
// colours are left out.
type persistedMap struct {
	ColorMode            ColorMode               `json:"colorMode"`
	EstateTypeColors     map[string]string       `json:"estateTypeColors"`
	Display              Display                 `json:"display"`
	PopulationColorRange *colors.PopulationRange `json:"populationColorRange,omitempty"`
}

func DefaultMapSettings() MapSettings {
	return MapSettings{
		ColorMode:        ColorByEstateType,
		EstateTypeColors: map[string]string{"default": colors.Default},
		DistrictColors:   map[string]string{},
		Filters:          MapFilters{Districts: []int64{}, TypeEstates: []int64{}},
		Display: Display{
			ShowLabels: false,
			MarkerSize: "medium",
			Opacity:    0.8,
		},
		PopulationColorRange: colors.DefaultPopulationRange(),
	}
}

// MarkerColor picks a marker colour for the active mode. District colours
// are generated on first use and remembered.
func (s *MapSettings) MarkerColor(estateType, district string) string {
	fallback := s.EstateTypeColors["default"]
	if fallback == "" {
		fallback = colors.Default
	}
	switch s.ColorMode {
	case ColorByDistrict:
		if district == "" {
			return fallback
		}
		if s.DistrictColors == nil {
			s.DistrictColors = map[string]string{}
		}
		c, ok := s.DistrictColors[district]
		if !ok {
			c = colors.DistrictColor(district)
			s.DistrictColors[district] = c
		}
		return c
	default:
		if c, ok := s.EstateTypeColors[estateType]; ok && estateType != "" {
			return c
		}
		return fallback
	}
}

// LoadMapSettings merges the saved fields over the defaults.
func LoadMapSettings(ctx context.Context, st Store) (MapSettings, error) {
	out := DefaultMapSettings()
	var saved persistedMap
	ok, err := st.Load(ctx, KeyMapSettings, &saved)
	if err != nil || !ok {
		return out, err
	}
	if saved.ColorMode.Valid() {
		out.ColorMode = saved.ColorMode
	}
	for name, c := range saved.EstateTypeColors {
		out.EstateTypeColors[name] = colors.SafeReadHSL(c)
	}
	if saved.Display.MarkerSize != "" {
		out.Display = saved.Display
	}
	if saved.PopulationColorRange != nil {
		out.PopulationColorRange = *saved.PopulationColorRange
	}
	return out, nil
}

func SaveMapSettings(ctx context.Context, st Store, s MapSettings) error {
	rng := s.PopulationColorRange
	return st.Save(ctx, KeyMapSettings, persistedMap{
		ColorMode:            s.ColorMode,
		EstateTypeColors:     s.EstateTypeColors,
		Display:              s.Display,
		PopulationColorRange: &rng,
	})
}
