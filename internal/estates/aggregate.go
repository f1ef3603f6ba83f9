package estates

import (
	"sort"
	"strconv"
)

type AggregatedSubtype struct {
	SubtypeID       *int64   `json:"subtype_id"`
	SubtypeKey      string   `json:"subtype_key"`
	SubtypeName     string   `json:"subtype_name"`
	Male            int      `json:"male"`
	Female          int      `json:"female"`
	Count           int      `json:"count"`
	Population      int      `json:"population"`
	Religions       []string `json:"religions"`
	UsesFallbackKey bool     `json:"uses_fallback_key"`
}

type AggregatedType struct {
	TypeID           *int64              `json:"type_id"`
	TypeKey          string              `json:"type_key"`
	TypeName         string              `json:"type_name"`
	TypeColor        *string             `json:"type_color"`
	TotalMale        int                 `json:"total_male"`
	TotalFemale      int                 `json:"total_female"`
	TotalCount       int                 `json:"total_count"`
	TotalPopulation  int                 `json:"total_population"`
	Religions        []string            `json:"religions"`
	UsesFallbackKeys bool                `json:"uses_fallback_keys"`
	Subtypes         []AggregatedSubtype `json:"subtypes"`
}

// Population is the number of people in the group. A record's explicit
// total wins over its male and female counts.
func (t AggregatedType) Population() int {
	return t.TotalPopulation
}

// groupKey keeps id keys and name keys in separate spaces so id 7 never
// merges with a type literally named "7".
type groupKey struct {
	id     int64
	name   string
	byName bool
}

func keyFor(id *int64, name string) groupKey {
	if id != nil {
		return groupKey{id: *id}
	}
	return groupKey{name: name, byName: true}
}

func (k groupKey) String() string {
	if k.byName {
		return k.name
	}
	return strconv.FormatInt(k.id, 10)
}

type religionSet struct {
	seen  map[string]struct{}
	order []string
}

func (s *religionSet) add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.order = append(s.order, name)
}

func (s *religionSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

type subtypeGroup struct {
	out       AggregatedSubtype
	religions religionSet
}

type typeGroup struct {
	out       AggregatedType
	religions religionSet
	subtypes  []*subtypeGroup
	byKey     map[groupKey]*subtypeGroup
}

// Aggregate groups the estate records of one settlement by type and subtype
// and sums their counts. Types are ordered by descending record count, and
// subtypes inside each type likewise; ties keep first-seen order.
func Aggregate(records []Record) []AggregatedType {
	if len(records) == 0 {
		return []AggregatedType{}
	}

	var groups []*typeGroup
	byKey := make(map[groupKey]*typeGroup)

	for _, rec := range records {
		tk := keyFor(rec.TypeEstateID, rec.typeName())
		sk := keyFor(rec.SubtypeEstateID, rec.subtypeName())
		religion := rec.religionName()
		male := nonNegative(rec.Male)
		female := nonNegative(rec.Female)
		population := rec.Population()

		tg, ok := byKey[tk]
		if !ok {
			tg = &typeGroup{
				out: AggregatedType{
					TypeID:   copyID(rec.TypeEstateID),
					TypeKey:  tk.String(),
					TypeName: rec.typeName(),
				},
				byKey: make(map[groupKey]*subtypeGroup),
			}
			byKey[tk] = tg
			groups = append(groups, tg)
		}
		if tg.out.TypeColor == nil && rec.TypeColor != nil && *rec.TypeColor != "" {
			c := *rec.TypeColor
			tg.out.TypeColor = &c
		}
		if rec.TypeEstateID == nil || rec.SubtypeEstateID == nil {
			tg.out.UsesFallbackKeys = true
		}

		sg, ok := tg.byKey[sk]
		if !ok {
			sg = &subtypeGroup{
				out: AggregatedSubtype{
					SubtypeID:   copyID(rec.SubtypeEstateID),
					SubtypeKey:  sk.String(),
					SubtypeName: rec.subtypeName(),
				},
			}
			tg.byKey[sk] = sg
			tg.subtypes = append(tg.subtypes, sg)
		}
		if rec.SubtypeEstateID == nil {
			sg.out.UsesFallbackKey = true
		}

		sg.out.Male += male
		sg.out.Female += female
		sg.out.Count++
		sg.out.Population += population
		sg.religions.add(religion)

		tg.out.TotalMale += male
		tg.out.TotalFemale += female
		tg.out.TotalCount++
		tg.out.TotalPopulation += population
		tg.religions.add(religion)
	}

	out := make([]AggregatedType, 0, len(groups))
	for _, tg := range groups {
		t := tg.out
		t.Religions = tg.religions.list()
		t.Subtypes = make([]AggregatedSubtype, 0, len(tg.subtypes))
		for _, sg := range tg.subtypes {
			s := sg.out
			s.Religions = sg.religions.list()
			t.Subtypes = append(t.Subtypes, s)
		}
		sort.SliceStable(t.Subtypes, func(i, j int) bool {
			return t.Subtypes[i].Count > t.Subtypes[j].Count
		})
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalCount > out[j].TotalCount
	})
	return out
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
