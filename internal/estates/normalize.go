package estates

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Known field aliases, in lookup order. Nested paths follow the joined row
// shape returned by the census tables (Estate -> Subtype_estate -> Type_estate).
var (
	maleAliases         = []string{"male", "maleCount", "male_count"}
	femaleAliases       = []string{"female", "femaleCount", "female_count"}
	totalAliases        = []string{"total", "totalCount", "total_count"}
	typeIDAliases       = []string{"typeEstateId", "type_estate_id", "Subtype_estate.id_type_estate"}
	subtypeIDAliases    = []string{"subtypeEstateId", "id_subtype_estate", "subtype_estate_id"}
	religionIDAliases   = []string{"religionId", "type_religion_id", "Subtype_estate.id_type_religion"}
	typeNameAliases     = []string{"typeEstateName", "type_estate_name", "Subtype_estate.Type_estate.name"}
	subtypeNameAliases  = []string{"subtypeEstateName", "subtype_estate_name", "Subtype_estate.name"}
	religionNameAliases = []string{"religionName", "type_religion_name", "Subtype_estate.Type_religion.name"}
	typeColorAliases    = []string{"typeColor", "type_color", "Subtype_estate.Type_estate.color"}
)

// maxExact is the largest float64 that still holds every integer below it
// exactly. Larger numbers are treated as unreadable.
const maxExact = 1 << 53

// Normalize maps one loosely shaped JSON estate object onto Record. It never
// fails: unreadable numbers become zero and unreadable ids are left unset.
func Normalize(raw []byte) Record {
	return normalizeResult(gjson.ParseBytes(raw))
}

// NormalizeAll accepts either a JSON array of estate objects or a single
// object. Anything else yields no records.
func NormalizeAll(raw []byte) []Record {
	doc := gjson.ParseBytes(raw)
	switch {
	case doc.IsArray():
		var out []Record
		doc.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				out = append(out, normalizeResult(v))
			}
			return true
		})
		return out
	case doc.IsObject():
		return []Record{normalizeResult(doc)}
	default:
		return nil
	}
}

func normalizeResult(doc gjson.Result) Record {
	rec := Record{
		TypeEstateID:      idOf(doc, typeIDAliases...),
		SubtypeEstateID:   idOf(doc, subtypeIDAliases...),
		ReligionID:        idOf(doc, religionIDAliases...),
		TypeEstateName:    stringOf(doc, typeNameAliases...),
		SubtypeEstateName: stringOf(doc, subtypeNameAliases...),
		ReligionName:      stringOf(doc, religionNameAliases...),
		Male:              countOf(doc, maleAliases...),
		Female:            countOf(doc, femaleAliases...),
	}
	if c := stringOf(doc, typeColorAliases...); c != "" {
		rec.TypeColor = &c
	}
	if n, ok := numberOf(doc, totalAliases...); ok && n > 0 && n <= maxExact {
		total := int(n)
		rec.Total = &total
	}
	return rec
}

func lookup(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		r := doc.Get(p)
		if r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func numberOf(doc gjson.Result, paths ...string) (float64, bool) {
	r := lookup(doc, paths...)
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func countOf(doc gjson.Result, paths ...string) int {
	n, ok := numberOf(doc, paths...)
	if !ok || n < 0 || n > maxExact {
		return 0
	}
	return int(n)
}

// idOf treats zero and negative ids as missing, matching how the census
// tables never issue them.
func idOf(doc gjson.Result, paths ...string) *int64 {
	n, ok := numberOf(doc, paths...)
	if !ok || n < 1 || n > maxExact || n != math.Trunc(n) {
		return nil
	}
	id := int64(n)
	return &id
}

func stringOf(doc gjson.Result, paths ...string) string {
	r := lookup(doc, paths...)
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.Str)
}
