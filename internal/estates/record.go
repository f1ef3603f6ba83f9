package estates

const (
	UnknownType     = "Неизвестный тип"
	UnknownSubtype  = "Неизвестный подтип"
	UnknownReligion = "Неизвестная религия"
)

// Record is one census estate entry of a settlement in canonical shape.
// Everything loosely shaped goes through Normalize before it gets here.
type Record struct {
	TypeEstateID    *int64 `json:"type_estate_id,omitempty"`
	SubtypeEstateID *int64 `json:"subtype_estate_id,omitempty"`
	ReligionID      *int64 `json:"religion_id,omitempty"`

	TypeEstateName    string `json:"type_estate_name,omitempty"`
	SubtypeEstateName string `json:"subtype_estate_name,omitempty"`
	ReligionName      string `json:"type_religion_name,omitempty"`

	// TypeColor comes from the external colour table; it is never computed.
	TypeColor *string `json:"type_color,omitempty"`

	Male   int  `json:"male"`
	Female int  `json:"female"`
	Total  *int `json:"total,omitempty"`
}

// Population is the explicit total when one was recorded, male+female otherwise.
func (r Record) Population() int {
	if r.Total != nil && *r.Total > 0 {
		return *r.Total
	}
	return nonNegative(r.Male) + nonNegative(r.Female)
}

func (r Record) typeName() string {
	if r.TypeEstateName == "" {
		return UnknownType
	}
	return r.TypeEstateName
}

func (r Record) subtypeName() string {
	if r.SubtypeEstateName == "" {
		return UnknownSubtype
	}
	return r.SubtypeEstateName
}

func (r Record) religionName() string {
	if r.ReligionName == "" {
		return UnknownReligion
	}
	return r.ReligionName
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
