package sqlcgen

import "time"

type SettlementSummary struct {
	ID              int64
	NameOld         *string
	NameModern      *string
	Lat             *float64
	Lon             *float64
	DistrictID      *int64
	DistrictName    *string
	Male            int64
	Female          int64
	Total           int64
	RevisionCount   int64
	EstatesCount    int64
	ReligionsCount  int64
	TypeEstateIDs   []int64
	SubtypeIDs      []int64
	ReligionIDs     []int64
	AffiliationIDs  []int64
	VolostIDs       []int64
	LandownerIDs    []int64
	MilitaryUnitIDs []int64
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

type SettlementEstate struct {
	ID              int64
	SettlementID    int64
	SubtypeEstateID *int64
	SubtypeName     *string
	TypeEstateID    *int64
	TypeEstateName  *string
	TypeColor       *string
	ReligionID      *int64
	ReligionName    *string
	Male            *int32
	Female          *int32
}

type TypeEstateColor struct {
	ID    int64
	Name  string
	Color *string
}

type VectorLayer struct {
	ID                int64
	Name              *string
	FilePath          *string
	FileURL           *string
	MimeType          *string
	Size              *int64
	FeatureCount      *int32
	CRS               *string
	Tags              []string
	BBox              *string
	TypeVectorLayerID *int64
	TypeName          *string
	CreatedAt         *time.Time
	UpdatedAt         *time.Time
}
