package settings

import "context"

const (
	ProviderLeaflet    = "leaflet"
	ProviderOpenLayers = "openlayers"
)

type LatLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// MapView is the last map viewport. Bounds are [[south, west], [north, east]]
// in EPSG:4326.
type MapView struct {
	Center   LatLon         `json:"center"`
	Zoom     *float64       `json:"zoom"`
	Bounds   *[2][2]float64 `json:"bounds"`
	Provider string         `json:"provider"`
}

// SetLeafletView records a Leaflet viewport.
func (v *MapView) SetLeafletView(lat, lon, zoom, south, west, north, east float64) {
	v.Center = LatLon{Lat: &lat, Lon: &lon}
	v.Zoom = &zoom
	v.Bounds = &[2][2]float64{{south, west}, {north, east}}
	v.Provider = ProviderLeaflet
}

// SetOpenLayersView records an OpenLayers viewport. A center that is not a
// lon/lat pair, a nil zoom or an extent that is not four numbers leaves the
// matching field as it was.
func (v *MapView) SetOpenLayersView(centerLonLat []float64, zoom *float64, extent []float64) {
	if len(centerLonLat) >= 2 {
		lon, lat := centerLonLat[0], centerLonLat[1]
		v.Center = LatLon{Lat: &lat, Lon: &lon}
	}
	if zoom != nil {
		z := *zoom
		v.Zoom = &z
	}
	if len(extent) == 4 {
		minLon, minLat, maxLon, maxLat := extent[0], extent[1], extent[2], extent[3]
		v.Bounds = &[2][2]float64{{minLat, minLon}, {maxLat, maxLon}}
	}
	v.Provider = ProviderOpenLayers
}

func LoadMapView(ctx context.Context, st Store) (MapView, error) {
	var out MapView
	var saved MapView
	ok, err := st.Load(ctx, KeyMapView, &saved)
	if err != nil || !ok {
		return out, err
	}
	if saved.Center.Lat != nil || saved.Center.Lon != nil {
		out.Center = saved.Center
	}
	out.Zoom = saved.Zoom
	out.Bounds = saved.Bounds
	out.Provider = saved.Provider
	return out, nil
}

func SaveMapView(ctx context.Context, st Store, v MapView) error {
	return st.Save(ctx, KeyMapView, v)
}
