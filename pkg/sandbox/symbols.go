package sandbox

import (
	"reflect"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/traefik/yaegi/interp"

	"github.com/soundprediction/go-geoai/pkg/chart"
	"github.com/soundprediction/go-geoai/pkg/frame"
	"github.com/soundprediction/go-geoai/pkg/geo"
	"github.com/soundprediction/go-geoai/pkg/webmap"
)

// Import paths generated code may use besides the standard library subset.
const (
	FramePath   = "github.com/soundprediction/go-geoai/pkg/frame"
	GeoPath     = "github.com/soundprediction/go-geoai/pkg/geo"
	ChartPath   = "github.com/soundprediction/go-geoai/pkg/chart"
	WebmapPath  = "github.com/soundprediction/go-geoai/pkg/webmap"
	OrbPath     = "github.com/paulmach/orb"
	GeoJSONPath = "github.com/paulmach/orb/geojson"
	PlanarPath  = "github.com/paulmach/orb/planar"
)

// Symbols exposes the data model to the interpreter. Keys follow the yaegi
// convention "importpath/pkgname". Methods need no entries; they are reached
// through the compiled types.
var Symbols = interp.Exports{
	FramePath + "/frame": {
		"DataFrame":         reflect.ValueOf((*frame.DataFrame)(nil)),
		"Series":            reflect.ValueOf((*frame.Series)(nil)),
		"Row":               reflect.ValueOf((*frame.Row)(nil)),
		"Dataset":           reflect.ValueOf((*frame.Dataset)(nil)),
		"DType":             reflect.ValueOf((*frame.DType)(nil)),
		"Agg":               reflect.ValueOf((*frame.Agg)(nil)),
		"Int":               reflect.ValueOf(frame.Int),
		"Float":             reflect.ValueOf(frame.Float),
		"String":            reflect.ValueOf(frame.String),
		"Bool":              reflect.ValueOf(frame.Bool),
		"Time":              reflect.ValueOf(frame.Time),
		"AggSum":            reflect.ValueOf(frame.AggSum),
		"AggMean":           reflect.ValueOf(frame.AggMean),
		"AggCount":          reflect.ValueOf(frame.AggCount),
		"AggMin":            reflect.ValueOf(frame.AggMin),
		"AggMax":            reflect.ValueOf(frame.AggMax),
		"ErrColumnNotFound": reflect.ValueOf(&frame.ErrColumnNotFound).Elem(),
		"ErrLengthMismatch": reflect.ValueOf(&frame.ErrLengthMismatch).Elem(),
		"New":               reflect.ValueOf(frame.New),
		"MustNew":           reflect.ValueOf(frame.MustNew),
		"FromRecords":       reflect.ValueOf(frame.FromRecords),
		"NewSeries":         reflect.ValueOf(frame.NewSeries),
		"InferSeries":       reflect.ValueOf(frame.InferSeries),
		"NewInts":           reflect.ValueOf(frame.NewInts),
		"NewFloats":         reflect.ValueOf(frame.NewFloats),
		"NewStrings":        reflect.ValueOf(frame.NewStrings),
		"NewBools":          reflect.ValueOf(frame.NewBools),
	},
	GeoPath + "/geo": {
		"GeoDataFrame":          reflect.ValueOf((*geo.GeoDataFrame)(nil)),
		"DefaultCRS":            reflect.ValueOf(geo.DefaultCRS),
		"GeometryColumn":        reflect.ValueOf(geo.GeometryColumn),
		"ErrGeometryLength":     reflect.ValueOf(&geo.ErrGeometryLength).Elem(),
		"New":                   reflect.ValueOf(geo.New),
		"MustNew":               reflect.ValueOf(geo.MustNew),
		"FromFeatureCollection": reflect.ValueOf(geo.FromFeatureCollection),
		"Area":                  reflect.ValueOf(geo.Area),
		"GeodesicArea":          reflect.ValueOf(geo.GeodesicArea),
		"Centroid":              reflect.ValueOf(geo.Centroid),
		"Distance":              reflect.ValueOf(geo.Distance),
		"DistanceMeters":        reflect.ValueOf(geo.DistanceMeters),
		"Contains":              reflect.ValueOf(geo.Contains),
	},
	ChartPath + "/chart": {
		"Figure":         reflect.ValueOf((*chart.Figure)(nil)),
		"Trace":          reflect.ValueOf((*chart.Trace)(nil)),
		"TraceKind":      reflect.ValueOf((*chart.TraceKind)(nil)),
		"LineTrace":      reflect.ValueOf(chart.LineTrace),
		"ScatterTrace":   reflect.ValueOf(chart.ScatterTrace),
		"BarTrace":       reflect.ValueOf(chart.BarTrace),
		"ErrEmptyFigure": reflect.ValueOf(&chart.ErrEmptyFigure).Elem(),
		"NewFigure":      reflect.ValueOf(chart.NewFigure),
	},
	WebmapPath + "/webmap": {
		"Map":                reflect.ValueOf((*webmap.Map)(nil)),
		"Layer":              reflect.ValueOf((*webmap.Layer)(nil)),
		"Marker":             reflect.ValueOf((*webmap.Marker)(nil)),
		"Style":              reflect.ValueOf((*webmap.Style)(nil)),
		"DefaultStyle":       reflect.ValueOf(&webmap.DefaultStyle).Elem(),
		"OpenStreetMapTiles": reflect.ValueOf(webmap.OpenStreetMapTiles),
		"NewMap":             reflect.ValueOf(webmap.NewMap),
		"FromGeoFrame":       reflect.ValueOf(webmap.FromGeoFrame),
	},
	OrbPath + "/orb": {
		"Geometry":        reflect.ValueOf((*orb.Geometry)(nil)),
		"Point":           reflect.ValueOf((*orb.Point)(nil)),
		"MultiPoint":      reflect.ValueOf((*orb.MultiPoint)(nil)),
		"LineString":      reflect.ValueOf((*orb.LineString)(nil)),
		"MultiLineString": reflect.ValueOf((*orb.MultiLineString)(nil)),
		"Ring":            reflect.ValueOf((*orb.Ring)(nil)),
		"Polygon":         reflect.ValueOf((*orb.Polygon)(nil)),
		"MultiPolygon":    reflect.ValueOf((*orb.MultiPolygon)(nil)),
		"Collection":      reflect.ValueOf((*orb.Collection)(nil)),
		"Bound":           reflect.ValueOf((*orb.Bound)(nil)),
		"Equal":           reflect.ValueOf(orb.Equal),
	},
	GeoJSONPath + "/geojson": {
		"Feature":              reflect.ValueOf((*geojson.Feature)(nil)),
		"FeatureCollection":    reflect.ValueOf((*geojson.FeatureCollection)(nil)),
		"Properties":           reflect.ValueOf((*geojson.Properties)(nil)),
		"NewFeature":           reflect.ValueOf(geojson.NewFeature),
		"NewFeatureCollection": reflect.ValueOf(geojson.NewFeatureCollection),
	},
	PlanarPath + "/planar": {
		"Area":            reflect.ValueOf(planar.Area),
		"CentroidArea":    reflect.ValueOf(planar.CentroidArea),
		"Distance":        reflect.ValueOf(planar.Distance),
		"Length":          reflect.ValueOf(planar.Length),
		"PolygonContains": reflect.ValueOf(planar.PolygonContains),
		"RingContains":    reflect.ValueOf(planar.RingContains),
	},
}

// stdlibAllowed is the standard library subset generated code may import.
var stdlibAllowed = []string{"errors", "fmt", "math", "sort", "strconv", "strings", "time"}

// AllowedImports lists every import path generated code may use.
func AllowedImports() []string {
	out := append([]string(nil), stdlibAllowed...)
	return append(out, FramePath, GeoPath, ChartPath, WebmapPath, OrbPath, GeoJSONPath, PlanarPath)
}
