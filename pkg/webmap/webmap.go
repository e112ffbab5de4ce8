// Package webmap describes interactive maps produced by generated code and renders them as Leaflet HTML.
package webmap

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/soundprediction/go-geoai/pkg/geo"
)

// Style controls how a layer is drawn.
type Style struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

// DefaultStyle is applied to layers added without an explicit style.
var DefaultStyle = Style{Color: "#3388ff", Weight: 2, FillOpacity: 0.2}

// Layer is a named GeoJSON overlay.
type Layer struct {
	Name     string                     `json:"name"`
	Features *geojson.FeatureCollection `json:"features"`
	Style    Style                      `json:"style"`
	// Tooltip names the feature property shown on hover.
	Tooltip string `json:"tooltip,omitempty"`
}

// Marker is a point with a popup.
type Marker struct {
	Location orb.Point `json:"location"`
	Popup    string    `json:"popup,omitempty"`
}

// Map is a declarative web map.
type Map struct {
	Center  orb.Point `json:"center"`
	Zoom    int       `json:"zoom"`
	Tiles   string    `json:"tiles"`
	Layers  []Layer   `json:"layers"`
	Markers []Marker  `json:"markers"`
}

// OpenStreetMapTiles is the default tile URL template.
const OpenStreetMapTiles = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// NewMap creates a map centered on a lon/lat point.
func NewMap(center orb.Point, zoom int) *Map {
	return &Map{Center: center, Zoom: zoom, Tiles: OpenStreetMapTiles}
}

// FromGeoFrame creates a map centered on the data with one layer.
func FromGeoFrame(name string, g *geo.GeoDataFrame) *Map {
	m := NewMap(g.Bound().Center(), 10)
	return m.AddGeoFrame(name, g, DefaultStyle)
}

// AddGeoFrame adds every row of g as a styled GeoJSON layer.
func (m *Map) AddGeoFrame(name string, g *geo.GeoDataFrame, style Style) *Map {
	m.Layers = append(m.Layers, Layer{Name: name, Features: g.FeatureCollection(), Style: style})
	return m
}

// AddLayer adds a raw FeatureCollection.
func (m *Map) AddLayer(name string, fc *geojson.FeatureCollection, style Style) *Map {
	m.Layers = append(m.Layers, Layer{Name: name, Features: fc, Style: style})
	return m
}

// AddMarker adds a point marker with popup text.
func (m *Map) AddMarker(p orb.Point, popup string) *Map {
	m.Markers = append(m.Markers, Marker{Location: p, Popup: popup})
	return m
}

// SetTooltip makes the named layer show property on hover.
func (m *Map) SetTooltip(layer, property string) *Map {
	for i := range m.Layers {
		if m.Layers[i].Name == layer {
			m.Layers[i].Tooltip = property
		}
	}
	return m
}

var page = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var spec = {{.}};
var map = L.map('map').setView([spec.center[1], spec.center[0]], spec.zoom);
L.tileLayer(spec.tiles, {maxZoom: 19}).addTo(map);
var overlays = {};
(spec.layers || []).forEach(function (layer) {
  var gj = L.geoJSON(layer.features, {style: layer.style});
  if (layer.tooltip) {
    gj.eachLayer(function (l) { l.bindTooltip(String(l.feature.properties[layer.tooltip])); });
  }
  overlays[layer.name] = gj.addTo(map);
});
(spec.markers || []).forEach(function (m) {
  var marker = L.marker([m.location[1], m.location[0]]).addTo(map);
  if (m.popup) { marker.bindPopup(m.popup); }
});
L.control.layers(null, overlays).addTo(map);
</script>
</body>
</html>
`))

// WriteHTML renders a standalone Leaflet page.
func (m *Map) WriteHTML(w io.Writer) error {
	spec, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	return page.Execute(w, template.JS(spec))
}
