package domain

import (
	"fmt"
	"strings"
)

// ProviderMode tells whether the mapping provider is usable.
type ProviderMode int32

const (
	ModeOnline ProviderMode = iota
	ModeOffline
)

func (m ProviderMode) String() string {
	if m == ModeOffline {
		return "OFFLINE"
	}
	return "ONLINE"
}

// GestureHandling controls how a map reacts to touch and scroll gestures.
type GestureHandling string

const (
	GestureAuto        GestureHandling = "auto"
	GestureCooperative GestureHandling = "cooperative"
	GestureGreedy      GestureHandling = "greedy"
	GestureNone        GestureHandling = "none"
)

// StyleRule is one entry of a map visual style table.
type StyleRule struct {
	FeatureType string              `json:"featureType,omitempty"`
	ElementType string              `json:"elementType,omitempty"`
	Stylers     []map[string]string `json:"stylers"`
}

// MapOptions configures a new map surface.
type MapOptions struct {
	Zoom            int             `json:"zoom"`
	Center          Coordinate      `json:"center"`
	MapTypeID       string          `json:"map_type_id"`
	Styles          []StyleRule     `json:"styles,omitempty"`
	GestureHandling GestureHandling `json:"gesture_handling"`
	Controls        []string        `json:"controls,omitempty"`
}

// Layer is an auxiliary overlay.
type Layer string

const (
	LayerTraffic   Layer = "TRAFFIC"
	LayerTransit   Layer = "TRANSIT"
	LayerBicycling Layer = "BICYCLING"
)

// ParseLayer accepts any casing.
func ParseLayer(s string) (Layer, error) {
	switch l := Layer(strings.ToUpper(s)); l {
	case LayerTraffic, LayerTransit, LayerBicycling:
		return l, nil
	}
	return "", fmt.Errorf("unknown layer %q", s)
}

// Marker is a pin on a map.
type Marker struct {
	Position Coordinate `json:"position"`
	Title    string     `json:"title,omitempty"`
}

// HeatmapPoint is a weighted heatmap sample.
type HeatmapPoint struct {
	Coordinate Coordinate `json:"coordinate"`
	Weight     float64    `json:"weight"`
}

// MapView is the state of a map as pushed to its render target.
type MapView struct {
	Options  MapOptions        `json:"options"`
	Layers   []Layer           `json:"layers"`
	Markers  map[string]Marker `json:"markers"`
	Heatmap  []HeatmapPoint    `json:"heatmap,omitempty"`
	Degraded bool              `json:"degraded"`
	Message  string            `json:"message,omitempty"`
}
