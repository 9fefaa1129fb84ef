package domain

import "time"

// LocationSample is a single device position fix.
type LocationSample struct {
	Coordinate     Coordinate `json:"coordinate"`
	AccuracyMeters *float64   `json:"accuracy_meters,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	// IsFallback is true when geolocation failed and the configured default
	// coordinate was substituted.
	IsFallback bool `json:"is_fallback"`
}

// LocateConfig tunes a device position request.
type LocateConfig struct {
	HighAccuracy bool          `json:"high_accuracy"`
	Timeout      time.Duration `json:"timeout"`
	MaxAge       time.Duration `json:"max_age"`
}

// DefaultLocateConfig is used for one-shot position requests.
func DefaultLocateConfig() LocateConfig {
	return LocateConfig{HighAccuracy: true, Timeout: 10 * time.Second, MaxAge: 5 * time.Minute}
}

// NavigationWatchConfig is used for the continuous watch of a navigation session.
func NavigationWatchConfig() LocateConfig {
	return LocateConfig{HighAccuracy: true, Timeout: 5 * time.Second, MaxAge: time.Second}
}
