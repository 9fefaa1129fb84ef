package natsadapter

import (
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// Subjects used between the service and devices.
//
//	device.<id>.locate    request/reply one-shot fix
//	device.<id>.watch     watch control (start/stop) sent to the device
//	device.<id>.position  positions and watch errors, in order
//	nav.session.<id>.route applied navigation routes
func locateSubject(deviceID string) string   { return "device." + deviceID + ".locate" }
func watchSubject(deviceID string) string    { return "device." + deviceID + ".watch" }
func positionSubject(deviceID string) string { return "device." + deviceID + ".position" }

// RouteSubject is the subject a session's route updates are published on.
func RouteSubject(sessionID string) string { return "nav.session." + sessionID + ".route" }

// locateRequest is sent to the device on one-shot and watch requests.
type locateRequest struct {
	HighAccuracy bool  `json:"high_accuracy"`
	TimeoutMs    int64 `json:"timeout_ms"`
	MaxAgeMs     int64 `json:"max_age_ms"`
	Active       *bool `json:"active,omitempty"`
}

func newLocateRequest(cfg domain.LocateConfig) locateRequest {
	return locateRequest{
		HighAccuracy: cfg.HighAccuracy,
		TimeoutMs:    cfg.Timeout.Milliseconds(),
		MaxAgeMs:     cfg.MaxAge.Milliseconds(),
	}
}

// positionMessage is a device fix or a device-side geolocation error.
type positionMessage struct {
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	AccuracyMeters *float64       `json:"accuracy_m,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Error          *positionError `json:"error,omitempty"`
}

type positionError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func newPositionMessage(s *domain.LocationSample) positionMessage {
	return positionMessage{
		Lat:            s.Coordinate.Lat,
		Lon:            s.Coordinate.Lon,
		AccuracyMeters: s.AccuracyMeters,
		Timestamp:      s.Timestamp,
	}
}

// event converts the message into a sample, or into the error it carries.
func (m positionMessage) event() (domain.LocationSample, error) {
	if m.Error != nil {
		code := domain.GeolocationCode(m.Error.Code)
		switch code {
		case domain.GeoPermissionDenied, domain.GeoTimeout, domain.GeoUnavailable, domain.GeoUnsupported:
		default:
			code = domain.GeoUnavailable
		}
		return domain.LocationSample{}, &domain.GeolocationError{Code: code, Message: m.Error.Message}
	}

	s := domain.LocationSample{
		Coordinate:     domain.Coordinate{Lat: m.Lat, Lon: m.Lon},
		AccuracyMeters: m.AccuracyMeters,
		Timestamp:      m.Timestamp,
	}
	if err := s.Coordinate.Validate(); err != nil {
		return domain.LocationSample{}, &domain.GeolocationError{Code: domain.GeoUnavailable, Message: err.Error()}
	}
	return s, nil
}
