package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate      = errors.New("invalid coordinate")
	ErrInvalidState           = errors.New("invalid state transition")
	ErrNotFound               = errors.New("not found")
	ErrProviderUnavailable    = errors.New("mapping provider unavailable")
	ErrGeolocationUnsupported = errors.New("geolocation unsupported")
	ErrPermissionDenied       = errors.New("geolocation permission denied")
	ErrTimeout                = errors.New("geolocation timeout")
	ErrPositionUnavailable    = errors.New("position unavailable")
)

// ProviderLoadError means the mapping backend could not be loaded.
type ProviderLoadError struct {
	Err error
}

func (e *ProviderLoadError) Error() string {
	return fmt.Sprintf("provider load: %v", e.Err)
}

func (e *ProviderLoadError) Unwrap() error { return e.Err }

// GeolocationCode classifies device position failures.
type GeolocationCode string

const (
	GeoPermissionDenied GeolocationCode = "PERMISSION_DENIED"
	GeoTimeout          GeolocationCode = "TIMEOUT"
	GeoUnavailable      GeolocationCode = "POSITION_UNAVAILABLE"
	GeoUnsupported      GeolocationCode = "UNSUPPORTED"
)

// GeolocationError is a device position failure.
type GeolocationError struct {
	Code    GeolocationCode
	Message string
}

func (e *GeolocationError) Error() string {
	if e.Message == "" {
		return "geolocation: " + string(e.Code)
	}
	return fmt.Sprintf("geolocation: %s: %s", e.Code, e.Message)
}

// Unwrap maps the code onto the matching sentinel.
func (e *GeolocationError) Unwrap() error {
	switch e.Code {
	case GeoPermissionDenied:
		return ErrPermissionDenied
	case GeoTimeout:
		return ErrTimeout
	case GeoUnsupported:
		return ErrGeolocationUnsupported
	default:
		return ErrPositionUnavailable
	}
}

// ProviderAPIError is a non-success status returned by a provider call.
type ProviderAPIError struct {
	Operation string
	Status    string
	Err       error
}

func (e *ProviderAPIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Operation, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Operation, e.Status)
}

func (e *ProviderAPIError) Unwrap() error { return e.Err }
