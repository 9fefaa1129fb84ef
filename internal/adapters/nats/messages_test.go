package natsadapter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

func TestPositionMessage_Sample(t *testing.T) {
	acc := 12.5
	ts := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	data, err := json.Marshal(newPositionMessage(&domain.LocationSample{
		Coordinate:     domain.Coordinate{Lat: 9.55, Lon: -13.6},
		AccuracyMeters: &acc,
		Timestamp:      ts,
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var pm positionMessage
	if err := json.Unmarshal(data, &pm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s, err := pm.event()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Coordinate.Lat != 9.55 || s.Coordinate.Lon != -13.6 {
		t.Errorf("unexpected coordinate %v", s.Coordinate)
	}
	if s.AccuracyMeters == nil || *s.AccuracyMeters != 12.5 || !s.Timestamp.Equal(ts) {
		t.Errorf("unexpected sample %+v", s)
	}
}

func TestPositionMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"permission", `{"error":{"code":"PERMISSION_DENIED"}}`, domain.ErrPermissionDenied},
		{"timeout", `{"error":{"code":"TIMEOUT","message":"no fix"}}`, domain.ErrTimeout},
		{"unknown code", `{"error":{"code":"KAPUT"}}`, domain.ErrPositionUnavailable},
		{"bad coordinate", `{"lat":95,"lon":0}`, domain.ErrPositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pm positionMessage
			if err := json.Unmarshal([]byte(tt.raw), &pm); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, err := pm.event(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSubjects(t *testing.T) {
	if got := RouteSubject("abc"); got != "nav.session.abc.route" {
		t.Errorf("unexpected route subject %s", got)
	}
	if got := positionSubject("phone-1"); got != "device.phone-1.position" {
		t.Errorf("unexpected position subject %s", got)
	}
	if got := locateSubject("phone-1"); got != "device.phone-1.locate" {
		t.Errorf("unexpected locate subject %s", got)
	}
}
