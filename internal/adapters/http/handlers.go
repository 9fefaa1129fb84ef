package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

// parseCoordinate reads a "lat,lon" pair.
const maxAvgSpeedKmh = 300

func validateSpeed(kmh float64) error {
	if !(kmh > 0 && kmh <= maxAvgSpeedKmh) {
		return fmt.Errorf("speed must be between 0 and %d km/h", maxAvgSpeedKmh)
	}
	return nil
}

func parseCoordinate(s string) (domain.Coordinate, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("%w: expected lat,lon, got %q", domain.ErrInvalidCoordinate, s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: latitude %q", domain.ErrInvalidCoordinate, lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: longitude %q", domain.ErrInvalidCoordinate, lon)
	}
	c := domain.Coordinate{Lat: la, Lon: lo}
	return c, c.Validate()
}

// ---- Provider & maps ----

// ModeResponse reports the provider state.
type ModeResponse struct {
	Mode      string            `json:"mode"`
	LoadError string            `json:"load_error,omitempty"`
	Center    domain.Coordinate `json:"center"`
}

// ModeHandler returns ONLINE or OFFLINE.
func ModeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp := ModeResponse{
			Mode:   deps.Providers.Mode().String(),
			Center: deps.Providers.MapCenter(),
		}
		if err := deps.Providers.LoadErr(); err != nil {
			resp.LoadError = err.Error()
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(resp)
	}
}

// OpenMapHandler initializes a map on a surface and returns the first frame.
func OpenMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := domain.MapOptions{Center: deps.Providers.MapCenter()}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&opts); err != nil {
				return errBadRequest(c, "invalid map options: "+err.Error())
			}
		}
		if err := opts.Center.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		surface := deps.Surfaces.Surface(c.Params("surface"))
		deps.Maps.Open(c.UserContext(), surface, opts)

		view, _ := surface.View()
		return c.Status(fiber.StatusCreated).JSON(view)
	}
}

// GetMapHandler returns the last frame rendered on a surface.
func GetMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		surface, ok := deps.Surfaces.Lookup(c.Params("surface"))
		if !ok {
			return errNotFound(c, "map not found")
		}
		view, ok := surface.View()
		if !ok {
			return errNotFound(c, "map not rendered")
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(view)
	}
}

// LayerResponse is the state of an overlay after a toggle.
type LayerResponse struct {
	Layer domain.Layer `json:"layer"`
	On    bool         `json:"on"`
}

// ToggleLayerHandler flips a traffic, transit or bicycling overlay.
func ToggleLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layer, err := domain.ParseLayer(c.Params("layer"))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lm, ok := deps.Maps.Layers(c.Params("surface"))
		if !ok {
			return errNotFound(c, "map not found")
		}
		return c.JSON(LayerResponse{Layer: layer, On: lm.ToggleLayer(layer)})
	}
}

// AddMarkerHandler pins a marker on a map.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m domain.Marker
		if err := c.BodyParser(&m); err != nil {
			return errBadRequest(c, "invalid marker: "+err.Error())
		}
		lm, ok := deps.Maps.Layers(c.Params("surface"))
		if !ok {
			return errNotFound(c, "map not found")
		}
		id, err := lm.AddMarker(m)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
}

// ClearMarkersHandler removes every marker from a map.
func ClearMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lm, ok := deps.Maps.Layers(c.Params("surface"))
		if !ok {
			return errNotFound(c, "map not found")
		}
		lm.ClearMarkers()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// HeatmapRequest is the body of a heatmap call.
type HeatmapRequest struct {
	Points []domain.HeatmapPoint `json:"points"`
}

// HeatmapHandler draws a weighted heatmap on a map.
func HeatmapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req HeatmapRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid heatmap: "+err.Error())
		}
		lm, ok := deps.Maps.Layers(c.Params("surface"))
		if !ok {
			return errNotFound(c, "map not found")
		}
		if err := lm.AddHeatmap(req.Points); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ---- Distance & routes ----

// DistanceResponse is a straight-line estimate between two points.
type DistanceResponse struct {
	From             domain.Coordinate `json:"from"`
	To               domain.Coordinate `json:"to"`
	DistanceKm       float64           `json:"distance_km"`
	AvgSpeedKmh      float64           `json:"avg_speed_kmh"`
	EstimatedMinutes float64           `json:"estimated_minutes"`
}

// DistanceHandler computes the great-circle distance between ?from and ?to.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("from") == "" || c.Query("to") == "" {
			return errBadRequest(c, "from and to are required (lat,lon)")
		}
		from, err := parseCoordinate(c.Query("from"))
		if err != nil {
			return errBadRequest(c, "from: "+err.Error())
		}
		to, err := parseCoordinate(c.Query("to"))
		if err != nil {
			return errBadRequest(c, "to: "+err.Error())
		}
		speed := c.QueryFloat("speed", geospatial.DefaultAvgSpeedKmh)
		if err := validateSpeed(speed); err != nil {
			return errBadRequest(c, err.Error())
		}

		km := deps.Routes.Distance(from, to)
		return c.JSON(DistanceResponse{
			From:             from,
			To:               to,
			DistanceKm:       km,
			AvgSpeedKmh:      speed,
			EstimatedMinutes: deps.Routes.EstimateTravelTimeMinutes(km, speed),
		})
	}
}

// RouteResponse is a computed route with its totals.
type RouteResponse struct {
	domain.RouteResult
	TotalDistanceMeters  float64 `json:"total_distance_meters"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
}

func newRouteResponse(r domain.RouteResult) RouteResponse {
	return RouteResponse{
		RouteResult:          r,
		TotalDistanceMeters:  r.TotalDistanceMeters(),
		TotalDurationSeconds: r.TotalDurationSeconds(),
	}
}

// ComputeRouteHandler computes a route, falling back to a straight-line
// approximation when the provider cannot serve it.
func ComputeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid route request: "+err.Error())
		}
		mode, err := domain.ParseTravelMode(string(req.TravelMode))
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		req.TravelMode = mode

		result, err := deps.Routes.ComputeRoute(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(newRouteResponse(result))
	}
}

// ---- Places ----

// SearchPlacesHandler autocompletes a free-text query.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q is required")
		}
		radius := c.QueryInt("radius", 0)
		if radius < 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 0 and 50000 meters")
		}
		opts := domain.SearchOptions{RadiusMeters: radius}
		if t := c.Query("types"); t != "" {
			opts.Types = strings.Split(t, ",")
		}

		return c.JSON(deps.Places.Search(c.UserContext(), q, opts))
	}
}

// GetPlaceHandler resolves a place id into a coordinate.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		place := deps.Places.Details(c.UserContext(), c.Params("id"))
		if place == nil {
			return errNotFound(c, "place not found")
		}
		return c.JSON(place)
	}
}

// GazetteerHandler lists the offline place table.
func GazetteerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)
		entries, pg := paginate(deps.Places.Gazetteer().Entries(), offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: entries, Pagination: pg})
	}
}

// ---- Devices ----

// PositionRequest is a fix reported by a device.
type PositionRequest struct {
	Lat            float64    `json:"lat"`
	Lon            float64    `json:"lon"`
	AccuracyMeters *float64   `json:"accuracy_m,omitempty"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

// ReportPositionHandler ingests a device fix and fans it out to watchers.
func ReportPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Positions == nil {
			return errUnavailable(c, "broker_unavailable", "position ingestion is not configured")
		}
		var req PositionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid position: "+err.Error())
		}
		sample := domain.LocationSample{
			Coordinate:     domain.Coordinate{Lat: req.Lat, Lon: req.Lon},
			AccuracyMeters: req.AccuracyMeters,
			Timestamp:      time.Now().UTC(),
		}
		if req.Timestamp != nil {
			sample.Timestamp = req.Timestamp.UTC()
		}
		if err := sample.Coordinate.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		if err := deps.Positions.PublishPosition(c.UserContext(), c.Params("id"), &sample); err != nil {
			LoggerFromCtx(c.UserContext()).Error("publish position", "device", c.Params("id"), "error", err)
			return errUnavailable(c, "broker_unavailable", "could not publish position")
		}
		return c.Status(fiber.StatusAccepted).JSON(sample)
	}
}

// DeviceLocationHandler performs a one-shot position request. It never
// fails: when the device cannot be located the fallback is returned.
func DeviceLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg := domain.DefaultLocateConfig()
		if ms := c.QueryInt("timeout_ms", 0); ms > 0 {
			cfg.Timeout = time.Duration(ms) * time.Millisecond
		}
		if ms := c.QueryInt("max_age_ms", -1); ms >= 0 {
			cfg.MaxAge = time.Duration(ms) * time.Millisecond
		}
		cfg.HighAccuracy = c.QueryBool("high_accuracy", true)

		sample := deps.Navigation.Tracker(c.Params("id")).CurrentLocation(c.UserContext(), cfg)
		c.Set("Cache-Control", "no-store")
		return c.JSON(sample)
	}
}

// ---- Navigation ----

// StartNavigationRequest is the body of POST /v1/navigation.
type StartNavigationRequest struct {
	DeviceID    string            `json:"device_id"`
	Destination domain.Coordinate `json:"destination"`
}

// StartNavigationHandler starts a session for a device.
func StartNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req StartNavigationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid navigation request: "+err.Error())
		}
		if req.DeviceID == "" {
			return errBadRequest(c, "device_id is required")
		}

		snap, err := deps.Navigation.Start(c.UserContext(), req.DeviceID, req.Destination)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/navigation/" + snap.ID)
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// GetNavigationHandler returns the state of a session.
func GetNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Navigation.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(snap)
	}
}

// StopNavigationHandler stops a session and returns its final state.
func StopNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Navigation.Stop(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(snap)
	}
}
