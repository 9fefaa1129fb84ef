package http_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/wayfinder/api"
)

// loadOpenAPI parses the bundled OpenAPI document.
func loadOpenAPI(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("parse openapi.yaml: %v", err)
	}
	return doc
}

func TestOpenAPISpec(t *testing.T) {
	doc := loadOpenAPI(t)
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI document validation failed: %v", err)
	}

	// Every route registered by SetupRoutes is documented.
	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/mode",
		"/v1/maps/{surface}",
		"/v1/maps/{surface}/layers/{layer}/toggle",
		"/v1/maps/{surface}/markers",
		"/v1/maps/{surface}/heatmap",
		"/v1/distance",
		"/v1/routes",
		"/v1/places/search",
		"/v1/places/{id}",
		"/v1/gazetteer",
		"/v1/devices/{id}/position",
		"/v1/devices/{id}/location",
		"/v1/navigation",
		"/v1/navigation/{id}",
		"/graphql",
	}
	for _, path := range expectedPaths {
		if item := doc.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found", path)
		}
	}

	expectedSchemas := []string{
		"Coordinate", "MapOptions", "MapView", "Marker",
		"RouteRequest", "Route", "RouteLeg",
		"Place", "GazetteerEntry", "LocationSample", "Navigation",
		"APIError", "Pagination",
	}
	for _, schema := range expectedSchemas {
		if doc.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI document valid: %d paths, %d schemas", len(doc.Paths.Map()), len(doc.Components.Schemas))
}

func TestOpenAPIInfo(t *testing.T) {
	doc := loadOpenAPI(t)

	if doc.Info.Title != "Wayfinder API" {
		t.Errorf("expected title 'Wayfinder API', got %q", doc.Info.Title)
	}
	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}
	if len(doc.Servers) == 0 {
		t.Error("expected at least one server")
	}
}

func TestDocs_ServesBundledDocument(t *testing.T) {
	app := setupApp(makeDeps(t, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "title: Wayfinder API") {
		t.Errorf("unexpected document: %.80s", body)
	}
}
