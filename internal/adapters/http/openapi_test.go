package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

// findOpenAPISpec locates api/openapi.yaml by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the document and checks it covers every route.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/detect",
		"/v1/buildings",
		"/v1/buildings/{label}",
		"/v1/buildings/{label}/range",
		"/graphql",
		"/v1/health",
		"/v1/ready",
	}
	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	for _, schema := range []string{"DetectionResult", "Building", "BuildingRange", "DetectionEvent", "APIError", "Pagination"} {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}
}

// TestOpenAPILabelsMatchCatalog keeps the label enum in step with the catalog.
func TestOpenAPILabelsMatchCatalog(t *testing.T) {
	spec := loadSpec(t)
	ref := spec.Components.Schemas["BuildingLabel"]
	if ref == nil || ref.Value == nil {
		t.Fatal("BuildingLabel schema missing")
	}

	labels := domain.NewCatalog().Labels()
	if len(ref.Value.Enum) != len(labels) {
		t.Fatalf("expected %d labels, got %d", len(labels), len(ref.Value.Enum))
	}
	for i, l := range labels {
		if ref.Value.Enum[i] != string(l) {
			t.Errorf("enum[%d]: expected %s, got %v", i, l, ref.Value.Enum[i])
		}
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "campusgeo API" {
		t.Errorf("expected title 'campusgeo API', got %q", spec.Info.Title)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}
	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}
}
