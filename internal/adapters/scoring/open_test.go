package scoring_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samirrijal/campusgeo/internal/adapters/scoring"
	"github.com/samirrijal/campusgeo/internal/pkg/config"
)

func TestOpen_UnknownEngine(t *testing.T) {
	_, err := scoring.Open(context.Background(), config.ModelConfig{Engine: "torch"})
	if err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestOpen_MissingOpenCVArtifact(t *testing.T) {
	_, err := scoring.Open(context.Background(), config.ModelConfig{
		Engine:    config.EngineOpenCV,
		Path:      filepath.Join(t.TempDir(), "missing.onnx"),
		InputSize: 224,
	})
	if err == nil {
		t.Fatal("expected error for missing model artifact")
	}
}
