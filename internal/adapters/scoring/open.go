// Package scoring picks the score engine named in the configuration.
package scoring

import (
	"context"
	"fmt"

	"github.com/samirrijal/campusgeo/internal/adapters/opencv"
	"github.com/samirrijal/campusgeo/internal/adapters/tfserving"
	"github.com/samirrijal/campusgeo/internal/core/ports"
	"github.com/samirrijal/campusgeo/internal/pkg/config"
)

// Open loads the configured engine. The returned model must be closed.
func Open(ctx context.Context, cfg config.ModelConfig) (ports.ScoreModel, error) {
	switch cfg.Engine {
	case config.EngineOpenCV:
		engine, err := opencv.New(opencv.Config{
			ModelPath: cfg.Path,
			InputSize: cfg.InputSize,
			UseGPU:    cfg.UseGPU,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case config.EngineTFServing:
		engine, err := tfserving.New(ctx, tfserving.Config{
			BaseURL: cfg.TFServingURL,
			Model:   cfg.Name,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown model engine %q", cfg.Engine)
	}
}
