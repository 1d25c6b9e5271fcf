package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/campusgeo/internal/core/usecases"
)

// ReadinessCheck is one dependency probed by /v1/ready. Optional checks are
// reported but never make the service unready.
type ReadinessCheck struct {
	Name     string
	Optional bool
	Check    func(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Detections *usecases.DetectionService
	Catalog    *usecases.CatalogService
	Checks     []ReadinessCheck
	// NATS feeds the /ws relay; nil disables it.
	NATS *nats.Conn

	// ProcessTimeout bounds one /detect request; zero means 30s.
	ProcessTimeout time.Duration
	// RateLimit is requests per minute per client IP; zero disables limiting.
	RateLimit int
	// OpenAPIPath is served at /docs/openapi.yaml.
	OpenAPIPath string
}

func (d *Dependencies) processTimeout() time.Duration {
	if d.ProcessTimeout <= 0 {
		return 30 * time.Second
	}
	return d.ProcessTimeout
}
