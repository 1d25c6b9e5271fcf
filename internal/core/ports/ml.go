package ports

import (
	"context"
	"image"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

// ScoreModel runs the pretrained model on one preprocessed image and returns
// one score per catalog entry, in catalog order.
type ScoreModel interface {
	Scores(ctx context.Context, img image.Image) ([]float64, error)
	// Ping reports whether the engine can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

// Classifier maps an image to a building label.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (domain.BuildingLabel, error)
}

// BoxDetector locates the most likely building silhouette in an image.
type BoxDetector interface {
	Detect(img image.Image) (domain.BoundingBox, error)
}

// DistanceEstimator converts a box's bottom row into meters.
// ok is false when the geometry gives no estimate.
type DistanceEstimator interface {
	Distance(baseY, imageHeight int) (meters float64, ok bool)
}
