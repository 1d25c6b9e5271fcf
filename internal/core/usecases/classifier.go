package usecases

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/core/ports"
)

// DefaultInputSize is the square input edge the campus model was trained on.
const DefaultInputSize = 224

// BuildingClassifier resizes a photo to the model input, scores it and maps
// the best score back to a catalog label.
type BuildingClassifier struct {
	model     ports.ScoreModel
	catalog   *domain.Catalog
	inputSize int
}

// NewBuildingClassifier creates a new BuildingClassifier. A non-positive
// inputSize falls back to DefaultInputSize.
func NewBuildingClassifier(model ports.ScoreModel, catalog *domain.Catalog, inputSize int) *BuildingClassifier {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	return &BuildingClassifier{model: model, catalog: catalog, inputSize: inputSize}
}

// Classify returns the label with the highest score. The image is stretched
// to a square without keeping its aspect ratio, which is how the model saw its
// training data. Equal top scores resolve to the lowest index.
func (c *BuildingClassifier) Classify(ctx context.Context, img image.Image) (domain.BuildingLabel, error) {
	input := imaging.Resize(img, c.inputSize, c.inputSize, imaging.Linear)

	scores, err := c.model.Scores(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}
	if len(scores) != c.catalog.Len() {
		return "", fmt.Errorf("%w: model returned %d scores for %d buildings",
			domain.ErrClassification, len(scores), c.catalog.Len())
	}

	info, _ := c.catalog.At(floats.MaxIdx(scores))
	return info.Label, nil
}
