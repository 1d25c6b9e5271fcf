// Package vision holds the building silhouette heuristic: the tuning of the
// edge pipeline and the rule that picks one contour as the building.
package vision

import (
	"errors"
	"image"
)

// ErrNoBoundingBox is returned when the edge map yields no contour at all,
// typically for blank or uniform images.
var ErrNoBoundingBox = errors.New("no contour found")

// Params tunes the silhouette heuristic.
type Params struct {
	BlurKernel  int
	CannyLow    float64
	CannyHigh   float64
	CloseKernel int
	// MinHeightRatio: a candidate must be taller than this share of the image.
	MinHeightRatio float64
	// MinBaseRatio: a candidate's bottom edge must reach this share of the image height.
	MinBaseRatio float64
}

// DefaultParams are the values the campus model was tuned with.
func DefaultParams() Params {
	return Params{
		BlurKernel:     5,
		CannyLow:       50,
		CannyHigh:      150,
		CloseKernel:    25,
		MinHeightRatio: 0.4,
		MinBaseRatio:   0.9,
	}
}

// Selector picks the building among contour bounding rectangles. It is
// stateless and safe for concurrent use.
type Selector struct {
	params Params
}

// NewSelector creates a Selector.
func NewSelector(params Params) *Selector {
	return &Selector{params: params}
}

// Params returns the tuning the selector was built with.
func (s *Selector) Params() Params { return s.params }

// Select returns the first rectangle that is tall and reaches the bottom of
// the frame, or the tallest one when none qualifies. Order matters: rects
// are taken in the order the contour finder produced them.
func (s *Selector) Select(rects []image.Rectangle, imageHeight int) (image.Rectangle, error) {
	if len(rects) == 0 {
		return image.Rectangle{}, ErrNoBoundingBox
	}
	hImg := float64(imageHeight)
	for _, r := range rects {
		if float64(r.Dy()) > s.params.MinHeightRatio*hImg && float64(r.Max.Y) >= s.params.MinBaseRatio*hImg {
			return r, nil
		}
	}

	tallest := rects[0]
	for _, r := range rects[1:] {
		if r.Dy() > tallest.Dy() {
			tallest = r
		}
	}
	return tallest, nil
}
