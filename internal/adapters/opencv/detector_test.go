package opencv_test

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/samirrijal/campusgeo/internal/adapters/opencv"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

var (
	sky      = color.NRGBA{R: 225, G: 230, B: 240, A: 255}
	facade   = color.NRGBA{R: 90, G: 60, B: 50, A: 255}
	windowed = color.NRGBA{R: 30, G: 30, B: 40, A: 255}
)

// buildingScene draws a dark facade on a light sky.
func buildingScene(w, h int, facadeRect image.Rectangle) *image.NRGBA {
	bg := imaging.New(w, h, sky)
	block := imaging.New(facadeRect.Dx(), facadeRect.Dy(), facade)
	return imaging.Paste(bg, block, facadeRect.Min)
}

func TestDetector_UniformImageHasNoBox(t *testing.T) {
	d := opencv.NewDetector(vision.DefaultParams())

	_, err := d.Detect(imaging.New(120, 160, sky))
	if !errors.Is(err, vision.ErrNoBoundingBox) {
		t.Fatalf("expected ErrNoBoundingBox, got %v", err)
	}
}

func TestDetector_GroundedFacade(t *testing.T) {
	d := opencv.NewDetector(vision.DefaultParams())
	img := buildingScene(200, 300, image.Rect(50, 100, 150, 300))

	box, err := d.Detect(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if box.X < 40 || box.X > 60 {
		t.Errorf("expected left edge near 50, got %d", box.X)
	}
	if right := box.X + box.Width; right < 140 || right > 160 {
		t.Errorf("expected right edge near 150, got %d", right)
	}
	if box.Y < 90 || box.Y > 110 {
		t.Errorf("expected top edge near 100, got %d", box.Y)
	}
	if box.BaseY() < 270 {
		t.Errorf("expected box to reach the bottom of the frame, base at %d", box.BaseY())
	}
}

func TestDetector_FallsBackToTallestContour(t *testing.T) {
	d := opencv.NewDetector(vision.DefaultParams())
	// floats in the upper half, never reaches 90% of the height
	img := buildingScene(200, 300, image.Rect(60, 20, 140, 150))

	box, err := d.Detect(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.BaseY() >= 270 {
		t.Errorf("fallback box should be the floating block, base at %d", box.BaseY())
	}
	if box.Height < 100 {
		t.Errorf("expected the tall block, got height %d", box.Height)
	}
}

func TestDetector_BoxWithinImageBounds(t *testing.T) {
	d := opencv.NewDetector(vision.DefaultParams())
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5; i++ {
		w, h := 40+rng.Intn(120), 40+rng.Intn(120)
		img := imaging.New(w, h, sky)
		for j := 0; j < 6; j++ {
			block := imaging.New(1+rng.Intn(w), 1+rng.Intn(h), windowed)
			img = imaging.Paste(img, block, image.Pt(rng.Intn(w), rng.Intn(h)))
		}

		box, err := d.Detect(img)
		if errors.Is(err, vision.ErrNoBoundingBox) {
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if box.X < 0 || box.Y < 0 || box.Width < 0 || box.Height < 0 {
			t.Errorf("negative box %+v", box)
		}
		if box.X+box.Width > w || box.Y+box.Height > h {
			t.Errorf("box %+v exceeds %dx%d image", box, w, h)
		}
	}
}

func TestDetector_FullSizePhoto(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size photo")
	}
	d := opencv.NewDetector(vision.DefaultParams())
	img := buildingScene(4032, 3024, image.Rect(1000, 1024, 3000, 3024))

	box, err := d.Detect(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if box.BaseY() < 2900 || box.Height < 1900 {
		t.Errorf("expected the grounded facade, got %+v", box)
	}
}
