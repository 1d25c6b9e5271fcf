package pinhole_test

import (
	"math"
	"testing"

	"github.com/samirrijal/campusgeo/internal/pkg/pinhole"
)

func TestDistance_BoxAtImageBottom(t *testing.T) {
	cam := pinhole.DefaultCamera()

	d, ok := cam.Distance(3024, 3024)
	if !ok {
		t.Fatal("expected a distance for a box touching the bottom edge")
	}

	fpx := (6.86 / 5.6) * 3024
	want := fpx * 1.6 / 1512
	if math.Abs(d-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, d)
	}
	if math.Abs(d-3.92) > 0.01 {
		t.Errorf("expected ~3.92 m, got %v", d)
	}
}

func TestDistance_AtOrAboveMidline(t *testing.T) {
	cam := pinhole.DefaultCamera()

	for _, baseY := range []int{0, 100, 1511, 1512} {
		if d, ok := cam.Distance(baseY, 3024); ok {
			t.Errorf("baseY=%d: expected no distance, got %v", baseY, d)
		}
	}
}

func TestDistance_PositiveBelowMidline(t *testing.T) {
	cam := pinhole.DefaultCamera()

	prev := math.Inf(1)
	for baseY := 1513; baseY <= 3024; baseY += 100 {
		d, ok := cam.Distance(baseY, 3024)
		if !ok || d <= 0 {
			t.Fatalf("baseY=%d: expected positive distance, got %v (ok=%v)", baseY, d, ok)
		}
		if d >= prev {
			t.Errorf("baseY=%d: distance should shrink as the base moves down, %v >= %v", baseY, d, prev)
		}
		prev = d
	}
}

func TestDistance_OddImageHeight(t *testing.T) {
	cam := pinhole.DefaultCamera()

	// midline of a 101 px image is 50.5, so row 51 is just below it
	if _, ok := cam.Distance(50, 101); ok {
		t.Error("row 50 is above the midline of a 101 px image")
	}
	if _, ok := cam.Distance(51, 101); !ok {
		t.Error("row 51 is below the midline of a 101 px image")
	}
}

func TestDistanceAt_ScalesWithCameraHeight(t *testing.T) {
	low, _ := pinhole.DistanceAt(1000, 800, 1000, 1.0)
	high, _ := pinhole.DistanceAt(1000, 800, 1000, 2.0)
	if math.Abs(high-2*low) > 1e-9 {
		t.Errorf("expected distance to double with camera height: %v vs %v", low, high)
	}
}

func TestCamera_Validate(t *testing.T) {
	if err := pinhole.DefaultCamera().Validate(); err != nil {
		t.Fatalf("default camera should be valid: %v", err)
	}

	bad := pinhole.Camera{FocalLengthMM: 0, SensorHeightMM: -1, MountHeightM: 0}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
