// Package pinhole estimates ground distance from image geometry using a
// pinhole camera model.
package pinhole

import (
	"errors"
	"fmt"
)

// Camera holds the calibration of one physical camera.
type Camera struct {
	FocalLengthMM  float64 `json:"focal_length_mm"`
	SensorHeightMM float64 `json:"sensor_height_mm"`
	// MountHeightM is the height of the lens above the ground.
	MountHeightM float64 `json:"mount_height_m"`
	// ReferenceImageHeight is the image height (pixels) the camera was
	// calibrated at. It does not enter the formula, which scales with the
	// actual image height.
	ReferenceImageHeight int `json:"reference_image_height"`
}

// DefaultCamera is the calibration of the phone the campus photos were taken with.
func DefaultCamera() Camera {
	return Camera{
		FocalLengthMM:        6.86,
		SensorHeightMM:       5.6,
		MountHeightM:         1.6,
		ReferenceImageHeight: 3024,
	}
}

// Validate checks that the calibration is physically meaningful.
func (c Camera) Validate() error {
	var errs []error
	if c.FocalLengthMM <= 0 {
		errs = append(errs, fmt.Errorf("focal length must be positive, got %v", c.FocalLengthMM))
	}
	if c.SensorHeightMM <= 0 {
		errs = append(errs, fmt.Errorf("sensor height must be positive, got %v", c.SensorHeightMM))
	}
	if c.MountHeightM <= 0 {
		errs = append(errs, fmt.Errorf("mount height must be positive, got %v", c.MountHeightM))
	}
	if c.ReferenceImageHeight < 0 {
		errs = append(errs, fmt.Errorf("reference image height must not be negative, got %d", c.ReferenceImageHeight))
	}
	return errors.Join(errs...)
}

// FocalLengthPx is the effective focal length in pixels for an image of the given height.
func (c Camera) FocalLengthPx(imageHeight int) float64 {
	return (c.FocalLengthMM / c.SensorHeightMM) * float64(imageHeight)
}

// Distance returns the ground distance in meters to a point whose image row
// is baseY. It is only defined below the vertical midline; ok is false otherwise.
func (c Camera) Distance(baseY, imageHeight int) (float64, bool) {
	return DistanceAt(c.FocalLengthPx(imageHeight), baseY, imageHeight, c.MountHeightM)
}

// DistanceAt is the pinhole relation distance = f_px * cameraHeight / dy,
// where dy is the offset of baseY below the image center.
func DistanceAt(focalPx float64, baseY, imageHeight int, cameraHeightM float64) (float64, bool) {
	dy := float64(baseY) - float64(imageHeight)/2
	if dy <= 0 {
		return 0, false
	}
	return focalPx * cameraHeightM / dy, true
}
