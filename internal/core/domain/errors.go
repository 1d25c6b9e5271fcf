package domain

import "errors"

var (
	// ErrImageDecode means the uploaded bytes are not a decodable image.
	ErrImageDecode = errors.New("failed to decode image")

	// ErrImageTooLarge means the upload decodes to more pixels than allowed.
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoBuildingDetected means the detector found no contour at all.
	ErrNoBuildingDetected = errors.New("no building detected in the image")

	// ErrClassification wraps any failure of the score engine.
	ErrClassification = errors.New("classification failed")

	// ErrUnknownBuilding is returned for labels outside the catalog.
	ErrUnknownBuilding = errors.New("unknown building")
)

// ErrCacheMiss is returned by caches for a key that is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrInvalidCoordinates is returned for a latitude/longitude outside WGS 84 ranges.
var ErrInvalidCoordinates = errors.New("invalid coordinates")
