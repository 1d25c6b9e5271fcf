package domain

import "time"

// BoundingBox is an axis-aligned rectangle in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BaseY is the row of the box's bottom edge.
func (b BoundingBox) BaseY() int { return b.Y + b.Height }

// DetectionResult is the response for one identified photo.
// Distance is nil when the geometry does not allow an estimate.
type DetectionResult struct {
	Building  BuildingLabel `json:"building"`
	Distance  *float64      `json:"distance"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
}

// DetectionEvent is published after a successful identification.
type DetectionEvent struct {
	ID         string        `json:"id"`
	RequestID  string        `json:"request_id,omitempty"`
	Building   BuildingLabel `json:"building"`
	Distance   *float64      `json:"distance"`
	Latitude   float64       `json:"latitude"`
	Longitude  float64       `json:"longitude"`
	DetectedAt time.Time     `json:"detected_at"`
}

// BuildingRange is the straight-line distance and initial compass bearing
// from a caller's position to a building.
type BuildingRange struct {
	Building  BuildingLabel `json:"building"`
	From      GeoPoint      `json:"from"`
	To        GeoPoint      `json:"to"`
	DistanceM  float64       `json:"distance_m"`
	BearingDeg float64       `json:"bearing_deg"`
}
