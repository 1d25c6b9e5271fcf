package telemetry

// Pipeline stage names, used both as span names and as the "stage" label of
// metrics.StageDuration.
const (
	StageCacheLookup = "detect.cache_lookup"
	StageDecode      = "detect.decode"
	StageClassify    = "detect.classify"
	StageBoundingBox = "detect.bounding_box"
	StageDistance    = "detect.distance"
	StageLookup      = "detect.lookup"
	StagePublish     = "detect.publish"
)
