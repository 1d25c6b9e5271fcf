package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/core/ports"
	"github.com/samirrijal/campusgeo/internal/pkg/imagecodec"
	"github.com/samirrijal/campusgeo/internal/pkg/logging"
	"github.com/samirrijal/campusgeo/internal/pkg/metrics"
	"github.com/samirrijal/campusgeo/internal/pkg/telemetry"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

// DetectionOptions tune the optional parts of the pipeline.
type DetectionOptions struct {
	// CacheTTLSeconds is how long a result stays cached; 0 disables caching.
	CacheTTLSeconds int
	// ReferenceImageHeight is the height the camera was calibrated at. It is
	// informational: a differing upload height is only logged.
	ReferenceImageHeight int
	// MaxImagePixels caps the decoded size; 0 uses imagecodec.DefaultMaxPixels.
	MaxImagePixels int
}

// DetectionService runs the identification pipeline for one photo:
// decode, classify, locate the silhouette, estimate distance, look up coordinates.
type DetectionService struct {
	classifier ports.Classifier
	detector   ports.BoxDetector
	estimator  ports.DistanceEstimator
	catalog    *domain.Catalog
	publisher  ports.EventPublisher
	cache      ports.CacheService
	opts       DetectionOptions
}

// NewDetectionService creates a new DetectionService. publisher and cache may be nil.
func NewDetectionService(
	classifier ports.Classifier,
	detector ports.BoxDetector,
	estimator ports.DistanceEstimator,
	catalog *domain.Catalog,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	opts DetectionOptions,
) *DetectionService {
	return &DetectionService{
		classifier: classifier,
		detector:   detector,
		estimator:  estimator,
		catalog:    catalog,
		publisher:  publisher,
		cache:      cache,
		opts:       opts,
	}
}

// Identify runs the pipeline on raw image bytes. The context is checked
// between stages so a request deadline stops the work early.
func (s *DetectionService) Identify(ctx context.Context, data []byte) (result *domain.DetectionResult, err error) {
	defer func() {
		if err != nil {
			metrics.DetectionFailures.WithLabelValues(failureReason(err)).Inc()
		}
	}()

	key := cacheKey(data)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	img, err := s.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label, err := s.classify(ctx, img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	box, err := s.boundingBox(ctx, img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &domain.DetectionResult{
		Building: label,
		Distance: s.distance(ctx, box, img.Bounds().Dy()),
	}
	loc := s.lookup(ctx, label)
	result.Latitude, result.Longitude = loc.Lat, loc.Lon

	metrics.Detections.WithLabelValues(string(label)).Inc()
	attrs := []any{"building", label, "box", box}
	if result.Distance != nil {
		attrs = append(attrs, "distance_m", *result.Distance)
	}
	logging.FromContext(ctx).Info("building identified", attrs...)

	s.store(ctx, key, result)
	s.publish(ctx, result)
	return result, nil
}

func (s *DetectionService) decode(ctx context.Context, data []byte) (img image.Image, err error) {
	ctx, done := telemetry.StartStage(ctx, telemetry.StageDecode)
	defer done(&err)

	limit := s.opts.MaxImagePixels
	if limit <= 0 {
		limit = imagecodec.DefaultMaxPixels
	}
	img, err = imagecodec.DecodeLimit(data, limit)
	if errors.Is(err, imagecodec.ErrTooLarge) {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}

	b := img.Bounds()
	format, _ := imagecodec.Format(data)
	telemetry.SpanFromContext(ctx).SetAttributes(
		attribute.String("image.format", format),
		attribute.Int("image.width", b.Dx()),
		attribute.Int("image.height", b.Dy()),
	)
	metrics.ImagePixels.Observe(float64(b.Dx()*b.Dy()) / 1e6)
	if ref := s.opts.ReferenceImageHeight; ref > 0 && b.Dy() != ref {
		logging.FromContext(ctx).Debug("image height differs from calibration height",
			"height", b.Dy(), "reference_height", ref)
	}
	return img, nil
}

func (s *DetectionService) classify(ctx context.Context, img image.Image) (label domain.BuildingLabel, err error) {
	ctx, done := telemetry.StartStage(ctx, telemetry.StageClassify)
	defer done(&err)

	label, err = s.classifier.Classify(ctx, img)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return label, nil
}

func (s *DetectionService) boundingBox(ctx context.Context, img image.Image) (box domain.BoundingBox, err error) {
	_, done := telemetry.StartStage(ctx, telemetry.StageBoundingBox)
	defer done(&err)

	box, err = s.detector.Detect(img)
	if errors.Is(err, vision.ErrNoBoundingBox) {
		return box, fmt.Errorf("%w: %w", domain.ErrNoBuildingDetected, err)
	}
	if err != nil {
		return box, fmt.Errorf("detect bounding box: %w", err)
	}
	return box, nil
}

// distance returns nil when the box base sits at or above the image midline.
func (s *DetectionService) distance(ctx context.Context, box domain.BoundingBox, imageHeight int) *float64 {
	var err error
	_, done := telemetry.StartStage(ctx, telemetry.StageDistance)
	defer done(&err)

	d, ok := s.estimator.Distance(box.BaseY(), imageHeight)
	if !ok {
		metrics.DistanceUnavailable.Inc()
		return nil
	}
	metrics.DistanceMeters.Observe(d)
	return &d
}

func (s *DetectionService) lookup(ctx context.Context, label domain.BuildingLabel) domain.GeoPoint {
	var err error
	ctx, done := telemetry.StartStage(ctx, telemetry.StageLookup)
	defer done(&err)

	info, ok := s.catalog.Lookup(label)
	if !ok {
		metrics.LookupFallbacks.Inc()
		logging.FromContext(ctx).Error("label missing from building catalog, using fallback location",
			"building", label, "fallback", domain.FallbackLocation)
		return domain.FallbackLocation
	}
	return info.Location
}

func (s *DetectionService) cached(ctx context.Context, key string) *domain.DetectionResult {
	if s.cache == nil || s.opts.CacheTTLSeconds <= 0 {
		return nil
	}
	var err error
	ctx, done := telemetry.StartStage(ctx, telemetry.StageCacheLookup)
	defer done(&err)

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("detect").Inc()
		if !errors.Is(err, domain.ErrCacheMiss) {
			// an unreachable cache degrades to computing the result
			logging.FromContext(ctx).Warn("cache lookup failed", "error", err)
			return nil
		}
		err = nil
		return nil
	}
	var result domain.DetectionResult
	if err = json.Unmarshal(data, &result); err != nil {
		return nil
	}
	metrics.CacheHits.WithLabelValues("detect").Inc()
	logging.FromContext(ctx).Debug("detection served from cache", "building", result.Building)
	return &result
}

func (s *DetectionService) store(ctx context.Context, key string, result *domain.DetectionResult) {
	if s.cache == nil || s.opts.CacheTTLSeconds <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.opts.CacheTTLSeconds); err != nil {
		logging.FromContext(ctx).Warn("cache detection result", "error", err)
	}
}

// publish is best effort: a broker failure never fails the request.
func (s *DetectionService) publish(ctx context.Context, result *domain.DetectionResult) {
	if s.publisher == nil {
		return
	}
	var err error
	ctx, done := telemetry.StartStage(ctx, telemetry.StagePublish)
	defer done(&err)

	event := &domain.DetectionEvent{
		ID:         uuid.NewString(),
		RequestID:  logging.RequestID(ctx),
		Building:   result.Building,
		Distance:   result.Distance,
		Latitude:   result.Latitude,
		Longitude:  result.Longitude,
		DetectedAt: time.Now().UTC(),
	}
	if err = s.publisher.PublishDetection(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		logging.FromContext(ctx).Warn("publish detection event", "error", err, "event_id", event.ID)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "detect:" + hex.EncodeToString(sum[:])
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrImageDecode):
		return "decode"
	case errors.Is(err, domain.ErrImageTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrNoBuildingDetected):
		return "no_building"
	case errors.Is(err, domain.ErrClassification):
		return "classification"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "other"
	}
}
