package usecases_test

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/core/ports"
	"github.com/samirrijal/campusgeo/internal/core/usecases"
	"github.com/samirrijal/campusgeo/internal/pkg/pinhole"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

type pipeline struct {
	classifier *mockClassifier
	detector   *mockDetector
	publisher  ports.EventPublisher
	cache      ports.CacheService
	ttl        int
	maxPixels  int
}

func (p pipeline) service() *usecases.DetectionService {
	if p.classifier == nil {
		p.classifier = &mockClassifier{}
	}
	if p.detector == nil {
		p.detector = &mockDetector{}
	}
	return usecases.NewDetectionService(
		p.classifier, p.detector, pinhole.DefaultCamera(), domain.NewCatalog(),
		p.publisher, p.cache,
		usecases.DetectionOptions{CacheTTLSeconds: p.ttl, ReferenceImageHeight: 3024, MaxImagePixels: p.maxPixels},
	)
}

func TestDetectionService_Identify(t *testing.T) {
	clf := &mockClassifier{
		classifyFn: func(ctx context.Context, img image.Image) (domain.BuildingLabel, error) {
			return domain.Civil, nil
		},
	}
	det := &mockDetector{
		detectFn: func(img image.Image) (domain.BoundingBox, error) {
			return domain.BoundingBox{X: 10, Y: 100, Width: 50, Height: 100}, nil
		},
	}
	pub := &mockPublisher{}

	res, err := pipeline{classifier: clf, detector: det, publisher: pub}.service().
		Identify(context.Background(), pngBytes(t, 100, 200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Building != domain.Civil {
		t.Errorf("expected Civil, got %s", res.Building)
	}
	// f_px = 6.86/5.6*200 = 245; 245*1.6/(200-100) = 3.92
	if res.Distance == nil || math.Abs(*res.Distance-3.92) > 1e-9 {
		t.Errorf("expected distance 3.92, got %v", res.Distance)
	}
	if res.Latitude != 31.481982241525063 || res.Longitude != 74.30366007617641 {
		t.Errorf("unexpected coordinates %v,%v", res.Latitude, res.Longitude)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Building != domain.Civil || ev.ID == "" || ev.DetectedAt.IsZero() {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDetectionService_DistanceAbsentAboveMidline(t *testing.T) {
	det := &mockDetector{
		detectFn: func(img image.Image) (domain.BoundingBox, error) {
			return domain.BoundingBox{X: 0, Y: 0, Width: 20, Height: 100}, nil
		},
	}

	res, err := pipeline{detector: det}.service().Identify(context.Background(), pngBytes(t, 100, 200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Distance != nil {
		t.Errorf("expected no distance at the midline, got %v", *res.Distance)
	}
}

func TestDetectionService_DecodeFailure(t *testing.T) {
	clf := &mockClassifier{}

	_, err := pipeline{classifier: clf}.service().Identify(context.Background(), []byte("not an image"))
	if !errors.Is(err, domain.ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
	if clf.calls != 0 {
		t.Error("classifier should not run on undecodable input")
	}
}

func TestDetectionService_RejectsOversizedImage(t *testing.T) {
	clf := &mockClassifier{}
	svc := pipeline{classifier: clf, maxPixels: 100}.service()

	_, err := svc.Identify(context.Background(), pngBytes(t, 20, 20))
	if !errors.Is(err, domain.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if errors.Is(err, domain.ErrImageDecode) {
		t.Error("an oversized image is not a decode failure")
	}
	if clf.calls != 0 {
		t.Error("classifier should not run on an oversized image")
	}
}

func TestDetectionService_NoBuilding(t *testing.T) {
	det := &mockDetector{
		detectFn: func(img image.Image) (domain.BoundingBox, error) {
			return domain.BoundingBox{}, vision.ErrNoBoundingBox
		},
	}
	pub := &mockPublisher{}

	_, err := pipeline{detector: det, publisher: pub}.service().Identify(context.Background(), pngBytes(t, 50, 50))
	if !errors.Is(err, domain.ErrNoBuildingDetected) {
		t.Fatalf("expected ErrNoBuildingDetected, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("failed identifications must not be published")
	}
}

func TestDetectionService_ClassificationFailure(t *testing.T) {
	clf := &mockClassifier{
		classifyFn: func(ctx context.Context, img image.Image) (domain.BuildingLabel, error) {
			return "", domain.ErrClassification
		},
	}

	_, err := pipeline{classifier: clf}.service().Identify(context.Background(), pngBytes(t, 50, 50))
	if !errors.Is(err, domain.ErrClassification) {
		t.Fatalf("expected ErrClassification, got %v", err)
	}
}

func TestDetectionService_PublishFailureIsIgnored(t *testing.T) {
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, event *domain.DetectionEvent) error {
			return errors.New("broker down")
		},
	}

	res, err := pipeline{publisher: pub}.service().Identify(context.Background(), pngBytes(t, 50, 50))
	if err != nil {
		t.Fatalf("publish failure should not fail the request: %v", err)
	}
	if res.Building != domain.Library {
		t.Errorf("expected Library, got %s", res.Building)
	}
}

func TestDetectionService_UnknownLabelUsesFallback(t *testing.T) {
	clf := &mockClassifier{
		classifyFn: func(ctx context.Context, img image.Image) (domain.BuildingLabel, error) {
			return "Cafeteria", nil
		},
	}

	res, err := pipeline{classifier: clf}.service().Identify(context.Background(), pngBytes(t, 50, 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Latitude != 40.0 || res.Longitude != -73.0 {
		t.Errorf("expected fallback location, got %v,%v", res.Latitude, res.Longitude)
	}
}

func TestDetectionService_CachesByContent(t *testing.T) {
	clf := &mockClassifier{}
	cache := newMockCache()
	svc := pipeline{classifier: clf, cache: cache, ttl: 60}.service()
	data := pngBytes(t, 40, 40)

	first, err := svc.Identify(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Identify(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if clf.calls != 1 {
		t.Errorf("expected the second call to be served from cache, classifier ran %d times", clf.calls)
	}
	if first.Building != second.Building || first.Latitude != second.Latitude {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	for _, ttl := range cache.ttls {
		if ttl != 60 {
			t.Errorf("expected ttl 60, got %d", ttl)
		}
	}
}

func TestDetectionService_CacheDisabledWithoutTTL(t *testing.T) {
	clf := &mockClassifier{}
	cache := newMockCache()
	svc := pipeline{classifier: clf, cache: cache}.service()
	data := pngBytes(t, 40, 40)

	_, _ = svc.Identify(context.Background(), data)
	_, _ = svc.Identify(context.Background(), data)

	if clf.calls != 2 {
		t.Errorf("expected no caching, classifier ran %d times", clf.calls)
	}
	if len(cache.data) != 0 {
		t.Error("nothing should be written to the cache")
	}
}

func TestDetectionService_StopsOnCancelledContext(t *testing.T) {
	clf := &mockClassifier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline{classifier: clf}.service().Identify(ctx, pngBytes(t, 40, 40))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if clf.calls != 0 {
		t.Error("classifier should not run after cancellation")
	}
}
