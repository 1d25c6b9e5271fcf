package usecases_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/samirrijal/campusgeo/internal/core/domain"
)

// --- Mock ScoreModel ---

type mockScoreModel struct {
	scoresFn func(ctx context.Context, img image.Image) ([]float64, error)
}

func (m *mockScoreModel) Scores(ctx context.Context, img image.Image) ([]float64, error) {
	if m.scoresFn != nil {
		return m.scoresFn(ctx, img)
	}
	return make([]float64, 6), nil
}

func (m *mockScoreModel) Ping(ctx context.Context) error { return nil }
func (m *mockScoreModel) Close() error                   { return nil }

// --- Mock Classifier ---

type mockClassifier struct {
	classifyFn func(ctx context.Context, img image.Image) (domain.BuildingLabel, error)
	calls      int
}

func (m *mockClassifier) Classify(ctx context.Context, img image.Image) (domain.BuildingLabel, error) {
	m.calls++
	if m.classifyFn != nil {
		return m.classifyFn(ctx, img)
	}
	return domain.Library, nil
}

// --- Mock BoxDetector ---

type mockDetector struct {
	detectFn func(img image.Image) (domain.BoundingBox, error)
}

func (m *mockDetector) Detect(img image.Image) (domain.BoundingBox, error) {
	if m.detectFn != nil {
		return m.detectFn(img)
	}
	b := img.Bounds()
	return domain.BoundingBox{X: 0, Y: b.Dy() / 2, Width: b.Dx(), Height: b.Dy() / 2}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	publishFn func(ctx context.Context, event *domain.DetectionEvent) error
	events    []*domain.DetectionEvent
}

func (m *mockPublisher) PublishDetection(ctx context.Context, event *domain.DetectionEvent) error {
	m.events = append(m.events, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func sky() color.NRGBA {
	return color.NRGBA{R: 200, G: 210, B: 230, A: 255}
}

// pngBytes encodes a flat w x h image.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 120, G: 130, B: 140, A: 255})
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
