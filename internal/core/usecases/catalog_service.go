package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/pkg/geospatial"
)

// CatalogService answers read-only questions about the campus buildings.
type CatalogService struct {
	catalog *domain.Catalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog *domain.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// List returns every building in classifier order.
func (s *CatalogService) List(_ context.Context) []domain.BuildingInfo {
	return s.catalog.All()
}

// Get returns one building by label.
func (s *CatalogService) Get(_ context.Context, label string) (*domain.BuildingInfo, error) {
	info, ok := s.catalog.Lookup(domain.BuildingLabel(label))
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBuilding, label)
	}
	return &info, nil
}

// Range returns the great-circle distance from a position to a building.
func (s *CatalogService) Range(ctx context.Context, label string, from domain.GeoPoint) (*domain.BuildingRange, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: lat=%v lon=%v", domain.ErrInvalidCoordinates, from.Lat, from.Lon)
	}
	info, err := s.Get(ctx, label)
	if err != nil {
		return nil, err
	}
	return &domain.BuildingRange{
		Building:   info.Label,
		From:       from,
		To:         info.Location,
		DistanceM:  geospatial.Haversine(from.Lat, from.Lon, info.Location.Lat, info.Location.Lon),
		BearingDeg: geospatial.Bearing(from.Lat, from.Lon, info.Location.Lat, info.Location.Lon),
	}, nil
}
