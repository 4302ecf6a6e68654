package reporting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/ward"
)

const (
	occupancyCacheKey = "reports:occupancy"
	revenueCacheKey   = "reports:revenue"
)

// OccupancySource supplies the per-ward bed summaries.
type OccupancySource interface {
	SummaryAll(ctx context.Context) ([]*ward.Summary, error)
}

// RevenueSource supplies the billing aggregate.
type RevenueSource interface {
	RevenueSummary(ctx context.Context) (*billing.RevenueSummary, error)
}

// Cache is a read-through JSON cache. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

// BedGauges receives occupancy totals for export.
type BedGauges interface {
	SetBedGauges(total, occupied int)
}

// OccupancySnapshot is the dashboard view of bed availability.
type OccupancySnapshot struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Wards       []*ward.Summary `json:"wards"`
	Total       int             `json:"total"`
	Occupied    int             `json:"occupied"`
	Available   int             `json:"available"`
}

// RevenueSnapshot is the dashboard view of billing totals.
type RevenueSnapshot struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Revenue     *billing.RevenueSummary `json:"revenue"`
}

// Service serves dashboard aggregates, caching them briefly. A failing
// cache degrades to direct reads, never to request failures.
type Service struct {
	occupancy OccupancySource
	revenue   RevenueSource
	cache     Cache
	gauges    BedGauges
	logger    zerolog.Logger
}

func NewService(occupancy OccupancySource, revenue RevenueSource, cache Cache, logger zerolog.Logger) *Service {
	return &Service{occupancy: occupancy, revenue: revenue, cache: cache, logger: logger}
}

// SetBedGauges attaches an optional metrics sink updated on each
// occupancy read.
func (s *Service) SetBedGauges(gauges BedGauges) {
	s.gauges = gauges
}

func (s *Service) Occupancy(ctx context.Context) (*OccupancySnapshot, error) {
	var snap OccupancySnapshot
	if s.cacheGet(ctx, occupancyCacheKey, &snap) {
		return &snap, nil
	}

	summaries, err := s.occupancy.SummaryAll(ctx)
	if err != nil {
		return nil, err
	}
	snap = OccupancySnapshot{GeneratedAt: time.Now().UTC(), Wards: summaries}
	for _, w := range summaries {
		snap.Total += w.Total
		snap.Occupied += w.Occupied
		snap.Available += w.Available
	}
	if s.gauges != nil {
		s.gauges.SetBedGauges(snap.Total, snap.Occupied)
	}
	s.cacheSet(ctx, occupancyCacheKey, &snap)
	return &snap, nil
}

func (s *Service) Revenue(ctx context.Context) (*RevenueSnapshot, error) {
	var snap RevenueSnapshot
	if s.cacheGet(ctx, revenueCacheKey, &snap) {
		return &snap, nil
	}

	rev, err := s.revenue.RevenueSummary(ctx)
	if err != nil {
		return nil, err
	}
	snap = RevenueSnapshot{GeneratedAt: time.Now().UTC(), Revenue: rev}
	s.cacheSet(ctx, revenueCacheKey, &snap)
	return &snap, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache report snapshot")
	}
}
