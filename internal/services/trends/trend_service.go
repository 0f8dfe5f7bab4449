package trends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/models"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/tenantcfg"
)

// ErrTrendsNotPermitted is returned when a tenant that does not contribute
// aggregate data asks for network trends. Reading the pool requires feeding it.
var ErrTrendsNotPermitted = errors.New("tenant does not participate in aggregate sharing")

const (
	minTrendMonths     = 1
	maxTrendMonths     = 24
	defaultTrendMonths = 6
)

// Service answers aggregate trend queries over the shared artifact pool,
// applying the privacy threshold to every bucket it returns.
type Service struct {
	db        *gorm.DB
	configs   *tenantcfg.Service
	threshold int
}

// NewService creates a trend service with the given privacy threshold
func NewService(db *gorm.DB, configs *tenantcfg.Service, threshold int) *Service {
	return &Service{db: db, configs: configs, threshold: threshold}
}

// TrendPoint is one (month, dimension value) cell. Suppression applies to
// the own and network series independently: any count below the privacy
// threshold renders as "<N", exact counts only appear at or above it.
type TrendPoint struct {
	Month          string `json:"month"`
	DimensionValue string `json:"dimension_value"`
	NetworkCount   string `json:"network_count"`
	OwnCount       string `json:"own_count"`
}

// TrendReport is the response for a network trend query
type TrendReport struct {
	Dimension      models.TrendDimension `json:"dimension"`
	Months         int                   `json:"months"`
	PrivacyMinimum int                   `json:"privacy_minimum"`
	Points         []TrendPoint          `json:"points"`
}

type trendRow struct {
	Month          string
	DimensionValue string
	Count          int
}

// GetNetworkTrends aggregates active artifacts shared at aggregate level or
// above over the trailing window, grouped by month and the chosen dimension.
// Network counts exclude the caller's own contributions, which come back
// separately as exact counts.
func (s *Service) GetNetworkTrends(ctx context.Context, scope database.TenantScope, months int, dimension models.TrendDimension) (*TrendReport, error) {
	if !dimension.Valid() {
		return nil, fmt.Errorf("invalid trend dimension: %q", dimension)
	}
	if months == 0 {
		months = defaultTrendMonths
	}
	if months < minTrendMonths || months > maxTrendMonths {
		return nil, fmt.Errorf("months must be between %d and %d", minTrendMonths, maxTrendMonths)
	}

	cfg, err := s.configs.GetOrCreate(ctx, scope.TenantID())
	if err != nil {
		return nil, err
	}
	if cfg.DefaultSharingLevel.Rank() < models.SharingLevelAggregate.Rank() {
		return nil, ErrTrendsNotPermitted
	}

	// Month buckets are zero-padded YYYY-MM strings, so the window bound
	// is a plain string comparison.
	fromMonth := hashing.MonthBucket(time.Now().UTC().AddDate(0, -(months - 1), 0))
	column := dimension.Column()

	base := func() *gorm.DB {
		return s.db.Model(&models.FraudSharedArtifact{}).
			Select(fmt.Sprintf("occurred_month AS month, %s AS dimension_value, COUNT(*) AS count", column)).
			Where("is_active = ?", true).
			Where("sharing_level IN ?", []models.SharingLevel{models.SharingLevelAggregate, models.SharingLevelNetworkMatch}).
			Where("occurred_month >= ?", fromMonth).
			Group("occurred_month").Group(column)
	}

	var networkRows []trendRow
	if err := base().Where("tenant_id <> ?", scope.TenantID()).Scan(&networkRows).Error; err != nil {
		return nil, fmt.Errorf("error aggregating network trends: %w", err)
	}

	var ownRows []trendRow
	if err := base().Where("tenant_id = ?", scope.TenantID()).Scan(&ownRows).Error; err != nil {
		return nil, fmt.Errorf("error aggregating own trends: %w", err)
	}

	report := &TrendReport{
		Dimension:      dimension,
		Months:         months,
		PrivacyMinimum: s.threshold,
		Points:         s.merge(networkRows, ownRows),
	}
	return report, nil
}

// merge joins the network and own aggregates on (month, dimension value) and
// applies suppression to each series independently.
func (s *Service) merge(network, own []trendRow) []TrendPoint {
	type key struct{ month, value string }

	networkCounts := make(map[key]int, len(network))
	for _, r := range network {
		networkCounts[key{r.Month, r.DimensionValue}] = r.Count
	}
	ownCounts := make(map[key]int, len(own))
	for _, r := range own {
		ownCounts[key{r.Month, r.DimensionValue}] = r.Count
	}

	seen := make(map[key]bool, len(networkCounts)+len(ownCounts))
	keys := make([]key, 0, len(networkCounts)+len(ownCounts))
	for k := range networkCounts {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range ownCounts {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].value < keys[j].value
	})

	points := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, TrendPoint{
			Month:          k.month,
			DimensionValue: k.value,
			NetworkCount:   s.render(networkCounts[k]),
			OwnCount:       s.render(ownCounts[k]),
		})
	}
	return points
}

// render suppresses counts below the privacy threshold, zero included, so a
// suppressed bucket is indistinguishable from an empty one.
func (s *Service) render(count int) string {
	if count < s.threshold {
		return fmt.Sprintf("<%d", s.threshold)
	}
	return strconv.Itoa(count)
}
