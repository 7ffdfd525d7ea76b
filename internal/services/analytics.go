package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/luminex/nursery-backend/internal/clients/redis"
	"github.com/luminex/nursery-backend/internal/data/repos"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/observability"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

const (
	analyticsCachePrefix = "analytics:"
	defaultTrendWindow   = 30 * 24 * time.Hour
	recentActivityLimit  = 10
)

type DashboardStats struct {
	TotalBatches         int64            `json:"totalBatches"`
	ActiveBatches        int64            `json:"activeBatches"`
	ReadyBatches         int64            `json:"readyBatches"`
	TotalPlants          int64            `json:"totalPlants"`
	TotalSpecies         int64            `json:"totalSpecies"`
	TotalZones           int64            `json:"totalZones"`
	MeasurementsToday    int64            `json:"measurementsToday"`
	MeasurementsThisWeek int64            `json:"measurementsThisWeek"`
	RecentActivity       []RecentActivity `json:"recentActivity"`
}

type RecentActivity struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type ZoneUtilization struct {
	ZoneID                uuid.UUID `json:"zoneId"`
	ZoneName              string    `json:"zoneName"`
	Capacity              int64     `json:"capacity"`
	Occupied              int64     `json:"occupied"`
	UtilizationPercentage int64     `json:"utilizationPercentage"`
}

type GrowthTrendPoint struct {
	Date             string  `json:"date"`
	AverageGirth     float64 `json:"averageGirth"`
	AverageHeight    float64 `json:"averageHeight"`
	MeasurementCount int     `json:"measurementCount"`
}

type ProductionMetrics struct {
	BatchesCreated        int64 `json:"batchesCreated"`
	BatchesCompleted      int64 `json:"batchesCompleted"`
	PlantsProduced        int64 `json:"plantsProduced"`
	AverageProcessingDays int64 `json:"averageProcessingTime"`
	TotalLoss             int64 `json:"totalLoss"`
	CompletionRate        int64 `json:"completionRate"`
}

// AnalyticsService serves read-only dashboards. Results are cached when a cache is configured.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	ZoneUtilization(ctx context.Context) ([]ZoneUtilization, error)
	SpeciesDistribution(ctx context.Context) ([]repos.SpeciesDistributionRow, error)
	StagePipeline(ctx context.Context) ([]repos.StagePipelineRow, error)
	GrowthTrends(ctx context.Context, speciesID *uuid.UUID, w repos.TimeWindow) ([]GrowthTrendPoint, error)
	Production(ctx context.Context, w repos.TimeWindow) (*ProductionMetrics, error)
}

type analyticsService struct {
	log     *logger.Logger
	repo    repos.AnalyticsRepo
	cache   redis.Cache
	metrics *observability.Metrics
	now     func() time.Time
}

func NewAnalyticsService(log *logger.Logger, repo repos.AnalyticsRepo, cache redis.Cache, metrics *observability.Metrics) AnalyticsService {
	return &analyticsService{
		log:     log.With("service", "AnalyticsService"),
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		now:     time.Now,
	}
}

// cached serves key from the cache or computes and stores it. Cache errors fall through to compute.
func cached[T any](ctx context.Context, s *analyticsService, endpoint, key string, compute func() (T, error)) (T, error) {
	var out T
	fullKey := analyticsCachePrefix + endpoint + ":" + key
	if s.cache != nil {
		ok, err := s.cache.Get(ctx, fullKey, &out)
		switch {
		case err != nil:
			s.metrics.IncCacheResult(endpoint, "error")
			s.log.Warn("analytics cache read failed", "endpoint", endpoint, "error", err)
		case ok:
			s.metrics.IncCacheResult(endpoint, "hit")
			return out, nil
		default:
			s.metrics.IncCacheResult(endpoint, "miss")
		}
	}
	out, err := compute()
	if err != nil {
		return out, mapRepoError("AnalyticsService."+endpoint, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, fullKey, out); err != nil {
			s.log.Warn("analytics cache write failed", "endpoint", endpoint, "error", err)
		}
	}
	return out, nil
}

func (s *analyticsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	// Keyed by day so "today" rolls over even while entries are warm.
	return cached(ctx, s, "dashboard", now.Format("2006-01-02"), func() (*DashboardStats, error) {
		out := &DashboardStats{}
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		weekAgo := now.Add(-7 * 24 * time.Hour)
		notDelivered := []nursery.BatchStatus{
			nursery.StatusCreated, nursery.StatusInProgress, nursery.StatusReady, nursery.StatusCancelled,
		}

		g, gctx := errgroup.WithContext(ctx)
		dbc := dbctx.Context{Ctx: gctx}
		g.Go(func() (err error) {
			out.TotalBatches, err = s.repo.CountBatches(dbc, nil, repos.TimeWindow{}, "")
			return err
		})
		g.Go(func() (err error) {
			out.ActiveBatches, err = s.repo.CountBatches(dbc,
				[]nursery.BatchStatus{nursery.StatusCreated, nursery.StatusInProgress}, repos.TimeWindow{}, "")
			return err
		})
		g.Go(func() (err error) {
			out.ReadyBatches, err = s.repo.CountReadyUndelivered(dbc)
			return err
		})
		g.Go(func() (err error) {
			out.TotalPlants, err = s.repo.SumCurrentQty(dbc, notDelivered, repos.TimeWindow{}, "")
			return err
		})
		g.Go(func() (err error) {
			out.TotalSpecies, err = s.repo.CountActiveSpecies(dbc)
			return err
		})
		g.Go(func() (err error) {
			out.TotalZones, err = s.repo.CountActiveZones(dbc)
			return err
		})
		g.Go(func() (err error) {
			out.MeasurementsToday, err = s.repo.CountMeasurements(dbc, repos.TimeWindow{From: &startOfDay})
			return err
		})
		g.Go(func() (err error) {
			out.MeasurementsThisWeek, err = s.repo.CountMeasurements(dbc, repos.TimeWindow{From: &weekAgo})
			return err
		})
		g.Go(func() error {
			rows, err := s.repo.RecentlyUpdatedBatches(dbc, recentActivityLimit)
			if err != nil {
				return err
			}
			out.RecentActivity = make([]RecentActivity, 0, len(rows))
			for _, b := range rows {
				speciesName := ""
				if b.Species != nil {
					speciesName = b.Species.Name
				}
				out.RecentActivity = append(out.RecentActivity, RecentActivity{
					ID:        b.ID,
					Type:      "batch_update",
					Message:   fmt.Sprintf("Batch %s (%s) updated to %s", b.BatchNumber, speciesName, b.Stage),
					CreatedAt: b.UpdatedAt.UTC(),
				})
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *analyticsService) ZoneUtilization(ctx context.Context) ([]ZoneUtilization, error) {
	return cached(ctx, s, "zones", "all", func() ([]ZoneUtilization, error) {
		rows, err := s.repo.ZoneUtilization(dbctx.Context{Ctx: ctx})
		if err != nil {
			return nil, err
		}
		out := make([]ZoneUtilization, 0, len(rows))
		for _, r := range rows {
			out = append(out, ZoneUtilization{
				ZoneID:                r.ZoneID,
				ZoneName:              r.ZoneName,
				Capacity:              r.Capacity,
				Occupied:              r.Occupied,
				UtilizationPercentage: percent(r.Occupied, r.Capacity),
			})
		}
		return out, nil
	})
}

func (s *analyticsService) SpeciesDistribution(ctx context.Context) ([]repos.SpeciesDistributionRow, error) {
	return cached(ctx, s, "species", "all", func() ([]repos.SpeciesDistributionRow, error) {
		return s.repo.SpeciesDistribution(dbctx.Context{Ctx: ctx})
	})
}

// StagePipeline reports every stage in lifecycle order, zero-filled.
func (s *analyticsService) StagePipeline(ctx context.Context) ([]repos.StagePipelineRow, error) {
	return cached(ctx, s, "stages", "all", func() ([]repos.StagePipelineRow, error) {
		rows, err := s.repo.StagePipeline(dbctx.Context{Ctx: ctx})
		if err != nil {
			return nil, err
		}
		byStage := make(map[nursery.Stage]repos.StagePipelineRow, len(rows))
		for _, r := range rows {
			byStage[r.Stage] = r
		}
		out := make([]repos.StagePipelineRow, 0, len(nursery.Stages()))
		for _, st := range nursery.Stages() {
			row := byStage[st]
			row.Stage = st
			out = append(out, row)
		}
		return out, nil
	})
}

func (s *analyticsService) GrowthTrends(ctx context.Context, speciesID *uuid.UUID, w repos.TimeWindow) ([]GrowthTrendPoint, error) {
	w = s.defaultWindow(w)
	key := windowKey(w)
	if speciesID != nil {
		key += ":" + speciesID.String()
	}
	return cached(ctx, s, "growth", key, func() ([]GrowthTrendPoint, error) {
		rows, err := s.repo.MeasurementsInWindow(dbctx.Context{Ctx: ctx}, w, speciesID)
		if err != nil {
			return nil, err
		}
		type acc struct {
			girth, height float64
			n             int
		}
		byDay := map[string]*acc{}
		for _, m := range rows {
			day := m.CreatedAt.UTC().Format("2006-01-02")
			a := byDay[day]
			if a == nil {
				a = &acc{}
				byDay[day] = a
			}
			a.girth += m.Girth
			a.height += m.Height
			a.n++
		}
		out := make([]GrowthTrendPoint, 0, len(byDay))
		for day, a := range byDay {
			out = append(out, GrowthTrendPoint{
				Date:             day,
				AverageGirth:     round2(a.girth / float64(a.n)),
				AverageHeight:    round2(a.height / float64(a.n)),
				MeasurementCount: a.n,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
		return out, nil
	})
}

func (s *analyticsService) Production(ctx context.Context, w repos.TimeWindow) (*ProductionMetrics, error) {
	w = s.defaultWindow(w)
	return cached(ctx, s, "production", windowKey(w), func() (*ProductionMetrics, error) {
		out := &ProductionMetrics{}
		delivered := []nursery.BatchStatus{nursery.StatusDelivered}

		g, gctx := errgroup.WithContext(ctx)
		dbc := dbctx.Context{Ctx: gctx}
		g.Go(func() (err error) {
			out.BatchesCreated, err = s.repo.CountBatches(dbc, nil, w, "created_at")
			return err
		})
		g.Go(func() (err error) {
			out.BatchesCompleted, err = s.repo.CountBatches(dbc, delivered, w, "updated_at")
			return err
		})
		g.Go(func() (err error) {
			out.PlantsProduced, err = s.repo.SumCurrentQty(dbc, delivered, w, "updated_at")
			return err
		})
		g.Go(func() (err error) {
			out.TotalLoss, err = s.repo.SumLossQty(dbc, w)
			return err
		})
		g.Go(func() error {
			rows, err := s.repo.DeliveredInWindow(dbc, w)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			var totalDays float64
			for _, b := range rows {
				if b.ReadyDate != nil {
					totalDays += math.Ceil(b.ReadyDate.Sub(b.CreatedAt).Hours() / 24)
				}
			}
			out.AverageProcessingDays = int64(math.Round(totalDays / float64(len(rows))))
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		out.CompletionRate = percent(out.BatchesCompleted, out.BatchesCreated)
		return out, nil
	})
}

func (s *analyticsService) defaultWindow(w repos.TimeWindow) repos.TimeWindow {
	if w.From == nil && w.To == nil {
		from := s.now().UTC().Add(-defaultTrendWindow).Truncate(time.Hour)
		w.From = &from
	}
	return w
}

func windowKey(w repos.TimeWindow) string {
	key := "from="
	if w.From != nil {
		key += w.From.UTC().Format(time.RFC3339)
	}
	key += ":to="
	if w.To != nil {
		key += w.To.UTC().Format(time.RFC3339)
	}
	return key
}

func percent(part, whole int64) int64 {
	if whole <= 0 {
		return 0
	}
	return int64(math.Round(float64(part) / float64(whole) * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
