package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/aggregates"
	"github.com/luminex/nursery-backend/internal/data/repos"
	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
)

type serviceFixture struct {
	db    *gorm.DB
	cache *memCache

	batchRepo repos.BatchRepo
	auditRepo repos.AuditLogRepo
	userRepo  repos.UserRepo

	audit        AuditService
	batches      BatchService
	measurements MeasurementService
	catalog      CatalogService
	analytics    AnalyticsService

	admin   *types.User
	officer *types.User
	species *types.Species
	zone    *types.Zone
	bed     *types.Bed
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	ctx := context.Background()
	f := &serviceFixture{db: db, cache: newMemCache()}

	base := aggregates.BaseDeps{DB: db, Log: log}
	f.batchRepo = repos.NewBatchRepo(db, log)
	f.auditRepo = repos.NewAuditLogRepo(db, log)
	f.userRepo = repos.NewUserRepo(db, log)
	history := repos.NewStageHistoryRepo(db, log)
	meas := repos.NewMeasurementRepo(db, log)
	species := repos.NewSpeciesRepo(db, log)
	zones := repos.NewZoneRepo(db, log)
	beds := repos.NewBedRepo(db, log)

	lifecycle := aggregates.NewBatchLifecycleAggregate(aggregates.BatchLifecycleAggregateDeps{
		Base:         base,
		Batches:      f.batchRepo,
		History:      history,
		Measurements: meas,
		Species:      species,
		Zones:        zones,
		Beds:         beds,
	})
	ledger := aggregates.NewCapacityLedgerAggregate(aggregates.CapacityLedgerAggregateDeps{Base: base, Beds: beds, Batches: f.batchRepo})
	recorder := aggregates.NewMeasurementAggregate(aggregates.MeasurementAggregateDeps{Base: base, Batches: f.batchRepo, Measurements: meas})

	f.audit = NewAuditService(log, f.auditRepo, nil)
	f.batches = NewBatchService(log, lifecycle, f.batchRepo, history, meas, f.audit, f.cache)
	f.measurements = NewMeasurementService(log, recorder, meas, f.batchRepo, f.audit, f.cache)
	f.catalog = NewCatalogService(log, CatalogDeps{
		Runner:  aggregates.NewGormTxRunner(db),
		Species: species,
		Zones:   zones,
		Beds:    beds,
		Batches: f.batchRepo,
		Ledger:  ledger,
		Audit:   f.audit,
		Cache:   f.cache,
	})
	f.analytics = NewAnalyticsService(log, repos.NewAnalyticsRepo(db, log), f.cache, nil)

	f.admin = repotest.SeedUser(t, ctx, db, types.RoleSuperAdmin)
	f.officer = repotest.SeedUser(t, ctx, db, types.RoleFieldOfficer)
	f.species = repotest.SeedSpecies(t, ctx, db, "Mahogany", 3, 32)
	f.zone = repotest.SeedZone(t, ctx, db, 1000)
	f.bed = repotest.SeedBed(t, ctx, db, f.zone.ID, "A1", 100)
	return f
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: string(u.Role)})
}

// memCache is an in-process stand-in for the redis cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memCache) Client() goredis.UniversalClient { return nil }
func (c *memCache) Close() error                    { return nil }

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
