// Package seed loads the demo nursery: three staff accounts, the species catalog, four zones
// with their beds and a spread of batches across every pathway.
//
// All writes go through the services so bed occupancy, stage history and the audit trail
// come out exactly as they would for API traffic.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/pkg/pointers"
	"github.com/luminex/nursery-backend/internal/platform/ctxutil"
	"github.com/luminex/nursery-backend/internal/platform/logger"
	"github.com/luminex/nursery-backend/internal/services"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "admin123"

type Deps struct {
	Users        services.UserService
	Catalog      services.CatalogService
	Batches      services.BatchService
	Measurements services.MeasurementService
}

type Summary struct {
	Skipped      bool
	Users        int
	Species      int
	Zones        int
	Beds         int
	Batches      int
	Measurements int
}

type userSeed struct {
	email, username, first, last string
	role                         types.Role
}

var userSeeds = []userSeed{
	{"admin@plant.com", "admin", "Super", "Admin", types.RoleSuperAdmin},
	{"manager@plant.com", "manager", "Plant", "Manager", types.RoleManager},
	{"officer@plant.com", "officer", "Field", "Officer", types.RoleFieldOfficer},
}

type speciesSeed struct {
	name, scientific string
	girth, height    float64
}

var speciesSeeds = []speciesSeed{
	{"Rubber Tree", "Ficus elastica", 3.5, 50},
	{"Mango Tree", "Mangifera indica", 4.0, 60},
	{"Avocado Tree", "Persea americana", 3.0, 45},
	{"Orange Tree", "Citrus sinensis", 2.5, 40},
	{"Apple Tree", "Malus domestica", 3.2, 55},
	{"Coconut Palm", "Cocos nucifera", 5.0, 80},
	{"Teak Tree", "Tectona grandis", 4.5, 70},
	{"Mahogany Tree", "Swietenia macrophylla", 4.2, 65},
}

type zoneSeed struct {
	name     string
	capacity int
	beds     []services.BedInput
}

var zoneSeeds = []zoneSeed{
	{"Zone A - Propagation", 2000, []services.BedInput{{Name: "Bed A1", Capacity: 400}, {Name: "Bed A2", Capacity: 500}, {Name: "Bed A3", Capacity: 600}, {Name: "Bed A4", Capacity: 500}}},
	{"Zone B - Growing", 3000, []services.BedInput{{Name: "Bed B1", Capacity: 750}, {Name: "Bed B2", Capacity: 800}, {Name: "Bed B3", Capacity: 750}, {Name: "Bed B4", Capacity: 700}}},
	{"Zone C - Hardening", 1500, []services.BedInput{{Name: "Bed C1", Capacity: 375}, {Name: "Bed C2", Capacity: 400}, {Name: "Bed C3", Capacity: 375}, {Name: "Bed C4", Capacity: 350}}},
	{"Zone D - Finishing", 1000, []services.BedInput{{Name: "Bed D1", Capacity: 250}, {Name: "Bed D2", Capacity: 300}, {Name: "Bed D3", Capacity: 250}, {Name: "Bed D4", Capacity: 200}}},
}

type batchSeed struct {
	name      string
	pathway   nursery.Pathway
	species   string
	initial   int
	current   int
	stage     nursery.Stage
	ready     bool
	createdBy string
	bed       string
}

var batchSeeds = []batchSeed{
	{"Premium Rubber Collection", nursery.PathwayPurchasing, "Rubber Tree", 500, 485, nursery.StageGrowing, false, "manager", "Bed B1"},
	{"Mango Orchard Starter", nursery.PathwayPurchasing, "Mango Tree", 300, 295, nursery.StageHardening, false, "manager", "Bed C1"},
	{"Avocado Seedlings", nursery.PathwaySeedGermination, "Avocado Tree", 200, 180, nursery.StageShade80, false, "officer", "Bed A2"},
	{"Citrus Collection", nursery.PathwaySeedGermination, "Orange Tree", 400, 375, nursery.StagePropagation, false, "officer", "Bed A3"},
	{"Apple Grafts", nursery.PathwayCuttingGermination, "Apple Tree", 150, 142, nursery.StageGrowing, false, "manager", "Bed B2"},
	{"Premium Coconut Palms", nursery.PathwayOutSourcing, "Coconut Palm", 100, 98, nursery.StagePhytosanitary, true, "manager", "Bed D1"},
	{"Teak Premium", nursery.PathwayOutSourcing, "Teak Tree", 75, 75, nursery.StageRePotting, false, "manager", "Bed C2"},
	{"Mahogany Collection", nursery.PathwayPurchasing, "Mahogany Tree", 120, 115, nursery.StageInitial, false, "officer", "Bed A1"},
}

// growth fractions of the species targets for the weekly samples of each batch.
var sampleFractions = []float64{0.4, 0.6, 0.8}

type placement struct {
	zoneID uuid.UUID
	bedID  uuid.UUID
}

// Run loads the demo data. It is a no-op when the admin account already exists.
func Run(ctx context.Context, log *logger.Logger, deps Deps) (Summary, error) {
	log = log.With("component", "Seed")
	var sum Summary

	existing, _, err := deps.Users.List(ctx, repos.UserFilter{Search: userSeeds[0].email, Page: paging.Params{Page: 1, Limit: 1}})
	if err != nil {
		return sum, fmt.Errorf("check existing users: %w", err)
	}
	if len(existing) > 0 {
		log.Info("seed data already present; skipping")
		sum.Skipped = true
		return sum, nil
	}

	users := map[string]*types.User{}
	// The first account has nobody to act on its behalf; every later write runs as the admin.
	actor := ctx
	for _, u := range userSeeds {
		created, err := deps.Users.Create(actor, services.CreateUserInput{
			Email:     u.email,
			Username:  u.username,
			Password:  DefaultPassword,
			FirstName: u.first,
			LastName:  u.last,
			Role:      u.role,
		})
		if err != nil {
			return sum, fmt.Errorf("create user %s: %w", u.email, err)
		}
		users[u.username] = created
		if u.role == types.RoleSuperAdmin {
			actor = as(ctx, created)
		}
		sum.Users++
	}
	log.Info("seeded users", "count", sum.Users)

	species := map[string]*types.Species{}
	for _, s := range speciesSeeds {
		created, err := deps.Catalog.CreateSpecies(actor, services.SpeciesInput{
			Name:           s.name,
			ScientificName: pointers.String(s.scientific),
			TargetGirth:    s.girth,
			TargetHeight:   s.height,
		})
		if err != nil {
			return sum, fmt.Errorf("create species %s: %w", s.name, err)
		}
		species[s.name] = created
		sum.Species++
	}
	log.Info("seeded species", "count", sum.Species)

	beds := map[string]placement{}
	for _, z := range zoneSeeds {
		zone, err := deps.Catalog.CreateZone(actor, services.ZoneInput{Name: z.name, Capacity: z.capacity, Beds: z.beds})
		if err != nil {
			return sum, fmt.Errorf("create zone %s: %w", z.name, err)
		}
		for _, b := range zone.Beds {
			beds[b.Name] = placement{zoneID: zone.ID, bedID: b.ID}
		}
		sum.Zones++
		sum.Beds += len(zone.Beds)
	}
	log.Info("seeded zones", "zones", sum.Zones, "beds", sum.Beds)

	for _, b := range batchSeeds {
		n, err := seedBatch(as(ctx, users[b.createdBy]), deps, b, species[b.species], beds[b.bed])
		if err != nil {
			return sum, fmt.Errorf("seed batch %q: %w", b.name, err)
		}
		sum.Batches++
		sum.Measurements += n
	}
	log.Info("seeded batches", "batches", sum.Batches, "measurements", sum.Measurements)
	return sum, nil
}

func seedBatch(ctx context.Context, deps Deps, b batchSeed, sp *types.Species, at placement) (int, error) {
	if sp == nil || at.bedID == uuid.Nil {
		return 0, fmt.Errorf("unknown species %q or bed %q", b.species, b.bed)
	}
	res, err := deps.Batches.Create(ctx, domainagg.CreateBatchInput{
		CustomName: pointers.String(b.name),
		Pathway:    b.pathway,
		SpeciesID:  sp.ID,
		InitialQty: b.initial,
		ZoneID:     &at.zoneID,
		BedID:      &at.bedID,
	})
	if err != nil {
		return 0, err
	}
	id := res.Batch.ID

	if b.stage == nursery.StageInitial {
		if lost := b.initial - b.current; lost > 0 {
			if _, err := deps.Batches.RecordLoss(ctx, domainagg.RecordLossInput{BatchID: id, Quantity: lost, Reason: "Germination losses"}); err != nil {
				return 0, err
			}
		}
	} else {
		if _, err := deps.Batches.UpdateStage(ctx, domainagg.UpdateStageInput{
			BatchID:  id,
			ToStage:  b.stage,
			Quantity: b.current,
			Notes:    pointers.String(fmt.Sprintf("Progressed to %s", b.stage)),
		}); err != nil {
			return 0, err
		}
	}

	fractions := sampleFractions
	if b.ready {
		fractions = append(append([]float64{}, sampleFractions...), 1.0)
	}
	for i, f := range fractions {
		note := "Initial measurement"
		if i > 0 {
			note = fmt.Sprintf("Week %d growth check", i+1)
		}
		if _, err := deps.Measurements.Record(ctx, domainagg.RecordMeasurementInput{
			BatchID:    id,
			Girth:      round2(sp.TargetGirth * f),
			Height:     round2(sp.TargetHeight * f),
			SampleSize: 5 + 2*i,
			Notes:      pointers.String(note),
		}); err != nil {
			return i, err
		}
	}

	if b.ready {
		if _, err := deps.Batches.MarkReady(ctx, id); err != nil {
			return len(fractions), err
		}
	}
	return len(fractions), nil
}

func as(ctx context.Context, u *types.User) context.Context {
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: u.ID, Role: string(u.Role)})
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
