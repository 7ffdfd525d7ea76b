package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/clients/redis"
	"github.com/luminex/nursery-backend/internal/data/aggregates"
	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

type SpeciesView struct {
	*types.Species
	BatchCount int64 `json:"batchCount"`
}

type SpeciesInput struct {
	Name           string
	ScientificName *string
	Description    *string
	TargetGirth    float64
	TargetHeight   float64
}

type SpeciesPatch struct {
	Name           *string
	ScientificName *string
	Description    *string
	TargetGirth    *float64
	TargetHeight   *float64
	IsActive       *bool
}

// identityChanged reports whether the patch touches anything beyond targets and activity.
func (p SpeciesPatch) identityChanged() bool {
	return p.Name != nil || p.ScientificName != nil || p.Description != nil
}

type ZoneView struct {
	*types.Zone
	CurrentOccupancy      int   `json:"currentOccupancy"`
	UtilizationPercentage int64 `json:"utilizationPercentage"`
}

func newZoneView(z *types.Zone) *ZoneView {
	v := &ZoneView{Zone: z}
	for _, b := range z.Beds {
		v.CurrentOccupancy += b.Occupied
	}
	v.UtilizationPercentage = percent(int64(v.CurrentOccupancy), int64(z.Capacity))
	return v
}

type BedInput struct {
	Name     string
	Capacity int
}

type ZoneInput struct {
	Name        string
	Description *string
	Capacity    int
	Beds        []BedInput
}

type ZonePatch struct {
	Name        *string
	Description *string
	Capacity    *int
	IsActive    *bool
}

type BedPatch struct {
	Name     *string
	Capacity *int
	IsActive *bool
}

// CatalogService manages species, zones and beds. Bed occupancy is owned by the capacity
// ledger and is never written here except through ReconcileBed.
type CatalogService interface {
	ListSpecies(ctx context.Context, f repos.SpeciesFilter) ([]*types.Species, paging.Meta, error)
	GetSpecies(ctx context.Context, id uuid.UUID) (*SpeciesView, error)
	CreateSpecies(ctx context.Context, in SpeciesInput) (*types.Species, error)
	UpdateSpecies(ctx context.Context, id uuid.UUID, p SpeciesPatch) (*types.Species, error)
	DeleteSpecies(ctx context.Context, id uuid.UUID) error

	ListZones(ctx context.Context, f repos.ZoneFilter) ([]*ZoneView, paging.Meta, error)
	GetZone(ctx context.Context, id uuid.UUID) (*ZoneView, error)
	CreateZone(ctx context.Context, in ZoneInput) (*ZoneView, error)
	UpdateZone(ctx context.Context, id uuid.UUID, p ZonePatch) (*ZoneView, error)
	DeleteZone(ctx context.Context, id uuid.UUID) error

	ListBeds(ctx context.Context, zoneID uuid.UUID) ([]*types.Bed, error)
	CreateBed(ctx context.Context, zoneID uuid.UUID, in BedInput) (*types.Bed, error)
	UpdateBed(ctx context.Context, id uuid.UUID, p BedPatch) (*types.Bed, error)
	DeleteBed(ctx context.Context, id uuid.UUID) error
	ReconcileBed(ctx context.Context, id uuid.UUID) (domainagg.ReconcileBedResult, error)
}

type catalogService struct {
	log     *logger.Logger
	runner  aggregates.TxRunner
	species repos.SpeciesRepo
	zones   repos.ZoneRepo
	beds    repos.BedRepo
	batches repos.BatchRepo
	ledger  domainagg.CapacityLedgerAggregate
	audit   AuditService
	cache   redis.Cache
}

type CatalogDeps struct {
	Runner  aggregates.TxRunner
	Species repos.SpeciesRepo
	Zones   repos.ZoneRepo
	Beds    repos.BedRepo
	Batches repos.BatchRepo
	Ledger  domainagg.CapacityLedgerAggregate
	Audit   AuditService
	Cache   redis.Cache
}

func NewCatalogService(log *logger.Logger, deps CatalogDeps) CatalogService {
	return &catalogService{
		log:     log.With("service", "CatalogService"),
		runner:  deps.Runner,
		species: deps.Species,
		zones:   deps.Zones,
		beds:    deps.Beds,
		batches: deps.Batches,
		ledger:  deps.Ledger,
		audit:   deps.Audit,
		cache:   deps.Cache,
	}
}

func (s *catalogService) ListSpecies(ctx context.Context, f repos.SpeciesFilter) ([]*types.Species, paging.Meta, error) {
	rows, total, err := s.species.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, mapRepoError("CatalogService.ListSpecies", err)
	}
	return rows, paging.NewMeta(f.Page, total), nil
}

func (s *catalogService) GetSpecies(ctx context.Context, id uuid.UUID) (*SpeciesView, error) {
	const op = "CatalogService.GetSpecies"
	dbc := dbctx.Context{Ctx: ctx}
	sp, err := s.species.GetByID(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if sp == nil {
		return nil, notFound(op, "species")
	}
	n, err := s.batches.CountBySpecies(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return &SpeciesView{Species: sp, BatchCount: n}, nil
}

func (s *catalogService) CreateSpecies(ctx context.Context, in SpeciesInput) (*types.Species, error) {
	const op = "CatalogService.CreateSpecies"
	in.Name = strings.TrimSpace(in.Name)
	in.ScientificName = trimmedOrNil(in.ScientificName)
	if in.Name == "" {
		return nil, invalid(op, "name is required")
	}
	if in.TargetGirth <= 0 || in.TargetHeight <= 0 {
		return nil, invalid(op, "target girth and height must be positive")
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.ensureSpeciesUnique(dbc, op, in.Name, in.ScientificName, uuid.Nil); err != nil {
		return nil, err
	}
	row := &types.Species{
		ID:             uuid.New(),
		Name:           in.Name,
		ScientificName: in.ScientificName,
		Description:    trimmedOrNil(in.Description),
		TargetGirth:    in.TargetGirth,
		TargetHeight:   in.TargetHeight,
		IsActive:       true,
	}
	if _, err := s.species.Create(dbc, []*types.Species{row}); err != nil {
		return nil, mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionSpeciesCreated, nil, row)
	return row, nil
}

func (s *catalogService) UpdateSpecies(ctx context.Context, id uuid.UUID, p SpeciesPatch) (*types.Species, error) {
	const op = "CatalogService.UpdateSpecies"
	dbc := dbctx.Context{Ctx: ctx}
	before, err := s.species.GetByID(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if before == nil {
		return nil, notFound(op, "species")
	}
	if p.identityChanged() {
		n, err := s.batches.CountBySpecies(dbc, id)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		if n > 0 {
			return nil, conflict(op, "species is referenced by %d batches; only targets and active flag may change", n)
		}
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid(op, "name is required")
		}
		updates["name"] = name
	}
	if p.ScientificName != nil {
		updates["scientific_name"] = trimmedOrNil(p.ScientificName)
	}
	if p.Description != nil {
		updates["description"] = trimmedOrNil(p.Description)
	}
	if p.TargetGirth != nil {
		if *p.TargetGirth <= 0 {
			return nil, invalid(op, "target girth must be positive")
		}
		updates["target_girth"] = *p.TargetGirth
	}
	if p.TargetHeight != nil {
		if *p.TargetHeight <= 0 {
			return nil, invalid(op, "target height must be positive")
		}
		updates["target_height"] = *p.TargetHeight
	}
	if p.IsActive != nil {
		updates["is_active"] = *p.IsActive
	}
	if len(updates) == 0 {
		return before, nil
	}

	name, _ := updates["name"].(string)
	sci, _ := updates["scientific_name"].(*string)
	if err := s.ensureSpeciesUnique(dbc, op, name, sci, id); err != nil {
		return nil, err
	}
	if err := s.species.UpdateFields(dbc, id, updates); err != nil {
		return nil, mapRepoError(op, err)
	}
	after, err := s.species.GetByID(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionSpeciesUpdated, before, after)
	return after, nil
}

func (s *catalogService) DeleteSpecies(ctx context.Context, id uuid.UUID) error {
	const op = "CatalogService.DeleteSpecies"
	dbc := dbctx.Context{Ctx: ctx}
	before, err := s.species.GetByID(dbc, id)
	if err != nil {
		return mapRepoError(op, err)
	}
	if before == nil {
		return notFound(op, "species")
	}
	n, err := s.batches.CountBySpecies(dbc, id)
	if err != nil {
		return mapRepoError(op, err)
	}
	if n > 0 {
		return conflict(op, "cannot delete species with existing batches")
	}
	if err := s.species.Delete(dbc, id); err != nil {
		return mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionSpeciesDeleted, before, nil)
	return nil
}

func (s *catalogService) ensureSpeciesUnique(dbc dbctx.Context, op, name string, scientificName *string, excludeID uuid.UUID) error {
	if name != "" {
		dup, err := s.species.FindByNameFold(dbc, name, excludeID)
		if err != nil {
			return mapRepoError(op, err)
		}
		if dup != nil {
			return conflict(op, "species with this name already exists")
		}
	}
	if scientificName != nil {
		dup, err := s.species.FindByScientificNameFold(dbc, *scientificName, excludeID)
		if err != nil {
			return mapRepoError(op, err)
		}
		if dup != nil {
			return conflict(op, "species with this scientific name already exists")
		}
	}
	return nil
}

func (s *catalogService) ListZones(ctx context.Context, f repos.ZoneFilter) ([]*ZoneView, paging.Meta, error) {
	rows, total, err := s.zones.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, mapRepoError("CatalogService.ListZones", err)
	}
	out := make([]*ZoneView, 0, len(rows))
	for _, z := range rows {
		out = append(out, newZoneView(z))
	}
	return out, paging.NewMeta(f.Page, total), nil
}

func (s *catalogService) GetZone(ctx context.Context, id uuid.UUID) (*ZoneView, error) {
	const op = "CatalogService.GetZone"
	z, err := s.zones.GetWithBeds(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if z == nil {
		return nil, notFound(op, "zone")
	}
	return newZoneView(z), nil
}

// CreateZone inserts the zone and its initial beds in one transaction.
func (s *catalogService) CreateZone(ctx context.Context, in ZoneInput) (*ZoneView, error) {
	const op = "CatalogService.CreateZone"
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid(op, "name is required")
	}
	if in.Capacity < 1 {
		return nil, invalid(op, "capacity must be at least 1")
	}
	seen := map[string]bool{}
	for i, b := range in.Beds {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, invalid(op, "bed %d: name is required", i+1)
		}
		if b.Capacity < 1 {
			return nil, invalid(op, "bed %q: capacity must be at least 1", name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, conflict(op, "duplicate bed name %q", name)
		}
		seen[key] = true
		in.Beds[i].Name = name
	}

	zone := &types.Zone{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: trimmedOrNil(in.Description),
		Capacity:    in.Capacity,
		IsActive:    true,
	}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		dup, err := s.zones.FindByNameFold(dbc, zone.Name, uuid.Nil)
		if err != nil {
			return err
		}
		if dup != nil {
			return conflict(op, "zone with this name already exists")
		}
		if _, err := s.zones.Create(dbc, []*types.Zone{zone}); err != nil {
			return err
		}
		beds := make([]*types.Bed, 0, len(in.Beds))
		for _, b := range in.Beds {
			beds = append(beds, &types.Bed{ID: uuid.New(), Name: b.Name, Capacity: b.Capacity, ZoneID: zone.ID, IsActive: true})
		}
		if _, err := s.beds.Create(dbc, beds); err != nil {
			return err
		}
		for _, b := range beds {
			zone.Beds = append(zone.Beds, *b)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionZoneCreated, nil, zone)
	return newZoneView(zone), nil
}

func (s *catalogService) UpdateZone(ctx context.Context, id uuid.UUID, p ZonePatch) (*ZoneView, error) {
	const op = "CatalogService.UpdateZone"
	dbc := dbctx.Context{Ctx: ctx}
	before, err := s.zones.GetByID(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if before == nil {
		return nil, notFound(op, "zone")
	}
	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, invalid(op, "name is required")
		}
		dup, err := s.zones.FindByNameFold(dbc, name, id)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		if dup != nil {
			return nil, conflict(op, "zone with this name already exists")
		}
		updates["name"] = name
	}
	if p.Description != nil {
		updates["description"] = trimmedOrNil(p.Description)
	}
	if p.Capacity != nil {
		if *p.Capacity < 1 {
			return nil, invalid(op, "capacity must be at least 1")
		}
		updates["capacity"] = *p.Capacity
	}
	if p.IsActive != nil {
		updates["is_active"] = *p.IsActive
	}
	if len(updates) > 0 {
		if err := s.zones.UpdateFields(dbc, id, updates); err != nil {
			return nil, mapRepoError(op, err)
		}
	}
	after, err := s.zones.GetWithBeds(dbc, id)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if len(updates) > 0 {
		s.afterWrite(ctx, audit.ActionZoneUpdated, before, updates)
	}
	return newZoneView(after), nil
}

// DeleteZone removes the zone and its beds; any batch still pointing at the zone blocks it.
func (s *catalogService) DeleteZone(ctx context.Context, id uuid.UUID) error {
	const op = "CatalogService.DeleteZone"
	var before *types.Zone
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		z, err := s.zones.GetWithBeds(dbc, id)
		if err != nil {
			return err
		}
		if z == nil {
			return notFound(op, "zone")
		}
		n, err := s.batches.CountByZone(dbc, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflict(op, "cannot delete zone with existing batches")
		}
		if _, err := s.beds.DeleteByZone(dbc, id); err != nil {
			return err
		}
		before = z
		return s.zones.Delete(dbc, id)
	})
	if err != nil {
		return mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionZoneDeleted, before, nil)
	return nil
}

func (s *catalogService) ListBeds(ctx context.Context, zoneID uuid.UUID) ([]*types.Bed, error) {
	const op = "CatalogService.ListBeds"
	dbc := dbctx.Context{Ctx: ctx}
	z, err := s.zones.GetByID(dbc, zoneID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if z == nil {
		return nil, notFound(op, "zone")
	}
	rows, err := s.beds.ListByZone(dbc, zoneID)
	return rows, mapRepoError(op, err)
}

func (s *catalogService) CreateBed(ctx context.Context, zoneID uuid.UUID, in BedInput) (*types.Bed, error) {
	const op = "CatalogService.CreateBed"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	if in.Capacity < 1 {
		return nil, invalid(op, "capacity must be at least 1")
	}
	dbc := dbctx.Context{Ctx: ctx}
	z, err := s.zones.GetByID(dbc, zoneID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if z == nil {
		return nil, notFound(op, "zone")
	}
	dup, err := s.beds.FindByNameInZone(dbc, zoneID, name, uuid.Nil)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if dup != nil {
		return nil, conflict(op, "bed %q already exists in this zone", name)
	}
	row := &types.Bed{ID: uuid.New(), Name: name, Capacity: in.Capacity, ZoneID: zoneID, IsActive: true}
	if _, err := s.beds.Create(dbc, []*types.Bed{row}); err != nil {
		return nil, mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionBedCreated, nil, row)
	return row, nil
}

// UpdateBed locks the bed so a capacity cut cannot race a ledger increment. Capacity may not
// drop below what the bed already holds.
func (s *catalogService) UpdateBed(ctx context.Context, id uuid.UUID, p BedPatch) (*types.Bed, error) {
	const op = "CatalogService.UpdateBed"
	var before, after *types.Bed
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		bed, err := s.beds.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if bed == nil {
			return notFound(op, "bed")
		}
		updates := map[string]interface{}{}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return invalid(op, "name is required")
			}
			dup, err := s.beds.FindByNameInZone(dbc, bed.ZoneID, name, id)
			if err != nil {
				return err
			}
			if dup != nil {
				return conflict(op, "bed %q already exists in this zone", name)
			}
			updates["name"] = name
		}
		if p.Capacity != nil {
			if *p.Capacity < 1 {
				return invalid(op, "capacity must be at least 1")
			}
			// A cut below occupancy is allowed; the ledger refuses further placements until it drains.
			updates["capacity"] = *p.Capacity
		}
		if p.IsActive != nil {
			updates["is_active"] = *p.IsActive
		}
		if err := s.beds.UpdateFields(dbc, id, updates); err != nil {
			return err
		}
		before = bed
		after, err = s.beds.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionBedUpdated, before, after)
	return after, nil
}

func (s *catalogService) DeleteBed(ctx context.Context, id uuid.UUID) error {
	const op = "CatalogService.DeleteBed"
	var before *types.Bed
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		bed, err := s.beds.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if bed == nil {
			return notFound(op, "bed")
		}
		n, err := s.batches.CountByBed(dbc, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflict(op, "cannot delete bed with existing batches")
		}
		before = bed
		return s.beds.Delete(dbc, id)
	})
	if err != nil {
		return mapRepoError(op, err)
	}
	s.afterWrite(ctx, audit.ActionBedDeleted, before, nil)
	return nil
}

func (s *catalogService) ReconcileBed(ctx context.Context, id uuid.UUID) (domainagg.ReconcileBedResult, error) {
	res, err := s.ledger.ReconcileBed(ctx, id)
	if err != nil {
		return res, err
	}
	if res.Drifted() {
		s.log.Warn("bed occupancy drift repaired", "bed_id", id, "previous", res.Previous, "occupied", res.Occupied)
	}
	s.afterWrite(ctx, audit.ActionBedReconciled, map[string]int{"occupied": res.Previous}, map[string]int{"occupied": res.Occupied})
	return res, nil
}

func (s *catalogService) afterWrite(ctx context.Context, action string, oldValues, newValues any) {
	s.audit.Record(ctx, action, nil, oldValues, newValues)
	invalidateAnalytics(ctx, s.log, s.cache)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
