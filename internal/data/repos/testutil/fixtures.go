package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role types.Role) *types.User {
	tb.Helper()
	n := uuid.NewString()[:8]
	u := &types.User{
		ID:        uuid.New(),
		Email:     "user-" + n + "@nursery.test",
		Username:  "user-" + n,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
		IsActive:  true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSpecies(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, targetGirth, targetHeight float64) *types.Species {
	tb.Helper()
	s := &types.Species{
		ID:           uuid.New(),
		Name:         name,
		TargetGirth:  targetGirth,
		TargetHeight: targetHeight,
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed species: %v", err)
	}
	return s
}

func SeedZone(tb testing.TB, ctx context.Context, tx *gorm.DB, capacity int) *types.Zone {
	tb.Helper()
	z := &types.Zone{
		ID:       uuid.New(),
		Name:     "zone-" + uuid.NewString()[:8],
		Capacity: capacity,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Omit("Beds").Create(z).Error; err != nil {
		tb.Fatalf("seed zone: %v", err)
	}
	return z
}

func SeedBed(tb testing.TB, ctx context.Context, tx *gorm.DB, zoneID uuid.UUID, name string, capacity int) *types.Bed {
	tb.Helper()
	b := &types.Bed{
		ID:       uuid.New(),
		Name:     name,
		Capacity: capacity,
		ZoneID:   zoneID,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed bed: %v", err)
	}
	return b
}

// SeedBatch inserts a batch row directly, bypassing the capacity ledger. The caller keeps
// beds.occupied consistent when it matters.
func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, b *types.Batch) *types.Batch {
	tb.Helper()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.BatchNumber == "" {
		b.BatchNumber = "PU250101" + uuid.NewString()[:3]
	}
	if b.Pathway == "" {
		b.Pathway = nursery.PathwayPurchasing
	}
	if b.Status == "" {
		b.Status = nursery.StatusCreated
	}
	if b.Stage == "" {
		b.Stage = nursery.StageInitial
	}
	if b.CurrentQty == 0 {
		b.CurrentQty = b.InitialQty
	}
	if err := tx.WithContext(ctx).Omit("Species", "CreatedBy", "Zone", "Bed").Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	return b
}

func ReloadBed(tb testing.TB, tx *gorm.DB, id uuid.UUID) *types.Bed {
	tb.Helper()
	var b types.Bed
	if err := tx.Where("id = ?", id).Take(&b).Error; err != nil {
		tb.Fatalf("reload bed: %v", err)
	}
	return &b
}

func ReloadBatch(tb testing.TB, tx *gorm.DB, id uuid.UUID) *types.Batch {
	tb.Helper()
	var b types.Batch
	if err := tx.Where("id = ?", id).Take(&b).Error; err != nil {
		tb.Fatalf("reload batch: %v", err)
	}
	return &b
}

// DerivedOccupancy sums currentQty of the batches counted against a bed.
func DerivedOccupancy(tb testing.TB, tx *gorm.DB, bedID uuid.UUID) int {
	tb.Helper()
	var sum int64
	if err := tx.Model(&types.Batch{}).
		Where("bed_id = ? AND status IN ?", bedID, nursery.OccupyingStatuses()).
		Select("COALESCE(SUM(current_qty), 0)").
		Scan(&sum).Error; err != nil {
		tb.Fatalf("derived occupancy: %v", err)
	}
	return int(sum)
}
