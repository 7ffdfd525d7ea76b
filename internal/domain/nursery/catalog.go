package nursery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Species struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"not null;uniqueIndex;column:name" json:"name"`
	ScientificName *string   `gorm:"uniqueIndex;column:scientific_name" json:"scientificName,omitempty"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	// Target metrics in centimetres; a batch is ready once its latest sample meets both.
	TargetGirth  float64 `gorm:"not null;column:target_girth" json:"targetGirth"`
	TargetHeight float64 `gorm:"not null;column:target_height" json:"targetHeight"`
	IsActive     bool    `gorm:"not null;column:is_active" json:"isActive"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Species) TableName() string { return "species" }

func (s *Species) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex;column:name" json:"name"`
	Description *string   `gorm:"column:description" json:"description,omitempty"`
	Capacity    int       `gorm:"not null;column:capacity" json:"capacity"`
	IsActive    bool      `gorm:"not null;column:is_active" json:"isActive"`
	Beds        []Bed     `gorm:"foreignKey:ZoneID" json:"beds,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Zone) TableName() string { return "zones" }

func (z *Zone) BeforeCreate(*gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

// Bed is a capacity-bounded container within a Zone. Occupied is maintained by the
// capacity ledger and is never written directly by callers.
type Bed struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"not null;uniqueIndex:idx_beds_zone_name;column:name" json:"name"`
	Capacity int       `gorm:"not null;column:capacity" json:"capacity"`
	Occupied int       `gorm:"not null;column:occupied" json:"occupied"`
	ZoneID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_beds_zone_name;column:zone_id" json:"zoneId"`
	IsActive bool      `gorm:"not null;column:is_active" json:"isActive"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Bed) TableName() string { return "beds" }

func (b *Bed) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Available is the remaining headroom according to the cached occupancy.
func (b Bed) Available() int {
	if b.Occupied >= b.Capacity {
		return 0
	}
	return b.Capacity - b.Occupied
}
