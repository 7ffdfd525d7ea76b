package nursery

import (
	"time"

	"github.com/google/uuid"
	"github.com/luminex/nursery-backend/internal/domain/user"
	"gorm.io/gorm"
)

type Batch struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	BatchNumber string      `gorm:"not null;uniqueIndex;column:batch_number" json:"batchNumber"`
	CustomName  *string     `gorm:"column:custom_name" json:"customName,omitempty"`
	Pathway     Pathway     `gorm:"type:text;not null;index;column:pathway" json:"pathway"`
	SpeciesID   uuid.UUID   `gorm:"type:uuid;not null;index;column:species_id" json:"speciesId"`
	Species     *Species    `gorm:"foreignKey:SpeciesID" json:"species,omitempty"`
	InitialQty  int         `gorm:"not null;column:initial_qty" json:"initialQty"`
	CurrentQty  int         `gorm:"not null;column:current_qty" json:"currentQty"`
	Status      BatchStatus `gorm:"type:text;not null;index;column:status" json:"status"`
	Stage       Stage       `gorm:"type:text;not null;index;column:stage" json:"stage"`
	IsReady     bool        `gorm:"not null;column:is_ready" json:"isReady"`
	ReadyDate   *time.Time  `gorm:"column:ready_date" json:"readyDate,omitempty"`
	LossReason  *string     `gorm:"column:loss_reason" json:"lossReason,omitempty"`
	LossQty     int         `gorm:"not null;column:loss_qty" json:"lossQty"`

	CancelReason *string `gorm:"column:cancel_reason" json:"cancelReason,omitempty"`

	CreatedByID uuid.UUID  `gorm:"type:uuid;not null;index;column:created_by_id" json:"createdById"`
	CreatedBy   *user.User `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`

	ZoneID *uuid.UUID `gorm:"type:uuid;index;column:zone_id" json:"zoneId,omitempty"`
	Zone   *Zone      `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
	BedID  *uuid.UUID `gorm:"type:uuid;index;column:bed_id" json:"bedId,omitempty"`
	Bed    *Bed       `gorm:"foreignKey:BedID" json:"bed,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updatedAt"`
}

func (Batch) TableName() string { return "batches" }

func (b *Batch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Occupancy is what this batch contributes to its bed, zero when unplaced or inactive.
func (b Batch) Occupancy() int {
	if b.BedID == nil || *b.BedID == uuid.Nil || !b.Status.OccupiesBed() {
		return 0
	}
	return b.CurrentQty
}

// StageHistory is the append-only record of stage transitions. Sequence orders rows
// within a batch; 0 is the creation record.
type StageHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage_history_batch_seq;column:batch_id" json:"batchId"`
	Sequence  int       `gorm:"not null;uniqueIndex:idx_stage_history_batch_seq;column:sequence" json:"sequence"`
	FromStage *Stage    `gorm:"type:text;column:from_stage" json:"fromStage"`
	ToStage   Stage     `gorm:"type:text;not null;column:to_stage" json:"toStage"`
	Quantity  int       `gorm:"not null;column:quantity" json:"quantity"`
	Notes     *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (StageHistory) TableName() string { return "stage_history" }

func (h *StageHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

type Measurement struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID    uuid.UUID  `gorm:"type:uuid;not null;index;column:batch_id" json:"batchId"`
	Batch      *Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	User       *user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Girth      float64    `gorm:"not null;column:girth" json:"girth"`
	Height     float64    `gorm:"not null;column:height" json:"height"`
	SampleSize int        `gorm:"not null;column:sample_size" json:"sampleSize"`
	Notes      *string    `gorm:"column:notes" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Measurement) TableName() string { return "measurements" }

func (m *Measurement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
