package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action names recorded in the audit trail.
const (
	ActionBatchCreated       = "BATCH_CREATED"
	ActionBatchUpdated       = "BATCH_UPDATED"
	ActionBatchStageUpdated  = "BATCH_STAGE_UPDATED"
	ActionBatchReady         = "BATCH_MARKED_READY"
	ActionBatchDelivered     = "BATCH_DELIVERED"
	ActionBatchCancelled     = "BATCH_CANCELLED"
	ActionBatchLossRecorded  = "BATCH_LOSS_RECORDED"
	ActionBatchMoved         = "BATCH_MOVED"
	ActionBatchDeleted       = "BATCH_DELETED"
	ActionMeasurementCreated = "MEASUREMENT_CREATED"
	ActionMeasurementUpdated = "MEASUREMENT_UPDATED"
	ActionMeasurementDeleted = "MEASUREMENT_DELETED"
	ActionSpeciesCreated     = "SPECIES_CREATED"
	ActionSpeciesUpdated     = "SPECIES_UPDATED"
	ActionSpeciesDeleted     = "SPECIES_DELETED"
	ActionZoneCreated        = "ZONE_CREATED"
	ActionZoneUpdated        = "ZONE_UPDATED"
	ActionZoneDeleted        = "ZONE_DELETED"
	ActionBedCreated         = "BED_CREATED"
	ActionBedUpdated         = "BED_UPDATED"
	ActionBedDeleted         = "BED_DELETED"
	ActionBedReconciled      = "BED_RECONCILED"
	ActionUserCreated        = "USER_CREATED"
)

// AuditLog has no foreign key to batches so entries outlive deleted batches.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	Action    string         `gorm:"not null;index;column:action" json:"action"`
	BatchID   *uuid.UUID     `gorm:"type:uuid;index;column:batch_id" json:"batchId,omitempty"`
	OldValues datatypes.JSON `gorm:"column:old_values" json:"oldValues,omitempty"`
	NewValues datatypes.JSON `gorm:"column:new_values" json:"newValues,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
