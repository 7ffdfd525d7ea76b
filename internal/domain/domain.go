package domain

import (
	"github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/domain/nursery"
	"github.com/luminex/nursery-backend/internal/domain/user"
)

type (
	User = user.User
	Role = user.Role

	Species      = nursery.Species
	Zone         = nursery.Zone
	Bed          = nursery.Bed
	Batch        = nursery.Batch
	StageHistory = nursery.StageHistory
	Measurement  = nursery.Measurement

	Pathway     = nursery.Pathway
	BatchStatus = nursery.BatchStatus
	Stage       = nursery.Stage

	AuditLog = audit.AuditLog
)

const (
	RoleSuperAdmin   = user.RoleSuperAdmin
	RoleManager      = user.RoleManager
	RoleFieldOfficer = user.RoleFieldOfficer
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Species{},
		&Zone{},
		&Bed{},
		&Batch{},
		&StageHistory{},
		&Measurement{},
		&AuditLog{},
	}
}
