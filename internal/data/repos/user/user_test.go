package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: db}
	repo := NewUserRepo(db, testutil.Logger(t))

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:        uuid.New(),
			Email:     "userrepo@example.com",
			Username:  "fieldtech",
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
			Role:      types.RoleFieldOfficer,
			IsActive:  true,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u := created[0]

	if got, err := repo.GetByID(dbc, u.ID); err != nil || got == nil || got.Email != u.Email {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByLogin(dbc, "USERREPO@example.com"); err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByLogin(email): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByLogin(dbc, "FieldTech"); err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByLogin(username): got=%v err=%v", got, err)
	}
	if got, err := repo.GetByLogin(dbc, "nobody"); err != nil || got != nil {
		t.Fatalf("GetByLogin(unknown): got=%v err=%v", got, err)
	}
	if exists, err := repo.EmailOrUsernameExists(dbc, "other@example.com", "FIELDTECH"); err != nil || !exists {
		t.Fatalf("EmailOrUsernameExists: exists=%v err=%v", exists, err)
	}

	testutil.SeedUser(t, ctx, db, types.RoleManager)
	role := types.RoleManager
	rows, total, err := repo.List(dbc, UserFilter{Role: &role, Page: paging.Params{Page: 1, Limit: 10}})
	if err != nil || total != 1 || len(rows) != 1 {
		t.Fatalf("List(role): total=%d len=%d err=%v", total, len(rows), err)
	}

	if err := repo.UpdateFields(dbc, u.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	active := false
	rows, total, err = repo.List(dbc, UserFilter{IsActive: &active})
	if err != nil || total != 1 || rows[0].ID != u.ID {
		t.Fatalf("List(inactive): total=%d err=%v", total, err)
	}
}
