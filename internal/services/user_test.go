package services

import (
	"context"
	"testing"

	"github.com/luminex/nursery-backend/internal/data/repos"
	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	domainagg "github.com/luminex/nursery-backend/internal/domain/aggregates"
	"github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
)

func TestUserCreateValidation(t *testing.T) {
	f := newServiceFixture(t)
	users := NewUserService(repotest.Logger(t), f.userRepo, f.audit)
	ctx := asUser(f.admin)

	valid := CreateUserInput{
		Email: "clerk@nursery.test", Username: "clerk", Password: "long-enough",
		FirstName: "Bo", LastName: "Lee", Role: types.RoleManager,
	}
	cases := []struct {
		name  string
		patch func(*CreateUserInput)
	}{
		{"bad email", func(in *CreateUserInput) { in.Email = "not-an-email" }},
		{"blank email", func(in *CreateUserInput) { in.Email = "   " }},
		{"email without domain", func(in *CreateUserInput) { in.Email = "clerk@" }},
		{"email with display name", func(in *CreateUserInput) { in.Email = "Clerk <clerk@nursery.test>" }},
		{"no username", func(in *CreateUserInput) { in.Username = "  " }},
		{"short password", func(in *CreateUserInput) { in.Password = "short" }},
		{"no last name", func(in *CreateUserInput) { in.LastName = "" }},
		{"unknown role", func(in *CreateUserInput) { in.Role = "GARDENER" }},
	}
	for _, tc := range cases {
		in := valid
		tc.patch(&in)
		if _, err := users.Create(ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("%s: expected validation, got %v", tc.name, err)
		}
	}

	u, err := users.Create(ctx, valid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Password == valid.Password || !u.IsActive {
		t.Fatalf("password must be hashed and user active: %+v", u)
	}

	dup := valid
	dup.Email = "CLERK@nursery.test"
	dup.Username = "someone-else"
	if _, err := users.Create(ctx, dup); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate email: expected conflict, got %v", err)
	}

	logs, _, err := f.audit.List(context.Background(), repos.AuditLogFilter{Action: audit.ActionUserCreated})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(logs) != 1 || logs[0].UserID != f.admin.ID {
		t.Fatalf("user audit: %+v", logs)
	}
}

func TestUserGetMeAndList(t *testing.T) {
	f := newServiceFixture(t)
	users := NewUserService(repotest.Logger(t), f.userRepo, f.audit)

	me, err := users.GetMe(asUser(f.officer))
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != f.officer.ID {
		t.Fatalf("GetMe: wrong user %s", me.ID)
	}
	if _, err := users.GetMe(context.Background()); !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("GetMe without caller: expected forbidden, got %v", err)
	}

	role := types.RoleFieldOfficer
	rows, meta, err := users.List(context.Background(), repos.UserFilter{Role: &role, Page: paging.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 || meta.Total != 1 || rows[0].ID != f.officer.ID {
		t.Fatalf("List: rows=%d meta=%+v", len(rows), meta)
	}
}
