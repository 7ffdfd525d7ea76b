package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/domain/audit"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
	"github.com/luminex/nursery-backend/internal/platform/dbctx"
	"github.com/luminex/nursery-backend/internal/platform/logger"
)

const minPasswordLength = 8

// validate is the engine behind gin binding tags.
var validate = validator.New()

type CreateUserInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      types.Role
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	List(ctx context.Context, f repos.UserFilter) ([]*types.User, paging.Meta, error)
	Create(ctx context.Context, in CreateUserInput) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	audit    AuditService
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo, audit AuditService) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
		audit:    audit,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	const op = "UserService.GetMe"
	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, caller.UserID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if user == nil {
		return nil, notFound(op, "user")
	}
	return user, nil
}

func (us *userService) List(ctx context.Context, f repos.UserFilter) ([]*types.User, paging.Meta, error) {
	rows, total, err := us.userRepo.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, paging.Meta{}, mapRepoError("UserService.List", err)
	}
	return rows, paging.NewMeta(f.Page, total), nil
}

func (us *userService) Create(ctx context.Context, in CreateUserInput) (*types.User, error) {
	const op = "UserService.Create"
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validate.Var(in.Email, "required,email"); err != nil {
		return nil, invalid(op, "a valid email is required")
	}
	if in.Username == "" {
		return nil, invalid(op, "username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid(op, "password must be at least %d characters", minPasswordLength)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, invalid(op, "first and last name are required")
	}
	if !in.Role.Valid() {
		return nil, invalid(op, "unknown role %q", in.Role)
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := us.userRepo.EmailOrUsernameExists(dbc, in.Email, in.Username)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	if exists {
		return nil, conflict(op, "user with this email or username already exists")
	}
	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	user := &types.User{
		ID:        uuid.New(),
		Email:     in.Email,
		Username:  in.Username,
		Password:  hashed,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		IsActive:  true,
	}
	if _, err := us.userRepo.Create(dbc, []*types.User{user}); err != nil {
		return nil, mapRepoError(op, err)
	}
	us.audit.Record(ctx, audit.ActionUserCreated, nil, nil, map[string]any{
		"id": user.ID, "email": user.Email, "username": user.Username, "role": user.Role,
	})
	return user, nil
}
