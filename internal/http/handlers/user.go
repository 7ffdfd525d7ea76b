package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/data/repos"
	types "github.com/luminex/nursery-backend/internal/domain"
	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/users?search=&role=&isActive=&page=&limit=
func (uh *UserHandler) List(c *gin.Context) {
	q := newQuery(c)
	f := repos.UserFilter{Search: q.String("search"), IsActive: q.Bool("isActive"), Page: q.Page()}
	if raw := q.String("role"); raw != "" {
		role := types.Role(raw)
		f.Role = &role
	}
	if !q.Done() {
		return
	}
	rows, meta, err := uh.userService.List(c.Request.Context(), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondPage(c, rows, meta)
}

// POST /api/users
func (uh *UserHandler) Create(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Username  string `json:"username" binding:"required,min=3,max=50"`
		Password  string `json:"password" binding:"required,min=8"`
		FirstName string `json:"firstName" binding:"required,min=2,max=50"`
		LastName  string `json:"lastName" binding:"required,min=2,max=50"`
		Role      string `json:"role" binding:"required,oneof=SUPER_ADMIN MANAGER FIELD_OFFICER"`
	}
	if !bindJSON(c, &req) {
		return
	}
	u, err := uh.userService.Create(c.Request.Context(), services.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      types.Role(req.Role),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, "user created", u)
}
