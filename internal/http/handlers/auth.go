package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required_without=Username"`
		Username string `json:"username"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	login := req.Email
	if login == "" {
		login = req.Username
	}
	token, user, err := ah.authService.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondMessage(c, "login successful", gin.H{
		"token":     token,
		"expiresIn": int(ah.authService.GetAccessTTL().Seconds()),
		"user":      user,
	})
}

// GET /api/auth/profile
func (ah *AuthHandler) Profile(c *gin.Context) {
	me, err := ah.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, me)
}
