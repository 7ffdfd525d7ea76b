package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminex/nursery-backend/internal/pkg/paging"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// Page wraps a list payload with its pagination metadata.
type Page struct {
	Items      any         `json:"items"`
	Pagination paging.Meta `json:"pagination"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: msg,
		Error: &APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload})
}

func RespondCreated(c *gin.Context, message string, payload any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: payload, Message: message})
}

func RespondMessage(c *gin.Context, message string, payload any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: payload, Message: message})
}

func RespondPage(c *gin.Context, items any, meta paging.Meta) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: Page{Items: items, Pagination: meta}})
}
