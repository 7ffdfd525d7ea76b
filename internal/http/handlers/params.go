package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminex/nursery-backend/internal/http/response"
	"github.com/luminex/nursery-backend/internal/pkg/paging"
)

const codeValidation = "validation"

// bindJSON decodes and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, codeValidation, err)
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, codeValidation, fmt.Errorf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// query reads optional query parameters, remembering the first parse failure.
type query struct {
	c   *gin.Context
	err error
}

func newQuery(c *gin.Context) *query { return &query{c: c} }

func (q *query) fail(name string) {
	if q.err == nil {
		q.err = fmt.Errorf("invalid query parameter %q", name)
	}
}

func (q *query) String(name string) string { return strings.TrimSpace(q.c.Query(name)) }

func (q *query) Int(name string, def int) int {
	raw := q.String(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name)
		return def
	}
	return n
}

func (q *query) UUID(name string) *uuid.UUID {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		q.fail(name)
		return nil
	}
	return &id
}

func (q *query) Bool(name string) *bool {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name)
		return nil
	}
	return &v
}

// Time accepts RFC3339 or a bare YYYY-MM-DD date.
func (q *query) Time(name string) *time.Time {
	raw := q.String(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	q.fail(name)
	return nil
}

func (q *query) Page() paging.Params {
	return paging.Params{Page: q.Int("page", 1), Limit: q.Int("limit", paging.DefaultLimit)}
}

// Done writes a 400 if any parameter failed to parse.
func (q *query) Done() bool {
	if q.err != nil {
		response.RespondError(q.c, http.StatusBadRequest, codeValidation, q.err)
		return false
	}
	return true
}

var errNoFields = errors.New("no fields to update")
