package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/data/aggregates"
	"github.com/luminex/nursery-backend/internal/data/repos"
	repotest "github.com/luminex/nursery-backend/internal/data/repos/testutil"
	types "github.com/luminex/nursery-backend/internal/domain"
	httpH "github.com/luminex/nursery-backend/internal/http/handlers"
	httpMW "github.com/luminex/nursery-backend/internal/http/middleware"
	"github.com/luminex/nursery-backend/internal/services"
)

type apiHarness struct {
	t       *testing.T
	db      *gorm.DB
	engine  *gin.Engine
	species *types.Species
	zone    *types.Zone
	bed     *types.Bed
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	ctx := context.Background()

	base := aggregates.BaseDeps{DB: db, Log: log}
	batchRepo := repos.NewBatchRepo(db, log)
	history := repos.NewStageHistoryRepo(db, log)
	meas := repos.NewMeasurementRepo(db, log)
	species := repos.NewSpeciesRepo(db, log)
	zones := repos.NewZoneRepo(db, log)
	beds := repos.NewBedRepo(db, log)
	userRepo := repos.NewUserRepo(db, log)

	lifecycle := aggregates.NewBatchLifecycleAggregate(aggregates.BatchLifecycleAggregateDeps{
		Base: base, Batches: batchRepo, History: history, Measurements: meas,
		Species: species, Zones: zones, Beds: beds,
	})
	ledger := aggregates.NewCapacityLedgerAggregate(aggregates.CapacityLedgerAggregateDeps{Base: base, Beds: beds, Batches: batchRepo})
	recorder := aggregates.NewMeasurementAggregate(aggregates.MeasurementAggregateDeps{Base: base, Batches: batchRepo, Measurements: meas})

	audit := services.NewAuditService(log, repos.NewAuditLogRepo(db, log), nil)
	authSvc := services.NewAuthService(log, userRepo, "router-test-secret", time.Hour)
	userSvc := services.NewUserService(log, userRepo, audit)

	engine := NewRouter(RouterConfig{
		Log:            log,
		AuthHandler:    httpH.NewAuthHandler(authSvc, userSvc),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authSvc),
		UserHandler:    httpH.NewUserHandler(userSvc),
		CatalogHandler: httpH.NewCatalogHandler(services.NewCatalogService(log, services.CatalogDeps{
			Runner: aggregates.NewGormTxRunner(db), Species: species, Zones: zones, Beds: beds,
			Batches: batchRepo, Ledger: ledger, Audit: audit,
		})),
		BatchHandler:       httpH.NewBatchHandler(services.NewBatchService(log, lifecycle, batchRepo, history, meas, audit, nil)),
		MeasurementHandler: httpH.NewMeasurementHandler(services.NewMeasurementService(log, recorder, meas, batchRepo, audit, nil)),
		AnalyticsHandler:   httpH.NewAnalyticsHandler(services.NewAnalyticsService(log, repos.NewAnalyticsRepo(db, log), nil, nil)),
		AuditHandler:       httpH.NewAuditHandler(audit),
		HealthHandler:      httpH.NewHealthHandler(nil),
	})

	h := &apiHarness{t: t, db: db, engine: engine}
	h.species = repotest.SeedSpecies(t, ctx, db, "Teak", 2, 20)
	h.zone = repotest.SeedZone(t, ctx, db, 500)
	h.bed = repotest.SeedBed(t, ctx, db, h.zone.ID, "T1", 50)
	return h
}

// token seeds a user with a real password hash and logs in through the API.
func (h *apiHarness) token(role types.Role) string {
	h.t.Helper()
	u := repotest.SeedUser(h.t, context.Background(), h.db, role)
	hash, err := services.HashPassword("correct-horse")
	if err != nil {
		h.t.Fatalf("hash: %v", err)
	}
	if err := h.db.Model(&types.User{}).Where("id = ?", u.ID).Update("password", hash).Error; err != nil {
		h.t.Fatalf("set password: %v", err)
	}
	rec, env := h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": u.Email, "password": "correct-horse"})
	if rec.Code != http.StatusOK {
		h.t.Fatalf("login: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		h.t.Fatalf("login payload: %v %s", err, env.Data)
	}
	return data.Token
}

func (h *apiHarness) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (h *apiHarness) createBatch(token string, qty int) string {
	h.t.Helper()
	rec, env := h.do(http.MethodPost, "/api/batches", token, map[string]any{
		"pathway":    "SEED_GERMINATION",
		"speciesId":  h.species.ID,
		"initialQty": qty,
		"zoneId":     h.zone.ID,
		"bedId":      h.bed.ID,
	})
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("create batch: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var b struct {
		ID          string `json:"id"`
		BatchNumber string `json:"batchNumber"`
	}
	if err := json.Unmarshal(env.Data, &b); err != nil {
		h.t.Fatalf("decode batch: %v", err)
	}
	if len(b.BatchNumber) != 11 || b.BatchNumber[:2] != "SG" {
		h.t.Fatalf("generated batch number: %q", b.BatchNumber)
	}
	return b.ID
}

func TestHealthcheckIsPublic(t *testing.T) {
	h := newAPIHarness(t)
	rec, _ := h.do(http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: status=%d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newAPIHarness(t)
	rec, env := h.do(http.MethodGet, "/api/batches", "", nil)
	if rec.Code != http.StatusUnauthorized || env.Success || env.Error == nil || env.Error.Code != "unauthorized" {
		t.Fatalf("no token: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec, _ = h.do(http.MethodGet, "/api/batches", "not.a.token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status=%d", rec.Code)
	}
	rec, env = h.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ghost@nursery.test", "password": "whatever1"})
	if rec.Code != http.StatusUnauthorized || env.Error == nil {
		t.Fatalf("bad login: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRoleGuards(t *testing.T) {
	h := newAPIHarness(t)
	officer := h.token(types.RoleFieldOfficer)
	manager := h.token(types.RoleManager)
	admin := h.token(types.RoleSuperAdmin)

	id := h.createBatch(officer, 10)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodPost, "/api/batches/" + id + "/ready", officer, http.StatusForbidden},
		{http.MethodPost, "/api/batches/" + id + "/ready", manager, http.StatusOK},
		{http.MethodGet, "/api/audit-logs", manager, http.StatusForbidden},
		{http.MethodGet, "/api/audit-logs", admin, http.StatusOK},
		{http.MethodGet, "/api/users", officer, http.StatusForbidden},
		{http.MethodGet, "/api/users", manager, http.StatusOK},
		{http.MethodGet, "/api/analytics/production", officer, http.StatusForbidden},
		{http.MethodGet, "/api/analytics/dashboard", officer, http.StatusOK},
		{http.MethodDelete, "/api/species/" + h.species.ID.String(), manager, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec, _ := h.do(tc.method, tc.path, tc.token, nil)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: status=%d want=%d body=%s", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestUserCreateRejectsMalformedEmail(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.token(types.RoleSuperAdmin)
	body := map[string]any{
		"email": "Clerk <clerk@nursery.test>", "username": "clerk", "password": "long-enough",
		"firstName": "Bo", "lastName": "Lee", "role": "MANAGER",
	}
	rec, env := h.do(http.MethodPost, "/api/users", admin, body)
	if rec.Code != http.StatusBadRequest || env.Success {
		t.Fatalf("malformed email: status=%d body=%s", rec.Code, rec.Body.String())
	}
	body["email"] = "clerk@nursery.test"
	rec, _ = h.do(http.MethodPost, "/api/users", admin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid email: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestBatchLifecycleOverHTTP(t *testing.T) {
	h := newAPIHarness(t)
	officer := h.token(types.RoleFieldOfficer)
	manager := h.token(types.RoleManager)

	id := h.createBatch(officer, 30)
	if got := repotest.ReloadBed(t, h.db, h.bed.ID).Occupied; got != 30 {
		t.Fatalf("occupied after create: %d", got)
	}

	rec, env := h.do(http.MethodPost, "/api/batches", officer, map[string]any{
		"pathway": "PURCHASING", "speciesId": h.species.ID, "initialQty": 21, "bedId": h.bed.ID,
	})
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "capacity_exceeded" {
		t.Fatalf("overcommit: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = h.do(http.MethodPost, "/api/batches/"+id+"/deliver", manager, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("deliver before ready: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, env = h.do(http.MethodPost, "/api/batches/"+id+"/stage", officer, map[string]any{"toStage": "GROWING", "quantity": 28, "notes": "potted"})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var staged struct {
		Batch struct {
			Stage      string `json:"stage"`
			Status     string `json:"status"`
			CurrentQty int    `json:"currentQty"`
		} `json:"batch"`
		History *struct {
			FromStage *string `json:"fromStage"`
			ToStage   string  `json:"toStage"`
		} `json:"history"`
		HistoryAppended bool `json:"historyAppended"`
	}
	if err := json.Unmarshal(env.Data, &staged); err != nil {
		t.Fatalf("decode stage response: %v", err)
	}
	if !staged.HistoryAppended || staged.History == nil || staged.History.ToStage != "GROWING" {
		t.Fatalf("stage response should report the appended history row: %s", env.Data)
	}
	if staged.History.FromStage == nil || *staged.History.FromStage != "INITIAL" {
		t.Fatalf("history fromStage: %s", env.Data)
	}
	if staged.Batch.Stage != "GROWING" || staged.Batch.Status != "IN_PROGRESS" || staged.Batch.CurrentQty != 28 {
		t.Fatalf("stage response batch: %s", env.Data)
	}
	rec, _ = h.do(http.MethodPost, "/api/batches/"+id+"/stage", officer, map[string]any{"toStage": "FLOWERING", "quantity": 28})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown stage: status=%d", rec.Code)
	}

	rec, env = h.do(http.MethodGet, "/api/batches/"+id+"/history", officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status=%d", rec.Code)
	}
	var hist []map[string]any
	if err := json.Unmarshal(env.Data, &hist); err != nil || len(hist) != 2 {
		t.Fatalf("history rows: %v %s", err, env.Data)
	}

	for _, path := range []string{"/ready", "/deliver"} {
		rec, _ = h.do(http.MethodPost, "/api/batches/"+id+path, manager, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status=%d body=%s", path, rec.Code, rec.Body.String())
		}
	}
	if got := repotest.ReloadBed(t, h.db, h.bed.ID).Occupied; got != 0 {
		t.Fatalf("occupied after deliver: %d", got)
	}

	rec, env = h.do(http.MethodDelete, "/api/batches/"+id, manager, nil)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "conflict" {
		t.Fatalf("delete delivered: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeasurementValidationAndOwnership(t *testing.T) {
	h := newAPIHarness(t)
	officer := h.token(types.RoleFieldOfficer)
	other := h.token(types.RoleFieldOfficer)
	id := h.createBatch(officer, 5)

	rec, _ := h.do(http.MethodPost, "/api/measurements", officer, map[string]any{
		"batchId": id, "girth": 150, "height": 10, "sampleSize": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("girth out of range: status=%d", rec.Code)
	}
	rec, env := h.do(http.MethodPost, "/api/measurements", officer, map[string]any{
		"batchId": id, "girth": 1.2, "height": 10, "sampleSize": 6,
	})
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "sample_size_exceeds_quantity" {
		t.Fatalf("sample size: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec, env = h.do(http.MethodPost, "/api/measurements/range", officer, map[string]any{
		"batchId":     id,
		"girthRange":  map[string]any{"min": 1, "max": 2},
		"heightRange": map[string]any{"min": 10, "max": 20},
		"sampleSize":  5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("range: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var m struct {
		ID     string  `json:"id"`
		Girth  float64 `json:"girth"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(env.Data, &m); err != nil || m.Girth != 1.5 || m.Height != 15 {
		t.Fatalf("range midpoint: %v %+v", err, m)
	}

	rec, _ = h.do(http.MethodPut, "/api/measurements/"+m.ID, other, map[string]any{"girth": 1.6})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign update: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec, _ = h.do(http.MethodDelete, "/api/measurements/"+m.ID, officer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("own delete: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListPaginationEnvelope(t *testing.T) {
	h := newAPIHarness(t)
	officer := h.token(types.RoleFieldOfficer)
	for i := 0; i < 3; i++ {
		h.createBatch(officer, 1)
	}
	rec, env := h.do(http.MethodGet, "/api/batches?limit=2&page=2", officer, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("list: status=%d body=%s", rec.Code, rec.Body.String())
	}
	var page struct {
		Items      []map[string]any `json:"items"`
		Pagination struct {
			Page, Limit, TotalPages int
			Total                   int64
			HasNext, HasPrev        bool
		} `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	p := page.Pagination
	if len(page.Items) != 1 || p.Total != 3 || p.TotalPages != 2 || p.HasNext || !p.HasPrev {
		t.Fatalf("page: items=%d meta=%+v", len(page.Items), p)
	}

	rec, _ = h.do(http.MethodGet, "/api/batches?speciesId=nope", officer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: status=%d", rec.Code)
	}
	rec, _ = h.do(http.MethodGet, fmt.Sprintf("/api/batches/%s", "not-a-uuid"), officer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status=%d", rec.Code)
	}
}
