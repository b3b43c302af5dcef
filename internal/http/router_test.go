package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/labflow-backend/internal/data/aggregates"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/data/repos/testutil"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	httpH "github.com/yungbote/labflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/labflow-backend/internal/http/middleware"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/objectstore"
	"github.com/yungbote/labflow-backend/internal/render"
	"github.com/yungbote/labflow-backend/internal/render/rendertest"
	"github.com/yungbote/labflow-backend/internal/services"
)

type harness struct {
	router  *gin.Engine
	archive objectstore.Archive
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	userRepo := repos.NewUserRepo(db, log)
	clientRepo := repos.NewClientRepo(db, log)
	store := aggregates.NewTestRequestAggregate(aggregates.TestRequestAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Requests: repos.NewTestRequestRepo(db, log),
		Counter:  repos.NewCounterRepo(db, log),
		Clients:  clientRepo,
	})
	renderer, err := render.New(log, &rendertest.Printer{}, time.Second, nil)
	require.NoError(t, err)
	archive, err := objectstore.NewFS(log, objectstore.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	mailer := services.NewDisabledMailer(log)
	equipment := services.NewEquipmentService(log, repos.NewEquipmentRepo(db, log))
	deps := services.LabDeps{
		Store:     store,
		Renderer:  renderer,
		Mailer:    mailer,
		Archive:   archive,
		Notifier:  services.NewSectionHeadNotifier(log, userRepo, mailer, nil),
		Equipment: equipment,
	}
	auth := services.NewAuthService(log, userRepo, "test-secret", time.Hour)
	workflow := services.NewWorkflowService(log, deps)
	intake := services.NewIntakeService(log, store, nil)

	testutil.SeedUser(t, ctx, db, "desk", "secret1", user.RoleReceptionist)
	testutil.SeedUser(t, ctx, db, "chemhead", "secret1", user.RoleChemicalSectionHead)

	r := NewRouter(RouterConfig{
		Log:                log,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, auth),
		Metrics:            observability.NewMetrics(),
		HealthHandler:      httpH.NewHealthHandler(),
		AuthHandler:        httpH.NewAuthHandler(auth, services.NewPasswordResetService(log, userRepo, mailer)),
		UserHandler:        httpH.NewUserHandler(services.NewUserService(log, userRepo)),
		ClientHandler:      httpH.NewClientHandler(services.NewClientService(log, clientRepo)),
		TestRequestHandler: httpH.NewTestRequestHandler(intake, workflow),
		WorkflowHandler:    httpH.NewWorkflowHandler(workflow),
		DocumentHandler:    httpH.NewDocumentHandler(services.NewDocumentService(log, deps)),
		DashboardHandler:   httpH.NewDashboardHandler(services.NewDashboardService(log, store, clientRepo, time.UTC)),
		EquipmentHandler:   httpH.NewEquipmentHandler(equipment),
		ScopeHandler:       httpH.NewScopeHandler(services.NewScopeService(log, repos.NewScopeRepo(db, log))),
		ReportHandler:      httpH.NewReportArchiveHandler(services.NewReportArchiveService(log, archive)),
	})
	return &harness{router: r, archive: archive}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, username string) string {
	t.Helper()
	rec := h.do(t, stdhttp.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "secret1"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	assert.Equal(t, 3600, out.ExpiresIn)
	return out.AccessToken
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, stdhttp.StatusOK, h.do(t, stdhttp.MethodGet, "/healthcheck", "", nil).Code)

	rec := h.do(t, stdhttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "labflow_api_requests_total")
}

func TestRouterLoginFailure(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, stdhttp.MethodPost, "/api/auth/login", "", map[string]string{"username": "desk", "password": "nope"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "unauthorized", env.Error.Code)
}

func TestRouterRoleGuards(t *testing.T) {
	h := newHarness(t)
	desk := h.login(t, "desk")
	head := h.login(t, "chemhead")

	assert.Equal(t, stdhttp.StatusUnauthorized, h.do(t, stdhttp.MethodGet, "/api/me", "", nil).Code)
	assert.Equal(t, stdhttp.StatusOK, h.do(t, stdhttp.MethodGet, "/api/me", desk, nil).Code)

	// Only super admins manage users.
	assert.Equal(t, stdhttp.StatusForbidden, h.do(t, stdhttp.MethodGet, "/api/users", desk, nil).Code)
	// Section heads cannot register clients; receptionists can.
	client := map[string]string{
		"client_name": "Builder Co",
		"contact_no":  "9876543210",
		"email":       "builder@example.com",
		"address":     "12 Yard Road",
	}
	assert.Equal(t, stdhttp.StatusForbidden, h.do(t, stdhttp.MethodPost, "/api/clients", head, client).Code)
	assert.Equal(t, stdhttp.StatusCreated, h.do(t, stdhttp.MethodPost, "/api/clients", desk, client).Code)

	assert.Equal(t, stdhttp.StatusForbidden, h.do(t, stdhttp.MethodGet, "/api/reports/pending-approval", desk, nil).Code)
	assert.Equal(t, stdhttp.StatusOK, h.do(t, stdhttp.MethodGet, "/api/reports/pending-approval", head, nil).Code)
}

func TestRouterTestRequestLifecycle(t *testing.T) {
	h := newHarness(t)
	desk := h.login(t, "desk")

	rec := h.do(t, stdhttp.MethodPost, "/api/clients", desk, map[string]string{
		"client_name": "Builder Co",
		"contact_no":  "9876543210",
		"email":       "builder@example.com",
		"address":     "12 Yard Road",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Client struct {
			ID string `json:"id"`
		} `json:"client"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Client.ID)

	rec = h.do(t, stdhttp.MethodGet, "/api/test-requests/not-a-uuid", desk, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = h.do(t, stdhttp.MethodGet, "/api/test-requests?limit=-1", desk, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = h.do(t, stdhttp.MethodGet, "/api/test-requests", desk, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"test_requests"`)

	rec = h.do(t, stdhttp.MethodGet, "/api/atl-ids/next?year=2024&month=5", desk, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ATL/24/05/")
}

func TestRouterServesArchivedReportsWithoutAuth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.archive.Put(ctx, "reports/24/05/Report_ATL_24_05_1.pdf", "application/pdf", []byte("%PDF-1.4 report")))

	rec := h.do(t, stdhttp.MethodGet, "/api/reports/24/05/Report_ATL_24_05_1.pdf", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="Report_ATL_24_05_1.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 report", rec.Body.String())

	rec = h.do(t, stdhttp.MethodGet, "/api/reports/check/24/05/Report_ATL_24_05_1.pdf", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var info struct {
		Exists bool  `json:"exists"`
		Size   int64 `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Exists)
	assert.Equal(t, int64(15), info.Size)

	assert.Equal(t, stdhttp.StatusNotFound, h.do(t, stdhttp.MethodGet, "/api/reports/check/24/05/missing.pdf", "", nil).Code)
	assert.Equal(t, stdhttp.StatusBadRequest, h.do(t, stdhttp.MethodGet, "/api/reports/24/13/Report_A.pdf", "", nil).Code)
	assert.Equal(t, stdhttp.StatusBadRequest, h.do(t, stdhttp.MethodGet, "/api/reports/24/05/notes.txt", "", nil).Code)
	// the protected listing under the same prefix still needs a token
	assert.Equal(t, stdhttp.StatusUnauthorized, h.do(t, stdhttp.MethodGet, "/api/reports/pending-approval", "", nil).Code)
}

func TestRouterEquipmentAndScopeGuards(t *testing.T) {
	h := newHarness(t)
	desk := h.login(t, "desk")
	head := h.login(t, "chemhead")

	utm := map[string]string{"equipment_name": "UTM", "range": "0-1000 kN", "due_date": "2025-01-31"}
	assert.Equal(t, stdhttp.StatusForbidden, h.do(t, stdhttp.MethodPost, "/api/equipment", desk, utm).Code)
	rec := h.do(t, stdhttp.MethodPost, "/api/equipment", head, utm)
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(t, stdhttp.MethodGet, "/api/equipment", desk, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"equipment_name":"UTM"`)

	scope := map[string]any{"s_no": 1, "material_tested": "Cement"}
	assert.Equal(t, stdhttp.StatusForbidden, h.do(t, stdhttp.MethodPost, "/api/test-scopes", head, scope).Code)
	assert.Equal(t, stdhttp.StatusOK, h.do(t, stdhttp.MethodGet, "/api/test-scopes", head, nil).Code)
}

func TestRouterSendOTPUnknownEmail(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, stdhttp.MethodPost, "/api/auth/send-otp", "", map[string]string{"email": "nobody@lab.test"})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	rec = h.do(t, stdhttp.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "desk@lab.test"})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}
