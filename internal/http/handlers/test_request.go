package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/platform/apierr"
	"github.com/yungbote/labflow-backend/internal/services"
)

type TestRequestHandler struct {
	intake   services.IntakeService
	workflow services.WorkflowService
}

func NewTestRequestHandler(intake services.IntakeService, workflow services.WorkflowService) *TestRequestHandler {
	return &TestRequestHandler{intake: intake, workflow: workflow}
}

// POST /api/test-requests
func (h *TestRequestHandler) Create(c *gin.Context) {
	var req labtest.TestRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.intake.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"test_request": out})
}

// GET /api/test-requests/:id
func (h *TestRequestHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.intake.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_request": out})
}

// GET /api/test-requests?status=&client_id=&department=&from=&to=&sort=&desc=&limit=&offset=
func (h *TestRequestHandler) List(c *gin.Context) {
	filter, sort, err := listParams(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.intake.List(c.Request.Context(), filter, sort)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_requests": out})
}

func listParams(c *gin.Context) (labtest.Filter, labtest.Sort, error) {
	var f labtest.Filter
	for _, s := range c.QueryArray("status") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, labtest.Status(s))
		}
	}
	if raw := strings.TrimSpace(c.Query("client_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, labtest.Sort{}, apierr.BadRequest(errors.New("invalid client_id"))
		}
		f.ClientID = id
	}
	f.Department = labtest.Department(strings.ToLower(strings.TrimSpace(c.Query("department"))))
	for name, dst := range map[string]*time.Time{"from": &f.CreatedFrom, "to": &f.CreatedTo} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, labtest.Sort{}, apierr.BadRequest(errors.New("invalid " + name + " date, use YYYY-MM-DD"))
		}
		*dst = t
	}
	var err error
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, labtest.Sort{}, err
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return f, labtest.Sort{}, err
	}
	desc, _ := strconv.ParseBool(c.DefaultQuery("desc", "true"))
	return f, labtest.Sort{Field: labtest.SortField(c.Query("sort")), Desc: desc}, nil
}

// PATCH /api/test-requests/:id
func (h *TestRequestHandler) Patch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req labtest.IntakePatch
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.intake.Patch(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_request": out})
}

// PATCH /api/test-requests/:id/receipt
func (h *TestRequestHandler) SetReceipt(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req struct {
		MaterialReceived *bool `json:"material_received"`
		PaymentReceived  *bool `json:"payment_received"`
	}
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.workflow.SetReceiptFlags(c.Request.Context(), id, req.MaterialReceived, req.PaymentReceived)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_request": out})
}

// GET /api/atl-ids/next?year=&month=
func (h *TestRequestHandler) NextAtlID(c *gin.Context) {
	year, err := queryYear(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		response.Fail(c, err)
		return
	}
	if month == 0 {
		month = int(time.Now().Month())
	}
	next, err := h.intake.NextAtlID(c.Request.Context(), year, month)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"atl_id": next})
}
