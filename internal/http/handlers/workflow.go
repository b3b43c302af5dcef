package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

type WorkflowHandler struct {
	workflow services.WorkflowService
}

func NewWorkflowHandler(workflow services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// keyed is the body shared by every sub-test endpoint.
type keyed struct {
	labtest.SubTestKey
	Remark string `json:"remark"`
}

// run decodes the id and body, calls fn and writes the updated request.
func run[T any](c *gin.Context, fn func(id uuid.UUID, body T) (*labtest.TestRequest, error)) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var body T
	if c.Request.ContentLength != 0 {
		if err := bind(c, &body); err != nil {
			response.Fail(c, err)
			return
		}
	}
	out, err := fn(id, body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_request": out})
}

type none struct{}

// POST /api/test-requests/:id/job-cards
func (h *WorkflowHandler) CreateJobCards(c *gin.Context) {
	run(c, func(id uuid.UUID, _ none) (*labtest.TestRequest, error) {
		return h.workflow.CreateJobCards(c.Request.Context(), id)
	})
}

// POST /api/test-requests/:id/job-cards/send
func (h *WorkflowHandler) SendJobCards(c *gin.Context) {
	run(c, func(id uuid.UUID, _ none) (*labtest.TestRequest, error) {
		return h.workflow.SendJobCardsForApproval(c.Request.Context(), id)
	})
}

type jobCardBody struct {
	Department labtest.Department `json:"department"`
	AssignedTo string             `json:"assigned_to"`
	Remark     string             `json:"remark"`
}

// POST /api/test-requests/:id/job-cards/approve
func (h *WorkflowHandler) ApproveJobCard(c *gin.Context) {
	run(c, func(id uuid.UUID, b jobCardBody) (*labtest.TestRequest, error) {
		return h.workflow.ApproveJobCard(c.Request.Context(), id, b.Department, b.AssignedTo, b.Remark)
	})
}

// POST /api/test-requests/:id/job-cards/reject
func (h *WorkflowHandler) RejectJobCard(c *gin.Context) {
	run(c, func(id uuid.UUID, b jobCardBody) (*labtest.TestRequest, error) {
		return h.workflow.RejectJobCard(c.Request.Context(), id, b.Department, b.Remark)
	})
}

type resultBody struct {
	labtest.SubTestKey
	Results []labtest.Measurement `json:"results"`
}

// POST /api/test-requests/:id/results/submit
func (h *WorkflowHandler) SubmitResult(c *gin.Context) {
	run(c, func(id uuid.UUID, b resultBody) (*labtest.TestRequest, error) {
		return h.workflow.SubmitResult(c.Request.Context(), id, b.SubTestKey, b.Results)
	})
}

// POST /api/test-requests/:id/results/approve
func (h *WorkflowHandler) ApproveResult(c *gin.Context) {
	run(c, func(id uuid.UUID, b keyed) (*labtest.TestRequest, error) {
		return h.workflow.ApproveResult(c.Request.Context(), id, b.SubTestKey)
	})
}

// POST /api/test-requests/:id/results/reject
func (h *WorkflowHandler) RejectResult(c *gin.Context) {
	run(c, func(id uuid.UUID, b keyed) (*labtest.TestRequest, error) {
		return h.workflow.RejectResult(c.Request.Context(), id, b.SubTestKey, b.Remark)
	})
}

type uploadBody struct {
	labtest.SubTestKey
	services.ReportArtifacts
}

// POST /api/test-requests/:id/reports/upload
func (h *WorkflowHandler) UploadReport(c *gin.Context) {
	run(c, func(id uuid.UUID, b uploadBody) (*labtest.TestRequest, error) {
		return h.workflow.UploadReport(c.Request.Context(), id, b.SubTestKey, b.ReportArtifacts)
	})
}

type tablesBody struct {
	labtest.SubTestKey
	services.TableUpdate
}

// PUT /api/test-requests/:id/reports/tables
func (h *WorkflowHandler) UpdateTables(c *gin.Context) {
	run(c, func(id uuid.UUID, b tablesBody) (*labtest.TestRequest, error) {
		return h.workflow.UpdateTables(c.Request.Context(), id, b.SubTestKey, b.TableUpdate)
	})
}

// POST /api/test-requests/:id/reports/send
func (h *WorkflowHandler) SendReport(c *gin.Context) {
	run(c, func(id uuid.UUID, b keyed) (*labtest.TestRequest, error) {
		return h.workflow.SendReportForApproval(c.Request.Context(), id, b.SubTestKey)
	})
}

// POST /api/test-requests/:id/reports/approve
func (h *WorkflowHandler) ApproveReport(c *gin.Context) {
	run(c, func(id uuid.UUID, b keyed) (*labtest.TestRequest, error) {
		return h.workflow.ApproveReport(c.Request.Context(), id, b.SubTestKey)
	})
}

// POST /api/test-requests/:id/reports/reject
func (h *WorkflowHandler) RejectReport(c *gin.Context) {
	run(c, func(id uuid.UUID, b keyed) (*labtest.TestRequest, error) {
		return h.workflow.RejectReport(c.Request.Context(), id, b.SubTestKey, b.Remark)
	})
}

type mailBody struct {
	labtest.SubTestKey
	CC []string `json:"cc"`
}

// POST /api/test-requests/:id/reports/mail
func (h *WorkflowHandler) MailReport(c *gin.Context) {
	run(c, func(id uuid.UUID, b mailBody) (*labtest.TestRequest, error) {
		return h.workflow.MailReport(c.Request.Context(), id, b.SubTestKey, b.CC)
	})
}

// POST /api/test-requests/:id/complete
func (h *WorkflowHandler) Complete(c *gin.Context) {
	run(c, func(id uuid.UUID, _ none) (*labtest.TestRequest, error) {
		return h.workflow.Complete(c.Request.Context(), id)
	})
}
