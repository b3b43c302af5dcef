package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/platform/apierr"
	"github.com/yungbote/labflow-backend/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	dashboard services.DashboardService
}

func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	out, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/dashboard/monthly?year=
func (h *DashboardHandler) Monthly(c *gin.Context) {
	year, err := queryYear(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.dashboard.MonthlyTrend(c.Request.Context(), year)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"year": year, "months": out})
}

// GET /api/dashboard/department/:dept?year=
func (h *DashboardHandler) Department(c *gin.Context) {
	dept, ok := labtest.ParseDepartment(c.Param("dept"))
	if !ok {
		response.Fail(c, apierr.BadRequest(errors.New("department must be chemical or mechanical")))
		return
	}
	year, err := queryYear(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.dashboard.DepartmentSummary(c.Request.Context(), dept, year)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/dashboard/receptionist
func (h *DashboardHandler) Receptionist(c *gin.Context) {
	out, err := h.dashboard.ReceptionistSummary(c.Request.Context(), time.Now())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/dashboard/export.xlsx?year=
func (h *DashboardHandler) Export(c *gin.Context) {
	year, err := queryYear(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	raw, err := h.dashboard.ExportXLSX(c.Request.Context(), year)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("dashboard_%d.xlsx", year)))
	c.Data(http.StatusOK, xlsxContentType, raw)
}

// GET /api/reports/pending-approval
func (h *DashboardHandler) PendingReports(c *gin.Context) {
	out, err := h.dashboard.PendingReports(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"test_requests": out})
}

// GET /api/standards
func (h *DashboardHandler) Standards(c *gin.Context) {
	out, err := h.dashboard.Standards(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"standards": out})
}
