package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

// ReportArchiveHandler serves mailed reports to anyone holding the link,
// which is what the QR code on each report encodes.
type ReportArchiveHandler struct {
	reports services.ReportArchiveService
}

func NewReportArchiveHandler(reports services.ReportArchiveService) *ReportArchiveHandler {
	return &ReportArchiveHandler{reports: reports}
}

// GET /api/reports/:year/:month/:file
func (h *ReportArchiveHandler) Serve(c *gin.Context) {
	file, err := h.reports.Open(c.Request.Context(), c.Param("year"), c.Param("month"), c.Param("file"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Filename))
	c.Data(http.StatusOK, "application/pdf", file.Content)
}

// GET /api/reports/check/:year/:month/:file
func (h *ReportArchiveHandler) Check(c *gin.Context) {
	info, err := h.reports.Check(c.Request.Context(), c.Param("year"), c.Param("month"), c.Param("file"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, info)
}
