package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

type DocumentHandler struct {
	docs services.DocumentService
}

func NewDocumentHandler(docs services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// POST /api/test-requests/:id/ror
func (h *DocumentHandler) GenerateROR(c *gin.Context) {
	run(c, func(id uuid.UUID, b services.RORInput) (*labtest.TestRequest, error) {
		return h.docs.GenerateROR(c.Request.Context(), id, b)
	})
}

// POST /api/test-requests/:id/proforma
func (h *DocumentHandler) GenerateProforma(c *gin.Context) {
	run(c, func(id uuid.UUID, b services.ProformaInput) (*labtest.TestRequest, error) {
		return h.docs.GenerateProforma(c.Request.Context(), id, b)
	})
}

// Delete handles DELETE /api/test-requests/:id/{ror,proforma}.
func (h *DocumentHandler) Delete(kind labtest.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		run(c, func(id uuid.UUID, _ none) (*labtest.TestRequest, error) {
			return h.docs.DeleteDocument(c.Request.Context(), id, kind)
		})
	}
}

// Download handles GET /api/test-requests/:id/{ror,proforma}.
func (h *DocumentHandler) Download(kind labtest.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Fail(c, err)
			return
		}
		file, err := h.docs.Document(c.Request.Context(), id, kind)
		if err != nil {
			response.Fail(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
		c.Data(http.StatusOK, "application/pdf", file.Content)
	}
}

// POST /api/test-requests/:id/documents/send
func (h *DocumentHandler) MailDocuments(c *gin.Context) {
	run(c, func(id uuid.UUID, b struct {
		CC []string `json:"cc"`
	}) (*labtest.TestRequest, error) {
		return h.docs.MailDocuments(c.Request.Context(), id, b.CC)
	})
}
