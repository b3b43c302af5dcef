package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

type ScopeHandler struct {
	scopes services.ScopeService
}

func NewScopeHandler(scopes services.ScopeService) *ScopeHandler {
	return &ScopeHandler{scopes: scopes}
}

// GET /api/test-scopes
func (h *ScopeHandler) List(c *gin.Context) {
	out, err := h.scopes.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"scopes": out})
}

// GET /api/test-scopes/:id
func (h *ScopeHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.scopes.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"scope": out})
}

// POST /api/test-scopes
func (h *ScopeHandler) Create(c *gin.Context) {
	var req services.ScopeInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.scopes.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"scope": out})
}

// PUT /api/test-scopes/:id
func (h *ScopeHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req services.ScopeInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.scopes.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"scope": out})
}

// DELETE /api/test-scopes/:id
func (h *ScopeHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.scopes.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
