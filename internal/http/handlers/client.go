package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

type ClientHandler struct {
	clients services.ClientService
}

func NewClientHandler(clients services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// POST /api/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req services.ClientInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.clients.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"client": out})
}

// GET /api/clients?search=
func (h *ClientHandler) List(c *gin.Context) {
	out, err := h.clients.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"clients": out})
}

// GET /api/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.clients.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"client": out})
}

// PUT /api/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req services.ClientInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.clients.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"client": out})
}

// DELETE /api/clients/:id
func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.clients.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
