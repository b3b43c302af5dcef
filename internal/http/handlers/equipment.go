package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/services"
)

type EquipmentHandler struct {
	equipment services.EquipmentService
}

func NewEquipmentHandler(equipment services.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// GET /api/equipment
func (h *EquipmentHandler) List(c *gin.Context) {
	out, err := h.equipment.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"equipment": out})
}

// POST /api/equipment
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req services.EquipmentInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.equipment.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"equipment": out})
}

// PUT /api/equipment/:id
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	var req services.EquipmentInput
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.equipment.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"equipment": out})
}

// POST /api/equipment/by-ids
func (h *EquipmentHandler) ByIDs(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	out, err := h.equipment.ByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"equipment": out})
}
