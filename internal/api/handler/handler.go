package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"curriculum-engine/internal/api/dto"
	"curriculum-engine/internal/engine"
	"curriculum-engine/internal/service"
	"curriculum-engine/internal/template"
)

type WorkflowHandler struct {
	service service.WorkflowService
}

func NewWorkflowHandler(svc service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

func (h *WorkflowHandler) StartWorkflow(c *gin.Context) {
	var req dto.StartWorkflowRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workflowID, err := h.service.SubmitWorkflow(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, template.ErrUnknownWorkflowKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.StartWorkflowResponse{WorkflowID: workflowID})
}

func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return
	}

	inst, err := h.service.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrWorkflowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, inst)
}

func (h *WorkflowHandler) CancelWorkflow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return
	}

	if err := h.service.CancelWorkflow(c.Request.Context(), id); err != nil {
		if errors.Is(err, engine.ErrWorkflowNotActive) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.CancelWorkflowResponse{WorkflowID: id, Status: "CANCELLED"})
}
