package dto

import "github.com/google/uuid"

type StartWorkflowRequest struct {
	Kind        string         `json:"kind" binding:"required"`
	Parameters  map[string]any `json:"parameters" binding:"required"`
	RequesterID *uuid.UUID     `json:"requester_id"`
	Priority    int            `json:"priority"`
}

type StartWorkflowResponse struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
}

type CancelWorkflowResponse struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
	Status     string    `json:"status"`
}
