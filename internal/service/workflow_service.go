package service

import (
	"context"

	"github.com/google/uuid"

	"curriculum-engine/internal/api/dto"
	"curriculum-engine/internal/domain"
	"curriculum-engine/internal/engine"
)

type WorkflowService interface {
	SubmitWorkflow(ctx context.Context, req dto.StartWorkflowRequest) (uuid.UUID, error)
	GetWorkflow(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error)
	CancelWorkflow(ctx context.Context, id uuid.UUID) error
}

// The Implementation
type workflowService struct {
	scheduler *engine.Scheduler
}

// Constructor
func NewWorkflowService(scheduler *engine.Scheduler) WorkflowService {
	return &workflowService{scheduler: scheduler}
}

// SubmitWorkflow converts the request DTO and asks the scheduler to start a
// run. The returned id can immediately be polled via GetWorkflow.
func (s *workflowService) SubmitWorkflow(ctx context.Context, req dto.StartWorkflowRequest) (uuid.UUID, error) {
	inst, err := s.scheduler.Start(ctx, engine.StartRequest{
		Kind:        req.Kind,
		Parameters:  req.Parameters,
		RequesterID: req.RequesterID,
		Priority:    req.Priority,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return inst.ID, nil
}

func (s *workflowService) GetWorkflow(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	return s.scheduler.GetStatus(ctx, id)
}

func (s *workflowService) CancelWorkflow(ctx context.Context, id uuid.UUID) error {
	return s.scheduler.Stop(ctx, id)
}
