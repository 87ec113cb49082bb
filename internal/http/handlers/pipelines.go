package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/service"
)

// PipelinesHandler handles warmup pipeline endpoints.
type PipelinesHandler struct {
	svc *service.PipelineService
}

// NewPipelinesHandler creates a new pipelines handler.
func NewPipelinesHandler(svc *service.PipelineService) *PipelinesHandler {
	return &PipelinesHandler{svc: svc}
}

// PipelineNodeInput represents a pipeline node in request bodies.
type PipelineNodeInput struct {
	Action   string         `json:"action" minLength:"1" doc:"Mailbox action name"`
	Metadata map[string]any `json:"metadata,omitempty" doc:"Opaque node settings"`
}

// CreatePipelineInput represents a pipeline creation request.
type CreatePipelineInput struct {
	Body struct {
		Name  string              `json:"name" minLength:"1" doc:"Pipeline name"`
		Nodes []PipelineNodeInput `json:"nodes" doc:"Ordered mailbox actions"`
	}
}

// PipelineOutput represents a single pipeline response.
type PipelineOutput struct {
	Body *models.Pipeline
}

func nodesFromInput(in []PipelineNodeInput) []models.PipelineNode {
	nodes := make([]models.PipelineNode, 0, len(in))
	for i, n := range in {
		nodes = append(nodes, models.PipelineNode{
			Action:   n.Action,
			Position: i,
			Metadata: n.Metadata,
		})
	}
	return nodes
}

// CreatePipeline creates a warmup pipeline.
func (h *PipelinesHandler) CreatePipeline(ctx context.Context, input *CreatePipelineInput) (*PipelineOutput, error) {
	pipeline, err := h.svc.Create(ctx, input.Body.Name, nodesFromInput(input.Body.Nodes))
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("failed to create pipeline: " + err.Error())
	}
	return &PipelineOutput{Body: pipeline}, nil
}

// GetPipelineInput represents a single-pipeline request.
type GetPipelineInput struct {
	ID string `path:"id" doc:"Pipeline ID"`
}

// GetPipeline retrieves one pipeline with its nodes.
func (h *PipelinesHandler) GetPipeline(ctx context.Context, input *GetPipelineInput) (*PipelineOutput, error) {
	pipeline, err := h.svc.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, service.ErrPipelineNotFound) {
			return nil, huma.Error404NotFound("pipeline not found")
		}
		return nil, huma.Error500InternalServerError("failed to get pipeline: " + err.Error())
	}
	return &PipelineOutput{Body: pipeline}, nil
}

// ListPipelinesOutput represents the pipeline listing.
type ListPipelinesOutput struct {
	Body struct {
		Pipelines []*models.Pipeline `json:"pipelines"`
	}
}

// ListPipelines returns all pipelines.
func (h *PipelinesHandler) ListPipelines(ctx context.Context, input *struct{}) (*ListPipelinesOutput, error) {
	pipelines, err := h.svc.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list pipelines: " + err.Error())
	}
	out := &ListPipelinesOutput{}
	out.Body.Pipelines = pipelines
	if out.Body.Pipelines == nil {
		out.Body.Pipelines = []*models.Pipeline{}
	}
	return out, nil
}

// UpdatePipelineInput represents a pipeline update request.
type UpdatePipelineInput struct {
	ID   string `path:"id" doc:"Pipeline ID"`
	Body struct {
		Name  string              `json:"name" minLength:"1" doc:"Pipeline name"`
		Nodes []PipelineNodeInput `json:"nodes" doc:"Ordered mailbox actions, replacing the old set"`
	}
}

// UpdatePipeline replaces a pipeline's name and node set.
func (h *PipelinesHandler) UpdatePipeline(ctx context.Context, input *UpdatePipelineInput) (*PipelineOutput, error) {
	pipeline, err := h.svc.Update(ctx, input.ID, input.Body.Name, nodesFromInput(input.Body.Nodes))
	if err != nil {
		if errors.Is(err, service.ErrPipelineNotFound) {
			return nil, huma.Error404NotFound("pipeline not found")
		}
		return nil, huma.Error422UnprocessableEntity("failed to update pipeline: " + err.Error())
	}
	return &PipelineOutput{Body: pipeline}, nil
}

// DeletePipelineInput represents a pipeline deletion request.
type DeletePipelineInput struct {
	ID string `path:"id" doc:"Pipeline ID"`
}

// DeletePipeline removes a pipeline and its nodes.
func (h *PipelinesHandler) DeletePipeline(ctx context.Context, input *DeletePipelineInput) (*struct{}, error) {
	if err := h.svc.Delete(ctx, input.ID); err != nil {
		if errors.Is(err, service.ErrPipelineNotFound) {
			return nil, huma.Error404NotFound("pipeline not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete pipeline: " + err.Error())
	}
	return &struct{}{}, nil
}
