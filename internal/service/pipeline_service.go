package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warmloop/warmloop/internal/models"
	"github.com/warmloop/warmloop/internal/repository"
)

// ErrPipelineNotFound is returned when a pipeline does not exist.
var ErrPipelineNotFound = errors.New("pipeline not found")

// PipelineService manages warmup pipelines. Node metadata is stored as an
// opaque document; validation stops at structural checks.
type PipelineService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(repos *repository.Repositories, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{repos: repos, logger: logger}
}

// Create stores a new pipeline. Node positions are normalized to their
// list order.
func (s *PipelineService) Create(ctx context.Context, name string, nodes []models.PipelineNode) (*models.Pipeline, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	for i, node := range nodes {
		if node.Action == "" {
			return nil, fmt.Errorf("node %d: action is required", i)
		}
	}

	pipeline := &models.Pipeline{Name: name, Nodes: nodes}
	if err := s.repos.Pipeline.Create(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	s.logger.Info("pipeline created", "pipeline_id", pipeline.ID, "nodes", len(nodes))

	return pipeline, nil
}

// Get returns a pipeline by ID.
func (s *PipelineService) Get(ctx context.Context, id string) (*models.Pipeline, error) {
	pipeline, err := s.repos.Pipeline.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}
	if pipeline == nil {
		return nil, ErrPipelineNotFound
	}
	return pipeline, nil
}

// List returns all pipelines.
func (s *PipelineService) List(ctx context.Context) ([]*models.Pipeline, error) {
	return s.repos.Pipeline.List(ctx)
}

// Update replaces a pipeline's name and node list.
func (s *PipelineService) Update(ctx context.Context, id, name string, nodes []models.PipelineNode) (*models.Pipeline, error) {
	pipeline, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		pipeline.Name = name
	}
	for i, node := range nodes {
		if node.Action == "" {
			return nil, fmt.Errorf("node %d: action is required", i)
		}
	}
	pipeline.Nodes = nodes

	if err := s.repos.Pipeline.Update(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("failed to update pipeline: %w", err)
	}

	return pipeline, nil
}

// Delete removes a pipeline.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repos.Pipeline.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}
	if !deleted {
		return ErrPipelineNotFound
	}

	s.logger.Info("pipeline deleted", "pipeline_id", id)

	return nil
}
