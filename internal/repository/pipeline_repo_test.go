package repository

import (
	"context"
	"testing"

	"github.com/warmloop/warmloop/internal/models"
)

func TestPipelineRepository_CreateAndGet(t *testing.T) {
	repos, _ := setupTestRepos(t)
	ctx := context.Background()

	pipeline := &models.Pipeline{
		Name: "morning warmup",
		Nodes: []models.PipelineNode{
			{Action: "open_inbox"},
			{Action: "read_email", Metadata: map[string]any{"count": float64(3)}},
			{Action: "mark_important"},
		},
	}

	if err := repos.Pipeline.Create(ctx, pipeline); err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	if pipeline.ID == "" {
		t.Error("expected ID to be generated")
	}

	loaded, err := repos.Pipeline.GetByID(ctx, pipeline.ID)
	if err != nil {
		t.Fatalf("failed to get pipeline: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected pipeline, got nil")
	}
	if len(loaded.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(loaded.Nodes))
	}
	for i, node := range loaded.Nodes {
		if node.Position != i {
			t.Errorf("nodes[%d].Position = %d, want %d", i, node.Position, i)
		}
	}
	if loaded.Nodes[1].Metadata["count"] != float64(3) {
		t.Errorf("node metadata not round-tripped: %+v", loaded.Nodes[1].Metadata)
	}
}

func TestPipelineRepository_GetByID_Missing(t *testing.T) {
	repos, _ := setupTestRepos(t)

	pipeline, err := repos.Pipeline.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pipeline != nil {
		t.Error("expected nil for missing pipeline")
	}
}

func TestPipelineRepository_Update_ReplacesNodes(t *testing.T) {
	repos, _ := setupTestRepos(t)
	ctx := context.Background()

	pipeline := &models.Pipeline{
		Name:  "v1",
		Nodes: []models.PipelineNode{{Action: "open_inbox"}, {Action: "read_email"}},
	}
	if err := repos.Pipeline.Create(ctx, pipeline); err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	pipeline.Name = "v2"
	pipeline.Nodes = []models.PipelineNode{{Action: "reply"}}
	if err := repos.Pipeline.Update(ctx, pipeline); err != nil {
		t.Fatalf("failed to update pipeline: %v", err)
	}

	loaded, err := repos.Pipeline.GetByID(ctx, pipeline.ID)
	if err != nil || loaded == nil {
		t.Fatalf("failed to reload pipeline: %v", err)
	}
	if loaded.Name != "v2" {
		t.Errorf("Name = %q, want v2", loaded.Name)
	}
	if len(loaded.Nodes) != 1 || loaded.Nodes[0].Action != "reply" {
		t.Errorf("expected node list to be replaced, got %+v", loaded.Nodes)
	}
}

func TestPipelineRepository_List(t *testing.T) {
	repos, _ := setupTestRepos(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two"} {
		if err := repos.Pipeline.Create(ctx, &models.Pipeline{Name: name}); err != nil {
			t.Fatalf("failed to create pipeline %q: %v", name, err)
		}
	}

	pipelines, err := repos.Pipeline.List(ctx)
	if err != nil {
		t.Fatalf("failed to list pipelines: %v", err)
	}
	if len(pipelines) != 2 {
		t.Errorf("expected 2 pipelines, got %d", len(pipelines))
	}
}

func TestPipelineRepository_Delete(t *testing.T) {
	repos, _ := setupTestRepos(t)
	ctx := context.Background()

	pipeline := &models.Pipeline{Name: "gone", Nodes: []models.PipelineNode{{Action: "open_inbox"}}}
	if err := repos.Pipeline.Create(ctx, pipeline); err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	deleted, err := repos.Pipeline.Delete(ctx, pipeline.ID)
	if err != nil {
		t.Fatalf("failed to delete pipeline: %v", err)
	}
	if !deleted {
		t.Error("expected delete to report a removed row")
	}

	deleted, err = repos.Pipeline.Delete(ctx, pipeline.ID)
	if err != nil {
		t.Fatalf("unexpected error deleting missing pipeline: %v", err)
	}
	if deleted {
		t.Error("expected delete of missing pipeline to report false")
	}
}
