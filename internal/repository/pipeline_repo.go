package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/warmloop/warmloop/internal/models"
)

// SQLitePipelineRepository implements PipelineRepository for SQLite.
type SQLitePipelineRepository struct {
	db *sql.DB
}

// NewSQLitePipelineRepository creates a new SQLite pipeline repository.
func NewSQLitePipelineRepository(db *sql.DB) *SQLitePipelineRepository {
	return &SQLitePipelineRepository{db: db}
}

// Create creates a pipeline and its nodes in one transaction.
func (r *SQLitePipelineRepository) Create(ctx context.Context, pipeline *models.Pipeline) error {
	now := time.Now()
	if pipeline.ID == "" {
		pipeline.ID = ulid.Make().String()
	}
	pipeline.CreatedAt = now
	pipeline.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pipelines (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`,
		pipeline.ID,
		pipeline.Name,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	if err := insertNodes(ctx, tx, pipeline.ID, pipeline.Nodes); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a pipeline with its nodes in position order.
func (r *SQLitePipelineRepository) GetByID(ctx context.Context, id string) (*models.Pipeline, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM pipelines
		WHERE id = ?
	`, id)

	pipeline, err := scanPipeline(row)
	if err != nil || pipeline == nil {
		return nil, err
	}

	pipeline.Nodes, err = r.loadNodes(ctx, pipeline.ID)
	if err != nil {
		return nil, err
	}

	return pipeline, nil
}

// List returns all pipelines with their nodes, newest first.
func (r *SQLitePipelineRepository) List(ctx context.Context) ([]*models.Pipeline, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM pipelines
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pipelines []*models.Pipeline
	for rows.Next() {
		var pipeline models.Pipeline
		var createdAt, updatedAt string

		if err := rows.Scan(&pipeline.ID, &pipeline.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		pipeline.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		pipeline.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		pipelines = append(pipelines, &pipeline)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, pipeline := range pipelines {
		pipeline.Nodes, err = r.loadNodes(ctx, pipeline.ID)
		if err != nil {
			return nil, err
		}
	}

	return pipelines, nil
}

// Update replaces the pipeline's name and entire node list.
func (r *SQLitePipelineRepository) Update(ctx context.Context, pipeline *models.Pipeline) error {
	pipeline.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE pipelines SET name = ?, updated_at = ?
		WHERE id = ?
	`,
		pipeline.Name,
		pipeline.UpdatedAt.Format(time.RFC3339),
		pipeline.ID,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pipeline_nodes WHERE pipeline_id = ?`, pipeline.ID); err != nil {
		return err
	}

	if err := insertNodes(ctx, tx, pipeline.ID, pipeline.Nodes); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a pipeline and its nodes, reporting whether a row existed.
func (r *SQLitePipelineRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE id = ?`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *SQLitePipelineRepository) loadNodes(ctx context.Context, pipelineID string) ([]models.PipelineNode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, position, metadata_json
		FROM pipeline_nodes
		WHERE pipeline_id = ?
		ORDER BY position ASC
	`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.PipelineNode
	for rows.Next() {
		var node models.PipelineNode
		var metadataJSON sql.NullString

		if err := rows.Scan(&node.ID, &node.Action, &node.Position, &metadataJSON); err != nil {
			return nil, err
		}

		if metadataJSON.Valid && metadataJSON.String != "" {
			var metadata map[string]any
			if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err == nil {
				node.Metadata = metadata
			}
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

func insertNodes(ctx context.Context, tx *sql.Tx, pipelineID string, nodes []models.PipelineNode) error {
	now := time.Now().Format(time.RFC3339)

	for i := range nodes {
		node := &nodes[i]
		if node.ID == "" {
			node.ID = ulid.Make().String()
		}
		node.Position = i

		var metadataJSON any
		if node.Metadata != nil {
			data, err := json.Marshal(node.Metadata)
			if err != nil {
				return err
			}
			metadataJSON = string(data)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO pipeline_nodes (id, pipeline_id, action, position, metadata_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			node.ID,
			pipelineID,
			node.Action,
			node.Position,
			metadataJSON,
			now,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// scanPipeline scans a single row into a Pipeline without its nodes.
func scanPipeline(row *sql.Row) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	var createdAt, updatedAt string

	err := row.Scan(&pipeline.ID, &pipeline.Name, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pipeline.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	pipeline.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &pipeline, nil
}
