package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"curriculum-engine/internal/core/ports"
	"curriculum-engine/internal/domain"
)

// WorkflowRecord is the persisted form of a workflow snapshot. The indexed
// columns exist for operator queries; the snapshot body is the source of
// truth when loading.
type WorkflowRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;"`
	Kind        string         `gorm:"type:varchar(50);index;not null"`
	Status      string         `gorm:"type:varchar(20);index;not null"`
	RequesterID *uuid.UUID     `gorm:"type:uuid;index"`
	Snapshot    datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func (WorkflowRecord) TableName() string {
	return "workflow_snapshots"
}

type workflowStore struct {
	db *gorm.DB
}

// NewWorkflowStore creates the gorm-backed WorkflowStore.
func NewWorkflowStore(db *gorm.DB) ports.WorkflowStore {
	return &workflowStore{db: db}
}

// Migrate creates the snapshot table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&WorkflowRecord{})
}

// Save upserts the snapshot keyed by workflow id. The updated_at guard keeps
// a racing older snapshot (e.g. the loop's pre-invoke flush losing to a
// concurrent Stop) from overwriting a newer one; UpdatedAt is monotonic per
// instance, so last-writer-wins on the column is correct.
func (s *workflowStore) Save(ctx context.Context, w *domain.WorkflowInstance) error {
	body, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal workflow %s: %w", w.ID, err)
	}

	record := WorkflowRecord{
		ID:          w.ID,
		Kind:        w.Kind,
		Status:      string(w.Status),
		RequesterID: w.Metadata.RequesterID,
		Snapshot:    datatypes.JSON(body),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		CompletedAt: w.CompletedAt,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "snapshot", "updated_at", "completed_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "workflow_snapshots.updated_at <= excluded.updated_at"},
			}},
		}).
		Create(&record).Error
}

func (s *workflowStore) Load(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	var record WorkflowRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	var w domain.WorkflowInstance
	if err := json.Unmarshal(record.Snapshot, &w); err != nil {
		return nil, fmt.Errorf("unmarshal workflow %s: %w", id, err)
	}
	return &w, nil
}
