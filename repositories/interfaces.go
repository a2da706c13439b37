package repositories

import (
	"context"

	"github.com/dunderai/auditcore/models"
	"github.com/google/uuid"
)

// VerdictRepository archives synthesized audit verdicts.
type VerdictRepository interface {
	// Insert stores a verdict.
	Insert(ctx context.Context, verdict *models.Verdict) error

	// GetByID retrieves a verdict by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Verdict, error)

	// GetRecent retrieves the most recent verdicts, newest first.
	GetRecent(ctx context.Context, limit int) ([]*models.Verdict, error)
}
