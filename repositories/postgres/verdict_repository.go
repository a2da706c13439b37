package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/repositories"
	"github.com/dunderai/auditcore/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerdictRepository implements the repositories.VerdictRepository interface
type VerdictRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewVerdictRepository creates a new verdict repository
func NewVerdictRepository(db *DB, logger *zap.Logger) repositories.VerdictRepository {
	return &VerdictRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores a verdict
func (r *VerdictRepository) Insert(ctx context.Context, verdict *models.Verdict) error {
	query := `
		INSERT INTO audit_verdicts (
			id, request_text, workflow, outcome, no_evidence,
			high_count, medium_count, low_count, details, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		verdict.ID,
		verdict.RequestText,
		verdict.Workflow,
		verdict.Outcome,
		verdict.NoEvidence,
		verdict.HighCount,
		verdict.MediumCount,
		verdict.LowCount,
		nullableJSON(verdict.Details),
		verdict.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}

	r.logger.Debug("verdict inserted",
		zap.String("id", verdict.ID.String()),
		zap.String("workflow", string(verdict.Workflow)))
	return nil
}

// GetByID retrieves a verdict by ID
func (r *VerdictRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Verdict, error) {
	query := `
		SELECT id, request_text, workflow, outcome, no_evidence,
		       high_count, medium_count, low_count, details, created_at
		FROM audit_verdicts
		WHERE id = $1
	`

	verdict := &models.Verdict{}
	var details []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&verdict.ID,
		&verdict.RequestText,
		&verdict.Workflow,
		&verdict.Outcome,
		&verdict.NoEvidence,
		&verdict.HighCount,
		&verdict.MediumCount,
		&verdict.LowCount,
		&details,
		&verdict.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, services.ErrVerdictNotFound
		}
		return nil, fmt.Errorf("failed to get verdict: %w", err)
	}

	verdict.Details = details
	return verdict, nil
}

// GetRecent retrieves the most recent verdicts, newest first
func (r *VerdictRepository) GetRecent(ctx context.Context, limit int) ([]*models.Verdict, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, request_text, workflow, outcome, no_evidence,
		       high_count, medium_count, low_count, details, created_at
		FROM audit_verdicts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []*models.Verdict
	for rows.Next() {
		verdict := &models.Verdict{}
		var details []byte

		if err := rows.Scan(
			&verdict.ID,
			&verdict.RequestText,
			&verdict.Workflow,
			&verdict.Outcome,
			&verdict.NoEvidence,
			&verdict.HighCount,
			&verdict.MediumCount,
			&verdict.LowCount,
			&details,
			&verdict.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}

		verdict.Details = details
		verdicts = append(verdicts, verdict)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verdicts: %w", err)
	}

	return verdicts, nil
}

// nullableJSON maps empty details to SQL NULL instead of an empty blob.
func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
