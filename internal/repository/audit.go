package repository

import (
	"context"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository persists the append-only prompt operation history.
type AuditRepository struct {
	db dbtx
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

func NewAuditRepositoryWithTx(tx dbtx) *AuditRepository {
	return &AuditRepository{db: tx}
}

func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO prompt_audit (id, resource_id, operation, actor, before_state, after_state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ResourceID, e.Operation, e.Actor, e.Before, e.After, e.CreatedAt,
	)
	return err
}

func (r *AuditRepository) ListByResource(ctx context.Context, resourceID string, limit int) ([]*domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, resource_id, operation, actor, before_state, after_state, created_at
		 FROM prompt_audit WHERE resource_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		resourceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.Operation, &e.Actor, &e.Before, &e.After, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
