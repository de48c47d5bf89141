package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/pagination"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const promptColumns = `resource_id, version, section, sub_section, categories, name,
	system_prompt, user_prompt_template, output_format, status, is_active,
	created_by, updated_by, created_at, updated_at`

// latestVersions selects the highest version row per resource id. List-style
// queries operate on this view so filters see one row per prompt.
const latestVersions = `SELECT DISTINCT ON (resource_id) ` + promptColumns + `
	FROM prompts ORDER BY resource_id, version DESC`

// PromptRepository persists versioned prompt records.
type PromptRepository struct {
	db dbtx
}

func NewPromptRepository(pool *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{db: pool}
}

func NewPromptRepositoryWithTx(tx dbtx) *PromptRepository {
	return &PromptRepository{db: tx}
}

func (r *PromptRepository) Insert(ctx context.Context, p *domain.PromptRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO prompts (`+promptColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ResourceID, p.Version, p.Section, nullableString(p.SubSection), p.Categories, p.Name,
		p.SystemPrompt, p.UserPromptTemplate, nullableString(p.OutputFormat), p.Status, p.IsActive,
		p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PromptRepository) GetVersion(ctx context.Context, resourceID string, version int) (*domain.PromptRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE resource_id = $1 AND version = $2`,
		resourceID, version,
	)
	p, err := scanPromptRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromptVersionNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PromptRepository) GetLatest(ctx context.Context, resourceID string) (*domain.PromptRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE resource_id = $1 ORDER BY version DESC LIMIT 1`,
		resourceID,
	)
	p, err := scanPromptRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateVersion overwrites a draft version in place. The version guard makes
// concurrent in-place updates of a forked record fail instead of resurrecting
// a deleted row.
func (r *PromptRepository) UpdateVersion(ctx context.Context, p *domain.PromptRecord) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE prompts SET
			section = $3, sub_section = $4, categories = $5, name = $6,
			system_prompt = $7, user_prompt_template = $8, output_format = $9,
			status = $10, is_active = $11, updated_by = $12, updated_at = $13
		 WHERE resource_id = $1 AND version = $2`,
		p.ResourceID, p.Version,
		p.Section, nullableString(p.SubSection), p.Categories, p.Name,
		p.SystemPrompt, p.UserPromptTemplate, nullableString(p.OutputFormat),
		p.Status, p.IsActive, p.UpdatedBy, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromptVersionNotFound
	}
	return nil
}

func (r *PromptRepository) DeleteVersion(ctx context.Context, resourceID string, version int) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM prompts WHERE resource_id = $1 AND version = $2`,
		resourceID, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PromptRepository) DeleteAll(ctx context.Context, resourceID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM prompts WHERE resource_id = $1`,
		resourceID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns latest-version records matching the conjunctive filters,
// sorted by updated_at descending, with the total count of the filtered set.
func (r *PromptRepository) List(ctx context.Context, filters service.ListFilters, page pagination.Page) ([]*domain.PromptRecord, int, error) {
	page = page.Normalize()

	conditions := []string{}
	args := []any{}

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filters.Section != "" {
		addCondition("section = $%d", filters.Section)
	}
	if filters.SubSection != "" {
		addCondition("sub_section = $%d", filters.SubSection)
	}
	if filters.Tag != "" {
		addCondition("$%d = ANY(categories)", filters.Tag)
	}
	if filters.Route != "" {
		addCondition("section || '/' || COALESCE(sub_section, '') = $%d", filters.Route)
	}
	if filters.IsActive != nil {
		addCondition("is_active = $%d", *filters.IsActive)
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR system_prompt ILIKE $%d OR user_prompt_template ILIKE $%d)", n, n, n))
	}

	query := `WITH latest AS (` + latestVersions + `)
		SELECT ` + promptColumns + `, count(*) OVER() AS total FROM latest`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.PromptRecord
	var total int
	for rows.Next() {
		p, rowTotal, err := scanPromptRowWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = rowTotal
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// FindActive resolves the published, active record for a (section,
// sub_section) pair. With an empty sub-section the match is on section alone
// and the most recently updated record wins the tie-break.
func (r *PromptRepository) FindActive(ctx context.Context, section, subSection string) (*domain.PromptRecord, error) {
	query := `SELECT ` + promptColumns + ` FROM prompts
		WHERE section = $1 AND status = 'published' AND is_active`
	args := []any{section}

	if subSection != "" {
		query += " AND sub_section = $2"
		args = append(args, subSection)
	}
	query += " ORDER BY updated_at DESC LIMIT 1"

	row := r.db.QueryRow(ctx, query, args...)
	p, err := scanPromptRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActivePrompt
		}
		return nil, err
	}
	return p, nil
}

// NameExists reports whether another active resource already uses the
// (section, sub_section, name) triple, judged on latest versions.
func (r *PromptRepository) NameExists(ctx context.Context, section, subSection, name, excludeResourceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM (`+latestVersions+`) latest
			WHERE latest.section = $1
			  AND COALESCE(latest.sub_section, '') = $2
			  AND latest.name = $3
			  AND latest.resource_id <> $4
			  AND latest.is_active
		)`,
		section, subSection, name, excludeResourceID,
	).Scan(&exists)
	return exists, err
}

func scanPromptRow(row pgx.Row) (*domain.PromptRecord, error) {
	var p domain.PromptRecord
	var subSection, outputFormat *string
	err := row.Scan(
		&p.ResourceID, &p.Version, &p.Section, &subSection, &p.Categories, &p.Name,
		&p.SystemPrompt, &p.UserPromptTemplate, &outputFormat, &p.Status, &p.IsActive,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if subSection != nil {
		p.SubSection = *subSection
	}
	if outputFormat != nil {
		p.OutputFormat = *outputFormat
	}
	return &p, nil
}

func scanPromptRowWithTotal(row pgx.Row) (*domain.PromptRecord, int, error) {
	var p domain.PromptRecord
	var subSection, outputFormat *string
	var total int
	err := row.Scan(
		&p.ResourceID, &p.Version, &p.Section, &subSection, &p.Categories, &p.Name,
		&p.SystemPrompt, &p.UserPromptTemplate, &outputFormat, &p.Status, &p.IsActive,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt, &total,
	)
	if err != nil {
		return nil, 0, err
	}
	if subSection != nil {
		p.SubSection = *subSection
	}
	if outputFormat != nil {
		p.OutputFormat = *outputFormat
	}
	return &p, total, nil
}
