// Package persistence implements the PostgreSQL adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"assist_server/core/port/out"
	"assist_server/pkg/apperr"
)

// ReplyTemplateAdapter implements out.ReplyTemplateRepository using
// PostgreSQL. Connectivity failures surface as STORAGE_UNAVAILABLE so
// callers can degrade with a retry hint instead of a blank 500.
type ReplyTemplateAdapter struct {
	db *sqlx.DB
}

func NewReplyTemplateAdapter(db *sqlx.DB) *ReplyTemplateAdapter {
	return &ReplyTemplateAdapter{db: db}
}

var _ out.ReplyTemplateRepository = (*ReplyTemplateAdapter)(nil)

// replyTemplateRow is the database row for reply templates.
type replyTemplateRow struct {
	ID         int64          `db:"id"`
	UserID     string         `db:"user_id"`
	Name       string         `db:"name"`
	Category   string         `db:"category"`
	Subject    sql.NullString `db:"subject"`
	Body       string         `db:"body"`
	Tags       pq.StringArray `db:"tags"`
	UsageCount int            `db:"usage_count"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func (r *replyTemplateRow) toEntity() *out.ReplyTemplateEntity {
	entity := &out.ReplyTemplateEntity{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Category:   r.Category,
		Body:       r.Body,
		Tags:       r.Tags,
		UsageCount: r.UsageCount,
	}
	if r.Subject.Valid {
		entity.Subject = r.Subject.String
	}
	if r.CreatedAt.Valid {
		entity.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		entity.UpdatedAt = r.UpdatedAt.Time
	}
	return entity
}

// Create inserts a new reply template.
func (a *ReplyTemplateAdapter) Create(ctx context.Context, template *out.ReplyTemplateEntity) error {
	query := `
		INSERT INTO reply_templates (
			user_id, name, category, subject, body, tags
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), $5, $6
		)
		RETURNING id, created_at, updated_at
	`

	err := a.db.QueryRowxContext(ctx, query,
		template.UserID,
		template.Name,
		template.Category,
		template.Subject,
		template.Body,
		pq.Array(template.Tags),
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return apperr.StorageUnavailable("insert template", err)
	}
	return nil
}

// GetByID fetches one template owned by the user.
func (a *ReplyTemplateAdapter) GetByID(ctx context.Context, userID string, id int64) (*out.ReplyTemplateEntity, error) {
	query := `
		SELECT id, user_id, name, category, subject, body, tags, usage_count, created_at, updated_at
		FROM reply_templates
		WHERE id = $1 AND user_id = $2
	`

	var row replyTemplateRow
	if err := a.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("template")
		}
		return nil, apperr.StorageUnavailable("get template", err)
	}
	return row.toEntity(), nil
}

// List returns the user's templates, newest first.
func (a *ReplyTemplateAdapter) List(ctx context.Context, userID string, limit, offset int) ([]*out.ReplyTemplateEntity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, user_id, name, category, subject, body, tags, usage_count, created_at, updated_at
		FROM reply_templates
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var rows []replyTemplateRow
	if err := a.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, apperr.StorageUnavailable("list templates", err)
	}

	templates := make([]*out.ReplyTemplateEntity, 0, len(rows))
	for i := range rows {
		templates = append(templates, rows[i].toEntity())
	}
	return templates, nil
}

// Delete removes a template owned by the user.
func (a *ReplyTemplateAdapter) Delete(ctx context.Context, userID string, id int64) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM reply_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.StorageUnavailable("delete template", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("template")
	}
	return nil
}

// IncrementUsage bumps the usage counter after a template is applied.
func (a *ReplyTemplateAdapter) IncrementUsage(ctx context.Context, id int64) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE reply_templates SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return apperr.StorageUnavailable("increment template usage", err)
	}
	return nil
}
