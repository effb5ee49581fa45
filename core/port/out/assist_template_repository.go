package out

import (
	"context"
	"time"
)

// ReplyTemplateEntity is the persistence shape of a captured reply template.
type ReplyTemplateEntity struct {
	ID         int64
	UserID     string
	Name       string
	Category   string
	Subject    string
	Body       string
	Tags       []string
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReplyTemplateRepository defines template data operations. Implementations
// surface storage failures as recoverable storage errors so the pipeline can
// degrade instead of aborting.
type ReplyTemplateRepository interface {
	Create(ctx context.Context, template *ReplyTemplateEntity) error
	GetByID(ctx context.Context, userID string, id int64) (*ReplyTemplateEntity, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*ReplyTemplateEntity, error)
	Delete(ctx context.Context, userID string, id int64) error
	IncrementUsage(ctx context.Context, id int64) error
}
