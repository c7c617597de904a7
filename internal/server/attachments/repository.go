// Package attachments manages file attachments on log entries. Metadata
// lives in PostgreSQL; the file bodies go to an S3-compatible backend via
// presigned URLs, so the server never proxies file content.
package attachments

import (
	"context"

	"github.com/dmitrijs2005/ologd/internal/server/models"
)

// Repository abstracts attachment metadata storage.
type Repository interface {
	Create(ctx context.Context, a *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByEntryID(ctx context.Context, entryID int64) ([]*models.Attachment, error)
	MarkUploaded(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
