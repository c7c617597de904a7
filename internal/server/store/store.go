// Package store defines the persistence collaborator of the directory layer:
// one interface with a method per storage operation, implemented for
// PostgreSQL and in memory.
package store

import (
	"context"

	"github.com/dmitrijs2005/ologd/internal/server/models"
)

// MultiMatch maps a field name ("logbook", "tag", "subject", "description",
// "level", "owner") to an ordered list of patterns. Patterns support the
// wildcards '*' (any run) and '?' (single character). An entry matches when,
// for every present key, at least one pattern matches.
type MultiMatch map[string][]string

// Store is the persistence capability consumed by the directory manager.
// Find operations return (nil, nil) when the target does not exist; delete
// operations select between the ignore-absence and fail-on-absence contracts
// through failIfAbsent. Logbooks and tags share one named-group namespace,
// so DeleteLogbook also deletes tags, as in the original schema.
type Store interface {
	FindEntryByID(ctx context.Context, id int64) (*models.Entry, error)
	FindEntriesByLogbookName(ctx context.Context, name string) ([]*models.Entry, error)
	FindEntriesByMultiMatch(ctx context.Context, matches MultiMatch) ([]*models.Entry, error)
	// CreateEntry persists the entry together with its logbook and tag
	// associations, assigning an id when the entry carries none. Logbooks
	// and tags referenced by name are created on demand.
	CreateEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, id int64, failIfAbsent bool) error

	ListLogbooks(ctx context.Context) ([]*models.Logbook, error)
	// FindLogbook resolves a name in the shared named-group namespace; it
	// also resolves tag names, which is what tag ownership checks rely on.
	FindLogbook(ctx context.Context, name string) (*models.Logbook, error)
	CreateLogbook(ctx context.Context, name, owner string) error
	DeleteLogbook(ctx context.Context, name string, failIfAbsent bool) error
	ApplyLogbookAssociations(ctx context.Context, name string, entryIDs []int64) error

	ListTags(ctx context.Context) ([]*models.Tag, error)
	FindTag(ctx context.Context, name string) (*models.Tag, error)
	CreateTag(ctx context.Context, name string) error
	ApplyTagAssociations(ctx context.Context, name string, entryIDs []int64) error

	AddAssociation(ctx context.Context, name string, entryID int64) error
	DetachAssociation(ctx context.Context, name string, entryID int64) error
}
