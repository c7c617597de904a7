package models

import "time"

// Attachment describes a binary payload associated with an entry. The content
// itself lives in object storage under StorageKey; only metadata is kept in
// the database.
type Attachment struct {
	ID         string
	EntryID    int64
	Filename   string
	StorageKey string
	Uploaded   bool
	CreatedAt  time.Time
}
