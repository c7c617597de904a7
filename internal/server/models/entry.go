// Package models defines the server-side entities of the log directory:
// entries, the logbooks that group them, the tags that label them, and
// attachment metadata.
package models

import "time"

// Entry is a single logged record. Logbook and tag sets are unique by name;
// the directory layer is responsible for keeping them that way.
type Entry struct {
	ID          int64
	Owner       string
	Subject     string
	Description string
	Level       string
	CreatedAt   time.Time

	Logbooks []*Logbook
	Tags     []*Tag

	Attachments []*Attachment
}

// Clone returns a deep copy of the entry. Stores hand out clones so callers
// can mutate results freely.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	c.Logbooks = make([]*Logbook, len(e.Logbooks))
	for i, l := range e.Logbooks {
		lc := *l
		lc.Entries = nil
		c.Logbooks[i] = &lc
	}
	c.Tags = make([]*Tag, len(e.Tags))
	for i, t := range e.Tags {
		tc := *t
		tc.Entries = nil
		c.Tags[i] = &tc
	}
	c.Attachments = make([]*Attachment, len(e.Attachments))
	for i, a := range e.Attachments {
		ac := *a
		c.Attachments[i] = &ac
	}
	return &c
}
