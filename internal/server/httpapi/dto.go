package httpapi

import (
	"time"

	"github.com/dmitrijs2005/ologd/internal/server/models"
)

// Wire representations. The directory layer works with models; handlers
// translate at the boundary so JSON shape changes never leak inward.

type EntryDTO struct {
	ID          int64         `json:"id,omitempty"`
	Owner       string        `json:"owner"`
	Subject     string        `json:"subject,omitempty"`
	Description string        `json:"description,omitempty"`
	Level       string        `json:"level,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	Logbooks    []*LogbookDTO `json:"logbooks,omitempty"`
	Tags        []*TagDTO     `json:"tags,omitempty"`

	Attachments []*AttachmentDTO `json:"attachments,omitempty"`
}

type LogbookDTO struct {
	Name    string      `json:"name"`
	Owner   string      `json:"owner,omitempty"`
	Entries []*EntryDTO `json:"entries,omitempty"`
}

type TagDTO struct {
	Name    string      `json:"name"`
	Entries []*EntryDTO `json:"entries,omitempty"`
}

type AttachmentDTO struct {
	ID        string     `json:"id"`
	EntryID   int64      `json:"entryId"`
	Filename  string     `json:"filename"`
	Uploaded  bool       `json:"uploaded"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (d *EntryDTO) toModel() *models.Entry {
	if d == nil {
		return nil
	}
	e := &models.Entry{
		ID:          d.ID,
		Owner:       d.Owner,
		Subject:     d.Subject,
		Description: d.Description,
		Level:       d.Level,
	}
	if d.CreatedAt != nil {
		e.CreatedAt = *d.CreatedAt
	}
	for _, l := range d.Logbooks {
		e.Logbooks = append(e.Logbooks, l.toModel())
	}
	for _, t := range d.Tags {
		e.Tags = append(e.Tags, t.toModel())
	}
	return e
}

func (d *LogbookDTO) toModel() *models.Logbook {
	if d == nil {
		return nil
	}
	return &models.Logbook{Name: d.Name, Owner: d.Owner}
}

func (d *TagDTO) toModel() *models.Tag {
	if d == nil {
		return nil
	}
	return &models.Tag{Name: d.Name}
}

func entryToDTO(e *models.Entry) *EntryDTO {
	if e == nil {
		return nil
	}
	d := &EntryDTO{
		ID:          e.ID,
		Owner:       e.Owner,
		Subject:     e.Subject,
		Description: e.Description,
		Level:       e.Level,
	}
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt
		d.CreatedAt = &t
	}
	for _, l := range e.Logbooks {
		d.Logbooks = append(d.Logbooks, &LogbookDTO{Name: l.Name, Owner: l.Owner})
	}
	for _, t := range e.Tags {
		d.Tags = append(d.Tags, &TagDTO{Name: t.Name})
	}
	for _, a := range e.Attachments {
		d.Attachments = append(d.Attachments, attachmentToDTO(a))
	}
	return d
}

func entriesToDTO(list []*models.Entry) []*EntryDTO {
	result := make([]*EntryDTO, 0, len(list))
	for _, e := range list {
		result = append(result, entryToDTO(e))
	}
	return result
}

func logbookToDTO(l *models.Logbook) *LogbookDTO {
	if l == nil {
		return nil
	}
	d := &LogbookDTO{Name: l.Name, Owner: l.Owner}
	for _, e := range l.Entries {
		d.Entries = append(d.Entries, entryToDTO(e))
	}
	return d
}

func tagToDTO(t *models.Tag) *TagDTO {
	if t == nil {
		return nil
	}
	d := &TagDTO{Name: t.Name}
	for _, e := range t.Entries {
		d.Entries = append(d.Entries, entryToDTO(e))
	}
	return d
}

func attachmentToDTO(a *models.Attachment) *AttachmentDTO {
	if a == nil {
		return nil
	}
	d := &AttachmentDTO{
		ID:       a.ID,
		EntryID:  a.EntryID,
		Filename: a.Filename,
		Uploaded: a.Uploaded,
	}
	if !a.CreatedAt.IsZero() {
		t := a.CreatedAt
		d.CreatedAt = &t
	}
	return d
}
