package directory

import (
	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
)

// Structural validation. Every check fails fast with a BadRequest error;
// collection forms treat a nil collection as nothing to validate and stop at
// the first failing element.

func validateEntry(e *models.Entry) error {
	if e == nil {
		return common.BadRequestf("missing log entry payload")
	}
	if e.ID == 0 {
		return common.BadRequestf("invalid log entry id (null or empty)")
	}
	if e.Owner == "" {
		return common.BadRequestf("invalid log entry owner (null or empty string) for '%d'", e.ID)
	}
	return nil
}

func validateEntries(data []*models.Entry) error {
	for _, e := range data {
		if err := validateEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func validateLogbook(l *models.Logbook) error {
	if l == nil {
		return common.BadRequestf("missing logbook payload")
	}
	if l.Name == "" {
		return common.BadRequestf("invalid logbook name (null or empty string)")
	}
	if l.Owner == "" {
		return common.BadRequestf("invalid logbook owner (null or empty string) for '%s'", l.Name)
	}
	return nil
}

func validateLogbooks(data []*models.Logbook) error {
	for _, l := range data {
		if err := validateLogbook(l); err != nil {
			return err
		}
	}
	return nil
}

func validateTag(t *models.Tag) error {
	if t == nil {
		return common.BadRequestf("missing tag payload")
	}
	if t.Name == "" {
		return common.BadRequestf("invalid tag name (null or empty string)")
	}
	return nil
}

func validateTags(data []*models.Tag) error {
	for _, t := range data {
		if err := validateTag(t); err != nil {
			return err
		}
	}
	return nil
}

// checkIDMatches verifies that a path-supplied entry id equals the id inside
// the payload. Exact equality, no normalization.
func checkIDMatches(id int64, e *models.Entry) error {
	if e == nil {
		return nil
	}
	if id != e.ID {
		return common.BadRequestf("specified log entry id '%d' and payload id '%d' do not match", id, e.ID)
	}
	return nil
}

func checkLogbookNameMatches(name string, l *models.Logbook) error {
	if l == nil {
		return nil
	}
	if name != l.Name {
		return common.BadRequestf("specified logbook name '%s' and payload name '%s' do not match", name, l.Name)
	}
	return nil
}

func checkTagNameMatches(name string, t *models.Tag) error {
	if t == nil {
		return nil
	}
	if name != t.Name {
		return common.BadRequestf("specified tag name '%s' and payload name '%s' do not match", name, t.Name)
	}
	return nil
}

// validateAssociatedEntryIDs checks the entry back-references carried in a
// logbook or tag payload; only a non-zero id is required there.
func validateAssociatedEntryIDs(data []*models.Entry) error {
	for _, e := range data {
		if e == nil || e.ID == 0 {
			return common.BadRequestf("invalid log entry id in association list (null or empty)")
		}
	}
	return nil
}
