package models

// Logbook is a named, owned grouping of entries. Name is the identity;
// two logbooks are the same iff name and owner match. The Entries slice is a
// derived back-reference populated only by lookups, never authoritative.
type Logbook struct {
	Name  string
	Owner string

	Entries []*Entry
}

// Same reports logbook equality: name and owner together.
func (l *Logbook) Same(other *Logbook) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Name == other.Name && l.Owner == other.Owner
}
