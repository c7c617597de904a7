package models

// Tag is a named label attachable to entries. Unlike a logbook it carries no
// owner of its own; ownership checks resolve through the shared named-group
// namespace. Entries is a derived back-reference.
type Tag struct {
	Name string

	Entries []*Entry
}
