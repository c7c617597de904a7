package directory

import "github.com/dmitrijs2005/ologd/internal/server/models"

// MergeEntries merges the logbook and tag sets of src into dest in place.
//
// The merge is a name-keyed union, strictly additive: existing associations
// keep their relative order and are never removed, new ones are appended in
// source order. On a name match the existing association wins; when overwrite
// is set, a matched logbook takes the owner value from src instead. Tags carry
// no owner, so overwrite has no effect on them.
func MergeEntries(dest, src *models.Entry, overwrite bool) {
	for _, s := range src.Logbooks {
		if d := findLogbookByName(dest.Logbooks, s.Name); d != nil {
			if overwrite {
				d.Owner = s.Owner
			}
			continue
		}
		dest.Logbooks = append(dest.Logbooks, s)
	}

	for _, s := range src.Tags {
		if findTagByName(dest.Tags, s.Name) != nil {
			continue
		}
		dest.Tags = append(dest.Tags, s)
	}
}

func findLogbookByName(logbooks []*models.Logbook, name string) *models.Logbook {
	for _, l := range logbooks {
		if l.Name == name {
			return l
		}
	}
	return nil
}

func findTagByName(tags []*models.Tag, name string) *models.Tag {
	for _, t := range tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}
