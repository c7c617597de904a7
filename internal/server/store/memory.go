package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
)

// group is a row of the shared named-group namespace: logbooks carry an
// owner, tags do not.
type group struct {
	owner string
	isTag bool
}

// MemoryStore keeps the directory in process memory behind a mutex. It
// mirrors the PostgreSQL store's semantics and serves tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*models.Entry
	groups  map[string]*group
	// members keeps, per entry, the ordered list of group names it belongs
	// to. Order matters: merge results must preserve it.
	members map[int64][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[int64]*models.Entry),
		groups:  make(map[string]*group),
		members: make(map[int64][]string),
	}
}

// withAssociations builds an outbound clone of the stored entry with its
// logbook and tag sets attached in membership order.
func (s *MemoryStore) withAssociations(e *models.Entry) *models.Entry {
	c := e.Clone()
	for _, name := range s.members[e.ID] {
		g, ok := s.groups[name]
		if !ok {
			continue
		}
		if g.isTag {
			c.Tags = append(c.Tags, &models.Tag{Name: name})
		} else {
			c.Logbooks = append(c.Logbooks, &models.Logbook{Name: name, Owner: g.owner})
		}
	}
	return c
}

func (s *MemoryStore) FindEntryByID(_ context.Context, id int64) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return s.withAssociations(e), nil
}

func (s *MemoryStore) FindEntriesByLogbookName(_ context.Context, name string) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for id, names := range s.members {
		for _, n := range names {
			if n == name {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	result := make([]*models.Entry, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.withAssociations(s.entries[id]))
	}
	return result, nil
}

// matchFields is the set of search fields both store implementations accept.
var matchFields = map[string]bool{
	"logbook":     true,
	"tag":         true,
	"subject":     true,
	"description": true,
	"level":       true,
	"owner":       true,
	"id":          true,
}

func (s *MemoryStore) FindEntriesByMultiMatch(_ context.Context, matches MultiMatch) ([]*models.Entry, error) {
	for field := range matches {
		if !matchFields[field] {
			return nil, common.BadRequestf("unsupported search field '%s'", field)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []*models.Entry
	for _, id := range ids {
		e := s.withAssociations(s.entries[id])
		if s.entryMatches(e, matches) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *MemoryStore) entryMatches(e *models.Entry, matches MultiMatch) bool {
	for field, patterns := range matches {
		if len(patterns) == 0 {
			continue
		}
		var values []string
		switch field {
		case "logbook":
			for _, l := range e.Logbooks {
				values = append(values, l.Name)
			}
		case "tag":
			for _, t := range e.Tags {
				values = append(values, t.Name)
			}
		case "subject":
			values = []string{e.Subject}
		case "description":
			values = []string{e.Description}
		case "level":
			values = []string{e.Level}
		case "owner":
			values = []string{e.Owner}
		case "id":
			values = []string{strconv.FormatInt(e.ID, 10)}
		}
		if !anyPatternMatches(patterns, values) {
			return false
		}
	}
	return true
}

func anyPatternMatches(patterns, values []string) bool {
	for _, p := range patterns {
		for _, v := range values {
			if matchPattern(p, v) {
				return true
			}
		}
	}
	return false
}

// matchPattern matches a value against a pattern with '*' and '?' wildcards.
func matchPattern(pattern, value string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func (s *MemoryStore) CreateEntry(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == 0 {
		s.nextID++
		entry.ID = s.nextID
	} else {
		if _, ok := s.entries[entry.ID]; ok {
			return fmt.Errorf("log entry %d already exists", entry.ID)
		}
		if entry.ID > s.nextID {
			s.nextID = entry.ID
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	stored := entry.Clone()
	stored.Logbooks = nil
	stored.Tags = nil
	s.entries[entry.ID] = stored

	for _, l := range entry.Logbooks {
		s.ensureGroup(l.Name, l.Owner, false)
		s.addMember(l.Name, entry.ID)
	}
	for _, t := range entry.Tags {
		s.ensureGroup(t.Name, "", true)
		s.addMember(t.Name, entry.ID)
	}
	return nil
}

func (s *MemoryStore) ensureGroup(name, owner string, isTag bool) {
	if _, ok := s.groups[name]; !ok {
		s.groups[name] = &group{owner: owner, isTag: isTag}
	}
}

func (s *MemoryStore) addMember(name string, entryID int64) {
	for _, n := range s.members[entryID] {
		if n == name {
			return
		}
	}
	s.members[entryID] = append(s.members[entryID], name)
}

func (s *MemoryStore) DeleteEntry(_ context.Context, id int64, failIfAbsent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		if failIfAbsent {
			return common.NotFoundf("log entry '%d' does not exist", id)
		}
		return nil
	}
	delete(s.entries, id)
	delete(s.members, id)
	return nil
}

func (s *MemoryStore) ListLogbooks(_ context.Context) ([]*models.Logbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Logbook
	for name, g := range s.groups {
		if g.isTag {
			continue
		}
		result = append(result, &models.Logbook{Name: name, Owner: g.owner})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) FindLogbook(_ context.Context, name string) (*models.Logbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Shared namespace lookup: resolves tag names too, owner empty for tags.
	g, ok := s.groups[name]
	if !ok {
		return nil, nil
	}
	return &models.Logbook{Name: name, Owner: g.owner}, nil
}

func (s *MemoryStore) CreateLogbook(_ context.Context, name, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; ok {
		return fmt.Errorf("named group '%s' already exists", name)
	}
	s.groups[name] = &group{owner: owner}
	return nil
}

func (s *MemoryStore) DeleteLogbook(_ context.Context, name string, failIfAbsent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; !ok {
		if failIfAbsent {
			return common.NotFoundf("named group '%s' does not exist", name)
		}
		return nil
	}
	delete(s.groups, name)
	for id, names := range s.members {
		s.members[id] = removeName(names, name)
	}
	return nil
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func (s *MemoryStore) ApplyLogbookAssociations(ctx context.Context, name string, entryIDs []int64) error {
	return s.applyAssociations(name, entryIDs, false)
}

func (s *MemoryStore) ListTags(_ context.Context) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Tag
	for name, g := range s.groups {
		if !g.isTag {
			continue
		}
		result = append(result, &models.Tag{Name: name})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *MemoryStore) FindTag(_ context.Context, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[name]
	if !ok || !g.isTag {
		return nil, nil
	}
	return &models.Tag{Name: name}, nil
}

func (s *MemoryStore) CreateTag(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; ok {
		return fmt.Errorf("named group '%s' already exists", name)
	}
	s.groups[name] = &group{isTag: true}
	return nil
}

func (s *MemoryStore) ApplyTagAssociations(ctx context.Context, name string, entryIDs []int64) error {
	return s.applyAssociations(name, entryIDs, true)
}

func (s *MemoryStore) applyAssociations(name string, entryIDs []int64, wantTag bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok || g.isTag != wantTag {
		return fmt.Errorf("named group '%s' does not exist", name)
	}
	for _, id := range entryIDs {
		if _, ok := s.entries[id]; !ok {
			return fmt.Errorf("log entry %d does not exist", id)
		}
	}
	for _, id := range entryIDs {
		s.addMember(name, id)
	}
	return nil
}

func (s *MemoryStore) AddAssociation(_ context.Context, name string, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; !ok {
		return fmt.Errorf("named group '%s' does not exist", name)
	}
	if _, ok := s.entries[entryID]; !ok {
		return fmt.Errorf("log entry %d does not exist", entryID)
	}
	s.addMember(name, entryID)
	return nil
}

func (s *MemoryStore) DetachAssociation(_ context.Context, name string, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if names, ok := s.members[entryID]; ok {
		s.members[entryID] = removeName(names, name)
	}
	return nil
}
