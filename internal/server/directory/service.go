// Package directory implements the business-logic core of ologd: payload
// validation, group-ownership authorization, name-keyed merge of logbook and
// tag associations, and the per-operation pipelines composing them.
package directory

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/auth"
	sc "github.com/dmitrijs2005/ologd/internal/server/config"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/dmitrijs2005/ologd/internal/server/store"
)

// Manager is the single entry point for all directory operations. It is a
// stateless service value: construct once, share freely. Every operation is a
// short synchronous pipeline of validate, authorize, store read, merge (on the
// update path) and store write; nothing is cached or retried here.
type Manager struct {
	store          store.Store
	authz          authorizer
	mergeOverwrite bool
}

func NewManager(st store.Store, cfg *sc.Config) *Manager {
	return &Manager{
		store:          st,
		authz:          authorizer{store: st},
		mergeOverwrite: cfg.MergeOverwrite,
	}
}

// user extracts the acting principal from the request context. Read-only
// operations never call this; mutating pipelines pass the result (possibly
// nil) into the ownership checks.
func (m *Manager) user(ctx context.Context) auth.UserContext {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return nil
	}
	return p
}

// storeErr passes structured errors through unchanged and reclassifies
// anything else as a store failure.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ce *common.Error
	if errors.As(err, &ce) {
		return err
	}
	return common.StoreFailure(msg, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ---- log entries ----

// FindEntryByID returns the entry with the given id, or nil when absent.
func (m *Manager) FindEntryByID(ctx context.Context, id int64) (*models.Entry, error) {
	e, err := m.store.FindEntryByID(ctx, id)
	return e, storeErr(err, "finding log entry")
}

// FindEntriesByLogbookName returns all entries associated with the named
// logbook (or tag; the namespace is shared).
func (m *Manager) FindEntriesByLogbookName(ctx context.Context, name string) ([]*models.Entry, error) {
	es, err := m.store.FindEntriesByLogbookName(ctx, name)
	return es, storeErr(err, "finding log entries by logbook")
}

// FindEntriesByMultiMatch returns entries matching all given field patterns.
func (m *Manager) FindEntriesByMultiMatch(ctx context.Context, matches store.MultiMatch) ([]*models.Entry, error) {
	es, err := m.store.FindEntriesByMultiMatch(ctx, matches)
	return es, storeErr(err, "finding log entries by multi-match")
}

// CreateEntry creates a new entry, letting the store assign its id.
func (m *Manager) CreateEntry(ctx context.Context, data *models.Entry) (*models.Entry, error) {
	if data == nil {
		return nil, common.BadRequestf("missing log entry payload")
	}
	if data.Owner == "" {
		return nil, common.BadRequestf("invalid log entry owner (null or empty string)")
	}
	if err := validateLogbooks(data.Logbooks); err != nil {
		return nil, err
	}
	if err := validateTags(data.Tags); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkEntryOwnership(user, data); err != nil {
		return nil, err
	}
	if err := m.store.CreateEntry(ctx, data); err != nil {
		return nil, storeErr(err, "creating log entry")
	}
	return data, nil
}

// CreateOrReplaceEntry gives PUT semantics for a single entry: idempotent
// delete of any previous entry under the id, then a fresh create. The payload
// id must match the targeted id.
func (m *Manager) CreateOrReplaceEntry(ctx context.Context, id int64, data *models.Entry) (*models.Entry, error) {
	if err := validateEntry(data); err != nil {
		return nil, err
	}
	if err := checkIDMatches(id, data); err != nil {
		return nil, err
	}
	if err := validateLogbooks(data.Logbooks); err != nil {
		return nil, err
	}
	if err := validateTags(data.Tags); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkEntryOwnership(user, data); err != nil {
		return nil, err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, id); err != nil {
		return nil, err
	}
	if err := m.store.DeleteEntry(ctx, id, false); err != nil {
		return nil, storeErr(err, "replacing log entry")
	}
	if err := m.store.CreateEntry(ctx, data); err != nil {
		return nil, storeErr(err, "creating log entry")
	}
	return data, nil
}

// CreateOrReplaceEntries applies CreateOrReplaceEntry to every element of the
// batch. The batch is a sequence of independent delete/create calls: a
// mid-batch failure leaves prior elements committed.
func (m *Manager) CreateOrReplaceEntries(ctx context.Context, data []*models.Entry) error {
	if err := validateEntries(data); err != nil {
		return err
	}
	user := m.user(ctx)
	if err := m.authz.checkEntriesOwnership(user, data); err != nil {
		return err
	}
	for _, e := range data {
		if err := m.store.DeleteEntry(ctx, e.ID, false); err != nil {
			return storeErr(err, "replacing log entry")
		}
		if err := m.store.CreateEntry(ctx, e); err != nil {
			return storeErr(err, "creating log entry")
		}
	}
	return nil
}

// UpdateEntry merges the payload into the existing entry: fetch by id (or
// NotFound), overlay the incoming id and owner, merge the logbook and tag
// sets by name, then persist the merged result as delete plus recreate.
// Update is a read-merge-write, never a raw overwrite.
func (m *Manager) UpdateEntry(ctx context.Context, id int64, data *models.Entry) (*models.Entry, error) {
	if err := validateEntry(data); err != nil {
		return nil, err
	}
	if err := checkIDMatches(id, data); err != nil {
		return nil, err
	}
	if err := validateLogbooks(data.Logbooks); err != nil {
		return nil, err
	}
	if err := validateTags(data.Tags); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkEntryOwnership(user, data); err != nil {
		return nil, err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, id); err != nil {
		return nil, err
	}

	dest, err := m.store.FindEntryByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "finding log entry")
	}
	if dest == nil {
		return nil, common.NotFoundf("specified log entry '%d' does not exist", id)
	}

	dest.ID = data.ID
	dest.Owner = data.Owner
	MergeEntries(dest, data, m.mergeOverwrite)

	if err := m.store.DeleteEntry(ctx, id, false); err != nil {
		return nil, storeErr(err, "replacing log entry")
	}
	if err := m.store.CreateEntry(ctx, dest); err != nil {
		return nil, storeErr(err, "creating log entry")
	}
	return dest, nil
}

// RemoveEntry deletes the entry, ignoring absence.
func (m *Manager) RemoveEntry(ctx context.Context, id int64) error {
	if err := m.authz.checkEntryOwnershipByID(ctx, m.user(ctx), id); err != nil {
		return err
	}
	return storeErr(m.store.DeleteEntry(ctx, id, false), "deleting log entry")
}

// RemoveExistingEntry deletes the entry, failing loudly when it is absent.
func (m *Manager) RemoveExistingEntry(ctx context.Context, id int64) error {
	if err := m.authz.checkEntryOwnershipByID(ctx, m.user(ctx), id); err != nil {
		return err
	}
	return storeErr(m.store.DeleteEntry(ctx, id, true), "deleting log entry")
}

// ---- logbooks ----

func (m *Manager) ListLogbooks(ctx context.Context) ([]*models.Logbook, error) {
	ls, err := m.store.ListLogbooks(ctx)
	return ls, storeErr(err, "listing logbooks")
}

// FindLogbookByName returns the logbook with its entry back-references
// attached, or nil when absent.
func (m *Manager) FindLogbookByName(ctx context.Context, name string) (*models.Logbook, error) {
	l, err := m.store.FindLogbook(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding logbook")
	}
	if l == nil {
		return nil, nil
	}
	entries, err := m.store.FindEntriesByLogbookName(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding logbook entries")
	}
	l.Entries = entries
	return l, nil
}

// CreateOrReplaceLogbook deletes any logbook of that name, creates it fresh
// with the payload's name and owner, and attaches it exclusively to the
// entries listed in the payload.
func (m *Manager) CreateOrReplaceLogbook(ctx context.Context, name string, data *models.Logbook) (*models.Logbook, error) {
	if err := validateLogbook(data); err != nil {
		return nil, err
	}
	if err := checkLogbookNameMatches(name, data); err != nil {
		return nil, err
	}
	if err := validateAssociatedEntryIDs(data.Entries); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkLogbookOwnership(user, data); err != nil {
		return nil, err
	}
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return nil, err
	}
	if err := m.replaceLogbook(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Manager) replaceLogbook(ctx context.Context, data *models.Logbook) error {
	if err := m.store.DeleteLogbook(ctx, data.Name, false); err != nil {
		return storeErr(err, "replacing logbook")
	}
	if err := m.store.CreateLogbook(ctx, data.Name, data.Owner); err != nil {
		return storeErr(err, "creating logbook")
	}
	if err := m.store.ApplyLogbookAssociations(ctx, data.Name, entryIDs(data.Entries)); err != nil {
		return storeErr(err, "attaching logbook to log entries")
	}
	return nil
}

// CreateOrReplaceLogbooks replaces every logbook in the batch. Partial
// completion on a mid-batch failure is observable, not rolled back.
func (m *Manager) CreateOrReplaceLogbooks(ctx context.Context, data []*models.Logbook) error {
	if err := validateLogbooks(data); err != nil {
		return err
	}
	for _, l := range data {
		if err := validateAssociatedEntryIDs(l.Entries); err != nil {
			return err
		}
	}
	user := m.user(ctx)
	if err := m.authz.checkLogbooksOwnership(user, data); err != nil {
		return err
	}
	for _, l := range data {
		if err := m.replaceLogbook(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// UpdateLogbook attaches the existing named logbook to the entries listed in
// the payload, leaving its other associations alone.
func (m *Manager) UpdateLogbook(ctx context.Context, name string, data *models.Logbook) (*models.Logbook, error) {
	if data == nil {
		return nil, common.BadRequestf("missing logbook payload")
	}
	if err := checkLogbookNameMatches(name, data); err != nil {
		return nil, err
	}
	if err := validateAssociatedEntryIDs(data.Entries); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return nil, err
	}
	l, err := m.store.FindLogbook(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding logbook")
	}
	if l == nil {
		return nil, common.NotFoundf("specified logbook '%s' does not exist", name)
	}
	if err := m.store.ApplyLogbookAssociations(ctx, name, entryIDs(data.Entries)); err != nil {
		return nil, storeErr(err, "attaching logbook to log entries")
	}
	return l, nil
}

// AddSingleLogbook attaches exactly one logbook to exactly one entry.
func (m *Manager) AddSingleLogbook(ctx context.Context, name string, entryID int64) error {
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, entryID); err != nil {
		return err
	}
	return storeErr(m.store.AddAssociation(ctx, name, entryID), "attaching logbook to log entry")
}

// RemoveLogbook deletes the logbook from all entries, ignoring absence.
func (m *Manager) RemoveLogbook(ctx context.Context, name string) error {
	if err := m.authz.checkGroupOwnershipByName(ctx, m.user(ctx), name); err != nil {
		return err
	}
	return storeErr(m.store.DeleteLogbook(ctx, name, false), "deleting logbook")
}

// RemoveExistingLogbook deletes the logbook, failing loudly when absent.
func (m *Manager) RemoveExistingLogbook(ctx context.Context, name string) error {
	if err := m.authz.checkGroupOwnershipByName(ctx, m.user(ctx), name); err != nil {
		return err
	}
	return storeErr(m.store.DeleteLogbook(ctx, name, true), "deleting logbook")
}

// RemoveSingleLogbook detaches one logbook from one entry.
func (m *Manager) RemoveSingleLogbook(ctx context.Context, name string, entryID int64) error {
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, entryID); err != nil {
		return err
	}
	return storeErr(m.store.DetachAssociation(ctx, name, entryID), "detaching logbook from log entry")
}

// ---- tags ----

func (m *Manager) ListTags(ctx context.Context) ([]*models.Tag, error) {
	ts, err := m.store.ListTags(ctx)
	return ts, storeErr(err, "listing tags")
}

// FindTagByName returns the tag with its entry back-references attached, or
// nil when absent.
func (m *Manager) FindTagByName(ctx context.Context, name string) (*models.Tag, error) {
	t, err := m.store.FindTag(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding tag")
	}
	if t == nil {
		return nil, nil
	}
	entries, err := m.store.FindEntriesByLogbookName(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding tag entries")
	}
	t.Entries = entries
	return t, nil
}

// CreateOrReplaceTag deletes any named group of that name, creates the tag
// fresh and attaches it exclusively to the entries listed in the payload.
func (m *Manager) CreateOrReplaceTag(ctx context.Context, name string, data *models.Tag) (*models.Tag, error) {
	if err := validateTag(data); err != nil {
		return nil, err
	}
	if err := checkTagNameMatches(name, data); err != nil {
		return nil, err
	}
	if err := validateAssociatedEntryIDs(data.Entries); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return nil, err
	}
	if err := m.replaceTag(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (m *Manager) replaceTag(ctx context.Context, data *models.Tag) error {
	// Tag deletion goes through the shared named-group delete path.
	if err := m.store.DeleteLogbook(ctx, data.Name, false); err != nil {
		return storeErr(err, "replacing tag")
	}
	if err := m.store.CreateTag(ctx, data.Name); err != nil {
		return storeErr(err, "creating tag")
	}
	if err := m.store.ApplyTagAssociations(ctx, data.Name, entryIDs(data.Entries)); err != nil {
		return storeErr(err, "attaching tag to log entries")
	}
	return nil
}

// CreateOrReplaceTags replaces every tag in the batch; partial completion on
// failure is observable.
func (m *Manager) CreateOrReplaceTags(ctx context.Context, data []*models.Tag) error {
	if err := validateTags(data); err != nil {
		return err
	}
	for _, t := range data {
		if err := validateAssociatedEntryIDs(t.Entries); err != nil {
			return err
		}
	}
	user := m.user(ctx)
	if err := m.authz.checkTagsOwnership(ctx, user, data); err != nil {
		return err
	}
	for _, t := range data {
		if err := m.replaceTag(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTag attaches the existing tag to the entries listed in the payload.
func (m *Manager) UpdateTag(ctx context.Context, name string, data *models.Tag) (*models.Tag, error) {
	if data == nil {
		return nil, common.BadRequestf("missing tag payload")
	}
	if err := checkTagNameMatches(name, data); err != nil {
		return nil, err
	}
	if err := validateAssociatedEntryIDs(data.Entries); err != nil {
		return nil, err
	}
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return nil, err
	}
	t, err := m.store.FindTag(ctx, name)
	if err != nil {
		return nil, storeErr(err, "finding tag")
	}
	if t == nil {
		return nil, common.NotFoundf("specified tag '%s' does not exist", name)
	}
	if err := m.store.ApplyTagAssociations(ctx, name, entryIDs(data.Entries)); err != nil {
		return nil, storeErr(err, "attaching tag to log entries")
	}
	return t, nil
}

// AddSingleTag attaches exactly one tag to exactly one entry.
func (m *Manager) AddSingleTag(ctx context.Context, name string, entryID int64) error {
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, entryID); err != nil {
		return err
	}
	return storeErr(m.store.AddAssociation(ctx, name, entryID), "attaching tag to log entry")
}

// RemoveTag deletes the tag from all entries, ignoring absence.
func (m *Manager) RemoveTag(ctx context.Context, name string) error {
	if err := m.authz.checkGroupOwnershipByName(ctx, m.user(ctx), name); err != nil {
		return err
	}
	return storeErr(m.store.DeleteLogbook(ctx, name, false), "deleting tag")
}

// RemoveExistingTag deletes the tag, failing loudly when absent.
func (m *Manager) RemoveExistingTag(ctx context.Context, name string) error {
	if err := m.authz.checkGroupOwnershipByName(ctx, m.user(ctx), name); err != nil {
		return err
	}
	return storeErr(m.store.DeleteLogbook(ctx, name, true), "deleting tag")
}

// RemoveSingleTag detaches one tag from one entry.
func (m *Manager) RemoveSingleTag(ctx context.Context, name string, entryID int64) error {
	user := m.user(ctx)
	if err := m.authz.checkGroupOwnershipByName(ctx, user, name); err != nil {
		return err
	}
	if err := m.authz.checkEntryOwnershipByID(ctx, user, entryID); err != nil {
		return err
	}
	return storeErr(m.store.DetachAssociation(ctx, name, entryID), "detaching tag from log entry")
}

func entryIDs(data []*models.Entry) []int64 {
	ids := make([]int64, 0, len(data))
	for _, e := range data {
		ids = append(ids, e.ID)
	}
	return ids
}
