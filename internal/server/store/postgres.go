package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/dbx"
	"github.com/dmitrijs2005/ologd/internal/server/migrations"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

// PostgresStore implements Store over database/sql with the pgx driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the database, waits for it to become reachable and
// runs the embedded goose migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewConstant(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Conn() *sql.DB {
	return s.db
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) FindEntryByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT id, owner, subject, description, level, created_at FROM entries WHERE id=$1`

	e := &models.Entry{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Owner, &e.Subject, &e.Description, &e.Level, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := s.loadAssociations(ctx, e); err != nil {
		return nil, err
	}
	if err := s.loadAttachments(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// loadAssociations attaches the entry's logbook and tag sets in membership
// order.
func (s *PostgresStore) loadAssociations(ctx context.Context, e *models.Entry) error {
	query := `
		SELECT l.name, l.owner, l.is_tag FROM logbooks l
		JOIN entry_logbooks el ON el.logbook_id = l.id
		WHERE el.entry_id = $1
		ORDER BY el.pos
	`
	rows, err := s.db.QueryContext(ctx, query, e.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, owner string
		var isTag bool
		if err := rows.Scan(&name, &owner, &isTag); err != nil {
			return err
		}
		if isTag {
			e.Tags = append(e.Tags, &models.Tag{Name: name})
		} else {
			e.Logbooks = append(e.Logbooks, &models.Logbook{Name: name, Owner: owner})
		}
	}
	return rows.Err()
}

func (s *PostgresStore) loadAttachments(ctx context.Context, e *models.Entry) error {
	query := `SELECT id, filename, storage_key, uploaded, created_at FROM attachments WHERE entry_id=$1 ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, e.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a := &models.Attachment{EntryID: e.ID}
		if err := rows.Scan(&a.ID, &a.Filename, &a.StorageKey, &a.Uploaded, &a.CreatedAt); err != nil {
			return err
		}
		e.Attachments = append(e.Attachments, a)
	}
	return rows.Err()
}

func (s *PostgresStore) FindEntriesByLogbookName(ctx context.Context, name string) ([]*models.Entry, error) {
	query := `
		SELECT e.id, e.owner, e.subject, e.description, e.level, e.created_at FROM entries e
		JOIN entry_logbooks el ON el.entry_id = e.id
		JOIN logbooks l ON l.id = el.logbook_id
		WHERE l.name = $1
		ORDER BY e.id
	`
	return s.selectEntries(ctx, query, name)
}

func (s *PostgresStore) selectEntries(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e := &models.Entry{}
		if err := rows.Scan(&e.ID, &e.Owner, &e.Subject, &e.Description, &e.Level, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, e := range result {
		if err := s.loadAssociations(ctx, e); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// likePattern translates '*'/'?' wildcards into a LIKE pattern, escaping the
// LIKE metacharacters of the input.
func likePattern(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	escaped := r.Replace(pattern)
	escaped = strings.ReplaceAll(escaped, "*", "%")
	escaped = strings.ReplaceAll(escaped, "?", "_")
	return escaped
}

func (s *PostgresStore) FindEntriesByMultiMatch(ctx context.Context, matches MultiMatch) ([]*models.Entry, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	column := map[string]string{
		"subject":     "e.subject",
		"description": "e.description",
		"level":       "e.level",
		"owner":       "e.owner",
		"id":          "e.id::text",
	}

	for field, patterns := range matches {
		if len(patterns) == 0 {
			continue
		}
		var alts []string
		switch field {
		case "logbook", "tag":
			for _, p := range patterns {
				alts = append(alts, fmt.Sprintf("l.name LIKE %s", arg(likePattern(p))))
			}
			conds = append(conds, fmt.Sprintf(
				`EXISTS (SELECT 1 FROM entry_logbooks el JOIN logbooks l ON l.id = el.logbook_id
					WHERE el.entry_id = e.id AND l.is_tag = %s AND (%s))`,
				arg(field == "tag"), strings.Join(alts, " OR ")))
		default:
			col, ok := column[field]
			if !ok {
				return nil, common.BadRequestf("unsupported search field '%s'", field)
			}
			for _, p := range patterns {
				alts = append(alts, fmt.Sprintf("%s LIKE %s", col, arg(likePattern(p))))
			}
			conds = append(conds, "("+strings.Join(alts, " OR ")+")")
		}
	}

	query := `SELECT e.id, e.owner, e.subject, e.description, e.level, e.created_at FROM entries e`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.id"

	return s.selectEntries(ctx, query, args...)
}

func (s *PostgresStore) CreateEntry(ctx context.Context, entry *models.Entry) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}

		if entry.ID == 0 {
			query := `INSERT INTO entries (owner, subject, description, level, created_at)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`
			err := tx.QueryRowContext(ctx, query,
				entry.Owner, entry.Subject, entry.Description, entry.Level, entry.CreatedAt).Scan(&entry.ID)
			if err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		} else {
			query := `INSERT INTO entries (id, owner, subject, description, level, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`
			if _, err := tx.ExecContext(ctx, query,
				entry.ID, entry.Owner, entry.Subject, entry.Description, entry.Level, entry.CreatedAt); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}

		for _, l := range entry.Logbooks {
			if err := attachGroup(ctx, tx, entry.ID, l.Name, l.Owner, false); err != nil {
				return err
			}
		}
		for _, t := range entry.Tags {
			if err := attachGroup(ctx, tx, entry.ID, t.Name, "", true); err != nil {
				return err
			}
		}

		// Attachment rows cascade away with the entry row; a delete plus
		// recreate must carry them back in.
		attach := `INSERT INTO attachments (id, entry_id, filename, storage_key, uploaded, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`
		for _, a := range entry.Attachments {
			if _, err := tx.ExecContext(ctx, attach,
				a.ID, entry.ID, a.Filename, a.StorageKey, a.Uploaded, a.CreatedAt); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

// attachGroup creates the named group on demand and appends the membership
// at the end of the entry's association order.
func attachGroup(ctx context.Context, tx dbx.DBTX, entryID int64, name, owner string, isTag bool) error {
	upsert := `INSERT INTO logbooks (name, owner, is_tag) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`
	if _, err := tx.ExecContext(ctx, upsert, name, owner, isTag); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	member := `
		INSERT INTO entry_logbooks (entry_id, logbook_id, pos)
		SELECT $1, l.id, COALESCE((SELECT MAX(pos) + 1 FROM entry_logbooks WHERE entry_id = $1), 0)
		FROM logbooks l WHERE l.name = $2
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, member, entryID, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, id int64, failIfAbsent bool) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 && failIfAbsent {
		return common.NotFoundf("log entry '%d' does not exist", id)
	}
	return nil
}

func (s *PostgresStore) ListLogbooks(ctx context.Context) ([]*models.Logbook, error) {
	query := `SELECT name, owner FROM logbooks WHERE NOT is_tag ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Logbook
	for rows.Next() {
		l := &models.Logbook{}
		if err := rows.Scan(&l.Name, &l.Owner); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// FindLogbook resolves any named group, tags included; this is the lookup tag
// ownership checks route through.
func (s *PostgresStore) FindLogbook(ctx context.Context, name string) (*models.Logbook, error) {
	query := `SELECT name, owner FROM logbooks WHERE name=$1`

	l := &models.Logbook{}
	err := s.db.QueryRowContext(ctx, query, name).Scan(&l.Name, &l.Owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) CreateLogbook(ctx context.Context, name, owner string) error {
	query := `INSERT INTO logbooks (name, owner, is_tag) VALUES ($1, $2, FALSE)`
	if _, err := s.db.ExecContext(ctx, query, name, owner); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteLogbook(ctx context.Context, name string, failIfAbsent bool) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM logbooks WHERE name=$1`, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 && failIfAbsent {
		return common.NotFoundf("named group '%s' does not exist", name)
	}
	return nil
}

func (s *PostgresStore) ApplyLogbookAssociations(ctx context.Context, name string, entryIDs []int64) error {
	return s.applyAssociations(ctx, name, entryIDs, false)
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]*models.Tag, error) {
	query := `SELECT name FROM logbooks WHERE is_tag ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *PostgresStore) FindTag(ctx context.Context, name string) (*models.Tag, error) {
	query := `SELECT name FROM logbooks WHERE name=$1 AND is_tag`

	t := &models.Tag{}
	err := s.db.QueryRowContext(ctx, query, name).Scan(&t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) CreateTag(ctx context.Context, name string) error {
	query := `INSERT INTO logbooks (name, owner, is_tag) VALUES ($1, '', TRUE)`
	if _, err := s.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplyTagAssociations(ctx context.Context, name string, entryIDs []int64) error {
	return s.applyAssociations(ctx, name, entryIDs, true)
}

func (s *PostgresStore) applyAssociations(ctx context.Context, name string, entryIDs []int64, isTag bool) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var groupID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM logbooks WHERE name=$1 AND is_tag=$2`, name, isTag).Scan(&groupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("named group '%s' does not exist", name)
			}
			return fmt.Errorf("db error: %w", err)
		}

		member := `
			INSERT INTO entry_logbooks (entry_id, logbook_id, pos)
			VALUES ($1, $2, COALESCE((SELECT MAX(pos) + 1 FROM entry_logbooks WHERE entry_id = $1), 0))
			ON CONFLICT DO NOTHING
		`
		for _, id := range entryIDs {
			if _, err := tx.ExecContext(ctx, member, id, groupID); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) AddAssociation(ctx context.Context, name string, entryID int64) error {
	query := `
		INSERT INTO entry_logbooks (entry_id, logbook_id, pos)
		SELECT $1, l.id, COALESCE((SELECT MAX(pos) + 1 FROM entry_logbooks WHERE entry_id = $1), 0)
		FROM logbooks l WHERE l.name = $2
		ON CONFLICT DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, entryID, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	return nil
}

func (s *PostgresStore) DetachAssociation(ctx context.Context, name string, entryID int64) error {
	query := `
		DELETE FROM entry_logbooks el USING logbooks l
		WHERE el.logbook_id = l.id AND l.name = $1 AND el.entry_id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, name, entryID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
