package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout matches the strftime default used by the schema, so stored
// timestamps compare lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z"

var accountColumns = []string{
	"id", "external_id", "given_name", "family_name", "handle", "password_hash", "created_at",
}

// SQLiteStore implements Store on top of a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer keeps SQLite away from SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, in NewAccount) (Account, error) {
	handle := NormalizeHandle(in.Handle)
	acc := Account{
		ExternalID:   in.ExternalID,
		GivenName:    strings.TrimSpace(in.GivenName),
		FamilyName:   strings.TrimSpace(in.FamilyName),
		Handle:       handle,
		PasswordHash: in.PasswordHash,
	}
	if handle == "" {
		return Account{}, fmt.Errorf("create account: empty handle")
	}

	err := withTx(ctx, s.db, func(tx dbtx) error {
		query, args, err := sq.Select("COUNT(*)").From("accounts").Where(sq.Eq{"handle": handle}).ToSql()
		if err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrHandleTaken
		}

		query, args, err = sq.Insert("accounts").
			Columns("external_id", "given_name", "family_name", "given_name_lower", "family_name_lower", "handle", "password_hash").
			Values(acc.ExternalID, acc.GivenName, acc.FamilyName,
				strings.ToLower(acc.GivenName), strings.ToLower(acc.FamilyName), acc.Handle, acc.PasswordHash).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return err
		}
		var created string
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&acc.ID, &created); err != nil {
			return mapConstraint(err)
		}
		acc.CreatedAt, err = parseTime(created)
		return err
	})
	if err != nil {
		return Account{}, fmt.Errorf("create account %q: %w", handle, err)
	}
	return acc, nil
}

func (s *SQLiteStore) AccountByHandle(ctx context.Context, handle string) (Account, error) {
	return s.accountWhere(ctx, sq.Eq{"handle": NormalizeHandle(handle)})
}

func (s *SQLiteStore) AccountByID(ctx context.Context, id int64) (Account, error) {
	return s.accountWhere(ctx, sq.Eq{"id": id})
}

func (s *SQLiteStore) accountWhere(ctx context.Context, pred sq.Sqlizer) (Account, error) {
	query, args, err := sq.Select(accountColumns...).From("accounts").Where(pred).Limit(1).ToSql()
	if err != nil {
		return Account{}, err
	}
	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	return acc, nil
}

func (s *SQLiteStore) CreateEntry(ctx context.Context, accountID int64, text string) (Entry, error) {
	if strings.TrimSpace(text) == "" {
		return Entry{}, ErrEmptyEntry
	}
	query, args, err := sq.Insert("entries").
		Columns("account_id", "text").
		Values(accountID, text).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return Entry{}, err
	}
	e := Entry{AccountID: accountID, Text: text}
	var created string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&e.ID, &created); err != nil {
		if isConstraint(err, sqlite3.CONSTRAINT_FOREIGNKEY) {
			return Entry{}, fmt.Errorf("create entry for account %d: %w", accountID, ErrNotFound)
		}
		return Entry{}, fmt.Errorf("create entry for account %d: %w", accountID, err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *SQLiteStore) ListEntries(ctx context.Context, accountID int64) ([]Entry, error) {
	query, args, err := sq.Select("id", "account_id", "text", "created_at").
		From("entries").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Text, &created); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SearchAccounts(ctx context.Context, q string, limit int) ([]Account, error) {
	like := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
	query, args, err := sq.Select(accountColumns...).
		From("accounts").
		Where(sq.Or{
			sq.Expr(`given_name_lower LIKE ? ESCAPE '\'`, like),
			sq.Expr(`family_name_lower LIKE ? ESCAPE '\'`, like),
			sq.Expr(`handle LIKE ? ESCAPE '\'`, like),
		}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx dbtx) error {
		query, args, err := sq.Delete("entries").Where(sq.Eq{"account_id": id}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete entries of %d: %w", id, err)
		}
		query, args, err = sq.Delete("accounts").Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("delete account %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (s *SQLiteStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&st.TotalAccounts); err != nil {
		return Stats{}, fmt.Errorf("count accounts: %w", err)
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(created_at) FROM entries`).Scan(&st.TotalEntries, &last); err != nil {
		return Stats{}, fmt.Errorf("count entries: %w", err)
	}
	if last.Valid {
		t, err := parseTime(last.String)
		if err != nil {
			return Stats{}, err
		}
		st.LastEntryAt = &t
	}
	if st.TotalAccounts > 0 {
		st.AvgEntriesPerAccount = float64(st.TotalEntries) / float64(st.TotalAccounts)
	}

	query, args, err := sq.Select("COUNT(*)", "COUNT(DISTINCT account_id)").
		From("entries").
		Where(sq.GtOrEq{"created_at": dayStart.Format(timeLayout)}).
		Where(sq.Lt{"created_at": dayEnd.Format(timeLayout)}).
		ToSql()
	if err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&st.TodayEntries, &st.TodayActiveAccounts); err != nil {
		return Stats{}, fmt.Errorf("count today entries: %w", err)
	}

	query, args, err = sq.Select(accountColumns...).From("accounts").OrderBy("id DESC").Limit(1).ToSql()
	if err != nil {
		return Stats{}, err
	}
	newest, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case err == nil:
		st.NewestAccount = &newest
	case !errors.Is(err, sql.ErrNoRows):
		return Stats{}, fmt.Errorf("newest account: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.external_id, a.given_name, a.family_name, a.handle, a.password_hash, a.created_at,
		       COUNT(e.id) AS entry_count
		FROM accounts a
		LEFT JOIN entries e ON e.account_id = a.id
		GROUP BY a.id
		ORDER BY entry_count DESC, a.id ASC
		LIMIT 1`)
	var top Account
	var created string
	err = row.Scan(&top.ID, &top.ExternalID, &top.GivenName, &top.FamilyName, &top.Handle, &top.PasswordHash, &created, &st.TopWriterEntries)
	switch {
	case err == nil:
		if top.CreatedAt, err = parseTime(created); err != nil {
			return Stats{}, err
		}
		st.TopWriter = &top
	case !errors.Is(err, sql.ErrNoRows):
		return Stats{}, fmt.Errorf("top writer: %w", err)
	}

	return st, nil
}

// NormalizeHandle trims and lowercases a user supplied handle.
func NormalizeHandle(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (Account, error) {
	var acc Account
	var created string
	if err := r.Scan(&acc.ID, &acc.ExternalID, &acc.GivenName, &acc.FamilyName, &acc.Handle, &acc.PasswordHash, &created); err != nil {
		return Account{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return Account{}, err
	}
	acc.CreatedAt = t
	return acc, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func mapConstraint(err error) error {
	if isConstraint(err, sqlite3.CONSTRAINT_UNIQUE) {
		return ErrHandleTaken
	}
	return err
}

func isConstraint(err error, code sqlite3.ExtendedErrorCode) bool {
	var serr *sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode() == code
}
