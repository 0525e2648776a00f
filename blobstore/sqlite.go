package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	busyMaxRetries      = 5
	busyInitialInterval = 25 * time.Millisecond
	busyMaxInterval     = 500 * time.Millisecond
)

// SQLiteStore keeps objects as rows of the objects table. The schema is
// created by migrations.RunMigrations.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore creates a store over an already migrated database.
func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Object, error) {
	query := sq.Select("id", "name", "parent").
		From("objects").
		Where(sq.Eq{"parent": q.Parent}).
		OrderBy("name")
	if q.Name != "" {
		query = query.Where(sq.Eq{"name": q.Name})
	}
	if q.Prefix != "" {
		// substr avoids LIKE wildcard escaping for names containing '_' or '%'.
		query = query.Where(sq.Expr("substr(name, 1, ?) = ?", utf8.RuneCountInString(q.Prefix), q.Prefix))
	}
	if q.Contains != "" {
		query = query.Where(sq.Expr("instr(name, ?) > 0", q.Contains))
	}

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, Unavailable("list", q.Parent, err)
	}

	var out []Object
	err = s.withBusyRetry(ctx, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, queryStr, args...)
		if err != nil {
			return err
		}
		defer rows.Close() //nolint:errcheck // rows.Err is checked below

		for rows.Next() {
			var obj Object
			if err := rows.Scan(&obj.ID, &obj.Name, &obj.Parent); err != nil {
				return err
			}
			out = append(out, obj)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, Unavailable("list", q.Parent, err)
	}
	if out == nil {
		out = []Object{}
	}
	return out, nil
}

// Create implements Store.Create.
func (s *SQLiteStore) Create(ctx context.Context, name, parent string, data []byte) (string, error) {
	if data == nil {
		data = []byte{}
	}
	id := ulid.Make().String()
	now := time.Now().Unix()
	queryStr, args, err := sq.Insert("objects").
		Columns("id", "parent", "name", "body", "created_at", "updated_at").
		Values(id, parent, name, data, now, now).
		ToSql()
	if err != nil {
		return "", Unavailable("create", name, err)
	}

	err = s.withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, queryStr, args...)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", Exists("create", name)
		}
		return "", Unavailable("create", name, err)
	}
	s.logger.Debug().Str("name", name).Str("parent", parent).Int("bytes", len(data)).Msg("Object created")
	return id, nil
}

// ReadFull implements Store.ReadFull.
func (s *SQLiteStore) ReadFull(ctx context.Context, id string) ([]byte, error) {
	queryStr, args, err := sq.Select("body").From("objects").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, Unavailable("read", id, err)
	}

	var body []byte
	err = s.withBusyRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, queryStr, args...).Scan(&body)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("read", id)
	}
	if err != nil {
		return nil, Unavailable("read", id, err)
	}
	return body, nil
}

// UpdateFull implements Store.UpdateFull.
func (s *SQLiteStore) UpdateFull(ctx context.Context, id string, data []byte) error {
	// A nil slice binds as NULL, which body rejects.
	if data == nil {
		data = []byte{}
	}
	queryStr, args, err := sq.Update("objects").
		Set("body", data).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Unavailable("update", id, err)
	}

	var affected int64
	err = s.withBusyRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, queryStr, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return Unavailable("update", id, err)
	}
	if affected == 0 {
		return NotFound("update", id)
	}
	return nil
}

// withBusyRetry retries op while sqlite reports the database as busy or
// locked by another connection. Every other error is returned immediately.
func (s *SQLiteStore) withBusyRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = busyInitialInterval
	eb.MaxInterval = busyMaxInterval
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, busyMaxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isBusyError(err) {
			s.logger.Debug().Err(err).Msg("Database busy, retrying")
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

func isBusyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// isUniqueViolation reports a duplicate (parent, name). Other constraint
// failures are not name clashes.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var _ Store = (*SQLiteStore)(nil)
