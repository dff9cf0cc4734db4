// Package store persists accounts in SQLite.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/tunecast/tunecast/internal/domain/account"
	"github.com/tunecast/tunecast/internal/domain/track"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// Store errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUsernameTaken   = errors.New("username already taken")
)

// Store provides account persistence on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	ctx := context.Background()

	// WAL for concurrent reads, busy timeout to avoid "database is locked"
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "failed to apply %q", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		email              TEXT    NOT NULL UNIQUE,
		username           TEXT    NOT NULL UNIQUE CHECK(length(username) > 0 AND length(username) <= 32),
		password_hash      TEXT    NOT NULL,
		default_offset_sec INTEGER NOT NULL DEFAULT 45 CHECK(default_offset_sec >= 0),
		preferred_service  TEXT    NOT NULL DEFAULT '',
		created_at         TEXT    NOT NULL DEFAULT (datetime('now'))
	);
	`

	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	currentVersion, err := s.getSchemaVersion(ctx)
	if err != nil {
		return err
	}

	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version:    1,
			statements: []string{schema},
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "migration %d failed", m.version)
			}
		}
		if err := s.setSchemaVersion(ctx, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return errors.Wrap(err, "failed to create schema_migrations")
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return errors.Wrap(err, "failed to check schema_migrations")
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return errors.Wrap(err, "failed to init schema_migrations")
		}
	}
	return nil
}

func (s *Store) getSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, errors.Wrap(err, "failed to read schema version")
	}
	return version, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, version int) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", version); err != nil {
		return errors.Wrap(err, "failed to update schema version")
	}
	return nil
}

// CreateAccount inserts a new account and returns it with the assigned ID.
// The email and username uniqueness rules are enforced by the database.
func (s *Store) CreateAccount(ctx context.Context, email, username, passwordHash string, defaultOffsetSec int) (*account.Account, error) {
	if err := account.ValidateUsername(username); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts (email, username, password_hash, default_offset_sec) VALUES (?, ?, ?, ?)",
		email, username, passwordHash, defaultOffsetSec)
	if err != nil {
		switch {
		case isUniqueViolation(err, "accounts.email"):
			return nil, ErrEmailTaken
		case isUniqueViolation(err, "accounts.username"):
			return nil, ErrUsernameTaken
		default:
			return nil, errors.Wrap(err, "failed to create account")
		}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read inserted account id")
	}
	return &account.Account{
		ID:               id,
		Email:            email,
		Username:         username,
		PasswordHash:     passwordHash,
		DefaultOffsetSec: defaultOffsetSec,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

const selectAccount = "SELECT id, email, username, password_hash, default_offset_sec, preferred_service, created_at FROM accounts"

// AccountByEmail retrieves an account by email.
func (s *Store) AccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.queryAccount(ctx, selectAccount+" WHERE email = ?", email)
}

// AccountByUsername retrieves an account by username.
func (s *Store) AccountByUsername(ctx context.Context, username string) (*account.Account, error) {
	return s.queryAccount(ctx, selectAccount+" WHERE username = ?", username)
}

// AccountByID retrieves an account by ID.
func (s *Store) AccountByID(ctx context.Context, id int64) (*account.Account, error) {
	return s.queryAccount(ctx, selectAccount+" WHERE id = ?", id)
}

// UsernameExists reports whether an account with the given username exists.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE username = ?", username).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check username")
	}
	return count > 0, nil
}

// UpdateDefaultOffset updates the playback offset stamped on play commands.
// Bounds checking is the caller's responsibility.
func (s *Store) UpdateDefaultOffset(ctx context.Context, id int64, seconds int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET default_offset_sec = ? WHERE id = ?", seconds, id)
	if err != nil {
		return errors.Wrap(err, "failed to update default offset")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdatePreferredService persists the spectator-side catalog preference.
func (s *Store) UpdatePreferredService(ctx context.Context, username string, service track.Service) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET preferred_service = ? WHERE username = ?", service.String(), username)
	if err != nil {
		return errors.Wrap(err, "failed to update preferred service")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Store) queryAccount(ctx context.Context, query string, arg any) (*account.Account, error) {
	a := &account.Account{}
	var preferredService string
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.DefaultOffsetSec, &preferredService, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query account")
	}
	a.PreferredService = track.ParseService(preferredService)
	parsed, err := time.ParseInLocation(dbTimeLayout, createdAt, time.UTC)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse account created_at")
	}
	a.CreatedAt = parsed
	return a, nil
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
