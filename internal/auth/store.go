package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	ErrUsernameTaken      = errors.New("auth: username already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidUsername    = errors.New("auth: invalid username")
	ErrInvalidPassword    = errors.New("auth: invalid password")
)

const (
	minUsernameLen = 1
	maxUsernameLen = 20
)

// Account is a registered identity: the name shown in the room and the avatar
// chosen at registration time.
type Account struct {
	Username    string
	AvatarID    string
	CreatedAt   time.Time
	LastLogin   time.Time
	TotalLogins int
}

// Store persists accounts in SQLite. Presence state never touches it; only
// registration and login metadata live here.
type Store struct {
	db *sql.DB
}

// Open creates or opens the accounts database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("auth: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("auth: %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	avatar_id     TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	last_login    TEXT,
	total_logins  INTEGER NOT NULL DEFAULT 0
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("auth: init schema: %w", err)
	}
	return nil
}

// Register creates an account. Usernames are capped at 20 characters and
// passwords must be alphanumeric, matching the signup form validation.
func (s *Store) Register(ctx context.Context, username, password, avatarID string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return ErrInvalidUsername
	}
	if !isAlphanumeric(password) {
		return ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash, avatar_id, created_at) VALUES (?, ?, ?, ?)`,
		username, string(hashed), avatarID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("auth: insert account: %w", err)
	}
	return nil
}

// Authenticate verifies credentials and records the login.
func (s *Store) Authenticate(ctx context.Context, username, password string) (Account, error) {
	var (
		account   Account
		hash      string
		createdAt string
		lastLogin sql.NullString
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, avatar_id, created_at, last_login, total_logins FROM accounts WHERE username = ?`,
		username)
	if err := row.Scan(&account.Username, &hash, &account.AvatarID, &createdAt, &lastLogin, &account.TotalLogins); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, fmt.Errorf("auth: query account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}

	account.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastLogin.Valid {
		account.LastLogin, _ = time.Parse(time.RFC3339, lastLogin.String)
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET last_login = ?, total_logins = total_logins + 1 WHERE username = ?`,
		now.Format(time.RFC3339), username); err != nil {
		return Account{}, fmt.Errorf("auth: record login: %w", err)
	}
	account.LastLogin = now
	account.TotalLogins++
	return account, nil
}

// Exists reports whether a username is already registered.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE username = ?`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: query account: %w", err)
	}
	return true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite reports constraint failures in the error text.
	return strings.Contains(err.Error(), "constraint failed")
}
