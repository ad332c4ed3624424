package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"examhub/internal/db"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

const userColumns = `id, email, password_hash, role, full_name, is_active, email_verified, created_at, last_login_at`

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName,
		&u.Active, &u.EmailVerified, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(s.db.QueryRowContext(ctx, q, NormalizeEmail(email)))
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, q, id))
}

// Create inserts a new user. A duplicate email, whether caught here or by
// the unique index under a concurrent registration, yields ErrEmailTaken.
func (s *Store) Create(ctx context.Context, email, passwordHash string, role Role, fullName string, verified bool) (*User, error) {
	const q = `
		INSERT INTO users (email, password_hash, role, full_name, is_active, email_verified, created_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, q,
		NormalizeEmail(email), passwordHash, role, fullName, verified, time.Now().UTC())
	u, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64) error {
	const q = `UPDATE users SET last_login_at = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	return err
}

func (s *Store) MarkVerified(ctx context.Context, id int64) error {
	const q = `UPDATE users SET email_verified = 1 WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE users SET is_active = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, q, active, id)
	return err
}

type usersFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     Role   `yaml:"role"`
		FullName string `yaml:"full_name"`
	} `yaml:"users"`
}

// SeedFromFile bootstraps accounts from a yaml file at startup. Seeded users
// are created active and verified; existing emails are left untouched. This
// is the only path that may create admin accounts.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Email == "" || u.Password == "" || !u.Role.Valid() {
			continue
		}
		if _, err := s.GetByEmail(ctx, u.Email); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		hash, err := HashPassword(u.Password)
		if err != nil {
			return err
		}
		if _, err := s.Create(ctx, u.Email, hash, u.Role, u.FullName, true); err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return nil
}
