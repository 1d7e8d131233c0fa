package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keveinliu/inkwell/internal/models"
)

const userColumns = `id, username, email, password_hash, display_name, avatar_url,
	role, is_active, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.AvatarURL,
		&u.Role,
		&u.IsActive,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	now := Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, display_name, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.DisplayName, user.Role, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user id: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID returns the user row, or nil when absent.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetActiveUserByID returns the user only when it exists and is active.
func (s *Store) GetActiveUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND is_active = 1`, id)
	return scanUser(row)
}

// GetActiveUserByUsername backs login: inactive and unknown usernames
// are both a nil result, so callers cannot tell them apart.
func (s *Store) GetActiveUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND is_active = 1`, username)
	return scanUser(row)
}

// UsernameExists reports whether any user, active or not, holds the name.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// CountAdmins returns how many admin users exist.
func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, models.RoleAdmin).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// UserStats backs the first-run probe. Two independent counts; no
// cross-row atomicity beyond what SQLite gives each query.
func (s *Store) UserStats(ctx context.Context) (models.UserStats, error) {
	var stats models.UserStats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&stats.UserCount); err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	admins, err := s.CountAdmins(ctx)
	if err != nil {
		return stats, err
	}
	stats.AdminCount = admins
	stats.HasUsers = stats.UserCount > 0
	stats.HasAdmin = stats.AdminCount > 0
	return stats, nil
}

// TouchLastLogin stamps last_login_at for the user.
func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, Now(), id); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
