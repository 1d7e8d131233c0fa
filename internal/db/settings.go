package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keveinliu/inkwell/internal/models"
)

// ListSettings returns every setting row ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, type, description, created_at, updated_at
		FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var out []models.Setting
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Type, &st.Description,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var st models.Setting
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, type, description, created_at, updated_at
		FROM settings WHERE key = ?`, key).
		Scan(&st.Key, &st.Value, &st.Type, &st.Description, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	return &st, nil
}

// UpdateSetting rewrites value and, when non-nil, description for an
// existing key. Returns false when the key does not exist; settings are
// fixed-key configuration rows, not a free-form store.
func (s *Store) UpdateSetting(ctx context.Context, key, value string, description *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE settings SET value = ?, description = COALESCE(?, description), updated_at = ?
		WHERE key = ?`,
		value, description, Now(), key)
	if err != nil {
		return false, fmt.Errorf("update setting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update setting result: %w", err)
	}
	return n > 0, nil
}

// SettingUpdate is one entry of a batch update.
type SettingUpdate struct {
	Key         string
	Value       any
	Description *string
}

// BatchUpdateSettings applies every update inside one transaction.
// Unknown keys are skipped, matching the original batch endpoint; a
// value that cannot be encoded for its declared type aborts the whole
// batch.
func (s *Store) BatchUpdateSettings(ctx context.Context, updates []SettingUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings batch: %w", err)
	}
	defer tx.Rollback()

	now := Now()
	for _, u := range updates {
		var typ string
		err := tx.QueryRowContext(ctx,
			`SELECT type FROM settings WHERE key = ?`, u.Key).Scan(&typ)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read setting type: %w", err)
		}
		encoded, err := models.EncodeSettingValue(typ, u.Value)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE settings SET value = ?, description = COALESCE(?, description), updated_at = ?
			WHERE key = ?`,
			encoded, u.Description, now, u.Key); err != nil {
			return fmt.Errorf("batch update setting: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings batch: %w", err)
	}
	return nil
}
