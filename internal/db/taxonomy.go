package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keveinliu/inkwell/internal/models"
)

// CategoryWithCount is a category row plus how many articles use it.
type CategoryWithCount struct {
	models.Category
	ArticleCount int `json:"article_count"`
}

// TagWithCount is a tag row plus how many articles carry it.
type TagWithCount struct {
	models.Tag
	ArticleCount int `json:"article_count"`
}

// ListCategories returns all categories ordered by sort_order then name.
func (s *Store) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.color, c.sort_order, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM articles a WHERE a.category_id = c.id) AS article_count
		FROM categories c
		ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []CategoryWithCount{}
	for rows.Next() {
		var c CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.SortOrder,
			&c.CreatedAt, &c.UpdatedAt, &c.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, color, sort_order, created_at, updated_at
		FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CategoryNameExists checks uniqueness, optionally excluding one id
// (for updates).
func (s *Store) CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE name = ? AND id != ?`, name, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	now := Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, description, color, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.Color, c.SortOrder, now, now)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create category id: %w", err)
	}
	return s.GetCategory(ctx, id)
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, c models.Category) (*models.Category, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ?, color = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Description, c.Color, c.SortOrder, Now(), id)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory removes the category; articles keep existing with
// category_id nulled by the FK.
func (s *Store) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category result: %w", err)
	}
	return n > 0, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]TagWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.color, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM article_tags at WHERE at.tag_id = t.id) AS article_count
		FROM tags t
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := []TagWithCount{}
	for rows.Next() {
		var t TagWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Color,
			&t.CreatedAt, &t.UpdatedAt, &t.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, color, created_at, updated_at
		FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

func (s *Store) TagNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE name = ? AND id != ?`, name, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("check tag name: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CreateTag(ctx context.Context, t models.Tag) (*models.Tag, error) {
	now := Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name, description, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.Color, now, now)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create tag id: %w", err)
	}
	return s.GetTag(ctx, id)
}

func (s *Store) UpdateTag(ctx context.Context, id int64, t models.Tag) (*models.Tag, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Description, t.Color, Now(), id)
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes the tag and, via cascade, its article links.
func (s *Store) DeleteTag(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete tag result: %w", err)
	}
	return n > 0, nil
}
