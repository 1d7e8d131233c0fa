package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keveinliu/inkwell/internal/models"
)

// CreateImage stores an uploaded file's metadata row.
func (s *Store) CreateImage(ctx context.Context, img models.Image) (*models.Image, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO images (filename, original_name, file_path, file_size, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.FilePath, img.FileSize, img.MimeType, Now())
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create image id: %w", err)
	}
	return s.GetImage(ctx, id)
}

func (s *Store) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	var img models.Image
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, original_name, file_path, file_size, mime_type, created_at
		FROM images WHERE id = ?`, id).
		Scan(&img.ID, &img.Filename, &img.OriginalName, &img.FilePath,
			&img.FileSize, &img.MimeType, &img.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return &img, nil
}

// ListImages returns newest-first image metadata plus the total count.
func (s *Store) ListImages(ctx context.Context, limit, offset int) ([]models.Image, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, original_name, file_path, file_size, mime_type, created_at
		FROM images ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := make([]models.Image, 0, limit)
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.OriginalName, &img.FilePath,
			&img.FileSize, &img.MimeType, &img.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}
	return images, total, nil
}

func (s *Store) DeleteImage(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete image result: %w", err)
	}
	return n > 0, nil
}

// Statistics gathers the dashboard counters in independent reads.
func (s *Store) Statistics(ctx context.Context) (models.Statistics, error) {
	var stats models.Statistics
	counts := []struct {
		query string
		dest  any
	}{
		{`SELECT COUNT(*) FROM articles`, &stats.TotalArticles},
		{`SELECT COUNT(*) FROM articles WHERE status = 'published'`, &stats.PublishedArticles},
		{`SELECT COUNT(*) FROM articles WHERE status = 'draft'`, &stats.DraftArticles},
		{`SELECT COUNT(*) FROM categories`, &stats.TotalCategories},
		{`SELECT COUNT(*) FROM tags`, &stats.TotalTags},
		{`SELECT COUNT(*) FROM images`, &stats.TotalImages},
		{`SELECT COALESCE(SUM(view_count), 0) FROM articles`, &stats.TotalViews},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("statistics: %w", err)
		}
	}
	return stats, nil
}
