// Package backup implements the full-database snapshot subsystem:
// export of every content table into one versioned JSON document, and
// transactional restore of such a document with primary keys and
// foreign-key linkage preserved.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/models"
)

// ErrMalformedSnapshot marks a restore payload that does not parse as
// JSON or lacks the data object. Raised before any mutation.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// ExportOptions controls what an export includes.
type ExportOptions struct {
	IncludeImages bool
}

// RestoreOptions controls restore behavior.
type RestoreOptions struct {
	// ClearExisting deletes current content rows (never settings) in
	// dependency order before reinserting the snapshot.
	ClearExisting bool
}

// Export reads every content table ordered by primary key and wraps
// the rows as a versioned snapshot. Read-only; rows carry their full
// column set so restore can replay them positionally.
func Export(ctx context.Context, store *db.Store, opts ExportOptions) (*models.Snapshot, error) {
	sqlDB := store.DB()

	articles, err := exportArticles(ctx, sqlDB)
	if err != nil {
		return nil, err
	}
	categories, err := exportCategories(ctx, sqlDB)
	if err != nil {
		return nil, err
	}
	tags, err := exportTags(ctx, sqlDB)
	if err != nil {
		return nil, err
	}
	articleTags, err := exportArticleTags(ctx, sqlDB)
	if err != nil {
		return nil, err
	}
	settings, err := exportSettings(ctx, sqlDB)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Version:   models.SnapshotVersion,
		Timestamp: db.Now(),
		Data: models.SnapshotData{
			Articles:    articles,
			Categories:  categories,
			Tags:        tags,
			ArticleTags: articleTags,
			Settings:    settings,
		},
	}
	if opts.IncludeImages {
		images, err := exportImages(ctx, sqlDB)
		if err != nil {
			return nil, err
		}
		snapshot.Data.Images = images
	}
	return snapshot, nil
}

// Restore validates raw as a snapshot document and replays it into
// storage inside a single transaction. Any failure rolls everything
// back; storage is untouched. Admin authorization is enforced upstream
// by the access gate, not here.
func Restore(ctx context.Context, store *db.Store, raw []byte, opts RestoreOptions) error {
	var doc struct {
		Version   string               `json:"version"`
		Timestamp string               `json:"timestamp"`
		Data      *models.SnapshotData `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if doc.Data == nil {
		return fmt.Errorf("%w: missing data object", ErrMalformedSnapshot)
	}
	data := doc.Data

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	// Clear in child-before-parent order. The images table only goes
	// when the snapshot carries images; settings are never deleted,
	// only overwritten, so configuration the snapshot does not cover
	// survives.
	if opts.ClearExisting {
		clears := []string{
			`DELETE FROM article_tags`,
			`DELETE FROM articles`,
			`DELETE FROM categories`,
			`DELETE FROM tags`,
		}
		if data.Images != nil {
			clears = append(clears, `DELETE FROM images`)
		}
		for _, stmt := range clears {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear existing rows: %w", err)
			}
		}
	}

	// Upsert parent-before-child so article_tags always finds both
	// sides. Primary keys come from the snapshot untouched, which makes
	// repeated restores idempotent.
	if err := restoreCategories(ctx, tx, data.Categories); err != nil {
		return err
	}
	if err := restoreTags(ctx, tx, data.Tags); err != nil {
		return err
	}
	if err := restoreArticles(ctx, tx, data.Articles); err != nil {
		return err
	}
	if err := restoreArticleTags(ctx, tx, data.ArticleTags); err != nil {
		return err
	}
	if err := restoreImages(ctx, tx, data.Images); err != nil {
		return err
	}
	if err := restoreSettings(ctx, tx, data.Settings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	return nil
}

func exportArticles(ctx context.Context, sqlDB *sql.DB) ([]models.Article, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT id, title, content, excerpt, status, category_id, view_count, is_featured,
			meta_title, meta_description, slug, created_at, updated_at, published_at
		FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export articles: %w", err)
	}
	defer rows.Close()

	out := []models.Article{}
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Excerpt, &a.Status,
			&a.CategoryID, &a.ViewCount, &a.IsFeatured, &a.MetaTitle, &a.MetaDescription,
			&a.Slug, &a.CreatedAt, &a.UpdatedAt, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("export articles: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func exportCategories(ctx context.Context, sqlDB *sql.DB) ([]models.Category, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT id, name, description, color, sort_order, created_at, updated_at
		FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.SortOrder,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("export categories: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func exportTags(ctx context.Context, sqlDB *sql.DB) ([]models.Tag, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT id, name, description, color, created_at, updated_at
		FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export tags: %w", err)
	}
	defer rows.Close()

	out := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Color,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("export tags: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func exportArticleTags(ctx context.Context, sqlDB *sql.DB) ([]models.ArticleTag, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT article_id, tag_id FROM article_tags ORDER BY article_id, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("export article_tags: %w", err)
	}
	defer rows.Close()

	out := []models.ArticleTag{}
	for rows.Next() {
		var at models.ArticleTag
		if err := rows.Scan(&at.ArticleID, &at.TagID); err != nil {
			return nil, fmt.Errorf("export article_tags: %w", err)
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

func exportSettings(ctx context.Context, sqlDB *sql.DB) ([]models.Setting, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT key, value, type, description, created_at, updated_at
		FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	defer rows.Close()

	out := []models.Setting{}
	for rows.Next() {
		var st models.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Type, &st.Description,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("export settings: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func exportImages(ctx context.Context, sqlDB *sql.DB) ([]models.Image, error) {
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT id, filename, original_name, file_path, file_size, mime_type, created_at
		FROM images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("export images: %w", err)
	}
	defer rows.Close()

	out := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.OriginalName, &img.FilePath,
			&img.FileSize, &img.MimeType, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("export images: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func restoreCategories(ctx context.Context, tx *sql.Tx, categories []models.Category) error {
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO categories
			(id, name, description, color, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Description, c.Color, c.SortOrder, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("restore categories: %w", err)
		}
	}
	return nil
}

func restoreTags(ctx context.Context, tx *sql.Tx, tags []models.Tag) error {
	for _, t := range tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tags
			(id, name, description, color, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Description, t.Color, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			return fmt.Errorf("restore tags: %w", err)
		}
	}
	return nil
}

func restoreArticles(ctx context.Context, tx *sql.Tx, articles []models.Article) error {
	for _, a := range articles {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO articles
			(id, title, content, excerpt, status, category_id, view_count, is_featured,
			 meta_title, meta_description, slug, created_at, updated_at, published_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Title, a.Content, a.Excerpt, a.Status, a.CategoryID, a.ViewCount,
			a.IsFeatured, a.MetaTitle, a.MetaDescription, a.Slug,
			a.CreatedAt, a.UpdatedAt, a.PublishedAt,
		); err != nil {
			return fmt.Errorf("restore articles: %w", err)
		}
	}
	return nil
}

func restoreArticleTags(ctx context.Context, tx *sql.Tx, links []models.ArticleTag) error {
	for _, at := range links {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO article_tags (article_id, tag_id) VALUES (?, ?)`,
			at.ArticleID, at.TagID,
		); err != nil {
			return fmt.Errorf("restore article_tags: %w", err)
		}
	}
	return nil
}

func restoreImages(ctx context.Context, tx *sql.Tx, images []models.Image) error {
	for _, img := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO images
			(id, filename, original_name, file_path, file_size, mime_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			img.ID, img.Filename, img.OriginalName, img.FilePath,
			img.FileSize, img.MimeType, img.CreatedAt,
		); err != nil {
			return fmt.Errorf("restore images: %w", err)
		}
	}
	return nil
}

func restoreSettings(ctx context.Context, tx *sql.Tx, settings []models.Setting) error {
	for _, st := range settings {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO settings
			(key, value, type, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			st.Key, st.Value, st.Type, st.Description, st.CreatedAt, st.UpdatedAt,
		); err != nil {
			return fmt.Errorf("restore settings: %w", err)
		}
	}
	return nil
}
