package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/keveinliu/inkwell/internal/models"
)

const articleColumns = `a.id, a.title, a.content, a.excerpt, a.status, a.category_id,
	a.view_count, a.is_featured, a.meta_title, a.meta_description, a.slug,
	a.created_at, a.updated_at, a.published_at`

// ArticleQuery carries the list filters. Zero values mean "no filter".
type ArticleQuery struct {
	Status     string
	CategoryID int64
	TagID      int64
	Search     string
	Sort       string
	Order      string
	Limit      int
	Offset     int
}

var articleSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"view_count": true,
	"title":      true,
}

func scanArticle(scan func(dest ...any) error) (models.Article, error) {
	var a models.Article
	err := scan(
		&a.ID,
		&a.Title,
		&a.Content,
		&a.Excerpt,
		&a.Status,
		&a.CategoryID,
		&a.ViewCount,
		&a.IsFeatured,
		&a.MetaTitle,
		&a.MetaDescription,
		&a.Slug,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.PublishedAt,
	)
	return a, err
}

// ListArticles returns filtered articles hydrated with their category
// and tags, plus the unpaginated total.
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) ([]models.Article, int, error) {
	where := "WHERE 1=1"
	var args []any

	if q.Status != "" {
		where += " AND a.status = ?"
		args = append(args, q.Status)
	}
	if q.CategoryID > 0 {
		where += " AND a.category_id = ?"
		args = append(args, q.CategoryID)
	}
	if q.TagID > 0 {
		where += " AND a.id IN (SELECT article_id FROM article_tags WHERE tag_id = ?)"
		args = append(args, q.TagID)
	}
	if q.Search != "" {
		where += " AND (a.title LIKE ? OR a.content LIKE ? OR a.excerpt LIKE ?)"
		term := "%" + q.Search + "%"
		args = append(args, term, term, term)
	}

	sort := q.Sort
	if !articleSortColumns[sort] {
		sort = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(q.Order, "ASC") {
		order = "ASC"
	}

	listArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM articles a %s ORDER BY a.%s %s LIMIT ? OFFSET ?`,
		articleColumns, where, sort, order), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0, q.Limit)
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	for i := range articles {
		if err := s.hydrateArticle(ctx, &articles[i]); err != nil {
			return nil, 0, err
		}
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles a `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	return articles, total, nil
}

// GetArticle returns the hydrated article, or nil when absent.
func (s *Store) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.id = ?`, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	if err := s.hydrateArticle(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) hydrateArticle(ctx context.Context, a *models.Article) error {
	if a.CategoryID != nil {
		cat, err := s.GetCategory(ctx, *a.CategoryID)
		if err != nil {
			return err
		}
		a.Category = cat
	}
	tags, err := s.TagsForArticle(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Tags = tags
	return nil
}

// TagsForArticle returns the tags linked to an article, id ascending.
func (s *Store) TagsForArticle(ctx context.Context, articleID int64) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.color, t.created_at, t.updated_at
		FROM tags t
		JOIN article_tags at ON t.id = at.tag_id
		WHERE at.article_id = ?
		ORDER BY t.id`, articleID)
	if err != nil {
		return nil, fmt.Errorf("tags for article: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateArticle inserts the article and its tag links in one
// transaction and returns the stored, hydrated row.
func (s *Store) CreateArticle(ctx context.Context, article models.Article, tagIDs []int64) (*models.Article, error) {
	now := Now()
	var publishedAt *string
	if article.Status == models.StatusPublished {
		publishedAt = &now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create article: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (title, content, excerpt, status, category_id, is_featured,
			meta_title, meta_description, slug, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.Title, article.Content, article.Excerpt, article.Status, article.CategoryID,
		article.IsFeatured, article.MetaTitle, article.MetaDescription, article.Slug,
		now, now, publishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create article id: %w", err)
	}

	if err := replaceArticleTags(ctx, tx, id, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create article: %w", err)
	}
	return s.GetArticle(ctx, id)
}

// UpdateArticle rewrites the article row. A non-nil tagIDs replaces the
// whole tag set; nil leaves links untouched. published_at is stamped on
// the first transition to published and kept afterwards.
func (s *Store) UpdateArticle(ctx context.Context, id int64, article models.Article, tagIDs []int64) (*models.Article, error) {
	existing, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	publishedAt := existing.PublishedAt
	if article.Status == models.StatusPublished && publishedAt == nil {
		now := Now()
		publishedAt = &now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update article: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE articles SET
			title = ?, content = ?, excerpt = ?, status = ?, category_id = ?,
			is_featured = ?, meta_title = ?, meta_description = ?, slug = ?,
			updated_at = ?, published_at = ?
		WHERE id = ?`,
		article.Title, article.Content, article.Excerpt, article.Status, article.CategoryID,
		article.IsFeatured, article.MetaTitle, article.MetaDescription, article.Slug,
		Now(), publishedAt, id,
	); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	if tagIDs != nil {
		if err := replaceArticleTags(ctx, tx, id, tagIDs); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update article: %w", err)
	}
	return s.GetArticle(ctx, id)
}

func replaceArticleTags(ctx context.Context, tx *sql.Tx, articleID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM article_tags WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("clear article tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)`,
			articleID, tagID); err != nil {
			return fmt.Errorf("link article tag: %w", err)
		}
	}
	return nil
}

// DeleteArticle removes the article; tag links go with it via cascade.
func (s *Store) DeleteArticle(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete article result: %w", err)
	}
	return n > 0, nil
}

// IncrementViewCount bumps the read counter.
func (s *Store) IncrementViewCount(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE articles SET view_count = view_count + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}
