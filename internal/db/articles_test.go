package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keveinliu/inkwell/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedTaxonomy(t *testing.T, store *Store) (catID, tagA, tagB int64) {
	t.Helper()
	ctx := context.Background()
	cat, err := store.CreateCategory(ctx, models.Category{Name: "Tech", Color: "#3B82F6"})
	require.NoError(t, err)
	ta, err := store.CreateTag(ctx, models.Tag{Name: "go", Color: "#6B7280"})
	require.NoError(t, err)
	tb, err := store.CreateTag(ctx, models.Tag{Name: "sqlite", Color: "#6B7280"})
	require.NoError(t, err)
	return cat.ID, ta.ID, tb.ID
}

func TestCreateArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	catID, tagA, tagB := seedTaxonomy(t, store)

	article, err := store.CreateArticle(ctx, models.Article{
		Title:      "Hello",
		Content:    "First post body",
		Status:     models.StatusPublished,
		CategoryID: &catID,
	}, []int64{tagA, tagB})
	require.NoError(t, err)
	require.NotNil(t, article)

	assert.NotZero(t, article.ID)
	assert.NotNil(t, article.PublishedAt, "publishing stamps published_at")
	require.NotNil(t, article.Category)
	assert.Equal(t, "Tech", article.Category.Name)
	require.Len(t, article.Tags, 2)
	assert.Equal(t, "go", article.Tags[0].Name)

	draft, err := store.CreateArticle(ctx, models.Article{
		Title:   "Draft",
		Content: "unpublished",
		Status:  models.StatusDraft,
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)
	assert.Nil(t, draft.Category)
	assert.Empty(t, draft.Tags)
}

func TestUpdateArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, tagA, tagB := seedTaxonomy(t, store)

	created, err := store.CreateArticle(ctx, models.Article{
		Title: "Draft", Content: "body", Status: models.StatusDraft,
	}, []int64{tagA})
	require.NoError(t, err)

	t.Run("publishing stamps published_at once", func(t *testing.T) {
		updated, err := store.UpdateArticle(ctx, created.ID, models.Article{
			Title: "Draft", Content: "body", Status: models.StatusPublished,
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, updated.PublishedAt)
		first := *updated.PublishedAt

		again, err := store.UpdateArticle(ctx, created.ID, models.Article{
			Title: "Renamed", Content: "body", Status: models.StatusPublished,
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, again.PublishedAt)
		assert.Equal(t, first, *again.PublishedAt, "published_at survives later edits")
	})

	t.Run("nil tag list leaves links untouched", func(t *testing.T) {
		updated, err := store.UpdateArticle(ctx, created.ID, models.Article{
			Title: "Renamed", Content: "body", Status: models.StatusPublished,
		}, nil)
		require.NoError(t, err)
		require.Len(t, updated.Tags, 1)
	})

	t.Run("non-nil tag list replaces the whole set", func(t *testing.T) {
		updated, err := store.UpdateArticle(ctx, created.ID, models.Article{
			Title: "Renamed", Content: "body", Status: models.StatusPublished,
		}, []int64{tagB})
		require.NoError(t, err)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "sqlite", updated.Tags[0].Name)
	})

	t.Run("missing article is nil, not an error", func(t *testing.T) {
		updated, err := store.UpdateArticle(ctx, 9999, models.Article{
			Title: "x", Content: "y", Status: models.StatusDraft,
		}, nil)
		require.NoError(t, err)
		assert.Nil(t, updated)
	})
}

func TestListArticlesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	catID, tagA, _ := seedTaxonomy(t, store)

	_, err := store.CreateArticle(ctx, models.Article{
		Title: "Go notes", Content: "concurrency", Status: models.StatusPublished, CategoryID: &catID,
	}, []int64{tagA})
	require.NoError(t, err)
	_, err = store.CreateArticle(ctx, models.Article{
		Title: "Travel log", Content: "mountains", Status: models.StatusDraft,
	}, nil)
	require.NoError(t, err)

	t.Run("by status", func(t *testing.T) {
		list, total, err := store.ListArticles(ctx, ArticleQuery{Status: models.StatusPublished, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, "Go notes", list[0].Title)
	})

	t.Run("by tag", func(t *testing.T) {
		list, total, err := store.ListArticles(ctx, ArticleQuery{TagID: tagA, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
	})

	t.Run("by search term", func(t *testing.T) {
		_, total, err := store.ListArticles(ctx, ArticleQuery{Search: "mountain", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("pagination totals the unfiltered count", func(t *testing.T) {
		list, total, err := store.ListArticles(ctx, ArticleQuery{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, list, 1)
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		_, _, err := store.ListArticles(ctx, ArticleQuery{Sort: "evil; DROP TABLE", Limit: 10})
		require.NoError(t, err)
	})
}

func TestDeleteArticleCascadesLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, tagA, _ := seedTaxonomy(t, store)

	created, err := store.CreateArticle(ctx, models.Article{
		Title: "Doomed", Content: "body", Status: models.StatusDraft,
	}, []int64{tagA})
	require.NoError(t, err)

	ok, err := store.DeleteArticle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var links int
	require.NoError(t, store.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM article_tags WHERE article_id = ?`, created.ID).Scan(&links))
	assert.Zero(t, links)

	ok, err = store.DeleteArticle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second delete finds nothing")
}

func TestIncrementViewCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateArticle(ctx, models.Article{
		Title: "Counted", Content: "body", Status: models.StatusPublished,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, store.IncrementViewCount(ctx, created.ID))
	require.NoError(t, store.IncrementViewCount(ctx, created.ID))

	got, err := store.GetArticle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)
}

func TestTaxonomyNameUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	catID, tagA, _ := seedTaxonomy(t, store)

	exists, err := store.CategoryNameExists(ctx, "Tech", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.CategoryNameExists(ctx, "Tech", catID)
	require.NoError(t, err)
	assert.False(t, exists, "a row does not collide with itself")

	exists, err = store.TagNameExists(ctx, "go", tagA)
	require.NoError(t, err)
	assert.False(t, exists)
}
