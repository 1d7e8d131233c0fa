package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/models"
)

type ArticlesHandler struct {
	store *db.Store
}

func NewArticlesHandler(store *db.Store) *ArticlesHandler {
	return &ArticlesHandler{store: store}
}

type articleRequest struct {
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Excerpt         *string `json:"excerpt"`
	Status          string  `json:"status"`
	CategoryID      *int64  `json:"category_id"`
	IsFeatured      bool    `json:"is_featured"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	Slug            *string `json:"slug"`
	TagIDs          []int64 `json:"tag_ids"`
}

var validStatuses = map[string]bool{
	models.StatusDraft:     true,
	models.StatusPublished: true,
	models.StatusArchived:  true,
}

// List returns filtered, paginated articles hydrated with category and
// tags.
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parsePositiveInt(q.Get("page"), 1)
	limit := parsePositiveInt(q.Get("limit"), 10)
	if limit > 100 {
		limit = 100
	}

	query := db.ArticleQuery{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if id, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		query.CategoryID = id
	}
	if id, err := strconv.ParseInt(q.Get("tag_id"), 10, 64); err == nil {
		query.TagID = id
	}

	articles, total, err := h.store.ListArticles(r.Context(), query)
	if err != nil {
		slog.Error("list articles failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}
	respondPaged(w, articles, total, page, limit)
}

// Get returns one article; ?track_view=true also bumps its counter.
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	article, err := h.store.GetArticle(r.Context(), id)
	if err != nil {
		slog.Error("get article failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load article")
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}
	if r.URL.Query().Get("track_view") == "true" {
		if err := h.store.IncrementViewCount(r.Context(), id); err != nil {
			slog.Error("track view failed", "error", err)
		} else {
			article.ViewCount++
		}
	}
	respondData(w, http.StatusOK, article)
}

func (h *ArticlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	if !validStatuses[req.Status] {
		respondError(w, http.StatusBadRequest, "invalid article status")
		return
	}

	created, err := h.store.CreateArticle(r.Context(), models.Article{
		Title:           req.Title,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		Status:          req.Status,
		CategoryID:      req.CategoryID,
		IsFeatured:      req.IsFeatured,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Slug:            req.Slug,
	}, req.TagIDs)
	if err != nil {
		slog.Error("create article failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create article")
		return
	}
	respondDataMessage(w, http.StatusCreated, created, "article created")
}

func (h *ArticlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "title and content are required")
		return
	}
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	if !validStatuses[req.Status] {
		respondError(w, http.StatusBadRequest, "invalid article status")
		return
	}

	updated, err := h.store.UpdateArticle(r.Context(), id, models.Article{
		Title:           req.Title,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		Status:          req.Status,
		CategoryID:      req.CategoryID,
		IsFeatured:      req.IsFeatured,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Slug:            req.Slug,
	}, req.TagIDs)
	if err != nil {
		slog.Error("update article failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update article")
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}
	respondDataMessage(w, http.StatusOK, updated, "article updated")
}

func (h *ArticlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	deleted, err := h.store.DeleteArticle(r.Context(), id)
	if err != nil {
		slog.Error("delete article failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete article")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}
	respondMessage(w, http.StatusOK, "article deleted")
}

// Stats serves the dashboard counters.
func Stats(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Statistics(r.Context())
		if err != nil {
			slog.Error("load statistics failed", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to load statistics")
			return
		}
		respondData(w, http.StatusOK, stats)
	}
}
