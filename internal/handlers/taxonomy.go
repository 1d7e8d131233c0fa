package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/models"
)

type CategoriesHandler struct {
	store *db.Store
}

func NewCategoriesHandler(store *db.Store) *CategoriesHandler {
	return &CategoriesHandler{store: store}
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	SortOrder   int64   `json:"sort_order"`
}

func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		slog.Error("list categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}
	respondData(w, http.StatusOK, categories)
}

func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	category, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		slog.Error("get category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load category")
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondData(w, http.StatusOK, category)
}

func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	taken, err := h.store.CategoryNameExists(r.Context(), req.Name, 0)
	if err != nil {
		slog.Error("check category name failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "category name already exists")
		return
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}

	created, err := h.store.CreateCategory(r.Context(), models.Category{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		slog.Error("create category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	respondDataMessage(w, http.StatusCreated, created, "category created")
}

func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	taken, err := h.store.CategoryNameExists(r.Context(), req.Name, id)
	if err != nil {
		slog.Error("check category name failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "category name already exists")
		return
	}
	if req.Color == "" {
		req.Color = "#3B82F6"
	}

	updated, err := h.store.UpdateCategory(r.Context(), id, models.Category{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		slog.Error("update category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondDataMessage(w, http.StatusOK, updated, "category updated")
}

func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	deleted, err := h.store.DeleteCategory(r.Context(), id)
	if err != nil {
		slog.Error("delete category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "category not found")
		return
	}
	respondMessage(w, http.StatusOK, "category deleted")
}

type TagsHandler struct {
	store *db.Store
}

func NewTagsHandler(store *db.Store) *TagsHandler {
	return &TagsHandler{store: store}
}

type tagRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
}

func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		slog.Error("list tags failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load tags")
		return
	}
	respondData(w, http.StatusOK, tags)
}

func (h *TagsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	tag, err := h.store.GetTag(r.Context(), id)
	if err != nil {
		slog.Error("get tag failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	respondData(w, http.StatusOK, tag)
}

func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	taken, err := h.store.TagNameExists(r.Context(), req.Name, 0)
	if err != nil {
		slog.Error("check tag name failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "tag name already exists")
		return
	}
	if req.Color == "" {
		req.Color = "#6B7280"
	}

	created, err := h.store.CreateTag(r.Context(), models.Tag{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		slog.Error("create tag failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	respondDataMessage(w, http.StatusCreated, created, "tag created")
}

func (h *TagsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	taken, err := h.store.TagNameExists(r.Context(), req.Name, id)
	if err != nil {
		slog.Error("check tag name failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}
	if taken {
		respondError(w, http.StatusBadRequest, "tag name already exists")
		return
	}
	if req.Color == "" {
		req.Color = "#6B7280"
	}

	updated, err := h.store.UpdateTag(r.Context(), id, models.Tag{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		slog.Error("update tag failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}
	if updated == nil {
		respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	respondDataMessage(w, http.StatusOK, updated, "tag updated")
}

func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	deleted, err := h.store.DeleteTag(r.Context(), id)
	if err != nil {
		slog.Error("delete tag failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	respondMessage(w, http.StatusOK, "tag deleted")
}
