package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keveinliu/inkwell/internal/auth"
	"github.com/keveinliu/inkwell/internal/backup"
	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/middleware"
	"github.com/keveinliu/inkwell/internal/models"
)

type settingsRig struct {
	router *chi.Mux
	store  *db.Store
	tokens *auth.TokenService
}

// newSettingsRig mirrors the production route layout: reads are public,
// everything that writes sits behind the admin gate.
func newSettingsRig(t *testing.T) *settingsRig {
	t.Helper()
	store, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := auth.NewTokenService("test-secret")
	h := NewSettingsHandler(store, backup.NewFileManager(t.TempDir()))

	r := chi.NewRouter()
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", h.List)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens), middleware.RequireRole(models.RoleAdmin))
			r.Post("/backup", h.Backup)
			r.Post("/restore", h.Restore)
			r.Post("/batch-update", h.BatchUpdate)
			r.Get("/backups/list", h.ListBackups)
			r.Get("/backups/download/{filename}", h.DownloadBackup)
			r.Delete("/backups/{filename}", h.DeleteBackup)
			r.Put("/{key}", h.Update)
		})
		r.Get("/{key}", h.Get)
	})
	return &settingsRig{router: r, store: store, tokens: tokens}
}

func (rig *settingsRig) token(t *testing.T, role string) string {
	t.Helper()
	token, _, err := rig.tokens.Issue(&models.User{ID: 1, Username: "op", Role: role})
	require.NoError(t, err)
	return token
}

func multipartSnapshot(t *testing.T, raw []byte, clearExisting string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("backup", "backup.json")
	require.NoError(t, err)
	_, err = part.Write(raw)
	require.NoError(t, err)
	if clearExisting != "" {
		require.NoError(t, mw.WriteField("clear_existing", clearExisting))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (rig *settingsRig) restore(t *testing.T, raw []byte, clearExisting, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartSnapshot(t, raw, clearExisting)
	req := httptest.NewRequest(http.MethodPost, "/api/settings/restore", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	rig.router.ServeHTTP(rec, req)
	return rec
}

func validSnapshot(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(models.Snapshot{
		Version:   models.SnapshotVersion,
		Timestamp: "2024-01-01T00:00:00Z",
		Data: models.SnapshotData{
			Articles: []models.Article{{
				ID: 1, Title: "Restored", Content: "body", Status: models.StatusPublished,
				CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
			}},
			Categories:  []models.Category{},
			Tags:        []models.Tag{},
			ArticleTags: []models.ArticleTag{},
			Settings:    []models.Setting{},
		},
	})
	require.NoError(t, err)
	return raw
}

func (rig *settingsRig) articleCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, rig.store.DB().QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM articles`).Scan(&n))
	return n
}

func TestRestoreRequiresAdmin(t *testing.T) {
	rig := newSettingsRig(t)
	raw := validSnapshot(t)

	t.Run("anonymous is 401", func(t *testing.T) {
		rec := rig.restore(t, raw, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, rig.articleCount(t))
	})

	t.Run("regular user is 403", func(t *testing.T) {
		rec := rig.restore(t, raw, "", rig.token(t, models.RoleUser))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, rig.articleCount(t), "denied request must not touch storage")
	})

	t.Run("admin succeeds", func(t *testing.T) {
		rec := rig.restore(t, raw, "", rig.token(t, models.RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1, rig.articleCount(t))
	})
}

func TestRestoreMalformedUpload(t *testing.T) {
	rig := newSettingsRig(t)
	admin := rig.token(t, models.RoleAdmin)

	rec := rig.restore(t, []byte("not json"), "", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "invalid backup file format", env.Message)

	// No data object either.
	rec = rig.restore(t, []byte(`{"version":"1.0.0"}`), "", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestoreClearExistingFlag(t *testing.T) {
	rig := newSettingsRig(t)
	admin := rig.token(t, models.RoleAdmin)
	_, err := rig.store.DB().ExecContext(context.Background(), `
		INSERT INTO articles (id, title, content, status, created_at, updated_at)
		VALUES (50, 'Old', 'old body', 'draft', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	t.Run("clear_existing=false merges", func(t *testing.T) {
		rec := rig.restore(t, validSnapshot(t), "false", admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 2, rig.articleCount(t))
	})

	t.Run("default clears", func(t *testing.T) {
		rec := rig.restore(t, validSnapshot(t), "", admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, rig.articleCount(t))
	})
}

func TestBackupEndpoint(t *testing.T) {
	rig := newSettingsRig(t)
	admin := rig.token(t, models.RoleAdmin)

	body := bytes.NewBufferString(`{"include_images": false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/settings/backup", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	rig.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	// The response body is the snapshot document itself, not an
	// envelope, and must restore cleanly.
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, models.SnapshotVersion, snapshot.Version)
	assert.Nil(t, snapshot.Data.Images)
	assert.NotEmpty(t, snapshot.Data.Settings, "seeded defaults export with the snapshot")

	// The same document was stored server-side.
	listReq := httptest.NewRequest(http.MethodGet, "/api/settings/backups/list", nil)
	listReq.Header.Set("Authorization", "Bearer "+admin)
	listRec := httptest.NewRecorder()
	rig.router.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)
	var listEnv struct {
		Data []backup.FileInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &listEnv))
	require.Len(t, listEnv.Data, 1)
	assert.Contains(t, listEnv.Data[0].Filename, "backup_")
}

func TestSettingUpdate(t *testing.T) {
	rig := newSettingsRig(t)
	admin := rig.token(t, models.RoleAdmin)

	put := func(key string, body string, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/settings/"+key, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		rig.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("write requires admin", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, put("site_title", `{"value":"x"}`, "").Code)
		assert.Equal(t, http.StatusForbidden, put("site_title", `{"value":"x"}`, rig.token(t, models.RoleUser)).Code)
	})

	t.Run("updates a known key", func(t *testing.T) {
		rec := put("site_title", `{"value":"My Corner"}`, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		getRec := httptest.NewRecorder()
		rig.router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/api/settings/site_title", nil))
		require.Equal(t, http.StatusOK, getRec.Code)
		var env struct {
			Data struct {
				Value any `json:"value"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &env))
		assert.Equal(t, "My Corner", env.Data.Value)
	})

	t.Run("unknown key is 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, put("no_such_key", `{"value":"x"}`, admin).Code)
	})

	t.Run("type mismatch is 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, put("posts_per_page", `{"value":"lots"}`, admin).Code)
	})
}

func TestSettingsBatchUpdate(t *testing.T) {
	rig := newSettingsRig(t)
	admin := rig.token(t, models.RoleAdmin)

	body := `{"settings":{"site_title":{"value":"Batch Title"},"posts_per_page":{"value":25},"unknown_key":{"value":"skipped"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/settings/batch-update", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	rig.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	listRec := httptest.NewRecorder()
	rig.router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/settings/", nil))
	require.Equal(t, http.StatusOK, listRec.Code)
	var env struct {
		Data map[string]struct {
			Value any `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &env))
	assert.Equal(t, "Batch Title", env.Data["site_title"].Value)
	assert.Equal(t, 25.0, env.Data["posts_per_page"].Value)
	_, exists := env.Data["unknown_key"]
	assert.False(t, exists, "unknown keys are skipped, not created")
}
