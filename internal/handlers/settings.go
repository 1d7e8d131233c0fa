package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keveinliu/inkwell/internal/backup"
	"github.com/keveinliu/inkwell/internal/db"
	"github.com/keveinliu/inkwell/internal/models"
)

// maxSnapshotBytes caps uploaded backup documents at 50MB.
const maxSnapshotBytes = 50 << 20

type SettingsHandler struct {
	store   *db.Store
	backups *backup.FileManager
}

func NewSettingsHandler(store *db.Store, backups *backup.FileManager) *SettingsHandler {
	return &SettingsHandler{store: store, backups: backups}
}

type settingView struct {
	Value       any     `json:"value"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
	UpdatedAt   string  `json:"updated_at"`
}

// List returns every setting as a key→decoded-value map.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.ListSettings(r.Context())
	if err != nil {
		slog.Error("list settings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	out := make(map[string]settingView, len(settings))
	for _, st := range settings {
		out[st.Key] = settingView{
			Value:       models.SettingValue{Type: st.Type, Raw: st.Value}.Decode(),
			Type:        st.Type,
			Description: st.Description,
			UpdatedAt:   st.UpdatedAt,
		}
	}
	respondData(w, http.StatusOK, out)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	setting, err := h.store.GetSetting(r.Context(), key)
	if err != nil {
		slog.Error("get setting failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load setting")
		return
	}
	if setting == nil {
		respondError(w, http.StatusNotFound, "setting not found")
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"key":         setting.Key,
		"value":       models.SettingValue{Type: setting.Type, Raw: setting.Value}.Decode(),
		"type":        setting.Type,
		"description": setting.Description,
		"updated_at":  setting.UpdatedAt,
	})
}

type settingUpdateRequest struct {
	Value       any     `json:"value"`
	Description *string `json:"description"`
}

// Update encodes the value per the setting's declared type and
// rewrites the row.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req settingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setting, err := h.store.GetSetting(r.Context(), key)
	if err != nil {
		slog.Error("get setting failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}
	if setting == nil {
		respondError(w, http.StatusNotFound, "setting not found")
		return
	}

	encoded, err := models.EncodeSettingValue(setting.Type, req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid value for setting type")
		return
	}
	if _, err := h.store.UpdateSetting(r.Context(), key, encoded, req.Description); err != nil {
		slog.Error("update setting failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}
	respondMessage(w, http.StatusOK, "setting updated")
}

type batchUpdateRequest struct {
	Settings map[string]settingUpdateRequest `json:"settings"`
}

// BatchUpdate applies several setting changes in one transaction.
func (h *SettingsHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req batchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Settings == nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make([]db.SettingUpdate, 0, len(req.Settings))
	for key, u := range req.Settings {
		updates = append(updates, db.SettingUpdate{
			Key:         key,
			Value:       u.Value,
			Description: u.Description,
		})
	}
	if err := h.store.BatchUpdateSettings(r.Context(), updates); err != nil {
		slog.Error("batch update settings failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	respondMessage(w, http.StatusOK, "settings updated")
}

type backupRequest struct {
	IncludeImages bool `json:"include_images"`
}

// Backup exports the full snapshot, stores it under the backup
// directory, and streams it back with download headers.
func (h *SettingsHandler) Backup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if r.Body != nil {
		// An empty body means default options.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	snapshot, err := backup.Export(r.Context(), h.store, backup.ExportOptions{
		IncludeImages: req.IncludeImages,
	})
	if err != nil {
		slog.Error("export snapshot failed", "error", err)
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		slog.Error("encode snapshot failed", "error", err)
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	filename := backup.NewFilename(time.Now())
	if err := h.backups.Save(filename, raw); err != nil {
		slog.Error("save backup file failed", "error", err)
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Restore replays an uploaded snapshot document. The whole operation is
// one transaction: it either lands completely or not at all.
func (h *SettingsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotBytes)
	if err := r.ParseMultipartForm(maxSnapshotBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, _, err := r.FormFile("backup")
	if err != nil {
		respondError(w, http.StatusBadRequest, "backup file is required")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read backup file")
		return
	}

	clearExisting := r.FormValue("clear_existing") != "false"

	if err := backup.Restore(r.Context(), h.store, raw, backup.RestoreOptions{
		ClearExisting: clearExisting,
	}); err != nil {
		if errors.Is(err, backup.ErrMalformedSnapshot) {
			respondError(w, http.StatusBadRequest, "invalid backup file format")
			return
		}
		slog.Error("restore snapshot failed", "error", err)
		respondError(w, http.StatusInternalServerError, "restore failed")
		return
	}
	respondMessage(w, http.StatusOK, "data restored")
}

func (h *SettingsHandler) ListBackups(w http.ResponseWriter, _ *http.Request) {
	files, err := h.backups.List()
	if err != nil {
		slog.Error("list backups failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	respondData(w, http.StatusOK, files)
}

func (h *SettingsHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	raw, err := h.backups.Read(filename)
	if err != nil {
		if errors.Is(err, backup.ErrNoSuchBackup) {
			respondError(w, http.StatusNotFound, "backup file not found")
			return
		}
		slog.Error("read backup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read backup")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *SettingsHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := h.backups.Delete(filename); err != nil {
		if errors.Is(err, backup.ErrNoSuchBackup) {
			respondError(w, http.StatusNotFound, "backup file not found")
			return
		}
		slog.Error("delete backup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete backup")
		return
	}
	respondMessage(w, http.StatusOK, "backup deleted")
}
