// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/geokey/geokey/internal/contribute"
	"github.com/geokey/geokey/internal/models"
)

// ListMedia returns the active media files of an observation.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	_, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	files, err := h.db.MediaFiles(r.Context(), obs.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if files == nil {
		files = []*models.MediaFile{}
	}
	writeJSON(w, http.StatusOK, files)
}

// UploadMedia accepts a multipart upload ("file" part, optional "name" and
// "description" fields) and attaches it to the observation.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	rc, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rc.caps.User().Anonymous() {
		respondError(w, r, fmt.Errorf("%w: uploading media requires authentication",
			contribute.ErrPermissionDenied))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Media.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Media.MaxUploadBytes); err != nil {
		respondError(w, r, newRequestError("invalid multipart upload: %s", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, newRequestError("multipart upload needs a file part"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	path, err := h.storeUpload(file, header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	media := &models.MediaFile{
		ObservationID: obs.ID,
		Name:          name,
		Description:   r.FormValue("description"),
		Type:          models.MediaTypeForContentType(contentType),
		Path:          path,
		ContentType:   contentType,
		CreatorID:     rc.caps.User().ID,
		CreatedAt:     time.Now().UTC(),
		Status:        models.StatusActive,
	}

	if err := h.db.CreateMediaFile(r.Context(), media); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, media)
}

// DeleteMedia logically removes a media file.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	rc, obs, err := h.observationContext(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mediaID, err := idParam(r, "media_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	media, err := h.db.MediaFile(r.Context(), obs.ID, mediaID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !rc.caps.Moderator && (rc.caps.User().Anonymous() || media.CreatorID != rc.caps.User().ID) {
		respondError(w, r, fmt.Errorf("%w: deleting media file %d",
			contribute.ErrPermissionDenied, mediaID))
		return
	}

	if err := h.db.DeleteMediaFile(r.Context(), obs.ID, mediaID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storeUpload writes the upload under the media directory with a generated
// name, returning the relative path stored on the row.
func (h *Handler) storeUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.cfg.Media.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	relative := uuid.New().String() + filepath.Ext(originalName)
	dst, err := os.Create(filepath.Join(h.cfg.Media.Dir, relative))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return relative, nil
}
