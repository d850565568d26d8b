// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import (
	"strings"
	"time"
)

// MediaType discriminates media file variants.
type MediaType string

const (
	MediaImage    MediaType = "ImageFile"
	MediaVideo    MediaType = "VideoFile"
	MediaAudio    MediaType = "AudioFile"
	MediaDocument MediaType = "DocumentFile"
)

// MediaTypeForContentType maps an upload MIME type to a media variant.
// Unrecognised types fall back to the document variant.
func MediaTypeForContentType(contentType string) MediaType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	case strings.HasPrefix(contentType, "audio/"):
		return MediaAudio
	default:
		return MediaDocument
	}
}

// MediaFile is a file uploaded against an observation. The file content
// lives on disk under the configured media directory; the row records its
// relative path.
type MediaFile struct {
	ID            int64     `json:"id"`
	ObservationID int64     `json:"-"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          MediaType `json:"file_type"`
	Path          string    `json:"-"`
	ContentType   string    `json:"content_type"`

	CreatorID int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"-"`
}
