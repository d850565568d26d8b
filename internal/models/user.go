// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package models

import "time"

// User is the authenticated principal the engine operates on behalf of.
// Account management (signup, password reset, OAuth linkage) happens outside
// the engine; the engine only consumes users that already exist.
type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"-"`
	CreatedAt   time.Time `json:"-"`
}

// Anonymous reports whether u represents an unauthenticated request.
// A nil user is always anonymous.
func (u *User) Anonymous() bool {
	return u == nil || u.ID == 0
}
