// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package permission resolves what a principal may do within a project.
//
// Capabilities are derived entirely from project membership: admins hold every
// capability, user groups grant contribution and moderation, and a group's
// subset filter restricts which observations its members see. A user in
// several filtered groups sees the intersection of the per-group sets.
package permission

import (
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/subset"
)

// Capabilities is the resolved permission set of one principal in one
// project. Observation-level checks hang off it so callers resolve once per
// request.
type Capabilities struct {
	user *models.User

	Admin     bool
	Moderator bool

	CanView       bool
	CanContribute bool

	// scope holds the subset predicates of the principal's filtered groups.
	// Empty means unrestricted. All predicates must match for an observation
	// to be in scope.
	scope []*subset.Predicate
}

// Resolve computes the capabilities of user within project. groupFilters maps
// subset filter IDs to their compiled predicates and must cover every
// FilterID referenced by a group the user belongs to; missing entries are
// treated as unrestricted.
//
// user may be nil for anonymous access.
func Resolve(project *models.Project, user *models.User, groupFilters map[int64]*subset.Predicate) *Capabilities {
	caps := &Capabilities{user: user}

	if project.Status == models.StatusDeleted {
		return caps
	}

	if project.IsAdmin(user) {
		caps.Admin = true
		caps.Moderator = true
		caps.CanView = true
		caps.CanContribute = true
		return caps
	}

	groups := project.GroupsOf(user)

	caps.CanView = !project.IsPrivate || len(groups) > 0

	for _, group := range groups {
		if group.CanContribute {
			caps.CanContribute = true
		}
		if group.CanModerate {
			caps.Moderator = true
		}
		if group.FilterID != nil {
			if pred, ok := groupFilters[*group.FilterID]; ok {
				caps.scope = append(caps.scope, pred)
			}
		}
	}

	// The contributing policy widens contribution beyond group grants on
	// public projects; it never narrows a grant a group already made.
	if !caps.CanContribute && !project.IsPrivate {
		switch project.Contributing {
		case models.ContributingEveryone:
			caps.CanContribute = true
		case models.ContributingAuth:
			caps.CanContribute = !user.Anonymous()
		}
	}

	return caps
}

// User returns the principal the capabilities were resolved for, nil when
// anonymous.
func (c *Capabilities) User() *models.User {
	return c.user
}

// InScope reports whether an observation falls inside every subset filter of
// the principal's groups. Admins and unfiltered principals are unrestricted.
func (c *Capabilities) InScope(obs *models.Observation) bool {
	if c.Admin {
		return true
	}
	for _, pred := range c.scope {
		if !pred.Matches(obs) {
			return false
		}
	}
	return true
}

// ScopeSQL renders the principal's subset scope as a WHERE fragment over the
// observations table aliased "o". The second return is false when the
// principal is unrestricted.
func (c *Capabilities) ScopeSQL() (string, []interface{}, bool) {
	if c.Admin || len(c.scope) == 0 {
		return "", nil, false
	}

	clause := ""
	var args []interface{}
	for i, pred := range c.scope {
		predClause, predArgs := pred.SQL()
		if i > 0 {
			clause += " AND "
		}
		clause += predClause
		args = append(args, predArgs...)
	}
	return "(" + clause + ")", args, true
}

// CanViewObservation reports whether the principal may read one observation.
// Deleted observations are visible to admins only, so they can be restored;
// drafts only to their creator; pending observations to their creator and
// moderators. Active and review observations are visible to anyone who can
// view the project, within the principal's subset scope.
func (c *Capabilities) CanViewObservation(obs *models.Observation) bool {
	if !c.CanView {
		return false
	}

	switch obs.Status {
	case models.ObservationDeleted:
		return c.Admin
	case models.ObservationDraft:
		return obs.IsCreator(c.user)
	case models.ObservationPending:
		if !obs.IsCreator(c.user) && !c.Moderator {
			return false
		}
	}

	return obs.IsCreator(c.user) || c.InScope(obs)
}

// CanEditObservation reports whether the principal may update the
// observation's properties or location. Creators edit their own
// contributions; moderators edit anything they can see. A deleted
// observation accepts only the admin restore.
func (c *Capabilities) CanEditObservation(obs *models.Observation) bool {
	if obs.Status == models.ObservationDeleted {
		return c.Admin
	}
	if obs.IsCreator(c.user) {
		return true
	}
	return c.Moderator && c.CanViewObservation(obs)
}

// CanDeleteObservation reports whether the principal may soft-delete the
// observation. The rule matches editing, except that an already deleted
// observation cannot be deleted again.
func (c *Capabilities) CanDeleteObservation(obs *models.Observation) bool {
	if obs.Status == models.ObservationDeleted {
		return false
	}
	return c.CanEditObservation(obs)
}

// CanModerateObservation reports whether the principal may perform
// moderator-only transitions (approving pending contributions, resolving
// reviews).
func (c *Capabilities) CanModerateObservation(obs *models.Observation) bool {
	return c.Moderator && obs.Status != models.ObservationDeleted
}
