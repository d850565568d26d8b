// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package contribute

import (
	"fmt"

	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/permission"
)

// initialStatus decides the status of a new observation. Contributors start
// at the category's default status; moderators publish straight to active.
// The payload may request draft (any creator) or active (moderators only).
func initialStatus(category *models.Category, caps *permission.Capabilities, requested *models.ObservationStatus) (models.ObservationStatus, error) {
	if requested != nil {
		switch *requested {
		case models.ObservationDraft:
			return models.ObservationDraft, nil
		case models.ObservationActive:
			if caps.Moderator {
				return models.ObservationActive, nil
			}
			return "", fmt.Errorf("%w: only moderators may publish directly to active", ErrInvalidTransition)
		case models.ObservationPending:
			return models.ObservationPending, nil
		default:
			return "", fmt.Errorf("%w: new observations cannot start as %s", ErrInvalidTransition, *requested)
		}
	}

	if caps.Moderator || category.DefaultStatus == models.DefaultActive {
		return models.ObservationActive, nil
	}
	return models.ObservationPending, nil
}

// transition validates an explicit status change requested on an update.
// Review states are entered and left through review comments only, and
// deletion goes through the delete operation.
func transition(obs *models.Observation, target models.ObservationStatus, category *models.Category, caps *permission.Capabilities) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %s", ErrInvalidTransition, target)
	}
	if target == obs.Status {
		return nil
	}

	deny := func(reason string) error {
		return fmt.Errorf("%w: %s → %s (%s)", ErrInvalidTransition, obs.Status, target, reason)
	}

	// Drafts belong to their creator alone, in both directions.
	if (obs.Status == models.ObservationDraft || target == models.ObservationDraft) && !obs.IsCreator(caps.User()) {
		return deny("only the creator may move an observation to or from draft")
	}

	switch {
	case obs.Status == models.ObservationPending && target == models.ObservationActive:
		if !caps.Moderator {
			return deny("approving requires moderation rights")
		}
	case obs.Status == models.ObservationPending && target == models.ObservationDraft:
		// creator check above suffices
	case obs.Status == models.ObservationDraft && (target == models.ObservationPending || target == models.ObservationActive):
		// Publishing a draft follows the create rules: active needs either
		// moderation rights or a default-active category.
		if target == models.ObservationActive && !caps.Moderator && category.DefaultStatus != models.DefaultActive {
			return deny("publishing a draft to active requires moderation rights")
		}
	case obs.Status == models.ObservationDeleted && target == models.ObservationActive:
		if !caps.Admin {
			return deny("restoring requires administrator rights")
		}
	default:
		return deny("not an allowed transition")
	}

	obs.Status = target
	return nil
}
