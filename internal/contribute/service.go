// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

// Package contribute implements the observation lifecycle: schema-validated
// creation, merge-style updates under optimistic locking, logical deletion,
// the moderation state machine and review comments. Every mutation appends a
// historical snapshot in the same transaction as the observation write.
package contribute

import (
	"context"
	"fmt"
	"time"

	"github.com/geokey/geokey/internal/logging"
	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
	"github.com/geokey/geokey/internal/permission"
)

// Store is the persistence surface the service writes through. Mutating
// methods persist the observation and its historical snapshot atomically;
// UpdateObservation fails with ErrConflict when the stored version no longer
// matches expectedVersion.
type Store interface {
	Category(ctx context.Context, projectID, categoryID int64) (*models.Category, error)
	Location(ctx context.Context, id int64) (*models.Location, error)
	CreateLocation(ctx context.Context, loc *models.Location) error

	Observation(ctx context.Context, projectID, id int64) (*models.Observation, error)
	CreateObservation(ctx context.Context, obs *models.Observation) error
	UpdateObservation(ctx context.Context, obs *models.Observation, expectedVersion int) error
	DeleteObservation(ctx context.Context, obs *models.Observation) error

	Comment(ctx context.Context, observationID, commentID int64) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, comment *models.Comment) error

	// DeleteComment marks the comment and its responses deleted.
	DeleteComment(ctx context.Context, comment *models.Comment) error
	OpenReviewComments(ctx context.Context, observationID int64) (int, error)
}

// Payload is a parsed contribution request, produced from an inbound GeoJSON
// feature. Properties holds raw values before schema validation; a nil map
// value is an explicit clear on update.
type Payload struct {
	CategoryID int64
	Properties map[string]interface{}
	Location   *LocationPayload

	// Status is the requested status, nil to leave moderation alone.
	Status *models.ObservationStatus

	// Version is the optimistic-lock token the caller read. Required on
	// updates.
	Version *int
}

// LocationPayload binds the observation to a place: an existing location by
// ID, or a new one from an inline GeoJSON geometry.
type LocationPayload struct {
	ID          *int64
	Geometry    string
	Name        string
	Description string
}

// Service orchestrates contribution writes.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService wires the service to its store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates and stores a new observation, returning it with version 1
// and derived fields populated.
func (s *Service) Create(ctx context.Context, project *models.Project, caps *permission.Capabilities, payload *Payload) (*models.Observation, error) {
	if !caps.CanContribute {
		return nil, fmt.Errorf("%w: contributing to project %d", ErrPermissionDenied, project.ID)
	}

	category, err := s.store.Category(ctx, project.ID, payload.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.Status != models.StatusActive {
		return nil, newValidationError("meta.category", "category is not active")
	}

	props, err := validateProperties(category, payload.Properties, nil)
	if err != nil {
		return nil, err
	}

	location, err := s.bindLocation(ctx, project, caps.User(), payload.Location)
	if err != nil {
		return nil, err
	}

	status, err := initialStatus(category, caps, payload.Status)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	obs := &models.Observation{
		ProjectID:  project.ID,
		CategoryID: category.ID,
		LocationID: location.ID,
		Status:     status,
		Properties: props,
		Version:    1,
		CreatorID:  creatorID(caps.User()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	computeDerived(category, obs)

	if err := s.store.CreateObservation(ctx, obs); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("project_id", project.ID).
		Int64("category_id", category.ID).
		Int64("observation_id", obs.ID).
		Str("status", string(obs.Status)).
		Msg("observation created")
	return obs, nil
}

// Update merges the payload into an existing observation: missing keys keep
// their value, explicit nulls clear, and the resulting full property map is
// re-validated. The version in the payload must match the stored one.
func (s *Service) Update(ctx context.Context, project *models.Project, caps *permission.Capabilities, id int64, payload *Payload) (*models.Observation, error) {
	obs, err := s.visibleObservation(ctx, project, caps, id)
	if err != nil {
		return nil, err
	}
	if !caps.CanEditObservation(obs) {
		return nil, fmt.Errorf("%w: editing observation %d", ErrPermissionDenied, id)
	}

	if payload.Version == nil {
		return nil, newValidationError("meta.version", "version is required on updates")
	}
	if *payload.Version != obs.Version {
		return nil, fmt.Errorf("%w: observation %d is at version %d, not %d",
			ErrConflict, id, obs.Version, *payload.Version)
	}

	category, err := s.store.Category(ctx, project.ID, obs.CategoryID)
	if err != nil {
		return nil, err
	}

	if len(payload.Properties) > 0 {
		props, err := validateProperties(category, payload.Properties, obs.Properties)
		if err != nil {
			return nil, err
		}
		obs.Properties = props
	}

	if payload.Location != nil {
		location, err := s.bindLocation(ctx, project, caps.User(), payload.Location)
		if err != nil {
			return nil, err
		}
		obs.LocationID = location.ID
	}

	prevStatus := obs.Status
	if payload.Status != nil {
		if err := transition(obs, *payload.Status, category, caps); err != nil {
			return nil, err
		}
	}

	computeDerived(category, obs)
	obs.UpdatedAt = s.now().UTC()
	obs.UpdatorID = updatorID(caps.User())

	if err := s.store.UpdateObservation(ctx, obs, *payload.Version); err != nil {
		return nil, err
	}
	if obs.Status != prevStatus {
		metrics.RecordTransition(string(prevStatus), string(obs.Status))
	}

	logging.Ctx(ctx).Info().
		Int64("project_id", project.ID).
		Int64("observation_id", obs.ID).
		Int("version", obs.Version).
		Msg("observation updated")
	return obs, nil
}

// Delete marks the observation deleted and appends the closing history row.
// The row itself is retained.
func (s *Service) Delete(ctx context.Context, project *models.Project, caps *permission.Capabilities, id int64) error {
	obs, err := s.visibleObservation(ctx, project, caps, id)
	if err != nil {
		return err
	}
	if !caps.CanDeleteObservation(obs) {
		return fmt.Errorf("%w: deleting observation %d", ErrPermissionDenied, id)
	}

	obs.Status = models.ObservationDeleted
	obs.UpdatedAt = s.now().UTC()
	obs.UpdatorID = updatorID(caps.User())

	if err := s.store.DeleteObservation(ctx, obs); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Int64("project_id", project.ID).
		Int64("observation_id", obs.ID).
		Msg("observation deleted")
	return nil
}

// Get returns one observation if the principal may see it, masking
// permission denials as not found.
func (s *Service) Get(ctx context.Context, project *models.Project, caps *permission.Capabilities, id int64) (*models.Observation, error) {
	return s.visibleObservation(ctx, project, caps, id)
}

// AddComment attaches a comment to an observation. An open review comment on
// an active observation moves it to review.
func (s *Service) AddComment(ctx context.Context, project *models.Project, caps *permission.Capabilities, observationID int64, comment *models.Comment) (*models.Comment, error) {
	obs, err := s.visibleObservation(ctx, project, caps, observationID)
	if err != nil {
		return nil, err
	}
	if caps.User().Anonymous() {
		return nil, fmt.Errorf("%w: commenting requires authentication", ErrPermissionDenied)
	}

	if comment.RespondsTo != nil {
		if _, err := s.store.Comment(ctx, obs.ID, *comment.RespondsTo); err != nil {
			return nil, newValidationError("respondsto", "parent comment does not belong to this observation")
		}
	}
	if comment.ReviewStatus != nil && *comment.ReviewStatus != models.ReviewOpen {
		return nil, newValidationError("review_status", "new review comments must be open")
	}

	comment.ObservationID = obs.ID
	comment.CreatorID = caps.User().ID
	comment.CreatedAt = s.now().UTC()
	comment.Status = models.StatusActive

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if comment.IsOpenReview() && obs.Status == models.ObservationActive {
		obs.Status = models.ObservationReview
		obs.UpdatedAt = s.now().UTC()
		if err := s.store.UpdateObservation(ctx, obs, obs.Version); err != nil {
			return nil, err
		}
		metrics.RecordTransition(string(models.ObservationActive), string(models.ObservationReview))
	}

	return comment, nil
}

// ResolveComment closes an open review comment. Resolving the last one
// returns the observation to active. Moderators only.
func (s *Service) ResolveComment(ctx context.Context, project *models.Project, caps *permission.Capabilities, observationID, commentID int64) error {
	obs, err := s.visibleObservation(ctx, project, caps, observationID)
	if err != nil {
		return err
	}
	if !caps.CanModerateObservation(obs) {
		return fmt.Errorf("%w: resolving review comments requires moderation rights", ErrPermissionDenied)
	}

	comment, err := s.store.Comment(ctx, obs.ID, commentID)
	if err != nil {
		return err
	}
	if !comment.IsOpenReview() {
		return newValidationError("review_status", "comment is not an open review comment")
	}

	resolved := models.ReviewResolved
	comment.ReviewStatus = &resolved
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return err
	}

	return s.settleReviewStatus(ctx, obs)
}

// DeleteComment removes a comment (logically), cascading to its responses.
// Comment authors delete their own; moderators delete any. Deleting the last
// open review comment settles the observation back to active.
func (s *Service) DeleteComment(ctx context.Context, project *models.Project, caps *permission.Capabilities, observationID, commentID int64) error {
	obs, err := s.visibleObservation(ctx, project, caps, observationID)
	if err != nil {
		return err
	}

	comment, err := s.store.Comment(ctx, obs.ID, commentID)
	if err != nil {
		return err
	}
	if !caps.Moderator && (caps.User().Anonymous() || comment.CreatorID != caps.User().ID) {
		return fmt.Errorf("%w: deleting comment %d", ErrPermissionDenied, commentID)
	}

	if err := s.store.DeleteComment(ctx, comment); err != nil {
		return err
	}

	// The cascade may have removed an open review comment even when the
	// target itself was not one.
	return s.settleReviewStatus(ctx, obs)
}

// settleReviewStatus re-derives the review flag from the remaining open
// review comments.
func (s *Service) settleReviewStatus(ctx context.Context, obs *models.Observation) error {
	open, err := s.store.OpenReviewComments(ctx, obs.ID)
	if err != nil {
		return err
	}
	if open > 0 || obs.Status != models.ObservationReview {
		return nil
	}

	obs.Status = models.ObservationActive
	obs.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateObservation(ctx, obs, obs.Version); err != nil {
		return err
	}
	metrics.RecordTransition(string(models.ObservationReview), string(models.ObservationActive))
	return nil
}

// visibleObservation loads an observation, masking both absence and
// insufficient visibility as not found.
func (s *Service) visibleObservation(ctx context.Context, project *models.Project, caps *permission.Capabilities, id int64) (*models.Observation, error) {
	obs, err := s.store.Observation(ctx, project.ID, id)
	if err != nil {
		return nil, err
	}
	if !caps.CanViewObservation(obs) {
		return nil, fmt.Errorf("%w: observation %d", ErrNotFound, id)
	}
	return obs, nil
}

// bindLocation resolves the payload's location reference: an existing
// location usable with this project, or a new one created from the inline
// geometry.
func (s *Service) bindLocation(ctx context.Context, project *models.Project, user *models.User, payload *LocationPayload) (*models.Location, error) {
	if payload == nil {
		return nil, newValidationError("geometry", "a geometry or a location id is required")
	}

	if payload.ID != nil {
		location, err := s.store.Location(ctx, *payload.ID)
		if err != nil {
			return nil, err
		}
		if !location.UsableWith(project.ID) {
			return nil, fmt.Errorf("%w: location %d", ErrNotFound, *payload.ID)
		}
		return location, nil
	}

	if payload.Geometry == "" {
		return nil, newValidationError("geometry", "a geometry or a location id is required")
	}

	location := &models.Location{
		Name:        payload.Name,
		Description: payload.Description,
		Geometry:    payload.Geometry,
		CreatorID:   creatorID(user),
		CreatedAt:   s.now().UTC(),
		Status:      models.StatusActive,
	}
	if err := s.store.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// validateProperties checks raw values against the category schema. With a
// nil base it validates a create: required fields must be present and
// non-null. With a base it validates a merge: omitted keys keep their value
// and explicit nulls clear, except on required fields.
func validateProperties(category *models.Category, raw map[string]interface{}, base models.Properties) (models.Properties, error) {
	props := models.Properties{}
	if base != nil {
		props = base.Clone()
	}
	errs := map[string]string{}

	for key, value := range raw {
		field := category.Field(key)
		if field == nil {
			errs[key] = "no such field in category"
			continue
		}

		if value == nil {
			if field.Required {
				errs[key] = "required field cannot be cleared"
			} else {
				delete(props, key)
			}
			continue
		}

		typed, err := field.Validate(value)
		if err != nil {
			errs[key] = err.Error()
			continue
		}
		props[key] = typed
	}

	for i := range category.Fields {
		field := &category.Fields[i]
		if !field.Required || field.Status != models.StatusActive {
			continue
		}
		if _, ok := props[field.Key]; !ok {
			if _, mentioned := errs[field.Key]; !mentioned {
				errs[field.Key] = "required field is missing"
			}
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return props, nil
}

func creatorID(u *models.User) int64 {
	if u.Anonymous() {
		return 0
	}
	return u.ID
}

func updatorID(u *models.User) *int64 {
	if u.Anonymous() {
		return nil
	}
	id := u.ID
	return &id
}
