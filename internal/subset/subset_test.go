// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package subset

import (
	"testing"
	"time"

	"github.com/geokey/geokey/internal/models"
)

func pubsCategory() *models.Category {
	return &models.Category{
		ID:   1,
		Name: "Pubs",
		Fields: []models.Field{
			{ID: 10, Key: "name", Name: "Name", Type: models.FieldText, Status: models.StatusActive},
			{ID: 11, Key: "rating", Name: "Rating", Type: models.FieldNumeric, Status: models.StatusActive},
			{ID: 12, Key: "child_friendly", Name: "Child friendly", Type: models.FieldTrueFalse, Status: models.StatusActive},
			{ID: 13, Key: "opened", Name: "Opened", Type: models.FieldDateTime, Status: models.StatusActive},
			{ID: 14, Key: "type", Name: "Type", Type: models.FieldLookup, Status: models.StatusActive,
				LookupValues: []models.LookupValue{
					{ID: 1, Name: "Gastro pub", Status: models.StatusActive},
					{ID: 2, Name: "Sports bar", Status: models.StatusActive},
				}},
			{ID: 15, Key: "features", Name: "Features", Type: models.FieldMultipleLookup, Status: models.StatusActive,
				LookupValues: []models.LookupValue{
					{ID: 21, Name: "Garden", Status: models.StatusActive},
					{ID: 22, Name: "Live music", Status: models.StatusActive},
					{ID: 23, Name: "Pool table", Status: models.StatusActive},
				}},
		},
	}
}

func categoryMap(categories ...*models.Category) map[int64]*models.Category {
	byID := make(map[int64]*models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID
}

func pubObservation(props models.Properties) *models.Observation {
	return &models.Observation{
		CategoryID: 1,
		Status:     models.ObservationActive,
		Properties: props,
		CreatedAt:  time.Date(2016, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func compileRules(t *testing.T, rules []models.SubsetRule) *Predicate {
	t.Helper()

	pred, err := Compile(&models.Subset{Rules: rules}, categoryMap(pubsCategory()))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return pred
}

func TestNumericRangeRule(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"rating": map[string]interface{}{"minval": float64(4)}},
	}})

	ratings := map[float64]bool{2: false, 4: true, 5: true}
	matched := 0
	for rating, want := range ratings {
		got := pred.Matches(pubObservation(models.Properties{"rating": rating}))
		if got != want {
			t.Errorf("rating %v: matches = %v, want %v", rating, got, want)
		}
		if got {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("expected 2 of 3 observations to match, got %d", matched)
	}
}

func TestTextRuleIsCaseInsensitiveSubstring(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"name": "graft"},
	}})

	if !pred.Matches(pubObservation(models.Properties{"name": "The Grafton Arms"})) {
		t.Error("expected substring match regardless of case")
	}
	if pred.Matches(pubObservation(models.Properties{"name": "The Lamb"})) {
		t.Error("expected no match for unrelated name")
	}
	if pred.Matches(pubObservation(models.Properties{})) {
		t.Error("expected no match when the property is absent")
	}
}

func TestBooleanAndLookupRules(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		Constraints: map[string]interface{}{
			"child_friendly": true,
			"type":           []interface{}{float64(1)},
		},
	}})

	matching := models.Properties{"child_friendly": true, "type": float64(1)}
	if !pred.Matches(pubObservation(matching)) {
		t.Error("expected observation matching all constraints to pass")
	}

	wrongLookup := models.Properties{"child_friendly": true, "type": float64(2)}
	if pred.Matches(pubObservation(wrongLookup)) {
		t.Error("expected AND semantics across field constraints")
	}
}

func TestMultipleLookupIntersects(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"features": []interface{}{float64(21), float64(23)}},
	}})

	if !pred.Matches(pubObservation(models.Properties{"features": []int64{22, 23}})) {
		t.Error("expected match when sets intersect")
	}
	if pred.Matches(pubObservation(models.Properties{"features": []int64{22}})) {
		t.Error("expected no match for disjoint sets")
	}
}

func TestDateBoundsOnCreatedAt(t *testing.T) {
	minDate := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		MinDate:    &minDate,
		MaxDate:    &maxDate,
	}})

	inside := pubObservation(models.Properties{})
	if !pred.Matches(inside) {
		t.Error("expected observation inside date bounds to match")
	}

	outside := pubObservation(models.Properties{})
	outside.CreatedAt = time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	if pred.Matches(outside) {
		t.Error("expected observation before min_date not to match")
	}
}

func TestRulesCombineWithOr(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{
		{CategoryID: 1, Constraints: map[string]interface{}{"name": "grafton"}},
		{CategoryID: 1, Constraints: map[string]interface{}{"rating": map[string]interface{}{"minval": float64(4)}}},
	})

	if !pred.Matches(pubObservation(models.Properties{"name": "Grafton", "rating": float64(1)})) {
		t.Error("expected first rule to match")
	}
	if !pred.Matches(pubObservation(models.Properties{"name": "Lamb", "rating": float64(5)})) {
		t.Error("expected second rule to match")
	}
	if pred.Matches(pubObservation(models.Properties{"name": "Lamb", "rating": float64(1)})) {
		t.Error("expected no rule to match")
	}
}

func TestWrongCategoryNeverMatches(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{CategoryID: 1}})

	other := pubObservation(models.Properties{})
	other.CategoryID = 99
	if pred.Matches(other) {
		t.Error("expected category mismatch to fail the rule")
	}
}

func TestEmptyPredicateMatchesNothing(t *testing.T) {
	pred := compileRules(t, nil)

	if pred.Matches(pubObservation(models.Properties{})) {
		t.Error("expected predicate without rules to match nothing")
	}

	clause, args := pred.SQL()
	if clause != "(1 = 0)" {
		t.Errorf("expected impossible clause, got %q", clause)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestCompileRejectsUnknownField(t *testing.T) {
	_, err := Compile(&models.Subset{Rules: []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"nope": "x"},
	}}}, categoryMap(pubsCategory()))

	if err == nil {
		t.Error("expected error for unknown field key, got nil")
	}
}

func TestCompileRejectsMismatchedSpec(t *testing.T) {
	badSpecs := map[string]interface{}{
		"rating":         "not-an-object",
		"child_friendly": "yes",
		"type":           "1",
	}

	for key, spec := range badSpecs {
		_, err := Compile(&models.Subset{Rules: []models.SubsetRule{{
			CategoryID:  1,
			Constraints: map[string]interface{}{key: spec},
		}}}, categoryMap(pubsCategory()))
		if err == nil {
			t.Errorf("expected error for malformed %s constraint, got nil", key)
		}
	}
}

func TestSQLNumericRange(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		Constraints: map[string]interface{}{
			"rating": map[string]interface{}{"minval": float64(0), "maxval": float64(5)},
		},
	}})

	clause, args := pred.SQL()
	want := "(((o.category_id = ?) AND " +
		"((TRY_CAST(json_extract_string(o.properties, '$.rating') AS DOUBLE) >= ?) AND " +
		"(TRY_CAST(json_extract_string(o.properties, '$.rating') AS DOUBLE) <= ?))))"
	if clause != want {
		t.Errorf("clause mismatch:\n got %s\nwant %s", clause, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d: %v", len(args), args)
	}
	if args[0] != int64(1) || args[1] != float64(0) || args[2] != float64(5) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestSQLTextAndLookup(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		Constraints: map[string]interface{}{
			"name": "Graft",
		},
	}})

	clause, args := pred.SQL()
	want := "(((o.category_id = ?) AND " +
		"(lower(json_extract_string(o.properties, '$.name')) LIKE ?)))"
	if clause != want {
		t.Errorf("clause mismatch:\n got %s\nwant %s", clause, want)
	}
	if args[1] != "%graft%" {
		t.Errorf("expected lowered needle arg, got %v", args[1])
	}
}

func TestEvalAndSQLAgreeOnBounds(t *testing.T) {
	// The same compiled rule drives both evaluations; this exercises the
	// in-memory side at the inclusive boundaries the SQL side encodes.
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		Constraints: map[string]interface{}{
			"rating": map[string]interface{}{"minval": float64(0), "maxval": float64(5)},
		},
	}})

	for rating, want := range map[float64]bool{-0.5: false, 0: true, 5: true, 5.5: false} {
		if got := pred.Matches(pubObservation(models.Properties{"rating": rating})); got != want {
			t.Errorf("rating %v: matches = %v, want %v", rating, got, want)
		}
	}
}

func TestDateTimeConstraintNormalisation(t *testing.T) {
	pred := compileRules(t, []models.SubsetRule{{
		CategoryID: 1,
		Constraints: map[string]interface{}{
			"opened": map[string]interface{}{"minval": "2016-01-01 00:00"},
		},
	}})

	if !pred.Matches(pubObservation(models.Properties{"opened": "2016-06-01T00:00:00Z"})) {
		t.Error("expected datetime after minval to match")
	}
	if pred.Matches(pubObservation(models.Properties{"opened": "2015-06-01T00:00:00Z"})) {
		t.Error("expected datetime before minval not to match")
	}
}

func TestIntersectionIsMonotone(t *testing.T) {
	// For a user in two groups the visible set is the intersection of the
	// per-group sets: an observation is visible iff both predicates match.
	predA := compileRules(t, []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"rating": map[string]interface{}{"minval": float64(3)}},
	}})
	predB := compileRules(t, []models.SubsetRule{{
		CategoryID:  1,
		Constraints: map[string]interface{}{"child_friendly": true},
	}})

	observations := []*models.Observation{
		pubObservation(models.Properties{"rating": float64(4), "child_friendly": true}),
		pubObservation(models.Properties{"rating": float64(4), "child_friendly": false}),
		pubObservation(models.Properties{"rating": float64(1), "child_friendly": true}),
	}

	var both int
	for _, obs := range observations {
		inA, inB := predA.Matches(obs), predB.Matches(obs)
		visible := inA && inB
		if visible {
			both++
		}
		if visible && (!inA || !inB) {
			t.Error("intersection must be a subset of each per-group set")
		}
	}
	if both != 1 {
		t.Errorf("expected exactly 1 observation in the intersection, got %d", both)
	}
}
