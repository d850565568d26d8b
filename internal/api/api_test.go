// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/geokey/geokey/internal/auth"
	"github.com/geokey/geokey/internal/config"
	"github.com/geokey/geokey/internal/database"
	"github.com/geokey/geokey/internal/models"
)

type fixture struct {
	router  http.Handler
	db      *database.DB
	manager *auth.JWTManager

	admin       *models.User
	contributor *models.User

	project  *models.Project
	category *models.Category
}

func testFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1},
		API:      config.APIConfig{DefaultLimit: 50, MaxLimit: 1000},
		Auth: config.AuthConfig{
			JWTSecret:     "0123456789abcdef0123456789abcdef",
			TokenLifetime: time.Hour,
		},
		Media: config.MediaConfig{Dir: t.TempDir(), MaxUploadBytes: 1 << 20},
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Skipf("DuckDB unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	manager, err := auth.NewJWTManager(&cfg.Auth)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	f := &fixture{
		router:  NewRouter(cfg, db, manager),
		db:      db,
		manager: manager,
	}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := t.Context()
	now := time.Now().UTC()

	f.admin = &models.User{DisplayName: "alice", CreatedAt: now}
	f.contributor = &models.User{DisplayName: "bob", CreatedAt: now}
	for _, user := range []*models.User{f.admin, f.contributor} {
		if err := f.db.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	f.project = &models.Project{
		Name:         "Pubs of Camden",
		IsPrivate:    false,
		Status:       models.StatusActive,
		Contributing: models.ContributingEveryone,
		CreatorID:    f.admin.ID,
		CreatedAt:    now,
	}
	if err := f.db.CreateProject(ctx, f.project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	f.category = &models.Category{
		ProjectID:     f.project.ID,
		Name:          "Pubs",
		Status:        models.StatusActive,
		DefaultStatus: models.DefaultActive,
		Colour:        "#0033ff",
		CreatorID:     f.admin.ID,
		CreatedAt:     now,
	}
	if err := f.db.CreateCategory(ctx, f.category); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	zero, five := 0.0, 5.0
	fields := []*models.Field{
		{CategoryID: f.category.ID, Name: "Name", Key: "name", Type: models.FieldText,
			Required: true, Status: models.StatusActive, Order: 0},
		{CategoryID: f.category.ID, Name: "Child Friendly", Key: "child_friendly",
			Type: models.FieldTrueFalse, Status: models.StatusActive, Order: 1},
		{CategoryID: f.category.ID, Name: "Rating", Key: "rating", Type: models.FieldNumeric,
			Status: models.StatusActive, Order: 2, MinVal: &zero, MaxVal: &five},
	}
	for _, field := range fields {
		if err := f.db.CreateField(ctx, field); err != nil {
			t.Fatalf("CreateField failed: %v", err)
		}
	}
}

func (f *fixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := f.manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return token
}

func (f *fixture) request(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func featureBody(categoryID int64, lon, lat float64, props string) string {
	return fmt.Sprintf(`{
		"type": "Feature",
		"geometry": {"type":"Point","coordinates":[%g,%g]},
		"properties": %s,
		"meta": {"category": %d}
	}`, lon, lat, props, categoryID)
}

func (f *fixture) observationsPath(suffix string) string {
	return fmt.Sprintf("/api/projects/%d/observations%s", f.project.ID, suffix)
}

type wireFeature struct {
	Type       string                 `json:"type"`
	ID         int64                  `json:"id"`
	Properties map[string]interface{} `json:"properties"`
	Meta       struct {
		Category int64  `json:"category"`
		Status   string `json:"status"`
		Version  int    `json:"version"`
	} `json:"meta"`
	DisplayField string `json:"display_field"`
}

type wireCollection struct {
	Type     string        `json:"type"`
	Features []wireFeature `json:"features"`
}

func TestCreateAndGetObservation(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	body := featureBody(f.category.ID, -0.134, 51.524,
		`{"name":"Grafton","child_friendly":false,"rating":3}`)
	rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created wireFeature
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Meta.Version != 1 || created.Meta.Status != "active" {
		t.Errorf("meta = %+v, want version 1 active", created.Meta)
	}
	if created.DisplayField != "name:Grafton" {
		t.Errorf("display_field = %q", created.DisplayField)
	}

	rec = f.request(t, http.MethodGet, f.observationsPath(fmt.Sprintf("/%d", created.ID)), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Grafton"`) {
		t.Errorf("get body = %s", rec.Body.String())
	}
}

func TestCreateObservationValidation(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	body := featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton","rating":7}`)
	rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "rating") {
		t.Errorf("error body should name the rating field: %s", rec.Body.String())
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	rec := f.request(t, http.MethodPost, f.observationsPath(""),
		featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton","rating":3}`), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created wireFeature
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	patch := fmt.Sprintf(`{"type":"Feature","properties":{"rating":4},"meta":{"version":1,"category":%d}}`,
		f.category.ID)
	path := f.observationsPath(fmt.Sprintf("/%d", created.ID))

	rec = f.request(t, http.MethodPatch, path, patch, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("first patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Same stale version again must conflict.
	rec = f.request(t, http.MethodPatch, path, patch, token)
	if rec.Code != http.StatusConflict {
		t.Errorf("second patch status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, path+"/history", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history []models.HistoricalObservation
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history has %d rows, want create + change", len(history))
	}
}

func TestSubsetFiltersListing(t *testing.T) {
	f := testFixture(t)
	adminToken := f.token(t, f.admin)
	token := f.token(t, f.contributor)

	for i, rating := range []int{2, 4, 5} {
		body := featureBody(f.category.ID, -0.134, 51.524,
			fmt.Sprintf(`{"name":"Pub %d","rating":%d}`, i, rating))
		if rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token); rec.Code != http.StatusCreated {
			t.Fatalf("create %d status = %d", i, rec.Code)
		}
	}

	subsetBody := fmt.Sprintf(`{
		"name": "Well rated",
		"rules": [{"category": %d, "constraints": {"rating": {"minval": 4}}}]
	}`, f.category.ID)
	rec := f.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/subsets", f.project.ID), subsetBody, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subset status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.Subset
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode subset: %v", err)
	}

	rec = f.request(t, http.MethodGet,
		f.observationsPath(fmt.Sprintf("?subset=%d", created.ID)), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var collection wireCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &collection); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if len(collection.Features) != 2 {
		t.Errorf("filtered listing has %d features, want 2", len(collection.Features))
	}
}

func TestSubsetRejectsLegacyFilterShape(t *testing.T) {
	f := testFixture(t)
	adminToken := f.token(t, f.admin)

	body := fmt.Sprintf(`{
		"name": "Legacy",
		"rules": [{"category": %d, "filters": {"rating": {"minval": 4}}}]
	}`, f.category.ID)
	rec := f.request(t, http.MethodPost,
		fmt.Sprintf("/api/projects/%d/subsets", f.project.ID), body, adminToken)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestBBoxFiltering(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	rec := f.request(t, http.MethodGet, f.observationsPath("?bbox=garbage"), "", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage bbox status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "(e.g:bbox=xmin,ymin,xmax,ymax)") {
		t.Errorf("error body should carry the bbox usage hint: %s", rec.Body.String())
	}

	if !f.db.SpatialAvailable() {
		t.Skip("spatial extension unavailable")
	}

	inside := featureBody(f.category.ID, -0.15, 51.55, `{"name":"Inside"}`)
	outside := featureBody(f.category.ID, 0.5, 52.5, `{"name":"Outside"}`)
	for _, body := range []string{inside, outside} {
		if rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token); rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec = f.request(t, http.MethodGet, f.observationsPath("?bbox=-0.2,51.5,-0.1,51.6"), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("bbox list status = %d, body %s", rec.Code, rec.Body.String())
	}
	var collection wireCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &collection); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if len(collection.Features) != 1 {
		t.Fatalf("bbox listing has %d features, want 1", len(collection.Features))
	}
	if collection.Features[0].Properties["name"] != "Inside" {
		t.Errorf("bbox kept %v", collection.Features[0].Properties)
	}
}

func TestCommentReviewCycle(t *testing.T) {
	f := testFixture(t)
	adminToken := f.token(t, f.admin)
	token := f.token(t, f.contributor)

	rec := f.request(t, http.MethodPost, f.observationsPath(""),
		featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton"}`), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created wireFeature
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	base := f.observationsPath(fmt.Sprintf("/%d", created.ID))

	rec = f.request(t, http.MethodPost, base+"/comments",
		`{"text":"is this still open?","review_status":"open"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment status = %d, body %s", rec.Code, rec.Body.String())
	}
	var comment models.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &comment); err != nil {
		t.Fatalf("decode comment: %v", err)
	}

	rec = f.request(t, http.MethodGet, base, "", token)
	var current wireFeature
	if err := json.Unmarshal(rec.Body.Bytes(), &current); err != nil {
		t.Fatalf("decode observation: %v", err)
	}
	if current.Meta.Status != "review" {
		t.Fatalf("status after open review = %q, want review", current.Meta.Status)
	}

	// Contributors cannot resolve reviews.
	rec = f.request(t, http.MethodPost,
		fmt.Sprintf("%s/comments/%d/resolve", base, comment.ID), "", token)
	if rec.Code != http.StatusForbidden {
		t.Errorf("contributor resolve status = %d, want 403", rec.Code)
	}

	rec = f.request(t, http.MethodPost,
		fmt.Sprintf("%s/comments/%d/resolve", base, comment.ID), "", adminToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("resolve status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, base, "", token)
	if err := json.Unmarshal(rec.Body.Bytes(), &current); err != nil {
		t.Fatalf("decode observation: %v", err)
	}
	if current.Meta.Status != "active" {
		t.Errorf("status after resolve = %q, want active", current.Meta.Status)
	}
}

func TestAnonymousSeesActiveOnly(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	body := featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton"}`)
	if rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	draft := `{"type":"Feature","geometry":{"type":"Point","coordinates":[-0.1,51.5]},` +
		fmt.Sprintf(`"properties":{"name":"Draft"},"meta":{"category":%d,"status":"draft"}}`, f.category.ID)
	if rec := f.request(t, http.MethodPost, f.observationsPath(""), draft, token); rec.Code != http.StatusCreated {
		t.Fatalf("create draft status = %d", rec.Code)
	}

	rec := f.request(t, http.MethodGet, f.observationsPath(""), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous list status = %d", rec.Code)
	}
	var collection wireCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &collection); err != nil {
		t.Fatalf("decode collection: %v", err)
	}
	if len(collection.Features) != 1 {
		t.Errorf("anonymous sees %d features, want 1", len(collection.Features))
	}
}

func TestKMLExport(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	body := featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton","rating":3}`)
	if rec := f.request(t, http.MethodPost, f.observationsPath(""), body, token); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := f.request(t, http.MethodGet, f.observationsPath("?format=kml"), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("kml status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.google-earth.kml+xml" {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "<Placemark>") {
		t.Errorf("kml body missing placemark: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<name>Grafton</name>") {
		t.Errorf("kml body missing placemark name: %s", rec.Body.String())
	}
}

func TestMediaLifecycle(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	rec := f.request(t, http.MethodPost, f.observationsPath(""),
		featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton"}`), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created wireFeature
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	mediaPath := f.observationsPath(fmt.Sprintf("/%d/media", created.ID))

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "front.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write([]byte("not really a jpeg")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := form.WriteField("name", "Front of the pub"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, mediaPath, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", form.FormDataContentType())
	upload := httptest.NewRecorder()
	f.router.ServeHTTP(upload, req)
	if upload.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", upload.Code, upload.Body.String())
	}
	var media models.MediaFile
	if err := json.Unmarshal(upload.Body.Bytes(), &media); err != nil {
		t.Fatalf("decode media: %v", err)
	}

	rec = f.request(t, http.MethodGet, mediaPath, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list media status = %d", rec.Code)
	}
	var files []models.MediaFile
	if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
		t.Fatalf("decode media list: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("media list has %d files, want 1", len(files))
	}

	deletePath := fmt.Sprintf("%s/%d", mediaPath, media.ID)
	rec = f.request(t, http.MethodDelete, deletePath, "", f.token(t, f.contributor))
	if rec.Code != http.StatusNoContent {
		t.Errorf("author delete status = %d, want 204; body %s", rec.Code, rec.Body.String())
	}
}

func TestSchemaManagement(t *testing.T) {
	f := testFixture(t)
	adminToken := f.token(t, f.admin)
	base := fmt.Sprintf("/api/projects/%d/categories", f.project.ID)

	rec := f.request(t, http.MethodPost, base,
		`{"name":"Benches","colour":"#00aa00","default_status":"active"}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body %s", rec.Code, rec.Body.String())
	}
	var category models.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &category); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	rec = f.request(t, http.MethodPost, base, `{"name":"Nope"}`, f.token(t, f.contributor))
	if rec.Code != http.StatusForbidden {
		t.Errorf("contributor create status = %d, want 403", rec.Code)
	}

	fieldsPath := fmt.Sprintf("%s/%d/fields", base, category.ID)
	rec = f.request(t, http.MethodPost, fieldsPath,
		`{"name":"Condition","key":"condition","fieldtype":"LookupField","lookupvalues":["good","worn","broken"]}`,
		adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create field status = %d, body %s", rec.Code, rec.Body.String())
	}
	var field models.Field
	if err := json.Unmarshal(rec.Body.Bytes(), &field); err != nil {
		t.Fatalf("decode field: %v", err)
	}
	if len(field.LookupValues) != 3 {
		t.Errorf("lookup values = %d, want 3", len(field.LookupValues))
	}

	// Field keys are lowercase identifiers.
	rec = f.request(t, http.MethodPost, fieldsPath,
		`{"name":"Bad","key":"Bad Key","fieldtype":"TextField"}`, adminToken)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad key status = %d, want 400", rec.Code)
	}

	// Expiry references must point at a DateTime field.
	rec = f.request(t, http.MethodPatch, fmt.Sprintf("%s/%d", base, category.ID),
		fmt.Sprintf(`{"expiry_field":%d}`, field.ID), adminToken)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-datetime expiry status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, fieldsPath,
		`{"name":"Installed","key":"installed","fieldtype":"DateTimeField"}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create datetime field status = %d", rec.Code)
	}
	var installed models.Field
	if err := json.Unmarshal(rec.Body.Bytes(), &installed); err != nil {
		t.Fatalf("decode field: %v", err)
	}

	rec = f.request(t, http.MethodPatch, fmt.Sprintf("%s/%d", base, category.ID),
		fmt.Sprintf(`{"display_field":%d,"expiry_field":%d}`, field.ID, installed.ID), adminToken)
	if rec.Code != http.StatusOK {
		t.Errorf("set refs status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPrivateProjectMaskedAsNotFound(t *testing.T) {
	f := testFixture(t)
	ctx := t.Context()

	private := &models.Project{
		Name:      "Private survey",
		IsPrivate: true,
		Status:    models.StatusActive,
		CreatorID: f.admin.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.db.CreateProject(ctx, private); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	rec := f.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/observations", private.ID), "", f.token(t, f.contributor))
	if rec.Code != http.StatusNotFound {
		t.Errorf("non-member status = %d, want 404", rec.Code)
	}

	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/observations", private.ID), "", f.token(t, f.admin))
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}

	// Group membership grants view on the private project.
	group := &models.UserGroup{
		ProjectID:     private.ID,
		Name:          "Surveyors",
		CanContribute: true,
	}
	if err := f.db.CreateUserGroup(ctx, group); err != nil {
		t.Fatalf("CreateUserGroup failed: %v", err)
	}
	if err := f.db.AddGroupMember(ctx, group.ID, f.contributor.ID); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}

	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/observations", private.ID), "", f.token(t, f.contributor))
	if rec.Code != http.StatusOK {
		t.Errorf("member status = %d, want 200", rec.Code)
	}

	if err := f.db.RemoveGroupMember(ctx, group.ID, f.contributor.ID); err != nil {
		t.Fatalf("RemoveGroupMember failed: %v", err)
	}
	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/observations", private.ID), "", f.token(t, f.contributor))
	if rec.Code != http.StatusNotFound {
		t.Errorf("removed member status = %d, want 404", rec.Code)
	}
}

func TestAccessTokenAuthentication(t *testing.T) {
	f := testFixture(t)
	ctx := t.Context()

	if _, err := f.db.CreateAccessToken(ctx, f.contributor.ID, "field tablet", "sekrit-token"); err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}

	body := featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton"}`)
	req := httptest.NewRequest(http.MethodPost, f.observationsPath(""), strings.NewReader(body))
	req.Header.Set("Authorization", fmt.Sprintf("Token %d:sekrit-token", f.contributor.ID))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("token auth create status = %d, body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, f.observationsPath(""), strings.NewReader(body))
	req.Header.Set("Authorization", fmt.Sprintf("Token %d:wrong", f.contributor.ID))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestListLocations(t *testing.T) {
	f := testFixture(t)
	token := f.token(t, f.contributor)

	rec := f.request(t, http.MethodPost, f.observationsPath(""),
		featureBody(f.category.ID, -0.134, 51.524, `{"name":"Grafton"}`), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec = f.request(t, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/locations", f.project.ID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list locations status = %d", rec.Code)
	}
	var locations []models.Location
	if err := json.Unmarshal(rec.Body.Bytes(), &locations); err != nil {
		t.Fatalf("decode locations: %v", err)
	}
	if len(locations) != 1 {
		t.Errorf("locations = %d, want 1", len(locations))
	}
}
