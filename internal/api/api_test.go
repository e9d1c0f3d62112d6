// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cavaks-kitchen/palate/internal/auth"
	"github.com/cavaks-kitchen/palate/internal/cache"
	"github.com/cavaks-kitchen/palate/internal/config"
	"github.com/cavaks-kitchen/palate/internal/logging"
	"github.com/cavaks-kitchen/palate/internal/models"
	"github.com/cavaks-kitchen/palate/internal/recommend"
	palatesync "github.com/cavaks-kitchen/palate/internal/sync"
)

// fakeProvider is an in-memory DataProvider for handler tests.
type fakeProvider struct {
	items    []recommend.Item
	profiles map[string]*recommend.UserProfile
	fail     bool
}

var errProviderDown = &providerError{}

type providerError struct{}

func (*providerError) Error() string { return "provider down" }

func (f *fakeProvider) Items(ctx context.Context) ([]recommend.Item, error) {
	if f.fail {
		return nil, errProviderDown
	}
	active := make([]recommend.Item, 0, len(f.items))
	for _, item := range f.items {
		if item.Active {
			active = append(active, item)
		}
	}
	return active, nil
}

func (f *fakeProvider) ItemByID(ctx context.Context, id string) (*recommend.Item, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, recommend.ErrItemNotFound
}

func (f *fakeProvider) Profile(ctx context.Context, userID string) (*recommend.UserProfile, error) {
	if profile, ok := f.profiles[userID]; ok {
		return profile, nil
	}
	return nil, recommend.ErrUserNotFound
}

func (f *fakeProvider) History(ctx context.Context, userID string) (*recommend.UserHistory, error) {
	return &recommend.UserHistory{}, nil
}

func (f *fakeProvider) Peers(ctx context.Context, excludeUserID string) ([]recommend.PeerUser, error) {
	return nil, nil
}

func (f *fakeProvider) Orders(ctx context.Context) ([]recommend.Order, error) {
	return nil, nil
}

func (f *fakeProvider) PutItem(ctx context.Context, item *recommend.Item) error {
	if f.fail {
		return errProviderDown
	}
	for i := range f.items {
		if f.items[i].ID == item.ID {
			f.items[i] = *item
			return nil
		}
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeProvider) DeleteItem(ctx context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeSync satisfies SyncController without an upstream.
type fakeSync struct {
	triggerErr error
	triggered  bool
	status     models.SyncStatus
}

func (f *fakeSync) TriggerSync(ctx context.Context) error {
	f.triggered = true
	return f.triggerErr
}

func (f *fakeSync) Status(ctx context.Context) models.SyncStatus {
	return f.status
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 5 * time.Second
	cfg.Server.IdleTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Server.Environment = "development"
	cfg.Security.AuthMode = "jwt"
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.RateLimitDisabled = true
	return cfg
}

func testCatalog() []recommend.Item {
	now := time.Now()
	return []recommend.Item{
		{ID: "i1", Name: "Miso Ramen", Category: "mains", Price: 1400, Rating: 4.6, Sales: 210, Active: true, CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "i2", Name: "Yuzu Sorbet", Category: "desserts", Price: 600, Rating: 4.8, Sales: 90, Active: true, CreatedAt: now.AddDate(0, -2, 0)},
		{ID: "i3", Name: "Retired Special", Category: "mains", Price: 2000, Active: false},
	}
}

func newTestServer(t *testing.T, provider *fakeProvider, syncCtl *fakeSync) *Server {
	t.Helper()

	cfg := testConfig()
	engine, err := recommend.NewEngine(provider, recommend.DefaultEngineConfig(), logging.NewTestLogger(nil))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	respCache := cache.New(time.Minute, time.Hour)
	t.Cleanup(respCache.Stop)

	jwtManager, err := auth.NewJWTManager(cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	checker, err := auth.NewCredentialChecker("admin", "correct-horse-battery")
	if err != nil {
		t.Fatalf("NewCredentialChecker: %v", err)
	}

	server, err := NewServer(Options{
		Config:      cfg,
		Engine:      engine,
		Provider:    provider,
		Catalog:     provider,
		Cache:       respCache,
		Sync:        syncCtl,
		JWT:         jwtManager,
		Credentials: checker,
		AuthMW:      auth.NewMiddleware(jwtManager, cfg.Security.AuthMode),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server
}

func doRequest(t *testing.T, server *Server, method, path string, body []byte, header http.Header) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	// Auth middleware rejections are plain-text http.Error responses, not
	// the JSON envelope; callers of those assert on the status code only.
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		return rec, nil
	}

	var envelope models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope from %s %s (status %d): %v", method, path, rec.Code, err)
	}
	return rec, &envelope
}

func decodeRecommendResponse(t *testing.T, envelope *models.APIResponse) *recommend.Response {
	t.Helper()

	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("re-marshaling data: %v", err)
	}
	var resp recommend.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decoding recommendation response: %v", err)
	}
	return &resp
}

func TestHomeEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/home?limit=5", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if envelope.Status != "success" {
		t.Fatalf("envelope status = %q", envelope.Status)
	}

	resp := decodeRecommendResponse(t, envelope)
	if resp.Metadata.Strategy != "aggregate" {
		t.Fatalf("strategy = %q, want aggregate", resp.Metadata.Strategy)
	}
	if len(resp.Recommendations) == 0 {
		t.Fatal("expected recommendations for active catalog")
	}
	for _, r := range resp.Recommendations {
		if r.ID == "i3" {
			t.Fatal("inactive item served")
		}
	}
}

func TestHomeCachesSecondRequest(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	_, first := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/home", nil, nil)
	if first.Metadata.Cached {
		t.Fatal("first request should not be cached")
	}
	_, second := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/home", nil, nil)
	if !second.Metadata.Cached {
		t.Fatal("second request should come from cache")
	}
}

func TestForUserUnknown404(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/user/ghost", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "NOT_FOUND" {
		t.Fatalf("error = %+v, want NOT_FOUND", envelope.Error)
	}
}

func TestForYouKnownUser(t *testing.T) {
	provider := &fakeProvider{
		items: testCatalog(),
		profiles: map[string]*recommend.UserProfile{
			"u1": {ID: "u1", PreferredCategories: []string{"mains"}, AverageSpending: 1500},
		},
	}
	server := newTestServer(t, provider, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/for-you/u1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeRecommendResponse(t, envelope)
	if resp.Metadata.Strategy != "for_you" {
		t.Fatalf("strategy = %q", resp.Metadata.Strategy)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("got %d results, want 2 active items", len(resp.Recommendations))
	}
	if resp.Recommendations[0].ID != "i1" {
		t.Fatalf("top result = %s, want the preferred-category item i1", resp.Recommendations[0].ID)
	}
}

func TestRelatedUnknownItem404(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/related/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLastChanceValidation(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/recommendations/last-chance",
		[]byte(`{"cart":[]}`), http.Header{"Content-Type": []string{"application/json"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", envelope.Error)
	}
}

func TestLastChanceServes(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	body := []byte(`{"cart":[{"item_id":"i1","quantity":2}]}`)
	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/recommendations/last-chance",
		body, http.Header{"Content-Type": []string{"application/json"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeRecommendResponse(t, envelope)
	if resp.Metadata.Strategy != "last_chance" {
		t.Fatalf("strategy = %q", resp.Metadata.Strategy)
	}
	for _, r := range resp.Recommendations {
		if r.ID == "i1" {
			t.Fatal("cart item recommended back to the cart")
		}
	}
}

func TestSeasonalRejectsUnknownSeason(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/seasonal?season=monsoon", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPriceRequiresBudget(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/price", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/price?budget=1400", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeRecommendResponse(t, envelope)
	if resp.Metadata.Strategy != "price_range" {
		t.Fatalf("strategy = %q", resp.Metadata.Strategy)
	}
}

func TestABTestGroupOverride(t *testing.T) {
	provider := &fakeProvider{
		items: testCatalog(),
		profiles: map[string]*recommend.UserProfile{
			"u1": {ID: "u1"},
		},
	}
	server := newTestServer(t, provider, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/abtest/u1?group=A", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeRecommendResponse(t, envelope)
	if resp.Metadata.Group != "A" {
		t.Fatalf("group = %q, want A", resp.Metadata.Group)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/catalog/items", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has unexpected shape: %T", envelope.Data)
	}
	if count, _ := data["count"].(float64); count != 2 {
		t.Fatalf("count = %v, want 2 active items", data["count"])
	}

	// Single-item lookups include inactive items.
	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/catalog/items/i3", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inactive item lookup status = %d, want 200", rec.Code)
	}

	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/catalog/items/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown item status = %d, want 404", rec.Code)
	}
}

func TestProviderFailure500(t *testing.T) {
	server := newTestServer(t, &fakeProvider{fail: true}, &fakeSync{})

	rec, envelope := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/popular", nil, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("error = %+v", envelope.Error)
	}
}

func TestLoginAndAdminFlow(t *testing.T) {
	syncCtl := &fakeSync{status: models.SyncStatus{Enabled: true, ItemCount: 2}}
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, syncCtl)

	// Admin routes reject anonymous callers.
	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/admin/sync", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous admin call status = %d, want 401", rec.Code)
	}

	// Bad credentials are rejected.
	rec, _ = doRequest(t, server, http.MethodPost, "/api/v1/auth/login",
		[]byte(`{"username":"admin","password":"wrong"}`), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", rec.Code)
	}

	// Good credentials mint a token.
	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/auth/login",
		[]byte(`{"username":"admin","password":"correct-horse-battery"}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	raw, _ := json.Marshal(envelope.Data)
	var login models.LoginResponse
	if err := json.Unmarshal(raw, &login); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if login.Token == "" || login.Role != "admin" {
		t.Fatalf("login response = %+v", login)
	}

	authHeader := http.Header{"Authorization": []string{"Bearer " + login.Token}}

	rec, _ = doRequest(t, server, http.MethodPost, "/api/v1/admin/sync", nil, authHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d, want 200", rec.Code)
	}
	if !syncCtl.triggered {
		t.Fatal("sync was not triggered")
	}

	rec, envelope = doRequest(t, server, http.MethodGet, "/api/v1/admin/status", nil, authHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("status data shape: %T", envelope.Data)
	}
	if _, ok := data["cache"]; !ok {
		t.Fatal("status payload missing cache stats")
	}
}

func TestAdminCatalogUpsertAndDelete(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})
	authHeader := http.Header{"Authorization": []string{"Bearer " + adminToken(t, server)}}

	// Warm the cache so the mutation has something to invalidate.
	_, warm := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/home", nil, nil)
	if warm.Metadata.Cached {
		t.Fatal("first home request should not be cached")
	}

	// Anonymous writes are rejected.
	rec, _ := doRequest(t, server, http.MethodPut, "/api/v1/admin/catalog/items/i9",
		[]byte(`{"name":"Dashi Stock","category":"mains","price":900,"active":true}`), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous upsert status = %d, want 401", rec.Code)
	}

	rec, _ = doRequest(t, server, http.MethodPut, "/api/v1/admin/catalog/items/i9",
		[]byte(`{"name":"Dashi Stock","category":"mains","price":900,"active":true}`), authHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// A body carrying a different ID than the URL is rejected.
	rec, _ = doRequest(t, server, http.MethodPut, "/api/v1/admin/catalog/items/i9",
		[]byte(`{"id":"other"}`), authHeader)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched ID status = %d, want 400", rec.Code)
	}

	// The new item is visible through the catalog read-through.
	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/catalog/items/i9", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup after upsert status = %d, want 200", rec.Code)
	}

	// The mutation dropped the cached home response.
	_, fresh := doRequest(t, server, http.MethodGet, "/api/v1/recommendations/home", nil, nil)
	if fresh.Metadata.Cached {
		t.Fatal("home response should be recomputed after a catalog write")
	}

	rec, _ = doRequest(t, server, http.MethodDelete, "/api/v1/admin/catalog/items/i9", nil, authHeader)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doRequest(t, server, http.MethodGet, "/api/v1/catalog/items/i9", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("lookup after delete status = %d, want 404", rec.Code)
	}
}

func TestTriggerSyncDisabledConflict(t *testing.T) {
	syncCtl := &fakeSync{triggerErr: palatesync.ErrSyncDisabled}
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, syncCtl)

	token := adminToken(t, server)
	rec, envelope := doRequest(t, server, http.MethodPost, "/api/v1/admin/sync", nil,
		http.Header{"Authorization": []string{"Bearer " + token}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if envelope.Error == nil || envelope.Error.Code != "SYNC_DISABLED" {
		t.Fatalf("error = %+v", envelope.Error)
	}
}

func TestHealthEndpoint(t *testing.T) {
	syncCtl := &fakeSync{status: models.SyncStatus{Enabled: true, BreakerOpen: true}}
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, syncCtl)

	rec, envelope := doRequest(t, server, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	raw, _ := json.Marshal(envelope.Data)
	var health models.HealthStatus
	if err := json.Unmarshal(raw, &health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if health.Status != "degraded" {
		t.Fatalf("health status = %q, want degraded when breaker open", health.Status)
	}
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	server := newTestServer(t, &fakeProvider{items: testCatalog()}, &fakeSync{})

	rec, _ := doRequest(t, server, http.MethodGet, "/health", nil, nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func adminToken(t *testing.T, server *Server) string {
	t.Helper()
	token, err := server.jwt.GenerateToken("admin", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}
