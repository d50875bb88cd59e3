package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance-market/internal/core/config"
	"freelance-market/internal/domain"
)

var permissive = config.Market{AllowRequesterSelfAssign: true}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, permissive)
	code, _ := s.json(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `market_http_requests_total{engine="api",method="GET",path="/health",status="200"}`)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, permissive)
	code, env := s.json(http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": "alice", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 400, env.Code)
	assert.Contains(t, env.Msg, "email must be a valid email")
	assert.Contains(t, env.Msg, "password must have minimum length 6")

	s.register("alice")
	code, env = s.json(http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "username or email already exists", env.Msg)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, permissive)
	s.register("alice")

	code, env := s.json(http.MethodPost, "/api/v1/login", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.NotEmpty(t, decode[tokenOut](t, env).Token)

	code, env = s.json(http.MethodPost, "/api/v1/login", "", map[string]string{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, domain.ErrInvalidCredentials.Error(), env.Msg)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, permissive)
	code, env := s.json(http.MethodGet, "/api/v1/finances", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "missing token", env.Msg)

	code, env = s.json(http.MethodGet, "/api/v1/finances", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid token", env.Msg)
}

func TestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")
	bob, bobID := s.register("bob")

	id := s.createListing(alice, "100")
	path := fmt.Sprintf("/api/v1/services/%d", id)

	code, env := s.json(http.MethodPost, path+"/respond", bob, nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	lv := decode[listingView](t, env)
	assert.Equal(t, "assigned", lv.Status)
	require.NotNil(t, lv.FreelancerID)
	assert.Equal(t, bobID, *lv.FreelancerID)

	code, env = s.json(http.MethodPost, path+"/respond", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code, "already assigned")

	code, env = s.json(http.MethodPatch, path+"/complete", alice, nil)
	assert.Equal(t, http.StatusForbidden, code, env.Msg)

	code, env = s.json(http.MethodPatch, path+"/complete", bob, nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.EqualValues(t, 100, decode[map[string]any](t, env)["balance"])

	code, env = s.json(http.MethodPost, path+"/rate", alice, map[string]float64{"rating": 4.5})
	require.Equal(t, http.StatusOK, code, env.Msg)
	code, env = s.json(http.MethodPost, path+"/rate", alice, map[string]float64{"rating": 3})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.ErrDuplicateRating.Error(), env.Msg)

	code, env = s.json(http.MethodGet, path+"/has-rated", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, decode[map[string]any](t, env)["hasRated"])

	code, env = s.json(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/rating", bobID), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.RatingSummary{Rating: 4.5, Count: 1}, decode[domain.RatingSummary](t, env))

	code, env = s.json(http.MethodPost, "/api/v1/withdraw", bob, map[string]any{"amount": 150})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.ErrInsufficientFunds.Error(), env.Msg)

	code, env = s.json(http.MethodPost, "/api/v1/withdraw", bob, map[string]any{"amount": "30.25"})
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.Equal(t, "processing", decode[txView](t, env).Status)

	code, env = s.json(http.MethodGet, "/api/v1/finances", bob, nil)
	require.Equal(t, http.StatusOK, code)
	fin := decode[map[string]any](t, env)
	assert.Equal(t, 69.75, fin["balance"])
	assert.Equal(t, 100.0, fin["total_earned"])
	txs, ok := fin["transactions"].([]any)
	require.True(t, ok)
	require.Len(t, txs, 1)
	created, _ := txs[0].(map[string]any)["created_at"].(string)
	assert.Len(t, created, len(timeLayout))

	code, env = s.json(http.MethodGet, "/api/v1/my-completed-services", bob, nil)
	require.Equal(t, http.StatusOK, code)
	done := decode[[]map[string]any](t, env)
	require.Len(t, done, 1)
	assert.Equal(t, "alice", done[0]["customerName"])
	assert.Equal(t, "completed", done[0]["status"])
}

func TestListingReads(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")
	id := s.createListing(alice, "42.5")

	code, env := s.json(http.MethodGet, fmt.Sprintf("/api/v1/services/%d", id), "", nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[map[string]any](t, env)
	assert.Equal(t, 42.5, detail["price"])
	assert.Equal(t, "alice", detail["freelancerName"])
	assert.Equal(t, map[string]any{"name": "alice", "email": "alice@example.com"}, detail["customer"])

	code, env = s.json(http.MethodGet, "/api/v1/services/categories", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"design"}, decode[[]string](t, env))

	code, env = s.json(http.MethodGet, "/api/v1/my-services", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]listingView](t, env), 1)

	code, _ = s.json(http.MethodGet, "/api/v1/services/999", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.json(http.MethodGet, "/api/v1/services/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateListingWithImage(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")

	code, env := s.multipart("/api/v1/services", alice, map[string]string{
		"serviceTitle": "Banner", "description": "web banner", "price": "15", "category": "design",
	}, "image", "banner.png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, code, env.Msg)
	lv := decode[listingView](t, env)
	require.True(t, strings.HasPrefix(lv.ImagePath, "/uploads/"))

	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, lv.ImagePath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestCreateListingRejectsBadPrice(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")
	code, env := s.multipart("/api/v1/services", alice, map[string]string{
		"serviceTitle": "x", "description": "y", "price": "free", "category": "z",
	}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "price must be a number", env.Msg)

	code, _ = s.multipart("/api/v1/services", alice, map[string]string{
		"serviceTitle": "x", "description": "y", "price": "0", "category": "z",
	}, "", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLegacyResponses(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")
	id := s.createListing(alice, "10")
	path := fmt.Sprintf("/api/v1/services/%d/responses", id)

	code, env := s.json(http.MethodPost, path, "", map[string]string{"name": "bob"})
	require.Equal(t, http.StatusOK, code, env.Msg)
	code, env = s.json(http.MethodPost, path, "", map[string]string{"name": "carol"})
	require.Equal(t, http.StatusOK, code, env.Msg)
	assert.Equal(t, "bob,carol", decode[map[string]any](t, env)["responses"])

	code, env = s.json(http.MethodPost, path, "", map[string]string{"name": "bob"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, domain.ErrDuplicateResponse.Error(), env.Msg)
}

func TestOverrides(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, _ := s.register("alice")
	id := s.createListing(alice, "10")
	path := fmt.Sprintf("/api/v1/services/%d", id)

	code, env := s.json(http.MethodPatch, path+"/reviews", "", map[string]int{"reviews": 0})
	require.Equal(t, http.StatusOK, code, env.Msg)
	code, _ = s.json(http.MethodPatch, path+"/reviews", "", map[string]int{"reviews": -2})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.json(http.MethodPatch, path+"/status", "", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "service has no worker", env.Msg)
	code, _ = s.json(http.MethodPatch, path+"/status", "", map[string]string{"status": "open"})
	assert.Equal(t, http.StatusOK, code)

	protected := newTestServer(t, config.Market{AllowRequesterSelfAssign: true, ProtectOverrides: true})
	tok, _ := protected.register("alice")
	pid := protected.createListing(tok, "10")
	ppath := fmt.Sprintf("/api/v1/services/%d/status", pid)
	code, _ = protected.json(http.MethodPatch, ppath, "", map[string]string{"status": "open"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = protected.json(http.MethodPatch, ppath, tok, map[string]string{"status": "open"})
	assert.Equal(t, http.StatusOK, code)
}

func TestSelfAssignForbiddenWhenDisabled(t *testing.T) {
	s := newTestServer(t, config.Market{})
	alice, _ := s.register("alice")
	id := s.createListing(alice, "10")
	code, _ := s.json(http.MethodPost, fmt.Sprintf("/api/v1/services/%d/respond", id), alice, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAccountEndpoints(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, aliceID := s.register("alice")
	bob, bobID := s.register("bob")

	code, env := s.json(http.MethodPost, "/api/v1/change-password", alice, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret2", "confirmPassword": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "passwords do not match", env.Msg)
	code, _ = s.json(http.MethodPost, "/api/v1/change-password", alice, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret2", "confirmPassword": "secret2",
	})
	assert.Equal(t, http.StatusOK, code)

	code, env = s.json(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", aliceID), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", decode[map[string]any](t, env)["username"])

	code, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", aliceID), bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.json(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", bobID), bob, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = s.json(http.MethodGet, "/api/v1/finances", bob, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "token of a deleted user")
	assert.Equal(t, "invalid token", env.Msg)
}

func TestWorkerProfile(t *testing.T) {
	s := newTestServer(t, permissive)
	alice, aliceID := s.register("alice")

	code, env := s.json(http.MethodGet, "/api/v1/worker/me", alice, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[map[string]any](t, env)
	assert.Nil(t, me["name"])

	code, env = s.multipart("/api/v1/worker", alice, map[string]string{
		"name": "Alice", "city": "Lviv",
	}, "image", "me.jpg", []byte("jpg"))
	require.Equal(t, http.StatusOK, code, env.Msg)
	me = decode[map[string]any](t, env)
	assert.Equal(t, "Alice", me["name"])
	assert.Equal(t, "Lviv", me["city"])
	assert.Nil(t, me["surname"])

	code, env = s.json(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/avatar", aliceID), "", nil)
	require.Equal(t, http.StatusOK, code)
	img, _ := decode[map[string]any](t, env)["imagePath"].(string)
	assert.True(t, strings.HasPrefix(img, "/uploads/worker_"))
}

func TestAdminEngine(t *testing.T) {
	s := newTestServer(t, permissive)
	user, _ := s.register("alice")
	_, bobID := s.register("bob")

	code, _ := s.adminJSON(http.MethodGet, "/admin/v1/users", user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	ctx := context.Background()
	require.NoError(t, s.deps.Identity.EnsureAdmin(ctx, "root", "root@example.com", "rootpass"))
	adminUser, err := s.deps.Identity.Authenticate(ctx, "root", "rootpass")
	require.NoError(t, err)
	admin, err := s.deps.Identity.IssueToken(adminUser)
	require.NoError(t, err)

	code, env := s.adminJSON(http.MethodGet, "/admin/v1/users?q=b", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Msg)
	out := decode[listUsersOut](t, env)
	assert.EqualValues(t, 1, out.Total)
	assert.Equal(t, "bob", out.Items[0].Username)

	code, _ = s.adminJSON(http.MethodDelete, fmt.Sprintf("/admin/v1/users/%d", bobID), admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.adminJSON(http.MethodDelete, fmt.Sprintf("/admin/v1/users/%d", bobID), admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	id := s.createListing(user, "5")
	code, _ = s.adminJSON(http.MethodPatch, fmt.Sprintf("/admin/v1/services/%d/reviews", id), admin, map[string]int{"reviews": 3})
	assert.Equal(t, http.StatusOK, code)
}
