package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/services/auth"
	"github.com/ternarybob/serendib/internal/services/content"
	"github.com/ternarybob/serendib/internal/services/events"
	"github.com/ternarybob/serendib/internal/services/scheduler"
	"github.com/ternarybob/serendib/internal/storage/badger"
)

func newTestAdminHandler(t *testing.T) *AdminHandler {
	t.Helper()
	logger := arbor.NewLogger()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	authService, err := auth.NewService(common.AdminConfig{
		Username:   "admin",
		Password:   "s3cret-pass",
		SessionTTL: "1h",
	}, storage.AdminSessionStorage(), logger)
	require.NoError(t, err)

	eventService := events.NewService(logger)
	t.Cleanup(func() { _ = eventService.Close() })

	return NewAdminHandler(
		authService,
		content.NewService(storage, eventService, logger),
		storage.InquiryStorage(),
		scheduler.NewService(logger),
		newTestRenderer(t),
		false,
		logger,
	)
}

func adminLogin(t *testing.T, h *AdminHandler, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)
	return rec
}

func adminCookie(t *testing.T, h *AdminHandler) *http.Cookie {
	t.Helper()
	rec := adminLogin(t, h, "s3cret-pass")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set the admin cookie")
	return nil
}

func TestAdminHandler_LoginFailure(t *testing.T) {
	h := newTestAdminHandler(t)

	rec := adminLogin(t, h, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAdminHandler_RequireAdmin(t *testing.T) {
	h := newTestAdminHandler(t)
	protected := h.RequireAdmin(h.StatsHandler)

	rec := httptest.NewRecorder()
	protected(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.RequireAdmin(h.DashboardHandler)(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(adminCookie(t, h))
	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminHandler_ContentCRUD(t *testing.T) {
	h := newTestAdminHandler(t)
	cookie := adminCookie(t, h)
	routes := h.RequireAdmin(h.ContentRoutes)

	call := func(method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		routes(rec, req)
		var decoded map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
		return rec, decoded
	}

	rec, created := call(http.MethodPost, "/api/admin/tours", `{"title":"Cultural Triangle","duration_days":6,"price_from":1250}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := created["id"].(string)
	assert.Equal(t, "cultural-triangle", created["slug"])

	rec, body := call(http.MethodGet, "/api/admin/tours", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, updated := call(http.MethodPut, "/api/admin/tours/"+id, `{"title":"Cultural Triangle","duration_days":7,"published":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), updated["duration_days"])

	rec, body = call(http.MethodPost, "/api/admin/tours", `{"title":"X","duration_days":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["fieldErrors"], "title")

	rec, _ = call(http.MethodGet, "/api/admin/spaceships", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(http.MethodDelete, "/api/admin/tours/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(http.MethodGet, "/api/admin/tours/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandler_Logout(t *testing.T) {
	h := newTestAdminHandler(t)
	cookie := adminCookie(t, h)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.LogoutHandler(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.RequireAdmin(h.StatsHandler)(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminHandler_JobsUnknown(t *testing.T) {
	h := newTestAdminHandler(t)

	rec := httptest.NewRecorder()
	h.JobsHandler(rec, httptest.NewRequest(http.MethodPost, "/api/admin/jobs/nope/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.JobsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/admin/jobs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
