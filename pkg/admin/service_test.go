package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/repository"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *echo.Echo, oauth.PendingStore) {
	t.Helper()

	pending := oauth.NewMemoryPendingStore(time.Minute)
	t.Cleanup(pending.Stop)

	svc := NewService(types.AdminConfig{Enabled: true, SessionKey: "test-secret"}, "admintok", repository.NewMemoryBackend(), pending)
	e := echo.New()
	svc.RegisterRoutes(e)
	return svc, e, pending
}

func login(t *testing.T, e *echo.Echo, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"token":"`+token+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	_, e, _ := newTestService(t)

	rec := login(t, e, "admintok")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginRejectsWrongToken(t *testing.T) {
	_, e, _ := newTestService(t)

	rec := login(t, e, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDisabledWithoutToken(t *testing.T) {
	pending := oauth.NewMemoryPendingStore(time.Minute)
	t.Cleanup(pending.Stop)

	svc := NewService(types.AdminConfig{Enabled: true}, "", repository.NewMemoryBackend(), pending)
	e := echo.New()
	svc.RegisterRoutes(e)

	rec := login(t, e, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIRequiresSession(t *testing.T) {
	_, e, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/connections", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConnectionsListAndDelete(t *testing.T) {
	svc, e, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.backend.SaveConnection(ctx, "+14155550100", &types.DriveCredentials{RefreshToken: "r1"})
	require.NoError(t, err)

	cookie := sessionCookie(t, login(t, e, "admintok"))

	req := httptest.NewRequest(http.MethodGet, "/admin/api/connections", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var connections []types.DriveConnection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &connections))
	require.Len(t, connections, 1)
	assert.Equal(t, "+14155550100", connections[0].UserId)

	// Credential blobs must never serialize
	assert.NotContains(t, rec.Body.String(), "r1")

	req = httptest.NewRequest(http.MethodDelete, "/admin/api/connections/+14155550100", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	conn, err := svc.backend.GetConnection(ctx, "+14155550100")
	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestDeleteConnectionNotFound(t *testing.T) {
	_, e, _ := newTestService(t)
	cookie := sessionCookie(t, login(t, e, "admintok"))

	req := httptest.NewRequest(http.MethodDelete, "/admin/api/connections/ghost", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusCountsPendingAuthorizations(t *testing.T) {
	_, e, pending := newTestService(t)
	ctx := context.Background()

	require.NoError(t, pending.Put(ctx, "tok1", "userA"))
	require.NoError(t, pending.Put(ctx, "tok2", "userB"))

	cookie := sessionCookie(t, login(t, e, "admintok"))

	req := httptest.NewRequest(http.MethodGet, "/admin/api/status", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Backend)
	assert.Equal(t, 2, status.PendingAuthorizations)
}

func TestSessionValidation(t *testing.T) {
	manager := NewSessionManager("secret")

	token, err := manager.Create("operator")
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)

	// A token signed with a different key must not validate
	other := NewSessionManager("other-secret")
	_, err = other.Validate(token)
	assert.Error(t, err)
}
