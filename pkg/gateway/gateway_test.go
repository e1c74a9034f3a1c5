package gateway

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalGateway(t *testing.T, configJSON string) *Gateway {
	t.Helper()

	t.Setenv("CONFIG_JSON", configJSON)

	gw, err := NewGateway()
	require.NoError(t, err)
	t.Cleanup(gw.pendingStore.Stop)

	require.NoError(t, gw.initHTTP())
	require.NoError(t, gw.registerServices())
	return gw
}

func TestLocalGatewayHealth(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLocalGatewayWebhookRoundTrip(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local"}`)

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "PING")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)

	// Local mode with no auth token leaves the webhook open
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown command: PING")
	assert.Contains(t, rec.Body.String(), "<Response><Message>")
}

func TestLocalGatewayWebhookHonorsAuthToken(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local","gateway":{"authToken":"sekret"}}`)

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "LIST/Reports")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/messages/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("Authorization", "Bearer sekret")
	rec = httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLocalGatewaySetupNotConfigured(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local"}`)

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "SETUP")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Google OAuth is not configured")
}

func TestLocalGatewayAdminDisabledByDefault(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local"}`)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/status", nil)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocalGatewayAdminMountedWhenEnabled(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local","admin":{"enabled":true,"sessionKey":"test"},"gateway":{"authToken":"sekret"}}`)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"token":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	gw.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRedirectURLDerivedFromExternalURL(t *testing.T) {
	gw := newLocalGateway(t, `{"mode":"local","gateway":{"http":{"externalUrl":"https://satchel.example.com/"}}}`)

	assert.Equal(t, "https://satchel.example.com/api/v1/oauth/callback", gw.Config.Drive.RedirectURL)
}
