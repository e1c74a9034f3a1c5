package apiv1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	completeErr error
	completed   [][2]string
	discarded   []string
}

func (s *stubCompleter) HandleAuthorizationCallback(ctx context.Context, token, code string) error {
	s.completed = append(s.completed, [2]string{token, code})
	return s.completeErr
}

func (s *stubCompleter) DiscardAuthorization(ctx context.Context, token string) {
	s.discarded = append(s.discarded, token)
}

func newCallbackEcho(completer AuthorizationCompleter) *echo.Echo {
	e := echo.New()
	NewOAuthGroup(e.Group("/oauth"), completer)
	return e
}

func getCallback(e *echo.Echo, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback"+query, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCallbackSuccess(t *testing.T) {
	completer := &stubCompleter{}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?state=tok&code=authcode")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Google Drive has been connected")
	require.Len(t, completer.completed, 1)
	assert.Equal(t, [2]string{"tok", "authcode"}, completer.completed[0])
}

func TestCallbackConsumedState(t *testing.T) {
	completer := &stubCompleter{completeErr: &types.ErrAuthorizationExpired{Token: "tok"}}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?state=tok&code=authcode")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Setup timed out or flow context lost")
}

func TestCallbackProviderError(t *testing.T) {
	completer := &stubCompleter{}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?state=tok&error=access_denied")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")

	// The pending entry is spent even though the exchange never ran
	assert.Equal(t, []string{"tok"}, completer.discarded)
	assert.Empty(t, completer.completed)
}

func TestCallbackMissingCode(t *testing.T) {
	completer := &stubCompleter{}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?state=tok")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing authorization code")
	assert.Equal(t, []string{"tok"}, completer.discarded)
}

func TestCallbackMissingState(t *testing.T) {
	completer := &stubCompleter{}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?code=authcode")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Setup timed out or flow context lost")
	assert.Empty(t, completer.completed)
	assert.Empty(t, completer.discarded)
}

func TestCallbackExchangeFailure(t *testing.T) {
	completer := &stubCompleter{completeErr: assert.AnError}
	e := newCallbackEcho(completer)

	rec := getCallback(e, "?state=tok&code=authcode")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token exchange failed")
}
