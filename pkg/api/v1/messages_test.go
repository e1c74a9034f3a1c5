package apiv1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	lastMsg types.InboundMessage
	reply   string
}

func (s *stubHandler) HandleMessage(ctx context.Context, msg types.InboundMessage) string {
	s.lastMsg = msg
	return s.reply
}

func newWebhookEcho(handler MessageHandler, cfg types.TransportConfig) *echo.Echo {
	e := echo.New()
	NewMessagesGroup(e.Group("/messages"), handler, cfg)
	return e
}

func postWebhook(t *testing.T, e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/messages/webhook", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestInboundMessageRepliesTwiML(t *testing.T) {
	handler := &stubHandler{reply: "📂 *Contents of /Reports:*\n- a.pdf"}
	e := newWebhookEcho(handler, types.TransportConfig{})

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "LIST/Reports")

	rec := postWebhook(t, e, form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<Response><Message>")
	assert.Contains(t, rec.Body.String(), "Contents of /Reports")

	// Channel scheme prefix must not leak into the core identity
	assert.Equal(t, "+14155550100", handler.lastMsg.UserID)
	assert.Equal(t, "LIST/Reports", handler.lastMsg.Body)
	assert.False(t, handler.lastMsg.HasAttachment)
}

func TestInboundMessageEscapesReplyForXML(t *testing.T) {
	handler := &stubHandler{reply: "files <new> & old"}
	e := newWebhookEcho(handler, types.TransportConfig{})

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "LIST/x")

	rec := postWebhook(t, e, form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "files &lt;new&gt; &amp; old")
}

func TestInboundMessageCarriesAttachment(t *testing.T) {
	handler := &stubHandler{reply: "ok"}
	e := newWebhookEcho(handler, types.TransportConfig{})

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "UPLOAD/Reports")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://media.example.com/abc")
	form.Set("MediaContentType0", "application/pdf")

	postWebhook(t, e, form)

	require.True(t, handler.lastMsg.HasAttachment)
	require.NotNil(t, handler.lastMsg.Attachment)
	assert.Equal(t, "https://media.example.com/abc", handler.lastMsg.Attachment.URL)
	assert.Equal(t, "application/pdf", handler.lastMsg.Attachment.ContentType)
}

func TestInboundMessageRequiresSender(t *testing.T) {
	e := newWebhookEcho(&stubHandler{reply: "ok"}, types.TransportConfig{})

	rec := postWebhook(t, e, url.Values{"Body": {"LIST/Reports"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInboundMessageTruncatesLongReplies(t *testing.T) {
	handler := &stubHandler{reply: strings.Repeat("x", 64)}
	e := newWebhookEcho(handler, types.TransportConfig{MaxReplyLength: 16})

	form := url.Values{}
	form.Set("From", "whatsapp:+14155550100")
	form.Set("Body", "LIST/Reports")

	rec := postWebhook(t, e, form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), strings.Repeat("x", 15)+"…")
	assert.NotContains(t, rec.Body.String(), strings.Repeat("x", 16))
}

func TestTruncateReply(t *testing.T) {
	assert.Equal(t, "short", truncateReply("short", 10))

	got := truncateReply(strings.Repeat("x", 20), 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))

	// Unset cap falls back to the transport default
	exact := strings.Repeat("y", types.DefaultMaxReplyLength)
	assert.Equal(t, exact, truncateReply(exact, 0))
}
