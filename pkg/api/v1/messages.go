package apiv1

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MessageHandler is the slice of the assistant the webhook dispatches to.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg types.InboundMessage) string
}

// MessagesGroup receives Twilio-style form webhooks and replies inline with
// TwiML. Every accepted message produces exactly one reply message.
type MessagesGroup struct {
	assistant MessageHandler
	config    types.TransportConfig
}

// NewMessagesGroup creates and registers the inbound message webhook.
func NewMessagesGroup(g *echo.Group, assistant MessageHandler, config types.TransportConfig) *MessagesGroup {
	mg := &MessagesGroup{assistant: assistant, config: config}

	g.POST("/webhook", mg.InboundMessage)

	return mg
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// InboundMessage handles one webhook delivery. The transport retries on
// non-2xx, so anything past basic form validation answers 200 with the
// failure encoded as the reply text.
func (mg *MessagesGroup) InboundMessage(c echo.Context) error {
	from := c.FormValue("From")
	if from == "" {
		return ErrorResponse(c, http.StatusBadRequest, "From required")
	}

	userID := types.CanonicalUserID(from)
	numMedia, _ := strconv.Atoi(c.FormValue("NumMedia"))

	msg := types.InboundMessage{
		UserID:     userID,
		SenderName: c.FormValue("ProfileName"),
		Body:       c.FormValue("Body"),
	}
	if numMedia > 0 {
		msg.HasAttachment = true
		msg.Attachment = &types.Attachment{
			URL:         c.FormValue("MediaUrl0"),
			ContentType: c.FormValue("MediaContentType0"),
		}
	}

	log.Info().Str("user_id", userID).Int("num_media", numMedia).Msg("inbound message")

	reply := mg.assistant.HandleMessage(c.Request().Context(), msg)

	return mg.replyTwiML(c, reply)
}

func (mg *MessagesGroup) replyTwiML(c echo.Context, reply string) error {
	body, err := xml.Marshal(twimlResponse{
		Message: truncateReply(reply, mg.config.MaxReplyLength),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode twiml reply")
		return ErrorResponse(c, http.StatusInternalServerError, "failed to encode reply")
	}

	return c.Blob(http.StatusOK, "text/xml", append([]byte(xml.Header), body...))
}

// truncateReply enforces the transport's text message cap; the ellipsis
// counts against the cap so the truncated reply still fits.
func truncateReply(reply string, max int) string {
	if max <= 0 {
		max = types.DefaultMaxReplyLength
	}

	runes := []rune(reply)
	if len(runes) <= max {
		return reply
	}
	return string(runes[:max-1]) + "…"
}
