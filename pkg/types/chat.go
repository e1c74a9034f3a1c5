package types

import "strings"

// InboundMessage is a single message delivered by the transport webhook,
// normalized to what the assistant core consumes.
type InboundMessage struct {
	UserID        string      // canonical sender identity, see CanonicalUserID
	SenderName    string      // display name if the transport supplies one
	Body          string      // raw message text
	HasAttachment bool        // true when the message carries media
	Attachment    *Attachment // set only when HasAttachment is true
}

// Attachment references transport-hosted media attached to a message.
// The bytes live on the transport's servers until fetched.
type Attachment struct {
	URL         string
	ContentType string
	Filename    string // original filename when known, may be empty
}

// CanonicalUserID derives the stable user identity from a transport sender
// address. There is exactly one derivation: strip the channel scheme prefix
// (e.g. "whatsapp:") and surrounding whitespace, keep everything else
// verbatim. Session keys, pending-authorization entries, and credential rows
// all use this form.
func CanonicalUserID(sender string) string {
	s := strings.TrimSpace(sender)
	if i := strings.IndexByte(s, ':'); i > 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
