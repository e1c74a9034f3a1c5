package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateCorrelationToken returns the opaque single-use token that ties a
// setup link to the chat user it was issued for. It travels through the
// OAuth flow as the state parameter.
func GenerateCorrelationToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
