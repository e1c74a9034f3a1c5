package assistant

import (
	"fmt"
	"strings"

	"github.com/beam-cloud/satchel/pkg/drive"
)

// Fixed gate replies. Every deflection names the exact corrective command so
// the user never has to guess what to send next.
const (
	// ReplyEmptyBody answers a message with no text at all
	ReplyEmptyBody = "Please send a command (e.g., LIST/Reports or SETUP)."

	// ReplyNotConnected deflects any Drive command from a user with no
	// credential on file
	ReplyNotConnected = "Your Drive is not connected. Please send the command 'SETUP' to link your Google Drive first."

	// ReplyReconnect is sent after the stored credential was rejected and cleared
	ReplyReconnect = "Error connecting to your Drive: Your token may be expired or revoked. Please send 'SETUP' again to reconnect your Drive."

	// ReplySetupNotConfigured answers SETUP when the OAuth client is missing
	// its client id, secret, or redirect URL
	ReplySetupNotConfigured = "Error initiating setup. Google OAuth is not configured. Check the drive clientId, clientSecret, and redirectUrl settings."

	// ReplySummaryUnavailable answers SUMMARY when no model API key is set
	ReplySummaryUnavailable = "AI summarization service is not configured (OPENAI_API_KEY missing)."
)

// ReplySetupLink renders the connect instructions around an authorization URL
func ReplySetupLink(authURL string) string {
	return fmt.Sprintf(
		"Please click the link below to securely connect your Google Drive.\n\n"+
			"1. Click: %s\n"+
			"2. Log in and Grant Permissions.\n\n"+
			"After authorization, you can use all commands.", authURL)
}

// ReplyUnknownCommand names the rejected keyword and lists the valid ones
func ReplyUnknownCommand(keyword string) string {
	return fmt.Sprintf("Unknown command: %s. Available commands: LIST, DELETE, MOVE, SUMMARY, RENAME, UPLOAD, SETUP.", keyword)
}

// RenderList formats a folder listing for chat display. Ordering comes from
// the query (folders sort before files); folders render bold with a trailing
// slash.
func RenderList(path string, files []*drive.File) string {
	if len(files) == 0 {
		return fmt.Sprintf("📂 Folder /%s is empty.", path)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📂 *Contents of /%s:*\n", path)
	for _, f := range files {
		if f.IsFolder {
			fmt.Fprintf(&b, "  > *%s/*\n", f.Name)
		} else {
			fmt.Fprintf(&b, "  - %s\n", f.Name)
		}
	}
	return b.String()
}
