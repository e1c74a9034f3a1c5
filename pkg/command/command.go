// Package command parses raw chat messages into typed file commands.
// Parsing is pure syntax: it never touches the network and never panics on
// malformed input.
package command

import (
	"errors"
	"strings"
)

// Kind identifies which command a message parsed into
type Kind string

const (
	KindConnect   Kind = "connect"
	KindList      Kind = "list"
	KindUpload    Kind = "upload"
	KindDelete    Kind = "delete"
	KindMove      Kind = "move"
	KindRename    Kind = "rename"
	KindSummarize Kind = "summarize"
	KindUnknown   Kind = "unknown"
)

// Command is the parsed form of one inbound message. Only the fields for
// its Kind are set; every set field is non-empty and whitespace-trimmed,
// except Upload.Filename which may be empty when the sender gave no new
// name (the transport then substitutes the attachment's original filename).
type Command struct {
	Kind Kind

	Path         string // List: folder path, may contain nested separators
	Folder       string // Upload, Delete, Summarize
	Filename     string // Upload, Delete, Move
	SourceFolder string // Move
	DestFolder   string // Move
	OldName      string // Rename
	NewName      string // Rename
	Raw          string // Unknown: the original message text
}

// Usage hints returned verbatim as the reply for malformed commands
const (
	UsageList    = "Invalid LIST format. Use: LIST/FolderName"
	UsageDelete  = "Invalid DELETE format. Use: DELETE/FolderName/file.pdf"
	UsageMove    = "Invalid MOVE format. Use: MOVE/SourceFolder/file.pdf/DestFolder"
	UsageRename  = "Invalid RENAME format. Use: RENAME OldFileName.ext NewFileName.ext"
	UsageSummary = "Invalid SUMMARY format. Use: SUMMARY/FolderName"
	UsageUpload  = "Invalid UPLOAD format. Use: UPLOAD/FolderName NewFileName.ext"

	// UploadNeedsAttachment is returned when UPLOAD arrives without media
	UploadNeedsAttachment = "UPLOAD command requires a file attachment."
)

// ParseError describes malformed syntax for a recognized command keyword.
// Reply is the exact user-facing correction hint.
type ParseError struct {
	Keyword string
	Reply   string
}

func (e *ParseError) Error() string {
	return e.Reply
}

// From checks if the given error is a ParseError, copying its fields
func (e *ParseError) From(err error) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		*e = *parseErr
		return true
	}
	return false
}

// Keyword extracts the command keyword from a raw message: the leading run
// of characters up to the first path separator or whitespace, uppercased.
// Returns "" for blank input.
func Keyword(raw string) string {
	s := strings.TrimSpace(raw)
	end := len(s)
	for i, r := range s {
		if r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			end = i
			break
		}
	}
	return strings.ToUpper(s[:end])
}
