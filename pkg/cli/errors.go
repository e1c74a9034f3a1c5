package cli

import (
	"fmt"
	"strings"
)

// errorSuggestions maps error substrings to operator hints. Entries are
// checked in order against the lowercased error text; first match wins.
var errorSuggestions = []struct {
	substring   string
	suggestions []string
}{
	{
		substring: "needs the postgres backend",
		suggestions: []string{
			"Set database.postgres in your config file",
			"Local mode keeps state in memory; token and connection commands need remote mode",
		},
	},
	{
		substring: "connection refused",
		suggestions: []string{
			"Check that postgres and redis are reachable from this host",
			"Verify the addresses with: " + CodeStyle.Render("satchel config show"),
		},
	},
	{
		substring: "password authentication failed",
		suggestions: []string{
			"Verify the postgres credentials in your config",
		},
	},
	{
		substring: "no such file or directory",
		suggestions: []string{
			"Check that the --config path exists",
		},
	},
	{
		substring: "address already in use",
		suggestions: []string{
			"Another process is listening on the configured port",
			"Stop it or change gateway.http.port in your config",
		},
	},
}

// FormatError converts an error to a human-readable message
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return cleanErrorMessage(err.Error())
}

// GetErrorSuggestions returns helpful suggestions for an error
func GetErrorSuggestions(err error) []string {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	for _, entry := range errorSuggestions {
		if strings.Contains(errStr, entry.substring) {
			return entry.suggestions
		}
	}
	return nil
}

// cleanErrorMessage cleans up common error message patterns
func cleanErrorMessage(msg string) string {
	// Remove redundant prefixes
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimPrefix(msg, "Error: ")

	// Clean up wrapped errors
	if strings.Contains(msg, ": ") {
		// For deeply nested errors, just show the most relevant part
		parts := strings.Split(msg, ": ")
		if len(parts) > 3 {
			// Keep first and last parts
			msg = parts[0] + ": " + parts[len(parts)-1]
		}
	}

	return msg
}

// PrintFormattedError prints an error with styling and optional suggestions
func PrintFormattedError(err error) {
	if err == nil {
		return
	}

	fmt.Println()
	PrintErrorMsg(FormatError(err))

	if suggestions := GetErrorSuggestions(err); len(suggestions) > 0 {
		PrintSuggestions("Suggestions:", suggestions)
	}
	fmt.Println()
}
