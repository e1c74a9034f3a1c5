package command

import "strings"

// Parse turns one raw message into a Command. Malformed input for a
// recognized keyword returns a ParseError carrying the usage hint;
// unrecognized input returns the Unknown variant. The error is always a
// *ParseError, never anything else.
//
// Keyword matching is case-insensitive; segment values keep their original
// case. RENAME is handled before any separator splitting because its
// arguments are space-delimited (filenames may contain slashes).
func Parse(raw string, hasAttachment bool) (Command, error) {
	trimmed := strings.TrimSpace(raw)
	keyword := Keyword(trimmed)
	if keyword == "" {
		return Command{Kind: KindUnknown, Raw: raw}, nil
	}

	args := commandArgs(trimmed)

	switch keyword {
	case "SETUP":
		// Trailing text is ignored
		return Command{Kind: KindConnect}, nil

	case "RENAME":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return Command{}, &ParseError{Keyword: keyword, Reply: UsageRename}
		}
		return Command{Kind: KindRename, OldName: fields[0], NewName: fields[1]}, nil

	case "LIST":
		path, ok := cleanPath(args)
		if !ok {
			return Command{}, &ParseError{Keyword: keyword, Reply: UsageList}
		}
		return Command{Kind: KindList, Path: path}, nil

	case "SUMMARY":
		folder, ok := cleanPath(args)
		if !ok {
			return Command{}, &ParseError{Keyword: keyword, Reply: UsageSummary}
		}
		return Command{Kind: KindSummarize, Folder: folder}, nil

	case "DELETE":
		segs, ok := exactSegments(args, 2)
		if !ok {
			return Command{}, &ParseError{Keyword: keyword, Reply: UsageDelete}
		}
		return Command{Kind: KindDelete, Folder: segs[0], Filename: segs[1]}, nil

	case "MOVE":
		segs, ok := exactSegments(args, 3)
		if !ok {
			return Command{}, &ParseError{Keyword: keyword, Reply: UsageMove}
		}
		return Command{Kind: KindMove, SourceFolder: segs[0], Filename: segs[1], DestFolder: segs[2]}, nil

	case "UPLOAD":
		if !hasAttachment {
			return Command{}, &ParseError{Keyword: keyword, Reply: UploadNeedsAttachment}
		}
		return parseUpload(keyword, args)

	default:
		return Command{Kind: KindUnknown, Raw: raw}, nil
	}
}

// commandArgs returns everything after the keyword token, with one leading
// path separator consumed so "LIST/Reports" and "LIST / Reports" both yield
// "Reports".
func commandArgs(trimmed string) string {
	end := len(trimmed)
	for i, r := range trimmed {
		if r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			end = i
			break
		}
	}
	args := strings.TrimSpace(trimmed[end:])
	args = strings.TrimPrefix(args, "/")
	return strings.TrimSpace(args)
}

// cleanPath validates a folder path that may contain nested separators.
// Each segment is trimmed; an empty segment after trimming fails the parse.
func cleanPath(args string) (string, bool) {
	if args == "" {
		return "", false
	}
	segs := strings.Split(args, "/")
	for i, seg := range segs {
		segs[i] = strings.TrimSpace(seg)
		if segs[i] == "" {
			return "", false
		}
	}
	return strings.Join(segs, "/"), true
}

// exactSegments splits args on the path separator and requires exactly n
// non-empty trimmed segments.
func exactSegments(args string, n int) ([]string, bool) {
	if args == "" {
		return nil, false
	}
	segs := strings.Split(args, "/")
	if len(segs) != n {
		return nil, false
	}
	for i, seg := range segs {
		segs[i] = strings.TrimSpace(seg)
		if segs[i] == "" {
			return nil, false
		}
	}
	return segs, true
}

// parseUpload handles "UPLOAD/FolderName NewFileName.ext". The trailing new
// name is optional; when present it is the final space-separated token, so
// folder names may contain spaces. Extra separators are malformed.
func parseUpload(keyword, args string) (Command, error) {
	if args == "" || strings.Contains(args, "/") {
		return Command{}, &ParseError{Keyword: keyword, Reply: UsageUpload}
	}

	fields := strings.Fields(args)
	if len(fields) == 1 {
		return Command{Kind: KindUpload, Folder: fields[0]}, nil
	}

	folder := strings.Join(fields[:len(fields)-1], " ")
	filename := fields[len(fields)-1]
	return Command{Kind: KindUpload, Folder: folder, Filename: filename}, nil
}
