package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
)

type fileListResponse struct {
	Files            []map[string]any `json:"files"`
	NextPageToken    string           `json:"nextPageToken"`
	IncompleteSearch bool             `json:"incompleteSearch"`
}

// FindFolder returns the folder with the given name directly under parentID,
// or nil when no such folder exists
func (c *Client) FindFolder(ctx context.Context, token, parentID, name string) (*File, error) {
	query := fmt.Sprintf("name='%s' and mimeType='%s' and '%s' in parents and trashed=false",
		escapeQueryValue(name), FolderMimeType, parentID)
	return c.findOne(ctx, token, query)
}

// FindFileInFolder returns the first non-folder file with the given name
// under folderID, or nil
func (c *Client) FindFileInFolder(ctx context.Context, token, folderID, name string) (*File, error) {
	query := fmt.Sprintf("name='%s' and mimeType!='%s' and '%s' in parents and trashed=false",
		escapeQueryValue(name), FolderMimeType, folderID)
	return c.findOne(ctx, token, query)
}

// FindFileAnywhere returns the first non-folder file with the given name
// anywhere in the user's Drive, or nil
func (c *Client) FindFileAnywhere(ctx context.Context, token, name string) (*File, error) {
	query := fmt.Sprintf("name='%s' and mimeType!='%s' and trashed=false",
		escapeQueryValue(name), FolderMimeType)
	return c.findOne(ctx, token, query)
}

func (c *Client) findOne(ctx context.Context, token, query string) (*File, error) {
	path := buildFilesListPath(query, 1, "", "files(id,name,mimeType)", "")

	var result fileListResponse
	if err := c.Request(ctx, token, path, &result); err != nil {
		return nil, err
	}
	if len(result.Files) == 0 {
		return nil, nil
	}
	return ParseFile(result.Files[0]), nil
}

// ListChildren lists files and folders directly under folderID, folders
// first then by name
func (c *Client) ListChildren(ctx context.Context, token, folderID string, maxResults int) ([]*File, error) {
	if maxResults <= 0 {
		maxResults = 50
	}

	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	fields := "nextPageToken,files(id,name,mimeType,size,modifiedTime)"

	files := make([]*File, 0, maxResults)
	pageToken := ""
	for len(files) < maxResults {
		pageSize := maxResults - len(files)
		if pageSize > 1000 {
			pageSize = 1000
		}

		path := buildFilesListPath(query, pageSize, "folder, name", fields, pageToken)

		var result fileListResponse
		if err := c.Request(ctx, token, path, &result); err != nil {
			return nil, err
		}

		if len(result.Files) == 0 {
			break
		}

		for _, fileMap := range result.Files {
			files = append(files, ParseFile(fileMap))
			if len(files) >= maxResults {
				break
			}
		}

		if result.NextPageToken == "" || len(files) >= maxResults {
			break
		}
		pageToken = result.NextPageToken
	}

	return files, nil
}

// Upload performs a multipart/related upload of content into folderID and
// returns the created file with its parents populated
func (c *Client) Upload(ctx context.Context, token, folderID, name, mimeType string, content []byte) (*File, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	metadata := map[string]any{
		"name":    name,
		"parents": []string{folderID},
	}
	metaBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	metaPart.Write(metaBytes)

	mediaPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mimeType},
	})
	if err != nil {
		return nil, err
	}
	mediaPart.Write(content)

	if err := w.Close(); err != nil {
		return nil, err
	}

	uploadURL := c.uploadBase + "/files?uploadType=multipart&fields=" + url.QueryEscape("id,name,parents")
	contentType := "multipart/related; boundary=" + w.Boundary()

	var result map[string]any
	if err := c.do(ctx, token, http.MethodPost, uploadURL, contentType, &buf, &result); err != nil {
		return nil, err
	}
	return ParseFile(result), nil
}

// Rename updates the file's name
func (c *Client) Rename(ctx context.Context, token, fileID, newName string) error {
	path := fmt.Sprintf("/files/%s?fields=id", url.PathEscape(fileID))
	payload := map[string]any{"name": newName}
	return c.RequestJSON(ctx, token, http.MethodPatch, path, payload, nil)
}

// Trash moves the file to the trash
func (c *Client) Trash(ctx context.Context, token, fileID string) error {
	path := fmt.Sprintf("/files/%s?fields=id,trashed", url.PathEscape(fileID))
	payload := map[string]any{"trashed": true}
	return c.RequestJSON(ctx, token, http.MethodPatch, path, payload, nil)
}

// Move re-parents the file from removeParent to addParent
func (c *Client) Move(ctx context.Context, token, fileID, addParent, removeParent string) error {
	path := fmt.Sprintf("/files/%s?addParents=%s&removeParents=%s&fields=id,parents",
		url.PathEscape(fileID), url.QueryEscape(addParent), url.QueryEscape(removeParent))
	return c.RequestJSON(ctx, token, http.MethodPatch, path, map[string]any{}, nil)
}

// GetParents fetches the current parent folder ids of a file
func (c *Client) GetParents(ctx context.Context, token, fileID string) ([]string, error) {
	path := fmt.Sprintf("/files/%s?fields=parents", url.PathEscape(fileID))

	var result map[string]any
	if err := c.Request(ctx, token, path, &result); err != nil {
		return nil, err
	}
	return ParseFile(result).Parents, nil
}

// Download fetches raw file content
func (c *Client) Download(ctx context.Context, token, fileID string) ([]byte, error) {
	return c.raw(ctx, token, fmt.Sprintf("%s/files/%s?alt=media", c.apiBase, url.PathEscape(fileID)))
}

// ExportText exports a Google-native document as plain text
func (c *Client) ExportText(ctx context.Context, token, fileID string) ([]byte, error) {
	return c.raw(ctx, token, fmt.Sprintf("%s/files/%s/export?mimeType=%s",
		c.apiBase, url.PathEscape(fileID), url.QueryEscape("text/plain")))
}

// IsExportable reports whether the file should be exported rather than
// downloaded when extracting text
func IsExportable(mimeType string) bool {
	return ExportableMimeTypes[mimeType] || strings.HasPrefix(mimeType, "application/vnd.google-apps.")
}

func buildFilesListPath(query string, pageSize int, orderBy, fields, pageToken string) string {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(pageSize))
	}
	if orderBy != "" {
		params.Set("orderBy", orderBy)
	}
	if fields != "" {
		params.Set("fields", fields)
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	params.Set("spaces", "drive")

	u := url.URL{
		Path:     "/files",
		RawQuery: params.Encode(),
	}
	return u.RequestURI()
}

// escapeQueryValue escapes single quotes in a Drive query string literal
func escapeQueryValue(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
