package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
)

const (
	APIBase       = "https://www.googleapis.com/drive/v3"
	UploadAPIBase = "https://www.googleapis.com/upload/drive/v3"

	FolderMimeType = "application/vnd.google-apps.folder"
)

// Office formats Drive can convert to plain text. Google-native types are
// matched by prefix in IsExportable.
var ExportableMimeTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/pdf": true,
}

// API call counter for metrics
var driveAPICallCount int64

// GetAPICallCount returns the current API call count
func GetAPICallCount() int64 {
	return atomic.LoadInt64(&driveAPICallCount)
}

// ResetAPICallCount resets the API call counter
func ResetAPICallCount() {
	atomic.StoreInt64(&driveAPICallCount, 0)
}

// File represents a Drive file or folder
type File struct {
	ID           string
	Name         string
	MimeType     string
	Size         int64
	ModifiedTime time.Time
	Parents      []string
	WebViewLink  string
	IsFolder     bool
}

// Client is a hand-rolled Drive v3 REST client. Every request carries the
// caller's bearer token; failures are mapped to the executor error taxonomy.
type Client struct {
	HTTPClient *http.Client

	apiBase    string
	uploadBase string
}

// NewClient creates a new Drive API client
func NewClient() *Client {
	return NewClientWithEndpoints(APIBase, UploadAPIBase)
}

// NewClientWithEndpoints creates a client pointed at alternate API hosts,
// used when requests route through a proxy or a test server
func NewClientWithEndpoints(apiBase, uploadBase string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		apiBase:    apiBase,
		uploadBase: uploadBase,
	}
}

// Request makes a GET request to the Drive API and decodes the JSON response
func (c *Client) Request(ctx context.Context, token, path string, result any) error {
	return c.do(ctx, token, http.MethodGet, c.apiBase+path, "", nil, result)
}

// RequestJSON makes a mutating request (POST/PATCH) with a JSON body
func (c *Client) RequestJSON(ctx context.Context, token, method, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, token, method, c.apiBase+path, "application/json", bytes.NewReader(body), result)
}

func (c *Client) do(ctx context.Context, token, method, url, contentType string, body io.Reader, result any) error {
	atomic.AddInt64(&driveAPICallCount, 1)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &types.ErrExecutor{Kind: types.ExecutorErrTransient, Op: method + " " + url, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return apiError(method+" "+url, resp.StatusCode, respBody)
	}

	if result == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// raw fetches a non-JSON response body (downloads and exports)
func (c *Client) raw(ctx context.Context, token, url string) ([]byte, error) {
	atomic.AddInt64(&driveAPICallCount, 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &types.ErrExecutor{Kind: types.ExecutorErrTransient, Op: "GET " + url, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apiError("GET "+url, resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}

// ParseFile extracts structured data from a Drive API response
func ParseFile(fileMap map[string]any) *File {
	file := &File{
		ID:       getString(fileMap, "id"),
		Name:     getString(fileMap, "name"),
		MimeType: getString(fileMap, "mimeType"),
	}

	// Drive reports size as a decimal string
	if size, ok := fileMap["size"].(string); ok {
		fmt.Sscanf(size, "%d", &file.Size)
	}
	if size, ok := fileMap["size"].(float64); ok {
		file.Size = int64(size)
	}

	if modTime, ok := fileMap["modifiedTime"].(string); ok {
		file.ModifiedTime, _ = time.Parse(time.RFC3339, modTime)
	}

	if parents, ok := fileMap["parents"].([]any); ok {
		for _, p := range parents {
			if ps, ok := p.(string); ok {
				file.Parents = append(file.Parents, ps)
			}
		}
	}

	file.WebViewLink = getString(fileMap, "webViewLink")
	file.IsFolder = file.MimeType == FolderMimeType

	return file
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// apiError maps a non-2xx Drive response to the executor error taxonomy.
// 401 means the credential itself is bad and forces a reconnect.
func apiError(op string, statusCode int, body []byte) error {
	msg := parseAPIErrorMessage(body)
	if msg == "" {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 2048 {
			snippet = snippet[:2048] + "..."
		}
		msg = snippet
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}

	switch {
	case statusCode == http.StatusUnauthorized:
		return &types.ErrCredentialRejected{Reason: msg}
	case statusCode == http.StatusForbidden:
		return &types.ErrExecutor{Kind: types.ExecutorErrPermissionDenied, Op: op, Message: msg}
	case statusCode == http.StatusNotFound:
		return &types.ErrExecutor{Kind: types.ExecutorErrNotFound, Op: op, Message: msg}
	default:
		// 429 and 5xx are retryable by the user; anything else unexpected
		// gets the same treatment rather than a misleading classification
		return &types.ErrExecutor{Kind: types.ExecutorErrTransient, Op: op, Message: fmt.Sprintf("%s (HTTP %d)", msg, statusCode)}
	}
}

func parseAPIErrorMessage(body []byte) string {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return ""
}
