package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/beam-cloud/satchel/pkg/types"
)

// mockDrive simulates the Drive v3 files API with a fixed folder tree
type mockDrive struct {
	server *httptest.Server

	mu         sync.Mutex
	listCalls  int
	lastPatch  map[string]any
	lastPatchQ string
	folders    map[string]map[string]string // parentID -> name -> folderID
}

func newMockDrive(t *testing.T) *mockDrive {
	m := &mockDrive{
		folders: map[string]map[string]string{
			"root":        {"Reports": "fld-reports"},
			"fld-reports": {"2026": "fld-2026"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/files", m.handleList)
	mux.HandleFunc("/files/", m.handlePatch)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *mockDrive) Close() {
	m.server.Close()
}

func (m *mockDrive) handleList(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	query := r.URL.Query().Get("q")

	// Answer folder-by-name lookups from the fixture tree
	for parentID, children := range m.folders {
		if !strings.Contains(query, fmt.Sprintf("'%s' in parents", parentID)) {
			continue
		}
		for name, folderID := range children {
			if strings.Contains(query, fmt.Sprintf("name='%s'", name)) {
				json.NewEncoder(w).Encode(map[string]any{
					"files": []map[string]any{{"id": folderID, "name": name, "mimeType": FolderMimeType}},
				})
				return
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]any{"files": []map[string]any{}})
}

func (m *mockDrive) handlePatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}

	var payload map[string]any
	json.NewDecoder(r.Body).Decode(&payload)

	m.mu.Lock()
	m.lastPatch = payload
	m.lastPatchQ = r.URL.RawQuery
	m.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{"id": strings.TrimPrefix(r.URL.Path, "/files/")})
}

func newClientForTest(serverURL string) *Client {
	return NewClientWithEndpoints(serverURL, serverURL)
}

func TestResolvePathWalksSegments(t *testing.T) {
	mock := newMockDrive(t)
	defer mock.Close()

	resolver := NewPathResolver(newClientForTest(mock.server.URL))
	ctx := context.Background()

	folderID, err := resolver.ResolvePath(ctx, "tok", "user1", "Reports/2026")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if folderID != "fld-2026" {
		t.Fatalf("folder id mismatch: got %q, want %q", folderID, "fld-2026")
	}
	if mock.listCalls != 2 {
		t.Fatalf("expected 2 list calls for 2 segments, got %d", mock.listCalls)
	}

	// Second resolution hits the cache
	folderID, err = resolver.ResolvePath(ctx, "tok", "user1", "Reports/2026")
	if err != nil {
		t.Fatalf("cached resolve failed: %v", err)
	}
	if folderID != "fld-2026" {
		t.Fatalf("cached folder id mismatch: got %q", folderID)
	}
	if mock.listCalls != 2 {
		t.Fatalf("expected cached resolution to make no calls, got %d total", mock.listCalls)
	}

	// Different user misses the cache
	if _, err := resolver.ResolvePath(ctx, "tok", "user2", "Reports/2026"); err != nil {
		t.Fatalf("resolve for second user failed: %v", err)
	}
	if mock.listCalls != 4 {
		t.Fatalf("expected per-user cache keys, got %d total calls", mock.listCalls)
	}
}

func TestResolvePathEmptyIsRoot(t *testing.T) {
	mock := newMockDrive(t)
	defer mock.Close()

	resolver := NewPathResolver(newClientForTest(mock.server.URL))

	folderID, err := resolver.ResolvePath(context.Background(), "tok", "user1", "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if folderID != RootFolderID {
		t.Fatalf("expected root, got %q", folderID)
	}
	if mock.listCalls != 0 {
		t.Fatalf("root resolution should make no calls, got %d", mock.listCalls)
	}
}

func TestResolvePathMissingSegment(t *testing.T) {
	mock := newMockDrive(t)
	defer mock.Close()

	resolver := NewPathResolver(newClientForTest(mock.server.URL))

	_, err := resolver.ResolvePath(context.Background(), "tok", "user1", "Reports/Nope")
	execErr := &types.ErrExecutor{}
	if !execErr.From(err) {
		t.Fatalf("expected ErrExecutor, got %v", err)
	}
	if execErr.Kind != types.ExecutorErrNotFound {
		t.Fatalf("kind mismatch: got %q", execErr.Kind)
	}
	if execErr.Message != "Folder segment not found: 'Nope'" {
		t.Fatalf("message mismatch: got %q", execErr.Message)
	}
}

func TestUploadMultipart(t *testing.T) {
	var gotContentType string
	var gotMeta map[string]any
	var gotMedia []byte
	var gotMediaType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")

		mediaType, params, err := mime.ParseMediaType(gotContentType)
		if err != nil || mediaType != "multipart/related" {
			t.Errorf("unexpected content type %q: %v", gotContentType, err)
		}

		reader := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := reader.NextPart()
		if err != nil {
			t.Errorf("missing metadata part: %v", err)
		} else {
			json.NewDecoder(metaPart).Decode(&gotMeta)
		}

		mediaPart, err := reader.NextPart()
		if err != nil {
			t.Errorf("missing media part: %v", err)
		} else {
			gotMediaType = mediaPart.Header.Get("Content-Type")
			gotMedia, _ = io.ReadAll(mediaPart)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":      "up-1",
			"name":    "w2.pdf",
			"parents": []string{"fld-tax"},
		})
	}))
	defer server.Close()

	client := newClientForTest(server.URL)

	file, err := client.Upload(context.Background(), "tok", "fld-tax", "w2.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if file.ID != "up-1" {
		t.Fatalf("file id mismatch: got %q", file.ID)
	}
	if len(file.Parents) != 1 || file.Parents[0] != "fld-tax" {
		t.Fatalf("parents mismatch: %v", file.Parents)
	}
	if gotMeta["name"] != "w2.pdf" {
		t.Fatalf("metadata name mismatch: %v", gotMeta)
	}
	parents, _ := gotMeta["parents"].([]any)
	if len(parents) != 1 || parents[0] != "fld-tax" {
		t.Fatalf("metadata parents mismatch: %v", gotMeta)
	}
	if gotMediaType != "application/pdf" {
		t.Fatalf("media type mismatch: got %q", gotMediaType)
	}
	if string(gotMedia) != "%PDF-1.4" {
		t.Fatalf("media content mismatch: got %q", gotMedia)
	}
}

func TestMoveBuildsAddRemoveParents(t *testing.T) {
	mock := newMockDrive(t)
	defer mock.Close()

	client := newClientForTest(mock.server.URL)

	if err := client.Move(context.Background(), "tok", "file-1", "fld-dst", "fld-src"); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	if !strings.Contains(mock.lastPatchQ, "addParents=fld-dst") {
		t.Fatalf("addParents missing from query: %q", mock.lastPatchQ)
	}
	if !strings.Contains(mock.lastPatchQ, "removeParents=fld-src") {
		t.Fatalf("removeParents missing from query: %q", mock.lastPatchQ)
	}
}

func TestTrashAndRenamePayloads(t *testing.T) {
	mock := newMockDrive(t)
	defer mock.Close()

	client := newClientForTest(mock.server.URL)
	ctx := context.Background()

	if err := client.Trash(ctx, "tok", "file-1"); err != nil {
		t.Fatalf("trash failed: %v", err)
	}
	if trashed, _ := mock.lastPatch["trashed"].(bool); !trashed {
		t.Fatalf("trash payload mismatch: %v", mock.lastPatch)
	}

	if err := client.Rename(ctx, "tok", "file-1", "renamed.pdf"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if mock.lastPatch["name"] != "renamed.pdf" {
		t.Fatalf("rename payload mismatch: %v", mock.lastPatch)
	}
}

func TestRequestMapsCredentialRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	}))
	defer server.Close()

	client := newClientForTest(server.URL)

	var result map[string]any
	err := client.Request(context.Background(), "tok", "/files?q=x", &result)

	rejected := &types.ErrCredentialRejected{}
	if !rejected.From(err) {
		t.Fatalf("expected ErrCredentialRejected, got %v", err)
	}
}
