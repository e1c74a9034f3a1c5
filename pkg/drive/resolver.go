package drive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// RootFolderID is the Drive alias for the root of a user's Drive
	RootFolderID = "root"

	resolverCacheSize = 2048
	resolverCacheTTL  = 2 * time.Minute
)

// PathResolver resolves '/'-separated folder paths to Drive folder ids by
// walking segments from the root. Resolutions are cached per user with a
// short TTL since folder structure changes rarely mid-conversation.
type PathResolver struct {
	client *Client
	cache  *expirable.LRU[string, string]
}

// NewPathResolver creates a resolver backed by the given client
func NewPathResolver(client *Client) *PathResolver {
	return &PathResolver{
		client: client,
		cache:  expirable.NewLRU[string, string](resolverCacheSize, nil, resolverCacheTTL),
	}
}

// ResolvePath returns the folder id for folderPath. The empty path resolves
// to the Drive root. A missing segment yields a NotFound executor error
// naming the segment.
func (r *PathResolver) ResolvePath(ctx context.Context, token, userID, folderPath string) (string, error) {
	segments := SplitPath(folderPath)
	if len(segments) == 0 {
		return RootFolderID, nil
	}

	cacheKey := userID + ":" + strings.Join(segments, "/")
	if id, ok := r.cache.Get(cacheKey); ok {
		return id, nil
	}

	parentID := RootFolderID
	for _, segment := range segments {
		folder, err := r.client.FindFolder(ctx, token, parentID, segment)
		if err != nil {
			return "", err
		}
		if folder == nil {
			return "", &types.ErrExecutor{
				Kind:    types.ExecutorErrNotFound,
				Op:      "files.list",
				Message: fmt.Sprintf("Folder segment not found: '%s'", segment),
			}
		}
		parentID = folder.ID
	}

	r.cache.Add(cacheKey, parentID)
	return parentID, nil
}

// SplitPath splits a folder path into trimmed, non-empty segments
func SplitPath(p string) []string {
	var segments []string
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
