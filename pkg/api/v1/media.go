package apiv1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beam-cloud/satchel/pkg/assistant"
	"github.com/beam-cloud/satchel/pkg/types"
)

const defaultMediaTimeout = 30 * time.Second

// MediaFetcher downloads webhook attachments from the transport's media
// endpoints, which require basic auth with the account credentials.
type MediaFetcher struct {
	accountSID string
	authToken  string
	httpClient *http.Client
}

var _ assistant.AttachmentFetcher = (*MediaFetcher)(nil)

// NewMediaFetcher creates a fetcher for the configured transport account.
func NewMediaFetcher(config types.TransportConfig) *MediaFetcher {
	timeout := config.MediaTimeout
	if timeout <= 0 {
		timeout = defaultMediaTimeout
	}

	return &MediaFetcher{
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fetch attachment: %w", err)
	}
	if f.accountSID != "" {
		req.SetBasicAuth(f.accountSID, f.authToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch attachment: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read attachment: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
