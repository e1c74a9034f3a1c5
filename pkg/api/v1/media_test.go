package apiv1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaFetcherSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotAuth = r.BasicAuth()
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	fetcher := NewMediaFetcher(types.TransportConfig{AccountSID: "AC123", AuthToken: "secret"})

	data, contentType, err := fetcher.Fetch(context.Background(), srv.URL+"/media/1")
	require.NoError(t, err)
	assert.True(t, gotAuth)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestMediaFetcherSkipsAuthWithoutAccount(t *testing.T) {
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	fetcher := NewMediaFetcher(types.TransportConfig{})

	_, _, err := fetcher.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, gotAuth)
}

func TestMediaFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewMediaFetcher(types.TransportConfig{})

	_, _, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
