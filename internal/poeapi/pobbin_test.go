package poeapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadPoBPlainTextID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "text/plain", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, "eNrtXVtz2zYW", string(body))

		w.Write([]byte("WtDNCT-adpMf\n"))
	}))
	defer srv.Close()

	c := NewClient(WithPoBUploadURL(srv.URL))

	shareURL, err := c.UploadPoB(context.Background(), "eNrtXVtz2zYW")
	require.NoError(t, err)
	require.Equal(t, "https://pobb.in/WtDNCT-adpMf", shareURL)
}

func TestUploadPoBJSONResponses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantURL string
	}{
		{name: "id field", body: `{"id":"abc123"}`, wantURL: "https://pobb.in/abc123"},
		{name: "url field", body: `{"url":"https://pobb.in/xyz789"}`, wantURL: "https://pobb.in/xyz789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(WithPoBUploadURL(srv.URL))

			shareURL, err := c.UploadPoB(context.Background(), "code")
			require.NoError(t, err)
			require.Equal(t, tt.wantURL, shareURL)
		})
	}
}

func TestUploadPoBJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":400,"message":"invalid import code"}`))
	}))
	defer srv.Close()

	c := NewClient(WithPoBUploadURL(srv.URL))

	_, err := c.UploadPoB(context.Background(), "garbage")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid import code")
}

func TestUploadPoBServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down for maintenance"))
	}))
	defer srv.Close()

	c := NewClient(WithPoBUploadURL(srv.URL))

	_, err := c.UploadPoB(context.Background(), "code")
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "down for maintenance")
}
