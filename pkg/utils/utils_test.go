package utils_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"plugin-endpoints/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:5000"
	assert.Equal(t, "127.0.0.1", utils.GetClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.7, 172.16.0.1")
	assert.Equal(t, "10.0.0.7", utils.GetClientIP(req))
}

func TestClientGetJSONAndDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			w.Write([]byte(`{"version":"1.2.0"}`))
		case "/pkg.zip":
			w.Write([]byte("zip-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := utils.NewClient(5 * time.Second)

	var feed struct {
		Version string `json:"version"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/feed", &feed))
	assert.Equal(t, "1.2.0", feed.Version)

	dst := filepath.Join(t.TempDir(), "pkg.zip")
	require.NoError(t, c.Download(context.Background(), srv.URL+"/pkg.zip", dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))

	assert.Error(t, c.Download(context.Background(), srv.URL+"/missing", dst))
}
