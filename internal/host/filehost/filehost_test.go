package filehost_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"plugin-endpoints/internal/db"
	"plugin-endpoints/internal/host"
	"plugin-endpoints/internal/host/filehost"
	"plugin-endpoints/internal/manager"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, pluginsDir, dir, entry, version string) {
	t.Helper()
	root := filepath.Join(pluginsDir, dir)
	require.NoError(t, os.MkdirAll(root, 0755))
	manifest, _ := json.Marshal(filehost.Manifest{Name: dir, Version: version, Entry: entry})
	require.NoError(t, os.WriteFile(filepath.Join(root, "plugin.json"), manifest, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, entry), []byte("<?php // "+version), 0644))
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type feedServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newFeedServer(t *testing.T, entries func(base string) []filehost.UpdateInfo, pkg []byte) *feedServer {
	fs := &feedServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.json":
			fs.hits.Add(1)
			json.NewEncoder(w).Encode(entries(fs.URL))
		case "/pkg.zip":
			w.Write(pkg)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func setupHost(t *testing.T, feedURL string) (*filehost.FileHost, string) {
	t.Helper()
	database, err := db.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	pluginsDir := t.TempDir()
	h := filehost.New(database, filehost.Options{
		PluginsDir:    pluginsDir,
		UpdateFeedURL: feedURL,
		UpdateTTL:     time.Hour,
		AdminPrefix:   "/wp-admin",
		HTTPTimeout:   5 * time.Second,
	})
	return h, pluginsDir
}

func TestListInstalledSyncsFromDisk(t *testing.T) {
	h, pluginsDir := setupHost(t, "")
	ctx := context.Background()

	writePlugin(t, pluginsDir, "contact-form-7", "wp-contact-form-7.php", "5.8.0")
	writePlugin(t, pluginsDir, "akismet", "akismet.php", "5.3")
	// 没有 plugin.json 的目录会被忽略
	require.NoError(t, os.MkdirAll(filepath.Join(pluginsDir, "not-a-plugin"), 0755))

	ids, err := h.ListInstalled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []host.PluginIdentifier{
		"akismet/akismet.php",
		"contact-form-7/wp-contact-form-7.php",
	}, ids)

	// 删除目录后再次同步
	require.NoError(t, os.RemoveAll(filepath.Join(pluginsDir, "akismet")))
	ids, err = h.ListInstalled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []host.PluginIdentifier{"contact-form-7/wp-contact-form-7.php"}, ids)
}

func TestActivateDeactivate(t *testing.T) {
	h, pluginsDir := setupHost(t, "")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "akismet", "akismet.php", "5.3")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	id := host.PluginIdentifier("akismet/akismet.php")
	require.NoError(t, h.Activate(ctx, id))
	plugins, err := h.InstalledPlugins(ctx)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.True(t, plugins[0].Active, "resync must keep active flag")

	require.NoError(t, h.Deactivate(ctx, id))
	plugins, err = h.InstalledPlugins(ctx)
	require.NoError(t, err)
	assert.False(t, plugins[0].Active)

	err = h.Deactivate(ctx, "missing/missing.php")
	assert.ErrorIs(t, err, filehost.ErrNotInstalled)
}

func TestUpgradeInstallsNewerVersion(t *testing.T) {
	pkg := buildZip(t, map[string]string{
		"contact-form-7/wp-contact-form-7.php": "<?php // 5.9.0",
		"contact-form-7/includes/new.php":      "new file",
		"contact-form-7/plugin.json":           `{"name":"contact-form-7","version":"5.9.0","entry":"wp-contact-form-7.php"}`,
	})
	feed := newFeedServer(t, func(base string) []filehost.UpdateInfo {
		return []filehost.UpdateInfo{{
			Plugin:  "contact-form-7/wp-contact-form-7.php",
			Version: "5.9.0",
			Package: base + "/pkg.zip",
		}}
	}, pkg)

	h, pluginsDir := setupHost(t, feed.URL+"/feed.json")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "contact-form-7", "wp-contact-form-7.php", "5.8.0")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	out, err := h.Upgrade(ctx, "contact-form-7/wp-contact-form-7.php")
	require.NoError(t, err)
	assert.Equal(t, host.RedirectURL, out.Kind)
	assert.Equal(t, feed.URL+"/pkg.zip", out.URL)

	// 顶层目录被剥离, 文件覆盖到安装目录
	data, err := os.ReadFile(filepath.Join(pluginsDir, "contact-form-7", "wp-contact-form-7.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php // 5.9.0", string(data))
	_, err = os.Stat(filepath.Join(pluginsDir, "contact-form-7", "includes", "new.php"))
	assert.NoError(t, err)

	// 已经是最新版本
	out, err = h.Upgrade(ctx, "contact-form-7/wp-contact-form-7.php")
	require.NoError(t, err)
	assert.Equal(t, host.NoUpdateAvailable, out.Kind)
}

func TestUpgradeNoFeedEntry(t *testing.T) {
	h, pluginsDir := setupHost(t, "")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "akismet", "akismet.php", "5.3")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	out, err := h.Upgrade(ctx, "akismet/akismet.php")
	require.NoError(t, err)
	assert.Equal(t, host.NoUpdateAvailable, out.Kind)
}

func TestUpgradeRejectsZipSlip(t *testing.T) {
	pkg := buildZip(t, map[string]string{"../../evil.txt": "x"})
	feed := newFeedServer(t, func(base string) []filehost.UpdateInfo {
		return []filehost.UpdateInfo{{Plugin: "akismet", Version: "9.0", Package: base + "/pkg.zip"}}
	}, pkg)

	h, pluginsDir := setupHost(t, feed.URL+"/feed.json")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "akismet", "akismet.php", "5.3")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	_, err = h.Upgrade(ctx, "akismet/akismet.php")
	assert.Error(t, err)
}

func TestUpgradeUnknownPlugin(t *testing.T) {
	h, _ := setupHost(t, "")
	_, err := h.Upgrade(context.Background(), "ghost/ghost.php")
	assert.ErrorIs(t, err, filehost.ErrNotInstalled)
}

func TestTransientCachesFeed(t *testing.T) {
	feed := newFeedServer(t, func(string) []filehost.UpdateInfo { return nil }, nil)
	h, pluginsDir := setupHost(t, feed.URL+"/feed.json")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "akismet", "akismet.php", "5.3")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := h.Upgrade(ctx, "akismet/akismet.php")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), feed.hits.Load(), "feed should be fetched once while transient is valid")

	require.NoError(t, h.ClearTransient(ctx))
	_, err = h.Upgrade(ctx, "akismet/akismet.php")
	require.NoError(t, err)
	assert.Equal(t, int32(2), feed.hits.Load())

	require.NoError(t, h.ForceRefresh(ctx))
	assert.Equal(t, int32(3), feed.hits.Load())
}

func TestFeedOutageFallsBackToNoUpdate(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	h, pluginsDir := setupHost(t, down.URL+"/feed.json")
	ctx := context.Background()
	writePlugin(t, pluginsDir, "contact-form-7", "wp-contact-form-7.php", "5.8.0")
	_, err := h.ListInstalled(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, h.ForceRefresh(ctx), filehost.ErrFeedUnavailable)

	outcome, err := h.Upgrade(ctx, "contact-form-7/wp-contact-form-7.php")
	require.NoError(t, err)
	assert.Equal(t, host.NoUpdate(), outcome)

	// 完整流程: 清缓存 + 刷新失败后仍然走打包分支
	outcome, err = manager.NewUpdateManager(h, h, h).Run(ctx, "contact-form-7/wp-contact-form-7.php")
	require.NoError(t, err)
	assert.Equal(t, host.NoUpdate(), outcome)
}

func TestIsAdminRequest(t *testing.T) {
	h, _ := setupHost(t, "")
	assert.True(t, h.IsAdminRequest(httptest.NewRequest("GET", "/wp-admin", nil)))
	assert.True(t, h.IsAdminRequest(httptest.NewRequest("GET", "/wp-admin/plugins.php", nil)))
	assert.False(t, h.IsAdminRequest(httptest.NewRequest("GET", "/wp-administrator", nil)))
	assert.False(t, h.IsAdminRequest(httptest.NewRequest("GET", "/", nil)))
}
