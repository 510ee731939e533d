package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPlugins(t *testing.T) string {
	t.Helper()
	pluginsDir := t.TempDir()
	root := filepath.Join(pluginsDir, "contact-form-7")
	require.NoError(t, os.MkdirAll(root, 0755))
	manifest, _ := json.Marshal(map[string]string{"name": "Contact Form 7", "version": "5.9", "entry": "wp-contact-form-7.php"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "plugin.json"), manifest, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "wp-contact-form-7.php"), []byte("<?php"), 0644))
	return pluginsDir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("PUE_ARCHIVE_OUTPUT_DIR", filepath.Join(t.TempDir(), "downloads"))
	t.Setenv("PUE_ARCHIVE_BASE_URL", "http://example.test/download")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--db-path", ":memory:"}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestPluginsCommandListsInstalled(t *testing.T) {
	out := run(t, "--plugins-dir", setupPlugins(t), "plugins")
	assert.Contains(t, out, "contact-form-7/wp-contact-form-7.php")
	assert.Contains(t, out, "5.9")
}

func TestPluginsActivateCommand(t *testing.T) {
	out := run(t, "--plugins-dir", setupPlugins(t), "plugins", "activate", "contact-form-7")
	assert.Equal(t, "contact-form-7/wp-contact-form-7.php activated\n", out)
}

func TestPackageCommandPrintsURL(t *testing.T) {
	out := run(t, "--plugins-dir", setupPlugins(t), "package", "contact-form-7")
	url := strings.TrimSpace(out)
	assert.Regexp(t, `^http://example\.test/download/plugin-\d+-[0-9a-f]{32}\.zip$`, url)
}

func TestSweepCommandOnEmptyStore(t *testing.T) {
	out := run(t, "--plugins-dir", setupPlugins(t), "sweep")
	assert.Equal(t, "deleted 0 archive(s), freed 0 bytes, skipped 0, errors 0\n", out)
}

func TestUnknownStoreIsRejected(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--store", "ftp", "sweep"})
	assert.Error(t, cmd.Execute())
}
