package filehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plugin-endpoints/internal/host"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zip"
)

// Upgrade 检查更新源, 存在更高版本时下载并覆盖解压到安装目录
func (h *FileHost) Upgrade(ctx context.Context, id host.PluginIdentifier) (host.UpdateOutcome, error) {
	installed, err := h.plugin(ctx, id)
	if err != nil {
		return host.UpdateOutcome{}, err
	}

	set, err := h.updates(ctx)
	if errors.Is(err, ErrFeedUnavailable) {
		// 拿不到更新信息时按无更新处理, 由调用方打包当前安装
		h.log.Warn().Err(err).Str("plugin", id.String()).Msg("no update metadata, treating as up to date")
		return host.NoUpdate(), nil
	}
	if err != nil {
		return host.UpdateOutcome{}, err
	}
	info, ok := set.lookup(id)
	if !ok {
		h.log.Debug().Str("plugin", id.String()).Msg("no feed entry")
		return host.NoUpdate(), nil
	}

	newer, err := isNewer(installed.Version, info.Version)
	if err != nil {
		return host.UpdateOutcome{}, err
	}
	if !newer {
		h.log.Info().Str("plugin", id.String()).Str("version", installed.Version).Msg("plugin is up to date")
		return host.NoUpdate(), nil
	}
	if info.Package == "" {
		return host.UpdateOutcome{}, fmt.Errorf("update %s for %s has no package url", info.Version, id)
	}

	// 1. 下载到临时文件
	tmp, err := os.CreateTemp("", "plugin-upgrade-*.zip")
	if err != nil {
		return host.UpdateOutcome{}, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	h.log.Info().Str("plugin", id.String()).Str("from", installed.Version).Str("to", info.Version).Msg("downloading update")
	if err := h.client.Download(ctx, info.Package, tmpPath); err != nil {
		return host.UpdateOutcome{}, fmt.Errorf("download package: %w", err)
	}

	// 2. 覆盖解压
	installDir := filepath.Join(h.pluginsDir, id.Dir())
	if err := extractOver(tmpPath, installDir, id.Dir()); err != nil {
		return host.UpdateOutcome{}, fmt.Errorf("unpack package: %w", err)
	}

	// 3. 记录新版本
	if _, err := h.db.ExecContext(ctx, `UPDATE plugin_infos SET version = ?, updated_at = ? WHERE identifier = ?`,
		info.Version, time.Now().Unix(), id.String()); err != nil {
		return host.UpdateOutcome{}, err
	}

	return host.Redirect(info.Package), nil
}

// isNewer candidate 是否高于 current, 允许 v 前缀
func isNewer(current, candidate string) (bool, error) {
	cand, err := semver.NewVersion(candidate)
	if err != nil {
		return false, fmt.Errorf("invalid feed version %q: %w", candidate, err)
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		// 本地版本无法解析时, 只要更新源给出合法版本就视为需要更新
		return true, nil
	}
	return cand.GreaterThan(cur), nil
}

// extractOver 解压 src 覆盖到 dest
// 包内如果只有一个与插件目录同名的顶层目录, 去掉这一层
func extractOver(src, dest, dirName string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	prefix := dirName + "/"
	strip := len(r.File) > 0
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, prefix) {
			strip = false
			break
		}
	}

	cleanDest := filepath.Clean(dest)
	if err := os.MkdirAll(cleanDest, 0755); err != nil {
		return err
	}
	for _, f := range r.File {
		name := f.Name
		if strip {
			name = strings.TrimPrefix(name, prefix)
		}
		if name == "" {
			continue
		}

		fpath := filepath.Join(cleanDest, filepath.FromSlash(name))
		if fpath != cleanDest && !strings.HasPrefix(fpath, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in package: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}
		if err := writeZipFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(f *zip.File, fpath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
