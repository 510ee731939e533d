package filehost

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"plugin-endpoints/internal/host"
)

// Manifest plugin.json
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Entry   string `json:"entry"`
}

// PluginInfo 已安装插件的状态
type PluginInfo struct {
	ID      host.PluginIdentifier
	Name    string
	Version string
	Active  bool
}

var ErrNotInstalled = errors.New("plugin is not installed")

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", manifestFile, err)
	}
	if m.Entry == "" {
		return nil, fmt.Errorf("%s: missing entry", manifestFile)
	}
	return &m, nil
}

// Sync 扫描插件目录, 把结果同步到 plugin_infos (保留 active 状态)
func (h *FileHost) Sync(ctx context.Context) error {
	entries, err := os.ReadDir(h.pluginsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			entries = nil
		} else {
			return fmt.Errorf("read plugins dir: %w", err)
		}
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	now := time.Now().Unix()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := readManifest(filepath.Join(h.pluginsDir, entry.Name()))
		if err != nil {
			h.log.Debug().Err(err).Str("dir", entry.Name()).Msg("skip plugin dir")
			continue
		}
		id := entry.Name() + "/" + m.Entry
		seen[id] = true

		_, err = tx.ExecContext(ctx, `
			INSERT INTO plugin_infos (identifier, dir, name, version, active, updated_at)
			VALUES (?, ?, ?, ?, 0, ?)
			ON CONFLICT(identifier) DO UPDATE SET dir = excluded.dir, name = excluded.name,
				version = excluded.version, updated_at = excluded.updated_at
		`, id, entry.Name(), m.Name, m.Version, now)
		if err != nil {
			return fmt.Errorf("upsert plugin %s: %w", id, err)
		}
	}

	// 清理已经从磁盘消失的插件
	rows, err := tx.QueryContext(ctx, `SELECT identifier FROM plugin_infos`)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM plugin_infos WHERE identifier = ?`, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (h *FileHost) ListInstalled(ctx context.Context) ([]host.PluginIdentifier, error) {
	plugins, err := h.InstalledPlugins(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]host.PluginIdentifier, 0, len(plugins))
	for _, p := range plugins {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// InstalledPlugins 同步后返回全部插件, 按标识排序
func (h *FileHost) InstalledPlugins(ctx context.Context) ([]PluginInfo, error) {
	if err := h.Sync(ctx); err != nil {
		return nil, err
	}

	rows, err := h.db.QueryContext(ctx, `SELECT identifier, name, version, active FROM plugin_infos ORDER BY identifier`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []PluginInfo
	for rows.Next() {
		var p PluginInfo
		var id string
		if err := rows.Scan(&id, &p.Name, &p.Version, &p.Active); err != nil {
			return nil, err
		}
		p.ID = host.PluginIdentifier(id)
		list = append(list, p)
	}
	return list, rows.Err()
}

func (h *FileHost) plugin(ctx context.Context, id host.PluginIdentifier) (*PluginInfo, error) {
	p := PluginInfo{ID: id}
	err := h.db.QueryRowContext(ctx, `SELECT name, version, active FROM plugin_infos WHERE identifier = ?`, id.String()).
		Scan(&p.Name, &p.Version, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *FileHost) Activate(ctx context.Context, id host.PluginIdentifier) error {
	return h.setActive(ctx, id, true)
}

func (h *FileHost) Deactivate(ctx context.Context, id host.PluginIdentifier) error {
	return h.setActive(ctx, id, false)
}

func (h *FileHost) setActive(ctx context.Context, id host.PluginIdentifier, active bool) error {
	res, err := h.db.ExecContext(ctx, `UPDATE plugin_infos SET active = ?, updated_at = ? WHERE identifier = ?`,
		active, time.Now().Unix(), id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	h.log.Debug().Str("plugin", id.String()).Bool("active", active).Msg("plugin state changed")
	return nil
}
