package filehost

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plugin-endpoints/internal/host"
)

// UpdateInfo 更新源里的一条记录
type UpdateInfo struct {
	Plugin  string `json:"plugin"`
	Version string `json:"version"`
	Package string `json:"package"`
}

type updateSet map[string]UpdateInfo

// ErrFeedUnavailable 更新源拉取失败
var ErrFeedUnavailable = errors.New("update feed unavailable")

// lookup 先按完整标识匹配, 再按目录名匹配
func (s updateSet) lookup(id host.PluginIdentifier) (UpdateInfo, bool) {
	if info, ok := s[id.String()]; ok {
		return info, true
	}
	info, ok := s[id.Dir()]
	return info, ok
}

// ForceRefresh 重新拉取更新源, 同时写入内存缓存和 sys_options
func (h *FileHost) ForceRefresh(ctx context.Context) error {
	set := updateSet{}
	if h.feedURL != "" {
		var feed []UpdateInfo
		if err := h.client.GetJSON(ctx, h.feedURL, &feed); err != nil {
			return fmt.Errorf("%w: %w", ErrFeedUnavailable, err)
		}
		for _, item := range feed {
			if item.Plugin == "" {
				continue
			}
			set[item.Plugin] = item
		}
	}
	return h.storeTransient(ctx, set)
}

// ClearTransient 清空缓存的更新状态 (内存 + 持久化副本)
func (h *FileHost) ClearTransient(ctx context.Context) error {
	h.transient.Delete(transientKey)
	_, err := h.db.ExecContext(ctx, `UPDATE sys_options SET value = '' WHERE key = ?`, transientKey)
	return err
}

func (h *FileHost) storeTransient(ctx context.Context, set updateSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO sys_options (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, transientKey, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("persist update transient: %w", err)
	}
	h.transient.Set(transientKey, set, h.ttl)
	return nil
}

// updates 读取更新状态: 内存缓存 -> sys_options (未过期) -> 重新拉取
func (h *FileHost) updates(ctx context.Context) (updateSet, error) {
	if v, ok := h.transient.Get(transientKey); ok {
		return v.(updateSet), nil
	}

	var value string
	var updatedAt int64
	err := h.db.QueryRowContext(ctx, `SELECT value, updated_at FROM sys_options WHERE key = ?`, transientKey).Scan(&value, &updatedAt)
	switch {
	case err == nil && value != "" && time.Since(time.Unix(updatedAt, 0)) < h.ttl:
		set := updateSet{}
		if err := json.Unmarshal([]byte(value), &set); err == nil {
			h.transient.Set(transientKey, set, h.ttl-time.Since(time.Unix(updatedAt, 0)))
			return set, nil
		}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	if err := h.ForceRefresh(ctx); err != nil {
		return nil, err
	}
	v, _ := h.transient.Get(transientKey)
	set, _ := v.(updateSet)
	return set, nil
}
