package manager

import (
	"context"
	"errors"
	"path"
	"strings"

	"plugin-endpoints/internal/host"
	"plugin-endpoints/pkg/logger"

	"github.com/rs/zerolog"
)

var ErrPluginNotFound = errors.New("plugin not found")

const (
	MatchSegment   = "segment"
	MatchSubstring = "substring"
)

// PluginManager 把插件 slug 解析成宿主里的完整标识
type PluginManager struct {
	registry host.Registry
	match    string
	strict   bool
	log      zerolog.Logger
}

// NewPluginManager match 为 "segment" 或 "substring"; strict 只对 segment 生效, 禁用子串兜底
func NewPluginManager(registry host.Registry, match string, strict bool) *PluginManager {
	if match == "" {
		match = MatchSegment
	}
	return &PluginManager{
		registry: registry,
		match:    match,
		strict:   strict,
		log:      logger.Component("resolver"),
	}
}

// Resolve slug -> PluginIdentifier, 找不到时返回 ErrPluginNotFound
func (pm *PluginManager) Resolve(ctx context.Context, slug string) (host.PluginIdentifier, error) {
	if slug == "" {
		return "", ErrPluginNotFound
	}
	ids, err := pm.registry.ListInstalled(ctx)
	if err != nil {
		return "", err
	}

	if pm.match == MatchSegment {
		// 1. 目录名精确匹配
		for _, id := range ids {
			if id.Dir() == slug {
				return id, nil
			}
		}
		// 2. 入口文件名 (去扩展名) 精确匹配, 兼容单文件插件
		for _, id := range ids {
			entry := id.Entry()
			if entry == "" {
				entry = id.Dir()
			}
			if strings.TrimSuffix(entry, path.Ext(entry)) == slug {
				return id, nil
			}
		}
		if pm.strict {
			return "", ErrPluginNotFound
		}
	}

	// 子串匹配: 按枚举顺序取第一个, slug 互为子串时可能误命中
	for _, id := range ids {
		if strings.Contains(id.String(), slug) {
			if pm.match == MatchSegment {
				pm.log.Warn().Str("slug", slug).Str("plugin", id.String()).Msg("slug resolved by substring fallback")
			}
			return id, nil
		}
	}
	return "", ErrPluginNotFound
}
