package manager

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"plugin-endpoints/internal/host"
	"plugin-endpoints/pkg/logger"

	"github.com/rs/zerolog"
)

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// UpdateManager 刷新更新元数据并调用宿主升级器
type UpdateManager struct {
	cache     host.UpdateCache
	lifecycle host.Lifecycle
	upgrader  host.Upgrader
	log       zerolog.Logger
}

func NewUpdateManager(cache host.UpdateCache, lifecycle host.Lifecycle, upgrader host.Upgrader) *UpdateManager {
	return &UpdateManager{
		cache:     cache,
		lifecycle: lifecycle,
		upgrader:  upgrader,
		log:       logger.Component("updater"),
	}
}

// Run 对一个插件执行完整的更新流程:
// 清缓存 + 刷新 -> 停用 -> 升级 -> 再次停用 -> 解析结果
// 升级器的错误原样向上返回, 这里不做重试
func (um *UpdateManager) Run(ctx context.Context, id host.PluginIdentifier) (host.UpdateOutcome, error) {
	// 1. 刷新更新元数据 (失败不致命)
	if err := um.cache.ClearTransient(ctx); err != nil {
		um.log.Warn().Err(err).Msg("clear update transient failed")
	}
	if err := um.cache.ForceRefresh(ctx); err != nil {
		um.log.Warn().Err(err).Msg("refresh update metadata failed")
	}

	// 2. 替换文件前确保插件处于停用状态
	if err := um.lifecycle.Deactivate(ctx, id); err != nil {
		return host.UpdateOutcome{}, fmt.Errorf("deactivate %s before upgrade: %w", id, err)
	}

	// 3. 升级
	outcome, upgradeErr := um.upgrader.Upgrade(ctx, id)

	// 4. 无论升级是否成功都回到停用状态
	deactivateErr := um.lifecycle.Deactivate(ctx, id)

	if upgradeErr != nil {
		if deactivateErr != nil {
			um.log.Error().Err(deactivateErr).Str("plugin", id.String()).Msg("deactivate after failed upgrade")
		}
		return host.UpdateOutcome{}, fmt.Errorf("upgrade %s: %w", id, upgradeErr)
	}
	if deactivateErr != nil {
		return host.UpdateOutcome{}, fmt.Errorf("deactivate %s after upgrade: %w", id, deactivateErr)
	}

	// 5. 解析结果
	if outcome.Kind == host.RedirectURL {
		url := strings.TrimSpace(markupPattern.ReplaceAllString(outcome.URL, ""))
		if url != "" {
			um.log.Info().Str("plugin", id.String()).Str("url", url).Msg("plugin upgraded")
			return host.Redirect(url), nil
		}
	}

	um.log.Info().Str("plugin", id.String()).Msg("no update available")
	return host.NoUpdate(), nil
}
