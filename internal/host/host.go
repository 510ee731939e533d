// Package host 定义端点依赖的宿主运行时能力 (插件注册表、更新缓存、启停、升级器)。
// 核心流程只依赖这些接口, 具体实现见 filehost。
package host

import (
	"context"
	"net/http"
	"strings"
)

// PluginIdentifier 插件全限定标识, 格式 "目录/入口文件"
// e.g. contact-form-7/wp-contact-form-7.php
type PluginIdentifier string

// Dir 插件目录名 (第一个 "/" 之前的部分)
func (id PluginIdentifier) Dir() string {
	dir, _, _ := strings.Cut(string(id), "/")
	return dir
}

// Entry 入口文件名, 没有 "/" 时返回空串
func (id PluginIdentifier) Entry() string {
	_, entry, _ := strings.Cut(string(id), "/")
	return entry
}

func (id PluginIdentifier) String() string {
	return string(id)
}

type OutcomeKind int

const (
	NoUpdateAvailable OutcomeKind = iota
	RedirectURL
)

// UpdateOutcome 一次升级调用的结果
type UpdateOutcome struct {
	Kind OutcomeKind
	URL  string // 仅 RedirectURL 时有效
}

func NoUpdate() UpdateOutcome {
	return UpdateOutcome{Kind: NoUpdateAvailable}
}

func Redirect(url string) UpdateOutcome {
	return UpdateOutcome{Kind: RedirectURL, URL: url}
}

type Registry interface {
	// ListInstalled 按宿主的枚举顺序返回已安装插件
	ListInstalled(ctx context.Context) ([]PluginIdentifier, error)
	// IsAdminRequest 请求是否属于后台管理上下文
	IsAdminRequest(r *http.Request) bool
}

type UpdateCache interface {
	// ForceRefresh 强制重新拉取更新元数据
	ForceRefresh(ctx context.Context) error
	// ClearTransient 清空缓存的更新状态, 防止宿主跳过检查
	ClearTransient(ctx context.Context) error
}

type Lifecycle interface {
	Activate(ctx context.Context, id PluginIdentifier) error
	Deactivate(ctx context.Context, id PluginIdentifier) error
}

type Upgrader interface {
	// Upgrade 有新版本时下载并覆盖安装, 返回更新包地址; 否则返回 NoUpdate
	Upgrade(ctx context.Context, id PluginIdentifier) (UpdateOutcome, error)
}

// Host 宿主运行时的全部能力
type Host interface {
	Registry
	UpdateCache
	Lifecycle
	Upgrader
}
