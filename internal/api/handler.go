package api

import (
	"context"

	"plugin-endpoints/internal/host"
)

// Resolver 将 slug 解析为已安装插件的标识
type Resolver interface {
	Resolve(ctx context.Context, slug string) (host.PluginIdentifier, error)
}

// Orchestrator 执行强制刷新 + 升级流程
type Orchestrator interface {
	Run(ctx context.Context, id host.PluginIdentifier) (host.UpdateOutcome, error)
}

// Packager 将插件安装路径 (目录或单文件) 打包并返回下载地址
type Packager interface {
	Package(installPath string) (string, error)
}

// HandlerOptions 注入给 Handler 的不可变配置
type HandlerOptions struct {
	AuthCode          string // 为空表示服务端未配置
	PluginsDir        string
	LegacyStatusCodes bool // 缺少 plugin 参数时返回 401
}

// ServerHandler 持有下载接口的全部依赖
// 测试时可以注入 fake 实现
type ServerHandler struct {
	resolver Resolver
	updater  Orchestrator
	packager Packager
	opts     HandlerOptions
}

// NewServerHandler 构造函数
func NewServerHandler(resolver Resolver, updater Orchestrator, packager Packager, opts HandlerOptions) *ServerHandler {
	return &ServerHandler{
		resolver: resolver,
		updater:  updater,
		packager: packager,
		opts:     opts,
	}
}
