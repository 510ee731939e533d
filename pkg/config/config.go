package config

import (
	"time"
)

// ================= Endpoint Config =================

type EndpointConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Host      HostConfig      `mapstructure:"host"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Compat    CompatConfig    `mapstructure:"compat"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	APIRoot      string `mapstructure:"api_root"`      // REST 根路径, e.g. /wp-json
	APINamespace string `mapstructure:"api_namespace"` // e.g. /plugin-update-endpoints
	RateLimit    int    `mapstructure:"rate_limit"`    // 每分钟请求数上限 (0 表示不限制)
}

// DownloadPath 下载接口的完整路径
func (s ServerConfig) DownloadPath() string {
	return s.APIRoot + s.APINamespace + "/v1/download"
}

type AuthConfig struct {
	Code string `mapstructure:"code"` // 为空表示服务端未配置
}

type HostConfig struct {
	PluginsDir    string        `mapstructure:"plugins_dir"`
	DBPath        string        `mapstructure:"db_path"`
	UpdateFeedURL string        `mapstructure:"update_feed_url"`
	UpdateTTL     time.Duration `mapstructure:"update_ttl"`
	AdminPrefix   string        `mapstructure:"admin_prefix"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
}

type ArchiveConfig struct {
	Store         string        `mapstructure:"store"` // "local" or "minio"
	OutputDir     string        `mapstructure:"output_dir"`
	BaseURL       string        `mapstructure:"base_url"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepSchedule string        `mapstructure:"sweep_schedule"` // cron 表达式, 为空则不启动定时清理
	MinFreeBytes  uint64        `mapstructure:"min_free_bytes"`
	Minio         MinioConfig   `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	AK       string `mapstructure:"ak"`
	SK       string `mapstructure:"sk"`
	Bucket   string `mapstructure:"bucket"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

type ResolverConfig struct {
	Match  string `mapstructure:"match"`  // "segment" or "substring"
	Strict bool   `mapstructure:"strict"` // segment 模式下禁用子串兜底
}

type CompatConfig struct {
	LegacyStatusCodes bool `mapstructure:"legacy_status_codes"` // 缺少 plugin 参数时返回 401 而不是 400
}

// ================= Common =================

type LogConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error"
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}
