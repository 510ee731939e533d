package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SetDefaults 设置兜底默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.api_root", "/wp-json")
	v.SetDefault("server.api_namespace", "/plugin-update-endpoints")
	v.SetDefault("server.rate_limit", 0)

	v.SetDefault("auth.code", "")

	v.SetDefault("host.plugins_dir", "./plugins")
	v.SetDefault("host.db_path", "./endpoint_data.db")
	v.SetDefault("host.update_feed_url", "")
	v.SetDefault("host.update_ttl", "12h")
	v.SetDefault("host.admin_prefix", "/wp-admin")
	v.SetDefault("host.http_timeout", "30s")

	v.SetDefault("archive.store", "local")
	v.SetDefault("archive.output_dir", "./downloads")
	v.SetDefault("archive.base_url", "http://127.0.0.1:8080/download")
	v.SetDefault("archive.retention", "1h")
	v.SetDefault("archive.sweep_schedule", "@every 15m")
	v.SetDefault("archive.min_free_bytes", 0)
	// MinIO 默认值
	v.SetDefault("archive.minio.endpoint", "127.0.0.1:9000")
	v.SetDefault("archive.minio.ak", "minioadmin")
	v.SetDefault("archive.minio.sk", "minioadmin")
	v.SetDefault("archive.minio.bucket", "plugin-archives")

	v.SetDefault("resolver.match", "segment")
	v.SetDefault("resolver.strict", false)
	v.SetDefault("compat.legacy_status_codes", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// LoadConfig 加载配置
// 优先级: 命令行参数 > 环境变量 (PUE_*) > 配置文件 > 默认值
func LoadConfig(v *viper.Viper, cfgFile string) (*EndpointConfig, error) {
	SetDefaults(v)

	// 绑定环境变量, e.g. PUE_AUTH_CODE
	v.SetEnvPrefix("PUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file failed: %w", err)
			}
			log.Warn().Str("file", cfgFile).Msg("config file specified but not found, using flags/defaults")
		} else {
			log.Info().Str("file", v.ConfigFileUsed()).Msg("loaded config")
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err == nil {
			log.Info().Str("file", v.ConfigFileUsed()).Msg("loaded default config")
		}
	}

	var c EndpointConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 校验配置取值
func (c *EndpointConfig) Validate() error {
	switch c.Archive.Store {
	case "local", "minio":
	default:
		return fmt.Errorf("unknown archive.store %q", c.Archive.Store)
	}
	switch c.Resolver.Match {
	case "segment", "substring":
	default:
		return fmt.Errorf("unknown resolver.match %q", c.Resolver.Match)
	}
	if c.Archive.Retention <= 0 {
		return errors.New("archive.retention must be positive")
	}
	// api_root 为空时前台接管会放行所有路径
	if strings.Trim(c.Server.APIRoot, "/") == "" {
		return errors.New("server.api_root is required")
	}
	if c.Host.PluginsDir == "" {
		return errors.New("host.plugins_dir is required")
	}
	return nil
}
