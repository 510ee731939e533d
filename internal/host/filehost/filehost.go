// Package filehost 基于本地插件目录 + SQLite + HTTP 更新源的宿主实现。
//
// 目录约定: <plugins_dir>/<dir>/plugin.json 描述插件
//
//	{"name": "Contact Form 7", "version": "5.8.1", "entry": "wp-contact-form-7.php"}
//
// 更新源返回 JSON 数组:
//
//	[{"plugin": "contact-form-7/wp-contact-form-7.php", "version": "5.9.0", "package": "https://.../cf7.zip"}]
package filehost

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"plugin-endpoints/internal/host"
	"plugin-endpoints/pkg/logger"
	"plugin-endpoints/pkg/utils"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	manifestFile = "plugin.json"
	transientKey = "update_plugins"
)

var _ host.Host = (*FileHost)(nil)

type Options struct {
	PluginsDir    string
	UpdateFeedURL string
	UpdateTTL     time.Duration
	AdminPrefix   string
	HTTPTimeout   time.Duration
}

type FileHost struct {
	db          *sql.DB
	pluginsDir  string
	feedURL     string
	ttl         time.Duration
	adminPrefix string
	client      *utils.Client
	transient   *cache.Cache
	log         zerolog.Logger
}

func New(database *sql.DB, opts Options) *FileHost {
	ttl := opts.UpdateTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &FileHost{
		db:          database,
		pluginsDir:  opts.PluginsDir,
		feedURL:     opts.UpdateFeedURL,
		ttl:         ttl,
		adminPrefix: opts.AdminPrefix,
		client:      utils.NewClient(opts.HTTPTimeout),
		transient:   cache.New(ttl, 10*time.Minute),
		log:         logger.Component("filehost"),
	}
}

// PluginsDir 插件安装根目录
func (h *FileHost) PluginsDir() string {
	return h.pluginsDir
}

func (h *FileHost) IsAdminRequest(r *http.Request) bool {
	if h.adminPrefix == "" {
		return false
	}
	return r.URL.Path == h.adminPrefix || strings.HasPrefix(r.URL.Path, strings.TrimRight(h.adminPrefix, "/")+"/")
}
