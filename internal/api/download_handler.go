package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"plugin-endpoints/internal/host"
	"plugin-endpoints/internal/manager"
	"plugin-endpoints/internal/metrics"
	"plugin-endpoints/pkg/code"
	"plugin-endpoints/pkg/e"
	"plugin-endpoints/pkg/response"
	"plugin-endpoints/pkg/utils"

	"github.com/rs/zerolog/log"
)

// 下载结果的统计标签
const (
	outcomeRedirectUpdate  = "redirect_update"
	outcomeRedirectArchive = "redirect_archive"
	outcomeNoContent       = "no_content"
	outcomeRejected        = "rejected"
	outcomeError           = "error"
)

// Result 一次下载请求的终态结果, 由 writeResult 统一输出
type Result struct {
	Status   int
	Location string
	Err      error
	Outcome  string
}

func redirectTo(location, outcome string) Result {
	return Result{Status: http.StatusMovedPermanently, Location: location, Outcome: outcome}
}

func failure(err *e.CodeError) Result {
	outcome := outcomeRejected
	if err.Status >= http.StatusInternalServerError {
		outcome = outcomeError
	}
	return Result{Status: err.Status, Err: err, Outcome: outcome}
}

// HandleDownload GET {api}/v1/download?auth=&plugin=
func (h *ServerHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := h.download(r)

	metrics.Downloads.WithLabelValues(res.Outcome).Inc()
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())

	log.Info().
		Str("component", "download").
		Str("ip", utils.GetClientIP(r)).
		Str("plugin", r.URL.Query().Get("plugin")).
		Int("status", res.Status).
		Str("outcome", res.Outcome).
		Dur("took", time.Since(start)).
		Msg("download request")

	writeResult(w, r, res)
}

func (h *ServerHandler) download(r *http.Request) Result {
	ctx := r.Context()
	query := r.URL.Query()

	// 1. 鉴权
	if !query.Has("auth") {
		return failure(e.New(http.StatusUnauthorized, code.AuthMissing, "", nil))
	}
	if h.opts.AuthCode == "" {
		return failure(e.New(http.StatusUnauthorized, code.AuthNotConfigured, "", nil))
	}
	if subtle.ConstantTimeCompare([]byte(query.Get("auth")), []byte(h.opts.AuthCode)) != 1 {
		return failure(e.New(http.StatusUnauthorized, code.AuthMismatch, "", nil))
	}

	// 2. 解析插件
	slug := query.Get("plugin")
	if slug == "" {
		status := http.StatusBadRequest
		if h.opts.LegacyStatusCodes {
			status = http.StatusUnauthorized
		}
		return failure(e.New(status, code.PluginParamMissing, "", nil))
	}

	id, err := h.resolver.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, manager.ErrPluginNotFound) {
			return failure(e.New(http.StatusNotFound, code.PluginNotFound, "", nil))
		}
		return failure(e.Internal(code.ServerError, err))
	}

	// 3. 强制刷新并尝试升级
	outcome, err := h.updater.Run(ctx, id)
	if err != nil {
		return failure(e.Internal(code.UpgradeFailed, err))
	}
	if outcome.Kind == host.RedirectURL {
		return redirectTo(outcome.URL, outcomeRedirectUpdate)
	}

	// 4. 没有更新, 打包当前安装 (单文件插件时 Dir 即文件名)
	installPath := filepath.Join(h.opts.PluginsDir, id.Dir())
	url, err := h.packager.Package(installPath)
	if err != nil {
		return failure(e.Internal(code.PackageFailed, err))
	}
	if url == "" {
		return Result{Status: http.StatusNoContent, Outcome: outcomeNoContent}
	}
	return redirectTo(url, outcomeRedirectArchive)
}

func writeResult(w http.ResponseWriter, r *http.Request, res Result) {
	switch {
	case res.Err != nil:
		response.Error(w, res.Err)
	case res.Status == http.StatusNoContent:
		response.NoContent(w)
	default:
		response.Redirect(w, r, res.Location)
	}
}
