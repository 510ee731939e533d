package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"plugin-endpoints/internal/middleware"
	"plugin-endpoints/pkg/code"
	"plugin-endpoints/pkg/e"
	"plugin-endpoints/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StaticPrefix 本地归档的静态下载路径
const StaticPrefix = "/download/"

// RouterOptions 路由组装参数
type RouterOptions struct {
	APIRoot      string // e.g. /wp-json
	DownloadPath string // 完整的下载接口路径
	IsAdmin      func(*http.Request) bool
	StaticDir    string // 本地存储目录, 为空则不挂载静态下载
	RateLimit    int    // 每分钟请求数, 0 表示不限制
	Tracing      bool
	ServiceName  string
}

// NewRouter 组装路由与中间件
func NewRouter(h *ServerHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.FrontendTakeover(opts.APIRoot, opts.IsAdmin, "/healthz", "/metrics", StaticPrefix))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, e.New(http.StatusMethodNotAllowed, code.MethodNotAllowed, "", nil))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}
		r.Get(opts.DownloadPath, h.HandleDownload)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix(StaticPrefix, http.FileServer(http.Dir(opts.StaticDir)))
		r.Method(http.MethodGet, StaticPrefix+"*", fs)
	}

	var handler http.Handler = r
	if opts.Tracing {
		handler = otelhttp.NewHandler(handler, opts.ServiceName)
	}
	return handler
}

// Server HTTP 服务, 支持优雅退出
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run 阻塞直到 ctx 结束, 然后在 grace 时间内关闭
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("plugin endpoints listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
