package middleware

import (
	"net/http"
	"strings"
)

// FrontendNotice 非 API 请求统一返回的提示
const FrontendNotice = "This site is being used for handling plugin downloads."

// FrontendTakeover 接管前台页面
// 1. 放行 REST API 请求 (apiRoot 前缀)
// 2. 放行后台管理请求
// 3. 放行运维路径 (healthz / metrics / 下载目录)
// 其它请求直接返回纯文本提示, 不再继续处理
func FrontendTakeover(apiRoot string, isAdmin func(*http.Request) bool, passthrough ...string) func(http.Handler) http.Handler {
	apiPrefix := strings.TrimRight(apiRoot, "/") + "/"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if strings.HasPrefix(path, apiPrefix) || path == strings.TrimSuffix(apiPrefix, "/") {
				next.ServeHTTP(w, r)
				return
			}
			if isAdmin != nil && isAdmin(r) {
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range passthrough {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(FrontendNotice))
		})
	}
}
