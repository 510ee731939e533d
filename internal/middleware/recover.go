package middleware

import (
	"fmt"
	"net/http"

	"plugin-endpoints/pkg/code"
	"plugin-endpoints/pkg/e"
	"plugin-endpoints/pkg/response"

	"github.com/rs/zerolog/log"
)

// Recover 捕获 handler 中的 panic, 返回 500
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().Str("path", r.URL.Path).Interface("panic", rec).Msg("panic recovered")
				response.Error(w, e.Internal(code.ServerError, fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
