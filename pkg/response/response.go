package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"plugin-endpoints/pkg/code"
	"plugin-endpoints/pkg/e"

	"github.com/rs/zerolog/log"
)

type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"` // data 字段可以是 null, object, array
}

// Result 基础响应方法
func Result(w http.ResponseWriter, httpStatus int, bizCode int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := Response{
		Code: bizCode,
		Msg:  msg,
		Data: data,
	}
	json.NewEncoder(w).Encode(resp)
}

// NoContent 无内容响应 (HTTP 204)
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Redirect 永久重定向 (HTTP 301)
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusMovedPermanently)
}

// Error 错误响应, HTTP 状态取自业务错误
func Error(w http.ResponseWriter, err error) {
	// 1. 如果是自定义业务错误
	var bizErr *e.CodeError
	if errors.As(err, &bizErr) {
		status := bizErr.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		// 记录原始错误日志（如果有）
		if bizErr.Raw != nil {
			log.Error().Err(bizErr.Raw).Int("code", bizErr.Code).Msg(bizErr.Msg)
		}
		Result(w, status, bizErr.Code, bizErr.Msg, nil)
		return
	}

	// 2. 如果是普通系统错误
	log.Error().Err(err).Msg("unhandled error")
	Result(w, http.StatusInternalServerError, code.ServerError, code.GetMsg(code.ServerError), nil)
}
