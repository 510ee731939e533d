package e

import (
	"fmt"
	"net/http"

	"plugin-endpoints/pkg/code"
)

// CodeError 包含错误码和 HTTP 状态的业务错误
type CodeError struct {
	Code   int
	Status int // HTTP 状态码
	Msg    string
	Raw    error // 原始错误，用于后端日志记录，不展示给客户端
}

func (e *CodeError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Raw)
	}
	return e.Msg
}

func (e *CodeError) Unwrap() error {
	return e.Raw
}

// New 创建一个新的业务错误, msg 为空时使用错误码默认信息
func New(status, bizCode int, msg string, raw error) *CodeError {
	if msg == "" {
		msg = code.GetMsg(bizCode)
	}
	return &CodeError{
		Code:   bizCode,
		Status: status,
		Msg:    msg,
		Raw:    raw,
	}
}

// Internal 不可恢复错误 (HTTP 500)
func Internal(bizCode int, raw error) *CodeError {
	return New(http.StatusInternalServerError, bizCode, "", raw)
}
