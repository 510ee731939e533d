package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// GetClientIP 获取请求的真实 IP, 用于访问日志
// 1. 识别 X-Forwarded-For (反向代理后)
// 2. 去除端口号
// 3. IPv4-mapped / loopback 地址统一成 IPv4 写法
func GetClientIP(r *http.Request) string {
	raw := ""
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// 可能包含多个 IP (client, proxy1, proxy2...)，取第一个
		raw = strings.TrimSpace(strings.Split(xff, ",")[0])
	} else if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		raw = xRealIP
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		raw = host
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return raw
	}
	if addr.IsLoopback() && addr.Is6() {
		return "127.0.0.1"
	}
	return addr.Unmap().String()
}
