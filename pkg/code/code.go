package code

// ====================================================
// 错误码定义
// ====================================================

const (
	// 10xxx: 通用错误
	ServerError      = 10001
	MethodNotAllowed = 10002

	// 20xxx: 鉴权
	AuthMissing       = 20001
	AuthNotConfigured = 20002
	AuthMismatch      = 20003

	// 30xxx: 插件解析
	PluginParamMissing = 30001
	PluginNotFound     = 30002

	// 40xxx: 更新 & 打包
	UpgradeFailed = 40001
	PackageFailed = 40002
)

// ====================================================
// 错误信息映射
// ====================================================

var Msg = map[int]string{
	ServerError:      "Internal server error.",
	MethodNotAllowed: "Method not allowed.",

	AuthMissing:       "Missing authentication code.",
	AuthNotConfigured: "Authentication code is not defined on the server.",
	AuthMismatch:      "Wrong authentication code.",

	PluginParamMissing: "Missing plugin parameter with plugin slug.",
	PluginNotFound:     "Plugin does not exist on this install.",

	UpgradeFailed: "Plugin upgrade failed.",
	PackageFailed: "Plugin packaging failed.",
}

// GetMsg 获取错误码对应的默认信息
func GetMsg(code int) string {
	msg, ok := Msg[code]
	if ok {
		return msg
	}
	return Msg[ServerError]
}
