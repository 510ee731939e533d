package storage

import (
	"io"
)

// Provider 归档产物的存储后端 (本地目录 或 MinIO)
type Provider interface {
	// 保存文件 (filename: 如 plugin-1700000000-abcd.zip)
	// 返回 nil 时内容必须已经完整落盘
	Save(filename string, data io.Reader) error

	// 删除文件, 文件不存在视为成功
	Delete(filename string) error

	// 获取下载链接 (Local 返回 base_url 下的地址, MinIO 返回预签名 URL)
	GetDownloadURL(filename string) (string, error)

	// 列出所有文件 (用于保留期清理)
	ListFiles() ([]FileInfo, error)
}

type FileInfo struct {
	Name string
	Size int64
}
