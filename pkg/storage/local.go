package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type LocalProvider struct {
	BaseDir string
	BaseURL string // 对外访问前缀, e.g. http://host:8080/download
}

func NewLocalProvider(baseDir, baseURL string) (*LocalProvider, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &LocalProvider{BaseDir: baseDir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *LocalProvider) Save(filename string, data io.Reader) error {
	fullPath := filepath.Join(l.BaseDir, filename)

	// 确保目录存在 (可能被人工清理掉)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	out, err := os.Create(fullPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, data); err != nil {
		out.Close()
		os.Remove(fullPath)
		return err
	}
	// 刷盘后才算写完
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(fullPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(fullPath)
		return err
	}
	return nil
}

func (l *LocalProvider) Delete(filename string) error {
	err := os.Remove(filepath.Join(l.BaseDir, filename))
	if errors.Is(err, fs.ErrNotExist) {
		// 并发清理时可能已被删掉
		return nil
	}
	return err
}

func (l *LocalProvider) GetDownloadURL(filename string) (string, error) {
	// 注意：Windows 下 filename 可能是 backslash，需替换
	webPath := strings.ReplaceAll(filename, "\\", "/")
	if l.BaseURL == "" {
		return "", fmt.Errorf("local storage base url is not configured")
	}
	return l.BaseURL + "/" + (&url.URL{Path: webPath}).EscapedPath(), nil
}

// ListFiles 只列出输出目录第一层的文件
func (l *LocalProvider) ListFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(l.BaseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// 列目录与取信息之间被删除
			continue
		}
		files = append(files, FileInfo{
			Name: entry.Name(),
			Size: info.Size(),
		})
	}
	return files, nil
}
