package manager

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"plugin-endpoints/internal/metrics"
	"plugin-endpoints/pkg/logger"
	"plugin-endpoints/pkg/storage"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

const (
	artifactPrefix = "plugin"
	artifactExt    = ".zip"
)

var ErrInsufficientSpace = errors.New("insufficient free disk space")

type ArchiveOptions struct {
	Retention    time.Duration
	LocalDir     string // 本地存储目录, 仅用于磁盘空间预检; MinIO 时为空
	MinFreeBytes uint64
}

// ArchiveManager 把插件安装目录打成 zip, 并负责过期归档的清理
type ArchiveManager struct {
	store        storage.Provider
	retention    time.Duration
	localDir     string
	minFreeBytes uint64
	now          func() time.Time
	log          zerolog.Logger
}

func NewArchiveManager(store storage.Provider, opts ArchiveOptions) *ArchiveManager {
	retention := opts.Retention
	if retention <= 0 {
		retention = time.Hour
	}
	return &ArchiveManager{
		store:        store,
		retention:    retention,
		localDir:     opts.LocalDir,
		minFreeBytes: opts.MinFreeBytes,
		now:          time.Now,
		log:          logger.Component("packager"),
	}
}

// SetClock 替换时间源
func (am *ArchiveManager) SetClock(now func() time.Time) {
	am.now = now
}

// SweepResult 清理结果统计
type SweepResult struct {
	FreedBytes int64    `json:"freed_bytes"`
	Deleted    []string `json:"deleted"`
	Skipped    []string `json:"skipped"`
	Errors     []string `json:"errors"`
}

// Sweep 删除超过保留期的归档
// 文件名不符合 plugin-{unix}-{token}.zip 的跳过并记录, 单个文件失败不影响其它文件
func (am *ArchiveManager) Sweep() (SweepResult, error) {
	result := SweepResult{
		Deleted: []string{},
		Skipped: []string{},
		Errors:  []string{},
	}

	files, err := am.store.ListFiles()
	if err != nil {
		return result, err
	}

	now := am.now().Unix()
	maxAge := int64(am.retention / time.Second)
	for _, f := range files {
		ts, ok := parseArtifactTime(f.Name)
		if !ok {
			am.log.Warn().Str("file", f.Name).Msg("skip file with unexpected name")
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}
		if now-ts <= maxAge {
			continue
		}

		if err := am.store.Delete(f.Name); err != nil {
			errMsg := fmt.Sprintf("Failed to delete %s: %v", f.Name, err)
			am.log.Error().Err(err).Str("file", f.Name).Msg("delete expired archive failed")
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		am.log.Debug().Str("file", f.Name).Int64("size", f.Size).Msg("deleted expired archive")
		result.FreedBytes += f.Size
		result.Deleted = append(result.Deleted, f.Name)
	}

	metrics.ArchivesSwept.Add(float64(len(result.Deleted)))
	if len(result.Deleted) > 0 {
		am.log.Info().Int("deleted", len(result.Deleted)).Int64("freed_bytes", result.FreedBytes).Msg("retention sweep done")
	}
	return result, nil
}

// Package 清理过期归档后把安装路径打包成新的归档, 返回下载地址
// installPath 通常是插件目录, 单文件插件则是该文件本身
// 返回 URL 时归档已经完整写入存储; 任何失败都不会返回 URL
func (am *ArchiveManager) Package(installPath string) (string, error) {
	// 1. 前置检查
	info, err := os.Stat(installPath)
	if err != nil {
		return "", fmt.Errorf("stat install path: %w", err)
	}
	if !info.IsDir() && !info.Mode().IsRegular() {
		return "", fmt.Errorf("install path %s is neither a directory nor a regular file", installPath)
	}

	// 2. 保留期清理 (失败只记录)
	if _, err := am.Sweep(); err != nil {
		am.log.Warn().Err(err).Msg("retention sweep failed")
	}

	// 3. 磁盘空间预检
	if err := am.checkFreeSpace(); err != nil {
		return "", err
	}

	// 4. 生成文件名并流式写入存储
	name := am.newArtifactName()
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeDirZip(pw, installPath))
	}()

	if err := am.store.Save(name, pr); err != nil {
		pr.CloseWithError(err)
		if delErr := am.store.Delete(name); delErr != nil {
			am.log.Error().Err(delErr).Str("file", name).Msg("remove partial archive failed")
		}
		return "", fmt.Errorf("write archive %s: %w", name, err)
	}

	// 5. 写完才生成下载地址
	url, err := am.store.GetDownloadURL(name)
	if err != nil {
		return "", fmt.Errorf("resolve archive url: %w", err)
	}

	metrics.ArchivesCreated.Inc()
	am.log.Info().Str("path", installPath).Str("file", name).Msg("plugin packaged")
	return url, nil
}

func (am *ArchiveManager) newArtifactName() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%d-%s%s", artifactPrefix, am.now().Unix(), token, artifactExt)
}

func (am *ArchiveManager) checkFreeSpace() error {
	if am.localDir == "" || am.minFreeBytes == 0 {
		return nil
	}
	usage, err := disk.Usage(am.localDir)
	if err != nil {
		return fmt.Errorf("disk usage of %s: %w", am.localDir, err)
	}
	if usage.Free < am.minFreeBytes {
		return fmt.Errorf("%w: %d bytes free, %d required", ErrInsufficientSpace, usage.Free, am.minFreeBytes)
	}
	return nil
}

// parseArtifactTime 从 plugin-{unix}-{token}.zip 中取出时间戳
func parseArtifactTime(name string) (int64, bool) {
	if !strings.HasSuffix(name, artifactExt) {
		return 0, false
	}
	parts := strings.Split(strings.TrimSuffix(name, artifactExt), "-")
	if len(parts) < 3 || parts[0] != artifactPrefix || parts[2] == "" {
		return 0, false
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ts < 0 {
		return 0, false
	}
	return ts, true
}

// writeDirZip 递归写入 root 下的所有文件, 归档内路径为相对 root 的路径
// root 是单个文件时, 归档里只有这一个文件 (取文件名)
func writeDirZip(w io.Writer, root string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			// 符号链接、设备文件等不打包
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			relPath = filepath.Base(path)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return addFileToZip(zw, path, filepath.ToSlash(relPath), info)
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func addFileToZip(zw *zip.Writer, srcPath, zipPath string, info fs.FileInfo) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = zipPath
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, src)
	return err
}
