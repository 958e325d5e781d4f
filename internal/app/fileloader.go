package app

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"Fpublisher/internal/config"
)

// FileLoader 对外提供导入的媒体和抽帧封面
// 平台页面通过这些地址下载素材，因此需要支持 Range
type FileLoader struct {
	mediaDir     string
	thumbnailDir string
}

// NewFileLoader 创建文件加载器
func NewFileLoader() *FileLoader {
	return &FileLoader{
		mediaDir:     config.Config.MediaPath,
		thumbnailDir: config.Config.ThumbnailPath,
	}
}

// ServeHTTP 处理 HTTP 请求
func (h *FileLoader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/thumbnails/"):
		h.serveFrom(w, r, h.thumbnailDir, path)
	case strings.HasPrefix(path, "/media/"):
		h.serveFrom(w, r, h.mediaDir, path)
	default:
		http.NotFound(w, r)
	}
}

func (h *FileLoader) serveFrom(w http.ResponseWriter, r *http.Request, dir, path string) {
	// 从路径中提取文件名
	filename := filepath.Base(path)
	if filename == "" || filename == "." || filename == "/" {
		http.NotFound(w, r)
		return
	}

	// 安全检查：防止目录遍历攻击
	if strings.Contains(filename, "..") || strings.Contains(filename, "~/") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(dir, filename)
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", getContentType(filePath))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	http.ServeFile(w, r, filePath)
}

// getContentType 根据文件扩展名获取 Content-Type
func getContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}
