package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/database"
	"Fpublisher/internal/utils"

	"gorm.io/gorm"
)

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// MediaType 按扩展名返回 MIME，不支持的格式返回空
func MediaType(name string) string {
	return mediaTypes[strings.ToLower(filepath.Ext(name))]
}

// FileService 管理导入到媒体目录的文件
// 导入后的文件通过 /media/ 提供，payload 可以直接引用其 URL
type FileService struct {
	db *gorm.DB
}

func NewFileService(db *gorm.DB) *FileService {
	return &FileService{db: db}
}

func (s *FileService) GetMedia(ctx context.Context) ([]database.MediaFile, error) {
	var files []database.MediaFile
	result := s.db.WithContext(ctx).Order("id DESC").Find(&files)
	if result.Error != nil {
		return nil, fmt.Errorf("query media failed: %w", result.Error)
	}
	return files, nil
}

// GetMediaByID 根据ID获取文件
func (s *FileService) GetMediaByID(ctx context.Context, id int) (*database.MediaFile, error) {
	var file database.MediaFile
	result := s.db.WithContext(ctx).First(&file, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("media %d not found", id)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("query media failed: %w", result.Error)
	}
	return &file, nil
}

// ImportFile 复制本地文件到媒体目录
func (s *FileService) ImportFile(ctx context.Context, filePath string) (*database.MediaFile, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat file failed: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}

	srcFile, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open source file failed: %w", err)
	}
	defer srcFile.Close()

	return s.Save(ctx, filepath.Base(filePath), srcFile)
}

// Save 保存上传的内容，文件名加时间戳前缀避免覆盖
func (s *FileService) Save(ctx context.Context, name string, r io.Reader) (*database.MediaFile, error) {
	name = filepath.Base(name)
	mimeType := MediaType(name)
	if mimeType == "" {
		return nil, fmt.Errorf("unsupported media format: %s", filepath.Ext(name))
	}

	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), name)
	dstPath := filepath.Join(config.Config.MediaPath, filename)

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("create dest file failed: %w", err)
	}
	defer dstFile.Close()

	size, err := io.Copy(dstFile, r)
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("copy file failed: %w", err)
	}

	file := &database.MediaFile{
		Filename:  name,
		FilePath:  dstPath,
		FileSize:  size,
		MimeType:  mimeType,
		URL:       config.MediaBaseURL() + "/media/" + filename,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return nil, fmt.Errorf("save media to db failed: %w", err)
	}

	utils.Info(fmt.Sprintf("Media imported: %s -> %s", name, file.URL))
	return file, nil
}

func (s *FileService) DeleteMedia(ctx context.Context, id int) error {
	file, err := s.GetMediaByID(ctx, id)
	if err != nil {
		return err
	}

	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		utils.Error(fmt.Sprintf("Remove media file failed: %v", err))
	}
	if file.Thumbnail != "" {
		thumb := filepath.Join(config.Config.ThumbnailPath, filepath.Base(file.Thumbnail))
		if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
			utils.Error(fmt.Sprintf("Remove thumbnail file failed: %v", err))
		}
	}

	if err := s.db.WithContext(ctx).Delete(file).Error; err != nil {
		return fmt.Errorf("delete media from db failed: %w", err)
	}
	return nil
}

// ExtractThumbnail 从视频抽帧作为封面，返回可访问的 URL
func (s *FileService) ExtractThumbnail(ctx context.Context, id int, at time.Duration) (string, error) {
	file, err := s.GetMediaByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(file.MimeType, "video/") {
		return "", fmt.Errorf("media %d is not a video", id)
	}

	cover, err := utils.ExtractCover(ctx, file.FilePath, config.Config.ThumbnailPath, at)
	if err != nil {
		return "", fmt.Errorf("extract frame failed: %w", err)
	}

	file.Thumbnail = config.MediaBaseURL() + "/thumbnails/" + cover.Name
	if err := s.db.WithContext(ctx).Save(file).Error; err != nil {
		return "", fmt.Errorf("update media thumbnail failed: %w", err)
	}
	return file.Thumbnail, nil
}
