package utils

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"Fpublisher/internal/types"
)

// CheckFFmpeg 检查系统是否安装了 ffmpeg
func CheckFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// FrameTimestamp 将偏移量格式化为 ffmpeg 的 HH:MM:SS
func FrameTimestamp(at time.Duration) string {
	s := int(at / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// ExtractCover 从视频 at 处抽取一帧，写入 outDir 并作为 jpeg 封面返回，Name 为生成的文件名
// 默认取第 1 秒，避开开头黑帧
func ExtractCover(ctx context.Context, videoPath, outDir string, at time.Duration) (*types.File, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("视频文件不存在: %s", videoPath)
	}
	if !CheckFFmpeg() {
		return nil, fmt.Errorf("系统未安装 ffmpeg，无法抽取封面")
	}
	if at <= 0 {
		at = time.Second
	}
	if outDir == "" {
		outDir = os.TempDir()
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	coverPath := filepath.Join(outDir, fmt.Sprintf("%s_cover_%d.jpg", base, time.Now().UnixNano()))

	// -ss 放在 -i 之前是快速定位
	cmd := exec.CommandContext(ctx, "ffmpeg", "-ss", FrameTimestamp(at), "-i", videoPath, "-vframes", "1", "-q:v", "2", "-y", coverPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		Error(fmt.Sprintf("[抽帧失败] ffmpeg 错误: %v, 输出: %s", err, string(output)))
		return nil, fmt.Errorf("ffmpeg 执行失败: %w", err)
	}

	data, err := os.ReadFile(coverPath)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("封面文件生成失败或为空")
	}

	Info(fmt.Sprintf("[抽帧成功] 封面已生成: %s, 大小: %d bytes", coverPath, len(data)))
	return &types.File{Name: filepath.Base(coverPath), MimeType: "image/jpeg", Data: data}, nil
}
