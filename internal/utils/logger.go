package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// LogServiceInterface 日志服务接口（避免循环依赖）
type LogServiceInterface interface {
	Add(log types.SimpleLog)
}

type Logger struct {
	console    *log.Logger
	file       *log.Logger
	closer     io.Closer
	logService LogServiceInterface
	mutex      sync.Mutex
}

var (
	defaultLogger *Logger
	loggerOnce    sync.Once
)

func newConsole() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Prefix: "fpublisher", ReportTimestamp: true, Level: log.InfoLevel})
}

// InitLogger 打开当日日志文件，调试模式下输出 Debug 级别
func InitLogger() error {
	logPath := filepath.Join(config.Config.LogPath, fmt.Sprintf("app_%s.log", time.Now().Format("20060102")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	l := GetLogger()
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closer != nil {
		_ = l.closer.Close()
	}
	l.file = log.NewWithOptions(f, log.Options{ReportTimestamp: true, TimeFormat: "2006-01-02 15:04:05", Level: log.DebugLevel})
	l.closer = f
	if config.Config.DebugMode {
		l.console.SetLevel(log.DebugLevel)
	}
	return nil
}

// GetLogger 未初始化时只输出到标准错误
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		defaultLogger = &Logger{console: newConsole()}
	})
	return defaultLogger
}

// SetLogService 设置日志服务，用于前端日志输出
func SetLogService(service LogServiceInterface) {
	l := GetLogger()
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.logService = service
}

// SetDebug 切换控制台 Debug 输出
func SetDebug(enable bool) {
	l := GetLogger()
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if enable {
		l.console.SetLevel(log.DebugLevel)
	} else {
		l.console.SetLevel(log.InfoLevel)
	}
}

// CloseLogger 关闭日志文件
func CloseLogger() {
	l := GetLogger()
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closer != nil {
		_ = l.closer.Close()
		l.closer = nil
		l.file = nil
	}
}

func emit(target *log.Logger, level types.LogLevel, msg string, keyvals []any) {
	switch level {
	case types.LogLevelError:
		target.Error(msg, keyvals...)
	case types.LogLevelWarn:
		target.Warn(msg, keyvals...)
	case types.LogLevelDebug:
		target.Debug(msg, keyvals...)
	case types.LogLevelSuccess:
		target.Info(msg, append(keyvals, "result", "success")...)
	default:
		target.Info(msg, keyvals...)
	}
}

// log 内部日志记录方法
func (l *Logger) log(level types.LogLevel, platform, msg string) {
	var keyvals []any
	if platform != "" {
		keyvals = []any{"platform", platform}
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	emit(l.console, level, msg, keyvals)
	if l.file != nil {
		emit(l.file, level, msg, keyvals)
	}

	// Debug 不推送到前端
	if l.logService != nil && level != types.LogLevelDebug {
		now := time.Now()
		l.logService.Add(types.SimpleLog{
			Date:     now.Format("2006/1/2"),
			Time:     now.Format("15:04:05"),
			Message:  msg,
			Platform: platform,
			Level:    level,
		})
	}
}

// ========== 基础日志函数（不带平台）==========

func (l *Logger) Info(msg string) {
	l.log(types.LogLevelInfo, "", msg)
}

func (l *Logger) Error(msg string) {
	l.log(types.LogLevelError, "", msg)
}

func (l *Logger) Warn(msg string) {
	l.log(types.LogLevelWarn, "", msg)
}

func (l *Logger) Debug(msg string) {
	l.log(types.LogLevelDebug, "", msg)
}

func (l *Logger) Success(msg string) {
	l.log(types.LogLevelSuccess, "", msg)
}

// ========== 带平台的日志函数 ==========

func (l *Logger) InfoWithPlatform(platform, msg string) {
	l.log(types.LogLevelInfo, platform, msg)
}

func (l *Logger) ErrorWithPlatform(platform, msg string) {
	l.log(types.LogLevelError, platform, msg)
}

func (l *Logger) WarnWithPlatform(platform, msg string) {
	l.log(types.LogLevelWarn, platform, msg)
}

func (l *Logger) DebugWithPlatform(platform, msg string) {
	l.log(types.LogLevelDebug, platform, msg)
}

func (l *Logger) SuccessWithPlatform(platform, msg string) {
	l.log(types.LogLevelSuccess, platform, msg)
}

// ========== 全局便捷函数（不带平台）==========

func Info(msg string) {
	GetLogger().Info(msg)
}

func Error(msg string) {
	GetLogger().Error(msg)
}

func Warn(msg string) {
	GetLogger().Warn(msg)
}

func Debug(msg string) {
	GetLogger().Debug(msg)
}

func Success(msg string) {
	GetLogger().Success(msg)
}

// ========== 全局便捷函数（带平台）==========

func InfoWithPlatform(platform, msg string) {
	GetLogger().InfoWithPlatform(platform, msg)
}

func ErrorWithPlatform(platform, msg string) {
	GetLogger().ErrorWithPlatform(platform, msg)
}

func WarnWithPlatform(platform, msg string) {
	GetLogger().WarnWithPlatform(platform, msg)
}

func DebugWithPlatform(platform, msg string) {
	GetLogger().DebugWithPlatform(platform, msg)
}

func SuccessWithPlatform(platform, msg string) {
	GetLogger().SuccessWithPlatform(platform, msg)
}

// Screenshot 截图并保存到日志目录，流水线中止时用于排查页面状态
func Screenshot(page playwright.Page, name string) (string, error) {
	screenshotPath := filepath.Join(config.Config.LogPath, fmt.Sprintf("screenshot_%s_%s.png", time.Now().Format("20060102_150405"), name))
	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		Error(fmt.Sprintf("截图失败: %v", err))
		return "", err
	}
	Info(fmt.Sprintf("截图已保存: %s", screenshotPath))
	return screenshotPath, nil
}
