package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	HomeDir       string
	DbPath        string
	CookiePath    string
	MediaPath     string // 导入的本地媒体，通过 /media/ 对外提供
	LogPath       string
	ThumbnailPath string

	Addr          string
	PublicBaseURL string // 媒体地址前缀，为空时使用 http://Addr
	Workers       int
	MaxBrowsers   int
	MaxContexts   int
	Location      *time.Location
	HTTPTimeout   time.Duration
	RunTimeout    time.Duration
	ScheduleSpec  string // 扫描待执行任务的 cron 表达式

	DebugMode bool // 调试模式开关
	Headless  bool // 浏览器无头模式开关（true=隐藏浏览器窗口）

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

var Config *AppConfig

// Init 读取 .env 与环境变量，创建存储目录
func Init() error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		return err
	}

	dirs := []string{
		cfg.HomeDir,
		cfg.CookiePath,
		cfg.MediaPath,
		cfg.LogPath,
		cfg.ThumbnailPath,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s failed: %w", dir, err)
		}
	}

	Config = cfg
	return nil
}

// Load 仅根据环境变量构建配置，不创建目录
func Load() (*AppConfig, error) {
	home := os.Getenv("FPUBLISHER_HOME")
	if home == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(filepath.Dir(exePath), DefaultHomeDir)
	}

	tzName := envOr("FPUBLISHER_TZ", DefaultTimezone)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s failed: %w", tzName, err)
	}

	httpTimeout, err := envDuration("FPUBLISHER_HTTP_TIMEOUT", DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}
	runTimeout, err := envDuration("FPUBLISHER_RUN_TIMEOUT", DefaultRunTimeout)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("FPUBLISHER_WORKERS", DefaultWorkers)
	if err != nil {
		return nil, err
	}
	maxBrowsers, err := envInt("FPUBLISHER_MAX_BROWSERS", DefaultMaxBrowsers)
	if err != nil {
		return nil, err
	}
	maxContexts, err := envInt("FPUBLISHER_MAX_CONTEXTS", DefaultMaxContexts)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		HomeDir:       home,
		DbPath:        filepath.Join(home, DefaultDbFile),
		CookiePath:    filepath.Join(home, DefaultCookieDir),
		MediaPath:     filepath.Join(home, DefaultMediaDir),
		LogPath:       filepath.Join(home, DefaultLogDir),
		ThumbnailPath: filepath.Join(home, DefaultThumbnailDir),
		Addr:          envOr("FPUBLISHER_ADDR", DefaultAddr),
		PublicBaseURL: os.Getenv("FPUBLISHER_PUBLIC_URL"),
		Workers:       workers,
		MaxBrowsers:   maxBrowsers,
		MaxContexts:   maxContexts,
		Location:      loc,
		HTTPTimeout:   httpTimeout,
		RunTimeout:    runTimeout,
		ScheduleSpec:  envOr("FPUBLISHER_SCHEDULE", DefaultSchedulerEvery),
		DebugMode:     os.Getenv("FPUBLISHER_DEBUG") == "true",
		Headless:      os.Getenv("FPUBLISHER_HEADLESS") == "true",
		S3Endpoint:    os.Getenv("FPUBLISHER_S3_ENDPOINT"),
		S3Region:      os.Getenv("FPUBLISHER_S3_REGION"),
		S3AccessKey:   os.Getenv("FPUBLISHER_S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("FPUBLISHER_S3_SECRET_KEY"),
	}, nil
}

func GetDbPath() string {
	return Config.DbPath
}

// GetCookiePath 平台登录态文件（playwright storage state），由用户预先导出
func GetCookiePath(platform string) string {
	return filepath.Join(Config.CookiePath, fmt.Sprintf("%s.json", platform))
}

// MediaBaseURL 导入媒体的访问前缀
func MediaBaseURL() string {
	if Config.PublicBaseURL != "" {
		return Config.PublicBaseURL
	}
	return "http://" + Config.Addr
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
