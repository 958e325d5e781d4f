package config

import "time"

const (
	DefaultHomeDir        = "storage"
	DefaultDbFile         = "fpublisher.db"
	DefaultCookieDir      = "cookies"
	DefaultMediaDir       = "media"
	DefaultLogDir         = "logs"
	DefaultThumbnailDir   = "thumbnails"
	DefaultAddr           = "127.0.0.1:8686"
	DefaultWorkers        = 2
	DefaultTimezone       = "Asia/Shanghai"
	DefaultHTTPTimeout    = 2 * time.Minute
	DefaultMaxBrowsers    = 2
	DefaultMaxContexts    = 3
	DefaultRunTimeout     = 15 * time.Minute
	DefaultSchedulerEvery = "@every 10s"
)
