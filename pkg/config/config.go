package config

import (
	"log"
	"os"
	"time"

	"MateGuard/pkg/cache"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/util"
)

// config/config.go
type Config struct {
	MachineID int64  `env:"MACHINE_ID"`
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`
	Log       logger.LogConfig
	Cache     cache.Config

	// 危机响应参数；默认值来自产品定义，可按部署覆盖
	LocationTimeout    time.Duration `env:"LOCATION_TIMEOUT_SECONDS"`
	CriticalEscalation time.Duration `env:"CRITICAL_ESCALATION_MINUTES"`
	HighEscalation     time.Duration `env:"HIGH_ESCALATION_MINUTES"`

	RateLimit         string `env:"RATE_LIMIT"`
	PermissionRefresh string `env:"PERMISSION_REFRESH_CRON"`

	// 备份默认关闭，设置 BACKUP_CRON 后启用
	BackupSchedule string `env:"BACKUP_CRON"`
	BackupPath     string `env:"BACKUP_DIR"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		MachineID: util.GetIntEnv("MACHINE_ID"),
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnv("DSN"),
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
		},
		LocationTimeout:    secondsOr(util.GetIntEnv("LOCATION_TIMEOUT_SECONDS"), 5*time.Second),
		CriticalEscalation: minutesOr(util.GetIntEnv("CRITICAL_ESCALATION_MINUTES"), 15*time.Minute),
		HighEscalation:     minutesOr(util.GetIntEnv("HIGH_ESCALATION_MINUTES"), 30*time.Minute),
		RateLimit:          util.GetEnvDefault("RATE_LIMIT", "120-M"),
		PermissionRefresh:  util.GetEnvDefault("PERMISSION_REFRESH_CRON", "0 3 * * *"),
		BackupSchedule:     util.GetEnv("BACKUP_CRON"),
		BackupPath:         util.GetEnvDefault("BACKUP_DIR", "backups"),
	}
	return nil
}

func secondsOr(v int64, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func minutesOr(v int64, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Minute
}
