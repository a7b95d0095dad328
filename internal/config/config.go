package config

import (
	"fmt"
	"strings"

	"github.com/kedai-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Store    StoreConfig    `mapstructure:"store"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 后台 JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit    RateLimitConfig `mapstructure:"login_rate_limit"`
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
}

// BranchConfig 门店默认配置
type BranchConfig struct {
	Code string  `mapstructure:"code"`
	Name string  `mapstructure:"name"`
	Lat  float64 `mapstructure:"lat"`
	Lng  float64 `mapstructure:"lng"`
}

// StoreConfig 门店默认配置，后台设置缺失字段时使用
type StoreConfig struct {
	Name                 string         `mapstructure:"name"`
	Currency             string         `mapstructure:"currency"`
	Timezone             string         `mapstructure:"timezone"`
	OpenHour             int            `mapstructure:"open_hour"`
	CloseHour            int            `mapstructure:"close_hour"`
	PerKmRate            int64          `mapstructure:"per_km_rate"`
	MinimumFee           int64          `mapstructure:"minimum_fee"`
	AssistedContactPhone string         `mapstructure:"assisted_contact_phone"`
	Branches             []BranchConfig `mapstructure:"branches"`
	ConfigCacheSeconds   int            `mapstructure:"config_cache_seconds"`
	StatusRecheckSeconds int            `mapstructure:"status_recheck_seconds"`
	CartTTLHours         int            `mapstructure:"cart_ttl_hours"`
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	Snap      SnapConfig      `mapstructure:"snap"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

// SnapConfig Snap 网关配置
type SnapConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServerKey      string `mapstructure:"server_key"`
	ClientKey      string `mapstructure:"client_key"`
	SnapURL        string `mapstructure:"snap_url"`
	APIBaseURL     string `mapstructure:"api_base_url"`
	FinishURL      string `mapstructure:"finish_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ToMap 转换为网关配置
func (c SnapConfig) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"server_key":      c.ServerKey,
		"client_key":      c.ClientKey,
		"snap_url":        c.SnapURL,
		"api_base_url":    c.APIBaseURL,
		"finish_url":      c.FinishURL,
		"timeout_seconds": c.TimeoutSeconds,
	}
}

// BreakerConfig 网关熔断配置
type BreakerConfig struct {
	MaxRequests         uint32 `mapstructure:"max_requests"`
	IntervalSeconds     int    `mapstructure:"interval_seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	ConsecutiveFailures uint32 `mapstructure:"consecutive_failures"`
}

// ReconcileConfig 支付对账配置
type ReconcileConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
	AfterMinutes    int  `mapstructure:"after_minutes"`
	BatchSize       int  `mapstructure:"batch_size"`
}

// GeocodeConfig 地址检索配置
type GeocodeConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	CountryCodes      string  `mapstructure:"country_codes"`
	Limit             int     `mapstructure:"limit"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds"`
}

// RealtimeConfig 实时推送配置
type RealtimeConfig struct {
	BufferSize         int    `mapstructure:"buffer_size"`
	PingSeconds        int    `mapstructure:"ping_seconds"`
	Channel            string `mapstructure:"channel"`
	WindowCheckSeconds int    `mapstructure:"window_check_seconds"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/kedai.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "kd")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Cart-Session",
		"X-Session-ID",
		"X-Locale",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_attempts", 6)
	v.SetDefault("store.name", "Kedai")
	v.SetDefault("store.currency", "IDR")
	v.SetDefault("store.timezone", "Asia/Jakarta")
	v.SetDefault("store.open_hour", 10)
	v.SetDefault("store.close_hour", 20)
	v.SetDefault("store.per_km_rate", 2000)
	v.SetDefault("store.minimum_fee", 10000)
	v.SetDefault("store.assisted_contact_phone", "")
	v.SetDefault("store.branches", []map[string]interface{}{})
	v.SetDefault("store.config_cache_seconds", 30)
	v.SetDefault("store.status_recheck_seconds", 60)
	v.SetDefault("store.cart_ttl_hours", 168)
	v.SetDefault("payment.snap.enabled", false)
	v.SetDefault("payment.snap.server_key", "")
	v.SetDefault("payment.snap.client_key", "")
	v.SetDefault("payment.snap.snap_url", "https://app.sandbox.midtrans.com/snap")
	v.SetDefault("payment.snap.api_base_url", "https://api.sandbox.midtrans.com")
	v.SetDefault("payment.snap.finish_url", "")
	v.SetDefault("payment.snap.timeout_seconds", 12)
	v.SetDefault("payment.breaker.max_requests", 1)
	v.SetDefault("payment.breaker.interval_seconds", 60)
	v.SetDefault("payment.breaker.timeout_seconds", 30)
	v.SetDefault("payment.breaker.consecutive_failures", 5)
	v.SetDefault("payment.reconcile.enabled", true)
	v.SetDefault("payment.reconcile.interval_seconds", 120)
	v.SetDefault("payment.reconcile.after_minutes", 5)
	v.SetDefault("payment.reconcile.batch_size", 50)
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "kedai-next/1.0")
	v.SetDefault("geocode.country_codes", "id")
	v.SetDefault("geocode.limit", 5)
	v.SetDefault("geocode.requests_per_second", 1)
	v.SetDefault("geocode.timeout_seconds", 8)
	v.SetDefault("geocode.cache_ttl_seconds", 86400)
	v.SetDefault("realtime.buffer_size", 16)
	v.SetDefault("realtime.ping_seconds", 30)
	v.SetDefault("realtime.channel", "realtime:orders")
	v.SetDefault("realtime.window_check_seconds", 60)
}
