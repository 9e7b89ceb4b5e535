package config

import (
	"fmt"
	"strings"

	"github.com/roomnest-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Network   NetworkConfig   `mapstructure:"network"`
	Email     EmailConfig     `mapstructure:"email"`
	Captcha   CaptchaConfig   `mapstructure:"captcha"`
	Retention RetentionConfig `mapstructure:"retention"`
	Admin     AdminConfig     `mapstructure:"admin"`
	App       AppConfig       `mapstructure:"app"`
}

// AdminConfig 管理员引导配置
type AdminConfig struct {
	Email string `mapstructure:"email"`
}

// AppConfig 站点级配置
type AppConfig struct {
	// BaseURL 用于拼接邮件中的魔法链接
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release / test
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
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
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

// AuthConfig 登录认证配置
type AuthConfig struct {
	Otp     OtpConfig     `mapstructure:"otp"`
	Session SessionConfig `mapstructure:"session"`
	Limits  LimitsConfig  `mapstructure:"limits"`
}

// OtpConfig 邮箱验证码配置
type OtpConfig struct {
	// Secret 为验证码哈希用 HMAC 密钥，生产环境要求 ≥32 字符
	Secret          string `mapstructure:"secret"`
	CodeLength      int    `mapstructure:"code_length"`
	ExpireMinutes   int    `mapstructure:"expire_minutes"`
	MaxAttempts     int    `mapstructure:"max_attempts"`
	MailTimeoutSecs int    `mapstructure:"mail_timeout_seconds"`
	// 响应时间下限：防枚举的固定响应窗口
	MinResponseMS       int  `mapstructure:"min_response_ms"`
	MinResponseJitterMS int  `mapstructure:"min_response_jitter_ms"`
	DisableTimingFloor  bool `mapstructure:"disable_timing_floor"` // 仅测试使用
}

// SessionConfig 会话 Cookie 配置
type SessionConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

// LimitWindow 单个限流窗口配置
type LimitWindow struct {
	WindowMinutes int `mapstructure:"window_minutes"`
	MaxHits       int `mapstructure:"max_hits"`
}

// LimitsConfig OTP 限流配置
// 请求侧与验证侧各自独立按邮箱 / IP / 子网维度计数，任一超限即拒绝。
type LimitsConfig struct {
	RequestPerEmail  LimitWindow `mapstructure:"request_per_email"`
	RequestPerIP     LimitWindow `mapstructure:"request_per_ip"`
	RequestPerSubnet LimitWindow `mapstructure:"request_per_subnet"`
	VerifyPerEmail   LimitWindow `mapstructure:"verify_per_email"`
	VerifyPerIP      LimitWindow `mapstructure:"verify_per_ip"`
	VerifyPerSubnet  LimitWindow `mapstructure:"verify_per_subnet"`
	VerifyPerEmail1h LimitWindow `mapstructure:"verify_per_email_1h"`
	VerifyPerIP1h    LimitWindow `mapstructure:"verify_per_ip_1h"`
}

// NetworkConfig 网络指纹解析配置
type NetworkConfig struct {
	// TrustedHeader 唯一信任的代理头；为空时使用 X-Forwarded-For 并在 release 模式告警
	TrustedHeader string `mapstructure:"trusted_header"`
	// TrustedHops 从链路右端起信任的跳数
	TrustedHops int `mapstructure:"trusted_hops"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// CaptchaConfig 图形验证码配置
type CaptchaConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Scenes  CaptchaSceneConfig `mapstructure:"scenes"`
	Image   CaptchaImageConfig `mapstructure:"image"`
}

// CaptchaSceneConfig 验证码场景开关
type CaptchaSceneConfig struct {
	OtpRequest bool `mapstructure:"otp_request"`
}

// CaptchaImageConfig 图片验证码参数
type CaptchaImageConfig struct {
	Length        int `mapstructure:"length"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	NoiseCount    int `mapstructure:"noise_count"`
	ShowLine      int `mapstructure:"show_line"`
	ExpireSeconds int `mapstructure:"expire_seconds"`
	MaxStore      int `mapstructure:"max_store"`
}

// RetentionConfig 数据保留配置
type RetentionConfig struct {
	OtpRecordDays      int `mapstructure:"otp_record_days"`
	AuditEventDays     int `mapstructure:"audit_event_days"`
	RateBucketDays     int `mapstructure:"rate_bucket_days"`
	SweepIntervalHours int `mapstructure:"sweep_interval_hours"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "roomnest.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/roomnest.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "rn")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-CSRF-Token",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("auth.otp.secret", "change-me-in-production")
	viper.SetDefault("auth.otp.code_length", 6)
	viper.SetDefault("auth.otp.expire_minutes", 10)
	viper.SetDefault("auth.otp.max_attempts", 5)
	viper.SetDefault("auth.otp.mail_timeout_seconds", 10)
	viper.SetDefault("auth.otp.min_response_ms", 320)
	viper.SetDefault("auth.otp.min_response_jitter_ms", 120)
	viper.SetDefault("auth.otp.disable_timing_floor", false)
	viper.SetDefault("auth.session.secret", "session-change-me-in-production")
	viper.SetDefault("auth.session.expire_hours", 168)
	viper.SetDefault("auth.session.cookie_domain", "")
	viper.SetDefault("auth.session.cookie_secure", false)
	viper.SetDefault("auth.limits.request_per_email.window_minutes", 10)
	viper.SetDefault("auth.limits.request_per_email.max_hits", 3)
	viper.SetDefault("auth.limits.request_per_ip.window_minutes", 10)
	viper.SetDefault("auth.limits.request_per_ip.max_hits", 10)
	viper.SetDefault("auth.limits.request_per_subnet.window_minutes", 10)
	viper.SetDefault("auth.limits.request_per_subnet.max_hits", 30)
	viper.SetDefault("auth.limits.verify_per_email.window_minutes", 10)
	viper.SetDefault("auth.limits.verify_per_email.max_hits", 10)
	viper.SetDefault("auth.limits.verify_per_ip.window_minutes", 10)
	viper.SetDefault("auth.limits.verify_per_ip.max_hits", 30)
	viper.SetDefault("auth.limits.verify_per_subnet.window_minutes", 10)
	viper.SetDefault("auth.limits.verify_per_subnet.max_hits", 100)
	viper.SetDefault("auth.limits.verify_per_email_1h.window_minutes", 60)
	viper.SetDefault("auth.limits.verify_per_email_1h.max_hits", 30)
	viper.SetDefault("auth.limits.verify_per_ip_1h.window_minutes", 60)
	viper.SetDefault("auth.limits.verify_per_ip_1h.max_hits", 100)
	viper.SetDefault("network.trusted_header", "")
	viper.SetDefault("network.trusted_hops", 1)
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.host", "")
	viper.SetDefault("email.port", 587)
	viper.SetDefault("email.username", "")
	viper.SetDefault("email.password", "")
	viper.SetDefault("email.from", "")
	viper.SetDefault("email.from_name", "")
	viper.SetDefault("email.use_tls", true)
	viper.SetDefault("email.use_ssl", false)
	viper.SetDefault("captcha.enabled", false)
	viper.SetDefault("captcha.scenes.otp_request", false)
	viper.SetDefault("captcha.image.length", 5)
	viper.SetDefault("captcha.image.width", 240)
	viper.SetDefault("captcha.image.height", 80)
	viper.SetDefault("captcha.image.noise_count", 2)
	viper.SetDefault("captcha.image.show_line", 2)
	viper.SetDefault("captcha.image.expire_seconds", 300)
	viper.SetDefault("captcha.image.max_store", 10240)
	viper.SetDefault("admin.email", "admin@example.com")
	viper.SetDefault("app.base_url", "http://localhost:8080")
	viper.SetDefault("retention.otp_record_days", 7)
	viper.SetDefault("retention.audit_event_days", 90)
	viper.SetDefault("retention.rate_bucket_days", 2)
	viper.SetDefault("retention.sweep_interval_hours", 6)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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
