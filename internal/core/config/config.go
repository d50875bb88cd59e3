package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int64
	CORSOrigins       []string
	// 登录/注册按 IP 限速
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}
type AdminHTTP struct {
	Host string
	Port int
	// 启动时确保存在的管理员账号（可选）
	BootstrapUsername string
	BootstrapEmail    string
	BootstrapPassword string
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
	// 文件切割（可选）
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	RatingTTLSec int    `mapstructure:"rating_ttl_sec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Storage 上传图片的本地目录与对外访问前缀
type Storage struct {
	Dir          string `mapstructure:"dir"`
	PublicPrefix string `mapstructure:"public_prefix"`
}

// Market 业务策略开关；默认值保持现有的宽松行为
type Market struct {
	AllowRequesterSelfAssign bool `mapstructure:"allow_requester_self_assign"`
	ProtectOverrides         bool `mapstructure:"protect_overrides"`
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis   `mapstructure:"redis"`
	Storage Storage `mapstructure:"storage"`
	Market  Market  `mapstructure:"market"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "freelance-market")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.http.maxbodymb", 16)
	v.SetDefault("app.http.ratelimitrps", 200)
	v.SetDefault("app.http.ratelimitburst", 400)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.corsorigins", []string{"http://localhost:3000"})
	v.SetDefault("app.http.authratelimitrps", 1)
	v.SetDefault("app.http.authratelimitburst", 10)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)

	v.SetDefault("jwt.issuer", "freelance-market")
	v.SetDefault("jwt.accesstokenttlmin", 24*60)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "market.db")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.rating_ttl_sec", 300)

	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.public_prefix", "/uploads")

	v.SetDefault("market.allow_requester_self_assign", true)
	v.SetDefault("market.protect_overrides", false)
}

// Load 读取 yaml（可缺省）+ APP_ 前缀环境变量；JWT 密钥缺失直接报错
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil || !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	// AutomaticEnv 不覆盖未出现在配置文件里的嵌套 key，显式绑定敏感项
	_ = v.BindEnv("jwt.secret")
	_ = v.BindEnv("db.dsn")
	_ = v.BindEnv("db.password")
	_ = v.BindEnv("redis.addr")
	_ = v.BindEnv("redis.password")
	_ = v.BindEnv("app.admin.bootstrappassword")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required (APP_JWT_SECRET)")
	}
	return &c, nil
}
