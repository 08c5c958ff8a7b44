package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	AI      AIConfig      `mapstructure:"ai"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig AI 服务配置
type AIConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`

	// RequestTimeout 单次生成调用超时；ImageTimeout 含图片时使用（更长）
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ImageTimeout   time.Duration `mapstructure:"image_timeout"`

	Options AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// SyncConfig 编辑同步配置
type SyncConfig struct {
	DebounceInterval time.Duration `mapstructure:"debounce_interval"` // 编辑防抖窗口
	HistoryWindow    int           `mapstructure:"history_window"`    // 生成上下文携带的最近对话轮数
	CommitTimeout    time.Duration `mapstructure:"commit_timeout"`    // 防抖提交写入超时
}

// SandboxConfig 预览沙箱配置
// 每个运行时脚本都是白名单能力：只加载目标框架需要的，绝不加载宿主资源
type SandboxConfig struct {
	ReactRuntimeURL    string `mapstructure:"react_runtime_url"`
	ReactDOMRuntimeURL string `mapstructure:"react_dom_runtime_url"`
	BabelRuntimeURL    string `mapstructure:"babel_runtime_url"`
	TailwindRuntimeURL string `mapstructure:"tailwind_runtime_url"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
// Token 的签发由外部认证服务负责，这里只做校验
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StorageConfig 参考图片存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Sync.HistoryWindow <= 0 {
		return errors.New("sync.history_window must be positive")
	}
	if c.Sync.DebounceInterval <= 0 {
		return errors.New("sync.debounce_interval must be positive")
	}

	return nil
}
