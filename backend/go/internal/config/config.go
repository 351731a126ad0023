package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
// Endpoint 为空时不启用原始文件归档。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 默认存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
// Brokers 为空时不发布文档事件。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 文档事件主题
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"` // Redis 数据库配置
	MySQL MySQLConfig `yaml:"mysql"` // MySQL 数据库配置
	MinIO MinIOConfig `yaml:"minio"` // MinIO 对象存储配置
	Kafka KafkaConfig `yaml:"kafka"` // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address         string `yaml:"address"`         // 监听地址 (例如: ":8080")
	ShutdownTimeout string `yaml:"shutdownTimeout"` // 优雅关闭的最长等待时间 (例如: "15s")
}

// AuthConfig 用于配置 JWT 认证。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
	TokenTTL  int    `yaml:"tokenTTL"`  // JWT 令牌的有效期（秒）
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// LLMConfig 包含了 LLM 提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商, 目前只支持 "gemini"
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey          string  `yaml:"apiKey"`          // Gemini API 密钥
	Model           string  `yaml:"model"`           // Gemini 模型名称
	Temperature     float32 `yaml:"temperature"`     // 采样温度
	TopK            int32   `yaml:"topK"`            // Top-K 采样
	TopP            float32 `yaml:"topP"`            // Top-P 采样
	MaxOutputTokens int32   `yaml:"maxOutputTokens"` // 单次回答最大 token 数
}

// OCRConfig 定义了图像预处理与文字识别的配置。
type OCRConfig struct {
	Languages   []string `yaml:"languages"`   // 引擎启动时加载的语言 (例如: ["eng", "por"])
	MaxEdge     int      `yaml:"maxEdge"`     // 预处理后图像的最长边 (像素), 只缩小不放大
	JPEGQuality int      `yaml:"jpegQuality"` // 预处理重新编码的 JPEG 质量 (1-100)
	WorkDir     string   `yaml:"workDir"`     // 预处理中间文件目录
}

// PDFConfig 定义了 PDF 文本提取的配置。
type PDFConfig struct {
	MaxPages int `yaml:"maxPages"` // 最多读取的页数, 超出部分静默忽略
}

// CacheConfig 定义了提取结果缓存的配置。
type CacheConfig struct {
	Backend     string `yaml:"backend"`     // "memory" 或 "redis"
	Policy      string `yaml:"policy"`      // "unbounded" (默认, 进程生命周期内不淘汰, 长期运行会持续增长) 或 "lru"
	Capacity    int    `yaml:"capacity"`    // policy 为 lru 时的最大条目数
	RedisPrefix string `yaml:"redisPrefix"` // backend 为 redis 时的键前缀
}

// UploadConfig 定义了上传文件的存放与校验规则。
type UploadConfig struct {
	Dir      string   `yaml:"dir"`      // 上传文件存放目录
	MaxBytes int64    `yaml:"maxBytes"` // 单个文件最大字节数
	Allowed  []string `yaml:"allowed"`  // 允许的扩展名 (不带点)
}

// MetricsConfig 定义了 Prometheus 指标暴露的配置。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了按用户的令牌桶限流配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了 LLM 调用熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        LLMConfig        `yaml:"llm"`
	OCR        OCRConfig        `yaml:"ocr"`
	PDF        PDFConfig        `yaml:"pdf"`
	Cache      CacheConfig      `yaml:"cache"`
	Upload     UploadConfig     `yaml:"upload"`
	Logger     LoggerConfig     `yaml:"logger"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，
// 然后填充默认值、应用环境变量覆盖并校验。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	return Parse(yamlFile)
}

// Parse 解析 YAML 内容并返回完整可用的配置。
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults 为未设置的字段填充默认值。
func (c *AppConfig) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "document_service"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 7 * 24 * 3600
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	g := &c.LLM.Gemini
	if g.Model == "" {
		g.Model = "gemini-1.5-flash"
	}
	if g.Temperature == 0 {
		g.Temperature = 0.7
	}
	if g.TopK == 0 {
		g.TopK = 40
	}
	if g.TopP == 0 {
		g.TopP = 0.95
	}
	if g.MaxOutputTokens == 0 {
		g.MaxOutputTokens = 500
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"eng", "por"}
	}
	if c.OCR.MaxEdge <= 0 {
		c.OCR.MaxEdge = 2000
	}
	if c.OCR.JPEGQuality <= 0 {
		c.OCR.JPEGQuality = 85
	}
	if c.OCR.WorkDir == "" {
		c.OCR.WorkDir = "./cache"
	}
	if c.PDF.MaxPages <= 0 {
		c.PDF.MaxPages = 50
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Policy == "" {
		c.Cache.Policy = "unbounded"
	}
	if c.Cache.RedisPrefix == "" {
		c.Cache.RedisPrefix = "paggo:extraction:"
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "./uploads"
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = 10 * 1024 * 1024
	}
	if len(c.Upload.Allowed) == 0 {
		c.Upload.Allowed = []string{"jpg", "jpeg", "png", "pdf"}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Databases.Kafka.Topic == "" {
		c.Databases.Kafka.Topic = "document_events"
	}
	if c.Databases.MinIO.Bucket == "" {
		c.Databases.MinIO.Bucket = "documents"
	}
}

// applyEnv 用环境变量覆盖未在文件中设置的密钥。
func (c *AppConfig) applyEnv() {
	if c.LLM.Gemini.APIKey == "" {
		c.LLM.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Auth.JwtSecret == "" {
		c.Auth.JwtSecret = os.Getenv("JWT_SECRET")
	}
}

// Validate 检查配置中互相约束的字段。
func (c *AppConfig) Validate() error {
	var errs []error
	if c.LLM.Provider != "gemini" {
		errs = append(errs, fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider))
	}
	if c.OCR.JPEGQuality < 1 || c.OCR.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("ocr.jpegQuality must be within 1..100, got %d", c.OCR.JPEGQuality))
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend: %s", c.Cache.Backend))
	}
	switch c.Cache.Policy {
	case "unbounded":
	case "lru":
		if c.Cache.Capacity <= 0 {
			errs = append(errs, errors.New("cache.capacity must be positive when cache.policy is lru"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache policy: %s", c.Cache.Policy))
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("invalid server.shutdownTimeout: %w", err))
	}
	if c.Middleware.CircuitBreaker.Enabled {
		if _, err := time.ParseDuration(c.Middleware.CircuitBreaker.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid circuit breaker timeout duration: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ShutdownTimeout 返回解析后的优雅关闭时长。
func (c *AppConfig) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}
