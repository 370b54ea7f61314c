package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	LLM      LLMConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
	DB       DBConfig
	Archive  ArchiveConfig
	JWT      JWTConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
// Level is "debug" or "info"; Format is "console" or "detailed".
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Flags returns the standard logger flags for this configuration.
func (l *LogConfig) Flags() int {
	flags := log.LstdFlags
	if l.Format == "detailed" {
		flags |= log.Lmicroseconds | log.LUTC
	}
	if l.Level == "debug" {
		flags |= log.Lshortfile
	}
	return flags
}

// GinMode returns "release" in production or when debug logging is off, and
// "debug" otherwise.
func (l *LogConfig) GinMode(environment string) string {
	if environment == "production" || l.Level != "debug" {
		return "release"
	}
	return "debug"
}

// ProviderConfig holds settings for a single LLM provider.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds LLM gateway settings with multi-provider fallback.
type LLMConfig struct {
	// Legacy flat fields, used when no primary provider is named.
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// RequestsPerSecond paces calls across all requests; 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// PrimaryConfig returns the primary provider config, falling back to the flat fields.
func (l *LLMConfig) PrimaryConfig() *ProviderConfig {
	if l.Primary.Provider != "" {
		return &l.Primary
	}
	return &ProviderConfig{
		Provider:     l.Provider,
		APIKey:       l.APIKey,
		DefaultModel: l.DefaultModel,
		MaxTokens:    l.MaxTokens,
		TimeoutSecs:  l.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *ProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *ProviderConfig {
	if l.Tertiary.Provider != "" {
		return &l.Tertiary
	}
	return nil
}

// RedisConfig holds the cache backing store settings.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	URL         string        `mapstructure:"url"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// PipelineConfig holds parse pipeline limits.
type PipelineConfig struct {
	DetectionMaxChars  int `mapstructure:"detection_max_chars"`
	ExtractionMaxChars int `mapstructure:"extraction_max_chars"`
	SpanMaxChars       int `mapstructure:"span_max_chars"`
	Concurrency        int `mapstructure:"concurrency"`
	MaxInputChars      int `mapstructure:"max_input_chars"`
	CallTimeoutSecs    int `mapstructure:"call_timeout_secs"`
}

// CallTimeout returns the per-LLM-call deadline.
func (p *PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSecs) * time.Second
}

// DBConfig holds PostgreSQL connection settings for the audit log.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ArchiveConfig holds S3 settings for the parse result archive.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// JWTConfig holds bearer token verification settings. An empty secret
// disables authentication.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const envPrefix = "FLOWFORGE"

var providerSlots = []string{"primary", "secondary", "tertiary"}

// Load reads configuration from environment variables with the FLOWFORGE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Bind environment variables explicitly for nested keys
	for _, key := range envKeys() {
		_ = v.BindEnv(key, envName(key))
	}

	cfg := &Config{}

	// Railway/Render set PORT. Use it when FLOWFORGE_SERVER_PORT is not set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.LLM = LLMConfig{
		Provider:          v.GetString("llm.provider"),
		APIKey:            v.GetString("llm.api_key"),
		DefaultModel:      v.GetString("llm.default_model"),
		MaxTokens:         v.GetInt("llm.max_tokens"),
		TimeoutSecs:       v.GetInt("llm.timeout_secs"),
		Primary:           providerConfig(v, "llm.primary"),
		Secondary:         providerConfig(v, "llm.secondary"),
		Tertiary:          providerConfig(v, "llm.tertiary"),
		RequestsPerSecond: v.GetFloat64("llm.requests_per_second"),
		Burst:             v.GetInt("llm.burst"),
	}

	cfg.Redis = RedisConfig{
		Enabled:     v.GetBool("redis.enabled"),
		URL:         v.GetString("redis.url"),
		DialTimeout: v.GetDuration("redis.dial_timeout"),
	}
	cfg.Cache = CacheConfig{
		TTL: v.GetDuration("cache.ttl"),
	}
	cfg.Pipeline = PipelineConfig{
		DetectionMaxChars:  v.GetInt("pipeline.detection_max_chars"),
		ExtractionMaxChars: v.GetInt("pipeline.extraction_max_chars"),
		SpanMaxChars:       v.GetInt("pipeline.span_max_chars"),
		Concurrency:        v.GetInt("pipeline.concurrency"),
		MaxInputChars:      v.GetInt("pipeline.max_input_chars"),
		CallTimeoutSecs:    v.GetInt("pipeline.call_timeout_secs"),
	}

	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Archive = ArchiveConfig{
		Enabled:   v.GetBool("archive.enabled"),
		Region:    v.GetString("archive.region"),
		Bucket:    v.GetString("archive.bucket"),
		Endpoint:  v.GetString("archive.endpoint"),
		AccessKey: v.GetString("archive.access_key"),
		SecretKey: v.GetString("archive.secret_key"),
		Prefix:    v.GetString("archive.prefix"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}

	// CORS origins arrive as a comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("llm.provider", "claude")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.default_model", "")
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.timeout_secs", 120)
	for _, slot := range providerSlots {
		prefix := "llm." + slot
		v.SetDefault(prefix+".provider", "")
		v.SetDefault(prefix+".api_key", "")
		v.SetDefault(prefix+".default_model", "")
		v.SetDefault(prefix+".max_tokens", 4000)
		v.SetDefault(prefix+".timeout_secs", 120)
	}
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.burst", 4)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.dial_timeout", "2s")

	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("pipeline.detection_max_chars", 30000)
	v.SetDefault("pipeline.extraction_max_chars", 30000)
	v.SetDefault("pipeline.span_max_chars", 5000)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.max_input_chars", 500000)
	v.SetDefault("pipeline.call_timeout_secs", 120)

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "flowforge")
	v.SetDefault("db.password", "flowforge_secret")
	v.SetDefault("db.name", "flowforge_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "flowforge-results")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.prefix", "runs")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "flowforge")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")
}

func envKeys() []string {
	keys := []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
		"log.level", "log.format",
		"llm.provider", "llm.api_key", "llm.default_model", "llm.max_tokens", "llm.timeout_secs",
		"llm.requests_per_second", "llm.burst",
		"redis.enabled", "redis.url", "redis.dial_timeout",
		"cache.ttl",
		"pipeline.detection_max_chars", "pipeline.extraction_max_chars", "pipeline.span_max_chars",
		"pipeline.concurrency", "pipeline.max_input_chars", "pipeline.call_timeout_secs",
		"db.enabled", "db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode",
		"db.max_open", "db.max_idle",
		"archive.enabled", "archive.region", "archive.bucket", "archive.endpoint",
		"archive.access_key", "archive.secret_key", "archive.prefix",
		"jwt.secret", "jwt.issuer",
		"cors.allowed_origins",
	}
	for _, slot := range providerSlots {
		for _, field := range []string{"provider", "api_key", "default_model", "max_tokens", "timeout_secs"} {
			keys = append(keys, "llm."+slot+"."+field)
		}
	}
	return keys
}

// envName maps "llm.primary.api_key" to "FLOWFORGE_LLM_PRIMARY_API_KEY".
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxTokens:    v.GetInt(prefix + ".max_tokens"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

func (c *Config) validate() error {
	p := &c.Pipeline
	if p.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be >= 1, got %d", p.Concurrency)
	}
	if p.SpanMaxChars < 1 || p.DetectionMaxChars < 1 || p.ExtractionMaxChars < 1 {
		return fmt.Errorf("pipeline character caps must be positive")
	}
	if p.MaxInputChars < 1 {
		return fmt.Errorf("pipeline.max_input_chars must be positive, got %d", p.MaxInputChars)
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when the archive is enabled")
	}
	return nil
}
