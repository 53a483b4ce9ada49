package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	S3         S3Config         `mapstructure:"s3"`
	HTTPSource HTTPSourceConfig `mapstructure:"http_source"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Search     SearchConfig     `mapstructure:"search"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	Pagination PaginationConfig `mapstructure:"pagination"`
}

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Mode    string     `mapstructure:"mode"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DataConfig describes where locale-scoped prompt files live.
// Backend is one of local, s3, http, sql.
type DataConfig struct {
	Backend       string   `mapstructure:"backend"`
	Path          string   `mapstructure:"path"`
	Locales       []string `mapstructure:"locales"`
	DefaultLocale string   `mapstructure:"default_locale"`
	RepairJSON    bool     `mapstructure:"repair_json"`
	PublicURL     string   `mapstructure:"public_url"`
	KeywordsPath  string   `mapstructure:"keywords_path"`
}

type S3Config struct {
	Type      string `mapstructure:"type"` // r2, s3, s3compatible
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

type HTTPSourceConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Manifest string        `mapstructure:"manifest"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	return d.Path
}

// CacheConfig selects the snapshot cache. Type is one of none, memory, redis, bolt.
type CacheConfig struct {
	Type  string        `mapstructure:"type"`
	TTL   time.Duration `mapstructure:"ttl"`
	Redis RedisConfig   `mapstructure:"redis"`
	Bolt  BoltConfig    `mapstructure:"bolt"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type BoltConfig struct {
	Path string `mapstructure:"path"`
}

type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type RecommendConfig struct {
	Count    int    `mapstructure:"count"`
	Strategy string `mapstructure:"strategy"`
}

type PaginationConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and deployment knobs get stable env names.
	v.BindEnv("data.backend", "DATA_BACKEND")
	v.BindEnv("data.path", "DATA_PATH")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("s3.secret_key", "S3_SECRET_KEY")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("cache.redis.addr", "REDIS_ADDR")
	v.BindEnv("cache.redis.password", "REDIS_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("data.backend", "local")
	v.SetDefault("data.path", "./data")
	v.SetDefault("data.locales", []string{"en", "zh"})
	v.SetDefault("data.default_locale", "en")
	v.SetDefault("data.repair_json", false)
	v.SetDefault("data.public_url", "")
	v.SetDefault("data.keywords_path", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.bucket", "prompts")
	v.SetDefault("http_source.manifest", "manifest.json")
	v.SetDefault("http_source.timeout", 10*time.Second)
	v.SetDefault("http_source.retries", 2)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/prompts.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.key_prefix", "promptgallery:snapshot:")
	v.SetDefault("cache.bolt.path", "./data/snapshots.db")
	v.SetDefault("search.max_results", 100)
	v.SetDefault("recommend.count", 6)
	v.SetDefault("recommend.strategy", "category")
	v.SetDefault("pagination.page_size", 20)
	v.SetDefault("pagination.max_page_size", 100)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Data.Backend {
	case "local", "s3", "http", "sql":
	default:
		return fmt.Errorf("unknown data backend: %q", c.Data.Backend)
	}
	switch c.Cache.Type {
	case "", "none", "memory", "redis", "bolt":
	default:
		return fmt.Errorf("unknown cache type: %q", c.Cache.Type)
	}
	if len(c.Data.Locales) == 0 {
		return fmt.Errorf("data.locales must list at least one locale")
	}
	if c.Pagination.PageSize <= 0 {
		return fmt.Errorf("pagination.page_size must be positive")
	}
	return nil
}

// IsKnownLocale reports whether locale is one of the configured corpus locales.
func (c *Config) IsKnownLocale(locale string) bool {
	for _, l := range c.Data.Locales {
		if l == locale {
			return true
		}
	}
	return false
}
