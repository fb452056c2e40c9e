package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverQdrant = "qdrant"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Config holds the vectorbeats service configuration.
type Config struct {
	HTTP        HTTPConfig         `yaml:"http"`
	Auth        AuthConfig         `yaml:"auth"`
	Database    DatabaseConfig     `yaml:"database"`
	Collections []CollectionConfig `yaml:"collections"`
	Roles       RolesConfig        `yaml:"roles"`
	Search      SearchConfig       `yaml:"search"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vector engine connection settings.
type DatabaseConfig struct {
	Driver           string       `yaml:"driver"` // qdrant, redis, valkey (default: qdrant)
	Qdrant           QdrantConfig `yaml:"qdrant"`
	Redis            RedisConfig  `yaml:"redis"`
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
}

// QdrantConfig holds qdrant gRPC settings.
type QdrantConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	UseTLS   bool   `yaml:"use_tls"`
	PoolSize uint   `yaml:"pool_size"`
}

// RedisConfig holds Redis / Valkey settings.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// CollectionConfig is one statically configured collection.
type CollectionConfig struct {
	Name           string   `yaml:"name"`
	Dimension      int      `yaml:"dimension"`
	Metric         string   `yaml:"metric"` // cosine, euclidean, dot (default: cosine)
	PayloadIndexes []string `yaml:"payload_indexes"`
}

// RolesConfig names the collection serving each search modality.
type RolesConfig struct {
	Catalog string `yaml:"catalog"`
	Image   string `yaml:"image"`
	Audio   string `yaml:"audio"`
	Joint   string `yaml:"joint"`
}

// SearchConfig holds search and batch tuning.
type SearchConfig struct {
	DefaultThreshold  float64 `yaml:"default_threshold"`
	DefaultLimit      int     `yaml:"default_limit"`
	MaxLimit          int     `yaml:"max_limit"`
	BatchChunkSize    int     `yaml:"batch_chunk_size"`
	TextScanPage      int     `yaml:"text_scan_page"`
	ModalityTimeoutMs int     `yaml:"modality_timeout_ms"`
	JointWeight       float64 `yaml:"joint_weight"`
}

// ModalityTimeout returns the per-modality search timeout.
func (s SearchConfig) ModalityTimeout() time.Duration {
	return time.Duration(s.ModalityTimeoutMs) * time.Millisecond
}

// DefaultPayloadIndexes are indexed on every default collection.
var DefaultPayloadIndexes = []string{"track_id", "genre", "mood", "tempo_category", "artist", "album"}

// DefaultCollections returns the built-in collection table.
func DefaultCollections() []CollectionConfig {
	mk := func(name string, dim int) CollectionConfig {
		return CollectionConfig{
			Name:           name,
			Dimension:      dim,
			Metric:         "cosine",
			PayloadIndexes: append([]string(nil), DefaultPayloadIndexes...),
		}
	}
	return []CollectionConfig{
		mk("music_vectors", 128),
		mk("image_vectors", 512),
		mk("audio_vectors", 128),
		mk("hybrid_vectors", 640),
	}
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverQdrant
	}
	if c.Database.Qdrant.Port <= 0 {
		c.Database.Qdrant.Port = 6334
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if len(c.Collections) == 0 {
		c.Collections = DefaultCollections()
	}
	for i := range c.Collections {
		if c.Collections[i].Metric == "" {
			c.Collections[i].Metric = "cosine"
		}
	}

	if c.Roles.Catalog == "" {
		c.Roles.Catalog = "music_vectors"
	}
	if c.Roles.Image == "" {
		c.Roles.Image = "image_vectors"
	}
	if c.Roles.Audio == "" {
		c.Roles.Audio = "audio_vectors"
	}
	if c.Roles.Joint == "" {
		c.Roles.Joint = "hybrid_vectors"
	}

	if c.Search.DefaultThreshold <= 0 {
		c.Search.DefaultThreshold = 0.7
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.BatchChunkSize <= 0 {
		c.Search.BatchChunkSize = 100
	}
	if c.Search.TextScanPage <= 0 {
		c.Search.TextScanPage = 50
	}
	if c.Search.ModalityTimeoutMs <= 0 {
		c.Search.ModalityTimeoutMs = 2000
	}
	if c.Search.JointWeight <= 0 {
		c.Search.JointWeight = 0.3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverQdrant:
		if c.Database.Qdrant.Host == "" {
			return fmt.Errorf("database.qdrant.host is required")
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Redis.Addrs) == 0 {
			return fmt.Errorf("database.redis.addrs is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q, %q or %q, got %q",
			DriverQdrant, DriverRedis, DriverValkey, c.Database.Driver)
	}

	dims := make(map[string]int, len(c.Collections))
	for i, col := range c.Collections {
		if col.Name == "" {
			return fmt.Errorf("collections[%d].name is required", i)
		}
		if _, dup := dims[col.Name]; dup {
			return fmt.Errorf("collections: duplicate name %q", col.Name)
		}
		if col.Dimension <= 0 {
			return fmt.Errorf("collections.%s.dimension must be positive, got %d", col.Name, col.Dimension)
		}
		dims[col.Name] = col.Dimension
	}

	for role, name := range map[string]string{
		"catalog": c.Roles.Catalog,
		"image":   c.Roles.Image,
		"audio":   c.Roles.Audio,
		"joint":   c.Roles.Joint,
	} {
		if _, ok := dims[name]; !ok {
			return fmt.Errorf("roles.%s: collection %q is not configured", role, name)
		}
	}
	if want := dims[c.Roles.Image] + dims[c.Roles.Audio]; dims[c.Roles.Joint] != want {
		return fmt.Errorf("roles.joint: collection %q has dimension %d, want image+audio = %d",
			c.Roles.Joint, dims[c.Roles.Joint], want)
	}

	if c.Search.DefaultThreshold > 1 {
		return fmt.Errorf("search.default_threshold must be between 0 and 1, got %g", c.Search.DefaultThreshold)
	}
	if c.Search.MaxLimit > 100 {
		return fmt.Errorf("search.max_limit must not exceed 100, got %d", c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
