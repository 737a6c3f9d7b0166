package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the limelight service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig describes the single shared language-model backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai, anthropic, local, etc.
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AgentsConfig contains retrieval-agent settings
type AgentsConfig struct {
	TopK    int           `mapstructure:"top_k"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetrievalConfig points at the similarity-search service and fixes the
// per-segment source collections.
type RetrievalConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Community []string      `mapstructure:"community"`
	News      []string      `mapstructure:"news"`
	Music     []string      `mapstructure:"music"`
}

// ToolsConfig points at the analytic tool endpoints (sentiment, NER,
// geolocation).
type ToolsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig carries the temporal-analytics constants.
type AnalysisConfig struct {
	CutoffDate     string  `mapstructure:"cutoff_date"` // YYYY-MM-DD; documents at/before this are excluded from binning
	BinDays        int     `mapstructure:"bin_days"`
	SpikeSigma     float64 `mapstructure:"spike_sigma"` // multiplier over population stddev
	MaxSnippets    int     `mapstructure:"max_snippets"`
	MaxPromptWords int     `mapstructure:"max_prompt_words"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres     PostgresConfig `mapstructure:"postgres"`
	Redis        RedisConfig    `mapstructure:"redis"`
	SessionStore string         `mapstructure:"session_store"` // inmemory or redis
	SessionTTL   time.Duration  `mapstructure:"session_ttl"`
}

type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a Postgres target is set at all; the prompt
// archive is optional.
func (p PostgresConfig) Configured() bool {
	return strings.TrimSpace(p.URL) != "" || (strings.TrimSpace(p.Host) != "" && strings.TrimSpace(p.DBName) != "")
}

// DSN builds a postgres connection string from either URL or parts.
func (p PostgresConfig) DSN() (string, error) {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL, nil
	}
	if strings.TrimSpace(p.Host) == "" || strings.TrimSpace(p.DBName) == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Source collections searched by each retrieval agent. Overridable through
// the retrieval.* config keys.
var (
	DefaultCommunityCollections = []string{
		"reddit_embeddings",
		"reddit_billie_embeddings",
		"reddit_blackpink_embeddings",
		"reddit_straykids_embeddings",
		"reddit_sza_embeddings",
		"popculture_reddit_taylor_embeddings",
		"kpop_reddit_blackpink_embeddings",
		"kpop_reddit_straykids_embeddings",
		"popculture_reddit_billie_embeddings",
		"popculture_reddit_blackpink_embeddings",
		"popculture_reddit_straykids_embeddings",
		"popculture_reddit_sza_embeddings",
		"beyonce_tmz_embeddings",
		"twitter_embeddings",
		"guardian_beyonce_embeddings",
		"popculture_reddit_beyonce_embeddings",
		"reddit_beyonce_embeddings",
		"kpopnoir_reddit_straykids_embeddings",
	}
	DefaultNewsCollections = []string{
		"newsapi_embeddings",
		"vulturetaylor_embeddings",
		"guardian_beyonce_embeddings",
		"news_beyonce_embeddings",
		"tmz_embeddings",
		"tmz_billie_embeddings",
		"tmz_sza_embeddings",
		"newsapi_straykids_embeddings",
		"dc_straykids_embeddings",
		"dc_straykids_embeddings2",
		"nbc_straykids_embeddings",
	}
	DefaultMusicCollections = []string{
		"taylornme_embeddings",
		"billboard_embeddings",
		"szanme_embeddings",
		"blackpink_tours_embeddings",
		"sza_tours_embeddings",
		"ticketmaster_beyonce_events_embeddings",
		"straykids_tours_embeddings",
		"apify_youtube_events_embeddings",
	}
)

// LoadConfig reads configuration from the given file (or the usual lookup
// paths) plus LIMELIGHT_* environment overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 30*time.Second)
	viper.SetDefault("server.address", ":8003")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("agents.top_k", 6)
	viper.SetDefault("agents.timeout", 100*time.Second)
	viper.SetDefault("retrieval.base_url", "http://localhost:8002")
	viper.SetDefault("retrieval.timeout", 15*time.Second)
	viper.SetDefault("retrieval.community", DefaultCommunityCollections)
	viper.SetDefault("retrieval.news", DefaultNewsCollections)
	viper.SetDefault("retrieval.music", DefaultMusicCollections)
	viper.SetDefault("tools.base_url", "http://localhost:8002")
	viper.SetDefault("tools.timeout", 30*time.Second)
	viper.SetDefault("analysis.cutoff_date", "2024-06-07")
	viper.SetDefault("analysis.bin_days", 14)
	viper.SetDefault("analysis.spike_sigma", 2.0)
	viper.SetDefault("analysis.max_snippets", 3)
	viper.SetDefault("analysis.max_prompt_words", 1500)
	viper.SetDefault("storage.session_store", "inmemory")
	viper.SetDefault("storage.session_ttl", 30*time.Minute)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LIMELIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Defaults plus env are enough to run against local services.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if config.Storage.SessionStore == "redis" {
		if err := config.Storage.Redis.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}
