// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ragbot/config.yaml or ./config.yaml)
//  3. Default values
//
// A .env file in the working directory is loaded first (the deployment
// scripts ship one), so DATABASE_URL and GEMINI_API_KEY can live there.
//
// Error handling uses sentinel errors so callers can check categories
// with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidEmbedder indicates the embedder model or dimension is invalid.
	ErrInvalidEmbedder = errors.New("invalid embedder")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidChunking indicates the chunk size/overlap pair is invalid.
	ErrInvalidChunking = errors.New("invalid chunking")

	// ErrInvalidBotIdentity indicates the bot user id is missing or malformed.
	ErrInvalidBotIdentity = errors.New("invalid bot identity")

	// ErrInvalidInterval indicates the per-conversation reply interval is invalid.
	ErrInvalidInterval = errors.New("invalid reply interval")

	// ErrInvalidSocketURL indicates the realtime socket URL is invalid.
	ErrInvalidSocketURL = errors.New("invalid socket URL")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

const (
	// DefaultModelName is the default Gemini chat model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality; the documents table stores
	// vector(768), see db/migrations.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbedderDimension matches the vector column width in the schema.
	DefaultEmbedderDimension = 768

	// DefaultPromptTemplate mirrors the template the bot has always used:
	// question first, retrieved context appended. {query} and {context}
	// are the two substitution points.
	DefaultPromptTemplate = "{query} Context: {context}"

	// DefaultApologyText is sent in place of an answer when apology mode is
	// enabled and retrieval or generation fails.
	DefaultApologyText = "Sorry, I couldn't come up with an answer to that one. Please try again in a bit."

	// DefaultMinReplyInterval is the minimum spacing between replies into
	// the same conversation.
	DefaultMinReplyInterval = time.Second
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName      string  `mapstructure:"model_name"`
	Temperature    float32 `mapstructure:"temperature"`
	PromptTemplate string  `mapstructure:"prompt_template"`

	// Embedding configuration
	EmbedderModel     string `mapstructure:"embedder_model"`
	EmbedderDimension int    `mapstructure:"embedder_dimension"`

	// Retrieval configuration
	RetrievalTopK int `mapstructure:"retrieval_top_k"`
	ChunkSize     int `mapstructure:"chunk_size"`
	ChunkOverlap  int `mapstructure:"chunk_overlap"`

	// Bot identity (the registered bot user; its own messages are ignored)
	BotID   string `mapstructure:"bot_id"`
	BotName string `mapstructure:"bot_name"`

	// Dispatch configuration
	MinReplyInterval   time.Duration `mapstructure:"min_reply_interval"`
	RetrieveTimeout    time.Duration `mapstructure:"retrieve_timeout"`
	GenerateTimeout    time.Duration `mapstructure:"generate_timeout"`
	SendTimeout        time.Duration `mapstructure:"send_timeout"`
	RespondWithApology bool          `mapstructure:"respond_with_apology"`
	ApologyText        string        `mapstructure:"apology_text"`

	// Realtime socket configuration
	SocketURL            string        `mapstructure:"socket_url"`
	SocketToken          string        `mapstructure:"socket_token"` // SENSITIVE
	ReconnectMaxInterval time.Duration `mapstructure:"reconnect_max_interval"`
	ReconnectMaxElapsed  time.Duration `mapstructure:"reconnect_max_elapsed"`

	// Health/readiness HTTP server
	APIAddr string `mapstructure:"api_addr"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	// Load .env first so DATABASE_URL / GEMINI_API_KEY set there are
	// visible below. A missing .env is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("skipping .env", "error", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".ragbot")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("prompt_template", DefaultPromptTemplate)

	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedder_dimension", DefaultEmbedderDimension)

	viper.SetDefault("retrieval_top_k", 4)
	viper.SetDefault("chunk_size", 1000)
	viper.SetDefault("chunk_overlap", 100)

	viper.SetDefault("bot_id", "bot_hackerbot")
	viper.SetDefault("bot_name", "hackerbot")

	viper.SetDefault("min_reply_interval", DefaultMinReplyInterval)
	viper.SetDefault("retrieve_timeout", 10*time.Second)
	viper.SetDefault("generate_timeout", 30*time.Second)
	viper.SetDefault("send_timeout", 5*time.Second)
	viper.SetDefault("respond_with_apology", false)
	viper.SetDefault("apology_text", DefaultApologyText)

	viper.SetDefault("socket_url", "ws://localhost:3001/socket")
	viper.SetDefault("reconnect_max_interval", 30*time.Second)
	viper.SetDefault("reconnect_max_elapsed", 0) // 0 = keep reconnecting

	viper.SetDefault("api_addr", "127.0.0.1:8090")

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "hackerchat")
	viper.SetDefault("postgres_password", "")
	viper.SetDefault("postgres_db_name", "hackerchat")
	viper.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the genai client, not via viper;
// Validate() only checks its presence.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "RAGBOT_MODEL_NAME")
	mustBind("bot_id", "RAGBOT_BOT_ID")
	mustBind("socket_url", "RAGBOT_SOCKET_URL")
	mustBind("socket_token", "RAGBOT_SOCKET_TOKEN")
	mustBind("api_addr", "RAGBOT_API_ADDR")
	mustBind("respond_with_apology", "RAGBOT_RESPOND_WITH_APOLOGY")
}
