package config

import (
	"errors"
	"testing"
	"time"
)

// validConfig returns a Config that passes Validate with all fields set.
func validConfig() *Config {
	return &Config{
		ModelName:         DefaultModelName,
		Temperature:       0.7,
		PromptTemplate:    DefaultPromptTemplate,
		EmbedderModel:     DefaultEmbedderModel,
		EmbedderDimension: DefaultEmbedderDimension,
		RetrievalTopK:     4,
		ChunkSize:         1000,
		ChunkOverlap:      100,
		BotID:             "bot_hackerbot",
		BotName:           "hackerbot",
		MinReplyInterval:  time.Second,
		RetrieveTimeout:   10 * time.Second,
		GenerateTimeout:   30 * time.Second,
		SendTimeout:       5 * time.Second,
		SocketURL:         "ws://localhost:3001/socket",
		APIAddr:           "127.0.0.1:8090",
		PostgresHost:      "localhost",
		PostgresPort:      5432,
		PostgresUser:      "hackerchat",
		PostgresPassword:  "hackerchat_dev",
		PostgresDBName:    "hackerchat",
		PostgresSSLMode:   "disable",
	}
}

func TestValidate_OK(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty model", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedder},
		{"bad dimension", func(c *Config) { c.EmbedderDimension = 1000 }, ErrInvalidEmbedder},
		{"topk zero", func(c *Config) { c.RetrievalTopK = 0 }, ErrInvalidTopK},
		{"topk too big", func(c *Config) { c.RetrievalTopK = 50 }, ErrInvalidTopK},
		{"chunk size zero", func(c *Config) { c.ChunkSize = 0 }, ErrInvalidChunking},
		{"overlap >= size", func(c *Config) { c.ChunkOverlap = 1000 }, ErrInvalidChunking},
		{"blank bot id", func(c *Config) { c.BotID = "   " }, ErrInvalidBotIdentity},
		{"zero interval", func(c *Config) { c.MinReplyInterval = 0 }, ErrInvalidInterval},
		{"zero send timeout", func(c *Config) { c.SendTimeout = 0 }, ErrInvalidInterval},
		{"empty socket url", func(c *Config) { c.SocketURL = "" }, ErrInvalidSocketURL},
		{"http socket url", func(c *Config) { c.SocketURL = "http://x/socket" }, ErrInvalidSocketURL},
		{"empty pg host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"pg port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"deprecated ssl mode", func(c *Config) { c.PostgresSSLMode = "prefer" }, ErrInvalidPostgresSSLMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if err := validConfig().Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Validate() = %v, want ErrMissingAPIKey", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() = %v, want ErrConfigNil", err)
	}
}
