package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
)

// supported output dimensions for gemini-embedding-001 (Matryoshka truncation).
var validEmbedderDimensions = []int{128, 256, 512, 768, 1536, 3072}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range per the Gemini API: 0.0 to 2.0.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedder)
	}
	if !slices.Contains(validEmbedderDimensions, c.EmbedderDimension) {
		return fmt.Errorf("%w: embedder_dimension %d is not supported, must be one of %v",
			ErrInvalidEmbedder, c.EmbedderDimension, validEmbedderDimensions)
	}

	if c.RetrievalTopK <= 0 || c.RetrievalTopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.RetrievalTopK)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d",
			ErrInvalidChunking, c.ChunkOverlap)
	}

	if strings.TrimSpace(c.BotID) == "" {
		return fmt.Errorf("%w: bot_id cannot be empty", ErrInvalidBotIdentity)
	}

	if c.MinReplyInterval <= 0 {
		return fmt.Errorf("%w: min_reply_interval must be positive, got %s",
			ErrInvalidInterval, c.MinReplyInterval)
	}
	if c.RetrieveTimeout <= 0 || c.GenerateTimeout <= 0 || c.SendTimeout <= 0 {
		return fmt.Errorf("%w: retrieve/generate/send timeouts must all be positive",
			ErrInvalidInterval)
	}

	if err := validateSocketURL(c.SocketURL); err != nil {
		return err
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Modern SSL modes only; allow/prefer are deprecated (MITM vulnerable).
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// validateSocketURL checks the realtime socket URL has a ws/wss scheme.
func validateSocketURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: socket_url cannot be empty", ErrInvalidSocketURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSocketURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: scheme must be ws or wss, got %q", ErrInvalidSocketURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidSocketURL)
	}
	return nil
}
