package core

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mnemo-ai/mnemo-go/pkg/extraction"
	"github.com/mnemo-ai/mnemo-go/pkg/retrieval"
)

// Config contains the complete configuration for a mnemo engine.
//
// It includes settings for:
//   - Embedding provider (hash placeholder or OpenAI)
//   - Memory store (SQLite, PostgreSQL, MySQL)
//   - Retrieval pipeline (scoring weights, thresholds, caps)
//   - Extraction pipeline (sentence/summary bounds, dedup threshold)
//
// Example:
//
//	config := &core.Config{
//	    Embedder: core.EmbedderConfig{Provider: "hash", Dimensions: 128},
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        DBPath:   "./memories.db",
//	    },
//	}
type Config struct {
	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `yaml:"embedder" json:"embedder"`

	// Store contains memory store configuration.
	Store StoreConfig `yaml:"store" json:"store"`

	// Retrieval contains retrieval pipeline configuration.
	// Zero-valued fields use the fixed production defaults.
	Retrieval retrieval.Config `yaml:"retrieval" json:"retrieval"`

	// Extraction contains extraction pipeline configuration.
	// Zero-valued fields use the fixed production defaults.
	Extraction extraction.Config `yaml:"extraction" json:"extraction"`

	// NodeID is the snowflake node ID used for memory ID generation
	// (default: 1). Give each process its own node ID when several engines
	// share one store.
	NodeID int64 `yaml:"node_id" json:"node_id"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: hash (deterministic placeholder), openai.
type EmbedderConfig struct {
	// Provider is the embedding provider name ("hash" or "openai").
	Provider string `yaml:"provider" json:"provider"`

	// APIKey is the API key for remote providers.
	APIKey string `yaml:"api_key" json:"api_key"`

	// Model is the embedding model name (remote providers only).
	Model string `yaml:"model" json:"model"`

	// BaseURL is the base URL for the API (optional).
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Dimensions is the embedding dimension (default: 128 for hash,
	// 1536 for openai). The dimension is fixed for a deployment; changing
	// it invalidates all stored embeddings.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
}

// StoreConfig contains configuration for the memory store.
//
// Supported providers: sqlite, postgres, mysql.
type StoreConfig struct {
	// Provider is the store provider name ("sqlite", "postgres", "mysql").
	Provider string `yaml:"provider" json:"provider"`

	// DBPath is the database file path (sqlite only).
	DBPath string `yaml:"db_path" json:"db_path"`

	// Host, Port, User, Password, DBName configure server-based providers.
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db_name" json:"db_name"`

	// TableName is the memories table name (default: "memories").
	TableName string `yaml:"table_name" json:"table_name"`

	// SSLMode configures TLS for postgres (default: "disable").
	SSLMode string `yaml:"ssl_mode" json:"ssl_mode"`
}

// Validate checks the configuration and applies defaults.
//
// Returns ErrInvalidConfig (wrapped) when a provider name is unknown or a
// required field for the selected provider is missing.
func (c *Config) Validate() error {
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "hash"
	}
	switch c.Embedder.Provider {
	case "hash":
		if c.Embedder.Dimensions == 0 {
			c.Embedder.Dimensions = 128
		}
	case "openai":
		if c.Embedder.APIKey == "" {
			return NewEngineError("Validate", fmt.Errorf("%w: openai embedder requires api_key", ErrInvalidConfig))
		}
	default:
		return NewEngineError("Validate", fmt.Errorf("%w: unknown embedder provider %q", ErrInvalidConfig, c.Embedder.Provider))
	}

	if c.Store.Provider == "" {
		c.Store.Provider = "sqlite"
	}
	switch c.Store.Provider {
	case "sqlite":
		if c.Store.DBPath == "" {
			c.Store.DBPath = "./mnemo.db"
		}
	case "postgres", "mysql":
		if c.Store.Host == "" || c.Store.DBName == "" {
			return NewEngineError("Validate", fmt.Errorf("%w: %s store requires host and db_name", ErrInvalidConfig, c.Store.Provider))
		}
	default:
		return NewEngineError("Validate", fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, c.Store.Provider))
	}

	if c.NodeID == 0 {
		c.NodeID = 1
	}

	return nil
}

// LoadConfigFromEnv builds a configuration from environment variables,
// loading a .env file first when one exists.
//
// Recognized variables:
//
//	MNEMO_EMBEDDER_PROVIDER, MNEMO_EMBEDDER_API_KEY, MNEMO_EMBEDDER_MODEL,
//	MNEMO_EMBEDDER_BASE_URL, MNEMO_EMBEDDER_DIMENSIONS,
//	MNEMO_STORE_PROVIDER, MNEMO_STORE_DB_PATH, MNEMO_STORE_HOST,
//	MNEMO_STORE_PORT, MNEMO_STORE_USER, MNEMO_STORE_PASSWORD,
//	MNEMO_STORE_DB_NAME, MNEMO_STORE_TABLE_NAME, MNEMO_STORE_SSL_MODE,
//	MNEMO_NODE_ID
func LoadConfigFromEnv() (*Config, error) {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		Embedder: EmbedderConfig{
			Provider:   os.Getenv("MNEMO_EMBEDDER_PROVIDER"),
			APIKey:     os.Getenv("MNEMO_EMBEDDER_API_KEY"),
			Model:      os.Getenv("MNEMO_EMBEDDER_MODEL"),
			BaseURL:    os.Getenv("MNEMO_EMBEDDER_BASE_URL"),
			Dimensions: envInt("MNEMO_EMBEDDER_DIMENSIONS"),
		},
		Store: StoreConfig{
			Provider:  os.Getenv("MNEMO_STORE_PROVIDER"),
			DBPath:    os.Getenv("MNEMO_STORE_DB_PATH"),
			Host:      os.Getenv("MNEMO_STORE_HOST"),
			Port:      envInt("MNEMO_STORE_PORT"),
			User:      os.Getenv("MNEMO_STORE_USER"),
			Password:  os.Getenv("MNEMO_STORE_PASSWORD"),
			DBName:    os.Getenv("MNEMO_STORE_DB_NAME"),
			TableName: os.Getenv("MNEMO_STORE_TABLE_NAME"),
			SSLMode:   os.Getenv("MNEMO_STORE_SSL_MODE"),
		},
		NodeID: int64(envInt("MNEMO_NODE_ID")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromFile reads a YAML configuration file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewEngineError("LoadConfigFromFile", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewEngineError("LoadConfigFromFile", fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envInt parses an integer environment variable (0 when unset or invalid).
func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
