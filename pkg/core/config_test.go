package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo-go/pkg/core"
)

func TestValidateDefaults(t *testing.T) {
	cfg := &core.Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "hash", cfg.Embedder.Provider)
	assert.Equal(t, 128, cfg.Embedder.Dimensions)
	assert.Equal(t, "sqlite", cfg.Store.Provider)
	assert.Equal(t, "./mnemo.db", cfg.Store.DBPath)
	assert.Equal(t, int64(1), cfg.NodeID)
}

func TestValidateUnknownProviders(t *testing.T) {
	cfg := &core.Config{Embedder: core.EmbedderConfig{Provider: "quantum"}}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = &core.Config{Store: core.StoreConfig{Provider: "memcached"}}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)
}

func TestValidateOpenAIRequiresKey(t *testing.T) {
	cfg := &core.Config{Embedder: core.EmbedderConfig{Provider: "openai"}}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = &core.Config{Embedder: core.EmbedderConfig{Provider: "openai", APIKey: "sk-test"}}
	assert.NoError(t, cfg.Validate())
}

func TestValidateServerStoreRequiresHost(t *testing.T) {
	cfg := &core.Config{Store: core.StoreConfig{Provider: "postgres"}}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig)

	cfg = &core.Config{Store: core.StoreConfig{
		Provider: "postgres",
		Host:     "localhost",
		DBName:   "mnemo",
	}}
	assert.NoError(t, cfg.Validate())

	cfg = &core.Config{Store: core.StoreConfig{Provider: "mysql", Host: "localhost"}}
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfig, "db_name is required too")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MNEMO_EMBEDDER_PROVIDER", "hash")
	t.Setenv("MNEMO_EMBEDDER_DIMENSIONS", "64")
	t.Setenv("MNEMO_STORE_PROVIDER", "sqlite")
	t.Setenv("MNEMO_STORE_DB_PATH", "/tmp/mnemo-test.db")
	t.Setenv("MNEMO_NODE_ID", "7")

	cfg, err := core.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "hash", cfg.Embedder.Provider)
	assert.Equal(t, 64, cfg.Embedder.Dimensions)
	assert.Equal(t, "/tmp/mnemo-test.db", cfg.Store.DBPath)
	assert.Equal(t, int64(7), cfg.NodeID)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
embedder:
  provider: hash
  dimensions: 64
store:
  provider: sqlite
  db_path: ./test.db
retrieval:
  score_threshold: 0.2
  max_results: 3
node_id: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := core.LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Embedder.Dimensions)
	assert.Equal(t, "./test.db", cfg.Store.DBPath)
	assert.Equal(t, 0.2, cfg.Retrieval.ScoreThreshold)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.Equal(t, int64(2), cfg.NodeID)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	_, err := core.LoadConfigFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadConfigFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unclosed"), 0o644))

	_, err := core.LoadConfigFromFile(path)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
