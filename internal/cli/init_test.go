package cli

import (
	"context"
	"path/filepath"
	"testing"

	"expensetracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadFrom(map[string]string{"EXPENSES_DATA_DIR": dir})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestInitStores(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := InitStores(ctx, cfg, SetupLogger("error"))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.AMQP)
	assert.Equal(t, uint(2), app.Records.SchemaVersion())
	assert.Equal(t, filepath.Clean(cfg.DataDir), filepath.Clean(app.Blobs.Root()))

	p, err := app.Service.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	assert.Equal(t, "Travel", p.Name)

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
}

func TestInitStoresFailsOnUnusableDatabase(t *testing.T) {
	cfg := testConfig(t)
	// The data directory itself cannot be opened as a database file.
	cfg.DBPath = cfg.DataDir

	_, err := InitStores(context.Background(), cfg, SetupLogger("error"))
	assert.Error(t, err)
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("EXPENSES_DATA_DIR", t.TempDir())
	t.Setenv("EXPENSES_LOG_LEVEL", "chatty")

	_, err := LoadAndValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
