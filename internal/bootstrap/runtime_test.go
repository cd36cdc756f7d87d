package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"mesto/internal/cache"
	"mesto/internal/config"
	"mesto/internal/database"
	"mesto/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, env string) *config.Config {
	return &config.Config{
		Env:        env,
		Port:       "3000",
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "mesto.db"),
		// Nothing listens here, so Redis stays disabled.
		RedisURL: "127.0.0.1:1",
	}
}

func TestInitRuntime_SeedsEmptyDevelopmentDatabase(t *testing.T) {
	cfg := sqliteConfig(t, "development")

	db, rdb, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db); cache.SetClient(nil) })

	assert.Nil(t, rdb)
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(demoSeed.Users), users)

	// A second run keeps the existing data.
	require.NoError(t, seedDemo(context.Background(), cfg, db))
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(demoSeed.Users), users)
}

func TestInitRuntime_SkipsSeedingOutsideDevelopment(t *testing.T) {
	cfg := sqliteConfig(t, "test")

	db, _, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db); cache.SetClient(nil) })

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
