package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assemblage/asm/internal/app"
)

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestLoadApplicationConfigFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("server:\n  port: 6001\n"), 0o600))

	cfg, err := loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 6001, cfg.Server.Port)
}

func TestLoadApplicationConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("registration:\n  domain: school.edu\n"), 0o600))

	cfg, err := loadApplicationConfig(path)
	require.NoError(t, err)
	require.Equal(t, "school.edu", cfg.Registration.Domain)
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{
		Database: app.DatabaseConfig{
			Driver: "Postgres",
			Postgres: app.DBAuthConfig{
				Host:     "db.internal",
				Port:     5432,
				Database: "asm",
				Username: "asm",
				Password: "secret",
			},
		},
	}

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "asm", dbCfg.Name)

	sqliteCfg := convertDatabaseConfig(&app.Config{
		Database: app.DatabaseConfig{Driver: "sqlite", Path: "./data/asm.sqlite"},
	})
	require.Equal(t, "sqlite", sqliteCfg.Driver)
	require.Equal(t, "./data/asm.sqlite", sqliteCfg.Path)
}
