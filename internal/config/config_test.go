// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	require.NoError(t, BindEnv(v))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "https://api.elsevier.com/content/search/scopus", cfg.Scopus.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Scopus.Timeout)
	assert.Equal(t, 9.0, cfg.Scopus.RateLimit)
	assert.Equal(t, 100, cfg.Scopus.ProgressEvery)
	assert.Equal(t, "asjc", cfg.Catalog.Heuristic)
	assert.Equal(t, "citation_engine", cfg.Metrics.Namespace)
	assert.Equal(t, "citation-engine.db", cfg.Store.Path)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "citation-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scopus:
  rate_limit: 2.5
  timeout: 15s
catalog:
  heuristic: subjects
  encoding: cp1252
`), 0o644))

	t.Setenv("CITATION_ENGINE_LOGGING_LEVEL", "debug")
	t.Setenv("SCOPUS_API_KEY", "env-key")

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Scopus.RateLimit)
	assert.Equal(t, 15*time.Second, cfg.Scopus.Timeout)
	assert.Equal(t, "subjects", cfg.Catalog.Heuristic)
	assert.Equal(t, "cp1252", cfg.Catalog.Encoding)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "env-key", cfg.Scopus.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"unknown heuristic", "catalog.heuristic", "vote", "Heuristic"},
		{"zero rate", "scopus.rate_limit", 0.0, "RateLimit"},
		{"bad url", "scopus.base_url", "not a url", "BaseURL"},
		{"bad log format", "logging.format", "xml", "Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
