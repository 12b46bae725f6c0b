// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileMergesProfiles(t *testing.T) {
	dir := t.TempDir()

	base := writeFile(t, dir, "base-profile.yaml", `
principal:
  name: Acme Bank
  aliases: [acme, acmebank]
geographies:
  - name: Chile
    aliases: [cl, chile]
sources:
  news:
    enabled: true
    actor_required: true
`)
	overlay := writeFile(t, dir, "overlay-profile.yaml", `
sources:
  app_store:
    enabled: true
    store_kind: app
balancer:
  min_per_geo: 40
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
app:
  name: mentionscope
profiles:
  - `+base+`
  - `+overlay+`
cache:
  store: file
  path: `+filepath.Join(dir, "snapshot.json")+`
`)

	cfg, err := LoadFromFile(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "Acme Bank", cfg.Business.Principal.Name)
	assert.True(t, cfg.Business.Sources["news"].ActorRequired)
	assert.Equal(t, "app", cfg.Business.Sources["app_store"].StoreKind)
	assert.Equal(t, 40, cfg.Business.Balancer.MinPerGeo)

	// Defaults applied.
	assert.Equal(t, 6, cfg.Fetch.Workers)
	assert.Equal(t, 730, cfg.Business.LookbackDays)
	assert.Equal(t, 3, cfg.Business.Balancer.MaxPasses)
}

func TestLoadFromFileRejectsInvalidProfile(t *testing.T) {
	dir := t.TempDir()

	bad := writeFile(t, dir, "bad-profile.yaml", `
geographies:
  - aliases: [cl]
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
profiles:
  - `+bad+`
cache:
  store: file
  path: `+filepath.Join(dir, "snapshot.json")+`
`)

	_, err := LoadFromFile(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
}

func TestValidateConfigStoreSelection(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.Store = "redis"
	applyDefaults(cfg)

	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.address")

	cfg.Database.Redis.Address = "localhost:6379"
	assert.NoError(t, validateConfig(cfg))
}

func TestValidateConfigStoreKind(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Business.Sources = map[string]SourceEntry{
		"reviews": {Enabled: true, StoreKind: "windows"},
	}

	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_kind")
}
