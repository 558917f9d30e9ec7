package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.ListenAddr)
	require.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
	require.Equal(t, 4, cfg.FetchWorkers)
	require.Equal(t, 5*time.Second, cfg.GetBannerTimeout())
	require.Equal(t, time.Local, cfg.GetTimezone())
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen_addr: \"0.0.0.0:9090\"\ntimezone: UTC\nprofile_cache_ttl: 30s\nbanner_timeout: bogus\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9090", cfg.APIBaseURL)
	require.Equal(t, "UTC", cfg.GetTimezone().String())
	require.Equal(t, 30*time.Second, cfg.GetProfileCacheTTL())
	require.Equal(t, 5*time.Second, cfg.GetBannerTimeout())
	require.Equal(t, "downloads", cfg.DownloadsDir)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
