package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ksel-bot/internal/common/config"
)

const registryPage = `<html><body><table><tbody>
<tr><td>1</td><td>A-2021-001</td><td>#ID-77</td><td>KTC-K501</td><td>1.0</td><td>2021-01-04 2026-01-03</td></tr>
</tbody></table></body></html>`

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "registry:\n  base_url: " + baseURL + "\nlookup:\n  fetch_timeout_ms: 2000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noDefault() (*config.Config, error) {
	return nil, errors.New("default config must not be read")
}

func TestRootCmd_PrintsRecords(t *testing.T) {
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(registryPage))
	}))
	defer registry.Close()

	var out bytes.Buffer
	cmd := newRootCmd(noDefault, &out)
	cmd.SetArgs([]string{"--config", writeConfig(t, registry.URL), "KTC-K501"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "A-2021-001")
	assert.Contains(t, out.String(), "KTC-K501")
}

func TestRootCmd_RegistryDown(t *testing.T) {
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer registry.Close()

	var out bytes.Buffer
	cmd := newRootCmd(noDefault, &out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", writeConfig(t, registry.URL), "KTC-K501"})

	assert.Error(t, cmd.Execute())
	assert.NotEmpty(t, out.String())
}

func TestRootCmd_RequiresModel(t *testing.T) {
	cmd := newRootCmd(noDefault, &bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestLayoutsCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(noDefault, &out)
	cmd.SetArgs([]string{"layouts"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "paired-dates (default)")
	assert.Contains(t, out.String(), "split-dates")
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	base := &config.Config{}
	base.Cache.Redis.Enabled = true
	base.Audit.Enabled = true

	cfg, err := loadConfig(&options{layoutName: "split-dates", mode: "exact"}, func() (*config.Config, error) {
		return base, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "split-dates", cfg.Extractor.Layout)
	assert.Equal(t, "exact", cfg.Extractor.Mode)
	assert.False(t, cfg.Cache.Redis.Enabled)
	assert.False(t, cfg.Audit.Enabled)
}
