package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsight-labs/probewatch/devicecheck"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent-but-not-requested"))
	require.Error(t, err, "an explicit path that does not exist must fail")

	// No explicit path and no config.yaml in cwd falls back to defaults.
	cfg, err = loadFromDir(t, "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.thousandeyes.com/v7", cfg.API.BaseURL)
	assert.Equal(t, "Retry-After", cfg.API.ResetHeader)
	assert.Equal(t, 60*time.Second, cfg.API.FallbackWait)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.Equal(t, 3600, cfg.Test.Interval)
	assert.Equal(t, 90*time.Second, cfg.Test.WaitForFirstResult)
	assert.Equal(t, 4, cfg.Check.Concurrency)
}

// loadFromDir runs Load with the working directory moved to an empty temp
// dir, so a developer's local config.yaml cannot leak into the test.
func loadFromDir(t *testing.T, path string) (*Config, error) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return Load(path)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
api:
  token: file-token
  maxattempts: 5
test:
  name: Cisco.com Test
  target: https://cisco.com
devices:
  - name: R1
    host: 10.0.0.1
    username: admin
    password: secret
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.API.Token)
	assert.Equal(t, 5, cfg.API.MaxAttempts)
	assert.Equal(t, "Cisco.com Test", cfg.Test.Name)
	assert.Equal(t, "https://api.thousandeyes.com/v7", cfg.API.BaseURL, "unset keys keep defaults")
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "10.0.0.1", cfg.Devices[0].Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  token: file-token\n"), 0o600))

	t.Setenv("PROBEWATCH_API_TOKEN", "env-token")
	t.Setenv("PROBEWATCH_TEST_NAME", "Env Test")
	t.Setenv("PROBEWATCH_API_MAXATTEMPTS", "7")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.API.Token, "environment must win over the file")
	assert.Equal(t, "Env Test", cfg.Test.Name)
	assert.Equal(t, 7, cfg.API.MaxAttempts)
}

func TestValidateMonitor(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateMonitor()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.token")
	assert.Contains(t, err.Error(), "test.name")
	assert.Contains(t, err.Error(), "test.target")

	cfg.API.Token = "t"
	cfg.Test.Name = "n"
	cfg.Test.Target = "https://example.com"
	assert.NoError(t, cfg.ValidateMonitor())
}

func deviceFixture(name, host, username string) devicecheck.Device {
	return devicecheck.Device{Name: name, Host: host, Username: username, Password: "secret"}
}

func TestValidateDevices(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.ValidateDevices(), "no devices")

	cfg.Devices = append(cfg.Devices, deviceFixture("R1", "", "admin"))
	assert.ErrorContains(t, cfg.ValidateDevices(), "no host")

	cfg.Devices[0] = deviceFixture("R1", "10.0.0.1", "")
	assert.ErrorContains(t, cfg.ValidateDevices(), "no username")

	cfg.Devices[0] = deviceFixture("R1", "10.0.0.1", "admin")
	assert.NoError(t, cfg.ValidateDevices())
}
