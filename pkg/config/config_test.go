package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigFileHumanValues(t *testing.T) {
	p := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  max_request_body_size: 10MB
  read_timeout: 1.5
  write_timeout: 250ms
maintenance:
  cron: "0 3 * * *"
`)
	cfg, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, int64(10_000_000), cfg.Server.MaxRequestBodySize.Int64())
	assert.Equal(t, 1500*time.Millisecond, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, 250*time.Millisecond, cfg.Server.WriteTimeout.Duration())
	assert.Equal(t, "0 3 * * *", cfg.Maintenance.Cron)
}

func TestLoadConfigFileRejectsBadSize(t *testing.T) {
	p := writeConfig(t, "server:\n  max_request_body_size: lots\n")
	_, err := LoadConfigFile(p)
	require.Error(t, err)
}

func TestParseConfigFileMissingIsNotAnError(t *testing.T) {
	flags, err := ParseConfigFlags([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.NoError(t, err)
	cfg, found, err := ParseConfigFile(flags)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, cfg)

	_, err = LoadEffectiveConfig(flags, cfg, found, &Config{}, EnvResult{})
	require.Error(t, err, "an explicit -config must exist")
}

func TestEffectiveConfigLayering(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9000
  content_root: ./site
logging:
  level: debug
`)
	flags, err := ParseConfigFlags([]string{"-config", p, "-addr", "127.0.0.1:7000"})
	require.NoError(t, err)
	fileCfg, found, err := ParseConfigFile(flags)
	require.NoError(t, err)
	require.True(t, found)

	envCfg, envRes, err := ParseConfigEnvs(envFrom(map[string]string{
		"WEBSERVER_CONTENT_ROOT":   "./env-site",
		"WEBSERVER_API_ADMIN_KEYS": "a, b ,,c",
		"WEBSERVER_RATE_RPS":       "2.5",
	}))
	require.NoError(t, err)
	require.True(t, envRes.EnvUsed)

	eff, err := LoadEffectiveConfig(flags, fileCfg, found, envCfg, envRes)
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "env", "flags"}, eff.Sources)
	assert.Equal(t, "127.0.0.1:7000", eff.Addr)
	assert.Equal(t, "./env-site", eff.Config.Server.ContentRoot)
	assert.Equal(t, "debug", eff.Config.Logging.Level)
	assert.Equal(t, []string{"a", "b", "c"}, eff.Config.Security.APIKeys.Admin)
	assert.Equal(t, 2.5, eff.Config.Security.RateLimit.RPS)
	// defaults fill the rest
	assert.Equal(t, "X-API-Key", eff.Config.Security.APIKeys.Header)
	assert.Equal(t, "text/html; charset=utf-8", eff.Config.Server.DefaultContentType)
}

func TestParseConfigEnvsCollectsErrors(t *testing.T) {
	_, _, err := ParseConfigEnvs(envFrom(map[string]string{
		"WEBSERVER_SERVER_PORT":  "eighty",
		"WEBSERVER_READ_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBSERVER_SERVER_PORT")
	assert.Contains(t, err.Error(), "WEBSERVER_READ_TIMEOUT")
}

func TestValidateConfig(t *testing.T) {
	eff := EffectiveConfigResult{Config: &Config{}}
	require.NoError(t, ValidateConfig(eff))
	assert.Equal(t, "webserver", eff.Config.Server.Name)

	bad := &Config{}
	bad.Maintenance.Cron = "every tuesday"
	bad.Telemetry.SampleRate = 3
	err := ValidateConfig(EffectiveConfigResult{Config: bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maintenance.cron")
	assert.Contains(t, err.Error(), "sample_rate")

	burst := &Config{}
	burst.Security.RateLimit.RPS = 0.5
	require.NoError(t, ValidateConfig(EffectiveConfigResult{Config: burst}))
	assert.Equal(t, 1, burst.Security.RateLimit.Burst)
}

func TestGetConfigDefaults(t *testing.T) {
	SetConfig(nil)
	c := GetConfig()
	assert.Equal(t, "0.0.0.0:8080", c.Addr())
}
