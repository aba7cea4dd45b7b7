package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddress            = "0.0.0.0"
	defaultPort               = 8080
	defaultContentRoot        = "./public"
	defaultUploadDir          = "./data/uploads"
	defaultServerName         = "webserver"
	defaultContentType        = "text/html; charset=utf-8"
	defaultMaxRequestBodySize = 5 * 1024 * 1024 // 5 MiB
	defaultReadBufferSize     = 64 * 1024       // 64 KiB
	defaultReadTimeout        = 10 * time.Second
	defaultWriteTimeout       = 10 * time.Second
	defaultIdleTimeout        = 30 * time.Second
	defaultAPIKeyHeader       = "X-API-Key"
	defaultMaintenanceMessage = "down for maintenance"
	defaultStorePath          = "./data/store"
	defaultLogLevel           = "info"
	// telemetry defaults
	defaultTelemetryDir           = "./data/telemetry"
	defaultTelemetrySampleRate    = 0.001
	defaultTelemetrySlowMs        = 200
	defaultTelemetryBufferSize    = 1 * 1024 * 1024  // 1 MiB
	defaultTelemetryFileMaxSize   = 40 * 1024 * 1024 // 40 MiB
	defaultTelemetryFlushMs       = 2000
	defaultTelemetryQueueCapacity = 2048
)

var (
	cfgMu  sync.RWMutex
	global *Config
)

// SetConfig publishes the effective configuration.
func SetConfig(c *Config) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	global = c
}

// GetConfig returns the published configuration, or defaults when none was
// set.
func GetConfig() *Config {
	cfgMu.RLock()
	c := global
	cfgMu.RUnlock()
	if c == nil {
		c = &Config{}
		c.ApplyDefaults()
	}
	return c
}

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	s := &c.Server
	if s.Address == "" {
		s.Address = defaultAddress
	}
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.ContentRoot == "" {
		s.ContentRoot = defaultContentRoot
	}
	if s.UploadDir == "" {
		s.UploadDir = defaultUploadDir
	}
	if s.Name == "" {
		s.Name = defaultServerName
	}
	if s.DefaultContentType == "" {
		s.DefaultContentType = defaultContentType
	}
	if s.MaxRequestBodySize == 0 {
		s.MaxRequestBodySize = SizeBytes(defaultMaxRequestBodySize)
	}
	if s.ReadBufferSize == 0 {
		s.ReadBufferSize = SizeBytes(defaultReadBufferSize)
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = Duration(defaultReadTimeout)
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = Duration(defaultWriteTimeout)
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = Duration(defaultIdleTimeout)
	}

	if c.Security.APIKeys.Header == "" {
		c.Security.APIKeys.Header = defaultAPIKeyHeader
	}
	if c.Maintenance.Message == "" {
		c.Maintenance.Message = defaultMaintenanceMessage
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}

	// Telemetry defaults
	t := &c.Telemetry
	if t.Dir == "" {
		t.Dir = defaultTelemetryDir
	}
	if t.SampleRate == 0 {
		t.SampleRate = defaultTelemetrySampleRate
	}
	if t.SlowThreshold == 0 {
		t.SlowThreshold = Duration(time.Duration(defaultTelemetrySlowMs) * time.Millisecond)
	}
	if t.BufferSize == 0 {
		t.BufferSize = SizeBytes(defaultTelemetryBufferSize)
	}
	if t.FileMaxSize == 0 {
		t.FileMaxSize = SizeBytes(defaultTelemetryFileMaxSize)
	}
	if t.FlushInterval == 0 {
		t.FlushInterval = Duration(time.Duration(defaultTelemetryFlushMs) * time.Millisecond)
	}
	if t.QueueCapacity <= 0 {
		t.QueueCapacity = defaultTelemetryQueueCapacity
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	return flagPath
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
