package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Security    SecurityConfig    `yaml:"security"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Logging     LoggingConfig     `yaml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Store       StoreConfig       `yaml:"store"`
}

// ServerConfig holds listener, content and request limits.
type ServerConfig struct {
	Address            string    `yaml:"address"`
	Port               int       `yaml:"port"`
	ContentRoot        string    `yaml:"content_root"`
	UploadDir          string    `yaml:"upload_dir"`
	Name               string    `yaml:"server_name"`
	DefaultContentType string    `yaml:"default_content_type"`
	MaxRequestBodySize SizeBytes `yaml:"max_request_body_size"`
	ReadBufferSize     SizeBytes `yaml:"read_buffer_size"`
	ReadTimeout        Duration  `yaml:"read_timeout"`
	WriteTimeout       Duration  `yaml:"write_timeout"`
	IdleTimeout        Duration  `yaml:"idle_timeout"`
}

// SecurityConfig holds the settings behind the built-in hooks.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
	APIKeys     struct {
		Header string   `yaml:"header"`
		Admin  []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// MaintenanceConfig schedules a maintenance window. An empty cron disables it.
type MaintenanceConfig struct {
	Cron    string `yaml:"cron"`
	Message string `yaml:"message"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig controls trace sampling and the trace writer.
type TelemetryConfig struct {
	Dir           string    `yaml:"dir"`
	SampleRate    float64   `yaml:"sample_rate"`
	SlowThreshold Duration  `yaml:"slow_threshold"`
	BufferSize    SizeBytes `yaml:"buffer_size"`
	FileMaxSize   SizeBytes `yaml:"file_max_size"`
	FlushInterval Duration  `yaml:"flush_interval"`
	QueueCapacity int       `yaml:"queue_capacity"`
}

// StoreConfig locates the application key/value store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	v, err := parseSize(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// String renders the size the way humans write it, e.g. "5.2 MB".
func (s SizeBytes) String() string { return humanize.Bytes(uint64(s)) }

func parseSize(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
