package config

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/adhocore/gronx"

	"webserver/pkg/logger"
)

// set defaults, fail fast on critical errors
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	cfg.ApplyDefaults()

	var errs []error
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if strings.TrimSpace(cfg.Server.ContentRoot) == "" {
		errs = append(errs, fmt.Errorf("server.content_root is empty"))
	}
	if _, _, err := mime.ParseMediaType(cfg.Server.DefaultContentType); err != nil {
		errs = append(errs, fmt.Errorf("server.default_content_type: %w", err))
	}
	if cfg.Server.MaxRequestBodySize < 0 {
		errs = append(errs, fmt.Errorf("server.max_request_body_size must not be negative"))
	}
	if cfg.Security.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("security.rate_limit.rps must not be negative"))
	}
	if cfg.Security.RateLimit.RPS > 0 && cfg.Security.RateLimit.Burst <= 0 {
		cfg.Security.RateLimit.Burst = int(cfg.Security.RateLimit.RPS)
		if cfg.Security.RateLimit.Burst < 1 {
			cfg.Security.RateLimit.Burst = 1
		}
	}
	if c := cfg.Maintenance.Cron; c != "" {
		gron := gronx.New()
		if !gron.IsValid(c) {
			errs = append(errs, fmt.Errorf("invalid maintenance.cron: %q is not a valid cron expression", c))
		}
	}
	if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be within [0,1]"))
	}
	if len(cfg.Security.APIKeys.Admin) == 0 {
		logger.Warn("no_admin_keys", "effect", "admin actions reject every request")
	}
	return errors.Join(errs...)
}
