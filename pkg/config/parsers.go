package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const envPrefix = "WEBSERVER_"

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr     string
	Config   string
	Content  string
	Store    string
	Validate bool
	Set      map[string]bool
}

// holds the results of reading environment overrides
type EnvResult struct {
	EnvUsed bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config  *Config
	Addr    string
	Sources []string // layers applied, lowest precedence first
}

// ParseConfigFlags parses args (without the program name).
func ParseConfigFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("webserver", flag.ContinueOnError)
	addrPtr := fs.String("addr", ":8080", "HTTP listen address")
	cfgPtr := fs.String("config", "./config.yaml", "Path to config file")
	contentPtr := fs.String("content", "./public", "Static content root")
	storePtr := fs.String("store", "./data/store", "Pebble store path")
	validatePtr := fs.Bool("validate", false, "Validate configuration and actions, then exit")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{
		Addr:     *addrPtr,
		Config:   *cfgPtr,
		Content:  *contentPtr,
		Store:    *storePtr,
		Validate: *validatePtr,
		Set:      setFlags,
	}, nil
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if isNotExist(err) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads WEBSERVER_* variables through getenv into a new
// Config holding only the values that were set.
func ParseConfigEnvs(getenv func(string) string) (*Config, EnvResult, error) {
	keys := []string{
		"ADDR", "SERVER_ADDRESS", "SERVER_PORT", "CONTENT_ROOT", "UPLOAD_DIR",
		"SERVER_NAME", "DEFAULT_CONTENT_TYPE", "MAX_REQUEST_BODY_SIZE",
		"READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"RATE_RPS", "RATE_BURST", "IP_WHITELIST", "API_KEY_HEADER", "API_ADMIN_KEYS",
		"MAINTENANCE_CRON", "MAINTENANCE_MESSAGE",
		"LOG_LEVEL", "STORE_PATH",
		"TELEMETRY_DIR", "TELEMETRY_SAMPLE_RATE", "TELEMETRY_SLOW_THRESHOLD",
	}
	envs := make(map[string]string, len(keys))
	envUsed := false
	for _, k := range keys {
		v := strings.TrimSpace(getenv(envPrefix + k))
		envs[k] = v
		if v != "" {
			envUsed = true
		}
	}

	envCfg := &Config{}
	var errs []string
	bad := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s%s: %v", envPrefix, key, err))
	}

	if v := envs["ADDR"]; v != "" {
		host, port, err := splitAddr(v)
		if err != nil {
			bad("ADDR", err)
		}
		envCfg.Server.Address, envCfg.Server.Port = host, port
	} else {
		envCfg.Server.Address = envs["SERVER_ADDRESS"]
		if v := envs["SERVER_PORT"]; v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				envCfg.Server.Port = p
			} else {
				bad("SERVER_PORT", err)
			}
		}
	}
	envCfg.Server.ContentRoot = envs["CONTENT_ROOT"]
	envCfg.Server.UploadDir = envs["UPLOAD_DIR"]
	envCfg.Server.Name = envs["SERVER_NAME"]
	envCfg.Server.DefaultContentType = envs["DEFAULT_CONTENT_TYPE"]

	var err error
	if envCfg.Server.MaxRequestBodySize, err = parseSize(envs["MAX_REQUEST_BODY_SIZE"]); err != nil {
		bad("MAX_REQUEST_BODY_SIZE", err)
	}
	if envCfg.Server.ReadTimeout, err = parseDuration(envs["READ_TIMEOUT"]); err != nil {
		bad("READ_TIMEOUT", err)
	}
	if envCfg.Server.WriteTimeout, err = parseDuration(envs["WRITE_TIMEOUT"]); err != nil {
		bad("WRITE_TIMEOUT", err)
	}
	if envCfg.Server.IdleTimeout, err = parseDuration(envs["IDLE_TIMEOUT"]); err != nil {
		bad("IDLE_TIMEOUT", err)
	}

	if v := envs["RATE_RPS"]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			envCfg.Security.RateLimit.RPS = f
		} else {
			bad("RATE_RPS", err)
		}
	}
	if v := envs["RATE_BURST"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			envCfg.Security.RateLimit.Burst = n
		} else {
			bad("RATE_BURST", err)
		}
	}
	envCfg.Security.IPWhitelist = parseList(envs["IP_WHITELIST"])
	envCfg.Security.APIKeys.Header = envs["API_KEY_HEADER"]
	envCfg.Security.APIKeys.Admin = parseList(envs["API_ADMIN_KEYS"])

	envCfg.Maintenance.Cron = envs["MAINTENANCE_CRON"]
	envCfg.Maintenance.Message = envs["MAINTENANCE_MESSAGE"]
	envCfg.Logging.Level = envs["LOG_LEVEL"]
	envCfg.Store.Path = envs["STORE_PATH"]

	envCfg.Telemetry.Dir = envs["TELEMETRY_DIR"]
	if v := envs["TELEMETRY_SAMPLE_RATE"]; v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			envCfg.Telemetry.SampleRate = f
		} else {
			bad("TELEMETRY_SAMPLE_RATE", err)
		}
	}
	if envCfg.Telemetry.SlowThreshold, err = parseDuration(envs["TELEMETRY_SLOW_THRESHOLD"]); err != nil {
		bad("TELEMETRY_SLOW_THRESHOLD", err)
	}

	if len(errs) > 0 {
		return nil, EnvResult{EnvUsed: envUsed}, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return envCfg, EnvResult{EnvUsed: envUsed}, nil
}

// LoadEffectiveConfig layers the sources: config file, then environment,
// then explicitly set flags. Passing -config for a missing file is an error.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	if flags.Set["config"] && !fileExists {
		return res, fmt.Errorf("config file %s not found", flags.Config)
	}

	out := &Config{}
	if fileExists && fileCfg != nil {
		*out = *fileCfg
		res.Sources = append(res.Sources, "config")
	}
	if envRes.EnvUsed && envCfg != nil {
		overlay(out, envCfg)
		res.Sources = append(res.Sources, "env")
	}

	flagged := false
	if flags.Set["addr"] {
		host, port, err := splitAddr(flags.Addr)
		if err != nil {
			return res, fmt.Errorf("invalid -addr: %w", err)
		}
		if host != "" {
			out.Server.Address = host
		}
		out.Server.Port = port
		flagged = true
	}
	if flags.Set["content"] {
		out.Server.ContentRoot = flags.Content
		flagged = true
	}
	if flags.Set["store"] {
		out.Store.Path = flags.Store
		flagged = true
	}
	if flagged {
		res.Sources = append(res.Sources, "flags")
	}
	if len(res.Sources) == 0 {
		res.Sources = []string{"defaults"}
	}

	out.ApplyDefaults()
	res.Config = out
	res.Addr = out.Addr()
	return res, nil
}

// overlay copies every non-zero value of src onto dst.
func overlay(dst, src *Config) {
	setStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	setStr(&dst.Server.Address, src.Server.Address)
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	setStr(&dst.Server.ContentRoot, src.Server.ContentRoot)
	setStr(&dst.Server.UploadDir, src.Server.UploadDir)
	setStr(&dst.Server.Name, src.Server.Name)
	setStr(&dst.Server.DefaultContentType, src.Server.DefaultContentType)
	if src.Server.MaxRequestBodySize != 0 {
		dst.Server.MaxRequestBodySize = src.Server.MaxRequestBodySize
	}
	if src.Server.ReadTimeout != 0 {
		dst.Server.ReadTimeout = src.Server.ReadTimeout
	}
	if src.Server.WriteTimeout != 0 {
		dst.Server.WriteTimeout = src.Server.WriteTimeout
	}
	if src.Server.IdleTimeout != 0 {
		dst.Server.IdleTimeout = src.Server.IdleTimeout
	}

	if src.Security.RateLimit.RPS != 0 {
		dst.Security.RateLimit.RPS = src.Security.RateLimit.RPS
	}
	if src.Security.RateLimit.Burst != 0 {
		dst.Security.RateLimit.Burst = src.Security.RateLimit.Burst
	}
	if len(src.Security.IPWhitelist) > 0 {
		dst.Security.IPWhitelist = append([]string(nil), src.Security.IPWhitelist...)
	}
	setStr(&dst.Security.APIKeys.Header, src.Security.APIKeys.Header)
	if len(src.Security.APIKeys.Admin) > 0 {
		dst.Security.APIKeys.Admin = append([]string(nil), src.Security.APIKeys.Admin...)
	}

	setStr(&dst.Maintenance.Cron, src.Maintenance.Cron)
	setStr(&dst.Maintenance.Message, src.Maintenance.Message)
	setStr(&dst.Logging.Level, src.Logging.Level)
	setStr(&dst.Store.Path, src.Store.Path)

	setStr(&dst.Telemetry.Dir, src.Telemetry.Dir)
	if src.Telemetry.SampleRate != 0 {
		dst.Telemetry.SampleRate = src.Telemetry.SampleRate
	}
	if src.Telemetry.SlowThreshold != 0 {
		dst.Telemetry.SlowThreshold = src.Telemetry.SlowThreshold
	}
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// splitAddr splits "host:port" or ":port".
func splitAddr(a string) (string, int, error) {
	h, p, err := net.SplitHostPort(a)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return h, port, nil
}
