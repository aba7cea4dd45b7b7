package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"webserver/internal/app"
	"webserver/pkg/config"
	"webserver/pkg/logger"
	"webserver/pkg/shutdown"
)

// set build metadata
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	// parse config flags
	flags, err := config.ParseConfigFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		shutdown.Abort("invalid flags", err)
	}

	// parse config file
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		shutdown.Abort("failed to load config file", err)
	}

	// parse config env variables
	envCfg, envRes, err := config.ParseConfigEnvs(os.Getenv)
	if err != nil {
		shutdown.Abort("failed to read environment", err)
	}

	// load effective config
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		shutdown.Abort("failed to build effective config", err)
	}

	// validate config
	if err := config.ValidateConfig(eff); err != nil {
		shutdown.Abort("invalid configuration", err)
	}

	// initialize logger after config is fully loaded
	logger.Init(eff.Config.Logging.Level)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "sources", eff.Sources, "addr", eff.Addr, "store", eff.Config.Store.Path)

	// initialize app; this validates every registered action
	a, err := app.New(eff, versionString())
	if err != nil {
		shutdown.Abort("failed to initialize app", err)
	}
	if flags.Validate {
		logger.Info("validation_passed")
		fmt.Println("configuration and actions are valid")
		_ = a.Shutdown(context.Background())
		return
	}

	// set up context and signal handling for graceful shutdown
	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	// run the app
	if err := a.Run(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		shutdown.Abort("app run failed", err)
	}

	// shutdown the app with a bounded timeout so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}

func versionString() string {
	v := version
	if commit != "none" {
		v += " (" + commit + ")"
	}
	if buildDate != "unknown" {
		v += " @ " + buildDate
	}
	return v
}
