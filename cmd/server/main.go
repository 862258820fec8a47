package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/binpacker/internal/application"
	"github.com/eugenenazirov/binpacker/internal/config"
	"github.com/eugenenazirov/binpacker/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	overrides, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "invalid arguments")

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.String("config_file", overrides.ConfigFile),
		zap.String("port", cfg.Port),
		zap.Float64("bin_width", cfg.BinWidth),
		zap.Float64("bin_height", cfg.BinHeight),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
		zap.Int("rate_limit_burst", cfg.RateLimitBurst),
		zap.Bool("trust_proxy", cfg.TrustProxy),
		zap.String("log_level", cfg.LogLevel),
	)

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// parseFlags turns command-line arguments into configuration overrides.
// Flags left at their sentinel defaults do not override anything.
func parseFlags(args []string) (*config.CLIOverrides, error) {
	kingpinApp := kingpin.New("binpack-server", "Bin packer HTTP service - packs rectangles into fixed-size bins")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	binSize := kingpinApp.Flag("bin-size", "Default bin size as WxH, e.g. 20x10").String()
	binWidth := kingpinApp.Flag("bin-width", "Default bin width").Default("0").Float64()
	binHeight := kingpinApp.Flag("bin-height", "Default bin height").Default("0").Float64()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	logLevel := kingpinApp.Flag("log-level", "Log level: debug, info, warn, error").String()

	if _, err := kingpinApp.Parse(args); err != nil {
		return nil, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *binSize != "" {
		w, h, err := config.ParseBinSize(*binSize)
		if err != nil {
			return nil, fmt.Errorf("--bin-size: %w", err)
		}
		overrides.BinWidth = &w
		overrides.BinHeight = &h
	}

	if *binWidth > 0 {
		overrides.BinWidth = binWidth
	}

	if *binHeight > 0 {
		overrides.BinHeight = binHeight
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	return overrides, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
