// Command poster runs one fetch-and-post cycle: pull the most-called
// token list from radar.fun, tweet the top entries, then after a delay
// tweet the runners-up as a threaded reply. Scheduling lives outside
// the process (GitHub Actions cron); one invocation is one run.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/radar-fun/most-called-bot/internal/config"
	"github.com/radar-fun/most-called-bot/internal/publish"
	"github.com/radar-fun/most-called-bot/internal/radar"
	"github.com/radar-fun/most-called-bot/internal/run"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	dryRun := flag.Bool("dry-run", false, "render posts without publishing")
	flag.Parse()

	// Local runs keep credentials in .env; CI injects them directly.
	_ = godotenv.Load()

	if os.Getenv("DRY_RUN") == "1" {
		*dryRun = true
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("poster starting",
		"config", *configPath,
		"dry_run", *dryRun,
		"timeframe", cfg.Radar.Timeframe,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	fetcher := radar.NewClient(cfg.Radar.BaseURL, cfg.Radar.Retry.Policy(),
		radar.WithTimeout(cfg.Radar.Timeout),
		radar.WithInsecureTLS(!cfg.Radar.VerifyTLS),
		radar.WithLogger(logger),
	)
	if !cfg.Radar.VerifyTLS {
		logger.Warn("TLS verification is disabled for the radar API; not recommended outside the known-broken upstream cert")
	}

	var publisher run.Publisher
	if !*dryRun {
		creds, err := config.CredentialsFromEnv()
		if err != nil {
			logger.Error("missing X credentials", "error", err)
			os.Exit(1)
		}
		httpClient := publish.NewOAuth1Client(ctx,
			creds.ConsumerKey, creds.ConsumerSecret,
			creds.AccessToken, creds.AccessSecret,
			cfg.Post.Timeout,
		)
		publisher = publish.New(httpClient, cfg.Post.Retry.Policy(), publish.WithLogger(logger))
	}

	runner := run.New(cfg, fetcher, publisher,
		run.WithLogger(logger),
		run.WithDryRun(*dryRun),
	)

	result := runner.Run(ctx)
	logger.Info("run finished",
		"outcome", result.Outcome.String(),
		"root_id", result.RootID,
		"reply_id", result.ReplyID,
	)
	os.Exit(result.ExitCode())
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
