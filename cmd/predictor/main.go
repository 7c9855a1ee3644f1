package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rodolfo150194/analyze-matches-football/config"
	"github.com/rodolfo150194/analyze-matches-football/internal/adapters/notify"
	"github.com/rodolfo150194/analyze-matches-football/internal/adapters/oddsfeed"
	"github.com/rodolfo150194/analyze-matches-football/internal/adapters/storage"
	"github.com/rodolfo150194/analyze-matches-football/internal/application/pipeline"
	"github.com/rodolfo150194/analyze-matches-football/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	train := flag.Bool("train", false, "train a new model bundle and exit")
	scan := flag.Bool("scan", false, "scan upcoming fixtures for value bets")
	match := flag.String("match", "", "print the full prediction for one fixture id")
	importPath := flag.String("import", "", "load match records from a JSON file into storage")
	backtest := flag.Bool("backtest", false, "replay completed matches and report accuracy + P&L")
	from := flag.String("from", "", "backtest window start (YYYY-MM-DD)")
	to := flag.String("to", "", "backtest window end (YYYY-MM-DD, default today)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("predictor starting",
		"config", *configPath,
		"train", *train,
		"scan", *scan,
		"backtest", *backtest,
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsole()

	switch {
	case *importPath != "":
		runImport(ctx, store, *importPath)

	case *train:
		trainer := pipeline.NewTrainer(cfg, store, store)
		bundle, err := trainer.Train(ctx)
		if err != nil {
			slog.Error("training failed", "err", err)
			os.Exit(1)
		}
		slog.Info("bundle trained", "version", bundle.Version, "models", len(bundle.Models))

	case *match != "":
		feed := oddsfeed.NewFeed(cfg.Odds)
		scanner := pipeline.NewScanner(cfg, store, store, feed, console)
		pred, err := scanner.PredictMatch(ctx, *match)
		if err != nil {
			slog.Error("prediction failed", "err", err, "match", *match)
			os.Exit(1)
		}
		console.PrintPrediction(&pred)

	case *backtest:
		runBacktest(ctx, cfg, store, console, *from, *to)

	case *scan:
		feed := oddsfeed.NewFeed(cfg.Odds)
		scanner := pipeline.NewScanner(cfg, store, store, feed, console)
		report, err := scanner.Scan(ctx)
		if err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		slog.Info("scan complete",
			"analyzed", report.MatchesAnalyzed,
			"recommendations", len(report.Recommendations),
			"skipped", len(report.Skipped),
		)

	default:
		flag.Usage()
		os.Exit(2)
	}

	slog.Info("predictor stopped cleanly")
}

// runImport carga un archivo JSON de partidos históricos en el storage.
func runImport(ctx context.Context, store *storage.SQLiteStore, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read import file", "err", err, "path", path)
		os.Exit(1)
	}

	var matches []domain.MatchRecord
	if err := json.Unmarshal(data, &matches); err != nil {
		slog.Error("failed to parse import file", "err", err, "path", path)
		os.Exit(1)
	}

	if err := store.SaveMatches(ctx, matches); err != nil {
		slog.Error("failed to save matches", "err", err)
		os.Exit(1)
	}
	slog.Info("matches imported", "count", len(matches), "path", path)
}

func runBacktest(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore, console *notify.Console, fromStr, toStr string) {
	if fromStr == "" {
		slog.Error("backtest requires -from YYYY-MM-DD")
		os.Exit(1)
	}
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		slog.Error("invalid -from date", "err", err, "from", fromStr)
		os.Exit(1)
	}
	to := time.Now().UTC()
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			slog.Error("invalid -to date", "err", err, "to", toStr)
			os.Exit(1)
		}
	}

	backtester := pipeline.NewBacktester(cfg, store, store)
	summary, err := backtester.Run(ctx, from, to)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
	console.PrintBacktest(summary)
}

func setupLogger(cfg config.Log) {
	var level slog.Level
	switch cfg.Level {
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
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
