// Command cvvidproc runs either the background-extraction or the
// object-tracking pipeline against a video file or live RTSP stream,
// according to a YAML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/bubbletrack"
	"github.com/UkoeHB/CvVidProc/config"
	"github.com/UkoeHB/CvVidProc/supervisor"
)

const defaultConfigPath = "config/cvvidproc.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	outPath := flag.String("out", "", "write the background image to this path (background pipeline only)")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting cvvidproc", "config", *configPath, "debug", *debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received, stopping gracefully", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, cfg, logger, *outPath); err != nil {
		logger.Error("pipeline failed", "err", err)
		os.Exit(1)
	}

	logger.Info("cvvidproc finished")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, outPath string) error {
	sup := supervisor.New(cfg, logger)

	start := time.Now()

	if cfg.TrackerEnabled {
		bt := bubbletrack.NewTracker(50, 5, 10)
		result, err := supervisor.Run[bubbletrack.Record](ctx, sup, bt.Track)
		if err != nil {
			return fmt.Errorf("cvvidproc: %w", err)
		}
		logger.Info("tracking pipeline complete",
			"objects_archived", len(result.Tracks),
			"elapsed", time.Since(start),
			"generator_timing", result.GeneratorTiming,
			"process_timing", result.ProcessTiming,
		)
		return nil
	}

	result, err := supervisor.Run[struct{}](ctx, sup, nil)
	if err != nil {
		return fmt.Errorf("cvvidproc: %w", err)
	}
	defer result.Background.Close()

	logger.Info("background pipeline complete",
		"elapsed", time.Since(start),
		"generator_timing", result.GeneratorTiming,
		"process_timing", result.ProcessTiming,
	)

	if outPath != "" && !result.Background.Empty() {
		if ok := gocv.IMWrite(outPath, result.Background); !ok {
			return fmt.Errorf("cvvidproc: failed to write background image to %s", outPath)
		}
		logger.Info("background image written", "path", outPath)
	}

	return nil
}
