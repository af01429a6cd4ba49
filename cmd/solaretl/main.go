package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"

	"github.com/taybkho/CI-CD-Energy/pkg/etl"
	"github.com/taybkho/CI-CD-Energy/pkg/log"
	"github.com/taybkho/CI-CD-Energy/pkg/solarnet"
)

func main() {
	// init packages
	client := solarnet.Configured()
	job := etl.Configured(client)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	log.SetDefaultLogLevel(level)

	if err := job.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runID := uuid.NewString()
	ctx = log.WithAttrs(ctx, slog.String("runID", runID))
	ctx = solarnet.WithRequestID(ctx, runID)
	log.Ctx(ctx).DebugContext(ctx, "logger configured", slog.String("level", level.String()))

	if _, err := job.Run(ctx, os.Stdout); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "run failed", "error", err)
		cancel()
		os.Exit(1)
	}
}
