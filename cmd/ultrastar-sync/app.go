package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/handiism/ultrastar-library/internal/config"
	"github.com/handiism/ultrastar-library/internal/library"
	"github.com/handiism/ultrastar-library/internal/log"
)

// app bundles what every command needs.
type app struct {
	ctx      context.Context
	cancel   context.CancelFunc
	settings *config.Settings
	logger   zerolog.Logger
	engine   *library.Engine
}

// newApp loads the settings, builds the logger and opens the engine. Engine
// events go to onEvent when given, to the logger otherwise.
func newApp(cliCtx *cli.Context, onEvent func(library.Event)) (*app, error) {
	settings, err := config.Load(cliCtx.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if cliCtx.IsSet(flagVerbose) {
		settings.Verbose = cliCtx.Int(flagVerbose)
	}

	var logger zerolog.Logger
	if cliCtx.String(flagLogFormat) == "json" {
		logger = log.NewPacked(os.Stderr)
	} else {
		logger = log.NewPretty(os.Stderr)
	}
	logger = logger.Level(log.LevelFor(settings.Verbose))

	if onEvent == nil {
		onEvent = logEvent(logger)
	}

	engine, err := library.NewEngine(settings, onEvent)
	if err != nil {
		return nil, err
	}

	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)

	return &app{
		ctx:      ctx,
		cancel:   cancel,
		settings: settings,
		logger:   logger,
		engine:   engine,
	}, nil
}

func (a *app) Close() {
	a.cancel()
	if err := a.engine.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close library")
	}
}

// logEvent forwards engine events to logger.
func logEvent(logger zerolog.Logger) func(library.Event) {
	return func(e library.Event) {
		var event *zerolog.Event
		switch e.Level {
		case library.LevelError:
			event = logger.Error()
		case library.LevelWarning:
			event = logger.Warn()
		case library.LevelVerbose:
			event = logger.Debug()
		default:
			event = logger.Info()
		}

		if e.Path != "" {
			event = event.Str("path", e.Path)
		}
		event.Msg(e.Message)
	}
}
