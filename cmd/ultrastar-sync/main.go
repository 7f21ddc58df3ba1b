package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/handiism/ultrastar-library/internal/log"
)

const (
	flagConfig    = "config"
	flagVerbose   = "verbose"
	flagLogFormat = "log-format"
)

func main() {
	logger := log.NewPretty(os.Stderr).Level(zerolog.WarnLevel)
	if err := godotenv.Load(); nil != err {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	app := &cli.App{
		Name:    "ultrastar-sync",
		Usage:   "Keep an UltraStar song folder and its library database in sync",
		Suggest: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagConfig,
				Aliases:  []string{"c"},
				Usage:    "config file path (.json, .yml or .yaml)",
				EnvVars:  []string{"ULTRASTAR_CONFIG"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "verbosity: 0 warnings, 1 info, 2 debug (overrides the config)",
				EnvVars: []string{"ULTRASTAR_VERBOSE"},
			},
			&cli.StringFlag{
				Name:    flagLogFormat,
				Value:   "pretty",
				Usage:   "log output: pretty or json",
				EnvVars: []string{"ULTRASTAR_LOG_FORMAT"},
			},
		},
		Commands: []*cli.Command{
			loadCommand,
			refreshCommand,
			queryCommand,
			fieldsCommand,
			setCommand,
			playlistCommand,
			restoreCommand,
			serveCommand,
			consoleCommand,
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}
