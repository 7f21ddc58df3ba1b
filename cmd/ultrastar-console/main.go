package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/handiism/ultrastar-library/internal/config"
	"github.com/handiism/ultrastar-library/internal/library"
	"github.com/handiism/ultrastar-library/internal/tui"
)

// console runs the interactive UI over an opened engine.
type console func(engine *library.Engine, events <-chan library.Event, verbose bool) error

func main() {
	configFlag := flag.String("config", os.Getenv("ULTRASTAR_CONFIG"), "Path to config file")
	flag.Parse()

	if *configFlag == "" {
		fmt.Fprintln(os.Stderr, "Usage: ultrastar-console -config <file>")
		os.Exit(1)
	}

	if err := run(*configFlag, func(engine *library.Engine, events <-chan library.Event, verbose bool) error {
		return tui.Run(engine, events, verbose)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run opens the library described by configPath, loads it and hands it to
// ui. The engine is closed before run returns, whatever the outcome.
func run(configPath string, ui console) (err error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	events := make(chan library.Event, 256)
	engine, err := library.NewEngine(settings, func(e library.Event) {
		select {
		case events <- e:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing library: %w", closeErr))
		}
	}()

	if _, err := engine.Load(context.Background()); err != nil {
		return fmt.Errorf("loading library: %w", err)
	}

	return ui(engine, events, settings.Verbose > 0)
}
