package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/handiism/ultrastar-library/internal/audio"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/library"
	"github.com/handiism/ultrastar-library/internal/tui"
	"github.com/handiism/ultrastar-library/internal/web"
)

// maxRows is the number of query rows printed.
const maxRows = 200

// withApp runs fn with a ready app and closes it afterwards.
func withApp(fn func(cliCtx *cli.Context, a *app) error) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		a, err := newApp(cliCtx, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cliCtx, a)
	}
}

func statement(cliCtx *cli.Context) (string, error) {
	sql := strings.TrimSpace(strings.Join(cliCtx.Args().Slice(), " "))
	if sql == "" {
		return "", errors.New("missing SQL statement")
	}
	return sql, nil
}

var loadCommand = &cli.Command{
	Name:  "load",
	Usage: "Load the library, from the database when read_from_db is set",
	Action: withApp(func(_ *cli.Context, a *app) error {
		count, err := a.engine.Load(a.ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d songs in library\n", count)
		return nil
	}),
}

var refreshCommand = &cli.Command{
	Name:    "refresh",
	Aliases: []string{"r"},
	Usage:   "Rescan the songs directory and rebuild the database",
	Action: withApp(func(_ *cli.Context, a *app) error {
		count, err := a.engine.Refresh(a.ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d songs in library\n", count)
		return nil
	}),
}

var queryCommand = &cli.Command{
	Name:      "query",
	Aliases:   []string{"q"},
	Usage:     "Run a SQL statement against the library database",
	ArgsUsage: "SQL",
	Action: withApp(func(cliCtx *cli.Context, a *app) error {
		sql, err := statement(cliCtx)
		if err != nil {
			return err
		}

		rows, err := a.engine.Query(a.ctx, sql)
		if err != nil {
			return err
		}
		fmt.Println(tui.RenderRows(rows, maxRows))
		return nil
	}),
}

var fieldsCommand = &cli.Command{
	Name:  "fields",
	Usage: "List the columns of the songs table",
	Action: withApp(func(_ *cli.Context, a *app) error {
		columns, err := a.engine.Fields(a.ctx)
		if err != nil {
			return err
		}
		fmt.Println(tui.RenderColumns(columns))
		return nil
	}),
}

var setCommand = &cli.Command{
	Name:      "set",
	Usage:     "Set a field on the songs selected by a SQL query, in the database and the song files",
	ArgsUsage: "SQL",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Usage: "column to set", Required: true},
		&cli.StringFlag{Name: "value", Usage: "new value", Required: true},
	},
	Action: withApp(func(cliCtx *cli.Context, a *app) error {
		sql, err := statement(cliCtx)
		if err != nil {
			return err
		}

		result, err := a.engine.Update(a.ctx, library.QuerySelection(sql), cliCtx.String("field"), cliCtx.String("value"))
		if result.Rows > 0 {
			fmt.Printf("%d of %d songs updated, %d skipped, %d failed\n",
				result.Updated, result.Rows, result.Skipped, len(result.Failed))
			for _, path := range result.Files {
				fmt.Println("  " + path)
			}
		}
		return err
	}),
}

var playlistCommand = &cli.Command{
	Name:  "playlist",
	Usage: "Manage playlists",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Store the songs selected by a SQL query as a playlist",
			ArgsUsage: "SQL",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "playlist name", Required: true},
			},
			Action: withApp(func(cliCtx *cli.Context, a *app) error {
				sql, err := statement(cliCtx)
				if err != nil {
					return err
				}

				path, err := a.engine.CreatePlaylist(a.ctx, library.QuerySelection(sql), cliCtx.String("name"))
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			}),
		},
		{
			Name:      "list",
			Usage:     "List playlists",
			ArgsUsage: "[FILTER]",
			Action: withApp(func(cliCtx *cli.Context, a *app) error {
				names, err := a.engine.ListPlaylists(cliCtx.Args().First())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Println(name)
				}
				return nil
			}),
		},
		{
			Name:      "show",
			Usage:     "Print the songs of a playlist",
			ArgsUsage: "NAME",
			Action: withApp(func(cliCtx *cli.Context, a *app) error {
				playlist, err := a.engine.LoadPlaylist(cliCtx.Args().First())
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetStyle(table.StyleLight)
				t.SetTitle(playlist.Name)
				t.AppendHeader(table.Row{"#", "Artist", "Title"})
				for i, song := range playlist.Songs {
					t.AppendRow(table.Row{i + 1, song.Artist, song.Title})
				}
				fmt.Println(t.Render())
				return nil
			}),
		},
		{
			Name:      "export",
			Usage:     "Write a playlist as M3U or PLS pointing at the audio files",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Value: "m3u", Usage: "m3u or pls"},
			},
			Action: withApp(func(cliCtx *cli.Context, a *app) error {
				format, err := audio.ParseExportFormat(cliCtx.String("format"))
				if err != nil {
					return err
				}

				path, err := a.engine.ExportPlaylist(a.ctx, cliCtx.Args().First(), format)
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			}),
		},
	},
}

var restoreCommand = &cli.Command{
	Name:  "restore",
	Usage: "Restore every song file from its backup",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "delete-backup", Usage: "remove the backups once restored"},
	},
	Action: withApp(func(cliCtx *cli.Context, a *app) error {
		count, err := a.engine.RestoreBackup(cliCtx.Bool("delete-backup"))
		if err != nil {
			return err
		}
		fmt.Printf("%d files restored\n", count)
		return nil
	}),
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve the library as a JSON API",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "addr", Usage: "listen address (overrides listen_addr)", EnvVars: []string{"ULTRASTAR_ADDR"}},
	},
	Action: withApp(func(cliCtx *cli.Context, a *app) error {
		if _, err := a.engine.Load(a.ctx); err != nil {
			return err
		}

		addr := a.settings.ListenAddr
		if cliCtx.IsSet("addr") {
			addr = cliCtx.String("addr")
		}

		server := web.NewServer(a.engine, ioutils.NewImageService(a.settings.CoverThumbnailSize), a.logger)
		return server.ListenAndServe(a.ctx, addr)
	}),
}

var consoleCommand = &cli.Command{
	Name:  "console",
	Usage: "Open the interactive operator console",
	Action: func(cliCtx *cli.Context) error {
		events := make(chan library.Event, 256)
		a, err := newApp(cliCtx, func(e library.Event) {
			select {
			case events <- e:
			default:
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.engine.Load(a.ctx); err != nil {
			return err
		}

		return tui.Run(a.engine, events, a.settings.Verbose > 0)
	},
}
