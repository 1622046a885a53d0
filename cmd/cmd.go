// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand writes a config file and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "TMDB API key to store in the config file",
			},
		},
		Action: r.Setup,
	}
}

// listCommand prints the watchlist
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List watchlist entries, newest first",
		Flags: append(jsonFlags(),
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Only show movie or tv entries",
			},
			&cli.StringFlag{
				Name:  "priority",
				Usage: "Only show entries with this priority (high, medium, low)",
			},
			&cli.BoolFlag{
				Name:  "watched",
				Usage: "Only show watched entries",
			},
			&cli.BoolFlag{
				Name:  "unwatched",
				Usage: "Only show entries not yet watched",
			},
		),
		Action: r.List,
	}
}

// statsCommand prints aggregate stats
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show watchlist statistics",
		Flags:  jsonFlags(),
		Action: r.Stats,
	}
}

// addCommand looks titles up in the catalog and tracks them
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add titles by catalog reference (42, movie:42, tv:1396)",
		ArgsUsage: "<ref> [ref...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent catalog lookups when adding several titles",
				Value: 4,
			},
		},
		Action: r.Add,
	}
}

func refCommand(name, usage string, action cli.ActionFunc, aliases ...string) *cli.Command {
	return &cli.Command{
		Name:    name,
		Aliases: aliases,
		Usage:   usage,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
		},
		Action: action,
	}
}

// removeCommand untracks a title
func removeCommand(r *Runner) *cli.Command {
	return refCommand("remove", "Remove a title from the watchlist", r.Remove, "rm")
}

// toggleCommand flips the watched flag
func toggleCommand(r *Runner) *cli.Command {
	return refCommand("toggle", "Mark a title watched or unwatched", r.Toggle)
}

// priorityCommand sets an entry's priority
func priorityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "priority",
		Usage: "Set the priority of a title (high, medium, low)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
			&cli.StringArg{Name: "level"},
		},
		Action: r.Priority,
	}
}

// notesCommand replaces an entry's notes
func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Replace the notes on a title; an empty text clears them",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
			&cli.StringArg{Name: "text"},
		},
		Action: r.Notes,
	}
}

// clearCommand empties the watchlist
func clearCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every entry",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Confirm clearing the watchlist",
			},
		},
		Action: r.Clear,
	}
}

// importCommand merges legacy export files
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Merge watchlist JSON files into the watchlist",
		ArgsUsage: "<file> [file...]",
		Action:    r.Import,
	}
}

// exportCommand writes the watchlist to a file or stdout
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the watchlist as json, csv, markdown or txt",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path, or directory for markdown with --posters (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "posters",
				Usage: "Download posters next to a markdown export",
			},
			&cli.StringFlag{
				Name:  "image-base",
				Usage: "Base URL for poster downloads",
				Value: "https://image.tmdb.org/t/p/w342",
			},
		},
		Action: r.Export,
	}
}

// searchCommand queries the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog for titles",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(jsonFlags(),
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "movie or tv",
				Value:   "movie",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
		),
		Action: r.Search,
	}
}

// watchCommand follows changes made by other processes
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print a line whenever the watchlist changes, including changes from other processes",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval (default from config)",
			},
		},
		Action: r.Watch,
	}
}

// serveCommand runs the HTTP surface
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the watchlist and its event stream over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
			&cli.StringFlag{
				Name:  "cors-origin",
				Usage: "Allowed browser origin for cross-origin requests",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive watchlist management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for the watchlist",
		Action:  r.TUI,
	}
}
