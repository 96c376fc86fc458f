// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("HYPERTRACK_CONFIG"),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session and preferences in memory for this run only",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	credentials := []cli.Flag{
		&cli.StringFlag{
			Name:    "email",
			Aliases: []string{"e"},
			Usage:   "Account email",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted when omitted)",
			Sources: cli.EnvVars("HYPERTRACK_PASSWORD"),
		},
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and store the session token",
				Flags:  credentials,
				Action: r.AuthLogin,
			},
			{
				Name:   "signup",
				Usage:  "Create an account, then log in",
				Flags:  credentials,
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check the stored session against the backend",
				Action: r.AuthStatus,
			},
		},
	}
}

// artistsCommand handles tracked artist operations. Every subcommand requires a session.
func artistsCommand(r *Runner) *cli.Command {
	id := []cli.Argument{&cli.StringArg{Name: "id"}}

	return &cli.Command{
		Name:    "artists",
		Aliases: []string{"artist", "a"},
		Usage:   "Tracked artist operations",
		Before:  r.RequireSession,
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tracked artists with their latest snapshot",
				Action:  r.ArtistsList,
			},
			{
				Name:      "add",
				Usage:     "Track an artist from a SoundCloud or Spotify profile URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.ArtistsAdd,
			},
			{
				Name:      "show",
				Usage:     "Show an artist with current playlists and history",
				Arguments: id,
				Action:    r.ArtistsShow,
			},
			{
				Name:      "playlists",
				Usage:     "List the playlists an artist currently appears on",
				Arguments: id,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv)",
						Value:   "text",
					},
				},
				Action: r.ArtistsPlaylists,
			},
			{
				Name:      "history",
				Usage:     "Show snapshot history, oldest first",
				Arguments: id,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, markdown, csv)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.ArtistsHistory,
			},
			{
				Name:      "refresh",
				Usage:     "Run playlist discovery again and report changes",
				Arguments: id,
				Action:    r.ArtistsRefresh,
			},
			{
				Name:      "open",
				Usage:     "Open the artist's profile in a browser",
				Arguments: id,
				Action:    r.ArtistsOpen,
			},
		},
	}
}

// providerCommand reads and switches the backend's music provider
func providerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "provider",
		Usage:  "Music provider used for discovery",
		Before: r.RequireSession,
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show the current provider",
				Action: r.ProviderGet,
			},
			{
				Name:      "set",
				Usage:     "Switch provider (spotify or soundcloud)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "provider"}},
				Action:    r.ProviderSet,
			},
		},
	}
}

// themeCommand reads and stores the dashboard color scheme
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Dashboard color scheme",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show the stored theme",
				Action: r.ThemeGet,
			},
			{
				Name:      "set",
				Usage:     "Store a theme (dark or light)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "theme"}},
				Action:    r.ThemeSet,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET of an API path (/config and /api/config are the same), prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST of a JSON body to an API path (with or without the /api prefix)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for the local database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the local database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config file from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui", "dashboard"},
		Usage:   "Launch the interactive dashboard",
		Action:  r.TUI,
	}
}
