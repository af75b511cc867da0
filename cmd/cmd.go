// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config, database, and cache directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playback state HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a track to a playable URL (local, cache, or cloud)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "Wait for any background cache warm to finish",
			},
		},
		Action: r.Resolve,
	}
}

// trackCommand manages the track index
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Manage the track index",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add or update a track in the index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Track ID (generated when omitted)",
					},
					&cli.StringFlag{
						Name:     "hash",
						Usage:    "Content hash of the audio file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Local file path",
					},
					&cli.StringFlag{
						Name:  "cloud-key",
						Usage: "Object storage key",
					},
					&cli.FloatFlag{
						Name:  "duration",
						Usage: "Track duration in seconds",
					},
				},
				Action: r.TrackAdd,
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List indexed tracks",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TrackList,
			},
		},
	}
}

// cacheCommand inspects and manages the local audio cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the local audio cache",
		Commands: []*cli.Command{
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List cached entries, most recently used first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached file",
				Action: r.CacheClear,
			},
		},
	}
}

// stateCommand reads and writes the shared playback record
func stateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Read and write the shared playback record",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the latest playback record",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "others",
						Usage: "Exclude this device's own writes",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.StateGet,
			},
			{
				Name:  "set",
				Usage: "Write a playback record for this device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "track",
						Usage:    "Track ID",
						Required: true,
					},
					&cli.FloatFlag{
						Name:  "position",
						Usage: "Position in seconds",
					},
					&cli.BoolFlag{
						Name:  "playing",
						Usage: "Mark the track as currently playing",
					},
				},
				Action: r.StateSet,
			},
			{
				Name:   "clear",
				Usage:  "Delete the playback record",
				Action: r.StateClear,
			},
		},
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Check for playback to resume from another device",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Resume without prompting",
			},
			&cli.FloatFlag{
				Name:  "duration",
				Usage: "Reported track duration for the simulated player",
				Value: 300,
			},
		},
		Action: r.Resume,
	}
}
