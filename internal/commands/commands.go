package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/autonolas-community/mechctl/internal/version"
)

// Mechctl assembles the CLI application.
func Mechctl() *cli.App {
	return &cli.App{
		Name:    "mechctl",
		Usage:   "Set up and run an on-chain mech service",
		Version: version.GetFullVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: LoggerBeforeFunc,
		Commands: []*cli.Command{
			RunCommand(),
			StopCommand(),
			MetadataCommand(),
			StatusCommand(),
		},
	}
}

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Provision the mech service on chain and start the worker",
		Before: TelemetryBeforeFunc,
		After:  TelemetryAfterFunc,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "rpc",
				Usage: "Override the configured RPC endpoint",
			},
		},
		Action: runAction,
	}
}

// StopCommand returns the stop command.
func StopCommand() *cli.Command {
	return &cli.Command{
		Name:   "stop",
		Usage:  "Stop the worker and back up its local state",
		Before: TelemetryBeforeFunc,
		After:  TelemetryAfterFunc,
		Action: stopAction,
	}
}

// MetadataCommand returns the metadata command.
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:   "metadata",
		Usage:  "Validate and pin the mech metadata file",
		Before: TelemetryBeforeFunc,
		After:  TelemetryAfterFunc,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ipfs-api",
				Usage: "IPFS node API endpoint",
			},
		},
		Action: metadataAction,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the local deployment status",
		Action: statusAction,
	}
}
