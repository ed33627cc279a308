// Package cli contains the steric command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	logFileMaxSizeMB = 100

	flagSplit     = "split"
	flagStorage   = "storage"
	flagWorkers   = "workers"
	flagRadius    = "radius"
	flagVdW       = "vdw"
	flagPDBFormat = "pdb-format"
	flagStrict    = "strict"
	flagVerify    = "verify"
	flagFormat    = "format"
)

var readFlags = []cli.Flag{
	&cli.Float64Flag{
		Name:  flagRadius,
		Usage: "radius in angstroms for atoms without a more specific radius (default 2.0)",
	},
	&cli.BoolFlag{
		Name:  flagVdW,
		Usage: "use Bondi van der Waals radii for common elements",
	},
	&cli.StringFlag{
		Name:  flagPDBFormat,
		Usage: "how ATOM records are split into fields: columns or fields",
	},
	&cli.BoolFlag{
		Name:  flagStrict,
		Usage: "fail on malformed ATOM records instead of skipping them",
	},
}

var treeFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  flagSplit,
		Usage: "how atoms are divided between children: midpoint or spatial-median",
	},
	&cli.StringFlag{
		Name:  flagStorage,
		Usage: "which nodes keep atoms: all-nodes or leaves-only",
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "steric",
		Usage:           "detect steric overlap between molecular structures",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load run configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotating it as it grows",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "overlap",
				Usage:     "report the query atoms that overlap the reference structure",
				ArgsUsage: "[REFERENCE.pdb QUERY.pdb]",
				Flags: append(append([]cli.Flag{
					&cli.IntFlag{
						Name:  flagWorkers,
						Usage: "number of goroutines probing the reference tree",
					},
					&cli.BoolFlag{
						Name:  flagVerify,
						Usage: "check the result against an exhaustive scan",
					},
					&cli.StringFlag{
						Name:    flagFormat,
						Aliases: []string{"o"},
						Usage:   "output format: text, table or json",
					},
				}, readFlags...), treeFlags...),
				Action: OverlapAction,
			},
			{
				Name:      "stats",
				Usage:     "print the shape of the tree built over a structure",
				ArgsUsage: "[REFERENCE.pdb]",
				Flags:     append(append([]cli.Flag{}, readFlags...), treeFlags...),
				Action:    StatsAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the run configuration",
				Action: SchemaAction,
			},
		},
		Writer:    out,
		ErrWriter: errOut,
	}
}
