package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/ops"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *ops.Deps) *cli.App {
	app := &cli.App{
		Name:    "dayreel",
		Usage:   "Pick one video or Live Photo per day",
		Version: Version,
		Commands: []*cli.Command{
			resolveCmd(d),
			monthCmd(d),
			preferCmd(d),
			unpreferCmd(d),
			preferredCmd(d),
			pinCmd(d),
			unpinCmd(d),
			pinsCmd(d),
			cleanupCmd(d),
			orphansCmd(d),
			selectCmd(d),
			summaryCmd(d),
			exportCmd(d),
			importCmd(d),
			statusCmd(d),
		},
	}
	// return errors to the caller instead of exiting, so tests can inspect them
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// rangeFlags returns fresh --start/--end flags; flag structs carry parse state.
func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "start", Aliases: []string{"s"}, Required: true, Usage: "First day (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "end", Aliases: []string{"e"}, Required: true, Usage: "Last day, inclusive (YYYY-MM-DD)"},
	}
}

func resolveCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve the representative media of a day",
		ArgsUsage: "<date>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			output, err := ops.ResolveDay(c.Context, d, ops.ResolveDayInput{Date: c.Args().Get(0)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func monthCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "month",
		Usage:     "Resolve a month grid",
		ArgsUsage: "<year> <month>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2); err != nil {
				return err
			}
			year, err := strconv.Atoi(c.Args().Get(0))
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid year: %s", c.Args().Get(0))))
			}
			month, err := strconv.Atoi(c.Args().Get(1))
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid month: %s", c.Args().Get(1))))
			}

			output, err := ops.ResolveMonth(c.Context, d, ops.ResolveMonthInput{Year: year, Month: month})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func preferCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "prefer",
		Usage:     "Set the preferred asset of a day",
		ArgsUsage: "<date> <asset-id>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2); err != nil {
				return err
			}
			output, err := ops.SetPreferred(c.Context, d, ops.SetPreferredInput{
				Date:    c.Args().Get(0),
				AssetID: c.Args().Get(1),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func unpreferCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "unprefer",
		Usage:     "Remove the preferred asset of a day",
		ArgsUsage: "<date>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			output, err := ops.ClearPreferred(c.Context, d, ops.ClearPreferredInput{Date: c.Args().Get(0)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func preferredCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "preferred",
		Usage:     "Show the preferred asset of a day",
		ArgsUsage: "<date>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			output, err := ops.GetPreferred(c.Context, d, ops.GetPreferredInput{Date: c.Args().Get(0)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func pinCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Pin an asset onto a day",
		ArgsUsage: "<asset-id> <target-date>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "Day the asset belongs to (default: its creation day)"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2); err != nil {
				return err
			}
			output, err := ops.Pin(c.Context, d, ops.PinInput{
				AssetID:    c.Args().Get(0),
				TargetDate: c.Args().Get(1),
				SourceDate: c.String("source"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func unpinCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "unpin",
		Usage:     "Remove the pin on a day",
		ArgsUsage: "<target-date>",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			output, err := ops.Unpin(c.Context, d, ops.UnpinInput{TargetDate: c.Args().Get(0)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func pinsCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "pins",
		Usage: "List pins, most recent day first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListPins(c.Context, d, ops.ListPinsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func cleanupCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete preferences and pins older than a threshold",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Required: true, Usage: "Age threshold: all|1y|2y"},
			&cli.StringFlag{Name: "target", Value: string(ops.CleanupAll), Usage: "Store to clean: preferred|pins|all"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Cleanup(c.Context, d, ops.CleanupInput{
				Target:    ops.CleanupTarget(c.String("target")),
				OlderThan: c.String("older-than"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func orphansCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "orphans",
		Usage: "Delete pins whose asset no longer exists",
		Action: func(c *cli.Context) error {
			output, err := ops.CleanupOrphans(c.Context, d)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func selectCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "select",
		Usage: "Select one media per day over a date range",
		Flags: rangeFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.SelectTimeframe(c.Context, d, ops.TimeframeInput{
				Start: c.String("start"),
				End:   c.String("end"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func summaryCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Summarize the selection over a date range",
		Flags: rangeFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Summarize(c.Context, d, ops.TimeframeInput{
				Start: c.String("start"),
				End:   c.String("end"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func exportCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a compilation plan to JSONL",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.dayreel/exports/plan-<start>-<end>-<timestamp>.jsonl)"},
		}, rangeFlags()...),
		Action: func(c *cli.Context) error {
			output, err := ops.ExportPlan(c.Context, d, ops.ExportPlanInput{
				Start: c.String("start"),
				End:   c.String("end"),
				Path:  c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func importCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load a JSONL library manifest",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			output, err := ops.ImportAssets(c.Context, d, ops.ImportInput{
				Path: c.Args().Get(0),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func statusCmd(d *ops.Deps) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show store status",
		Action: func(c *cli.Context) error {
			output, err := ops.Status(c.Context, d)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return outputError(errors.NewInvalidRequest(
			fmt.Sprintf("usage: dayreel %s %s", c.Command.Name, c.Command.ArgsUsage)))
	}
	return nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var dErr *errors.DayreelError
	if stderrors.As(err, &dErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
