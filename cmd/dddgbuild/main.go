// Command dddgbuild reads a dynamic instruction trace and builds its
// initial dynamic data dependence graph, the way geth's cmd/geth wraps a
// single urfave/cli/v2 app around one or more Actions.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slog"

	"github.com/huangqiancun/ALADDIN/core/dddg"
	"github.com/huangqiancun/ALADDIN/log"
)

var (
	traceFlag = &cli.StringFlag{
		Name:     "trace",
		Aliases:  []string{"t"},
		Usage:    "path to the instruction trace (plain text or gzip)",
		Required: true,
	}
	readyModeFlag = &cli.BoolFlag{
		Name:  "ready-mode",
		Usage: "treat the datapath as already scheduled, skipping DMA-load address propagation",
	}
	progressFlag = &cli.StringFlag{
		Name:  "progress-file",
		Usage: "write periodic {bytes,nodes} progress rows to this path",
		Value: "dddg_parse_progress.out",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "write logs to this file instead of stderr, rotating every --log-rotate-hours",
	}
	logRotateFlag = &cli.UintFlag{
		Name:  "log-rotate-hours",
		Usage: "rotate --log-file this often, in hours (0 disables rotation)",
		Value: 24,
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "trace, debug, info, warn, error, or crit",
		Value: "info",
	}
)

var buildCommand = &cli.Command{
	Action:    build,
	Name:      "build",
	Usage:     "build the initial DDDG from a trace",
	ArgsUsage: " ",
	Flags: []cli.Flag{
		traceFlag,
		readyModeFlag,
		progressFlag,
		logFileFlag,
		logRotateFlag,
		logLevelFlag,
	},
	Description: `
Streams the trace named by --trace, reconstructing register, memory, and
control dependence edges into an in-memory program store, then prints a
summary of the resulting node and edge counts to stdout.`,
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unrecognized --log-level %q", name)
	}
}

func setupLogging(ctx *cli.Context) error {
	level, err := parseLevel(ctx.String(logLevelFlag.Name))
	if err != nil {
		return err
	}

	wr, useColor := log.DetectTerminal(os.Stderr)
	handler := log.NewTerminalHandler(wr, useColor)
	if lh, ok := handler.(interface{ SetLevel(slog.Level) }); ok {
		lh.SetLevel(level)
	}
	root := log.NewLogger(handler)

	if path := ctx.String(logFileFlag.Name); path != "" {
		fw := log.NewAsyncFileWriter(path, 1<<20, ctx.Uint(logRotateFlag.Name))
		if err := fw.Start(); err != nil {
			return fmt.Errorf("start log file: %w", err)
		}
		fileHandler := log.NewTerminalHandler(fw, false)
		if lh, ok := fileHandler.(interface{ SetLevel(slog.Level) }); ok {
			lh.SetLevel(level)
		}
		root = log.NewLogger(fileHandler)
	}

	log.SetDefault(root)
	return nil
}

func build(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	builder := dddg.NewNullBuilder()
	if nd, ok := builder.Datapath().(*dddg.NullDatapath); ok {
		nd.ReadyMode = ctx.Bool(readyModeFlag.Name)
	}

	offset, err := builder.BuildInitialDDDG(ctx.String(traceFlag.Name), ctx.String(progressFlag.Name))
	if err != nil {
		return err
	}
	if offset == dddg.EndOfTrace {
		log.Root().Warn("trace contained no instructions")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:     "dddgbuild",
		Usage:    "build a dynamic data dependence graph from an instruction trace",
		Commands: []*cli.Command{buildCommand},
		Action:   build,
		Flags:    buildCommand.Flags,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dddgbuild: %v\n", err)
		os.Exit(1)
	}
}
