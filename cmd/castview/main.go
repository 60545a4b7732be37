// castview is a CLI utility for inspecting and exporting Cast model files.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/castview/internal/config"
	"github.com/Faultbox/castview/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	app := &app{cfg: cfg, out: os.Stdout}
	command, rest := args[0], args[1:]

	switch command {
	case "info":
		err = app.cmdInfo(rest)
	case "tree":
		err = app.cmdTree(rest)
	case "diff":
		err = app.cmdDiff(rest)
	case "list", "ls":
		err = app.cmdList(rest)
	case "export", "x":
		err = app.cmdExport(rest)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case errors.Is(err, errDiffers):
		logger.Sync()
		os.Exit(1)
	case err != nil:
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
