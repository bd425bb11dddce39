package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"wmstatus/internal/agent"
	"wmstatus/internal/agent/version"
	"wmstatus/internal/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wmstatus: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "wmstatus",
		Usage:   "render host metrics into a window manager status line",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   config.DefaultPath(),
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before WMSTATUS_* overrides are read",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "publish a single line, print it and exit",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if _, err := config.LoadEnvFile(c.String("env-file"), c.IsSet("env-file")); err != nil {
		return err
	}

	path, err := configPath(c.String("config"), c.IsSet("config"))
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := agent.BuildLogger(cfg, os.Stderr)
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}

	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("agent initialization failed", "error", err)
		return err
	}

	if c.Bool("once") {
		line, err := a.Once(c.Context)
		if err != nil {
			logger.Error("status publish failed", "error", err)
			return err
		}
		// the stdout sink already printed it
		if cfg.Sink.Mode == config.SinkModeStdout {
			return nil
		}
		return echo(c.App.Writer, line)
	}

	if err := a.Run(c.Context); err != nil {
		logger.Error("agent runtime failed", "error", err)
		return err
	}
	return nil
}

// configPath returns "" when the default config file does not exist, so a
// fresh install runs on defaults and environment alone.
func configPath(path string, explicit bool) (string, error) {
	if path == "" || explicit {
		return path, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat config file: %w", err)
	}
	return path, nil
}

func echo(w io.Writer, line string) error {
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
