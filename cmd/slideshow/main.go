// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command slideshow shows a directory of raw RGB565 frames on an ILI9341 panel
// and advances to the next one whenever the board is shaken.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relabs-tech/shake_slideshow/internal/app"
	"github.com/relabs-tech/shake_slideshow/internal/config"
)

const (
	flagConfig = "config"
	flagDebug  = "debug"
	flagJSON   = "json"
)

func main() {
	var (
		cfg    *config.Config
		logger *zap.SugaredLogger
	)

	cliApp := &cli.App{
		Name:  "slideshow",
		Usage: "shake-to-advance picture frame",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Value:   "./slideshow_config.txt",
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging, overrides LOG_LEVEL",
			},
		},
		Before: func(c *cli.Context) error {
			if err := config.InitGlobal(c.String(flagConfig)); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = config.Get()

			level := cfg.LogLevel
			if c.Bool(flagDebug) {
				level = "debug"
			}
			l, err := newLogger(level)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return app.RunSlideshow(c.Context, cfg, logger)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "calibrate, then run the slideshow until interrupted (default)",
				Action: func(c *cli.Context) error {
					return app.RunSlideshow(c.Context, cfg, logger)
				},
			},
			{
				Name:  "calibrate",
				Usage: "measure the accelerometer bias and print it as JSON",
				Action: func(c *cli.Context) error {
					return app.RunCalibration(c.Context, cfg, c.App.Writer, logger)
				},
			},
			{
				Name:  "registers",
				Usage: "dump the MPU-6050 registers",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: flagJSON, Usage: "print JSON instead of a table"},
				},
				Action: func(c *cli.Context) error {
					return app.RunRegisterDump(cfg, c.App.Writer, c.Bool(flagJSON), logger)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatalf("fatal: %v", err)
	}
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.Sugar(), nil
}
