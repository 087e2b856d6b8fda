// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/BunsDev/avalanche-teleporter/log"
)

func initLogger(ctx *cli.Context) {
	var level slog.Level
	switch ctx.GlobalInt(verbosityFlag.Name) {
	case 0:
		level = log.LevelCrit
	case 1:
		level = log.LevelError
	case 2:
		level = log.LevelInfo
	case 3:
		level = log.LevelDebug
	default:
		level = log.LevelTrace
	}
	verbosity := &slog.LevelVar{}
	verbosity.Set(level)

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, verbosity)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, verbosity, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

// checkClockOffset warns when the local clock drifts from NTP time. Expiry
// windows are wall-clock comparisons, so drift silently shifts them.
func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP server", "error", err)
		return
	}
	if resp.ClockOffset > time.Second || resp.ClockOffset < -time.Second {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset.String())
	}
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
