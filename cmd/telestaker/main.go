// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/BunsDev/avalanche-teleporter/api"
	"github.com/BunsDev/avalanche-teleporter/eventdb"
	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/log"
	"github.com/BunsDev/avalanche-teleporter/metrics"
	"github.com/BunsDev/avalanche-teleporter/staker"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/warp"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

const dbCacheSizeMB = 64

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Telestaker",
		Usage:     "Cross-chain validator staking manager",
		Copyright: "2025 The Avalanche Teleporter developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			metricsAddrFlag,
			verbosityFlag,
			jsonLogsFlag,
		},
		Action: serveAction,
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "run the manager with its API and metrics endpoints",
				Flags:  []cli.Flag{configFlag, dataDirFlag, apiAddrFlag, apiCorsFlag, metricsAddrFlag, verbosityFlag, jsonLogsFlag},
				Action: serveAction,
			},
			{
				Name:      "inspect",
				Usage:     "decode a hex-encoded cross-chain message",
				ArgsUsage: "<hex message>",
				Action:    inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveAction(ctx *cli.Context) error {
	initLogger(ctx)
	defer func() { logger.Info("exited") }()

	go checkClockOffset()

	cfg, err := staker.LoadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return err
	}

	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}

	store, err := kv.NewLevelDB(filepath.Join(dataDir, "main.db"), dbCacheSizeMB)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); store.Close() }()

	eventDB, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	mgr, err := staker.New(cfg, state.New(store), loopbackBus{}, nil)
	if err != nil {
		return err
	}

	collector := eventdb.NewCollector(eventDB, mgr)
	defer collector.Stop()

	exitCtx := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitCtx)

	apiSrv := &http.Server{
		Addr:              ctx.GlobalString(apiAddrFlag.Name),
		Handler:           api.New(mgr, eventDB, api.Options{AllowedOrigins: ctx.GlobalString(apiCorsFlag.Name)}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	group.Go(func() error {
		logger.Info("API server started", "addr", apiSrv.Addr)
		if err := apiSrv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if addr := ctx.GlobalString(metricsAddrFlag.Name); addr != "" {
		metrics.InitializePrometheusMetrics()
		metricsSrv = &http.Server{
			Addr:              addr,
			Handler:           metrics.HTTPHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			logger.Info("metrics server started", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		apiSrv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	printStartupMessage(cfg, apiSrv.Addr)
	return group.Wait()
}

func inspectAction(ctx *cli.Context) error {
	initLogger(ctx)

	arg := strings.TrimPrefix(ctx.Args().First(), "0x")
	if arg == "" {
		return fmt.Errorf("message argument required")
	}
	raw, err := hex.DecodeString(arg)
	if err != nil {
		return err
	}

	tag, err := warp.PeekType(raw)
	if err != nil {
		return err
	}
	id, info, err := warp.Unpack(tag, raw)
	if err != nil {
		return err
	}

	fmt.Printf(`Message:
    Type:         %v (%d)
    ValidationID: %v
    SubnetID:     %v
    NodeID:       %v
    Weight:       %d
    Expiry:       %v
    Signature:    0x%x
`,
		tag, uint32(tag), id, info.SubnetID, info.NodeID, info.Weight,
		time.Unix(int64(info.RegistrationExpiry), 0).UTC().Format(time.RFC3339), // #nosec G115
		info.Signature)
	return nil
}

func printStartupMessage(cfg *staker.Config, apiAddr string) {
	fmt.Printf(`Starting %v
    Version     %v
    Subnet      %v
    Stake range [%d, %d] weight
    Churn limit %d%%/hour
    API portal  http://%v
`,
		"Telestaker", fullVersion(), cfg.SubnetID,
		cfg.MinimumStakeWeight, cfg.MaximumStakeWeight, cfg.MaximumHourlyChurn,
		apiAddr)
}
