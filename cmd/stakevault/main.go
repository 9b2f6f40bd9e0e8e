// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakevault/api"
	"github.com/vechain/stakevault/clock"
	"github.com/vechain/stakevault/cmd/stakevault/httpserver"
	"github.com/vechain/stakevault/genesis"
	"github.com/vechain/stakevault/health"
	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/metrics"
	"github.com/vechain/stakevault/state"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

// prefixes of the main database
const (
	stateBucket = kv.Bucket("s")
	metaBucket  = kv.Bucket("m")
)

// cooldowns are wall-clock gated, an offset above this marks the node unhealthy
const maxClockOffset = 30 * time.Second

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
		Name:      "StakeVault",
		Usage:     "Node of a time-locked yield-bearing staking vault",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			verbosityFlag,
			logFormatFlag,
			pprofFlag,
			skipLogsFlag,
			ntpCheckFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "client for test & dev, with a prefunded devnet ledger",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiLogsLimitFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					apiLog5xxErrorsFlag,
					verbosityFlag,
					logFormatFlag,
					pprofFlag,
					skipLogsFlag,
					persistFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	gen, err := loadGenesis(ctx)
	if err != nil {
		return err
	}
	id, err := gen.ID()
	if err != nil {
		return err
	}
	instanceDir, err := makeInstanceDir(ctx, id)
	if err != nil {
		return err
	}

	mainDB, err := openMainDB(ctx, instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	logDB, err := openLogDB(instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	return run(exitSignal, ctx, &node{
		genesis:     gen,
		mainDB:      mainDB,
		logDB:       logDB,
		instanceDir: instanceDir,
		logLevel:    logLevel,
		ntpCheck:    ctx.Bool(ntpCheckFlag.Name),
	})
}

func soloAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	gen := genesis.NewDevnet()

	var (
		mainDB      *lvldb.LevelDB
		logDB       *logdb.LogDB
		instanceDir string
	)
	if ctx.Bool(persistFlag.Name) {
		id, err := gen.ID()
		if err != nil {
			return err
		}
		if instanceDir, err = makeInstanceDir(ctx, id); err != nil {
			return err
		}
		if mainDB, err = openMainDB(ctx, instanceDir); err != nil {
			return err
		}
		if logDB, err = openLogDB(instanceDir); err != nil {
			mainDB.Close()
			return err
		}
	} else {
		instanceDir = "Memory"
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			mainDB.Close()
			return err
		}
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	return run(exitSignal, ctx, &node{
		genesis:     gen,
		mainDB:      mainDB,
		logDB:       logDB,
		instanceDir: instanceDir,
		logLevel:    logLevel,
		solo:        true,
	})
}

type node struct {
	genesis     *genesis.Genesis
	mainDB      *lvldb.LevelDB
	logDB       *logdb.LogDB
	instanceDir string
	logLevel    *slog.LevelVar
	solo        bool
	ntpCheck    bool
}

// run serves the ledger until exitSignal is done or a service fails.
func run(exitSignal context.Context, ctx *cli.Context, n *node) error {
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	st := state.New(stateBucket.NewStore(n.mainDB))
	defer st.Close()

	ledger, err := n.genesis.Setup(exitSignal, st, metaBucket.NewStore(n.mainDB), clock.System{})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(exitSignal)

	skipLogs := ctx.Bool(skipLogsFlag.Name)
	if !skipLogs {
		writer := n.logDB.NewWriter(st)
		group.Go(func() error { return writer.Run(groupCtx) })
	}

	h := health.New(maxClockOffset)
	group.Go(func() error {
		h.Follow(groupCtx, st)
		return nil
	})
	if n.ntpCheck {
		group.Go(func() error {
			followClockOffset(groupCtx, h)
			return nil
		})
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler, closeAPI := api.New(st, ledger.Vault, ledger.Registry, n.logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		SkipLogs:             skipLogs,
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	})
	defer func() { logger.Info("closing subscriptions..."); closeAPI() }()

	apiURL, stopAPI, err := httpserver.StartAPIServer(
		ctx.String(apiAddrFlag.Name),
		handler,
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		url, stop, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stop() }()
		logger.Info("metrics server started", "url", url)
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, stop, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), n.logLevel, apiLogs, h)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); stop() }()
		logger.Info("admin server started", "url", url)
	}

	if n.solo {
		printSoloStartupMessage(ledger, n.instanceDir, apiURL)
	} else {
		printStartupMessage(ledger, n.genesis, n.instanceDir, apiURL)
	}

	<-groupCtx.Done()
	return group.Wait()
}
