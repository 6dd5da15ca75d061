// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/keeper"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

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
		Name:      "stakeledger",
		Usage:     "Staking escrow and reward program ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			keeperSpecFlag,
			hookGasLimitFlag,
			hookTimeoutFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}

	inMemory := ctx.String(genesisFlag.Name) == "" && !ctx.Bool(persistFlag.Name)
	instanceDir := "Memory"
	if !inMemory {
		if instanceDir, err = makeInstanceDir(ctx.String(dataDirFlag.Name), gene); err != nil {
			return err
		}
	}

	mainDB, err := openMainDB(instanceDir, inMemory)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	logDB, err := openLogDB(instanceDir, inMemory)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	hooks := hook.NewRegistry(ctx.Uint64(hookGasLimitFlag.Name))
	if err := gene.RegisterRewarders(hooks, ctx.Duration(hookTimeoutFlag.Name)); err != nil {
		return errors.WithMessage(err, "register rewarders")
	}

	exec, err := runtime.New(mainDB, builtin.NewNatives(hooks), runtime.WithLogDB(logDB))
	if err != nil {
		return err
	}
	if _, err := gene.Apply(exec); err != nil {
		return err
	}

	if spec := ctx.String(keeperSpecFlag.Name); spec != "" {
		k, err := keeper.New(exec, spec)
		if err != nil {
			return err
		}
		k.Start()
		defer k.Stop()
	}

	apiHandler, apiCloser := api.New(exec, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      ctx.Bool(enableAPILogsFlag.Name),
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
	})
	defer func() { logger.Info("closing API..."); apiCloser() }()

	apiURL, srvCloser, err := startAPIServer(
		ctx.String(apiAddrFlag.Name),
		apiHandler,
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		metricsURL = url
	}

	printStartupMessage(gene, exec, instanceDir, apiURL, metricsURL)

	<-exitSignal.Done()
	return nil
}
