// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package keeper periodically advances the pool accumulators of every registered program,
// so that reads between user operations stay cheap.
package keeper

import (
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "keeper")

	metricRuns = metrics.LazyLoadCounterVec("keeper_updates_count", []string{"result"})

	// Address is the caller of keeper operations.
	Address = ledger.BytesToAddress([]byte("Keeper"))
)

// DefaultSpec runs the keeper every minute.
const DefaultSpec = "0 * * * * *"

// Keeper runs MassUpdateAllPools on every program on a cron schedule.
type Keeper struct {
	cron *cron.Cron
	exec *runtime.Executor
}

// New creates a keeper firing on spec, a cron expression with a seconds field.
func New(exec *runtime.Executor, spec string) (*Keeper, error) {
	k := &Keeper{
		cron: cron.New(cron.WithSeconds()),
		exec: exec,
	}
	if _, err := k.cron.AddFunc(spec, func() { k.Run() }); err != nil {
		return nil, errors.Wrapf(err, "register keeper job %q", spec)
	}
	return k, nil
}

func (k *Keeper) Start() {
	k.cron.Start()
	logger.Info("keeper started")
}

// Stop stops the schedule and waits for a running job to finish.
func (k *Keeper) Stop() {
	<-k.cron.Stop().Done()
	logger.Info("keeper stopped")
}

// Run updates every registered program, one operation each, and returns how many succeeded.
// A failing program does not stop the others.
func (k *Keeper) Run() int {
	var programs []ledger.Address
	if err := k.exec.Call(func(env *xenv.Environment) (err error) {
		programs, err = k.exec.Natives().Registry(env).Programs()
		return
	}); err != nil {
		logger.Error("failed to list programs", "error", err)
		return 0
	}

	updated := 0
	for _, addr := range programs {
		if _, err := k.UpdateProgram(addr); err != nil {
			metricRuns().AddWithLabel(1, map[string]string{"result": "error"})
			logger.Warn("failed to update program", "program", addr, "error", err)
			continue
		}
		metricRuns().AddWithLabel(1, map[string]string{"result": "ok"})
		updated++
	}
	logger.Debug("keeper run done", "programs", len(programs), "updated", updated)
	return updated
}

// UpdateProgram advances every pool of the program at addr.
func (k *Keeper) UpdateProgram(addr ledger.Address) (*runtime.Receipt, error) {
	return k.exec.Execute(Address, "massUpdatePools", func(env *xenv.Environment) error {
		return k.exec.Natives().Program(addr, env).MassUpdateAllPools()
	})
}
