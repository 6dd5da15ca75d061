// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial ledger: assets, escrows, programs and the
// rewarders their pools call.
package genesis

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/runtime"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis to build the initial ledger.
type Genesis struct {
	builder   *Builder
	rewarders []*rewarderDef
	name      string
}

type rewarderDef struct {
	address    ledger.Address
	token      ledger.Address
	multiplier *big.Int
	script     string
}

// AssetAddress returns the address of the asset named symbol.
func AssetAddress(symbol string) ledger.Address {
	return ledger.CreateAddress("token", []byte(symbol))
}

// RewarderAddress returns the address of the rewarder named name.
func RewarderAddress(name string) ledger.Address {
	return ledger.CreateAddress("rewarder", []byte(name))
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

// Apply builds the initial ledger on exec. A ledger already built is left untouched
// and a nil receipt is returned.
func (g *Genesis) Apply(exec *runtime.Executor) (*runtime.Receipt, error) {
	if seq := exec.Seq(); seq > 0 {
		logger.Debug("ledger already initialized", "genesis", g.name, "seq", seq)
		return nil, nil
	}
	receipt, err := g.builder.Build(exec)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s genesis", g.name)
	}
	logger.Info("genesis applied", "genesis", g.name, "events", len(receipt.Events))
	return receipt, nil
}

// RegisterRewarders registers every rewarder of the genesis in hooks. It must run
// before Apply, and on every start since registrations are not persisted.
func (g *Genesis) RegisterRewarders(hooks *hook.Registry, scriptTimeout time.Duration) error {
	for _, def := range g.rewarders {
		rw, err := def.build(scriptTimeout)
		if err != nil {
			return err
		}
		hooks.Register(def.address, rw)
	}
	return nil
}

func (def *rewarderDef) build(scriptTimeout time.Duration) (hook.Rewarder, error) {
	if def.script != "" {
		return hook.NewScript(def.address, def.token, def.script, scriptTimeout)
	}
	return &hook.Multiplier{Address: def.address, Token: def.token, Multiplier: def.multiplier}, nil
}
