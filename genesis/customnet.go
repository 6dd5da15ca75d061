// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/hook"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

// Load reads a custom genesis from the yaml file at path.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gen CustomGenesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return NewCustomNet(&gen)
}

// NewCustomNet create custom genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	name := gen.Name
	if name == "" {
		name = "customnet"
	}
	builder := new(Builder)

	assets := make(map[string]bool)
	for _, a := range gen.Assets {
		if a.Symbol == "" {
			return nil, errors.New("asset symbol must be set")
		}
		if assets[a.Symbol] {
			return nil, fmt.Errorf("%s: duplicate asset", a.Symbol)
		}
		assets[a.Symbol] = true

		addr := AssetAddress(a.Symbol)
		mints := a.Mints
		for _, m := range mints {
			if m.Amount == nil || m.Amount.Int().Sign() < 1 {
				return nil, fmt.Errorf("%s: mint to %v must be a non-zero integer", a.Symbol, m.To)
			}
		}
		symbol := a.Symbol
		builder.Call("asset "+symbol, ledger.Address{}, func(n *builtin.Natives, env *xenv.Environment) error {
			tok := n.Token(addr, env)
			if err := tok.SetSymbol(symbol); err != nil {
				return err
			}
			for _, m := range mints {
				if err := tok.Mint(m.To, m.Amount.Int()); err != nil {
					return err
				}
			}
			return nil
		})
	}

	escrows := make(map[string]bool)
	for _, e := range gen.Escrows {
		if !assets[e.Asset] {
			return nil, fmt.Errorf("escrow %q: unknown asset %q", e.Name, e.Asset)
		}
		if escrows[e.Asset] {
			return nil, fmt.Errorf("%s: duplicate escrow", e.Asset)
		}
		escrows[e.Asset] = true

		asset, escrowName := AssetAddress(e.Asset), e.Name
		if escrowName == "" {
			escrowName = "Staked " + e.Asset
		}
		builder.Call("escrow "+e.Asset, ledger.Address{}, func(n *builtin.Natives, env *xenv.Environment) error {
			_, err := n.CreateEscrow(env, asset, escrowName)
			return err
		})
	}

	var defs []*rewarderDef
	rewarders := make(map[string]ledger.Address)
	for _, r := range gen.Rewarders {
		def, err := newRewarderDef(&r, assets)
		if err != nil {
			return nil, err
		}
		if _, ok := rewarders[r.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate rewarder", r.Name)
		}
		rewarders[r.Name] = def.address
		defs = append(defs, def)

		if fund := r.Fund.Int(); fund != nil && fund.Sign() > 0 {
			builder.Call("fund "+r.Name, ledger.Address{}, func(n *builtin.Natives, env *xenv.Environment) error {
				return n.Token(def.token, env).Mint(def.address, fund)
			})
		}
	}

	for i, p := range gen.Programs {
		if p.Owner.IsZero() {
			return nil, fmt.Errorf("program #%d: owner must be set", i)
		}
		if !assets[p.RewardAsset] {
			return nil, fmt.Errorf("program #%d: unknown reward asset %q", i, p.RewardAsset)
		}
		pools := p.Pools
		for _, pl := range pools {
			if !escrows[pl.Asset] {
				return nil, fmt.Errorf("program #%d: asset %q has no escrow", i, pl.Asset)
			}
			if _, ok := rewarders[pl.Rewarder]; pl.Rewarder != "" && !ok {
				return nil, fmt.Errorf("program #%d: unknown rewarder %q", i, pl.Rewarder)
			}
		}
		var rate *big.Int
		var duration uint64
		if p.Schedule != nil {
			rate, duration = p.Schedule.RatePerSecond.Int(), p.Schedule.Duration
			if rate == nil || rate.Sign() < 1 || duration == 0 {
				return nil, fmt.Errorf("program #%d: schedule needs a non-zero rate and duration", i)
			}
		}

		owner, reward := p.Owner, AssetAddress(p.RewardAsset)
		builder.Call(fmt.Sprintf("program #%d", i), owner, func(n *builtin.Natives, env *xenv.Environment) error {
			addr, err := n.CreateProgram(env, reward)
			if err != nil {
				return err
			}
			prog := n.Program(addr, env)
			for _, pl := range pools {
				if _, err := prog.AddPool(pl.Weight, AssetAddress(pl.Asset), rewarders[pl.Rewarder]); err != nil {
					return err
				}
			}
			if rate == nil {
				return nil
			}
			funding := new(big.Int).Mul(rate, new(big.Int).SetUint64(duration))
			if err := n.Token(reward, env).Approve(owner, addr, funding); err != nil {
				return err
			}
			return prog.SetRatePerSecond(rate, env.Time()+duration)
		})
	}

	return &Genesis{builder: builder, rewarders: defs, name: name}, nil
}

func newRewarderDef(r *Rewarder, assets map[string]bool) (*rewarderDef, error) {
	if r.Name == "" {
		return nil, errors.New("rewarder name must be set")
	}
	if !assets[r.Token] {
		return nil, fmt.Errorf("rewarder %s: unknown token %q", r.Name, r.Token)
	}
	def := &rewarderDef{
		address:    RewarderAddress(r.Name),
		token:      AssetAddress(r.Token),
		multiplier: r.Multiplier.Int(),
		script:     r.Script,
	}
	switch {
	case def.script != "" && def.multiplier != nil:
		return nil, fmt.Errorf("rewarder %s: multiplier and script are exclusive", r.Name)
	case def.script != "":
		if _, err := hook.NewScript(def.address, def.token, def.script, 0); err != nil {
			return nil, errors.WithMessagef(err, "rewarder %s", r.Name)
		}
	case def.multiplier == nil || def.multiplier.Sign() < 1:
		return nil, fmt.Errorf("rewarder %s: multiplier must be a non-zero integer", r.Name)
	}
	return def, nil
}
