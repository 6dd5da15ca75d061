// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/ledger"
)

// CustomGenesis is user customized genesis
type CustomGenesis struct {
	Name      string     `yaml:"name"`
	Assets    []Asset    `yaml:"assets"`
	Escrows   []Escrow   `yaml:"escrows"`
	Rewarders []Rewarder `yaml:"rewarders"`
	Programs  []Program  `yaml:"programs"`
}

// Asset is a fungible asset and its initial holders.
type Asset struct {
	Symbol string `yaml:"symbol"`
	Mints  []Mint `yaml:"mints"`
}

type Mint struct {
	To     ledger.Address   `yaml:"to"`
	Amount *HexOrDecimal256 `yaml:"amount"`
}

// Escrow is the custody of a declared asset.
type Escrow struct {
	Asset string `yaml:"asset"`
	Name  string `yaml:"name"`
}

// Rewarder is a secondary reward hook. Exactly one of Multiplier and Script is set.
type Rewarder struct {
	Name       string           `yaml:"name"`
	Token      string           `yaml:"token"`
	Multiplier *HexOrDecimal256 `yaml:"multiplier"`
	Script     string           `yaml:"script"`
	Fund       *HexOrDecimal256 `yaml:"fund"`
}

// Program is a reward program, its pools and optional first schedule.
// The owner funds the schedule and must hold rate * duration of the reward asset.
type Program struct {
	Owner       ledger.Address `yaml:"owner"`
	RewardAsset string         `yaml:"rewardAsset"`
	Pools       []Pool         `yaml:"pools"`
	Schedule    *Schedule      `yaml:"schedule"`
}

type Pool struct {
	Asset    string `yaml:"asset"`
	Weight   uint64 `yaml:"weight"`
	Rewarder string `yaml:"rewarder"`
}

type Schedule struct {
	RatePerSecond *HexOrDecimal256 `yaml:"ratePerSecond"`
	Duration      uint64           `yaml:"duration"`
}

// HexOrDecimal256 marshals big.Int as hex or decimal.
type HexOrDecimal256 math.HexOrDecimal256

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (i *HexOrDecimal256) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: integer expected", value.Line)
	}
	bigint, ok := math.ParseBig256(value.Value)
	if !ok {
		return fmt.Errorf("line %d: invalid hex or decimal integer %q", value.Line, value.Value)
	}
	*i = HexOrDecimal256(*bigint)
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (i HexOrDecimal256) MarshalYAML() (any, error) {
	return (*big.Int)(&i).String(), nil
}

// NewHexOrDecimal256 parses s, a hex or decimal integer. It panics on malformed input.
func NewHexOrDecimal256(s string) *HexOrDecimal256 {
	bigint, ok := math.ParseBig256(s)
	if !ok {
		panic(fmt.Sprintf("invalid hex or decimal integer %q", s))
	}
	return (*HexOrDecimal256)(bigint)
}

// Int returns the value, nil stays nil.
func (i *HexOrDecimal256) Int() *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(i))
}
