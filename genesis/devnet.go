// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakeledger/ledger"
)

// DevAccount account for development.
type DevAccount struct {
	Address    ledger.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for development mode.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{ledger.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet create genesis for development mode: a staked asset STK with its escrow,
// a reward asset RWD, and one program owned by the first dev account emitting
// 0.01 RWD per second over 30 days, with a multiplier rewarder paying half as much BONUS.
func NewDevnet() *Genesis {
	supply := NewHexOrDecimal256("1000000000000000000000000")

	var mints []Mint
	for _, a := range DevAccounts() {
		mints = append(mints, Mint{To: a.Address, Amount: supply})
	}
	rate := NewHexOrDecimal256("10000000000000000")
	half := NewHexOrDecimal256("500000000000000000")

	gen, err := NewCustomNet(&CustomGenesis{
		Name: "devnet",
		Assets: []Asset{
			{Symbol: "STK", Mints: mints},
			{Symbol: "RWD", Mints: mints},
			{Symbol: "BONUS"},
		},
		Escrows: []Escrow{{Asset: "STK", Name: "Staked STK"}},
		Rewarders: []Rewarder{
			{Name: "bonus", Token: "BONUS", Multiplier: half, Fund: supply},
		},
		Programs: []Program{{
			Owner:       DevAccounts()[0].Address,
			RewardAsset: "RWD",
			Pools:       []Pool{{Asset: "STK", Weight: 1000, Rewarder: "bonus"}},
			Schedule:    &Schedule{RatePerSecond: rate, Duration: 30 * 24 * 3600},
		}},
	})
	if err != nil {
		panic(err)
	}
	return gen
}
