// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
)

// Constants of the reward ledger.
var (
	// Precision scales the accumulated reward per share.
	Precision = big.NewInt(1e12)
	// MaxRate is the largest emission rate per second a program accepts (2^128-1).
	MaxRate = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	// Ether is one whole unit of an 18-decimals asset.
	Ether = big.NewInt(1e18)
)

// Gas costs charged by storage access. A hook runs under a limited budget of them.
const (
	SloadGas       uint64 = 200
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	EventGas       uint64 = 375

	// HookGasLimit is the default effort budget of a single rewarder hook call.
	HookGasLimit uint64 = 200000
)
