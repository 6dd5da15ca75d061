// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/vechain/stakeledger/ledger"
)

func RandAddress() (addr ledger.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b ledger.Bytes32) {
	rand.Read(b[:])
	return
}

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

// Units returns n whole units of an 18-decimals asset.
func Units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ledger.Ether)
}
