// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/xenv"
)

// Builder helper to build the initial ledger.
type Builder struct {
	calls []call
}

type call struct {
	name   string
	caller ledger.Address
	fn     func(natives *builtin.Natives, env *xenv.Environment) error
}

// Call adds a call made by caller.
func (b *Builder) Call(name string, caller ledger.Address, fn func(natives *builtin.Natives, env *xenv.Environment) error) *Builder {
	b.calls = append(b.calls, call{name, caller, fn})
	return b
}

// Build runs all calls as the first operation of exec. Either every call applies or none.
func (b *Builder) Build(exec *runtime.Executor) (*runtime.Receipt, error) {
	if seq := exec.Seq(); seq != 0 {
		return nil, errors.Errorf("ledger not empty, at operation %d", seq)
	}
	natives := exec.Natives()
	return exec.Execute(ledger.Address{}, "genesis", func(env *xenv.Environment) error {
		for i, c := range b.calls {
			if err := c.fn(natives, env.WithCaller(c.caller)); err != nil {
				return errors.WithMessagef(err, "call #%d %s", i, c.name)
			}
		}
		return nil
	})
}
