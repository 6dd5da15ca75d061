// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hook

import (
	"math/big"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/xenv"
)

const defaultScriptTimeout = 100 * time.Millisecond

// Script is a user-defined rewarder written in JavaScript. The source must define
//
//	function onBalanceChange(change) { return "<payout>" }
//
// where change carries program, poolId, user, newAmount, recipient and reward (amounts as
// decimal strings). The returned payout, in base units of Token, is paid to the recipient
// out of the balance held at Address. balance() returns that balance as a decimal string.
type Script struct {
	Address ledger.Address
	Token   ledger.Address
	Timeout time.Duration

	program *goja.Program
}

// NewScript compiles source.
func NewScript(addr, tok ledger.Address, source string, timeout time.Duration) (*Script, error) {
	program, err := goja.Compile("rewarder", source, true)
	if err != nil {
		return nil, errors.Wrap(err, "compile rewarder script")
	}
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	return &Script{Address: addr, Token: tok, Timeout: timeout, program: program}, nil
}

func (s *Script) OnBalanceChange(env *xenv.Environment, change *BalanceChange) error {
	tok := token.New(s.Token, env)

	vm := goja.New()
	timer := time.AfterFunc(s.Timeout, func() {
		vm.Interrupt("rewarder script timeout")
	})
	defer timer.Stop()

	if err := vm.Set("balance", func() (string, error) {
		bal, err := tok.BalanceOf(s.Address)
		if err != nil {
			return "", err
		}
		return bal.String(), nil
	}); err != nil {
		return err
	}
	if _, err := vm.RunProgram(s.program); err != nil {
		return errors.Wrap(err, "run rewarder script")
	}
	fn, ok := goja.AssertFunction(vm.Get("onBalanceChange"))
	if !ok {
		return errors.New("rewarder script does not define onBalanceChange")
	}

	reward := change.Reward
	if reward == nil {
		reward = new(big.Int)
	}
	res, err := fn(goja.Undefined(), vm.ToValue(map[string]any{
		"program":   change.Program.String(),
		"poolId":    change.PoolID,
		"user":      change.User.String(),
		"newAmount": change.NewAmount.String(),
		"recipient": change.Recipient.String(),
		"reward":    reward.String(),
	}))
	if err != nil {
		return errors.Wrap(err, "call onBalanceChange")
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return nil
	}

	payout, ok := new(big.Int).SetString(res.String(), 10)
	if !ok || payout.Sign() < 0 {
		return errors.Errorf("invalid payout %q", res.String())
	}
	if payout.Sign() == 0 {
		return nil
	}
	if err := tok.Transfer(s.Address, change.Recipient, payout); err != nil {
		return err
	}
	return env.Log(s.Address, "RewarderPaid", &PaidEvent{
		PoolID:    change.PoolID,
		User:      change.User,
		Recipient: change.Recipient,
		Token:     s.Token,
		Amount:    payout,
	})
}
