// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrows

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/xenv"
)

type Escrow struct {
	Address     ledger.Address        `json:"address"`
	StakedAsset ledger.Address        `json:"stakedAsset"`
	Name        string                `json:"name"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// Membership is the account's position in one joined program.
type Membership struct {
	Program ledger.Address        `json:"program"`
	PoolID  uint64                `json:"poolId"`
	Pending *math.HexOrDecimal256 `json:"pending"`
}

type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	Joined  []*Membership         `json:"joined"`
}

type Escrows struct {
	exec *runtime.Executor
}

func New(exec *runtime.Executor) *Escrows {
	return &Escrows{exec}
}

func describe(e *escrow.Escrow) (*Escrow, error) {
	asset, err := e.StakedAsset()
	if err != nil {
		return nil, err
	}
	name, err := e.Name()
	if err != nil {
		return nil, err
	}
	supply, err := e.TotalSupply()
	if err != nil {
		return nil, err
	}
	return &Escrow{
		Address:     e.Address(),
		StakedAsset: asset,
		Name:        name,
		TotalSupply: (*math.HexOrDecimal256)(supply),
	}, nil
}

func (e *Escrows) handleListEscrows(w http.ResponseWriter, _ *http.Request) error {
	var list []*Escrow
	err := e.exec.Call(func(env *xenv.Environment) error {
		natives := e.exec.Natives()
		addrs, err := natives.Registry(env).Escrows()
		if err != nil {
			return err
		}
		list = make([]*Escrow, 0, len(addrs))
		for _, addr := range addrs {
			d, err := describe(natives.Escrow(addr, env))
			if err != nil {
				return err
			}
			list = append(list, d)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (e *Escrows) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := restutil.AddressVar(req, "escrow")
	if err != nil {
		return err
	}
	user, err := restutil.AddressVar(req, "user")
	if err != nil {
		return err
	}

	var acc *Account
	err = e.exec.Call(func(env *xenv.Environment) error {
		natives := e.exec.Natives()
		reg := natives.Registry(env)
		ok, err := reg.IsValidEscrow(addr)
		if err != nil {
			return err
		}
		if !ok {
			return restutil.NotFound(errors.New("escrow not found"))
		}

		esc := natives.Escrow(addr, env)
		balance, err := esc.BalanceOf(user)
		if err != nil {
			return err
		}
		progs, err := esc.JoinedPrograms(user)
		if err != nil {
			return err
		}
		acc = &Account{
			Balance: (*math.HexOrDecimal256)(balance),
			Joined:  make([]*Membership, 0, len(progs)),
		}
		for _, prog := range progs {
			pid, ok, err := reg.PoolOf(addr, prog)
			if err != nil {
				return err
			}
			pending := new(big.Int)
			if ok {
				if pending, err = natives.Program(prog, env).PendingReward(pid, user); err != nil {
					return err
				}
			}
			acc.Joined = append(acc.Joined, &Membership{
				Program: prog,
				PoolID:  pid,
				Pending: (*math.HexOrDecimal256)(pending),
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, acc)
}

func (e *Escrows) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /escrows").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleListEscrows))
	sub.Path("/{escrow}/accounts/{user}").
		Methods(http.MethodGet).
		Name("GET /escrows/{escrow}/accounts/{user}").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleGetAccount))
}
