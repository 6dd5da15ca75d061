// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package programs

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/program"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/xenv"
)

// Caller is the address updates submitted through the API execute as.
var Caller = ledger.BytesToAddress([]byte("API"))

type Programs struct {
	exec *runtime.Executor
}

func New(exec *runtime.Executor) *Programs {
	return &Programs{exec}
}

// view runs fn against the program at the path variable, 404 if it is not registered.
func (p *Programs) view(req *http.Request, fn func(prog *program.Program, env *xenv.Environment) error) error {
	addr, err := restutil.AddressVar(req, "program")
	if err != nil {
		return err
	}
	return p.exec.Call(func(env *xenv.Environment) error {
		natives := p.exec.Natives()
		ok, err := natives.Registry(env).IsValidProgram(addr)
		if err != nil {
			return err
		}
		if !ok {
			return restutil.NotFound(errors.New("program not found"))
		}
		return fn(natives.Program(addr, env), env)
	})
}

func summarize(prog *program.Program) (*Program, error) {
	owner, err := prog.Owner()
	if err != nil {
		return nil, err
	}
	asset, err := prog.RewardAsset()
	if err != nil {
		return nil, err
	}
	n, err := prog.PoolLength()
	if err != nil {
		return nil, err
	}
	weight, err := prog.TotalAllocWeight()
	if err != nil {
		return nil, err
	}
	sched, err := prog.Schedule()
	if err != nil {
		return nil, err
	}
	return &Program{
		Address:          prog.Address(),
		Owner:            owner,
		RewardAsset:      asset,
		PoolLength:       n,
		TotalAllocWeight: weight,
		Schedule:         convertSchedule(sched),
	}, nil
}

func (p *Programs) handleListPrograms(w http.ResponseWriter, _ *http.Request) error {
	var list []*Program
	err := p.exec.Call(func(env *xenv.Environment) error {
		natives := p.exec.Natives()
		addrs, err := natives.Registry(env).Programs()
		if err != nil {
			return err
		}
		list = make([]*Program, 0, len(addrs))
		for _, addr := range addrs {
			s, err := summarize(natives.Program(addr, env))
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (p *Programs) handleGetProgram(w http.ResponseWriter, req *http.Request) error {
	var s *Program
	err := p.view(req, func(prog *program.Program, _ *xenv.Environment) (err error) {
		s, err = summarize(prog)
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, s)
}

func (p *Programs) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pid, err := restutil.Uint64Var(req, "pid")
	if err != nil {
		return err
	}
	var pl *Pool
	err = p.view(req, func(prog *program.Program, _ *xenv.Environment) error {
		info, err := prog.PoolInfo(pid)
		if err != nil {
			return err
		}
		pl = convertPool(pid, info)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, pl)
}

func (p *Programs) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	pid, err := restutil.Uint64Var(req, "pid")
	if err != nil {
		return err
	}
	user, err := restutil.AddressVar(req, "user")
	if err != nil {
		return err
	}
	var pos *Position
	err = p.view(req, func(prog *program.Program, _ *xenv.Environment) error {
		info, err := prog.UserInfo(pid, user)
		if err != nil {
			return err
		}
		pending, err := prog.PendingReward(pid, user)
		if err != nil {
			return err
		}
		pos = convertPosition(info, pending)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, pos)
}

// update executes fn on the program at the path variable as a committed operation.
func (p *Programs) update(w http.ResponseWriter, req *http.Request, op string, fn func(prog *program.Program) error) error {
	addr, err := restutil.AddressVar(req, "program")
	if err != nil {
		return err
	}
	receipt, err := p.exec.Execute(Caller, op, func(env *xenv.Environment) error {
		natives := p.exec.Natives()
		ok, err := natives.Registry(env).IsValidProgram(addr)
		if err != nil {
			return err
		}
		if !ok {
			return restutil.NotFound(errors.New("program not found"))
		}
		return fn(natives.Program(addr, env))
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Receipt{
		Seq:    receipt.Seq,
		Time:   receipt.Time,
		Events: receipt.Events,
	})
}

func (p *Programs) handleUpdatePool(w http.ResponseWriter, req *http.Request) error {
	pid, err := restutil.Uint64Var(req, "pid")
	if err != nil {
		return err
	}
	return p.update(w, req, "updatePool", func(prog *program.Program) error {
		_, err := prog.UpdatePool(pid)
		return err
	})
}

func (p *Programs) handleMassUpdate(w http.ResponseWriter, req *http.Request) error {
	return p.update(w, req, "massUpdatePools", func(prog *program.Program) error {
		return prog.MassUpdateAllPools()
	})
}

func (p *Programs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /programs").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleListPrograms))
	sub.Path("/{program}").
		Methods(http.MethodGet).
		Name("GET /programs/{program}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetProgram))
	sub.Path("/{program}/update").
		Methods(http.MethodPost).
		Name("POST /programs/{program}/update").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleMassUpdate))
	sub.Path("/{program}/pools/{pid}").
		Methods(http.MethodGet).
		Name("GET /programs/{program}/pools/{pid}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{program}/pools/{pid}/update").
		Methods(http.MethodPost).
		Name("POST /programs/{program}/pools/{pid}/update").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleUpdatePool))
	sub.Path("/{program}/pools/{pid}/users/{user}").
		Methods(http.MethodGet).
		Name("GET /programs/{program}/pools/{pid}/users/{user}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPosition))
}
