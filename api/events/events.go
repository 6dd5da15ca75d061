// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/runtime"
)

type Events struct {
	exec  *runtime.Executor
	limit uint64
}

func New(exec *runtime.Executor, logsLimit uint64) *Events {
	return &Events{
		exec,
		logsLimit,
	}
}

// ParseFilter builds an event filter from the query parameters address, name, from, to and order.
func ParseFilter(req *http.Request) (*logdb.EventFilter, error) {
	query := req.URL.Query()
	filter := &logdb.EventFilter{}

	criteria := &logdb.EventCriteria{Name: query.Get("name")}
	if s := query.Get("address"); s != "" {
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, restutil.BadRequest(errors.WithMessage(err, "address"))
		}
		criteria.Address = &addr
	}
	if criteria.Address != nil || criteria.Name != "" {
		filter.CriteriaSet = []*logdb.EventCriteria{criteria}
	}

	from, err := restutil.Uint64Query(req, "from", 0)
	if err != nil {
		return nil, err
	}
	to, err := restutil.Uint64Query(req, "to", 0)
	if err != nil {
		return nil, err
	}
	if to > 0 && from > to {
		return nil, restutil.BadRequest(errors.New("to must be greater than or equal to from"))
	}
	if from > 0 || to > 0 {
		filter.Range = &logdb.Range{From: from, To: to}
	}

	switch order := logdb.Order(query.Get("order")); order {
	case "", logdb.ASC, logdb.DESC:
		filter.Order = order
	default:
		return nil, restutil.BadRequest(fmt.Errorf("order: unsupported %q", order))
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := ParseFilter(req)
	if err != nil {
		return err
	}
	offset, err := restutil.Uint64Query(req, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := restutil.Uint64Query(req, "limit", 0)
	if err != nil {
		return err
	}
	if limit > e.limit {
		return restutil.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	if limit == 0 {
		// one more than allowed, to detect an oversized result
		limit = e.limit + 1
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}

	events, err := e.exec.Events(req.Context(), filter)
	if err != nil {
		return err
	}
	if uint64(len(events)) > e.limit {
		return restutil.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	if events == nil {
		events = []*logdb.Event{}
	}
	return restutil.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
