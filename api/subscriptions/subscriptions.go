// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

type Subscriptions struct {
	exec      *runtime.Executor
	upgrader  *websocket.Upgrader
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func New(exec *runtime.Executor, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		exec: exec,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleSubjectEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := events.ParseFilter(req)
	if err != nil {
		return err
	}
	best := s.exec.Seq()
	pos, err := restutil.Uint64Query(req, "pos", best)
	if err != nil {
		return err
	}
	if pos > best {
		return restutil.BadRequest(errors.New("pos: beyond the latest operation"))
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	if err := s.pipe(req.Context(), conn, filter, pos); err != nil {
		logger.Debug("subscription closed", "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	return nil
}

// pipe streams the events matching filter committed after pos, until the peer or the server goes away.
func (s *Subscriptions) pipe(ctx context.Context, conn *websocket.Conn, filter *logdb.EventFilter, pos uint64) error {
	closed := make(chan struct{})
	// the reader loop detects peer close and keeps pongs flowing
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		seq := s.exec.Seq()
		if seq > pos {
			filter.AfterSeq = pos
			evs, err := s.exec.Events(ctx, filter)
			if err != nil {
				return err
			}
			for _, ev := range evs {
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return err
				}
				if err := conn.WriteJSON(ev); err != nil {
					return err
				}
				if ev.OpSeq > seq {
					seq = ev.OpSeq
				}
			}
			pos = seq
		}

		select {
		case <-s.exec.Wait(pos):
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closing")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return nil
		}
	}
}

// Close ends all open subscriptions and waits for them to return.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSubjectEvents))
}
