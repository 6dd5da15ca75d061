// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Notifier broadcasts a monotonically increasing sequence number to any number of waiters.
// Waiters never miss an advance: a waiter created at seq n fires as soon as seq > n.
type Notifier struct {
	mu  sync.Mutex
	seq uint64
	ch  chan struct{}
}

func (n *Notifier) init() {
	if n.ch == nil {
		n.ch = make(chan struct{})
	}
}

// Notify advances the sequence to seq and wakes all waiters. Lower values are ignored.
func (n *Notifier) Notify(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.init()
	if seq <= n.seq {
		return
	}
	n.seq = seq
	close(n.ch)
	n.ch = make(chan struct{})
}

// Seq returns the latest notified sequence.
func (n *Notifier) Seq() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

// Wait returns a channel closed once the sequence moves past after.
func (n *Notifier) Wait(after uint64) <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.init()
	if n.seq > after {
		done := make(chan struct{})
		close(done)
		return done
	}
	return n.ch
}
