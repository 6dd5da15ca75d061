// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package test

import (
	"time"

	"github.com/pkg/errors"
)

// WaitFor polls cond every period until it holds, fails, or timeout elapses.
// Background jobs (keeper runs, subscription pushes) are asserted this way.
func WaitFor(cond func() (bool, error), period, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return errors.Errorf("condition not met within %v", timeout)
		}
	}
}
