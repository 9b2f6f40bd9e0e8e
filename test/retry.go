// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package test

import (
	"fmt"
	"time"
)

// Retry calls fn every period until it succeeds or maxWait has passed.
func Retry[T any](fn func() (T, error), period, maxWait time.Duration) (T, error) {
	deadline := time.Now().Add(maxWait)
	for {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if time.Now().After(deadline) {
			return v, fmt.Errorf("retry timeout, latest err: %w", err)
		}
		time.Sleep(period)
	}
}
