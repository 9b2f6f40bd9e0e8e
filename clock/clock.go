// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package clock provides the time source of the ledger, in unix seconds.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current unix timestamp in seconds.
type Clock interface {
	Now() uint64
}

// System is the wall clock.
type System struct{}

func (System) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Mock is a manually driven clock, safe for concurrent use.
type Mock struct {
	now atomic.Uint64
}

// NewMock creates a mock clock starting at now.
func NewMock(now uint64) *Mock {
	m := &Mock{}
	m.now.Store(now)
	return m
}

func (m *Mock) Now() uint64 {
	return m.now.Load()
}

// Set moves the clock to now. Moving backwards is allowed.
func (m *Mock) Set(now uint64) {
	m.now.Store(now)
}

// Add advances the clock by d seconds and returns the new time.
func (m *Mock) Add(d uint64) uint64 {
	return m.now.Add(d)
}
