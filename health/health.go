// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vechain/stakevault/state"
)

type Status struct {
	Healthy      bool       `json:"healthy"`
	LastActivity *time.Time `json:"lastActivity"`
	ClockChecked bool       `json:"clockChecked"`
	ClockOffset  string     `json:"clockOffset"`
}

// Health tracks the liveness of the node. Cooldowns and lockups are measured
// on the local clock, so a clock drifting beyond maxClockOffset marks the node unhealthy.
type Health struct {
	lock           sync.RWMutex
	maxClockOffset time.Duration
	lastActivity   time.Time
	clockOffset    time.Duration
	clockChecked   bool
}

func New(maxClockOffset time.Duration) *Health {
	return &Health{maxClockOffset: maxClockOffset}
}

// Activity records a committed ledger change.
func (h *Health) Activity() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastActivity = time.Now()
}

// ClockOffset records the result of a clock check.
func (h *Health) ClockOffset(offset time.Duration) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.clockOffset = offset
	h.clockChecked = true
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	offset := h.clockOffset
	if offset < 0 {
		offset = -offset
	}
	status := &Status{
		Healthy:      !h.clockChecked || offset <= h.maxClockOffset,
		ClockChecked: h.clockChecked,
		ClockOffset:  common.PrettyDuration(h.clockOffset).String(),
	}
	if !h.lastActivity.IsZero() {
		last := h.lastActivity
		status.LastActivity = &last
	}
	return status
}

// Follow records activity for every committed batch of events until ctx is done.
func (h *Health) Follow(ctx context.Context, st *state.State) {
	ch := make(chan []state.Event, 16)
	sub := st.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Err():
			return
		case <-ch:
			h.Activity()
		}
	}
}
