// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/stakevault/thor"
)

// Event is a record emitted during an exec frame.
// Events of a frame are delivered together once the frame is committed.
type Event struct {
	Emitter thor.Address
	Name    string
	Data    any
}

// Emit buffers an event in the current frame.
// The event is dropped if the frame, or the nested call emitting it, reverts.
func (s *State) Emit(ctx context.Context, emitter thor.Address, name string, data any) error {
	f, err := s.writableFrame(ctx)
	if err != nil {
		return err
	}
	f.events = append(f.events, Event{Emitter: emitter, Name: name, Data: data})
	return nil
}

// SubscribeEvents registers ch to receive the events of every committed frame.
// Delivery blocks the committer, so subscribers must keep draining ch.
func (s *State) SubscribeEvents(ch chan<- []Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}
