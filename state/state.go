// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakevault/kv"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/stackedmap"
	"github.com/vechain/stakevault/thor"
)

var (
	logger = log.WithContext("pkg", "state")

	errReadOnly = errors.New("write in read-only frame")
	errNoFrame  = errors.New("write outside of exec frame")
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(append(make([]byte, 0, thor.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State serializes access to the ledger.
type State struct {
	store kv.Store
	sem   chan struct{}
	feed  event.Feed
	scope event.SubscriptionScope
}

// New create state object on top of the given store.
func New(store kv.Store) *State {
	return &State{
		store: store,
		sem:   make(chan struct{}, 1),
	}
}

type frameKey struct{}

type frame struct {
	state    *State
	sm       *stackedmap.StackedMap[storageKey, rlp.RawValue]
	events   []Event
	readonly bool
}

func (s *State) newFrame(readonly bool) *frame {
	return &frame{
		state:    s,
		sm:       stackedmap.New(s.load),
		readonly: readonly,
	}
}

// frameOf returns the frame of this state carried by ctx, or nil.
func (s *State) frameOf(ctx context.Context) *frame {
	if f, ok := ctx.Value(frameKey{}).(*frame); ok && f.state == s {
		return f
	}
	return nil
}

func (s *State) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *State) release() {
	<-s.sem
}

// Exec runs fn atomically.
// The outermost call commits all writes made by fn in one batch if fn succeeds, and
// publishes the events emitted in the meantime. A nested call only reverts its own
// writes and events when it fails.
func (s *State) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	if f := s.frameOf(ctx); f != nil {
		if f.readonly {
			return &Error{errReadOnly}
		}
		rev, n := f.sm.Push(), len(f.events)
		if err := fn(ctx); err != nil {
			f.sm.PopTo(rev)
			f.events = f.events[:n]
			metricFrameCount().AddWithLabel(1, map[string]string{"type": "nested", "result": "revert"})
			return err
		}
		metricFrameCount().AddWithLabel(1, map[string]string{"type": "nested", "result": "ok"})
		return nil
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	f := s.newFrame(false)
	if err := fn(context.WithValue(ctx, frameKey{}, f)); err != nil {
		metricFrameCount().AddWithLabel(1, map[string]string{"type": "exec", "result": "revert"})
		return err
	}
	if err := s.commit(f); err != nil {
		logger.Error("failed to commit state", "err", err)
		return &Error{err}
	}
	metricFrameCount().AddWithLabel(1, map[string]string{"type": "exec", "result": "ok"})

	if len(f.events) > 0 {
		s.feed.Send(f.events)
	}
	return nil
}

// View runs fn with a consistent read-only view.
// Nested in Exec, fn observes the uncommitted writes of the enclosing call.
func (s *State) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if f := s.frameOf(ctx); f != nil {
		if f.readonly {
			return fn(ctx)
		}
		ro := &frame{state: s, sm: f.sm, readonly: true}
		return fn(context.WithValue(ctx, frameKey{}, ro))
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	metricFrameCount().AddWithLabel(1, map[string]string{"type": "view", "result": "ok"})
	return fn(context.WithValue(ctx, frameKey{}, s.newFrame(true)))
}

func (s *State) commit(f *frame) error {
	batch := s.store.NewBatch()

	var err error
	f.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		if len(v) == 0 {
			err = batch.Delete(k.bytes())
		} else {
			err = batch.Put(k.bytes(), v)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	return batch.Write()
}

// load implements stackedmap.MapGetter.
func (s *State) load(k storageKey) (rlp.RawValue, bool, error) {
	v, err := s.store.Get(k.bytes())
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
// Outside of any frame it reads the committed value.
func (s *State) GetRawStorage(ctx context.Context, addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	var (
		data rlp.RawValue
		err  error
	)
	if f := s.frameOf(ctx); f != nil {
		data, _, err = f.sm.Get(storageKey{addr, key})
	} else {
		data, _, err = s.load(storageKey{addr, key})
	}
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw. Empty value deletes the key on commit.
func (s *State) SetRawStorage(ctx context.Context, addr thor.Address, key thor.Bytes32, raw rlp.RawValue) error {
	f, err := s.writableFrame(ctx)
	if err != nil {
		return err
	}
	f.sm.Put(storageKey{addr, key}, raw)
	return nil
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(ctx context.Context, addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	return s.SetRawStorage(ctx, addr, key, raw)
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(ctx context.Context, addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(ctx, addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

func (s *State) writableFrame(ctx context.Context) (*frame, error) {
	f := s.frameOf(ctx)
	if f == nil {
		return nil, &Error{errNoFrame}
	}
	if f.readonly {
		return nil, &Error{errReadOnly}
	}
	return f, nil
}

// InFrame returns whether ctx carries a frame of this state.
func (s *State) InFrame(ctx context.Context) bool {
	return s.frameOf(ctx) != nil
}

// Close unsubscribes all event subscribers.
func (s *State) Close() {
	s.scope.Close()
}
