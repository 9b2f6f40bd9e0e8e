// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakevault/thor"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction owned by an address, values are rlp encoded.
type Mapping[K Key, V any] struct {
	state   *State
	addr    thor.Address
	basePos thor.Bytes32
}

func NewMapping[K Key, V any](state *State, addr thor.Address, pos thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{state: state, addr: addr, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) thor.Bytes32 {
	return thor.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value for key, or the zero value (a new instance for pointer types) if absent.
func (m *Mapping[K, V]) Get(ctx context.Context, key K) (value V, err error) {
	err = m.state.DecodeStorage(ctx, m.addr, m.position(key), decoder(&value))
	return
}

func (m *Mapping[K, V]) Set(ctx context.Context, key K, value V) error {
	return m.state.EncodeStorage(ctx, m.addr, m.position(key), encoder(value))
}

// Value is a single storage slot owned by an address.
type Value[V any] struct {
	state *State
	addr  thor.Address
	pos   thor.Bytes32
}

func NewValue[V any](state *State, addr thor.Address, pos thor.Bytes32) *Value[V] {
	return &Value[V]{state: state, addr: addr, pos: pos}
}

func (v *Value[V]) Get(ctx context.Context) (value V, err error) {
	err = v.state.DecodeStorage(ctx, v.addr, v.pos, decoder(&value))
	return
}

func (v *Value[V]) Set(ctx context.Context, value V) error {
	return v.state.EncodeStorage(ctx, v.addr, v.pos, encoder(value))
}

func decoder[V any](value *V) func([]byte) error {
	return func(raw []byte) error {
		if t := reflect.TypeOf(*value); t != nil && t.Kind() == reflect.Ptr {
			*value = reflect.New(t.Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, value)
	}
}

func encoder[V any](value V) func() ([]byte, error) {
	return func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	}
}
