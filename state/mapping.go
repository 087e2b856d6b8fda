// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// Mapping is a keyed storage abstraction in the manner of a Solidity mapping:
// entries live at blake2b(key, base slot) and values are RLP encoded.
type Mapping[K Key, V any] struct {
	state   *State
	basePos tele.Bytes32
}

// NewMapping creates a mapping rooted at the given base slot.
func NewMapping[K Key, V any](state *State, pos tele.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{state: state, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) tele.Bytes32 {
	return tele.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the stored value, or the zero value when the key is absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	raw, err := m.state.Get(m.position(key))
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode mapping value")
	}
	return value, nil
}

// Has reports whether the key holds a value.
func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.state.Get(m.position(key))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Set stores the value for key.
func (m *Mapping[K, V]) Set(key K, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode mapping value")
	}
	m.state.Set(m.position(key), raw)
	return nil
}

// Delete removes the key.
func (m *Mapping[K, V]) Delete(key K) {
	m.state.Set(m.position(key), nil)
}

// Value is a single RLP-encoded slot.
type Value[V any] struct {
	state *State
	pos   tele.Bytes32
}

// NewValue creates a single-slot value.
func NewValue[V any](state *State, pos tele.Bytes32) *Value[V] {
	return &Value[V]{state: state, pos: pos}
}

// Get returns the stored value, or the zero value when the slot is empty.
func (v *Value[V]) Get() (value V, err error) {
	if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	raw, err := v.state.Get(v.pos)
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode slot value")
	}
	return value, nil
}

// Set stores the value.
func (v *Value[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode slot value")
	}
	v.state.Set(v.pos, raw)
	return nil
}
