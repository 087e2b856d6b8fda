// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides transactional keyed storage for the staking manager.
// Writes accumulate in a stack of journal levels; a checkpoint taken at the
// start of an entry point can be reverted wholesale, so a failed call leaves
// no partial state behind. Commit flushes the journal to the backing store in
// a single batch.
package state

import (
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

// State is a journaled view over a kv store.
// It is not safe for concurrent use; callers serialize access.
type State struct {
	store  kv.Store
	levels []map[string][]byte // nil value marks deletion
}

// New creates a state backed by the given store.
func New(store kv.Store) *State {
	return &State{
		store:  store,
		levels: []map[string][]byte{{}},
	}
}

// Get returns the latest journaled value for key, falling back to the store.
// A missing key yields a nil value, not an error.
func (s *State) Get(key tele.Bytes32) ([]byte, error) {
	k := string(key[:])
	for i := len(s.levels) - 1; i >= 0; i-- {
		if v, ok := s.levels[i][k]; ok {
			return v, nil
		}
	}
	v, err := s.store.Get(key.Bytes())
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "state get")
	}
	return v, nil
}

// Set journals a value for key. A nil or empty value deletes the key.
func (s *State) Set(key tele.Bytes32, val []byte) {
	if len(val) == 0 {
		val = nil
	}
	s.levels[len(s.levels)-1][string(key[:])] = val
}

// Checkpoint pushes a new journal level and returns its handle.
func (s *State) Checkpoint() int {
	s.levels = append(s.levels, map[string][]byte{})
	return len(s.levels) - 1
}

// RevertTo drops every journal level at or above the checkpoint handle.
func (s *State) RevertTo(checkpoint int) {
	if checkpoint < 1 || checkpoint > len(s.levels) {
		return
	}
	s.levels = s.levels[:checkpoint]
}

// Commit flushes the whole journal to the store in one batch and resets it.
func (s *State) Commit() error {
	flat := make(map[string][]byte)
	for _, lvl := range s.levels {
		for k, v := range lvl {
			flat[k] = v
		}
	}
	if len(flat) == 0 {
		return nil
	}

	batch := s.store.NewBatch()
	for k, v := range flat {
		if v == nil {
			if err := batch.Delete([]byte(k)); err != nil {
				return errors.Wrap(err, "state delete")
			}
			continue
		}
		if err := batch.Put([]byte(k), v); err != nil {
			return errors.Wrap(err, "state put")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "state commit")
	}
	s.levels = []map[string][]byte{{}}
	return nil
}
