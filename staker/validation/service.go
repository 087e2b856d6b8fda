// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"math/big"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

var (
	// ErrNotFound means no record exists, or it is in the wrong state for the transition.
	ErrNotFound = errors.New("unknown validation")
	// ErrDuplicateActiveNode means the nodeID already has a live validation.
	ErrDuplicateActiveNode = errors.New("node already has an active validation")
)

const cacheSize = 512

// Service mediates all registry access. Reads go through an LRU cache of
// committed records; the owning manager purges the cache whenever a call
// aborts, since the journal beneath may have been reverted.
type Service struct {
	storage *Storage
	cache   *lru.Cache
}

// New creates the registry service over the given state.
func New(st *state.State) *Service {
	cache, _ := lru.New(cacheSize)
	return &Service{
		storage: NewStorage(st),
		cache:   cache,
	}
}

// Get returns the record for id, an empty record if absent.
func (s *Service) Get(id tele.Bytes32) (*Validation, error) {
	if cached, ok := s.cache.Get(id); ok {
		entry := cached.(Validation)
		return &entry, nil
	}
	entry, err := s.storage.getValidation(id)
	if err != nil {
		return nil, err
	}
	if !entry.IsEmpty() {
		s.cache.Add(id, *entry)
	}
	return entry, nil
}

// GetExisting returns the record for id, failing if absent.
func (s *Service) GetExisting(id tele.Bytes32) (*Validation, error) {
	entry, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if entry.IsEmpty() {
		return nil, errors.WithMessagef(ErrNotFound, "id %v", id.AbbrevString())
	}
	return entry, nil
}

// ActiveByNode returns the live validation ID bound to nodeID, if any.
func (s *Service) ActiveByNode(nodeID tele.Bytes32) (tele.Bytes32, bool, error) {
	id, err := s.storage.getNodeIndex(nodeID)
	if err != nil {
		return tele.Bytes32{}, false, err
	}
	return id, !id.IsZero(), nil
}

// Add persists a fresh record and binds its nodeID.
// The nodeID must not have another live validation.
func (s *Service) Add(id tele.Bytes32, entry *Validation) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if !existing.IsEmpty() {
		return errors.New("validation id already in use")
	}

	_, bound, err := s.ActiveByNode(entry.NodeID)
	if err != nil {
		return err
	}
	if bound {
		return errors.WithMessagef(ErrDuplicateActiveNode, "node %v", entry.NodeID.AbbrevString())
	}

	if err := s.storage.setNodeIndex(entry.NodeID, id); err != nil {
		return err
	}
	return s.Update(id, entry)
}

// Update persists a mutated record.
func (s *Service) Update(id tele.Bytes32, entry *Validation) error {
	if err := s.storage.setValidation(id, entry); err != nil {
		return err
	}
	s.cache.Add(id, *entry)
	return nil
}

// Complete marks the record completed and releases its nodeID binding.
func (s *Service) Complete(id tele.Bytes32, entry *Validation) error {
	entry.Status = StatusCompleted
	s.storage.deleteNodeIndex(entry.NodeID)
	s.storage.deleteMessage(id)
	return s.Update(id, entry)
}

// Message returns the stored pending outbound message for id, nil if none.
func (s *Service) Message(id tele.Bytes32) ([]byte, error) {
	return s.storage.getMessage(id)
}

// SetMessage stores the pending outbound message for id.
func (s *Service) SetMessage(id tele.Bytes32, msg []byte) error {
	return s.storage.setMessage(id, msg)
}

// ClearMessage discards the pending outbound message for id.
func (s *Service) ClearMessage(id tele.Bytes32) {
	s.storage.deleteMessage(id)
}

// Withdrawable returns the released stake claimable by owner.
func (s *Service) Withdrawable(owner tele.Address) (*big.Int, error) {
	return s.storage.getWithdrawable(owner)
}

// CreditWithdrawable adds released stake to the owner's claimable balance.
func (s *Service) CreditWithdrawable(owner tele.Address, amount *big.Int) error {
	balance, err := s.storage.getWithdrawable(owner)
	if err != nil {
		return err
	}
	return s.storage.setWithdrawable(owner, new(big.Int).Add(balance, amount))
}

// Withdraw empties and returns the owner's claimable balance.
func (s *Service) Withdraw(owner tele.Address) (*big.Int, error) {
	balance, err := s.storage.getWithdrawable(owner)
	if err != nil {
		return nil, err
	}
	if err := s.storage.setWithdrawable(owner, new(big.Int)); err != nil {
		return nil, err
	}
	return balance, nil
}

// PurgeCache drops every cached record. Called after an aborted call, when
// the journal may have been reverted past values the cache already saw.
func (s *Service) PurgeCache() {
	s.cache.Purge()
}
