// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"math/big"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

var (
	slotValidations = tele.BytesToBytes32([]byte("validations"))
	slotNodeIndex   = tele.BytesToBytes32([]byte("node-index"))
	slotMessages    = tele.BytesToBytes32([]byte("pending-messages"))
	slotWithdrawals = tele.BytesToBytes32([]byte("withdrawals"))
)

type Storage struct {
	validations *state.Mapping[tele.Bytes32, Validation]
	nodeIndex   *state.Mapping[tele.Bytes32, tele.Bytes32]
	messages    *state.Mapping[tele.Bytes32, []byte]
	withdrawals *state.Mapping[tele.Address, *big.Int]
}

func NewStorage(st *state.State) *Storage {
	return &Storage{
		validations: state.NewMapping[tele.Bytes32, Validation](st, slotValidations),
		nodeIndex:   state.NewMapping[tele.Bytes32, tele.Bytes32](st, slotNodeIndex),
		messages:    state.NewMapping[tele.Bytes32, []byte](st, slotMessages),
		withdrawals: state.NewMapping[tele.Address, *big.Int](st, slotWithdrawals),
	}
}

func (s *Storage) getValidation(id tele.Bytes32) (*Validation, error) {
	v, err := s.validations.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validation")
	}
	return &v, nil
}

func (s *Storage) setValidation(id tele.Bytes32, entry *Validation) error {
	if err := s.validations.Set(id, *entry); err != nil {
		return errors.Wrap(err, "failed to set validation")
	}
	return nil
}

func (s *Storage) getNodeIndex(nodeID tele.Bytes32) (tele.Bytes32, error) {
	id, err := s.nodeIndex.Get(nodeID)
	if err != nil {
		return tele.Bytes32{}, errors.Wrap(err, "failed to get node index")
	}
	return id, nil
}

func (s *Storage) setNodeIndex(nodeID, id tele.Bytes32) error {
	if err := s.nodeIndex.Set(nodeID, id); err != nil {
		return errors.Wrap(err, "failed to set node index")
	}
	return nil
}

func (s *Storage) deleteNodeIndex(nodeID tele.Bytes32) {
	s.nodeIndex.Delete(nodeID)
}

// pending outbound messages are stored snappy-compressed
func (s *Storage) getMessage(id tele.Bytes32) ([]byte, error) {
	raw, err := s.messages.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending message")
	}
	if len(raw) == 0 {
		return nil, nil
	}
	msg, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode pending message")
	}
	return msg, nil
}

func (s *Storage) setMessage(id tele.Bytes32, msg []byte) error {
	if err := s.messages.Set(id, snappy.Encode(nil, msg)); err != nil {
		return errors.Wrap(err, "failed to set pending message")
	}
	return nil
}

func (s *Storage) deleteMessage(id tele.Bytes32) {
	s.messages.Delete(id)
}

func (s *Storage) getWithdrawable(owner tele.Address) (*big.Int, error) {
	amount, err := s.withdrawals.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdrawable")
	}
	return amount, nil
}

func (s *Storage) setWithdrawable(owner tele.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		s.withdrawals.Delete(owner)
		return nil
	}
	if err := s.withdrawals.Set(owner, amount); err != nil {
		return errors.Wrap(err, "failed to set withdrawable")
	}
	return nil
}
