// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fortest

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/tele"
	"github.com/BunsDev/avalanche-teleporter/warp"
)

// Bus is an in-process message bus. Outbound payloads are recorded; inbound
// acknowledgements are queued with Deliver and handed out, pre-verified, by
// index.
type Bus struct {
	mu            sync.Mutex
	sourceChainID tele.Bytes32
	sent          [][]byte
	inbound       [][]byte
}

// NewBus creates a bus whose delivered messages claim the given origin.
func NewBus(sourceChainID tele.Bytes32) *Bus {
	return &Bus{sourceChainID: sourceChainID}
}

// Send records an outbound payload and returns its message ID.
func (b *Bus) Send(payload []byte) (tele.Bytes32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.sent = append(b.sent, cp)

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(len(b.sent)-1))
	return tele.Sum256(append(cp, seq[:]...)), nil
}

// Sent returns all outbound payloads in send order.
func (b *Bus) Sent() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.sent))
	copy(out, b.sent)
	return out
}

// Deliver queues an inbound payload and returns its fetch index.
func (b *Bus) Deliver(payload []byte) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.inbound = append(b.inbound, cp)
	return uint64(len(b.inbound) - 1)
}

// VerifyAndFetch returns the inbound message at index.
func (b *Bus) VerifyAndFetch(index uint64) (*warp.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index >= uint64(len(b.inbound)) {
		return nil, errors.Errorf("no message at index %d", index)
	}
	return &warp.Message{
		SourceChainID: b.sourceChainID,
		Payload:       b.inbound[index],
	}, nil
}

// FixedRewards pays a flat amount per second of active validation.
type FixedRewards struct {
	PerSecond *big.Int
}

// CalculateReward returns PerSecond * (endedAt - startedAt).
func (r FixedRewards) CalculateReward(_ tele.Bytes32, _ uint64, startedAt, endedAt uint64) *big.Int {
	if r.PerSecond == nil || endedAt <= startedAt {
		return new(big.Int)
	}
	duration := new(big.Int).SetUint64(endedAt - startedAt)
	return duration.Mul(duration, r.PerSecond)
}
