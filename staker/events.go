// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

// EventType identifies a lifecycle notification.
type EventType string

const (
	EventRegistrationStarted EventType = "registration-started"
	EventRegistered          EventType = "registered"
	EventRemovalStarted      EventType = "removal-started"
	EventCompleted           EventType = "completed"
	EventBootstrapped        EventType = "bootstrapped"
)

// Event is a lifecycle notification, published after the originating call
// has committed.
type Event struct {
	Type         EventType    `json:"type"`
	ValidationID tele.Bytes32 `json:"validationID"`
	NodeID       tele.Bytes32 `json:"nodeID"`
	Owner        tele.Address `json:"owner"`
	Weight       uint64       `json:"weight"`
	MessageID    tele.Bytes32 `json:"messageID,omitempty"`
	Timestamp    uint64       `json:"timestamp"`
}

type eventFeed struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newEventFeed() *eventFeed {
	return &eventFeed{subs: make(map[chan Event]struct{})}
}

// subscribe registers ch until the returned cancel func runs. Delivery is
// best effort: a subscriber that cannot keep up loses events rather than
// blocking the manager.
func (f *eventFeed) subscribe(ch chan Event) func() {
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

func (f *eventFeed) publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
