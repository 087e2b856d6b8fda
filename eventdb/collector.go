// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/BunsDev/avalanche-teleporter/log"
	"github.com/BunsDev/avalanche-teleporter/staker"
)

var logger = log.WithContext("pkg", "eventdb")

// Collector subscribes to the manager's event feed and writes every event
// to the db until stopped. Insert failures are logged, not propagated; the
// event log is an observer, never an authority.
type Collector struct {
	db     *EventDB
	ch     chan staker.Event
	cancel func()
	done   chan struct{}
}

// NewCollector starts collecting events from mgr into db.
func NewCollector(db *EventDB, mgr *staker.Staker) *Collector {
	c := &Collector{
		db:   db,
		ch:   make(chan staker.Event, 256),
		done: make(chan struct{}),
	}
	c.cancel = mgr.SubscribeEvents(c.ch)

	go func() {
		defer close(c.done)
		for ev := range c.ch {
			if err := db.Insert(&ev); err != nil {
				logger.Warn("failed to store event", "type", ev.Type, "error", err)
			}
		}
	}()
	return c
}

// Stop unsubscribes and waits for queued events to be written.
func (c *Collector) Stop() {
	c.cancel()
	close(c.ch)
	<-c.done
}
