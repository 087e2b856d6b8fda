// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/BunsDev/avalanche-teleporter/staker"
)

const (
	eventQueueLen = 256

	pingPeriod = 10 * time.Second
	writeWait  = 5 * time.Second
)

// Subscriptions streams lifecycle events over websocket.
type Subscriptions struct {
	staker   *staker.Staker
	upgrader websocket.Upgrader
}

func NewSubscriptions(staker *staker.Staker, allowAllOrigins bool) *Subscriptions {
	return &Subscriptions{
		staker: staker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return allowAllOrigins },
		},
	}
}

func (s *Subscriptions) handleEvents(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Debug("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := make(chan staker.Event, eventQueueLen)
	cancel := s.staker.SubscribeEvents(ch)
	defer cancel()

	// the read pump only detects the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(&ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-req.Context().Done():
			return
		}
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /subscriptions/events").
		HandlerFunc(s.handleEvents)
}
