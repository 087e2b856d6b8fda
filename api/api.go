// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the manager's read surface over HTTP: lifecycle
// records, churn state, the stored event log and a websocket event stream.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/BunsDev/avalanche-teleporter/eventdb"
	"github.com/BunsDev/avalanche-teleporter/log"
	"github.com/BunsDev/avalanche-teleporter/staker"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins string
	EventsLimit    uint64
}

// New returns the api router.
func New(
	mgr *staker.Staker,
	eventDB *eventdb.EventDB,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	if opts.EventsLimit == 0 {
		opts.EventsLimit = 1000
	}

	router := mux.NewRouter()

	NewValidators(mgr).
		Mount(router, "/staker")
	if eventDB != nil {
		NewEvents(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	NewSubscriptions(mgr, len(origins) == 1 && origins[0] == "*").
		Mount(router, "/subscriptions")

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP
}
