// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/api/restutil"
	"github.com/BunsDev/avalanche-teleporter/eventdb"
)

// Events queries the stored lifecycle event log.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func NewEvents(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{
		db,
		limit,
	}
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return restutil.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Range != nil && filter.Range.From > filter.Range.To {
		return restutil.BadRequest(errors.New("range.to must be greater than or equal to range.from"))
	}
	if filter.Options == nil {
		filter.Options = &eventdb.Options{Offset: 0, Limit: e.limit}
	}

	records, err := e.db.Filter(&filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*eventdb.Record{}
	}
	return restutil.WriteJSON(w, records)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
