// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb persists the manager's lifecycle events in sqlite for
// later range queries.
package eventdb

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pborman/uuid"

	"github.com/BunsDev/avalanche-teleporter/staker"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

type OrderType string

const (
	ASC  OrderType = "ASC"
	DESC OrderType = "DESC"
)

// Range bounds event timestamps, inclusive.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects stored events.
type Filter struct {
	Types   []staker.EventType `json:"types"`
	NodeID  *tele.Bytes32      `json:"nodeID"`
	Order   OrderType          `json:"order"` // default asc
	Range   *Range             `json:"range"`
	Options *Options           `json:"options"`
}

// Record is a stored lifecycle event with its row identity.
type Record struct {
	ID string `json:"id"` // uuid assigned at insert
	staker.Event
}

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	validationID BLOB NOT NULL,
	nodeID BLOB NOT NULL,
	owner BLOB NOT NULL,
	weight INTEGER NOT NULL,
	messageID BLOB NOT NULL,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS event_ts ON event(ts);
CREATE INDEX IF NOT EXISTS event_node ON event(nodeID);`

// EventDB manages the lifecycle event table.
type EventDB struct {
	path string
	db   *sql.DB
}

// New opens an event db at path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &EventDB{
		path: path,
		db:   db,
	}, nil
}

// NewMem creates a memory sqlite db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() error {
	return db.db.Close()
}

// Insert stores events in one transaction, assigning each a fresh uuid.
func (db *EventDB) Insert(events ...*staker.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for _, event := range events {
		if _, err = tx.Exec(
			"INSERT INTO event(id, type, validationID, nodeID, owner, weight, messageID, ts) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
			uuid.NewRandom().String(),
			string(event.Type),
			event.ValidationID.Bytes(),
			event.NodeID.Bytes(),
			event.Owner.Bytes(),
			int64(event.Weight), // #nosec G115
			event.MessageID.Bytes(),
			event.Timestamp,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Filter returns stored events matching the filter, insert order by default.
func (db *EventDB) Filter(filter *Filter) ([]*Record, error) {
	if filter == nil {
		return db.query("SELECT id, type, validationID, nodeID, owner, weight, messageID, ts FROM event ORDER BY seq ASC")
	}
	var args []interface{}
	stmt := "SELECT id, type, validationID, nodeID, owner, weight, messageID, ts FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND ts >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND ts <= ? "
		}
	}
	if filter.NodeID != nil {
		args = append(args, filter.NodeID.Bytes())
		stmt += " AND nodeID = ? "
	}
	if len(filter.Types) > 0 {
		stmt += " AND type IN ("
		for i, t := range filter.Types {
			if i > 0 {
				stmt += ","
			}
			stmt += "?"
			args = append(args, string(t))
		}
		stmt += ") "
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...interface{}) ([]*Record, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			id           string
			eventType    string
			validationID []byte
			nodeID       []byte
			owner        []byte
			weight       int64
			messageID    []byte
			ts           uint64
		)
		if err := rows.Scan(
			&id,
			&eventType,
			&validationID,
			&nodeID,
			&owner,
			&weight,
			&messageID,
			&ts,
		); err != nil {
			return nil, err
		}
		records = append(records, &Record{
			ID: id,
			Event: staker.Event{
				Type:         staker.EventType(eventType),
				ValidationID: tele.BytesToBytes32(validationID),
				NodeID:       tele.BytesToBytes32(nodeID),
				Owner:        tele.BytesToAddress(owner),
				Weight:       uint64(weight), // #nosec G115
				MessageID:    tele.BytesToBytes32(messageID),
				Timestamp:    ts,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
