// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/fortest"
	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/staker"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

func newDB(t *testing.T) *EventDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleEvent(typ staker.EventType, node byte, ts uint64) *staker.Event {
	return &staker.Event{
		Type:         typ,
		ValidationID: tele.BytesToBytes32([]byte{0xaa, node}),
		NodeID:       tele.BytesToBytes32([]byte{node}),
		Owner:        tele.BytesToAddress([]byte{0x01}),
		Weight:       uint64(node) * 10,
		Timestamp:    ts,
	}
}

func TestInsertAndFilterAll(t *testing.T) {
	db := newDB(t)

	require.NoError(t, db.Insert(
		sampleEvent(staker.EventRegistrationStarted, 1, 100),
		sampleEvent(staker.EventRegistered, 1, 200),
		sampleEvent(staker.EventCompleted, 2, 300),
	))

	records, err := db.Filter(nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// insert order, each row carries a uuid
	assert.Equal(t, staker.EventRegistrationStarted, records[0].Type)
	assert.Equal(t, staker.EventCompleted, records[2].Type)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestFilterByNode(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Insert(
		sampleEvent(staker.EventRegistered, 1, 100),
		sampleEvent(staker.EventRegistered, 2, 200),
	))

	nodeID := tele.BytesToBytes32([]byte{2})
	records, err := db.Filter(&Filter{NodeID: &nodeID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, nodeID, records[0].NodeID)
}

func TestFilterByTypeAndRange(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Insert(
		sampleEvent(staker.EventRegistrationStarted, 1, 100),
		sampleEvent(staker.EventRegistered, 1, 200),
		sampleEvent(staker.EventRemovalStarted, 1, 300),
		sampleEvent(staker.EventCompleted, 1, 400),
	))

	records, err := db.Filter(&Filter{
		Types: []staker.EventType{staker.EventRegistered, staker.EventCompleted},
		Range: &Range{From: 150, To: 400},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, staker.EventRegistered, records[0].Type)
	assert.Equal(t, staker.EventCompleted, records[1].Type)
}

func TestCollector(t *testing.T) {
	db := newDB(t)

	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &staker.Config{
		SubnetID:           tele.BytesToBytes32([]byte("subnet")),
		MinimumStakeWeight: 1,
		MaximumStakeWeight: 1000,
		MaximumHourlyChurn: 50,
		InitialStake:       tele.WeightToValue(100),
	}
	mgr, err := staker.New(cfg, state.New(store), fortest.NewBus(tele.Bytes32{}), nil)
	require.NoError(t, err)

	collector := NewCollector(db, mgr)

	acc := fortest.Accounts[0]
	nodeID := tele.BytesToBytes32([]byte("genesis"))
	sig := fortest.SignInfo(acc.Key, cfg.SubnetID, nodeID, 100, 1000)
	_, err = mgr.BootstrapValidator(acc.Address, nodeID, sig, cfg.InitialStake, 1000)
	require.NoError(t, err)

	collector.Stop() // waits for queued events to be written

	records, err := db.Filter(nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, staker.EventRegistered, records[0].Type)
	assert.Equal(t, staker.EventBootstrapped, records[1].Type)
}

func TestFilterOrderAndLimit(t *testing.T) {
	db := newDB(t)
	for i := byte(1); i <= 5; i++ {
		require.NoError(t, db.Insert(sampleEvent(staker.EventRegistered, i, uint64(i)*100)))
	}

	records, err := db.Filter(&Filter{
		Order:   DESC,
		Options: &Options{Offset: 0, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(500), records[0].Timestamp)
	assert.Equal(t, uint64(400), records[1].Timestamp)
}
