// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/eventdb"
	"github.com/BunsDev/avalanche-teleporter/fortest"
	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/staker"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

var testSubnetID = tele.BytesToBytes32([]byte("api-subnet"))

const baseTime = uint64(1_700_000_000)

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	staker *staker.Staker
	bus    *fortest.Bus
	db     *eventdb.EventDB
}

func newTestServer(t *testing.T) *testServer {
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &staker.Config{
		SubnetID:           testSubnetID,
		MinimumStakeWeight: 1,
		MaximumStakeWeight: 1000,
		MaximumHourlyChurn: 50,
		InitialStake:       tele.WeightToValue(100),
	}
	bus := fortest.NewBus(tele.BytesToBytes32([]byte("p-chain")))
	mgr, err := staker.New(cfg, state.New(store), bus, nil)
	require.NoError(t, err)

	db, err := eventdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := httptest.NewServer(New(mgr, db, Options{AllowedOrigins: "*"}))
	t.Cleanup(srv.Close)

	return &testServer{t: t, srv: srv, staker: mgr, bus: bus, db: db}
}

func (ts *testServer) bootstrap() tele.Bytes32 {
	acc := fortest.Accounts[0]
	nodeID := tele.BytesToBytes32([]byte("genesis"))
	sig := fortest.SignInfo(acc.Key, testSubnetID, nodeID, 100, baseTime)
	id, err := ts.staker.BootstrapValidator(acc.Address, nodeID, sig, tele.WeightToValue(100), baseTime)
	require.NoError(ts.t, err)
	return id
}

func (ts *testServer) get(path string, out interface{}) *http.Response {
	res, err := http.Get(ts.srv.URL + path)
	require.NoError(ts.t, err)
	defer res.Body.Close()
	if out != nil && res.StatusCode == http.StatusOK {
		require.NoError(ts.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestGetValidation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.bootstrap()

	var got JSONValidation
	res := ts.get("/staker/validations/"+id.String(), &got)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, id, got.ValidationID)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, uint64(100), got.Weight)

	res = ts.get("/staker/validations/"+tele.Bytes32{}.String(), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = ts.get("/staker/validations/not-hex", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetByNode(t *testing.T) {
	ts := newTestServer(t)
	id := ts.bootstrap()

	nodeID := tele.BytesToBytes32([]byte("genesis"))
	var got JSONValidation
	res := ts.get("/staker/nodes/"+nodeID.String(), &got)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, id, got.ValidationID)

	res = ts.get("/staker/nodes/"+tele.BytesToBytes32([]byte("nobody")).String(), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGetChurnAndBootstrap(t *testing.T) {
	ts := newTestServer(t)

	var bootstrap struct {
		Remaining string `json:"remaining"`
		Complete  bool   `json:"complete"`
	}
	res := ts.get("/staker/bootstrap", &bootstrap)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, bootstrap.Complete)
	assert.Equal(t, tele.WeightToValue(100).String(), bootstrap.Remaining)

	ts.bootstrap()

	res = ts.get("/staker/bootstrap", &bootstrap)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, bootstrap.Complete)

	var churn struct {
		StartedAt    uint64 `json:"startedAt"`
		InitialStake uint64 `json:"initialStake"`
		ChurnAmount  uint64 `json:"churnAmount"`
	}
	res = ts.get("/staker/churn", &churn)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, uint64(100), churn.InitialStake)
	assert.Equal(t, baseTime, churn.StartedAt)
}

func TestGetWithdrawable(t *testing.T) {
	ts := newTestServer(t)
	owner := fortest.Accounts[1].Address

	var got struct {
		Withdrawable string `json:"withdrawable"`
	}
	res := ts.get("/staker/withdrawable/"+owner.String(), &got)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "0", got.Withdrawable)
}

func TestEventsFilter(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, ts.db.Insert(
		&staker.Event{Type: staker.EventRegistered, NodeID: tele.BytesToBytes32([]byte{1}), Timestamp: 100},
		&staker.Event{Type: staker.EventCompleted, NodeID: tele.BytesToBytes32([]byte{1}), Timestamp: 200},
	))

	body := strings.NewReader(`{"types": ["completed"]}`)
	res, err := http.Post(ts.srv.URL+"/events", "application/json", body)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var records []*eventdb.Record
	require.NoError(t, json.NewDecoder(res.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, staker.EventCompleted, records[0].Type)

	// unknown fields rejected
	res, err = http.Post(ts.srv.URL+"/events", "application/json", bytes.NewReader([]byte(`{"bogus": 1}`)))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSubscribeEvents(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/subscriptions/events"
	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer res.Body.Close()

	done := make(chan staker.Event, 4)
	go func() {
		var ev staker.Event
		if err := conn.ReadJSON(&ev); err == nil {
			done <- ev
		}
		close(done)
	}()

	// let the subscription attach before producing events
	time.Sleep(100 * time.Millisecond)
	ts.bootstrap()

	select {
	case ev, ok := <-done:
		require.True(t, ok)
		assert.Equal(t, staker.EventRegistered, ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRouteNames(t *testing.T) {
	ts := newTestServer(t)

	// spot check an unknown path
	res := ts.get(fmt.Sprintf("/staker/unknown/%d", 1), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
