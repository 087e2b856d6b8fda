// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/fortest"
	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/staker/validation"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
	"github.com/BunsDev/avalanche-teleporter/warp"
)

var (
	testSubnetID  = tele.BytesToBytes32([]byte("test-subnet"))
	bootstrapNode = tele.BytesToBytes32([]byte("genesis-node"))
)

const baseTime = uint64(1_700_000_000)

func node(b byte) tele.Bytes32 {
	return tele.BytesToBytes32([]byte{b})
}

func defaultConfig() *Config {
	return &Config{
		SubnetID:           testSubnetID,
		MinimumStakeWeight: 1,
		MaximumStakeWeight: 1000,
		MaximumHourlyChurn: 50,
		InitialStake:       tele.WeightToValue(100),
	}
}

type env struct {
	t      *testing.T
	staker *Staker
	bus    *fortest.Bus
	cfg    *Config

	ids map[tele.Bytes32]tele.Bytes32 // nodeID -> validationID
}

func newEnv(t *testing.T, cfg *Config, rewards RewardCalculator) *env {
	if cfg == nil {
		cfg = defaultConfig()
	}
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := fortest.NewBus(tele.BytesToBytes32([]byte("p-chain")))
	mgr, err := New(cfg, state.New(store), bus, rewards)
	require.NoError(t, err)

	return &env{
		t:      t,
		staker: mgr,
		bus:    bus,
		cfg:    cfg,
		ids:    make(map[tele.Bytes32]tele.Bytes32),
	}
}

// bootstrap provides the whole initial stake through one genesis validator.
func (e *env) bootstrap(now uint64) {
	acc := fortest.Accounts[0]
	weight, err := tele.ValueToWeight(e.cfg.InitialStake)
	require.NoError(e.t, err)

	sig := fortest.SignInfo(acc.Key, e.cfg.SubnetID, bootstrapNode, weight, now)
	id, err := e.staker.BootstrapValidator(acc.Address, bootstrapNode, sig, e.cfg.InitialStake, now)
	require.NoError(e.t, err)
	e.ids[bootstrapNode] = id
}

func (e *env) register(acc fortest.Account, nodeID tele.Bytes32, weight, expiry, now uint64) (tele.Bytes32, error) {
	sig := fortest.SignInfo(acc.Key, e.cfg.SubnetID, nodeID, weight, expiry)
	id, err := e.staker.InitializeValidatorRegistration(
		acc.Address, nodeID, sig, tele.WeightToValue(weight), expiry, now)
	if err == nil {
		e.ids[nodeID] = id
	}
	return id, err
}

func (e *env) mustRegister(acc fortest.Account, nodeID tele.Bytes32, weight, expiry, now uint64) tele.Bytes32 {
	id, err := e.register(acc, nodeID, weight, expiry, now)
	require.NoError(e.t, err)
	return id
}

// ack builds an acknowledgement of the stored record with the given tag and
// queues it on the bus.
func (e *env) ack(id tele.Bytes32, tag warp.MessageType) uint64 {
	entry, err := e.staker.Get(id)
	require.NoError(e.t, err)
	require.False(e.t, entry.IsEmpty())

	_, payload, err := warp.Pack(tag, entry.Info(e.cfg.SubnetID))
	require.NoError(e.t, err)
	return e.bus.Deliver(payload)
}

// ackZeroWeight queues a registration acknowledgement whose weight was
// zeroed by the authority, the removal-report shape.
func (e *env) ackZeroWeight(id tele.Bytes32) uint64 {
	entry, err := e.staker.Get(id)
	require.NoError(e.t, err)

	info := entry.Info(e.cfg.SubnetID)
	info.Weight = 0
	_, payload, err := warp.Pack(warp.TypeSubnetValidatorRegistered, info)
	require.NoError(e.t, err)
	return e.bus.Deliver(payload)
}

func (e *env) activate(id tele.Bytes32, now uint64) {
	idx := e.ack(id, warp.TypeSubnetValidatorRegistered)
	got, err := e.staker.CompleteValidatorRegistration(idx, now)
	require.NoError(e.t, err)
	require.Equal(e.t, id, got)
}

func (e *env) status(id tele.Bytes32) validation.Status {
	entry, err := e.staker.Get(id)
	require.NoError(e.t, err)
	return entry.Status
}

// TestSequence scripts lifecycle steps against one env and runs them in
// order.
type TestSequence struct {
	env   *env
	funcs []func(t *testing.T)
}

func NewSequence(env *env) *TestSequence {
	return &TestSequence{env: env}
}

func (ts *TestSequence) AddFunc(f func(t *testing.T)) *TestSequence {
	ts.funcs = append(ts.funcs, f)
	return ts
}

func (ts *TestSequence) Bootstrap(now uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.bootstrap(now)
		t.Logf("bootstrapped at %d", now)
	})
}

func (ts *TestSequence) Register(acc fortest.Account, nodeID tele.Bytes32, weight, expiry, now uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		id := ts.env.mustRegister(acc, nodeID, weight, expiry, now)
		t.Logf("registered node %v as %v", nodeID.AbbrevString(), id.AbbrevString())
	})
}

func (ts *TestSequence) Activate(nodeID tele.Bytes32, now uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		ts.env.activate(ts.env.ids[nodeID], now)
		t.Logf("activated node %v", nodeID.AbbrevString())
	})
}

func (ts *TestSequence) End(acc fortest.Account, nodeID tele.Bytes32, now uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		err := ts.env.staker.InitializeEndValidation(acc.Address, ts.env.ids[nodeID], now)
		require.NoError(t, err)
		t.Logf("ending node %v", nodeID.AbbrevString())
	})
}

func (ts *TestSequence) CompleteEnd(nodeID tele.Bytes32, tag warp.MessageType, now uint64) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		idx := ts.env.ack(ts.env.ids[nodeID], tag)
		_, err := ts.env.staker.CompleteEndValidation(idx, now)
		require.NoError(t, err)
		t.Logf("completed node %v", nodeID.AbbrevString())
	})
}

func (ts *TestSequence) ExpectStatus(nodeID tele.Bytes32, status validation.Status) *TestSequence {
	return ts.AddFunc(func(t *testing.T) {
		got := ts.env.status(ts.env.ids[nodeID])
		require.Equal(t, status, got,
			"node %v: expected %s, got %s", nodeID.AbbrevString(), validation.StatusName(status), validation.StatusName(got))
	})
}

func (ts *TestSequence) Run(t *testing.T) {
	for _, f := range ts.funcs {
		f(t)
		if t.Failed() {
			t.FailNow()
		}
	}
}
