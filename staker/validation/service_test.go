// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

func newService(t *testing.T) (*Service, *state.State) {
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	st := state.New(store)
	return New(st), st
}

func newEntry(node byte) *Validation {
	return &Validation{
		NodeID:             tele.BytesToBytes32([]byte{node}),
		Owner:              tele.BytesToAddress([]byte{0xaa}),
		Weight:             100,
		RegistrationExpiry: 5000,
		Signature:          make([]byte, tele.SignatureLength),
		Status:             StatusPendingAdded,
	}
}

func TestAddAndGet(t *testing.T) {
	svc, _ := newService(t)
	id := tele.BytesToBytes32([]byte("v1"))
	entry := newEntry(1)

	require.NoError(t, svc.Add(id, entry))

	got, err := svc.GetExisting(id)
	require.NoError(t, err)
	assert.Equal(t, entry.NodeID, got.NodeID)
	assert.Equal(t, StatusPendingAdded, got.Status)

	boundID, bound, err := svc.ActiveByNode(entry.NodeID)
	require.NoError(t, err)
	assert.True(t, bound)
	assert.Equal(t, id, boundID)
}

func TestGetExistingUnknown(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.GetExisting(tele.BytesToBytes32([]byte("missing")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRejectsDuplicateNode(t *testing.T) {
	svc, _ := newService(t)
	require.NoError(t, svc.Add(tele.BytesToBytes32([]byte("v1")), newEntry(1)))

	err := svc.Add(tele.BytesToBytes32([]byte("v2")), newEntry(1))
	assert.ErrorIs(t, err, ErrDuplicateActiveNode)
}

func TestAddRejectsReusedID(t *testing.T) {
	svc, _ := newService(t)
	id := tele.BytesToBytes32([]byte("v1"))
	require.NoError(t, svc.Add(id, newEntry(1)))
	assert.Error(t, svc.Add(id, newEntry(2)))
}

func TestCompleteReleasesNode(t *testing.T) {
	svc, _ := newService(t)
	id := tele.BytesToBytes32([]byte("v1"))
	entry := newEntry(1)
	require.NoError(t, svc.Add(id, entry))
	require.NoError(t, svc.SetMessage(id, []byte("payload")))

	require.NoError(t, svc.Complete(id, entry))

	got, err := svc.GetExisting(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	_, bound, err := svc.ActiveByNode(entry.NodeID)
	require.NoError(t, err)
	assert.False(t, bound)

	msg, err := svc.Message(id)
	require.NoError(t, err)
	assert.Nil(t, msg)

	// node can be registered again after completion
	require.NoError(t, svc.Add(tele.BytesToBytes32([]byte("v2")), newEntry(1)))
}

func TestMessageRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	id := tele.BytesToBytes32([]byte("v1"))

	msg, err := svc.Message(id)
	require.NoError(t, err)
	assert.Nil(t, msg)

	payload := make([]byte, 148)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, svc.SetMessage(id, payload))

	msg, err = svc.Message(id)
	require.NoError(t, err)
	assert.Equal(t, payload, msg)

	svc.ClearMessage(id)
	msg, err = svc.Message(id)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestWithdrawableLedger(t *testing.T) {
	svc, _ := newService(t)
	owner := tele.BytesToAddress([]byte{1})

	balance, err := svc.Withdrawable(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Int64())

	require.NoError(t, svc.CreditWithdrawable(owner, big.NewInt(100)))
	require.NoError(t, svc.CreditWithdrawable(owner, big.NewInt(50)))

	balance, err = svc.Withdrawable(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance.Int64())

	got, err := svc.Withdraw(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.Int64())

	balance, err = svc.Withdrawable(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Int64())
}

func TestCachePurgeAfterRevert(t *testing.T) {
	svc, st := newService(t)
	id := tele.BytesToBytes32([]byte("v1"))

	cp := st.Checkpoint()
	require.NoError(t, svc.Add(id, newEntry(1)))
	st.RevertTo(cp)
	svc.PurgeCache()

	got, err := svc.Get(id)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}
