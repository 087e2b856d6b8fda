// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/kv"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

func newTestState(t *testing.T) (*State, kv.Store) {
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func TestGetSetCommit(t *testing.T) {
	st, store := newTestState(t)
	key := tele.BytesToBytes32([]byte("k"))

	v, err := st.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	st.Set(key, []byte("v"))
	v, err = st.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	// journaled only, not in store yet
	_, err = store.Get(key.Bytes())
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, st.Commit())
	raw, err := store.Get(key.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), raw)
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)
	key := tele.BytesToBytes32([]byte("k"))
	st.Set(key, []byte("one"))

	cp := st.Checkpoint()
	st.Set(key, []byte("two"))
	other := tele.BytesToBytes32([]byte("other"))
	st.Set(other, []byte("x"))

	st.RevertTo(cp)

	v, err := st.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), v)

	v, err = st.Get(other)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDeleteThroughCommit(t *testing.T) {
	st, store := newTestState(t)
	key := tele.BytesToBytes32([]byte("k"))

	st.Set(key, []byte("v"))
	require.NoError(t, st.Commit())

	st.Set(key, nil)
	v, err := st.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, st.Commit())
	_, err = store.Get(key.Bytes())
	assert.True(t, store.IsNotFound(err))
}

func TestMapping(t *testing.T) {
	st, _ := newTestState(t)
	slot := tele.BytesToBytes32([]byte("balances"))
	balances := NewMapping[tele.Address, *big.Int](st, slot)

	owner := tele.BytesToAddress([]byte{1})

	bal, err := balances.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.Int64())

	require.NoError(t, balances.Set(owner, big.NewInt(42)))
	bal, err = balances.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	has, err := balances.Has(owner)
	require.NoError(t, err)
	assert.True(t, has)

	balances.Delete(owner)
	has, err = balances.Has(owner)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestValueSlot(t *testing.T) {
	st, _ := newTestState(t)
	type period struct {
		StartedAt uint64
		Amount    uint64
	}
	slot := NewValue[period](st, tele.BytesToBytes32([]byte("period")))

	p, err := slot.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.StartedAt)

	require.NoError(t, slot.Set(period{StartedAt: 10, Amount: 3}))
	p, err = slot.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), p.StartedAt)
	assert.Equal(t, uint64(3), p.Amount)
}

func TestMappingKeysDoNotCollide(t *testing.T) {
	st, _ := newTestState(t)
	a := NewMapping[tele.Bytes32, uint64](st, tele.BytesToBytes32([]byte("a")))
	b := NewMapping[tele.Bytes32, uint64](st, tele.BytesToBytes32([]byte("b")))
	key := tele.BytesToBytes32([]byte("k"))

	require.NoError(t, a.Set(key, 1))
	require.NoError(t, b.Set(key, 2))

	va, err := a.Get(key)
	require.NoError(t, err)
	vb, err := b.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), va)
	assert.Equal(t, uint64(2), vb)
}
