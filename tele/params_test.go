// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tele

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightConversionRoundTrip(t *testing.T) {
	for _, w := range []uint64{0, 1, 5_000_000, 1 << 40} {
		got, err := ValueToWeight(WeightToValue(w))
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
}

func TestValueToWeightFloors(t *testing.T) {
	v := new(big.Int).Add(WeightToValue(7), big.NewInt(999))
	w, err := ValueToWeight(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), w)

	// round trip through weight never gains value
	assert.True(t, WeightToValue(w).Cmp(v) <= 0)
}

func TestValueToWeightBounds(t *testing.T) {
	_, err := ValueToWeight(big.NewInt(-1))
	assert.Error(t, err)
	_, err = ValueToWeight(nil)
	assert.Error(t, err)

	huge := new(big.Int).Lsh(big.NewInt(1), 90)
	huge.Mul(huge, WeightFactor)
	_, err = ValueToWeight(huge)
	assert.Error(t, err)
}
