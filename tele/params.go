// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tele

import (
	"math/big"

	"github.com/pkg/errors"
)

// Constants of the staking protocol.
const (
	SignatureLength = 64 // length of a validation signature in bytes

	ChurnWindowDuration = uint64(60 * 60)          // rolling churn window, in seconds
	RegistrationHorizon = uint64(2 * 24 * 60 * 60) // max distance of a registration expiry from now, in seconds
)

// WeightFactor is the fixed-point ratio between the fine-grained collateral
// unit and the weight unit carried in cross-chain messages.
var WeightFactor = big.NewInt(1_000_000_000_000)

// ValueToWeight converts a collateral value to a staking weight.
// The division floors, so up to WeightFactor-1 units are not represented.
func ValueToWeight(value *big.Int) (uint64, error) {
	if value == nil || value.Sign() < 0 {
		return 0, errors.New("value must be non-negative")
	}
	w := new(big.Int).Div(value, WeightFactor)
	if !w.IsUint64() {
		return 0, errors.New("weight out of uint64 range")
	}
	return w.Uint64(), nil
}

// WeightToValue converts a staking weight back to a collateral value.
func WeightToValue(weight uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(weight), WeightFactor)
}
