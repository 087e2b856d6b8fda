// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package churn tracks stake movement inside a rolling hourly window and
// rejects admissions that would exceed the configured share of the initial
// total stake.
package churn

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

var (
	// ErrLimitExceeded means the admission would push churn past the hourly limit.
	ErrLimitExceeded = errors.New("churn limit exceeded")
	// ErrNotInitialized means the initial stake has not been fixed yet.
	ErrNotInitialized = errors.New("churn tracker not initialized")
)

var slotPeriod = tele.BytesToBytes32([]byte("churn-period"))

// Period is the rolling-window accumulator.
// InitialStake is fixed at bootstrap completion and never changes.
type Period struct {
	StartedAt    uint64
	InitialStake uint64 // weight units
	ChurnAmount  uint64 // weight units moved within the window
}

// Tracker admits or rejects stake movement against the rolling window.
// Window mutations are journaled through the state, so a rejected admission
// is rolled back together with the rest of the aborted call.
type Tracker struct {
	slot           *state.Value[Period]
	maxHourlyChurn uint64 // percent of initial stake
}

// New creates a tracker with the given hourly churn limit.
func New(st *state.State, maxHourlyChurn uint64) *Tracker {
	return &Tracker{
		slot:           state.NewValue[Period](st, slotPeriod),
		maxHourlyChurn: maxHourlyChurn,
	}
}

// Initialize fixes the initial total stake. It may be called once.
func (t *Tracker) Initialize(initialStake, now uint64) error {
	period, err := t.slot.Get()
	if err != nil {
		return err
	}
	if period.InitialStake != 0 {
		return errors.New("churn tracker already initialized")
	}
	if initialStake == 0 {
		return errors.New("initial stake must be positive")
	}
	return t.slot.Set(Period{StartedAt: now, InitialStake: initialStake})
}

// Initialized reports whether the initial stake has been fixed.
func (t *Tracker) Initialized() (bool, error) {
	period, err := t.slot.Get()
	if err != nil {
		return false, err
	}
	return period.InitialStake != 0, nil
}

// Current returns the accumulator as stored.
func (t *Tracker) Current() (*Period, error) {
	period, err := t.slot.Get()
	if err != nil {
		return nil, err
	}
	return &period, nil
}

// Admit accounts amount of stake movement at time now.
// When the window has fully elapsed the accumulator resets to the new delta,
// otherwise it accumulates. The admission is rejected once the accumulated
// churn exceeds maxHourlyChurn percent of the initial stake.
func (t *Tracker) Admit(amount, now uint64) error {
	period, err := t.slot.Get()
	if err != nil {
		return err
	}
	if period.InitialStake == 0 {
		return ErrNotInitialized
	}

	if now-period.StartedAt >= tele.ChurnWindowDuration {
		period.StartedAt = now
		period.ChurnAmount = amount
	} else {
		churn, overflow := math.SafeAdd(period.ChurnAmount, amount)
		if overflow {
			return errors.New("churn amount overflow")
		}
		period.ChurnAmount = churn
	}

	if err := t.slot.Set(period); err != nil {
		return err
	}

	percent := new(big.Int).SetUint64(period.ChurnAmount)
	percent.Mul(percent, big.NewInt(100))
	percent.Div(percent, new(big.Int).SetUint64(period.InitialStake))
	if percent.Cmp(new(big.Int).SetUint64(t.maxHourlyChurn)) > 0 {
		return errors.WithMessagef(ErrLimitExceeded, "churn of %v%% exceeds maximum of %d%%", percent, t.maxHourlyChurn)
	}
	return nil
}
