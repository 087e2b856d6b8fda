// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/staker/churn"
	"github.com/BunsDev/avalanche-teleporter/staker/validation"
)

var (
	// ErrZeroNodeID means a registration named the zero node identifier.
	ErrZeroNodeID = errors.New("node id must not be zero")
	// ErrInvalidExpiry means the registration expiry is in the past or beyond the horizon.
	ErrInvalidExpiry = errors.New("registration expiry outside the allowed window")
	// ErrStakeOutOfBounds means the derived weight is below the minimum or above the maximum.
	ErrStakeOutOfBounds = errors.New("stake out of bounds")
	// ErrInitialStakeNotProvided gates registration until bootstrapping is complete.
	ErrInitialStakeNotProvided = errors.New("initial stake not fully provided")
	// ErrBootstrapComplete means bootstrap stake was offered after the gate closed.
	ErrBootstrapComplete = errors.New("bootstrap already complete")
	// ErrNotOwner means the caller does not own the validation it tried to end.
	ErrNotOwner = errors.New("caller is not the record owner")
	// ErrNoPendingMessage means a resend was requested but nothing is pending.
	ErrNoPendingMessage = errors.New("no pending message")

	// ErrChurnLimitExceeded is returned when an admission crosses the hourly churn limit.
	ErrChurnLimitExceeded = churn.ErrLimitExceeded
	// ErrUnknownValidation covers both absent records and records in the wrong
	// state for the requested transition.
	ErrUnknownValidation = validation.ErrNotFound
	// ErrDuplicateActiveNode means the nodeID already has a live validation.
	ErrDuplicateActiveNode = validation.ErrDuplicateActiveNode
)
