// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validation owns the authoritative registry of validator lifecycle
// records, keyed by validation ID with a nodeID index enforcing at most one
// live validation per node.
package validation

import (
	"github.com/BunsDev/avalanche-teleporter/tele"
	"github.com/BunsDev/avalanche-teleporter/warp"
)

// Status of a validation lifecycle record.
type Status = uint8

const (
	StatusUnknown        = Status(iota) // zero value, record absent
	StatusPendingAdded                  // registration message sent, not yet acknowledged
	StatusActive                        // acknowledged by the authority, rewards accruing
	StatusPendingRemoved                // removal requested, stake still locked
	StatusCompleted                     // period ended, stake released
)

// StatusName returns a human readable status.
func StatusName(s Status) string {
	switch s {
	case StatusPendingAdded:
		return "pending-added"
	case StatusActive:
		return "active"
	case StatusPendingRemoved:
		return "pending-removed"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Validation is the lifecycle record of one validator registration.
// NodeID, Weight, RegistrationExpiry and Signature are copied from the
// ValidationInfo the record was created from, so the original canonical
// encoding can be rebuilt at any time.
type Validation struct {
	NodeID             tele.Bytes32
	Owner              tele.Address // account entitled to reclaim stake
	Weight             uint64
	RegistrationExpiry uint64
	Signature          []byte
	Status             Status
	StartedAt          uint64 // when the record became Active, 0 before
	EndedAt            uint64 // when removal was initiated, 0 until then
	Rewarded           bool
}

// IsEmpty returns whether the record holds no registration.
func (v *Validation) IsEmpty() bool {
	return v.Status == StatusUnknown
}

// IsLive returns whether the record still binds its nodeID.
func (v *Validation) IsLive() bool {
	return v.Status == StatusPendingAdded || v.Status == StatusActive || v.Status == StatusPendingRemoved
}

// Info rebuilds the canonical validator record for the given subnet.
func (v *Validation) Info(subnetID tele.Bytes32) *warp.ValidationInfo {
	return &warp.ValidationInfo{
		SubnetID:           subnetID,
		NodeID:             v.NodeID,
		Weight:             v.Weight,
		RegistrationExpiry: v.RegistrationExpiry,
		Signature:          v.Signature,
	}
}
