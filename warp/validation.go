// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package warp implements the canonical cross-chain message codec shared by
// the subnet and the remote authority. The byte layout is a wire contract:
// both chains must derive bit-identical encodings and validation IDs.
package warp

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

// Fixed sizes of the wire format.
const (
	InfoLength     = 144 // canonical ValidationInfo encoding
	EnvelopeLength = 148 // 4-byte type tag + InfoLength
)

// layout offsets of the canonical ValidationInfo encoding (big-endian, no padding)
const (
	offSubnetID  = 0
	offNodeID    = 32
	offWeight    = 64
	offExpiry    = 72
	offSignature = 80
)

// ValidationInfo is the canonical validator record.
// Its sha256 digest over the 144-byte encoding is the validation ID, the sole
// key correlating a pending request, an outbound message and an inbound
// acknowledgement.
type ValidationInfo struct {
	SubnetID           tele.Bytes32
	NodeID             tele.Bytes32
	Weight             uint64
	RegistrationExpiry uint64
	Signature          []byte // externally verified, locally only length-checked
}

// Encode returns the validation ID and the 144-byte canonical encoding.
func (v *ValidationInfo) Encode() (tele.Bytes32, []byte, error) {
	if len(v.Signature) != tele.SignatureLength {
		return tele.Bytes32{}, nil, errors.WithMessagef(ErrInvalidSignatureLength, "got %d bytes", len(v.Signature))
	}

	b := make([]byte, InfoLength)
	copy(b[offSubnetID:], v.SubnetID[:])
	copy(b[offNodeID:], v.NodeID[:])
	binary.BigEndian.PutUint64(b[offWeight:], v.Weight)
	binary.BigEndian.PutUint64(b[offExpiry:], v.RegistrationExpiry)
	copy(b[offSignature:], v.Signature)

	return tele.Sum256(b), b, nil
}

// ID returns the validation ID without exposing the encoding.
func (v *ValidationInfo) ID() (tele.Bytes32, error) {
	id, _, err := v.Encode()
	return id, err
}

// Equal reports field-by-field equality.
func (v *ValidationInfo) Equal(o *ValidationInfo) bool {
	return v.SubnetID == o.SubnetID &&
		v.NodeID == o.NodeID &&
		v.Weight == o.Weight &&
		v.RegistrationExpiry == o.RegistrationExpiry &&
		bytes.Equal(v.Signature, o.Signature)
}

// DecodeInfo parses a 144-byte canonical encoding and re-derives its ID.
func DecodeInfo(b []byte) (tele.Bytes32, *ValidationInfo, error) {
	if len(b) != InfoLength {
		return tele.Bytes32{}, nil, errors.WithMessagef(ErrInvalidLength, "want %d bytes, got %d", InfoLength, len(b))
	}

	info := &ValidationInfo{
		SubnetID:           tele.BytesToBytes32(b[offSubnetID : offSubnetID+32]),
		NodeID:             tele.BytesToBytes32(b[offNodeID : offNodeID+32]),
		Weight:             binary.BigEndian.Uint64(b[offWeight:]),
		RegistrationExpiry: binary.BigEndian.Uint64(b[offExpiry:]),
		Signature:          append([]byte(nil), b[offSignature:offSignature+tele.SignatureLength]...),
	}
	return tele.Sum256(b), info, nil
}
