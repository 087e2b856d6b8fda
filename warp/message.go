// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package warp

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

// MessageType is the 4-byte tag leading every cross-chain message.
type MessageType uint32

// Defined message type tags.
const (
	TypeUnknown MessageType = iota
	TypeRegisterSubnetValidator
	TypeSubnetValidatorRegistered
	TypeSetSubnetValidatorWeight
	TypeSubnetValidatorWeightSet
	TypeValidationPeriodInvalidated
)

func (t MessageType) String() string {
	switch t {
	case TypeRegisterSubnetValidator:
		return "RegisterSubnetValidator"
	case TypeSubnetValidatorRegistered:
		return "SubnetValidatorRegistered"
	case TypeSetSubnetValidatorWeight:
		return "SetSubnetValidatorWeight"
	case TypeSubnetValidatorWeightSet:
		return "SubnetValidatorWeightSet"
	case TypeValidationPeriodInvalidated:
		return "ValidationPeriodInvalidated"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// Message is a cross-chain payload already verified by the message bus.
// The codec only checks its structure, never its authenticity.
type Message struct {
	SourceChainID tele.Bytes32
	Payload       []byte
}

// Pack wraps a ValidationInfo into a 148-byte typed envelope.
func Pack(t MessageType, info *ValidationInfo) (tele.Bytes32, []byte, error) {
	id, encoded, err := info.Encode()
	if err != nil {
		return tele.Bytes32{}, nil, err
	}

	b := make([]byte, EnvelopeLength)
	binary.BigEndian.PutUint32(b, uint32(t))
	copy(b[4:], encoded)
	return id, b, nil
}

// Unpack parses a 148-byte envelope, requiring the embedded tag to equal the
// expected one. The returned validation ID is the sha256 of the payload,
// identical to what Encode produced on the sending side.
func Unpack(expected MessageType, b []byte) (tele.Bytes32, *ValidationInfo, error) {
	if len(b) != EnvelopeLength {
		return tele.Bytes32{}, nil, errors.WithMessagef(ErrInvalidLength, "want %d bytes, got %d", EnvelopeLength, len(b))
	}
	if got := MessageType(binary.BigEndian.Uint32(b)); got != expected {
		return tele.Bytes32{}, nil, errors.WithMessagef(ErrTypeMismatch, "want %v, got %v", expected, got)
	}
	return DecodeInfo(b[4:])
}

// PeekType reads the embedded type tag without parsing the payload.
func PeekType(b []byte) (MessageType, error) {
	if len(b) != EnvelopeLength {
		return TypeUnknown, errors.WithMessagef(ErrInvalidLength, "want %d bytes, got %d", EnvelopeLength, len(b))
	}
	return MessageType(binary.BigEndian.Uint32(b)), nil
}
