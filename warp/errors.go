// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package warp

import "errors"

var (
	// ErrInvalidLength means the input byte length does not match the fixed layout.
	ErrInvalidLength = errors.New("invalid length")
	// ErrTypeMismatch means the embedded message type tag differs from the expected one.
	ErrTypeMismatch = errors.New("message type mismatch")
	// ErrInvalidSignatureLength means the validation signature is not exactly 64 bytes.
	ErrInvalidSignatureLength = errors.New("invalid signature length")
)
