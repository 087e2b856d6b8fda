// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fortest provides shared test doubles: deterministic accounts, a
// schnorr signature helper and an in-process message bus.
package fortest

import (
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

type Account struct {
	Address tele.Address
	Key     *secp256k1.PrivateKey
}

var Accounts = []Account{
	hexToAccount("dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65"),
	hexToAccount("321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51"),
	hexToAccount("2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2"),
	hexToAccount("593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e"),
	hexToAccount("ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058"),
	hexToAccount("88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b"),
}

func hexToAccount(str string) Account {
	pk, err := crypto.HexToECDSA(str)
	if err != nil {
		panic(err)
	}
	addr := crypto.PubkeyToAddress(pk.PublicKey)
	return Account{
		Address: tele.BytesToAddress(addr.Bytes()),
		Key:     secp256k1.PrivKeyFromBytes(crypto.FromECDSA(pk)),
	}
}

// SignInfo produces the 64-byte schnorr signature binding a validator
// record's fields. The manager only checks the length; the remote authority
// is the verifier.
func SignInfo(key *secp256k1.PrivateKey, subnetID, nodeID tele.Bytes32, weight, expiry uint64) []byte {
	var buf [80]byte
	copy(buf[0:32], subnetID.Bytes())
	copy(buf[32:64], nodeID.Bytes())
	binary.BigEndian.PutUint64(buf[64:72], weight)
	binary.BigEndian.PutUint64(buf[72:80], expiry)
	digest := tele.Sum256(buf[:])

	sig, err := schnorr.Sign(key, digest.Bytes())
	if err != nil {
		panic(err)
	}
	return sig.Serialize()
}
