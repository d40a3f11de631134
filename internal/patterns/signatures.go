// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"bytes"
	"encoding/hex"

	"keysweep/internal/artifact"
)

// Signature is a byte-level wallet-file fingerprint checked at a fixed offset.
type Signature struct {
	Name    string
	Subtype string
	Magic   []byte
	Offset  int
}

// Wallet container fingerprints. Bitcoin Core used a Berkeley DB btree for
// wallet.dat (magic 0x00053162 at byte 12, either endianness); descriptor
// wallets moved to SQLite.
var signatures = []Signature{
	{
		Name:    "berkeley-db-btree-le",
		Subtype: artifact.SubtypeBerkeleyWallet,
		Magic:   []byte{0x62, 0x31, 0x05, 0x00},
		Offset:  12,
	},
	{
		Name:    "berkeley-db-btree-be",
		Subtype: artifact.SubtypeBerkeleyWallet,
		Magic:   []byte{0x00, 0x05, 0x31, 0x62},
		Offset:  12,
	},
	{
		Name:    "sqlite-3",
		Subtype: artifact.SubtypeSQLiteWallet,
		Magic:   []byte("SQLite format 3\x00"),
		Offset:  0,
	},
}

// MatchSignatures checks the buffer head against every wallet-file signature.
// The match value is the hex rendering of the magic; the byte offset is the
// signature offset within the file.
func MatchSignatures(data []byte) []Match {
	var out []Match
	for _, sig := range signatures {
		end := sig.Offset + len(sig.Magic)
		if len(data) < end {
			continue
		}
		if !bytes.Equal(data[sig.Offset:end], sig.Magic) {
			continue
		}
		out = append(out, Match{
			Kind:    artifact.KindWalletFile,
			Subtype: sig.Subtype,
			Value:   hex.EncodeToString(sig.Magic),
			Start:   sig.Offset,
			End:     end,
			Pattern: sig.Name,
		})
	}
	return out
}
