// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"strings"

	"keysweep/internal/artifact"
)

// Deduplicator collapses duplicate candidates within one scan session, keyed
// by (kind, normalized raw value). First occurrence wins; later duplicates
// are dropped silently.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator creates an empty session-scoped set.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Insert records the candidate and reports whether it was first of its kind.
func (d *Deduplicator) Insert(kind artifact.Kind, subtype, rawValue string, src artifact.Source) bool {
	key := dedupeKey(kind, subtype, rawValue, src)
	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct candidates seen.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

func dedupeKey(kind artifact.Kind, subtype, rawValue string, src artifact.Source) string {
	key := kind.String() + "\x00" + Normalize(kind, subtype, rawValue)
	// A wallet-file hit's raw value is the container magic, identical across
	// files; the enclosing path keeps distinct wallet files distinct.
	if kind == artifact.KindWalletFile {
		if fsrc, ok := src.(artifact.FileSystem); ok {
			key += "\x00" + fsrc.Path
		}
	}
	return key
}

// Normalize canonicalizes a raw value for identity comparison. Only
// case-insensitive encodings are lowercased (hex); Base58 and Bech32 payloads
// are case-significant here and left untouched. Seed phrases collapse runs of
// blank space so layout differences do not defeat deduplication.
func Normalize(kind artifact.Kind, subtype, rawValue string) string {
	switch subtype {
	case artifact.SubtypeHexPrivateKey, artifact.SubtypeRawTransaction:
		return strings.ToLower(rawValue)
	}
	if kind == artifact.KindSeedPhrase {
		return strings.Join(strings.Fields(rawValue), " ")
	}
	return rawValue
}
