// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package entropy computes Shannon entropy over byte buffers. Entropy is a
// heuristic enrichment signal only; it never gates artifact creation.
package entropy

import "math"

// EncryptionThreshold is the entropy (bits per byte) above which a buffer is
// flagged as likely encrypted or compressed.
const EncryptionThreshold = 7.5

// minSampleSize guards against tiny buffers where the frequency distribution
// is too sparse to mean anything.
const minSampleSize = 256

// Shannon returns the Shannon entropy of the buffer in bits per byte,
// in [0, 8]. An empty buffer has entropy 0.
func Shannon(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	total := float64(len(data))
	var h float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		h -= p * math.Log2(p)
	}
	return h
}

// LikelyEncrypted reports whether the buffer looks encrypted: large enough to
// sample and above the entropy threshold.
func LikelyEncrypted(data []byte) bool {
	return len(data) >= minSampleSize && Shannon(data) > EncryptionThreshold
}
