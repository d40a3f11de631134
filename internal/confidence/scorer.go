// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package confidence assigns a bounded plausibility score to pattern matches.
// A score is a structural-likelihood estimate, distinct from cryptographic
// validity, and is assigned once at discovery time.
package confidence

import (
	"path/filepath"
	"strings"

	"keysweep/internal/artifact"
)

// MaxScore is the hard ceiling. Pattern matching alone is never proof of
// validity, so a score never reaches 100.
const MaxScore = 95

// FileContext carries the surroundings of a match that influence its score.
type FileContext struct {
	Path      string // enclosing file path, empty for direct input
	FieldPath string // structured-document field path, if any
}

// Base scores by subtype. Shapes with tighter structural constraints (fewer
// strings satisfy them) start higher than loose address patterns.
var baseScores = map[string]int{
	artifact.SubtypeWIF:            75,
	artifact.SubtypeXprv:           80,
	artifact.SubtypeSLIP132Key:     70,
	artifact.SubtypeXpub:           60,
	artifact.SubtypeHexPrivateKey:  60,
	artifact.SubtypeTaprootAddress: 50,
	artifact.SubtypeSegWitAddress:  45,
	artifact.SubtypeLegacyAddress:  40,
	artifact.SubtypeRawTransaction: 50,
}

const seedPhraseBase = 70

// walletSignatureScore is the explicit high-confidence path for wallet-file
// signature hits, independent of the additive model.
const walletSignatureScore = 90

var pathKeywords = []string{"wallet", "key", "btc", "bitcoin", "crypto"}

var sensitiveExtensions = map[string]bool{
	".wallet": true,
	".key":    true,
	".dat":    true,
}

// Score maps a classified match and its file context to a confidence value in
// [0, MaxScore].
func Score(kind artifact.Kind, subtype, rawValue string, ctx FileContext) int {
	if kind == artifact.KindWalletFile {
		return walletSignatureScore
	}

	score := baseScores[subtype]
	if kind == artifact.KindSeedPhrase {
		score = seedPhraseBase
		// Longer phrases are rarer in natural prose.
		if strings.Contains(subtype, "(24 words)") {
			score += 5
		}
	}

	if ctx.Path != "" {
		lower := strings.ToLower(ctx.Path)
		for _, kw := range pathKeywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}
		if sensitiveExtensions[strings.ToLower(filepath.Ext(ctx.Path))] {
			score += 10
		}
	}

	if ctx.FieldPath != "" {
		lower := strings.ToLower(ctx.FieldPath)
		for _, kw := range pathKeywords {
			if strings.Contains(lower, kw) {
				score += 10
				break
			}
		}
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}
