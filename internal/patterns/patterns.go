// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package patterns holds the fixed library of key-material matchers. Matchers
// are stateless and answer "could this be X", never "is this X"; checksum
// and curve validation belong to the external checker.
package patterns

import (
	"regexp"
	"strings"

	"keysweep/internal/artifact"
)

// Match is one raw pattern hit inside a scanned buffer. Start and End are
// byte offsets into the buffer that was matched.
type Match struct {
	Kind    artifact.Kind
	Subtype string
	Value   string
	Start   int
	End     int
	Pattern string
}

// family groups patterns that compete for the same text shape. Within a
// family, matches from a specific pattern suppress overlapping matches from
// general ones (Taproot over generic Bech32).
type textPattern struct {
	name     string
	kind     artifact.Kind
	subtype  string
	re       *regexp.Regexp
	family   string
	specific bool
}

// carvePattern matches key material inside a hex encoding of raw bytes. The
// encoding is one unbroken hex run, so word boundaries carry no information
// there; carve patterns are instead keyed on distinctive serialization
// prefixes (BIP32 version bytes, transaction version words) and required to
// land on an even offset, i.e. byte-aligned.
type carvePattern struct {
	name    string
	kind    artifact.Kind
	subtype string
	re      *regexp.Regexp
}

// Library is the fixed set of classified matchers. It is safe for concurrent
// use; all state is compiled once at construction.
type Library struct {
	patterns []textPattern
	carve    []carvePattern
}

// Every pattern is word-boundary anchored so substrings of longer unrelated
// tokens never match.
const (
	base58Class = `[1-9A-HJ-NP-Za-km-z]`
	bech32Class = `[qpzry9x8gf2tvdw0s3jn54khce6mua7l]`
)

// NewLibrary compiles the full matcher set.
func NewLibrary() *Library {
	return &Library{patterns: []textPattern{
		{
			name:     "taproot-address",
			kind:     artifact.KindAddress,
			subtype:  artifact.SubtypeTaprootAddress,
			re:       regexp.MustCompile(`\bbc1p` + bech32Class + `{58}\b`),
			family:   "bech32",
			specific: true,
		},
		{
			name:    "bech32-address",
			kind:    artifact.KindAddress,
			subtype: artifact.SubtypeSegWitAddress,
			re:      regexp.MustCompile(`\bbc1` + bech32Class + `{25,87}\b`),
			family:  "bech32",
		},
		{
			name:    "legacy-address",
			kind:    artifact.KindAddress,
			subtype: artifact.SubtypeLegacyAddress,
			re:      regexp.MustCompile(`\b[13]` + base58Class + `{25,34}\b`),
			family:  "base58",
		},
		{
			name:    "wif-uncompressed",
			kind:    artifact.KindPrivateKey,
			subtype: artifact.SubtypeWIF,
			re:      regexp.MustCompile(`\b5[HJK]` + base58Class + `{49}\b`),
			family:  "base58",
		},
		{
			name:    "wif-compressed",
			kind:    artifact.KindPrivateKey,
			subtype: artifact.SubtypeWIF,
			re:      regexp.MustCompile(`\b[KL]` + base58Class + `{51}\b`),
			family:  "base58",
		},
		{
			name:    "hex-private-key",
			kind:    artifact.KindPrivateKey,
			subtype: artifact.SubtypeHexPrivateKey,
			re:      regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`),
			family:  "hex",
		},
		{
			name:    "bip32-xprv",
			kind:    artifact.KindExtendedKey,
			subtype: artifact.SubtypeXprv,
			re:      regexp.MustCompile(`\bxprv` + base58Class + `{107,108}\b`),
			family:  "base58",
		},
		{
			name:    "bip32-xpub",
			kind:    artifact.KindExtendedKey,
			subtype: artifact.SubtypeXpub,
			re:      regexp.MustCompile(`\bxpub` + base58Class + `{107,108}\b`),
			family:  "base58",
		},
		{
			name:    "slip132-extended-key",
			kind:    artifact.KindExtendedKey,
			subtype: artifact.SubtypeSLIP132Key,
			re:      regexp.MustCompile(`\b[yz](?:prv|pub)` + base58Class + `{107,108}\b`),
			family:  "base58",
		},
		{
			name:    "raw-transaction",
			kind:    artifact.KindTransaction,
			subtype: artifact.SubtypeRawTransaction,
			re:      regexp.MustCompile(`\b0[12]000000[0-9a-fA-F]{112,}\b`),
			family:  "txhex",
		},
	}, carve: []carvePattern{
		// 0488ade4 / 0488b21e are the mainnet BIP32 version bytes; the
		// serialized key is a fixed 78 bytes (156 hex digits).
		{
			name:    "carved-bip32-xprv",
			kind:    artifact.KindExtendedKey,
			subtype: artifact.SubtypeXprv,
			re:      regexp.MustCompile(`0488ade4[0-9a-f]{148}`),
		},
		{
			name:    "carved-bip32-xpub",
			kind:    artifact.KindExtendedKey,
			subtype: artifact.SubtypeXpub,
			re:      regexp.MustCompile(`0488b21e[0-9a-f]{148}`),
		},
		{
			name:    "carved-raw-transaction",
			kind:    artifact.KindTransaction,
			subtype: artifact.SubtypeRawTransaction,
			re:      regexp.MustCompile(`0[12]000000[0-9a-f]{112,400}`),
		},
	}}
}

// Match applies every text matcher to the buffer. Hits are grouped by pattern
// and in buffer order within each pattern. Specific-over-general: a hit from a
// general pattern that overlaps a hit from a specific pattern of the same
// family is dropped before emission, so a Taproot-shaped string is never also
// reported as Bech32.
func (l *Library) Match(content string) []Match {
	matches := l.matchPatterns(content)
	matches = append(matches, matchSeedPhrases(content)...)
	return matches
}

// MatchHexCarved applies the carve matchers to a hex-encoded rendering of raw
// bytes, so serialized keys embedded without textual framing are still found.
// Offsets in the returned matches are hex-string offsets, always even.
func (l *Library) MatchHexCarved(hexContent string) []Match {
	var out []Match
	for _, p := range l.carve {
		for _, loc := range p.re.FindAllStringIndex(hexContent, -1) {
			if loc[0]%2 != 0 {
				continue
			}
			out = append(out, Match{
				Kind:    p.kind,
				Subtype: p.subtype,
				Value:   hexContent[loc[0]:loc[1]],
				Start:   loc[0],
				End:     loc[1],
				Pattern: p.name,
			})
		}
	}
	return out
}

func (l *Library) matchPatterns(content string) []Match {
	var out []Match
	// Specific patterns run first so their spans can shadow general ones.
	specificSpans := map[string][][2]int{}

	for _, p := range l.patterns {
		if !p.specific {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			specificSpans[p.family] = append(specificSpans[p.family], [2]int{loc[0], loc[1]})
			out = append(out, Match{
				Kind:    p.kind,
				Subtype: p.subtype,
				Value:   content[loc[0]:loc[1]],
				Start:   loc[0],
				End:     loc[1],
				Pattern: p.name,
			})
		}
	}

	for _, p := range l.patterns {
		if p.specific {
			continue
		}
		for _, loc := range p.re.FindAllStringIndex(content, -1) {
			if overlapsAny(loc[0], loc[1], specificSpans[p.family]) {
				continue
			}
			out = append(out, Match{
				Kind:    p.kind,
				Subtype: p.subtype,
				Value:   content[loc[0]:loc[1]],
				Start:   loc[0],
				End:     loc[1],
				Pattern: p.name,
			})
		}
	}

	return out
}

func overlapsAny(start, end int, spans [][2]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}

// Seed phrases are matched by tokenizing each line rather than by a single
// regex: the run must consist of exactly 12, 15, 18, 21 or 24 consecutive
// lowercase-alphabetic tokens of length 3-8, and a run of any other length is
// not emitted as anything.
var seedWordCounts = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

var seedToken = regexp.MustCompile(`^[a-z]{3,8}$`)

func matchSeedPhrases(content string) []Match {
	var out []Match
	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		out = append(out, seedPhrasesInLine(line, offset)...)
		offset += len(line)
	}
	return out
}

type tokenSpan struct {
	start, end int
	ok         bool
}

func seedPhrasesInLine(line string, base int) []Match {
	var tokens []tokenSpan
	i := 0
	for i < len(line) {
		if !isWordByte(line[i]) {
			i++
			continue
		}
		j := i
		for j < len(line) && isWordByte(line[j]) {
			j++
		}
		tokens = append(tokens, tokenSpan{start: i, end: j, ok: seedToken.MatchString(line[i:j])})
		i = j
	}

	var out []Match
	run := 0
	for idx := 0; idx <= len(tokens); idx++ {
		if idx < len(tokens) && tokens[idx].ok && (run == 0 || onlyBlank(line, tokens[idx-1].end, tokens[idx].start)) {
			run++
			continue
		}
		// Run ended (qualifying token chain broken, or a non-blank separator).
		if seedWordCounts[run] {
			first := tokens[idx-run]
			last := tokens[idx-1]
			out = append(out, Match{
				Kind:    artifact.KindSeedPhrase,
				Subtype: artifact.SeedPhraseSubtype(run),
				Value:   line[first.start:last.end],
				Start:   base + first.start,
				End:     base + last.end,
				Pattern: "bip39-seed-phrase",
			})
		}
		run = 0
		// A non-qualifying token ends the run; a qualifying one separated by
		// non-blank punctuation starts a fresh run.
		if idx < len(tokens) && tokens[idx].ok {
			run = 1
		}
	}
	return out
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}

func onlyBlank(line string, from, to int) bool {
	for k := from; k < to; k++ {
		if line[k] != ' ' && line[k] != '\t' {
			return false
		}
	}
	return true
}
