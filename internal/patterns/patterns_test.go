// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package patterns

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"keysweep/internal/artifact"
)

const (
	genesisAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	segwitAddress  = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	taprootAddress = "bc1p5d7rjq7g6rdk2yhzks9smlaqtedr4dekq08ge8ztwac72sfr9rusxg3297"
	wifUncompressed = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
	wifCompressed   = "KwdMAjGmerYanjeui5SHS7JkmpZvVipYvB2LJGU1ZxJwYvP98617"
	hexPrivateKey   = "e9873d79c6d87dc0fb6a5778633389f4453213303da61f20bd67fc233aa33262"
	masterXprv      = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	masterXpub      = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
)

func TestMatch_SingleVectors(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		name    string
		input   string
		kind    artifact.Kind
		subtype string
	}{
		{"legacy address", genesisAddress, artifact.KindAddress, artifact.SubtypeLegacyAddress},
		{"segwit address", segwitAddress, artifact.KindAddress, artifact.SubtypeSegWitAddress},
		{"taproot address", taprootAddress, artifact.KindAddress, artifact.SubtypeTaprootAddress},
		{"wif uncompressed", wifUncompressed, artifact.KindPrivateKey, artifact.SubtypeWIF},
		{"wif compressed", wifCompressed, artifact.KindPrivateKey, artifact.SubtypeWIF},
		{"hex private key", hexPrivateKey, artifact.KindPrivateKey, artifact.SubtypeHexPrivateKey},
		{"xprv", masterXprv, artifact.KindExtendedKey, artifact.SubtypeXprv},
		{"xpub", masterXpub, artifact.KindExtendedKey, artifact.SubtypeXpub},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := lib.Match("found " + tt.input + " in a note")
			if len(matches) != 1 {
				t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
			}
			m := matches[0]
			if m.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", m.Kind, tt.kind)
			}
			if m.Subtype != tt.subtype {
				t.Errorf("subtype = %q, want %q", m.Subtype, tt.subtype)
			}
			if m.Value != tt.input {
				t.Errorf("value = %q, want exact input", m.Value)
			}
		})
	}
}

func TestMatch_TaprootSuppressesGenericBech32(t *testing.T) {
	lib := NewLibrary()
	matches := lib.Match(taprootAddress)

	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Subtype != artifact.SubtypeTaprootAddress {
		t.Errorf("subtype = %q, want Taproot", matches[0].Subtype)
	}
}

func TestMatch_WordBoundaryAnchoring(t *testing.T) {
	lib := NewLibrary()

	// Embedded in a longer token, nothing should match.
	inputs := []string{
		"x" + hexPrivateKey + "y",
		"prefix" + genesisAddress,
		wifCompressed + "0suffix",
	}
	for _, input := range inputs {
		if matches := lib.Match(input); len(matches) != 0 {
			t.Errorf("Match(%q) = %+v, want none", input, matches)
		}
	}
}

func TestMatch_MultipleArtifactsInOneBuffer(t *testing.T) {
	lib := NewLibrary()
	content := "addr: " + genesisAddress + "\nkey: " + wifUncompressed + "\nnote: nothing here\nxpub: " + masterXpub + "\n"

	matches := lib.Match(content)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
	got := map[string]bool{}
	for _, m := range matches {
		got[m.Subtype] = true
	}
	for _, want := range []string{artifact.SubtypeLegacyAddress, artifact.SubtypeWIF, artifact.SubtypeXpub} {
		if !got[want] {
			t.Errorf("missing %q in %+v", want, matches)
		}
	}
}

func seedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "abandon"
	}
	words[n-1] = "about"
	return strings.Join(words, " ")
}

func TestMatch_SeedPhraseWordCounts(t *testing.T) {
	lib := NewLibrary()

	tests := []struct {
		words int
		want  int
	}{
		{11, 0},
		{12, 1},
		{13, 0},
		{15, 1},
		{18, 1},
		{21, 1},
		{24, 1},
		{25, 0},
	}

	for _, tt := range tests {
		matches := lib.Match(seedWords(tt.words))
		if len(matches) != tt.want {
			t.Errorf("%d words: got %d matches, want %d", tt.words, len(matches), tt.want)
			continue
		}
		if tt.want == 1 {
			m := matches[0]
			if m.Kind != artifact.KindSeedPhrase {
				t.Errorf("%d words: kind = %v", tt.words, m.Kind)
			}
			if m.Subtype != artifact.SeedPhraseSubtype(tt.words) {
				t.Errorf("%d words: subtype = %q", tt.words, m.Subtype)
			}
		}
	}
}

func TestMatch_SeedPhraseNeedsBlankSeparators(t *testing.T) {
	lib := NewLibrary()

	// Tab-separated still counts as one run.
	if matches := lib.Match(strings.ReplaceAll(seedWords(12), " ", "\t")); len(matches) != 1 {
		t.Errorf("tab-separated 12 words: got %d matches, want 1", len(matches))
	}

	// A comma splits the run into 6+6, neither a valid count.
	words := strings.Split(seedWords(12), " ")
	broken := strings.Join(words[:6], " ") + ", " + strings.Join(words[6:], " ")
	if matches := lib.Match(broken); len(matches) != 0 {
		t.Errorf("comma-broken run: got %d matches, want 0", len(matches))
	}

	// A newline also ends the run.
	twoLines := strings.Join(words[:6], " ") + "\n" + strings.Join(words[6:], " ")
	if matches := lib.Match(twoLines); len(matches) != 0 {
		t.Errorf("newline-broken run: got %d matches, want 0", len(matches))
	}
}

func TestMatch_SeedPhraseRejectsDisqualifyingTokens(t *testing.T) {
	lib := NewLibrary()

	tests := []string{
		// An uppercase word breaks the run.
		strings.Replace(seedWords(12), "abandon", "Abandon", 1),
		// A too-short token breaks the run.
		strings.Replace(seedWords(12), "abandon", "ab", 1),
		// A too-long token breaks the run.
		strings.Replace(seedWords(12), "abandon", "abandoned", 1),
	}
	for _, input := range tests {
		if matches := lib.Match(input); len(matches) != 0 {
			t.Errorf("Match(%q): got %d matches, want 0", input, len(matches))
		}
	}
}

func TestMatchHexCarved_FindsSerializedExtendedKey(t *testing.T) {
	lib := NewLibrary()

	// Two filler bytes, then a serialized xprv: version 0488ade4 plus 74
	// payload bytes.
	data := []byte{0xde, 0xad, 0x04, 0x88, 0xad, 0xe4}
	data = append(data, bytes.Repeat([]byte{0x11}, 74)...)

	matches := lib.MatchHexCarved(hex.EncodeToString(data))
	if len(matches) != 1 {
		t.Fatalf("expected 1 carved match, got %d: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.Kind != artifact.KindExtendedKey || m.Subtype != artifact.SubtypeXprv {
		t.Errorf("carved kind/subtype = %v/%q", m.Kind, m.Subtype)
	}
	if m.Start != 4 {
		t.Errorf("carved hex offset = %d, want 4", m.Start)
	}
	if len(m.Value) != 156 {
		t.Errorf("carved value length = %d, want 156", len(m.Value))
	}
}

func TestMatchHexCarved_IgnoresNibbleMisalignedHits(t *testing.T) {
	lib := NewLibrary()

	// Hex encoding reads "a0488ade4...": the version bytes appear at an odd
	// hex offset, which no byte sequence actually contains.
	data := []byte{0xa0, 0x48, 0x8a, 0xde, 0x41}
	data = append(data, bytes.Repeat([]byte{0x11}, 78)...)

	if matches := lib.MatchHexCarved(hex.EncodeToString(data)); len(matches) != 0 {
		t.Errorf("expected no carved matches, got %+v", matches)
	}
}

func TestMatchSignatures(t *testing.T) {
	berkeley := make([]byte, 64)
	copy(berkeley[12:], []byte{0x62, 0x31, 0x05, 0x00})

	sqlite := append([]byte("SQLite format 3\x00"), make([]byte, 32)...)

	tests := []struct {
		name    string
		data    []byte
		want    int
		subtype string
	}{
		{"berkeley db wallet", berkeley, 1, artifact.SubtypeBerkeleyWallet},
		{"sqlite wallet", sqlite, 1, artifact.SubtypeSQLiteWallet},
		{"plain bytes", []byte("hello world, nothing to see"), 0, ""},
		{"too short", []byte{0x62, 0x31}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := MatchSignatures(tt.data)
			if len(matches) != tt.want {
				t.Fatalf("got %d matches, want %d", len(matches), tt.want)
			}
			if tt.want == 1 {
				if matches[0].Kind != artifact.KindWalletFile {
					t.Errorf("kind = %v, want WalletFile", matches[0].Kind)
				}
				if matches[0].Subtype != tt.subtype {
					t.Errorf("subtype = %q, want %q", matches[0].Subtype, tt.subtype)
				}
			}
		})
	}
}
