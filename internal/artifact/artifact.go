// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package artifact defines the shared data model for discovered key-material
// candidates: the Artifact entity, its kind and lifecycle enumerations, and
// the provenance source variants.
package artifact

import (
	"fmt"
	"time"

	"keysweep/internal/security"
)

// Kind classifies an Artifact into one of the fixed artifact families.
type Kind int

const (
	KindAddress Kind = iota
	KindPrivateKey
	KindExtendedKey
	KindSeedPhrase
	KindWalletFile
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "Address"
	case KindPrivateKey:
		return "PrivateKey"
	case KindExtendedKey:
		return "ExtendedKey"
	case KindSeedPhrase:
		return "SeedPhrase"
	case KindWalletFile:
		return "WalletFile"
	case KindTransaction:
		return "Transaction"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Subtype names. Kind is derived from subtype at creation time and never
// changes afterwards.
const (
	SubtypeLegacyAddress  = "Legacy Address (P2PKH/P2SH)"
	SubtypeSegWitAddress  = "Bech32 SegWit Address"
	SubtypeTaprootAddress = "Taproot Address (P2TR)"
	SubtypeWIF            = "WIF Private Key"
	SubtypeHexPrivateKey  = "Raw Hex Private Key"
	SubtypeXprv           = "BIP32 xprv"
	SubtypeXpub           = "BIP32 xpub"
	SubtypeSLIP132Key     = "SLIP-132 Extended Key"
	SubtypeBerkeleyWallet = "Berkeley DB Wallet File"
	SubtypeSQLiteWallet   = "SQLite Wallet File"
	SubtypeRawTransaction = "Raw Transaction Hex"
)

// SeedPhraseSubtype returns the subtype name for a seed phrase of the given
// word count, e.g. "BIP39 Seed Phrase (24 words)".
func SeedPhraseSubtype(words int) string {
	return fmt.Sprintf("BIP39 Seed Phrase (%d words)", words)
}

// State is the lifecycle state of an Artifact. The only legal transitions are
// Pending to Valid, Invalid or Error; terminal states never change again
// within a session.
type State int

const (
	StatePending State = iota
	StateValid
	StateInvalid
	StateError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateValid:
		return "Valid"
	case StateInvalid:
		return "Invalid"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source describes where an Artifact was discovered. It is a closed set of
// variants; Describe returns a human-readable provenance string.
type Source interface {
	isSource()
	Describe() string
}

// DirectInput marks artifacts found in pasted text.
type DirectInput struct{}

func (DirectInput) isSource() {}

func (DirectInput) Describe() string { return "direct input" }

// FileSystem marks artifacts found while traversing a file tree. Offset is
// the byte offset of the match within the file where known (hex carving and
// wallet signatures), -1 otherwise.
type FileSystem struct {
	Path   string
	Offset int64
	Size   int64
}

func (FileSystem) isSource() {}

func (s FileSystem) Describe() string {
	if s.Offset >= 0 {
		return fmt.Sprintf("%s @ byte %d", s.Path, s.Offset)
	}
	return s.Path
}

// StructuredImport marks artifacts found in a string leaf of a structured
// document (JSON/YAML exports, image metadata).
type StructuredImport struct {
	DocumentPath string
	FieldPath    string
}

func (StructuredImport) isSource() {}

func (s StructuredImport) Describe() string {
	return fmt.Sprintf("%s :: %s", s.DocumentPath, s.FieldPath)
}

// Artifact is one discovered key-material candidate. RawValue is immutable
// after creation and treated as sensitive: it is mirrored into SecureValue
// for scrubbing when the session is cleared, and only Preview() may appear in
// user-visible output.
type Artifact struct {
	ID          string
	Kind        Kind
	Subtype     string
	RawValue    string
	SecureValue *security.SecureString
	Source      Source
	Confidence  int
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tags        []string
	Metadata    map[string]any
	Warnings    []string
}

// Preview returns a redacted rendering of RawValue safe for logs and reports.
func (a *Artifact) Preview() string {
	if a.Kind == KindSeedPhrase {
		return security.RedactPhrase(a.RawValue)
	}
	return security.RedactValue(a.RawValue)
}

// Clear scrubs the sensitive fields. The Artifact is unusable afterwards.
func (a *Artifact) Clear() {
	a.RawValue = ""
	if a.SecureValue != nil {
		a.SecureValue.Clear()
		a.SecureValue = nil
	}
}

// Phase is the coarse stage of a scan session, carried on progress events and
// on the terminal result.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseScanning
	PhaseValidating
	PhaseCompleted
	PhaseCancelled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "Starting"
	case PhaseScanning:
		return "Scanning"
	case PhaseValidating:
		return "Validating"
	case PhaseCompleted:
		return "Completed"
	case PhaseCancelled:
		return "Cancelled"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Progress is a cumulative snapshot emitted after each file and each
// completed directory, and after each validation batch.
type Progress struct {
	Phase              Phase
	FilesScanned       int
	TotalFiles         int
	ArtifactsFound     int
	ArtifactsValidated int
	BytesProcessed     int64
	Elapsed            time.Duration
	CurrentPath        string
}

// Warning records a skippable-unit fault tied to a path. Warnings never abort
// a scan.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}
