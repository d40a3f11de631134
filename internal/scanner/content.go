// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scanner applies the pattern library and confidence scorer to
// decoded text, raw bytes and structured documents, producing raw artifact
// candidates with provenance.
package scanner

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"keysweep/internal/artifact"
	"keysweep/internal/confidence"
	"keysweep/internal/entropy"
	"keysweep/internal/observability"
	"keysweep/internal/patterns"
)

// RawArtifact is a scored pattern hit before deduplication and storage.
type RawArtifact struct {
	Kind       artifact.Kind
	Subtype    string
	Value      string
	Source     artifact.Source
	Confidence int
	Tags       []string
	Metadata   map[string]any
}

// ContentScanner is stateless apart from its compiled pattern library and is
// safe for concurrent use.
type ContentScanner struct {
	library  *patterns.Library
	observer *observability.StandardObserver
}

// New creates a ContentScanner with a freshly compiled pattern library.
func New(observer *observability.StandardObserver) *ContentScanner {
	return &ContentScanner{
		library:  patterns.NewLibrary(),
		observer: observer,
	}
}

// ScanDirect scans pasted text. Synchronous, no side effects.
func (s *ContentScanner) ScanDirect(text string) []RawArtifact {
	return s.scanMatches(s.library.Match(text), text, "text", func(m patterns.Match) artifact.Source {
		return artifact.DirectInput{}
	}, confidence.FileContext{})
}

// ScanFileText scans decoded text belonging to a file (plaintext files, PDF
// extraction output).
func (s *ContentScanner) ScanFileText(text, path string) []RawArtifact {
	return s.scanMatches(s.library.Match(text), text, "text", func(m patterns.Match) artifact.Source {
		return artifact.FileSystem{Path: path, Offset: -1, Size: int64(len(text))}
	}, confidence.FileContext{Path: path})
}

// CarveHex hex-encodes raw bytes and scans the encoding for hex-shaped key
// material. This pass runs independently of text decoding so keys embedded
// with no textual framing are still found.
func (s *ContentScanner) CarveHex(data []byte, path string) []RawArtifact {
	encoded := hex.EncodeToString(data)
	raws := s.scanMatches(s.library.MatchHexCarved(encoded), encoded, "hex-carve", func(m patterns.Match) artifact.Source {
		return artifact.FileSystem{Path: path, Offset: int64(m.Start / 2), Size: int64(len(data))}
	}, confidence.FileContext{Path: path})
	for i := range raws {
		raws[i].Metadata["byte_offset"] = raws[i].Source.(artifact.FileSystem).Offset
	}
	return raws
}

// ScanSignatures checks raw bytes against wallet-file fingerprints and
// enriches hits with an entropy reading (likely-encrypted heuristic).
func (s *ContentScanner) ScanSignatures(data []byte, path string) []RawArtifact {
	matches := patterns.MatchSignatures(data)
	if len(matches) == 0 {
		return nil
	}

	ent := entropy.Shannon(data)
	raws := s.scanMatches(matches, "", "signature", func(m patterns.Match) artifact.Source {
		return artifact.FileSystem{Path: path, Offset: int64(m.Start), Size: int64(len(data))}
	}, confidence.FileContext{Path: path})
	for i := range raws {
		raws[i].Metadata["entropy"] = ent
		raws[i].Metadata["likely_encrypted"] = entropy.LikelyEncrypted(data)
		raws[i].Metadata["file_size"] = len(data)
	}
	return raws
}

// ScanBytes runs the full dual-pass treatment on one file's bytes: a text
// pass over a printable-normalized copy, the independent hex-carve pass, and
// the wallet signature check. The text pass runs even for content that is
// mostly binary; normalization keeps the matchers safe on arbitrary input.
func (s *ContentScanner) ScanBytes(data []byte, path string) []RawArtifact {
	var finish func(bool, map[string]any)
	if s.observer != nil {
		finish = s.observer.StartTiming("content_scanner", "scan_bytes", path)
	}

	var out []RawArtifact
	out = append(out, s.ScanFileText(normalizePrintable(data), path)...)
	out = append(out, s.CarveHex(data, path)...)
	out = append(out, s.ScanSignatures(data, path)...)

	if finish != nil {
		finish(true, map[string]any{"match_count": len(out), "content_length": len(data)})
	}
	return out
}

// ScanStructured recurses into every string leaf of a decoded document
// (JSON, YAML, image metadata), attaching the field path as provenance. One
// shared walk covers every structured format.
func (s *ContentScanner) ScanStructured(doc any, docPath string) []RawArtifact {
	var out []RawArtifact
	s.walkStructured(doc, docPath, "$", &out)
	return out
}

func (s *ContentScanner) walkStructured(node any, docPath, fieldPath string, out *[]RawArtifact) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.walkStructured(v[k], docPath, fieldPath+"."+k, out)
		}
	case map[any]any:
		// Older YAML shapes decode to interface-keyed maps.
		keys := make([]string, 0, len(v))
		index := make(map[string]any, len(v))
		for k, val := range v {
			ks := fmt.Sprintf("%v", k)
			keys = append(keys, ks)
			index[ks] = val
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.walkStructured(index[k], docPath, fieldPath+"."+k, out)
		}
	case []any:
		for i, item := range v {
			s.walkStructured(item, docPath, fmt.Sprintf("%s[%d]", fieldPath, i), out)
		}
	case string:
		raws := s.scanMatches(s.library.Match(v), v, "structured", func(m patterns.Match) artifact.Source {
			return artifact.StructuredImport{DocumentPath: docPath, FieldPath: fieldPath}
		}, confidence.FileContext{Path: docPath, FieldPath: fieldPath})
		*out = append(*out, raws...)
	}
}

func (s *ContentScanner) scanMatches(matches []patterns.Match, text, method string, mkSource func(patterns.Match) artifact.Source, fctx confidence.FileContext) []RawArtifact {
	if len(matches) == 0 {
		return nil
	}

	out := make([]RawArtifact, 0, len(matches))
	for _, m := range matches {
		tags := []string{"method:" + method, "pattern:" + m.Pattern}
		if method == "text" && text != "" {
			tags = append(tags, fmt.Sprintf("line:%d", lineOf(text, m.Start)))
		}
		if fctx.FieldPath != "" {
			tags = append(tags, "field:"+fctx.FieldPath)
		}

		out = append(out, RawArtifact{
			Kind:       m.Kind,
			Subtype:    m.Subtype,
			Value:      m.Value,
			Source:     mkSource(m),
			Confidence: confidence.Score(m.Kind, m.Subtype, m.Value, fctx),
			Tags:       tags,
			Metadata:   map[string]any{},
		})
	}
	return out
}

func lineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

// normalizePrintable maps every byte outside the safe printable range to a
// space placeholder before text-mode matching. The placeholder acts as a
// token boundary, so binary noise cannot splice into a match.
func normalizePrintable(data []byte) string {
	buf := make([]byte, len(data))
	for i, b := range data {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 0x20 && b <= 0x7e) {
			buf[i] = b
		} else {
			buf[i] = ' '
		}
	}
	return string(buf)
}
