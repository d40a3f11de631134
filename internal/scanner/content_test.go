// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"bytes"
	"strings"
	"testing"

	"keysweep/internal/artifact"
)

const (
	testWIF    = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
	testHexKey = "e9873d79c6d87dc0fb6a5778633389f4453213303da61f20bd67fc233aa33262"
)

func TestScanDirect_ExactRawValue(t *testing.T) {
	s := New(nil)
	raws := s.ScanDirect("backup key " + testWIF + " do not share")

	if len(raws) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(raws))
	}
	r := raws[0]
	if r.Value != testWIF {
		t.Errorf("value = %q, want exact matched text", r.Value)
	}
	if _, ok := r.Source.(artifact.DirectInput); !ok {
		t.Errorf("source = %T, want DirectInput", r.Source)
	}
	if r.Confidence <= 0 || r.Confidence > 95 {
		t.Errorf("confidence %d out of range", r.Confidence)
	}
}

func TestScanDirect_TagsCarryLineAndPattern(t *testing.T) {
	s := New(nil)
	raws := s.ScanDirect("first line\nsecond " + testHexKey + "\n")

	if len(raws) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(raws))
	}
	tags := strings.Join(raws[0].Tags, ",")
	if !strings.Contains(tags, "line:2") {
		t.Errorf("tags %v missing line:2", raws[0].Tags)
	}
	if !strings.Contains(tags, "pattern:hex-private-key") {
		t.Errorf("tags %v missing pattern name", raws[0].Tags)
	}
	if !strings.Contains(tags, "method:text") {
		t.Errorf("tags %v missing method", raws[0].Tags)
	}
}

func TestScanBytes_TextPassSurvivesBinaryNoise(t *testing.T) {
	s := New(nil)
	// A key embedded as ASCII between raw binary bytes; the placeholders
	// around it act as token boundaries.
	data := append([]byte{0x00, 0x01, 0xfe}, []byte(testHexKey)...)
	data = append(data, 0xff, 0x02)

	raws := s.ScanBytes(data, "/tmp/blob.bin")
	if len(raws) != 1 {
		t.Fatalf("expected 1 artifact, got %d: %+v", len(raws), raws)
	}
	if raws[0].Value != testHexKey {
		t.Errorf("value = %q", raws[0].Value)
	}
	src, ok := raws[0].Source.(artifact.FileSystem)
	if !ok || src.Path != "/tmp/blob.bin" {
		t.Errorf("source = %+v", raws[0].Source)
	}
}

func TestCarveHex_ByteOffsets(t *testing.T) {
	s := New(nil)
	// Serialized xprv at byte offset 3.
	data := append([]byte{0xaa, 0xbb, 0xcc}, 0x04, 0x88, 0xad, 0xe4)
	data = append(data, bytes.Repeat([]byte{0x42}, 74)...)

	raws := s.CarveHex(data, "/evidence/image.bin")
	if len(raws) != 1 {
		t.Fatalf("expected 1 carved artifact, got %d", len(raws))
	}
	src := raws[0].Source.(artifact.FileSystem)
	if src.Offset != 3 {
		t.Errorf("byte offset = %d, want 3", src.Offset)
	}
	if raws[0].Metadata["byte_offset"] != int64(3) {
		t.Errorf("metadata byte_offset = %v", raws[0].Metadata["byte_offset"])
	}
}

func TestScanSignatures_EntropyEnrichment(t *testing.T) {
	s := New(nil)
	data := make([]byte, 512)
	copy(data[12:], []byte{0x62, 0x31, 0x05, 0x00})
	for i := 16; i < len(data); i++ {
		data[i] = byte(i * 37)
	}

	raws := s.ScanSignatures(data, "/wallets/wallet.dat")
	if len(raws) != 1 {
		t.Fatalf("expected 1 signature artifact, got %d", len(raws))
	}
	r := raws[0]
	if r.Kind != artifact.KindWalletFile {
		t.Errorf("kind = %v", r.Kind)
	}
	if r.Confidence != 90 {
		t.Errorf("confidence = %d, want 90", r.Confidence)
	}
	if _, ok := r.Metadata["entropy"].(float64); !ok {
		t.Errorf("entropy metadata missing: %+v", r.Metadata)
	}
	if _, ok := r.Metadata["likely_encrypted"].(bool); !ok {
		t.Errorf("likely_encrypted metadata missing: %+v", r.Metadata)
	}
}

func TestScanStructured_FieldPathProvenance(t *testing.T) {
	s := New(nil)
	doc := map[string]any{
		"case": map[string]any{
			"notes": "nothing interesting",
			"keys":  []any{"spare " + testWIF},
		},
	}

	raws := s.ScanStructured(doc, "/export/case.json")
	if len(raws) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(raws))
	}
	src, ok := raws[0].Source.(artifact.StructuredImport)
	if !ok {
		t.Fatalf("source = %T, want StructuredImport", raws[0].Source)
	}
	if src.FieldPath != "$.case.keys[0]" {
		t.Errorf("field path = %q", src.FieldPath)
	}
	if src.DocumentPath != "/export/case.json" {
		t.Errorf("document path = %q", src.DocumentPath)
	}
}

func TestScanStructured_DeterministicKeyOrder(t *testing.T) {
	s := New(nil)
	doc := map[string]any{
		"zeta":  testHexKey,
		"alpha": testWIF,
	}

	raws := s.ScanStructured(doc, "doc.yaml")
	if len(raws) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(raws))
	}
	first := raws[0].Source.(artifact.StructuredImport)
	if first.FieldPath != "$.alpha" {
		t.Errorf("first field = %q, want sorted key order", first.FieldPath)
	}
}

func TestNormalizePrintable(t *testing.T) {
	in := []byte("ok\t\r\n\x00\x1b\x7fend")
	got := normalizePrintable(in)
	want := "ok\t\r\n   end"
	if got != want {
		t.Errorf("normalizePrintable = %q, want %q", got, want)
	}
	if len(got) != len(in) {
		t.Errorf("normalization changed length: %d != %d", len(got), len(in))
	}
}
