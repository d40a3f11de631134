// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package preprocess routes a file's bytes to the right decoding strategy
// before scanning: structured documents (JSON/YAML), PDF text extraction,
// EXIF image metadata, or plain text/binary passthrough. A unit that cannot
// be decoded degrades to the binary path rather than failing the scan.
package preprocess

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content is the decoded form of one scan unit. Raw is always populated;
// Text and Structured are optional refinements.
type Content struct {
	Raw        []byte
	Text       string // extracted text when it differs from Raw (PDF)
	Structured any    // decoded document tree (JSON/YAML/EXIF), nil otherwise
	Processor  string
}

// ForFile decodes data according to the file extension. The returned error is
// always a skippable-unit fault; callers record it as a warning and continue.
func ForFile(path string, data []byte) (*Content, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return forJSON(data), nil
	case ".yaml", ".yml":
		return forYAML(data), nil
	case ".pdf":
		return forPDF(data)
	case ".jpg", ".jpeg", ".tif", ".tiff":
		return forImage(data), nil
	default:
		return &Content{Raw: data, Processor: "binary"}, nil
	}
}

func forJSON(data []byte) *Content {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		// Malformed JSON still gets the plain text/carve passes.
		return &Content{Raw: data, Processor: "binary"}
	}
	return &Content{Raw: data, Structured: doc, Processor: "structured-json"}
}

func forYAML(data []byte) *Content {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &Content{Raw: data, Processor: "binary"}
	}
	return &Content{Raw: data, Structured: doc, Processor: "structured-yaml"}
}
