// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocess

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages bounds extraction time on pathological documents.
const maxPDFPages = 50

// forPDF extracts plain text from a PDF so exported wallet reports and
// key backups saved as PDF are scanned. The raw bytes still get the carve and
// signature passes.
func forPDF(data []byte) (c *Content, err error) {
	// The pdf package panics on some malformed inputs; a corrupt PDF is a
	// skippable unit, not a crash.
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("pdf extraction failed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf open failed: %w", err)
	}

	pages := reader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	return &Content{Raw: data, Text: sb.String(), Processor: "pdf"}, nil
}
