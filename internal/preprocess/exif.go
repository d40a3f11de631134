// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocess

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifWalker collects every EXIF tag into a string-keyed document so the
// structured scan can attach field-path provenance. Seed phrases do get
// stashed in image description and comment fields.
type exifWalker struct {
	fields map[string]any
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	value := strings.Trim(tag.String(), `"`)
	if value != "" {
		w.fields[string(name)] = value
	}
	return nil
}

// forImage decodes EXIF metadata from a JPEG/TIFF. Images without usable
// EXIF degrade to the binary path.
func forImage(data []byte) *Content {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return &Content{Raw: data, Processor: "binary"}
	}

	walker := &exifWalker{fields: make(map[string]any)}
	if err := x.Walk(walker); err != nil || len(walker.fields) == 0 {
		return &Content{Raw: data, Processor: "binary"}
	}

	return &Content{Raw: data, Structured: walker.fields, Processor: "exif"}
}
