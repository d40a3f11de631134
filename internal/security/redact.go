// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import "strings"

// RedactValue renders a sensitive value for display. Short values are masked
// entirely; longer ones keep four characters at each end, enough to recognize
// a finding without disclosing it.
func RedactValue(value string) string {
	if len(value) <= 12 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + "..." + value[len(value)-4:]
}

// RedactPhrase renders a seed phrase for display: every word is masked down to
// its first letter except that the first and last word stay readable, so the
// phrase is identifiable but not recoverable.
func RedactPhrase(phrase string) string {
	words := strings.Fields(phrase)
	if len(words) <= 2 {
		return RedactValue(phrase)
	}
	out := make([]string, len(words))
	for i, w := range words {
		if i == 0 || i == len(words)-1 {
			out[i] = w
			continue
		}
		out[i] = w[:1] + strings.Repeat("*", len(w)-1)
	}
	return strings.Join(out, " ")
}
