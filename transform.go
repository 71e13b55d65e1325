// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigmatch Contributors

package sigmatch

import (
	"encoding/base64"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// The dash characters Windows command lines accept interchangeably:
// hyphen, slash, en-dash, em-dash, horizontal bar.
var windashChars = []string{"-", "/", "–", "—", "―"}

// encodeBase64 encodes s as unpadded standard base64, optionally widening
// to UTF-16 first. When the encoded length modulo 4 is 2 or 3 the trailing
// character is dropped: its low bits would change once more plaintext
// follows, so trimming keeps the fragment matchable inside longer blobs.
func encodeBase64(s string, variant Utf16Variant) string {
	var raw []byte
	switch variant {
	case Utf16LE:
		units := utf16.Encode([]rune(s))
		raw = make([]byte, 0, len(units)*2)
		for _, u := range units {
			raw = append(raw, byte(u), byte(u>>8))
		}
	case Utf16BE:
		units := utf16.Encode([]rune(s))
		raw = make([]byte, 0, len(units)*2)
		for _, u := range units {
			raw = append(raw, byte(u>>8), byte(u))
		}
	default:
		raw = []byte(s)
	}

	encoded := base64.RawStdEncoding.EncodeToString(raw)
	if r := len(encoded) % 4; r == 2 || r == 3 {
		encoded = encoded[:len(encoded)-1]
	}
	return encoded
}

// encodeBase64Offset produces up to three offset-invariant fragments of s:
// the plain encoding plus the encodings of s shifted by one and two NUL
// bytes (for UTF-16, by two and four NUL code units), with the leading characters that
// encode the injected nulls stripped so each fragment starts on a base64
// frame boundary. Together the three cover any byte alignment of the
// plaintext inside a larger base64 region. An empty source yields nothing.
func encodeBase64Offset(s string, variant Utf16Variant) []string {
	width := 1
	if variant != Utf16None {
		width = 2
	}

	var out []string
	if encoded := encodeBase64(s, variant); encoded != "" {
		out = append(out, encoded)
	}

	strip1 := width * (1 + width)
	if encoded := encodeBase64(strings.Repeat("\x00", width)+s, variant); len(encoded) > strip1 {
		out = append(out, encoded[strip1:])
	}

	strip2 := 2*(width*(1+width)) - 1
	if encoded := encodeBase64(strings.Repeat("\x00", 2*width)+s, variant); len(encoded) > strip2 {
		out = append(out, encoded[strip2:])
	}

	return out
}

// windashVariations expands a command-line-like string into the original
// plus one variant per (dash-prefixed token, alternative dash) pair, with
// the token's leading dash replaced. Tokens are space-delimited; the output
// order beyond the leading original is unspecified and duplicates are kept.
func windashVariations(s string) []string {
	result := []string{s}

	flagged := make(map[string]struct{})
	for _, token := range strings.Split(s, " ") {
		for _, dash := range windashChars {
			if strings.HasPrefix(token, dash) {
				flagged[token] = struct{}{}
				break
			}
		}
	}

	for token := range flagged {
		_, size := utf8.DecodeRuneInString(token)
		rest := token[size:]
		for _, dash := range windashChars {
			if strings.HasPrefix(token, dash) {
				continue
			}
			result = append(result, strings.ReplaceAll(s, token, dash+rest))
		}
	}

	return result
}
