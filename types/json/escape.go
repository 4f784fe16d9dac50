// Copyright 2020 Quarry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package json

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"unicode/utf8"

	"github.com/pingcap/errors"

	"github.com/quarrydb/quarry/util/hack"
)

// unquoteJSONString decodes the escape sequences of a JSON string body (the
// text between the enclosing quotes).
func unquoteJSONString(s string) (string, error) {
	ret := new(bytes.Buffer)
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			ret.WriteByte(s[i])
			continue
		}
		i++
		if i == len(s) {
			return "", errors.New("Missing a closing quotation mark in string")
		}
		switch s[i] {
		case '"':
			ret.WriteByte('"')
		case 'b':
			ret.WriteByte('\b')
		case 'f':
			ret.WriteByte('\f')
		case 'n':
			ret.WriteByte('\n')
		case 'r':
			ret.WriteByte('\r')
		case 't':
			ret.WriteByte('\t')
		case '\\':
			ret.WriteByte('\\')
		case 'u':
			if i+5 > len(s) {
				return "", errors.Errorf("Invalid unicode: %s", s[i+1:])
			}
			char, size, err := decodeEscapedUnicode(hack.Slice(s[i+1 : i+5]))
			if err != nil {
				return "", errors.Trace(err)
			}
			ret.Write(char[0:size])
			i += 4
		default:
			// For all other escape sequences, backslash is ignored.
			ret.WriteByte(s[i])
		}
	}
	return ret.String(), nil
}

// decodeEscapedUnicode decodes the four hex digits of a \uXXXX escape into
// utf8 bytes specified in RFC 3629. According to RFC 3629, the max length of
// utf8 characters is 4 bytes, and the escape covers unicode in [0, 65536).
func decodeEscapedUnicode(s []byte) (char [4]byte, size int, err error) {
	size, err = hex.Decode(char[0:2], s)
	if err != nil || size != 2 {
		// The unicode must can be represented in 2 bytes.
		return char, 0, errors.Trace(err)
	}
	var unicode uint16
	err = binary.Read(bytes.NewReader(char[0:2]), binary.BigEndian, &unicode)
	if err != nil {
		return char, 0, errors.Trace(err)
	}
	size = utf8.RuneLen(rune(unicode))
	utf8.EncodeRune(char[0:size], rune(unicode))
	return
}

var escapeByteMap = map[byte]string{
	'\\': "\\\\",
	'"':  "\\\"",
	'\b': "\\b",
	'\f': "\\f",
	'\n': "\\n",
	'\r': "\\r",
	'\t': "\\t",
}

const hexDigits = "0123456789abcdef"

// appendEscapedJSONString appends s to buf as a quoted JSON string, escaping
// each byte with its minimal JSON-standard escape. Control bytes without a
// short form become \u00XX; multi-byte utf8 sequences pass through verbatim.
func appendEscapedJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if esc, ok := escapeByteMap[c]; ok {
			buf = append(buf, esc...)
			continue
		}
		if c < 0x20 {
			buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			continue
		}
		buf = append(buf, c)
	}
	return append(buf, '"')
}
