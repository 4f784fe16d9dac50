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
	"strconv"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/pingcap/errors"
)

// MaxParsingDepth is the absolute cap on nested array/object depth along a
// scan. It bounds JSON structure depth, not path token count.
const MaxParsingDepth = 1000

// jsonPathExtractor walks a JSON document byte by byte while consuming the
// path cursor, without materializing any value tree. The first value whose
// location satisfies the path is captured as a document substring; everything
// else is skipped with a balanced scan. A fresh extractor is built per
// extraction call; the cursor is borrowed and rewound.
type jsonPathExtractor struct {
	doc      string
	itr      *PathIterator
	pos      int
	depth    int
	escaping bool

	// stopped records that every cursor advance was caused by a matching
	// key/index, i.e. a full match was captured. It distinguishes a matched
	// empty string or null from "the path did not resolve".
	stopped bool
}

func newExtractor(doc string, itr *PathIterator, escaping bool) *jsonPathExtractor {
	return &jsonPathExtractor{doc: doc, itr: itr, escaping: escaping}
}

// StoppedOnFirstMatch reports whether the last scan captured a full match.
func (e *jsonPathExtractor) StoppedOnFirstMatch() bool {
	return e.stopped
}

// Extract captures the raw JSON text of the matched value, normalized.
// isNull is true when the path does not resolve or the matched value is the
// JSON null literal; the latter still surfaces the text "null".
func (e *jsonPathExtractor) Extract() (value string, isNull bool, err error) {
	start, end, found, err := e.match()
	if err != nil || !found {
		return "", true, errors.Trace(err)
	}
	value = e.buildNormalized(start, end)
	if value == "null" {
		return value, true, nil
	}
	return value, false, nil
}

// ExtractScalar captures a matched scalar: strings are unquoted and
// unescaped, other scalars pass through textually. A matched object, array
// or null reports isNull without error.
func (e *jsonPathExtractor) ExtractScalar() (value string, isNull bool, err error) {
	start, end, found, err := e.match()
	if err != nil || !found {
		return "", true, errors.Trace(err)
	}
	span := e.doc[start:end]
	switch span[0] {
	case '"':
		unquoted, err := unquoteJSONString(span[1 : len(span)-1])
		if err != nil {
			return "", true, nil
		}
		return unquoted, false, nil
	case '{', '[':
		return "", true, nil
	default:
		if span == "null" {
			return "", true, nil
		}
		return span, false, nil
	}
}

// ExtractArray captures a matched array as the normalized texts of its
// elements. A matched non-array reports isNull without error.
func (e *jsonPathExtractor) ExtractArray() (values []string, isNull bool, err error) {
	start, end, found, err := e.match()
	if err != nil || !found {
		return nil, true, errors.Trace(err)
	}
	if e.doc[start] != '[' {
		return nil, true, nil
	}
	return e.splitArray(start, end), false, nil
}

// match runs the descend loop and returns the byte range of the matched
// value. The root token is consumed by confirming that a value begins.
func (e *jsonPathExtractor) match() (start, end int, found bool, err error) {
	e.itr.Rewind()
	e.itr.Next()
	return e.matchValue()
}

// matchValue matches the value beginning at e.pos against the remaining
// tokens. On a failed match it leaves e.pos just past that value so the
// caller can keep scanning its container.
func (e *jsonPathExtractor) matchValue() (start, end int, found bool, err error) {
	e.skipBlank()
	if e.pos >= len(e.doc) {
		return 0, 0, false, nil
	}
	if e.itr.End() {
		start = e.pos
		ok, err := e.captureValue()
		if err != nil || !ok {
			return 0, 0, false, errors.Trace(err)
		}
		e.stopped = true
		return start, e.pos, true, nil
	}
	switch e.doc[e.pos] {
	case '{':
		return e.matchObject()
	case '[':
		return e.matchArray()
	default:
		// A scalar with path tokens left can never match.
		_, err = e.skipValue()
		return 0, 0, false, errors.Trace(err)
	}
}

// matchObject scans the key/value pairs of the object at e.pos in order,
// comparing each key against the current token. A matching key whose subtree
// fails to resolve puts the cursor back and the member scan continues, which
// is what makes a later duplicate of the key reachable.
func (e *jsonPathExtractor) matchObject() (start, end int, found bool, err error) {
	token := e.itr.Token()
	e.depth++
	if e.depth > MaxParsingDepth {
		return 0, 0, false, ErrJSONDocumentTooDeep.GenWithStackByArgs(MaxParsingDepth)
	}
	e.pos++
	for {
		e.skipBlank()
		if e.pos >= len(e.doc) {
			return 0, 0, false, nil
		}
		if e.doc[e.pos] == '}' {
			e.pos++
			e.depth--
			return 0, 0, false, nil
		}
		if e.doc[e.pos] != '"' {
			return 0, 0, false, nil
		}
		keyStart := e.pos
		next, ok := skipStringSpan(e.doc, e.pos)
		if !ok {
			return 0, 0, false, nil
		}
		e.pos = next
		key := e.doc[keyStart+1 : next-1]
		e.skipBlank()
		if e.pos >= len(e.doc) || e.doc[e.pos] != ':' {
			return 0, 0, false, nil
		}
		e.pos++
		e.skipBlank()
		if keyMatchesToken(key, token) {
			e.itr.Next()
			start, end, found, err = e.matchValue()
			if err != nil {
				return 0, 0, false, errors.Trace(err)
			}
			if found {
				return start, end, true, nil
			}
			e.itr.Prev()
		} else {
			ok, err := e.skipValue()
			if err != nil {
				return 0, 0, false, errors.Trace(err)
			}
			if !ok {
				return 0, 0, false, nil
			}
		}
		e.skipBlank()
		if e.pos < len(e.doc) && e.doc[e.pos] == ',' {
			e.pos++
			continue
		}
		if e.pos < len(e.doc) && e.doc[e.pos] == '}' {
			e.pos++
			e.depth--
			return 0, 0, false, nil
		}
		return 0, 0, false, nil
	}
}

// matchArray counts the elements of the array at e.pos up to the index the
// current token names. Tokens that are not a non-negative integer (after
// mapping "-0" to 0) match nothing, but the array is still consumed so the
// enclosing scan can continue.
func (e *jsonPathExtractor) matchArray() (start, end int, found bool, err error) {
	target, indexable := parseArrayIndexToken(e.itr.Token())
	e.depth++
	if e.depth > MaxParsingDepth {
		return 0, 0, false, ErrJSONDocumentTooDeep.GenWithStackByArgs(MaxParsingDepth)
	}
	e.pos++
	for elem := 0; ; elem++ {
		e.skipBlank()
		if e.pos >= len(e.doc) {
			return 0, 0, false, nil
		}
		if e.doc[e.pos] == ']' {
			e.pos++
			e.depth--
			return 0, 0, false, nil
		}
		if indexable && elem == target {
			e.itr.Next()
			start, end, found, err = e.matchValue()
			if err != nil {
				return 0, 0, false, errors.Trace(err)
			}
			if found {
				return start, end, true, nil
			}
			e.itr.Prev()
		} else {
			ok, err := e.skipValue()
			if err != nil {
				return 0, 0, false, errors.Trace(err)
			}
			if !ok {
				return 0, 0, false, nil
			}
		}
		e.skipBlank()
		if e.pos < len(e.doc) && e.doc[e.pos] == ',' {
			e.pos++
			continue
		}
		if e.pos < len(e.doc) && e.doc[e.pos] == ']' {
			e.pos++
			e.depth--
			return 0, 0, false, nil
		}
		return 0, 0, false, nil
	}
}

// parseArrayIndexToken maps a token onto an array index. "-0" addresses
// index 0; other negative or non-numeric tokens address nothing.
func parseArrayIndexToken(token string) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// keyMatchesToken compares a raw object key with a path token. Keys carrying
// escapes are decoded first; the comparison itself is byte for byte.
func keyMatchesToken(key, token string) bool {
	if strings.IndexByte(key, '\\') < 0 {
		return key == token
	}
	unquoted, err := unquoteJSONString(key)
	if err != nil {
		return false
	}
	return unquoted == token
}

// captureValue consumes the matched value to find its end. Strings and
// composites are scanned exactly; a leaf number is cut at the longest
// well-formed number prefix, so trailing garbage such as "0001" or "123abc"
// truncates to "0" and "123". That quirk is locked by compliance. A leaf word
// is taken as its whole run of ASCII letters.
func (e *jsonPathExtractor) captureValue() (bool, error) {
	switch c := e.doc[e.pos]; c {
	case '"':
		next, ok := skipStringSpan(e.doc, e.pos)
		e.pos = next
		return ok, nil
	case '{', '[':
		return e.skipComposite()
	default:
		return e.scanLeafScalar(), nil
	}
}

// scanLeafScalar advances past the leaf scalar at e.pos.
func (e *jsonPathExtractor) scanLeafScalar() bool {
	c := e.doc[e.pos]
	if c == '-' || isDigit(c) {
		end := scanNumberPrefix(e.doc, e.pos)
		if end == e.pos {
			return false
		}
		e.pos = end
		return true
	}
	if isAlpha(c) {
		for e.pos < len(e.doc) && isAlpha(e.doc[e.pos]) {
			e.pos++
		}
		return true
	}
	start := e.pos
	e.skipScalar()
	return e.pos > start
}

// skipValue consumes the value at e.pos with a balanced scan, reporting false
// when the document ends mid-value.
func (e *jsonPathExtractor) skipValue() (bool, error) {
	e.skipBlank()
	if e.pos >= len(e.doc) {
		return false, nil
	}
	switch e.doc[e.pos] {
	case '"':
		next, ok := skipStringSpan(e.doc, e.pos)
		e.pos = next
		return ok, nil
	case '{', '[':
		return e.skipComposite()
	default:
		e.skipScalar()
		return true, nil
	}
}

// skipComposite consumes a balanced object or array, tracking the shared
// depth counter.
func (e *jsonPathExtractor) skipComposite() (bool, error) {
	open := 0
	for e.pos < len(e.doc) {
		switch e.doc[e.pos] {
		case '"':
			next, ok := skipStringSpan(e.doc, e.pos)
			if !ok {
				e.pos = next
				return false, nil
			}
			e.pos = next
			continue
		case '{', '[':
			e.depth++
			open++
			if e.depth > MaxParsingDepth {
				return false, ErrJSONDocumentTooDeep.GenWithStackByArgs(MaxParsingDepth)
			}
		case '}', ']':
			e.depth--
			open--
			if open == 0 {
				e.pos++
				return true, nil
			}
		}
		e.pos++
	}
	return false, nil
}

// skipScalar consumes a scalar greedily up to the next structural byte or
// whitespace. Skipping is deliberately laxer than leaf capture: garbage after
// a skipped scalar must not derail the enclosing scan.
func (e *jsonPathExtractor) skipScalar() {
	for e.pos < len(e.doc) {
		switch c := e.doc[e.pos]; {
		case c == ',' || c == '}' || c == ']' || c == '{' || c == '[' || c == '"' || isBlank(c):
			return
		default:
			e.pos++
		}
	}
}

func (e *jsonPathExtractor) skipBlank() {
	for e.pos < len(e.doc) && isBlank(e.doc[e.pos]) {
		e.pos++
	}
}

// skipStringSpan returns the index just past the closing quote of the JSON
// string opening at i, and whether the string is complete.
func skipStringSpan(s string, i int) (int, bool) {
	i++
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, true
		default:
			i++
		}
	}
	return i, false
}

// buildNormalized copies doc[start:end] dropping whitespace outside strings.
// With special character escaping enabled, string values are decoded and
// re-emitted with minimal JSON escapes regardless of their input spelling.
func (e *jsonPathExtractor) buildNormalized(start, end int) string {
	buf := make([]byte, 0, mathutil.Max(end-start, 8))
	for i := start; i < end; {
		c := e.doc[i]
		if c == '"' {
			next, ok := skipStringSpan(e.doc, i)
			if e.escaping && ok {
				unquoted, err := unquoteJSONString(e.doc[i+1 : next-1])
				if err == nil {
					buf = appendEscapedJSONString(buf, unquoted)
					i = next
					continue
				}
			}
			buf = append(buf, e.doc[i:next]...)
			i = next
			continue
		}
		if !isBlank(c) {
			buf = append(buf, c)
		}
		i++
	}
	return string(buf)
}

// splitArray cuts the already captured array doc[start:end] into normalized
// element texts. The capture scan has validated the span, so the walk cannot
// fail or exceed the depth cap.
func (e *jsonPathExtractor) splitArray(start, end int) []string {
	values := make([]string, 0, 8)
	sub := &jsonPathExtractor{doc: e.doc[:end], pos: start + 1}
	for {
		sub.skipBlank()
		if sub.pos >= end || sub.doc[sub.pos] == ']' {
			break
		}
		elemStart := sub.pos
		ok, err := sub.skipValue()
		if err != nil || !ok {
			break
		}
		values = append(values, e.buildNormalized(elemStart, sub.pos))
		sub.skipBlank()
		if sub.pos < end && sub.doc[sub.pos] == ',' {
			sub.pos++
			continue
		}
		break
	}
	return values
}

// scanNumberPrefix returns the end of the longest prefix of s[start:] that is
// a well-formed JSON number, or start when there is none.
func scanNumberPrefix(s string, start int) int {
	i := start
	accept := start
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i < len(s) && s[i] == '0':
		i++
		accept = i
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		accept = i
	default:
		return start
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		accept = i
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			accept = j
		}
	}
	return accept
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
