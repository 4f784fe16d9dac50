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
	"strings"
)

/*
	JSONPath expression grammar accepted by the evaluator:
		pathExpression ::= '$' (pathLeg)*
		pathLeg ::= member | arrayLocation | quotedMember
		member ::= '.' keyName
		arrayLocation ::= '[' blank* (non-negative-integer | quotedToken) blank* ']'
		quotedMember ::= '.' '"' escaped-string '"'
		keyName ::= identifier

	The quoted forms are dialect dependent. In SQL standard mode (JSON_QUERY,
	JSON_VALUE) only the '."..."' quoted member is legal; in non-standard mode
	(JSON_EXTRACT and friends) only the bracketed "['...']" form is. A quoted
	bracket token holding digits addresses array indexes as well as object
	keys.

	The '*', '@', '..' and '.*' operators of general JSONPath are rejected up
	front as unsupported.

	Examples:
		select json_extract('{"a": "b", "c": [1, "2"]}', '$.a') -> "b"
		select json_extract('{"a": "b", "c": [1, "2"]}', '$.c[0]') -> 1
		select json_extract('{"a": {"b c": 1}}', '$.a[''b c'']') -> 1
		select json_value('{"a": {"b c": 1}}', '$.a."b c"') -> 1
*/

// PathExpression is a compiled JSONPath expression: an immutable token list.
// The first token is always the empty string, standing for the document root
// '$'. Token interpretation is uniform: at an object step a token names a
// key, at an array step a numeric-looking token addresses an index.
type PathExpression struct {
	tokens []string
}

// Tokens returns the navigation tokens of pe, including the leading root
// token. Callers must not modify the returned slice.
func (pe PathExpression) Tokens() []string {
	return pe.tokens
}

// String rebuilds a canonical textual form of pe.
func (pe PathExpression) String() string {
	var s strings.Builder
	s.WriteString("$")
	for _, token := range pe.tokens[1:] {
		if isIdentToken(token) {
			s.WriteString(".")
			s.WriteString(token)
			continue
		}
		s.WriteString("['")
		for i := 0; i < len(token); i++ {
			if token[i] == '\'' || token[i] == '\\' {
				s.WriteByte('\\')
			}
			s.WriteByte(token[i])
		}
		s.WriteString("']")
	}
	return s.String()
}

func isIdentToken(token string) bool {
	if len(token) == 0 {
		return false
	}
	for i := 0; i < len(token); i++ {
		if !isIdentChar(token[i]) {
			return false
		}
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ParseJSONPathExpr parses a JSON path expression under the given dialect.
// The returned PathExpression can be shared between goroutines; iterate it
// through independent PathIterators.
func ParseJSONPathExpr(pathExpr string, sqlStandardMode bool) (PathExpression, error) {
	var pe PathExpression
	if len(pathExpr) == 0 || pathExpr[0] != '$' {
		return pe, ErrJSONPathNoDollar.GenWithStackByArgs()
	}
	// Unsupported operators fail the whole path before any token is looked
	// at, so an invalid leg in front of an '@' still reports the operator.
	if op := findUnsupportedOperator(pathExpr[1:]); op != "" {
		return pe, ErrUnsupportedJSONPathOperator.GenWithStackByArgs(op)
	}

	tokens := []string{""}
	i := 1
	for i < len(pathExpr) {
		switch pathExpr[i] {
		case '.':
			token, emit, next, err := parseDottedLeg(pathExpr, i, sqlStandardMode)
			if err != nil {
				return pe, err
			}
			if emit {
				tokens = append(tokens, token)
			}
			i = next
		case '[':
			token, next, err := parseBracketLeg(pathExpr, i, sqlStandardMode)
			if err != nil {
				return pe, err
			}
			tokens = append(tokens, token)
			i = next
		case ';':
			// Stray semicolon runs between legs are collapsed silently in the
			// non-standard dialect.
			if sqlStandardMode {
				return pe, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[i:])
			}
			i++
		default:
			return pe, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[i:])
		}
	}
	pe.tokens = tokens
	return pe, nil
}

// IsValidJSONPath reports whether pathExpr would compile under the given
// dialect, returning the same error ParseJSONPathExpr would. It is the
// statement-time validation entry point.
func IsValidJSONPath(pathExpr string, sqlStandardMode bool) error {
	_, err := ParseJSONPathExpr(pathExpr, sqlStandardMode)
	return err
}

// findUnsupportedOperator scans for JSONPath operators the evaluator rejects,
// skipping quoted token bodies. The two-byte '..' is recognized before the
// one-byte operators, so '$..' reports '..' while '$.a.*' reports '*'.
func findUnsupportedOperator(s string) string {
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\'', '"':
			end := scanQuoted(s, i, s[i])
			if end < 0 {
				// Unterminated quote; the tokenizer reports it.
				return ""
			}
			i = end
		case '.':
			if i+1 < len(s) && s[i+1] == '.' {
				return ".."
			}
			i++
		case '*':
			return "*"
		case '@':
			return "@"
		default:
			i++
		}
	}
	return ""
}

// scanQuoted returns the index just past the closing quote, or -1 when the
// body is unterminated. A backslash escapes the byte after it.
func scanQuoted(s string, open int, quote byte) int {
	i := open + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return -1
}

// parseDottedLeg consumes a '.' leg starting at dot. emit is false when the
// leg is an empty segment tolerated by the non-standard dialect.
func parseDottedLeg(pathExpr string, dot int, sqlStandardMode bool) (token string, emit bool, next int, err error) {
	i := dot + 1
	if i >= len(pathExpr) {
		// Trailing dot.
		if sqlStandardMode {
			return "", false, 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[dot:])
		}
		return "", false, i, nil
	}
	switch c := pathExpr[i]; {
	case c == '"':
		if !sqlStandardMode {
			return "", false, 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[dot:])
		}
		end := scanQuoted(pathExpr, i, '"')
		if end < 0 {
			return "", false, 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[dot:])
		}
		return removeBackslashFollowedByChar(pathExpr[i+1:end-1], '"'), true, end, nil
	case c == ';':
		// Empty segment in front of a semicolon run.
		if sqlStandardMode {
			return "", false, 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[dot:])
		}
		return "", false, i, nil
	case isIdentChar(c):
		j := i
		for j < len(pathExpr) && isIdentChar(pathExpr[j]) {
			j++
		}
		return pathExpr[i:j], true, j, nil
	default:
		// Covers '.[' (a dotted leg cannot open a bracket), ".'", and any
		// other byte that cannot begin a key name.
		return "", false, 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[dot:])
	}
}

// parseBracketLeg consumes a '[...]' leg starting at bracket.
func parseBracketLeg(pathExpr string, bracket int, sqlStandardMode bool) (token string, next int, err error) {
	i := bracket + 1
	for i < len(pathExpr) && isBlank(pathExpr[i]) {
		i++
	}
	if i >= len(pathExpr) {
		return "", 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[bracket:])
	}
	if pathExpr[i] == '\'' {
		// Bracketed quoted member, non-standard dialect only.
		if sqlStandardMode {
			return "", 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[bracket:])
		}
		end := scanQuoted(pathExpr, i, '\'')
		if end < 0 {
			return "", 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[bracket:])
		}
		token = removeBackslashFollowedByChar(pathExpr[i+1:end-1], '\'')
		i = end
	} else {
		// An unquoted token is digits in the standard dialect; the
		// non-standard one also takes bare words, which address object keys
		// (and, when numeric, array indexes).
		j := i
		if sqlStandardMode {
			for j < len(pathExpr) && isDigit(pathExpr[j]) {
				j++
			}
		} else {
			for j < len(pathExpr) && isIdentChar(pathExpr[j]) {
				j++
			}
		}
		if j == i {
			return "", 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[bracket:])
		}
		token = pathExpr[i:j]
		i = j
	}
	for i < len(pathExpr) && isBlank(pathExpr[i]) {
		i++
	}
	if i >= len(pathExpr) || pathExpr[i] != ']' {
		return "", 0, ErrInvalidJSONPath.GenWithStackByArgs(pathExpr[bracket:])
	}
	return token, i + 1, nil
}

// removeBackslashFollowedByChar substitutes every backslash immediately
// followed by c with c itself. Any other backslash is copied through and the
// scan resumes at the byte after it, so under c == '\'' the body `\'\'\s `
// becomes `''\s `.
func removeBackslashFollowedByChar(s string, c byte) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == c {
			buf = append(buf, c)
			i++
			continue
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}
