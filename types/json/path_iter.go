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

// PathIterator is a bidirectional cursor over the tokens of a compiled
// PathExpression. Its position ranges over [-1, len(tokens)]; both extremes
// are the single logical end sentinel. Stepping past a sentinel wraps to the
// opposite end of the token list, which lets one iterator be reused across
// successive extractions without an explicit Rewind.
//
// The underlying token list is immutable and may be shared; the iterator
// itself holds a mutable position and is not safe for concurrent use.
type PathIterator struct {
	tokens []string
	pos    int
}

// NewPathIterator compiles pathExpr under the given dialect and returns a
// cursor positioned on the root token.
func NewPathIterator(pathExpr string, sqlStandardMode bool) (*PathIterator, error) {
	pe, err := ParseJSONPathExpr(pathExpr, sqlStandardMode)
	if err != nil {
		return nil, err
	}
	return pe.Iterator(), nil
}

// Iterator returns a fresh cursor over pe positioned on the root token.
func (pe PathExpression) Iterator() *PathIterator {
	return &PathIterator{tokens: pe.tokens}
}

// Rewind moves the cursor back onto the root token.
func (itr *PathIterator) Rewind() {
	itr.pos = 0
}

// End reports whether the cursor sits on the end sentinel, on either side of
// the token list.
func (itr *PathIterator) End() bool {
	return itr.pos < 0 || itr.pos >= len(itr.tokens)
}

// Next advances the cursor one token. Advancing from the trailing sentinel
// wraps to the first token.
func (itr *PathIterator) Next() {
	if itr.pos >= len(itr.tokens) {
		itr.pos = 0
		return
	}
	itr.pos++
}

// Prev moves the cursor back one token. Retreating from the leading sentinel
// wraps to the last token.
func (itr *PathIterator) Prev() {
	if itr.pos < 0 {
		itr.pos = len(itr.tokens) - 1
		return
	}
	itr.pos--
}

// Scan drives the cursor to the trailing end sentinel.
func (itr *PathIterator) Scan() {
	itr.pos = len(itr.tokens)
}

// Token returns the token under the cursor. It must not be called on the end
// sentinel.
func (itr *PathIterator) Token() string {
	return itr.tokens[itr.pos]
}
