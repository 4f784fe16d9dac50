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
	"github.com/pingcap/errors"
)

// PathEvaluator is a reusable JSONPath evaluator: one validated path applied
// to any number of documents. The compiled token list is immutable; the
// embedded cursor is rewound per extraction, so a PathEvaluator must not be
// shared between goroutines. Construct one evaluator per goroutine instead.
type PathEvaluator struct {
	pathExpr PathExpression
	itr      *PathIterator
	escaping bool
}

// NewPathEvaluator validates pathExpr under the given dialect and returns an
// evaluator for it.
func NewPathEvaluator(pathExpr string, sqlStandardMode bool) (*PathEvaluator, error) {
	pe, err := ParseJSONPathExpr(pathExpr, sqlStandardMode)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &PathEvaluator{pathExpr: pe, itr: pe.Iterator()}, nil
}

// EnableSpecialCharacterEscaping makes subsequent extractions re-emit string
// values with JSON-standard escapes regardless of their input spelling.
func (e *PathEvaluator) EnableSpecialCharacterEscaping() {
	e.escaping = true
}

// Extract returns the normalized JSON text of the value the path matches in
// doc. isNull is true when the path does not resolve or the matched value is
// the JSON null literal.
func (e *PathEvaluator) Extract(doc string) (value string, isNull bool, err error) {
	return newExtractor(doc, e.itr, e.escaping).Extract()
}

// ExtractScalar returns the matched scalar with string quoting stripped.
// isNull is true when the path does not resolve or the matched value is not
// a scalar.
func (e *PathEvaluator) ExtractScalar(doc string) (value string, isNull bool, err error) {
	return newExtractor(doc, e.itr, e.escaping).ExtractScalar()
}

// ExtractArray returns the normalized texts of the elements of the matched
// array. isNull is true when the path does not resolve or the matched value
// is not an array.
func (e *PathEvaluator) ExtractArray(doc string) (values []string, isNull bool, err error) {
	return newExtractor(doc, e.itr, e.escaping).ExtractArray()
}
