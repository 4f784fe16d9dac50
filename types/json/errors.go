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
	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/terror"
)

var (
	// ErrJSONPathNoDollar means the path expression does not begin with the
	// document root '$'.
	ErrJSONPathNoDollar = terror.ClassJSON.New(mysql.ErrInvalidJSONPath, "JSONPath must start with '$'")
	// ErrInvalidJSONPath means the path expression carries a token that is not
	// part of the accepted grammar. The argument is the path suffix beginning
	// at the offending leg.
	ErrInvalidJSONPath = terror.ClassJSON.New(mysql.ErrInvalidJSONPath, "Invalid token in JSONPath at: %s")
	// ErrUnsupportedJSONPathOperator means the path uses a JSONPath operator
	// the evaluator deliberately does not implement.
	ErrUnsupportedJSONPathOperator = terror.ClassJSON.New(mysql.ErrInvalidJSONPath, "Unsupported operator in JSONPath: %s")
	// ErrJSONDocumentTooDeep means the scan crossed MaxParsingDepth levels of
	// nested arrays/objects.
	ErrJSONDocumentTooDeep = terror.ClassJSON.New(mysql.ErrJSONDocumentTooDeep, "JSON parsing failed due to deeply nested array/struct. Maximum nesting depth is %d")
)

func init() {
	jsonMySQLErrCodes := map[terror.ErrCode]uint16{
		mysql.ErrInvalidJSONPath:     mysql.ErrInvalidJSONPath,
		mysql.ErrJSONDocumentTooDeep: mysql.ErrJSONDocumentTooDeep,
	}
	terror.ErrClassToMySQLCodes[terror.ClassJSON] = jsonMySQLErrCodes
}
