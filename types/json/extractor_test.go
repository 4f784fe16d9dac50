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

	. "github.com/pingcap/check"
)

var _ = Suite(&testExtractorSuite{})

type testExtractorSuite struct{}

// normalize strips every blank byte; the expected documents carry no
// whitespace inside string values.
func normalize(in string) string {
	var b strings.Builder
	for i := 0; i < len(in); i++ {
		if !isBlank(in[i]) {
			b.WriteByte(in[i])
		}
	}
	return b.String()
}

func mustIterator(c *C, path string, sqlStandardMode bool) *PathIterator {
	itr, err := NewPathIterator(path, sqlStandardMode)
	c.Assert(err, IsNil, Commentf("path: %s", path))
	return itr
}

func (s *testExtractorSuite) TestBasicParsing(c *C) {
	input := `{ "l00" : { "l01" : "a10", "l11" : "test" }, "l10" : { "l01" : null }, "l20" : "a5" }`
	parser := newExtractor(input, mustIterator(c, "$", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, normalize(input))
}

func (s *testExtractorSuite) TestMatchingMultipleSuffixes(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	// The first "a" lacks a "c"; the scan re-probes the duplicate key and
	// matches the JSON null under the second one.
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(isNull, IsTrue)
	c.Assert(value, Equals, "null")
}

func (s *testExtractorSuite) TestPartiallyMatchingSuffixes(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c.d", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	// Parsing succeeds but nothing matches.
	c.Assert(parser.StoppedOnFirstMatch(), IsFalse)
	c.Assert(isNull, IsTrue)
	c.Assert(value, Equals, "")
}

func (s *testExtractorSuite) TestMatchedEmptyStringValue(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : {"d" : "" } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c.d", true), false)
	// StoppedOnFirstMatch distinguishes a matched empty string from the case
	// where there is no match at all.
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, `""`)
}

func (s *testExtractorSuite) TestScalarResults(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "tes\"t" }, "a" : { "c" : {"d" : 1.9834 } , "d" : [ {"a" : "a5"}, {"a" : "a6"}] , "quoted_null" : "null" } , "e" : null , "f" : null}`

	parser := newExtractor(input, mustIterator(c, "$.a.c.d", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, "1.9834")

	scalarCases := []struct {
		path   string
		value  string
		isNull bool
	}{
		{"$.a.c.d", "1.9834", false},
		{"$.a.l11", `tes"t`, false},
		{"$.a.c", "", true},
		{"$.a.d", "", true},
		{"$.e", "", true},
		{"$.a.quoted_null", "null", false},
	}
	for _, tt := range scalarCases {
		parser := newExtractor(input, mustIterator(c, tt.path, true), false)
		value, isNull, err := parser.ExtractScalar()
		c.Assert(err, IsNil, Commentf("path: %s", tt.path))
		c.Assert(isNull, Equals, tt.isNull, Commentf("path: %s", tt.path))
		if !tt.isNull {
			c.Assert(value, Equals, tt.value, Commentf("path: %s", tt.path))
		}
	}

	// No match at all: stopped stays false.
	for _, path := range []string{"$.a.c.d.e", "$.a.b.c"} {
		parser := newExtractor(input, mustIterator(c, path, true), false)
		_, isNull, err := parser.ExtractScalar()
		c.Assert(err, IsNil)
		c.Assert(isNull, IsTrue)
		c.Assert(parser.StoppedOnFirstMatch(), IsFalse)
	}
}

func (s *testExtractorSuite) TestReturnJSONObject(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null, "f" : { "g" : "h", "g" : [ "i", { "x" : "j"} ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.f", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(value, Equals, normalize(`{ "g" : "h", "g" : [ "i", { "x" : "j" } ] }`))
}

func (s *testExtractorSuite) TestStopParserOnFirstMatch(c *C) {
	input := `{ "a" : { "b" : { "c" : { "d" : "l1" } } } , "a" : { "b" :  { "c" : { "e" : "l2" } } } , "a" : { "b" : { "c" : { "e" : "l3"} }}}`
	itr := mustIterator(c, "$.a.b.c", true)
	for i := 0; i < 2; i++ {
		parser := newExtractor(input, itr, false)
		value, isNull, err := parser.Extract()
		c.Assert(err, IsNil)
		c.Assert(isNull, IsFalse)
		c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
		c.Assert(value, Equals, normalize(`{ "d" : "l1" }`))
	}
}

func (s *testExtractorSuite) TestBasicArrayAccess(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null, "f" : { "g" : "h", "g" : [ "i", "j" ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.f.g[1]", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, `"j"`)
}

func (s *testExtractorSuite) TestArrayAccessObjectMultipleSuffixes(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "f" : null, "f" : { "g" : "h", "g" : [ "i", "j" ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.f.g[1]", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, `"j"`)
}

func (s *testExtractorSuite) TestEscapedMemberAccess(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "b" : null, "''\\\\s " : { "g" : "h", "g" : [ "i", "j" ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, `$.a['\'\'\\s '].g[1]`, false), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, `"j"`)
}

func (s *testExtractorSuite) TestEscapedKeyStandardMode(c *C) {
	input := `{"a\"b": 1 }`
	parser := newExtractor(input, mustIterator(c, `$."a\"b"`, true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, "1")
}

func (s *testExtractorSuite) TestNestedArrayAccess(c *C) {
	input := `[0 , [ [],  [ [ 1, 4, 8, [2, 1, 0, {"a" : "3"}, 4 ], 11, 13] ] , [], "a" ], 2, [] ]`
	parser := newExtractor(input, mustIterator(c, "$[1][1][0][3][3]", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, normalize(`{ "a" : "3" }`))
}

func (s *testExtractorSuite) TestNegativeNestedArrayAccess(c *C) {
	input := `[0 , [ [],  [ [ 1, 4, 8, [2, 1, 0, {"a" : "3"}, 4 ], 11, 13] ] , [], "a" ], 2, [] ]`
	parser := newExtractor(input, mustIterator(c, "$[1][1]['-0'][3][3]", false), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, normalize(`{ "a" : "3" }`))

	parser = newExtractor(input, mustIterator(c, "$[1][1]['-5'][3][3]", false), false)
	value, isNull, err = parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsTrue)
	c.Assert(parser.StoppedOnFirstMatch(), IsFalse)
	c.Assert(value, Equals, "")
}

func (s *testExtractorSuite) TestMixedNestedArrayAccess(c *C) {
	input := `{ "a" : [0 , [ [],  { "b" : [ 7, [ 1, 4, 8, [2, 1, 0, {"a" : { "b" : "3"}, "c" : "d" }, 4 ], 11, 13] ] }, [], "a" ], 2, [] ] }`
	parser := newExtractor(input, mustIterator(c, "$.a[1][1].b[1][3][3].c", true), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, `"d"`)
}

func (s *testExtractorSuite) TestQuotedArrayIndex(c *C) {
	input := `[0 , [ [],  [ [ 1, 4, 8, [2, 1, 0, {"a" : "3"}, 4 ], 11, 13] ] , [], "a" ], 2, [] ]`
	parser := newExtractor(input, mustIterator(c, "$['1'][1][0]['3']['3']", false), false)
	value, isNull, err := parser.Extract()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(value, Equals, normalize(`{ "a" : "3" }`))
}

func (s *testExtractorSuite) TestReuseOfPathIterator(c *C) {
	input := `[0 , [ [],  [ [ 1, 4, 8, [2, 1, 0, {"a" : "3"}, 4 ], 11, 13] ] , [], "a" ], 2, [] ]`
	gold := normalize(`{ "a" : "3" }`)
	itr := mustIterator(c, "$[1][1][0][3][3]", true)
	for i := 0; i < 10; i++ {
		parser := newExtractor(input, itr, false)
		value, isNull, err := parser.Extract()
		c.Assert(err, IsNil)
		c.Assert(isNull, IsFalse)
		c.Assert(value, Equals, gold)
	}
}

func (s *testExtractorSuite) TestArrayExtractorBasicParsing(c *C) {
	input := `[ {"l00" : { "l01" : "a10", "l11" : "test" }}, {"l10" : { "l01" : null }}, {"l20" : "a5"} ]`
	parser := newExtractor(input, mustIterator(c, "$", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{
		normalize(`{"l00": { "l01" : "a10", "l11" : "test" }}`),
		normalize(`{"l10" : { "l01" : null }}`),
		normalize(`{"l20" : "a5"}`),
	})
}

func (s *testExtractorSuite) TestArrayExtractorMatchingMultipleSuffixes(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	// The leaf matched but it is not an array.
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(isNull, IsTrue)
	c.Assert(len(values), Equals, 0)
}

func (s *testExtractorSuite) TestArrayExtractorMatchedEmptyArray(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : {"d" : [] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c.d", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{})
}

func (s *testExtractorSuite) TestArrayExtractorPartiallyMatchingSuffixes(c *C) {
	input := `{ "a" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.c.d", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(parser.StoppedOnFirstMatch(), IsFalse)
	c.Assert(isNull, IsTrue)
	c.Assert(len(values), Equals, 0)
}

func (s *testExtractorSuite) TestArrayExtractorReturnObjectArray(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null, "f" : [ {"g" : "h"}, {"g" : [ "i", { "x" : "j"} ] } ] }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.f", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(values, DeepEquals, []string{
		normalize(`{ "g" : "h"}`),
		normalize(`{"g" : [ "i", { "x" : "j" } ] }`),
	})
}

func (s *testExtractorSuite) TestArrayExtractorStopOnFirstMatch(c *C) {
	input := `{ "a" : { "b" : { "c" : { "d" : ["l1"] } } } , "a" : { "b" :  { "c" : { "e" : "l2" } } } , "a" : { "b" : { "c" : { "d" : "l3"} }}}`
	parser := newExtractor(input, mustIterator(c, "$.a.b.c.d", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(parser.StoppedOnFirstMatch(), IsTrue)
	c.Assert(values, DeepEquals, []string{`"l1"`})
}

func (s *testExtractorSuite) TestArrayExtractorElementAccess(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "c" : null, "f" : { "g" : "h", "g" : [ ["i"], ["j", "k"] ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, "$.a.f.g[1]", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{`"j"`, `"k"`})

	input = `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "f" : null, "f" : { "g" : "h", "g" : [ ["i"], ["j", "k"] ] } }, "a" : "a5", "a" : "a6" }`
	parser = newExtractor(input, mustIterator(c, "$.a.f.g[1]", false), false)
	values, isNull, err = parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{`"j"`, `"k"`})
}

func (s *testExtractorSuite) TestArrayExtractorEscapedMember(c *C) {
	input := `{ "e" : { "b" : "a10", "l11" : "test" }, "a" : { "b" : null, "''\\\\s " : { "g" : "h", "g" : [ "i", ["j", "k"] ] } }, "a" : "a5", "a" : "a6" }`
	parser := newExtractor(input, mustIterator(c, `$.a['\'\'\\s '].g[ 1]`, false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{`"j"`, `"k"`})
}

func (s *testExtractorSuite) TestArrayExtractorNestedAccess(c *C) {
	input := `[0 , [ [],  [ [ 1, 4, 8, [2, 1, 0, [{"a" : "3"}, {"a" : "4"}], 4 ], 11, 13] ] , [], "a" ], 2, [] ]`
	gold := []string{normalize(`{"a" : "3"}`), normalize(`{"a" : "4"}`)}

	parser := newExtractor(input, mustIterator(c, "$[1][1][0][3][3]", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, gold)

	parser = newExtractor(input, mustIterator(c, "$[1][1]['-0'][3][3]", false), false)
	values, isNull, err = parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, gold)

	parser = newExtractor(input, mustIterator(c, "$[1][1]['-5'][3][3]", false), false)
	values, isNull, err = parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsTrue)
	c.Assert(parser.StoppedOnFirstMatch(), IsFalse)
	c.Assert(len(values), Equals, 0)

	parser = newExtractor(input, mustIterator(c, "$['1'][1][0]['3']['3']", false), false)
	values, isNull, err = parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, gold)
}

func (s *testExtractorSuite) TestArrayExtractorMixedNestedAccess(c *C) {
	input := `{ "a" : [0 , [ [],  { "b" : [ 7, [ 1, 4, 8, [2, 1, 0, {"a" : { "b" : "3"}, "c" : [1,  2, 3 ] }, 4 ], 11, 13] ] }, [], "a" ], 2, [] ] }`
	parser := newExtractor(input, mustIterator(c, "$.a[1][1].b[1][3][3].c", false), false)
	values, isNull, err := parser.ExtractArray()
	c.Assert(err, IsNil)
	c.Assert(isNull, IsFalse)
	c.Assert(values, DeepEquals, []string{"1", "2", "3"})
}
