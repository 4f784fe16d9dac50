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

package expression

import (
	"github.com/pingcap/errors"

	"github.com/quarrydb/quarry/config"
	"github.com/quarrydb/quarry/metrics"
	"github.com/quarrydb/quarry/types/json"
)

// Names of the JSON path builtin functions. JSON_QUERY and JSON_VALUE follow
// the SQL-2016 path dialect; the JSON_EXTRACT family accepts the broader
// non-standard one.
const (
	FuncJSONExtract       = "json_extract"
	FuncJSONExtractScalar = "json_extract_scalar"
	FuncJSONExtractArray  = "json_extract_array"
	FuncJSONQuery         = "json_query"
	FuncJSONValue         = "json_value"
)

var (
	_ functionClass = &jsonExtractFunctionClass{}
	_ functionClass = &jsonExtractScalarFunctionClass{}
	_ functionClass = &jsonExtractArrayFunctionClass{}

	_ builtinFunc      = &builtinJSONExtractSig{}
	_ builtinFunc      = &builtinJSONExtractScalarSig{}
	_ builtinArrayFunc = &builtinJSONExtractArraySig{}
)

var funcs = map[string]functionClass{
	FuncJSONExtract:       &jsonExtractFunctionClass{baseFunctionClass{FuncJSONExtract, 2, 2}, false},
	FuncJSONExtractScalar: &jsonExtractScalarFunctionClass{baseFunctionClass{FuncJSONExtractScalar, 2, 2}, false},
	FuncJSONExtractArray:  &jsonExtractArrayFunctionClass{baseFunctionClass{FuncJSONExtractArray, 2, 2}},
	FuncJSONQuery:         &jsonExtractFunctionClass{baseFunctionClass{FuncJSONQuery, 2, 2}, true},
	FuncJSONValue:         &jsonExtractScalarFunctionClass{baseFunctionClass{FuncJSONValue, 2, 2}, true},
}

// newPathEvaluator compiles the path argument of a JSON builtin, applying the
// configured escaping default.
func newPathEvaluator(pathExpr string, sqlStandardMode bool) (*json.PathEvaluator, error) {
	ev, err := json.NewPathEvaluator(pathExpr, sqlStandardMode)
	if err != nil {
		metrics.JSONPathCompileCounter.WithLabelValues(metrics.LblError).Inc()
		return nil, errors.Trace(err)
	}
	metrics.JSONPathCompileCounter.WithLabelValues(metrics.LblOK).Inc()
	if config.GetGlobalConfig().Extraction.SpecialCharacterEscaping {
		ev.EnableSpecialCharacterEscaping()
	}
	return ev, nil
}

type jsonExtractFunctionClass struct {
	baseFunctionClass
	sqlStandardMode bool
}

type builtinJSONExtractSig struct {
	baseBuiltinFunc
	evaluator *json.PathEvaluator
}

func (c *jsonExtractFunctionClass) getFunction(args []string) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	ev, err := newPathEvaluator(args[1], c.sqlStandardMode)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &builtinJSONExtractSig{newBaseBuiltinFunc(args), ev}, nil
}

func (b *builtinJSONExtractSig) evalString() (res string, isNull bool, err error) {
	res, isNull, err = b.evaluator.Extract(b.args[0])
	return res, isNull, errors.Trace(err)
}

type jsonExtractScalarFunctionClass struct {
	baseFunctionClass
	sqlStandardMode bool
}

type builtinJSONExtractScalarSig struct {
	baseBuiltinFunc
	evaluator *json.PathEvaluator
}

func (c *jsonExtractScalarFunctionClass) getFunction(args []string) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	ev, err := newPathEvaluator(args[1], c.sqlStandardMode)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &builtinJSONExtractScalarSig{newBaseBuiltinFunc(args), ev}, nil
}

func (b *builtinJSONExtractScalarSig) evalString() (res string, isNull bool, err error) {
	res, isNull, err = b.evaluator.ExtractScalar(b.args[0])
	return res, isNull, errors.Trace(err)
}

type jsonExtractArrayFunctionClass struct {
	baseFunctionClass
}

type builtinJSONExtractArraySig struct {
	baseBuiltinFunc
	evaluator *json.PathEvaluator
}

func (c *jsonExtractArrayFunctionClass) getFunction(args []string) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	ev, err := newPathEvaluator(args[1], false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &builtinJSONExtractArraySig{newBaseBuiltinFunc(args), ev}, nil
}

// evalString surfaces the matched array as raw JSON text, which is what the
// function renders when used in a string context.
func (b *builtinJSONExtractArraySig) evalString() (res string, isNull bool, err error) {
	res, isNull, err = b.evaluator.Extract(b.args[0])
	return res, isNull, errors.Trace(err)
}

func (b *builtinJSONExtractArraySig) evalStringArray() (res []string, isNull bool, err error) {
	res, isNull, err = b.evaluator.ExtractArray(b.args[0])
	return res, isNull, errors.Trace(err)
}

func observeExtraction(funcName string, isNull bool, err error) {
	switch {
	case err != nil:
		metrics.JSONExtractionCounter.WithLabelValues(funcName, metrics.LblError).Inc()
	case isNull:
		metrics.JSONExtractionCounter.WithLabelValues(funcName, metrics.LblNull).Inc()
	default:
		metrics.JSONExtractionCounter.WithLabelValues(funcName, metrics.LblOK).Inc()
	}
}

// EvalJSONFunction evaluates the named scalar JSON builtin over a document
// and a path.
func EvalJSONFunction(name, doc, pathExpr string) (res string, isNull bool, err error) {
	f, err := GetBuiltinFunction(name, doc, pathExpr)
	if err != nil {
		observeExtraction(name, false, err)
		return "", false, errors.Trace(err)
	}
	res, isNull, err = f.evalString()
	observeExtraction(name, isNull, err)
	return res, isNull, errors.Trace(err)
}

// EvalJSONArrayFunction evaluates the named array-valued JSON builtin over a
// document and a path.
func EvalJSONArrayFunction(name, doc, pathExpr string) (res []string, isNull bool, err error) {
	f, err := GetBuiltinFunction(name, doc, pathExpr)
	if err != nil {
		observeExtraction(name, false, err)
		return nil, false, errors.Trace(err)
	}
	af, ok := f.(builtinArrayFunc)
	if !ok {
		return nil, false, ErrFunctionNotExists.GenWithStackByArgs(name)
	}
	res, isNull, err = af.evalStringArray()
	observeExtraction(name, isNull, err)
	return res, isNull, errors.Trace(err)
}

// JSONExtract implements JSON_EXTRACT(doc, path).
func JSONExtract(doc, pathExpr string) (string, bool, error) {
	return EvalJSONFunction(FuncJSONExtract, doc, pathExpr)
}

// JSONExtractScalar implements JSON_EXTRACT_SCALAR(doc, path).
func JSONExtractScalar(doc, pathExpr string) (string, bool, error) {
	return EvalJSONFunction(FuncJSONExtractScalar, doc, pathExpr)
}

// JSONExtractArray implements JSON_EXTRACT_ARRAY(doc, path).
func JSONExtractArray(doc, pathExpr string) ([]string, bool, error) {
	return EvalJSONArrayFunction(FuncJSONExtractArray, doc, pathExpr)
}

// JSONQuery implements JSON_QUERY(doc, path).
func JSONQuery(doc, pathExpr string) (string, bool, error) {
	return EvalJSONFunction(FuncJSONQuery, doc, pathExpr)
}

// JSONValue implements JSON_VALUE(doc, path).
func JSONValue(doc, pathExpr string) (string, bool, error) {
	return EvalJSONFunction(FuncJSONValue, doc, pathExpr)
}
