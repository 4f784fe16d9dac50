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
	"github.com/pingcap/parser/mysql"
	"github.com/pingcap/parser/terror"
)

// Error instances of the expression package.
var (
	// ErrFunctionNotExists means the requested builtin is not registered.
	ErrFunctionNotExists = terror.ClassExpression.New(mysql.ErrSpDoesNotExist, "FUNCTION %s does not exist")
	// ErrIncorrectParameterCount means a builtin was called with the wrong
	// number of arguments.
	ErrIncorrectParameterCount = terror.ClassExpression.New(mysql.ErrWrongParamcountToNativeFct, "Incorrect parameter count in the call to native function '%s'")
)

func init() {
	expressionMySQLErrCodes := map[terror.ErrCode]uint16{
		mysql.ErrSpDoesNotExist:             mysql.ErrSpDoesNotExist,
		mysql.ErrWrongParamcountToNativeFct: mysql.ErrWrongParamcountToNativeFct,
	}
	terror.ErrClassToMySQLCodes[terror.ClassExpression] = expressionMySQLErrCodes
}

// builtinFunc is a builtin function with its call arguments bound.
type builtinFunc interface {
	// evalString evaluates the function into a string result.
	evalString() (res string, isNull bool, err error)
}

// builtinArrayFunc is implemented by builtins whose result is a string list.
type builtinArrayFunc interface {
	// evalStringArray evaluates the function into a list of strings.
	evalStringArray() (res []string, isNull bool, err error)
}

// functionClass turns call arguments into a bound builtinFunc, validating
// them the way statement compilation would.
type functionClass interface {
	getFunction(args []string) (builtinFunc, error)
}

type baseFunctionClass struct {
	funcName string
	minArgs  int
	maxArgs  int
}

func (b *baseFunctionClass) verifyArgs(args []string) error {
	l := len(args)
	if l < b.minArgs || (b.maxArgs != -1 && l > b.maxArgs) {
		return ErrIncorrectParameterCount.GenWithStackByArgs(b.funcName)
	}
	return nil
}

type baseBuiltinFunc struct {
	args []string
}

func newBaseBuiltinFunc(args []string) baseBuiltinFunc {
	return baseBuiltinFunc{args: args}
}

// GetBuiltinFunction binds args to the named builtin. Path compilation
// happens here, so a broken path fails at bind time the way a broken
// statement would.
func GetBuiltinFunction(name string, args ...string) (builtinFunc, error) {
	fc, ok := funcs[name]
	if !ok {
		return nil, ErrFunctionNotExists.GenWithStackByArgs(name)
	}
	f, err := fc.getFunction(args)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}
