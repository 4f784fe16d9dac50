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

package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pingcap/log"
	"github.com/pingcap/parser/terror"
	"go.uber.org/zap"

	"github.com/quarrydb/quarry/config"
	"github.com/quarrydb/quarry/expression"
	"github.com/quarrydb/quarry/metrics"
	"github.com/quarrydb/quarry/util/logutil"
)

// Flag Names
const (
	nmConfig   = "config"
	nmFunc     = "func"
	nmPath     = "path"
	nmDoc      = "doc"
	nmEscape   = "escape"
	nmLogLevel = "L"
	nmLogFile  = "log-file"
)

var (
	configPath = flag.String(nmConfig, "", "config file path")

	// Extraction
	funcName = flag.String(nmFunc, expression.FuncJSONExtract, "JSON function to evaluate: json_extract, json_extract_scalar, json_extract_array, json_query, json_value")
	pathExpr = flag.String(nmPath, "$", "JSONPath expression")
	docFile  = flag.String(nmDoc, "", "file holding the JSON document, stdin when empty")
	escape   = flag.Bool(nmEscape, true, "re-emit string values with JSON-standard escapes")

	// Log
	logLevel = flag.String(nmLogLevel, "info", "log level: info, debug, warn, error, fatal")
	logFile  = flag.String(nmLogFile, "", "log file path")
)

func main() {
	flag.Parse()
	cfg := loadConfig()
	overrideConfig(cfg)
	terror.MustNil(cfg.Valid())
	config.StoreGlobalConfig(cfg)
	setupLog(cfg)
	metrics.RegisterMetrics()

	doc := readDocument()
	runExtraction(doc)
}

func loadConfig() *config.Config {
	cfg := config.NewConfig()
	if *configPath == "" {
		return cfg
	}
	err := cfg.Load(*configPath)
	if err == nil {
		return cfg
	}
	// Unused config options are only a warning; everything else is fatal.
	if _, ok := err.(*config.ErrConfigValidationFailed); ok {
		fmt.Fprintln(os.Stderr, err.Error())
		return cfg
	}
	terror.MustNil(err)
	return cfg
}

// overrideConfig considers the command arguments and overrides the config.
func overrideConfig(cfg *config.Config) {
	actualFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		actualFlags[f.Name] = true
	})

	if actualFlags[nmLogLevel] {
		cfg.Log.Level = *logLevel
	}
	if actualFlags[nmLogFile] {
		cfg.Log.File.Filename = *logFile
	}
	if actualFlags[nmEscape] {
		cfg.Extraction.SpecialCharacterEscaping = *escape
	}
}

func setupLog(cfg *config.Config) {
	err := logutil.InitZapLogger(cfg.Log.ToLogConfig())
	terror.MustNil(err)
	err = logutil.InitLogger(cfg.Log.ToLogConfig())
	terror.MustNil(err)
}

func readDocument() string {
	if *docFile == "" || *docFile == "-" {
		data, err := ioutil.ReadAll(os.Stdin)
		terror.MustNil(err)
		return string(data)
	}
	data, err := ioutil.ReadFile(*docFile)
	terror.MustNil(err)
	return string(data)
}

func runExtraction(doc string) {
	name := strings.ToLower(*funcName)
	if name == expression.FuncJSONExtractArray {
		values, isNull, err := expression.EvalJSONArrayFunction(name, doc, *pathExpr)
		if err != nil {
			log.Fatal("extraction failed", zap.String("func", name), zap.String("path", *pathExpr), zap.Error(err))
		}
		if isNull {
			fmt.Println("NULL")
			return
		}
		for _, value := range values {
			fmt.Println(value)
		}
		return
	}

	value, isNull, err := expression.EvalJSONFunction(name, doc, *pathExpr)
	if err != nil {
		log.Fatal("extraction failed", zap.String("func", name), zap.String("path", *pathExpr), zap.Error(err))
	}
	if isNull {
		fmt.Println("NULL")
		return
	}
	fmt.Println(value)
}
