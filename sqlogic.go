// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlogic is the public entry point of the compiler: it sanitizes
// a JSON Logic rule, resolves it against a field schema, and emits a
// parameterized SQL WHERE fragment for one of four SQL dialects.
package sqlogic

import (
	"encoding/json"

	"github.com/Nam088/json-logic-to-sql/internal/compiler"
	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	dmssql "github.com/Nam088/json-logic-to-sql/internal/dialect/mssql"
	dmysql "github.com/Nam088/json-logic-to-sql/internal/dialect/mysql"
	dpostgres "github.com/Nam088/json-logic-to-sql/internal/dialect/postgres"
	dsqlite "github.com/Nam088/json-logic-to-sql/internal/dialect/sqlite"
	"github.com/Nam088/json-logic-to-sql/internal/rule"
	"github.com/Nam088/json-logic-to-sql/internal/sanitize"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Result is the outcome of a successful Compile.
type Result struct {
	// SQL is the WHERE fragment, without the leading "WHERE".
	SQL string
	// Params is the stored parameter map, keyed "p1".."pN".
	Params map[string]any
	// ParamsArray is the same parameters in positional bind order.
	ParamsArray []any
}

// config is the mutable option state built up by Option functions.
type config struct {
	kind        dialect.Kind
	placeholder dialect.PlaceholderStyle
	overridden  bool
	metrics     MetricsSink
}

// Option configures a Compile call.
type Option func(*config)

// WithDialect selects the target SQL dialect. Required.
func WithDialect(kind dialect.Kind) Option {
	return func(c *config) { c.kind = kind }
}

// WithPlaceholderStyle overrides the dialect's conventional placeholder
// surface syntax (spec §6).
func WithPlaceholderStyle(style dialect.PlaceholderStyle) Option {
	return func(c *config) { c.placeholder = style; c.overridden = true }
}

// MetricsSink receives one observation per successful Compile
// (SPEC_FULL §4): the dialect used, the number of conditions emitted, and
// the number of parameters bound. Implementations must not block.
type MetricsSink interface {
	ObserveCompile(dialectKind string, conditionCount, paramCount int)
}

// WithMetrics attaches a MetricsSink invoked once per successful compile
// (SPEC_FULL §4 "Supplemented Features").
func WithMetrics(sink MetricsSink) Option {
	return func(c *config) { c.metrics = sink }
}

func dialectFor(kind dialect.Kind) (dialect.Dialect, error) {
	switch kind {
	case dialect.PostgreSQL:
		return dpostgres.New(), nil
	case dialect.MySQL:
		return dmysql.New(), nil
	case dialect.MSSQL:
		return dmssql.New(), nil
	case dialect.SQLite:
		return dsqlite.New(), nil
	default:
		return nil, sqlerr.Structural("unknown dialect %q", kind)
	}
}

// Compile sanitizes, parses, and compiles a JSON Logic rule against s,
// emitting a parameterized SQL fragment for the dialect selected via
// WithDialect. The rule document must decode to a single-key object per
// node (spec §3 "Rule tree").
func Compile(s *schema.Schema, rawRule json.RawMessage, opts ...Option) (Result, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.kind == "" {
		return Result{}, sqlerr.Structural("a dialect must be selected via WithDialect")
	}

	d, err := dialectFor(cfg.kind)
	if err != nil {
		return Result{}, err
	}

	decoded, err := rule.Decode(rawRule)
	if err != nil {
		return Result{}, err
	}

	clean, err := sanitize.Sanitize(decoded)
	if err != nil {
		return Result{}, err
	}

	parsed, err := rule.Parse(clean)
	if err != nil {
		return Result{}, err
	}

	var res compiler.Result
	if cfg.overridden {
		res, err = compiler.CompileWithPlaceholderStyle(s, d, parsed, cfg.placeholder)
	} else {
		res, err = compiler.Compile(s, d, parsed)
	}
	if err != nil {
		return Result{}, err
	}

	if cfg.metrics != nil {
		cfg.metrics.ObserveCompile(string(cfg.kind), conditionCount(parsed), len(res.ParamsArray))
	}

	return Result{SQL: res.SQL, Params: res.Params, ParamsArray: res.ParamsArray}, nil
}

func conditionCount(r rule.Rule) int {
	switch r.Kind {
	case rule.KindCond:
		return 1
	case rule.KindNot:
		if r.Inner == nil {
			return 0
		}
		return conditionCount(*r.Inner)
	default:
		n := 0
		for _, child := range r.Children {
			n += conditionCount(child)
		}
		return n
	}
}
