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

// Package dialect defines Component F: the per-SQL-family decisions
// (identifier quoting, placeholder style, operator availability, casting)
// behind a single Dialect interface, plus the LIKE escape rules shared
// across implementations
// (spec §4.8, §9 "String escaping tables").
package dialect

import "github.com/Nam088/json-logic-to-sql/internal/operator"

// Kind names one of the four supported SQL dialects.
type Kind string

const (
	PostgreSQL Kind = "postgresql"
	MySQL      Kind = "mysql"
	MSSQL      Kind = "mssql"
	SQLite     Kind = "sqlite"
)

// PlaceholderStyle names the surface syntax used for bound parameters.
type PlaceholderStyle string

const (
	Dollar   PlaceholderStyle = "dollar"
	Question PlaceholderStyle = "question"
	At       PlaceholderStyle = "at"
)

// DefaultPlaceholderStyle returns the conventional placeholder style for a
// dialect, used when no explicit override is configured (spec §6).
func DefaultPlaceholderStyle(k Kind) PlaceholderStyle {
	switch k {
	case PostgreSQL:
		return Dollar
	case MSSQL:
		return At
	default:
		return Question
	}
}

// EmitArgs carries everything an emitter needs beyond the operator and
// operand values: the already-built column expression, the field's
// logical type (for JSONB/array dispatch), and the operand values. The
// Params sink is passed to each emitter as a separate argument.
type EmitArgs struct {
	Column    string
	FieldType string // schema.FieldType as a string, to avoid an import cycle
	Values    []any
}

// Fragment is the result of emitting one condition: the SQL text only.
// Any parameters it references were already registered by the emitter
// via Params.Add.
type Fragment struct {
	SQL string
}

// Params is the insertion-ordered parameter sink threaded through a single
// compile (spec §3 "Compilation context"). Component F emitters call Add
// to register a value and receive back the placeholder text to splice into
// the SQL they return.
type Params interface {
	// Add registers value as the next parameter and returns the dialect
	// placeholder text for it (e.g. "$1", "?", "@p1").
	Add(value any) (placeholder string, err error)
}

// Dialect is the interface the compiler driver invokes once per condition
// (spec §4.8). Implementations hold only their own configuration: no
// virtual inheritance, one struct per dialect, exhaustive switches inside.
type Dialect interface {
	Kind() Kind

	// QuoteIdentifier quotes a (possibly dot-qualified) identifier using
	// this dialect's quoting convention.
	QuoteIdentifier(ident string) string

	// Cast wraps a JSON-path column expression in a cast appropriate for
	// fieldType, or returns expr unchanged if no cast is needed (spec
	// §4.7 step 4).
	Cast(expr string, fieldType string) string

	// Comparison emits "column op placeholder" for eq/ne/gt/gte/lt/lte.
	Comparison(p Params, op operator.Op, args EmitArgs) (Fragment, error)

	// NullCheck emits "column IS [NOT] NULL".
	NullCheck(op operator.Op, args EmitArgs) (Fragment, error)

	// Between emits "column [NOT] BETWEEN p AND p".
	Between(p Params, op operator.Op, args EmitArgs) (Fragment, error)

	// InOp emits "column [NOT] IN (...)" for scalar fields, or the
	// array/jsonb overlaps reinterpretation on PostgreSQL (spec §4.8).
	InOp(p Params, op operator.Op, args EmitArgs) (Fragment, error)

	// StringOp emits like/ilike/starts_with/ends_with/contains(string)/regex.
	StringOp(p Params, op operator.Op, caseSensitive bool, args EmitArgs) (Fragment, error)

	// ArrayOp emits contains/contained_by/overlaps/any_of/not_any_of on
	// array or jsonb columns (spec §4.8 "Array operators").
	ArrayOp(p Params, op operator.Op, args EmitArgs) (Fragment, error)

	// AnyILike emits any_ilike/not_any_ilike over an array column.
	AnyILike(p Params, op operator.Op, args EmitArgs) (Fragment, error)

	// JSONOp emits json_contains/json_has_key/json_has_any_keys.
	JSONOp(p Params, op operator.Op, args EmitArgs) (Fragment, error)
}
