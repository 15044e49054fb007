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

// Package sqlite implements the SQLite Dialect (spec §4.8): double-quote
// identifier quoting, ?-style placeholders, and json_each-based support
// for the json "contains" overload via SQLite's JSON1 extension.
package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Dialect implements dialect.Dialect for SQLite.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

func New() Dialect { return Dialect{} }

func (Dialect) Kind() dialect.Kind { return dialect.SQLite }

func (Dialect) QuoteIdentifier(ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		segments[i] = `"` + strings.ReplaceAll(seg, `"`, `""`) + `"`
	}
	return strings.Join(segments, ".")
}

func (Dialect) Cast(expr string, fieldType string) string {
	switch fieldType {
	case "boolean", "integer":
		return fmt.Sprintf("CAST(%s AS INTEGER)", expr)
	case "number", "decimal":
		return fmt.Sprintf("CAST(%s AS REAL)", expr)
	default:
		return expr
	}
}

var comparisonSQL = map[operator.Op]string{
	operator.Eq:  "=",
	operator.Ne:  "<>",
	operator.Gt:  ">",
	operator.Gte: ">=",
	operator.Lt:  "<",
	operator.Lte: "<=",
}

func (Dialect) Comparison(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	sym, ok := comparisonSQL[op]
	if !ok {
		return dialect.Fragment{}, sqlerr.Structural("not a comparison operator: %s", op)
	}
	ph, err := p.Add(args.Values[0])
	if err != nil {
		return dialect.Fragment{}, err
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s %s %s", args.Column, sym, ph)}, nil
}

func (Dialect) NullCheck(op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if op == operator.IsNull {
		return dialect.Fragment{SQL: fmt.Sprintf("%s IS NULL", args.Column)}, nil
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s IS NOT NULL", args.Column)}, nil
}

func (Dialect) Between(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if len(args.Values) != 2 {
		return dialect.Fragment{}, sqlerr.Structural("between requires exactly 2 operands, found %d", len(args.Values))
	}
	lo, err := p.Add(args.Values[0])
	if err != nil {
		return dialect.Fragment{}, err
	}
	hi, err := p.Add(args.Values[1])
	if err != nil {
		return dialect.Fragment{}, err
	}
	kw := "BETWEEN"
	if op == operator.NotBetween {
		kw = "NOT BETWEEN"
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s %s %s AND %s", args.Column, kw, lo, hi)}, nil
}

func (Dialect) InOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if args.FieldType == "array" || args.FieldType == "jsonb" {
		return dialect.Fragment{}, sqlerr.Dialect("in/not_in over an array or jsonb column is not supported on sqlite")
	}

	list, _ := args.Values[0].([]any)
	if len(list) == 0 {
		if op == operator.In {
			return dialect.Fragment{SQL: "1=0"}, nil
		}
		return dialect.Fragment{SQL: "1=1"}, nil
	}

	placeholders := make([]string, len(list))
	for i, v := range list {
		ph, err := p.Add(v)
		if err != nil {
			return dialect.Fragment{}, err
		}
		placeholders[i] = ph
	}
	kw := "IN"
	if op == operator.NotIn {
		kw = "NOT IN"
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s %s (%s)", args.Column, kw, strings.Join(placeholders, ", "))}, nil
}

func (Dialect) StringOp(p dialect.Params, op operator.Op, _ bool, args dialect.EmitArgs) (dialect.Fragment, error) {
	value, _ := args.Values[0].(string)
	var pattern string
	switch op {
	case operator.StartsWith:
		pattern = dialect.EscapeLikeStandard(value) + "%"
	case operator.EndsWith:
		pattern = "%" + dialect.EscapeLikeStandard(value)
	case operator.Contains:
		pattern = "%" + dialect.EscapeLikeStandard(value) + "%"
	case operator.Like, operator.ILike:
		pattern = value
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported string operator %s on sqlite", op)
	}

	ph, err := p.Add(pattern)
	if err != nil {
		return dialect.Fragment{}, err
	}
	// SQLite's LIKE is case-insensitive for ASCII by default and has no
	// per-query case-sensitive variant short of the case_sensitive_like
	// PRAGMA, which is a connection-level setting this layer cannot flip
	// mid-query; case_sensitive on a sqlite field is therefore honored
	// only to the extent the caller's connection already enables it.
	return dialect.Fragment{SQL: fmt.Sprintf("%s LIKE %s ESCAPE '\\'", args.Column, ph)}, nil
}

func (Dialect) ArrayOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if args.FieldType != "json" && args.FieldType != "jsonb" {
		return dialect.Fragment{}, sqlerr.Dialect("array operator %s requires a json column on sqlite", op)
	}
	switch op {
	case operator.Contains, operator.Overlaps, operator.AnyOf:
		list, ok := args.Values[0].([]any)
		if !ok {
			list = []any{args.Values[0]}
		}
		placeholders := make([]string, len(list))
		for i, v := range list {
			ph, err := p.Add(v)
			if err != nil {
				return dialect.Fragment{}, err
			}
			placeholders[i] = ph
		}
		sql := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value IN (%s))",
			args.Column, strings.Join(placeholders, ", "),
		)
		return dialect.Fragment{SQL: sql}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on sqlite", op)
	}
}

func (Dialect) AnyILike(_ dialect.Params, op operator.Op, _ dialect.EmitArgs) (dialect.Fragment, error) {
	return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on sqlite", op)
}

func (Dialect) JSONOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	switch op {
	case operator.JSONContains:
		raw, err := json.Marshal(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, sqlerr.Parameter("unable to encode json_contains value: %v", err)
		}
		ph, err := p.Add(string(raw))
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = %s)", args.Column, ph)}, nil
	case operator.JSONHasKey:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("json_extract(%s, '$.' || %s) IS NOT NULL", args.Column, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported json operator %s on sqlite", op)
	}
}
