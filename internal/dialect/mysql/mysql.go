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

// Package mysql implements the MySQL Dialect (spec §4.8): backtick
// identifier quoting, ?-style placeholders, JSON_CONTAINS for the jsonb
// "contains" overload, and no native array column support beyond
// JSON-encoded columns.
package mysql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Dialect implements dialect.Dialect for MySQL.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

func New() Dialect { return Dialect{} }

func (Dialect) Kind() dialect.Kind { return dialect.MySQL }

func (Dialect) QuoteIdentifier(ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		segments[i] = "`" + strings.ReplaceAll(seg, "`", "``") + "`"
	}
	return strings.Join(segments, ".")
}

func (Dialect) Cast(expr string, fieldType string) string {
	switch fieldType {
	case "boolean", "integer":
		return fmt.Sprintf("CAST(%s AS SIGNED)", expr)
	case "number", "decimal":
		return fmt.Sprintf("CAST(%s AS DECIMAL(65,30))", expr)
	case "date":
		return fmt.Sprintf("CAST(%s AS DATE)", expr)
	case "datetime", "timestamp":
		return fmt.Sprintf("CAST(%s AS DATETIME)", expr)
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
	if args.FieldType == "array" || args.FieldType == "jsonb" || args.FieldType == "json" {
		return dialect.Fragment{}, sqlerr.Dialect("in/not_in over an array or json column is not supported on mysql")
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

func (Dialect) StringOp(p dialect.Params, op operator.Op, caseSensitive bool, args dialect.EmitArgs) (dialect.Fragment, error) {
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
	case operator.Regex:
		ph, err := p.Add(value)
		if err != nil {
			return dialect.Fragment{}, err
		}
		kw := "REGEXP BINARY"
		if !caseSensitive {
			kw = "REGEXP"
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s %s %s", args.Column, kw, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported string operator %s", op)
	}

	ph, err := p.Add(pattern)
	if err != nil {
		return dialect.Fragment{}, err
	}
	// MySQL's LIKE is case-insensitive by default under the typical
	// ci collation; for a case-sensitive field a BINARY cast is applied
	// on the column side (except for ilike).
	column := args.Column
	if caseSensitive && op != operator.ILike {
		column = fmt.Sprintf("BINARY %s", column)
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s LIKE %s", column, ph)}, nil
}

func (Dialect) ArrayOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if args.FieldType != "json" && args.FieldType != "jsonb" {
		return dialect.Fragment{}, sqlerr.Dialect("array operator %s requires a json column on mysql", op)
	}
	switch op {
	case operator.Contains:
		raw, err := json.Marshal(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, sqlerr.Parameter("unable to encode contains value: %v", err)
		}
		ph, err := p.Add(string(raw))
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("JSON_CONTAINS(%s, %s)", args.Column, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on mysql", op)
	}
}

func (Dialect) AnyILike(_ dialect.Params, op operator.Op, _ dialect.EmitArgs) (dialect.Fragment, error) {
	return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on mysql", op)
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
		return dialect.Fragment{SQL: fmt.Sprintf("JSON_CONTAINS(%s, %s)", args.Column, ph)}, nil
	case operator.JSONHasKey:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("JSON_CONTAINS_PATH(%s, 'one', CONCAT('$.', %s))", args.Column, ph)}, nil
	case operator.JSONHasAnyKeys:
		keys, _ := args.Values[0].([]any)
		if len(keys) == 0 {
			return dialect.Fragment{SQL: "1=0"}, nil
		}
		paths := make([]string, len(keys))
		for i, k := range keys {
			ph, err := p.Add(k)
			if err != nil {
				return dialect.Fragment{}, err
			}
			paths[i] = fmt.Sprintf("CONCAT('$.', %s)", ph)
		}
		return dialect.Fragment{SQL: fmt.Sprintf("JSON_CONTAINS_PATH(%s, 'one', %s)", args.Column, strings.Join(paths, ", "))}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported json operator %s", op)
	}
}
