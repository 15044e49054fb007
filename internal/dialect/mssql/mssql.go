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

// Package mssql implements the MSSQL Dialect (spec §4.8): bracket
// identifier quoting, @p-style named placeholders, and the narrowest
// operator surface of the four dialects: no native array operators,
// in/not_in only on scalar columns, and json_has_key (via JSON_VALUE) as
// the only JSON operator. OPENJSON is not used.
package mssql

import (
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Dialect implements dialect.Dialect for Microsoft SQL Server.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

func New() Dialect { return Dialect{} }

func (Dialect) Kind() dialect.Kind { return dialect.MSSQL }

func (Dialect) QuoteIdentifier(ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		segments[i] = "[" + strings.ReplaceAll(seg, "]", "]]") + "]"
	}
	return strings.Join(segments, ".")
}

func (Dialect) Cast(expr string, fieldType string) string {
	switch fieldType {
	case "boolean":
		return fmt.Sprintf("CAST(%s AS BIT)", expr)
	case "integer":
		return fmt.Sprintf("CAST(%s AS BIGINT)", expr)
	case "number", "decimal":
		return fmt.Sprintf("CAST(%s AS DECIMAL(38,10))", expr)
	case "date":
		return fmt.Sprintf("CAST(%s AS DATE)", expr)
	case "datetime", "timestamp":
		return fmt.Sprintf("CAST(%s AS DATETIME2)", expr)
	case "uuid":
		return fmt.Sprintf("CAST(%s AS UNIQUEIDENTIFIER)", expr)
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
		return dialect.Fragment{}, sqlerr.Dialect("in/not_in over an array or json column is not supported on mssql")
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
		pattern = dialect.EscapeLikeBracket(value) + "%"
	case operator.EndsWith:
		pattern = "%" + dialect.EscapeLikeBracket(value)
	case operator.Contains:
		pattern = "%" + dialect.EscapeLikeBracket(value) + "%"
	case operator.Like, operator.ILike:
		pattern = value
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported string operator %s on mssql", op)
	}

	ph, err := p.Add(pattern)
	if err != nil {
		return dialect.Fragment{}, err
	}
	// Case sensitivity on MSSQL is a database/column collation property,
	// not a query-level keyword; COLLATE is appended only when the field
	// explicitly demands case-sensitive comparison against a
	// case-insensitive default collation.
	column := args.Column
	if caseSensitive && op != operator.ILike {
		column = fmt.Sprintf("%s COLLATE Latin1_General_CS_AS", column)
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s LIKE %s", column, ph)}, nil
}

func (Dialect) ArrayOp(_ dialect.Params, op operator.Op, _ dialect.EmitArgs) (dialect.Fragment, error) {
	return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on mssql", op)
}

func (Dialect) AnyILike(_ dialect.Params, op operator.Op, _ dialect.EmitArgs) (dialect.Fragment, error) {
	return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s on mssql", op)
}

func (Dialect) JSONOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	switch op {
	case operator.JSONHasKey:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("JSON_VALUE(%s, CONCAT('$.', %s)) IS NOT NULL", args.Column, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported json operator %s on mssql", op)
	}
}
