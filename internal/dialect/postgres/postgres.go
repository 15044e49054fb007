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

// Package postgres implements the PostgreSQL Dialect (spec §4.8): "x"
// identifier quoting, $-style placeholders, native array and jsonb
// operator support, and PostgreSQL's array/jsonb "in" → "overlaps"
// reinterpretation.
package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Dialect implements dialect.Dialect for PostgreSQL.
type Dialect struct{}

var _ dialect.Dialect = Dialect{}

func New() Dialect { return Dialect{} }

func (Dialect) Kind() dialect.Kind { return dialect.PostgreSQL }

func (Dialect) QuoteIdentifier(ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		segments[i] = `"` + strings.ReplaceAll(seg, `"`, `""`) + `"`
	}
	return strings.Join(segments, ".")
}

func (Dialect) Cast(expr string, fieldType string) string {
	switch fieldType {
	case "boolean":
		return fmt.Sprintf("(%s)::boolean", expr)
	case "integer", "number", "decimal":
		return fmt.Sprintf("(%s)::numeric", expr)
	case "date":
		return fmt.Sprintf("(%s)::date", expr)
	case "datetime", "timestamp":
		return fmt.Sprintf("(%s)::timestamp", expr)
	case "uuid":
		return fmt.Sprintf("(%s)::uuid", expr)
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

func (d Dialect) InOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	if args.FieldType == "array" || args.FieldType == "jsonb" {
		// spec §4.8: a candidate list against a multi-valued column means
		// "any of these appears" — reinterpret as overlaps.
		frag, err := d.ArrayOp(p, operator.Overlaps, args)
		if err != nil {
			return dialect.Fragment{}, err
		}
		if op == operator.NotIn {
			frag.SQL = "NOT (" + frag.SQL + ")"
		}
		return frag, nil
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
		sym := "~"
		if !caseSensitive {
			sym = "~*"
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s %s %s", args.Column, sym, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported string operator %s", op)
	}

	ph, err := p.Add(pattern)
	if err != nil {
		return dialect.Fragment{}, err
	}
	kw := "LIKE"
	if op == operator.ILike || !caseSensitive {
		kw = "ILIKE"
	}
	return dialect.Fragment{SQL: fmt.Sprintf("%s %s %s", args.Column, kw, ph)}, nil
}

func (d Dialect) ArrayOp(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	isJSONB := args.FieldType == "jsonb" || args.FieldType == "json"

	switch op {
	case operator.Contains:
		ph, jsonb, err := d.addArrayOrJSONBParam(p, args.Values[0], isJSONB)
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s @> %s", args.Column, jsonb(ph))}, nil
	case operator.ContainedBy:
		ph, jsonb, err := d.addArrayOrJSONBParam(p, args.Values[0], isJSONB)
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s <@ %s", args.Column, jsonb(ph))}, nil
	case operator.Overlaps:
		if isJSONB {
			return d.jsonbElementsExists(p, args)
		}
		ph, _, err := d.addArrayOrJSONBParam(p, args.Values[0], false)
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s && %s", args.Column, ph)}, nil
	case operator.AnyOf:
		if isJSONB {
			return d.jsonbElementsExists(p, args)
		}
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s = ANY(%s)", ph, args.Column)}, nil
	case operator.NotAnyOf:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s <> ALL(%s)", ph, args.Column)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported array operator %s", op)
	}
}

// addArrayOrJSONBParam registers value as a parameter, pre-serializing it
// to a JSON string when the field is jsonb (spec §4.8 "for jsonb the param
// is cast ::jsonb and when the placeholder style is ? the value is
// pre-serialized"). PostgreSQL defaults to $-style placeholders, but the
// style can be overridden to ? at compile time; the pre-serialization is
// applied whatever the placeholder style. Returns a wrapper function that
// appends "::jsonb" when needed.
func (Dialect) addArrayOrJSONBParam(p dialect.Params, value any, isJSONB bool) (string, func(string) string, error) {
	v := value
	if isJSONB {
		if raw, err := json.Marshal(value); err == nil {
			v = string(raw)
		}
	}
	ph, err := p.Add(v)
	if err != nil {
		return "", nil, err
	}
	if isJSONB {
		return ph, func(s string) string { return s + "::jsonb" }, nil
	}
	return ph, func(s string) string { return s }, nil
}

// jsonbElementsExists emits the EXISTS(SELECT 1 FROM jsonb_array_elements_text...)
// pattern used for overlaps/any_of over a jsonb column (spec §4.8), with
// one placeholder per candidate element.
func (Dialect) jsonbElementsExists(p dialect.Params, args dialect.EmitArgs) (dialect.Fragment, error) {
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
		"EXISTS (SELECT 1 FROM jsonb_array_elements_text(%s) AS elem WHERE elem = ANY(ARRAY[%s]))",
		args.Column, strings.Join(placeholders, ", "),
	)
	return dialect.Fragment{SQL: sql}, nil
}

func (Dialect) AnyILike(p dialect.Params, op operator.Op, args dialect.EmitArgs) (dialect.Fragment, error) {
	value, _ := args.Values[0].(string)
	pattern := "%" + dialect.EscapeLikeStandard(value) + "%"
	ph, err := p.Add(pattern)
	if err != nil {
		return dialect.Fragment{}, err
	}
	kw := "EXISTS"
	if op == operator.NotAnyILike {
		kw = "NOT EXISTS"
	}
	sql := fmt.Sprintf("%s (SELECT 1 FROM unnest(%s) AS x WHERE x ILIKE %s)", kw, args.Column, ph)
	return dialect.Fragment{SQL: sql}, nil
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
		return dialect.Fragment{SQL: fmt.Sprintf("%s @> %s::jsonb", args.Column, ph)}, nil
	case operator.JSONHasKey:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s ?? %s", args.Column, ph)}, nil
	case operator.JSONHasAnyKeys:
		ph, err := p.Add(args.Values[0])
		if err != nil {
			return dialect.Fragment{}, err
		}
		return dialect.Fragment{SQL: fmt.Sprintf("%s ??| %s", args.Column, ph)}, nil
	default:
		return dialect.Fragment{}, sqlerr.Dialect("unsupported json operator %s", op)
	}
}
