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

// Package rule parses a sanitized JSON Logic value into the Rule sum type
// (spec §9 "Design Notes"): And/Or/Not connectives over Cond leaves. The
// generic JSON decode uses goccy/go-json rather than encoding/json,
// matching this corpus's preference (kaptinlin/jsonschema, the teacher's
// tool configs) for goccy's faster, allocation-light decoder.
package rule

import (
	gojson "github.com/goccy/go-json"

	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// Rule is the sum type described in spec §9:
//
//	Rule = And(list<Rule>) | Or(list<Rule>) | Not(Rule) | Cond{token, field, v1?, v2?}
//
// Exactly one of the fields below is meaningful for any given Rule value,
// selected by Kind.
type Rule struct {
	Kind     Kind
	Children []Rule // And, Or
	Inner    *Rule  // Not

	Op     operator.Op // Cond
	Field  string       // Cond: the {var: name} operand
	Values []any        // Cond: 0-2 value operands, in order
}

type Kind int

const (
	KindAnd Kind = iota
	KindOr
	KindNot
	KindCond
)

// Parse decodes a sanitized JSON Logic value (as produced by
// sanitize.Sanitize, so already free of cycles and prototype-pollution
// keys) into a Rule tree.
func Parse(v any) (Rule, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Rule{}, sqlerr.Structural("rule node must be a JSON object")
	}
	if len(obj) != 1 {
		return Rule{}, sqlerr.Structural("rule node must have exactly one key, found %d", len(obj))
	}

	for token, rawOperands := range obj {
		op, err := operator.Canonicalize(token)
		if err != nil {
			return Rule{}, err
		}

		operands, err := asOperandList(rawOperands)
		if err != nil {
			return Rule{}, err
		}

		switch op {
		case operator.And:
			return parseConnective(KindAnd, operands)
		case operator.Or:
			return parseConnective(KindOr, operands)
		case operator.Not:
			if len(operands) != 1 {
				return Rule{}, sqlerr.Structural("\"not\" requires exactly 1 operand, found %d", len(operands))
			}
			inner, err := Parse(operands[0])
			if err != nil {
				return Rule{}, err
			}
			return Rule{Kind: KindNot, Inner: &inner}, nil
		default:
			return parseCondition(token, op, operands)
		}
	}
	panic("unreachable")
}

func parseConnective(kind Kind, operands []any) (Rule, error) {
	children := make([]Rule, 0, len(operands))
	for _, operand := range operands {
		child, err := Parse(operand)
		if err != nil {
			return Rule{}, err
		}
		children = append(children, child)
	}
	return Rule{Kind: kind, Children: children}, nil
}

func parseCondition(token string, op operator.Op, operands []any) (Rule, error) {
	if len(operands) == 0 {
		return Rule{}, sqlerr.Structural("condition %q requires at least a field operand", token).WithOperator(token)
	}

	field, err := extractVar(operands[0])
	if err != nil {
		return Rule{}, err
	}

	values := operands[1:]
	if len(values) > 2 {
		return Rule{}, sqlerr.Structural("condition %q accepts at most 2 value operands, found %d", token, len(values)).
			WithOperator(token).WithField(field)
	}

	return Rule{Kind: KindCond, Op: op, Field: field, Values: values}, nil
}

// extractVar resolves the {"var": "name"} marker node spec §3 calls a
// field_reference.
func extractVar(v any) (string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", sqlerr.Structural("expected a {\"var\": name} field reference, found %T", v)
	}
	raw, ok := obj["var"]
	if !ok {
		return "", sqlerr.Structural("expected a {\"var\": name} field reference, missing \"var\" key")
	}
	name, ok := raw.(string)
	if !ok {
		return "", sqlerr.Structural("field reference \"var\" must be a string, found %T", raw)
	}
	return name, nil
}

// asOperandList normalizes the JSON Logic operand shape, which may be a
// bare value (treated as a single operand) or an array of operands.
func asOperandList(v any) ([]any, error) {
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

// Decode unmarshals raw JSON bytes into the generic `any` tree Parse
// expects, using goccy/go-json.
func Decode(data []byte) (any, error) {
	var v any
	if err := gojson.Unmarshal(data, &v); err != nil {
		return nil, sqlerr.Structural("invalid JSON: %v", err)
	}
	return v, nil
}
