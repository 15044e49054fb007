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

// Package compiler implements Component G: the driver that walks a parsed
// Rule tree and emits a parameterized SQL fragment, enforcing the
// structural limits and per-condition invariants of spec §3 and §4.6 and
// dispatching leaf emission to Component F dialects.
package compiler

import (
	"fmt"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/rule"
	"github.com/Nam088/json-logic-to-sql/internal/sanitize"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
	"github.com/Nam088/json-logic-to-sql/internal/transform"
	"github.com/Nam088/json-logic-to-sql/internal/validate"
)

// Result is the outcome of a successful Compile: the SQL WHERE fragment
// (without the leading "WHERE") and its bound parameters, both in
// positional order and keyed by the stored "p{i}" name (spec §6).
type Result struct {
	SQL         string
	ParamsArray []any
	Params      map[string]any
}

// paramSink implements dialect.Params, accumulating values in insertion
// order and rendering the dialect-specific placeholder text for each.
type paramSink struct {
	style  dialect.PlaceholderStyle
	values []any
}

func (p *paramSink) Add(value any) (string, error) {
	if s, ok := value.(string); ok {
		if err := sanitize.CheckParameterString(s); err != nil {
			return "", err
		}
	}
	p.values = append(p.values, value)
	idx := len(p.values) // 1-based, matching p{i} storage convention
	switch p.style {
	case dialect.Dollar:
		return fmt.Sprintf("$%d", idx), nil
	case dialect.At:
		return fmt.Sprintf("@p%d", idx), nil
	default:
		return "?", nil
	}
}

func (p *paramSink) storedKeys() map[string]any {
	out := make(map[string]any, len(p.values))
	for i, v := range p.values {
		out[fmt.Sprintf("p%d", i+1)] = v
	}
	return out
}

// context carries the per-compile mutable state threaded through the walk
// (spec §3 "Compilation context"): nesting depth, a running condition
// count against the schema's limit, and the Params sink.
type context struct {
	schema         *schema.Schema
	d              dialect.Dialect
	params         *paramSink
	depth          int
	conditionCount int
}

// Compile walks root and returns the SQL WHERE fragment plus bound
// parameters. root must already be sanitized (spec §2 Sanitizer) and
// parsed into a rule.Rule (spec §9 design: Sanitize -> Parse -> Compile).
func Compile(s *schema.Schema, d dialect.Dialect, root rule.Rule) (Result, error) {
	ctx := &context{
		schema: s,
		d:      d,
		params: &paramSink{style: dialect.DefaultPlaceholderStyle(d.Kind())},
	}
	sql, err := ctx.visit(root)
	if err != nil {
		return Result{}, err
	}
	return Result{
		SQL:         sql,
		ParamsArray: ctx.params.values,
		Params:      ctx.params.storedKeys(),
	}, nil
}

// CompileWithPlaceholderStyle is identical to Compile but overrides the
// dialect's conventional placeholder surface syntax (spec §6 "placeholder
// style override").
func CompileWithPlaceholderStyle(s *schema.Schema, d dialect.Dialect, root rule.Rule, style dialect.PlaceholderStyle) (Result, error) {
	ctx := &context{
		schema: s,
		d:      d,
		params: &paramSink{style: style},
	}
	sql, err := ctx.visit(root)
	if err != nil {
		return Result{}, err
	}
	return Result{
		SQL:         sql,
		ParamsArray: ctx.params.values,
		Params:      ctx.params.storedKeys(),
	}, nil
}

func (c *context) visit(r rule.Rule) (string, error) {
	c.depth++
	defer func() { c.depth-- }()

	maxDepth := c.schema.Settings.MaxDepth
	if maxDepth > 0 && c.depth > maxDepth {
		return "", sqlerr.Structural("nesting depth %d exceeds maximum of %d", c.depth, maxDepth)
	}

	switch r.Kind {
	case rule.KindAnd:
		return c.visitConnective(r.Children, "AND")
	case rule.KindOr:
		return c.visitConnective(r.Children, "OR")
	case rule.KindNot:
		if r.Inner == nil {
			return "", sqlerr.Structural("\"not\" node missing its operand")
		}
		inner, err := c.visit(*r.Inner)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("NOT (%s)", inner), nil
	case rule.KindCond:
		return c.visitCondition(r)
	default:
		return "", sqlerr.Structural("unknown rule kind %d", r.Kind)
	}
}

func (c *context) visitConnective(children []rule.Rule, joiner string) (string, error) {
	if len(children) == 0 {
		return "", sqlerr.Structural("%s requires at least one condition", joiner)
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		part, err := c.visit(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + joinSQL(parts, " "+joiner+" ") + ")", nil
}

func joinSQL(parts []string, sep string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += sep + p
	}
	return out
}

func (c *context) visitCondition(r rule.Rule) (string, error) {
	c.conditionCount++
	maxConditions := c.schema.Settings.MaxConditions
	if maxConditions > 0 && c.conditionCount > maxConditions {
		return "", sqlerr.Structural("condition count %d exceeds maximum of %d", c.conditionCount, maxConditions)
	}

	f, err := validate.ResolveField(c.schema, r.Field)
	if err != nil {
		return "", err
	}
	// spec §3 invariant 4 / §8 invariant 3: the token actually quoted into
	// SQL is f.Column, not the logical {var} name used for schema lookup —
	// Computed and JSONPath fields splice a raw, trusted SQL expression
	// instead of a quoted identifier and are exempt.
	if !f.IsComputed() && !f.IsJSONPath() {
		if err := sanitize.CheckIdentifier(f.Column); err != nil {
			return "", err
		}
	}
	if err := validate.CheckOperator(r.Field, f, r.Op); err != nil {
		return "", err
	}

	if operator.IsUnary(r.Op) {
		if len(r.Values) != 0 {
			return "", sqlerr.Structural("operator %s takes no value operands, found %d", r.Op, len(r.Values)).
				WithField(r.Field).WithOperator(string(r.Op))
		}
	} else if len(r.Values) == 0 {
		return "", sqlerr.Structural("operator %s requires at least one value operand", r.Op).
			WithField(r.Field).WithOperator(string(r.Op))
	}

	for _, v := range r.Values {
		if err := validate.CheckValue(r.Field, f, r.Op, v); err != nil {
			return "", err
		}
	}

	values, err := applyInputTransforms(f, r.Values)
	if err != nil {
		return "", err
	}

	column, err := c.buildColumnExpr(f)
	if err != nil {
		return "", err
	}

	op := r.Op
	// spec §4.7: eq/ne against a null literal is rewritten to the unary
	// null-check operators, since "= NULL" is never true in SQL.
	if len(values) == 1 && values[0] == nil {
		switch op {
		case operator.Eq:
			op = operator.IsNull
		case operator.Ne:
			op = operator.IsNotNull
		}
	}

	args := dialect.EmitArgs{Column: column, FieldType: string(f.Type), Values: values}
	class := operator.ClassOf(op, string(f.Type))

	switch class {
	case operator.ClassComparison:
		return c.emit(func() (dialect.Fragment, error) { return c.d.Comparison(c.params, op, args) })
	case operator.ClassUnary:
		return c.emit(func() (dialect.Fragment, error) { return c.d.NullCheck(op, args) })
	case operator.ClassRange:
		return c.emit(func() (dialect.Fragment, error) { return c.d.Between(c.params, op, args) })
	case operator.ClassSet:
		return c.emit(func() (dialect.Fragment, error) { return c.d.InOp(c.params, op, args) })
	case operator.ClassString:
		return c.emit(func() (dialect.Fragment, error) { return c.d.StringOp(c.params, op, f.CaseSensitive, args) })
	case operator.ClassArray:
		if op == operator.AnyILike || op == operator.NotAnyILike {
			return c.emit(func() (dialect.Fragment, error) { return c.d.AnyILike(c.params, op, args) })
		}
		return c.emit(func() (dialect.Fragment, error) { return c.d.ArrayOp(c.params, op, args) })
	case operator.ClassJSON:
		return c.emit(func() (dialect.Fragment, error) { return c.d.JSONOp(c.params, op, args) })
	default:
		return "", sqlerr.Structural("unhandled operator class for %s", op)
	}
}

func (c *context) emit(f func() (dialect.Fragment, error)) (string, error) {
	frag, err := f()
	if err != nil {
		return "", err
	}
	return frag.SQL, nil
}

// buildColumnExpr resolves the field reference to the SQL expression the
// dialect emitters splice into their fragments: a computed expression
// verbatim, a quoted cast JSON path, or a quoted column name with its
// input transforms applied (spec §4.7 step 4). Output transforms are a
// read-path concern (spec §6) applied only by queryutil.BuildSelect, never
// wrapped around a WHERE-clause column here.
func (c *context) buildColumnExpr(f schema.Field) (string, error) {
	var expr string
	switch {
	case f.IsComputed():
		expr = f.Computed
	case f.IsJSONPath():
		expr = c.d.Cast(f.JSONPath, string(f.Type))
	default:
		expr = c.d.QuoteIdentifier(f.Column)
	}

	if transform.CanTransform(f) && len(f.Transforms.Input) > 0 {
		rendered, err := transform.RenderColumn(c.d.Kind(), expr, f.Transforms.Input)
		if err != nil {
			return "", err
		}
		return rendered, nil
	}
	return expr, nil
}

// applyInputTransforms renders each value operand through the field's
// input transform pipeline (spec §4.4), leaving operands untouched for
// fields ineligible for transforms (computed/JSON-path) or with none
// declared.
func applyInputTransforms(f schema.Field, values []any) ([]any, error) {
	if !transform.CanTransform(f) || len(f.Transforms.Input) == 0 {
		return values, nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		if list, ok := v.([]any); ok {
			rendered := make([]any, len(list))
			for j, elem := range list {
				r, err := transform.RenderValue(f.Transforms.Input, elem)
				if err != nil {
					return nil, err
				}
				rendered[j] = r
			}
			out[i] = rendered
			continue
		}
		r, err := transform.RenderValue(f.Transforms.Input, v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
