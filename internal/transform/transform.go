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

// Package transform implements Component E: rendering a field's declared
// transforms into SQL (wrapping the column expression) and into value form
// (mutating the bound parameter), dialect-aware where the SQL form differs
// (spec §4.4).
package transform

import (
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// RenderColumn wraps expr inside-out with the given ordered transform
// steps, e.g. [lower, trim] produces "TRIM(LOWER(expr))". Custom
// (template) steps substitute "{expr}" with the current expression.
func RenderColumn(kind dialect.Kind, expr string, steps []schema.Transform) (string, error) {
	for _, step := range steps {
		wrapped, err := renderOne(kind, expr, step)
		if err != nil {
			return "", err
		}
		expr = wrapped
	}
	return expr, nil
}

func renderOne(kind dialect.Kind, expr string, step schema.Transform) (string, error) {
	switch step.Name {
	case schema.TransformLower:
		return fmt.Sprintf("LOWER(%s)", expr), nil
	case schema.TransformUpper:
		return fmt.Sprintf("UPPER(%s)", expr), nil
	case schema.TransformTrim:
		return fmt.Sprintf("TRIM(%s)", expr), nil
	case schema.TransformLTrim:
		return fmt.Sprintf("LTRIM(%s)", expr), nil
	case schema.TransformRTrim:
		return fmt.Sprintf("RTRIM(%s)", expr), nil
	case schema.TransformUnaccent:
		if kind != dialect.PostgreSQL {
			return "", sqlerr.Dialect("unaccent transform is only supported on PostgreSQL")
		}
		return fmt.Sprintf("unaccent(%s)", expr), nil
	case schema.TransformDate:
		return renderDate(kind, expr)
	case schema.TransformYear:
		return renderDatePart(kind, expr, "year")
	case schema.TransformMonth:
		return renderDatePart(kind, expr, "month")
	case schema.TransformDay:
		return renderDatePart(kind, expr, "day")
	case schema.TransformCustom:
		if step.Template == "" {
			return "", sqlerr.Structural("custom transform has no template")
		}
		return strings.ReplaceAll(step.Template, "{expr}", expr), nil
	default:
		return "", sqlerr.Structural("unknown transform %q", step.Name)
	}
}

func renderDate(kind dialect.Kind, expr string) (string, error) {
	switch kind {
	case dialect.PostgreSQL:
		return fmt.Sprintf("(%s)::date", expr), nil
	case dialect.MySQL:
		return fmt.Sprintf("DATE(%s)", expr), nil
	case dialect.SQLite:
		return fmt.Sprintf("date(%s)", expr), nil
	case dialect.MSSQL:
		return fmt.Sprintf("CAST(%s AS DATE)", expr), nil
	default:
		return "", sqlerr.Dialect("date transform unsupported for dialect %q", kind)
	}
}

func renderDatePart(kind dialect.Kind, expr, unit string) (string, error) {
	switch kind {
	case dialect.PostgreSQL, dialect.MSSQL, dialect.SQLite:
		return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(unit), expr), nil
	case dialect.MySQL:
		switch unit {
		case "year":
			return fmt.Sprintf("YEAR(%s)", expr), nil
		case "month":
			return fmt.Sprintf("MONTH(%s)", expr), nil
		case "day":
			return fmt.Sprintf("DAY(%s)", expr), nil
		default:
			return "", sqlerr.Structural("unknown date part %q", unit)
		}
	default:
		return "", sqlerr.Dialect("date part transform unsupported for dialect %q", kind)
	}
}

// RenderValue applies text-only value transforms to a parameter value
// in-place. Non-string values and custom templates are left untouched
// (custom templates are never applied to values, per spec §4.4).
func RenderValue(steps []schema.Transform, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	for _, step := range steps {
		switch step.Name {
		case schema.TransformLower:
			s = strings.ToLower(s)
		case schema.TransformUpper:
			s = strings.ToUpper(s)
		case schema.TransformTrim:
			s = strings.TrimSpace(s)
		case schema.TransformLTrim:
			s = strings.TrimLeft(s, " \t\n\r")
		case schema.TransformRTrim:
			s = strings.TrimRight(s, " \t\n\r")
		default:
			// unaccent, date, year, month, day, and custom templates have
			// no value-side equivalent; they are SQL-only (spec §4.4).
		}
	}
	return s, nil
}

// CanTransform reports whether a field reference is eligible for column
// and value transforms: regular, non-computed, non-JSON-path columns only
// (spec §4.4 last sentence).
func CanTransform(f schema.Field) bool {
	return !f.IsComputed() && !f.IsJSONPath()
}
