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

// Package validate implements Component C: resolving a field reference,
// checking an operator against the field's allowlist, and checking a value
// against the field's type/options/constraints (spec §4.3).
package validate

import (
	"fmt"
	"math"
	"regexp"

	"github.com/google/uuid"

	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// ResolveField enforces invariant 1 of spec §3: the field must exist and
// be filterable.
func ResolveField(s *schema.Schema, name string) (schema.Field, error) {
	f, ok := s.Field(name)
	if !ok {
		return schema.Field{}, sqlerr.Schema("unknown field").WithField(name)
	}
	if !f.Filterable {
		return schema.Field{}, sqlerr.Schema("field is not filterable").WithField(name)
	}
	return f, nil
}

// CheckOperator enforces invariant 2: op must be in field's allowlist.
func CheckOperator(fieldName string, f schema.Field, op operator.Op) error {
	if !f.AllowsOperator(op) {
		allowed := make([]string, len(f.AllowedOperators))
		for i, a := range f.AllowedOperators {
			allowed[i] = string(a)
		}
		return sqlerr.Schema("operator not allowed; allowed operators are %v", allowed).
			WithField(fieldName).WithOperator(string(op))
	}
	return nil
}

// bypassTypeCheckOps are array-semantic operators that, per spec §4.3,
// compare the value against elements of an `array` column rather than the
// column's own declared type.
var bypassTypeCheckOps = map[operator.Op]bool{
	operator.AnyOf:       true,
	operator.NotAnyOf:    true,
	operator.AnyILike:    true,
	operator.NotAnyILike: true,
}

// CheckValue enforces invariant 3: the operand value(s) must satisfy the
// field's type, options, and constraint checks, recursing element-wise for
// set/range operators on non-array fields. On an array field a list operand
// is the array value itself: its item count is checked against
// min_items/max_items and each element against strict options. Unary
// operators (is_null/is_not_null) skip value validation entirely; callers
// should not invoke CheckValue for them.
func CheckValue(fieldName string, f schema.Field, op operator.Op, value any) error {
	if value == nil {
		if f.Nullable || operator.IsUnary(op) {
			return nil
		}
		return sqlerr.Schema("null is not allowed for this field").WithField(fieldName).WithOperator(string(op))
	}

	if (operator.IsRange(op) || op == operator.In || op == operator.NotIn) && f.Type != schema.TypeArray {
		if list, ok := value.([]any); ok {
			for _, elem := range list {
				if err := CheckValue(fieldName, f, op, elem); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if f.Type == schema.TypeArray {
		if list, ok := value.([]any); ok && !bypassTypeCheckOps[op] {
			if f.Constraints.MinItems != nil && len(list) < *f.Constraints.MinItems {
				return sqlerr.Schema("array has fewer than %d items", *f.Constraints.MinItems).WithField(fieldName)
			}
			if f.Constraints.MaxItems != nil && len(list) > *f.Constraints.MaxItems {
				return sqlerr.Schema("array has more than %d items", *f.Constraints.MaxItems).WithField(fieldName)
			}
			if f.Options != nil && f.Options.Strict {
				for _, elem := range list {
					if !inOptions(f.Options.Values, elem) {
						return sqlerr.Schema("value %v is not one of the allowed options", elem).WithField(fieldName)
					}
				}
			}
			return nil
		}
	}

	if bypassTypeCheckOps[op] && f.Type == schema.TypeArray {
		return nil
	}

	return checkScalar(fieldName, f, op, value)
}

func checkScalar(fieldName string, f schema.Field, op operator.Op, value any) error {
	if f.Options != nil && f.Options.Strict {
		if !inOptions(f.Options.Values, value) {
			return sqlerr.Schema("value %v is not one of the allowed options", value).WithField(fieldName)
		}
	}

	switch f.Type {
	case schema.TypeString, schema.TypeText:
		return checkString(fieldName, f, value)
	case schema.TypeNumber, schema.TypeDecimal:
		return checkNumber(fieldName, f, value, false)
	case schema.TypeInteger:
		return checkNumber(fieldName, f, value, true)
	case schema.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return sqlerr.Schema("value must be a boolean, found %T", value).WithField(fieldName)
		}
		return nil
	case schema.TypeUUID:
		return checkUUID(fieldName, value)
	case schema.TypeDate, schema.TypeDatetime, schema.TypeTimestamp:
		return checkDate(fieldName, f, value)
	case schema.TypeArray:
		_, ok := value.([]any)
		if !ok && !bypassTypeCheckOps[op] {
			return sqlerr.Schema("value must be an array, found %T", value).WithField(fieldName)
		}
		return nil
	case schema.TypeJSON, schema.TypeJSONB:
		return nil
	default:
		return sqlerr.Schema("unknown field type %q", f.Type).WithField(fieldName)
	}
}

func inOptions(options []any, value any) bool {
	for _, o := range options {
		if fmt.Sprint(o) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}

func checkString(fieldName string, f schema.Field, value any) error {
	s, ok := value.(string)
	if !ok {
		return sqlerr.Schema("value must be a string, found %T", value).WithField(fieldName)
	}
	if f.Constraints.MinLength != nil && len(s) < *f.Constraints.MinLength {
		return sqlerr.Schema("string shorter than minimum length %d", *f.Constraints.MinLength).WithField(fieldName)
	}
	if f.Constraints.MaxLength != nil && len(s) > *f.Constraints.MaxLength {
		return sqlerr.Schema("string longer than maximum length %d", *f.Constraints.MaxLength).WithField(fieldName)
	}
	if f.Constraints.Pattern != "" {
		re, err := regexp.Compile(f.Constraints.Pattern)
		if err != nil {
			return sqlerr.Schema("invalid pattern constraint: %v", err).WithField(fieldName)
		}
		if !re.MatchString(s) {
			return sqlerr.Schema("string does not match required pattern").WithField(fieldName)
		}
	}
	return runCustomValidate(fieldName, f, value)
}

func checkNumber(fieldName string, f schema.Field, value any, integer bool) error {
	n, ok := asFloat64(value)
	if !ok {
		return sqlerr.Schema("value must be numeric, found %T", value).WithField(fieldName)
	}
	if math.IsNaN(n) {
		return sqlerr.Schema("value must not be NaN").WithField(fieldName)
	}
	if integer && n != math.Trunc(n) {
		return sqlerr.Schema("value must be an integer").WithField(fieldName)
	}
	if f.Constraints.Min != nil && n < *f.Constraints.Min {
		return sqlerr.Schema("value is below minimum %v", *f.Constraints.Min).WithField(fieldName)
	}
	if f.Constraints.Max != nil && n > *f.Constraints.Max {
		return sqlerr.Schema("value is above maximum %v", *f.Constraints.Max).WithField(fieldName)
	}
	return runCustomValidate(fieldName, f, value)
}

func asFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// uuidFastFilter rejects obviously-malformed strings before the
// authoritative uuid.Parse call (SPEC_FULL §3.5): a cheap pre-filter that
// avoids handing garbage-length input to the parser.
var uuidFastFilter = regexp.MustCompile(`^[0-9a-fA-F-]{32,36}$`)

func checkUUID(fieldName string, value any) error {
	s, ok := value.(string)
	if !ok {
		return sqlerr.Schema("value must be a string, found %T", value).WithField(fieldName)
	}
	if !uuidFastFilter.MatchString(s) {
		return sqlerr.Schema("value is not a valid UUID").WithField(fieldName)
	}
	if _, err := uuid.Parse(s); err != nil {
		return sqlerr.Schema("value is not a valid UUID").WithField(fieldName).WithCause(err)
	}
	return nil
}

func runCustomValidate(fieldName string, f schema.Field, value any) error {
	if f.Constraints.Validate == nil {
		return nil
	}
	if msg, ok := f.Constraints.Validate(value); !ok {
		if msg == "" {
			msg = "value failed custom validation"
		}
		return sqlerr.Schema("%s", msg).WithField(fieldName)
	}
	return nil
}
