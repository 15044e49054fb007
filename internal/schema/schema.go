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

// Package schema is the in-memory representation of the field schema that
// drives compilation (spec §3 "Field schema"). A Schema is constructed once
// and borrowed read-only by every compile call (spec §9 "Schema ownership").
package schema

import (
	"fmt"

	"github.com/Nam088/json-logic-to-sql/internal/operator"
)

// FieldType is the declared logical type of a field.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeInteger  FieldType = "integer"
	TypeDecimal  FieldType = "decimal"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeDatetime FieldType = "datetime"
	TypeTimestamp FieldType = "timestamp"
	TypeUUID     FieldType = "uuid"
	TypeArray    FieldType = "array"
	TypeJSON     FieldType = "json"
	TypeJSONB    FieldType = "jsonb"
)

// TransformName is one of the built-in column/value transforms, or a custom
// template transform (see Transform.Template).
type TransformName string

const (
	TransformLower    TransformName = "lower"
	TransformUpper    TransformName = "upper"
	TransformTrim     TransformName = "trim"
	TransformLTrim    TransformName = "ltrim"
	TransformRTrim    TransformName = "rtrim"
	TransformUnaccent TransformName = "unaccent"
	TransformDate     TransformName = "date"
	TransformYear     TransformName = "year"
	TransformMonth    TransformName = "month"
	TransformDay      TransformName = "day"
	TransformCustom   TransformName = "custom"
)

// Transform is one step in a field's input or output transform pipeline.
// Name is one of the built-ins above, or TransformCustom with Template set
// to a string containing the placeholder "{expr}".
type Transform struct {
	Name     TransformName
	Template string
}

// Transforms holds the (possibly empty) input and output transform chains
// for a field.
type Transforms struct {
	Input  []Transform
	Output []Transform
}

// Options declares an enumerated value set for a field.
type Options struct {
	Values []any
	Strict bool
}

// ValidateFunc is a user-supplied predicate for Constraints.Validate. It
// returns ("", true) when the value is acceptable, or (diagnostic, false)
// otherwise.
type ValidateFunc func(value any) (string, bool)

// Constraints declares the type-specific validation rules for a field.
type Constraints struct {
	MinLength *int
	MaxLength *int
	Pattern   string

	Min *float64
	Max *float64

	MinItems *int
	MaxItems *int

	DateFormat string
	MinDate    string
	MaxDate    string

	Validate ValidateFunc
}

// Field is one entry in a Schema. Exactly one of Column, JSONPath, or
// Computed should be set; Column is the common case and may be "zero
// value" only when JSONPath or Computed is used instead.
type Field struct {
	Type             FieldType
	AllowedOperators []operator.Op

	Column     string // physical identifier, optionally "schema.table.column"
	JSONPath   string // raw SQL expression reaching into a JSON document
	Computed   string // raw SQL expression substituted as the field reference

	Filterable bool
	Selectable bool
	Sortable   bool

	Nullable      bool
	CaseSensitive bool

	Options     *Options
	Constraints Constraints

	Transforms Transforms
}

// IsComputed reports whether the field is backed by a raw computed
// expression rather than a column or JSON path.
func (f Field) IsComputed() bool { return f.Computed != "" }

// IsJSONPath reports whether the field is backed by a raw JSON-access path.
func (f Field) IsJSONPath() bool { return f.JSONPath != "" }

// AllowsOperator reports whether op is in the field's declared allowlist.
func (f Field) AllowsOperator(op operator.Op) bool {
	for _, a := range f.AllowedOperators {
		if a == op {
			return true
		}
	}
	return false
}

// Settings overrides the compiler driver's structural limits (spec §4.6).
type Settings struct {
	MaxDepth      int
	MaxConditions int
}

// DefaultSettings mirrors spec §4.6's defaults.
func DefaultSettings() Settings {
	return Settings{MaxDepth: 5, MaxConditions: 100}
}

// Schema is the full field declaration set for one compile target.
type Schema struct {
	Fields   map[string]Field
	Settings Settings
}

// New builds a Schema from a field map, filling in Settings defaults only.
// Fields are copied verbatim: New trusts the caller to have already
// resolved the per-field permission defaults (filterable/selectable/
// sortable default true, per spec §3). A bool field's Go zero value is
// indistinguishable from an explicit false, so New cannot apply that
// default itself; callers loading a schema from a file get it from
// schemaload.buildField instead.
func New(fields map[string]Field) *Schema {
	out := make(map[string]Field, len(fields))
	for name, f := range fields {
		out[name] = f
	}
	s := Settings{MaxDepth: 5, MaxConditions: 100}
	return &Schema{Fields: out, Settings: s}
}

// Field looks up a field by name without enforcing filterability; callers
// that need the invariant-1 check (exists and filterable) should use
// validate.ResolveField instead.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// FieldManifest is the read-only description of one field,
// exposed by Describe for callers building filter UIs (SPEC_FULL §4).
type FieldManifest struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	AllowedOperators []string `json:"allowedOperators"`
	Filterable       bool     `json:"filterable"`
	Selectable       bool     `json:"selectable"`
	Sortable         bool     `json:"sortable"`
	Nullable         bool     `json:"nullable"`
}

// Describe returns a stable, name-sorted manifest of every field in the
// schema. It is read-only metadata, not part of the compile path.
func (s *Schema) Describe() []FieldManifest {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sortStrings(names)

	out := make([]FieldManifest, 0, len(names))
	for _, name := range names {
		f := s.Fields[name]
		ops := make([]string, len(f.AllowedOperators))
		for i, op := range f.AllowedOperators {
			ops[i] = string(op)
		}
		out = append(out, FieldManifest{
			Name:             name,
			Type:             string(f.Type),
			AllowedOperators: ops,
			Filterable:       f.Filterable,
			Selectable:       f.Selectable,
			Sortable:         f.Sortable,
			Nullable:         f.Nullable,
		})
	}
	return out
}

func sortStrings(s []string) {
	// insertion sort: field counts per schema are small (tens, not
	// thousands), and this avoids an extra import for a one-line need.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func (f Field) String() string {
	return fmt.Sprintf("Field{type=%s column=%s}", f.Type, f.Column)
}
