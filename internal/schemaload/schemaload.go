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

// Package schemaload loads a field schema (spec §3) from YAML or JSON on
// disk into a schema.Schema, the same way every source/tool config in the
// teacher corpus is decoded with goccy/go-yaml and checked with
// go-playground/validator struct tags (SPEC_FULL §3.3).
package schemaload

import (
	"bytes"
	"context"
	"fmt"

	goyaml "github.com/goccy/go-yaml"
	"github.com/go-playground/validator/v10"

	"github.com/Nam088/json-logic-to-sql/internal/log"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// fieldConfig is the on-disk shape of one schema.Field entry.
type fieldConfig struct {
	Type             string   `yaml:"type" validate:"required"`
	AllowedOperators []string `yaml:"allowed_operators" validate:"required,min=1"`

	Column   string `yaml:"column,omitempty"`
	JSONPath string `yaml:"json_path,omitempty"`
	Computed string `yaml:"computed,omitempty"`

	Filterable *bool `yaml:"filterable,omitempty"`
	Selectable *bool `yaml:"selectable,omitempty"`
	Sortable   *bool `yaml:"sortable,omitempty"`

	Nullable      bool `yaml:"nullable,omitempty"`
	CaseSensitive bool `yaml:"case_sensitive,omitempty"`

	Options *optionsConfig `yaml:"options,omitempty"`

	MinLength *int     `yaml:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	MinItems  *int     `yaml:"min_items,omitempty"`
	MaxItems  *int     `yaml:"max_items,omitempty"`

	DateFormat string `yaml:"date_format,omitempty"`
	MinDate    string `yaml:"min_date,omitempty"`
	MaxDate    string `yaml:"max_date,omitempty"`

	TransformInput  []transformConfig `yaml:"transform_input,omitempty"`
	TransformOutput []transformConfig `yaml:"transform_output,omitempty"`
}

type optionsConfig struct {
	Values []any `yaml:"values" validate:"required,min=1"`
	Strict bool  `yaml:"strict,omitempty"`
}

type transformConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Template string `yaml:"template,omitempty"`
}

// settingsConfig mirrors schema.Settings.
type settingsConfig struct {
	MaxDepth      int `yaml:"max_depth,omitempty"`
	MaxConditions int `yaml:"max_conditions,omitempty"`
}

// document is the top-level schema file shape: a map of field name to
// fieldConfig plus optional settings.
type document struct {
	Fields   map[string]fieldConfig `yaml:"fields" validate:"required,min=1,dive"`
	Settings settingsConfig         `yaml:"settings,omitempty"`
}

var validate = validator.New()

// Load decodes YAML or JSON schema bytes (JSON is valid YAML) into a
// schema.Schema, validating the document shape and every field's
// `column`/`json_path`/`computed` exclusivity before returning.
func Load(ctx context.Context, logger log.Logger, data []byte) (*schema.Schema, error) {
	var doc document
	decoder := goyaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.DecodeContext(ctx, &doc); err != nil {
		return nil, sqlerr.Structural("invalid schema document: %v", err)
	}
	if err := validate.StructCtx(ctx, &doc); err != nil {
		return nil, sqlerr.Structural("schema document failed validation: %v", err)
	}

	fields := make(map[string]schema.Field, len(doc.Fields))
	for name, fc := range doc.Fields {
		if err := validate.StructCtx(ctx, &fc); err != nil {
			return nil, sqlerr.Structural("field %q failed validation: %v", name, err)
		}
		f, err := buildField(ctx, name, fc, logger)
		if err != nil {
			return nil, err
		}
		fields[name] = f
	}

	s := schema.New(fields)
	if doc.Settings.MaxDepth > 0 {
		s.Settings.MaxDepth = doc.Settings.MaxDepth
	}
	if doc.Settings.MaxConditions > 0 {
		s.Settings.MaxConditions = doc.Settings.MaxConditions
	}
	return s, nil
}

func buildField(ctx context.Context, name string, fc fieldConfig, logger log.Logger) (schema.Field, error) {
	locations := 0
	if fc.Column != "" {
		locations++
	}
	if fc.JSONPath != "" {
		locations++
	}
	if fc.Computed != "" {
		locations++
	}
	if locations > 1 {
		return schema.Field{}, sqlerr.Structural("field %q declares more than one of column/json_path/computed", name)
	}
	if locations == 0 && fc.Column == "" {
		fc.Column = name
	}

	ops := make([]operator.Op, 0, len(fc.AllowedOperators))
	for _, token := range fc.AllowedOperators {
		op, err := operator.Canonicalize(token)
		if err != nil {
			return schema.Field{}, sqlerr.Structural("field %q allowed_operators: %v", name, err)
		}
		ops = append(ops, op)
	}

	f := schema.Field{
		Type:             schema.FieldType(fc.Type),
		AllowedOperators: ops,
		Column:           fc.Column,
		JSONPath:         fc.JSONPath,
		Computed:         fc.Computed,
		Filterable:       boolDefault(fc.Filterable, true),
		Selectable:       boolDefault(fc.Selectable, true),
		Sortable:         boolDefault(fc.Sortable, true),
		Nullable:         fc.Nullable,
		CaseSensitive:    fc.CaseSensitive,
		Constraints: schema.Constraints{
			MinLength:  fc.MinLength,
			MaxLength:  fc.MaxLength,
			Pattern:    fc.Pattern,
			Min:        fc.Min,
			Max:        fc.Max,
			MinItems:   fc.MinItems,
			MaxItems:   fc.MaxItems,
			DateFormat: fc.DateFormat,
			MinDate:    fc.MinDate,
			MaxDate:    fc.MaxDate,
		},
	}

	if fc.Options != nil {
		f.Options = &schema.Options{Values: fc.Options.Values, Strict: fc.Options.Strict}
		if !fc.Options.Strict && logger != nil {
			logger.WarnContext(ctx, "field declares options without strict; values are advisory only", "field", name)
		}
	}

	input, err := buildTransforms(fc.TransformInput)
	if err != nil {
		return schema.Field{}, sqlerr.Structural("field %q transform_input: %v", name, err)
	}
	output, err := buildTransforms(fc.TransformOutput)
	if err != nil {
		return schema.Field{}, sqlerr.Structural("field %q transform_output: %v", name, err)
	}
	f.Transforms = schema.Transforms{Input: input, Output: output}

	return f, nil
}

func buildTransforms(in []transformConfig) ([]schema.Transform, error) {
	out := make([]schema.Transform, 0, len(in))
	for _, t := range in {
		name := schema.TransformName(t.Name)
		if name == schema.TransformCustom && t.Template == "" {
			return nil, fmt.Errorf("custom transform missing template")
		}
		out = append(out, schema.Transform{Name: name, Template: t.Template})
	}
	return out, nil
}

func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
