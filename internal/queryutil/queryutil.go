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

// Package queryutil implements Component H: the query-shaping helpers
// that sit alongside the core compiler and share its schema contract
// (spec §6) — SELECT column lists, ORDER BY fragments, LIMIT/OFFSET
// pagination, and a COUNT(*) wrapper for callers that page results.
package queryutil

import (
	"fmt"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
	"github.com/Nam088/json-logic-to-sql/internal/transform"
)

// SelectOptions narrows or excludes the default field set; a nil Fields
// selects every schema field, and BuildSelect fails if any of them is not
// selectable.
type SelectOptions struct {
	Fields  []string
	Exclude []string
}

// BuildSelect renders a comma-separated "expr AS \"alias\"" column list
// honoring each field's selectable permission, its column/json_path/
// computed form, and its declared output transforms (spec §6).
func BuildSelect(s *schema.Schema, d dialect.Dialect, opts SelectOptions) (string, error) {
	names := opts.Fields
	if len(names) == 0 {
		names = make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
		sortNames(names)
	}
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, n := range opts.Exclude {
		excluded[n] = true
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if excluded[name] {
			continue
		}
		f, ok := s.Field(name)
		if !ok {
			return "", sqlerr.Schema("unknown field").WithField(name)
		}
		if !f.Selectable {
			return "", sqlerr.Schema("field is not selectable").WithField(name)
		}

		var expr string
		switch {
		case f.IsComputed():
			expr = f.Computed
		case f.IsJSONPath():
			expr = d.Cast(f.JSONPath, string(f.Type))
		default:
			expr = d.QuoteIdentifier(f.Column)
		}
		if transform.CanTransform(f) && len(f.Transforms.Output) > 0 {
			rendered, err := transform.RenderColumn(d.Kind(), expr, f.Transforms.Output)
			if err != nil {
				return "", err
			}
			expr = rendered
		}

		alias := d.QuoteIdentifier(name)
		parts = append(parts, fmt.Sprintf("%s AS %s", expr, alias))
	}
	return strings.Join(parts, ", "), nil
}

// SortSpec names one ORDER BY key and its direction.
type SortSpec struct {
	Field string
	Desc  bool
}

// BuildSort renders "ORDER BY ..." honoring each field's sortable
// permission; computed fields expand to "(expression) ASC|DESC".
func BuildSort(sorts []SortSpec, s *schema.Schema, d dialect.Dialect) (string, error) {
	if len(sorts) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sorts))
	for _, sort := range sorts {
		f, ok := s.Field(sort.Field)
		if !ok {
			return "", sqlerr.Schema("unknown field").WithField(sort.Field)
		}
		if !f.Sortable {
			return "", sqlerr.Schema("field is not sortable").WithField(sort.Field)
		}

		var expr string
		switch {
		case f.IsComputed():
			expr = fmt.Sprintf("(%s)", f.Computed)
		case f.IsJSONPath():
			expr = fmt.Sprintf("(%s)", d.Cast(f.JSONPath, string(f.Type)))
		default:
			expr = d.QuoteIdentifier(f.Column)
		}

		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", expr, dir))
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// Pagination describes a page either by page/pageSize or by offset/limit.
// Page is 1-based when Page > 0; otherwise Offset/Limit are used directly.
type Pagination struct {
	Page       int
	PageSize   int
	Offset     int
	Limit      int
	MaxPageSize int
}

// PaginationResult carries the rendered fragment, its two parameters in
// order, and the next free parameter index for callers composing it after
// a WHERE clause that already consumed some parameters.
type PaginationResult struct {
	SQL            string
	Params         []any
	NextParamIndex int
}

// BuildPagination renders "LIMIT ? OFFSET ?" (placeholder surface per
// style), registering exactly two parameters starting at startIndex
// (spec §6). A MaxPageSize of 0 disables the cap.
func BuildPagination(p Pagination, startIndex int, style dialect.PlaceholderStyle) (PaginationResult, error) {
	limit := p.Limit
	offset := p.Offset
	if p.Page > 0 {
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = 20
		}
		limit = pageSize
		offset = (p.Page - 1) * pageSize
	}
	if limit <= 0 {
		return PaginationResult{}, sqlerr.Structural("pagination requires a positive limit or page size")
	}
	if offset < 0 {
		return PaginationResult{}, sqlerr.Structural("pagination offset must not be negative")
	}
	if p.MaxPageSize > 0 && limit > p.MaxPageSize {
		limit = p.MaxPageSize
	}

	limitPh := placeholder(style, startIndex)
	offsetPh := placeholder(style, startIndex+1)
	sql := fmt.Sprintf("LIMIT %s OFFSET %s", limitPh, offsetPh)
	return PaginationResult{
		SQL:            sql,
		Params:         []any{limit, offset},
		NextParamIndex: startIndex + 2,
	}, nil
}

func placeholder(style dialect.PlaceholderStyle, idx int) string {
	switch style {
	case dialect.Dollar:
		return fmt.Sprintf("$%d", idx)
	case dialect.At:
		return fmt.Sprintf("@p%d", idx)
	default:
		return "?"
	}
}

// BuildCountQuery wraps a compiled WHERE fragment in a COUNT(*) statement
// against table, for callers that need a total before pagination
// (SPEC_FULL §3.2).
func BuildCountQuery(d dialect.Dialect, table, whereSQL string) string {
	quotedTable := d.QuoteIdentifier(table)
	if strings.TrimSpace(whereSQL) == "" {
		return fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTable)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", quotedTable, whereSQL)
}

func sortNames(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
