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

package mysql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
)

type fakeParams struct{ values []any }

func (f *fakeParams) Add(v any) (string, error) {
	f.values = append(f.values, v)
	return fmt.Sprintf("?%d", len(f.values)), nil
}

func TestQuoteIdentifier(t *testing.T) {
	d := New()
	assert.Equal(t, "`name`", d.QuoteIdentifier("name"))
	assert.Equal(t, "`a`.`b`", d.QuoteIdentifier("a.b"))
	assert.Equal(t, "`we``ird`", d.QuoteIdentifier("we`ird"))
}

func TestCast(t *testing.T) {
	d := New()
	assert.Equal(t, "CAST(x AS SIGNED)", d.Cast("x", "integer"))
	assert.Equal(t, "CAST(x AS DECIMAL(65,30))", d.Cast("x", "decimal"))
	assert.Equal(t, "CAST(x AS DATE)", d.Cast("x", "date"))
}

func TestInOpRejectsArrayAndJSON(t *testing.T) {
	d := New()
	p := &fakeParams{}
	_, err := d.InOp(p, operator.In, dialect.EmitArgs{Column: "tags", FieldType: "array", Values: []any{[]any{"a"}}})
	require.Error(t, err)

	_, err = d.InOp(p, operator.In, dialect.EmitArgs{Column: "data", FieldType: "jsonb", Values: []any{[]any{"a"}}})
	require.Error(t, err)
}

func TestInOpEmptyListIdentities(t *testing.T) {
	d := New()
	p := &fakeParams{}
	frag, err := d.InOp(p, operator.In, dialect.EmitArgs{Column: "id", FieldType: "integer", Values: []any{[]any{}}})
	require.NoError(t, err)
	assert.Equal(t, "1=0", frag.SQL)
}

func TestStringOpCaseSensitiveUsesBinary(t *testing.T) {
	d := New()
	p := &fakeParams{}
	frag, err := d.StringOp(p, operator.StartsWith, true, dialect.EmitArgs{Column: "name", Values: []any{"abc"}})
	require.NoError(t, err)
	assert.Contains(t, frag.SQL, "BINARY name")
}

func TestStringOpRegexKeywords(t *testing.T) {
	d := New()
	p := &fakeParams{}
	frag, err := d.StringOp(p, operator.Regex, true, dialect.EmitArgs{Column: "name", Values: []any{"^a"}})
	require.NoError(t, err)
	assert.Contains(t, frag.SQL, "REGEXP BINARY")

	frag, err = d.StringOp(p, operator.Regex, false, dialect.EmitArgs{Column: "name", Values: []any{"^a"}})
	require.NoError(t, err)
	assert.Equal(t, "name REGEXP ?2", frag.SQL)
}

func TestArrayOpRequiresJSONColumn(t *testing.T) {
	d := New()
	p := &fakeParams{}
	_, err := d.ArrayOp(p, operator.Contains, dialect.EmitArgs{Column: "tags", FieldType: "array", Values: []any{"x"}})
	require.Error(t, err)

	frag, err := d.ArrayOp(p, operator.Contains, dialect.EmitArgs{Column: "data", FieldType: "jsonb", Values: []any{"x"}})
	require.NoError(t, err)
	assert.Contains(t, frag.SQL, "JSON_CONTAINS")
}

func TestAnyILikeUnsupported(t *testing.T) {
	d := New()
	_, err := d.AnyILike(&fakeParams{}, operator.AnyILike, dialect.EmitArgs{})
	require.Error(t, err)
}

func TestJSONOpHasAnyKeysEmptyIsFalseIdentity(t *testing.T) {
	d := New()
	p := &fakeParams{}
	frag, err := d.JSONOp(p, operator.JSONHasAnyKeys, dialect.EmitArgs{Column: "data", Values: []any{[]any{}}})
	require.NoError(t, err)
	assert.Equal(t, "1=0", frag.SQL)
}

func TestJSONOpHasAnyKeys(t *testing.T) {
	d := New()
	p := &fakeParams{}
	frag, err := d.JSONOp(p, operator.JSONHasAnyKeys, dialect.EmitArgs{Column: "data", Values: []any{[]any{"a", "b"}}})
	require.NoError(t, err)
	assert.Contains(t, frag.SQL, "JSON_CONTAINS_PATH")
	assert.Contains(t, frag.SQL, "CONCAT")
}
