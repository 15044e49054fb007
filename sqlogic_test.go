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

package sqlogic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nam088/json-logic-to-sql/internal/dialect"
	"github.com/Nam088/json-logic-to-sql/internal/operator"
	"github.com/Nam088/json-logic-to-sql/internal/schema"
)

func testSchema() *schema.Schema {
	return schema.New(map[string]schema.Field{
		"status": {
			Type:             schema.TypeString,
			Column:           "status",
			AllowedOperators: []operator.Op{operator.Eq, operator.In},
			Filterable:       true,
		},
	})
}

func TestCompileRequiresDialect(t *testing.T) {
	_, err := Compile(testSchema(), []byte(`{"==": [{"var": "status"}, "active"]}`))
	require.Error(t, err)
}

func TestCompileProducesParameterizedSQL(t *testing.T) {
	res, err := Compile(testSchema(), []byte(`{"==": [{"var": "status"}, "active"]}`), WithDialect(dialect.PostgreSQL))
	require.NoError(t, err)
	assert.Equal(t, `"status" = $1`, res.SQL)
	if diff := cmp.Diff(map[string]any{"p1": "active"}, res.Params); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []any{"active"}, res.ParamsArray)
}

func TestCompilePlaceholderStyleOverride(t *testing.T) {
	res, err := Compile(testSchema(), []byte(`{"==": [{"var": "status"}, "active"]}`),
		WithDialect(dialect.PostgreSQL), WithPlaceholderStyle(dialect.Question))
	require.NoError(t, err)
	assert.Equal(t, `"status" = ?`, res.SQL)
}

func TestCompileRejectsMalformedJSON(t *testing.T) {
	_, err := Compile(testSchema(), []byte(`{not valid`), WithDialect(dialect.PostgreSQL))
	require.Error(t, err)
}

func TestCompileRejectsPrototypePollution(t *testing.T) {
	_, err := Compile(testSchema(), []byte(`{"__proto__": {"evil": true}}`), WithDialect(dialect.PostgreSQL))
	require.Error(t, err)
}

func TestCompileUnknownDialect(t *testing.T) {
	_, err := Compile(testSchema(), []byte(`{"==": [{"var": "status"}, "active"]}`), WithDialect(dialect.Kind("oracle")))
	require.Error(t, err)
}

type fakeMetrics struct {
	called         bool
	dialectKind    string
	conditionCount int
	paramCount     int
}

func (f *fakeMetrics) ObserveCompile(dialectKind string, conditionCount, paramCount int) {
	f.called = true
	f.dialectKind = dialectKind
	f.conditionCount = conditionCount
	f.paramCount = paramCount
}

func TestCompileInvokesMetricsSink(t *testing.T) {
	m := &fakeMetrics{}
	_, err := Compile(testSchema(), []byte(`{"and": [
		{"==": [{"var": "status"}, "a"]},
		{"==": [{"var": "status"}, "b"]}
	]}`), WithDialect(dialect.PostgreSQL), WithMetrics(m))
	require.NoError(t, err)
	assert.True(t, m.called)
	assert.Equal(t, "postgresql", m.dialectKind)
	assert.Equal(t, 2, m.conditionCount)
	assert.Equal(t, 2, m.paramCount)
}
