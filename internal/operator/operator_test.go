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

package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeAliases(t *testing.T) {
	tcs := []struct {
		token string
		want  Op
	}{
		{"==", Eq},
		{"eq", Eq},
		{"!=", Ne},
		{">=", Gte},
		{"!in", NotIn},
		{"!", Not},
		{"any_ilike", AnyILike},
		{"json_has_any_keys", JSONHasAnyKeys},
	}
	for _, tc := range tcs {
		t.Run(tc.token, func(t *testing.T) {
			got, err := Canonicalize(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCanonicalizeUnknownToken(t *testing.T) {
	_, err := Canonicalize("frobnicate")
	require.Error(t, err)
}

func TestClassOfContainsOverload(t *testing.T) {
	assert.Equal(t, ClassArray, ClassOf(Contains, "array"))
	assert.Equal(t, ClassArray, ClassOf(Contains, "jsonb"))
	assert.Equal(t, ClassArray, ClassOf(Contains, "json"))
	assert.Equal(t, ClassString, ClassOf(Contains, "string"))
	assert.Equal(t, ClassString, ClassOf(Contains, "text"))
}

func TestClassOfOtherOperators(t *testing.T) {
	assert.Equal(t, ClassComparison, ClassOf(Eq, "integer"))
	assert.Equal(t, ClassUnary, ClassOf(IsNull, "string"))
	assert.Equal(t, ClassRange, ClassOf(Between, "integer"))
	assert.Equal(t, ClassSet, ClassOf(In, "string"))
	assert.Equal(t, ClassJSON, ClassOf(JSONContains, "jsonb"))
	assert.Equal(t, ClassLogical, ClassOf(And, ""))
}

func TestIsUnaryAndIsRange(t *testing.T) {
	assert.True(t, IsUnary(IsNull))
	assert.True(t, IsUnary(IsNotNull))
	assert.False(t, IsUnary(Eq))

	assert.True(t, IsRange(Between))
	assert.True(t, IsRange(NotBetween))
	assert.False(t, IsRange(In))
}

func TestAllOpsCoversEveryNamedConstant(t *testing.T) {
	// Every constant canonicalizable by some alias must also appear in
	// AllOps, since AllOps is what schema loading uses to validate
	// allowed_operators declarations.
	seen := make(map[Op]bool, len(AllOps))
	for _, op := range AllOps {
		seen[op] = true
	}
	for token, op := range tokenAliases {
		if !seen[op] {
			t.Errorf("alias %q canonicalizes to %s, which is missing from AllOps", token, op)
		}
	}
}
