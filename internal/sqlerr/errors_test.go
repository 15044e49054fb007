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

package sqlerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCategory(t *testing.T) {
	tcs := []struct {
		desc string
		err  *Error
		want Category
	}{
		{"structural", Structural("bad shape"), CategoryStructural},
		{"schema", Schema("unknown field"), CategorySchema},
		{"identifier", Identifier("bad ident"), CategoryIdentifier},
		{"parameter", Parameter("nul byte"), CategoryParameter},
		{"dialect", Dialect("unsupported op"), CategoryDialect},
		{"input integrity", InputIntegrity("cycle"), CategoryInputIntegrity},
	}
	for _, tc := range tcs {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Category)
		})
	}
}

func TestErrorMessageIncludesFieldAndOperator(t *testing.T) {
	err := Schema("value out of range").WithField("age").WithOperator("gt")
	msg := err.Error()
	assert.Contains(t, msg, "value out of range")
	assert.Contains(t, msg, `field "age"`)
	assert.Contains(t, msg, `operator "gt"`)
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Schema("wrapped").WithCause(cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsMatchesCategoryThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Dialect("no such op"))
	assert.True(t, Is(err, CategoryDialect))
	assert.False(t, Is(err, CategorySchema))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(fmt.Errorf("plain"), CategoryStructural))
}
