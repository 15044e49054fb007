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

package dialect

import "testing"

func TestDefaultPlaceholderStyle(t *testing.T) {
	tcs := []struct {
		kind Kind
		want PlaceholderStyle
	}{
		{PostgreSQL, Dollar},
		{MSSQL, At},
		{MySQL, Question},
		{SQLite, Question},
	}
	for _, tc := range tcs {
		if got := DefaultPlaceholderStyle(tc.kind); got != tc.want {
			t.Errorf("DefaultPlaceholderStyle(%s) = %s, want %s", tc.kind, got, tc.want)
		}
	}
}

func TestEscapeLikeStandard(t *testing.T) {
	got := EscapeLikeStandard(`50%_off\now`)
	want := `50\%\_off\\now`
	if got != want {
		t.Errorf("EscapeLikeStandard() = %q, want %q", got, want)
	}
}

func TestEscapeLikeBracket(t *testing.T) {
	got := EscapeLikeBracket(`50%_off[now]`)
	want := `50[%][_]off[[]now]`
	if got != want {
		t.Errorf("EscapeLikeBracket() = %q, want %q", got, want)
	}
}
