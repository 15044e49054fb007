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

import "strings"

// EscapeLikeStandard escapes %, _, and \ for dialects using a backslash
// escape character in LIKE patterns (PostgreSQL, MySQL, SQLite).
func EscapeLikeStandard(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return r.Replace(s)
}

// EscapeLikeBracket escapes %, _, and [ using MSSQL's bracket-escaping
// convention (spec §4.8 "String operators").
func EscapeLikeBracket(s string) string {
	r := strings.NewReplacer(
		`[`, `[[]`,
		`%`, `[%]`,
		`_`, `[_]`,
	)
	return r.Replace(s)
}
