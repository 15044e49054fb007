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

package validate

import (
	"regexp"
	"time"

	"github.com/Nam088/json-logic-to-sql/internal/schema"
	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// dateFormats is the fixed, anchored-regex table from spec §4.3. Keeping
// these as package-level constants avoids recompiling a regex per call
// (spec §9 "String escaping tables").
var dateFormats = map[string]*regexp.Regexp{
	"iso":         regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?)?$`),
	"date-only":   regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	"datetime":    regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
	"YYYY-MM-DD":  regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	"YYYY/MM/DD":  regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	"DD-MM-YYYY":  regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	"DD/MM/YYYY":  regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	"DD.MM.YYYY":  regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`),
	"MM-DD-YYYY":  regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	"MM/DD/YYYY":  regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	"HH:mm":       regexp.MustCompile(`^\d{2}:\d{2}$`),
	"HH:mm:ss":    regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`),
}

// parseableLayouts are tried, in order, to confirm a string parses as a
// calendar instant when no date_format constraint narrows the check to a
// single anchored regex.
var parseableLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"15:04",
	"15:04:05",
}

func checkDate(fieldName string, f schema.Field, value any) error {
	s, ok := value.(string)
	if !ok {
		return sqlerr.Schema("value must be a date string, found %T", value).WithField(fieldName)
	}

	if f.Constraints.DateFormat != "" {
		re, ok := dateFormats[f.Constraints.DateFormat]
		if !ok {
			return sqlerr.Schema("unknown date_format %q", f.Constraints.DateFormat).WithField(fieldName)
		}
		if !re.MatchString(s) {
			return sqlerr.Schema("value does not match date_format %q", f.Constraints.DateFormat).WithField(fieldName)
		}
	} else if !parsesAsDate(s) {
		return sqlerr.Schema("value is not a recognizable date/time").WithField(fieldName)
	}

	if f.Constraints.MinDate != "" || f.Constraints.MaxDate != "" {
		t, ok := parseAny(s)
		if !ok {
			return sqlerr.Schema("value is not a recognizable date/time for range comparison").WithField(fieldName)
		}
		if f.Constraints.MinDate != "" {
			min, ok := parseAny(f.Constraints.MinDate)
			if ok && t.Before(min) {
				return sqlerr.Schema("date is before minimum %s", f.Constraints.MinDate).WithField(fieldName)
			}
		}
		if f.Constraints.MaxDate != "" {
			max, ok := parseAny(f.Constraints.MaxDate)
			if ok && t.After(max) {
				return sqlerr.Schema("date is after maximum %s", f.Constraints.MaxDate).WithField(fieldName)
			}
		}
	}

	return runCustomValidate(fieldName, f, value)
}

func parsesAsDate(s string) bool {
	_, ok := parseAny(s)
	return ok
}

func parseAny(s string) (time.Time, bool) {
	for _, layout := range parseableLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
