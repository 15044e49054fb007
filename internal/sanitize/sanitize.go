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

// Package sanitize implements Component A: rejecting or stripping hostile
// inputs before the rule tree is parsed (spec §4.2).
package sanitize

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/Nam088/json-logic-to-sql/internal/sqlerr"
)

// prototypePollutionKeys are object keys dropped wherever they appear,
// mirroring the class-pollution identifiers of dynamic-language runtimes.
var prototypePollutionKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// identifierSegment matches one dot-separated identifier segment: ASCII
// letters/digits/underscores, starting with a letter or underscore.
var identifierSegment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Sanitize walks an arbitrary deserialized JSON value (as produced by
// encoding/json or goccy/go-json into `any`), returning a structurally
// identical tree with prototype-pollution keys stripped and cycles
// rejected. Maps are walked by reference identity to detect cycles;
// shared (DAG) subtrees reached via separate paths are allowed.
func Sanitize(v any) (any, error) {
	onPath := make(map[any]bool)
	out, err := sanitize(v, onPath)
	if err != nil {
		return nil, err
	}
	if m, ok := out.(map[string]any); ok && len(m) == 0 {
		return nil, sqlerr.InputIntegrity("rule is an empty object after stripping prohibited keys")
	}
	return out, nil
}

func sanitize(v any, onPath map[any]bool) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if onPath[mapKey(t)] {
			return nil, sqlerr.InputIntegrity("circular reference detected")
		}
		onPath[mapKey(t)] = true
		defer delete(onPath, mapKey(t))

		out := make(map[string]any, len(t))
		for k, val := range t {
			if prototypePollutionKeys[k] {
				continue
			}
			sv, err := sanitize(val, onPath)
			if err != nil {
				return nil, err
			}
			out[k] = sv
		}
		return out, nil
	case []any:
		if onPath[sliceKey(t)] {
			return nil, sqlerr.InputIntegrity("circular reference detected")
		}
		onPath[sliceKey(t)] = true
		defer delete(onPath, sliceKey(t))

		out := make([]any, len(t))
		for i, val := range t {
			sv, err := sanitize(val, onPath)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	default:
		return v, nil
	}
}

// mapKey and sliceKey key the DFS-path set by the container's underlying
// data pointer identity, not its value, so two structurally-equal but
// distinct objects are never confused for a cycle.
func mapKey(m map[string]any) any {
	return reflect.ValueOf(m).Pointer()
}

func sliceKey(s []any) any {
	return reflect.ValueOf(s).Pointer()
}

// CheckIdentifier validates a (possibly dot-qualified) SQL identifier
// against spec §4.8: ASCII letters/digits/underscores only, each segment
// starting with a letter or underscore, at most 3 segments.
func CheckIdentifier(ident string) error {
	if ident == "" {
		return sqlerr.Identifier("identifier must not be empty")
	}
	segments := strings.Split(ident, ".")
	if len(segments) > 3 {
		return sqlerr.Identifier("identifier %q has more than 3 dot-separated segments", ident)
	}
	for _, seg := range segments {
		if !identifierSegment.MatchString(seg) {
			return sqlerr.Identifier("identifier %q contains an invalid segment %q", ident, seg)
		}
	}
	return nil
}

// CheckParameterString rejects string parameter values containing a NUL
// byte (spec §4.5).
func CheckParameterString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return sqlerr.Parameter("parameter value contains a NUL byte")
	}
	return nil
}
