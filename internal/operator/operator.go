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

// Package operator implements the internal operator set and the
// canonicalization of JSON Logic surface tokens onto it (spec §4.1).
package operator

import "github.com/Nam088/json-logic-to-sql/internal/sqlerr"

// Op is the internal, canonical operator enum. Every dialect emitter and
// every validator check dispatches on this type, never on the raw token.
type Op string

const (
	Eq  Op = "eq"
	Ne  Op = "ne"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"

	In         Op = "in"
	NotIn      Op = "not_in"
	Between    Op = "between"
	NotBetween Op = "not_between"

	Contains     Op = "contains"
	ContainedBy  Op = "contained_by"
	Overlaps     Op = "overlaps"
	AnyOf        Op = "any_of"
	NotAnyOf     Op = "not_any_of"
	AnyILike     Op = "any_ilike"
	NotAnyILike  Op = "not_any_ilike"

	Like       Op = "like"
	ILike      Op = "ilike"
	StartsWith Op = "starts_with"
	EndsWith   Op = "ends_with"
	Regex      Op = "regex"

	IsNull    Op = "is_null"
	IsNotNull Op = "is_not_null"

	JSONContains   Op = "json_contains"
	JSONHasKey     Op = "json_has_key"
	JSONHasAnyKeys Op = "json_has_any_keys"

	And Op = "and"
	Or  Op = "or"
	Not Op = "not"
)

// tokenAliases maps JSON Logic surface tokens (and internal names used
// verbatim) onto the canonical Op set.
var tokenAliases = map[string]Op{
	"==":  Eq,
	"===": Eq,
	"eq":  Eq,

	"!=":  Ne,
	"!==": Ne,
	"ne":  Ne,

	">":   Gt,
	"gt":  Gt,
	">=":  Gte,
	"gte": Gte,
	"<":   Lt,
	"lt":  Lt,
	"<=":  Lte,
	"lte": Lte,

	"in":  In,
	"!in": NotIn,
	"not_in": NotIn,

	"between":     Between,
	"not_between": NotBetween,

	"contains":      Contains,
	"contained_by":  ContainedBy,
	"overlaps":      Overlaps,
	"any_of":        AnyOf,
	"not_any_of":    NotAnyOf,
	"any_ilike":     AnyILike,
	"not_any_ilike": NotAnyILike,

	"like":        Like,
	"ilike":       ILike,
	"starts_with": StartsWith,
	"ends_with":   EndsWith,
	"regex":       Regex,

	"is_null":     IsNull,
	"is_not_null": IsNotNull,

	"json_contains":     JSONContains,
	"json_has_key":      JSONHasKey,
	"json_has_any_keys": JSONHasAnyKeys,

	"and": And,
	"or":  Or,
	"not": Not,
	"!":   Not,
}

// Canonicalize maps a raw JSON Logic token to its internal Op, failing with
// a structural error if the token is unrecognized.
func Canonicalize(token string) (Op, error) {
	op, ok := tokenAliases[token]
	if !ok {
		return "", sqlerr.Structural("unknown operator %q", token).WithOperator(token)
	}
	return op, nil
}

// Class groups operators that share an emission strategy.
type Class int

const (
	ClassComparison Class = iota
	ClassUnary
	ClassRange
	ClassSet
	ClassString
	ClassArray
	ClassJSON
	ClassLogical
)

var unarySet = map[Op]bool{IsNull: true, IsNotNull: true}
var rangeSet = map[Op]bool{Between: true, NotBetween: true}

// ClassOf returns the operator class for op, given the active field's
// logical type name (one of the schema type strings, e.g. "array",
// "jsonb"). `contains` is overloaded per spec §4.1: array/jsonb semantics
// when the field is of those types, string substring otherwise.
func ClassOf(op Op, fieldType string) Class {
	switch op {
	case And, Or, Not:
		return ClassLogical
	case Eq, Ne, Gt, Gte, Lt, Lte:
		return ClassComparison
	case IsNull, IsNotNull:
		return ClassUnary
	case Between, NotBetween:
		return ClassRange
	case In, NotIn:
		return ClassSet
	case Contains:
		if fieldType == "array" || fieldType == "jsonb" || fieldType == "json" {
			return ClassArray
		}
		return ClassString
	case ContainedBy, Overlaps, AnyOf, NotAnyOf, AnyILike, NotAnyILike:
		return ClassArray
	case Like, ILike, StartsWith, EndsWith, Regex:
		return ClassString
	case JSONContains, JSONHasKey, JSONHasAnyKeys:
		return ClassJSON
	default:
		return ClassComparison
	}
}

// IsUnary reports whether op takes zero value operands.
func IsUnary(op Op) bool { return unarySet[op] }

// IsRange reports whether op is a two-operand range operator.
func IsRange(op Op) bool { return rangeSet[op] }

// AllOps is the complete internal operator set, used to validate schema
// `allowed_operators` declarations at load time.
var AllOps = []Op{
	Eq, Ne, Gt, Gte, Lt, Lte,
	In, NotIn, Between, NotBetween,
	Contains, ContainedBy, Overlaps, AnyOf, NotAnyOf, AnyILike, NotAnyILike,
	Like, ILike, StartsWith, EndsWith, Regex,
	IsNull, IsNotNull,
	JSONContains, JSONHasKey, JSONHasAnyKeys,
	And, Or, Not,
}
