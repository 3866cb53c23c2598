// Package condition evaluates visibility rules against a bag of current
// form values. Evaluation is pure and never fails: a rule that cannot be
// applied to the values it sees is simply false.
package condition

import (
	"reflect"
	"strconv"

	"github.com/formweave/formweave/internal/schema"
)

// Values is the current value bag of a render pass, keyed by field name.
type Values map[string]any

// Evaluate applies a single condition rule to the value bag.
func Evaluate(rule schema.ConditionRule, values Values) bool {
	val, present := values[rule.Field]

	switch rule.Op {
	case schema.OpEq:
		return looseEqual(val, rule.Value)
	case schema.OpNe:
		return !looseEqual(val, rule.Value)
	case schema.OpGt, schema.OpGte, schema.OpLt, schema.OpLte:
		return compareNumeric(rule.Op, val, rule.Value)
	case schema.OpIn:
		return member(val, rule.Value)
	case schema.OpNotIn:
		return !member(val, rule.Value)
	case schema.OpExists:
		return present && hasValue(val)
	case schema.OpNotExists:
		return !present || !hasValue(val)
	}
	return false
}

// EvaluateMulti applies a boolean combination of condition rules.
// "and" over an empty list is true; "or" over an empty list is false.
func EvaluateMulti(rule schema.MultiConditionRule, values Values) bool {
	switch rule.Logic {
	case schema.LogicAnd:
		for _, c := range rule.Conditions {
			if !Evaluate(c, values) {
				return false
			}
		}
		return true
	case schema.LogicOr:
		for _, c := range rule.Conditions {
			if Evaluate(c, values) {
				return true
			}
		}
		return false
	}
	return false
}

// Visible reports whether the field should be shown for the given values.
// A field with no condition is always visible.
func Visible(f *schema.Field, values Values) bool {
	switch {
	case f.Condition != nil:
		return Evaluate(*f.Condition, values)
	case f.Conditions != nil:
		return EvaluateMulti(*f.Conditions, values)
	}
	return true
}

// VisibleFields returns the names of all visible fields of a form document.
func VisibleFields(d *schema.Document, values Values) map[string]bool {
	out := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		if Visible(&d.Fields[i], values) {
			out[d.Fields[i].Name] = true
		}
	}
	return out
}

// looseEqual compares structurally, treating all numeric representations
// of the same quantity as equal so that a value decoded from JSON
// (float64) matches one decoded from YAML (int).
func looseEqual(a, b any) bool {
	if af, aok := toNumber(a); aok {
		if bf, bok := toNumber(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareNumeric implements gt/gte/lt/lte. Comparison policy: both
// operands must convert to float64 (Go numeric types or a numeric
// string); otherwise the condition is false. No other coercion happens.
func compareNumeric(op schema.Op, a, b any) bool {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case schema.OpGt:
		return af > bf
	case schema.OpGte:
		return af >= bf
	case schema.OpLt:
		return af < bf
	case schema.OpLte:
		return af <= bf
	}
	return false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// member treats set as a collection and reports whether val is in it.
func member(val, set any) bool {
	rv := reflect.ValueOf(set)
	if !rv.IsValid() {
		return false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return looseEqual(val, set)
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(val, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// hasValue reports presence of a usable value: non-nil, non-empty string,
// non-empty collection.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}
