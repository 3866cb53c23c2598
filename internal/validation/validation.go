// Package validation checks candidate field values against the declared
// rule vocabulary. Rules are data, never code: the evaluator knows a fixed
// set of named rules and nothing else is ever executed.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/formweave/formweave/internal/condition"
	"github.com/formweave/formweave/internal/schema"
)

// Rule names reported in issues.
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RulePattern   = "pattern"
	RuleMin       = "min"
	RuleMax       = "max"
)

// Issue is a single failed rule for a field value.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.Rule, i.Field, i.Message)
}

// Validate evaluates a field's rules against a candidate value. All
// applicable rules run and accumulate, with one exception: when the field
// is required and the value is empty, only the required issue is reported,
// since the other checks are meaningless on an absent value.
func Validate(f *schema.Field, value any) []Issue {
	rule := f.Validation
	if rule == nil {
		return nil
	}

	if isEmpty(value) {
		if rule.Required {
			return []Issue{{Field: f.Name, Rule: RuleRequired, Message: f.UI.Label + " is required"}}
		}
		return nil
	}

	var issues []Issue

	if f.Kind.StringLike() {
		s, ok := value.(string)
		if ok {
			n := utf8.RuneCountInString(s)
			if rule.MinLength != nil && n < *rule.MinLength {
				issues = append(issues, Issue{
					Field:   f.Name,
					Rule:    RuleMinLength,
					Message: fmt.Sprintf("must be at least %d characters", *rule.MinLength),
				})
			}
			if rule.MaxLength != nil && n > *rule.MaxLength {
				issues = append(issues, Issue{
					Field:   f.Name,
					Rule:    RuleMaxLength,
					Message: fmt.Sprintf("must be at most %d characters", *rule.MaxLength),
				})
			}
			if rule.Pattern != "" && !matchWhole(rule.Pattern, s) {
				issues = append(issues, Issue{
					Field:   f.Name,
					Rule:    RulePattern,
					Message: "does not match the expected format",
				})
			}
		}
	}

	if f.Kind == schema.KindNumber {
		if n, ok := toNumber(value); ok {
			if rule.Min != nil && n < *rule.Min {
				issues = append(issues, Issue{
					Field:   f.Name,
					Rule:    RuleMin,
					Message: fmt.Sprintf("must be at least %v", *rule.Min),
				})
			}
			if rule.Max != nil && n > *rule.Max {
				issues = append(issues, Issue{
					Field:   f.Name,
					Rule:    RuleMax,
					Message: fmt.Sprintf("must be at most %v", *rule.Max),
				})
			}
		}
	}

	return issues
}

// ValidateVisible validates the fields named in visible against the value
// bag; every other field is skipped entirely, so a hidden required field
// never blocks submission. visible must come from one visibility pass over
// the full value bag (condition.VisibleFields) — re-deriving it here from
// an already-filtered bag would flip fields whose conditions reference a
// hidden field's value.
func ValidateVisible(d *schema.Document, values condition.Values, visible map[string]bool) []Issue {
	var issues []Issue
	for i := range d.Fields {
		f := &d.Fields[i]
		if !visible[f.Name] {
			continue
		}
		issues = append(issues, Validate(f, values[f.Name])...)
	}
	return issues
}

// matchWhole anchors the stored pattern against the entire value. A
// pattern that fails to compile was already rejected at document write
// time; at evaluation time it fails the value rather than panicking.
func matchWhole(pattern, s string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
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
	}
	return 0, false
}
