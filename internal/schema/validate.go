package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue is a single structural problem found in a document.
type Issue struct {
	Field   string `json:"field,omitempty"` // empty for document-level issues
	Check   string `json:"check"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s: %s", i.Check, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Check, i.Field, i.Message)
}

// Result is the outcome of validating a document. A document is either
// accepted whole or rejected whole; there is no partial acceptance.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Issue `json:"errors,omitempty"`
}

// Check names reported in issues.
const (
	CheckRequired    = "required_keys"
	CheckUniqueNames = "unique_names"
	CheckCompanions  = "kind_companions"
	CheckConditions  = "condition_exclusivity"
	CheckTokens      = "design_tokens"
	CheckLayout      = "layout_bounds"
	CheckRules       = "rule_vocabulary"
)

// utilityClassPattern matches strings that look like raw CSS utility-class
// tokens. Labels and placeholders are copy, not styling; the renderer owns
// a design-token-only invariant this guard protects at write time.
var utilityClassPattern = regexp.MustCompile(
	`(?:^|\s)(?:bg|text|font|px|py|pt|pb|pl|pr|mx|my|mt|mb|ml|mr|w|h|gap|rounded|border|shadow|flex|grid|items|justify|space)-[a-z0-9\[\]/.-]+(?:\s|$)`)

// Validate structurally checks a schema document. It is pure and never
// panics. Checks run in a fixed order; the first failing check for a field
// short-circuits the remaining checks for that field, while issues keep
// accumulating across fields.
func Validate(d *Document) Result {
	var issues []Issue

	issues = append(issues, checkTopLevel(d)...)

	switch d.Kind {
	case DocForm:
		issues = append(issues, checkFieldNames(d)...)
		for i := range d.Fields {
			if issue := checkField(&d.Fields[i], d.Layout.Columns); issue != nil {
				issues = append(issues, *issue)
			}
		}
	case DocTable:
		issues = append(issues, checkColumnNames(d)...)
	}

	if d.Layout.Columns < 1 || d.Layout.Columns > 12 {
		issues = append(issues, Issue{
			Check:   CheckLayout,
			Message: fmt.Sprintf("layout columns %d out of range 1-12", d.Layout.Columns),
		})
	}

	issues = append(issues, checkActions(d)...)

	return Result{Valid: len(issues) == 0, Errors: issues}
}

func checkTopLevel(d *Document) []Issue {
	var issues []Issue
	miss := func(key string) {
		issues = append(issues, Issue{Check: CheckRequired, Message: "missing required key " + key})
	}

	if d.Version == "" {
		miss("version")
	}
	if d.MinSupportedClient == "" {
		miss("min_supported_client")
	}
	if d.Entity == "" {
		miss("entity")
	}
	if !d.Kind.Valid() {
		issues = append(issues, Issue{
			Check:   CheckRequired,
			Message: fmt.Sprintf("kind must be %q or %q", DocForm, DocTable),
		})
		return issues
	}

	if d.Kind == DocForm && len(d.Fields) == 0 {
		issues = append(issues, Issue{Check: CheckRequired, Message: "form document has no fields"})
	}
	if d.Kind == DocTable && len(d.Columns) == 0 {
		issues = append(issues, Issue{Check: CheckRequired, Message: "table document has no columns"})
	}
	return issues
}

func checkFieldNames(d *Document) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		name := d.Fields[i].Name
		if name == "" {
			issues = append(issues, Issue{Check: CheckUniqueNames, Message: "field with empty name"})
			continue
		}
		if seen[name] {
			issues = append(issues, Issue{Field: name, Check: CheckUniqueNames, Message: "duplicate field name"})
		}
		seen[name] = true
	}
	return issues
}

func checkColumnNames(d *Document) []Issue {
	var issues []Issue
	seen := make(map[string]bool, len(d.Columns))
	for i := range d.Columns {
		name := d.Columns[i].Name
		if name == "" {
			issues = append(issues, Issue{Check: CheckUniqueNames, Message: "column with empty name"})
			continue
		}
		if seen[name] {
			issues = append(issues, Issue{Field: name, Check: CheckUniqueNames, Message: "duplicate column name"})
		}
		seen[name] = true
	}
	return issues
}

// checkField runs the per-field checks in order and returns the first
// failure, or nil when the field is clean.
func checkField(f *Field, layoutColumns int) *Issue {
	fail := func(check, msg string) *Issue {
		return &Issue{Field: f.Name, Check: check, Message: msg}
	}

	if !f.Kind.Valid() {
		return fail(CheckRequired, "missing or unknown field kind")
	}

	// Kind companions.
	if f.Kind.NeedsOptions() && len(f.Options) == 0 {
		return fail(CheckCompanions, fmt.Sprintf("%s field requires a non-empty options list", f.Kind))
	}
	if f.Kind == KindCustom && f.CustomComponentType == "" {
		return fail(CheckCompanions, "custom field requires custom_component_type")
	}

	// A field carries at most one of condition/conditions.
	if f.Condition != nil && f.Conditions != nil {
		return fail(CheckConditions, "field carries both condition and conditions")
	}
	if f.Condition != nil && !f.Condition.Op.Valid() {
		return fail(CheckRules, fmt.Sprintf("unknown condition operator %q", f.Condition.Op))
	}
	if f.Conditions != nil {
		if f.Conditions.Logic != LogicAnd && f.Conditions.Logic != LogicOr {
			return fail(CheckRules, fmt.Sprintf("unknown condition logic %q", f.Conditions.Logic))
		}
		for _, c := range f.Conditions.Conditions {
			if !c.Op.Valid() {
				return fail(CheckRules, fmt.Sprintf("unknown condition operator %q", c.Op))
			}
		}
	}

	if looksLikeUtilityClasses(f.UI.Label) {
		return fail(CheckTokens, "label looks like raw utility-class tokens; use design-token copy")
	}
	if looksLikeUtilityClasses(f.UI.Placeholder) {
		return fail(CheckTokens, "placeholder looks like raw utility-class tokens; use design-token copy")
	}

	if f.UI.ColSpan < 1 || f.UI.ColSpan > 12 {
		return fail(CheckLayout, fmt.Sprintf("col_span %d out of range 1-12", f.UI.ColSpan))
	}
	if layoutColumns >= 1 && layoutColumns <= 12 && f.UI.ColSpan > layoutColumns {
		return fail(CheckLayout, fmt.Sprintf("col_span %d exceeds layout columns %d", f.UI.ColSpan, layoutColumns))
	}

	if f.Validation != nil && f.Validation.Pattern != "" {
		if _, err := regexp.Compile(f.Validation.Pattern); err != nil {
			return fail(CheckRules, fmt.Sprintf("invalid validation pattern: %v", err))
		}
	}

	return nil
}

func checkActions(d *Document) []Issue {
	var issues []Issue
	for i, a := range d.Actions {
		at := fmt.Sprintf("actions[%d]", i)
		switch a.Event {
		case EventSubmit, EventSubmitSuccess, EventSubmitError:
		default:
			issues = append(issues, Issue{Check: CheckRules, Message: fmt.Sprintf("%s: unknown event %q", at, a.Event)})
			continue
		}
		switch a.Type {
		case ActionAPICall:
			if a.Endpoint == "" {
				issues = append(issues, Issue{Check: CheckRules, Message: at + ": api.call requires an endpoint"})
			}
		case ActionToast:
			if a.Message == "" {
				issues = append(issues, Issue{Check: CheckRules, Message: at + ": toast requires a message"})
			}
		default:
			issues = append(issues, Issue{Check: CheckRules, Message: fmt.Sprintf("%s: unknown action type %q", at, a.Type)})
		}
	}
	return issues
}

func looksLikeUtilityClasses(s string) bool {
	if s == "" {
		return false
	}
	if utilityClassPattern.MatchString(s) {
		return true
	}
	// A run of three or more short dashed lowercase tokens is almost
	// certainly a class string, not copy.
	words := strings.Fields(s)
	if len(words) < 3 {
		return false
	}
	dashed := 0
	for _, w := range words {
		if strings.Contains(w, "-") && strings.ToLower(w) == w {
			dashed++
		}
	}
	return dashed == len(words)
}
