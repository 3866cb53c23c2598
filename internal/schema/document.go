package schema

// DocumentKind distinguishes the two document shapes the engine serves.
type DocumentKind string

const (
	DocForm  DocumentKind = "form"
	DocTable DocumentKind = "table"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	return k == DocForm || k == DocTable
}

// Document is one declarative UI contract for one entity. It is the unit
// the registry versions and the renderer consumes.
type Document struct {
	Version            string       `yaml:"version" json:"version"`
	MinSupportedClient string       `yaml:"min_supported_client" json:"minSupportedClient"`
	Entity             string       `yaml:"entity" json:"entity"`
	Variant            string       `yaml:"variant,omitempty" json:"variant,omitempty"`
	Kind               DocumentKind `yaml:"kind" json:"kind"`
	Layout             Layout       `yaml:"layout" json:"layout"`
	Fields             []Field      `yaml:"fields,omitempty" json:"fields,omitempty"`
	Columns            []Column     `yaml:"columns,omitempty" json:"columns,omitempty"`
	Submit             *Submit      `yaml:"submit,omitempty" json:"submit,omitempty"`
	Actions            []ActionRule `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// Layout controls the grid the renderer lays fields out on.
type Layout struct {
	Columns int `yaml:"columns" json:"columns"` // 1-12
}

// Field is a single form field declaration.
type Field struct {
	Name                string              `yaml:"name" json:"name"`
	Kind                FieldKind           `yaml:"kind" json:"kind"`
	UI                  UIHints             `yaml:"ui" json:"ui"`
	Options             []Option            `yaml:"options,omitempty" json:"options,omitempty"`
	Validation          *ValidationRule     `yaml:"validation,omitempty" json:"validation,omitempty"`
	Condition           *ConditionRule      `yaml:"condition,omitempty" json:"condition,omitempty"`
	Conditions          *MultiConditionRule `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	CustomComponentType string              `yaml:"custom_component_type,omitempty" json:"customComponentType,omitempty"`
	DefaultValue        any                 `yaml:"default_value,omitempty" json:"defaultValue,omitempty"`
}

// UIHints carries the render-facing presentation of a field. Label and
// placeholder must be design-token text, never raw utility-class strings.
type UIHints struct {
	Label       string `yaml:"label" json:"label"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	ColSpan     int    `yaml:"col_span" json:"colSpan"` // 1-12
}

// Option is one selectable value of a select/multiselect/radio field.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Column is a single table column declaration.
type Column struct {
	Name     string    `yaml:"name" json:"name"`
	Label    string    `yaml:"label" json:"label"`
	Kind     FieldKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Sortable bool      `yaml:"sortable,omitempty" json:"sortable,omitempty"`
}

// Submit configures the form's submit affordance.
type Submit struct {
	Label    string `yaml:"label" json:"label"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Method   string `yaml:"method,omitempty" json:"method,omitempty"`
}

// ValidationRule is the closed, data-only rule vocabulary. Documents are
// data: a new validation need becomes a new named rule here, never an
// embedded predicate.
type ValidationRule struct {
	Required  bool     `yaml:"required,omitempty" json:"required,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty" json:"minLength,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty" json:"maxLength,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Min       *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Op enumerates condition operators.
type Op string

const (
	OpEq        Op = "eq"
	OpNe        Op = "ne"
	OpGt        Op = "gt"
	OpGte       Op = "gte"
	OpLt        Op = "lt"
	OpLte       Op = "lte"
	OpIn        Op = "in"
	OpNotIn     Op = "not_in"
	OpExists    Op = "exists"
	OpNotExists Op = "not_exists"
)

var validOps = map[Op]bool{
	OpEq: true, OpNe: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpIn: true, OpNotIn: true,
	OpExists: true, OpNotExists: true,
}

// Valid reports whether o is a known operator.
func (o Op) Valid() bool { return validOps[o] }

// ConditionRule is a single predicate over one named field's current value.
type ConditionRule struct {
	Field string `yaml:"field" json:"field"`
	Op    Op     `yaml:"op" json:"op"`
	Value any    `yaml:"value,omitempty" json:"value,omitempty"`
}

// Logic combines sub-conditions of a MultiConditionRule.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// MultiConditionRule is a boolean combination of condition rules.
type MultiConditionRule struct {
	Logic      Logic           `yaml:"logic" json:"logic"`
	Conditions []ConditionRule `yaml:"conditions" json:"conditions"`
}

// ActionEvent names the lifecycle moment an action is bound to.
type ActionEvent string

const (
	EventSubmit        ActionEvent = "onSubmit"
	EventSubmitSuccess ActionEvent = "onSubmitSuccess"
	EventSubmitError   ActionEvent = "onSubmitError"
)

// ActionType names the declared side effect.
type ActionType string

const (
	ActionAPICall ActionType = "api.call"
	ActionToast   ActionType = "toast"
)

// ActionRule is a declared side effect bound to a lifecycle event.
// Body "form" threads the submitted values as the call payload.
type ActionRule struct {
	Event    ActionEvent `yaml:"event" json:"event"`
	Type     ActionType  `yaml:"type" json:"type"`
	Endpoint string      `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Method   string      `yaml:"method,omitempty" json:"method,omitempty"`
	Body     string      `yaml:"body,omitempty" json:"body,omitempty"`
	Message  string      `yaml:"message,omitempty" json:"message,omitempty"`
	Variant  string      `yaml:"variant,omitempty" json:"variant,omitempty"`
}

// FieldByName returns the named field, or nil.
func (d *Document) FieldByName(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// ActionsFor returns the actions bound to the given event, in document order.
func (d *Document) ActionsFor(event ActionEvent) []ActionRule {
	var out []ActionRule
	for _, a := range d.Actions {
		if a.Event == event {
			out = append(out, a)
		}
	}
	return out
}
