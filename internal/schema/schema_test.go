package schema

import (
	"path/filepath"
	"reflect"
	"testing"
)

func intPtr(v int) *int { return &v }

func validFormDoc() *Document {
	return &Document{
		Version:            "1.2.0",
		MinSupportedClient: "1.0.0",
		Entity:             "student",
		Kind:               DocForm,
		Layout:             Layout{Columns: 12},
		Fields: []Field{
			{
				Name: "full_name",
				Kind: KindText,
				UI:   UIHints{Label: "Full name", Placeholder: "Jordan Smith", ColSpan: 6},
				Validation: &ValidationRule{
					Required:  true,
					MinLength: intPtr(2),
					MaxLength: intPtr(120),
				},
			},
			{
				Name:    "grade",
				Kind:    KindSelect,
				UI:      UIHints{Label: "Grade", ColSpan: 6},
				Options: []Option{{Value: "g1", Label: "Grade 1"}, {Value: "g2", Label: "Grade 2"}},
			},
			{
				Name:      "split_percentage",
				Kind:      KindNumber,
				UI:        UIHints{Label: "Split percentage", ColSpan: 6},
				Condition: &ConditionRule{Field: "enabled", Op: OpEq, Value: true},
			},
		},
		Submit: &Submit{Label: "Save"},
		Actions: []ActionRule{
			{Event: EventSubmit, Type: ActionAPICall, Endpoint: "/api/students", Method: "POST", Body: "form"},
			{Event: EventSubmitSuccess, Type: ActionToast, Message: "Student saved"},
		},
	}
}

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	res := Validate(validFormDoc())
	if !res.Valid {
		t.Fatalf("expected valid document, got issues: %v", res.Errors)
	}
}

func TestValidateRequiredTopLevelKeys(t *testing.T) {
	d := validFormDoc()
	d.Version = ""
	d.Entity = ""

	res := Validate(d)
	if res.Valid {
		t.Fatal("expected rejection")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 issues, got %d: %v", len(res.Errors), res.Errors)
	}
	for _, issue := range res.Errors {
		if issue.Check != CheckRequired {
			t.Errorf("issue check = %q, want %q", issue.Check, CheckRequired)
		}
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	d := validFormDoc()
	d.Kind = "wizard"
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of unknown document kind")
	}
}

func TestValidateDuplicateFieldNames(t *testing.T) {
	d := validFormDoc()
	d.Fields = append(d.Fields, d.Fields[0])

	res := Validate(d)
	if res.Valid {
		t.Fatal("expected rejection")
	}
	found := false
	for _, issue := range res.Errors {
		if issue.Check == CheckUniqueNames && issue.Field == "full_name" {
			found = true
		}
	}
	if !found {
		t.Errorf("no unique_names issue for full_name in %v", res.Errors)
	}
}

func TestValidateKindCompanions(t *testing.T) {
	tests := []struct {
		name  string
		field Field
	}{
		{
			name:  "select without options",
			field: Field{Name: "grade", Kind: KindSelect, UI: UIHints{Label: "Grade", ColSpan: 6}},
		},
		{
			name:  "multiselect without options",
			field: Field{Name: "tags", Kind: KindMultiselect, UI: UIHints{Label: "Tags", ColSpan: 6}},
		},
		{
			name:  "radio without options",
			field: Field{Name: "sex", Kind: KindRadio, UI: UIHints{Label: "Sex", ColSpan: 6}},
		},
		{
			name:  "custom without component type",
			field: Field{Name: "sig", Kind: KindCustom, UI: UIHints{Label: "Signature", ColSpan: 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validFormDoc()
			d.Fields = []Field{tt.field}
			res := Validate(d)
			if res.Valid {
				t.Fatal("expected rejection")
			}
			if res.Errors[0].Check != CheckCompanions {
				t.Errorf("check = %q, want %q", res.Errors[0].Check, CheckCompanions)
			}
		})
	}
}

func TestValidateConditionExclusivity(t *testing.T) {
	d := validFormDoc()
	d.Fields[2].Conditions = &MultiConditionRule{
		Logic:      LogicAnd,
		Conditions: []ConditionRule{{Field: "enabled", Op: OpEq, Value: true}},
	}

	res := Validate(d)
	if res.Valid {
		t.Fatal("expected rejection of field with both condition and conditions")
	}
	if res.Errors[0].Check != CheckConditions {
		t.Errorf("check = %q, want %q", res.Errors[0].Check, CheckConditions)
	}
}

func TestValidateUtilityClassGuard(t *testing.T) {
	tests := []struct {
		label string
		want  bool // want rejection
	}{
		{"Full name", false},
		{"Parent / guardian e-mail", false},
		{"text-sm font-bold", true},
		{"mt-2 px-4 rounded-lg", true},
		{"bg-red-500", true},
	}

	for _, tt := range tests {
		d := validFormDoc()
		d.Fields[0].UI.Label = tt.label
		res := Validate(d)
		if tt.want && res.Valid {
			t.Errorf("label %q: expected rejection", tt.label)
		}
		if !tt.want && !res.Valid {
			t.Errorf("label %q: unexpected rejection: %v", tt.label, res.Errors)
		}
	}
}

func TestValidateLayoutBounds(t *testing.T) {
	d := validFormDoc()
	d.Layout.Columns = 13
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of layout columns 13")
	}

	d = validFormDoc()
	d.Fields[0].UI.ColSpan = 0
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of col_span 0")
	}

	d = validFormDoc()
	d.Layout.Columns = 4
	d.Fields[0].UI.ColSpan = 6
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of col_span wider than layout")
	}
}

func TestValidateShortCircuitsPerField(t *testing.T) {
	// A select with no options AND an out-of-range col_span reports only
	// the first failing check for that field.
	d := validFormDoc()
	d.Fields = []Field{{Name: "grade", Kind: KindSelect, UI: UIHints{Label: "Grade", ColSpan: 40}}}

	res := Validate(d)
	if res.Valid {
		t.Fatal("expected rejection")
	}
	count := 0
	for _, issue := range res.Errors {
		if issue.Field == "grade" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 issue for field grade, got %d: %v", count, res.Errors)
	}
	if res.Errors[0].Check != CheckCompanions {
		t.Errorf("first check = %q, want %q", res.Errors[0].Check, CheckCompanions)
	}
}

func TestValidateActionRules(t *testing.T) {
	d := validFormDoc()
	d.Actions = []ActionRule{{Event: "onHover", Type: ActionToast, Message: "hi"}}
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of unknown event")
	}

	d = validFormDoc()
	d.Actions = []ActionRule{{Event: EventSubmit, Type: ActionAPICall}}
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of api.call without endpoint")
	}
}

func TestValidateTableDocument(t *testing.T) {
	d := &Document{
		Version:            "1.0.0",
		MinSupportedClient: "1.0.0",
		Entity:             "attendance",
		Kind:               DocTable,
		Layout:             Layout{Columns: 12},
		Columns: []Column{
			{Name: "date", Label: "Date", Kind: KindDate, Sortable: true},
			{Name: "status", Label: "Status"},
		},
	}
	if res := Validate(d); !res.Valid {
		t.Fatalf("expected valid table document, got %v", res.Errors)
	}

	d.Columns = append(d.Columns, Column{Name: "date", Label: "Date again"})
	if res := Validate(d); res.Valid {
		t.Fatal("expected rejection of duplicate column name")
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	d := validFormDoc()

	data, err := d.Canonical()
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if res := Validate(back); !res.Valid {
		t.Fatalf("re-imported document rejected: %v", res.Errors)
	}
	if !reflect.DeepEqual(d, back) {
		t.Errorf("round-trip mismatch:\noriginal: %+v\nreimport: %+v", d, back)
	}
}

func TestWriteAndLoadYAML(t *testing.T) {
	d := validFormDoc()
	path := filepath.Join(t.TempDir(), "student_form.yaml")

	if err := d.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if loaded.Entity != "student" {
		t.Errorf("entity = %q, want %q", loaded.Entity, "student")
	}
	if loaded.Fields[1].Kind != KindSelect {
		t.Errorf("grade kind = %v, want %v", loaded.Fields[1].Kind, KindSelect)
	}
	if len(loaded.Fields[1].Options) != 2 {
		t.Errorf("grade options = %d, want 2", len(loaded.Fields[1].Options))
	}
}

func TestParseRejectsUnknownFieldKind(t *testing.T) {
	_, err := Parse([]byte(`
version: "1.0.0"
min_supported_client: "1.0.0"
entity: student
kind: form
layout:
  columns: 12
fields:
  - name: full_name
    kind: hologram
    ui:
      label: Full name
      col_span: 6
`))
	if err == nil {
		t.Fatal("expected parse error for unknown field kind")
	}
}
