package schema

import "fmt"

// FieldKind enumerates the closed set of field kinds a document may use.
// The set is deliberately closed: rendering, validation, and mock data
// generation all switch exhaustively over it, so a new kind is added here
// first and the compiler-visible fallthroughs surface every site to update.
type FieldKind int

const (
	KindInvalid FieldKind = iota
	KindText
	KindEmail
	KindPhone
	KindNumber
	KindPassword
	KindTextarea
	KindSelect
	KindMultiselect
	KindRadio
	KindCheckbox
	KindDate
	KindDatetime
	KindCustom

	fieldKindCount
)

var kindNames = map[FieldKind]string{
	KindText:        "text",
	KindEmail:       "email",
	KindPhone:       "phone",
	KindNumber:      "number",
	KindPassword:    "password",
	KindTextarea:    "textarea",
	KindSelect:      "select",
	KindMultiselect: "multiselect",
	KindRadio:       "radio",
	KindCheckbox:    "checkbox",
	KindDate:        "date",
	KindDatetime:    "datetime",
	KindCustom:      "custom",
}

var kindValues = func() map[string]FieldKind {
	m := make(map[string]FieldKind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// ParseFieldKind maps a wire name to its FieldKind.
func ParseFieldKind(name string) (FieldKind, error) {
	if k, ok := kindValues[name]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("unknown field kind %q", name)
}

func (k FieldKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k FieldKind) Valid() bool {
	return k > KindInvalid && k < fieldKindCount
}

// StringLike reports whether values of this kind are free-form text,
// making minLength/maxLength/pattern rules applicable.
func (k FieldKind) StringLike() bool {
	switch k {
	case KindText, KindEmail, KindPhone, KindPassword, KindTextarea:
		return true
	}
	return false
}

// NeedsOptions reports whether the kind requires a non-empty options list.
func (k FieldKind) NeedsOptions() bool {
	switch k {
	case KindSelect, KindMultiselect, KindRadio:
		return true
	}
	return false
}

// MarshalYAML serializes the kind as its wire name.
func (k FieldKind) MarshalYAML() (interface{}, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid field kind %d", int(k))
	}
	return kindNames[k], nil
}

// UnmarshalYAML parses the wire name, rejecting unknown kinds.
func (k *FieldKind) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseFieldKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON serializes the kind as its wire name.
func (k FieldKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid field kind %d", int(k))
	}
	return []byte(`"` + kindNames[k] + `"`), nil
}

// UnmarshalJSON parses the wire name, rejecting unknown kinds.
func (k *FieldKind) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("field kind must be a string, got %s", string(data))
	}
	parsed, err := ParseFieldKind(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
