// Package mockdata synthesizes representative value bags from a schema
// document, used to exercise renderer previews. It never touches the
// registry or real application data.
package mockdata

import (
	"fmt"
	"time"

	"github.com/formweave/formweave/internal/schema"
)

// Generator produces deterministic preview values for a document. The
// clock is injectable so the same document yields the same bag in tests.
type Generator struct {
	now func() time.Time
}

// New creates a generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock creates a generator with a fixed clock.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate synthesizes one value per form field. A declared default value
// always wins over the synthesized one.
func (g *Generator) Generate(d *schema.Document) map[string]any {
	values := make(map[string]any, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.DefaultValue != nil {
			values[f.Name] = f.DefaultValue
			continue
		}
		values[f.Name] = g.valueFor(f)
	}
	return values
}

func (g *Generator) valueFor(f *schema.Field) any {
	switch f.Kind {
	case schema.KindText, schema.KindTextarea:
		if f.UI.Placeholder != "" {
			return f.UI.Placeholder
		}
		return "Sample " + f.UI.Label
	case schema.KindEmail:
		return "preview@example.com"
	case schema.KindPhone:
		return "+46700000000"
	case schema.KindPassword:
		return ""
	case schema.KindNumber:
		return 0
	case schema.KindSelect, schema.KindRadio:
		if len(f.Options) > 0 {
			return f.Options[0].Value
		}
		return ""
	case schema.KindMultiselect:
		return []string{}
	case schema.KindCheckbox:
		return false
	case schema.KindDate:
		return g.now().Format("2006-01-02")
	case schema.KindDatetime:
		return g.now().Format(time.RFC3339)
	case schema.KindCustom:
		return fmt.Sprintf("<%s preview>", f.CustomComponentType)
	}
	return nil
}
