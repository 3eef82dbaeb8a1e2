package schemas

import (
	"github.com/JonMunkholm/partsdesk/internal/core"
)

// baseFields are the columns every component kind shares.
var baseFields = []core.FieldSpec{
	{Name: "category", Type: core.FieldText},
	{Name: "value", Type: core.FieldText, Aliases: []string{"partNumber", "productName"}},
	{Name: "manufacturerPN", Type: core.FieldText, Required: true, Aliases: []string{"mpn", "manufacturerPartNumber"}},
	{Name: "description", Type: core.FieldText},
	{Name: "package", Type: core.FieldText, Normalizer: NormalizePackage, Aliases: []string{"footprint"}},
	{Name: "quantity", Type: core.FieldCount, Required: true, Aliases: []string{"qty", "stock"}},
	{Name: "location", Type: core.FieldText, Aliases: []string{"bin"}},
	{Name: "remarks", Type: core.FieldText, Aliases: []string{"notes"}},
}

// fieldsWith returns the shared columns followed by kind-specific ones.
func fieldsWith(extra ...core.FieldSpec) []core.FieldSpec {
	out := make([]core.FieldSpec, 0, len(baseFields)+len(extra))
	out = append(out, baseFields...)
	return append(out, extra...)
}

// builder returns a BuildComponent func that stores the named attribute
// columns in Component.Attributes. Empty attributes are omitted.
func builder(category string, attrs ...string) func(core.Record) core.Component {
	return func(rec core.Record) core.Component {
		qty, _ := core.ParseCount(rec["quantity"])

		c := core.Component{
			Category:       rec["category"],
			Value:          rec["value"],
			ManufacturerPN: rec["manufacturerPN"],
			Description:    rec["description"],
			Package:        rec["package"],
			Quantity:       qty,
			Location:       rec["location"],
			Remarks:        rec["remarks"],
			Attributes:     make(map[string]string, len(attrs)),
		}
		if c.Category == "" {
			c.Category = category
		}
		for _, a := range attrs {
			if v := rec[a]; v != "" {
				c.Attributes[a] = v
			}
		}
		return c
	}
}

func register(kind core.ComponentKind, label, category string, example []string, extra ...core.FieldSpec) {
	attrs := make([]string, len(extra))
	for i, f := range extra {
		attrs[i] = f.Name
	}
	core.RegisterSchema(core.ImportSchema{
		Key:            string(kind),
		Label:          label,
		Fields:         fieldsWith(extra...),
		Example:        example,
		BuildComponent: builder(category, attrs...),
	})
}
