package notion

import (
	"time"

	"github.com/jomei/notionapi"
)

// ValueKind tags which field of a Value is populated.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
	ValueStrings
	ValueBool
)

// Value is the scalar extracted from a typed page property.
type Value struct {
	Kind    ValueKind
	String  string
	Number  float64
	Strings []string
	Bool    bool
}

func (v Value) Present() bool { return v.Kind != ValueAbsent }

// IntOr returns the number as an int, or def when the value is not a number.
func (v Value) IntOr(def int) int {
	if v.Kind != ValueNumber {
		return def
	}
	return int(v.Number)
}

// StringOr returns the string, or def when the value is not a string.
func (v Value) StringOr(def string) string {
	if v.Kind != ValueString {
		return def
	}
	return v.String
}

// PropertyValue decodes a property according to its variant. Unhandled
// variants and unset select or date payloads yield an absent Value.
func PropertyValue(p notionapi.Property) Value {
	switch p := p.(type) {
	case *notionapi.TitleProperty:
		return Value{Kind: ValueString, String: firstText(p.Title)}
	case *notionapi.RichTextProperty:
		return Value{Kind: ValueString, String: firstText(p.RichText)}
	case *notionapi.NumberProperty:
		return Value{Kind: ValueNumber, Number: p.Number}
	case *notionapi.SelectProperty:
		if p.Select.Name == "" {
			return Value{}
		}
		return Value{Kind: ValueString, String: p.Select.Name}
	case *notionapi.MultiSelectProperty:
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return Value{Kind: ValueStrings, Strings: names}
	case *notionapi.CheckboxProperty:
		return Value{Kind: ValueBool, Bool: p.Checkbox}
	case *notionapi.DateProperty:
		if p.Date == nil || p.Date.Start == nil {
			return Value{}
		}
		return Value{Kind: ValueString, String: formatDate(time.Time(*p.Date.Start))}
	default:
		return Value{}
	}
}

func firstText(parts []notionapi.RichText) string {
	if len(parts) == 0 || parts[0].Text == nil {
		return ""
	}
	return parts[0].Text.Content
}

// formatDate keeps all-day dates in their short form.
func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// Prop looks up a property by name; a missing property yields an absent Value.
func Prop(props notionapi.Properties, name string) Value {
	p, ok := props[name]
	if !ok || p == nil {
		return Value{}
	}
	return PropertyValue(p)
}
