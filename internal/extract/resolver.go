package extract

import (
	"strings"
)

// Document is the read-only view of a rendered page that field rules are
// evaluated against. Text and Attribute return an empty string and a nil
// error when nothing matches the selector.
type Document interface {
	Text(selector string) (string, error)
	Attribute(selector, name string) (string, error)
}

// Transform normalizes a raw value read from the page.
type Transform func(string) string

// FieldRule locates at most one element and reads its text, or the named
// attribute when Attr is set. Values are whitespace-trimmed before Transform.
type FieldRule struct {
	Selector  string
	Attr      string
	Transform Transform
}

func Text(selector string, transforms ...Transform) FieldRule {
	return FieldRule{Selector: selector, Transform: Chain(transforms...)}
}

func Attr(selector, name string, transforms ...Transform) FieldRule {
	return FieldRule{Selector: selector, Attr: name, Transform: Chain(transforms...)}
}

// lookup treats a missing element and a failed lookup the same way.
func (r FieldRule) lookup(doc Document) (string, bool) {
	var (
		raw string
		err error
	)
	if r.Attr == "" {
		raw, err = doc.Text(r.Selector)
	} else {
		raw, err = doc.Attribute(r.Selector, r.Attr)
	}
	if err != nil {
		return "", false
	}

	value := strings.TrimSpace(raw)
	if r.Transform != nil {
		value = r.Transform(value)
	}
	return value, value != ""
}

// Resolve returns the value of the first rule, in declared order, that yields
// a non-empty normalized value. If none does, def is returned.
func Resolve(doc Document, rules []FieldRule, def string) string {
	if value, idx := resolve(doc, rules); idx >= 0 {
		return value
	}
	return def
}

func resolve(doc Document, rules []FieldRule) (string, int) {
	if doc == nil {
		return "", -1
	}
	for i, rule := range rules {
		if value, ok := rule.lookup(doc); ok {
			return value, i
		}
	}
	return "", -1
}

func Chain(transforms ...Transform) Transform {
	if len(transforms) == 0 {
		return nil
	}
	return func(s string) string {
		for _, t := range transforms {
			if t != nil {
				s = t(s)
			}
		}
		return s
	}
}

// StripSymbol removes every occurrence of symbol and trims the rest.
func StripSymbol(symbol string) Transform {
	return func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, symbol, ""))
	}
}
