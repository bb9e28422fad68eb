package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHTML(t *testing.T, body string) *HTMLDocument {
	t.Helper()
	doc, err := NewHTMLDocument("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc
}

// fakeDocument answers from fixed maps and records every selector it was asked for.
type fakeDocument struct {
	texts   map[string]string
	attrs   map[string]string
	errs    map[string]error
	queried []string
}

func (d *fakeDocument) Text(selector string) (string, error) {
	d.queried = append(d.queried, selector)
	if err, ok := d.errs[selector]; ok {
		return "", err
	}
	return d.texts[selector], nil
}

func (d *fakeDocument) Attribute(selector, name string) (string, error) {
	d.queried = append(d.queried, selector+"@"+name)
	if err, ok := d.errs[selector]; ok {
		return "", err
	}
	return d.attrs[selector+"@"+name], nil
}

func TestResolve(t *testing.T) {
	rules := []FieldRule{Text(".first"), Text(".second"), Text(".third")}

	tests := []struct {
		name     string
		doc      *fakeDocument
		expected string
	}{
		{
			name:     "first rule wins even when later rules match",
			doc:      &fakeDocument{texts: map[string]string{".first": " one ", ".second": "two", ".third": "three"}},
			expected: "one",
		},
		{
			name:     "falls through empty values",
			doc:      &fakeDocument{texts: map[string]string{".first": "   ", ".second": "two"}},
			expected: "two",
		},
		{
			name: "lookup error is treated as no match",
			doc: &fakeDocument{
				texts: map[string]string{".third": "three"},
				errs:  map[string]error{".first": errors.New("detached"), ".second": errors.New("timeout")},
			},
			expected: "three",
		},
		{
			name:     "default when nothing matches",
			doc:      &fakeDocument{},
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.doc, rules, "-"))
		})
	}
}

func TestResolveStopsAtFirstMatch(t *testing.T) {
	doc := &fakeDocument{texts: map[string]string{".first": "one", ".second": "two"}}

	Resolve(doc, []FieldRule{Text(".first"), Text(".second")}, "-")

	assert.Equal(t, []string{".first"}, doc.queried)
}

func TestResolveNilDocument(t *testing.T) {
	assert.Equal(t, "fallback", Resolve(nil, []FieldRule{Text("h1")}, "fallback"))
}

func TestResolveTransformMayEmptyValue(t *testing.T) {
	doc := &fakeDocument{texts: map[string]string{".sale": "€", ".regular": "99 €"}}
	rules := []FieldRule{
		Text(".sale", StripSymbol("€")),
		Text(".regular", StripSymbol("€")),
	}

	assert.Equal(t, "99", Resolve(doc, rules, ""))
}

func TestExtractorPrice(t *testing.T) {
	ex := NewExtractor(DefaultRules(), 0, nil)

	t.Run("sale price wins and regular rules are not consulted", func(t *testing.T) {
		doc := &fakeDocument{texts: map[string]string{
			".price.sale":  "€120",
			".price.money": "€150",
		}}

		assert.Equal(t, "120", ex.Price(doc))
		for _, q := range doc.queried {
			assert.NotEqual(t, ".price.money", q)
			assert.NotEqual(t, `[itemprop="price"]`, q)
		}
	})

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "sale price from span",
			html:     `<span class="price-span saled"> 89,00 € </span><span class="price-span money">120,00 €</span>`,
			expected: "89,00",
		},
		{
			name:     "regular price when no sale",
			html:     `<span class="price money">€ 245</span>`,
			expected: "245",
		},
		{
			name:     "itemprop fallback",
			html:     `<div itemprop="price">59</div>`,
			expected: "59",
		},
		{
			name:     "missing price",
			html:     `<p>Sold out</p>`,
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ex.Price(mustHTML(t, tt.html)))
		})
	}
}

func TestExtractorExtract(t *testing.T) {
	ex := NewExtractor(DefaultRules(), 0, nil)

	t.Run("complete product page", func(t *testing.T) {
		doc := mustHTML(t, `
			<h1 class="product-data--title">
				405 Short Blouse
			</h1>
			<span class="price money">€160</span>
			<div class="product-data--description"> Light blouse in organic cotton. </div>
			<img class="single-product--image-img" src="//cdn.example.com/405.jpg">
		`)

		record, imageRef, ok := ex.Extract(doc)

		assert.Equal(t, "405 Short Blouse", record.Title)
		assert.Equal(t, "160", record.Price)
		assert.Equal(t, "Light blouse in organic cotton.", record.Description)
		assert.True(t, ok)
		assert.Equal(t, "//cdn.example.com/405.jpg", imageRef)
	})

	t.Run("empty page yields sentinel fields", func(t *testing.T) {
		record, imageRef, ok := ex.Extract(mustHTML(t, `<div>nothing here</div>`))

		assert.Equal(t, "-", record.Title)
		assert.Equal(t, "-", record.Price)
		assert.Equal(t, "-", record.Description)
		assert.False(t, ok)
		assert.Empty(t, imageRef)
	})

	t.Run("missing image does not affect record", func(t *testing.T) {
		record, _, ok := ex.Extract(mustHTML(t, `<h1 class="product-name">Gift card</h1><span class="price sale">50 €</span>`))

		assert.False(t, ok)
		assert.Equal(t, "Gift card", record.Title)
		assert.Equal(t, "50", record.Price)
	})

	t.Run("image without src is absent", func(t *testing.T) {
		_, _, ok := ex.Extract(mustHTML(t, `<img itemprop="image">`))
		assert.False(t, ok)
	})

	t.Run("itemprop image fallback", func(t *testing.T) {
		_, imageRef, ok := ex.Extract(mustHTML(t, `<img itemprop="image" src="/files/jacket.jpg">`))
		assert.True(t, ok)
		assert.Equal(t, "/files/jacket.jpg", imageRef)
	})

	t.Run("long description is truncated", func(t *testing.T) {
		long := strings.Repeat("a", 620)
		record, _, _ := ex.Extract(mustHTML(t, `<div class="product-description">`+long+`</div>`))

		assert.Equal(t, strings.Repeat("a", 500)+"...", record.Description)
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"shorter than limit", "short", 500, "short"},
		{"exactly at limit", strings.Repeat("x", 500), 500, strings.Repeat("x", 500)},
		{"one over limit", strings.Repeat("x", 501), 500, strings.Repeat("x", 500) + "..."},
		{"counts characters not bytes", strings.Repeat("ä", 12), 10, strings.Repeat("ä", 10) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.limit))
		})
	}
}
