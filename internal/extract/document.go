package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// PageDocument reads from a live playwright page.
type PageDocument struct {
	page playwright.Page
}

func NewPageDocument(page playwright.Page) *PageDocument {
	return &PageDocument{page: page}
}

func (d *PageDocument) Text(selector string) (string, error) {
	el, err := d.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if el == nil {
		return "", nil
	}
	return el.TextContent()
}

func (d *PageDocument) Attribute(selector, name string) (string, error) {
	el, err := d.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if el == nil {
		return "", nil
	}
	return el.GetAttribute(name)
}

// HTMLDocument is a parsed snapshot of page markup.
type HTMLDocument struct {
	doc *goquery.Document
}

func NewHTMLDocument(html string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &HTMLDocument{doc: doc}, nil
}

func (d *HTMLDocument) Text(selector string) (string, error) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", nil
	}
	return sel.Text(), nil
}

func (d *HTMLDocument) Attribute(selector, name string) (string, error) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", nil
	}
	value, _ := sel.Attr(name)
	return value, nil
}
