package extract

import (
	"log/slog"

	"github.com/maltedev/product-page-scraper/internal/models"
)

const (
	DefaultDescriptionLimit = 500
	truncationMarker        = "..."
)

// Extractor turns a rendered product page into a ProductRecord
type Extractor struct {
	rules            Rules
	descriptionLimit int
	logger           *slog.Logger
}

// NewExtractor creates an extractor. A non-positive limit falls back to
// DefaultDescriptionLimit.
func NewExtractor(rules Rules, descriptionLimit int, logger *slog.Logger) *Extractor {
	if descriptionLimit <= 0 {
		descriptionLimit = DefaultDescriptionLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		rules:            rules,
		descriptionLimit: descriptionLimit,
		logger:           logger.With("component", "product_extractor"),
	}
}

// Extract resolves title, price and description, and separately probes for
// the primary image reference. A missing image never affects the record.
func (e *Extractor) Extract(doc Document) (models.ProductRecord, string, bool) {
	record := models.NewProductRecord()

	record.Title = e.field(doc, "title", e.rules.Title, models.Missing)
	record.Price = e.Price(doc)
	record.Description = Truncate(
		e.field(doc, "description", e.rules.Description, models.Missing),
		e.descriptionLimit,
	)

	imageRef := e.field(doc, "image", e.rules.Image, "")

	return record, imageRef, imageRef != ""
}

// Price prefers a sale price and only then consults the regular price rules.
func (e *Extractor) Price(doc Document) string {
	if sale := e.field(doc, "sale_price", e.rules.SalePrice, ""); sale != "" {
		return sale
	}
	return e.field(doc, "price", e.rules.RegularPrice, models.Missing)
}

func (e *Extractor) field(doc Document, name string, rules []FieldRule, def string) string {
	value, idx := resolve(doc, rules)
	if idx < 0 {
		e.logger.Debug("field not resolved", "field", name, "rules", len(rules))
		return def
	}
	e.logger.Debug("field resolved", "field", name, "selector", rules[idx].Selector)
	return value
}

// Truncate cuts s to limit characters and appends a marker when it was longer.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
