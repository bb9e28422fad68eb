package extract

// Rules holds the ordered lookup rules for every field of a product page.
type Rules struct {
	Title        []FieldRule
	SalePrice    []FieldRule
	RegularPrice []FieldRule
	Description  []FieldRule
	Image        []FieldRule
}

const currencySymbol = "€"

// DefaultRules covers the product templates of the shop the tool was built
// for. Sale prices take precedence over regular ones.
func DefaultRules() Rules {
	return Rules{
		Title: []FieldRule{
			Text("h1.product-data--title"),
			Text("h1.product-name"),
			Text("div.product-data--title"),
			Text(`[itemprop="title"]`),
		},
		SalePrice: []FieldRule{
			Text(".price.sale", StripSymbol(currencySymbol)),
			Text("span.price-span.saled", StripSymbol(currencySymbol)),
		},
		RegularPrice: []FieldRule{
			Text(".price.money", StripSymbol(currencySymbol)),
			Text("span.price-span.money", StripSymbol(currencySymbol)),
			Text(`[itemprop="price"]`, StripSymbol(currencySymbol)),
		},
		Description: []FieldRule{
			Text("div.product-data--description"),
			Text(".product-description"),
			Text(`[itemprop="description"]`),
		},
		Image: []FieldRule{
			Attr("img.single-product--image-img", "src"),
			Attr(`img[itemprop="image"]`, "src"),
		},
	}
}
