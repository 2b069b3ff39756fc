package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultStrategies returns the built-in strategy set in probe order. New
// site layouts are accommodated by adding a strategy here, never by touching
// the extractor.
func DefaultStrategies() []Strategy {
	return []Strategy{
		legacyIDStrategy{},
		offscreenStrategy{},
		priceBlockStrategy{},
		currencyRegexStrategy{},
	}
}

// legacyIDStrategy probes element identifiers that older storefront layouts
// used for the buy-box price.
type legacyIDStrategy struct{}

func (legacyIDStrategy) Name() string { return "legacy_id" }

func (legacyIDStrategy) Extract(doc *goquery.Document) []float64 {
	var out []float64
	doc.Find("span#priceblock_ourprice, span#priceblock_dealprice").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := ParsePrice(strings.TrimSpace(sel.Text())); ok {
			out = append(out, v)
		}
	})
	return out
}

// offscreenStrategy reads the primary price container: the visually hidden
// span that carries the full price string for screen readers.
type offscreenStrategy struct{}

func (offscreenStrategy) Name() string { return "offscreen" }

func (offscreenStrategy) Extract(doc *goquery.Document) []float64 {
	var out []float64
	doc.Find("span.a-offscreen").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := ParsePrice(strings.TrimSpace(sel.Text())); ok {
			out = append(out, v)
		}
	})
	return out
}

// priceBlockStrategy probes generic "price block" markup: leaf elements whose
// class or id mentions price and whose text carries a currency marker.
type priceBlockStrategy struct{}

func (priceBlockStrategy) Name() string { return "price_block" }

func (priceBlockStrategy) Extract(doc *goquery.Document) []float64 {
	var out []float64
	doc.Find(`[class*="price"], [id*="price"]`).Each(func(_ int, sel *goquery.Selection) {
		// Leaf nodes only; container blocks repeat their children's text.
		if sel.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "R$") {
			return
		}
		if v, ok := ParsePrice(text); ok {
			out = append(out, v)
		}
	})
	return out
}

// currencyRe matches R$ amounts in free-flowing page text.
var currencyRe = regexp.MustCompile(`R\$\s*[\d\.\,]+`)

// currencyRegexStrategy is the last resort: a bare currency-pattern scan over
// the full page text.
type currencyRegexStrategy struct{}

func (currencyRegexStrategy) Name() string { return "currency_regex" }

func (currencyRegexStrategy) Extract(doc *goquery.Document) []float64 {
	text := doc.Text()
	var out []float64
	for _, m := range currencyRe.FindAllString(text, -1) {
		if v, ok := ParsePrice(m); ok {
			out = append(out, v)
		}
	}
	return out
}
