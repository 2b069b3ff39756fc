// Package extract resolves a numeric price from inconsistent product-page
// markup. An ordered set of independent strategies each inspects a different
// structural location and yields zero or more candidates; the pooled
// candidates resolve to a single value.
package extract

import (
	"bytes"
	"math"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoPrice is returned when no strategy yields a valid candidate. It is a
// recoverable condition: the caller re-fetches, since markup is often
// inconsistently rendered between requests.
var ErrNoPrice = eris.New("extract: no price candidate found")

// minCandidate guards against zero-price markup artifacts and partial
// scrapes: any parsed value at or below it is discarded.
const minCandidate = 1.0

// Strategy inspects a parsed document and yields price candidates.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) []float64
}

// Extractor runs its strategies in order and resolves the pooled candidates.
type Extractor struct {
	strategies []Strategy
}

// New creates an Extractor with the given strategies. With none given, the
// default strategy set is used.
func New(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// Price extracts a single price from an HTML document. Candidates from every
// strategy are pooled and the minimum wins: pages frequently render a
// crossed-out original price next to the current one, and the current price
// is reliably the smaller of the two. The result is a pure function of the
// document bytes.
func (e *Extractor) Price(html []byte) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return 0, eris.Wrap(err, "extract: parse document")
	}

	var pool []float64
	for _, s := range e.strategies {
		found := s.Extract(doc)
		for _, v := range found {
			if v <= minCandidate {
				continue
			}
			pool = append(pool, v)
		}
		if len(found) > 0 {
			zap.L().Debug("extract: strategy candidates",
				zap.String("strategy", s.Name()),
				zap.Int("count", len(found)),
			)
		}
	}

	if len(pool) == 0 {
		return 0, ErrNoPrice
	}

	best := pool[0]
	for _, v := range pool[1:] {
		if v < best {
			best = v
		}
	}

	// Currency-normalize to 2-decimal precision.
	return math.Round(best*100) / 100, nil
}
