package currency

import (
	"slices"
	"strings"
	"sync"
)

type Code string

const (
	EUR Code = "EUR"
	USD Code = "USD"
	GBP Code = "GBP"
)

// DefaultSymbol is shown when a code is unknown to the catalog.
const DefaultSymbol = "€"

type Currency struct {
	Code   Code
	Name   string
	Symbol string
}

// Catalog is the list of fiat currencies a merchant can request payments in.
type Catalog struct {
	mu         sync.RWMutex
	currencies []Currency
}

func NewCatalog(currencies ...Currency) *Catalog {
	return &Catalog{currencies: slices.Clone(currencies)}
}

var Default = NewCatalog(
	Currency{Code: EUR, Name: "Euro", Symbol: "€"},
	Currency{Code: USD, Name: "US Dollar", Symbol: "$"},
	Currency{Code: GBP, Name: "British Pound", Symbol: "£"},
)

// Add registers c, replacing any entry with the same code.
func (c *Catalog) Add(cur Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.currencies {
		if c.currencies[i].Code == cur.Code {
			c.currencies[i] = cur
			return
		}
	}
	c.currencies = append(c.currencies, cur)
}

func (c *Catalog) All() []Currency {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.currencies)
}

func (c *Catalog) Lookup(code Code) (Currency, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, cur := range c.currencies {
		if cur.Code == code {
			return cur, true
		}
	}
	return Currency{}, false
}

func (c *Catalog) Contains(code Code) bool {
	_, ok := c.Lookup(code)
	return ok
}

func (c *Catalog) Symbol(code Code) string {
	if cur, ok := c.Lookup(code); ok {
		return cur.Symbol
	}
	return DefaultSymbol
}

// Search matches the query against codes and names, ignoring case.
// An empty query returns the whole catalog.
func (c *Catalog) Search(query string) []Currency {
	q := strings.ToLower(strings.TrimSpace(query))

	var found []Currency
	for _, cur := range c.All() {
		if strings.Contains(strings.ToLower(cur.Name), q) ||
			strings.Contains(strings.ToLower(string(cur.Code)), q) {
			found = append(found, cur)
		}
	}
	return found
}
