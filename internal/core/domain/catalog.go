package domain

import "github.com/shopspring/decimal"

type CatalogEntry struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// Catalog is a read-only snapshot of purchasable products, in listing order.
type Catalog []CatalogEntry

func (c Catalog) Find(id int64) (CatalogEntry, bool) {
	for _, entry := range c {
		if entry.ID == id {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}

type Review struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}
