package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity int             `json:"quantity" validate:"gt=0"`
}

// Subtotal returns price x quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is an immutable copy of the cart lines in insertion order.
// The total is never stored; it is derived on every call to Total.
type CartSnapshot struct {
	Lines []CartLine
}

func (s CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Line returns the line for productID, if present.
func (s CartSnapshot) Line(productID int64) (CartLine, bool) {
	for _, line := range s.Lines {
		if line.ID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}
