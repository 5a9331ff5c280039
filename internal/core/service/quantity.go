package service

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

type Control string

const (
	ControlBuy     Control = "buy"
	ControlStepper Control = "stepper"
)

// QuantityOf returns the cart quantity of productID, or 0 if it is not in the cart.
func QuantityOf(productID int64, snapshot domain.CartSnapshot) int {
	if line, ok := snapshot.Line(productID); ok {
		return line.Quantity
	}
	return 0
}

// ControlFor picks the catalog control for a product with the given quantity.
func ControlFor(quantity int) Control {
	if quantity > 0 {
		return ControlStepper
	}
	return ControlBuy
}

// StepQuantity adds delta to current, saturating at math.MaxInt and clamping at 0.
func StepQuantity(current, delta int) int {
	switch {
	case delta > 0 && current > math.MaxInt-delta:
		return math.MaxInt
	case delta < 0 && current < math.MinInt-delta:
		return 0
	}
	return max(0, current+delta)
}

// ParseQuantityInput reads the leading integer of free-form input. Input with
// no leading integer is 0 and negative values clamp to 0.
func ParseQuantityInput(text string) int {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)

	end := 0
	if end < len(text) && (text[end] == '+' || text[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}

	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0
	}
	return max(n, 0)
}
