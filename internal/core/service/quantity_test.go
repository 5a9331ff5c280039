package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

func TestQuantityOf(t *testing.T) {
	snap := domain.CartSnapshot{Lines: []domain.CartLine{
		{ID: 5, Title: "Widget", Price: decimal.NewFromInt(100), Quantity: 2},
		{ID: 7, Title: "Gadget", Price: decimal.NewFromInt(5), Quantity: 1},
	}}

	if got := QuantityOf(5, snap); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := QuantityOf(8, snap); got != 0 {
		t.Errorf("expected 0 for absent product, got %d", got)
	}
	if got := QuantityOf(5, domain.CartSnapshot{}); got != 0 {
		t.Errorf("expected 0 for empty cart, got %d", got)
	}
}

func TestControlFor(t *testing.T) {
	if ControlFor(0) != ControlBuy {
		t.Error("expected buy control for zero quantity")
	}
	if ControlFor(3) != ControlStepper {
		t.Error("expected stepper control for positive quantity")
	}
}

func TestStepQuantity(t *testing.T) {
	if got := StepQuantity(2, 1); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := StepQuantity(1, -1); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := StepQuantity(0, -1); got != 0 {
		t.Errorf("expected clamp to 0, got %d", got)
	}
	if got := StepQuantity(1, math.MaxInt); got != math.MaxInt {
		t.Errorf("expected saturation at MaxInt, got %d", got)
	}
	if got := StepQuantity(-5, math.MinInt); got != 0 {
		t.Errorf("expected clamp to 0, got %d", got)
	}
}

func TestParseQuantityInput(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"abc":   0,
		"3":     3,
		"  12":  12,
		"7kg":   7,
		"4.9":   4,
		"+5":    5,
		"-3":    0,
		"-":     0,
		"0":     0,
		"99999999999999999999": 0,
	}
	for in, want := range cases {
		if got := ParseQuantityInput(in); got != want {
			t.Errorf("%q: expected %d, got %d", in, want, got)
		}
	}
}
