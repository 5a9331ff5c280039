package service

import (
	"sync"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

// PhoneInput tracks the masked phone field of one checkout form.
type PhoneInput struct {
	mu    sync.Mutex
	state domain.PhoneState
}

func NewPhoneInput() *PhoneInput {
	return &PhoneInput{}
}

// OnRawInput reformats the field from raw keystroke text and clears any error.
func (p *PhoneInput) OnRawInput(text string) domain.PhoneState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = domain.NewPhoneState(text)
	return p.state
}

// MarkError flags the field as failing the checkout gate.
func (p *PhoneInput) MarkError() domain.PhoneState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.HasError = true
	return p.state
}

// Reset returns the field to its untouched state: empty digits and display.
// This is deliberately not NewPhoneState(""), which renders the bare prefix.
func (p *PhoneInput) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = domain.PhoneState{}
}

func (p *PhoneInput) State() domain.PhoneState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
