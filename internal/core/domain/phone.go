package domain

import "strings"

const (
	PhonePrefix         = "+7"
	PhoneCompleteDigits = 11
)

// phoneGroups are the sizes of the area code, exchange and two trailing
// groups that follow the country code.
var phoneGroups = [...]int{3, 3, 2, 2}

type PhoneState struct {
	Digits     string `json:"-"`
	Display    string `json:"display"`
	IsComplete bool   `json:"is_complete"`
	HasError   bool   `json:"has_error"`
}

// OnlyDigits strips every non-digit character from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone masks raw input as +7(XXX) XXX-XX-XX. The first digit of the
// input is taken as the country code and replaced by the fixed prefix.
// Digits past the last group are dropped.
func FormatPhone(raw string) string {
	cleaned := OnlyDigits(raw)

	var b strings.Builder
	b.WriteString(PhonePrefix)
	if len(cleaned) < 2 {
		return b.String()
	}

	rest := cleaned[1:]
	for i, size := range phoneGroups {
		if rest == "" {
			break
		}
		n := min(size, len(rest))
		switch i {
		case 0:
			b.WriteString("(")
		case 1:
			b.WriteString(") ")
		default:
			b.WriteString("-")
		}
		b.WriteString(rest[:n])
		rest = rest[n:]
	}
	return b.String()
}

// NewPhoneState derives the full state from raw input. HasError is always
// false: only the checkout gate sets it.
func NewPhoneState(raw string) PhoneState {
	display := FormatPhone(raw)
	digits := OnlyDigits(display)
	return PhoneState{
		Digits:     digits,
		Display:    display,
		IsComplete: len(digits) == PhoneCompleteDigits,
	}
}
