package domain

type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionConfirming SubmissionState = "confirming"
)

type OrderLine struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// OrderPayload is the body of POST /order. Titles and prices are left out;
// the server re-prices the order.
type OrderPayload struct {
	Phone string      `json:"phone" validate:"len=11,numeric"`
	Cart  []OrderLine `json:"cart" validate:"dive"`
}

func NewOrderPayload(phone PhoneState, snapshot CartSnapshot) OrderPayload {
	lines := make([]OrderLine, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		lines = append(lines, OrderLine{ID: line.ID, Quantity: line.Quantity})
	}
	return OrderPayload{
		Phone: phone.Digits,
		Cart:  lines,
	}
}
