package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/metrics"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

const (
	DefaultConfirmationDelay = 5 * time.Second

	clearTimeout = 5 * time.Second
)

var (
	ErrPhoneIncomplete       = errors.New("phone number is incomplete")
	ErrSubmissionInProgress  = errors.New("submission already in progress")
	ErrOrderSubmissionFailed = errors.New("order submission failed")
	ErrSessionClosed         = errors.New("session closed")
)

type cartClearer interface {
	Clear(ctx context.Context)
}

// CheckoutSubmitter drives one checkout form through
// idle -> submitting -> confirming -> idle. Only one submission is in flight
// at a time; a second Submit is rejected, never queued.
type CheckoutSubmitter struct {
	mu        sync.Mutex
	state     domain.SubmissionState
	notice    error
	closed    bool
	stopTimer func() bool
	// window identifies the current confirmation; a timer callback from an
	// earlier window is ignored.
	window uint64

	sessionCtx    context.Context
	cancelSession context.CancelFunc

	gateway   port.OrderGateway
	cart      cartClearer
	phone     *PhoneInput
	scheduler Scheduler
	delay     time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewCheckoutSubmitter(gateway port.OrderGateway, cart cartClearer, phone *PhoneInput, scheduler Scheduler, delay time.Duration, logger *zap.Logger, m *metrics.Metrics) *CheckoutSubmitter {
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	if delay <= 0 {
		delay = DefaultConfirmationDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CheckoutSubmitter{
		state:         domain.SubmissionIdle,
		sessionCtx:    ctx,
		cancelSession: cancel,
		gateway:       gateway,
		cart:          cart,
		phone:         phone,
		scheduler:     scheduler,
		delay:         delay,
		logger:        logger,
		metrics:       m,
	}
}

// Submit sends the order for the given phone and cart. An incomplete phone
// flags the input and makes no network call. A failed call returns to idle
// with the cart and phone untouched; success enters the confirmation window,
// after which the cart is cleared and the phone reset.
func (s *CheckoutSubmitter) Submit(ctx context.Context, phone domain.PhoneState, snapshot domain.CartSnapshot) (domain.SubmissionState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SubmissionIdle, ErrSessionClosed
	}
	if s.state != domain.SubmissionIdle {
		state := s.state
		s.mu.Unlock()
		s.metrics.Checkout("rejected")
		return state, ErrSubmissionInProgress
	}
	s.notice = nil
	if !phone.IsComplete {
		s.phone.MarkError()
		s.mu.Unlock()
		s.metrics.Checkout("phone_incomplete")
		return domain.SubmissionIdle, ErrPhoneIncomplete
	}

	payload := domain.NewOrderPayload(phone, snapshot)
	if err := validate.Struct(payload); err != nil {
		s.notice = fmt.Errorf("%w: invalid payload: %w", ErrOrderSubmissionFailed, err)
		s.mu.Unlock()
		s.metrics.Checkout("failed")
		return domain.SubmissionIdle, s.notice
	}
	s.state = domain.SubmissionSubmitting
	s.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.sessionCtx, cancel)
	defer stop()

	err := s.gateway.SubmitOrder(reqCtx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = domain.SubmissionIdle
		s.notice = fmt.Errorf("%w: %w", ErrOrderSubmissionFailed, err)
		s.logger.Error("order submission failed", zap.Int("lines", len(payload.Cart)), zap.Error(err))
		s.metrics.Checkout("failed")
		return s.state, s.notice
	}

	s.metrics.Checkout("success")
	s.logger.Info("order submitted", zap.Int("lines", len(payload.Cart)))
	if s.closed {
		s.completeLocked()
		return s.state, nil
	}
	s.state = domain.SubmissionConfirming
	s.window++
	window := s.window
	s.stopTimer = s.scheduler.AfterFunc(s.delay, func() { s.finishConfirmation(window) })
	return s.state, nil
}

func (s *CheckoutSubmitter) finishConfirmation(window uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SubmissionConfirming || s.window != window {
		return
	}
	s.completeLocked()
}

func (s *CheckoutSubmitter) completeLocked() {
	s.stopTimer = nil
	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	defer cancel()
	s.cart.Clear(ctx)
	s.phone.Reset()
	s.state = domain.SubmissionIdle
	s.logger.Debug("confirmation window closed, cart cleared")
}

// CancelConfirmation stops a pending confirmation timer and returns to idle
// without clearing the cart. It reports whether a confirmation was pending.
func (s *CheckoutSubmitter) CancelConfirmation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SubmissionConfirming {
		return false
	}
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.state = domain.SubmissionIdle
	return true
}

// Close ends the session: an in-flight request is cancelled and a pending
// confirmation completes immediately, since the order was already accepted.
func (s *CheckoutSubmitter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelSession()
	if s.state == domain.SubmissionConfirming {
		if s.stopTimer != nil {
			s.stopTimer()
		}
		s.completeLocked()
	}
}

func (s *CheckoutSubmitter) State() domain.SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Notice is the failure shown to the shopper after the last attempt, if any.
func (s *CheckoutSubmitter) Notice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

func (s *CheckoutSubmitter) ConfirmationVisible() bool {
	return s.State() == domain.SubmissionConfirming
}

// SubmitDisabled reports whether the submit control must be disabled.
func (s *CheckoutSubmitter) SubmitDisabled(snapshot domain.CartSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.state != domain.SubmissionIdle || snapshot.IsEmpty()
}
