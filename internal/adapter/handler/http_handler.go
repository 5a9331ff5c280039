package handler

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/core/service"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "session_id"

	maxBodyBytes = 64 << 10
)

type HTTPHandler struct {
	sessions *service.SessionManager
	catalog  domain.Catalog
	reviews  []domain.Review
	limiter  *RateLimiter
	logger   *zap.Logger
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type lineView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type cartView struct {
	Lines []lineView `json:"lines"`
	Total string     `json:"total"`
}

type checkoutView struct {
	State               domain.SubmissionState `json:"state"`
	SubmitDisabled      bool                   `json:"submit_disabled"`
	ConfirmationVisible bool                   `json:"confirmation_visible"`
	Notice              string                 `json:"notice,omitempty"`
	Phone               domain.PhoneState      `json:"phone"`
}

type productView struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       string          `json:"price"`
	Quantity    int             `json:"quantity"`
	Control     service.Control `json:"control"`
}

type reviewView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type storefrontView struct {
	Products []productView `json:"products"`
	Reviews  []reviewView  `json:"reviews"`
	Cart     cartView      `json:"cart"`
	Checkout checkoutView  `json:"checkout"`
}

type quantityRequest struct {
	Quantity *int    `json:"quantity"`
	Input    *string `json:"input"`
}

type stepRequest struct {
	Delta int `json:"delta"`
}

type phoneRequest struct {
	Input string `json:"input"`
}

func NewHTTPHandler(sessions *service.SessionManager, catalog domain.Catalog, reviews []domain.Review, limiter *RateLimiter, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		sessions: sessions,
		catalog:  catalog,
		reviews:  reviews,
		limiter:  limiter,
		logger:   logger,
	}
}

// Register mounts the storefront routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/storefront", h.Storefront)
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.SetQuantity)
	mux.HandleFunc("POST /api/cart/items/{id}/step", h.StepQuantity)
	mux.HandleFunc("POST /api/phone", h.PhoneInput)
	mux.HandleFunc("GET /api/checkout", h.GetCheckout)
	mux.HandleFunc("POST /api/checkout", h.Submit)
	mux.HandleFunc("DELETE /api/checkout/confirmation", h.CancelConfirmation)
	mux.HandleFunc("DELETE /api/session", h.EndSession)
}

func (h *HTTPHandler) session(w http.ResponseWriter, r *http.Request) *service.Session {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(sessionHeader, id)
	return h.sessions.Get(r.Context(), id)
}

func (h *HTTPHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	snap := sess.Cart.Snapshot()

	products := make([]productView, 0, len(h.catalog))
	for _, p := range h.catalog {
		qty := service.QuantityOf(p.ID, snap)
		products = append(products, productView{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Price:       p.Price.String(),
			Quantity:    qty,
			Control:     service.ControlFor(qty),
		})
	}

	reviews := make([]reviewView, 0, len(h.reviews))
	for _, rv := range h.reviews {
		// review text comes from the API unsanitized
		reviews = append(reviews, reviewView{ID: rv.ID, Text: html.EscapeString(rv.Text)})
	}

	writeJSON(w, http.StatusOK, storefrontView{
		Products: products,
		Reviews:  reviews,
		Cart:     newCartView(snap),
		Checkout: newCheckoutView(sess, snap),
	})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	writeJSON(w, http.StatusOK, newCartView(sess.Cart.Snapshot()))
}

func (h *HTTPHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var quantity int
	switch {
	case req.Quantity != nil:
		quantity = max(*req.Quantity, 0)
	case req.Input != nil:
		quantity = service.ParseQuantityInput(*req.Input)
	default:
		writeError(w, http.StatusBadRequest, "validation_error", "quantity or input is required")
		return
	}

	sess := h.session(w, r)
	snap := sess.Cart.SetQuantity(r.Context(), productID, quantity)
	writeJSON(w, http.StatusOK, newCartView(snap))
}

func (h *HTTPHandler) StepQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r)
	if !ok {
		return
	}

	var req stepRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := h.session(w, r)
	snap := sess.Cart.Step(r.Context(), productID, req.Delta)
	writeJSON(w, http.StatusOK, newCartView(snap))
}

func (h *HTTPHandler) PhoneInput(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := h.session(w, r)
	writeJSON(w, http.StatusOK, sess.Phone.OnRawInput(req.Input))
}

func (h *HTTPHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	writeJSON(w, http.StatusOK, newCheckoutView(sess, sess.Cart.Snapshot()))
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if !h.limiter.Allow(sess.ID, time.Now()) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many checkout attempts")
		return
	}

	// the submit control is disabled for an empty cart
	if sess.Cart.Snapshot().IsEmpty() {
		writeError(w, http.StatusUnprocessableEntity, "cart_empty", "cart is empty")
		return
	}

	_, err := sess.Submit(r.Context())
	view := newCheckoutView(sess, sess.Cart.Snapshot())

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, service.ErrPhoneIncomplete):
		writeJSON(w, http.StatusUnprocessableEntity, view)
	case errors.Is(err, service.ErrSubmissionInProgress):
		writeJSON(w, http.StatusConflict, view)
	case errors.Is(err, service.ErrSessionClosed):
		writeError(w, http.StatusGone, "session_closed", err.Error())
	default:
		h.logger.Warn("checkout failed", zap.String("session_id", sess.ID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, view)
	}
}

func (h *HTTPHandler) CancelConfirmation(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if !sess.Checkout.CancelConfirmation() {
		writeError(w, http.StatusConflict, "no_confirmation", "no confirmation pending")
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutView(sess, sess.Cart.Snapshot()))
}

func (h *HTTPHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			id = c.Value
		}
	}
	if !h.sessions.Close(id) {
		writeError(w, http.StatusNotFound, "not_found", "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a size-capped JSON body into v and writes the error response
// when it cannot.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
	return false
}

func productIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid product id")
		return 0, false
	}
	return id, true
}

func newCartView(snap domain.CartSnapshot) cartView {
	lines := make([]lineView, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, lineView{
			ID:       l.ID,
			Title:    l.Title,
			Price:    l.Price.String(),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().String(),
		})
	}
	return cartView{Lines: lines, Total: snap.Total().String()}
}

func newCheckoutView(sess *service.Session, snap domain.CartSnapshot) checkoutView {
	view := checkoutView{
		State:               sess.Checkout.State(),
		SubmitDisabled:      sess.Checkout.SubmitDisabled(snap),
		ConfirmationVisible: sess.Checkout.ConfirmationVisible(),
		Phone:               sess.Phone.State(),
	}
	if notice := sess.Checkout.Notice(); notice != nil {
		view.Notice = notice.Error()
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
