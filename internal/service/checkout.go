package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flicky/go-storefront/internal/model"
)

var (
	ErrCheckoutInProgress = errors.New("checkout is already being processed")
	ErrCheckoutStep       = errors.New("checkout is not at this step")
	ErrNotSignedIn        = errors.New("sign in to check out")
	ErrEmptyCart          = errors.New("cart is empty")
)

type CheckoutStep int

const (
	StepShipping CheckoutStep = iota + 1
	StepPayment
	StepComplete
)

func (s CheckoutStep) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepComplete:
		return "complete"
	}
	return "unknown"
}

type PaymentForm struct {
	CardNumber string
	ExpiryDate string
	CVV        string
	NameOnCard string
}

// CheckoutResult reports a step submission. A failed validation keeps the
// attempt on Step and names the offending fields.
type CheckoutResult struct {
	Success     bool
	Error       string
	FieldErrors map[string]string
	Step        CheckoutStep
	OrderID     string
}

type CheckoutView struct {
	Step     CheckoutStep
	Shipping model.ShippingAddress
	OrderID  string
}

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// Checkout is one attempt at the shipping, payment, confirmation flow. It is
// held in memory only.
type Checkout struct {
	mu         sync.Mutex
	step       CheckoutStep
	shipping   model.ShippingAddress
	orderID    string
	submitting bool

	auth   *AuthStore
	cart   *CartStore
	orders *OrderStore
	delay  time.Duration
	now    func() time.Time
	log    *slog.Logger
}

func newCheckout(auth *AuthStore, cart *CartStore, orders *OrderStore, delay time.Duration, now func() time.Time, log *slog.Logger) *Checkout {
	return &Checkout{step: StepShipping, auth: auth, cart: cart, orders: orders, delay: delay, now: now, log: log}
}

func (c *Checkout) View() CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CheckoutView{Step: c.step, Shipping: c.shipping, OrderID: c.orderID}
}

func (c *Checkout) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

func (c *Checkout) SubmitShipping(form model.ShippingAddress) (CheckoutResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return CheckoutResult{}, ErrCheckoutInProgress
	}
	if c.step == StepComplete {
		return c.completed(), nil
	}

	if res, ok := validateShipping(form); !ok {
		return res, nil
	}
	c.shipping = form
	c.step = StepPayment
	return CheckoutResult{Success: true, Step: StepPayment}, nil
}

// Back returns from payment to shipping, keeping the entered address.
func (c *Checkout) Back() (CheckoutResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return CheckoutResult{}, ErrCheckoutInProgress
	}
	if c.step != StepPayment {
		return CheckoutResult{}, ErrCheckoutStep
	}
	c.step = StepShipping
	return CheckoutResult{Success: true, Step: StepShipping}, nil
}

// SubmitPayment validates the card, places the order and clears the cart.
// It runs at most once per attempt; once complete it keeps returning the
// same order.
func (c *Checkout) SubmitPayment(ctx context.Context, form PaymentForm) (CheckoutResult, error) {
	c.mu.Lock()
	switch {
	case c.submitting:
		c.mu.Unlock()
		return CheckoutResult{}, ErrCheckoutInProgress
	case c.step == StepComplete:
		defer c.mu.Unlock()
		return c.completed(), nil
	case c.step != StepPayment:
		c.mu.Unlock()
		return CheckoutResult{}, ErrCheckoutStep
	}

	if res, ok := validatePayment(form, c.now()); !ok {
		c.mu.Unlock()
		return res, nil
	}
	user, signedIn := c.auth.User()
	if !signedIn {
		c.mu.Unlock()
		return CheckoutResult{}, ErrNotSignedIn
	}
	cart := c.cart.Cart()
	if len(cart.Items) == 0 {
		c.mu.Unlock()
		return CheckoutResult{}, ErrEmptyCart
	}
	c.submitting = true
	shipping := c.shipping
	c.mu.Unlock()

	orderID, err := c.place(ctx, user, cart, shipping, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return CheckoutResult{
			Error: "Payment processing failed. Please try again.",
			Step:  StepPayment,
		}, err
	}
	c.orderID = orderID
	c.step = StepComplete
	return c.completed(), nil
}

func (c *Checkout) place(ctx context.Context, user model.User, cart model.Cart, shipping model.ShippingAddress, form PaymentForm) (string, error) {
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("process payment: %w", ctx.Err())
		case <-time.After(c.delay):
		}
	}

	orderID, err := c.orders.CreateOrder(ctx, CreateOrderInput{
		UserID:          user.Key(),
		Items:           cart.Items,
		Total:           cart.Total,
		Status:          model.OrderStatusProcessing,
		ShippingAddress: shipping,
		PaymentMethod:   maskPayment(form),
	})
	if err != nil {
		return "", err
	}
	if err := c.cart.clearFor(ctx, user.Key()); err != nil {
		c.log.Warn("cart not cleared after order", "order_id", orderID, "user_key", user.Key(), "error", err)
	}
	return orderID, nil
}

func (c *Checkout) completed() CheckoutResult {
	return CheckoutResult{Success: true, Step: StepComplete, OrderID: c.orderID}
}

func validateShipping(f model.ShippingAddress) (CheckoutResult, bool) {
	required := []struct{ field, value string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"address", f.Address},
		{"city", f.City},
		{"state", f.State},
		{"zip_code", f.ZipCode},
	}
	missing := map[string]string{}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing[r.field] = "required"
		}
	}
	if len(missing) > 0 {
		return invalid(StepShipping, "Please fill in all required fields", missing), false
	}
	if !strings.Contains(f.Email, "@") {
		return invalid(StepShipping, "Please enter a valid email address", map[string]string{"email": "invalid"}), false
	}
	return CheckoutResult{}, true
}

func validatePayment(f PaymentForm, now time.Time) (CheckoutResult, bool) {
	required := []struct{ field, value string }{
		{"card_number", f.CardNumber},
		{"expiry_date", f.ExpiryDate},
		{"cvv", f.CVV},
		{"name_on_card", f.NameOnCard},
	}
	missing := map[string]string{}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing[r.field] = "required"
		}
	}
	if len(missing) > 0 {
		return invalid(StepPayment, "Please fill in all required payment fields", missing), false
	}

	card := stripSpaces(f.CardNumber)
	if len(card) < 13 || len(card) > 19 {
		return invalid(StepPayment, "Please enter a valid card number (13-19 digits)", map[string]string{"card_number": "length"}), false
	}
	if !allDigits(card) {
		return invalid(StepPayment, "Card number should contain only digits", map[string]string{"card_number": "digits"}), false
	}
	if len(f.CVV) < 3 || len(f.CVV) > 4 {
		return invalid(StepPayment, "Please enter a valid CVV (3-4 digits)", map[string]string{"cvv": "length"}), false
	}
	if !expiryPattern.MatchString(f.ExpiryDate) {
		return invalid(StepPayment, "Please enter expiry date in MM/YY format", map[string]string{"expiry_date": "format"}), false
	}
	month, _ := strconv.Atoi(f.ExpiryDate[:2])
	year, _ := strconv.Atoi(f.ExpiryDate[3:])
	if month < 1 || month > 12 {
		return invalid(StepPayment, "Please enter a valid month (01-12)", map[string]string{"expiry_date": "month"}), false
	}
	currentYear, currentMonth := now.Year()%100, int(now.Month())
	if year < currentYear || (year == currentYear && month < currentMonth) {
		return invalid(StepPayment, "Card has expired", map[string]string{"expiry_date": "expired"}), false
	}
	return CheckoutResult{}, true
}

func invalid(step CheckoutStep, msg string, fields map[string]string) CheckoutResult {
	return CheckoutResult{Error: msg, FieldErrors: fields, Step: step}
}

// maskPayment keeps only what an order may store about the card.
func maskPayment(f PaymentForm) model.PaymentMethod {
	card := stripSpaces(f.CardNumber)
	return model.PaymentMethod{
		Type:       "card",
		Last4:      card[len(card)-4:],
		ExpiryDate: f.ExpiryDate,
		NameOnCard: f.NameOnCard,
	}
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
