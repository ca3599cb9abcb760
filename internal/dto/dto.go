package dto

import (
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/state"
)

// --- Auth ---

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

func (r RegisterRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		FirstName: r.FirstName, LastName: r.LastName, Email: r.Email,
		Username: r.Username, Password: r.Password,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// --- Product ---

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Category string `form:"category"`
}

type ProductListResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// UpdateCartItemRequest allows zero and below, which removes the line.
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	model.Cart
	Quote state.Quote `json:"quote"`
}

func NewCartResponse(c model.Cart) CartResponse {
	return CartResponse{Cart: c, Quote: state.QuoteCart(c)}
}

// --- Wishlist ---

type WishlistItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// --- Order ---

type OrderListResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int           `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// --- Checkout ---

type ShippingRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

func (r ShippingRequest) Address() model.ShippingAddress {
	return model.ShippingAddress(r)
}

type PaymentRequest struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
	NameOnCard string `json:"name_on_card"`
}

func (r PaymentRequest) Form() service.PaymentForm {
	return service.PaymentForm{
		CardNumber: r.CardNumber, ExpiryDate: r.ExpiryDate, CVV: r.CVV, NameOnCard: r.NameOnCard,
	}
}

type CheckoutResponse struct {
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Step        int               `json:"step"`
	StepName    string            `json:"step_name"`
	OrderID     string            `json:"order_id,omitempty"`
}

func NewCheckoutResponse(r service.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		Success: r.Success, Error: r.Error, FieldErrors: r.FieldErrors,
		Step: int(r.Step), StepName: r.Step.String(), OrderID: r.OrderID,
	}
}

type CheckoutStateResponse struct {
	Step     int                   `json:"step"`
	StepName string                `json:"step_name"`
	Shipping model.ShippingAddress `json:"shipping"`
	OrderID  string                `json:"order_id,omitempty"`
}

func NewCheckoutStateResponse(v service.CheckoutView) CheckoutStateResponse {
	return CheckoutStateResponse{Step: int(v.Step), StepName: v.Step.String(), Shipping: v.Shipping, OrderID: v.OrderID}
}
