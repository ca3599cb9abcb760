package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/catalog"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var errBackend = errors.New("backend unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockAuthenticator struct {
	users     map[string]model.User
	passwords map[string]string
	err       error
}

func newMockAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{
		users: map[string]model.User{
			"emilys": {ID: 1, Username: "emilys", Email: "emily@x.dummyjson.com", FirstName: "Emily", LastName: "Johnson", Token: "upstream"},
			"michaelw": {ID: 2, Username: "michaelw", Email: "michael@x.dummyjson.com", FirstName: "Michael", LastName: "Williams", Token: "upstream"},
		},
		passwords: map[string]string{"emilys": "emilyspass", "michaelw": "michaelwpass"},
	}
}

func (m *mockAuthenticator) Login(_ context.Context, username, password string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.passwords[username] != password {
		return nil, catalog.ErrInvalidCredentials
	}
	u := m.users[username]
	return &u, nil
}

// flakySlots fails writes while failWrites is set.
type flakySlots struct {
	repository.SlotRepository
	mu         sync.Mutex
	failWrites bool
}

func (f *flakySlots) setFailing(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

func (f *flakySlots) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errBackend
	}
	return f.SlotRepository.Set(ctx, key, value)
}

func testStorefrontConfig(slots repository.SlotRepository) StorefrontConfig {
	log := discardLogger()
	return StorefrontConfig{
		Slots: slots,
		Auth:  NewAuthService(newMockAuthenticator(), slots, "test-secret", time.Hour, log),
		Log:   log,
	}
}

func testProduct(id string, price float64) model.Product {
	return model.Product{
		ID:      id,
		Name:    "Product " + id,
		Price:   decimal.NewFromFloat(price),
		Sizes:   []string{"M", "L"},
		Colors:  []string{"Black"},
		InStock: true,
	}
}

var (
	validShipping = model.ShippingAddress{
		FirstName: "Emily", LastName: "Johnson", Email: "emily@example.com",
		Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
	}
	validPayment = PaymentForm{
		CardNumber: "4111 1111 1111 1111", ExpiryDate: "12/99", CVV: "123", NameOnCard: "Emily Johnson",
	}
)
