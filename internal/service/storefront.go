package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

type StorefrontConfig struct {
	Slots         repository.SlotRepository
	Auth          *AuthService
	Events        OrderEvents
	OrderLatency  time.Duration
	CheckoutDelay time.Duration
	Log           *slog.Logger
}

// Storefront is the state of one client: who is signed in, their cart,
// wishlist, order history and the current checkout attempt. The stores
// follow the auth store, reloading on sign-in and wiping on logout.
type Storefront struct {
	Auth     *AuthStore
	Cart     *CartStore
	Wishlist *WishlistStore
	Orders   *OrderStore

	mu            sync.Mutex
	checkout      *Checkout
	checkoutDelay time.Duration
	now           func() time.Time
	log           *slog.Logger
}

func NewStorefront(ctx context.Context, cfg StorefrontConfig) *Storefront {
	sf := &Storefront{
		Auth:          NewAuthStore(cfg.Auth, cfg.Slots, cfg.Log),
		Cart:          NewCartStore(cfg.Slots, cfg.Log),
		Wishlist:      NewWishlistStore(cfg.Slots, cfg.Log),
		Orders:        NewOrderStore(cfg.Slots, cfg.Events, cfg.OrderLatency, cfg.Log),
		checkoutDelay: cfg.CheckoutDelay,
		now:           time.Now,
		log:           cfg.Log,
	}

	sf.Auth.OnUserChange(sf.bind)
	sf.Auth.OnLogout(func(ctx context.Context, userKey string) {
		sf.Cart.wipe(ctx, userKey)
		sf.Wishlist.wipe(ctx, userKey)
		sf.Orders.wipe(ctx, userKey)
		sf.mu.Lock()
		sf.checkout = nil
		sf.mu.Unlock()
	})

	sf.bind(ctx, model.GuestKey)
	return sf
}

func (sf *Storefront) bind(ctx context.Context, userKey string) {
	sf.Cart.Bind(ctx, userKey)
	sf.Wishlist.Bind(ctx, userKey)
	sf.Orders.Bind(ctx, userKey)
}

// StartCheckout begins a fresh attempt unless one is submitting payment.
func (sf *Storefront) StartCheckout() (*Checkout, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.checkout != nil && sf.checkout.Busy() {
		return nil, ErrCheckoutInProgress
	}
	sf.checkout = newCheckout(sf.Auth, sf.Cart, sf.Orders, sf.checkoutDelay, sf.now, sf.log)
	return sf.checkout, nil
}

func (sf *Storefront) busy() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.checkout != nil && sf.checkout.Busy()
}

// Checkout returns the current attempt, starting one if there is none.
func (sf *Storefront) Checkout() *Checkout {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.checkout == nil {
		sf.checkout = newCheckout(sf.Auth, sf.Cart, sf.Orders, sf.checkoutDelay, sf.now, sf.log)
	}
	return sf.checkout
}

// Registry hands out one Storefront per user key. Signed-in storefronts are
// restored from their saved session; guests share one.
type Registry struct {
	mu          sync.Mutex
	cfg         StorefrontConfig
	storefronts map[string]*registryEntry
	now         func() time.Time
}

type registryEntry struct {
	sf       *Storefront
	lastUsed time.Time
}

func NewRegistry(cfg StorefrontConfig) *Registry {
	return &Registry{cfg: cfg, storefronts: make(map[string]*registryEntry), now: time.Now}
}

func (r *Registry) lookup(userKey string) (*Storefront, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.storefronts[userKey]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.sf, true
}

// store registers sf under userKey unless another request got there first,
// in which case the existing storefront wins.
func (r *Registry) store(userKey string, sf *Storefront, replace bool) *Storefront {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.storefronts[userKey]; ok && !replace {
		e.lastUsed = r.now()
		return e.sf
	}
	r.storefronts[userKey] = &registryEntry{sf: sf, lastUsed: r.now()}
	return sf
}

// Get returns the storefront for userKey. A non-guest key without a saved
// session yields ErrSessionNotFound.
func (r *Registry) Get(ctx context.Context, userKey string) (*Storefront, error) {
	if sf, ok := r.lookup(userKey); ok {
		return sf, nil
	}
	sf := NewStorefront(ctx, r.cfg)
	if userKey != model.GuestKey {
		if err := sf.Auth.Restore(ctx, userKey); err != nil {
			return nil, err
		}
	}
	return r.store(userKey, sf, false), nil
}

// SignIn registers a storefront that has just signed in under its new key.
func (r *Registry) SignIn(ctx context.Context, u model.User) (*Storefront, error) {
	sf, ok := r.lookup(u.Key())
	if !ok {
		sf = NewStorefront(ctx, r.cfg)
	}
	if err := sf.Auth.SignIn(ctx, u); err != nil {
		return nil, err
	}
	return r.store(u.Key(), sf, true), nil
}

// Logout signs the user out and forgets their storefront. The guest
// storefront is reset as well since logout wipes guest data.
func (r *Registry) Logout(ctx context.Context, userKey string) error {
	sf, err := r.Get(ctx, userKey)
	if err != nil {
		return err
	}
	sf.Auth.Logout(ctx)

	r.mu.Lock()
	delete(r.storefronts, userKey)
	var guest *Storefront
	if e, ok := r.storefronts[model.GuestKey]; ok {
		guest = e.sf
	}
	r.mu.Unlock()
	if guest != nil && guest != sf {
		guest.bind(ctx, model.GuestKey)
	}
	return nil
}

// Prune forgets storefronts idle for longer than maxIdle and returns how many
// were dropped. Storefronts in the middle of a payment are kept.
func (r *Registry) Prune(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	dropped := 0
	for key, e := range r.storefronts {
		if e.lastUsed.After(cutoff) || e.sf.busy() {
			continue
		}
		delete(r.storefronts, key)
		dropped++
	}
	return dropped
}

// RunPruner calls Prune every interval until ctx is done.
func (r *Registry) RunPruner(ctx context.Context, maxIdle time.Duration) error {
	if maxIdle <= 0 {
		return nil
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				r.cfg.Log.Info("pruned idle storefronts", "count", n)
			}
		}
	}
}

func (r *Registry) Auth() *AuthService { return r.cfg.Auth }
