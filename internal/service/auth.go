package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-storefront/internal/catalog"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("all fields are required")
	ErrWeakPassword       = errors.New("password must be at least 6 characters long")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrSessionNotFound    = errors.New("session not found")
)

const minPasswordLength = 6

// Authenticator is the upstream login endpoint.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.User, error)
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}

// AuthService verifies credentials and issues API tokens. It holds no
// per-client state.
type AuthService struct {
	upstream  Authenticator
	slots     repository.SlotRepository
	jwtSecret []byte
	jwtExpiry time.Duration
	log       *slog.Logger
	now       func() time.Time
	newUserID func() int64
}

func NewAuthService(
	upstream Authenticator,
	slots repository.SlotRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		upstream:  upstream,
		slots:     slots,
		log:       log,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
		now:       time.Now,
		newUserID: func() int64 { return 10000 + rand.Int64N(90000) },
	}
}

// Login checks accounts registered here first, then the catalog's users.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	acc, err := s.account(ctx, username)
	if err != nil {
		return nil, err
	}
	if acc != nil {
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		u := acc.User
		u.Token = s.demoToken()
		return &u, nil
	}

	u, err := s.upstream.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	return u, nil
}

// Register creates a demo user. The catalog has no sign-up endpoint, so the
// account lives in the slot store.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	existing, err := s.account(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:        s.newUserID(),
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Image:     fmt.Sprintf("https://robohash.org/%s?set=set1&size=150x150", in.Username),
	}
	data, err := json.Marshal(model.Account{User: user, PasswordHash: string(hashed)})
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := s.slots.Set(ctx, repository.AccountKey(in.Username), data); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	user.Token = s.demoToken()
	return &user, nil
}

// IssueToken signs an API token whose subject is the user's slot key.
func (s *AuthService) IssueToken(u model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      u.Key(),
		"username": u.Username,
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *AuthService) account(ctx context.Context, username string) (*model.Account, error) {
	data, err := s.slots.Get(ctx, repository.AccountKey(username))
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	var acc model.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		s.log.Warn("discarding corrupt account", "username", username, "error", err)
		return nil, nil
	}
	return &acc, nil
}

func (s *AuthService) demoToken() string {
	return fmt.Sprintf("demo-token-%d", s.now().UnixMilli())
}

// AuthStore is one client's signed-in identity. Listeners run after the
// identity changes, outside the store's lock.
type AuthStore struct {
	mu           sync.Mutex
	svc          *AuthService
	slots        repository.SlotRepository
	log          *slog.Logger
	user         *model.User
	onUserChange []func(ctx context.Context, userKey string)
	onLogout     []func(ctx context.Context, userKey string)
}

func NewAuthStore(svc *AuthService, slots repository.SlotRepository, log *slog.Logger) *AuthStore {
	return &AuthStore{svc: svc, slots: slots, log: log}
}

func (s *AuthStore) OnUserChange(fn func(ctx context.Context, userKey string)) {
	s.mu.Lock()
	s.onUserChange = append(s.onUserChange, fn)
	s.mu.Unlock()
}

func (s *AuthStore) OnLogout(fn func(ctx context.Context, userKey string)) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

func (s *AuthStore) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// UserKey is the slot namespace of the current identity.
func (s *AuthStore) UserKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.GuestKey
	}
	return s.user.Key()
}

func (s *AuthStore) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.svc.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.SignIn(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthStore) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	u, err := s.svc.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.SignIn(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn persists u as the session record and switches to it.
func (s *AuthStore) SignIn(ctx context.Context, u model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.slots.Set(ctx, repository.SessionKey(u.Key()), data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.switchTo(ctx, &u)
	return nil
}

// Restore resumes the session saved for userKey.
func (s *AuthStore) Restore(ctx context.Context, userKey string) error {
	data, err := s.slots.Get(ctx, repository.SessionKey(userKey))
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("load session: %w", err)
	}
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil || u.Key() != userKey {
		s.log.Warn("discarding corrupt session", "user_key", userKey)
		return ErrSessionNotFound
	}
	s.switchTo(ctx, &u)
	return nil
}

// Logout forgets the session and signals the stores to wipe their data for
// the departing user and for guest.
func (s *AuthStore) Logout(ctx context.Context) {
	s.mu.Lock()
	key := model.GuestKey
	if s.user != nil {
		key = s.user.Key()
	}
	s.user = nil
	listeners := append([]func(context.Context, string){}, s.onLogout...)
	s.mu.Unlock()

	if key != model.GuestKey {
		if err := s.slots.Delete(ctx, repository.SessionKey(key)); err != nil {
			s.log.Error("delete session failed", "user_key", key, "error", err)
		}
	}
	for _, fn := range listeners {
		fn(ctx, key)
	}
}

func (s *AuthStore) switchTo(ctx context.Context, u *model.User) {
	s.mu.Lock()
	s.user = u
	listeners := append([]func(context.Context, string){}, s.onUserChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, u.Key())
	}
}
