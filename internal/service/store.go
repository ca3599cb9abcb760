package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/state"
)

// ErrStoreRebound is returned for a write that was started for one user
// after the store has switched users or reloaded its slot.
var ErrStoreRebound = errors.New("store was rebound while a write was in flight")

// proposal is a pending action together with the binding it was made under.
type proposal struct {
	ticket  state.Ticket
	gen     uint64
	userKey string
}

// slotStore binds a reducer to one user's persisted slot. All transitions go
// through opt so the speculative and confirmed values share a reducer and a
// single pending queue.
type slotStore[S, A any] struct {
	mu      sync.Mutex
	name    string
	slots   repository.SlotRepository
	slotKey func(userKey string) string
	empty   func() S
	load    func(S) A
	reduce  func(S, A) S
	log     *slog.Logger

	userKey string
	gen     uint64
	opt     *state.Optimistic[S, A]
}

func newSlotStore[S, A any](
	name string,
	slots repository.SlotRepository,
	slotKey func(string) string,
	empty func() S,
	load func(S) A,
	reduce func(S, A) S,
	log *slog.Logger,
) *slotStore[S, A] {
	return &slotStore[S, A]{
		name:    name,
		slots:   slots,
		slotKey: slotKey,
		empty:   empty,
		load:    load,
		reduce:  reduce,
		log:     log,
		opt:     state.NewOptimistic(empty(), reduce),
	}
}

// bind switches the store to userKey and reloads its slot. Missing or corrupt
// data yields the empty value.
func (s *slotStore[S, A]) bind(ctx context.Context, userKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userKey = userKey
	s.gen++
	s.opt.Reset(s.read(ctx, userKey))
}

func (s *slotStore[S, A]) read(ctx context.Context, userKey string) S {
	key := s.slotKey(userKey)
	data, err := s.slots.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSlotNotFound) {
			s.log.Warn("load slot failed", "store", s.name, "key", key, "error", err)
		}
		return s.empty()
	}
	var snapshot S
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.log.Warn("discarding corrupt slot", "store", s.name, "key", key, "error", err)
		return s.empty()
	}
	return s.reduce(s.empty(), s.load(snapshot))
}

func (s *slotStore[S, A]) write(ctx context.Context, userKey string, value S) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}
	if err := s.slots.Set(ctx, s.slotKey(userKey), data); err != nil {
		return fmt.Errorf("save %s: %w", s.name, err)
	}
	return nil
}

// dispatch applies a and persists the result. A failed write is logged and
// the in-memory value kept, the way a full local storage would behave.
func (s *slotStore[S, A]) dispatch(ctx context.Context, a A) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, a)
}

// dispatchAs is dispatch for a caller acting on behalf of userKey. It fails
// with ErrStoreRebound when the store is bound to someone else.
func (s *slotStore[S, A]) dispatchAs(ctx context.Context, userKey string, a A) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userKey != userKey {
		var zero S
		return zero, ErrStoreRebound
	}
	return s.apply(ctx, a), nil
}

func (s *slotStore[S, A]) apply(ctx context.Context, a A) S {
	next := s.opt.Apply(a)
	if err := s.write(ctx, s.userKey, next); err != nil {
		s.log.Error("persist failed", "store", s.name, "user_key", s.userKey, "error", err)
	}
	return next
}

// commit writes the value settling p would produce and settles p with the
// outcome of that write. A proposal made before the last bind is dropped.
func (s *slotStore[S, A]) commit(ctx context.Context, p proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.gen != s.gen {
		return ErrStoreRebound
	}
	err := s.write(ctx, p.userKey, s.opt.Preview(p.ticket))
	s.opt.Settle(p.ticket, err == nil)
	return err
}

// propose queues a on behalf of userKey, which must be the bound user.
func (s *slotStore[S, A]) propose(userKey string, a A) (proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userKey != userKey {
		return proposal{}, ErrStoreRebound
	}
	return s.proposeLocked(a), nil
}

// proposeChecked proposes a only if check accepts the current speculative
// value, both under one lock.
func (s *slotStore[S, A]) proposeChecked(check func(S) error, a A) (proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := check(s.opt.Speculative()); err != nil {
		return proposal{}, err
	}
	return s.proposeLocked(a), nil
}

func (s *slotStore[S, A]) proposeLocked(a A) proposal {
	return proposal{ticket: s.opt.Propose(a), gen: s.gen, userKey: s.userKey}
}

func (s *slotStore[S, A]) rollback(p proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.gen == s.gen {
		s.opt.Settle(p.ticket, false)
	}
}

func (s *slotStore[S, A]) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Pending()
}

func (s *slotStore[S, A]) confirmed() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Confirmed()
}

func (s *slotStore[S, A]) speculative() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.Speculative()
}

func (s *slotStore[S, A]) currentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userKey
}

// wipe deletes the slots of every given user and resets to empty under
// rebindTo.
func (s *slotStore[S, A]) wipe(ctx context.Context, rebindTo string, userKeys ...string) {
	keys := make([]string, 0, len(userKeys))
	for _, k := range userKeys {
		keys = append(keys, s.slotKey(k))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.slots.Delete(ctx, keys...); err != nil {
		s.log.Error("wipe slots failed", "store", s.name, "error", err)
	}
	s.userKey = rebindTo
	s.gen++
	s.opt.Reset(s.empty())
}
