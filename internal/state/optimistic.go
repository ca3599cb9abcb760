package state

// Ticket identifies a proposed action until it is settled.
type Ticket uint64

type pendingAction[A any] struct {
	ticket  Ticket
	action  A
	settled bool
	ok      bool
}

// Optimistic pairs a confirmed value with the actions proposed on top of it.
// The speculative value is never stored: it is recomputed by replaying the
// pending actions through the same reducer, in the order they were proposed.
// Not safe for concurrent use; callers hold their own lock.
type Optimistic[S, A any] struct {
	reduce    func(S, A) S
	confirmed S
	pending   []pendingAction[A]
	next      Ticket
}

func NewOptimistic[S, A any](initial S, reduce func(S, A) S) *Optimistic[S, A] {
	return &Optimistic[S, A]{reduce: reduce, confirmed: initial}
}

func (o *Optimistic[S, A]) Confirmed() S { return o.confirmed }

func (o *Optimistic[S, A]) Speculative() S {
	s := o.confirmed
	for _, p := range o.pending {
		if p.settled && !p.ok {
			continue
		}
		s = o.reduce(s, p.action)
	}
	return s
}

// Pending reports how many actions are waiting to be settled.
func (o *Optimistic[S, A]) Pending() int { return len(o.pending) }

func (o *Optimistic[S, A]) Propose(a A) Ticket {
	o.next++
	o.pending = append(o.pending, pendingAction[A]{ticket: o.next, action: a})
	return o.next
}

// Settle marks a proposed action as committed (ok) or rolled back. Settled
// actions are folded into the confirmed value strictly in proposal order, so
// an action settled early waits for its predecessors.
func (o *Optimistic[S, A]) Settle(t Ticket, ok bool) {
	for i := range o.pending {
		if o.pending[i].ticket == t {
			o.pending[i].settled = true
			o.pending[i].ok = ok
			break
		}
	}
	for len(o.pending) > 0 && o.pending[0].settled {
		head := o.pending[0]
		o.pending = o.pending[1:]
		if head.ok {
			o.confirmed = o.reduce(o.confirmed, head.action)
		}
	}
}

// Preview is the value that settling t successfully would make durable: the
// confirmed value with every committed pending action and t itself replayed,
// skipping actions that are still in flight.
func (o *Optimistic[S, A]) Preview(t Ticket) S {
	s := o.confirmed
	for _, p := range o.pending {
		if p.ticket == t || (p.settled && p.ok) {
			s = o.reduce(s, p.action)
		}
	}
	return s
}

// Apply proposes and commits in one step.
func (o *Optimistic[S, A]) Apply(a A) S {
	o.Settle(o.Propose(a), true)
	return o.confirmed
}

// Reset drops every pending action and replaces the confirmed value.
func (o *Optimistic[S, A]) Reset(s S) {
	o.confirmed = s
	o.pending = nil
}
