package ratelimit

import (
	"context"
	"sync"

	errs "icpscout/pkg/errors"
)

// Budget tracks the hard per-run ceiling on paid calls to the scraping
// backend. Unlike the sliding window it never waits: once the budget is
// spent every further Spend fails immediately.
type Budget struct {
	total int
	used  int
	mu    sync.Mutex
}

// NewBudget creates a budget allowing total units of spend for the run
func NewBudget(total int) *Budget {
	return &Budget{total: total}
}

// Spend debits weight units from the budget. It either debits the full
// weight or nothing.
func (b *Budget) Spend(weight int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used+weight > b.total {
		return errs.ErrBudgetExhausted
	}
	b.used += weight
	return nil
}

func (b *Budget) refund(weight int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.used -= weight
	if b.used < 0 {
		b.used = 0
	}
}

// Remaining returns how many units of spend are left
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.total - b.used
}

// Used returns how many units have been spent so far
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.used
}

// Exhausted reports whether no spend remains
func (b *Budget) Exhausted() bool {
	return b.Remaining() <= 0
}

// Gate combines the sliding-window limiter with the per-run budget. The
// budget is checked before waiting on the window, so a caller with no
// budget left fails fast instead of queueing.
type Gate struct {
	limiter Limiter
	budget  *Budget
}

// NewGate creates a gate over the given limiter and budget
func NewGate(limiter Limiter, budget *Budget) *Gate {
	return &Gate{limiter: limiter, budget: budget}
}

// Acquire admits one paid call of the given weight. On success the weight
// has been debited from the budget and recorded in the rate window. If the
// wait is cancelled the debit is returned, so Used reflects calls actually
// admitted.
func (g *Gate) Acquire(ctx context.Context, weight int) error {
	if err := g.budget.Spend(weight); err != nil {
		return err
	}
	if err := g.limiter.Acquire(ctx, weight); err != nil {
		g.budget.refund(weight)
		return err
	}
	return nil
}

// Remaining returns the remaining budget
func (g *Gate) Remaining() int {
	return g.budget.Remaining()
}

// Used returns the budget spent so far
func (g *Gate) Used() int {
	return g.budget.Used()
}

// Exhausted reports whether the budget is spent
func (g *Gate) Exhausted() bool {
	return g.budget.Exhausted()
}
