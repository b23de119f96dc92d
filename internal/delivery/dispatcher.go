package delivery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/terra-clan/cyber-assessment/internal/models"
)

// Pending is a delivery that may not have settled yet
type Pending struct {
	done    chan struct{}
	mu      sync.RWMutex
	outcome Outcome
}

func newPending() *Pending {
	return &Pending{
		done:    make(chan struct{}),
		outcome: Outcome{Status: StatusPending},
	}
}

// Settled returns a Pending that is already settled with o
func Settled(o Outcome) *Pending {
	p := newPending()
	p.settle(o)
	return p
}

func (p *Pending) settle(o Outcome) {
	p.mu.Lock()
	p.outcome = o
	p.mu.Unlock()
	close(p.done)
}

// Done is closed once the delivery has settled
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the current outcome; StatusPending until settled
func (p *Pending) Outcome() Outcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.outcome
}

// Wait blocks until the delivery settles or ctx ends
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.Outcome(), nil
	case <-ctx.Done():
		return p.Outcome(), ctx.Err()
	}
}

// Dispatcher runs deliveries in the background so callers never wait on
// the transport
type Dispatcher struct {
	deliverer Deliverer
	ctx       context.Context
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher; ctx scopes every dispatched delivery
func NewDispatcher(ctx context.Context, deliverer Deliverer) *Dispatcher {
	return &Dispatcher{
		deliverer: deliverer,
		ctx:       ctx,
	}
}

// Dispatch starts delivering rep and returns immediately
func (d *Dispatcher) Dispatch(rep models.Report) *Pending {
	p := newPending()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		outcome := d.deliverer.Deliver(d.ctx, rep)
		p.settle(outcome)

		slog.Debug("delivery settled", "status", outcome.Status, "reason", outcome.Reason)
	}()

	return p
}

// Wait blocks until all in-flight deliveries settle or ctx ends
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
