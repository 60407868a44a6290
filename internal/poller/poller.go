// Package poller keeps a periodically refreshed snapshot of the bouquet
// catalog.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 5 * time.Minute

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateErrored State = "errored"
)

// Gateway is the part of the inventory gateway the poller drives.
type Gateway interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	UpdateAvailability(ctx context.Context, id string, available int) error
	ProcessOrder(ctx context.Context, lines []domain.CartLine) error
}

// Snapshot is what the storefront renders.
type Snapshot struct {
	State       State            `json:"state"`
	Products    []domain.Product `json:"products"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
	LastUpdated *time.Time       `json:"lastUpdated,omitempty"`
}

// Poller refreshes products on a fixed interval. Ticks do not wait for
// earlier fetches, so several may be in flight at once; the last one to
// resolve wins. Stop cancels the timer and every in-flight fetch, and
// results that arrive afterwards are dropped.
type Poller struct {
	gw       Gateway
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	snap     Snapshot
	resolved State
	inflight int
	started  bool
	stopped  bool
	done     chan struct{}
}

func New(gw Gateway, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	base, cancel := context.WithCancel(context.Background())
	return &Poller{
		gw:       gw,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		base:     base,
		cancel:   cancel,
		snap:     Snapshot{State: StateIdle},
		resolved: StateIdle,
	}
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start fetches immediately and then on every tick until Stop. Calling it
// more than once, or after Stop, does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.loop()
}

func (p *Poller) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	go p.fetch(p.base)
	for {
		select {
		case <-p.base.Done():
			return
		case <-ticker.C:
			go p.fetch(p.base)
		}
	}
}

// Stop cancels the timer and in-flight fetches. It returns once the timer
// loop has exited.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	done := p.done
	p.mu.Unlock()

	p.cancel()
	if done != nil {
		<-done
	}
}

// Refresh runs one fetch and waits for it. The fetch is also cancelled by
// Stop, in which case the result is discarded and a context error returned.
func (p *Poller) Refresh(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := context.AfterFunc(p.base, cancel)
	defer release()

	err := p.fetch(ctx)
	return p.Snapshot(), err
}

func (p *Poller) fetch(ctx context.Context) error {
	if !p.begin() {
		return context.Canceled
	}

	products, err := p.gw.FetchProducts(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	p.snap.Loading = p.inflight > 0

	if p.stopped || ctx.Err() != nil {
		if p.inflight == 0 && p.snap.State == StateLoading {
			p.snap.State = p.resolved
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return context.Canceled
	}

	if err != nil {
		p.logger.Error().Err(err).Msg("inventory refresh failed")
		p.resolved = StateErrored
		p.snap.State = StateErrored
		p.snap.Error = err.Error()
		return err
	}

	now := p.now()
	p.resolved = StateReady
	p.snap.State = StateReady
	p.snap.Products = products
	p.snap.Error = ""
	p.snap.LastUpdated = &now
	p.logger.Debug().Int("products", len(products)).Msg("inventory refreshed")
	return nil
}

func (p *Poller) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.inflight++
	p.snap.Loading = true
	p.snap.State = StateLoading
	return true
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.snap
	out.Products = make([]domain.Product, len(p.snap.Products))
	copy(out.Products, p.snap.Products)
	if p.snap.LastUpdated != nil {
		t := *p.snap.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// Lookup finds a bouquet in the current snapshot.
func (p *Poller) Lookup(id string) (domain.Product, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, prod := range p.snap.Products {
		if prod.ID == id {
			return prod, true
		}
	}
	return domain.Product{}, false
}

// UpdateAvailability writes through the gateway, then patches the local
// snapshot without waiting for the next poll.
func (p *Poller) UpdateAvailability(ctx context.Context, id string, available int) error {
	if err := p.gw.UpdateAvailability(ctx, id, available); err != nil {
		p.setError(err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.snap.Products {
		if p.snap.Products[i].ID == id {
			p.snap.Products[i].Available = available
		}
	}
	return nil
}

// ProcessOrder decrements inventory for the order and refreshes.
func (p *Poller) ProcessOrder(ctx context.Context, lines []domain.CartLine) error {
	if err := p.gw.ProcessOrder(ctx, lines); err != nil {
		p.setError(err)
		return err
	}
	_, err := p.Refresh(ctx)
	return err
}

func (p *Poller) setError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Error = err.Error()
}
