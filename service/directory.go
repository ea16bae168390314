package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/amarkiccha/lead/model"
)

const backgroundRefreshTimeout = 30 * time.Second

// Directory keeps the most recently resolved lead list.
//
// Refreshes may overlap and are never cancelled. Each one takes a ticket
// before calling the gateway, and its result replaces the snapshot only if
// no later ticket has already been applied.
type Directory struct {
	gateway Gateway

	mu        sync.RWMutex
	issued    uint64
	applied   uint64
	leads     []model.Lead
	fetchedAt time.Time
}

// Snapshot is a copy of the directory state.
type Snapshot struct {
	Leads      []model.Lead
	Generation uint64
	FetchedAt  time.Time
}

func NewDirectory(gateway Gateway) *Directory {
	return &Directory{gateway: gateway}
}

// Refresh fetches the lead list and returns it to the caller. The result is
// also stored unless a newer refresh has already landed.
func (d *Directory) Refresh(ctx context.Context) ([]model.Lead, error) {
	ticket := d.begin()

	leads, err := d.gateway.ListLeads(ctx)
	if err != nil {
		return nil, err
	}

	if !d.apply(ticket, leads) {
		slog.Debug("stale lead refresh discarded", "ticket", ticket)
	}
	return leads, nil
}

// RefreshAfter schedules a background refresh, giving the sheet time to
// settle after a write. The returned function cancels it if it has not fired.
func (d *Directory) RefreshAfter(delay time.Duration) (stop func() bool) {
	timer := time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()
		if _, err := d.Refresh(ctx); err != nil {
			slog.Warn("background lead refresh failed", "error", err)
		}
	})
	return timer.Stop
}

// Snapshot returns the last applied list. Generation is 0 until the first
// successful refresh.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Snapshot{Leads: slices.Clone(d.leads), Generation: d.applied, FetchedAt: d.fetchedAt}
}

// Current returns the snapshot, refreshing first if nothing has been loaded yet.
func (d *Directory) Current(ctx context.Context) (Snapshot, error) {
	if snap := d.Snapshot(); snap.Generation > 0 {
		return snap, nil
	}
	if _, err := d.Refresh(ctx); err != nil {
		return Snapshot{}, err
	}
	return d.Snapshot(), nil
}

func (d *Directory) begin() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issued++
	return d.issued
}

func (d *Directory) apply(ticket uint64, leads []model.Lead) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ticket <= d.applied {
		return false
	}
	d.applied = ticket
	d.leads = slices.Clone(leads)
	d.fetchedAt = time.Now()
	return true
}
