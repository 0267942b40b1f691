// Package refresh keeps the kitchen projections fresh: one immediate fetch
// when a view is shown, a silent background fetch every RefreshInterval,
// and manual refreshes on request.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kitchen_console/internal/clock"
	"kitchen_console/internal/kitchen"
)

// RefreshInterval is the fixed background cadence.
const RefreshInterval = 30 * time.Second

type ViewMode string

const (
	ViewFlat    ViewMode = "flat"
	ViewGrouped ViewMode = "grouped"
)

// ParseViewMode accepts "flat" or "grouped".
func ParseViewMode(raw string) (ViewMode, error) {
	switch ViewMode(raw) {
	case ViewFlat, ViewGrouped:
		return ViewMode(raw), nil
	}
	return "", fmt.Errorf("unknown view mode %q", raw)
}

// Toggle returns the other view.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewFlat {
		return ViewGrouped
	}
	return ViewFlat
}

// Source is the read side of the kitchen backend.
type Source interface {
	FetchPendingItems(ctx context.Context) ([]kitchen.PendingItem, error)
	FetchReceipts(ctx context.Context) ([]kitchen.KitchenReceipt, error)
}

// Notifier surfaces errors to the person at the screen.
type Notifier interface {
	NotifyError(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) NotifyError(err error) { f(err) }

// Snapshot is what the display renders. Flat and Grouped hold the last
// successful fetch of each view; they are replaced wholesale, never patched.
type Snapshot struct {
	View        ViewMode
	Flat        []kitchen.PendingItem
	Grouped     []kitchen.KitchenReceipt
	Loading     bool
	RefreshedAt time.Time
}

type Options struct {
	Clock    clock.Clock
	Logger   *slog.Logger
	Notifier Notifier
	// OnChange is called after every state change, outside the lock.
	OnChange func()
}

// Controller owns the background refresh for whichever view is active.
// Fetches are not sequenced: a slow fetch finishing after a newer one
// overwrites it, and the next tick corrects that.
type Controller struct {
	source   Source
	clock    clock.Clock
	logger   *slog.Logger
	notifier Notifier
	onChange func()

	mu             sync.Mutex
	ctx            context.Context
	mounted        bool
	view           ViewMode
	task           *ScheduledTask
	flat           []kitchen.PendingItem
	grouped        []kitchen.KitchenReceipt
	loading        int
	refreshedAt    time.Time
	silentFailures int
	lastSilentErr  error
}

func NewController(source Source, view ViewMode, opts Options) *Controller {
	c := &Controller{
		source:   source,
		clock:    opts.Clock,
		logger:   opts.Logger,
		notifier: opts.Notifier,
		onChange: opts.OnChange,
		view:     view,
		ctx:      context.Background(),
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.notifier == nil {
		c.notifier = NotifierFunc(func(error) {})
	}
	if c.onChange == nil {
		c.onChange = func() {}
	}
	return c
}

// Mount starts the refresh cycle for the current view and fetches it
// immediately. Background fetches use ctx. Mounting twice does nothing.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.ctx = ctx
	view := c.view
	c.restartLocked(view)
	c.mu.Unlock()

	c.logger.Info("kitchen view mounted", "view", view)
	_ = c.fetch(ctx, view, false)
}

// Unmount stops the background cycle. In-flight fetches still complete.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.mounted = false
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
	view := c.view
	c.mu.Unlock()

	c.logger.Info("kitchen view unmounted", "view", view)
}

// SetView switches the active projection. The old timer is stopped before
// the new one starts, then the new view is fetched immediately. Selecting
// the active view does nothing.
func (c *Controller) SetView(ctx context.Context, view ViewMode) {
	c.mu.Lock()
	if view == c.view {
		c.mu.Unlock()
		return
	}
	c.view = view
	mounted := c.mounted
	if mounted {
		c.restartLocked(view)
	}
	c.mu.Unlock()

	c.onChange()
	if mounted {
		_ = c.fetch(ctx, view, false)
	}
}

// Refresh fetches the active view on behalf of the user: the loading flag is
// raised and a failure is reported through the Notifier. The previous data
// stays in place on failure.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	return c.fetch(ctx, view, false)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		View:        c.view,
		Flat:        c.flat,
		Grouped:     c.grouped,
		Loading:     c.loading > 0,
		RefreshedAt: c.refreshedAt,
	}
}

// SilentFailures returns how many background fetches have failed and the
// most recent error, for diagnostics.
func (c *Controller) SilentFailures() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.silentFailures, c.lastSilentErr
}

// restartLocked replaces the scheduled task with one bound to view.
func (c *Controller) restartLocked(view ViewMode) {
	if c.task != nil {
		c.task.Stop()
	}
	c.task = NewScheduledTask(c.clock, RefreshInterval, func() {
		c.mu.Lock()
		ctx := c.ctx
		c.mu.Unlock()
		_ = c.fetch(ctx, view, true)
	})
	c.task.Start()
}

func (c *Controller) fetch(ctx context.Context, view ViewMode, silent bool) error {
	if !silent {
		c.mu.Lock()
		c.loading++
		c.mu.Unlock()
		c.onChange()
	}

	var (
		flat    []kitchen.PendingItem
		grouped []kitchen.KitchenReceipt
		err     error
	)
	switch view {
	case ViewFlat:
		flat, err = c.source.FetchPendingItems(ctx)
	case ViewGrouped:
		grouped, err = c.source.FetchReceipts(ctx)
	default:
		err = fmt.Errorf("unknown view mode %q", view)
	}

	c.mu.Lock()
	if !silent {
		c.loading--
	}
	if err != nil {
		if silent {
			c.silentFailures++
			c.lastSilentErr = err
		}
	} else {
		switch view {
		case ViewFlat:
			c.flat = flat
		case ViewGrouped:
			c.grouped = grouped
		}
		c.refreshedAt = c.clock.Now()
	}
	c.mu.Unlock()

	switch {
	case err != nil && silent:
		c.logger.Warn("background refresh failed", "view", view, "error", err)
	case err != nil:
		c.logger.Error("refresh failed", "view", view, "error", err)
		c.notifier.NotifyError(fmt.Errorf("refresh %s view: %w", view, err))
	default:
		c.logger.Debug("refreshed", "view", view, "silent", silent)
	}
	c.onChange()
	return err
}
