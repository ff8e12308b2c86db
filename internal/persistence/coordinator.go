// Package persistence owns the single full-document write path: it loads
// the document once, then turns change notifications into debounced,
// never-overlapping atomic saves.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Phase string

const (
	PhaseLoading Phase = "LOADING"
	PhaseIdle    Phase = "IDLE"
	PhasePending Phase = "PENDING"
	PhaseSaving  Phase = "SAVING"
)

//go:generate mockgen -source=coordinator.go -destination=coordinator_mock.go -package=persistence
type Storage interface {
	Load(ctx context.Context, locator string) (string, error)
	SaveAtomic(ctx context.Context, locator, content string) error
}

// Source is the in-memory state being persisted.
type Source interface {
	Encode() (string, error)
	Decode(content string) error
	Empty() bool
}

type Options struct {
	Debounce time.Duration
	Grace    time.Duration
	Timeout  time.Duration
}

// Status is a point-in-time view for status bars and health endpoints.
type Status struct {
	Phase     Phase     `json:"phase"`
	Locator   string    `json:"locator"`
	Dirty     bool      `json:"dirty"`
	Message   string    `json:"message"`
	LastSaved time.Time `json:"lastSaved,omitzero"`
}

type Coordinator struct {
	storage Storage
	source  Source
	opts    Options

	mu          sync.Mutex
	idle        *sync.Cond
	phase       Phase
	locator     string
	initialized bool
	inGrace     bool
	dirty       bool
	saving      bool
	closed      bool
	timer       *time.Timer
	timerGen    uint64
	graceTimer  *time.Timer
	message     string
	lastSaved   time.Time
}

func NewCoordinator(storage Storage, source Source, locator string, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = 1500 * time.Millisecond
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	c := &Coordinator{
		storage: storage,
		source:  source,
		opts:    opts,
		phase:   PhaseLoading,
		locator: locator,
		message: "Inicializando",
	}
	c.idle = sync.NewCond(&c.mu)

	return c
}

// Load reads the whole document and replaces the in-memory state with it.
// Notifications received until the grace period ends are held back.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimers()

	for c.saving {
		c.idle.Wait()
	}

	c.phase = PhaseLoading
	locator := c.locator
	c.mu.Unlock()

	content, err := c.storage.Load(ctx, locator)
	if err == nil {
		err = c.source.Decode(content)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.phase = PhaseIdle
		c.message = fmt.Sprintf("Erro ao carregar dados: %v", err)
		slog.Error("failed to load document", "locator", locator, "error", err)

		return fmt.Errorf("loading document: %w", err)
	}

	c.initialized = true
	c.dirty = false
	c.phase = PhaseIdle
	c.message = "Dados carregados"

	slog.Info("document loaded", "locator", locator, "bytes", len(content))

	if c.opts.Grace > 0 {
		c.inGrace = true
		c.graceTimer = time.AfterFunc(c.opts.Grace, c.endGrace)
	}

	return nil
}

func (c *Coordinator) endGrace() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inGrace = false
	c.graceTimer = nil

	if c.dirty && !c.closed {
		c.arm()
	}
}

// Notify records a mutation of the source and (re)arms the debounce timer.
func (c *Coordinator) Notify() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.dirty = true

	if c.phase == PhaseLoading || c.inGrace {
		return
	}

	c.arm()
}

func (c *Coordinator) arm() {
	if c.timer != nil {
		c.timer.Stop()
	}

	c.timerGen++
	gen := c.timerGen
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.fire(gen) })

	if !c.saving {
		c.phase = PhasePending
	}
}

// fire runs when the debounce timer of generation gen expires. A timer
// replaced or stopped after it had already fired is ignored.
func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen {
		c.mu.Unlock()
		return
	}

	c.timer = nil

	// A save in flight re-arms on completion; a stale timer finds nothing
	// to do.
	if c.saving || !c.dirty || c.closed {
		if !c.saving && c.phase == PhasePending {
			c.phase = PhaseIdle
		}

		c.mu.Unlock()

		return
	}

	locator, ok := c.begin()
	c.mu.Unlock()

	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()

	err := c.write(ctx, locator)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.finish(locator, err)
}

// begin claims the in-flight slot. Must be called with mu held.
func (c *Coordinator) begin() (string, bool) {
	if !c.initialized && c.source.Empty() {
		slog.Debug("skipping save of empty document before first load", "locator", c.locator)

		c.dirty = false
		c.phase = PhaseIdle

		return "", false
	}

	c.saving = true
	c.dirty = false
	c.phase = PhaseSaving

	return c.locator, true
}

func (c *Coordinator) write(ctx context.Context, locator string) error {
	content, err := c.source.Encode()
	if err != nil {
		return err
	}

	return c.storage.SaveAtomic(ctx, locator, content)
}

// finish releases the in-flight slot. Must be called with mu held.
func (c *Coordinator) finish(locator string, err error) {
	c.saving = false

	if err != nil {
		c.dirty = true
		c.message = fmt.Sprintf("Erro ao salvar, alterações apenas em memória: %v", err)
		slog.Error("failed to save document", "locator", locator, "error", err)
	} else {
		c.lastSaved = time.Now()
		c.message = fmt.Sprintf("Salvo às %s", c.lastSaved.Format("15:04:05"))
		slog.Debug("document saved", "locator", locator)
	}

	c.phase = PhaseIdle

	if err == nil && c.dirty && !c.closed && !c.inGrace {
		c.arm()
	}

	c.idle.Broadcast()
}

// Flush cancels the pending debounce and writes immediately if anything
// changed since the last save.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()

	c.timerGen++

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	for c.saving {
		c.idle.Wait()
	}

	if !c.dirty {
		if c.phase == PhasePending {
			c.phase = PhaseIdle
		}

		c.mu.Unlock()

		return nil
	}

	locator, ok := c.begin()
	c.mu.Unlock()

	if !ok {
		return nil
	}

	err := c.write(ctx, locator)

	c.mu.Lock()
	c.finish(locator, err)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("flushing document: %w", err)
	}

	return nil
}

// SetLocator flushes pending changes to the current location, switches to
// the new one and reloads from it.
func (c *Coordinator) SetLocator(ctx context.Context, locator string) error {
	if err := c.Flush(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.locator = locator
	c.initialized = false
	c.mu.Unlock()

	return c.Load(ctx)
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Phase:     c.phase,
		Locator:   c.locator,
		Dirty:     c.dirty,
		Message:   c.message,
		LastSaved: c.lastSaved,
	}
}

// Close flushes pending changes and stops accepting notifications.
func (c *Coordinator) Close(ctx context.Context) error {
	err := c.Flush(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopTimers()

	return err
}

func (c *Coordinator) stopTimers() {
	c.timerGen++

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}

	c.inGrace = false
}
