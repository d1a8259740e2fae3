// Package fetch holds the loading/error/success state machine every screen
// wraps around its backend call.
//
// A Controller is owned by one Bubble Tea model. Load and Submit move it to
// StatusLoading and return a tea.Cmd that performs the call; the resulting
// Msg is handed back through Apply. Each operation gets a fresh generation
// and context, and starting another operation cancels the previous one, so a
// superseded response is never applied.
package fetch

import (
	"context"
	"log/slog"
	"reflect"

	tea "github.com/charmbracelet/bubbletea"
)

type Status int

const (
	// StatusIdle is a controller that has not started anything, e.g. a
	// create form before its first submit.
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Op performs one backend call.
type Op[T any] func(ctx context.Context) (T, error)

// Msg is the result of an operation, tagged with the controller key and the
// generation that started it.
type Msg[T any] struct {
	Key  string
	Gen  uint64
	Data T
	Err  error
}

// Controller tracks data, loading and error for one operation kind.
type Controller[T any] struct {
	key    string
	status Status
	data   T
	err    error

	gen    uint64
	cancel context.CancelFunc
	base   context.Context

	empty  func(T) bool
	logger *slog.Logger
}

// Option configures a Controller.
type Option[T any] func(*Controller[T])

// WithEmpty overrides how an empty success payload is recognised.
func WithEmpty[T any](fn func(T) bool) Option[T] {
	return func(c *Controller[T]) { c.empty = fn }
}

// WithContext sets the parent of every operation context.
func WithContext[T any](ctx context.Context) Option[T] {
	return func(c *Controller[T]) { c.base = ctx }
}

func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *Controller[T]) { c.logger = l }
}

// New returns an idle controller. key must be unique among the controllers
// of one screen.
func New[T any](key string, opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		key:    key,
		base:   context.Background(),
		empty:  isEmpty[T],
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load starts op. The controller is Loading when Load returns.
func (c *Controller[T]) Load(op Op[T]) tea.Cmd {
	gen, ctx := c.begin()
	var zero T
	c.status, c.data, c.err = StatusLoading, zero, nil
	c.logger.Debug("Fetch started", "key", c.key, "gen", gen)

	key := c.key
	return func() tea.Msg {
		data, err := op(ctx)
		return Msg[T]{Key: key, Gen: gen, Data: data, Err: err}
	}
}

// Submit runs validate first. A validation error moves straight to Error and
// no command is returned, so nothing reaches the backend.
func (c *Controller[T]) Submit(validate func() error, op Op[T]) tea.Cmd {
	if validate != nil {
		if err := validate(); err != nil {
			c.begin()
			c.release()
			c.status, c.err = StatusError, err
			c.logger.Debug("Submit rejected locally", "key", c.key, "error", err)
			return nil
		}
	}
	return c.Load(op)
}

// Apply consumes msg if it is the current result for this controller and
// reports whether it did. Results of superseded or cancelled operations are
// dropped.
func (c *Controller[T]) Apply(msg tea.Msg) bool {
	m, ok := msg.(Msg[T])
	if !ok || m.Key != c.key {
		return false
	}
	if m.Gen != c.gen || c.status != StatusLoading {
		c.logger.Debug("Dropped stale result", "key", c.key, "gen", m.Gen, "current", c.gen)
		return false
	}
	c.release()
	if m.Err != nil {
		c.status, c.err = StatusError, m.Err
		c.logger.Debug("Fetch failed", "key", c.key, "gen", m.Gen, "error", m.Err)
		return true
	}
	c.status, c.data = StatusSuccess, m.Data
	c.logger.Debug("Fetch done", "key", c.key, "gen", m.Gen)
	return true
}

// Cancel abandons the in-flight operation, if any. Its result will be
// dropped and a Loading controller falls back to Idle.
func (c *Controller[T]) Cancel() {
	if c.cancel == nil {
		return
	}
	c.begin()
	c.release()
	if c.status == StatusLoading {
		c.status = StatusIdle
	}
}

// Update mutates the held payload in place. It only applies on Success and
// never touches the backend.
func (c *Controller[T]) Update(fn func(*T)) bool {
	if c.status != StatusSuccess {
		return false
	}
	fn(&c.data)
	return true
}

// Reset returns to Idle with no data, cancelling anything in flight.
func (c *Controller[T]) Reset() {
	c.Cancel()
	var zero T
	c.status, c.data, c.err = StatusIdle, zero, nil
}

// Run executes cmd synchronously and applies its result. It is how
// non-interactive commands drive a controller.
func (c *Controller[T]) Run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	c.Apply(cmd())
}

func (c *Controller[T]) Key() string        { return c.key }
func (c *Controller[T]) Status() Status     { return c.status }
func (c *Controller[T]) Data() T            { return c.data }
func (c *Controller[T]) Err() error         { return c.err }
func (c *Controller[T]) Loading() bool      { return c.status == StatusLoading }
func (c *Controller[T]) Failed() bool       { return c.status == StatusError }
func (c *Controller[T]) Succeeded() bool    { return c.status == StatusSuccess }
func (c *Controller[T]) Generation() uint64 { return c.gen }

// Empty reports a successful result that carries nothing to show.
func (c *Controller[T]) Empty() bool {
	return c.status == StatusSuccess && c.empty(c.data)
}

// begin invalidates the previous operation and opens a new one.
func (c *Controller[T]) begin() (uint64, context.Context) {
	c.release()
	c.gen++
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	return c.gen, ctx
}

func (c *Controller[T]) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// isEmpty treats nil and zero-length values as empty. Structs are empty when
// every field is; a struct wrapping a single slice is empty when that slice is.
func isEmpty[T any](v T) bool {
	return emptyValue(reflect.ValueOf(&v).Elem())
}

func emptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return emptyValue(rv.Elem())
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if !emptyValue(rv.Field(i)) {
				return false
			}
		}
		return true
	default:
		return rv.IsZero()
	}
}
