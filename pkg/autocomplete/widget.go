/*
Package autocomplete implements the controller behind a suggestion input.

A Widget turns raw keystrokes into debounced lookups against a shared
suggest.Index, memoizes results in its own cache and tracks the open/focus
state of the suggestion list.

	w := autocomplete.New(provider, autocomplete.Options{
		Category: suggest.Location,
		OnChange: render,
	})
	defer w.Close()
	w.Input("art")

Each new input cancels the pending timer and arms a fresh one, so only the
latest query is ever resolved. Close cancels every pending timer; after it
returns no lookup is performed.

Blurring the input closes the list only after a short grace period, so a
pointer selection, which arrives after the blur, still runs first.
*/
package autocomplete

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wondrvoices/wondrsuggest/internal/logger"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

const (
	DefaultDebounce  = 250 * time.Millisecond
	DefaultBlurGrace = 120 * time.Millisecond
	DefaultLimit     = 8
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler arms timers. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// State is what a view renders.
type State struct {
	Value       string
	Suggestions []string
	Open        bool
	Focused     bool
}

// Options configure a Widget. Zero values fall back to the defaults.
type Options struct {
	Category  suggest.Category
	Status    string
	Limit     int
	Debounce  time.Duration
	BlurGrace time.Duration
	Scheduler Scheduler
	// OnChange receives states one at a time, in the order they were
	// produced. It must not call back into the Widget's mutating methods.
	OnChange func(State)
	Logger   *log.Logger
}

// Widget is the debounced query pipeline for one input. Widgets share the
// index through the injected loader but never share their result cache.
type Widget struct {
	loader suggest.Loader
	opts   Options
	cache  *suggest.ResultCache
	log    *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	lookups atomic.Int64

	mu         sync.Mutex
	state      State
	debounce   Timer
	blur       Timer
	generation uint64
	blurSeq    uint64
	closed     bool
	emitSeq    uint64

	emitMu      sync.Mutex
	lastEmitted uint64
}

// update is a state snapshot stamped with the order it was taken in.
type update struct {
	state State
	seq   uint64
}

// New creates a Widget reading from loader.
func New(loader suggest.Loader, opts Options) *Widget {
	if opts.Category == "" {
		opts.Category = suggest.Location
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.BlurGrace <= 0 {
		opts.BlurGrace = DefaultBlurGrace
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	l := opts.Logger
	if l == nil {
		l = logger.New("autocomplete")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Widget{
		loader: loader,
		opts:   opts,
		cache:  suggest.NewResultCache(),
		log:    l.With("category", opts.Category),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Input records a new input value and schedules a lookup for it.
func (w *Widget) Input(text string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.state.Value = text
	w.stopDebounce()
	w.generation++
	gen := w.generation

	if strings.TrimSpace(text) == "" {
		w.state.Suggestions = nil
		w.state.Open = false
		u := w.pending()
		w.mu.Unlock()
		w.emit(u)
		return
	}

	w.debounce = w.opts.Scheduler.AfterFunc(w.opts.Debounce, func() {
		w.resolve(gen, text)
	})
	w.mu.Unlock()
}

// resolve runs when the debounce timer for generation gen fires.
func (w *Widget) resolve(gen uint64, text string) {
	key := suggest.NewCacheKey(w.opts.Category, w.opts.Status, w.opts.Limit, text)

	w.mu.Lock()
	if w.closed || gen != w.generation {
		w.mu.Unlock()
		return
	}
	w.debounce = nil
	if values, ok := w.cache.Get(key); ok {
		w.log.Debug("Cache hit", "query", key.Query)
		w.show(values)
		u := w.pending()
		w.mu.Unlock()
		w.emit(u)
		return
	}
	w.mu.Unlock()

	values, err := w.lookup(key)

	w.mu.Lock()
	if err != nil {
		w.log.Warn("Suggestions unavailable", "query", key.Query, "err", err)
		values = []string{}
	} else {
		w.cache.Put(key, values)
	}
	if w.closed || gen != w.generation {
		w.mu.Unlock()
		return
	}
	w.show(values)
	u := w.pending()
	w.mu.Unlock()
	w.emit(u)
}

func (w *Widget) lookup(key suggest.CacheKey) ([]string, error) {
	idx, err := w.loader.Load(w.ctx)
	if err != nil {
		return nil, err
	}
	w.lookups.Add(1)
	return idx.FilterCategory(key.Category, key.Query, key.Limit)
}

// Select commits value as the input, closes the list and keeps focus.
func (w *Widget) Select(value string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.stopBlur()
	w.stopDebounce()
	w.generation++
	w.state = State{Value: value, Focused: true}
	u := w.pending()
	w.mu.Unlock()
	w.emit(u)
}

// Focus marks the input focused and cancels a pending blur close.
func (w *Widget) Focus() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.stopBlur()
	w.state.Focused = true
	u := w.pending()
	w.mu.Unlock()
	w.emit(u)
}

// Blur marks the input unfocused and closes the list after the grace delay.
func (w *Widget) Blur() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.stopBlur()
	w.state.Focused = false
	seq := w.blurSeq
	w.blur = w.opts.Scheduler.AfterFunc(w.opts.BlurGrace, func() {
		w.closeList(seq)
	})
	u := w.pending()
	w.mu.Unlock()
	w.emit(u)
}

func (w *Widget) closeList(seq uint64) {
	w.mu.Lock()
	if w.closed || seq != w.blurSeq {
		w.mu.Unlock()
		return
	}
	w.blur = nil
	w.state.Open = false
	u := w.pending()
	w.mu.Unlock()
	w.emit(u)
}

// Close cancels all pending timers and any in-flight load. It is safe to
// call more than once.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.stopDebounce()
	w.stopBlur()
	w.generation++
	w.mu.Unlock()
	w.cancel()
}

// State returns a copy of the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Lookups returns how many times the index has been filtered.
func (w *Widget) Lookups() int {
	return int(w.lookups.Load())
}

// CacheStats reports the widget's cache counters.
func (w *Widget) CacheStats() map[string]int {
	return w.cache.Stats()
}

func (w *Widget) show(values []string) {
	w.state.Suggestions = values
	w.state.Open = len(values) > 0
}

func (w *Widget) stopDebounce() {
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
}

func (w *Widget) stopBlur() {
	w.blurSeq++
	if w.blur != nil {
		w.blur.Stop()
		w.blur = nil
	}
}

func (w *Widget) snapshot() State {
	st := w.state
	if st.Suggestions != nil {
		st.Suggestions = append([]string(nil), st.Suggestions...)
	}
	return st
}

// pending snapshots the state for emit. Must be called with w.mu held.
func (w *Widget) pending() update {
	w.emitSeq++
	return update{state: w.snapshot(), seq: w.emitSeq}
}

// emit delivers u unless a newer state has already been delivered. A
// timer goroutine can lose the race for emitMu against a later keystroke.
func (w *Widget) emit(u update) {
	if w.opts.OnChange == nil {
		return
	}
	w.emitMu.Lock()
	defer w.emitMu.Unlock()
	if u.seq <= w.lastEmitted {
		return
	}
	w.lastEmitted = u.seq
	w.opts.OnChange(u.state)
}
