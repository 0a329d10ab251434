package hub

import (
	"context"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Publish dispatches e to the listeners registered for e.Type() when the
// call begins. Listeners added or removed during dispatch do not change the
// set being notified.
//
// Capturing listeners run first, then non-capturing ones, then observers,
// each group in registration order. A listener error or panic does not stop
// the remaining listeners; all failures are returned together after the loop
// as *ListenerError values combined with multierr.
//
// The result is false only when e is cancelable and a non-passive listener
// called PreventDefault. Once dispatch starts it runs to completion; ctx is
// only checked before the first listener and is passed through to handlers.
//
// When Publish fails before dispatch (ErrNilEvent, ErrClosed,
// ErrEventInFlight or a done ctx) no listener runs and the result is false
// whatever the event's cancelability. Listener errors do not affect the
// result: it is still the outcome of the dispatch.
func (h *Hub) Publish(ctx context.Context, e *Event) (bool, error) {
	if e == nil {
		return false, ErrNilEvent
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !e.dispatching.CompareAndSwap(false, true) {
		return false, ErrEventInFlight
	}
	defer e.dispatching.Store(false)

	signal := e.Type()
	listeners, closed := h.snapshot(signal)
	if closed {
		return false, ErrClosed
	}

	e.canceled.Store(false)

	var errs error
	for _, listener := range listeners {
		if listener.opts.Once && !h.claim(listener) {
			continue
		}
		errs = multierr.Append(errs, h.invoke(ctx, e, listener))
	}

	prevented := e.cancelable && e.canceled.Load()
	h.metrics.observePublish(signal, prevented)

	if errs != nil {
		h.log.Debug("dispatch finished with listener errors",
			zap.String("signal", string(signal)),
			zap.Int("errors", len(multierr.Errors(errs))))
	}
	return !prevented, errs
}

// snapshot copies the dispatch order for signal under the read lock.
func (h *Hub) snapshot(signal Signal) ([]*Listener, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, true
	}

	registered := h.registry[signal]
	listeners := make([]*Listener, 0, len(registered)+len(h.observers))
	for _, l := range registered {
		if l.opts.Capture {
			listeners = append(listeners, l)
		}
	}
	for _, l := range registered {
		if !l.opts.Capture {
			listeners = append(listeners, l)
		}
	}
	for _, o := range h.observers {
		if o.wants(signal) {
			listeners = append(listeners, o.listener)
		}
	}
	return listeners, false
}

// claim removes a once listener from the registry before it runs.
// Returns false if another dispatch already claimed it. The flag and the
// removal change together under the write lock, so Subscribe never returns
// a claimed listener as a duplicate.
func (h *Hub) claim(listener *Listener) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !listener.fired.CompareAndSwap(false, true) {
		return false
	}
	if i := slices.Index(h.registry[listener.signal], listener); i >= 0 {
		h.removeAt(listener.signal, i)
		h.log.Debug("once listener claimed",
			zap.String("signal", string(listener.signal)),
			zap.Stringer("listener", listener.id))
	}
	return true
}

// invoke runs one listener for e. Async listeners are scheduled and always
// report nil here.
func (h *Hub) invoke(ctx context.Context, e *Event, listener *Listener) error {
	if listener.opts.Async {
		h.schedule(ctx, e.detach(), listener)
		return nil
	}

	e.passive.Store(listener.opts.Passive)
	defer e.passive.Store(false)

	err := h.call(ctx, e, listener)
	if err != nil {
		h.log.Warn("listener failed",
			zap.String("signal", string(e.Type())),
			zap.Stringer("listener", listener.id),
			zap.Error(err))
	}
	return err
}

// call invokes the handler, converting panics to *PanicError and wrapping
// any failure in *ListenerError.
func (h *Hub) call(ctx context.Context, e *Event, listener *Listener) (err error) {
	signal := e.Type()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
		if err != nil {
			err = &ListenerError{Signal: signal, ListenerID: listener.id.String(), Err: err}
		}
		h.metrics.observeInvocation(signal, err)
	}()
	return listener.handler.HandleEvent(ctx, e)
}

// schedule starts an async listener body. The body keeps ctx's values but
// not its cancellation, since it outlives Publish. After Shutdown has begun,
// bodies run inline instead.
func (h *Hub) schedule(ctx context.Context, e *Event, listener *Listener) {
	ctx = context.WithoutCancel(ctx)

	h.mu.RLock()
	inline := h.syncMode || h.closed
	if !inline {
		h.wg.Add(1)
		h.pending.Add(1)
	}
	h.mu.RUnlock()

	if inline {
		h.runAsync(ctx, e, listener)
		return
	}

	go func() {
		defer h.wg.Done()
		defer h.pending.Add(-1)
		h.runAsync(ctx, e, listener)
	}()
}

func (h *Hub) runAsync(ctx context.Context, e *Event, listener *Listener) {
	err := h.call(ctx, e, listener)
	if err == nil {
		return
	}
	h.log.Warn("async listener failed",
		zap.String("signal", string(e.Type())),
		zap.Stringer("listener", listener.id),
		zap.Error(err))
	if h.errorHandler != nil {
		h.errorHandler(e.Type(), err)
	}
}
