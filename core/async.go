package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
)

// Result carries the outcome of an asynchronous request.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Cancellable is returned by the async request variants. Cancel is
// cooperative: the completion callback still runs exactly once.
type Cancellable struct {
	cancelled atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func newCancellable(cancel context.CancelFunc) *Cancellable {
	return &Cancellable{cancel: cancel, done: make(chan struct{})}
}

func (c *Cancellable) IsCancelled() bool {
	if c == nil {
		return false
	}
	return c.cancelled.Load()
}

func (c *Cancellable) Cancel() {
	if c == nil {
		return
	}
	c.cancelled.Store(true)
	if c.cancel != nil {
		c.cancel()
	}
}

// Done is closed once the completion callback has returned.
func (c *Cancellable) Done() <-chan struct{} {
	if c == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

func (c *Cancellable) finish() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (m *Manager) AuthenticateAsync(
	ctx context.Context,
	login string,
	parameters map[string]string,
	onComplete func(Result[Token]),
) *Cancellable {
	copied := make(map[string]string, len(parameters))
	for key, value := range parameters {
		copied[key] = value
	}
	return runAsync(ctx, onComplete, func(ctx context.Context) (Token, error) {
		return m.Authenticate(ctx, login, copied)
	})
}

func (m *Manager) LogoutAsync(ctx context.Context, onComplete func(Result[LogoutStatus])) *Cancellable {
	return runAsync(ctx, onComplete, m.Logout)
}

func runAsync[T any](
	ctx context.Context,
	onComplete func(Result[T]),
	run func(context.Context) (T, error),
) *Cancellable {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithCancel(ctx)
	handle := newCancellable(cancel)

	go func() {
		defer handle.finish()
		defer cancel()

		result := invoke(requestCtx, run)
		if onComplete != nil {
			onComplete(result)
		}
	}()
	return handle
}

func invoke[T any](ctx context.Context, run func(context.Context) (T, error)) (result Result[T]) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = Result[T]{Err: newAPIError(fmt.Sprintf("request panicked: %v", recovered), goerrors.CategoryInternal, ErrorInternal)}
		}
	}()
	value, err := run(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: value}
}
