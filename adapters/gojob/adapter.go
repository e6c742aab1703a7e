// Package gojob runs authenticate and logout requests as go-job executions.
package gojob

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-apiclient/adapters/gologger"
	"github.com/goliatone/go-apiclient/core"
)

const (
	JobIDAuthenticate = "apiclient.authenticate"
	JobIDLogout       = "apiclient.logout"

	LoggerName = gologger.RootName + "." + gologger.ComponentJobs

	paramLogin      = "login"
	paramParameters = "parameters"
)

// Service is satisfied by *core.Manager.
type Service interface {
	Authenticate(ctx context.Context, login string, parameters map[string]string) (core.Token, error)
	Logout(ctx context.Context) (core.LogoutStatus, error)
}

// AuthenticateMessage builds the execution message for a login request.
func AuthenticateMessage(login string, parameters map[string]string, idempotencyKey string) *job.ExecutionMessage {
	nested := make(map[string]any, len(parameters))
	for key, value := range parameters {
		nested[key] = value
	}
	return &job.ExecutionMessage{
		JobID:          JobIDAuthenticate,
		ScriptPath:     JobIDAuthenticate,
		Parameters:     map[string]any{paramLogin: login, paramParameters: nested},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

func LogoutMessage(idempotencyKey string) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:          JobIDLogout,
		ScriptPath:     JobIDLogout,
		Parameters:     map[string]any{},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

// ParseAuthenticate reads the login and string parameters back out of msg.
func ParseAuthenticate(msg *job.ExecutionMessage) (string, map[string]string, error) {
	if msg == nil {
		return "", nil, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDAuthenticate {
		return "", nil, fmt.Errorf("gojob: job %q is not %s", msg.JobID, JobIDAuthenticate)
	}
	login, _ := msg.Parameters[paramLogin].(string)
	if strings.TrimSpace(login) == "" {
		return "", nil, fmt.Errorf("gojob: login parameter is required")
	}
	parameters := map[string]string{}
	switch typed := msg.Parameters[paramParameters].(type) {
	case nil:
	case map[string]string:
		for key, value := range typed {
			parameters[key] = value
		}
	case map[string]any:
		for _, key := range sortedKeys(typed) {
			value, ok := typed[key].(string)
			if !ok {
				return "", nil, fmt.Errorf("gojob: parameter %q must be a string, got %T", key, typed[key])
			}
			parameters[key] = value
		}
	default:
		return "", nil, fmt.Errorf("gojob: parameters must be an object, got %T", typed)
	}
	return login, parameters, nil
}

type Enqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuer(enqueuer queue.Enqueuer) *Enqueuer {
	return &Enqueuer{enqueuer: enqueuer}
}

func (e *Enqueuer) EnqueueAuthenticate(ctx context.Context, login string, parameters map[string]string, idempotencyKey string) error {
	if strings.TrimSpace(login) == "" {
		return fmt.Errorf("gojob: login is required")
	}
	return e.enqueue(ctx, AuthenticateMessage(login, parameters, idempotencyKey))
}

func (e *Enqueuer) EnqueueLogout(ctx context.Context, idempotencyKey string) error {
	return e.enqueue(ctx, LogoutMessage(idempotencyKey))
}

func (e *Enqueuer) enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if e == nil || e.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	return e.enqueuer.Enqueue(ctx, msg)
}

// Outcome is what one delivery produced.
type Outcome struct {
	JobID  string
	Token  core.Token
	Logout core.LogoutStatus
	Err    error
}

type RunnerOption func(*TaskRunner)

func WithHook(hook worker.Hook) RunnerOption {
	return func(r *TaskRunner) {
		r.hook = hook
	}
}

func WithLogger(logger glog.Logger) RunnerOption {
	return func(r *TaskRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLoggerProvider logs through the provider's LoggerName logger.
func WithLoggerProvider(provider glog.LoggerProvider) RunnerOption {
	return func(r *TaskRunner) {
		r.logger = gologger.ForComponent(gologger.ComponentJobs, provider, nil)
	}
}

// WithDeadLetter routes failed deliveries to the dead letter queue instead
// of dropping them.
func WithDeadLetter(enabled bool) RunnerOption {
	return func(r *TaskRunner) {
		r.deadLetter = enabled
	}
}

// ErrSettleFailed marks a RunOnce error raised while acking or nacking a
// delivery, after the job itself already ran.
var ErrSettleFailed = errors.New("gojob: delivery settle failed")

// TaskRunner takes one delivery at a time, runs it against the service and
// acks on success. Failures are nacked without requeue.
type TaskRunner struct {
	dequeuer   queue.Dequeuer
	service    Service
	hook       worker.Hook
	logger     glog.Logger
	deadLetter bool
	now        func() time.Time
}

func NewTaskRunner(dequeuer queue.Dequeuer, service Service, opts ...RunnerOption) *TaskRunner {
	runner := &TaskRunner{
		dequeuer: dequeuer,
		service:  service,
		logger:   glog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(runner)
		}
	}
	return runner
}

// RunOnce processes a single delivery. The returned error covers queue
// failures only; the job's own failure is reported in Outcome.Err.
func (r *TaskRunner) RunOnce(ctx context.Context) (Outcome, error) {
	if r == nil || r.dequeuer == nil || r.service == nil {
		return Outcome{}, fmt.Errorf("gojob: task runner is not configured")
	}
	delivery, err := r.dequeuer.Dequeue(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if delivery == nil {
		return Outcome{}, fmt.Errorf("gojob: dequeued nil delivery")
	}

	msg := delivery.Message()
	event := worker.Event{Message: msg, Delivery: delivery, Attempt: 1, StartedAt: r.now()}
	r.onStart(ctx, event)

	outcome := r.execute(ctx, msg)
	event.Duration = r.now().Sub(event.StartedAt)
	if outcome.Err != nil {
		event.Err = outcome.Err
		r.onFailure(ctx, event)
		r.logger.Error("job failed", "job_id", outcome.JobID, "error", outcome.Err)
		nackErr := delivery.Nack(ctx, queue.NackOptions{
			Requeue:    false,
			DeadLetter: r.deadLetter,
			Reason:     outcome.Err.Error(),
		})
		return outcome, settleError("nack", nackErr)
	}

	r.onSuccess(ctx, event)
	r.logger.Info("job succeeded", "job_id", outcome.JobID, "duration_ms", event.Duration.Milliseconds())
	return outcome, settleError("ack", delivery.Ack(ctx))
}

// Run drains deliveries until ctx ends or dequeueing fails. Ack and nack
// failures are logged and the loop moves on to the next delivery.
func (r *TaskRunner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := r.RunOnce(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrSettleFailed) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.logger.Warn("job delivery settle failed", "job_id", outcome.JobID, "error", err)
	}
}

func settleError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrSettleFailed, op, err)
}

func (r *TaskRunner) execute(ctx context.Context, msg *job.ExecutionMessage) Outcome {
	if msg == nil {
		return Outcome{Err: fmt.Errorf("gojob: delivery has no message")}
	}
	outcome := Outcome{JobID: strings.TrimSpace(msg.JobID)}
	switch outcome.JobID {
	case JobIDAuthenticate:
		login, parameters, err := ParseAuthenticate(msg)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Token, outcome.Err = r.service.Authenticate(ctx, login, parameters)
	case JobIDLogout:
		outcome.Logout, outcome.Err = r.service.Logout(ctx)
	default:
		outcome.Err = fmt.Errorf("gojob: unsupported job %q", outcome.JobID)
	}
	return outcome
}

func (r *TaskRunner) onStart(ctx context.Context, event worker.Event) {
	if r.hook != nil {
		r.hook.OnStart(ctx, event)
	}
}

func (r *TaskRunner) onSuccess(ctx context.Context, event worker.Event) {
	if r.hook != nil {
		r.hook.OnSuccess(ctx, event)
	}
}

func (r *TaskRunner) onFailure(ctx context.Context, event worker.Event) {
	if r.hook != nil {
		r.hook.OnFailure(ctx, event)
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var _ Service = (*core.Manager)(nil)
