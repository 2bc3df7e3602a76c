// Package command implements the Command Handle: the lifecycle object
// representing one outstanding vehicle command, its progress map, and
// its cancellation and await semantics.
package command

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a Command Handle's FSM state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed_out"
)

func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimedOut:
		return true
	default:
		return false
	}
}

// Result is the resolved value of an awaited Handle.
type Result struct {
	CommandName string
	Status      Status
	Duration    time.Duration
	Details     map[string]any
	Error       error
}

// Handle tracks one in-flight command: goto, takeoff, land, and so on.
// The driving goroutine (internal/vehicle) owns the write side
// (SetProgress, Complete/Fail/MarkCancelled/MarkTimedOut); callers hold a
// read-only view through the exported observation methods.
type Handle struct {
	id          string
	commandName string
	startedAt   time.Time
	timeout     time.Duration

	cancelAction func(context.Context) error

	mu       sync.Mutex
	status   Status
	progress map[string]any
	err      error
	duration time.Duration

	cancelRequested bool
	cancelCh        chan struct{}
	cancelOnce      sync.Once

	done     chan struct{}
	doneOnce sync.Once
}

// New allocates a Handle in Pending for the named command, with the
// given total timeout and an optional cancel action (e.g. goto's cancel
// action calls hold()). The cancel action's error, if any, becomes the
// Cancelled handle's Error.
func New(commandName string, timeout time.Duration, cancelAction func(context.Context) error) *Handle {
	return &Handle{
		id:           uuid.New().String(),
		commandName:  commandName,
		startedAt:    time.Now(),
		timeout:      timeout,
		cancelAction: cancelAction,
		status:       StatusPending,
		progress:     make(map[string]any),
		cancelCh:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// CommandName returns the command this handle represents.
func (h *Handle) CommandName() string { return h.commandName }

// Status returns the current FSM state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// IsRunning reports whether the handle is in Running.
func (h *Handle) IsRunning() bool { return h.Status() == StatusRunning }

// IsComplete reports whether the handle has reached a terminal state.
func (h *Handle) IsComplete() bool { return h.Status().terminal() }

// Succeeded reports whether the handle completed successfully.
func (h *Handle) Succeeded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status == StatusCompleted && h.err == nil
}

// WasCancelled reports whether the handle was cancelled.
func (h *Handle) WasCancelled() bool { return h.Status() == StatusCancelled }

// TimedOut reports whether the handle timed out.
func (h *Handle) TimedOut() bool { return h.Status() == StatusTimedOut }

// ElapsedTime returns the time since the handle was created.
func (h *Handle) ElapsedTime() time.Duration { return time.Since(h.startedAt) }

// TimeRemaining returns the time left before the handle's timeout, or
// zero if already elapsed or the handle has no timeout.
func (h *Handle) TimeRemaining() time.Duration {
	if h.timeout <= 0 {
		return 0
	}
	remaining := h.timeout - h.ElapsedTime()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Progress returns a snapshot of the command-specific progress map.
func (h *Handle) Progress() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]any, len(h.progress))
	for k, v := range h.progress {
		out[k] = v
	}
	return out
}

// Error returns the failure cause, if any.
func (h *Handle) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// SetProgress merges updates into the progress map. Called by the
// driving goroutine at least twice a second while Running.
func (h *Handle) SetProgress(updates map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, v := range updates {
		h.progress[k] = v
	}
}

// MarkRunning transitions Pending to Running, once the first wire
// setpoint has been issued.
func (h *Handle) MarkRunning() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusPending {
		h.status = StatusRunning
	}
}

// Cancelled returns a channel closed once cancellation has been
// requested; the driving goroutine selects on it to know when to unwind.
func (h *Handle) Cancelled() <-chan struct{} { return h.cancelCh }

// Cancel requests cancellation. Idempotent: returns false if the handle
// is already terminal or already cancel-requested. If executeCancelAction
// is set, the cancel action (if any) runs synchronously here and the
// handle is Cancelled before Cancel returns. Otherwise the caller is
// expected to be a driving goroutine that will itself observe Cancelled()
// and call ResolveCancellation, keeping wire commands serialized on that
// one goroutine instead of racing with Cancel's caller.
func (h *Handle) Cancel(ctx context.Context, executeCancelAction bool) bool {
	h.mu.Lock()
	if h.status.terminal() || h.cancelRequested {
		h.mu.Unlock()
		return false
	}
	h.cancelRequested = true
	h.mu.Unlock()

	h.cancelOnce.Do(func() { close(h.cancelCh) })

	if executeCancelAction {
		h.ResolveCancellation(ctx)
	}
	return true
}

// ResolveCancellation runs the cancel action, if one was supplied at
// construction, and transitions the handle to Cancelled with the
// action's error (if any) attached as Error. Call this once, from
// whichever goroutine owns the wire link, after observing Cancelled().
func (h *Handle) ResolveCancellation(ctx context.Context) {
	var err error
	if h.cancelAction != nil {
		err = h.cancelAction(ctx)
	}
	h.MarkCancelled(err)
}

func (h *Handle) finish(status Status, err error) {
	h.mu.Lock()
	if h.status.terminal() {
		h.mu.Unlock()
		return
	}
	h.status = status
	h.err = err
	h.duration = time.Since(h.startedAt)
	h.mu.Unlock()

	h.doneOnce.Do(func() { close(h.done) })
}

// Complete transitions the handle to Completed.
func (h *Handle) Complete() { h.finish(StatusCompleted, nil) }

// Fail transitions the handle to Failed with the given cause.
func (h *Handle) Fail(err error) { h.finish(StatusFailed, err) }

// MarkCancelled transitions the handle to Cancelled. If the cancel
// action itself failed, cancelErr is attached as the handle's error even
// though the terminal state is still Cancelled, not Failed.
func (h *Handle) MarkCancelled(cancelErr error) { h.finish(StatusCancelled, cancelErr) }

// MarkTimedOut transitions the handle to TimedOut with the given
// timeout-specific error.
func (h *Handle) MarkTimedOut(err error) { h.finish(StatusTimedOut, err) }

// Wait suspends until the handle reaches a terminal state, an additional
// timeout elapses, or ctx is done, then returns the resolved Result.
// A zero timeout waits indefinitely (bounded only by ctx).
func (h *Handle) Wait(ctx context.Context, timeout time.Duration) Result {
	if h.IsComplete() {
		return h.result()
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-h.done:
	case <-ctx.Done():
	case <-timeoutCh:
	}
	return h.result()
}

func (h *Handle) result() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	duration := h.duration
	if duration == 0 {
		duration = time.Since(h.startedAt)
	}
	details := make(map[string]any, len(h.progress))
	for k, v := range h.progress {
		details[k] = v
	}
	return Result{
		CommandName: h.commandName,
		Status:      h.status,
		Duration:    duration,
		Details:     details,
		Error:       h.err,
	}
}
