package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"ircbot/pkg/storage"
)

const (
	GenericFaultNotice = "Unexpected error, check logs"
	CorruptDataNotice  = "Stored data is unreadable, check logs"
)

// ErrCircuitOpen is returned once handlers have faulted too many times in a
// row. The session stops and a supervisor decides whether to restart it.
var ErrCircuitOpen = errors.New("command fault limit reached")

// Outcome is the result class of one dispatch.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeDisabled
	OutcomeExecuted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDisabled:
		return "disabled"
	case OutcomeExecuted:
		return "executed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what happened to one request.
type Result struct {
	Outcome Outcome
	Command string
	// Fault is the handler error for OutcomeFailed.
	Fault error
}

// Dispatcher looks up requests in a Registry, runs enabled handlers and turns
// their failures into user-facing notices.
type Dispatcher struct {
	registry  *Registry
	maxFaults int
	log       *slog.Logger

	mu     sync.Mutex
	faults int
}

// NewDispatcher builds a dispatcher. maxConsecutiveFaults of zero never
// opens the circuit.
func NewDispatcher(registry *Registry, maxConsecutiveFaults int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		registry:  registry,
		maxFaults: maxConsecutiveFaults,
		log:       log.With("component", "command.dispatch"),
	}
}

// Registry returns the table the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves and runs one request.
//
// Handler faults never escape as errors: the user gets a generic notice and
// the result carries the fault. The returned error is non-nil only when the
// notice itself could not be sent or the fault circuit opened.
func (d *Dispatcher) Dispatch(ctx context.Context, reply Replier, req Request) (Result, error) {
	name := req.Name()
	result := Result{Command: name}

	entry, ok := d.registry.Lookup(name)
	if !ok {
		d.log.Debug("unknown command", "command", name, "user", req.User)
		return result, nil
	}

	if !d.registry.IsEnabled(name) {
		result.Outcome = OutcomeDisabled
		d.log.Debug("disabled command ignored", "command", name, "user", req.User)
		return result, nil
	}

	fault := invokeSafely(ctx, entry.Handler, reply, req)
	if fault == nil {
		d.resetFaults()
		result.Outcome = OutcomeExecuted
		d.log.Debug("command executed", "command", name, "user", req.User)
		return result, nil
	}

	result.Outcome = OutcomeFailed
	result.Fault = fault

	notice := GenericFaultNotice
	if storage.IsCorrupt(fault) {
		notice = CorruptDataNotice
	}
	d.log.Error("command failed",
		"command", name,
		"user", req.User,
		"target", req.Target,
		"category", storage.CategoryFromError(fault),
		"error", fault,
	)

	if err := reply.Reply(ctx, req.Target, notice); err != nil {
		return result, fmt.Errorf("send fault notice: %w", err)
	}

	if d.recordFault() {
		return result, fmt.Errorf("%w after %d consecutive faults", ErrCircuitOpen, d.maxFaults)
	}

	return result, nil
}

func (d *Dispatcher) resetFaults() {
	d.mu.Lock()
	d.faults = 0
	d.mu.Unlock()
}

// recordFault counts one fault and reports whether the circuit opened. The
// counter starts over once it opens so a restarted session gets a full budget.
func (d *Dispatcher) recordFault() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.faults++
	if d.maxFaults > 0 && d.faults >= d.maxFaults {
		d.faults = 0
		return true
	}
	return false
}

func invokeSafely(ctx context.Context, handler Handler, reply Replier, req Request) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("command %q panicked: %v\n%s", req.Name(), recovered, debug.Stack())
		}
	}()

	return handler.Invoke(ctx, reply, req)
}
