// Package action executes the declared post-submit effect chains of a
// schema document. Effects run through an injected Executor so the engine
// itself never owns transport, retries, or notification delivery.
package action

import (
	"context"
	"fmt"

	"github.com/formweave/formweave/internal/schema"
)

// APICall is one remote call requested by an api.call action.
type APICall struct {
	Endpoint string
	Method   string
	Body     map[string]any // nil unless the action declares body "form"
}

// Notification is one user-facing note requested by a toast action.
type Notification struct {
	Message string
	Variant string
	Err     error // set when raised from the onSubmitError chain
}

// Executor is the injected effect executor. Implementations decide
// transport, authentication, and whether failed calls are retried.
type Executor interface {
	CallAPI(ctx context.Context, call APICall) error
	Notify(ctx context.Context, note Notification) error
}

// Error marks a failed action. It is recovered locally by routing to the
// onSubmitError chain and surfaces to the caller as data, never a panic.
type Error struct {
	Event  schema.ActionEvent
	Index  int // position within the event bucket
	Action schema.ActionRule
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s action %d (%s %s): %v", e.Event, e.Index, e.Action.Type, e.Action.Endpoint, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome reports how a submit chain ended.
type Outcome struct {
	// OK is true when the whole onSubmit chain completed.
	OK bool
	// Err is the first action failure, or the context error when the
	// caller cancelled mid-chain. nil when OK.
	Err error
	// ErrorChainRan is true when the onSubmitError chain was dispatched.
	ErrorChainRan bool
}

// Dispatcher runs declared action chains in strict document order. There
// is no parallelism: side effects stay order-deterministic so an audit
// trail reads the way the document does.
type Dispatcher struct {
	exec Executor
}

// NewDispatcher creates a dispatcher bound to the given effect executor.
func NewDispatcher(exec Executor) *Dispatcher {
	return &Dispatcher{exec: exec}
}

// Submit runs the document's onSubmit chain with the given form values.
// On success the onSubmitSuccess chain runs; on the first failure the
// remaining onSubmit actions are skipped and the onSubmitError chain runs
// exactly once with the captured error. Cancellation stops the chain
// before the next action starts and runs no further chain.
func (d *Dispatcher) Submit(ctx context.Context, doc *schema.Document, values map[string]any) Outcome {
	if err := d.runChain(ctx, doc.ActionsFor(schema.EventSubmit), values, nil); err != nil {
		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err()}
		}
		// Recover locally: hand the captured error to the error chain.
		_ = d.runChain(ctx, doc.ActionsFor(schema.EventSubmitError), values, err)
		return Outcome{Err: err, ErrorChainRan: true}
	}

	if err := d.runChain(ctx, doc.ActionsFor(schema.EventSubmitSuccess), values, nil); err != nil {
		if ctx.Err() != nil {
			return Outcome{Err: ctx.Err()}
		}
		return Outcome{OK: true, Err: err}
	}

	return Outcome{OK: true}
}

func (d *Dispatcher) runChain(ctx context.Context, actions []schema.ActionRule, values map[string]any, captured error) error {
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runOne(ctx, a, values, captured); err != nil {
			return &Error{Event: a.Event, Index: i, Action: a, Err: err}
		}
	}
	return nil
}

func (d *Dispatcher) runOne(ctx context.Context, a schema.ActionRule, values map[string]any, captured error) error {
	switch a.Type {
	case schema.ActionAPICall:
		call := APICall{Endpoint: a.Endpoint, Method: a.Method}
		if call.Method == "" {
			call.Method = "POST"
		}
		if a.Body == "form" {
			call.Body = values
		}
		return d.exec.CallAPI(ctx, call)
	case schema.ActionToast:
		return d.exec.Notify(ctx, Notification{Message: a.Message, Variant: a.Variant, Err: captured})
	}
	return fmt.Errorf("unknown action type %q", a.Type)
}
