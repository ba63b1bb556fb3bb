package module

import (
	"context"
	"fmt"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/normalize"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/router"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/task"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeAborted = "aborted"
)

// Listeners returns one listener per descriptor, in declaration order. Each
// listener forks a fetch worker for every trigger it receives without
// waiting for earlier workers; concurrent triggers overlap.
func (m *Module) Listeners() []task.Listener {
	listeners := make([]task.Listener, 0, len(m.descriptors))
	for _, c := range m.descriptors {
		listeners = append(listeners, task.Listener{
			Name:  "flow." + c.Name,
			Match: event.OfType(c.types.Trigger),
			Handle: func(ctx context.Context, evt event.Event, rt task.Runtime) {
				call := c.APIPayload(evt.Payload)
				rt.Fork(ctx, c.Name, func(ctx context.Context) {
					m.fetch(ctx, c, call, rt)
				})
			},
		})
	}
	return listeners
}

// fetch runs one request -> call -> success|failure cycle. Events of one
// worker are dispatched in that order; a navigation event, when requested,
// follows the success event.
func (m *Module) fetch(ctx context.Context, c *compiled, call Call, d event.Dispatcher) {
	ctx, span := m.tracer.Start(ctx, "flow.fetch "+c.Name,
		trace.WithAttributes(
			attribute.String("flow.descriptor", c.Name),
			attribute.String("flow.verb", c.verb.String()),
		),
	)
	defer span.End()

	d.Dispatch(event.New(c.types.Request, payload.Request{Params: call.Params}))

	resp, err := invoke(ctx, call.API, call.Params)
	if err != nil {
		apiErr := payload.AsAPIError(err)
		span.SetAttributes(
			attribute.String("flow.outcome", outcomeFailure),
			attribute.Int("flow.status", apiErr.Status),
		)
		span.SetStatus(codes.Error, apiErr.Error())
		d.Dispatch(event.New(c.types.Failure, payload.Failure{Error: apiErr, Params: call.Params}))
		return
	}

	normalized, err := normalize.Response(*resp)
	if err != nil {
		span.SetAttributes(attribute.String("flow.outcome", outcomeAborted))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logf("flow %s: abort worker: %v", c.Name, err)
		return
	}
	span.SetAttributes(attribute.String("flow.outcome", outcomeSuccess))
	d.Dispatch(event.New(c.types.Success, payload.Success{Response: normalized, Params: call.Params}))

	if call.Next == nil {
		return
	}
	if destination := call.Next(normalized); destination != "" {
		d.Dispatch(router.Push(destination))
	}
}

// invoke calls api and folds every way it can fail into an error: a missing
// api, an empty response and a panic all surface as failures.
func invoke(ctx context.Context, api API, params payload.Params) (resp *payload.Response, err error) {
	if api == nil {
		return nil, &payload.APIError{Message: "api is not configured"}
	}
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &payload.APIError{Message: fmt.Sprintf("api panic: %v", r)}
		}
	}()
	resp, err = api(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &payload.APIError{Message: "empty api response"}
	}
	return resp, nil
}
