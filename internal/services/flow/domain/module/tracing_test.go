package module

import (
	"context"
	"testing"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedModule(t *testing.T, api API) (*Module, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown tracer provider: %v", err)
		}
	})
	m, err := Build([]Descriptor{{
		Name: "GETALL_USERS",
		APIPayload: func(any) Call {
			return Call{API: api}
		},
	}}, Initial(usersInitial()), WithTracer(tp.Tracer("flow-test")))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m, recorder
}

func onlySpan(t *testing.T, recorder *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	return spans[0]
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestWorkerSpan_Success(t *testing.T) {
	m, recorder := tracedModule(t, apiReturning(&payload.Response{Data: []any{user(1, "a")}}, nil))
	listenerFor(t, m, "GETALL_USERS").Handle(context.Background(), event.New("DO_GETALL_USERS", nil), &recordingRuntime{})

	span := onlySpan(t, recorder)
	if span.Name() != "flow.fetch GETALL_USERS" {
		t.Fatalf("name = %q, want flow.fetch GETALL_USERS", span.Name())
	}
	if v, _ := spanAttr(span, "flow.descriptor"); v.AsString() != "GETALL_USERS" {
		t.Fatalf("flow.descriptor = %q, want GETALL_USERS", v.AsString())
	}
	if v, _ := spanAttr(span, "flow.verb"); v.AsString() != "getall" {
		t.Fatalf("flow.verb = %q, want getall", v.AsString())
	}
	if v, _ := spanAttr(span, "flow.outcome"); v.AsString() != outcomeSuccess {
		t.Fatalf("flow.outcome = %q, want %q", v.AsString(), outcomeSuccess)
	}
	if _, ok := spanAttr(span, "flow.status"); ok {
		t.Fatal("flow.status set on a successful fetch")
	}
	if span.Status().Code == codes.Error {
		t.Fatalf("status = %+v, want no error", span.Status())
	}
}

func TestWorkerSpan_Failure(t *testing.T) {
	m, recorder := tracedModule(t, apiReturning(nil, &payload.APIError{Status: 401, Message: "unauthorized"}))
	listenerFor(t, m, "GETALL_USERS").Handle(context.Background(), event.New("DO_GETALL_USERS", nil), &recordingRuntime{})

	span := onlySpan(t, recorder)
	if v, _ := spanAttr(span, "flow.outcome"); v.AsString() != outcomeFailure {
		t.Fatalf("flow.outcome = %q, want %q", v.AsString(), outcomeFailure)
	}
	if v, _ := spanAttr(span, "flow.status"); v.AsInt64() != 401 {
		t.Fatalf("flow.status = %d, want 401", v.AsInt64())
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("status = %+v, want error", span.Status())
	}
}

func TestWorkerSpan_AbortedOnBadResponse(t *testing.T) {
	m, recorder := tracedModule(t, apiReturning(&payload.Response{Data: []any{map[string]any{"name": "no id"}}}, nil))
	rt := &recordingRuntime{}
	listenerFor(t, m, "GETALL_USERS").Handle(context.Background(), event.New("DO_GETALL_USERS", nil), rt)

	span := onlySpan(t, recorder)
	if v, _ := spanAttr(span, "flow.outcome"); v.AsString() != outcomeAborted {
		t.Fatalf("flow.outcome = %q, want %q", v.AsString(), outcomeAborted)
	}
	if len(span.Events()) == 0 {
		t.Fatal("expected the normalize error to be recorded")
	}
}
