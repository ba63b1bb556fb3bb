package module

import (
	"errors"
	"fmt"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/naming"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/resourceflow/internal/services/flow/domain/module"

var (
	// ErrDescriptorsRequired indicates a module built without descriptors.
	ErrDescriptorsRequired = errors.New("at least one descriptor is required")
	// ErrAPIPayloadRequired indicates a descriptor without an API extractor.
	ErrAPIPayloadRequired = errors.New("descriptor api payload is required")
	// ErrDuplicateDescriptor indicates two descriptors with the same name.
	ErrDuplicateDescriptor = errors.New("descriptor already declared")
	// ErrInitialStateRequired indicates a missing initial state factory.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrUnknownAction indicates a trigger for an undeclared descriptor.
	ErrUnknownAction = errors.New("unknown action")
)

// ActionCreator builds a trigger event from a caller payload.
type ActionCreator func(payload any) event.Event

// Module is the generated slice: trigger creators, a reducer and listeners.
type Module struct {
	descriptors []*compiled
	byName      map[string]*compiled
	initial     InitialState
	logf        func(string, ...any)
	tracer      trace.Tracer
}

// Option configures a Module.
type Option func(*Module)

// WithLogf sets the logger used for worker faults.
func WithLogf(logf func(string, ...any)) Option {
	return func(m *Module) {
		if logf != nil {
			m.logf = logf
		}
	}
}

// WithTracer sets the tracer used for worker spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Module) {
		if tracer != nil {
			m.tracer = tracer
		}
	}
}

// Build validates descriptors, classifies each name once and returns the
// generated module.
func Build(descriptors []Descriptor, initial InitialState, opts ...Option) (*Module, error) {
	if len(descriptors) == 0 {
		return nil, ErrDescriptorsRequired
	}
	if initial == nil {
		return nil, ErrInitialStateRequired
	}
	m := &Module{
		descriptors: make([]*compiled, 0, len(descriptors)),
		byName:      make(map[string]*compiled, len(descriptors)),
		initial:     initial,
		logf:        func(string, ...any) {},
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, d := range descriptors {
		if err := naming.Validate(d.Name); err != nil {
			return nil, err
		}
		if d.APIPayload == nil {
			return nil, fmt.Errorf("%w: %s", ErrAPIPayloadRequired, d.Name)
		}
		if _, ok := m.byName[d.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDescriptor, d.Name)
		}
		c := compile(d)
		m.descriptors = append(m.descriptors, c)
		m.byName[d.Name] = c
	}
	return m, nil
}

// Initial returns a fresh initial state.
func (m *Module) Initial() State {
	return m.initial()
}

// Types returns the lifecycle types of the named descriptor.
func (m *Module) Types(name string) (naming.Types, bool) {
	c, ok := m.byName[name]
	if !ok {
		return naming.Types{}, false
	}
	return c.types, true
}

// Verb returns the classification of the named descriptor.
func (m *Module) Verb(name string) (naming.Verb, bool) {
	c, ok := m.byName[name]
	if !ok {
		return naming.VerbOther, false
	}
	return c.verb, true
}

// Actions returns trigger creators keyed by camelCase action key, for
// example doGetallUsers for GETALL_USERS.
func (m *Module) Actions() map[string]ActionCreator {
	actions := make(map[string]ActionCreator, len(m.descriptors))
	for _, c := range m.descriptors {
		trigger := c.types.Trigger
		actions[naming.ActionKey(c.Name)] = func(p any) event.Event {
			return event.New(trigger, p)
		}
	}
	return actions
}

// Trigger builds the trigger event of the named descriptor.
func (m *Module) Trigger(name string, p any) (event.Event, error) {
	c, ok := m.byName[name]
	if !ok {
		return event.Event{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return event.New(c.types.Trigger, p), nil
}
