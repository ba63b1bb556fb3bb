package module

import (
	"maps"
	"slices"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/naming"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

// Reduce folds evt into state and returns the next state. It never modifies
// state: changed fields are replaced by new values and untouched fields are
// shared with the input.
//
// Reset events return a fresh initial state. Events that do not belong to
// one of the module's descriptors return state unchanged. At most one
// descriptor handles an event.
func (m *Module) Reduce(state State, evt event.Event) State {
	if event.IsReset(evt.Type) {
		return m.initial()
	}
	for _, c := range m.descriptors {
		if !c.types.Owns(evt.Type) {
			continue
		}
		return c.reduce(state, evt)
	}
	return state
}

func (c *compiled) reduce(state State, evt event.Event) State {
	switch evt.Type {
	case c.types.Request:
		p := requestPayload(evt.Payload)
		next := state
		next.Request = c.reduceRequest(state.Request, evt.Type, p.Params, func(prev RequestStatus) RequestStatus {
			return RequestStatus{IsFetching: true, Made: prev.Made}
		})
		if c.OnRequest != nil {
			next = next.Apply(c.OnRequest(next, p))
		}
		return next
	case c.types.Success:
		p := successPayload(evt.Payload)
		next := state
		next.Request = c.reduceRequest(state.Request, evt.Type, p.Params, func(RequestStatus) RequestStatus {
			return RequestStatus{IsFetching: false, Made: true}
		})
		if state.Items != nil {
			next.Items = c.reduceItems(state.Items, p)
		}
		if state.Metadata != nil {
			next.Metadata = c.reduceMetadata(state.Metadata, p)
		}
		if c.OnSuccess != nil {
			next = next.Apply(c.OnSuccess(next, p))
		}
		return next
	case c.types.Failure:
		p := failurePayload(evt.Payload)
		next := state
		next.Request = c.reduceRequest(state.Request, evt.Type, p.Params, func(RequestStatus) RequestStatus {
			return RequestStatus{IsFetching: false, Made: true, Errors: p.Error.Details()}
		})
		if c.OnFailure != nil {
			next = next.Apply(c.OnFailure(next, p))
		}
		return next
	}
	return state
}

// requestKey picks the request map key. Update and detail actions key by the
// entity id in params; everything else, including an id-keyed action whose
// params lack an id, keys by the verb token of the dispatched type.
func (c *compiled) requestKey(typ event.Type, params payload.Params) string {
	if c.verb.KeyedByID() {
		if id, ok := params.ID(); ok {
			return string(id)
		}
	}
	return naming.RequestKeyToken(typ)
}

func (c *compiled) reduceRequest(request map[string]RequestStatus, typ event.Type, params payload.Params, transition func(RequestStatus) RequestStatus) map[string]RequestStatus {
	key := c.requestKey(typ, params)
	next := make(map[string]RequestStatus, len(request)+1)
	maps.Copy(next, request)
	next[key] = transition(request[key])
	return next
}

func (c *compiled) reduceItems(items payload.Entities, p payload.Success) payload.Entities {
	switch c.verb {
	case naming.VerbCreate:
		id, err := payload.IDOf(p.Response.Data)
		if err != nil {
			return items
		}
		return withEntity(items, id, p.Response.Data)
	case naming.VerbUpdate, naming.VerbDetail:
		id, ok := p.Params.ID()
		if !ok {
			return items
		}
		return withEntity(items, id, p.Response.Data)
	case naming.VerbDelete:
		id, ok := p.Params.ID()
		if !ok {
			return items
		}
		if _, exists := items[id]; !exists {
			return items
		}
		next := maps.Clone(items)
		delete(next, id)
		return next
	case naming.VerbGetAll:
		entities, ok := asEntities(p.Response.Data)
		if !ok {
			return items
		}
		next := make(payload.Entities, len(items)+len(entities))
		maps.Copy(next, items)
		maps.Copy(next, entities)
		return next
	}
	return items
}

func (c *compiled) reduceMetadata(md *Metadata, p payload.Success) *Metadata {
	next := *md
	changed := false
	if len(p.Response.Metadata) > 0 {
		fields := make(map[string]any, len(md.Fields)+len(p.Response.Metadata))
		maps.Copy(fields, md.Fields)
		for key, value := range p.Response.Metadata {
			if key == "ids" {
				if ids, ok := toIDs(value); ok {
					next.IDs = ids
					continue
				}
			}
			fields[key] = value
		}
		next.Fields = fields
		changed = true
	}
	if next.IDs != nil {
		switch c.verb {
		case naming.VerbCreate:
			if id, err := payload.IDOf(p.Response.Data); err == nil {
				ids := make([]payload.ID, 0, len(next.IDs)+1)
				ids = append(ids, id)
				next.IDs = append(ids, next.IDs...)
				changed = true
			}
		case naming.VerbDelete:
			if id, ok := p.Params.ID(); ok {
				if idx := slices.Index(next.IDs, id); idx >= 0 {
					next.IDs = slices.Delete(slices.Clone(next.IDs), idx, idx+1)
					changed = true
				}
			}
		case naming.VerbGetAll:
			if p.Response.IDs != nil {
				next.IDs = slices.Clone(p.Response.IDs)
				if next.IDs == nil {
					next.IDs = []payload.ID{}
				}
				changed = true
			}
		}
	}
	if !changed {
		return md
	}
	return &next
}

func withEntity(items payload.Entities, id payload.ID, entity any) payload.Entities {
	next := make(payload.Entities, len(items)+1)
	maps.Copy(next, items)
	next[id] = entity
	return next
}

func asEntities(data any) (payload.Entities, bool) {
	switch v := data.(type) {
	case payload.Entities:
		return v, true
	case map[payload.ID]any:
		return payload.Entities(v), true
	case map[string]any:
		out := make(payload.Entities, len(v))
		for key, value := range v {
			out[payload.ID(key)] = value
		}
		return out, true
	}
	return nil, false
}

func toIDs(value any) ([]payload.ID, bool) {
	switch v := value.(type) {
	case []payload.ID:
		return slices.Clone(v), true
	case []string:
		out := make([]payload.ID, len(v))
		for i := range v {
			out[i] = payload.ID(v[i])
		}
		return out, true
	case []any:
		out := make([]payload.ID, 0, len(v))
		for _, raw := range v {
			id, err := payload.ToID(raw)
			if err != nil {
				return nil, false
			}
			out = append(out, id)
		}
		return out, true
	}
	return nil, false
}

func requestPayload(value any) payload.Request {
	switch p := value.(type) {
	case payload.Request:
		return p
	case *payload.Request:
		if p != nil {
			return *p
		}
	}
	return payload.Request{Params: payload.ParamsOf(value)}
}

func successPayload(value any) payload.Success {
	switch p := value.(type) {
	case payload.Success:
		return p
	case *payload.Success:
		if p != nil {
			return *p
		}
	}
	return payload.Success{Params: payload.ParamsOf(value)}
}

func failurePayload(value any) payload.Failure {
	switch p := value.(type) {
	case payload.Failure:
		return p
	case *payload.Failure:
		if p != nil {
			return *p
		}
	}
	return payload.Failure{Params: payload.ParamsOf(value)}
}
