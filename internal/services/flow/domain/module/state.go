package module

import (
	"maps"
	"slices"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

// RequestStatus is the fetch status tracked for one request key.
type RequestStatus struct {
	IsFetching bool     `json:"isFetching"`
	Made       bool     `json:"made"`
	Errors     []string `json:"errors,omitempty"`
}

// Metadata holds listing metadata. IDs is nil when the module does not
// track a listing order.
type Metadata struct {
	IDs    []payload.ID   `json:"ids"`
	Fields map[string]any `json:"fields,omitempty"`
}

// State is one module's slice of application state.
//
// Items and Metadata are optional: a nil value means the slice was not
// initialized with that field and success events leave it absent. Extra
// carries caller fields written by hooks.
type State struct {
	Request  map[string]RequestStatus `json:"request"`
	Items    payload.Entities         `json:"items,omitempty"`
	Metadata *Metadata                `json:"metadata,omitempty"`
	Extra    map[string]any           `json:"extra,omitempty"`
}

// Clone returns a copy that shares no maps or slices with s. Entity values
// themselves are shared. Nil maps stay nil.
func (s State) Clone() State {
	out := State{
		Request: maps.Clone(s.Request),
		Items:   maps.Clone(s.Items),
		Extra:   maps.Clone(s.Extra),
	}
	for key, status := range out.Request {
		status.Errors = slices.Clone(status.Errors)
		out.Request[key] = status
	}
	if s.Metadata != nil {
		out.Metadata = &Metadata{
			IDs:    slices.Clone(s.Metadata.IDs),
			Fields: maps.Clone(s.Metadata.Fields),
		}
	}
	return out
}

// Status returns the status tracked under key.
func (s State) Status(key string) (RequestStatus, bool) {
	status, ok := s.Request[key]
	return status, ok
}

// Patch is a partial state returned by hooks. Non-nil Request, Items and
// Metadata replace the corresponding field; Extra entries are merged key by
// key.
type Patch struct {
	Request  map[string]RequestStatus
	Items    payload.Entities
	Metadata *Metadata
	Extra    map[string]any
}

// Apply overlays p onto s and returns the result. s is not modified.
func (s State) Apply(p Patch) State {
	if p.Request != nil {
		s.Request = p.Request
	}
	if p.Items != nil {
		s.Items = p.Items
	}
	if p.Metadata != nil {
		s.Metadata = p.Metadata
	}
	if len(p.Extra) > 0 {
		extra := make(map[string]any, len(s.Extra)+len(p.Extra))
		maps.Copy(extra, s.Extra)
		maps.Copy(extra, p.Extra)
		s.Extra = extra
	}
	return s
}

// InitialState produces the initial slice value. It is called at build time
// and again on every reset.
type InitialState func() State

// Initial returns an InitialState that yields a fresh copy of s each time.
func Initial(s State) InitialState {
	snapshot := s.Clone()
	return func() State {
		return snapshot.Clone()
	}
}
