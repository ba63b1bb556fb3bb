package module

import (
	"context"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/naming"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

// API performs one remote call. A failed call returns an error, ideally a
// *payload.APIError carrying the status code; any other error is recorded
// by its message.
type API func(ctx context.Context, params payload.Params) (*payload.Response, error)

// Next computes the route to navigate to after a successful call.
type Next func(resp payload.Response) string

// Route returns a Next that always navigates to path.
func Route(path string) Next {
	return func(payload.Response) string {
		return path
	}
}

// Call is what a descriptor extracts from a trigger payload.
type Call struct {
	API    API
	Params payload.Params
	Next   Next
}

// Descriptor declares one resource action.
//
// Name is matched case-insensitively against the create_, update_,
// detail_, delete_ and getall_ prefixes to pick the item cache behavior.
// Hooks run after the built-in transition and may override any field.
type Descriptor struct {
	Name       string
	APIPayload func(trigger any) Call
	OnRequest  func(state State, p payload.Request) Patch
	OnSuccess  func(state State, p payload.Success) Patch
	OnFailure  func(state State, p payload.Failure) Patch
}

// compiled is a descriptor with its derived types and verb.
type compiled struct {
	Descriptor
	types naming.Types
	verb  naming.Verb
}

func compile(d Descriptor) *compiled {
	return &compiled{
		Descriptor: d,
		types:      naming.TypesFor(d.Name),
		verb:       naming.Classify(d.Name),
	}
}
