package app

import (
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/module"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/router"
)

// Users descriptor names.
const (
	ActionLogin      = "LOGIN"
	ActionListUsers  = "GETALL_USERS"
	ActionCreateUser = "CREATE_USER"
	ActionDetailUser = "DETAIL_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"
)

// Routes navigated to after successful calls.
const (
	RouteUsers  = "/users"
	routeUser   = "users/{user}"
	extraEmail  = "email"
	extraLogged = "loggedIn"
)

// UserAPIs are the backend calls behind the users descriptors.
type UserAPIs struct {
	Login  module.API
	List   module.API
	Create module.API
	Get    module.API
	Update module.API
	Delete module.API
}

// UsersInitial is the initial users slice: empty cache, empty listing.
func UsersInitial() module.State {
	return module.State{
		Request:  map[string]module.RequestStatus{},
		Items:    payload.Entities{},
		Metadata: &module.Metadata{IDs: []payload.ID{}},
	}
}

// UsersDescriptors declares the users resource.
func UsersDescriptors(apis UserAPIs) []module.Descriptor {
	return []module.Descriptor{
		{
			Name: ActionLogin,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.Login, Params: triggerParams(trigger), Next: module.Route(RouteUsers)}
			},
			OnSuccess: func(_ module.State, p payload.Success) module.Patch {
				return module.Patch{Extra: map[string]any{extraLogged: true, extraEmail: p.Params[extraEmail]}}
			},
			OnFailure: func(module.State, payload.Failure) module.Patch {
				return module.Patch{Extra: map[string]any{extraLogged: false}}
			},
		},
		{
			Name: ActionListUsers,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.List, Params: triggerParams(trigger)}
			},
		},
		{
			Name: ActionCreateUser,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.Create, Params: triggerParams(trigger), Next: userRoute}
			},
		},
		{
			Name: ActionDetailUser,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.Get, Params: triggerParams(trigger)}
			},
		},
		{
			Name: ActionUpdateUser,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.Update, Params: triggerParams(trigger), Next: userRoute}
			},
		},
		{
			Name: ActionDeleteUser,
			APIPayload: func(trigger any) module.Call {
				return module.Call{API: apis.Delete, Params: triggerParams(trigger), Next: module.Route(RouteUsers)}
			},
		},
	}
}

// NewUsersModule builds the users module.
func NewUsersModule(apis UserAPIs, opts ...module.Option) (*module.Module, error) {
	return module.Build(UsersDescriptors(apis), UsersInitial, opts...)
}

func userRoute(resp payload.Response) string {
	id, err := payload.IDOf(resp.Data)
	if err != nil {
		return ""
	}
	return router.Path(routeUser, string(id))
}

func triggerParams(trigger any) payload.Params {
	switch p := trigger.(type) {
	case payload.Params:
		return p
	case map[string]any:
		return payload.Params(p)
	}
	return nil
}
