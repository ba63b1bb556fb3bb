package module

import (
	"errors"
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/naming"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/normalize"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

func noCall(any) Call { return Call{} }

func usersInitial() State {
	return State{
		Request:  map[string]RequestStatus{},
		Items:    payload.Entities{},
		Metadata: &Metadata{IDs: []payload.ID{}},
	}
}

func buildUsers(t *testing.T, extra ...Descriptor) *Module {
	t.Helper()
	descriptors := []Descriptor{
		{Name: "GETALL_USERS", APIPayload: noCall},
		{Name: "CREATE_USER", APIPayload: noCall},
		{Name: "DELETE_USER", APIPayload: noCall},
		{Name: "DETAIL_USER", APIPayload: noCall},
		{Name: "UPDATE_USER", APIPayload: noCall},
	}
	m, err := Build(append(descriptors, extra...), Initial(usersInitial()))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func user(id int, name string) map[string]any {
	return map[string]any{"id": id, "name": name}
}

func successEvent(t *testing.T, typ event.Type, resp payload.Response, params payload.Params) event.Event {
	t.Helper()
	normalized, err := normalize.Response(resp)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return event.New(typ, payload.Success{Response: normalized, Params: params})
}

func ids(values ...string) []payload.ID {
	out := make([]payload.ID, len(values))
	for i, v := range values {
		out[i] = payload.ID(v)
	}
	return out
}

// scenario replays list, create, delete and a failed detail in order.
func scenario(t *testing.T, m *Module) State {
	t.Helper()
	state := m.Initial()

	state = m.Reduce(state, event.New("GETALL_USERS_REQUEST", payload.Request{}))
	if status := state.Request["getall"]; !status.IsFetching || status.Made {
		t.Fatalf("getall status = %+v, want fetching and not made", status)
	}
	state = m.Reduce(state, successEvent(t, "GETALL_USERS_SUCCESS", payload.Response{
		Data: []any{user(1, "a"), user(2, "b")},
	}, nil))
	if len(state.Items) != 2 || state.Items["1"] == nil || state.Items["2"] == nil {
		t.Fatalf("items = %v, want ids 1 and 2", state.Items)
	}
	if !slices.Equal(state.Metadata.IDs, ids("1", "2")) {
		t.Fatalf("metadata ids = %v, want [1 2]", state.Metadata.IDs)
	}

	state = m.Reduce(state, successEvent(t, "CREATE_USER_SUCCESS", payload.Response{Data: user(3, "c")}, nil))
	if state.Items["3"] == nil {
		t.Fatalf("items = %v, want id 3", state.Items)
	}
	if !slices.Equal(state.Metadata.IDs, ids("3", "1", "2")) {
		t.Fatalf("metadata ids = %v, want [3 1 2]", state.Metadata.IDs)
	}

	state = m.Reduce(state, event.New("DELETE_USER_SUCCESS", payload.Success{Params: payload.Params{"id": 1}}))
	if _, ok := state.Items["1"]; ok {
		t.Fatalf("items = %v, want id 1 removed", state.Items)
	}
	if !slices.Equal(state.Metadata.IDs, ids("3", "2")) {
		t.Fatalf("metadata ids = %v, want [3 2]", state.Metadata.IDs)
	}

	params := payload.Params{"id": 2}
	state = m.Reduce(state, event.New("DETAIL_USER_REQUEST", payload.Request{Params: params}))
	if status := state.Request["2"]; !status.IsFetching {
		t.Fatalf("detail status = %+v, want fetching", status)
	}
	state = m.Reduce(state, event.New("DETAIL_USER_FAILURE", payload.Failure{
		Error:  &payload.APIError{Status: 401, Message: "unauthorized"},
		Params: params,
	}))
	want := RequestStatus{IsFetching: false, Made: true, Errors: []string{"unauthorized"}}
	if got := state.Request["2"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("detail status = %+v, want %+v", got, want)
	}
	return state
}

func TestReduce_Scenario(t *testing.T) {
	m := buildUsers(t)
	state := scenario(t, m)
	if state.Items["2"] == nil || state.Items["3"] == nil {
		t.Fatalf("failure touched items: %v", state.Items)
	}
}

func TestReduce_ResetRestoresInitial(t *testing.T) {
	m := buildUsers(t)
	for _, typ := range []event.Type{event.TypeWipeAllState, event.TypeLogoutSuccess, "do_wipe_all_state"} {
		state := scenario(t, m)
		reset := m.Reduce(state, event.New(typ, nil))
		if !reflect.DeepEqual(reset, usersInitial()) {
			t.Fatalf("%s: state = %+v, want initial", typ, reset)
		}
	}
}

func TestReduce_ResetRestoresZeroInitial(t *testing.T) {
	m, err := Build([]Descriptor{{Name: "GETALL_USERS", APIPayload: noCall}}, Initial(State{}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	state := m.Reduce(m.Initial(), event.New("GETALL_USERS_REQUEST", payload.Request{}))
	if status := state.Request["getall"]; !status.IsFetching {
		t.Fatalf("getall status = %+v, want fetching", status)
	}
	reset := m.Reduce(state, event.New(event.TypeWipeAllState, nil))
	if !reflect.DeepEqual(reset, State{}) {
		t.Fatalf("state = %+v, want zero state", reset)
	}
}

func TestReduce_ResetDoesNotShareInitial(t *testing.T) {
	m := buildUsers(t)
	first := m.Reduce(State{}, event.New(event.TypeWipeAllState, nil))
	first.Items["x"] = "mutated"
	second := m.Reduce(State{}, event.New(event.TypeWipeAllState, nil))
	if _, ok := second.Items["x"]; ok {
		t.Fatal("expected reset to produce a fresh initial state")
	}
}

func TestReduce_RequestKeepsMade(t *testing.T) {
	m := buildUsers(t)
	state := m.Reduce(m.Initial(), event.New("GETALL_USERS_SUCCESS", payload.Success{}))
	state = m.Reduce(state, event.New("GETALL_USERS_REQUEST", payload.Request{}))
	if status := state.Request["getall"]; !status.IsFetching || !status.Made {
		t.Fatalf("status = %+v, want fetching and made", status)
	}
}

func TestReduce_SuccessClearsErrors(t *testing.T) {
	m := buildUsers(t)
	state := m.Reduce(m.Initial(), event.New("GETALL_USERS_FAILURE", payload.Failure{
		Error: &payload.APIError{Errors: []string{"a", "b"}, Message: "ignored"},
	}))
	if got := state.Request["getall"].Errors; !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("errors = %v, want [a b]", got)
	}
	state = m.Reduce(state, event.New("GETALL_USERS_SUCCESS", payload.Success{}))
	if got := state.Request["getall"]; got.Errors != nil || got.IsFetching || !got.Made {
		t.Fatalf("status = %+v, want settled without errors", got)
	}
}

func TestReduce_IndependentIDKeys(t *testing.T) {
	m := buildUsers(t)
	x := payload.Params{"id": "x"}
	y := payload.Params{"id": "y"}
	state := m.Reduce(m.Initial(), event.New("UPDATE_USER_REQUEST", payload.Request{Params: x}))
	state = m.Reduce(state, event.New("UPDATE_USER_REQUEST", payload.Request{Params: y}))
	before := state.Request["x"]
	state = m.Reduce(state, event.New("UPDATE_USER_SUCCESS", payload.Success{
		Response: payload.Response{Data: map[string]any{"id": "y", "name": "new"}},
		Params:   y,
	}))
	if !reflect.DeepEqual(state.Request["x"], before) {
		t.Fatalf("x = %+v, want %+v", state.Request["x"], before)
	}
	if got := state.Request["y"]; got.IsFetching || !got.Made {
		t.Fatalf("y = %+v, want settled", got)
	}
	if state.Items["y"] == nil {
		t.Fatalf("items = %v, want y stored", state.Items)
	}
}

func TestReduce_IDKeyedWithoutIDFallsBackToToken(t *testing.T) {
	m := buildUsers(t)
	state := m.Reduce(m.Initial(), event.New("DETAIL_USER_REQUEST", payload.Request{}))
	if _, ok := state.Request["detail"]; !ok {
		t.Fatalf("request = %v, want detail key", state.Request)
	}
}

func TestReduce_DeleteAbsentIsNoop(t *testing.T) {
	m := buildUsers(t)
	state := m.Initial()
	state.Items = payload.Entities{"1": user(1, "a")}
	state.Metadata = &Metadata{IDs: ids("1")}
	next := m.Reduce(state, event.New("DELETE_USER_SUCCESS", payload.Success{Params: payload.Params{"id": 9}}))
	if len(next.Items) != 1 || !slices.Equal(next.Metadata.IDs, ids("1")) {
		t.Fatalf("state = %+v, want unchanged items and ids", next)
	}
	if next.Metadata != state.Metadata {
		t.Fatal("expected unchanged metadata to be shared")
	}
}

func TestReduce_OptionalFieldsStayAbsent(t *testing.T) {
	m, err := Build([]Descriptor{{Name: "GETALL_USERS", APIPayload: noCall}}, Initial(State{}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	state := m.Reduce(m.Initial(), successEvent(t, "GETALL_USERS_SUCCESS", payload.Response{
		Data:     []any{user(1, "a")},
		Metadata: map[string]any{"total": 1},
	}, nil))
	if state.Items != nil || state.Metadata != nil {
		t.Fatalf("state = %+v, want no items or metadata", state)
	}
	if !state.Request["getall"].Made {
		t.Fatal("expected request status to be tracked")
	}
}

func TestReduce_MetadataMerge(t *testing.T) {
	m := buildUsers(t)
	state := m.Initial()
	state.Metadata = &Metadata{IDs: ids("1"), Fields: map[string]any{"page": 1, "total": 5}}
	state = m.Reduce(state, event.New("GETALL_USERS_SUCCESS", payload.Success{
		Response: payload.Response{Metadata: map[string]any{"page": 2}},
	}))
	if state.Metadata.Fields["page"] != 2 || state.Metadata.Fields["total"] != 5 {
		t.Fatalf("fields = %v, want merged", state.Metadata.Fields)
	}
	if !slices.Equal(state.Metadata.IDs, ids("1")) {
		t.Fatalf("ids = %v, want unchanged when response has none", state.Metadata.IDs)
	}

	state = m.Reduce(state, event.New("GETALL_USERS_SUCCESS", payload.Success{
		Response: payload.Response{Metadata: map[string]any{"ids": []any{7, 8}}},
	}))
	if !slices.Equal(state.Metadata.IDs, ids("7", "8")) {
		t.Fatalf("ids = %v, want [7 8]", state.Metadata.IDs)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	m := buildUsers(t)
	state := m.Initial()
	state.Items = payload.Entities{"1": user(1, "a")}
	state.Metadata = &Metadata{IDs: ids("1")}
	snapshot := state.Clone()

	next := m.Reduce(state, successEvent(t, "CREATE_USER_SUCCESS", payload.Response{Data: user(2, "b")}, nil))
	next = m.Reduce(next, event.New("DELETE_USER_SUCCESS", payload.Success{Params: payload.Params{"id": 1}}))

	if !reflect.DeepEqual(state, snapshot) {
		t.Fatalf("input mutated: %+v", state)
	}
	if !slices.Equal(next.Metadata.IDs, ids("2")) {
		t.Fatalf("ids = %v, want [2]", next.Metadata.IDs)
	}
}

func TestReduce_ForeignEventsPassThrough(t *testing.T) {
	m := buildUsers(t)
	state := scenario(t, m)
	for _, typ := range []event.Type{"DO_GETALL_USERS", "GETALL_POSTS_SUCCESS", event.TypeWipeError, event.TypeNavigate} {
		next := m.Reduce(state, event.New(typ, nil))
		if !reflect.DeepEqual(next, state) {
			t.Fatalf("%s changed state", typ)
		}
	}
}

func TestReduce_Hooks(t *testing.T) {
	hooked := Descriptor{
		Name:       "LOGIN",
		APIPayload: noCall,
		OnRequest: func(state State, p payload.Request) Patch {
			return Patch{Extra: map[string]any{"pending": p.Params["email"]}}
		},
		OnSuccess: func(state State, p payload.Success) Patch {
			request := map[string]RequestStatus{"login": {Made: true, Errors: []string{"overridden"}}}
			return Patch{Request: request, Extra: map[string]any{"token": p.Response.Data}}
		},
		OnFailure: func(state State, p payload.Failure) Patch {
			return Patch{Extra: map[string]any{"lastError": p.Error.Status}}
		},
	}
	m := buildUsers(t, hooked)
	params := payload.Params{"email": "a@example.com"}

	state := m.Reduce(m.Initial(), event.New("LOGIN_REQUEST", payload.Request{Params: params}))
	if state.Extra["pending"] != "a@example.com" || !state.Request["login"].IsFetching {
		t.Fatalf("state = %+v", state)
	}
	state = m.Reduce(state, event.New("LOGIN_SUCCESS", payload.Success{Response: payload.Response{Data: "tok"}, Params: params}))
	if state.Extra["token"] != "tok" || state.Extra["pending"] != "a@example.com" {
		t.Fatalf("extra = %v", state.Extra)
	}
	if got := state.Request["login"].Errors; !slices.Equal(got, []string{"overridden"}) {
		t.Fatalf("errors = %v, want hook override", got)
	}
	state = m.Reduce(state, event.New("LOGIN_FAILURE", payload.Failure{Error: &payload.APIError{Status: 500}}))
	if state.Extra["lastError"] != 500 {
		t.Fatalf("extra = %v", state.Extra)
	}
}

func TestReduce_SharedTokenCollision(t *testing.T) {
	m := buildUsers(t, Descriptor{Name: "GETALL_POSTS", APIPayload: noCall})
	state := m.Reduce(m.Initial(), event.New("GETALL_POSTS_REQUEST", payload.Request{}))
	state = m.Reduce(state, event.New("GETALL_USERS_SUCCESS", payload.Success{}))
	if got := state.Request["getall"]; got.IsFetching {
		t.Fatalf("status = %+v, want shared entry settled by users", got)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []Descriptor
		initial     InitialState
		want        error
	}{
		{name: "no descriptors", initial: Initial(State{}), want: ErrDescriptorsRequired},
		{name: "no initial", descriptors: []Descriptor{{Name: "A", APIPayload: noCall}}, want: ErrInitialStateRequired},
		{name: "empty name", descriptors: []Descriptor{{APIPayload: noCall}}, initial: Initial(State{}), want: naming.ErrNameRequired},
		{name: "whitespace", descriptors: []Descriptor{{Name: "A B", APIPayload: noCall}}, initial: Initial(State{}), want: naming.ErrNameWhitespace},
		{name: "no api payload", descriptors: []Descriptor{{Name: "A"}}, initial: Initial(State{}), want: ErrAPIPayloadRequired},
		{
			name:        "duplicate",
			descriptors: []Descriptor{{Name: "A", APIPayload: noCall}, {Name: "A", APIPayload: noCall}},
			initial:     Initial(State{}),
			want:        ErrDuplicateDescriptor,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.descriptors, tc.initial)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestModule_ActionsAndTypes(t *testing.T) {
	m := buildUsers(t)
	actions := m.Actions()
	create, ok := actions["doGetallUsers"]
	if !ok {
		t.Fatalf("actions = %v, want doGetallUsers", slices.Collect(maps.Keys(actions)))
	}
	if evt := create(payload.Params{"page": 1}); evt.Type != "DO_GETALL_USERS" {
		t.Fatalf("type = %s, want DO_GETALL_USERS", evt.Type)
	}
	types, ok := m.Types("DELETE_USER")
	if !ok || types.Failure != "DELETE_USER_FAILURE" {
		t.Fatalf("types = %+v, %v", types, ok)
	}
	if verb, _ := m.Verb("DETAIL_USER"); verb != naming.VerbDetail {
		t.Fatalf("verb = %v, want detail", verb)
	}
	if _, err := m.Trigger("MISSING", nil); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
	evt, err := m.Trigger("CREATE_USER", nil)
	if err != nil || evt.Type != "DO_CREATE_USER" {
		t.Fatalf("trigger = %+v, %v", evt, err)
	}
}

