package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/resourceflow/internal/platform/grpc"
	"github.com/louisbranch/resourceflow/internal/platform/timeouts"
	"github.com/louisbranch/resourceflow/internal/services/flow/api/grpcapi"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/errorstate"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/module"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/router"
	"github.com/louisbranch/resourceflow/internal/services/flow/storage"
	flowsqlite "github.com/louisbranch/resourceflow/internal/services/flow/storage/sqlite"
	"github.com/louisbranch/resourceflow/internal/services/flow/store"
)

const (
	defaultBackendPort = 8090
	defaultPersistKey  = "flow"
	startPath          = "/"
)

// Step is one scripted interaction. Action names a descriptor to trigger;
// when empty, Event is dispatched as is.
type Step struct {
	Action string
	Event  event.Type
	Params payload.Params
	// Logout forgets the session token before the step runs.
	Logout bool
}

// DemoScript logs in, walks the users resource and ends with an expired
// session followed by a logout.
func DemoScript() []Step {
	return []Step{
		{Action: ActionLogin, Params: payload.Params{"email": "a@example.com", "password": "secret"}},
		{Action: ActionListUsers, Params: payload.Params{}},
		{Action: ActionCreateUser, Params: payload.Params{"name": "c"}},
		{Action: ActionUpdateUser, Params: payload.Params{"id": 2, "name": "bee"}},
		{Action: ActionDeleteUser, Params: payload.Params{"id": 1}},
		{Action: ActionDetailUser, Params: payload.Params{"id": 2}, Logout: true},
		{Event: event.TypeLogoutSuccess},
	}
}

// RuntimeConfig controls a scripted flow run.
type RuntimeConfig struct {
	// APIAddr is the users backend. An in-process backend is started when
	// empty.
	APIAddr    string
	DBPath     string
	PersistKey string
	Whitelist  []string
	LogoutPath string
	// Script defaults to DemoScript.
	Script      []Step
	DialTimeout time.Duration
	Settle      time.Duration
	// Verbose logs every dispatched event.
	Verbose bool
	Output  io.Writer
	Logf    func(string, ...any)
}

// Report is the outcome printed after a run.
type Report struct {
	State   RootState `json:"state"`
	History []string  `json:"history"`
}

// Run wires the store, its listeners and the backend client, plays the
// script and writes the final Report to cfg.Output.
func Run(ctx context.Context, cfg RuntimeConfig) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = timeouts.GRPCDial
	}
	if cfg.Settle <= 0 {
		cfg.Settle = timeouts.Settle
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Script == nil {
		cfg.Script = DemoScript()
	}
	if strings.TrimSpace(cfg.PersistKey) == "" {
		cfg.PersistKey = defaultPersistKey
	}
	if len(cfg.Whitelist) == 0 {
		cfg.Whitelist = []string{SliceUsers}
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr := strings.TrimSpace(cfg.APIAddr)
	if addr == "" {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return Report{}, fmt.Errorf("listen for users backend: %w", err)
		}
		server, err := newBackendServer(NewBackend("a", "b"))
		if err != nil {
			lis.Close()
			return Report{}, err
		}
		served := make(chan error, 1)
		go func() { served <- server.Serve(runCtx, lis) }()
		defer func() {
			cancel()
			if err := <-served; err != nil {
				cfg.Logf("users backend stopped: %v", err)
			}
		}()
		addr = lis.Addr().String()
	}

	conn, err := platformgrpc.DialWithHealth(
		runCtx,
		nil,
		addr,
		cfg.DialTimeout,
		cfg.Logf,
		platformgrpc.DefaultClientDialOptions()...,
	)
	if err != nil {
		return Report{}, fmt.Errorf("dial users backend: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			cfg.Logf("close users backend connection: %v", closeErr)
		}
	}()

	session := &Session{}
	users, err := NewUsersModule(userAPIs(grpcapi.NewCaller(conn), session), module.WithLogf(cfg.Logf))
	if err != nil {
		return Report{}, fmt.Errorf("build users module: %w", err)
	}

	initial := RootState{Users: users.Initial()}
	var persister *storage.Persister
	closeSnapshots := func() {}
	if strings.TrimSpace(cfg.DBPath) != "" {
		snapshots, err := flowsqlite.Open(runCtx, cfg.DBPath)
		if err != nil {
			return Report{}, fmt.Errorf("open flow sqlite store: %w", err)
		}
		closeSnapshots = func() {
			if closeErr := snapshots.Close(); closeErr != nil {
				cfg.Logf("close flow sqlite store: %v", closeErr)
			}
		}
		persister, err = storage.NewPersister(snapshots, cfg.PersistKey, cfg.Whitelist...)
		if err != nil {
			closeSnapshots()
			return Report{}, err
		}
		if err := persister.Rehydrate(runCtx, initial.Targets()); err != nil {
			closeSnapshots()
			return Report{}, fmt.Errorf("rehydrate flow state: %w", err)
		}
	}

	opts := []store.Option[RootState]{store.WithLogf[RootState](cfg.Logf)}
	if cfg.Verbose {
		opts = append(opts, store.WithObserver[RootState](func(evt event.Event, state RootState) {
			cfg.Logf("event %s: location=%q error=%d", evt.Type, state.Router.Location, state.Error.Status)
		}))
	}
	st := store.New(initial, RootReducer(users), opts...)
	history := router.NewMemoryHistory(startPath)
	listeners := append(users.Listeners(),
		errorstate.Interceptor(
			errorstate.WithLogoutPath(cfg.LogoutPath),
			errorstate.WithLogf(cfg.Logf),
		),
		router.Listener(history, cfg.Logf),
	)
	if persister != nil {
		listeners = append(listeners, persister.Listener(func() map[string]any {
			return st.State().Slices()
		}, cfg.Logf))
	}
	st.Start(runCtx, listeners...)
	// Listeners, the persister among them, must return before the
	// snapshot store closes.
	defer func() {
		cancel()
		stopCtx, stop := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer stop()
		if err := st.Stopped(stopCtx); err != nil {
			cfg.Logf("stop flow listeners: %v", err)
		}
		closeSnapshots()
	}()

	for _, step := range cfg.Script {
		if step.Logout {
			session.Clear()
		}
		evt, err := stepEvent(users, step)
		if err != nil {
			return Report{}, err
		}
		st.Dispatch(evt)
		if err := settle(runCtx, st, cfg.Settle); err != nil {
			return Report{}, fmt.Errorf("settle after %s: %w", evt.Type, err)
		}
	}

	report := Report{State: st.State(), History: history.Entries()}
	if cfg.Output != nil {
		encoder := json.NewEncoder(cfg.Output)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	}
	return report, nil
}

// ServeConfig controls the standalone users backend.
type ServeConfig struct {
	Port int
}

// Serve runs the users backend until ctx is done.
func Serve(ctx context.Context, cfg ServeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultBackendPort
	}
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on users backend port %d: %w", cfg.Port, err)
	}
	server, err := newBackendServer(NewBackend("a", "b"))
	if err != nil {
		lis.Close()
		return err
	}
	log.Printf("users backend listening at %v", lis.Addr())
	return server.Serve(ctx, lis)
}

func newBackendServer(backend *Backend) (*platformgrpc.Server, error) {
	server := platformgrpc.NewServer([]string{UserServiceName})
	if err := grpcapi.Register(server.GRPC, backend.Service()); err != nil {
		return nil, fmt.Errorf("register users backend: %w", err)
	}
	return server, nil
}

func userAPIs(caller *grpcapi.Caller, session *Session) UserAPIs {
	svc := grpcapi.Service{Name: UserServiceName}
	method := func(name string) module.API {
		return session.Authorize(caller.Method(svc.FullMethod(name)))
	}
	return UserAPIs{
		Login:  session.Capture(caller.Method(svc.FullMethod("Login"))),
		List:   method("List"),
		Create: method("Create"),
		Get:    method("Get"),
		Update: method("Update"),
		Delete: method("Delete"),
	}
}

func stepEvent(users *module.Module, step Step) (event.Event, error) {
	if step.Action == "" {
		if step.Event == "" {
			return event.Event{}, errors.New("step needs an action or an event")
		}
		return event.New(step.Event, step.Params), nil
	}
	return users.Trigger(step.Action, step.Params)
}

func settle(ctx context.Context, st *store.Store[RootState], timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return st.Wait(waitCtx)
}
