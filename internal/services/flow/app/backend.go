package app

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	platformerrors "github.com/louisbranch/resourceflow/internal/platform/errors"
	"github.com/louisbranch/resourceflow/internal/platform/errors/i18n"
	"github.com/louisbranch/resourceflow/internal/platform/grpc/pagination"
	"github.com/louisbranch/resourceflow/internal/platform/id"
	"github.com/louisbranch/resourceflow/internal/platform/requestctx"
	"github.com/louisbranch/resourceflow/internal/services/flow/api/grpcapi"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

// UserServiceName is the gRPC service served by Backend.
const UserServiceName = "flow.v1.UserService"

const paramLocale = "locale"

var pageLimits = pagination.Limits{Default: 50, Max: 200}

// Backend is an in-memory users service guarded by session tokens.
type Backend struct {
	mu       sync.Mutex
	users    map[string]map[string]any
	order    []string
	nextID   int
	sessions map[string]string
}

// NewBackend creates a backend seeded with users named in seed, ids
// starting at 1.
func NewBackend(seed ...string) *Backend {
	b := &Backend{
		users:    map[string]map[string]any{},
		sessions: map[string]string{},
		nextID:   1,
	}
	for _, name := range seed {
		b.insertLocked(name)
	}
	return b
}

// Service exposes the backend as a gRPC service.
func (b *Backend) Service() grpcapi.Service {
	return grpcapi.Service{
		Name: UserServiceName,
		Methods: map[string]grpcapi.Handler{
			"Login":  b.Login,
			"List":   b.authorized(b.List),
			"Create": b.authorized(b.Create),
			"Get":    b.authorized(b.Get),
			"Update": b.authorized(b.Update),
			"Delete": b.authorized(b.Delete),
		},
	}
}

// Revoke ends every session.
func (b *Backend) Revoke() {
	b.mu.Lock()
	clear(b.sessions)
	b.mu.Unlock()
}

// Login issues a session token for an email.
func (b *Backend) Login(_ context.Context, req map[string]any) (grpcapi.Reply, error) {
	msgs := catalog(req)
	email := strings.TrimSpace(stringField(req, "email"))
	var violations []platformerrors.FieldViolation
	if email == "" {
		violations = append(violations, required(msgs, "email"))
	}
	if stringField(req, "password") == "" {
		violations = append(violations, required(msgs, "password"))
	}
	if len(violations) > 0 {
		return grpcapi.Reply{}, platformerrors.Invalid(msgs.Format(i18n.CodeInvalidArgument, nil), violations...)
	}
	token, err := id.NewID()
	if err != nil {
		return grpcapi.Reply{}, platformerrors.Wrap(platformerrors.CodeUnknown, msgs.Format(i18n.CodeUnknown, nil), err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[token] = email
	return grpcapi.Reply{Data: map[string]any{"email": email, paramToken: token}}, nil
}

// List returns one page of users in creation order.
func (b *Backend) List(_ context.Context, req map[string]any) (grpcapi.Reply, error) {
	token := stringField(req, "page_token")
	page, err := pagination.Parse(intField(req, "page_size"), token, pageLimits)
	if err != nil {
		msgs := catalog(req)
		description := msgs.Format(i18n.KeyInvalidPageToken, map[string]string{"token": token})
		return grpcapi.Reply{}, platformerrors.Invalid(msgs.Format(i18n.CodeInvalidArgument, nil),
			platformerrors.FieldViolation{Field: "page_token", Description: description})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end, next := page.Bounds(len(b.order))
	data := make([]any, 0, end-start)
	for _, id := range b.order[start:end] {
		data = append(data, maps.Clone(b.users[id]))
	}
	metadata := map[string]any{"total": len(b.order)}
	if next != "" {
		metadata["next_page_token"] = next
	}
	return grpcapi.Reply{Data: data, Metadata: metadata}, nil
}

// Create adds a user. The caller's email, when known, is recorded as the
// user's creator.
func (b *Backend) Create(ctx context.Context, req map[string]any) (grpcapi.Reply, error) {
	name := strings.TrimSpace(stringField(req, "name"))
	if name == "" {
		return grpcapi.Reply{}, emptyName(catalog(req))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	user := b.insertLocked(name)
	if caller, ok := requestctx.CallerFromContext(ctx); ok {
		user["created_by"] = caller.Email
	}
	return grpcapi.Reply{Data: maps.Clone(user)}, nil
}

// Get returns one user.
func (b *Backend) Get(_ context.Context, req map[string]any) (grpcapi.Reply, error) {
	id, err := userID(req)
	if err != nil {
		return grpcapi.Reply{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	user, ok := b.users[id]
	if !ok {
		return grpcapi.Reply{}, notFound(catalog(req), id)
	}
	return grpcapi.Reply{Data: maps.Clone(user)}, nil
}

// Update renames a user.
func (b *Backend) Update(_ context.Context, req map[string]any) (grpcapi.Reply, error) {
	id, err := userID(req)
	if err != nil {
		return grpcapi.Reply{}, err
	}
	name := strings.TrimSpace(stringField(req, "name"))
	if name == "" {
		return grpcapi.Reply{}, emptyName(catalog(req))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	user, ok := b.users[id]
	if !ok {
		return grpcapi.Reply{}, notFound(catalog(req), id)
	}
	updated := maps.Clone(user)
	updated["name"] = name
	b.users[id] = updated
	return grpcapi.Reply{Data: maps.Clone(updated)}, nil
}

// Delete removes a user.
func (b *Backend) Delete(_ context.Context, req map[string]any) (grpcapi.Reply, error) {
	id, err := userID(req)
	if err != nil {
		return grpcapi.Reply{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[id]; !ok {
		return grpcapi.Reply{}, notFound(catalog(req), id)
	}
	delete(b.users, id)
	b.order = slices.DeleteFunc(b.order, func(candidate string) bool { return candidate == id })
	return grpcapi.Reply{Data: map[string]any{"id": b.numericID(id)}}, nil
}

func (b *Backend) authorized(next grpcapi.Handler) grpcapi.Handler {
	return func(ctx context.Context, req map[string]any) (grpcapi.Reply, error) {
		token := stringField(req, paramToken)
		b.mu.Lock()
		email, ok := b.sessions[token]
		b.mu.Unlock()
		if token == "" || !ok {
			return grpcapi.Reply{}, platformerrors.New(platformerrors.CodeSessionExpired, catalog(req).Format(i18n.CodeSessionExpired, nil))
		}
		return next(requestctx.WithCaller(ctx, requestctx.Caller{Email: email, Token: token}), req)
	}
}

func (b *Backend) insertLocked(name string) map[string]any {
	id := strconv.Itoa(b.nextID)
	user := map[string]any{"id": b.nextID, "name": name}
	b.nextID++
	b.users[id] = user
	b.order = append(b.order, id)
	return user
}

func (b *Backend) numericID(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

func userID(req map[string]any) (string, error) {
	id, err := payload.ToID(req["id"])
	if err != nil || id == "" {
		msgs := catalog(req)
		return "", &platformerrors.Error{
			Code:       platformerrors.CodeUserInvalidID,
			Message:    msgs.Format(i18n.CodeUserInvalidID, nil),
			Violations: []platformerrors.FieldViolation{required(msgs, "id")},
		}
	}
	return string(id), nil
}

func notFound(msgs *i18n.Catalog, id string) error {
	metadata := map[string]string{"id": id}
	return &platformerrors.Error{
		Code:     platformerrors.CodeNotFound,
		Message:  msgs.Format(i18n.CodeNotFound, metadata),
		Metadata: metadata,
	}
}

func emptyName(msgs *i18n.Catalog) error {
	return &platformerrors.Error{
		Code:       platformerrors.CodeUserEmptyName,
		Message:    msgs.Format(i18n.CodeUserEmptyName, nil),
		Violations: []platformerrors.FieldViolation{required(msgs, "name")},
	}
}

func required(msgs *i18n.Catalog, field string) platformerrors.FieldViolation {
	return platformerrors.FieldViolation{
		Field:       field,
		Description: msgs.Format(i18n.KeyFieldRequired, map[string]string{"field": field}),
	}
}

// catalog picks messages for the request's locale parameter.
func catalog(req map[string]any) *i18n.Catalog {
	return i18n.GetCatalog(stringField(req, paramLocale))
}

func stringField(req map[string]any, key string) string {
	s, _ := req[key].(string)
	return s
}

func intField(req map[string]any, key string) int {
	switch v := req[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
