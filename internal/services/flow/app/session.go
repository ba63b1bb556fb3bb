package app

import (
	"context"
	"sync"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/module"
	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

const paramToken = "token"

// Session holds the token issued by the backend at login.
type Session struct {
	mu    sync.Mutex
	token string
}

// Token returns the current token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Clear forgets the token.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Authorize adds the session token to the params of every call.
func (s *Session) Authorize(api module.API) module.API {
	return func(ctx context.Context, params payload.Params) (*payload.Response, error) {
		withToken := make(payload.Params, len(params)+1)
		for k, v := range params {
			withToken[k] = v
		}
		if token := s.Token(); token != "" {
			withToken[paramToken] = token
		}
		return api(ctx, withToken)
	}
}

// Capture records the token returned by a successful call.
func (s *Session) Capture(api module.API) module.API {
	return func(ctx context.Context, params payload.Params) (*payload.Response, error) {
		resp, err := api(ctx, params)
		if err != nil || resp == nil {
			return resp, err
		}
		if data, ok := resp.Data.(map[string]any); ok {
			if token, ok := data[paramToken].(string); ok {
				s.mu.Lock()
				s.token = token
				s.mu.Unlock()
			}
		}
		return resp, nil
	}
}
