package app

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

func TestSessionCaptureAndAuthorize(t *testing.T) {
	session := &Session{}
	loginAPI := session.Capture(func(context.Context, payload.Params) (*payload.Response, error) {
		return &payload.Response{Data: map[string]any{paramToken: "session-1"}}, nil
	})
	if _, err := loginAPI(context.Background(), payload.Params{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := session.Token(); got != "session-1" {
		t.Fatalf("token = %q, want session-1", got)
	}

	var seen payload.Params
	api := session.Authorize(func(_ context.Context, params payload.Params) (*payload.Response, error) {
		seen = params
		return &payload.Response{}, nil
	})
	params := payload.Params{"id": 1}
	if _, err := api(context.Background(), params); err != nil {
		t.Fatalf("call: %v", err)
	}
	if seen[paramToken] != "session-1" || seen["id"] != 1 {
		t.Fatalf("params = %v, want id and token", seen)
	}
	if _, ok := params[paramToken]; ok {
		t.Fatal("caller params were modified")
	}

	session.Clear()
	if _, err := api(context.Background(), payload.Params{}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if _, ok := seen[paramToken]; ok {
		t.Fatal("cleared session should not send a token")
	}
}

func TestSessionCaptureIgnoresFailures(t *testing.T) {
	session := &Session{}
	wantErr := errors.New("boom")
	api := session.Capture(func(context.Context, payload.Params) (*payload.Response, error) {
		return nil, wantErr
	})
	if _, err := api(context.Background(), nil); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if session.Token() != "" {
		t.Fatal("failed call should not set a token")
	}
}
