package id

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

func decode(t *testing.T, id string) uuid.UUID {
	t.Helper()
	raw, err := encoding.DecodeString(strings.ToUpper(id))
	if err != nil {
		t.Fatalf("decode %q: %v", id, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		t.Fatalf("uuid from %d bytes: %v", len(raw), err)
	}
	return u
}

func TestNewIDFormat(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("len = %d, want 26", len(id))
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("id %q has unexpected character %q", id, r)
		}
	}
}

func TestNewIDIsRandomUUID(t *testing.T) {
	u := decode(t, mustID(t))
	if u.Version() != 4 {
		t.Fatalf("version = %d, want 4", u.Version())
	}
	if u.Variant() != uuid.RFC4122 {
		t.Fatalf("variant = %v, want RFC4122", u.Variant())
	}
}

// Session tokens travel as gRPC struct fields and as request params, and
// are looked up by exact string match on the way back.
func TestNewIDSurvivesSessionTokenRoundTrip(t *testing.T) {
	token := mustID(t)

	if escaped := url.QueryEscape(token); escaped != token {
		t.Fatalf("query escape = %q, want token unchanged", escaped)
	}

	wire, err := structpb.NewStruct(map[string]any{"email": "a@example.com", "token": token})
	if err != nil {
		t.Fatalf("encode reply: %v", err)
	}
	back, ok := wire.AsMap()["token"].(string)
	if !ok || back != token {
		t.Fatalf("token after struct round trip = %v, want %q", wire.AsMap()["token"], token)
	}

	sessions := map[string]string{token: "a@example.com"}
	if sessions[back] != "a@example.com" {
		t.Fatalf("session lookup by %q failed", back)
	}
	if decode(t, back) != decode(t, token) {
		t.Fatal("decoded uuid changed across the round trip")
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := mustID(t)
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func mustID(t *testing.T) string {
	t.Helper()
	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	return id
}
