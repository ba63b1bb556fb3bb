package naming

import (
	"errors"
	"testing"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
)

func TestClassify(t *testing.T) {
	cases := map[string]Verb{
		"CREATE_USER":   VerbCreate,
		"create_user":   VerbCreate,
		"UPDATE_USER":   VerbUpdate,
		"Detail_User":   VerbDetail,
		"DELETE_USER":   VerbDelete,
		"GETALL_USERS":  VerbGetAll,
		"GETALLUSERS":   VerbOther,
		"LOGIN":         VerbOther,
		"CREATEUSER":    VerbOther,
		"X_CREATE_USER": VerbOther,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestVerbKeyedByID(t *testing.T) {
	if !VerbUpdate.KeyedByID() || !VerbDetail.KeyedByID() {
		t.Fatal("expected update and detail to be keyed by id")
	}
	for _, v := range []Verb{VerbOther, VerbCreate, VerbDelete, VerbGetAll} {
		if v.KeyedByID() {
			t.Fatalf("%s should not be keyed by id", v)
		}
	}
}

func TestTypesFor(t *testing.T) {
	types := TypesFor("GETALL_USERS")
	if types.Request != "GETALL_USERS_REQUEST" {
		t.Fatalf("request = %s", types.Request)
	}
	if types.Success != "GETALL_USERS_SUCCESS" {
		t.Fatalf("success = %s", types.Success)
	}
	if types.Failure != "GETALL_USERS_FAILURE" {
		t.Fatalf("failure = %s", types.Failure)
	}
	if types.Trigger != "DO_GETALL_USERS" {
		t.Fatalf("trigger = %s", types.Trigger)
	}
	if !types.Owns(types.Success) || types.Owns(types.Trigger) || types.Owns("OTHER_SUCCESS") {
		t.Fatal("unexpected ownership result")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(""); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("Validate(\"\") = %v, want ErrNameRequired", err)
	}
	if err := Validate("GET USERS"); !errors.Is(err, ErrNameWhitespace) {
		t.Fatalf("Validate with space = %v, want ErrNameWhitespace", err)
	}
	if err := Validate("GETALL_USERS"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRequestKeyToken(t *testing.T) {
	cases := map[event.Type]string{
		"GETALL_USERS_REQUEST": "getall",
		"CREATE_USER_SUCCESS":  "create",
		"LOGIN_FAILURE":        "login",
		"GETALLUSERS_REQUEST":  "getallusers",
		"V2LIST_REQUEST":       "vlist",
		"A1B2_REQUEST":         "ab2",
		"123_REQUEST":          "",
	}
	for typ, want := range cases {
		if got := RequestKeyToken(typ); got != want {
			t.Fatalf("RequestKeyToken(%q) = %q, want %q", typ, got, want)
		}
	}
}

func TestActionKey(t *testing.T) {
	cases := map[string]string{
		"GETALL_USERS":   "doGetallUsers",
		"CREATE_USER":    "doCreateUser",
		"LOGIN":          "doLogin",
		"detail-user":    "doDetailUser",
		"UPDATE_USER_V2": "doUpdateUserV2",
		"ITEM_2":         "doItem_2",
	}
	for name, want := range cases {
		if got := ActionKey(name); got != want {
			t.Fatalf("ActionKey(%q) = %q, want %q", name, got, want)
		}
	}
}
