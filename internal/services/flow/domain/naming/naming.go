// Package naming derives lifecycle event types from a descriptor name and
// classifies the name's CRUD verb.
package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/event"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrNameRequired indicates an empty descriptor name.
	ErrNameRequired = errors.New("descriptor name is required")
	// ErrNameWhitespace indicates a descriptor name containing whitespace.
	ErrNameWhitespace = errors.New("descriptor name must not contain whitespace")
)

// Verb is the CRUD classification of a descriptor name.
type Verb int

const (
	VerbOther Verb = iota
	VerbCreate
	VerbUpdate
	VerbDetail
	VerbDelete
	VerbGetAll
)

var verbPrefixes = []struct {
	prefix string
	verb   Verb
}{
	{prefix: "create_", verb: VerbCreate},
	{prefix: "update_", verb: VerbUpdate},
	{prefix: "detail_", verb: VerbDetail},
	{prefix: "delete_", verb: VerbDelete},
	{prefix: "getall_", verb: VerbGetAll},
}

// String returns the lower-case verb label used in telemetry attributes.
func (v Verb) String() string {
	switch v {
	case VerbCreate:
		return "create"
	case VerbUpdate:
		return "update"
	case VerbDetail:
		return "detail"
	case VerbDelete:
		return "delete"
	case VerbGetAll:
		return "getall"
	default:
		return "other"
	}
}

// KeyedByID reports whether request status for this verb is tracked per
// entity id rather than per verb token.
func (v Verb) KeyedByID() bool {
	return v == VerbUpdate || v == VerbDetail
}

// Classify returns the verb of name. The first matching prefix wins and the
// test ignores case; names without a known prefix are VerbOther.
func Classify(name string) Verb {
	for _, candidate := range verbPrefixes {
		if event.HasPrefixFold(name, candidate.prefix) {
			return candidate.verb
		}
	}
	return VerbOther
}

// Types holds the four lifecycle event types derived from one name.
type Types struct {
	Request event.Type
	Success event.Type
	Failure event.Type
	Trigger event.Type
}

// TypesFor derives the lifecycle types for name.
func TypesFor(name string) Types {
	return Types{
		Request: event.Type(name + event.SuffixRequest),
		Success: event.Type(name + event.SuffixSuccess),
		Failure: event.Type(name + event.SuffixFailure),
		Trigger: event.Type(event.PrefixTrigger + name),
	}
}

// Owns reports whether t is the request, success or failure type.
func (t Types) Owns(typ event.Type) bool {
	return typ == t.Request || typ == t.Success || typ == t.Failure
}

// Validate checks that name can produce well-formed event types.
func Validate(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrNameWhitespace, name)
	}
	return nil
}

// RequestKeyToken derives the request key for actions that are not keyed by
// entity id. It takes the first underscore-separated segment of the
// dispatched type, drops its first run of non-letters and lower-cases it.
// The key comes from the event type, not the descriptor name, so two
// descriptors sharing a first segment share a request entry.
func RequestKeyToken(typ event.Type) string {
	segment, _, _ := strings.Cut(string(typ), "_")
	start := strings.IndexFunc(segment, notASCIILetter)
	if start >= 0 {
		end := start + strings.IndexFunc(segment[start:], isASCIILetter)
		if end < start {
			end = len(segment)
		}
		segment = segment[:start] + segment[end:]
	}
	return strings.ToLower(segment)
}

// ActionKey returns the camelCase key of the trigger creator for name, for
// example "GETALL_USERS" becomes "doGetallUsers".
func ActionKey(name string) string {
	lowered := []rune(cases.Lower(language.Und).String(event.PrefixTrigger + name))
	upper := cases.Upper(language.Und)
	var b strings.Builder
	for i := 0; i < len(lowered); i++ {
		r := lowered[i]
		if (r == '-' || r == '_') && i+1 < len(lowered) && isASCIILetter(lowered[i+1]) {
			b.WriteString(upper.String(string(lowered[i+1])))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func notASCIILetter(r rune) bool {
	return !isASCIILetter(r)
}
