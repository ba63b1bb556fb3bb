// Package payload defines the values carried by lifecycle events and the
// shapes exchanged with API collaborators.
package payload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingID indicates an entity without a readable id field.
var ErrMissingID = errors.New("entity id is missing")

// ID identifies an entity in the item cache and id listings.
type ID string

// Identifier is implemented by typed entities that expose their id.
type Identifier interface {
	EntityID() ID
}

// Params are the API parameters extracted from a trigger payload.
type Params map[string]any

// ID returns the entity id carried in the "id" parameter.
func (p Params) ID() (ID, bool) {
	if p == nil {
		return "", false
	}
	raw, ok := p["id"]
	if !ok {
		return "", false
	}
	id, err := ToID(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// Response is a successful API result.
//
// Data holds a single entity, a []any listing, or Entities once a listing
// has been normalized. IDs is only set by normalization.
type Response struct {
	Data     any
	IDs      []ID
	Metadata map[string]any
}

// Entities maps entity ids to entity values.
type Entities map[ID]any

// APIError is a failed API result.
type APIError struct {
	Status  int
	Message string
	Errors  []string
	Fields  map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	case e.Message != "":
		return e.Message
	case len(e.Errors) > 0:
		return strings.Join(e.Errors, "; ")
	case e.Status != 0:
		return fmt.Sprintf("api error %d", e.Status)
	default:
		return "api error"
	}
}

// Details returns the error details recorded against a request: the
// explicit error list when present, otherwise the message.
func (e *APIError) Details() []string {
	if e == nil {
		return nil
	}
	if len(e.Errors) > 0 {
		return append([]string(nil), e.Errors...)
	}
	if e.Message != "" {
		return []string{e.Message}
	}
	return nil
}

// AsAPIError converts any error into an APIError. Errors that already wrap
// an APIError are unwrapped; others keep their message with no status.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr
	}
	return &APIError{Message: err.Error()}
}

// Request is the payload of a request event.
type Request struct {
	Params Params
}

// Success is the payload of a success event.
type Success struct {
	Response Response
	Params   Params
}

// Failure is the payload of a failure event.
type Failure struct {
	Error  *APIError
	Params Params
}

// ParamsOf returns the params carried by a lifecycle payload.
func ParamsOf(value any) Params {
	switch p := value.(type) {
	case Request:
		return p.Params
	case Success:
		return p.Params
	case Failure:
		return p.Params
	case *Request:
		if p != nil {
			return p.Params
		}
	case *Success:
		if p != nil {
			return p.Params
		}
	case *Failure:
		if p != nil {
			return p.Params
		}
	}
	return nil
}

// ErrorOf returns the API error carried by a failure payload, if any.
func ErrorOf(value any) *APIError {
	switch p := value.(type) {
	case Failure:
		return p.Error
	case *Failure:
		if p != nil {
			return p.Error
		}
	}
	return nil
}

// ToID converts a raw id value into an ID. Numbers use their shortest
// decimal form so 1 and 1.0 both become "1".
func ToID(raw any) (ID, error) {
	switch v := raw.(type) {
	case ID:
		return v, nil
	case string:
		return ID(v), nil
	case int:
		return ID(strconv.Itoa(v)), nil
	case int32:
		return ID(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return ID(strconv.FormatInt(v, 10)), nil
	case uint:
		return ID(strconv.FormatUint(uint64(v), 10)), nil
	case uint32:
		return ID(strconv.FormatUint(uint64(v), 10)), nil
	case uint64:
		return ID(strconv.FormatUint(v, 10)), nil
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case fmt.Stringer:
		return ID(v.String()), nil
	case nil:
		return "", ErrMissingID
	default:
		return "", fmt.Errorf("unsupported id type %T", raw)
	}
}

func formatFloat(v float64) (ID, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("invalid numeric id %v", v)
	}
	return ID(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// IDOf reads the id of an entity.
func IDOf(entity any) (ID, error) {
	switch e := entity.(type) {
	case Identifier:
		return e.EntityID(), nil
	case map[string]any:
		raw, ok := e["id"]
		if !ok {
			return "", ErrMissingID
		}
		return ToID(raw)
	default:
		return "", fmt.Errorf("%w: unsupported entity type %T", ErrMissingID, entity)
	}
}
