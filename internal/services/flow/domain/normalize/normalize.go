// Package normalize converts list-shaped API responses into an id-keyed
// entity map plus the ordered id sequence.
package normalize

import (
	"fmt"
	"reflect"

	"github.com/louisbranch/resourceflow/internal/services/flow/domain/payload"
)

// List keys entities by id and records their order. Duplicate ids keep the
// last entity but the first position.
func List(entities []any) (payload.Entities, []payload.ID, error) {
	byID := make(payload.Entities, len(entities))
	ids := make([]payload.ID, 0, len(entities))
	for i, entity := range entities {
		id, err := payload.IDOf(entity)
		if err != nil {
			return nil, nil, fmt.Errorf("normalize entity %d: %w", i, err)
		}
		if _, seen := byID[id]; !seen {
			ids = append(ids, id)
		}
		byID[id] = entity
	}
	return byID, ids, nil
}

// Response normalizes resp when its data is a sequence. Any other response
// is returned unchanged. The input is never modified.
func Response(resp payload.Response) (payload.Response, error) {
	entities, ok := asSequence(resp.Data)
	if !ok {
		return resp, nil
	}
	byID, ids, err := List(entities)
	if err != nil {
		return payload.Response{}, err
	}
	resp.Data = byID
	resp.IDs = ids
	return resp, nil
}

// asSequence reports whether data is a slice and returns its elements.
// Typed slices such as []map[string]any are accepted as well as []any.
func asSequence(data any) ([]any, bool) {
	switch v := data.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
