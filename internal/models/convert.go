package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// validatable is satisfied by pointers to entities and patches.
type validatable[T any] interface {
	*T
	Validate() error
}

// serverFields are owned by the store and never sent in an update.
var serverFields = []string{"id", "owner_id", "created_at", "updated_at"}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return nil
}

// DecodeRow converts a raw stored row into a validated entity. Unknown
// columns and invalid values are rejected.
func DecodeRow[T any, PT validatable[T]](data []byte) (*T, error) {
	var v T
	if err := decodeStrict(data, &v); err != nil {
		return nil, err
	}
	if err := PT(&v).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return &v, nil
}

// DecodeRows converts a JSON array of stored rows into validated entities.
func DecodeRows[T any, PT validatable[T]](data []byte) ([]T, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		v, err := DecodeRow[T, PT](r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, *v)
	}
	return out, nil
}

// DecodePerson converts one stored row into a Person.
func DecodePerson(data []byte) (*Person, error) { return DecodeRow[Person](data) }

// DecodeTree converts one stored row into a Tree.
func DecodeTree(data []byte) (*Tree, error) { return DecodeRow[Tree](data) }

// DecodePost converts one stored row into a Post.
func DecodePost(data []byte) (*Post, error) { return DecodeRow[Post](data) }

// DecodePatch converts a field map produced by ChangedFields (or received
// over the wire) into a typed, validated patch.
func DecodePatch[T any, PT validatable[T]](fields map[string]any) (*T, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	var v T
	if err := decodeStrict(data, &v); err != nil {
		return nil, err
	}
	if err := PT(&v).Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func toFieldMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangedFields returns the JSON fields whose values differ between old and
// updated, keyed by their wire name and carrying the updated value. Server
// owned fields are never included. A field that was emptied is reported as
// an empty list when it held a list, or null otherwise.
func ChangedFields(old, updated any) (map[string]any, error) {
	om, err := toFieldMap(old)
	if err != nil {
		return nil, fmt.Errorf("encoding old value: %w", err)
	}
	nm, err := toFieldMap(updated)
	if err != nil {
		return nil, fmt.Errorf("encoding new value: %w", err)
	}

	changed := make(map[string]any)
	for k, nv := range nm {
		if slices.Contains(serverFields, k) {
			continue
		}
		if !cmp.Equal(om[k], nv, cmpopts.EquateEmpty()) {
			changed[k] = nv
		}
	}
	for k, ov := range om {
		if _, ok := nm[k]; ok || slices.Contains(serverFields, k) {
			continue
		}
		if _, isList := ov.([]any); isList {
			changed[k] = []any{}
		} else {
			changed[k] = nil
		}
	}
	return changed, nil
}

// Equal reports whether two entities are deeply equal, treating nil and
// empty collections alike.
func Equal[T any](a, b T) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}
