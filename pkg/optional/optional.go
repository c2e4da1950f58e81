package optional

import "encoding/json"

// Value wraps a JSON field so callers can tell a field that was omitted from
// the payload apart from one explicitly set to null. Only fields present in
// the request body have Set == true.
type Value[T any] struct {
	Val  T
	Set  bool
	Null bool
}

// Of returns a present, non-null value. Mostly used in tests and internal
// callers that build partial updates programmatically.
func Of[T any](v T) Value[T] {
	return Value[T]{Val: v, Set: true}
}

// Null returns a present but explicitly-null value.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Get returns the wrapped value and whether it is present and non-null.
func (v Value[T]) Get() (T, bool) {
	if !v.Set || v.Null {
		var zero T
		return zero, false
	}
	return v.Val, true
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if string(data) == "null" {
		v.Null = true
		return nil
	}
	return json.Unmarshal(data, &v.Val)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Set || v.Null {
		return []byte("null"), nil
	}
	return json.Marshal(v.Val)
}
