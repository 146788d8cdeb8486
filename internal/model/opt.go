package model

import (
	"bytes"
	"encoding/json"
)

// Opt is an explicitly optional value. The zero Opt is absent, which keeps
// "fetched, value is zero" distinct from "not fetched".
type Opt[T any] struct {
	Val   T
	Valid bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Val: v, Valid: true}
}

// None returns an absent Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// FromPtr converts a nullable pointer into an Opt.
func FromPtr[T any](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.Val, o.Valid
}

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if !o.Valid {
		return def
	}
	return o.Val
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Opt[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Val
	return &v
}

// MarshalJSON encodes an absent value as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Val)
}

// UnmarshalJSON decodes null as absent.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes an absent value as null.
func (o Opt[T]) MarshalYAML() (any, error) {
	if !o.Valid {
		return nil, nil
	}
	return o.Val, nil
}

// Nonzero reports whether o is present and not zero. This is the condition
// under which a primary metric suppresses its gap-fill fallback.
func Nonzero(o Opt[float64]) bool {
	return o.Valid && o.Val != 0
}

// Scale multiplies a present value by f and leaves an absent one absent.
func Scale(o Opt[float64], f float64) Opt[float64] {
	if !o.Valid {
		return o
	}
	return Some(o.Val * f)
}

// FirstNonzero returns the first present, nonzero option, or an absent one.
func FirstNonzero(opts ...Opt[float64]) Opt[float64] {
	for _, o := range opts {
		if Nonzero(o) {
			return o
		}
	}
	return Opt[float64]{}
}
