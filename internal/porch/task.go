package porch

import (
	"encoding/json"
	"fmt"
)

// Payload is the serialized content of a task: a flat mapping of field
// name to JSON-compatible value, fully reconstructible by a Codec.
type Payload map[string]any

// Key returns the canonical form of the payload. Two payloads with the
// same fields and values produce the same key regardless of how the
// values were produced (a local int and a decoded JSON number
// canonicalize identically).
func (p Payload) Key() (string, error) {
	// encoding/json writes map keys in sorted order, which makes the
	// marshalled form canonical.
	encoded, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	return string(encoded), nil
}

// Codec converts one task kind to and from its wire payload. A codec is
// chosen once at client construction; task kinds implement it
// explicitly rather than being discovered through reflection.
type Codec[T any] interface {
	// Encode returns the payload for the input. Implementations should
	// reject inputs with missing or out-of-range fields, wrapping
	// ErrValidation.
	Encode(input T) (Payload, error)

	// Decode reconstructs an input from a payload received from the
	// server. Implementations must reject payloads with absent or
	// wrongly shaped required fields, wrapping ErrValidation.
	Decode(payload Payload) (T, error)
}

// Task pairs a task input with the status last confirmed by the server.
// The identity of a task is its encoded input only; status never
// contributes. Status starts at PENDING and is replaced solely from
// server responses, never assumed locally.
type Task[T any] struct {
	Input  T
	Status Status
}

// NewTask wraps an input as a pending task ready to be added.
func NewTask[T any](input T) Task[T] {
	return Task[T]{Input: input, Status: StatusPending}
}

// Key returns the canonical identity of an input under the codec.
func Key[T any](codec Codec[T], input T) (string, error) {
	payload, err := codec.Encode(input)
	if err != nil {
		return "", err
	}
	return payload.Key()
}

// Equal reports whether two inputs are the same task by content
// identity. Tasks with equal keys are the same task to the server even
// when their recorded statuses differ.
func Equal[T any](codec Codec[T], a, b T) (bool, error) {
	keyA, err := Key(codec, a)
	if err != nil {
		return false, err
	}
	keyB, err := Key(codec, b)
	if err != nil {
		return false, err
	}
	return keyA == keyB, nil
}
