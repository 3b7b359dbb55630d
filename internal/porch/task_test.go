package porch_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/wtsi-npg/npg-notifications/internal/porch"
)

// sumInput is a minimal task kind used across the package tests.
type sumInput struct {
	A int
	B int
}

type sumCodec struct{}

func (sumCodec) Encode(input sumInput) (porch.Payload, error) {
	return porch.Payload{"a": input.A, "b": input.B}, nil
}

func (sumCodec) Decode(payload porch.Payload) (sumInput, error) {
	a, ok := asInt(payload["a"])
	if !ok {
		return sumInput{}, fmt.Errorf("%w: field a missing or not an integer", porch.ErrValidation)
	}
	b, ok := asInt(payload["b"])
	if !ok {
		return sumInput{}, fmt.Errorf("%w: field b missing or not an integer", porch.ErrValidation)
	}
	return sumInput{A: a, B: b}, nil
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

func TestKeyIgnoresStatus(t *testing.T) {
	codec := sumCodec{}

	a := porch.NewTask(sumInput{A: 10, B: 42})
	b := porch.Task[sumInput]{Input: sumInput{A: 10, B: 42}, Status: porch.StatusDone}

	keyA, err := porch.Key(codec, a.Input)
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	keyB, err := porch.Key(codec, b.Input)
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	if keyA != keyB {
		t.Fatalf("tasks with equal inputs have different keys: %q vs %q", keyA, keyB)
	}

	equal, err := porch.Equal(codec, a.Input, b.Input)
	if err != nil {
		t.Fatalf("Equal returned error: %v", err)
	}
	if !equal {
		t.Fatal("tasks with equal inputs should be equal regardless of status")
	}
}

func TestKeyDistinguishesContent(t *testing.T) {
	codec := sumCodec{}
	equal, err := porch.Equal(codec, sumInput{A: 10, B: 42}, sumInput{A: 10, B: 99})
	if err != nil {
		t.Fatalf("Equal returned error: %v", err)
	}
	if equal {
		t.Fatal("tasks with different inputs must not be equal")
	}
}

func TestPayloadKeyCanonicalizesNumbers(t *testing.T) {
	// A locally built int and a JSON-decoded float64 must canonicalize
	// to the same key, or round trips through the server would change
	// task identity.
	local := porch.Payload{"a": 1, "b": 2}

	var remote porch.Payload
	if err := json.Unmarshal([]byte(`{"b":2,"a":1}`), &remote); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	localKey, err := local.Key()
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	remoteKey, err := remote.Key()
	if err != nil {
		t.Fatalf("Key returned error: %v", err)
	}
	if localKey != remoteKey {
		t.Fatalf("canonical keys differ: %q vs %q", localKey, remoteKey)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := sumCodec{}
	original := sumInput{A: 7, B: 12}

	payload, err := codec.Encode(original)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	// Simulate the server round trip: payloads come back JSON-decoded.
	wire, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded porch.Payload
	if err := json.Unmarshal(wire, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := codec.Decode(decoded)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if restored != original {
		t.Fatalf("round trip changed the task: %+v vs %+v", restored, original)
	}

	equal, err := porch.Equal(codec, original, restored)
	if err != nil {
		t.Fatalf("Equal returned error: %v", err)
	}
	if !equal {
		t.Fatal("round-tripped task should equal the original")
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	codec := sumCodec{}
	_, err := codec.Decode(porch.Payload{"a": "ten"})
	if !errors.Is(err, porch.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	for _, status := range porch.AllStatuses() {
		parsed, ok := porch.ParseStatus(string(status))
		if !ok || parsed != status {
			t.Fatalf("ParseStatus(%q) = %q, %v", status, parsed, ok)
		}
	}
	if _, ok := porch.ParseStatus("SLEEPING"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := porch.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}
