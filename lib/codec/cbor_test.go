// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/strata-data/strata/lib/dataset"
)

func TestMarshalIsDeterministic(t *testing.T) {
	value := map[string]any{
		"zulu":  1,
		"alpha": "two",
		"mike":  []int{3, 4, 5},
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("second marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical maps encoded to different bytes")
	}
}

func TestContentIDEncodesAsTextString(t *testing.T) {
	id := dataset.ContentIDFor([]byte("cbor text form"))

	encoded, err := Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// A CBOR text string of the 64-char hex form, not a byte array:
	// major type 3 (0x60) with a one-byte length extension (0x78 64).
	if encoded[0] != 0x78 || encoded[1] != 64 {
		t.Fatalf("content id did not encode as a 64-byte text string: % x", encoded[:2])
	}

	var decoded dataset.ContentID
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != id {
		t.Errorf("round trip changed the id: got %s, want %s", decoded, id)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	stamp := dataset.NewTimestamp(time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC))

	encoded, err := Marshal(stamp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded dataset.Timestamp
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Time().Equal(stamp.Time()) {
		t.Errorf("round trip = %v, want %v", decoded.Time(), stamp.Time())
	}
}

func TestUnmarshalIntoAny(t *testing.T) {
	encoded, err := Marshal(map[string]any{"nested": map[string]any{"n": 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Fatalf("nested type = %T, want map[string]any", top["nested"])
	}
}
