// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// snapshotDocument builds a minimal valid document with the given
// extra fields spliced in.
func snapshotDocument(t *testing.T, extra string) []byte {
	t.Helper()
	payload := ContentIDFor([]byte("payload"))
	doc := fmt.Sprintf(`{"created_at": "2024-03-01T12:00:00Z", "payload": %q%s}`, payload.String(), extra)
	return []byte(doc)
}

func TestParseSnapshot(t *testing.T) {
	previous := ContentIDFor([]byte("older version"))
	document := snapshotDocument(t, fmt.Sprintf(
		`, "dataset": "ghcnd-daily", "size": 42, "links": [{"rel": "previous", "target": %q}]`,
		previous.String()))
	id := ContentIDFor(document)

	snapshot, err := ParseSnapshot(id, document)
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}

	if snapshot.ID != id {
		t.Errorf("ID = %s, want %s", snapshot.ID, id)
	}
	if snapshot.Dataset != "ghcnd-daily" {
		t.Errorf("Dataset = %q, want %q", snapshot.Dataset, "ghcnd-daily")
	}
	if snapshot.Size != 42 {
		t.Errorf("Size = %d, want 42", snapshot.Size)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !snapshot.CreatedAt.Time().Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", snapshot.CreatedAt.Time(), want)
	}

	target, ok := snapshot.Previous()
	if !ok {
		t.Fatal("Previous() found no predecessor link")
	}
	if target != previous {
		t.Errorf("Previous() = %s, want %s", target, previous)
	}
}

func TestPreviousAcceptsLegacyRelation(t *testing.T) {
	// Documents written before the schema settled on "previous" carry
	// "prev". Both must resolve identically.
	previous := ContentIDFor([]byte("legacy predecessor"))

	for _, rel := range []string{"previous", "prev"} {
		document := snapshotDocument(t, fmt.Sprintf(
			`, "links": [{"rel": %q, "target": %q}]`, rel, previous.String()))
		snapshot, err := ParseSnapshot(ContentIDFor(document), document)
		if err != nil {
			t.Fatalf("rel %q: ParseSnapshot: %v", rel, err)
		}
		target, ok := snapshot.Previous()
		if !ok {
			t.Fatalf("rel %q: Previous() found no predecessor", rel)
		}
		if target != previous {
			t.Errorf("rel %q: Previous() = %s, want %s", rel, target, previous)
		}
	}
}

func TestPreviousIgnoresUnrelatedLinks(t *testing.T) {
	other := ContentIDFor([]byte("license document"))
	document := snapshotDocument(t, fmt.Sprintf(
		`, "links": [{"rel": "license", "target": %q}]`, other.String()))

	snapshot, err := ParseSnapshot(ContentIDFor(document), document)
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	if _, ok := snapshot.Previous(); ok {
		t.Error("Previous() followed a non-predecessor link")
	}
}

func TestParseSnapshotRejectsMalformedDocuments(t *testing.T) {
	payload := ContentIDFor([]byte("payload")).String()
	target := ContentIDFor([]byte("target")).String()

	cases := []struct {
		name     string
		document string
	}{
		{"not json", `not a document`},
		{"missing created_at", fmt.Sprintf(`{"payload": %q}`, payload)},
		{"missing payload", `{"created_at": "2024-03-01T12:00:00Z"}`},
		{"fractional seconds", fmt.Sprintf(`{"created_at": "2024-03-01T12:00:00.500Z", "payload": %q}`, payload)},
		{"numeric zone", fmt.Sprintf(`{"created_at": "2024-03-01T12:00:00+00:00", "payload": %q}`, payload)},
		{"two predecessors", fmt.Sprintf(
			`{"created_at": "2024-03-01T12:00:00Z", "payload": %q, "links": [{"rel": "previous", "target": %q}, {"rel": "prev", "target": %q}]}`,
			payload, target, target)},
		{"predecessor without target", fmt.Sprintf(
			`{"created_at": "2024-03-01T12:00:00Z", "payload": %q, "links": [{"rel": "previous", "target": ""}]}`,
			payload)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			document := []byte(tc.document)
			if _, err := ParseSnapshot(ContentIDFor(document), document); err == nil {
				t.Error("ParseSnapshot succeeded, want error")
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	instant := time.Date(2023, 11, 5, 8, 30, 59, 999_000_000, time.FixedZone("CET", 3600))
	stamp := NewTimestamp(instant)

	text := stamp.String()
	if !strings.HasSuffix(text, "Z") {
		t.Errorf("String() = %q, want trailing Z", text)
	}

	var decoded Timestamp
	if err := decoded.UnmarshalText([]byte(text)); err != nil {
		t.Fatalf("UnmarshalText(%q): %v", text, err)
	}
	// NewTimestamp truncates to seconds and converts to UTC, so the
	// round trip must land on 07:30:59Z exactly.
	want := time.Date(2023, 11, 5, 7, 30, 59, 0, time.UTC)
	if !decoded.Time().Equal(want) {
		t.Errorf("round trip = %v, want %v", decoded.Time(), want)
	}
}

func TestErrorKinds(t *testing.T) {
	err := Errorf(KindDatasetNotFound, "dataset %q not known to registry or cache", "missing")

	if !IsKind(err, KindDatasetNotFound) {
		t.Error("IsKind(KindDatasetNotFound) = false, want true")
	}
	if IsKind(err, KindIntegrity) {
		t.Error("IsKind(KindIntegrity) = true for a not-found error")
	}

	// Wrapping with fmt.Errorf must preserve the kind.
	wrapped := fmt.Errorf("resolving: %w", err)
	if !IsKind(wrapped, KindDatasetNotFound) {
		t.Error("kind lost after wrapping with fmt.Errorf")
	}
	kinded, ok := AsError(wrapped)
	if !ok {
		t.Fatal("AsError did not find the structured error in the chain")
	}
	if kinded.Kind != KindDatasetNotFound {
		t.Errorf("Kind = %v, want KindDatasetNotFound", kinded.Kind)
	}
}

func TestErrorfWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Errorf(KindUnavailable, "fetching registry: %w", cause)

	if err.Err == nil {
		t.Fatal("Errorf with %w left Err nil")
	}
	if got := err.Error(); !strings.Contains(got, "connection refused") {
		t.Errorf("Error() = %q, want it to contain the cause text", got)
	}
	// The cause appears exactly once in the rendered message.
	if count := strings.Count(err.Error(), "connection refused"); count != 1 {
		t.Errorf("cause rendered %d times, want 1", count)
	}
}

func TestKindString(t *testing.T) {
	kinds := []Kind{
		KindUnknown, KindDatasetNotFound, KindNoMetadataFound,
		KindIntegrity, KindMisconfigured, KindInvalidKey,
		KindUnavailable, KindChainTooDeep,
	}
	seen := make(map[string]Kind)
	for _, kind := range kinds {
		label := kind.String()
		if label == "" {
			t.Errorf("Kind(%d).String() is empty", kind)
		}
		if prior, dup := seen[label]; dup {
			t.Errorf("kinds %d and %d share the label %q", prior, kind, label)
		}
		seen[label] = kind
	}
}
