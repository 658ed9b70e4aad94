// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire form of snapshot creation times: UTC,
// second precision, trailing Z. Parsing is strict — fractional
// seconds, numeric zone offsets, or missing Z are rejected rather
// than silently accepted, so a malformed producer is caught at the
// first fetch instead of corrupting as-of comparisons later.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC, second-precision instant in the strict snapshot
// wire form. It exists as its own type so both JSON documents and
// CBOR cache entries round-trip the exact wire layout.
type Timestamp time.Time

// NewTimestamp converts t to UTC and truncates it to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Truncate(time.Second))
}

// Time returns the instant as a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// String returns the wire form.
func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(TimestampLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timestamp) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("invalid snapshot timestamp %q: %w", s, err)
	}
	// time.Parse tolerates fractional seconds even when the layout
	// carries none; the round-trip comparison rejects them.
	if parsed.Format(TimestampLayout) != s {
		return fmt.Errorf("invalid snapshot timestamp %q: want exact form %q", s, TimestampLayout)
	}
	*t = Timestamp(parsed)
	return nil
}

// Relation tags accepted for the predecessor link. "prev" appears in
// documents written before the schema settled on "previous"; both
// must resolve forever because published snapshots are immutable.
var previousRelations = map[string]bool{
	"previous": true,
	"prev":     true,
}

// Link relates a snapshot to another document in the content network.
type Link struct {
	// Rel names the relationship, for example "previous".
	Rel string `json:"rel"`

	// Target is the linked document's content id.
	Target ContentID `json:"target"`
}

// VersionSnapshot is one immutable version document. Snapshots form a
// singly-linked list newest → oldest: each non-root snapshot links to
// its predecessor, and the chain is reachable from the pointer's
// current head.
type VersionSnapshot struct {
	// ID is the content id of this document's bytes. Derived, never
	// serialized: embedding the id inside the document it hashes
	// would be circular.
	ID ContentID `json:"-"`

	// Dataset is the key this snapshot belongs to. Informational;
	// resolution never depends on it.
	Dataset string `json:"dataset,omitempty"`

	// CreatedAt is the publication instant of this version.
	CreatedAt Timestamp `json:"created_at"`

	// Links holds related documents. At most one entry may carry a
	// predecessor relation.
	Links []Link `json:"links,omitempty"`

	// Payload is the content id of the version's data root.
	Payload ContentID `json:"payload"`

	// Size is the payload size in bytes, when the producer recorded
	// it. Zero means unknown.
	Size int64 `json:"size,omitempty"`

	// Description is optional markdown describing the dataset at
	// this version.
	Description string `json:"description,omitempty"`
}

// Previous returns the predecessor snapshot id. The second return is
// false for a root snapshot (no predecessor link).
func (s *VersionSnapshot) Previous() (ContentID, bool) {
	for _, link := range s.Links {
		if previousRelations[link.Rel] {
			return link.Target, true
		}
	}
	return ContentID{}, false
}

// ParseSnapshot decodes and validates one snapshot document. The id
// is the content id the document was fetched under; callers verify
// that the bytes hash to it before parsing.
func ParseSnapshot(id ContentID, document []byte) (*VersionSnapshot, error) {
	var snapshot VersionSnapshot
	if err := json.Unmarshal(document, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", id.Short(), err)
	}
	snapshot.ID = id
	if err := snapshot.validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id.Short(), err)
	}
	return &snapshot, nil
}

// validate enforces the document invariants: a creation time, a
// payload reference, and at most one predecessor link.
func (s *VersionSnapshot) validate() error {
	if s.CreatedAt.Time().IsZero() {
		return fmt.Errorf("missing created_at")
	}
	if s.Payload.IsZero() {
		return fmt.Errorf("missing payload reference")
	}
	predecessors := 0
	for _, link := range s.Links {
		if !previousRelations[link.Rel] {
			continue
		}
		if link.Target.IsZero() {
			return fmt.Errorf("link %q has no target", link.Rel)
		}
		predecessors++
	}
	if predecessors > 1 {
		return fmt.Errorf("%d predecessor links, want at most 1", predecessors)
	}
	return nil
}
