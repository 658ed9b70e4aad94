// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers shared by the registry and
// gateway clients.
//
// All response body reads are bounded at MaxResponseSize to prevent
// unbounded memory allocation from a misbehaving or malicious server.
// These helpers are for API responses (registry mappings, snapshot
// documents, chunk payloads) — not for streaming transfers, which
// should be read incrementally with io.Copy.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on response body reads: 256 MB. This
// exists solely to prevent a pathological response from exhausting
// system memory; legitimate registry mappings and snapshot documents
// are orders of magnitude smaller, and chunk payloads are sized by the
// writer's chunking policy well below it.
const MaxResponseSize int64 = 256 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON response body (up to MaxResponseSize
// bytes) and decodes it into v. Replaces the common io.ReadAll +
// json.Unmarshal pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored — a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
