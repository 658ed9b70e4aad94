// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes strata's serialization conventions: JSON
// for external interfaces (registry responses, gateway documents) and
// CBOR for local disk state (snapshot cache entries). Consumers
// import this package rather than fxamacker/cbor directly so every
// writer produces identical bytes for identical data.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical data always produces identical bytes.
var encMode cbor.EncMode

// decMode accepts standard CBOR. Unknown fields are ignored for
// forward compatibility with newer writers.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler (dataset.ContentID,
	// dataset.Timestamp) serialize as CBOR text strings via
	// MarshalText, matching their JSON form. Without this a content
	// id would serialize as a 32-entry byte array and no longer match
	// the hex form used everywhere else.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any, pick map[string]any rather
		// than the CBOR default map[any]any, which most Go code
		// (and encoding/json) cannot consume. Struct targets are
		// unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirror of TextMarshaler above for round-trip correctness.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
