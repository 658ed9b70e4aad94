// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer identity.Close()

	plaintext := []byte("0123456789abcdef0123456789abcdef")
	ciphertext, err := Seal(append([]byte(nil), plaintext...), []string{identity.Public})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	unsealed, err := Unseal(ciphertext, identity.Private)
	if err != nil {
		t.Fatalf("Unseal: %v", err)
	}
	defer unsealed.Close()

	if !bytes.Equal(unsealed.Bytes(), plaintext) {
		t.Errorf("round trip = %q, want %q", unsealed.Bytes(), plaintext)
	}
}

func TestSealToMultipleRecipients(t *testing.T) {
	first, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer first.Close()
	second, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer second.Close()

	ciphertext, err := Seal([]byte("shared key material"), []string{first.Public, second.Public})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for name, identity := range map[string]*Identity{"first": first, "second": second} {
		unsealed, err := Unseal(ciphertext, identity.Private)
		if err != nil {
			t.Errorf("%s recipient failed to unseal: %v", name, err)
			continue
		}
		unsealed.Close()
	}
}

func TestUnsealWithWrongIdentityFails(t *testing.T) {
	owner, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer owner.Close()
	stranger, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer stranger.Close()

	ciphertext, err := Seal([]byte("not for strangers"), []string{owner.Public})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := Unseal(ciphertext, stranger.Private); err == nil {
		t.Error("Unseal with the wrong identity succeeded")
	}
}

func TestSealRequiresRecipients(t *testing.T) {
	if _, err := Seal([]byte("anything"), nil); err == nil {
		t.Error("Seal with no recipients succeeded")
	}
}

func TestParseRecipient(t *testing.T) {
	identity, err := GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	defer identity.Close()

	if err := ParseRecipient(identity.Public); err != nil {
		t.Errorf("ParseRecipient(%q): %v", identity.Public, err)
	}
	if err := ParseRecipient("age1notakey"); err == nil {
		t.Error("ParseRecipient accepted a malformed key")
	}
}
