// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/strata-data/strata/lib/dataset"
)

// newTestClient creates a Client backed by the given httptest.Server.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	if err == nil {
		t.Fatal("NewClient accepted an empty base URL")
	}
	if !dataset.IsKind(err, dataset.KindMisconfigured) {
		t.Errorf("error kind = %v, want misconfigured", err)
	}
}

func TestHead(t *testing.T) {
	head := dataset.ContentIDFor([]byte("head snapshot document"))

	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestedPath = request.URL.EscapedPath()
		fmt.Fprintf(writer, `{"pointer": "ds/ocean-temp", "head": %q}`, head.String())
	}))
	defer server.Close()

	client := newTestClient(t, server)
	got, err := client.Head(context.Background(), "ds/ocean-temp")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if got != head {
		t.Errorf("Head = %s, want %s", got.Short(), head.Short())
	}
	// Pointers may contain slashes; they must travel escaped.
	if requestedPath != "/v0/name/ds%2Focean-temp" {
		t.Errorf("request path = %q, want the pointer path-escaped", requestedPath)
	}
}

func TestHeadUnknownPointer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestClient(t, server).Head(context.Background(), "ds/absent")
	if err == nil {
		t.Fatal("Head succeeded for an unknown pointer")
	}
	if !dataset.IsKind(err, dataset.KindDatasetNotFound) {
		t.Errorf("error kind = %v, want dataset_not_found", err)
	}
}

func TestHeadMalformedHeadID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprint(writer, `{"pointer": "ds/ocean-temp", "head": "not-hex"}`)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Head(context.Background(), "ds/ocean-temp")
	if err == nil {
		t.Fatal("Head accepted a malformed head id")
	}
}

func TestSnapshotVerifiesContentID(t *testing.T) {
	document := []byte(`{"created_at": "2026-03-10T12:00:00Z", "payload": "` +
		dataset.ContentIDFor([]byte("payload")).String() + `"}`)
	id := dataset.ContentIDFor(document)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v0/snapshot/"+id.String() {
			http.NotFound(writer, request)
			return
		}
		writer.Write(document)
	}))
	defer server.Close()

	snapshot, err := newTestClient(t, server).Snapshot(context.Background(), id)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.ID != id {
		t.Errorf("snapshot.ID = %s, want the requested id", snapshot.ID.Short())
	}
	if snapshot.CreatedAt.String() != "2026-03-10T12:00:00Z" {
		t.Errorf("CreatedAt = %s, want 2026-03-10T12:00:00Z", snapshot.CreatedAt)
	}
}

func TestSnapshotRejectsSubstitutedBytes(t *testing.T) {
	// The gateway serves a well-formed document that does not hash to
	// the requested id.
	document := []byte(`{"created_at": "2026-03-10T12:00:00Z", "payload": "` +
		dataset.ContentIDFor([]byte("payload")).String() + `"}`)
	requested := dataset.ContentIDFor([]byte("a different document"))

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Write(document)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Snapshot(context.Background(), requested)
	if err == nil {
		t.Fatal("Snapshot accepted bytes that hash to a different id")
	}
	if !dataset.IsKind(err, dataset.KindIntegrity) {
		t.Errorf("error kind = %v, want integrity", err)
	}
}

func TestSnapshotNotRetained(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	id := dataset.ContentIDFor([]byte("pruned snapshot"))
	_, err := newTestClient(t, server).Snapshot(context.Background(), id)
	if err == nil {
		t.Fatal("Snapshot succeeded for a pruned id")
	}
	if !dataset.IsKind(err, dataset.KindNoMetadataFound) {
		t.Errorf("error kind = %v, want no_metadata_found", err)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("chunk data "), 1000)
	id := dataset.ContentIDFor(payload)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/v0/blob/"+id.String() {
			http.NotFound(writer, request)
			return
		}
		writer.Write(payload)
	}))
	defer server.Close()

	got, err := newTestClient(t, server).Blob(context.Background(), id)
	if err != nil {
		t.Fatalf("Blob: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("Blob returned different bytes")
	}
}

func TestBlobNotRetained(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestClient(t, server).Blob(context.Background(), dataset.ContentIDFor([]byte("gone")))
	if err == nil {
		t.Fatal("Blob succeeded for a missing id")
	}
	if !dataset.IsKind(err, dataset.KindUnavailable) {
		t.Errorf("error kind = %v, want unavailable", err)
	}
}

func TestServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "maintenance window", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).Snapshot(context.Background(), dataset.ContentIDFor([]byte("any")))
	if err == nil {
		t.Fatal("Snapshot succeeded against a 503")
	}
	if !dataset.IsKind(err, dataset.KindUnavailable) {
		t.Errorf("error kind = %v, want unavailable", err)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		<-request.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server).Blob(ctx, dataset.ContentIDFor([]byte("any")))
	if err == nil {
		t.Fatal("Blob ignored a cancelled context")
	}
}
