// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the HTTP client for a strata content gateway:
// pointer heads, snapshot documents, and payload blobs, all addressed
// by content id. Snapshot and blob responses are verified client-side
// against the id they were requested under, so a confused or
// malicious gateway cannot substitute content — the hash check fails
// before any bytes are handed to the caller.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/strata-data/strata/lib/dataset"
	"github.com/strata-data/strata/lib/netutil"
)

// Config holds configuration for creating a gateway Client.
type Config struct {
	// BaseURL is the gateway root, for example
	// "https://gateway.example.org". Required.
	BaseURL string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient. Timeouts are the caller's to set here; the
	// client itself never retries.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client fetches content-addressed documents from a gateway. It
// implements chain.SnapshotStore.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a gateway client from the given configuration.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "gateway base URL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Head resolves a pointer to its current head snapshot id.
func (client *Client) Head(ctx context.Context, pointer dataset.Pointer) (dataset.ContentID, error) {
	body, err := client.get(ctx, "/v0/name/"+url.PathEscape(string(pointer)), notFoundError{
		kind:    dataset.KindDatasetNotFound,
		message: fmt.Sprintf("pointer %q not known to the gateway", pointer),
	})
	if err != nil {
		return dataset.ContentID{}, err
	}

	var response struct {
		Pointer string `json:"pointer"`
		Head    string `json:"head"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return dataset.ContentID{}, fmt.Errorf("decoding pointer response for %q: %w", pointer, err)
	}
	head, err := dataset.ParseContentID(response.Head)
	if err != nil {
		return dataset.ContentID{}, fmt.Errorf("pointer %q: gateway returned a malformed head id: %w", pointer, err)
	}
	return head, nil
}

// SnapshotDocument fetches the raw bytes of a snapshot document,
// verified against the requested id. Callers that need the document
// form (the snapshot cache stores exact bytes so the hash check keeps
// working on later reads) use this; most callers want Snapshot.
func (client *Client) SnapshotDocument(ctx context.Context, id dataset.ContentID) ([]byte, error) {
	return client.fetchVerified(ctx, "/v0/snapshot/", id, notFoundError{
		kind:    dataset.KindNoMetadataFound,
		message: fmt.Sprintf("snapshot %s is not retained by the gateway", id.Short()),
	})
}

// Snapshot fetches, verifies, and parses a snapshot document. The
// returned snapshot carries the id the document hashes to.
func (client *Client) Snapshot(ctx context.Context, id dataset.ContentID) (*dataset.VersionSnapshot, error) {
	document, err := client.SnapshotDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return dataset.ParseSnapshot(id, document)
}

// Blob fetches and verifies a payload blob.
func (client *Client) Blob(ctx context.Context, id dataset.ContentID) ([]byte, error) {
	return client.fetchVerified(ctx, "/v0/blob/", id, notFoundError{
		kind:    dataset.KindUnavailable,
		message: fmt.Sprintf("blob %s is not retained by the gateway", id.Short()),
	})
}

// notFoundError is the error each endpoint maps a 404 to: the same
// HTTP status means different things for names, snapshots, and blobs.
type notFoundError struct {
	kind    dataset.Kind
	message string
}

// fetchVerified retrieves a content-addressed document and checks
// that its bytes hash to the requested id before returning them.
func (client *Client) fetchVerified(ctx context.Context, prefix string, id dataset.ContentID, notFound notFoundError) ([]byte, error) {
	body, err := client.get(ctx, prefix+id.String(), notFound)
	if err != nil {
		return nil, err
	}

	if got := dataset.ContentIDFor(body); got != id {
		return nil, dataset.Errorf(dataset.KindIntegrity,
			"gateway returned bytes hashing to %s for requested id %s", got.Short(), id.Short())
	}
	return body, nil
}

// get performs one GET against the gateway. 404 maps to the caller's
// not-found error; any other non-2xx status is an availability error.
func (client *Client) get(ctx context.Context, path string, notFound notFoundError) ([]byte, error) {
	requestURL := client.baseURL + path
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", requestURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, &dataset.Error{Kind: notFound.kind, Message: notFound.message}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, dataset.Errorf(dataset.KindUnavailable,
			"GET %s: gateway returned %d: %s", requestURL, response.StatusCode,
			netutil.ErrorBody(response.Body))
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading response: %w", requestURL, err)
	}
	return body, nil
}
