// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JSONBin stores each collection in its own remote bin. Reads fetch the latest
// version and writes replace the whole bin.
type JSONBin struct {
	baseURL string
	apiKey  string
	bins    map[string]string
	client  *http.Client
}

func NewJSONBin(baseURL, apiKey string, bins map[string]string, client *http.Client) *JSONBin {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &JSONBin{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bins:    bins,
		client:  client,
	}
}

type binEnvelope struct {
	Record json.RawMessage `json:"record"`
}

func (j *JSONBin) Read(ctx context.Context, collection string) ([]byte, error) {
	bin, err := j.bin(collection)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/b/"+bin+"/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Master-Key", j.apiKey)
	req.Header.Set("X-Bin-Meta", "true")

	body, err := j.do(req, collection)
	if err != nil {
		return nil, err
	}

	var env binEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode %s bin: %w", collection, err)
	}
	if len(env.Record) == 0 {
		return nil, ErrNotFound
	}
	return env.Record, nil
}

func (j *JSONBin) Write(ctx context.Context, collection string, doc []byte) error {
	bin, err := j.bin(collection)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, j.baseURL+"/b/"+bin, bytes.NewReader(doc))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Master-Key", j.apiKey)

	_, err = j.do(req, collection)
	return err
}

func (j *JSONBin) Close() error {
	j.client.CloseIdleConnections()
	return nil
}

func (j *JSONBin) bin(collection string) (string, error) {
	bin := j.bins[collection]
	if bin == "" {
		return "", fmt.Errorf("no bin configured for %s", collection)
	}
	return bin, nil
}

func (j *JSONBin) do(req *http.Request, collection string) ([]byte, error) {
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, collection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, collection, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 300:
		return nil, &StatusError{Op: req.Method, Collection: collection, StatusCode: resp.StatusCode}
	}
	return body, nil
}

// StatusError is a non-2xx answer from the remote store.
type StatusError struct {
	Op         string
	Collection string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.Collection, e.StatusCode)
}
