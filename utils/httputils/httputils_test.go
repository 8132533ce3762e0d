// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// dummyRoundTripper is useful to simulate a response.
type dummyRoundTripper struct {
	response *http.Response
}

func (d *dummyRoundTripper) RoundTrip(_ *http.Request) (*http.Response, error) {
	if d.response != nil {
		return d.response, nil
	}

	return nil, nil
}

//////////////////////////////////
// Test LoggingRoundTripper

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	// Buffer to capture log output.
	var logBuffer bytes.Buffer

	// Set up a dummy transport that returns a dummy response.
	drt := &dummyRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("response body")),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: drt,
		Writer:    &logBuffer,
		DumpBody:  true, // include body in the dump
	}

	// Create a basic request.
	req, err := http.NewRequest(http.MethodGet, "http://example.com/abc", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// RoundTrip through our logging round tripper.
	_, err = lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Check log contents.
	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /abc") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "response body") {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

//////////////////////////////////
// Test AppendRequestHeadersRoundTripper

// dummyHeadersRoundTripper is used to verify that the headers are added.
type dummyHeadersRoundTripper struct {
	lastRequest *http.Request
}

func (d *dummyHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	// Create a dummy transport that captures the request.
	dummy := &dummyHeadersRoundTripper{}

	// Wrap it with AppendRequestHeadersRoundTripper.
	headersToAdd := map[string]string{
		"X-Test-Header": "TestValue",
	}
	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers:   headersToAdd,
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Ensure the header is not originally set.
	if req.Header.Get("X-Test-Header") != "" {
		t.Fatalf("the test header should not be pre-set in the request")
	}

	// Issue the request.
	_, err = atr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	// Verify that our header was added.
	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("X-Test-Header"); got != "TestValue" {
		t.Errorf("expected header X-Test-Header to have value 'TestValue', but got '%s'", got)
	}
}

//////////////////////////////////
// Test RateLimitRoundTripper

func TestRateLimitRoundTripperPassesThrough(t *testing.T) {
	dummy := &dummyHeadersRoundTripper{}
	rl := NewRateLimitRoundTripper(dummy, 1000)

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err := rl.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest == nil {
		t.Fatal("request never reached the inner transport")
	}
}

func TestRateLimitRoundTripperHonorsContext(t *testing.T) {
	dummy := &dummyHeadersRoundTripper{}
	rl := &RateLimitRoundTripper{
		Transport: dummy,
		Limiter:   rate.NewLimiter(rate.Every(time.Hour), 1),
	}

	// Drain the only token.
	req, _ := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if _, err := rl.RoundTrip(req); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req2, _ := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if _, err := rl.RoundTrip(req2.WithContext(ctx)); err == nil {
		t.Error("expected an error when the context is canceled while throttled")
	}
}

//////////////////////////////////
// Test CachingRoundTripper

// mapCache is a trivial in-test ResponseCache.
type mapCache struct {
	entries map[string][]byte
}

func (m *mapCache) Get(key string) ([]byte, bool) {
	value, ok := m.entries[key]

	return value, ok
}

func (m *mapCache) Set(key string, value []byte, _ time.Duration) {
	m.entries[key] = value
}

func TestCachingRoundTripper(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++

		_, _ = w.Write([]byte("answer"))
	}))
	defer server.Close()

	client := &http.Client{
		Transport: &CachingRoundTripper{
			Transport: http.DefaultTransport,
			Cache:     &mapCache{entries: make(map[string][]byte)},
			TTL:       time.Minute,
		},
	}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(server.URL + "/place")
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil || string(body) != "answer" {
			t.Fatalf("request %d: unexpected body %q (err %v)", i, body, err)
		}
	}

	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestCachingRoundTripperSkipsNonGet(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{
		Transport: &CachingRoundTripper{
			Transport: http.DefaultTransport,
			Cache:     &mapCache{entries: make(map[string][]byte)},
			TTL:       time.Minute,
		},
	}

	for i := 0; i < 2; i++ {
		resp, err := client.Post(server.URL, "text/plain", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}

	if hits != 2 {
		t.Errorf("POST must not be cached; expected 2 upstream hits, got %d", hits)
	}
}
