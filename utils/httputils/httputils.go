// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils assembles the HTTP transport shared by all source
// adapters: request headers, tracing, per-source rate limiting and response
// caching, composed as http.RoundTrippers.
package httputils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

/////////////////////////////////////////
/// RountTrippers

// LoggingRoundTripper adds a very primitive logging to a http transaction.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// reduce the content the liens.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 2048, 512

	for i, line := range lines {
		if i < maxLines {
			lines[i] = fmt.Sprintf("%c %s", prefix, line)
		} else {
			break
		}
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			lines[i] = line[0:maxChars] + "…"
		}
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.Transport.RoundTrip(req)

	return resp, err
}

////////////////////////////////////////////////////

// RateLimitRoundTripper throttles outbound calls to one source. Every
// request waits for a token; a request whose context expires while waiting
// surfaces the context error, which adapters classify as a transport
// failure. Sharing one instance across concurrent resolutions is the point:
// the budget is per source, not per request.
type RateLimitRoundTripper struct {
	Transport http.RoundTripper
	Limiter   *rate.Limiter
}

// NewRateLimitRoundTripper caps requests per second with a burst of one.
func NewRateLimitRoundTripper(transport http.RoundTripper, requestsPerSecond float64) *RateLimitRoundTripper {
	return &RateLimitRoundTripper{
		Transport: transport,
		Limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *RateLimitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("waiting for request budget: %w", err)
		}
	}

	return t.Transport.RoundTrip(req)
}

// ResponseCache is the storage behind CachingRoundTripper. Implementations
// live in utils/httpcache.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// CachingRoundTripper serves repeated GET requests from a response cache.
// Gazetteer answers change rarely; a short TTL spares the sources from a
// batch run resolving the same names over and over.
type CachingRoundTripper struct {
	Transport http.RoundTripper
	Cache     ResponseCache
	TTL       time.Duration
}

// RoundTrip implements the http.RoundTripper interface.
func (t *CachingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Cache == nil || req.Method != http.MethodGet {
		return t.Transport.RoundTrip(req)
	}

	key := req.URL.String()

	if raw, ok := t.Cache.Get(key); ok {
		cached, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), req)
		if err == nil {
			return cached, nil
		}
		// A corrupt entry falls through to the network.
	}

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Only successful answers are worth keeping.
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		raw, dumpErr := httputil.DumpResponse(resp, true)
		if dumpErr == nil {
			t.Cache.Set(key, raw, t.TTL)
			// DumpResponse drained the body; hand the caller a fresh one.
			return http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), req)
		}
	}

	return resp, nil
}

////////////////////////////////////////////////////

// ClientOptions configures NewClient.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// RequestsPerSecond caps outbound calls; zero disables throttling
	RequestsPerSecond float64

	// Cache enables response caching when non-nil
	Cache ResponseCache

	// CacheTTL is the lifetime of cached responses
	CacheTTL time.Duration

	// Enables light tracing of HTTP requests and responses
	TraceWriter io.Writer

	// Enables full HTTP body tracing
	TraceBody bool

	// Timeout bounds a whole request; the engine layers per-source
	// deadlines on top via contexts
	Timeout time.Duration
}

// NewClient builds the http.Client a source adapter is handed: a base
// transport wrapped, innermost to outermost, in logging, rate limiting,
// caching and header injection. One client per source so the rate budget and
// cache namespace stay per-source.
func NewClient(options ClientOptions) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}

	transport = &LoggingRoundTripper{
		Writer:    options.TraceWriter,
		DumpBody:  options.TraceBody,
		Transport: transport,
	}

	if options.RequestsPerSecond > 0 {
		transport = NewRateLimitRoundTripper(transport, options.RequestsPerSecond)
	}

	if options.Cache != nil {
		transport = &CachingRoundTripper{
			Transport: transport,
			Cache:     options.Cache,
			TTL:       options.CacheTTL,
		}
	}

	userAgent := "georesolver/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	transport = &AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		Transport: transport,
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
