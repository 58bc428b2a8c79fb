// Package transport is the single HTTP gateway to the task API. It applies
// the base URL and fixed headers, injects the live session token, and turns
// every failure into a RequestError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const (
	// HeaderDomain identifies the client application to the API.
	HeaderDomain = "domainName"

	// HeaderRequestID correlates client logs with server logs.
	HeaderRequestID = "X-Request-ID"

	maxBodySize = 10 << 20
)

// Options configures a Gateway.
type Options struct {
	BaseURL    string
	DomainName string

	// Timeout bounds each call. Zero means no deadline.
	Timeout time.Duration

	// Tokens supplies the bearer token. An error from Token means the
	// request goes out without an Authorization header.
	Tokens oauth2.TokenSource

	// Transport overrides the base round tripper.
	Transport http.RoundTripper

	// TracerProvider receives a client span per call and turns on
	// traceparent propagation. Nil leaves tracing to the global provider.
	TracerProvider trace.TracerProvider

	Logger *zap.Logger
}

// Request describes one API call. Path is relative to the base URL and may
// contain {name} templates filled from Params.
type Request struct {
	Method string
	Path   string
	Params map[string]string
	Query  url.Values
	Body   any
}

// Gateway performs API calls.
type Gateway struct {
	baseURL string
	domain  string
	timeout time.Duration
	client  *http.Client
	log     *zap.Logger
}

// New creates a Gateway.
func New(opts Options) (*Gateway, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL: %q", opts.BaseURL)
	}
	base := u.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	var otelOpts []otelhttp.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts,
			otelhttp.WithTracerProvider(opts.TracerProvider),
			otelhttp.WithPropagators(propagation.TraceContext{}),
		)
	}
	rt = otelhttp.NewTransport(rt, otelOpts...)
	if opts.Tokens != nil {
		rt = &bearerTransport{source: opts.Tokens, base: rt}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Gateway{
		baseURL: base,
		domain:  opts.DomainName,
		timeout: opts.Timeout,
		client:  &http.Client{Transport: rt},
		log:     log,
	}, nil
}

// Do sends r and decodes the response payload into out (which may be nil).
// Any failure is returned as *RequestError.
func (g *Gateway) Do(ctx context.Context, r Request, out any) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	req, err := g.newRequest(ctx, r)
	if err != nil {
		return &RequestError{Message: GenericMessage, RequestID: requestID, Err: err}
	}
	req.Header.Set(HeaderRequestID, requestID)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID),
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	fields = append(fields, zap.Duration("latency", time.Since(start)))
	if err != nil {
		g.log.Warn("api request failed", append(fields, zap.Error(err))...)
		return &RequestError{Message: networkMessage(err), RequestID: requestID, Err: err}
	}
	defer googleapi.CloseBody(resp)

	fields = append(fields, zap.Int("status", resp.StatusCode))
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		g.log.Warn("api response unreadable", append(fields, zap.Error(err))...)
		return &RequestError{StatusCode: resp.StatusCode, Message: networkMessage(err), RequestID: requestID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &RequestError{StatusCode: resp.StatusCode, Message: errorMessage(body), RequestID: requestID}
		g.log.Warn("api request rejected", append(fields, zap.String("message", rerr.Message))...)
		return rerr
	}
	g.log.Debug("api request", fields...)

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{StatusCode: resp.StatusCode, Message: "invalid response from server", RequestID: requestID, Err: err}
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		buf, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	urls := googleapi.ResolveRelative(g.baseURL, strings.TrimPrefix(r.Path, "/"))
	req, err := http.NewRequestWithContext(ctx, method, urls, body)
	if err != nil {
		return nil, err
	}
	if len(r.Params) > 0 {
		googleapi.Expand(req.URL, r.Params)
	}
	if len(r.Query) > 0 {
		req.URL.RawQuery = r.Query.Encode()
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.domain != "" {
		req.Header.Set(HeaderDomain, g.domain)
	}
	return req, nil
}

func networkMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	return GenericMessage
}

// bearerTransport attaches the token current at send time. Reading the
// source per request means a new login takes effect immediately.
type bearerTransport struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil || tok.AccessToken == "" {
		return t.base.RoundTrip(req)
	}
	authed := &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: t.base}
	return authed.RoundTrip(req)
}
