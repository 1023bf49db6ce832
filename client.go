// Package jsonrpc11 implements the client half of the JSON-RPC 1.1 calling
// convention shared by a family of HTTP services: positional params, a fixed
// "1.1" version member, and an error envelope delivered on HTTP status 500.
// It is intended to be embedded by generated or hand-written service clients,
// which own the method names and argument shapes.
package jsonrpc11

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"go.uber.org/atomic"
)

// Version is the library version.
const Version = "0.1.0"

// AuthTokenEnv is the environment variable consulted for an auth token when
// none is passed to New. An explicit WithToken always wins over it.
const AuthTokenEnv = "SERVICE_AUTH_TOKEN"

// DefaultTimeout is the request timeout used when WithTimeout is not given.
const DefaultTimeout = 30 * time.Minute

const contentTypeJSON = "application/json"

// Doer is the part of *http.Client the Client needs. Do must return an error
// for transport-level failures (dial, DNS, TLS, timeout) and an *http.Response
// exposing status, headers and body otherwise. Implementations must be safe
// for concurrent use if the Client is shared between goroutines.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option is an option function that can be passed to New.
type Option func(*Client)

// WithClientLogger sets the Client to use a logger.
func WithClientLogger(l log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout sets how long a call may take before it fails, including
// connection setup and response transfer. The timeout must be at least one
// second; New rejects anything shorter. The default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithToken sets the auth token sent with every request. Passing WithToken
// disables the AuthTokenEnv fallback even when the token is empty; an empty
// token means no AUTHORIZATION header is sent.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
		c.tokenSet = true
	}
}

// WithTrustAllCertificates disables TLS certificate verification. If you
// don't understand the implications, leave it off.
func WithTrustAllCertificates(trust bool) Option {
	return func(c *Client) {
		c.trustAllCerts = trust
	}
}

// WithHTTPClient replaces the HTTP client used for requests. When set, the
// timeout and certificate-trust options no longer apply to the transport and
// the Doer's own configuration governs.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.httpClient = d
		}
	}
}

// WithLookupURL marks the configured URL as a dynamic-service lookup service
// rather than the target service itself.
//
// Reserved: dynamic service resolution is not implemented yet and the flag is
// currently ignored by Call.
func WithLookupURL(lookup bool) Option {
	return func(c *Client) {
		c.lookupURL = lookup
	}
}

// WithAsyncJobCheck configures the polling schedule for asynchronously run
// jobs: the initial wait between job state checks, the percentage by which
// the wait grows per check, and the cap on the wait.
//
// Reserved: the async job runner is not implemented yet and these values are
// currently unused.
func WithAsyncJobCheck(base time.Duration, scalePercent int, max time.Duration) Option {
	return func(c *Client) {
		c.asyncJobCheckTime = base
		c.asyncJobCheckScalePct = scalePercent
		c.asyncJobCheckMaxTime = max
	}
}

// CallOption is an option function that can be passed to Call.
type CallOption func(*callOptions)

type callOptions struct {
	serviceVersion string
}

// WithServiceVersion requests a specific version of a dynamic service, e.g. a
// git hash or dev/beta/release tag.
//
// Reserved: dynamic service resolution is not implemented yet. The version is
// recorded but ignored, and the call targets the configured URL.
func WithServiceVersion(ver string) CallOption {
	return func(o *callOptions) {
		o.serviceVersion = ver
	}
}

// Client invokes methods on one JSON-RPC 1.1 service. Its configuration is
// fixed at construction and a Client is safe for concurrent use; each call is
// independent and blocks until its response arrives or the timeout fires.
type Client struct {
	log log.Logger

	url           string
	timeout       time.Duration
	token         string
	tokenSet      bool
	trustAllCerts bool

	// Reserved configuration for the dynamic-service and async-job features.
	// Stored so callers can configure them up front; the call path does not
	// read them yet.
	lookupURL             bool
	asyncJobCheckTime     time.Duration
	asyncJobCheckScalePct int
	asyncJobCheckMaxTime  time.Duration

	headers    http.Header
	httpClient Doer
	metrics    *clientMetrics

	// callSeq numbers calls for log correlation. It never goes on the wire.
	callSeq *atomic.Int64
	ids     *idSource
}

// New creates a client for the service at rawurl. The URL must use an http or
// https scheme. Construction performs no network activity; the auth token is
// resolved once here, from WithToken if given and from AuthTokenEnv
// otherwise.
func New(rawurl string, opts ...Option) (*Client, error) {
	if rawurl == "" {
		return nil, &ArgumentError{Reason: "a url is required"}
	}
	u, err := url.Parse(rawurl)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ArgumentError{Reason: rawurl + " isn't a valid http url"}
	}

	cli := &Client{
		log:     log.NewNopLogger(),
		url:     rawurl,
		timeout: DefaultTimeout,

		asyncJobCheckTime:     100 * time.Millisecond,
		asyncJobCheckScalePct: 150,
		asyncJobCheckMaxTime:  5 * time.Minute,

		callSeq: atomic.NewInt64(0),
		ids:     newIDSource(),
	}
	for _, o := range opts {
		o(cli)
	}

	if cli.timeout < time.Second {
		return nil, &ArgumentError{Reason: "timeout must be at least 1 second"}
	}

	cli.headers = make(http.Header)
	if token := resolveToken(cli.token, cli.tokenSet, os.Getenv); token != "" {
		cli.headers.Set("Authorization", token)
	}

	if cli.httpClient == nil {
		cli.httpClient = newHTTPClient(cli.timeout, cli.trustAllCerts)
	}
	return cli, nil
}

// resolveToken picks the effective auth token: the explicit one when set,
// the environment's otherwise. Pure in (explicit, set, environment snapshot);
// evaluated exactly once, at construction.
func resolveToken(explicit string, set bool, getenv func(string) string) string {
	if set {
		return explicit
	}
	return getenv(AuthTokenEnv)
}

func newHTTPClient(timeout time.Duration, trustAllCerts bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if trustAllCerts {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// URL returns the configured service URL.
func (c *Client) URL() string { return c.url }

// Timeout returns the configured request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Call invokes method with the given positional params and waits for the
// response. method names the service and method to run, e.g. "myserv.mymeth".
// Set-like param values (maps with empty-struct values, including Set) are
// sent as arrays of their elements.
//
// The decoded result is nil when the service returned no value, the value
// itself when it returned exactly one, and a []interface{} of all values
// otherwise. JSON values decode per encoding/json's interface{} rules.
//
// Failures reported by the service are returned as *ServiceError. HTTP
// failure statuses other than 500 are returned as *HTTPError. Transport
// errors from the underlying Doer are returned unchanged.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, opts ...CallOption) (interface{}, error) {
	var co callOptions
	for _, o := range opts {
		o(&co)
	}
	// Dynamic service resolution is not implemented; co.serviceVersion is
	// ignored and the call always targets the configured URL.
	target := c.url

	rpcReq := &txRequest{
		Method: method,
		Params: normalizeParams(params),
		ID:     c.ids.Next(),
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	seq := c.callSeq.Inc()
	level.Debug(c.log).Log("msg", "sending request", "method", method, "id", rpcReq.ID, "seq", seq)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, outcomeTransportError, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(method, outcomeTransportError, time.Since(start))
		return nil, err
	}
	elapsed := time.Since(start)
	level.Debug(c.log).Log("msg", "received response", "method", method, "status", resp.StatusCode, "duration", elapsed, "seq", seq)

	result, err := c.classify(resp, raw)
	c.metrics.observe(method, outcomeFor(err), elapsed)
	return result, err
}

// classify maps (status, content-type, body) to a decoded result or a typed
// error. Status 500 with a JSON content type carries the protocol's error
// envelope; any other failure status is surfaced as an HTTP error. Bodies
// that cannot be interpreted never surface raw parse errors; they normalize
// to a ServiceError with name "Unknown" and code 0.
func (c *Client) classify(resp *http.Response, body []byte) (interface{}, error) {
	if resp.StatusCode == http.StatusInternalServerError {
		if mediaType(resp.Header.Get("Content-Type")) != contentTypeJSON {
			return nil, &ServiceError{
				Name:    "Unknown",
				Code:    0,
				Message: "The server returned a non-JSON response: " + string(body),
			}
		}
		var envl struct {
			Error *errorObject `json:"error"`
		}
		if err := json.Unmarshal(body, &envl); err != nil || envl.Error == nil {
			level.Warn(c.log).Log("msg", "error response without error member", "status", resp.StatusCode)
			return nil, &ServiceError{
				Name:    "Unknown",
				Code:    0,
				Message: "The server returned unexpected error JSON: " + string(body),
			}
		}
		return nil, envl.Error.serviceError()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}
	}

	var envl map[string]json.RawMessage
	if err := json.Unmarshal(body, &envl); err != nil {
		level.Warn(c.log).Log("msg", "unparseable success response", "status", resp.StatusCode)
		return nil, errUnknownServer()
	}
	rawResult, ok := envl["result"]
	if !ok {
		return nil, errUnknownServer()
	}
	var results []interface{}
	if err := json.Unmarshal(rawResult, &results); err != nil {
		level.Warn(c.log).Log("msg", "result member is not an array", "status", resp.StatusCode)
		return nil, errUnknownServer()
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func errUnknownServer() *ServiceError {
	return &ServiceError{
		Name:    "Unknown",
		Code:    0,
		Message: "An unknown server error occurred",
	}
}

func outcomeFor(err error) string {
	var (
		se *ServiceError
		he *HTTPError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &se):
		return outcomeServiceError
	case errors.As(err, &he):
		return outcomeHTTPError
	default:
		return outcomeTransportError
	}
}
