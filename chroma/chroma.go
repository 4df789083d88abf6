// Package chroma implements the docindex vector backend on Chroma (v2 API),
// for both Chroma Cloud and self-hosted Chroma servers, using the chroma-go
// client.
package chroma

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chhttp "github.com/amikos-tech/chroma-go/pkg/commons/http"
	"github.com/fwojciec/docindex"
)

// Defaults for Chroma Cloud.
const (
	DefaultURL      = "https://api.trychroma.com"
	DefaultTenant   = "default_tenant"
	DefaultDatabase = "default_database"
	DefaultTimeout  = 30 * time.Second
)

// Config identifies a Chroma deployment.
type Config struct {
	URL      string
	APIKey   string
	Tenant   string
	Database string
}

// Client talks to one Chroma database.
type Client struct {
	url        string
	httpClient *http.Client
	api        chromago.Client

	// mu guards collection and the chroma-go collection cache, which is
	// mutated by collection create and delete calls.
	mu         sync.RWMutex
	collection chromago.Collection
}

// newClientMu serializes client construction; chroma-go assigns a new
// transport to http.DefaultClient each time it builds one.
var newClientMu sync.Mutex

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Client for cfg, filling unset fields with defaults.
// No request is sent until the first call.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		url:        strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	tenant, database := cfg.Tenant, cfg.Database
	if tenant == "" {
		tenant = DefaultTenant
	}
	if database == "" {
		database = DefaultDatabase
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []chromago.ClientOption{
		chromago.WithBaseURL(c.url),
		chromago.WithDatabaseAndTenant(database, tenant),
		chromago.WithHTTPClient(c.httpClient),
	}
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, chromago.WithAuth(
			chromago.NewTokenAuthCredentialsProvider(cfg.APIKey, chromago.XChromaTokenHeader),
		))
	}
	newClientMu.Lock()
	api, err := chromago.NewHTTPClient(clientOpts...)
	newClientMu.Unlock()
	if err != nil {
		return nil, docindex.WrapError(docindex.EINVALID, err, "configure chroma client for %s", c.url)
	}
	c.api = api
	return c, nil
}

// Name implements docindex.VectorBackend.
func (c *Client) Name() string {
	return "chroma"
}

// Mode implements docindex.VectorBackend. Servers on a loopback address are local.
func (c *Client) Mode() docindex.StoreMode {
	u, err := url.Parse(c.url)
	if err != nil {
		return docindex.ModeCloud
	}
	host := u.Hostname()
	if host == "localhost" {
		return docindex.ModeLocal
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return docindex.ModeLocal
	}
	return docindex.ModeCloud
}

// Heartbeat implements docindex.VectorBackend.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		return apiError(ctx, err, docindex.EUNAVAILABLE, "heartbeat")
	}
	return nil
}

// Close implements docindex.VectorBackend.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.api.Close(); err != nil {
		return docindex.WrapError(docindex.EINTERNAL, err, "close chroma client")
	}
	return nil
}

// apiError translates a chroma-go error into an application error. API
// responses and transport failures carry a status; anything else failed
// inside the client before a request was sent and gets the fallback code.
func apiError(ctx context.Context, err error, fallback string, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var chErr *chhttp.ChromaError
	if !errors.As(err, &chErr) {
		return docindex.WrapError(fallback, err, "chroma %s: %v", op, err)
	}
	return docindex.WrapError(statusCode(chErr.ErrorCode), err, "chroma %s: %s (status %d)", op, errorDetail(chErr), chErr.ErrorCode)
}

// statusCode maps an HTTP status to an application error code. Zero means
// the request never got a response.
func statusCode(status int) string {
	switch {
	case status == 0:
		return docindex.EUNAVAILABLE
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return docindex.EFORBIDDEN
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return docindex.EINVALID
	case status == http.StatusNotFound:
		return docindex.ENOTFOUND
	case status == http.StatusConflict:
		return docindex.ECONFLICT
	case status == http.StatusTooManyRequests, status >= 500:
		return docindex.EUNAVAILABLE
	}
	return docindex.EINTERNAL
}

func errorDetail(e *chhttp.ChromaError) string {
	msg := strings.TrimSpace(e.Message)
	if e.ErrorID != "" && e.ErrorID != "unknown" {
		msg = strings.Trim(fmt.Sprintf("%s: %s", e.ErrorID, msg), ": ")
	}
	if msg == "" || msg == "unknown" {
		msg = http.StatusText(e.ErrorCode)
	}
	return msg
}
