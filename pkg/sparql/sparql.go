// Package sparql provides a client for SPARQL 1.1 endpoints that speak the
// JSON results format, tuned for the Wikidata Query Service.
package sparql

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lotus-cli/internal/resilience"
)

// DefaultEndpoint is the public Wikidata Query Service.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// Client defines the SPARQL operations the resolver needs.
type Client interface {
	// Select runs a SELECT query and returns the decoded bindings.
	Select(ctx context.Context, query string) (*SelectResult, error)
	// Ask runs an ASK query and returns its boolean.
	Ask(ctx context.Context, query string) (bool, error)
}

// SelectResult holds the bindings of a SELECT response.
type SelectResult struct {
	Vars     []string
	Bindings []Binding
}

// Binding maps a result variable to its bound value.
type Binding map[string]Value

// Value is one bound RDF term.
type Value struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// QID returns the entity identifier when the value is an entity URI
// ("http://www.wikidata.org/entity/Q42" -> "Q42"), or "" otherwise.
func (v Value) QID() string {
	if v.Type != "uri" {
		return ""
	}
	idx := strings.LastIndex(v.Value, "/")
	if idx < 0 || idx == len(v.Value)-1 {
		return ""
	}
	return v.Value[idx+1:]
}

// Items collects the entity identifiers bound to varName across all rows,
// preserving result order and skipping non-URI bindings.
func (r *SelectResult) Items(varName string) []string {
	var qids []string
	for _, b := range r.Bindings {
		if v, ok := b[varName]; ok {
			if qid := v.QID(); qid != "" {
				qids = append(qids, qid)
			}
		}
	}
	return qids
}

// EscapeLiteral escapes a string for embedding in a quoted SPARQL literal.
func EscapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// Option configures the client.
type Option func(*httpClient)

// WithEndpoint sets a custom endpoint URL (for testing).
func WithEndpoint(endpoint string) Option {
	return func(c *httpClient) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header. WDQS rejects anonymous agents,
// so callers should always identify themselves.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimit sets the requests-per-second limit applied before each query.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryConfig overrides the transport retry settings.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewClient creates a SPARQL client for the given endpoint options.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		endpoint:  DefaultEndpoint,
		userAgent: "lotus-cli/1.0 (https://github.com/sells-group/lotus-cli)",
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// queryResponse is the SPARQL JSON results envelope. SELECT responses carry
// head/results; ASK responses carry boolean.
type queryResponse struct {
	Head *struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

func (c *httpClient) Select(ctx context.Context, query string) (*SelectResult, error) {
	resp, err := c.run(ctx, query)
	if err != nil {
		return nil, err
	}
	result := &SelectResult{}
	if resp.Head != nil {
		result.Vars = resp.Head.Vars
	}
	if resp.Results != nil {
		result.Bindings = resp.Results.Bindings
	}
	return result, nil
}

func (c *httpClient) Ask(ctx context.Context, query string) (bool, error) {
	resp, err := c.run(ctx, query)
	if err != nil {
		return false, err
	}
	if resp.Boolean == nil {
		return false, eris.New("sparql: missing boolean field in ASK response")
	}
	return *resp.Boolean, nil
}

func (c *httpClient) run(ctx context.Context, query string) (*queryResponse, error) {
	// The client is shared across goroutines; retry state for one request
	// stays on this stack.
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("sparql", "query")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*queryResponse, error) {
		return c.runOnce(ctx, query)
	})
}

func (c *httpClient) runOnce(ctx context.Context, query string) (*queryResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sparql: rate limiter")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "sparql: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sparql: execute query")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sparql: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("sparql: endpoint returned HTTP %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var decoded queryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "sparql: decode response")
	}
	return &decoded, nil
}
