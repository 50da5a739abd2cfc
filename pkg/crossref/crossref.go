// Package crossref provides a client for the Crossref REST API, used to
// assemble bibliographic metadata for DOIs missing from the knowledge base.
package crossref

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/sells-group/lotus-cli/internal/resilience"
)

// DefaultBaseURL is the Crossref works endpoint base.
const DefaultBaseURL = "https://api.crossref.org"

// ItemQID is the Wikidata item for Crossref, used as the "stated in" source
// on statements derived from its metadata.
const ItemQID = "Q5188229"

// Client defines the Crossref lookup operations.
type Client interface {
	// Work fetches the metadata for a DOI. A DOI unknown to Crossref
	// returns (nil, nil).
	Work(ctx context.Context, doi string) (*Work, error)
}

// Work is the subset of a Crossref work record the importer consumes,
// normalized into closed fields.
type Work struct {
	// DOI in Crossref's canonical casing.
	DOI   string
	Title string
	// Type is the Crossref work type ("journal-article", "book-chapter", ...).
	Type string

	ContainerTitle string
	ISSN           string
	Volume         string
	Issue          string

	// Language is the work language as a canonicalized BCP 47 tag, or "".
	Language string

	Issued  *DateParts
	Authors []Author

	// Retrieved is when the record was fetched.
	Retrieved time.Time
}

// DateParts is a Crossref partial date. Year is always set when present.
type DateParts struct {
	Year  int
	Month *int
	Day   *int
}

// Author is one creator with its 1-based position in the author list.
type Author struct {
	Name    string
	Ordinal int
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMailto sets the contact address appended to requests, which moves the
// client into Crossref's polite pool.
func WithMailto(mailto string) Option {
	return func(c *httpClient) {
		c.mailto = mailto
	}
}

// WithRetryConfig overrides the transport retry settings.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	mailto  string
	http    *http.Client
	retry   resilience.RetryConfig
	now     func() time.Time
}

// NewClient creates a Crossref client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// workResponse is the Crossref envelope for a single work.
type workResponse struct {
	Status  string      `json:"status"`
	Message workMessage `json:"message"`
}

type workMessage struct {
	DOI            string       `json:"DOI"`
	Title          []string     `json:"title"`
	Type           string       `json:"type"`
	ContainerTitle []string     `json:"container-title"`
	ISSN           []string     `json:"ISSN"`
	Volume         string       `json:"volume"`
	Issue          string       `json:"issue"`
	Language       string       `json:"language"`
	Issued         workDate     `json:"issued"`
	Authors        []workAuthor `json:"author"`
}

type workDate struct {
	DateParts [][]int `json:"date-parts"`
}

type workAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

func (c *httpClient) Work(ctx context.Context, doi string) (*Work, error) {
	// Per-request copy: the shared client must stay immutable under
	// concurrent lookups.
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("crossref", "work")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Work, error) {
		return c.workOnce(ctx, doi)
	})
}

func (c *httpClient) workOnce(ctx context.Context, doi string) (*Work, error) {
	endpoint := c.baseURL + "/works/" + url.PathEscape(doi)
	if c.mailto != "" {
		endpoint += "?mailto=" + url.QueryEscape(c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "crossref: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crossref: fetch work")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("crossref: API returned HTTP %d for DOI %s", resp.StatusCode, doi)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "crossref: read response")
	}

	var decoded workResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "crossref: decode response")
	}
	if decoded.Status != "ok" {
		return nil, eris.Errorf("crossref: unexpected status %q for DOI %s", decoded.Status, doi)
	}

	return c.toWork(decoded.Message), nil
}

func (c *httpClient) toWork(msg workMessage) *Work {
	w := &Work{
		DOI:       msg.DOI,
		Type:      msg.Type,
		Volume:    msg.Volume,
		Issue:     msg.Issue,
		Language:  canonicalTag(msg.Language),
		Retrieved: c.now().UTC(),
	}
	if len(msg.Title) > 0 {
		w.Title = strings.TrimSpace(msg.Title[0])
	}
	if len(msg.ContainerTitle) > 0 {
		w.ContainerTitle = strings.TrimSpace(msg.ContainerTitle[0])
	}
	if len(msg.ISSN) > 0 {
		w.ISSN = msg.ISSN[0]
	}
	w.Issued = parseDateParts(msg.Issued.DateParts)

	for i, a := range msg.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		}
		if name == "" {
			continue
		}
		w.Authors = append(w.Authors, Author{Name: name, Ordinal: i + 1})
	}

	return w
}

// parseDateParts turns Crossref's nested date-parts array into a DateParts.
// A missing or zero year yields nil: a date without a year is useless for a
// publication-date statement.
func parseDateParts(parts [][]int) *DateParts {
	if len(parts) == 0 || len(parts[0]) == 0 || parts[0][0] == 0 {
		return nil
	}
	d := &DateParts{Year: parts[0][0]}
	if len(parts[0]) > 1 && parts[0][1] >= 1 && parts[0][1] <= 12 {
		month := parts[0][1]
		d.Month = &month
		if len(parts[0]) > 2 && parts[0][2] >= 1 && parts[0][2] <= 31 {
			day := parts[0][2]
			d.Day = &day
		}
	}
	return d
}

// canonicalTag normalizes a language code to its canonical BCP 47 base form
// ("EN-us" -> "en"). Unparseable tags are dropped.
func canonicalTag(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
