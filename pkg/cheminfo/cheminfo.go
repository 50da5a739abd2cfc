// Package cheminfo provides a client for the naturalproducts.net
// cheminformatics service, which sanitizes a SMILES string and returns its
// structural descriptors.
package cheminfo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lotus-cli/internal/resilience"
)

// DefaultBaseURL is the public naturalproducts.net API.
const DefaultBaseURL = "https://api.naturalproducts.net/latest"

// Wikidata's format constraints for SMILES properties. Canonical SMILES may
// contain slashes; isomeric SMILES must carry at least one stereo marker.
var (
	canonicalSMILESPattern = regexp.MustCompile(`^[A-Za-z0-9+\-*=#$:().>/\\\[\]%]+$`)
	isomericSMILESPattern  = regexp.MustCompile(`^[A-Za-z0-9+\-*=#$:().>\[\]%]*([@\\/]|\d)[A-Za-z0-9+\-*=#$:().>@\\/\[\]%]+$`)
)

// Client defines the structure-enrichment operation.
type Client interface {
	// Enrich sanitizes a SMILES string and returns its descriptors. The
	// lookup itself is opaque; failures are reported, not interpreted.
	Enrich(ctx context.Context, smiles string) (*Structure, error)
}

// Structure is the normalized result of a pre-processing call.
type Structure struct {
	SanitizedSMILES string
	// Sanitized reports whether the service changed the input string.
	Sanitized bool

	CanonicalSMILES  string
	IsomericSMILES   string
	InChI            string
	InChIKey         string
	MolecularFormula string
	ExactMass        *float64

	// OtherDescriptors is the service's open descriptor bag, passed through
	// untouched.
	OtherDescriptors map[string]any
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

// WithRetryConfig overrides the transport retry settings.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a cheminformatics client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// preprocessingResponse mirrors the service's pre-processing payload: the
// original structure, its standardized form, and optionally the parent
// (desalted) structure.
type preprocessingResponse struct {
	Original     preprocessingEntry  `json:"original"`
	Standardized preprocessingEntry  `json:"standardized"`
	Parent       *preprocessingEntry `json:"parent"`
}

type preprocessingEntry struct {
	Representations  representations `json:"representations"`
	Descriptors      map[string]any  `json:"descriptors"`
	HasStereoDefined bool            `json:"has_stereo_defined"`
}

type representations struct {
	CanonicalSMILES  string `json:"canonical_smiles"`
	StandardInChI    string `json:"standard_inchi"`
	StandardInChIKey string `json:"standard_inchikey"`
}

func (c *httpClient) Enrich(ctx context.Context, smiles string) (*Structure, error) {
	// Per-request copy: the shared client must stay immutable under
	// concurrent lookups.
	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("cheminfo", "pre-processing")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*preprocessingResponse, error) {
		return c.preprocess(ctx, smiles)
	})
	if err != nil {
		return nil, err
	}
	return buildStructure(smiles, resp)
}

func (c *httpClient) preprocess(ctx context.Context, smiles string) (*preprocessingResponse, error) {
	params := url.Values{}
	params.Set("smiles", smiles)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/chem/coconut/pre-processing?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "cheminfo: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "cheminfo: pre-processing request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "cheminfo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("cheminfo: sanitization failed for %q: HTTP %d", smiles, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var decoded preprocessingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, eris.Wrap(err, "cheminfo: decode response")
	}
	return &decoded, nil
}

func buildStructure(input string, resp *preprocessingResponse) (*Structure, error) {
	sanitized := resp.Standardized.Representations.CanonicalSMILES
	if sanitized == "" {
		return nil, eris.Errorf("cheminfo: sanitization returned no SMILES for %q", input)
	}

	s := &Structure{
		SanitizedSMILES:  sanitized,
		Sanitized:        sanitized != input,
		InChI:            resp.Standardized.Representations.StandardInChI,
		InChIKey:         resp.Standardized.Representations.StandardInChIKey,
		OtherDescriptors: resp.Standardized.Descriptors,
	}
	if s.InChIKey == "" {
		return nil, eris.Errorf("cheminfo: missing inchikey descriptor for %q", sanitized)
	}

	// Prefer the parent (desalted) canonical form when the service provides
	// one; the standardized form keeps its stereo markers for the isomeric
	// property.
	s.CanonicalSMILES = sanitized
	if resp.Parent != nil && resp.Parent.Representations.CanonicalSMILES != "" {
		s.CanonicalSMILES = resp.Parent.Representations.CanonicalSMILES
	}
	if resp.Standardized.HasStereoDefined {
		s.IsomericSMILES = sanitized
	}

	if v, ok := resp.Standardized.Descriptors["molecular_formula"].(string); ok {
		s.MolecularFormula = v
	}
	if v, ok := resp.Standardized.Descriptors["exact_molecular_weight"].(float64); ok {
		s.ExactMass = &v
	}

	if err := validateSMILES(s.CanonicalSMILES, s.IsomericSMILES); err != nil {
		return nil, err
	}
	return s, nil
}

// validateSMILES checks the outgoing SMILES values against Wikidata's format
// constraints so the generated batch is never rejected on import.
func validateSMILES(canonical, isomeric string) error {
	if canonical != "" && !canonicalSMILESPattern.MatchString(canonical) {
		return eris.Errorf("cheminfo: canonical SMILES %q violates format constraint", canonical)
	}
	if isomeric != "" && !isomericSMILESPattern.MatchString(isomeric) {
		return eris.Errorf("cheminfo: isomeric SMILES %q violates format constraint", isomeric)
	}
	return nil
}
