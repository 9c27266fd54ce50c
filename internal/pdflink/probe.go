package pdflink

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethgrid/pester"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds each probe request.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the pester retry budget per request.
	DefaultMaxRetries = 2

	// DefaultRateLimit is the probe rate in requests per second.
	DefaultRateLimit = 4.0

	// DefaultUserAgent identifies probe traffic.
	DefaultUserAgent = "pubfold/1 (+https://github.com/matsen/pubfold)"

	// maxLandingBytes caps how much of an HTML landing page is read when
	// looking for a citation_pdf_url.
	maxLandingBytes = 1 << 20
)

// Result is the outcome of probing one URL.
type Result struct {
	// IsPDF is true when the server answered with a PDF content type.
	IsPDF bool
	// Landing is the absolute citation_pdf_url found on an HTML landing
	// page, when landing-page lookup is enabled.
	Landing string
}

// Prober checks whether a URL serves a PDF. Implementations never return
// errors; any failure is a negative result.
type Prober interface {
	Probe(ctx context.Context, url string) Result
}

// HTTPProber probes with HEAD and falls back to a streamed GET.
type HTTPProber struct {
	client        *pester.Client
	limiter       *rate.Limiter
	userAgent     string
	followLanding bool
	log           zerolog.Logger
}

// ProberOption configures an HTTPProber.
type ProberOption func(*HTTPProber)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ProberOption {
	return func(p *HTTPProber) {
		p.client.Timeout = d
	}
}

// WithMaxRetries sets the retry budget per request.
func WithMaxRetries(n int) ProberOption {
	return func(p *HTTPProber) {
		p.client.MaxRetries = n
	}
}

// WithRateLimit sets the probe rate in requests per second.
func WithRateLimit(perSecond float64) ProberOption {
	return func(p *HTTPProber) {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ProberOption {
	return func(p *HTTPProber) {
		p.userAgent = ua
	}
}

// WithLandingLookup enables reading citation_pdf_url from HTML landing pages.
func WithLandingLookup(on bool) ProberOption {
	return func(p *HTTPProber) {
		p.followLanding = on
	}
}

// WithLogger sets the logger used for probe failures.
func WithLogger(log zerolog.Logger) ProberOption {
	return func(p *HTTPProber) {
		p.log = log
	}
}

// NewHTTPProber creates a prober backed by a retrying HTTP client.
func NewHTTPProber(opts ...ProberOption) *HTTPProber {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = DefaultMaxRetries
	client.RetryOnHTTP429 = true
	client.Timeout = DefaultTimeout

	p := &HTTPProber{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		userAgent: DefaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	client.LogHook = func(e pester.ErrEntry) {
		p.log.Debug().Str("url", e.URL).Int("attempt", e.Attempt).Err(e.Err).Msg("probe retry")
	}
	return p
}

// Probe issues HEAD, then a streamed GET when HEAD does not report a PDF.
func (p *HTTPProber) Probe(ctx context.Context, target string) Result {
	resp, err := p.do(ctx, http.MethodHead, target)
	if err == nil {
		resp.Body.Close()
		if isPDF(resp) {
			return Result{IsPDF: true}
		}
	} else {
		p.log.Debug().Str("url", target).Err(err).Msg("HEAD probe failed")
	}

	resp, err = p.do(ctx, http.MethodGet, target)
	if err != nil {
		p.log.Debug().Str("url", target).Err(err).Msg("GET probe failed")
		return Result{}
	}
	defer resp.Body.Close()

	if isPDF(resp) {
		return Result{IsPDF: true}
	}
	if p.followLanding && resp.StatusCode == http.StatusOK && isHTML(resp) {
		base := resp.Request.URL
		if base == nil {
			base, _ = url.Parse(target)
		}
		return Result{Landing: CitationPDFURL(io.LimitReader(resp.Body, maxLandingBytes), base)}
	}
	return Result{}
}

func (p *HTTPProber) do(ctx context.Context, method, target string) (*http.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,*/*;q=0.8")
	return p.client.Do(req)
}

func isPDF(resp *http.Response) bool {
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/pdf")
}

func isHTML(resp *http.Response) bool {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && (mt == "text/html" || mt == "application/xhtml+xml")
}
