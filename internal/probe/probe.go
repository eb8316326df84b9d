// Package probe exercises the GET side of derived REST endpoints against the
// device's web server.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/danmuck/nativectl/internal/catalog"
	"github.com/danmuck/nativectl/internal/observability"
)

// ErrEndpointsFailed is returned by Failures when at least one GET failed.
var ErrEndpointsFailed = errors.New("probe: endpoint tests failed")

// DefaultTimeout bounds each request.
const DefaultTimeout = 5 * time.Second

// Status classifies one probe.
type Status string

const (
	StatusOK        Status = "OK"
	StatusFailed    Status = "FAILED"
	StatusTimeout   Status = "TIMEOUT"
	StatusConnError Status = "CONNECTION ERROR"
	StatusError     Status = "ERROR"
)

// Outcome is the result of probing one endpoint.
type Outcome struct {
	Endpoint catalog.Endpoint
	URL      string
	Status   Status
	// HTTPStatus is the response status line, empty when no response arrived.
	HTTPStatus string
	Code       int
	Body       string
	Err        error
	Duration   time.Duration
	// Timeout is the per-request limit the probe ran with.
	Timeout time.Duration
}

func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// Summary totals a probe run.
type Summary struct {
	Tested    int
	Succeeded int
	Failed    int
}

// Prober sends the requests.
type Prober struct {
	Client  *http.Client
	Timeout time.Duration
}

// New returns a Prober whose client gives up after timeout.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Client: &http.Client{Timeout: timeout}, Timeout: timeout}
}

// BaseURL is the web server root for host. Port 0 and 80 are left implicit.
func BaseURL(host string, port uint32) string {
	if port == 0 || port == 80 {
		return "http://" + host
	}
	return "http://" + net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}

// GetCapable filters endpoints that accept GET, keeping order.
func GetCapable(endpoints []catalog.Endpoint) []catalog.Endpoint {
	var out []catalog.Endpoint
	for _, ep := range endpoints {
		if ep.HasMethod(catalog.MethodGet) {
			out = append(out, ep)
		}
	}
	return out
}

// Run probes every GET-capable endpoint in order, one at a time.
func (p *Prober) Run(ctx context.Context, baseURL string, endpoints []catalog.Endpoint) []Outcome {
	targets := GetCapable(endpoints)
	out := make([]Outcome, 0, len(targets))
	for _, ep := range targets {
		o := p.Probe(ctx, strings.TrimRight(baseURL, "/")+ep.Path, ep)
		observability.RecordProbe(string(o.Status), o.Code, o.Duration)
		out = append(out, o)
	}
	return out
}

// Probe issues one GET.
func (p *Prober) Probe(ctx context.Context, url string, ep catalog.Endpoint) (o Outcome) {
	o = Outcome{Endpoint: ep, URL: url, Timeout: p.Timeout}
	start := time.Now()
	defer func() { o.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		o.Status, o.Err = StatusError, err
		return o
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		o.Status, o.Err = classify(err), err
		log.Debug().Msgf("probe.Probe url=%s status=%s err=%v", url, o.Status, err)
		return o
	}
	defer resp.Body.Close()

	o.Code = resp.StatusCode
	o.HTTPStatus = resp.Status
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		o.Status, o.Err = StatusError, err
		if isTimeout(err) {
			o.Status = StatusTimeout
		}
		return o
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.Status = StatusFailed
		o.Body = string(body)
		o.Err = fmt.Errorf("probe: %s returned %s", url, resp.Status)
		return o
	}
	o.Status = StatusOK
	o.Body = compactJSON(body)
	log.Debug().Msgf("probe.Probe url=%s status=%d", url, resp.StatusCode)
	return o
}

// Summarize totals outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Tested: len(outcomes)}
	for _, o := range outcomes {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Failures combines the errors of every failed outcome under
// ErrEndpointsFailed, or returns nil when all succeeded.
func Failures(outcomes []Outcome) error {
	var combined error
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		if o.Err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s %s: %w", o.Status, o.URL, o.Err))
		} else {
			combined = multierr.Append(combined, fmt.Errorf("%s %s: %s", o.Status, o.URL, o.HTTPStatus))
		}
	}
	if combined == nil {
		return nil
	}
	n := len(multierr.Errors(combined))
	return fmt.Errorf("%w: %d of %d: %w", ErrEndpointsFailed, n, len(outcomes), combined)
}

func classify(err error) Status {
	if isTimeout(err) {
		return StatusTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return StatusConnError
	}
	return StatusError
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// compactJSON re-encodes valid JSON on one line and leaves anything else as is.
func compactJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err == nil {
		return buf.String()
	}
	return string(body)
}
