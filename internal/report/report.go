// Package report renders discovery results for the console.
//
// Device-provided strings are kept raw everywhere else; this package is the
// one place they are made printable.
package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/danmuck/nativectl/internal/catalog"
	"github.com/danmuck/nativectl/internal/probe"
	"github.com/danmuck/nativectl/internal/protocol/session"
)

const (
	ruleWidth  = 60
	labelWidth = 21
	checkMark  = "✓"
	crossMark  = "✗"
)

var rule = strings.Repeat("=", ruleWidth)

// Report is everything printed about one device.
type Report struct {
	Host      string
	Result    *session.Result
	Endpoints []catalog.Endpoint
	Skipped   []catalog.Skipped
}

// New derives endpoints from the result's entities.
func New(host string, res *session.Result) Report {
	r := Report{Host: host, Result: res}
	if res != nil {
		r.Endpoints, r.Skipped = catalog.DeriveEndpoints(res.Entities)
	}
	return r
}

// Totals counts endpoints by method capability.
type Totals struct {
	Entities   int
	Endpoints  int
	GetCapable int
	PostOnly   int
}

func (r Report) Totals() Totals {
	t := Totals{Endpoints: len(r.Endpoints)}
	if r.Result != nil {
		t.Entities = len(r.Result.Entities)
	}
	for _, ep := range r.Endpoints {
		if ep.HasMethod(catalog.MethodGet) {
			t.GetCapable++
		} else {
			t.PostOnly++
		}
	}
	return t
}

// Clean makes a device string printable, replacing invalid UTF-8.
func Clean(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// DeviceName prefers the friendly name.
func (r Report) DeviceName() string {
	if r.Result == nil {
		return r.Host
	}
	if r.Result.DeviceInfo.FriendlyName != "" {
		return Clean(r.Result.DeviceInfo.FriendlyName)
	}
	return Clean(r.Result.DeviceInfo.Name)
}

// BaseURL is the root of the device web server.
func (r Report) BaseURL() string {
	var port uint32
	if r.Result != nil {
		port = r.Result.DeviceInfo.WebserverPort
	}
	return probe.BaseURL(r.Host, port)
}

// WriteFull prints the device block, entities, skipped entities, endpoints
// and totals.
func (r Report) WriteFull(w io.Writer) error {
	bw := bufio.NewWriter(w)
	r.writeDevice(bw)
	r.writeEntities(bw)
	r.writeEndpoints(bw)
	return bw.Flush()
}

// WriteSummary prints only the totals.
func (r Report) WriteSummary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	t := r.Totals()
	fmt.Fprintf(bw, "Total Entities: %d\n", t.Entities)
	r.writeEndpointTotals(bw, t)
	return bw.Flush()
}

// WriteElapsed prints the execution time line of a timed run.
func WriteElapsed(w io.Writer, d time.Duration) error {
	_, err := fmt.Fprintf(w, "\nExecution Time: %.3fs\n", d.Seconds())
	return err
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s%s\n", runewidth.FillRight(label+":", labelWidth), Clean(value))
}

func (r Report) writeDevice(w io.Writer) {
	if r.Result == nil {
		return
	}
	info := r.Result.DeviceInfo
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DEVICE INFORMATION")
	fmt.Fprintln(w, rule)
	field(w, "Name", info.Name)
	if info.FriendlyName != "" {
		field(w, "Friendly Name", info.FriendlyName)
	}
	field(w, "MAC Address", info.MAC)
	field(w, "ESPHome Version", info.Version)
	if info.CompilationTime != "" {
		field(w, "Compilation Time", info.CompilationTime)
	}
	if info.Model != "" {
		field(w, "Model", info.Model)
	}
	if info.Manufacturer != "" {
		field(w, "Manufacturer", info.Manufacturer)
	}
	if info.ProjectName != "" {
		field(w, "Project", info.ProjectName+" "+info.ProjectVersion)
	}
	if r.Result.Hello.ServerInfo != "" {
		field(w, "Platform", r.Result.Hello.ServerInfo)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func (r Report) writeEntities(w io.Writer) {
	var entities []catalog.Entity
	if r.Result != nil {
		entities = r.Result.Entities
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ENTITIES")
	fmt.Fprintln(w, rule)
	for _, g := range catalog.GroupEntities(entities) {
		if len(g.Entities) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d):\n", g.Name, len(g.Entities))
		for _, e := range catalog.SortedByDisplay(g.Entities) {
			fmt.Fprintf(w, "  %s\n", Clean(e.DisplayLine()))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Entities: %d\n", len(entities))
	fmt.Fprintln(w, rule)
}

func (r Report) writeEndpoints(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "REST API ENDPOINTS")
	fmt.Fprintln(w, rule)
	base := r.BaseURL()
	fmt.Fprintf(w, "\nBase URL: %s\n\n", base)

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "ENTITIES WITHOUT REST ENDPOINTS (%d)\n", len(r.Skipped))
		fmt.Fprintln(w, rule)
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  [%s] %s (%s)\n", s.Kind, Clean(s.Name), Clean(s.ObjectID))
		}
		fmt.Fprintln(w)
	}

	byLabel := make(map[string][]catalog.Endpoint)
	var labels []string
	for _, ep := range r.Endpoints {
		if _, ok := byLabel[ep.Label]; !ok {
			labels = append(labels, ep.Label)
		}
		byLabel[ep.Label] = append(byLabel[ep.Label], ep)
	}
	sort.Strings(labels)
	for _, label := range labels {
		eps := byLabel[label]
		sort.SliceStable(eps, func(i, j int) bool { return eps[i].ObjectID < eps[j].ObjectID })
		fmt.Fprintf(w, "\n%s (%d):\n", label, len(eps))
		for _, ep := range eps {
			fmt.Fprintf(w, "\n  %s\n", Clean(ep.Name))
			fmt.Fprintf(w, "    Endpoint: %s\n", Clean(ep.Path))
			fmt.Fprintf(w, "    Methods:  %s\n", strings.Join(ep.Methods, ", "))
			if len(ep.Actions) > 0 {
				fmt.Fprintf(w, "    Actions:  %s\n", strings.Join(ep.Actions, ", "))
			}
			if len(ep.Options) > 0 {
				fmt.Fprintf(w, "    Options:  %s\n", Clean(strings.Join(ep.Options, ", ")))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	r.writeEndpointTotals(w, r.Totals())
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example Usage:")
	fmt.Fprintf(w, "  GET  %s/sensor/{sensor_id}\n", base)
	fmt.Fprintf(w, "  POST %s/switch/{switch_id}/turn_on\n", base)
	fmt.Fprintf(w, "  POST %s/light/{light_id}/toggle\n", base)
	fmt.Fprintln(w)
}

func (r Report) writeEndpointTotals(w io.Writer, t Totals) {
	fmt.Fprintf(w, "Total REST Endpoints: %d\n", t.Endpoints)
	fmt.Fprintf(w, "  GET-capable:  %d\n", t.GetCapable)
	fmt.Fprintf(w, "  POST-only:    %d\n", t.PostOnly)
}

// WriteProbe prints probe outcomes and their summary. Timed runs print the
// summary only.
func WriteProbe(w io.Writer, outcomes []probe.Outcome, timed bool) error {
	bw := bufio.NewWriter(w)
	if !timed {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, rule)
		fmt.Fprintln(bw, "TESTING REST ENDPOINTS (GET)")
		fmt.Fprintln(bw, rule)
		fmt.Fprintln(bw)
	}
	if len(outcomes) == 0 {
		fmt.Fprintln(bw, "No GET endpoints found to test.")
		return bw.Flush()
	}
	if !timed {
		fmt.Fprintf(bw, "Testing %d GET endpoints...\n\n", len(outcomes))
		for _, o := range outcomes {
			writeOutcome(bw, o)
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw, rule)
	}
	s := probe.Summarize(outcomes)
	fmt.Fprintln(bw, "TEST SUMMARY")
	if !timed {
		fmt.Fprintln(bw, rule)
	}
	fmt.Fprintf(bw, "%s%d\n", runewidth.FillRight("Total Tested:", 15), s.Tested)
	fmt.Fprintf(bw, "%s%d %s\n", runewidth.FillRight("Successful:", 15), s.Succeeded, checkMark)
	fmt.Fprintf(bw, "%s%d %s\n", runewidth.FillRight("Failed:", 15), s.Failed, crossMark)
	if !timed {
		fmt.Fprintln(bw, rule)
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func writeOutcome(w io.Writer, o probe.Outcome) {
	head := fmt.Sprintf("[%s] %s", o.Endpoint.Label, Clean(o.Endpoint.Name))
	if o.OK() {
		fmt.Fprintf(w, "%s %s\n", checkMark, head)
		fmt.Fprintf(w, "  URL: %s\n", o.URL)
		fmt.Fprintf(w, "  Response: %s\n", Clean(o.Body))
		return
	}
	fmt.Fprintf(w, "%s %s - %s\n", crossMark, head, o.Status)
	fmt.Fprintf(w, "  URL: %s\n", o.URL)
	switch o.Status {
	case probe.StatusFailed:
		fmt.Fprintf(w, "  Status: %s\n", o.HTTPStatus)
		fmt.Fprintf(w, "  Response: %s\n", Clean(o.Body))
	case probe.StatusTimeout:
		fmt.Fprintf(w, "  Error: Request timed out after %s\n", o.Timeout)
	default:
		fmt.Fprintf(w, "  Error: %v\n", o.Err)
	}
}
