package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter reads a metrics source on every scrape.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine.
func NewPrometheusExporter(engine *goAccount.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2048)

	for _, f := range internaldefs.CounterFamilies {
		header(&b, f.Name, f.Help, "counter")
		for _, s := range f.Series {
			fmt.Fprintf(&b, "%s{%s=%q} %d\n", f.Name, f.Label, s.Value, snap.Counters[s.ID])
		}
	}

	h := internaldefs.FederatedLatency
	buckets := internaldefs.Cumulative(snap.Histograms[h.ID])
	header(&b, h.Name, h.Help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		fmt.Fprintf(&b, "%s_bucket{le=%q} %d\n", h.Name, le, buckets[i])
	}
	// the engine keeps no sum
	fmt.Fprintf(&b, "%s_sum 0\n%s_count %d\n", h.Name, h.Name, buckets[len(buckets)-1])

	header(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	fmt.Fprintf(&b, "%s %d\n", internaldefs.AuditDroppedName, dropped)

	return b.String()
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func header(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, helpEscaper.Replace(help), name, kind)
}
