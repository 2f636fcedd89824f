package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/metrics/export/internaldefs"
)

// Exporter renders deviceauth metrics and device lockout state in Prometheus
// text exposition format.
type Exporter struct {
	source internaldefs.Source
}

// NewExporter reads from engine on every scrape.
func NewExporter(engine *deviceauth.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource accepts any value with the engine's read-only
// metrics and lockout methods.
func NewExporterFromSource(source internaldefs.Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current sample. The request context bounds the
// lockout state reads.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render(r.Context())))
	})
}

// Render returns "" when the engine runs with metrics disabled.
func (p *Exporter) Render(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	sample := internaldefs.Collect(ctx, p.source)
	if !sample.Enabled {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, c := range sample.Counters {
		writeFamily(&b, c.Name, c.Help, "counter")
		writeValue(&b, c.Name, c.Value)
	}
	for _, h := range sample.Histograms {
		writeHistogram(&b, h)
	}
	for _, g := range sample.Gauges {
		writeFamily(&b, g.Name, g.Help, "gauge")
		writeValue(&b, g.Name, g.Value)
	}

	return b.String()
}

func writeFamily(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeValue(b *strings.Builder, name string, v int64) {
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(v, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, h internaldefs.HistogramPoint) {
	writeFamily(b, h.Name, h.Help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(h.Name)
		b.WriteString(`_bucket{le="`)
		b.WriteString(le)
		b.WriteString(`"} `)
		b.WriteString(strconv.FormatUint(h.Cumulative[i], 10))
		b.WriteByte('\n')
	}

	// The engine keeps bucket counts only, so _sum is always 0.
	writeValue(b, h.Name+"_sum", 0)
	b.WriteString(h.Name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(h.Cumulative[len(h.Cumulative)-1], 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
