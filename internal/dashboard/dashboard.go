package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"flowcap/internal/stats"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultChartJSURL is the Chart.js bundle the page loads.
const DefaultChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

//go:embed assets/*
var assets embed.FS

// Options controls dashboard rendering.
type Options struct {
	Title        string
	ChartJSURL   string
	MaxForecasts int
	// Minify runs the inline CSS and JS through esbuild.
	Minify bool
}

type chartData struct {
	Monthly    []stats.MonthPoint      `json:"monthly"`
	AgeBuckets []stats.AgeBucket       `json:"ageBuckets"`
	Scenarios  []stats.ScenarioStat    `json:"scenarios"`
	Cadence    []stats.DeliveryCadence `json:"cadence"`
}

type page struct {
	Title      string
	ChartJSURL string
	Saturated  int
	Snap       stats.CapacitySnapshot
	Forecasts  []stats.Forecast
	CSS        template.CSS
	JS         template.JS
	Data       template.JS
}

var funcs = template.FuncMap{
	"sev": func(s stats.Severity) string { return string(s) },
	"eff": func(p *int) string {
		if p == nil {
			return "n/a"
		}
		return fmt.Sprintf("%d%%", *p)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "n/a"
		}
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "n/a"
		}
		return t.Format("2006-01-02 15:04")
	},
	"join": strings.Join,
}

var pageTemplate = template.Must(template.New("dashboard.html.tmpl").Funcs(funcs).ParseFS(assets, "assets/dashboard.html.tmpl"))

// Render writes the self-contained HTML dashboard for a snapshot.
func Render(w io.Writer, snap stats.CapacitySnapshot, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Capacity"
	}
	if opts.ChartJSURL == "" {
		opts.ChartJSURL = DefaultChartJSURL
	}

	css, err := asset("assets/dashboard.css", api.LoaderCSS, opts.Minify)
	if err != nil {
		return err
	}
	js, err := asset("assets/dashboard.js", api.LoaderJS, opts.Minify)
	if err != nil {
		return err
	}

	data, err := json.Marshal(chartData{
		Monthly:    snap.Monthly,
		AgeBuckets: snap.AgeBuckets,
		Scenarios:  snap.Scenarios,
		Cadence:    snap.Cadence,
	})
	if err != nil {
		return fmt.Errorf("failed to encode chart data: %w", err)
	}

	forecasts := snap.Forecasts
	if opts.MaxForecasts > 0 && len(forecasts) > opts.MaxForecasts {
		forecasts = forecasts[:opts.MaxForecasts]
	}

	p := page{
		Title:      opts.Title,
		ChartJSURL: opts.ChartJSURL,
		Saturated:  stats.FlowRatioSaturated,
		Snap:       snap,
		Forecasts:  forecasts,
		CSS:        template.CSS(css),
		JS:         template.JS(js),
		Data:       template.JS(data),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func asset(name string, loader api.Loader, minify bool) (string, error) {
	raw, err := assets.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("missing dashboard asset %s: %w", name, err)
	}
	if !minify {
		return string(raw), nil
	}
	return Minify(string(raw), loader)
}

// Minify compresses CSS or JS source with esbuild's transform API.
func Minify(code string, loader api.Loader) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:            loader,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", fmt.Errorf("minify failed: %s", strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}
