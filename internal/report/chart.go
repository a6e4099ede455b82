package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/domain"
)

// Chart geometry. Width grows with the number of bars so dense axes such
// as publication years stay readable.
const (
	chartHeight   = 512
	chartMinWidth = 640
	chartBarWidth = 30
	chartBarGap   = 14
	maxLabelRunes = 24
)

// RenderBarPNG renders one bar chart as PNG to out. It is shared by the
// file writer and the dashboard chart endpoint.
func RenderBarPNG(out io.Writer, title string, entries []aggregate.Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("rendering %q with no entries: %w", title, domain.ErrInvalidInput)
	}

	bars := make([]chart.Value, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, chart.Value{
			Label: truncateLabel(e.Key),
			Value: float64(e.Count),
		})
	}

	width := len(bars)*(chartBarWidth+chartBarGap) + 100
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:    title,
		Height:   chartHeight,
		Width:    width,
		BarWidth: chartBarWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("rendering %q: %w", title, err)
	}
	return nil
}

// writeChart renders one chart to disk. Empty axes are skipped with a
// warning so a chartless axis never fails the whole report.
func (w *Writer) writeChart(path, title string, entries []aggregate.Entry) error {
	if len(entries) == 0 {
		w.logger.Warn().Str("chart", title).Msg("no entries for chart, skipping")
		return nil
	}

	start := time.Now()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := RenderBarPNG(f, title, entries); err != nil {
		return err
	}

	if w.metrics != nil {
		w.metrics.RecordChartRendered(title, time.Since(start).Seconds())
	}
	w.logger.Debug().Str("chart", title).Str("path", path).Int("bars", len(entries)).Msg("chart rendered")
	return nil
}

// truncateLabel shortens long axis labels, mostly journal names, so they
// do not collide on the x axis.
func truncateLabel(s string) string {
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes-3]) + "..."
}
