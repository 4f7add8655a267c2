package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/lockbox/internal/storage"
)

var seriesNames = []string{
	"in1", "in2", "mon1", "mon2", "mon3", "mon4",
	"raw1", "raw2", "out1", "out2",
}

// SeriesNames lists the trace columns that can be plotted.
func SeriesNames() []string { return append([]string(nil), seriesNames...) }

// Series extracts one column of a stored trace.
func Series(rows []storage.Row, name string) ([]float64, error) {
	pick, ok := map[string]func(storage.Row) int{
		"in1":  func(r storage.Row) int { return int(r.In.Analog[0]) },
		"in2":  func(r storage.Row) int { return int(r.In.Analog[1]) },
		"mon1": func(r storage.Row) int { return int(r.In.Relock[0]) },
		"mon2": func(r storage.Row) int { return int(r.In.Relock[1]) },
		"mon3": func(r storage.Row) int { return int(r.In.Relock[2]) },
		"mon4": func(r storage.Row) int { return int(r.In.Relock[3]) },
		"raw1": func(r storage.Row) int { return int(r.Out.Raw[0]) },
		"raw2": func(r storage.Row) int { return int(r.Out.Raw[1]) },
		"out1": func(r storage.Row) int { return int(r.Out.Out[0]) },
		"out2": func(r storage.Row) int { return int(r.Out.Out[1]) },
	}[name]
	if !ok {
		return nil, fmt.Errorf("unknown series %q (have %s)", name, strings.Join(seriesNames, ", "))
	}
	data := make([]float64, len(rows))
	for i, r := range rows {
		data[i] = float64(pick(r))
	}
	return data, nil
}

// PlotSeries draws one series as an ASCII graph.
func PlotSeries(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotTrace draws each named series of a stored trace.
func PlotTrace(rows []storage.Row, names []string, width, height int) (string, error) {
	var s strings.Builder
	for _, name := range names {
		data, err := Series(rows, name)
		if err != nil {
			return "", err
		}
		s.WriteString(PlotSeries(data, name, width, height))
		s.WriteString("\n\n")
	}
	return s.String(), nil
}
