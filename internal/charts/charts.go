// Package charts renders simulation reports as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/skillrating/internal/simulation"
	"github.com/ramonehamilton/skillrating/internal/tracks"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Width   string   // Chart width (e.g., "900px")
	Height  string   // Chart height (e.g., "500px")
	Theme   string   // Chart theme
	Smooth  bool     // Smooth convergence lines
	Players int      // Players plotted in the convergence chart
	Colors  []string // Series colors, cycled
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:   "900px",
		Height:  "500px",
		Theme:   "light",
		Smooth:  true,
		Players: 8,
		Colors:  []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// pickPlayers returns up to n roster indexes spread evenly over the hidden
// skill range, lowest skill first.
func pickPlayers(players []simulation.PlayerResult, n int) []int {
	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return players[order[a]].HiddenSkill < players[order[b]].HiddenSkill
	})

	if n <= 0 || n >= len(order) {
		return order
	}
	if n == 1 {
		return order[:1]
	}

	picked := make([]int, n)
	for i := range picked {
		picked[i] = order[i*(len(order)-1)/(n-1)]
	}
	return picked
}

// ConvergenceChart plots the visible mu of selected players after every
// snapshot, with a dashed line at each one's hidden skill.
func ConvergenceChart(report *simulation.Report, config ChartConfig) (*charts.Line, error) {
	if len(report.History) == 0 {
		return nil, fmt.Errorf("report for %s has no history", report.Track)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Rating convergence (%s)", report.Track),
			Subtitle: fmt.Sprintf("%d players, %d matches", len(report.Players), report.Matches),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "match"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mu", Scale: opts.Bool(true)}),
	)

	xLabels := make([]string, len(report.History))
	for i, snap := range report.History {
		xLabels[i] = strconv.Itoa(snap.Match)
	}
	line.SetXAxis(xLabels)

	for n, idx := range pickPlayers(report.Players, config.Players) {
		p := report.Players[idx]
		yData := make([]opts.LineData, len(report.History))
		for j, snap := range report.History {
			yData[j] = opts.LineData{Value: snap.Mus[idx]}
		}

		color := config.Colors[n%len(config.Colors)]
		line.AddSeries(fmt.Sprintf("%s (%.0f)", p.Name, p.HiddenSkill), yData).
			SetSeriesOptions(
				charts.WithLineChartOpts(opts.LineChart{
					Smooth:     opts.Bool(config.Smooth),
					ShowSymbol: opts.Bool(false),
				}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
				charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
					Name:  "hidden",
					YAxis: p.HiddenSkill,
				}),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol:    []string{"none", "none"},
					LineStyle: &opts.LineStyle{Type: "dashed", Color: color},
				}),
			)
	}

	return line, nil
}

// AccuracyChart scatters every player's hidden skill against their final
// visible mu; a perfectly calibrated run lies on the diagonal.
func AccuracyChart(report *simulation.Report, config ChartConfig) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Hidden vs visible (%s)", report.Track),
			Subtitle: fmt.Sprintf("mean |deviation| %.1f, max %.1f", report.MeanAbsDeviation, report.MaxDeviation),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "hidden", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "visible", Type: "value", Scale: opts.Bool(true)}),
	)

	points := make([]opts.ScatterData, len(report.Players))
	for i, p := range report.Players {
		points[i] = opts.ScatterData{
			Name:  p.Name,
			Value: []interface{}{p.HiddenSkill, p.Visible.Mu},
		}
	}
	scatter.AddSeries("players", points).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{Color: config.Colors[0]}))

	return scatter
}

// RenderReports writes one page with the convergence and accuracy charts of
// every report, tracks in name order.
func RenderReports(w io.Writer, reports map[tracks.Track]*simulation.Report, config ChartConfig) error {
	if len(reports) == 0 {
		return fmt.Errorf("no reports to render")
	}

	names := make([]tracks.Track, 0, len(reports))
	for t := range reports {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	page := components.NewPage()
	page.PageTitle = "Rating simulation"
	for _, t := range names {
		line, err := ConvergenceChart(reports[t], config)
		if err != nil {
			return err
		}
		page.AddCharts(line, AccuracyChart(reports[t], config))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderReportsFile writes RenderReports output to outputPath.
func RenderReportsFile(outputPath string, reports map[tracks.Track]*simulation.Report, config ChartConfig) (err error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return RenderReports(f, reports, config)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
