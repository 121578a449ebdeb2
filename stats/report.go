package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Episodes"

type report struct {
	RunID   string   `json:"runId"`
	Summary Summary  `json:"summary"`
	Games   []Record `json:"games"`
}

// SaveJSON writes the summary and the grouped history to path.
func (s *Stats) SaveJSON(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report{
		RunID:   s.RunID,
		Summary: s.Summary(),
		Games:   s.GetStats(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}

// WriteChart renders an HTML line chart of score and reward per record.
func (s *Stats) WriteChart(w io.Writer) error {
	games := s.GetStats()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Training progress",
			Subtitle: "run " + s.RunID,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	labels := make([]string, 0, len(games))
	scores := make([]opts.LineData, 0, len(games))
	rewards := make([]opts.LineData, 0, len(games))
	for _, g := range games {
		labels = append(labels, recordLabel(g))
		scores = append(scores, opts.LineData{Value: g.AverageScore})
		rewards = append(rewards, opts.LineData{Value: g.AverageReward})
	}

	line.SetXAxis(labels).
		AddSeries("average score", scores).
		AddSeries("average reward", rewards)

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SaveChart writes the chart to an HTML file.
func (s *Stats) SaveChart(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	return s.WriteChart(f)
}

// SaveWorkbook writes one spreadsheet row per record.
func (s *Stats) SaveWorkbook(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{
		"First episode", "Last episode", "Games",
		"Average score", "Max score", "Min score",
		"Average steps", "Average reward", "Epsilon", "Average duration (s)",
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, g := range s.GetStats() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			g.FirstEpisode, g.LastEpisode, g.GamesCount,
			g.AverageScore, g.MaxScore, g.MinScore,
			g.AverageSteps, g.AverageReward, g.Epsilon, g.AverageDuration,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func recordLabel(r Record) string {
	if r.FirstEpisode == r.LastEpisode {
		return fmt.Sprintf("%d", r.FirstEpisode)
	}
	return fmt.Sprintf("%d-%d", r.FirstEpisode, r.LastEpisode)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
