package judge

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/scrutinium/scrutinium/internal/domain"
)

// ReportWriter renders ranked evaluation results as a human-readable
// table or as CSV for export.
type ReportWriter struct{}

// NewReportWriter creates a ReportWriter.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func reportHeaders() []string {
	headers := []string{"Rank", "Tool"}
	for _, metric := range domain.Metrics {
		headers = append(headers, metricHeader(metric))
	}
	return append(headers, "Overall")
}

func metricHeader(metric domain.Metric) string {
	name := string(metric)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func resultRow(result domain.ToolResult) []string {
	row := []string{strconv.Itoa(result.Rank), result.Tool}
	for _, metric := range domain.Metrics {
		row = append(row, formatScore(result.Metrics[metric].Score))
	}
	return append(row, formatScore(result.Overall))
}

// WriteTable renders the ranked results as a markdown-style table.
// Results are expected in rank order, as produced by RankingEngine.Rank.
func (r *ReportWriter) WriteTable(w io.Writer, result *domain.EvaluationResult) error {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(reportHeaders()),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)

	for _, toolResult := range result.Results {
		if err := table.Append(resultRow(toolResult)); err != nil {
			return fmt.Errorf("append table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render results table: %w", err)
	}

	if result.Winner != "" {
		fmt.Fprintf(w, "\nWinner: %s", result.Winner)
		if result.WinnerReason != "" {
			fmt.Fprintf(w, " (%s)", result.WinnerReason)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteCSV writes the ranked results as CSV with one row per tool.
// Score columns carry the same three-decimal precision as the table.
func (r *ReportWriter) WriteCSV(w io.Writer, result *domain.EvaluationResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reportHeaders()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, toolResult := range result.Results {
		if err := cw.Write(resultRow(toolResult)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
