package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"weaksource/internal/models"
)

// Форматы вывода
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat неизвестный формат вывода
var ErrUnknownFormat = errors.New("unknown report format")

// Report данные для вывода одного прогона
type Report struct {
	Result models.ScanResult
	// ExpectedCenter ожидаемое положение источника, 0 если неизвестно
	ExpectedCenter int
}

// ParseFormat проверяет имя формата
func ParseFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		return FormatText, nil
	}
	switch f {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Write выводит отчет в заданном формате
func Write(w io.Writer, rep Report, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case FormatTable:
		return writeTable(w, rep)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep.Result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep.Result); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return writeText(w, rep)
	}
}

func writeText(w io.Writer, rep Report) error {
	res := rep.Result

	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d data points.\n", res.Samples)
	b.WriteString("--- Diagnostics ---\n")
	fmt.Fprintf(&b, "Background Level: %.2f\n", res.BackgroundLevel)
	fmt.Fprintf(&b, "Trigger Threshold: %.2f\n", res.AlarmThreshold)

	if len(res.Indices) > 0 {
		b.WriteString("\n Anomaly (radiation) detected at points:\n")
		b.WriteString(FormatIndices(res.Indices))
		b.WriteString("\n")
		if rep.ExpectedCenter > 0 {
			fmt.Fprintf(&b, "This corresponds to the array center (around point %d).\n", rep.ExpectedCenter)
		}
	} else {
		b.WriteString("\n No anomalies detected. Try reducing the threshold (threshold_factor).\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(w io.Writer, rep Report) error {
	res := rep.Result

	summary := table.NewWriter()
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Parameter", "Value"})
	summary.AppendRows([]table.Row{
		{"Samples", res.Samples},
		{"Window size", res.WindowSize},
		{"Threshold factor", fmt.Sprintf("%.2f", res.ThresholdFactor)},
		{"Background level", fmt.Sprintf("%.2f", res.BackgroundLevel)},
		{"Alarm threshold", fmt.Sprintf("%.2f", res.AlarmThreshold)},
		{"Anomalous points", len(res.Indices)},
	})

	if _, err := fmt.Fprintln(w, summary.Render()); err != nil {
		return err
	}

	if len(res.Bands) == 0 {
		_, err := fmt.Fprintln(w, "No anomalies detected.")
		return err
	}

	bands := table.NewWriter()
	bands.SetStyle(table.StyleLight)
	bands.AppendHeader(table.Row{"#", "Start", "End", "Points", "Center"})
	for i, band := range res.Bands {
		bands.AppendRow(table.Row{i + 1, band.Start, band.End, band.Len(), fmt.Sprintf("%.1f", band.Center())})
	}
	bands.AppendFooter(table.Row{"", "", "Total", len(res.Indices), ""})

	_, err := fmt.Fprintln(w, bands.Render())
	return err
}

// FormatIndices форматирует индексы как [a, b, c]
func FormatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
