package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/handscan/internal/scan"
)

// FormatResults renders the batch as text, json or csv.
func (r *Result) FormatResults(format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r)
	case "csv":
		return formatCSV(r.Items)
	case "", "text":
		return formatText(r.Items), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(r *Result) (string, error) {
	stats := r.Stats()
	out := struct {
		*Result
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
		NoText    int `json:"no_text"`
	}{r, stats.Processed, stats.Failed, stats.NoText}

	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func formatCSV(items []Item) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"file", "status", "text", "locale", "quality", "estimated_kb", "error"}); err != nil {
		return "", err
	}
	for _, it := range items {
		row := []string{it.Path, "ok", "", "", "", "", ""}
		switch {
		case it.Err != nil:
			row[1] = "error"
			row[6] = it.Message
		case it.Result != nil:
			if it.Result.NoText {
				row[1] = "no_text"
			}
			row[2] = it.Result.Text
			row[3] = it.Result.Locale
			row[4] = strconv.Itoa(it.Result.Quality)
			row[5] = strconv.Itoa(it.Result.EstimatedKB)
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(items []Item) string {
	var output strings.Builder
	for i, it := range items {
		if i > 0 {
			output.WriteString("\n")
		}
		output.WriteString(fmt.Sprintf("# %s\n", it.Path))
		switch {
		case it.Err != nil:
			output.WriteString(it.Message + "\n")
		case it.Result != nil:
			output.WriteString(it.Result.DisplayText() + "\n")
		}
	}
	return output.String()
}

// WriteStats prints processing statistics.
func (r *Result) WriteStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.Total)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.Processed)
	_, _ = fmt.Fprintf(w, "  %s: %d\n", scan.NoTextMessage, stats.NoText)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.Failed)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}
