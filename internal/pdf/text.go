package pdf

import (
	"fmt"
	"strings"

	"github.com/dslipak/pdf"
)

// ExtractTextLayer returns the embedded (searchable) text of each selected
// page. Scanned pages usually have none; pages without text are omitted.
func ExtractTextLayer(filename string, pageRange string) (map[int]string, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}

	totalPages := reader.NumPage()
	if len(pageNumbers) == 0 {
		for i := 1; i <= totalPages; i++ {
			pageNumbers = append(pageNumbers, i)
		}
	}

	results := make(map[int]string)
	for _, pageNum := range pageNumbers {
		if pageNum > totalPages {
			continue
		}
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		if strings.TrimSpace(text) != "" {
			results[pageNum] = text
		}
	}
	return results, nil
}

func pageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var sb strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				words = append(words, text.S)
			}
			sb.WriteString(strings.Join(words, " "))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	plain, _ := page.GetPlainText(make(map[string]*pdf.Font))
	return plain
}
