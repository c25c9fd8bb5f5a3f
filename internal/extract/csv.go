package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// csvTable renders a CSV document as a bordered text table. The first record
// is the header and every data row is prefixed with its zero-based index.
func csvTable(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("parse csv: no columns to parse from file")
	}

	header := records[0]
	width := len(header)
	for _, rec := range records[1:] {
		if len(rec) > width {
			return "", fmt.Errorf("parse csv: expected %d fields, saw %d", len(header), len(rec))
		}
	}

	rows := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]string, 0, width+1)
		row = append(row, strconv.Itoa(i))
		row = append(row, rec...)
		for len(row) < width+1 {
			row = append(row, "NaN")
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{""}, header...)...).
		Rows(rows...)

	return t.String(), nil
}
