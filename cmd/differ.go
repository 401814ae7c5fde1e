package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DiffMetrics aggregates the result of one comparison run.
type DiffMetrics struct {
	Source1 string `json:"source1"`
	Source2 string `json:"source2"`

	Rows1      int `json:"rows_source1"`
	Rows2      int `json:"rows_source2"`
	ExtraRows1 int `json:"extra_rows_source1"`
	ExtraRows2 int `json:"extra_rows_source2"`

	CellDifferences int `json:"cell_differences"`

	// ColumnDiffs holds one mismatch counter per column index. Column
	// labels are 1-indexed: ColumnDiffs[0] is "col1".
	ColumnDiffs []int `json:"column_diffs"`

	// MismatchedRows lists 1-indexed row numbers with at least one
	// differing column.
	MismatchedRows []int `json:"mismatched_rows"`

	Passed int `json:"passed"`
	Failed int `json:"failed"`

	// FailedRecords captures each failing row with both sides' original
	// (unpadded) fields, in row order.
	FailedRecords []FailedRecord `json:"failed_records"`
}

// FailedRecord is one failing row with both sides' content.
type FailedRecord struct {
	Row     int      `json:"row"`
	Fields1 []string `json:"source1_fields"`
	Fields2 []string `json:"source2_fields"`
}

// Differ compares two tables positionally and renders reports.
type Differ struct {
	label1 string
	label2 string
	logger *slog.Logger
}

// NewDiffer creates a new Differ instance
func NewDiffer(label1, label2 string, logger *slog.Logger) *Differ {
	return &Differ{
		label1: label1,
		label2: label2,
		logger: logger,
	}
}

// fieldAt returns the field at index j, or the empty-string padding value
// when the row is too short.
func fieldAt(row []string, j int) string {
	if j < len(row) {
		return row[j]
	}
	return ""
}

// Compare walks both tables positionally. The comparison width widens
// monotonically: once the widest row has been seen, every narrower row is
// right-padded with empty fields up to that width. Rows beyond the shorter
// table's length compare against an all-empty row.
func (d *Differ) Compare(table1, table2 [][]string) *DiffMetrics {
	metrics := &DiffMetrics{
		Source1:        d.label1,
		Source2:        d.label2,
		Rows1:          len(table1),
		Rows2:          len(table2),
		ColumnDiffs:    []int{},
		MismatchedRows: []int{},
		FailedRecords:  []FailedRecord{},
	}
	if metrics.Rows1 > metrics.Rows2 {
		metrics.ExtraRows1 = metrics.Rows1 - metrics.Rows2
	} else {
		metrics.ExtraRows2 = metrics.Rows2 - metrics.Rows1
	}

	maxRows := metrics.Rows1
	if metrics.Rows2 > maxRows {
		maxRows = metrics.Rows2
	}

	maxCols := 0
	for i := 0; i < maxRows; i++ {
		var row1, row2 []string
		if i < len(table1) {
			row1 = table1[i]
		}
		if i < len(table2) {
			row2 = table2[i]
		}

		if len(row1) > maxCols {
			maxCols = len(row1)
		}
		if len(row2) > maxCols {
			maxCols = len(row2)
		}
		// Widening extends earlier per-column counters with zeroes.
		for len(metrics.ColumnDiffs) < maxCols {
			metrics.ColumnDiffs = append(metrics.ColumnDiffs, 0)
		}

		rowMismatch := false
		for j := 0; j < maxCols; j++ {
			if fieldAt(row1, j) != fieldAt(row2, j) {
				metrics.ColumnDiffs[j]++
				metrics.CellDifferences++
				rowMismatch = true
			}
		}

		if rowMismatch {
			metrics.Failed++
			metrics.MismatchedRows = append(metrics.MismatchedRows, i+1)
			fields1, fields2 := row1, row2
			// An exhausted side has no row at all. Capture an empty field
			// list so the JSON report renders [] instead of null.
			if fields1 == nil {
				fields1 = []string{}
			}
			if fields2 == nil {
				fields2 = []string{}
			}
			metrics.FailedRecords = append(metrics.FailedRecords, FailedRecord{
				Row:     i + 1,
				Fields1: fields1,
				Fields2: fields2,
			})
		} else {
			metrics.Passed++
		}
	}

	d.logger.Debug(fmt.Sprintf("Compared %d rows: %d passed, %d failed, %d cell differences",
		maxRows, metrics.Passed, metrics.Failed, metrics.CellDifferences))

	return metrics
}

// Render formats metrics in the requested output format. The failed-records
// listing is appended to the text report when requested.
func (d *Differ) Render(metrics *DiffMetrics, format string, withFailedRecords bool) (string, error) {
	if format == "json" {
		data, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal metrics: %w", err)
		}
		return string(data), nil
	}

	report := d.RenderSummary(metrics)
	if withFailedRecords {
		report += "\n\n" + d.RenderFailedRecords(metrics)
	}
	return report, nil
}

// RenderSummary renders the comparison summary report.
func (d *Differ) RenderSummary(metrics *DiffMetrics) string {
	lines := []string{
		"Comparison Report",
		"=================",
		fmt.Sprintf("Source 1: %s", metrics.Source1),
		fmt.Sprintf("Source 2: %s", metrics.Source2),
		"",
		fmt.Sprintf("Rows in source 1: %d", metrics.Rows1),
		fmt.Sprintf("Rows in source 2: %d", metrics.Rows2),
		fmt.Sprintf("Extra rows in source 1: %d", metrics.ExtraRows1),
		fmt.Sprintf("Extra rows in source 2: %d", metrics.ExtraRows2),
		fmt.Sprintf("Cell differences: %d", metrics.CellDifferences),
		fmt.Sprintf("Passed rows: %d", metrics.Passed),
		fmt.Sprintf("Failed rows: %d", metrics.Failed),
	}

	var columnLines []string
	for i, diff := range metrics.ColumnDiffs {
		if diff > 0 {
			columnLines = append(columnLines, fmt.Sprintf("  col%d: %d", i+1, diff))
		}
	}
	if len(columnLines) > 0 {
		lines = append(lines, "Column differences:")
		lines = append(lines, columnLines...)
	}

	if len(metrics.MismatchedRows) > 0 {
		numbers := make([]string, len(metrics.MismatchedRows))
		for i, row := range metrics.MismatchedRows {
			numbers[i] = strconv.Itoa(row)
		}
		lines = append(lines, "Rows with differences: "+strings.Join(numbers, ", "))
	}

	return strings.Join(lines, "\n")
}

// RenderFailedRecords renders each failing row's number and both sides'
// comma-joined field values.
func (d *Differ) RenderFailedRecords(metrics *DiffMetrics) string {
	if len(metrics.FailedRecords) == 0 {
		return "no failing records"
	}

	lines := []string{
		"Failed Records",
		"==============",
	}
	for _, record := range metrics.FailedRecords {
		lines = append(lines, fmt.Sprintf("Row %d:", record.Row))
		lines = append(lines, fmt.Sprintf("  source 1: %s", strings.Join(record.Fields1, ",")))
		lines = append(lines, fmt.Sprintf("  source 2: %s", strings.Join(record.Fields2, ",")))
	}
	return strings.Join(lines, "\n")
}
