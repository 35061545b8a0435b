package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is tabular export content with a fixed column order. Row cells are
// looked up by header name, so callers can append sparse rows and missing
// cells render empty.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(headers ...string) Dataset {
	return Dataset{Headers: headers}
}

// Append adds one row to the dataset.
func (d *Dataset) Append(row map[string]string) {
	d.Rows = append(d.Rows, row)
}

// Len returns the number of data rows, excluding the header.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// record projects a row map onto the header order.
func (d *Dataset) record(row map[string]string, buf []string) []string {
	buf = buf[:0]
	for _, header := range d.Headers {
		buf = append(buf, row[header])
	}
	return buf
}

// CSVExporter renders a Dataset into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, 0, len(data.Headers))
	for _, row := range data.Rows {
		record = data.record(row, record)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
