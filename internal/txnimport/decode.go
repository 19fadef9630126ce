package txnimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooFewLines = errors.New("file must contain at least a header row and one data row")

type RowLimitError struct {
	MaxRows int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("file exceeds the maximum of %d data rows", e.MaxRows)
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Table is a decoded CSV file with blank lines removed.
type Table struct {
	Headers []string
	Rows    [][]string
}

// LineNumber is the 1-based line a data row is reported under: the header is
// line 1 and the first data row is line 2.
func LineNumber(dataIndex int) int {
	return dataIndex + 2
}

// Decode splits raw CSV text into a header and data rows. maxRows <= 0 means
// no limit on data rows.
func Decode(data []byte, maxRows int) (Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records := make([][]string, 0, 256)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, cleanRecord(record))
	}

	if len(records) < 2 {
		return Table{}, ErrTooFewLines
	}

	headers := records[0]
	rows := records[1:]
	if maxRows > 0 && len(rows) > maxRows {
		return Table{}, &RowLimitError{MaxRows: maxRows}
	}

	return Table{Headers: headers, Rows: rows}, nil
}

func isBlankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func cleanRecord(record []string) []string {
	out := make([]string, len(record))
	for i, value := range record {
		value = strings.TrimSpace(value)
		value = strings.TrimSuffix(strings.TrimPrefix(value, `"`), `"`)
		out[i] = value
	}
	return out
}
