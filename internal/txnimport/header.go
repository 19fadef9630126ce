package txnimport

import (
	"fmt"
	"strings"
)

// ColumnIndexMap holds the zero-based header position of each canonical field
// present in the file. A field with no matching column has no entry.
type ColumnIndexMap map[Field]int

func (m ColumnIndexMap) Has(field Field) bool {
	_, ok := m[field]
	return ok
}

// MapHeader resolves each field against the header row. Aliases are tried in
// table order and the first case-insensitive match wins.
func MapHeader(headers []string, aliases AliasTable) ColumnIndexMap {
	mapping := ColumnIndexMap{}
	for _, field := range Fields {
		if idx, ok := findColumn(headers, aliases[field]); ok {
			mapping[field] = idx
		}
	}
	return mapping
}

func findColumn(headers []string, aliases []string) (int, bool) {
	for _, alias := range aliases {
		for idx, header := range headers {
			if strings.EqualFold(strings.TrimSpace(header), alias) {
				return idx, true
			}
		}
	}
	return 0, false
}

func MissingRequired(mapping ColumnIndexMap) []Field {
	missing := []Field{}
	for _, field := range RequiredFields {
		if !mapping.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

type MissingColumnsError struct {
	MissingFields    []string `json:"missingFields"`
	AvailableColumns []string `json:"availableColumns"`
	RequiredColumns  []string `json:"requiredColumns"`
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingFields, ", "))
}

// CheckRequired runs the required-column gate once per import.
func CheckRequired(headers []string, mapping ColumnIndexMap) error {
	missing := MissingRequired(mapping)
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{
		MissingFields:    fieldNames(missing),
		AvailableColumns: append([]string{}, headers...),
		RequiredColumns:  fieldNames(RequiredFields),
	}
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = string(field)
	}
	return names
}
