package txnimport

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeBank   = "bank"
	AccountTypeWallet = "wallet"

	DefaultStatus               = "PENDING"
	DefaultReconciliationStatus = "UNRECONCILED"
	DefaultApprovalStatus       = "PENDING"
)

const (
	msgInvalidDate        = "Invalid date format"
	msgMissingParties     = "Missing paidBy or paidTo"
	msgMissingRequired    = "Missing required fields"
	msgInvalidAccountType = `Invalid accountType. Must be "bank" or "wallet"`
)

// RawTransactionRow is one data row after coercion and defaulting.
type RawTransactionRow struct {
	Date                 time.Time
	PaidBy               string
	PaidTo               string
	NetAmount            decimal.Decimal
	IncomingAmount       decimal.Decimal
	OutgoingAmount       decimal.Decimal
	Currency             string
	BaseCurrency         string
	BaseCurrencyAmount   decimal.Decimal
	ExchangeRate         decimal.Decimal
	AccountID            string
	AccountType          string
	Category             string
	Reference            *string
	Description          *string
	Status               string
	ReconciliationStatus string
	ApprovalStatus       string
	CompanyID            int64
	IsDeleted            bool
}

// RowError reports why one input line was rejected. Row is the 1-based line
// number in the uploaded file.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Candidate is a validated row waiting to be persisted.
type Candidate struct {
	Line int
	Row  RawTransactionRow
}

type rowValidationError struct {
	message string
}

func (e *rowValidationError) Error() string {
	return e.message
}

func invalid(message string) error {
	return &rowValidationError{message: message}
}

// rowValues gives typed access to the cells of one data row.
type rowValues struct {
	cells   []string
	mapping ColumnIndexMap
}

// lookup returns the trimmed cell for field and whether the file has a
// column for it at all.
func (v rowValues) lookup(field Field) (string, bool) {
	idx, ok := v.mapping[field]
	if !ok {
		return "", false
	}
	if idx < 0 || idx >= len(v.cells) {
		return "", true
	}
	return strings.TrimSpace(v.cells[idx]), true
}

func (v rowValues) text(field Field) string {
	value, _ := v.lookup(field)
	return value
}

func (v rowValues) optionalText(field Field) *string {
	value, ok := v.lookup(field)
	if !ok || value == "" {
		return nil
	}
	return &value
}

func (v rowValues) amount(field Field, fallback decimal.Decimal) decimal.Decimal {
	value, ok := v.lookup(field)
	if !ok {
		return fallback
	}
	return parseLenientDecimal(value)
}

func (v rowValues) status(field Field, fallback string) string {
	value, ok := v.lookup(field)
	if !ok || value == "" {
		return fallback
	}
	return strings.ToUpper(value)
}

// ParseRow coerces and validates a single data row. Validation failures and
// unexpected panics are returned as errors whose message is the row error.
func ParseRow(cells []string, mapping ColumnIndexMap, companyID int64) (row RawTransactionRow, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			row = RawTransactionRow{}
			err = invalid(fmt.Sprintf("Parse error: %v", recovered))
		}
	}()

	values := rowValues{cells: cells, mapping: mapping}

	rawDate, _ := values.lookup(FieldDate)
	date, ok := parseDate(rawDate)
	if !ok {
		return RawTransactionRow{}, invalid(msgInvalidDate)
	}

	netAmount := values.amount(FieldNetAmount, decimal.Zero)
	currency := values.text(FieldCurrency)

	baseCurrency := values.text(FieldBaseCurrency)
	if baseCurrency == "" {
		baseCurrency = currency
	}

	exchangeRate := values.amount(FieldExchangeRate, decimal.NewFromInt(1))
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}

	row = RawTransactionRow{
		Date:                 date,
		PaidBy:               values.text(FieldPaidBy),
		PaidTo:               values.text(FieldPaidTo),
		NetAmount:            netAmount,
		IncomingAmount:       values.amount(FieldIncomingAmount, decimal.Zero),
		OutgoingAmount:       values.amount(FieldOutgoingAmount, decimal.Zero),
		Currency:             currency,
		BaseCurrency:         baseCurrency,
		BaseCurrencyAmount:   values.amount(FieldBaseCurrencyAmount, netAmount),
		ExchangeRate:         exchangeRate,
		AccountID:            values.text(FieldAccountID),
		AccountType:          values.text(FieldAccountType),
		Category:             values.text(FieldCategory),
		Reference:            values.optionalText(FieldReference),
		Description:          values.optionalText(FieldDescription),
		Status:               values.status(FieldStatus, DefaultStatus),
		ReconciliationStatus: values.status(FieldReconciliationStatus, DefaultReconciliationStatus),
		ApprovalStatus:       values.status(FieldApprovalStatus, DefaultApprovalStatus),
		CompanyID:            companyID,
		IsDeleted:            false,
	}

	if row.PaidBy == "" || row.PaidTo == "" {
		return RawTransactionRow{}, invalid(msgMissingParties)
	}
	if row.Currency == "" || row.AccountID == "" || row.Category == "" {
		return RawTransactionRow{}, invalid(msgMissingRequired)
	}
	if row.AccountType != AccountTypeBank && row.AccountType != AccountTypeWallet {
		return RawTransactionRow{}, invalid(msgInvalidAccountType)
	}

	return row, nil
}

// ParseRows runs ParseRow over every data row. A bad row never stops the
// rows after it.
func ParseRows(rows [][]string, mapping ColumnIndexMap, companyID int64) ([]Candidate, []RowError) {
	accepted := make([]Candidate, 0, len(rows))
	rowErrors := []RowError{}
	for idx, cells := range rows {
		line := LineNumber(idx)
		row, err := ParseRow(cells, mapping, companyID)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: line, Error: err.Error()})
			continue
		}
		accepted = append(accepted, Candidate{Line: line, Row: row})
	}
	return accepted, rowErrors
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

func parseDate(value string) (time.Time, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseLenientDecimal reads the longest numeric prefix of value as a float64,
// ignoring thousands separators. Anything unparseable or outside float64
// range is zero.
func parseLenientDecimal(value string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	match := strings.TrimSuffix(leadingNumber.FindString(cleaned), ".")
	if match == "" {
		return decimal.Zero
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(parsed)
}
