package txnimport

import (
	"bytes"
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

const recordDateLayout = "2006-01-02"

func templateExample() RawTransactionRow {
	reference := "INV-2024-0131"
	description := "January stationery order"
	return RawTransactionRow{
		Date:                 time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		PaidBy:               "Acme Ltd",
		PaidTo:               "Northwind Supplies",
		NetAmount:            decimal.RequireFromString("1250.00"),
		IncomingAmount:       decimal.Zero,
		OutgoingAmount:       decimal.RequireFromString("1250.00"),
		Currency:             "EUR",
		BaseCurrency:         "USD",
		BaseCurrencyAmount:   decimal.RequireFromString("1356.25"),
		ExchangeRate:         decimal.RequireFromString("1.085"),
		AccountID:            "acc-main-eur",
		AccountType:          AccountTypeBank,
		Category:             "Office Supplies",
		Reference:            &reference,
		Description:          &description,
		Status:               DefaultStatus,
		ReconciliationStatus: DefaultReconciliationStatus,
		ApprovalStatus:       DefaultApprovalStatus,
	}
}

// TemplateHeader is the canonical column order used by the template and by
// exports.
func TemplateHeader() []string {
	return fieldNames(Fields)
}

// FormatRecord renders row in TemplateHeader order so that the output can be
// imported again unchanged.
func FormatRecord(row RawTransactionRow) []string {
	record := make([]string, len(Fields))
	for i, field := range Fields {
		switch field {
		case FieldDate:
			record[i] = row.Date.Format(recordDateLayout)
		case FieldPaidBy:
			record[i] = row.PaidBy
		case FieldPaidTo:
			record[i] = row.PaidTo
		case FieldNetAmount:
			record[i] = row.NetAmount.String()
		case FieldIncomingAmount:
			record[i] = row.IncomingAmount.String()
		case FieldOutgoingAmount:
			record[i] = row.OutgoingAmount.String()
		case FieldCurrency:
			record[i] = row.Currency
		case FieldBaseCurrency:
			record[i] = row.BaseCurrency
		case FieldBaseCurrencyAmount:
			record[i] = row.BaseCurrencyAmount.String()
		case FieldExchangeRate:
			record[i] = row.ExchangeRate.String()
		case FieldAccountID:
			record[i] = row.AccountID
		case FieldAccountType:
			record[i] = row.AccountType
		case FieldCategory:
			record[i] = row.Category
		case FieldReference:
			record[i] = deref(row.Reference)
		case FieldDescription:
			record[i] = deref(row.Description)
		case FieldStatus:
			record[i] = row.Status
		case FieldReconciliationStatus:
			record[i] = row.ReconciliationStatus
		case FieldApprovalStatus:
			record[i] = row.ApprovalStatus
		}
	}
	return record
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// WriteCSV writes the canonical header followed by one record per row.
func WriteCSV(w io.Writer, rows []RawTransactionRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TemplateHeader()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(FormatRecord(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// TemplateCSV renders the canonical header and one example row.
func TemplateCSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []RawTransactionRow{templateExample()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
