package txnimport

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const basicHeader = "date,paidBy,paidTo,amount,currency,accountId,accountType,category"

func parseSingle(t *testing.T, header, line string) (RawTransactionRow, error) {
	t.Helper()
	headers := strings.Split(header, ",")
	mapping := MapHeader(headers, DefaultAliases())
	return ParseRow(strings.Split(line, ","), mapping, 42)
}

func requireDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s=%s, got %s", name, want, got)
	}
}

func TestParseRowAppliesDefaults(t *testing.T) {
	row, err := parseSingle(t, basicHeader, "2024-01-01,Alice,Bob,100.50,USD,acc1,bank,Sales")
	if err != nil {
		t.Fatalf("expected row to be accepted, got %v", err)
	}

	if !row.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", row.Date)
	}
	requireDecimal(t, "netAmount", row.NetAmount, "100.50")
	requireDecimal(t, "baseCurrencyAmount", row.BaseCurrencyAmount, "100.50")
	requireDecimal(t, "exchangeRate", row.ExchangeRate, "1")
	requireDecimal(t, "incomingAmount", row.IncomingAmount, "0")
	requireDecimal(t, "outgoingAmount", row.OutgoingAmount, "0")
	if row.BaseCurrency != "USD" {
		t.Fatalf("expected baseCurrency USD, got %q", row.BaseCurrency)
	}
	if row.Status != "PENDING" || row.ReconciliationStatus != "UNRECONCILED" || row.ApprovalStatus != "PENDING" {
		t.Fatalf("unexpected statuses %q/%q/%q", row.Status, row.ReconciliationStatus, row.ApprovalStatus)
	}
	if row.Reference != nil || row.Description != nil {
		t.Fatal("expected reference and description to be nil")
	}
	if row.CompanyID != 42 || row.IsDeleted {
		t.Fatalf("unexpected company/deleted %d/%v", row.CompanyID, row.IsDeleted)
	}
	if row.Category != "Sales" || row.AccountID != "acc1" || row.AccountType != "bank" {
		t.Fatalf("unexpected account fields %+v", row)
	}
}

func TestParseRowCoercesUnparseableAmountToZero(t *testing.T) {
	row, err := parseSingle(t, basicHeader, "2024-01-01,Alice,Bob,abc,USD,acc1,bank,Sales")
	if err != nil {
		t.Fatalf("expected lenient amount parse, got %v", err)
	}
	requireDecimal(t, "netAmount", row.NetAmount, "0")
	requireDecimal(t, "baseCurrencyAmount", row.BaseCurrencyAmount, "0")
}

func TestParseLenientDecimal(t *testing.T) {
	cases := map[string]string{
		"100.50":   "100.5",
		"  -12 ":   "-12",
		"1,234.56": "1234.56",
		"42abc":    "42",
		"7.":       "7",
		".25":      "0.25",
		"1e3":      "1000",
		"":         "0",
		"abc":      "0",
		"-":        "0",
		"1e400":    "0",
		"-1e400":   "0",
	}
	for input, want := range cases {
		got := parseLenientDecimal(input)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("parseLenientDecimal(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestParseLenientDecimalBoundsExponents(t *testing.T) {
	for _, input := range []string{"1e300000000", "-1e300000000", "1e-300000000", "9e999999999999"} {
		got := parseLenientDecimal(input)
		if !got.IsZero() {
			t.Fatalf("parseLenientDecimal(%q) = %s, want 0", input, got)
		}
		if len(got.String()) > 1 {
			t.Fatalf("parseLenientDecimal(%q) produced %d digits", input, len(got.String()))
		}
	}

	got := parseLenientDecimal("1.5e308")
	if len(got.String()) > 320 {
		t.Fatalf("expected float64-sized result, got %d digits", len(got.String()))
	}
	if !got.Equal(decimal.NewFromFloat(1.5e308)) {
		t.Fatalf("unexpected value for 1.5e308: %s", got)
	}
}

func TestParseRowEmptyStatusCellsKeepDefaults(t *testing.T) {
	header := basicHeader + ",status,reconciliation_status,approval_status"
	row, err := parseSingle(t, header, "2024-01-01,Alice,Bob,5,USD,acc1,bank,Sales,,,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Status != DefaultStatus || row.ReconciliationStatus != DefaultReconciliationStatus || row.ApprovalStatus != DefaultApprovalStatus {
		t.Fatalf("expected defaults for empty status cells, got %q/%q/%q", row.Status, row.ReconciliationStatus, row.ApprovalStatus)
	}
}

func TestParseRowOptionalColumns(t *testing.T) {
	header := basicHeader + ",incoming,outgoing,base_currency,base_amount,exchange_rate,reference,memo,status,reconciliation_status,approval_status"
	line := "2024-02-10,Alice,Bob,10,EUR,acc1,wallet,Travel,10,0,USD,10.85,1.085,REF-1,Taxi,approved,reconciled,approved"

	row, err := parseSingle(t, header, line)
	if err != nil {
		t.Fatalf("expected row to be accepted, got %v", err)
	}
	requireDecimal(t, "incomingAmount", row.IncomingAmount, "10")
	requireDecimal(t, "baseCurrencyAmount", row.BaseCurrencyAmount, "10.85")
	requireDecimal(t, "exchangeRate", row.ExchangeRate, "1.085")
	if row.BaseCurrency != "USD" {
		t.Fatalf("expected base currency USD, got %q", row.BaseCurrency)
	}
	if row.Reference == nil || *row.Reference != "REF-1" {
		t.Fatalf("unexpected reference %v", row.Reference)
	}
	if row.Description == nil || *row.Description != "Taxi" {
		t.Fatalf("unexpected description %v", row.Description)
	}
	if row.Status != "APPROVED" || row.ReconciliationStatus != "RECONCILED" || row.ApprovalStatus != "APPROVED" {
		t.Fatalf("expected upper-cased statuses, got %q/%q/%q", row.Status, row.ReconciliationStatus, row.ApprovalStatus)
	}
}

func TestParseRowExchangeRateFallsBackToOne(t *testing.T) {
	row, err := parseSingle(t, basicHeader+",exchangeRate", "2024-01-01,Alice,Bob,5,USD,acc1,bank,Sales,n/a")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	requireDecimal(t, "exchangeRate", row.ExchangeRate, "1")
}

func TestParseRowValidation(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "invalid date", line: "not-a-date,Alice,Bob,1,USD,acc1,bank,Sales", want: "Invalid date format"},
		{name: "empty date", line: ",Alice,Bob,1,USD,acc1,bank,Sales", want: "Invalid date format"},
		{name: "date checked before parties", line: "nope,,Bob,1,USD,acc1,bank,Sales", want: "Invalid date format"},
		{name: "missing paidBy", line: "2024-01-01,,Bob,1,USD,acc1,bank,Sales", want: "Missing paidBy or paidTo"},
		{name: "missing paidTo", line: "2024-01-01,Alice,,1,USD,acc1,bank,Sales", want: "Missing paidBy or paidTo"},
		{name: "parties checked before required", line: "2024-01-01,,Bob,1,,acc1,bank,Sales", want: "Missing paidBy or paidTo"},
		{name: "missing currency", line: "2024-01-01,Alice,Bob,1,,acc1,bank,Sales", want: "Missing required fields"},
		{name: "missing account", line: "2024-01-01,Alice,Bob,1,USD,,bank,Sales", want: "Missing required fields"},
		{name: "missing category", line: "2024-01-01,Alice,Bob,1,USD,acc1,bank,", want: "Missing required fields"},
		{name: "required checked before account type", line: "2024-01-01,Alice,Bob,1,USD,acc1,cash,", want: "Missing required fields"},
		{name: "wrong case account type", line: "2024-01-01,Alice,Bob,1,USD,acc1,Bank,Sales", want: `Invalid accountType. Must be "bank" or "wallet"`},
		{name: "unknown account type", line: "2024-01-01,Alice,Bob,1,USD,acc1,cash,Sales", want: `Invalid accountType. Must be "bank" or "wallet"`},
		{name: "short row", line: "2024-01-01,Alice,Bob", want: "Missing required fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSingle(t, basicHeader, tt.line)
			if err == nil {
				t.Fatalf("expected %q, got nil", tt.want)
			}
			if err.Error() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParseRowsNumbersLinesFromTwo(t *testing.T) {
	mapping := MapHeader(strings.Split(basicHeader, ","), DefaultAliases())
	rows := [][]string{
		strings.Split("2024-01-01,Alice,Bob,1,USD,acc1,bank,Sales", ","),
		strings.Split("bad,Alice,Bob,1,USD,acc1,bank,Sales", ","),
		strings.Split("2024-01-03,Alice,Bob,1,USD,acc1,wallet,Sales", ","),
	}

	accepted, rowErrors := ParseRows(rows, mapping, 1)
	if len(accepted) != 2 || len(rowErrors) != 1 {
		t.Fatalf("expected 2 accepted and 1 error, got %d and %d", len(accepted), len(rowErrors))
	}
	if rowErrors[0].Row != 3 {
		t.Fatalf("expected error on line 3, got %d", rowErrors[0].Row)
	}
	if accepted[0].Line != 2 || accepted[1].Line != 4 {
		t.Fatalf("unexpected candidate lines %d, %d", accepted[0].Line, accepted[1].Line)
	}
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, input := range []string{"2024-03-05", "2024/03/05", "03/05/2024", "3/5/2024", "Mar 5, 2024", "5 Mar 2024"} {
		got, ok := parseDate(input)
		if !ok || !got.Equal(want) {
			t.Fatalf("parseDate(%q) = %v, %v", input, got, ok)
		}
	}
	if _, ok := parseDate("2024-13-45"); ok {
		t.Fatal("expected out-of-range date to be rejected")
	}
}
