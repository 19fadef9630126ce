package txnimport

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Field string

const (
	FieldDate                 Field = "date"
	FieldPaidBy               Field = "paidBy"
	FieldPaidTo               Field = "paidTo"
	FieldNetAmount            Field = "netAmount"
	FieldIncomingAmount       Field = "incomingAmount"
	FieldOutgoingAmount       Field = "outgoingAmount"
	FieldCurrency             Field = "currency"
	FieldBaseCurrency         Field = "baseCurrency"
	FieldBaseCurrencyAmount   Field = "baseCurrencyAmount"
	FieldExchangeRate         Field = "exchangeRate"
	FieldAccountID            Field = "accountId"
	FieldAccountType          Field = "accountType"
	FieldCategory             Field = "category"
	FieldReference            Field = "reference"
	FieldDescription          Field = "description"
	FieldStatus               Field = "status"
	FieldReconciliationStatus Field = "reconciliationStatus"
	FieldApprovalStatus       Field = "approvalStatus"
)

// Fields lists every canonical field in mapping order.
var Fields = []Field{
	FieldDate,
	FieldPaidBy,
	FieldPaidTo,
	FieldNetAmount,
	FieldIncomingAmount,
	FieldOutgoingAmount,
	FieldCurrency,
	FieldBaseCurrency,
	FieldBaseCurrencyAmount,
	FieldExchangeRate,
	FieldAccountID,
	FieldAccountType,
	FieldCategory,
	FieldReference,
	FieldDescription,
	FieldStatus,
	FieldReconciliationStatus,
	FieldApprovalStatus,
}

var RequiredFields = []Field{
	FieldDate,
	FieldPaidBy,
	FieldPaidTo,
	FieldNetAmount,
	FieldCurrency,
	FieldAccountID,
	FieldAccountType,
	FieldCategory,
}

// AliasTable maps a canonical field to its accepted header spellings. Order
// within a list is significant: the first alias found in the header wins.
type AliasTable map[Field][]string

func DefaultAliases() AliasTable {
	return AliasTable{
		FieldDate:                 {"date", "transaction_date", "transactionDate", "Date"},
		FieldPaidBy:               {"paidBy", "paid_by", "payer", "from"},
		FieldPaidTo:               {"paidTo", "paid_to", "payee", "to"},
		FieldNetAmount:            {"netAmount", "net_amount", "amount"},
		FieldIncomingAmount:       {"incomingAmount", "incoming_amount", "incoming", "credit"},
		FieldOutgoingAmount:       {"outgoingAmount", "outgoing_amount", "outgoing", "debit"},
		FieldCurrency:             {"currency", "currency_code"},
		FieldBaseCurrency:         {"baseCurrency", "base_currency"},
		FieldBaseCurrencyAmount:   {"baseCurrencyAmount", "base_currency_amount", "base_amount"},
		FieldExchangeRate:         {"exchangeRate", "exchange_rate", "fx_rate", "rate"},
		FieldAccountID:            {"accountId", "account_id", "account"},
		FieldAccountType:          {"accountType", "account_type"},
		FieldCategory:             {"category", "category_name"},
		FieldReference:            {"reference", "ref", "reference_number"},
		FieldDescription:          {"description", "memo", "notes"},
		FieldStatus:               {"status", "transaction_status"},
		FieldReconciliationStatus: {"reconciliationStatus", "reconciliation_status"},
		FieldApprovalStatus:       {"approvalStatus", "approval_status"},
	}
}

func (t AliasTable) Clone() AliasTable {
	out := make(AliasTable, len(t))
	for field, aliases := range t {
		out[field] = append([]string(nil), aliases...)
	}
	return out
}

type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliasOverrides reads a YAML file of the form
//
//	aliases:
//	  netAmount: ["total", "value"]
//
// and returns base with the extra aliases appended after the built-in ones.
func LoadAliasOverrides(path string, base AliasTable) (AliasTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliasOverrides(raw, base)
}

func ParseAliasOverrides(raw []byte, base AliasTable) (AliasTable, error) {
	var file aliasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}

	known := map[string]Field{}
	for _, field := range Fields {
		known[strings.ToLower(string(field))] = field
	}

	merged := base.Clone()
	for name, extra := range file.Aliases {
		field, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown field %q in alias file", name)
		}
		for _, alias := range extra {
			alias = strings.TrimSpace(alias)
			if alias == "" || containsFold(merged[field], alias) {
				continue
			}
			merged[field] = append(merged[field], alias)
		}
	}
	return merged, nil
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
