package model

import "strings"

// DocumentType identifies the kind of recurring document a source produces.
type DocumentType string

// Known document types.
const (
	DocumentTypeBankStatement       DocumentType = "bank_statement"
	DocumentTypeCreditCardStatement DocumentType = "credit_card_statement"
	DocumentTypeDividendStatement   DocumentType = "dividend_statement"
	DocumentTypeInterestStatement   DocumentType = "interest_statement"
	DocumentTypePayrollSummary      DocumentType = "payroll_summary"
	DocumentTypeInvoice             DocumentType = "invoice"
	DocumentTypeReceipt             DocumentType = "receipt"
	DocumentTypeOther               DocumentType = "other"
)

var documentTypeLabels = map[DocumentType]string{
	DocumentTypeBankStatement:       "Bank Statement",
	DocumentTypeCreditCardStatement: "Credit Card Statement",
	DocumentTypeDividendStatement:   "Dividend Statement",
	DocumentTypeInterestStatement:   "Interest Statement",
	DocumentTypePayrollSummary:      "Payroll Summary",
	DocumentTypeInvoice:             "Invoice",
	DocumentTypeReceipt:             "Receipt",
	DocumentTypeOther:               "Document",
}

// Label returns a human readable name. Unknown types are title-cased from
// their snake_case identifier.
func (d DocumentType) Label() string {
	if label, ok := documentTypeLabels[d]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(string(d), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Document"
	}
	return strings.Join(words, " ")
}

// DefaultGracePeriodDays is used when a source's cadence is not yet known.
// Statements that are typically issued a couple of weeks after period end
// get a looser window.
func (d DocumentType) DefaultGracePeriodDays() int {
	switch d {
	case DocumentTypeDividendStatement, DocumentTypePayrollSummary, DocumentTypeInterestStatement:
		return 14
	default:
		return 7
	}
}

// KnownDocumentTypes returns the built-in document types in display order.
func KnownDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeBankStatement,
		DocumentTypeCreditCardStatement,
		DocumentTypeDividendStatement,
		DocumentTypeInterestStatement,
		DocumentTypePayrollSummary,
		DocumentTypeInvoice,
		DocumentTypeReceipt,
		DocumentTypeOther,
	}
}
