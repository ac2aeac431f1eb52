package model

import "fmt"

// Field names one editable scalar of a draft payload. Which fields exist
// depends on the document type; FieldsFor lists them.
type Field string

const (
	FieldInvoiceNumber        Field = "invoice_number"
	FieldBillNumber           Field = "bill_number"
	FieldReceiptNumber        Field = "receipt_number"
	FieldCreditNoteNumber     Field = "credit_note_number"
	FieldRelatedInvoiceNumber Field = "related_invoice_number"
	FieldIssueDate            Field = "issue_date"
	FieldDueDate              Field = "due_date"
	FieldPurchaseDate         Field = "purchase_date"
	FieldCurrency             Field = "currency"
	FieldNetAmount            Field = "net_amount"
	FieldVATAmount            Field = "vat_amount"
	FieldGrossAmount          Field = "gross_amount"
)

// Kind is the value type a field accepts.
type Kind string

const (
	KindText  Kind = "text"
	KindDate  Kind = "date"
	KindMoney Kind = "money"
)

var fieldKinds = map[Field]Kind{
	FieldInvoiceNumber:        KindText,
	FieldBillNumber:           KindText,
	FieldReceiptNumber:        KindText,
	FieldCreditNoteNumber:     KindText,
	FieldRelatedInvoiceNumber: KindText,
	FieldIssueDate:            KindDate,
	FieldDueDate:              KindDate,
	FieldPurchaseDate:         KindDate,
	FieldCurrency:             KindText,
	FieldNetAmount:            KindMoney,
	FieldVATAmount:            KindMoney,
	FieldGrossAmount:          KindMoney,
}

// KindOf returns the kind a field accepts, or "" for an unknown field.
func KindOf(f Field) Kind {
	return fieldKinds[f]
}

var fieldsByType = map[DocType][]Field{
	DocTypeInvoice: {
		FieldInvoiceNumber, FieldIssueDate, FieldDueDate, FieldCurrency,
		FieldNetAmount, FieldVATAmount, FieldGrossAmount,
	},
	DocTypeBill: {
		FieldBillNumber, FieldIssueDate, FieldDueDate, FieldCurrency,
		FieldNetAmount, FieldVATAmount, FieldGrossAmount,
	},
	DocTypeReceipt: {
		FieldReceiptNumber, FieldPurchaseDate, FieldCurrency,
		FieldVATAmount, FieldGrossAmount,
	},
	DocTypeCreditNote: {
		FieldCreditNoteNumber, FieldRelatedInvoiceNumber, FieldIssueDate,
		FieldCurrency, FieldNetAmount, FieldVATAmount, FieldGrossAmount,
	},
}

// FieldsFor lists the editable fields of a document type in display order.
// Unknown types have no fields.
func FieldsFor(dt DocType) []Field {
	fields := fieldsByType[dt]
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// HasField reports whether a document type carries the given field.
func HasField(dt DocType, f Field) bool {
	for _, have := range fieldsByType[dt] {
		if have == f {
			return true
		}
	}
	return false
}

// Value is a typed field value. Exactly one payload is meaningful,
// selected by Kind; accessors for the other kinds return zero values.
// Monetary amounts are integer cents to keep arithmetic exact.
type Value struct {
	kind  Kind
	text  string
	date  Date
	cents int64
}

// Text builds a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// DateValue builds a calendar date value.
func DateValue(d Date) Value { return Value{kind: KindDate, date: d} }

// Money builds a monetary value from integer cents.
func Money(cents int64) Value { return Value{kind: KindMoney, cents: cents} }

// Kind reports which payload the value carries.
func (v Value) Kind() Kind { return v.kind }

// Text returns the text payload, or "" for non-text values.
func (v Value) Text() string { return v.text }

// Date returns the date payload, or the zero date for non-date values.
func (v Value) Date() Date { return v.date }

// Money returns the cents payload, or 0 for non-money values.
func (v Value) Money() int64 { return v.cents }

func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindDate:
		return v.date.String()
	case KindMoney:
		cents := v.cents
		sign := ""
		if cents < 0 {
			sign = "-"
			cents = -cents
		}
		return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	default:
		return ""
	}
}
