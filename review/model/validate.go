package model

import (
	"fmt"
	"strings"
)

// requiredFields are the fields that must be filled before a draft can be
// confirmed. Reference numbers are identity for invoices; bills, receipts
// and credit notes are bookable without one.
var requiredFields = map[DocType][]Field{
	DocTypeInvoice:    {FieldInvoiceNumber, FieldIssueDate, FieldDueDate, FieldCurrency, FieldGrossAmount},
	DocTypeBill:       {FieldIssueDate, FieldDueDate, FieldCurrency, FieldGrossAmount},
	DocTypeReceipt:    {FieldPurchaseDate, FieldCurrency, FieldGrossAmount},
	DocTypeCreditNote: {FieldIssueDate, FieldCurrency, FieldGrossAmount},
}

// RequiredFields lists the fields a document type needs before confirm.
func RequiredFields(dt DocType) []Field {
	fields := requiredFields[dt]
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ValidationError describes everything blocking a confirm. It is built all
// at once so the caller can surface the complete list, not the first issue.
type ValidationError struct {
	UnknownType    bool
	MissingFields  []Field
	MissingContact bool
	AmountMismatch bool
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.UnknownType {
		parts = append(parts, "document type is unknown")
	}
	for _, f := range e.MissingFields {
		parts = append(parts, fmt.Sprintf("field %s is empty", f))
	}
	if e.MissingContact {
		parts = append(parts, "no contact linked")
	}
	if e.AmountMismatch {
		parts = append(parts, "net plus vat does not equal gross")
	}
	if len(parts) == 0 {
		return "document not confirmable"
	}
	return strings.Join(parts, "; ")
}

// Validate checks whether a payload can be confirmed. A nil return means
// the draft is bookable. contactLinked tells whether a counterparty is
// attached; it only matters for types where RequiresContact holds.
func Validate(e Editable, contactLinked bool) *ValidationError {
	verr := &ValidationError{}
	if e.DocType == DocTypeUnknown || e.activeNil() {
		verr.UnknownType = true
		return verr
	}
	for _, f := range requiredFields[e.DocType] {
		v, ok := e.Get(f)
		if !ok || isEmpty(v) {
			verr.MissingFields = append(verr.MissingFields, f)
		}
	}
	if RequiresContact(e.DocType) && !contactLinked {
		verr.MissingContact = true
	}
	if net, vat, gross, ok := amounts(e); ok && net+vat != gross {
		verr.AmountMismatch = true
	}
	if len(verr.MissingFields) == 0 && !verr.MissingContact && !verr.AmountMismatch {
		return nil
	}
	return verr
}

func isEmpty(v Value) bool {
	switch v.Kind() {
	case KindText:
		return strings.TrimSpace(v.Text()) == ""
	case KindDate:
		return v.Date().IsZero()
	case KindMoney:
		return v.Money() == 0
	default:
		return true
	}
}

// amounts returns net, vat and gross when all three are present on the
// payload and filled in. Receipts have no net amount, so the cross-check
// does not apply to them.
func amounts(e Editable) (net, vat, gross int64, ok bool) {
	if !HasField(e.DocType, FieldNetAmount) {
		return 0, 0, 0, false
	}
	netV, _ := e.Get(FieldNetAmount)
	vatV, _ := e.Get(FieldVATAmount)
	grossV, _ := e.Get(FieldGrossAmount)
	if netV.Money() == 0 || grossV.Money() == 0 {
		return 0, 0, 0, false
	}
	return netV.Money(), vatV.Money(), grossV.Money(), true
}
