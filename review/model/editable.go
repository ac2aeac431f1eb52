package model

import "fmt"

// LineItem is one booked line of a document. Amounts are integer cents.
type LineItem struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	VATRatePercent float64 `json:"vatRatePercent"`
	TotalCents     int64   `json:"totalCents"`
}

// InvoiceData is the editable payload of an outgoing invoice.
type InvoiceData struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	IssueDate     Date       `json:"issueDate"`
	DueDate       Date       `json:"dueDate"`
	Currency      string     `json:"currency"`
	NetCents      int64      `json:"netCents"`
	VATCents      int64      `json:"vatCents"`
	GrossCents    int64      `json:"grossCents"`
	LineItems     []LineItem `json:"lineItems,omitempty"`
}

// BillData is the editable payload of an incoming supplier invoice.
type BillData struct {
	BillNumber string     `json:"billNumber"`
	IssueDate  Date       `json:"issueDate"`
	DueDate    Date       `json:"dueDate"`
	Currency   string     `json:"currency"`
	NetCents   int64      `json:"netCents"`
	VATCents   int64      `json:"vatCents"`
	GrossCents int64      `json:"grossCents"`
	LineItems  []LineItem `json:"lineItems,omitempty"`
}

// ReceiptData is the editable payload of a purchase receipt. Receipts carry
// no net amount of their own; VAT and gross are what the slip shows.
type ReceiptData struct {
	ReceiptNumber string     `json:"receiptNumber"`
	PurchaseDate  Date       `json:"purchaseDate"`
	Currency      string     `json:"currency"`
	VATCents      int64      `json:"vatCents"`
	GrossCents    int64      `json:"grossCents"`
	LineItems     []LineItem `json:"lineItems,omitempty"`
}

// CreditNoteData is the editable payload of a credit note.
type CreditNoteData struct {
	CreditNoteNumber     string     `json:"creditNoteNumber"`
	RelatedInvoiceNumber string     `json:"relatedInvoiceNumber"`
	IssueDate            Date       `json:"issueDate"`
	Currency             string     `json:"currency"`
	NetCents             int64      `json:"netCents"`
	VATCents             int64      `json:"vatCents"`
	GrossCents           int64      `json:"grossCents"`
	LineItems            []LineItem `json:"lineItems,omitempty"`
}

// Editable is a draft payload tagged by document type. At most one of the
// variant pointers is set, matching DocType; for DocTypeUnknown all are nil
// and there is nothing to edit until the type is changed.
//
// Editable is a value type: Set and the line-item operations return a
// modified copy and never alias slices with the receiver, so snapshots held
// for change tracking stay stable.
type Editable struct {
	DocType    DocType         `json:"docType"`
	Invoice    *InvoiceData    `json:"invoice,omitempty"`
	Bill       *BillData       `json:"bill,omitempty"`
	Receipt    *ReceiptData    `json:"receipt,omitempty"`
	CreditNote *CreditNoteData `json:"creditNote,omitempty"`
}

// EmptyFor returns a blank payload for the given document type.
func EmptyFor(dt DocType) Editable {
	e := Editable{DocType: dt}
	switch dt {
	case DocTypeInvoice:
		e.Invoice = &InvoiceData{}
	case DocTypeBill:
		e.Bill = &BillData{}
	case DocTypeReceipt:
		e.Receipt = &ReceiptData{}
	case DocTypeCreditNote:
		e.CreditNote = &CreditNoteData{}
	}
	return e
}

// FieldError reports a rejected field update.
type FieldError struct {
	Field   Field
	DocType DocType
	Want    Kind
	Got     Kind
}

func (e *FieldError) Error() string {
	if e.Want != "" && e.Got != "" && e.Want != e.Got {
		return fmt.Sprintf("field %s wants %s value, got %s", e.Field, e.Want, e.Got)
	}
	return fmt.Sprintf("field %s not editable on %s document", e.Field, e.DocType)
}

// Set returns a copy with one field updated. The field must exist on the
// payload's document type and the value kind must match the field kind.
func (e Editable) Set(f Field, v Value) (Editable, error) {
	if !HasField(e.DocType, f) {
		return e, &FieldError{Field: f, DocType: e.DocType}
	}
	if want := KindOf(f); want != v.Kind() {
		return e, &FieldError{Field: f, DocType: e.DocType, Want: want, Got: v.Kind()}
	}
	out := e.clone()
	switch {
	case out.Invoice != nil:
		out.Invoice.set(f, v)
	case out.Bill != nil:
		out.Bill.set(f, v)
	case out.Receipt != nil:
		out.Receipt.set(f, v)
	case out.CreditNote != nil:
		out.CreditNote.set(f, v)
	}
	return out, nil
}

// Get returns the current value of a field, or a zero Value with ok=false
// when the field does not exist on the payload's document type.
func (e Editable) Get(f Field) (Value, bool) {
	if !HasField(e.DocType, f) {
		return Value{}, false
	}
	switch {
	case e.Invoice != nil:
		return e.Invoice.get(f), true
	case e.Bill != nil:
		return e.Bill.get(f), true
	case e.Receipt != nil:
		return e.Receipt.get(f), true
	case e.CreditNote != nil:
		return e.CreditNote.get(f), true
	}
	return Value{}, false
}

// LineItems returns a copy of the payload's line items.
func (e Editable) LineItems() []LineItem {
	items := e.lineItems()
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// AppendLineItem returns a copy with the item added at the end. Unknown
// document types have no line items and the payload is returned unchanged.
func (e Editable) AppendLineItem(item LineItem) Editable {
	if e.DocType == DocTypeUnknown || e.activeNil() {
		return e
	}
	out := e.clone()
	out.setLineItems(append(out.lineItems(), item))
	return out
}

// ReplaceLineItem returns a copy with the item at index replaced. An index
// outside the current range leaves the payload unchanged.
func (e Editable) ReplaceLineItem(index int, item LineItem) Editable {
	items := e.lineItems()
	if index < 0 || index >= len(items) {
		return e
	}
	out := e.clone()
	out.lineItems()[index] = item
	return out
}

// RemoveLineItem returns a copy with the item at index removed. An index
// outside the current range leaves the payload unchanged.
func (e Editable) RemoveLineItem(index int) Editable {
	items := e.lineItems()
	if index < 0 || index >= len(items) {
		return e
	}
	out := e.clone()
	kept := out.lineItems()
	out.setLineItems(append(kept[:index], kept[index+1:]...))
	return out
}

// Equal reports whether two payloads carry identical data. Nil and empty
// line-item slices compare equal.
func (e Editable) Equal(o Editable) bool {
	if e.DocType != o.DocType {
		return false
	}
	switch {
	case e.Invoice != nil && o.Invoice != nil:
		return e.Invoice.equal(o.Invoice)
	case e.Bill != nil && o.Bill != nil:
		return e.Bill.equal(o.Bill)
	case e.Receipt != nil && o.Receipt != nil:
		return e.Receipt.equal(o.Receipt)
	case e.CreditNote != nil && o.CreditNote != nil:
		return e.CreditNote.equal(o.CreditNote)
	}
	return e.activeNil() && o.activeNil()
}

// Normalize repairs the variant tag after decoding: the variant matching
// DocType is kept, stray variants are dropped, and a missing variant for a
// known type is allocated empty.
func (e Editable) Normalize() Editable {
	out := EmptyFor(ParseDocType(string(e.DocType)))
	switch out.DocType {
	case DocTypeInvoice:
		if e.Invoice != nil {
			out.Invoice = e.Invoice
		}
	case DocTypeBill:
		if e.Bill != nil {
			out.Bill = e.Bill
		}
	case DocTypeReceipt:
		if e.Receipt != nil {
			out.Receipt = e.Receipt
		}
	case DocTypeCreditNote:
		if e.CreditNote != nil {
			out.CreditNote = e.CreditNote
		}
	}
	return out
}

func (e Editable) activeNil() bool {
	return e.Invoice == nil && e.Bill == nil && e.Receipt == nil && e.CreditNote == nil
}

func (e Editable) clone() Editable {
	out := Editable{DocType: e.DocType}
	if e.Invoice != nil {
		cp := *e.Invoice
		cp.LineItems = copyItems(e.Invoice.LineItems)
		out.Invoice = &cp
	}
	if e.Bill != nil {
		cp := *e.Bill
		cp.LineItems = copyItems(e.Bill.LineItems)
		out.Bill = &cp
	}
	if e.Receipt != nil {
		cp := *e.Receipt
		cp.LineItems = copyItems(e.Receipt.LineItems)
		out.Receipt = &cp
	}
	if e.CreditNote != nil {
		cp := *e.CreditNote
		cp.LineItems = copyItems(e.CreditNote.LineItems)
		out.CreditNote = &cp
	}
	return out
}

func (e Editable) lineItems() []LineItem {
	switch {
	case e.Invoice != nil:
		return e.Invoice.LineItems
	case e.Bill != nil:
		return e.Bill.LineItems
	case e.Receipt != nil:
		return e.Receipt.LineItems
	case e.CreditNote != nil:
		return e.CreditNote.LineItems
	}
	return nil
}

func (e *Editable) setLineItems(items []LineItem) {
	switch {
	case e.Invoice != nil:
		e.Invoice.LineItems = items
	case e.Bill != nil:
		e.Bill.LineItems = items
	case e.Receipt != nil:
		e.Receipt.LineItems = items
	case e.CreditNote != nil:
		e.CreditNote.LineItems = items
	}
}

func copyItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func itemsEqual(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *InvoiceData) set(f Field, v Value) {
	switch f {
	case FieldInvoiceNumber:
		d.InvoiceNumber = v.Text()
	case FieldIssueDate:
		d.IssueDate = v.Date()
	case FieldDueDate:
		d.DueDate = v.Date()
	case FieldCurrency:
		d.Currency = v.Text()
	case FieldNetAmount:
		d.NetCents = v.Money()
	case FieldVATAmount:
		d.VATCents = v.Money()
	case FieldGrossAmount:
		d.GrossCents = v.Money()
	}
}

func (d *InvoiceData) get(f Field) Value {
	switch f {
	case FieldInvoiceNumber:
		return Text(d.InvoiceNumber)
	case FieldIssueDate:
		return DateValue(d.IssueDate)
	case FieldDueDate:
		return DateValue(d.DueDate)
	case FieldCurrency:
		return Text(d.Currency)
	case FieldNetAmount:
		return Money(d.NetCents)
	case FieldVATAmount:
		return Money(d.VATCents)
	case FieldGrossAmount:
		return Money(d.GrossCents)
	}
	return Value{}
}

func (d *InvoiceData) equal(o *InvoiceData) bool {
	return d.InvoiceNumber == o.InvoiceNumber &&
		d.IssueDate == o.IssueDate &&
		d.DueDate == o.DueDate &&
		d.Currency == o.Currency &&
		d.NetCents == o.NetCents &&
		d.VATCents == o.VATCents &&
		d.GrossCents == o.GrossCents &&
		itemsEqual(d.LineItems, o.LineItems)
}

func (d *BillData) set(f Field, v Value) {
	switch f {
	case FieldBillNumber:
		d.BillNumber = v.Text()
	case FieldIssueDate:
		d.IssueDate = v.Date()
	case FieldDueDate:
		d.DueDate = v.Date()
	case FieldCurrency:
		d.Currency = v.Text()
	case FieldNetAmount:
		d.NetCents = v.Money()
	case FieldVATAmount:
		d.VATCents = v.Money()
	case FieldGrossAmount:
		d.GrossCents = v.Money()
	}
}

func (d *BillData) get(f Field) Value {
	switch f {
	case FieldBillNumber:
		return Text(d.BillNumber)
	case FieldIssueDate:
		return DateValue(d.IssueDate)
	case FieldDueDate:
		return DateValue(d.DueDate)
	case FieldCurrency:
		return Text(d.Currency)
	case FieldNetAmount:
		return Money(d.NetCents)
	case FieldVATAmount:
		return Money(d.VATCents)
	case FieldGrossAmount:
		return Money(d.GrossCents)
	}
	return Value{}
}

func (d *BillData) equal(o *BillData) bool {
	return d.BillNumber == o.BillNumber &&
		d.IssueDate == o.IssueDate &&
		d.DueDate == o.DueDate &&
		d.Currency == o.Currency &&
		d.NetCents == o.NetCents &&
		d.VATCents == o.VATCents &&
		d.GrossCents == o.GrossCents &&
		itemsEqual(d.LineItems, o.LineItems)
}

func (d *ReceiptData) set(f Field, v Value) {
	switch f {
	case FieldReceiptNumber:
		d.ReceiptNumber = v.Text()
	case FieldPurchaseDate:
		d.PurchaseDate = v.Date()
	case FieldCurrency:
		d.Currency = v.Text()
	case FieldVATAmount:
		d.VATCents = v.Money()
	case FieldGrossAmount:
		d.GrossCents = v.Money()
	}
}

func (d *ReceiptData) get(f Field) Value {
	switch f {
	case FieldReceiptNumber:
		return Text(d.ReceiptNumber)
	case FieldPurchaseDate:
		return DateValue(d.PurchaseDate)
	case FieldCurrency:
		return Text(d.Currency)
	case FieldVATAmount:
		return Money(d.VATCents)
	case FieldGrossAmount:
		return Money(d.GrossCents)
	}
	return Value{}
}

func (d *ReceiptData) equal(o *ReceiptData) bool {
	return d.ReceiptNumber == o.ReceiptNumber &&
		d.PurchaseDate == o.PurchaseDate &&
		d.Currency == o.Currency &&
		d.VATCents == o.VATCents &&
		d.GrossCents == o.GrossCents &&
		itemsEqual(d.LineItems, o.LineItems)
}

func (d *CreditNoteData) set(f Field, v Value) {
	switch f {
	case FieldCreditNoteNumber:
		d.CreditNoteNumber = v.Text()
	case FieldRelatedInvoiceNumber:
		d.RelatedInvoiceNumber = v.Text()
	case FieldIssueDate:
		d.IssueDate = v.Date()
	case FieldCurrency:
		d.Currency = v.Text()
	case FieldNetAmount:
		d.NetCents = v.Money()
	case FieldVATAmount:
		d.VATCents = v.Money()
	case FieldGrossAmount:
		d.GrossCents = v.Money()
	}
}

func (d *CreditNoteData) get(f Field) Value {
	switch f {
	case FieldCreditNoteNumber:
		return Text(d.CreditNoteNumber)
	case FieldRelatedInvoiceNumber:
		return Text(d.RelatedInvoiceNumber)
	case FieldIssueDate:
		return DateValue(d.IssueDate)
	case FieldCurrency:
		return Text(d.Currency)
	case FieldNetAmount:
		return Money(d.NetCents)
	case FieldVATAmount:
		return Money(d.VATCents)
	case FieldGrossAmount:
		return Money(d.GrossCents)
	}
	return Value{}
}

func (d *CreditNoteData) equal(o *CreditNoteData) bool {
	return d.CreditNoteNumber == o.CreditNoteNumber &&
		d.RelatedInvoiceNumber == o.RelatedInvoiceNumber &&
		d.IssueDate == o.IssueDate &&
		d.Currency == o.Currency &&
		d.NetCents == o.NetCents &&
		d.VATCents == o.VATCents &&
		d.GrossCents == o.GrossCents &&
		itemsEqual(d.LineItems, o.LineItems)
}
