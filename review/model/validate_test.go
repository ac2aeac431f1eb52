package model

import (
	"testing"
	"time"
)

func confirmableBill() Editable {
	return Editable{
		DocType: DocTypeBill,
		Bill: &BillData{
			BillNumber: "2026-77",
			IssueDate:  Date{Year: 2026, Month: time.January, Day: 10},
			DueDate:    Date{Year: 2026, Month: time.February, Day: 10},
			Currency:   "EUR",
			NetCents:   5000,
			VATCents:   1050,
			GrossCents: 6050,
		},
	}
}

func TestValidateConfirmable(t *testing.T) {
	if verr := Validate(confirmableBill(), true); verr != nil {
		t.Errorf("expected confirmable bill, got: %v", verr)
	}

	receipt := Editable{
		DocType: DocTypeReceipt,
		Receipt: &ReceiptData{
			PurchaseDate: Date{Year: 2026, Month: time.March, Day: 3},
			Currency:     "EUR",
			GrossCents:   1250,
		},
	}
	// Receipts are bookable without a contact.
	if verr := Validate(receipt, false); verr != nil {
		t.Errorf("expected confirmable receipt, got: %v", verr)
	}
}

func TestValidateUnknownType(t *testing.T) {
	verr := Validate(EmptyFor(DocTypeUnknown), true)
	if verr == nil {
		t.Fatal("unknown type must not validate")
	}
	if !verr.UnknownType {
		t.Errorf("expected UnknownType flag, got: %+v", verr)
	}
}

func TestValidateMissingFields(t *testing.T) {
	e := confirmableBill()
	e.Bill.IssueDate = Date{}
	e.Bill.Currency = "  "

	verr := Validate(e, true)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	want := map[Field]bool{FieldIssueDate: true, FieldCurrency: true}
	if len(verr.MissingFields) != len(want) {
		t.Fatalf("missing fields = %v", verr.MissingFields)
	}
	for _, f := range verr.MissingFields {
		if !want[f] {
			t.Errorf("unexpected missing field %s", f)
		}
	}
}

func TestValidateMissingContact(t *testing.T) {
	verr := Validate(confirmableBill(), false)
	if verr == nil || !verr.MissingContact {
		t.Errorf("bill without contact should be blocked, got: %v", verr)
	}
}

func TestValidateAmountMismatch(t *testing.T) {
	e := confirmableBill()
	e.Bill.VATCents = 1000

	verr := Validate(e, true)
	if verr == nil || !verr.AmountMismatch {
		t.Errorf("expected amount mismatch, got: %v", verr)
	}

	// With no net amount filled in the cross-check is skipped.
	e.Bill.NetCents = 0
	if verr := Validate(e, true); verr != nil && verr.AmountMismatch {
		t.Errorf("cross-check should be skipped without net: %v", verr)
	}
}

func TestValidateErrorMessage(t *testing.T) {
	e := confirmableBill()
	e.Bill.GrossCents = 0
	e.Bill.NetCents = 0

	verr := Validate(e, false)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	msg := verr.Error()
	if msg == "" || msg == "document not confirmable" {
		t.Errorf("expected issue list in message, got %q", msg)
	}
}
