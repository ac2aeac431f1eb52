package peppol

import (
	"strings"
	"testing"
	"time"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/workspaces"
	"ledgerly-backend/review/model"
)

func confirmedInvoiceRecord() documents.Record {
	data := model.EmptyFor(model.DocTypeInvoice)
	data.Invoice.InvoiceNumber = "INV-2042"
	data.Invoice.IssueDate = model.Date{Year: 2026, Month: time.March, Day: 1}
	data.Invoice.DueDate = model.Date{Year: 2026, Month: time.March, Day: 31}
	data.Invoice.Currency = "EUR"
	data.Invoice.NetCents = 10000
	data.Invoice.VATCents = 2100
	data.Invoice.GrossCents = 12100
	data.Invoice.LineItems = []model.LineItem{{
		Description:    "Consulting",
		Quantity:       2,
		UnitPriceCents: 5000,
		VATRatePercent: 21,
		TotalCents:     10000,
	}}
	return documents.Record{
		Document: documents.Document{ID: "doc-1", WorkspaceID: "ws-1", FileName: "invoice.pdf"},
		Draft: &documents.Draft{
			ID:              "draft-1",
			DocumentID:      "doc-1",
			DocType:         model.DocTypeInvoice,
			Status:          model.DraftConfirmed,
			Data:            data,
			LinkedContactID: "contact-1",
		},
	}
}

func TestRenderInvoiceUBL(t *testing.T) {
	ws := workspaces.Workspace{ID: "ws-1", Name: "Acme BV", CountryCode: "NL", VATNumber: "NL123456789B01"}
	reg := &Registration{
		WorkspaceID:   "ws-1",
		ParticipantID: "9944:nl123456789b01",
		Scheme:        "9944",
		Status:        StatusRegistered,
	}
	customer := contacts.Contact{ID: "contact-1", Name: "Klant BV", VATNumber: "BE0123456749", CountryCode: "BE"}

	out, err := RenderInvoiceUBL(ws, reg, confirmedInvoiceRecord(), customer)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	xml := string(out)

	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("expected an xml header, got %q", xml[:40])
	}
	for _, want := range []string{
		`xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"`,
		`<cbc:CustomizationID>urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0</cbc:CustomizationID>`,
		`<cbc:ID>INV-2042</cbc:ID>`,
		`<cbc:IssueDate>2026-03-01</cbc:IssueDate>`,
		`<cbc:DueDate>2026-03-31</cbc:DueDate>`,
		`<cbc:InvoiceTypeCode>380</cbc:InvoiceTypeCode>`,
		`<cbc:DocumentCurrencyCode>EUR</cbc:DocumentCurrencyCode>`,
		`<cbc:EndpointID schemeID="9944">nl123456789b01</cbc:EndpointID>`,
		`<cbc:RegistrationName>Acme BV</cbc:RegistrationName>`,
		`<cbc:RegistrationName>Klant BV</cbc:RegistrationName>`,
		`<cbc:CompanyID>BE0123456749</cbc:CompanyID>`,
		`<cbc:TaxAmount currencyID="EUR">21.00</cbc:TaxAmount>`,
		`<cbc:TaxInclusiveAmount currencyID="EUR">121.00</cbc:TaxInclusiveAmount>`,
		`<cbc:PayableAmount currencyID="EUR">121.00</cbc:PayableAmount>`,
		`<cbc:InvoicedQuantity unitCode="C62">2</cbc:InvoicedQuantity>`,
		`<cbc:Name>Consulting</cbc:Name>`,
		`<cbc:PriceAmount currencyID="EUR">50.00</cbc:PriceAmount>`,
		`<cbc:Percent>21</cbc:Percent>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected output to contain %q\n%s", want, xml)
		}
	}
}

func TestRenderInvoiceUBLSynthesizesLine(t *testing.T) {
	rec := confirmedInvoiceRecord()
	rec.Draft.Data.Invoice.LineItems = nil

	out, err := RenderInvoiceUBL(workspaces.Workspace{Name: "Acme BV"}, nil, rec, contacts.Contact{Name: "Klant BV"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	xml := string(out)

	if !strings.Contains(xml, `<cbc:InvoicedQuantity unitCode="C62">1</cbc:InvoicedQuantity>`) {
		t.Fatalf("expected a synthesized single line\n%s", xml)
	}
	if !strings.Contains(xml, `<cbc:LineExtensionAmount currencyID="EUR">100.00</cbc:LineExtensionAmount>`) {
		t.Fatalf("expected the net total on the synthesized line\n%s", xml)
	}
}

func TestRenderInvoiceUBLRejectsNonInvoice(t *testing.T) {
	rec := confirmedInvoiceRecord()
	rec.Draft.DocType = model.DocTypeBill

	if _, err := RenderInvoiceUBL(workspaces.Workspace{}, nil, rec, contacts.Contact{}); err != ErrNotInvoice {
		t.Fatalf("expected ErrNotInvoice, got %v", err)
	}

	if _, err := RenderInvoiceUBL(workspaces.Workspace{}, nil, documents.Record{}, contacts.Contact{}); err != ErrNotInvoice {
		t.Fatalf("expected ErrNotInvoice for a missing draft, got %v", err)
	}
}

func TestRenderInvoiceUBLRejectsUnconfirmed(t *testing.T) {
	rec := confirmedInvoiceRecord()
	rec.Draft.Status = model.DraftReady

	if _, err := RenderInvoiceUBL(workspaces.Workspace{}, nil, rec, contacts.Contact{}); err != ErrNotConfirmed {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
}
