package peppol

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/workspaces"
	"ledgerly-backend/review/model"
)

var (
	ErrNotInvoice   = errors.New("document is not an invoice")
	ErrNotConfirmed = errors.New("invoice draft not confirmed")
)

const (
	ublInvoiceNS = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	ublCACNS     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	ublCBCNS     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	ublCustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0"
	ublProfileID       = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"

	// UNCL1001 code for a commercial invoice.
	invoiceTypeCode = "380"
	// UNECE rec 20 code for "unit".
	unitCodeEach = "C62"
	// UNCL5305 standard rate category.
	taxCategoryStandard = "S"
)

type ublAmount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type ublQuantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type ublEndpoint struct {
	Value    string `xml:",chardata"`
	SchemeID string `xml:"schemeID,attr"`
}

type ublTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type ublPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type ublAddress struct {
	Country ublCountry `xml:"cac:Country"`
}

type ublPartyName struct {
	Name string `xml:"cbc:Name"`
}

type ublLegalEntity struct {
	RegistrationName string `xml:"cbc:RegistrationName"`
}

type ublParty struct {
	EndpointID     *ublEndpoint       `xml:"cbc:EndpointID,omitempty"`
	PartyName      ublPartyName       `xml:"cac:PartyName"`
	PostalAddress  *ublAddress        `xml:"cac:PostalAddress,omitempty"`
	PartyTaxScheme *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	LegalEntity    ublLegalEntity     `xml:"cac:PartyLegalEntity"`
}

type ublPartyWrap struct {
	Party ublParty `xml:"cac:Party"`
}

type ublTaxCategory struct {
	ID        string       `xml:"cbc:ID"`
	Percent   string       `xml:"cbc:Percent"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublTaxSubtotal struct {
	TaxableAmount ublAmount      `xml:"cbc:TaxableAmount"`
	TaxAmount     ublAmount      `xml:"cbc:TaxAmount"`
	TaxCategory   ublTaxCategory `xml:"cac:TaxCategory"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount        `xml:"cbc:TaxAmount"`
	Subtotals []ublTaxSubtotal `xml:"cac:TaxSubtotal"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublItem struct {
	Name        string         `xml:"cbc:Name"`
	TaxCategory ublTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type ublPrice struct {
	PriceAmount ublAmount `xml:"cbc:PriceAmount"`
}

type ublInvoiceLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item                ublItem     `xml:"cac:Item"`
	Price               ublPrice    `xml:"cac:Price"`
}

type ublInvoice struct {
	XMLName              xml.Name         `xml:"Invoice"`
	XMLNS                string           `xml:"xmlns,attr"`
	XMLNSCAC             string           `xml:"xmlns:cac,attr"`
	XMLNSCBC             string           `xml:"xmlns:cbc,attr"`
	CustomizationID      string           `xml:"cbc:CustomizationID"`
	ProfileID            string           `xml:"cbc:ProfileID"`
	ID                   string           `xml:"cbc:ID"`
	IssueDate            string           `xml:"cbc:IssueDate"`
	DueDate              string           `xml:"cbc:DueDate,omitempty"`
	InvoiceTypeCode      string           `xml:"cbc:InvoiceTypeCode"`
	DocumentCurrencyCode string           `xml:"cbc:DocumentCurrencyCode"`
	Supplier             ublPartyWrap     `xml:"cac:AccountingSupplierParty"`
	Customer             ublPartyWrap     `xml:"cac:AccountingCustomerParty"`
	TaxTotal             ublTaxTotal      `xml:"cac:TaxTotal"`
	LegalMonetaryTotal   ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`
	Lines                []ublInvoiceLine `xml:"cac:InvoiceLine"`
}

// RenderInvoiceUBL renders a confirmed invoice draft as a UBL 2.1 Invoice
// per the Peppol BIS Billing 3.0 profile. The workspace is the supplier,
// the linked contact the customer; reg, when present, contributes the
// supplier's network endpoint.
func RenderInvoiceUBL(ws workspaces.Workspace, reg *Registration, rec documents.Record, customer contacts.Contact) ([]byte, error) {
	draft := rec.Draft
	if draft == nil || draft.DocType != model.DocTypeInvoice || draft.Data.Invoice == nil {
		return nil, ErrNotInvoice
	}
	if draft.Status != model.DraftConfirmed {
		return nil, ErrNotConfirmed
	}
	data := draft.Data.Invoice

	currency := strings.ToUpper(data.Currency)
	if currency == "" {
		currency = "EUR"
	}
	rate := vatRate(data.NetCents, data.VATCents)

	inv := ublInvoice{
		XMLNS:                ublInvoiceNS,
		XMLNSCAC:             ublCACNS,
		XMLNSCBC:             ublCBCNS,
		CustomizationID:      ublCustomizationID,
		ProfileID:            ublProfileID,
		ID:                   data.InvoiceNumber,
		IssueDate:            data.IssueDate.String(),
		DueDate:              data.DueDate.String(),
		InvoiceTypeCode:      invoiceTypeCode,
		DocumentCurrencyCode: currency,
		Supplier:             ublPartyWrap{Party: supplierParty(ws, reg)},
		Customer:             ublPartyWrap{Party: customerParty(customer)},
		TaxTotal: ublTaxTotal{
			TaxAmount: amount(data.VATCents, currency),
			Subtotals: []ublTaxSubtotal{{
				TaxableAmount: amount(data.NetCents, currency),
				TaxAmount:     amount(data.VATCents, currency),
				TaxCategory:   taxCategory(rate),
			}},
		},
		LegalMonetaryTotal: ublMonetaryTotal{
			LineExtensionAmount: amount(data.NetCents, currency),
			TaxExclusiveAmount:  amount(data.NetCents, currency),
			TaxInclusiveAmount:  amount(data.GrossCents, currency),
			PayableAmount:       amount(data.GrossCents, currency),
		},
		Lines: invoiceLines(data, currency, rate),
	}

	out, err := xml.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ubl: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func supplierParty(ws workspaces.Workspace, reg *Registration) ublParty {
	party := ublParty{
		PartyName:   ublPartyName{Name: ws.Name},
		LegalEntity: ublLegalEntity{RegistrationName: ws.Name},
	}
	if reg != nil && reg.ParticipantID != "" && reg.Scheme != "" {
		party.EndpointID = &ublEndpoint{
			Value:    strings.TrimPrefix(reg.ParticipantID, reg.Scheme+":"),
			SchemeID: reg.Scheme,
		}
	}
	if ws.CountryCode != "" {
		party.PostalAddress = &ublAddress{Country: ublCountry{IdentificationCode: ws.CountryCode}}
	}
	if ws.VATNumber != "" {
		party.PartyTaxScheme = &ublPartyTaxScheme{
			CompanyID: ws.VATNumber,
			TaxScheme: ublTaxScheme{ID: "VAT"},
		}
	}
	return party
}

func customerParty(customer contacts.Contact) ublParty {
	party := ublParty{
		PartyName:   ublPartyName{Name: customer.Name},
		LegalEntity: ublLegalEntity{RegistrationName: customer.Name},
	}
	if customer.CountryCode != "" {
		party.PostalAddress = &ublAddress{Country: ublCountry{IdentificationCode: customer.CountryCode}}
	}
	if customer.VATNumber != "" {
		party.PartyTaxScheme = &ublPartyTaxScheme{
			CompanyID: customer.VATNumber,
			TaxScheme: ublTaxScheme{ID: "VAT"},
		}
	}
	return party
}

func invoiceLines(data *model.InvoiceData, currency string, rate float64) []ublInvoiceLine {
	items := data.LineItems
	if len(items) == 0 {
		// The profile requires at least one line; synthesize it from the
		// document totals.
		return []ublInvoiceLine{{
			ID:                  "1",
			InvoicedQuantity:    ublQuantity{Value: "1", UnitCode: unitCodeEach},
			LineExtensionAmount: amount(data.NetCents, currency),
			Item: ublItem{
				Name:        lineName("", 1),
				TaxCategory: taxCategory(rate),
			},
			Price: ublPrice{PriceAmount: amount(data.NetCents, currency)},
		}}
	}

	lines := make([]ublInvoiceLine, 0, len(items))
	for i, item := range items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		lines = append(lines, ublInvoiceLine{
			ID:                  strconv.Itoa(i + 1),
			InvoicedQuantity:    ublQuantity{Value: formatFloat(quantity), UnitCode: unitCodeEach},
			LineExtensionAmount: amount(item.TotalCents, currency),
			Item: ublItem{
				Name:        lineName(item.Description, i+1),
				TaxCategory: taxCategory(item.VATRatePercent),
			},
			Price: ublPrice{PriceAmount: amount(item.UnitPriceCents, currency)},
		})
	}
	return lines
}

func taxCategory(ratePercent float64) ublTaxCategory {
	return ublTaxCategory{
		ID:        taxCategoryStandard,
		Percent:   formatFloat(ratePercent),
		TaxScheme: ublTaxScheme{ID: "VAT"},
	}
}

func lineName(description string, index int) string {
	description = strings.TrimSpace(description)
	if description != "" {
		return description
	}
	return fmt.Sprintf("Line %d", index)
}

func amount(cents int64, currency string) ublAmount {
	return ublAmount{Value: centsString(cents), CurrencyID: currency}
}

func centsString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func vatRate(netCents, vatCents int64) float64 {
	if netCents <= 0 {
		return 0
	}
	rate := float64(vatCents) * 100 / float64(netCents)
	return math.Round(rate*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
